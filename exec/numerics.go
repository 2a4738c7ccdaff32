package exec

import (
	"math"
	"math/bits"

	"github.com/wasmarch/wasmarch/wasm"
)

// A BinaryOp is a two-operand numeric operator. The same operator applies to every operand type it is
// defined for; the operand type selects the implementation.
type BinaryOp uint8

const (
	OpAdd BinaryOp = iota
	OpSub
	OpMul
	OpDivS
	OpDivU
	OpRemS
	OpRemU
	OpAnd
	OpOr
	OpXor
	OpShl
	OpShrS
	OpShrU
	OpRotl
	OpRotr
	OpDiv
	OpMin
	OpMax
	OpCopysign
	OpEq
	OpNe
	OpLtS
	OpLtU
	OpGtS
	OpGtU
	OpLeS
	OpLeU
	OpGeS
	OpGeU
	OpLt
	OpGt
	OpLe
	OpGe
)

// A UnaryOp is a one-operand numeric operator.
type UnaryOp uint8

const (
	OpClz UnaryOp = iota
	OpCtz
	OpPopcnt
	OpEqz
	OpAbs
	OpNeg
	OpCeil
	OpFloor
	OpTrunc
	OpNearest
	OpSqrt
	OpExtend8S
	OpExtend16S
	OpExtend32S
)

// Apply applies the operator to a pair of operands of the same type.
func (op BinaryOp) Apply(a, b Val) (Val, error) {
	if a.Type != b.Type {
		return None, ErrUndefinedBinaryOp
	}
	switch a.Type {
	case wasm.ValueTypeI32:
		return i32Binary(op, a.U32(), b.U32())
	case wasm.ValueTypeI64:
		return i64Binary(op, a.U64(), b.U64())
	case wasm.ValueTypeF32:
		return f32Binary(op, a.F32(), b.F32(), a.U32(), b.U32())
	case wasm.ValueTypeF64:
		return f64Binary(op, a.F64(), b.F64(), a.U64(), b.U64())
	default:
		return None, ErrUndefinedBinaryOp
	}
}

func i32Binary(op BinaryOp, a, b uint32) (Val, error) {
	switch op {
	case OpAdd:
		return I32(int32(a + b)), nil
	case OpSub:
		return I32(int32(a - b)), nil
	case OpMul:
		return I32(int32(a * b)), nil
	case OpDivS:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		if int32(a) == math.MinInt32 && int32(b) == -1 {
			return None, TrapIntegerOverflow
		}
		return I32(int32(a) / int32(b)), nil
	case OpDivU:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		return I32(int32(a / b)), nil
	case OpRemS:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		if int32(b) == -1 {
			return I32(0), nil
		}
		return I32(int32(a) % int32(b)), nil
	case OpRemU:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		return I32(int32(a % b)), nil
	case OpAnd:
		return I32(int32(a & b)), nil
	case OpOr:
		return I32(int32(a | b)), nil
	case OpXor:
		return I32(int32(a ^ b)), nil
	case OpShl:
		return I32(int32(a << (b & 31))), nil
	case OpShrS:
		return I32(int32(a) >> (b & 31)), nil
	case OpShrU:
		return I32(int32(a >> (b & 31))), nil
	case OpRotl:
		return I32(int32(bits.RotateLeft32(a, int(b&31)))), nil
	case OpRotr:
		return I32(int32(bits.RotateLeft32(a, -int(b&31)))), nil
	case OpEq:
		return Bool(a == b), nil
	case OpNe:
		return Bool(a != b), nil
	case OpLtS:
		return Bool(int32(a) < int32(b)), nil
	case OpLtU:
		return Bool(a < b), nil
	case OpGtS:
		return Bool(int32(a) > int32(b)), nil
	case OpGtU:
		return Bool(a > b), nil
	case OpLeS:
		return Bool(int32(a) <= int32(b)), nil
	case OpLeU:
		return Bool(a <= b), nil
	case OpGeS:
		return Bool(int32(a) >= int32(b)), nil
	case OpGeU:
		return Bool(a >= b), nil
	default:
		return None, ErrUndefinedBinaryOp
	}
}

func i64Binary(op BinaryOp, a, b uint64) (Val, error) {
	switch op {
	case OpAdd:
		return I64(int64(a + b)), nil
	case OpSub:
		return I64(int64(a - b)), nil
	case OpMul:
		return I64(int64(a * b)), nil
	case OpDivS:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		if int64(a) == math.MinInt64 && int64(b) == -1 {
			return None, TrapIntegerOverflow
		}
		return I64(int64(a) / int64(b)), nil
	case OpDivU:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		return I64(int64(a / b)), nil
	case OpRemS:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		if int64(b) == -1 {
			return I64(0), nil
		}
		return I64(int64(a) % int64(b)), nil
	case OpRemU:
		if b == 0 {
			return None, TrapIntegerDivideByZero
		}
		return I64(int64(a % b)), nil
	case OpAnd:
		return I64(int64(a & b)), nil
	case OpOr:
		return I64(int64(a | b)), nil
	case OpXor:
		return I64(int64(a ^ b)), nil
	case OpShl:
		return I64(int64(a << (b & 63))), nil
	case OpShrS:
		return I64(int64(a) >> (b & 63)), nil
	case OpShrU:
		return I64(int64(a >> (b & 63))), nil
	case OpRotl:
		return I64(int64(bits.RotateLeft64(a, int(b&63)))), nil
	case OpRotr:
		return I64(int64(bits.RotateLeft64(a, -int(b&63)))), nil
	case OpEq:
		return Bool(a == b), nil
	case OpNe:
		return Bool(a != b), nil
	case OpLtS:
		return Bool(int64(a) < int64(b)), nil
	case OpLtU:
		return Bool(a < b), nil
	case OpGtS:
		return Bool(int64(a) > int64(b)), nil
	case OpGtU:
		return Bool(a > b), nil
	case OpLeS:
		return Bool(int64(a) <= int64(b)), nil
	case OpLeU:
		return Bool(a <= b), nil
	case OpGeS:
		return Bool(int64(a) >= int64(b)), nil
	case OpGeU:
		return Bool(a >= b), nil
	default:
		return None, ErrUndefinedBinaryOp
	}
}

func f32Binary(op BinaryOp, a, b float32, abits, bbits uint32) (Val, error) {
	switch op {
	case OpAdd:
		return F32(a + b), nil
	case OpSub:
		return F32(a - b), nil
	case OpMul:
		return F32(a * b), nil
	case OpDiv:
		return F32(a / b), nil
	case OpMin:
		return F32(float32(Fmin(float64(a), float64(b)))), nil
	case OpMax:
		return F32(float32(Fmax(float64(a), float64(b)))), nil
	case OpCopysign:
		return Val{Type: wasm.ValueTypeF32, bits: uint64(abits&^(1<<31) | bbits&(1<<31))}, nil
	case OpEq:
		return Bool(a == b), nil
	case OpNe:
		return Bool(a != b), nil
	case OpLt:
		return Bool(a < b), nil
	case OpGt:
		return Bool(a > b), nil
	case OpLe:
		return Bool(a <= b), nil
	case OpGe:
		return Bool(a >= b), nil
	default:
		return None, ErrUndefinedBinaryOp
	}
}

func f64Binary(op BinaryOp, a, b float64, abits, bbits uint64) (Val, error) {
	switch op {
	case OpAdd:
		return F64(a + b), nil
	case OpSub:
		return F64(a - b), nil
	case OpMul:
		return F64(a * b), nil
	case OpDiv:
		return F64(a / b), nil
	case OpMin:
		return F64(Fmin(a, b)), nil
	case OpMax:
		return F64(Fmax(a, b)), nil
	case OpCopysign:
		return Val{Type: wasm.ValueTypeF64, bits: abits&^(1<<63) | bbits&(1<<63)}, nil
	case OpEq:
		return Bool(a == b), nil
	case OpNe:
		return Bool(a != b), nil
	case OpLt:
		return Bool(a < b), nil
	case OpGt:
		return Bool(a > b), nil
	case OpLe:
		return Bool(a <= b), nil
	case OpGe:
		return Bool(a >= b), nil
	default:
		return None, ErrUndefinedBinaryOp
	}
}

// Apply applies the operator to a single operand.
func (op UnaryOp) Apply(v Val) (Val, error) {
	switch v.Type {
	case wasm.ValueTypeI32:
		x := v.U32()
		switch op {
		case OpClz:
			return I32(int32(bits.LeadingZeros32(x))), nil
		case OpCtz:
			return I32(int32(bits.TrailingZeros32(x))), nil
		case OpPopcnt:
			return I32(int32(bits.OnesCount32(x))), nil
		case OpEqz:
			return Bool(x == 0), nil
		case OpExtend8S:
			return I32(int32(int8(x))), nil
		case OpExtend16S:
			return I32(int32(int16(x))), nil
		}
	case wasm.ValueTypeI64:
		x := v.U64()
		switch op {
		case OpClz:
			return I64(int64(bits.LeadingZeros64(x))), nil
		case OpCtz:
			return I64(int64(bits.TrailingZeros64(x))), nil
		case OpPopcnt:
			return I64(int64(bits.OnesCount64(x))), nil
		case OpEqz:
			return Bool(x == 0), nil
		case OpExtend8S:
			return I64(int64(int8(x))), nil
		case OpExtend16S:
			return I64(int64(int16(x))), nil
		case OpExtend32S:
			return I64(int64(int32(x))), nil
		}
	case wasm.ValueTypeF32:
		x := v.F32()
		switch op {
		case OpAbs:
			return Val{Type: wasm.ValueTypeF32, bits: v.bits &^ (1 << 31)}, nil
		case OpNeg:
			return Val{Type: wasm.ValueTypeF32, bits: v.bits ^ (1 << 31)}, nil
		case OpCeil:
			return F32(float32(math.Ceil(float64(x)))), nil
		case OpFloor:
			return F32(float32(math.Floor(float64(x)))), nil
		case OpTrunc:
			return F32(float32(math.Trunc(float64(x)))), nil
		case OpNearest:
			return F32(float32(math.RoundToEven(float64(x)))), nil
		case OpSqrt:
			return F32(float32(math.Sqrt(float64(x)))), nil
		}
	case wasm.ValueTypeF64:
		x := v.F64()
		switch op {
		case OpAbs:
			return Val{Type: wasm.ValueTypeF64, bits: v.bits &^ (1 << 63)}, nil
		case OpNeg:
			return Val{Type: wasm.ValueTypeF64, bits: v.bits ^ (1 << 63)}, nil
		case OpCeil:
			return F64(math.Ceil(x)), nil
		case OpFloor:
			return F64(math.Floor(x)), nil
		case OpTrunc:
			return F64(math.Trunc(x)), nil
		case OpNearest:
			return F64(math.RoundToEven(x)), nil
		case OpSqrt:
			return F64(math.Sqrt(x)), nil
		}
	}
	return None, ErrUndefinedUnaryOp
}

// Fmax returns the larger of z1 and z2. NaN operands propagate.
func Fmax(z1, z2 float64) float64 {
	if math.IsNaN(z1) {
		return z1
	}
	if math.IsNaN(z2) {
		return z2
	}
	return math.Max(z1, z2)
}

// Fmin returns the smaller of z1 and z2. NaN operands propagate.
func Fmin(z1, z2 float64) float64 {
	if math.IsNaN(z1) {
		return z1
	}
	if math.IsNaN(z2) {
		return z2
	}
	return math.Min(z1, z2)
}

func I32TruncS(z float64) (int32, error) {
	if math.IsNaN(z) {
		return 0, TrapInvalidConversionToInteger
	}
	z = math.Trunc(z)
	if z < math.MinInt32 || z > math.MaxInt32 {
		return 0, TrapIntegerOverflow
	}
	return int32(z), nil
}

func I32TruncU(z float64) (uint32, error) {
	if math.IsNaN(z) {
		return 0, TrapInvalidConversionToInteger
	}
	z = math.Trunc(z)
	if z <= -1 || z > math.MaxUint32 {
		return 0, TrapIntegerOverflow
	}
	return uint32(z), nil
}

func I64TruncS(z float64) (int64, error) {
	if math.IsNaN(z) {
		return 0, TrapInvalidConversionToInteger
	}
	z = math.Trunc(z)
	if z < math.MinInt64 || z >= math.MaxInt64 {
		return 0, TrapIntegerOverflow
	}
	return int64(z), nil
}

func I64TruncU(z float64) (uint64, error) {
	if math.IsNaN(z) {
		return 0, TrapInvalidConversionToInteger
	}
	z = math.Trunc(z)
	if z <= -1 || z >= math.MaxUint64 {
		return 0, TrapIntegerOverflow
	}
	return uint64(z), nil
}

func I32TruncSatS(z float64) int32 {
	switch {
	case math.IsNaN(z):
		return 0
	case z <= math.MinInt32:
		return math.MinInt32
	case z >= math.MaxInt32:
		return math.MaxInt32
	default:
		return int32(z)
	}
}

func I32TruncSatU(z float64) uint32 {
	switch {
	case math.IsNaN(z) || z <= 0:
		return 0
	case z >= math.MaxUint32:
		return math.MaxUint32
	default:
		return uint32(z)
	}
}

func I64TruncSatS(z float64) int64 {
	switch {
	case math.IsNaN(z):
		return 0
	case z <= math.MinInt64:
		return math.MinInt64
	case z >= math.MaxInt64:
		return math.MaxInt64
	default:
		return int64(z)
	}
}

func I64TruncSatU(z float64) uint64 {
	switch {
	case math.IsNaN(z) || z <= 0:
		return 0
	case z >= math.MaxUint64:
		return math.MaxUint64
	default:
		return uint64(z)
	}
}
