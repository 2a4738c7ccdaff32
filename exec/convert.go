package exec

import (
	"math"

	"github.com/wasmarch/wasmarch/wasm"
)

type conversion struct {
	from wasm.ValueType
	fn   func(v Val) (Val, error)
}

func okVal(v Val) (Val, error) {
	return v, nil
}

var conversions = map[wasm.Opcode]conversion{
	wasm.OpI32WrapI64: {wasm.ValueTypeI64, func(v Val) (Val, error) { return okVal(I32(int32(v.I64()))) }},

	wasm.OpI32TruncF32S: {wasm.ValueTypeF32, func(v Val) (Val, error) { return truncI32S(float64(v.F32())) }},
	wasm.OpI32TruncF32U: {wasm.ValueTypeF32, func(v Val) (Val, error) { return truncI32U(float64(v.F32())) }},
	wasm.OpI32TruncF64S: {wasm.ValueTypeF64, func(v Val) (Val, error) { return truncI32S(v.F64()) }},
	wasm.OpI32TruncF64U: {wasm.ValueTypeF64, func(v Val) (Val, error) { return truncI32U(v.F64()) }},
	wasm.OpI64TruncF32S: {wasm.ValueTypeF32, func(v Val) (Val, error) { return truncI64S(float64(v.F32())) }},
	wasm.OpI64TruncF32U: {wasm.ValueTypeF32, func(v Val) (Val, error) { return truncI64U(float64(v.F32())) }},
	wasm.OpI64TruncF64S: {wasm.ValueTypeF64, func(v Val) (Val, error) { return truncI64S(v.F64()) }},
	wasm.OpI64TruncF64U: {wasm.ValueTypeF64, func(v Val) (Val, error) { return truncI64U(v.F64()) }},

	wasm.OpI64ExtendI32S: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(I64(int64(v.I32()))) }},
	wasm.OpI64ExtendI32U: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(I64(int64(v.U32()))) }},

	wasm.OpF32ConvertI32S: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(F32(float32(v.I32()))) }},
	wasm.OpF32ConvertI32U: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(F32(float32(v.U32()))) }},
	wasm.OpF32ConvertI64S: {wasm.ValueTypeI64, func(v Val) (Val, error) { return okVal(F32(float32(v.I64()))) }},
	wasm.OpF32ConvertI64U: {wasm.ValueTypeI64, func(v Val) (Val, error) { return okVal(F32(float32(v.U64()))) }},
	wasm.OpF32DemoteF64:   {wasm.ValueTypeF64, func(v Val) (Val, error) { return okVal(F32(float32(v.F64()))) }},
	wasm.OpF64ConvertI32S: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(F64(float64(v.I32()))) }},
	wasm.OpF64ConvertI32U: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(F64(float64(v.U32()))) }},
	wasm.OpF64ConvertI64S: {wasm.ValueTypeI64, func(v Val) (Val, error) { return okVal(F64(float64(v.I64()))) }},
	wasm.OpF64ConvertI64U: {wasm.ValueTypeI64, func(v Val) (Val, error) { return okVal(F64(float64(v.U64()))) }},
	wasm.OpF64PromoteF32:  {wasm.ValueTypeF32, func(v Val) (Val, error) { return okVal(F64(float64(v.F32()))) }},

	wasm.OpI32ReinterpretF32: {wasm.ValueTypeF32, func(v Val) (Val, error) { return okVal(ValFromBits(wasm.ValueTypeI32, v.bits)) }},
	wasm.OpI64ReinterpretF64: {wasm.ValueTypeF64, func(v Val) (Val, error) { return okVal(ValFromBits(wasm.ValueTypeI64, v.bits)) }},
	wasm.OpF32ReinterpretI32: {wasm.ValueTypeI32, func(v Val) (Val, error) { return okVal(ValFromBits(wasm.ValueTypeF32, v.bits)) }},
	wasm.OpF64ReinterpretI64: {wasm.ValueTypeI64, func(v Val) (Val, error) { return okVal(ValFromBits(wasm.ValueTypeF64, v.bits)) }},

	wasm.OpI32TruncSatF32S: {wasm.ValueTypeF32, func(v Val) (Val, error) { return okVal(I32(I32TruncSatS(float64(v.F32())))) }},
	wasm.OpI32TruncSatF32U: {wasm.ValueTypeF32, func(v Val) (Val, error) { return okVal(I32(int32(I32TruncSatU(float64(v.F32()))))) }},
	wasm.OpI32TruncSatF64S: {wasm.ValueTypeF64, func(v Val) (Val, error) { return okVal(I32(I32TruncSatS(v.F64()))) }},
	wasm.OpI32TruncSatF64U: {wasm.ValueTypeF64, func(v Val) (Val, error) { return okVal(I32(int32(I32TruncSatU(v.F64())))) }},
	wasm.OpI64TruncSatF32S: {wasm.ValueTypeF32, func(v Val) (Val, error) { return okVal(I64(I64TruncSatS(float64(v.F32())))) }},
	wasm.OpI64TruncSatF32U: {wasm.ValueTypeF32, func(v Val) (Val, error) { return okVal(I64(int64(I64TruncSatU(float64(v.F32()))))) }},
	wasm.OpI64TruncSatF64S: {wasm.ValueTypeF64, func(v Val) (Val, error) { return okVal(I64(I64TruncSatS(v.F64()))) }},
	wasm.OpI64TruncSatF64U: {wasm.ValueTypeF64, func(v Val) (Val, error) { return okVal(I64(int64(I64TruncSatU(v.F64())))) }},
}

func truncI32S(z float64) (Val, error) {
	v, err := I32TruncS(z)
	return I32(v), err
}

func truncI32U(z float64) (Val, error) {
	v, err := I32TruncU(z)
	return I32(int32(v)), err
}

func truncI64S(z float64) (Val, error) {
	v, err := I64TruncS(z)
	return I64(v), err
}

func truncI64U(z float64) (Val, error) {
	v, err := I64TruncU(z)
	return I64(int64(v)), err
}

// IsConversion returns true if op converts or reinterprets a value between numeric types.
func IsConversion(op wasm.Opcode) bool {
	_, ok := conversions[op]
	return ok
}

// Convert applies the conversion named by op to v. Trapping truncations return a Trap; saturating
// truncations clamp to the target range.
func Convert(op wasm.Opcode, v Val) (Val, error) {
	c, ok := conversions[op]
	if !ok {
		return None, UnsupportedOpcodeError(op)
	}
	if v.Type != c.from {
		return None, &TypeMismatchError{Expected: c.from, Actual: v.Type}
	}
	res, err := c.fn(v)
	if err != nil {
		return None, err
	}
	return res, nil
}

// IsNaN returns true if v is a floating-point NaN.
func IsNaN(v Val) bool {
	switch v.Type {
	case wasm.ValueTypeF32:
		return math.IsNaN(float64(v.F32()))
	case wasm.ValueTypeF64:
		return math.IsNaN(v.F64())
	default:
		return false
	}
}
