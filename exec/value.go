package exec

import (
	"fmt"
	"math"
	"strconv"

	"github.com/wasmarch/wasmarch/wasm"
)

// A Val is a single WASM value. The zero Val is None, which stands in for the result of a function that
// returns nothing.
//
// Reference values store the referenced address plus one so that the zero bits are the null reference.
type Val struct {
	Type wasm.ValueType
	bits uint64
}

// None is the void marker.
var None = Val{}

func I32(v int32) Val {
	return Val{Type: wasm.ValueTypeI32, bits: uint64(uint32(v))}
}

func I64(v int64) Val {
	return Val{Type: wasm.ValueTypeI64, bits: uint64(v)}
}

func F32(v float32) Val {
	return Val{Type: wasm.ValueTypeF32, bits: uint64(math.Float32bits(v))}
}

func F64(v float64) Val {
	return Val{Type: wasm.ValueTypeF64, bits: math.Float64bits(v)}
}

// Bool returns an i32 holding 1 or 0.
func Bool(b bool) Val {
	if b {
		return I32(1)
	}
	return I32(0)
}

// NullRef returns the null reference of the given reference type.
func NullRef(t wasm.ValueType) Val {
	return Val{Type: t}
}

// FuncRef returns a reference to the function at the given address.
func FuncRef(addr uint32) Val {
	return Val{Type: wasm.ValueTypeFuncRef, bits: uint64(addr) + 1}
}

// ExternRef returns an opaque host reference.
func ExternRef(v uint32) Val {
	return Val{Type: wasm.ValueTypeExternRef, bits: uint64(v) + 1}
}

// ValFromBits returns the value of the given type with the given bit pattern.
func ValFromBits(t wasm.ValueType, bits uint64) Val {
	if t == wasm.ValueTypeI32 || t == wasm.ValueTypeF32 {
		bits = uint64(uint32(bits))
	}
	return Val{Type: t, bits: bits}
}

// Zero returns the zero value of the given type. Reference types are zeroed to null.
func Zero(t wasm.ValueType) Val {
	return Val{Type: t}
}

func (v Val) IsNone() bool {
	return v.Type == 0
}

func (v Val) Bits() uint64 {
	return v.bits
}

func (v Val) I32() int32 {
	return int32(v.bits)
}

func (v Val) U32() uint32 {
	return uint32(v.bits)
}

func (v Val) I64() int64 {
	return int64(v.bits)
}

func (v Val) U64() uint64 {
	return v.bits
}

func (v Val) F32() float32 {
	return math.Float32frombits(uint32(v.bits))
}

func (v Val) F64() float64 {
	return math.Float64frombits(v.bits)
}

// IsNull returns true if v is a null reference.
func (v Val) IsNull() bool {
	return v.Type.IsRef() && v.bits == 0
}

// RefAddr returns the address held by a non-null reference.
func (v Val) RefAddr() (uint32, bool) {
	if !v.Type.IsRef() || v.bits == 0 {
		return 0, false
	}
	return uint32(v.bits - 1), true
}

// Interface returns v as an int32, int64, float32, or float64, or nil for None and references.
func (v Val) Interface() interface{} {
	switch v.Type {
	case wasm.ValueTypeI32:
		return v.I32()
	case wasm.ValueTypeI64:
		return v.I64()
	case wasm.ValueTypeF32:
		return v.F32()
	case wasm.ValueTypeF64:
		return v.F64()
	default:
		return nil
	}
}

func (v Val) String() string {
	switch v.Type {
	case 0:
		return "none"
	case wasm.ValueTypeI32:
		return fmt.Sprintf("i32:%d", v.I32())
	case wasm.ValueTypeI64:
		return fmt.Sprintf("i64:%d", v.I64())
	case wasm.ValueTypeF32:
		return fmt.Sprintf("f32:%v", v.F32())
	case wasm.ValueTypeF64:
		return fmt.Sprintf("f64:%v", v.F64())
	default:
		if addr, ok := v.RefAddr(); ok {
			return fmt.Sprintf("%v:%d", v.Type, addr)
		}
		return fmt.Sprintf("%v:null", v.Type)
	}
}

// ParseVal parses decimal text as a value of the given numeric type.
func ParseVal(t wasm.ValueType, s string) (Val, error) {
	switch t {
	case wasm.ValueTypeI32:
		v, err := strconv.ParseInt(s, 0, 32)
		if err != nil {
			// Accept the unsigned spelling of an i32.
			u, uerr := strconv.ParseUint(s, 0, 32)
			if uerr != nil {
				return None, err
			}
			v = int64(int32(uint32(u)))
		}
		return I32(int32(v)), nil
	case wasm.ValueTypeI64:
		v, err := strconv.ParseInt(s, 0, 64)
		if err != nil {
			u, uerr := strconv.ParseUint(s, 0, 64)
			if uerr != nil {
				return None, err
			}
			v = int64(u)
		}
		return I64(v), nil
	case wasm.ValueTypeF32:
		v, err := strconv.ParseFloat(s, 32)
		if err != nil {
			return None, err
		}
		return F32(float32(v)), nil
	case wasm.ValueTypeF64:
		v, err := strconv.ParseFloat(s, 64)
		if err != nil {
			return None, err
		}
		return F64(v), nil
	default:
		return None, fmt.Errorf("cannot parse a value of type %v", t)
	}
}

// ParseArgs parses one argument per parameter of the given function type.
func ParseArgs(typ wasm.FuncType, args []string) ([]Val, error) {
	if len(args) != len(typ.Params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(typ.Params), len(args))
	}
	vals := make([]Val, len(args))
	for i, arg := range args {
		v, err := ParseVal(typ.Params[i], arg)
		if err != nil {
			return nil, fmt.Errorf("argument %d: %w", i, err)
		}
		vals[i] = v
	}
	return vals, nil
}
