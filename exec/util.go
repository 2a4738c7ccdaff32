package exec

import (
	"reflect"

	"github.com/wasmarch/wasmarch/wasm"
)

var errorType = reflect.TypeOf((*error)(nil)).Elem()

func wasmType(kind reflect.Kind) wasm.ValueType {
	switch kind {
	case reflect.Int32, reflect.Uint32, reflect.Bool:
		return wasm.ValueTypeI32
	case reflect.Int64, reflect.Uint64:
		return wasm.ValueTypeI64
	case reflect.Float32:
		return wasm.ValueTypeF32
	case reflect.Float64:
		return wasm.ValueTypeF64
	default:
		return 0
	}
}

// toReflect converts v to a Go value of type t. t's kind must have been accepted by wasmType.
func toReflect(v Val, t reflect.Type) reflect.Value {
	switch t.Kind() {
	case reflect.Int32:
		return reflect.ValueOf(v.I32()).Convert(t)
	case reflect.Uint32:
		return reflect.ValueOf(v.U32()).Convert(t)
	case reflect.Bool:
		return reflect.ValueOf(v.U32() != 0).Convert(t)
	case reflect.Int64:
		return reflect.ValueOf(v.I64()).Convert(t)
	case reflect.Uint64:
		return reflect.ValueOf(v.U64()).Convert(t)
	case reflect.Float32:
		return reflect.ValueOf(v.F32()).Convert(t)
	default:
		return reflect.ValueOf(v.F64()).Convert(t)
	}
}

func fromReflect(v reflect.Value) Val {
	switch v.Kind() {
	case reflect.Int32:
		return I32(int32(v.Int()))
	case reflect.Uint32:
		return I32(int32(uint32(v.Uint())))
	case reflect.Bool:
		return Bool(v.Bool())
	case reflect.Int64:
		return I64(v.Int())
	case reflect.Uint64:
		return I64(int64(v.Uint()))
	case reflect.Float32:
		return F32(float32(v.Float()))
	case reflect.Float64:
		return F64(v.Float())
	default:
		return None
	}
}
