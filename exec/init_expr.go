package exec

import (
	"github.com/wasmarch/wasmarch/wasm"
)

// EvalConstExpr evaluates a constant initializer in the context of the globals defined so far.
func EvalConstExpr(expr wasm.Instruction, globals []*GlobalInst) (Val, error) {
	switch expr.Opcode {
	case wasm.OpI32Const:
		return I32(expr.I32()), nil
	case wasm.OpI64Const:
		return I64(expr.I64()), nil
	case wasm.OpF32Const:
		return ValFromBits(wasm.ValueTypeF32, expr.Immediate), nil
	case wasm.OpF64Const:
		return ValFromBits(wasm.ValueTypeF64, expr.Immediate), nil
	case wasm.OpRefNull:
		return NullRef(expr.RefType()), nil
	case wasm.OpRefFunc:
		return FuncRef(expr.Funcidx()), nil
	case wasm.OpGlobalGet:
		idx := expr.Globalidx()
		if idx >= uint32(len(globals)) {
			return None, InvalidGlobalIndexError(idx)
		}
		return globals[idx].Get(), nil
	default:
		return None, wasm.ErrExpectedConstExpression
	}
}

// evalOffset evaluates a segment offset, which must produce an i32.
func evalOffset(expr wasm.Instruction, globals []*GlobalInst) (uint32, error) {
	v, err := EvalConstExpr(expr, globals)
	if err != nil {
		return 0, err
	}
	if v.Type != wasm.ValueTypeI32 {
		return 0, &TypeMismatchError{Expected: wasm.ValueTypeI32, Actual: v.Type}
	}
	return v.U32(), nil
}
