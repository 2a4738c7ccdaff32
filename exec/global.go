package exec

import (
	"github.com/wasmarch/wasmarch/wasm"
)

// A GlobalInst is the runtime instance of a global.
type GlobalInst struct {
	Type  wasm.GlobalType
	value Val
}

// NewGlobal creates a global of the given type holding v.
func NewGlobal(typ wasm.GlobalType, v Val) *GlobalInst {
	return &GlobalInst{Type: typ, value: v}
}

func NewGlobalI32(mutable bool, v int32) *GlobalInst {
	return NewGlobal(wasm.GlobalType{ValueType: wasm.ValueTypeI32, Mutable: mutable}, I32(v))
}

func NewGlobalI64(mutable bool, v int64) *GlobalInst {
	return NewGlobal(wasm.GlobalType{ValueType: wasm.ValueTypeI64, Mutable: mutable}, I64(v))
}

func NewGlobalF32(mutable bool, v float32) *GlobalInst {
	return NewGlobal(wasm.GlobalType{ValueType: wasm.ValueTypeF32, Mutable: mutable}, F32(v))
}

func NewGlobalF64(mutable bool, v float64) *GlobalInst {
	return NewGlobal(wasm.GlobalType{ValueType: wasm.ValueTypeF64, Mutable: mutable}, F64(v))
}

// Get returns the global's current value.
func (g *GlobalInst) Get() Val {
	return g.value
}

// Set replaces the global's value. Mutability is enforced when the store is built, not here; Set only
// checks that v has the global's type.
func (g *GlobalInst) Set(v Val) error {
	if v.Type != g.Type.ValueType {
		return &TypeMismatchError{Expected: g.Type.ValueType, Actual: v.Type}
	}
	g.value = v
	return nil
}

func (g *GlobalInst) GetI32() int32 {
	return g.value.I32()
}

func (g *GlobalInst) GetI64() int64 {
	return g.value.I64()
}

func (g *GlobalInst) GetF32() float32 {
	return g.value.F32()
}

func (g *GlobalInst) GetF64() float64 {
	return g.value.F64()
}

func (g *GlobalInst) SetI32(v int32) error {
	return g.Set(I32(v))
}

func (g *GlobalInst) SetI64(v int64) error {
	return g.Set(I64(v))
}

func (g *GlobalInst) SetF32(v float32) error {
	return g.Set(F32(v))
}

func (g *GlobalInst) SetF64(v float64) error {
	return g.Set(F64(v))
}
