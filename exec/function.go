package exec

import (
	"github.com/wasmarch/wasmarch/wasm"
)

// A FuncInst is the runtime instance of a function. It is either an *InternalFunc or an *ExternalFunc.
type FuncInst interface {
	// Addr returns the function's index in the store's function index space.
	Addr() uint32
	// FuncType returns the function's type.
	FuncType() wasm.FuncType
}

// An InternalFunc is a function defined by the module, with its decoded body.
type InternalFunc struct {
	Index uint32
	Type  wasm.FuncType
	Body  *wasm.FuncBody
}

func (f *InternalFunc) Addr() uint32 {
	return f.Index
}

func (f *InternalFunc) FuncType() wasm.FuncType {
	return f.Type
}

// Locals returns the value types of the function's parameters followed by its declared locals.
func (f *InternalFunc) Locals() []wasm.ValueType {
	locals := make([]wasm.ValueType, 0, len(f.Type.Params)+len(f.Body.Locals))
	locals = append(locals, f.Type.Params...)
	return append(locals, f.Body.Locals...)
}

// An ExternalFunc is an imported function. It has no body; calls are delegated to the host.
type ExternalFunc struct {
	Index  uint32
	Module string
	Field  string
	Type   wasm.FuncType
}

func (f *ExternalFunc) Addr() uint32 {
	return f.Index
}

func (f *ExternalFunc) FuncType() wasm.FuncType {
	return f.Type
}

// A HostHook executes calls to external functions. It must return a value consistent with the
// function's declared result type, or None if the function returns nothing.
type HostHook func(f *ExternalFunc, args []Val) (Val, error)
