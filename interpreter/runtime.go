package interpreter

import (
	"fmt"
	"io"

	"go.uber.org/zap"

	"github.com/wasmarch/wasmarch/exec"
)

// Options configures a Runtime.
type Options struct {
	// MaxCallDepth bounds the call stack. Calls past the limit trap. Zero selects exec.DefaultMaxDepth.
	MaxCallDepth uint
	// Fuel bounds the number of instructions executed by the Runtime. Zero means unlimited.
	Fuel uint64
	// Trace receives an execution trace, if non-nil.
	Trace io.Writer
}

// A Runtime executes the functions of a Store. A Runtime is not safe for concurrent use.
//
// After an invocation fails, the store may have been partially updated; the effects of the failed
// invocation are not rolled back.
type Runtime struct {
	store  *exec.Store
	hook   exec.HostHook
	thread exec.Thread

	stack  []exec.Val
	frames []*frame
	blocks map[uint32]*blockMap
}

// New creates a runtime for the given store with the default options.
func New(store *exec.Store) *Runtime {
	return NewWithOptions(store, Options{})
}

// NewWithOptions creates a runtime for the given store.
func NewWithOptions(store *exec.Store, options Options) *Runtime {
	thread := exec.NewThread(options.MaxCallDepth)
	if options.Trace != nil {
		thread = exec.NewTracingThread(options.Trace, options.MaxCallDepth)
	}
	if options.Fuel != 0 {
		thread.SetFuel(options.Fuel)
	}

	return &Runtime{
		store:  store,
		thread: thread,
		stack:  make([]exec.Val, 0, 1024),
		frames: make([]*frame, 0, 128),
		blocks: map[uint32]*blockMap{},
	}
}

// Store returns the runtime's store.
func (r *Runtime) Store() *exec.Store {
	return r.store
}

// SetHostHook registers the callback that executes external functions.
func (r *Runtime) SetHostHook(hook exec.HostHook) {
	r.hook = hook
}

// Fuel returns the remaining fuel, if the runtime is metered.
func (r *Runtime) Fuel() (uint64, bool) {
	return r.thread.Fuel()
}

// Close terminates the runtime's trace, if any.
func (r *Runtime) Close() error {
	return r.thread.Close()
}

// GetFunc returns the function exported with the given name.
func (r *Runtime) GetFunc(name string) (exec.FuncInst, error) {
	return r.store.ExportedFunc(name)
}

// GetGlobal returns the global exported with the given name.
func (r *Runtime) GetGlobal(name string) (*exec.GlobalInst, error) {
	return r.store.ExportedGlobal(name)
}

// GetMemory returns the memory exported with the given name.
func (r *Runtime) GetMemory(name string) (*exec.MemInst, error) {
	return r.store.ExportedMemory(name)
}

// Invoke calls the function exported with the given name. It returns the function's result, or None if
// the function returns nothing. A function with several results returns the last of them.
func (r *Runtime) Invoke(name string, args ...exec.Val) (exec.Val, error) {
	results, err := r.InvokeMulti(name, args...)
	if err != nil || len(results) == 0 {
		return exec.None, err
	}
	return results[len(results)-1], nil
}

// InvokeMulti calls the function exported with the given name and returns all of its results.
func (r *Runtime) InvokeMulti(name string, args ...exec.Val) ([]exec.Val, error) {
	f, err := r.store.ExportedFunc(name)
	if err != nil {
		return nil, err
	}

	Logger().Debug("invoke", zap.String("name", name), zap.Stringer("type", f.FuncType()))
	results, err := r.Call(f, args...)
	if err != nil {
		Logger().Debug("invoke failed", zap.String("name", name), zap.Error(err))
		return nil, err
	}
	Logger().Debug("invoke returned", zap.String("name", name), zap.Int("results", len(results)))
	return results, nil
}

// Start runs the module's start function, if it has one.
func (r *Runtime) Start() error {
	if r.store.Start == nil {
		return nil
	}
	f, err := r.store.Func(*r.store.Start)
	if err != nil {
		return err
	}
	_, err = r.Call(f)
	return err
}

// Call calls a function with the given arguments.
func (r *Runtime) Call(f exec.FuncInst, args ...exec.Val) (results []exec.Val, err error) {
	typ := f.FuncType()
	if len(args) != len(typ.Params) {
		return nil, fmt.Errorf("expected %d arguments, got %d", len(typ.Params), len(args))
	}
	for i, arg := range args {
		if arg.Type != typ.Params[i] {
			return nil, fmt.Errorf("argument %d: %w", i, &exec.TypeMismatchError{Expected: typ.Params[i], Actual: arg.Type})
		}
	}

	base, depth, frames := len(r.stack), r.thread.Depth(), len(r.frames)
	defer func() {
		err = exec.RecoverTrap(recover(), err)
		if err != nil {
			for i := frames; i < len(r.frames); i++ {
				r.frames[i] = nil
			}
			r.stack, r.frames = r.stack[:base], r.frames[:frames]
			r.thread.Unwind(depth)
			results = nil
		}
	}()

	r.stack = append(r.stack, args...)
	if err := r.invoke(f); err != nil {
		return nil, err
	}
	if err := r.run(frames); err != nil {
		return nil, err
	}

	if len(r.stack)-base != len(typ.Results) {
		return nil, exec.ErrExpectedValue
	}
	results = append([]exec.Val(nil), r.stack[base:]...)
	r.stack = r.stack[:base]
	return results, nil
}

// invoke calls f with arguments taken from the operand stack. Internal functions are entered; the
// execution loop runs them. External functions run to completion.
func (r *Runtime) invoke(f exec.FuncInst) error {
	switch f := f.(type) {
	case *exec.InternalFunc:
		return r.enter(f)
	case *exec.ExternalFunc:
		return r.callHost(f)
	default:
		return exec.InvalidFuncIndexError(f.Addr())
	}
}

func (r *Runtime) callHost(f *exec.ExternalFunc) error {
	if r.hook == nil {
		return fmt.Errorf("calling %s.%s: %w", f.Module, f.Field, exec.ErrNoHostHook)
	}

	nparams := len(f.Type.Params)
	if len(r.stack) < nparams {
		return exec.ErrExpectedValue
	}
	args := append([]exec.Val(nil), r.stack[len(r.stack)-nparams:]...)
	r.stack = r.stack[:len(r.stack)-nparams]

	if err := r.thread.Enter(f); err != nil {
		return err
	}
	Logger().Debug("host call", zap.String("module", f.Module), zap.String("field", f.Field))
	result, err := r.hook(f, args)
	if err != nil {
		return fmt.Errorf("%s.%s: %w", f.Module, f.Field, err)
	}

	switch len(f.Type.Results) {
	case 0:
	case 1:
		if result.Type != f.Type.Results[0] {
			return fmt.Errorf("%s.%s: %w", f.Module, f.Field, &exec.TypeMismatchError{Expected: f.Type.Results[0], Actual: result.Type})
		}
		r.push(result)
	default:
		return fmt.Errorf("%s.%s: host functions return at most one value", f.Module, f.Field)
	}
	return r.thread.Leave()
}

// run executes instructions until the call stack shrinks to the given depth.
func (r *Runtime) run(depth int) error {
	for len(r.frames) > depth {
		f := r.frames[len(r.frames)-1]
		if f.pc >= len(f.code) {
			return exec.ErrExpectedInstruction
		}
		instr := &f.code[f.pc]

		if err := r.thread.Consume(); err != nil {
			return err
		}
		if r.thread.Tracing() {
			if err := r.thread.TraceInstruction(f.pc, instr, r.stack); err != nil {
				return err
			}
		}
		if err := r.step(f, instr); err != nil {
			return err
		}
	}
	return nil
}

// Stats reports how many blocks of each entered function have been matched.
func (r *Runtime) Stats() map[uint32]uint {
	stats := make(map[uint32]uint, len(r.blocks))
	for idx, m := range r.blocks {
		stats[idx] = m.resolvedCount()
	}
	return stats
}
