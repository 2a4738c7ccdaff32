package interpreter

import (
	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/wasm"
)

type labelKind uint8

const (
	labelBlock labelKind = iota
	labelLoop
	labelIf
)

// A label is one structured control scope of a frame.
type label struct {
	kind labelKind
	// start is the first instruction of a loop's body. Branches to a loop continue here.
	start int
	// end is the position of the End that closes the scope.
	end int
	// sp is the operand stack height at entry, below the scope's parameters.
	sp int
	// params and results are the scope's parameter and result counts.
	params  int
	results int
}

// arity returns the number of values carried by a branch to the label.
func (l *label) arity() int {
	if l.kind == labelLoop {
		return l.params
	}
	return l.results
}

// A frame is one function activation.
type frame struct {
	fn     *exec.InternalFunc
	code   []wasm.Instruction
	blocks *blockMap
	pc     int
	locals []exec.Val
	labels []label
	// sp is the operand stack height when the function was entered, below its arguments.
	sp    int
	arity int
}

// push pushes a value onto the operand stack.
func (r *Runtime) push(v exec.Val) {
	r.stack = append(r.stack, v)
}

// pop pops a value from the operand stack.
func (r *Runtime) pop() (exec.Val, error) {
	if len(r.stack) == 0 {
		return exec.None, exec.ErrExpectedValue
	}
	v := r.stack[len(r.stack)-1]
	r.stack = r.stack[:len(r.stack)-1]
	return v, nil
}

// popType pops a value of the given type.
func (r *Runtime) popType(t wasm.ValueType) (exec.Val, error) {
	v, err := r.pop()
	if err != nil {
		return exec.None, err
	}
	if v.Type != t {
		return exec.None, &exec.TypeMismatchError{Expected: t, Actual: v.Type}
	}
	return v, nil
}

func (r *Runtime) popI32() (uint32, error) {
	v, err := r.popType(wasm.ValueTypeI32)
	return v.U32(), err
}

// popRef pops a reference of any type.
func (r *Runtime) popRef() (exec.Val, error) {
	v, err := r.pop()
	if err != nil {
		return exec.None, err
	}
	if !v.Type.IsRef() {
		return exec.None, &exec.TypeMismatchError{Expected: wasm.ValueTypeFuncRef, Actual: v.Type}
	}
	return v, nil
}

// unwind applies the stack-cleanup rule for a scope exit: the top arity values are kept and everything
// above sp beneath them is discarded.
func (r *Runtime) unwind(sp, arity int) error {
	top := len(r.stack) - arity
	if top < sp {
		return exec.ErrExpectedValue
	}
	if top != sp {
		copy(r.stack[sp:], r.stack[top:])
		r.stack = r.stack[:sp+arity]
	}
	return nil
}

// enterBlock pushes a label for the block, loop, or if at the frame's pc.
func (r *Runtime) enterBlock(f *frame, kind labelKind, bt wasm.BlockType) (end, els int, err error) {
	params, results, ok := bt.Signature(r.store.Types)
	if !ok {
		idx, _ := bt.TypeIndex()
		return 0, 0, exec.InvalidTypeIndexError(idx)
	}
	end, els, err = f.blocks.match(f.code, f.pc)
	if err != nil {
		return 0, 0, err
	}
	sp := len(r.stack) - len(params)
	if sp < f.sp {
		return 0, 0, exec.ErrExpectedValue
	}
	f.labels = append(f.labels, label{
		kind:    kind,
		start:   f.pc + 1,
		end:     end,
		sp:      sp,
		params:  len(params),
		results: len(results),
	})
	return end, els, nil
}

// exitLabel leaves the innermost label normally, keeping its results and continuing after its End.
func (r *Runtime) exitLabel(f *frame) error {
	l := f.labels[len(f.labels)-1]
	f.labels = f.labels[:len(f.labels)-1]
	if err := r.unwind(l.sp, l.results); err != nil {
		return err
	}
	f.pc = l.end + 1
	return nil
}

// branch performs a br to the label at the given depth. A branch past the outermost label returns from
// the function.
func (r *Runtime) branch(f *frame, depth uint32) error {
	switch {
	case int(depth) == len(f.labels):
		return r.ret()
	case int(depth) > len(f.labels):
		return exec.ExpectedLabelError(depth)
	}

	idx := len(f.labels) - 1 - int(depth)
	l := f.labels[idx]
	if err := r.unwind(l.sp, l.arity()); err != nil {
		return err
	}
	if l.kind == labelLoop {
		f.labels = f.labels[:idx+1]
		f.pc = l.start
		return nil
	}
	f.labels = f.labels[:idx]
	f.pc = l.end + 1
	return nil
}

// ret returns from the current frame, keeping its results.
func (r *Runtime) ret() error {
	if len(r.frames) == 0 {
		return exec.ErrEmptyCallStack
	}
	f := r.frames[len(r.frames)-1]
	if err := r.unwind(f.sp, f.arity); err != nil {
		return err
	}
	r.frames[len(r.frames)-1] = nil
	r.frames = r.frames[:len(r.frames)-1]
	return r.thread.Leave()
}

// enter pushes a frame for fn, taking its arguments from the operand stack.
func (r *Runtime) enter(fn *exec.InternalFunc) error {
	nparams := len(fn.Type.Params)
	sp := len(r.stack) - nparams
	if sp < 0 || (len(r.frames) > 0 && sp < r.frames[len(r.frames)-1].sp) {
		return exec.ErrExpectedValue
	}

	if err := r.thread.Enter(fn); err != nil {
		return err
	}

	locals := make([]exec.Val, nparams+len(fn.Body.Locals))
	copy(locals, r.stack[sp:])
	for i, t := range fn.Body.Locals {
		locals[nparams+i] = exec.Zero(t)
	}
	r.stack = r.stack[:sp]

	r.frames = append(r.frames, &frame{
		fn:     fn,
		code:   fn.Body.Code,
		blocks: r.blockMap(fn),
		locals: locals,
		sp:     sp,
		arity:  len(fn.Type.Results),
	})
	return nil
}

func (r *Runtime) blockMap(fn *exec.InternalFunc) *blockMap {
	m, ok := r.blocks[fn.Index]
	if !ok {
		m = newBlockMap(fn.Body.Code)
		r.blocks[fn.Index] = m
	}
	return m
}
