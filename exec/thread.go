package exec

import (
	"io"

	"github.com/wasmarch/wasmarch/wasm"
	"github.com/wasmarch/wasmarch/wasm/trace"
)

// DefaultMaxDepth is the call depth limit used when none is configured.
const DefaultMaxDepth = 10000

// A Thread carries the per-invocation state that outlives individual frames: the call depth limit, the
// fuel budget, and the tracer.
type Thread struct {
	depth    uint
	maxDepth uint

	fuel    uint64
	metered bool

	trace io.Writer
}

// NewThread creates a new thread with the given max depth, if any.
func NewThread(maxDepth uint) Thread {
	if maxDepth == 0 {
		maxDepth = DefaultMaxDepth
	}
	return Thread{maxDepth: maxDepth}
}

// NewTracingThread creates a new thread that writes an execution trace to w.
func NewTracingThread(w io.Writer, maxDepth uint) Thread {
	t := NewThread(maxDepth)
	t.trace = w
	return t
}

// SetFuel limits the thread to executing n instructions.
func (t *Thread) SetFuel(n uint64) {
	t.fuel, t.metered = n, true
}

// Fuel returns the remaining fuel, if the thread is metered.
func (t *Thread) Fuel() (uint64, bool) {
	return t.fuel, t.metered
}

// Consume spends one unit of fuel.
func (t *Thread) Consume() error {
	if t.metered {
		if t.fuel == 0 {
			return ErrFuelExhausted
		}
		t.fuel--
	}
	return nil
}

// MaxDepth returns the maximum call stack depth.
func (t *Thread) MaxDepth() uint {
	return t.maxDepth
}

// Depth returns the current call stack depth.
func (t *Thread) Depth() uint {
	return t.depth
}

// Tracing returns true if the thread records a trace.
func (t *Thread) Tracing() bool {
	return t.trace != nil
}

// Enter records entry into f. Each successful call to Enter must be balanced with a call to Leave.
func (t *Thread) Enter(f FuncInst) error {
	if t.depth >= t.maxDepth {
		return TrapCallStackExhausted
	}
	t.depth++

	if t.trace != nil {
		entry := trace.EnterEntry{FunctionIndex: f.Addr(), FunctionType: f.FuncType()}
		return entry.Encode(t.trace)
	}
	return nil
}

// Unwind resets the call depth after frames were abandoned by a trap or error. It records nothing.
func (t *Thread) Unwind(depth uint) {
	t.depth = depth
}

// Leave records a return.
func (t *Thread) Leave() error {
	t.depth--

	if t.trace != nil {
		var entry trace.LeaveEntry
		return entry.Encode(t.trace)
	}
	return nil
}

// TraceInstruction records an instruction that is about to execute. stack is the operand stack of the
// running invocation.
func (t *Thread) TraceInstruction(pc int, instr *wasm.Instruction, stack []Val) error {
	if t.trace == nil {
		return nil
	}

	top := stack
	if len(top) > trace.MaxOperands {
		top = top[len(top)-trace.MaxOperands:]
	}
	entry := trace.InstructionEntry{PC: pc, Instruction: *instr, Height: len(stack)}
	for _, v := range top {
		entry.OperandTypes = append(entry.OperandTypes, v.Type)
		entry.Operands = append(entry.Operands, v.Bits())
	}
	return entry.Encode(t.trace)
}

// Close terminates the thread's trace, if any.
func (t *Thread) Close() error {
	if t.trace != nil {
		var entry trace.EndEntry
		return entry.Encode(t.trace)
	}
	return nil
}
