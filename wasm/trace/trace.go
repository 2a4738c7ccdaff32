package trace

import (
	"fmt"
	"io"

	"github.com/wasmarch/wasmarch/wasm"
	"github.com/wasmarch/wasmarch/wasm/leb128"
)

// EntryKind describes the type of a trace entry.
type EntryKind byte

const (
	// EntryEnter is an enter trace entry.
	EntryEnter = 0x01
	// EntryLeave is a leave trace entry.
	EntryLeave = 0x02
	// EntryInstruction is an instruction trace entry.
	EntryInstruction = 0x03
	// EntryEnd is an end trace entry.
	EntryEnd = 0x04
)

// MaxOperands is the number of operand stack slots recorded by an instruction entry.
const MaxOperands = 3

// A Entry represents a single entry in an execution trace.
type Entry interface {
	// Kind returns the kind of the trace entry.
	Kind() EntryKind
	// Encode encodes the trace entry to the given writer.
	Encode(w io.Writer) error

	decode(r io.Reader) error
}

// A Decoder decodes trace entries from an io.Reader.
type Decoder struct {
	r     io.Reader
	entry Entry
	err   error
}

// NewDecoder creates a new decoder that reads from the given io.Reader.
func NewDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Entry returns the trace entry decoded by the last call to Next, if any.
func (t *Decoder) Entry() Entry {
	return t.entry
}

// Error returns the error encountered during decoding, if any.
func (t *Decoder) Error() error {
	return t.err
}

// Next decodes the next entry in the trace. Next returns false if an error occurs or if the end of the trace
// has been reached and true otherwise.
func (t *Decoder) Next() bool {
	var buf [1]byte
	if _, t.err = io.ReadFull(t.r, buf[:]); t.err != nil {
		if t.err == io.EOF {
			t.err = nil
		}
		return false
	}

	var entry Entry
	switch buf[0] {
	case EntryEnter:
		entry = &EnterEntry{}
	case EntryLeave:
		entry = &LeaveEntry{}
	case EntryInstruction:
		entry = &InstructionEntry{}
	case EntryEnd:
		entry = &EndEntry{}
	default:
		t.err = InvalidEntryKindError(buf[0])
		return false
	}
	if t.err = entry.decode(t.r); t.err != nil {
		return false
	}
	t.entry = entry
	return entry.Kind() != EntryEnd
}

// Decode decodes an execution trace from the given reader.
func Decode(r io.Reader) ([]Entry, error) {
	decoder := NewDecoder(r)

	var trace []Entry
	for decoder.Next() {
		trace = append(trace, decoder.Entry())
	}
	if err := decoder.Error(); err != nil {
		return nil, err
	}
	return trace, nil
}

// InvalidEntryKindError is returned when a trace contains an unknown entry kind.
type InvalidEntryKindError byte

func (e InvalidEntryKindError) Error() string {
	return fmt.Sprintf("trace: invalid entry kind %#x", byte(e))
}

// An EnterEntry records a call.
type EnterEntry struct {
	FunctionIndex uint32        `json:"functionIndex"`
	FunctionType  wasm.FuncType `json:"functionType"`
}

func (t *EnterEntry) Kind() EntryKind {
	return EntryEnter
}

// Encode encodes an enter trace entry to the given writer.
//
// An enter trace entry is encoded as follows:
//
//	0x01 | FunctionIndex u32 | FunctionType
//
// The type is encoded in its WASM format. The function index is LEB128-encoded.
func (t *EnterEntry) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{EntryEnter}); err != nil {
		return err
	}
	if _, err := leb128.WriteVarUint32(w, t.FunctionIndex); err != nil {
		return err
	}
	return t.FunctionType.MarshalWASM(w)
}

func (t *EnterEntry) decode(r io.Reader) error {
	functionIndex, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	if err := t.FunctionType.UnmarshalWASM(r); err != nil {
		return err
	}
	t.FunctionIndex = functionIndex
	return nil
}

// A LeaveEntry records a return.
type LeaveEntry struct{}

func (t *LeaveEntry) Kind() EntryKind {
	return EntryLeave
}

// Encode encodes a leave trace entry, the single byte 0x02, to the given writer.
func (t *LeaveEntry) Encode(w io.Writer) error {
	_, err := w.Write([]byte{EntryLeave})
	return err
}

func (t *LeaveEntry) decode(r io.Reader) error {
	return nil
}

// An InstructionEntry records an instruction just before it executes, along with the height of the
// operand stack and up to MaxOperands values from its top (topmost last).
type InstructionEntry struct {
	PC           int              `json:"pc"`
	Instruction  wasm.Instruction `json:"instruction"`
	Height       int              `json:"height"`
	OperandTypes []wasm.ValueType `json:"operandTypes"`
	Operands     []uint64         `json:"operands"`
}

func (t *InstructionEntry) Kind() EntryKind {
	return EntryInstruction
}

// Encode encodes an instruction trace entry to the given writer.
//
// An instruction trace entry is encoded as follows:
//
//	0x03 | PC u32 | Instruction | Height u32 | Operands vec(byte, u64)
//
// The instruction is encoded in its WASM format. The program counter, height, and operands are all
// LEB128-encoded.
func (t *InstructionEntry) Encode(w io.Writer) error {
	if _, err := w.Write([]byte{EntryInstruction}); err != nil {
		return err
	}
	if _, err := leb128.WriteVarUint32(w, uint32(t.PC)); err != nil {
		return err
	}
	if err := wasm.EncodeInstruction(w, &t.Instruction); err != nil {
		return err
	}
	if _, err := leb128.WriteVarUint32(w, uint32(t.Height)); err != nil {
		return err
	}

	if _, err := leb128.WriteVarUint32(w, uint32(len(t.Operands))); err != nil {
		return err
	}
	for i, operand := range t.Operands {
		var type_ wasm.ValueType
		if i < len(t.OperandTypes) {
			type_ = t.OperandTypes[i]
		}
		if _, err := w.Write([]byte{byte(type_)}); err != nil {
			return err
		}
		if _, err := leb128.WriteVarUint64(w, operand); err != nil {
			return err
		}
	}
	return nil
}

func (t *InstructionEntry) decode(r io.Reader) error {
	var type_ [1]byte

	pc, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	instr, err := wasm.DecodeInstruction(r)
	if err != nil {
		return err
	}
	height, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}

	n, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	var types []wasm.ValueType
	var operands []uint64
	for i := uint32(0); i < n; i++ {
		if _, err := io.ReadFull(r, type_[:]); err != nil {
			return err
		}
		operand, err := leb128.ReadVarUint64(r)
		if err != nil {
			return err
		}
		types, operands = append(types, wasm.ValueType(type_[0])), append(operands, operand)
	}

	t.PC = int(pc)
	t.Instruction = instr
	t.Height = int(height)
	t.OperandTypes = types
	t.Operands = operands
	return nil
}

// An EndEntry terminates a trace.
type EndEntry struct{}

func (t *EndEntry) Kind() EntryKind {
	return EntryEnd
}

// Encode encodes an end trace entry, the single byte 0x04, to the given writer.
func (t *EndEntry) Encode(w io.Writer) error {
	_, err := w.Write([]byte{EntryEnd})
	return err
}

func (t *EndEntry) decode(r io.Reader) error {
	return nil
}
