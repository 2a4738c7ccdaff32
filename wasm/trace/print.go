package trace

import (
	"bytes"
	"fmt"
	"io"
	"math"

	"github.com/wasmarch/wasmarch/wasm"
)

func printValues(w io.Writer, values []uint64, types []wasm.ValueType) error {
	var b bytes.Buffer

	fmt.Fprint(&b, " [")
	for i, v := range values {
		if i != 0 {
			fmt.Fprint(&b, ", ")
		}
		var t wasm.ValueType
		if i < len(types) {
			t = types[i]
		}
		switch t {
		case wasm.ValueTypeI32:
			fmt.Fprintf(&b, "%d (0x%08x)", int32(v), uint32(v))
		case wasm.ValueTypeI64:
			fmt.Fprintf(&b, "%d (0x%016x)", int64(v), v)
		case wasm.ValueTypeF32:
			fmt.Fprintf(&b, "%g (0x%08x)", math.Float32frombits(uint32(v)), uint32(v))
		case wasm.ValueTypeF64:
			fmt.Fprintf(&b, "%g (0x%016x)", math.Float64frombits(v), v)
		default:
			fmt.Fprintf(&b, "0x%x", v)
		}
	}
	fmt.Fprint(&b, "]")

	_, err := w.Write(b.Bytes())
	return err
}

// Names maps function indices to names for printing.
type Names interface {
	FunctionName(index uint32) (string, bool)
}

// ExportNames names functions after their exports.
type ExportNames map[uint32]string

// NewExportNames collects the function export names of a module.
func NewExportNames(m *wasm.Module) ExportNames {
	names := ExportNames{}
	for _, exp := range m.Exports {
		if exp.Kind == wasm.ExternalFunction {
			if _, ok := names[exp.Index]; !ok {
				names[exp.Index] = exp.Name
			}
		}
	}
	funcidx := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind != wasm.ExternalFunction {
			continue
		}
		if _, ok := names[funcidx]; !ok {
			names[funcidx] = imp.Module + "." + imp.Field
		}
		funcidx++
	}
	return names
}

func (n ExportNames) FunctionName(index uint32) (string, bool) {
	name, ok := n[index]
	return name, ok
}

// A Printer renders trace entries as text. It tracks the call stack so that leave entries name the
// function being left.
type Printer struct {
	names  Names
	frames []uint32
}

func NewPrinter(names Names) *Printer {
	if names == nil {
		names = ExportNames{}
	}
	return &Printer{names: names}
}

func (p *Printer) functionName(index uint32) string {
	if name, ok := p.names.FunctionName(index); ok {
		return "$" + name
	}
	return fmt.Sprintf("%v", index)
}

func (p *Printer) where() string {
	if len(p.frames) == 0 {
		return ""
	}
	return p.functionName(p.frames[len(p.frames)-1])
}

func (p *Printer) indent(w io.Writer) error {
	for i := 1; i < len(p.frames); i++ {
		if _, err := io.WriteString(w, "  "); err != nil {
			return err
		}
	}
	return nil
}

// Print prints a textual representation of the given trace entry to the given io.Writer.
func (p *Printer) Print(w io.Writer, entry Entry) error {
	switch entry := entry.(type) {
	case *EnterEntry:
		p.frames = append(p.frames, entry.FunctionIndex)
		if err := p.indent(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "enter(%v, %v)\n", p.where(), entry.FunctionType); err != nil {
			return err
		}
	case *LeaveEntry:
		if err := p.indent(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "leave(%v)\n", p.where()); err != nil {
			return err
		}
		if len(p.frames) > 0 {
			p.frames = p.frames[:len(p.frames)-1]
		}
	case *InstructionEntry:
		instruction := ""
		switch {
		case entry.Instruction.Opcode == wasm.OpCall:
			instruction = "call " + p.functionName(entry.Instruction.Funcidx())
		case entry.Instruction.IsLoad() || entry.Instruction.IsStore():
			if n := len(entry.Operands); n > 0 {
				// The address is below the value for stores.
				base := entry.Operands[n-1]
				if entry.Instruction.IsStore() && n > 1 {
					base = entry.Operands[n-2]
				}
				ea := uint64(uint32(base)) + uint64(entry.Instruction.MemArg().Offset)
				instruction = fmt.Sprintf("%v (0x%08x)", &entry.Instruction, ea)
			}
		}
		if instruction == "" {
			instruction = entry.Instruction.String()
		}

		if err := p.indent(w); err != nil {
			return err
		}
		if _, err := fmt.Fprintf(w, "%04x: %v; height=%d", entry.PC, instruction, entry.Height); err != nil {
			return err
		}
		if err := printValues(w, entry.Operands, entry.OperandTypes); err != nil {
			return err
		}
		if _, err := fmt.Fprint(w, "\n"); err != nil {
			return err
		}
	case *EndEntry:
		if _, err := fmt.Fprint(w, "end\n"); err != nil {
			return err
		}
	}
	return nil
}

// PrintTrace prints every entry of an encoded trace.
func PrintTrace(w io.Writer, r io.Reader, names Names) error {
	decoder, printer := NewDecoder(r), NewPrinter(names)
	for decoder.Next() {
		if err := printer.Print(w, decoder.Entry()); err != nil {
			return err
		}
	}
	return decoder.Error()
}
