package dump

import (
	"fmt"
	"io"
	"strings"

	"github.com/wasmarch/wasmarch/wasm"
	"github.com/wasmarch/wasmarch/wasm/trace"
)

type invalidFunctionError int

func (e invalidFunctionError) Error() string {
	return fmt.Sprintf("function %d has no valid type", int(e))
}

// listing accumulates the first write error so that the section writers stay linear.
type listing struct {
	w   io.Writer
	err error
}

func (l *listing) printf(format string, args ...interface{}) {
	if l.err == nil {
		_, l.err = fmt.Fprintf(l.w, format, args...)
	}
}

func funcName(names trace.Names, funcidx uint32) string {
	if name, ok := names.FunctionName(funcidx); ok {
		return fmt.Sprintf(" %q", name)
	}
	return ""
}

func (l *listing) writeCode(code []wasm.Instruction) {
	depth := 1
	for pc := range code {
		instr := &code[pc]
		if instr.Opcode == wasm.OpEnd || instr.Opcode == wasm.OpElse {
			depth--
		}
		l.printf("    %4d: %s%s\n", pc, strings.Repeat("  ", depth), instr.String())
		if instr.IsBlock() || instr.Opcode == wasm.OpElse {
			depth++
		}
	}
}

// writeModule prints a readable listing of every section of m.
func writeModule(w io.Writer, m *wasm.Module, names trace.Names) error {
	l := &listing{w: w}

	l.printf("version %d\n", m.Version)

	if len(m.Types) != 0 {
		l.printf("types:\n")
		for i, t := range m.Types {
			l.printf("  %d: %v\n", i, t)
		}
	}

	imported := uint32(0)
	if len(m.Imports) != 0 {
		l.printf("imports:\n")
		for _, imp := range m.Imports {
			l.printf("  func %d %s.%s: type %d\n", imported, imp.Module, imp.Field, imp.Type)
			imported++
		}
	}

	if len(m.Functions) != 0 {
		l.printf("functions:\n")
		for i, typeidx := range m.Functions {
			funcidx := imported + uint32(i)
			l.printf("  func %d%s: type %d\n", funcidx, funcName(names, funcidx), typeidx)
			if i < len(m.Code) {
				body := &m.Code[i]
				if len(body.Locals) != 0 {
					l.printf("    locals %v\n", body.Locals)
				}
				l.writeCode(body.Code)
			}
		}
	}

	if len(m.Tables) != 0 {
		l.printf("tables:\n")
		for i, t := range m.Tables {
			l.printf("  %d: %v %v\n", i, t.ElemType, t.Limits)
		}
	}

	if len(m.Memories) != 0 {
		l.printf("memories:\n")
		for i, mem := range m.Memories {
			l.printf("  %d: %v\n", i, mem.Limits)
		}
	}

	if len(m.Globals) != 0 {
		l.printf("globals:\n")
		for i, g := range m.Globals {
			mut := ""
			if g.Type.Mutable {
				mut = "mut "
			}
			l.printf("  %d: %s%v = %v\n", i, mut, g.Type.ValueType, g.Init.String())
		}
	}

	if len(m.Exports) != 0 {
		l.printf("exports:\n")
		for _, e := range m.Exports {
			l.printf("  %q: %v %d\n", e.Name, e.Kind, e.Index)
		}
	}

	if m.Start != nil {
		l.printf("start: func %d%s\n", *m.Start, funcName(names, *m.Start))
	}

	if len(m.Elements) != 0 {
		l.printf("elements:\n")
		for i, e := range m.Elements {
			l.printf("  %d: %v", i, e.Mode)
			if e.Mode == wasm.SegmentActive {
				l.printf(" table %d offset (%s)", e.Table, e.Offset.String())
			}
			l.printf(" %v\n", e.Init)
		}
	}

	if len(m.Data) != 0 {
		l.printf("data:\n")
		for i, d := range m.Data {
			l.printf("  %d: %v", i, d.Mode)
			if d.Mode == wasm.SegmentActive {
				l.printf(" memory %d offset (%s)", d.Memory, d.Offset.String())
			}
			l.printf(" %d bytes\n", len(d.Init))
		}
	}

	if len(m.Customs) != 0 {
		l.printf("custom sections:\n")
		for _, c := range m.Customs {
			l.printf("  %q: %d bytes\n", c.Name, len(c.Data))
		}
	}

	return l.err
}
