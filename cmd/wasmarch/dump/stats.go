package dump

import (
	"encoding/csv"
	"io"

	"github.com/jszwec/csvutil"

	"github.com/wasmarch/wasmarch/wasm"
	"github.com/wasmarch/wasmarch/wasm/trace"
)

type statsRow struct {
	Function         string `csv:"function"`
	Funcidx          int    `csv:"funcidx"`
	In               int    `csv:"in"`
	Out              int    `csv:"out"`
	LocalCount       int    `csv:"local count"`
	InstructionCount int    `csv:"instruction count"`
	BlockCount       int    `csv:"block count"`
	MaxNesting       int    `csv:"max nesting"`
	Branch           int    `csv:"branch"`
	Call             int    `csv:"call"`
	CallIndirect     int    `csv:"call_indirect"`
	Variable         int    `csv:"variable"`
	Load             int    `csv:"load"`
	Store            int    `csv:"store"`
	Const            int    `csv:"const"`
	Compare          int    `csv:"compare"`
	Arith            int    `csv:"arith"`
	Convert          int    `csv:"convert"`
	Bulk             int    `csv:"bulk"`
}

func functionStats(name string, funcidx int, sig wasm.FuncType, body *wasm.FuncBody) statsRow {
	r := statsRow{
		Function:         name,
		Funcidx:          funcidx,
		In:               len(sig.Params),
		Out:              len(sig.Results),
		LocalCount:       len(body.Locals),
		InstructionCount: len(body.Code),
	}

	depth := 0
	for i := range body.Code {
		instr := &body.Code[i]
		switch op := instr.Opcode; {
		case instr.IsBlock():
			r.BlockCount++
			depth++
			if depth > r.MaxNesting {
				r.MaxNesting = depth
			}
		case op == wasm.OpEnd:
			depth--
		case op == wasm.OpBr || op == wasm.OpBrIf || op == wasm.OpBrTable || op == wasm.OpReturn:
			r.Branch++
		case op == wasm.OpCall:
			r.Call++
		case op == wasm.OpCallIndirect:
			r.CallIndirect++
		case op >= wasm.OpLocalGet && op <= wasm.OpGlobalSet:
			r.Variable++
		case instr.IsLoad():
			r.Load++
		case instr.IsStore():
			r.Store++
		case op >= wasm.OpI32Const && op <= wasm.OpF64Const:
			r.Const++
		case op >= wasm.OpI32Eqz && op <= wasm.OpF64Ge:
			r.Compare++
		case op >= wasm.OpI32Clz && op <= wasm.OpF64Copysign:
			r.Arith++
		case op >= wasm.OpI32WrapI64 && op <= wasm.OpI64Extend32S:
			r.Convert++
		case op.IsPrefixed() && op <= wasm.OpI64TruncSatF64U:
			r.Convert++
		case op.IsPrefixed():
			r.Bulk++
		}
	}
	return r
}

// dumpStats writes one CSV row of instruction statistics per function body.
func dumpStats(w io.Writer, m *wasm.Module, names trace.Names) error {
	csvWriter := csv.NewWriter(w)
	encoder := csvutil.NewEncoder(csvWriter)

	imported := m.NumImportedFunctions()
	for idx := range m.Code {
		funcidx := idx + imported
		sig, ok := m.FunctionType(uint32(funcidx))
		if !ok {
			return invalidFunctionError(funcidx)
		}
		name, _ := names.FunctionName(uint32(funcidx))

		r := functionStats(name, funcidx, sig, &m.Code[idx])
		if err := encoder.Encode(&r); err != nil {
			return err
		}
	}
	csvWriter.Flush()
	return csvWriter.Error()
}
