package trace

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/wasm"
)

func TestTraceRoundTrip(t *testing.T) {
	entries := []Entry{
		&EnterEntry{FunctionIndex: 1, FunctionType: wasm.FuncType{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		&InstructionEntry{PC: 0, Instruction: wasm.LocalGet(0), Height: 0},
		&InstructionEntry{
			PC:           1,
			Instruction:  wasm.I32Store(4),
			Height:       2,
			OperandTypes: []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32},
			Operands:     []uint64{8, 42},
		},
		&LeaveEntry{},
	}

	var buf bytes.Buffer
	for _, e := range entries {
		require.NoError(t, e.Encode(&buf))
	}
	require.NoError(t, (&EndEntry{}).Encode(&buf))

	decoded, err := Decode(bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, entries, decoded)
}

func TestDecodeInvalidKind(t *testing.T) {
	_, err := Decode(bytes.NewReader([]byte{0x09}))
	assert.Equal(t, InvalidEntryKindError(0x09), err)
}

func TestPrintTrace(t *testing.T) {
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "std", Field: "newline", Kind: wasm.ExternalFunction}},
		Exports: []wasm.Export{{Name: "main", Kind: wasm.ExternalFunction, Index: 1}},
	}

	var buf bytes.Buffer
	for _, e := range []Entry{
		&EnterEntry{FunctionIndex: 1},
		&InstructionEntry{PC: 0, Instruction: wasm.Call(0)},
		&InstructionEntry{
			PC:           1,
			Instruction:  wasm.I32Load(4),
			Height:       1,
			OperandTypes: []wasm.ValueType{wasm.ValueTypeI32},
			Operands:     []uint64{16},
		},
		&LeaveEntry{},
		&EndEntry{},
	} {
		require.NoError(t, e.Encode(&buf))
	}

	var out strings.Builder
	require.NoError(t, PrintTrace(&out, &buf, NewExportNames(m)))

	expected := "enter($main, (func))\n" +
		"0000: call $std.newline; height=0 []\n" +
		"0001: i32.load offset=4 align=4 (0x00000014); height=1 [16 (0x00000010)]\n" +
		"leave($main)\n"
	assert.Equal(t, expected, out.String())
}
