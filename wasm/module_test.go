// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm_test

import (
	"bytes"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasmarch/wasmarch/wasm"
)

func u32(v uint32) *uint32 {
	return &v
}

func fullModule() *wasm.Module {
	i32 := wasm.ValueTypeI32
	return &wasm.Module{
		Version: wasm.Version,
		Types: []wasm.FuncType{
			{Params: []wasm.ValueType{i32, i32}, Results: []wasm.ValueType{i32}},
			{},
			{Params: []wasm.ValueType{wasm.ValueTypeF64}, Results: []wasm.ValueType{i32, wasm.ValueTypeI64}},
		},
		Imports: []wasm.Import{
			{Module: "std", Field: "log_i32", Kind: wasm.ExternalFunction, Type: 1},
		},
		Functions: []uint32{0, 1},
		Tables: []wasm.TableType{
			{ElemType: wasm.ValueTypeFuncRef, Limits: wasm.Limits{Min: 2}},
			{ElemType: wasm.ValueTypeFuncRef, Limits: wasm.Limits{Min: 1, Max: 4, HasMax: true}},
		},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: 2, HasMax: true}}},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValueType: i32, Mutable: true}, Init: wasm.I32Const(math.MaxInt32)},
			{Type: wasm.GlobalType{ValueType: wasm.ValueTypeI64}, Init: wasm.I64Const(math.MinInt64)},
			{Type: wasm.GlobalType{ValueType: wasm.ValueTypeF32}, Init: wasm.F32Const(3.14)},
			{Type: wasm.GlobalType{ValueType: wasm.ValueTypeF64}, Init: wasm.F64Const(-3.14)},
		},
		Exports: []wasm.Export{
			{Name: "add", Kind: wasm.ExternalFunction, Index: 1},
			{Name: "table", Kind: wasm.ExternalTable, Index: 0},
			{Name: "memory", Kind: wasm.ExternalMemory, Index: 0},
			{Name: "counter", Kind: wasm.ExternalGlobal, Index: 0},
		},
		Start: u32(2),
		Elements: []wasm.ElementSegment{
			{Mode: wasm.SegmentActive, Offset: wasm.I32Const(0), Init: []uint32{1, 2}},
			{Mode: wasm.SegmentPassive, Init: []uint32{0}},
			{Mode: wasm.SegmentActive, Table: 1, Offset: wasm.I32Const(1), Init: []uint32{2}},
			{Mode: wasm.SegmentDeclarative, Init: []uint32{1}},
		},
		DataCount: u32(2),
		Code: []wasm.FuncBody{
			{
				Locals: []wasm.ValueType{i32, i32, wasm.ValueTypeF64, i32},
				Code: []wasm.Instruction{
					wasm.LocalGet(0),
					wasm.LocalGet(1),
					wasm.Op(wasm.OpI32Add),
					wasm.Block(wasm.BlockTypeI32),
					wasm.Loop(wasm.BlockTypeIndex(1)),
					wasm.I32Const(-1),
					wasm.If(),
					wasm.Br(1),
					wasm.Else(),
					wasm.BrTable(0, 1, 0),
					wasm.End(),
					wasm.End(),
					wasm.I32Const(7),
					wasm.End(),
					wasm.I32Const(0),
					wasm.CallIndirect(1, 1),
					wasm.Mem(wasm.OpI64Load32U, 16, 2),
					wasm.Op(wasm.OpI32WrapI64),
					wasm.Mem(wasm.OpI32Store8, 0x10000, 0),
					wasm.I32Const(0),
					wasm.I32Const(1),
					wasm.I32Const(1),
					wasm.SelectT(wasm.ValueTypeI32),
					wasm.Drop(),
					wasm.RefNull(wasm.ValueTypeFuncRef),
					wasm.RefIsNull(),
					wasm.RefFunc(1),
					wasm.TableGet(0),
					wasm.TableSet(1),
					wasm.MemorySize(),
					wasm.MemoryGrow(),
					wasm.Op(wasm.OpI64TruncSatF64U),
					wasm.MemoryInit(1),
					wasm.DataDrop(1),
					wasm.MemoryCopy(),
					wasm.MemoryFill(),
					wasm.TableInit(0, 1),
					wasm.ElemDrop(0),
					wasm.TableCopy(1, 0),
					wasm.TableGrow(0),
					wasm.TableSize(1),
					wasm.TableFill(0),
					wasm.GlobalGet(0),
					wasm.GlobalSet(0),
					wasm.LocalTee(2),
					wasm.LocalSet(3),
					wasm.F32Const(float32(math.Inf(1))),
					wasm.F64Const(math.Copysign(0, -1)),
					wasm.I64Const(math.MaxInt64),
					wasm.Call(0),
					wasm.Return(),
					wasm.End(),
				},
			},
			{Code: []wasm.Instruction{wasm.Nop(), wasm.Unreachable(), wasm.End()}},
		},
		Data: []wasm.DataSegment{
			{Mode: wasm.SegmentActive, Offset: wasm.I32Const(8), Init: []byte("hello")},
			{Mode: wasm.SegmentPassive, Init: []byte{0xde, 0xad}},
		},
		Customs: []wasm.CustomSection{{Name: "producers", Data: []byte{0x00}}},
	}
}

func TestDecodeRoundTrip(t *testing.T) {
	m := fullModule()

	b, err := m.EncodeBytes()
	require.NoError(t, err)

	decoded, err := wasm.DecodeModule(bytes.NewReader(b))
	require.NoError(t, err)
	assert.Equal(t, m, decoded)

	// Re-encoding the decoded module is byte-for-byte stable.
	again, err := decoded.EncodeBytes()
	require.NoError(t, err)
	assert.Equal(t, b, again)
}

func TestDecodeEmptyModule(t *testing.T) {
	m, err := wasm.DecodeModuleBytes(header)
	require.NoError(t, err)
	assert.Equal(t, &wasm.Module{Version: wasm.Version}, m)
}

func TestDecodeHeader(t *testing.T) {
	_, err := wasm.DecodeModuleBytes([]byte{0x00, 0x61, 0x73, 0x6e, 0x01, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, wasm.ErrInvalidMagicHeader)

	_, err = wasm.DecodeModuleBytes([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	assert.ErrorIs(t, err, wasm.InvalidVersionError(2))

	// The version is checked before any payload is read.
	_, err = wasm.DecodeModuleBytes([]byte{0x00, 0x61, 0x73, 0x6d, 0x0d, 0x00, 0x00, 0x00, 0xff, 0xff})
	assert.ErrorIs(t, err, wasm.InvalidVersionError(13))

	_, err = wasm.DecodeModuleBytes([]byte{0x00, 0x61})
	assert.ErrorIs(t, err, wasm.ErrUnexpectedEOF)
}

func TestDecodeTruncated(t *testing.T) {
	m := &wasm.Module{
		Version:   wasm.Version,
		Types:     []wasm.FuncType{{Results: []wasm.ValueType{wasm.ValueTypeI32}}},
		Functions: []uint32{0},
		Exports:   []wasm.Export{{Name: "answer", Kind: wasm.ExternalFunction, Index: 0}},
		Code:      []wasm.FuncBody{{Code: []wasm.Instruction{wasm.I32Const(42), wasm.End()}}},
	}
	b, err := m.EncodeBytes()
	require.NoError(t, err)

	// Cutting into the code section keeps every section before it.
	decoded, err := wasm.DecodeModuleBytes(b[:len(b)-2])
	require.NoError(t, err)
	assert.Equal(t, m.Types, decoded.Types)
	assert.Equal(t, m.Exports, decoded.Exports)
	assert.Nil(t, decoded.Code)
}

func TestFunctionType(t *testing.T) {
	m := fullModule()

	typ, ok := m.FunctionType(0)
	require.True(t, ok)
	assert.Equal(t, m.Types[1], typ)

	typ, ok = m.FunctionType(1)
	require.True(t, ok)
	assert.Equal(t, m.Types[0], typ)

	_, ok = m.FunctionType(3)
	assert.False(t, ok)
	assert.Equal(t, 1, m.NumImportedFunctions())
}

func TestInstructionString(t *testing.T) {
	cases := []struct {
		instr    wasm.Instruction
		expected string
	}{
		{wasm.Block(wasm.BlockTypeI32), "block (result i32)"},
		{wasm.Loop(), "loop"},
		{wasm.If(wasm.BlockTypeIndex(3)), "if (type 3)"},
		{wasm.BrTable(2, 0, 1), "br_table 0 1 2"},
		{wasm.Mem(wasm.OpI32Load, 8, 2), "i32.load offset=8 align=4"},
		{wasm.I64Const(-5), "i64.const -5"},
		{wasm.Op(wasm.OpI32TruncSatF32S), "i32.trunc_sat_f32_s"},
		{wasm.CallIndirect(4, 0), "call_indirect 0 (type 4)"},
		{wasm.Op(wasm.OpF64Copysign), "f64.copysign"},
	}
	for _, c := range cases {
		t.Run(c.expected, func(t *testing.T) {
			assert.Equal(t, c.expected, c.instr.String())
		})
	}
}

func TestBlockType(t *testing.T) {
	types := []wasm.FuncType{{Params: []wasm.ValueType{wasm.ValueTypeI32}, Results: []wasm.ValueType{wasm.ValueTypeI64}}}

	params, results, ok := wasm.BlockTypeEmpty.Signature(types)
	assert.True(t, ok)
	assert.Empty(t, params)
	assert.Empty(t, results)

	vt, ok := wasm.BlockTypeF64.ValueType()
	assert.True(t, ok)
	assert.Equal(t, wasm.ValueTypeF64, vt)

	params, results, ok = wasm.BlockTypeIndex(0).Signature(types)
	assert.True(t, ok)
	assert.Equal(t, types[0].Params, params)
	assert.Equal(t, types[0].Results, results)

	_, _, ok = wasm.BlockTypeIndex(1).Signature(types)
	assert.False(t, ok)
}
