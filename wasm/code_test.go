// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm_test

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasmarch/wasmarch/wasm"
)

func TestDecodeInstructionBytes(t *testing.T) {
	cases := []struct {
		name     string
		code     []byte
		expected wasm.Instruction
	}{
		{"i32.const -1", []byte{0x41, 0x7f}, wasm.I32Const(-1)},
		{"i64.const 624485", []byte{0x42, 0xe5, 0x8e, 0x26}, wasm.I64Const(624485)},
		{"f32.const 1", []byte{0x43, 0x00, 0x00, 0x80, 0x3f}, wasm.F32Const(1)},
		{"block i32", []byte{0x02, 0x7f}, wasm.Block(wasm.BlockTypeI32)},
		{"loop type 5", []byte{0x03, 0x05}, wasm.Loop(wasm.BlockTypeIndex(5))},
		{"if empty", []byte{0x04, 0x40}, wasm.If()},
		{"br_table", []byte{0x0e, 0x02, 0x00, 0x01, 0x02}, wasm.BrTable(2, 0, 1)},
		{"call_indirect", []byte{0x11, 0x03, 0x01}, wasm.CallIndirect(3, 1)},
		{"i32.load", []byte{0x28, 0x02, 0x08}, wasm.I32Load(8)},
		{"memory.grow", []byte{0x40, 0x00}, wasm.MemoryGrow()},
		{"memory.copy", []byte{0xfc, 0x0a, 0x00, 0x00}, wasm.MemoryCopy()},
		{"table.init", []byte{0xfc, 0x0c, 0x04, 0x01}, wasm.TableInit(4, 1)},
		{"i32.trunc_sat_f64_u", []byte{0xfc, 0x03}, wasm.Op(wasm.OpI32TruncSatF64U)},
		{"select t", []byte{0x1c, 0x01, 0x7e}, wasm.SelectT(wasm.ValueTypeI64)},
		{"ref.null extern", []byte{0xd0, 0x6f}, wasm.RefNull(wasm.ValueTypeExternRef)},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			instr, err := wasm.DecodeInstruction(bytes.NewReader(c.code))
			require.NoError(t, err)
			assert.Equal(t, c.expected, instr)

			var buf bytes.Buffer
			require.NoError(t, wasm.EncodeInstruction(&buf, &instr))
			assert.Equal(t, c.code, buf.Bytes())
		})
	}
}

func TestDecodeCode(t *testing.T) {
	code, err := wasm.DecodeCode(bytes.NewReader([]byte{0x20, 0x00, 0x20, 0x01, 0x6a, 0x0b}))
	require.NoError(t, err)
	assert.Equal(t, []wasm.Instruction{
		wasm.LocalGet(0),
		wasm.LocalGet(1),
		wasm.Op(wasm.OpI32Add),
		wasm.End(),
	}, code)

	code, err = wasm.DecodeCode(bytes.NewReader(nil))
	require.NoError(t, err)
	assert.Empty(t, code)
}

func TestDecodeInstructionTruncated(t *testing.T) {
	_, err := wasm.DecodeInstruction(bytes.NewReader(nil))
	assert.ErrorIs(t, err, io.EOF)

	_, err = wasm.DecodeInstruction(bytes.NewReader([]byte{0x41, 0x80}))
	assert.ErrorIs(t, err, wasm.ErrUnexpectedEOF)

	_, err = wasm.DecodeCode(bytes.NewReader([]byte{0x20, 0x00, 0x44, 0x00}))
	assert.ErrorIs(t, err, wasm.ErrUnexpectedEOF)
}
