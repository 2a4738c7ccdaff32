// Copyright 2020 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wasmarch/wasmarch/wasm"
)

var header = []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

func section(id byte, payload ...byte) []byte {
	return append([]byte{id, byte(len(payload))}, payload...)
}

func binary(sections ...[]byte) []byte {
	b := append([]byte{}, header...)
	for _, s := range sections {
		b = append(b, s...)
	}
	return b
}

func codeSection(bodies ...[]byte) []byte {
	payload := []byte{byte(len(bodies))}
	for _, b := range bodies {
		payload = append(payload, byte(len(b)))
		payload = append(payload, b...)
	}
	return section(10, payload...)
}

func TestSectionErrors(t *testing.T) {
	cases := []struct {
		name   string
		module []byte
		err    error
	}{
		{
			name:   "type kind",
			module: binary(section(1, 0x01, 0x61, 0x00, 0x00)),
			err:    wasm.InvalidTypeKindError(0x61),
		},
		{
			name:   "value type",
			module: binary(section(1, 0x01, 0x60, 0x01, 0x40, 0x00)),
			err:    wasm.InvalidValueTypeError(0x40),
		},
		{
			name:   "memory import",
			module: binary(section(2, 0x01, 0x01, 'm', 0x01, 'f', 0x02, 0x00, 0x01)),
			err:    wasm.InvalidImportDescError(0x02),
		},
		{
			name:   "limits kind",
			module: binary(section(5, 0x01, 0x02, 0x00)),
			err:    wasm.InvalidLimitsKindError(0x02),
		},
		{
			name:   "table ref type",
			module: binary(section(4, 0x01, 0x7f, 0x00, 0x01)),
			err:    wasm.InvalidRefTypeError(0x7f),
		},
		{
			name:   "global init not const",
			module: binary(section(6, 0x01, 0x7f, 0x00, 0x23, 0x00, 0x0b)),
			err:    wasm.ErrInvalidGlobalInitExpr,
		},
		{
			name:   "global init two instructions",
			module: binary(section(6, 0x01, 0x7f, 0x00, 0x41, 0x01, 0x41, 0x02, 0x0b)),
			err:    wasm.ErrInvalidGlobalInitExpr,
		},
		{
			name:   "export kind",
			module: binary(section(7, 0x01, 0x01, 'e', 0x04, 0x00)),
			err:    wasm.InvalidExportDescError(0x04),
		},
		{
			name:   "element prefix",
			module: binary(section(9, 0x01, 0x05)),
			err:    wasm.UnsupportedElementPrefixError(5),
		},
		{
			name:   "element offset",
			module: binary(section(9, 0x01, 0x00, 0x23, 0x00, 0x0b, 0x00)),
			err:    wasm.ErrExpectedConstExpression,
		},
		{
			name:   "element kind",
			module: binary(section(9, 0x01, 0x01, 0x01, 0x00)),
			err:    wasm.InvalidElemKindError(0x01),
		},
		{
			name:   "section id",
			module: binary(section(13)),
			err:    wasm.InvalidSectionIDError(13),
		},
		{
			name:   "unsupported opcode",
			module: binary(codeSection([]byte{0x00, 0x06, 0x0b})),
			err:    wasm.UnsupportedOpcodeError(0x06),
		},
		{
			name:   "sub-instruction",
			module: binary(codeSection([]byte{0x00, 0xfc, 0x12, 0x0b})),
			err:    wasm.InvalidSubInstrIDError(0x12),
		},
		{
			name:   "block type",
			module: binary(codeSection([]byte{0x00, 0x02, 0x50, 0x0b, 0x0b})),
			err:    wasm.InvalidBlockTypeError(-48),
		},
		{
			name:   "reserved byte",
			module: binary(codeSection([]byte{0x00, 0x3f, 0x01, 0x0b})),
			err:    wasm.ErrZeroByteExpected,
		},
		{
			name:   "data prefix",
			module: binary(section(11, 0x01, 0x03)),
			err:    wasm.UnsupportedDataPrefixError(3),
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, err := wasm.DecodeModuleBytes(c.module)
			assert.ErrorIs(t, err, c.err)
		})
	}
}

func TestLocalGroupsExpand(t *testing.T) {
	body := []byte{
		0x02,       // two groups
		0x02, 0x7f, // 2 x i32
		0x01, 0x7c, // 1 x f64
		0x0b,
	}
	m, err := wasm.DecodeModuleBytes(binary(codeSection(body)))
	require.NoError(t, err)
	require.Len(t, m.Code, 1)
	assert.Equal(t, []wasm.ValueType{wasm.ValueTypeI32, wasm.ValueTypeI32, wasm.ValueTypeF64}, m.Code[0].Locals)
	assert.Equal(t, []wasm.Instruction{wasm.End()}, m.Code[0].Code)
}

func TestTooManyLocals(t *testing.T) {
	body := []byte{0x01, 0xff, 0xff, 0x03, 0x7f, 0x0b}
	_, err := wasm.DecodeModuleBytes(binary(codeSection(body)))
	var tooMany wasm.TooManyLocalsError
	assert.ErrorAs(t, err, &tooMany)
}

func TestCustomSectionSkipped(t *testing.T) {
	m, err := wasm.DecodeModuleBytes(binary(
		section(0, 0x04, 'n', 'a', 'm', 'e', 0x01, 0x02),
		section(8, 0x00),
	))
	require.NoError(t, err)

	custom := m.Custom("name")
	require.NotNil(t, custom)
	assert.Equal(t, []byte{0x01, 0x02}, custom.Data)
	require.NotNil(t, m.Start)
	assert.Equal(t, uint32(0), *m.Start)
}
