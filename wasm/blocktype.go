// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wasmarch/wasmarch/wasm/leb128"
)

// BlockType is the signature of a block, loop, or if. It is either empty, a single result type, or an
// index into the type section. The latter form is distinguished by the absence of the special bit.
type BlockType uint64

const (
	blockTypeSpecial BlockType = 0x8000000000000000

	BlockTypeEmpty BlockType = 0x40 | blockTypeSpecial
	BlockTypeI32   BlockType = BlockType(ValueTypeI32) | blockTypeSpecial
	BlockTypeI64   BlockType = BlockType(ValueTypeI64) | blockTypeSpecial
	BlockTypeF32   BlockType = BlockType(ValueTypeF32) | blockTypeSpecial
	BlockTypeF64   BlockType = BlockType(ValueTypeF64) | blockTypeSpecial
)

// BlockTypeValue returns the block type with a single result of type t.
func BlockTypeValue(t ValueType) BlockType {
	return BlockType(t) | blockTypeSpecial
}

// BlockTypeIndex returns the block type that refers to the given entry in the type section.
func BlockTypeIndex(typeidx uint32) BlockType {
	return BlockType(typeidx)
}

// IsEmpty returns true if the block has no parameters and no results.
func (b BlockType) IsEmpty() bool {
	return b == BlockTypeEmpty
}

// ValueType returns the single result type of the block, if the block has that form.
func (b BlockType) ValueType() (ValueType, bool) {
	if b&blockTypeSpecial == 0 || b == BlockTypeEmpty {
		return 0, false
	}
	return ValueType(b), true
}

// TypeIndex returns the type section index of the block's signature, if the block has that form.
func (b BlockType) TypeIndex() (uint32, bool) {
	if b&blockTypeSpecial != 0 {
		return 0, false
	}
	return uint32(b), true
}

// Signature resolves the block's parameter and result types against the given type section.
func (b BlockType) Signature(types []FuncType) (params, results []ValueType, ok bool) {
	if b.IsEmpty() {
		return nil, nil, true
	}
	if t, ok := b.ValueType(); ok {
		return nil, []ValueType{t}, true
	}
	idx, _ := b.TypeIndex()
	if int(idx) >= len(types) {
		return nil, nil, false
	}
	return types[idx].Params, types[idx].Results, true
}

func (b BlockType) String() string {
	if b.IsEmpty() {
		return ""
	}
	if t, ok := b.ValueType(); ok {
		return fmt.Sprintf("(result %v)", t)
	}
	idx, _ := b.TypeIndex()
	return fmt.Sprintf("(type %d)", idx)
}

func readBlockType(r io.Reader) (BlockType, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, err
	}
	switch b {
	case 0x40:
		return BlockTypeEmpty, nil
	case byte(ValueTypeI32), byte(ValueTypeI64), byte(ValueTypeF32), byte(ValueTypeF64),
		byte(ValueTypeFuncRef), byte(ValueTypeExternRef):
		return BlockTypeValue(ValueType(b)), nil
	}

	idx, err := leb128.ReadVarint33(io.MultiReader(bytes.NewReader([]byte{b}), r))
	if err != nil {
		return 0, err
	}
	if idx < 0 || idx > 0xffffffff {
		return 0, InvalidBlockTypeError(idx)
	}
	return BlockTypeIndex(uint32(idx)), nil
}

func writeBlockType(w io.Writer, b BlockType) error {
	if b&blockTypeSpecial != 0 {
		return writeByte(w, byte(b))
	}
	_, err := leb128.WriteVarint64(w, int64(uint32(b)))
	return err
}
