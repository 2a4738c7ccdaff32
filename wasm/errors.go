// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidMagicHeader is returned when the first four bytes of a module are not "\x00asm".
	ErrInvalidMagicHeader = errors.New("wasm: magic header not detected")

	// ErrUnexpectedEOF is returned when the input ends in the middle of a structure. A module that ends
	// between or inside sections is not an error: decoding stops and returns the sections read so far.
	ErrUnexpectedEOF = errors.New("wasm: unexpected end of input")

	// ErrInvalidGlobalInitExpr is returned when a global's initializer is not a single numeric constant.
	ErrInvalidGlobalInitExpr = errors.New("wasm: invalid global initializer expression")

	// ErrExpectedConstExpression is returned when a segment offset is not an i32 constant expression.
	ErrExpectedConstExpression = errors.New("wasm: expected i32 constant expression")

	// ErrZeroByteExpected is returned when a reserved immediate byte is not zero.
	ErrZeroByteExpected = errors.New("wasm: zero byte expected")

	ErrInvalidUTF8 = errors.New("wasm: invalid UTF-8 encoding")
)

type InvalidVersionError uint32

func (e InvalidVersionError) Error() string {
	return fmt.Sprintf("wasm: unknown binary version %d", uint32(e))
}

type InvalidSectionIDError SectionID

func (e InvalidSectionIDError) Error() string {
	return fmt.Sprintf("wasm: malformed section id %d", uint8(e))
}

type InvalidBlockTypeError int64

func (e InvalidBlockTypeError) Error() string {
	return fmt.Sprintf("wasm: invalid block type %d", int64(e))
}

type InvalidTypeKindError byte

func (e InvalidTypeKindError) Error() string {
	return fmt.Sprintf("wasm: invalid type kind 0x%02x", byte(e))
}

type InvalidValueTypeError byte

func (e InvalidValueTypeError) Error() string {
	return fmt.Sprintf("wasm: invalid value type 0x%02x", byte(e))
}

type InvalidImportDescError byte

func (e InvalidImportDescError) Error() string {
	return fmt.Sprintf("wasm: unsupported import descriptor %d", byte(e))
}

type InvalidExportDescError byte

func (e InvalidExportDescError) Error() string {
	return fmt.Sprintf("wasm: invalid export descriptor %d", byte(e))
}

type InvalidLimitsKindError byte

func (e InvalidLimitsKindError) Error() string {
	return fmt.Sprintf("wasm: invalid limits flag 0x%02x", byte(e))
}

type InvalidRefTypeError byte

func (e InvalidRefTypeError) Error() string {
	return fmt.Sprintf("wasm: invalid reference type 0x%02x", byte(e))
}

type InvalidMutabilityError byte

func (e InvalidMutabilityError) Error() string {
	return fmt.Sprintf("wasm: invalid mutability flag 0x%02x", byte(e))
}

type InvalidElemKindError byte

func (e InvalidElemKindError) Error() string {
	return fmt.Sprintf("wasm: invalid element kind 0x%02x", byte(e))
}

type InvalidSubInstrIDError uint32

func (e InvalidSubInstrIDError) Error() string {
	return fmt.Sprintf("wasm: invalid 0xfc sub-instruction %d", uint32(e))
}

type UnsupportedElementPrefixError uint32

func (e UnsupportedElementPrefixError) Error() string {
	return fmt.Sprintf("wasm: unsupported element segment prefix %d", uint32(e))
}

// UnsupportedOpcodeError is returned for opcodes this decoder does not implement. It indicates an
// incomplete engine rather than a malformed module.
type UnsupportedOpcodeError byte

func (e UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("wasm: unsupported opcode 0x%02x", byte(e))
}

type UnsupportedDataPrefixError uint32

func (e UnsupportedDataPrefixError) Error() string {
	return fmt.Sprintf("wasm: unsupported data segment prefix %d", uint32(e))
}

// TooManyLocalsError is returned when a function body declares more locals than MaxFunctionLocals.
type TooManyLocalsError uint64

func (e TooManyLocalsError) Error() string {
	return fmt.Sprintf("wasm: too many locals: %d", uint64(e))
}
