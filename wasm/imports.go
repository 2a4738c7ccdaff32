// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"io"

	"github.com/wasmarch/wasmarch/wasm/leb128"
	"go.uber.org/zap"
)

// Import describes an import statement in a Wasm module. Only function imports are supported; Type is
// the index of the function's signature in the type section.
type Import struct {
	Module string       `json:"module"`
	Field  string       `json:"field"`
	Kind   ExternalKind `json:"kind"`
	Type   uint32       `json:"type"`
}

func (i *Import) UnmarshalWASM(r io.Reader) error {
	var err error
	if i.Module, err = readName(r); err != nil {
		return err
	}
	if i.Field, err = readName(r); err != nil {
		return err
	}
	kind, err := readByte(r)
	if err != nil {
		return err
	}
	if ExternalKind(kind) != ExternalFunction {
		return InvalidImportDescError(kind)
	}
	i.Kind = ExternalFunction

	Logger().Debug("importing function", zap.String("module", i.Module), zap.String("field", i.Field))
	i.Type, err = leb128.ReadVarUint32(r)
	return err
}

func (i *Import) MarshalWASM(w io.Writer) error {
	if err := writeName(w, i.Module); err != nil {
		return err
	}
	if err := writeName(w, i.Field); err != nil {
		return err
	}
	if err := writeByte(w, byte(i.Kind)); err != nil {
		return err
	}
	_, err := leb128.WriteVarUint32(w, i.Type)
	return err
}

// Export maps a name to an entity in one of the module's index spaces.
type Export struct {
	Name  string       `json:"name"`
	Kind  ExternalKind `json:"kind"`
	Index uint32       `json:"index"`
}

func (e *Export) UnmarshalWASM(r io.Reader) error {
	var err error
	if e.Name, err = readName(r); err != nil {
		return err
	}
	kind, err := readByte(r)
	if err != nil {
		return err
	}
	switch ExternalKind(kind) {
	case ExternalFunction, ExternalTable, ExternalMemory, ExternalGlobal:
		e.Kind = ExternalKind(kind)
	default:
		return InvalidExportDescError(kind)
	}
	e.Index, err = leb128.ReadVarUint32(r)
	return err
}

func (e *Export) MarshalWASM(w io.Writer) error {
	if err := writeName(w, e.Name); err != nil {
		return err
	}
	if err := writeByte(w, byte(e.Kind)); err != nil {
		return err
	}
	_, err := leb128.WriteVarUint32(w, e.Index)
	return err
}
