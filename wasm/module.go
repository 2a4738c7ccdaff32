// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bufio"
	"bytes"
	"io"

	"go.uber.org/zap"
)

const (
	Magic   uint32 = 0x6d736100
	Version uint32 = 0x1
)

// Module is a decoded WebAssembly module. A module is not modified after it has been decoded.
//
// The function index space is the imported functions followed by the functions declared in the
// function section. Code[i] is the body of the function whose type index is Functions[i].
type Module struct {
	Version uint32 `json:"version"`

	Types     []FuncType       `json:"types,omitempty"`
	Imports   []Import         `json:"imports,omitempty"`
	Functions []uint32         `json:"functions,omitempty"`
	Tables    []TableType      `json:"tables,omitempty"`
	Memories  []MemoryType     `json:"memories,omitempty"`
	Globals   []Global         `json:"globals,omitempty"`
	Exports   []Export         `json:"exports,omitempty"`
	Start     *uint32          `json:"start,omitempty"`
	Elements  []ElementSegment `json:"elements,omitempty"`
	Code      []FuncBody       `json:"code,omitempty"`
	Data      []DataSegment    `json:"data,omitempty"`
	DataCount *uint32          `json:"dataCount,omitempty"`
	Customs   []CustomSection  `json:"customs,omitempty"`
}

// Global is a global declared by the module. Init is the single constant instruction that produces
// the global's initial value.
type Global struct {
	Type GlobalType  `json:"type"`
	Init Instruction `json:"init"`
}

// SegmentMode describes when an element or data segment is applied.
type SegmentMode uint8

const (
	// SegmentActive segments are copied into a table or memory during instantiation.
	SegmentActive SegmentMode = iota
	// SegmentPassive segments are copied by table.init or memory.init.
	SegmentPassive
	// SegmentDeclarative element segments only forward-declare function references.
	SegmentDeclarative
)

func (m SegmentMode) String() string {
	switch m {
	case SegmentActive:
		return "active"
	case SegmentPassive:
		return "passive"
	case SegmentDeclarative:
		return "declarative"
	default:
		return "<unknown mode>"
	}
}

// ElementSegment initializes a range of a table with function references. Offset is only
// meaningful for active segments.
type ElementSegment struct {
	Mode   SegmentMode `json:"mode"`
	Table  uint32      `json:"table"`
	Offset Instruction `json:"offset"`
	Init   []uint32    `json:"init"`
}

// DataSegment initializes a range of a linear memory. Offset is only meaningful for active segments.
type DataSegment struct {
	Mode   SegmentMode `json:"mode"`
	Memory uint32      `json:"memory"`
	Offset Instruction `json:"offset"`
	Init   []byte      `json:"init"`
}

// FuncBody is the decoded body of a function. Locals holds one entry per declared local, excluding
// parameters; Code is the flat instruction sequence including the final end.
type FuncBody struct {
	Locals []ValueType   `json:"locals,omitempty"`
	Code   []Instruction `json:"code"`
}

// CustomSection is an uninterpreted named section.
type CustomSection struct {
	Name string `json:"name"`
	Data []byte `json:"data"`
}

// NumImportedFunctions returns the number of functions in the import section.
func (m *Module) NumImportedFunctions() int {
	n := 0
	for _, imp := range m.Imports {
		if imp.Kind == ExternalFunction {
			n++
		}
	}
	return n
}

// FunctionType returns the signature of the function with the given index in the function index space.
func (m *Module) FunctionType(funcidx uint32) (FuncType, bool) {
	var typeidx uint32
	if n := uint32(m.NumImportedFunctions()); funcidx < n {
		typeidx = m.Imports[funcidx].Type
	} else if funcidx-n < uint32(len(m.Functions)) {
		typeidx = m.Functions[funcidx-n]
	} else {
		return FuncType{}, false
	}
	if int(typeidx) >= len(m.Types) {
		return FuncType{}, false
	}
	return m.Types[typeidx], true
}

// Custom returns a custom section with a specific name, if it exists.
func (m *Module) Custom(name string) *CustomSection {
	for i := range m.Customs {
		if m.Customs[i].Name == name {
			return &m.Customs[i]
		}
	}
	return nil
}

// Export returns the export with the given name, if it exists.
func (m *Module) Export(name string) (Export, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return Export{}, false
}

// DecodeModule decodes a WASM module.
//
// The header must be intact. If the input ends in the middle of the section sequence, the sections
// decoded so far are returned without error; any other malformation is reported.
func DecodeModule(r io.Reader) (*Module, error) {
	br, ok := r.(byteReader)
	if !ok {
		br = bufio.NewReader(r)
	}

	magic, err := readU32(br)
	if err != nil {
		if isEOF(err) {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	if magic != Magic {
		return nil, ErrInvalidMagicHeader
	}

	m := &Module{}
	if m.Version, err = readU32(br); err != nil {
		if isEOF(err) {
			return nil, ErrUnexpectedEOF
		}
		return nil, err
	}
	if m.Version != Version {
		return nil, InvalidVersionError(m.Version)
	}

	if err := newSectionsReader(m).readSections(br); err != nil {
		return nil, err
	}
	return m, nil
}

// DecodeModuleBytes decodes a WASM module from a byte slice.
func DecodeModuleBytes(b []byte) (*Module, error) {
	return DecodeModule(bytes.NewReader(b))
}

type byteReader interface {
	io.Reader
	io.ByteReader
}

func logTruncated(id SectionID, err error) {
	Logger().Debug("module truncated; returning sections decoded so far",
		zap.Stringer("section", id),
		zap.Error(err))
}
