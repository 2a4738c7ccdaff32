// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"fmt"
	"io"

	"github.com/wasmarch/wasmarch/wasm/leb128"
	"go.uber.org/zap"
)

// SectionID is a 1-byte code that encodes the section code of both known and custom sections.
type SectionID uint8

const (
	SectionIDCustom    SectionID = 0
	SectionIDType      SectionID = 1
	SectionIDImport    SectionID = 2
	SectionIDFunction  SectionID = 3
	SectionIDTable     SectionID = 4
	SectionIDMemory    SectionID = 5
	SectionIDGlobal    SectionID = 6
	SectionIDExport    SectionID = 7
	SectionIDStart     SectionID = 8
	SectionIDElement   SectionID = 9
	SectionIDCode      SectionID = 10
	SectionIDData      SectionID = 11
	SectionIDDataCount SectionID = 12
)

func (s SectionID) String() string {
	n, ok := map[SectionID]string{
		SectionIDCustom:    "custom",
		SectionIDType:      "type",
		SectionIDImport:    "import",
		SectionIDFunction:  "function",
		SectionIDTable:     "table",
		SectionIDMemory:    "memory",
		SectionIDGlobal:    "global",
		SectionIDExport:    "export",
		SectionIDStart:     "start",
		SectionIDElement:   "element",
		SectionIDCode:      "code",
		SectionIDData:      "data",
		SectionIDDataCount: "data count",
	}[s]
	if !ok {
		return "unknown"
	}
	return n
}

// MaxFunctionLocals bounds the number of locals a single function body may declare.
const MaxFunctionLocals = 50000

type sectionsReader struct {
	m *Module
}

func newSectionsReader(m *Module) *sectionsReader {
	return &sectionsReader{m: m}
}

func (s *sectionsReader) readSections(r byteReader) error {
	for {
		done, err := s.readSection(r)
		switch {
		case err != nil:
			return err
		case done:
			return nil
		}
	}
}

// reads a section from r. The first return value is true if and only if the module has been
// completely read, either because the input is exhausted or because it ends mid-section.
func (sr *sectionsReader) readSection(r byteReader) (bool, error) {
	b, err := r.ReadByte()
	if err == io.EOF {
		return true, nil
	} else if err != nil {
		return false, err
	}
	id := SectionID(b)

	read, ok := sectionReaders[id]
	if !ok {
		return false, InvalidSectionIDError(id)
	}

	size, err := leb128.ReadVarUint32(r)
	if err != nil {
		if isEOF(err) {
			logTruncated(id, err)
			return true, nil
		}
		return false, err
	}

	payload, err := readBytes(r, size)
	if err != nil {
		if isEOF(err) {
			logTruncated(id, err)
			return true, nil
		}
		return false, err
	}

	Logger().Debug("reading section", zap.Stringer("id", id), zap.Uint32("size", size))
	if err := read(sr.m, bytes.NewReader(payload)); err != nil {
		if isEOF(err) {
			logTruncated(id, err)
			return true, nil
		}
		return false, fmt.Errorf("%v section: %w", id, err)
	}
	return false, nil
}

var sectionReaders = map[SectionID]func(m *Module, r *bytes.Reader) error{
	SectionIDCustom:    (*Module).readCustomSection,
	SectionIDType:      (*Module).readTypeSection,
	SectionIDImport:    (*Module).readImportSection,
	SectionIDFunction:  (*Module).readFunctionSection,
	SectionIDTable:     (*Module).readTableSection,
	SectionIDMemory:    (*Module).readMemorySection,
	SectionIDGlobal:    (*Module).readGlobalSection,
	SectionIDExport:    (*Module).readExportSection,
	SectionIDStart:     (*Module).readStartSection,
	SectionIDElement:   (*Module).readElementSection,
	SectionIDCode:      (*Module).readCodeSection,
	SectionIDData:      (*Module).readDataSection,
	SectionIDDataCount: (*Module).readDataCountSection,
}

// readVector reads a vector length followed by that many elements.
func readVector(r io.Reader, read func(i uint32) error) error {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	for i := uint32(0); i < count; i++ {
		if err := read(i); err != nil {
			return err
		}
	}
	return nil
}

func readIndices(r io.Reader) ([]uint32, error) {
	var indices []uint32
	err := readVector(r, func(uint32) error {
		idx, err := leb128.ReadVarUint32(r)
		if err != nil {
			return err
		}
		indices = append(indices, idx)
		return nil
	})
	return indices, err
}

func (m *Module) readCustomSection(r *bytes.Reader) error {
	name, err := readName(r)
	if err != nil {
		return err
	}
	data, err := readBytes(r, uint32(r.Len()))
	if err != nil {
		return err
	}
	Logger().Debug("skipping custom section", zap.String("name", name))
	m.Customs = append(m.Customs, CustomSection{Name: name, Data: data})
	return nil
}

func (m *Module) readTypeSection(r *bytes.Reader) error {
	m.Types = nil
	return readVector(r, func(uint32) error {
		var t FuncType
		if err := t.UnmarshalWASM(r); err != nil {
			return err
		}
		m.Types = append(m.Types, t)
		return nil
	})
}

func (m *Module) readImportSection(r *bytes.Reader) error {
	m.Imports = nil
	return readVector(r, func(uint32) error {
		var imp Import
		if err := imp.UnmarshalWASM(r); err != nil {
			return err
		}
		m.Imports = append(m.Imports, imp)
		return nil
	})
}

func (m *Module) readFunctionSection(r *bytes.Reader) error {
	types, err := readIndices(r)
	if err != nil {
		return err
	}
	m.Functions = types
	return nil
}

func (m *Module) readTableSection(r *bytes.Reader) error {
	m.Tables = nil
	return readVector(r, func(uint32) error {
		var t TableType
		if err := t.UnmarshalWASM(r); err != nil {
			return err
		}
		m.Tables = append(m.Tables, t)
		return nil
	})
}

func (m *Module) readMemorySection(r *bytes.Reader) error {
	m.Memories = nil
	return readVector(r, func(uint32) error {
		var mem MemoryType
		if err := mem.UnmarshalWASM(r); err != nil {
			return err
		}
		m.Memories = append(m.Memories, mem)
		return nil
	})
}

// readConstExpr reads a single instruction followed by end. Any malformation is reported as errKind.
func readConstExpr(r io.Reader, errKind error, valid ...Opcode) (Instruction, error) {
	instr, err := DecodeInstruction(r)
	if err != nil {
		if isEOF(err) {
			return Instruction{}, ErrUnexpectedEOF
		}
		return Instruction{}, errKind
	}

	found := false
	for _, op := range valid {
		found = found || instr.Opcode == op
	}
	if !found {
		return Instruction{}, errKind
	}

	end, err := readByte(r)
	if err != nil {
		return Instruction{}, ErrUnexpectedEOF
	}
	if Opcode(end) != OpEnd {
		return Instruction{}, errKind
	}
	return instr, nil
}

func readOffsetExpr(r io.Reader) (Instruction, error) {
	return readConstExpr(r, ErrExpectedConstExpression, OpI32Const)
}

func (m *Module) readGlobalSection(r *bytes.Reader) error {
	m.Globals = nil
	return readVector(r, func(uint32) error {
		var g Global
		if err := g.Type.UnmarshalWASM(r); err != nil {
			return err
		}
		init, err := readConstExpr(r, ErrInvalidGlobalInitExpr, OpI32Const, OpI64Const, OpF32Const, OpF64Const)
		if err != nil {
			return err
		}
		g.Init = init
		m.Globals = append(m.Globals, g)
		return nil
	})
}

func (m *Module) readExportSection(r *bytes.Reader) error {
	m.Exports = nil
	return readVector(r, func(uint32) error {
		var e Export
		if err := e.UnmarshalWASM(r); err != nil {
			return err
		}
		m.Exports = append(m.Exports, e)
		return nil
	})
}

func (m *Module) readStartSection(r *bytes.Reader) error {
	idx, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	m.Start = &idx
	return nil
}

func readElemKind(r io.Reader) error {
	kind, err := readByte(r)
	if err != nil {
		return err
	}
	if kind != 0x00 {
		return InvalidElemKindError(kind)
	}
	return nil
}

func readElementSegment(r io.Reader) (ElementSegment, error) {
	var seg ElementSegment

	prefix, err := leb128.ReadVarUint32(r)
	if err != nil {
		return seg, err
	}

	switch prefix {
	case 0:
		seg.Mode = SegmentActive
		if seg.Offset, err = readOffsetExpr(r); err != nil {
			return seg, err
		}
	case 1:
		seg.Mode = SegmentPassive
		if err = readElemKind(r); err != nil {
			return seg, err
		}
	case 2:
		seg.Mode = SegmentActive
		if seg.Table, err = leb128.ReadVarUint32(r); err != nil {
			return seg, err
		}
		if seg.Offset, err = readOffsetExpr(r); err != nil {
			return seg, err
		}
		if err = readElemKind(r); err != nil {
			return seg, err
		}
	case 3:
		seg.Mode = SegmentDeclarative
		if err = readElemKind(r); err != nil {
			return seg, err
		}
	default:
		// Prefixes 4-7 carry expression vectors, which are not supported.
		return seg, UnsupportedElementPrefixError(prefix)
	}

	seg.Init, err = readIndices(r)
	return seg, err
}

func (m *Module) readElementSection(r *bytes.Reader) error {
	m.Elements = nil
	return readVector(r, func(uint32) error {
		seg, err := readElementSegment(r)
		if err != nil {
			return err
		}
		m.Elements = append(m.Elements, seg)
		return nil
	})
}

func readFuncBody(r io.Reader) (FuncBody, error) {
	var body FuncBody

	size, err := leb128.ReadVarUint32(r)
	if err != nil {
		return body, err
	}
	raw, err := readBytes(r, size)
	if err != nil {
		return body, err
	}
	br := bytes.NewReader(raw)

	var total uint64
	err = readVector(br, func(uint32) error {
		n, err := leb128.ReadVarUint32(br)
		if err != nil {
			return err
		}
		t, err := readValueType(br)
		if err != nil {
			return err
		}
		if total += uint64(n); total > MaxFunctionLocals {
			return TooManyLocalsError(total)
		}
		for i := uint32(0); i < n; i++ {
			body.Locals = append(body.Locals, t)
		}
		return nil
	})
	if err != nil {
		return body, err
	}

	body.Code, err = DecodeCode(br)
	return body, err
}

func (m *Module) readCodeSection(r *bytes.Reader) error {
	m.Code = nil
	return readVector(r, func(i uint32) error {
		body, err := readFuncBody(r)
		if err != nil {
			if isEOF(err) {
				return err
			}
			return fmt.Errorf("function body %d: %w", i, err)
		}
		m.Code = append(m.Code, body)
		return nil
	})
}

func (m *Module) readDataSection(r *bytes.Reader) error {
	m.Data = nil
	return readVector(r, func(uint32) error {
		var seg DataSegment

		prefix, err := leb128.ReadVarUint32(r)
		if err != nil {
			return err
		}
		switch prefix {
		case 0:
			seg.Mode = SegmentActive
			if seg.Offset, err = readOffsetExpr(r); err != nil {
				return err
			}
		case 1:
			seg.Mode = SegmentPassive
		case 2:
			seg.Mode = SegmentActive
			if seg.Memory, err = leb128.ReadVarUint32(r); err != nil {
				return err
			}
			if seg.Offset, err = readOffsetExpr(r); err != nil {
				return err
			}
		default:
			return UnsupportedDataPrefixError(prefix)
		}

		n, err := leb128.ReadVarUint32(r)
		if err != nil {
			return err
		}
		if seg.Init, err = readBytes(r, n); err != nil {
			return err
		}
		m.Data = append(m.Data, seg)
		return nil
	})
}

func (m *Module) readDataCountSection(r *bytes.Reader) error {
	n, err := leb128.ReadVarUint32(r)
	if err != nil {
		return err
	}
	m.DataCount = &n
	return nil
}
