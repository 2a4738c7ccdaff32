// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"bytes"
	"io"

	"github.com/wasmarch/wasmarch/wasm/leb128"
)

// Encode writes the module in the binary format. Empty sections are omitted.
func (m *Module) Encode(w io.Writer) error {
	if err := writeU32(w, Magic); err != nil {
		return err
	}
	if err := writeU32(w, Version); err != nil {
		return err
	}

	sections := []struct {
		id      SectionID
		present bool
		write   func(w io.Writer) error
	}{
		{SectionIDType, len(m.Types) != 0, m.writeTypeSection},
		{SectionIDImport, len(m.Imports) != 0, m.writeImportSection},
		{SectionIDFunction, len(m.Functions) != 0, m.writeFunctionSection},
		{SectionIDTable, len(m.Tables) != 0, m.writeTableSection},
		{SectionIDMemory, len(m.Memories) != 0, m.writeMemorySection},
		{SectionIDGlobal, len(m.Globals) != 0, m.writeGlobalSection},
		{SectionIDExport, len(m.Exports) != 0, m.writeExportSection},
		{SectionIDStart, m.Start != nil, m.writeStartSection},
		{SectionIDElement, len(m.Elements) != 0, m.writeElementSection},
		{SectionIDDataCount, m.DataCount != nil, m.writeDataCountSection},
		{SectionIDCode, len(m.Code) != 0, m.writeCodeSection},
		{SectionIDData, len(m.Data) != 0, m.writeDataSection},
	}
	for _, s := range sections {
		if !s.present {
			continue
		}
		if err := writeSection(w, s.id, s.write); err != nil {
			return err
		}
	}

	for i := range m.Customs {
		c := &m.Customs[i]
		err := writeSection(w, SectionIDCustom, func(w io.Writer) error {
			if err := writeName(w, c.Name); err != nil {
				return err
			}
			_, err := w.Write(c.Data)
			return err
		})
		if err != nil {
			return err
		}
	}
	return nil
}

// EncodeBytes returns the binary encoding of the module.
func (m *Module) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := m.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// writeSection writes a section header followed by its payload. The payload is buffered so that its
// size can be written first.
func writeSection(w io.Writer, id SectionID, write func(w io.Writer) error) error {
	var payload bytes.Buffer
	if err := write(&payload); err != nil {
		return err
	}
	if err := writeByte(w, byte(id)); err != nil {
		return err
	}
	if _, err := leb128.WriteVarUint32(w, uint32(payload.Len())); err != nil {
		return err
	}
	_, err := w.Write(payload.Bytes())
	return err
}

func writeVector(w io.Writer, n int, write func(i int) error) error {
	if _, err := leb128.WriteVarUint32(w, uint32(n)); err != nil {
		return err
	}
	for i := 0; i < n; i++ {
		if err := write(i); err != nil {
			return err
		}
	}
	return nil
}

func writeIndices(w io.Writer, indices []uint32) error {
	return writeVector(w, len(indices), func(i int) error {
		_, err := leb128.WriteVarUint32(w, indices[i])
		return err
	})
}

func writeConstExpr(w io.Writer, instr Instruction) error {
	if err := EncodeInstruction(w, &instr); err != nil {
		return err
	}
	return writeByte(w, byte(OpEnd))
}

func (m *Module) writeTypeSection(w io.Writer) error {
	return writeVector(w, len(m.Types), func(i int) error { return m.Types[i].MarshalWASM(w) })
}

func (m *Module) writeImportSection(w io.Writer) error {
	return writeVector(w, len(m.Imports), func(i int) error { return m.Imports[i].MarshalWASM(w) })
}

func (m *Module) writeFunctionSection(w io.Writer) error {
	return writeIndices(w, m.Functions)
}

func (m *Module) writeTableSection(w io.Writer) error {
	return writeVector(w, len(m.Tables), func(i int) error { return m.Tables[i].MarshalWASM(w) })
}

func (m *Module) writeMemorySection(w io.Writer) error {
	return writeVector(w, len(m.Memories), func(i int) error { return m.Memories[i].MarshalWASM(w) })
}

func (m *Module) writeGlobalSection(w io.Writer) error {
	return writeVector(w, len(m.Globals), func(i int) error {
		if err := m.Globals[i].Type.MarshalWASM(w); err != nil {
			return err
		}
		return writeConstExpr(w, m.Globals[i].Init)
	})
}

func (m *Module) writeExportSection(w io.Writer) error {
	return writeVector(w, len(m.Exports), func(i int) error { return m.Exports[i].MarshalWASM(w) })
}

func (m *Module) writeStartSection(w io.Writer) error {
	_, err := leb128.WriteVarUint32(w, *m.Start)
	return err
}

func (m *Module) writeElementSection(w io.Writer) error {
	return writeVector(w, len(m.Elements), func(i int) error {
		seg := &m.Elements[i]

		var err error
		switch {
		case seg.Mode == SegmentActive && seg.Table == 0:
			if _, err = leb128.WriteVarUint32(w, 0); err != nil {
				return err
			}
			err = writeConstExpr(w, seg.Offset)
		case seg.Mode == SegmentActive:
			if _, err = leb128.WriteVarUint32(w, 2); err != nil {
				return err
			}
			if _, err = leb128.WriteVarUint32(w, seg.Table); err != nil {
				return err
			}
			if err = writeConstExpr(w, seg.Offset); err != nil {
				return err
			}
			err = writeByte(w, 0x00)
		case seg.Mode == SegmentPassive:
			_, err = w.Write([]byte{0x01, 0x00})
		default:
			_, err = w.Write([]byte{0x03, 0x00})
		}
		if err != nil {
			return err
		}
		return writeIndices(w, seg.Init)
	})
}

func (m *Module) writeDataCountSection(w io.Writer) error {
	_, err := leb128.WriteVarUint32(w, *m.DataCount)
	return err
}

func writeFuncBody(w io.Writer, body *FuncBody) error {
	var buf bytes.Buffer

	// Runs of identically-typed locals are encoded as a single group.
	type group struct {
		n uint32
		t ValueType
	}
	var groups []group
	for _, t := range body.Locals {
		if len(groups) != 0 && groups[len(groups)-1].t == t {
			groups[len(groups)-1].n++
		} else {
			groups = append(groups, group{n: 1, t: t})
		}
	}
	err := writeVector(&buf, len(groups), func(i int) error {
		if _, err := leb128.WriteVarUint32(&buf, groups[i].n); err != nil {
			return err
		}
		return writeByte(&buf, byte(groups[i].t))
	})
	if err != nil {
		return err
	}
	if err := EncodeCode(&buf, body.Code); err != nil {
		return err
	}

	if _, err := leb128.WriteVarUint32(w, uint32(buf.Len())); err != nil {
		return err
	}
	_, err = w.Write(buf.Bytes())
	return err
}

func (m *Module) writeCodeSection(w io.Writer) error {
	return writeVector(w, len(m.Code), func(i int) error { return writeFuncBody(w, &m.Code[i]) })
}

func (m *Module) writeDataSection(w io.Writer) error {
	return writeVector(w, len(m.Data), func(i int) error {
		seg := &m.Data[i]

		switch {
		case seg.Mode == SegmentPassive:
			if err := writeByte(w, 0x01); err != nil {
				return err
			}
		case seg.Memory == 0:
			if err := writeByte(w, 0x00); err != nil {
				return err
			}
			if err := writeConstExpr(w, seg.Offset); err != nil {
				return err
			}
		default:
			if err := writeByte(w, 0x02); err != nil {
				return err
			}
			if _, err := leb128.WriteVarUint32(w, seg.Memory); err != nil {
				return err
			}
			if err := writeConstExpr(w, seg.Offset); err != nil {
				return err
			}
		}

		if _, err := leb128.WriteVarUint32(w, uint32(len(seg.Init))); err != nil {
			return err
		}
		_, err := w.Write(seg.Init)
		return err
	})
}
