// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"io"

	"github.com/wasmarch/wasmarch/wasm/leb128"
)

// DecodeCode decodes a flat instruction sequence. Decoding stops without error when r is exhausted at
// an instruction boundary.
func DecodeCode(r io.Reader) ([]Instruction, error) {
	var code []Instruction
	for {
		instr, err := DecodeInstruction(r)
		switch {
		case err == io.EOF:
			return code, nil
		case err != nil:
			return nil, err
		}
		code = append(code, instr)
	}
}

// DecodeInstruction decodes a single instruction. It returns io.EOF if r is empty.
func DecodeInstruction(r io.Reader) (Instruction, error) {
	op, err := readByte(r)
	if err != nil {
		return Instruction{}, err
	}

	instr, err := decodeImmediates(r, op)
	if err != nil {
		if isEOF(err) {
			err = ErrUnexpectedEOF
		}
		return Instruction{}, err
	}
	return instr, nil
}

func readIndex(r io.Reader) (uint64, error) {
	v, err := leb128.ReadVarUint32(r)
	return uint64(v), err
}

func readZeroByte(r io.Reader) error {
	b, err := readByte(r)
	if err != nil {
		return err
	}
	if b != 0 {
		return ErrZeroByteExpected
	}
	return nil
}

func decodeImmediates(r io.Reader, op byte) (Instruction, error) {
	instr := Instruction{Opcode: Opcode(op)}

	var err error
	switch opcode := Opcode(op); opcode {
	case OpBlock, OpLoop, OpIf:
		var bt BlockType
		bt, err = readBlockType(r)
		instr.Immediate = uint64(bt)

	case OpBr, OpBrIf, OpCall, OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet,
		OpTableGet, OpTableSet, OpRefFunc:
		instr.Immediate, err = readIndex(r)

	case OpBrTable:
		var n uint32
		if n, err = leb128.ReadVarUint32(r); err != nil {
			return instr, err
		}
		instr.Labels = make([]uint32, 0, getInitialCap(n))
		for i := uint32(0); i < n; i++ {
			l, err := leb128.ReadVarUint32(r)
			if err != nil {
				return instr, err
			}
			instr.Labels = append(instr.Labels, l)
		}
		instr.Immediate, err = readIndex(r)

	case OpCallIndirect:
		var typeidx, tableidx uint64
		if typeidx, err = readIndex(r); err != nil {
			return instr, err
		}
		if tableidx, err = readIndex(r); err != nil {
			return instr, err
		}
		instr.Immediate = typeidx | tableidx<<32

	case OpSelectT:
		var types []ValueType
		if types, err = readValueTypes(r); err != nil {
			return instr, err
		}
		instr.Labels = make([]uint32, len(types))
		for i, t := range types {
			instr.Labels[i] = uint32(t)
		}

	case OpRefNull:
		var t ValueType
		t, err = readRefType(r)
		instr.Immediate = uint64(t)

	case OpMemorySize, OpMemoryGrow:
		err = readZeroByte(r)

	case OpI32Const:
		var v int32
		v, err = leb128.ReadVarint32(r)
		instr.Immediate = uint64(uint32(v))

	case OpI64Const:
		var v int64
		v, err = leb128.ReadVarint64(r)
		instr.Immediate = uint64(v)

	case OpF32Const:
		var v uint32
		v, err = readU32(r)
		instr.Immediate = uint64(v)

	case OpF64Const:
		instr.Immediate, err = readU64(r)

	case OpPrefix:
		return decodePrefixed(r)

	default:
		if opcode >= OpI32Load && opcode <= OpI64Store32 {
			var align, offset uint32
			if align, err = leb128.ReadVarUint32(r); err != nil {
				return instr, err
			}
			if offset, err = leb128.ReadVarUint32(r); err != nil {
				return instr, err
			}
			instr.Immediate = uint64(align)<<32 | uint64(offset)
			return instr, nil
		}
		if _, ok := opcodeNames[opcode]; !ok {
			return instr, UnsupportedOpcodeError(op)
		}
	}
	return instr, err
}

func decodePrefixed(r io.Reader) (Instruction, error) {
	sub, err := leb128.ReadVarUint32(r)
	if err != nil {
		return Instruction{}, err
	}
	if sub > 0xff {
		return Instruction{}, InvalidSubInstrIDError(sub)
	}

	instr := Instruction{Opcode: OpPrefix<<8 | Opcode(sub)}
	switch instr.Opcode {
	case OpI32TruncSatF32S, OpI32TruncSatF32U, OpI32TruncSatF64S, OpI32TruncSatF64U,
		OpI64TruncSatF32S, OpI64TruncSatF32U, OpI64TruncSatF64S, OpI64TruncSatF64U:
		return instr, nil

	case OpMemoryInit:
		if instr.Immediate, err = readIndex(r); err != nil {
			return instr, err
		}
		return instr, readZeroByte(r)

	case OpDataDrop, OpElemDrop, OpTableGrow, OpTableSize, OpTableFill:
		instr.Immediate, err = readIndex(r)
		return instr, err

	case OpMemoryCopy:
		if err = readZeroByte(r); err != nil {
			return instr, err
		}
		return instr, readZeroByte(r)

	case OpMemoryFill:
		return instr, readZeroByte(r)

	case OpTableInit, OpTableCopy:
		var a, b uint64
		if a, err = readIndex(r); err != nil {
			return instr, err
		}
		if b, err = readIndex(r); err != nil {
			return instr, err
		}
		// table.init is encoded elemidx then tableidx; table.copy is destination then source.
		instr.Immediate = a | b<<32
		return instr, nil

	default:
		return instr, InvalidSubInstrIDError(sub)
	}
}

// EncodeCode encodes a flat instruction sequence.
func EncodeCode(w io.Writer, code []Instruction) error {
	for i := range code {
		if err := EncodeInstruction(w, &code[i]); err != nil {
			return err
		}
	}
	return nil
}

// EncodeInstruction writes the binary encoding of a single instruction.
func EncodeInstruction(w io.Writer, instr *Instruction) error {
	if instr.Opcode.IsPrefixed() {
		return encodePrefixed(w, instr)
	}

	if err := writeByte(w, byte(instr.Opcode)); err != nil {
		return err
	}

	var err error
	switch instr.Opcode {
	case OpBlock, OpLoop, OpIf:
		err = writeBlockType(w, instr.BlockType())
	case OpBr, OpBrIf, OpCall, OpLocalGet, OpLocalSet, OpLocalTee, OpGlobalGet, OpGlobalSet,
		OpTableGet, OpTableSet, OpRefFunc:
		_, err = leb128.WriteVarUint32(w, uint32(instr.Immediate))
	case OpBrTable:
		if _, err = leb128.WriteVarUint32(w, uint32(len(instr.Labels))); err != nil {
			return err
		}
		for _, l := range instr.Labels {
			if _, err = leb128.WriteVarUint32(w, l); err != nil {
				return err
			}
		}
		_, err = leb128.WriteVarUint32(w, instr.Default())
	case OpCallIndirect:
		if _, err = leb128.WriteVarUint32(w, instr.Typeidx()); err != nil {
			return err
		}
		_, err = leb128.WriteVarUint32(w, instr.Tableidx())
	case OpSelectT:
		err = writeValueTypes(w, instr.SelectTypes())
	case OpRefNull:
		err = writeByte(w, byte(instr.RefType()))
	case OpMemorySize, OpMemoryGrow:
		err = writeByte(w, 0x00)
	case OpI32Const:
		_, err = leb128.WriteVarint32(w, instr.I32())
	case OpI64Const:
		_, err = leb128.WriteVarint64(w, instr.I64())
	case OpF32Const:
		err = writeU32(w, uint32(instr.Immediate))
	case OpF64Const:
		err = writeU64(w, instr.Immediate)
	default:
		if instr.IsLoad() || instr.IsStore() {
			arg := instr.MemArg()
			if _, err = leb128.WriteVarUint32(w, arg.Align); err != nil {
				return err
			}
			_, err = leb128.WriteVarUint32(w, arg.Offset)
		}
	}
	return err
}

func encodePrefixed(w io.Writer, instr *Instruction) error {
	if err := writeByte(w, OpPrefix); err != nil {
		return err
	}
	if _, err := leb128.WriteVarUint32(w, instr.Opcode.Subopcode()); err != nil {
		return err
	}

	switch instr.Opcode {
	case OpMemoryInit:
		if _, err := leb128.WriteVarUint32(w, instr.Dataidx()); err != nil {
			return err
		}
		return writeByte(w, 0x00)
	case OpDataDrop, OpElemDrop, OpTableGrow, OpTableSize, OpTableFill:
		_, err := leb128.WriteVarUint32(w, uint32(instr.Immediate))
		return err
	case OpMemoryCopy:
		_, err := w.Write([]byte{0x00, 0x00})
		return err
	case OpMemoryFill:
		return writeByte(w, 0x00)
	case OpTableInit, OpTableCopy:
		if _, err := leb128.WriteVarUint32(w, uint32(instr.Immediate)); err != nil {
			return err
		}
		_, err := leb128.WriteVarUint32(w, uint32(instr.Immediate>>32))
		return err
	default:
		return nil
	}
}
