// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"fmt"
	"math"
	"strings"
)

// Instruction is a single decoded instruction. Function bodies are flat sequences of instructions:
// the extent of a block is found by scanning for its matching end, not by nesting.
//
// The meaning of Immediate depends on the opcode:
//   - block, loop, if: the BlockType
//   - br, br_if: the label index; br_table: the default label, with the remaining targets in Labels
//   - call, ref.func: the function index; call_indirect: type index | table index << 32
//   - local.*, global.*: the variable index; table.get/set/grow/size/fill: the table index
//   - loads and stores: offset | align << 32
//   - memory.init, data.drop: the data index; elem.drop: the element index
//   - table.init: element index | table index << 32; table.copy: destination | source << 32
//   - ref.null: the reference type
//   - constants: the value's bits
//
// Typed select stores its result types in Labels.
type Instruction struct {
	Opcode    Opcode   `json:"opcode"`
	Immediate uint64   `json:"immediate,omitempty"`
	Labels    []uint32 `json:"labels,omitempty"`
}

// MemArg is the immediate of a load or store. Align is the log2 of the access alignment.
type MemArg struct {
	Align  uint32 `json:"align"`
	Offset uint32 `json:"offset"`
}

func (i *Instruction) BlockType() BlockType {
	return BlockType(i.Immediate)
}

func (i *Instruction) Labelidx() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Default() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Funcidx() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Localidx() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Globalidx() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Typeidx() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Tableidx() uint32 {
	switch i.Opcode {
	case OpCallIndirect, OpTableInit:
		return uint32(i.Immediate >> 32)
	default:
		return uint32(i.Immediate)
	}
}

func (i *Instruction) Dataidx() uint32 {
	return uint32(i.Immediate)
}

func (i *Instruction) Elemidx() uint32 {
	return uint32(i.Immediate)
}

// TableCopyOperands returns the destination and source tables of a table.copy.
func (i *Instruction) TableCopyOperands() (dst, src uint32) {
	return uint32(i.Immediate), uint32(i.Immediate >> 32)
}

func (i *Instruction) RefType() ValueType {
	return ValueType(i.Immediate)
}

func (i *Instruction) MemArg() MemArg {
	return MemArg{Offset: uint32(i.Immediate), Align: uint32(i.Immediate >> 32)}
}

func (i *Instruction) I32() int32 {
	return int32(i.Immediate)
}

func (i *Instruction) I64() int64 {
	return int64(i.Immediate)
}

func (i *Instruction) F32() float32 {
	return math.Float32frombits(uint32(i.Immediate))
}

func (i *Instruction) F64() float64 {
	return math.Float64frombits(i.Immediate)
}

// SelectTypes returns the result types of a typed select.
func (i *Instruction) SelectTypes() []ValueType {
	types := make([]ValueType, len(i.Labels))
	for j, t := range i.Labels {
		types[j] = ValueType(t)
	}
	return types
}

// IsBlock returns true for the instructions that open a structured control scope.
func (i *Instruction) IsBlock() bool {
	return i.Opcode == OpBlock || i.Opcode == OpLoop || i.Opcode == OpIf
}

// IsLoad returns true for the memory load family.
func (i *Instruction) IsLoad() bool {
	return i.Opcode >= OpI32Load && i.Opcode <= OpI64Load32U
}

// IsStore returns true for the memory store family.
func (i *Instruction) IsStore() bool {
	return i.Opcode >= OpI32Store && i.Opcode <= OpI64Store32
}

func (i *Instruction) OpString() string {
	return i.Opcode.String()
}

func (i *Instruction) String() string {
	switch i.Opcode {
	case OpBlock, OpLoop, OpIf:
		if bt := i.BlockType().String(); bt != "" {
			return i.OpString() + " " + bt
		}
		return i.OpString()
	case OpBr, OpBrIf:
		return fmt.Sprintf("%s %d", i.OpString(), i.Labelidx())
	case OpBrTable:
		var b strings.Builder
		b.WriteString("br_table")
		for _, l := range i.Labels {
			fmt.Fprintf(&b, " %d", l)
		}
		fmt.Fprintf(&b, " %d", i.Default())
		return b.String()
	case OpCall, OpRefFunc:
		return fmt.Sprintf("%s %d", i.OpString(), i.Funcidx())
	case OpCallIndirect:
		return fmt.Sprintf("call_indirect %d (type %d)", i.Tableidx(), i.Typeidx())
	case OpSelectT:
		var b strings.Builder
		b.WriteString("select (result")
		for _, t := range i.SelectTypes() {
			b.WriteString(" " + t.String())
		}
		b.WriteString(")")
		return b.String()
	case OpLocalGet, OpLocalSet, OpLocalTee:
		return fmt.Sprintf("%s %d", i.OpString(), i.Localidx())
	case OpGlobalGet, OpGlobalSet:
		return fmt.Sprintf("%s %d", i.OpString(), i.Globalidx())
	case OpTableGet, OpTableSet, OpTableGrow, OpTableSize, OpTableFill:
		return fmt.Sprintf("%s %d", i.OpString(), i.Tableidx())
	case OpTableInit:
		return fmt.Sprintf("table.init %d %d", i.Tableidx(), i.Elemidx())
	case OpTableCopy:
		dst, src := i.TableCopyOperands()
		return fmt.Sprintf("table.copy %d %d", dst, src)
	case OpMemoryInit, OpDataDrop:
		return fmt.Sprintf("%s %d", i.OpString(), i.Dataidx())
	case OpElemDrop:
		return fmt.Sprintf("elem.drop %d", i.Elemidx())
	case OpRefNull:
		if i.RefType() == ValueTypeExternRef {
			return "ref.null extern"
		}
		return "ref.null func"
	case OpI32Const:
		return fmt.Sprintf("i32.const %d", i.I32())
	case OpI64Const:
		return fmt.Sprintf("i64.const %d", i.I64())
	case OpF32Const:
		return fmt.Sprintf("f32.const %g", i.F32())
	case OpF64Const:
		return fmt.Sprintf("f64.const %g", i.F64())
	}

	if i.IsLoad() || i.IsStore() {
		var b strings.Builder
		b.WriteString(i.OpString())
		arg := i.MemArg()
		if arg.Offset != 0 {
			fmt.Fprintf(&b, " offset=%d", arg.Offset)
		}
		if arg.Align != 0 {
			fmt.Fprintf(&b, " align=%d", uint32(1)<<arg.Align)
		}
		return b.String()
	}
	return i.OpString()
}
