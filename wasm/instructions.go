// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import "math"

// Op returns an instruction with no immediates.
func Op(opcode Opcode) Instruction {
	return Instruction{Opcode: opcode}
}

func Unreachable() Instruction { return Op(OpUnreachable) }
func Nop() Instruction         { return Op(OpNop) }
func Else() Instruction        { return Op(OpElse) }
func End() Instruction         { return Op(OpEnd) }
func Return() Instruction      { return Op(OpReturn) }
func Drop() Instruction        { return Op(OpDrop) }
func Select() Instruction      { return Op(OpSelect) }
func RefIsNull() Instruction   { return Op(OpRefIsNull) }
func MemorySize() Instruction  { return Op(OpMemorySize) }
func MemoryGrow() Instruction  { return Op(OpMemoryGrow) }
func MemoryCopy() Instruction  { return Op(OpMemoryCopy) }
func MemoryFill() Instruction  { return Op(OpMemoryFill) }

func block(opcode Opcode, blockType []BlockType) Instruction {
	typ := BlockTypeEmpty
	if len(blockType) != 0 {
		typ = blockType[0]
	}
	return Instruction{Opcode: opcode, Immediate: uint64(typ)}
}

func Block(blockType ...BlockType) Instruction {
	return block(OpBlock, blockType)
}

func Loop(blockType ...BlockType) Instruction {
	return block(OpLoop, blockType)
}

func If(blockType ...BlockType) Instruction {
	return block(OpIf, blockType)
}

func Br(labelidx uint32) Instruction {
	return Instruction{Opcode: OpBr, Immediate: uint64(labelidx)}
}

func BrIf(labelidx uint32) Instruction {
	return Instruction{Opcode: OpBrIf, Immediate: uint64(labelidx)}
}

// BrTable returns a br_table that branches to targets[i] for operand i and to def otherwise.
func BrTable(def uint32, targets ...uint32) Instruction {
	return Instruction{Opcode: OpBrTable, Immediate: uint64(def), Labels: append([]uint32{}, targets...)}
}

func Call(funcidx uint32) Instruction {
	return Instruction{Opcode: OpCall, Immediate: uint64(funcidx)}
}

func CallIndirect(typeidx, tableidx uint32) Instruction {
	return Instruction{Opcode: OpCallIndirect, Immediate: uint64(typeidx) | uint64(tableidx)<<32}
}

func SelectT(types ...ValueType) Instruction {
	labels := make([]uint32, len(types))
	for i, t := range types {
		labels[i] = uint32(t)
	}
	return Instruction{Opcode: OpSelectT, Labels: labels}
}

func LocalGet(localidx uint32) Instruction {
	return Instruction{Opcode: OpLocalGet, Immediate: uint64(localidx)}
}

func LocalSet(localidx uint32) Instruction {
	return Instruction{Opcode: OpLocalSet, Immediate: uint64(localidx)}
}

func LocalTee(localidx uint32) Instruction {
	return Instruction{Opcode: OpLocalTee, Immediate: uint64(localidx)}
}

func GlobalGet(globalidx uint32) Instruction {
	return Instruction{Opcode: OpGlobalGet, Immediate: uint64(globalidx)}
}

func GlobalSet(globalidx uint32) Instruction {
	return Instruction{Opcode: OpGlobalSet, Immediate: uint64(globalidx)}
}

func TableGet(tableidx uint32) Instruction {
	return Instruction{Opcode: OpTableGet, Immediate: uint64(tableidx)}
}

func TableSet(tableidx uint32) Instruction {
	return Instruction{Opcode: OpTableSet, Immediate: uint64(tableidx)}
}

// Mem returns a load or store instruction with the given offset and log2 alignment.
func Mem(opcode Opcode, offset, align uint32) Instruction {
	return Instruction{Opcode: opcode, Immediate: uint64(align)<<32 | uint64(offset)}
}

func I32Load(offset uint32) Instruction  { return Mem(OpI32Load, offset, 2) }
func I64Load(offset uint32) Instruction  { return Mem(OpI64Load, offset, 3) }
func F32Load(offset uint32) Instruction  { return Mem(OpF32Load, offset, 2) }
func F64Load(offset uint32) Instruction  { return Mem(OpF64Load, offset, 3) }
func I32Store(offset uint32) Instruction { return Mem(OpI32Store, offset, 2) }
func I64Store(offset uint32) Instruction { return Mem(OpI64Store, offset, 3) }
func F32Store(offset uint32) Instruction { return Mem(OpF32Store, offset, 2) }
func F64Store(offset uint32) Instruction { return Mem(OpF64Store, offset, 3) }

func I32Const(v int32) Instruction {
	return Instruction{Opcode: OpI32Const, Immediate: uint64(uint32(v))}
}

func I64Const(v int64) Instruction {
	return Instruction{Opcode: OpI64Const, Immediate: uint64(v)}
}

func F32Const(v float32) Instruction {
	return Instruction{Opcode: OpF32Const, Immediate: uint64(math.Float32bits(v))}
}

func F64Const(v float64) Instruction {
	return Instruction{Opcode: OpF64Const, Immediate: math.Float64bits(v)}
}

func RefNull(t ValueType) Instruction {
	return Instruction{Opcode: OpRefNull, Immediate: uint64(t)}
}

func RefFunc(funcidx uint32) Instruction {
	return Instruction{Opcode: OpRefFunc, Immediate: uint64(funcidx)}
}

func MemoryInit(dataidx uint32) Instruction {
	return Instruction{Opcode: OpMemoryInit, Immediate: uint64(dataidx)}
}

func DataDrop(dataidx uint32) Instruction {
	return Instruction{Opcode: OpDataDrop, Immediate: uint64(dataidx)}
}

func TableInit(elemidx, tableidx uint32) Instruction {
	return Instruction{Opcode: OpTableInit, Immediate: uint64(elemidx) | uint64(tableidx)<<32}
}

func ElemDrop(elemidx uint32) Instruction {
	return Instruction{Opcode: OpElemDrop, Immediate: uint64(elemidx)}
}

func TableCopy(dst, src uint32) Instruction {
	return Instruction{Opcode: OpTableCopy, Immediate: uint64(dst) | uint64(src)<<32}
}

func TableGrow(tableidx uint32) Instruction {
	return Instruction{Opcode: OpTableGrow, Immediate: uint64(tableidx)}
}

func TableSize(tableidx uint32) Instruction {
	return Instruction{Opcode: OpTableSize, Immediate: uint64(tableidx)}
}

func TableFill(tableidx uint32) Instruction {
	return Instruction{Opcode: OpTableFill, Immediate: uint64(tableidx)}
}
