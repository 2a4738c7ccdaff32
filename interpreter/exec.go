package interpreter

import (
	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/wasm"
)

// step executes one instruction of the frame. Instructions that do not transfer control advance the
// frame's pc.
func (r *Runtime) step(f *frame, instr *wasm.Instruction) error {
	switch instr.Opcode {
	case wasm.OpUnreachable:
		return exec.TrapUnreachable
	case wasm.OpNop:

	case wasm.OpBlock:
		if _, _, err := r.enterBlock(f, labelBlock, instr.BlockType()); err != nil {
			return err
		}
	case wasm.OpLoop:
		if _, _, err := r.enterBlock(f, labelLoop, instr.BlockType()); err != nil {
			return err
		}
	case wasm.OpIf:
		cond, err := r.pop()
		if err != nil {
			return err
		}
		if cond.Type != wasm.ValueTypeI32 {
			return exec.ErrIfConditionNotI32
		}
		_, els, err := r.enterBlock(f, labelIf, instr.BlockType())
		if err != nil {
			return err
		}
		if cond.U32() == 0 {
			if els < 0 {
				// No else arm: the empty arm leaves the parameters as the results.
				return r.exitLabel(f)
			}
			f.pc = els + 1
			return nil
		}
	case wasm.OpElse:
		// Reached the end of the then arm.
		if len(f.labels) == 0 {
			return exec.ExpectedLabelError(0)
		}
		return r.exitLabel(f)
	case wasm.OpEnd:
		if len(f.labels) == 0 {
			return r.ret()
		}
		return r.exitLabel(f)

	case wasm.OpBr:
		return r.branch(f, instr.Labelidx())
	case wasm.OpBrIf:
		cond, err := r.popI32()
		if err != nil {
			return err
		}
		if cond != 0 {
			return r.branch(f, instr.Labelidx())
		}
	case wasm.OpBrTable:
		idx, err := r.popI32()
		if err != nil {
			return err
		}
		target := instr.Default()
		if idx < uint32(len(instr.Labels)) {
			target = instr.Labels[idx]
		}
		return r.branch(f, target)
	case wasm.OpReturn:
		return r.ret()

	case wasm.OpCall:
		callee, err := r.store.Func(instr.Funcidx())
		if err != nil {
			return err
		}
		f.pc++
		return r.invoke(callee)
	case wasm.OpCallIndirect:
		return r.callIndirect(f, instr)

	case wasm.OpDrop:
		if _, err := r.pop(); err != nil {
			return err
		}
	case wasm.OpSelect, wasm.OpSelectT:
		if err := r.selectValue(instr); err != nil {
			return err
		}

	case wasm.OpLocalGet:
		idx := instr.Localidx()
		if idx >= uint32(len(f.locals)) {
			return exec.LocalNotFoundError(idx)
		}
		r.push(f.locals[idx])
	case wasm.OpLocalSet, wasm.OpLocalTee:
		idx := instr.Localidx()
		if idx >= uint32(len(f.locals)) {
			return exec.LocalNotFoundError(idx)
		}
		v, err := r.popType(f.locals[idx].Type)
		if err != nil {
			return err
		}
		f.locals[idx] = v
		if instr.Opcode == wasm.OpLocalTee {
			r.push(v)
		}
	case wasm.OpGlobalGet:
		g, err := r.store.Global(instr.Globalidx())
		if err != nil {
			return err
		}
		r.push(g.Get())
	case wasm.OpGlobalSet:
		g, err := r.store.Global(instr.Globalidx())
		if err != nil {
			return err
		}
		v, err := r.pop()
		if err != nil {
			return err
		}
		if err := g.Set(v); err != nil {
			return err
		}

	case wasm.OpTableGet, wasm.OpTableSet, wasm.OpTableSize, wasm.OpTableGrow, wasm.OpTableFill,
		wasm.OpTableCopy, wasm.OpTableInit, wasm.OpElemDrop:
		if err := r.tableOp(instr); err != nil {
			return err
		}

	case wasm.OpRefNull:
		r.push(exec.NullRef(instr.RefType()))
	case wasm.OpRefIsNull:
		v, err := r.popRef()
		if err != nil {
			return err
		}
		r.push(exec.Bool(v.IsNull()))
	case wasm.OpRefFunc:
		if _, err := r.store.Func(instr.Funcidx()); err != nil {
			return err
		}
		r.push(exec.FuncRef(instr.Funcidx()))

	case wasm.OpI32Const:
		r.push(exec.I32(instr.I32()))
	case wasm.OpI64Const:
		r.push(exec.I64(instr.I64()))
	case wasm.OpF32Const:
		r.push(exec.ValFromBits(wasm.ValueTypeF32, instr.Immediate))
	case wasm.OpF64Const:
		r.push(exec.ValFromBits(wasm.ValueTypeF64, instr.Immediate))

	default:
		switch {
		case instr.IsLoad():
			if err := r.load(instr); err != nil {
				return err
			}
		case instr.IsStore():
			if err := r.storeValue(instr); err != nil {
				return err
			}
		case instr.Opcode == wasm.OpMemorySize, instr.Opcode == wasm.OpMemoryGrow, instr.Opcode == wasm.OpMemoryInit,
			instr.Opcode == wasm.OpDataDrop, instr.Opcode == wasm.OpMemoryCopy, instr.Opcode == wasm.OpMemoryFill:
			if err := r.memoryOp(instr); err != nil {
				return err
			}
		case exec.IsConversion(instr.Opcode):
			if err := r.convert(instr.Opcode); err != nil {
				return err
			}
		default:
			if op, ok := binaryOps[instr.Opcode]; ok {
				if err := r.binary(op); err != nil {
					return err
				}
				break
			}
			if op, ok := unaryOps[instr.Opcode]; ok {
				if err := r.unary(op); err != nil {
					return err
				}
				break
			}
			return exec.UnsupportedOpcodeError(instr.Opcode)
		}
	}

	f.pc++
	return nil
}

func (r *Runtime) callIndirect(f *frame, instr *wasm.Instruction) error {
	typ, err := r.store.Type(instr.Typeidx())
	if err != nil {
		return err
	}
	table, err := r.store.Table(instr.Tableidx())
	if err != nil {
		return err
	}
	idx, err := r.popI32()
	if err != nil {
		return err
	}

	ref := table.Get(idx)
	addr, ok := ref.RefAddr()
	if !ok {
		return exec.TrapUninitializedElement
	}
	callee, err := r.store.Func(addr)
	if err != nil {
		return err
	}
	if !callee.FuncType().Equals(typ) {
		return exec.TrapIndirectCallTypeMismatch
	}

	f.pc++
	return r.invoke(callee)
}

func (r *Runtime) selectValue(instr *wasm.Instruction) error {
	cond, err := r.popI32()
	if err != nil {
		return err
	}
	b, err := r.pop()
	if err != nil {
		return err
	}
	a, err := r.pop()
	if err != nil {
		return err
	}
	if a.Type != b.Type {
		return &exec.TypeMismatchError{Expected: a.Type, Actual: b.Type}
	}
	if instr.Opcode == wasm.OpSelectT {
		if types := instr.SelectTypes(); len(types) == 1 && types[0] != a.Type {
			return &exec.TypeMismatchError{Expected: types[0], Actual: a.Type}
		}
	}
	if cond != 0 {
		r.push(a)
	} else {
		r.push(b)
	}
	return nil
}

func (r *Runtime) tableOp(instr *wasm.Instruction) error {
	if instr.Opcode == wasm.OpElemDrop {
		return r.store.DropElem(instr.Elemidx())
	}
	if instr.Opcode == wasm.OpTableCopy {
		d, s := instr.TableCopyOperands()
		dst, err := r.store.Table(d)
		if err != nil {
			return err
		}
		src, err := r.store.Table(s)
		if err != nil {
			return err
		}
		n, srcOff, dstOff, err := r.pop3()
		if err != nil {
			return err
		}
		dst.Copy(src, dstOff, srcOff, n)
		return nil
	}

	table, err := r.store.Table(instr.Tableidx())
	if err != nil {
		return err
	}

	switch instr.Opcode {
	case wasm.OpTableGet:
		i, err := r.popI32()
		if err != nil {
			return err
		}
		r.push(table.Get(i))
	case wasm.OpTableSet:
		v, err := r.popType(table.Type.ElemType)
		if err != nil {
			return err
		}
		i, err := r.popI32()
		if err != nil {
			return err
		}
		table.Set(i, v)
	case wasm.OpTableSize:
		r.push(exec.I32(int32(table.Size())))
	case wasm.OpTableGrow:
		n, err := r.popI32()
		if err != nil {
			return err
		}
		init, err := r.popType(table.Type.ElemType)
		if err != nil {
			return err
		}
		r.push(exec.I32(table.Grow(n, init)))
	case wasm.OpTableFill:
		n, err := r.popI32()
		if err != nil {
			return err
		}
		v, err := r.popType(table.Type.ElemType)
		if err != nil {
			return err
		}
		i, err := r.popI32()
		if err != nil {
			return err
		}
		table.Fill(i, v, n)
	case wasm.OpTableInit:
		elem, err := r.store.ElemSegment(instr.Elemidx())
		if err != nil {
			return err
		}
		n, s, d, err := r.pop3()
		if err != nil {
			return err
		}
		table.Init(elem, d, s, n)
	}
	return nil
}

// pop3 pops three i32 operands, returning them top first.
func (r *Runtime) pop3() (a, b, c uint32, err error) {
	if a, err = r.popI32(); err != nil {
		return
	}
	if b, err = r.popI32(); err != nil {
		return
	}
	c, err = r.popI32()
	return
}

func (r *Runtime) memory() (*exec.MemInst, error) {
	return r.store.Memory(0)
}

func (r *Runtime) memoryOp(instr *wasm.Instruction) error {
	if instr.Opcode == wasm.OpDataDrop {
		return r.store.DropData(instr.Dataidx())
	}

	mem, err := r.memory()
	if err != nil {
		return err
	}

	switch instr.Opcode {
	case wasm.OpMemorySize:
		r.push(exec.I32(int32(mem.Size())))
	case wasm.OpMemoryGrow:
		n, err := r.popI32()
		if err != nil {
			return err
		}
		old, err := mem.Grow(n)
		if err != nil {
			Logger().Debug("memory.grow failed")
			r.push(exec.I32(-1))
			return nil
		}
		r.push(exec.I32(int32(old)))
	case wasm.OpMemoryInit:
		data, err := r.store.DataSegment(instr.Dataidx())
		if err != nil {
			return err
		}
		n, s, d, err := r.pop3()
		if err != nil {
			return err
		}
		mem.Init(data, d, s, n)
	case wasm.OpMemoryCopy:
		n, s, d, err := r.pop3()
		if err != nil {
			return err
		}
		mem.Copy(d, s, n)
	case wasm.OpMemoryFill:
		n, v, d, err := r.pop3()
		if err != nil {
			return err
		}
		mem.Fill(d, byte(v), n)
	}
	return nil
}

func (r *Runtime) load(instr *wasm.Instruction) error {
	mem, err := r.memory()
	if err != nil {
		return err
	}
	base, err := r.popI32()
	if err != nil {
		return err
	}

	off := instr.MemArg().Offset
	var v exec.Val
	switch instr.Opcode {
	case wasm.OpI32Load:
		v = exec.I32(int32(mem.Uint32(base, off)))
	case wasm.OpI64Load:
		v = exec.I64(int64(mem.Uint64(base, off)))
	case wasm.OpF32Load:
		v = exec.ValFromBits(wasm.ValueTypeF32, uint64(mem.Uint32(base, off)))
	case wasm.OpF64Load:
		v = exec.ValFromBits(wasm.ValueTypeF64, mem.Uint64(base, off))
	case wasm.OpI32Load8S:
		v = exec.I32(int32(int8(mem.Uint8(base, off))))
	case wasm.OpI32Load8U:
		v = exec.I32(int32(mem.Uint8(base, off)))
	case wasm.OpI32Load16S:
		v = exec.I32(int32(int16(mem.Uint16(base, off))))
	case wasm.OpI32Load16U:
		v = exec.I32(int32(mem.Uint16(base, off)))
	case wasm.OpI64Load8S:
		v = exec.I64(int64(int8(mem.Uint8(base, off))))
	case wasm.OpI64Load8U:
		v = exec.I64(int64(mem.Uint8(base, off)))
	case wasm.OpI64Load16S:
		v = exec.I64(int64(int16(mem.Uint16(base, off))))
	case wasm.OpI64Load16U:
		v = exec.I64(int64(mem.Uint16(base, off)))
	case wasm.OpI64Load32S:
		v = exec.I64(int64(int32(mem.Uint32(base, off))))
	case wasm.OpI64Load32U:
		v = exec.I64(int64(mem.Uint32(base, off)))
	default:
		return exec.UnsupportedOpcodeError(instr.Opcode)
	}
	r.push(v)
	return nil
}

func (r *Runtime) storeValue(instr *wasm.Instruction) error {
	mem, err := r.memory()
	if err != nil {
		return err
	}

	var typ wasm.ValueType
	switch instr.Opcode {
	case wasm.OpI32Store, wasm.OpI32Store8, wasm.OpI32Store16:
		typ = wasm.ValueTypeI32
	case wasm.OpI64Store, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
		typ = wasm.ValueTypeI64
	case wasm.OpF32Store:
		typ = wasm.ValueTypeF32
	case wasm.OpF64Store:
		typ = wasm.ValueTypeF64
	default:
		return exec.UnsupportedOpcodeError(instr.Opcode)
	}

	v, err := r.popType(typ)
	if err != nil {
		return err
	}
	base, err := r.popI32()
	if err != nil {
		return err
	}

	off := instr.MemArg().Offset
	switch instr.Opcode {
	case wasm.OpI32Store, wasm.OpF32Store:
		mem.PutUint32(uint32(v.Bits()), base, off)
	case wasm.OpI64Store, wasm.OpF64Store:
		mem.PutUint64(v.Bits(), base, off)
	case wasm.OpI32Store8, wasm.OpI64Store8:
		mem.PutUint8(uint8(v.Bits()), base, off)
	case wasm.OpI32Store16, wasm.OpI64Store16:
		mem.PutUint16(uint16(v.Bits()), base, off)
	case wasm.OpI64Store32:
		mem.PutUint32(uint32(v.Bits()), base, off)
	}
	return nil
}
