package interpreter

import (
	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/wasm"
)

type binaryInstr struct {
	op  exec.BinaryOp
	typ wasm.ValueType
}

type unaryInstr struct {
	op  exec.UnaryOp
	typ wasm.ValueType
}

var binaryOps = map[wasm.Opcode]binaryInstr{
	wasm.OpI32Eq:  {exec.OpEq, wasm.ValueTypeI32},
	wasm.OpI32Ne:  {exec.OpNe, wasm.ValueTypeI32},
	wasm.OpI32LtS: {exec.OpLtS, wasm.ValueTypeI32},
	wasm.OpI32LtU: {exec.OpLtU, wasm.ValueTypeI32},
	wasm.OpI32GtS: {exec.OpGtS, wasm.ValueTypeI32},
	wasm.OpI32GtU: {exec.OpGtU, wasm.ValueTypeI32},
	wasm.OpI32LeS: {exec.OpLeS, wasm.ValueTypeI32},
	wasm.OpI32LeU: {exec.OpLeU, wasm.ValueTypeI32},
	wasm.OpI32GeS: {exec.OpGeS, wasm.ValueTypeI32},
	wasm.OpI32GeU: {exec.OpGeU, wasm.ValueTypeI32},

	wasm.OpI64Eq:  {exec.OpEq, wasm.ValueTypeI64},
	wasm.OpI64Ne:  {exec.OpNe, wasm.ValueTypeI64},
	wasm.OpI64LtS: {exec.OpLtS, wasm.ValueTypeI64},
	wasm.OpI64LtU: {exec.OpLtU, wasm.ValueTypeI64},
	wasm.OpI64GtS: {exec.OpGtS, wasm.ValueTypeI64},
	wasm.OpI64GtU: {exec.OpGtU, wasm.ValueTypeI64},
	wasm.OpI64LeS: {exec.OpLeS, wasm.ValueTypeI64},
	wasm.OpI64LeU: {exec.OpLeU, wasm.ValueTypeI64},
	wasm.OpI64GeS: {exec.OpGeS, wasm.ValueTypeI64},
	wasm.OpI64GeU: {exec.OpGeU, wasm.ValueTypeI64},

	wasm.OpF32Eq: {exec.OpEq, wasm.ValueTypeF32},
	wasm.OpF32Ne: {exec.OpNe, wasm.ValueTypeF32},
	wasm.OpF32Lt: {exec.OpLt, wasm.ValueTypeF32},
	wasm.OpF32Gt: {exec.OpGt, wasm.ValueTypeF32},
	wasm.OpF32Le: {exec.OpLe, wasm.ValueTypeF32},
	wasm.OpF32Ge: {exec.OpGe, wasm.ValueTypeF32},

	wasm.OpF64Eq: {exec.OpEq, wasm.ValueTypeF64},
	wasm.OpF64Ne: {exec.OpNe, wasm.ValueTypeF64},
	wasm.OpF64Lt: {exec.OpLt, wasm.ValueTypeF64},
	wasm.OpF64Gt: {exec.OpGt, wasm.ValueTypeF64},
	wasm.OpF64Le: {exec.OpLe, wasm.ValueTypeF64},
	wasm.OpF64Ge: {exec.OpGe, wasm.ValueTypeF64},

	wasm.OpI32Add:  {exec.OpAdd, wasm.ValueTypeI32},
	wasm.OpI32Sub:  {exec.OpSub, wasm.ValueTypeI32},
	wasm.OpI32Mul:  {exec.OpMul, wasm.ValueTypeI32},
	wasm.OpI32DivS: {exec.OpDivS, wasm.ValueTypeI32},
	wasm.OpI32DivU: {exec.OpDivU, wasm.ValueTypeI32},
	wasm.OpI32RemS: {exec.OpRemS, wasm.ValueTypeI32},
	wasm.OpI32RemU: {exec.OpRemU, wasm.ValueTypeI32},
	wasm.OpI32And:  {exec.OpAnd, wasm.ValueTypeI32},
	wasm.OpI32Or:   {exec.OpOr, wasm.ValueTypeI32},
	wasm.OpI32Xor:  {exec.OpXor, wasm.ValueTypeI32},
	wasm.OpI32Shl:  {exec.OpShl, wasm.ValueTypeI32},
	wasm.OpI32ShrS: {exec.OpShrS, wasm.ValueTypeI32},
	wasm.OpI32ShrU: {exec.OpShrU, wasm.ValueTypeI32},
	wasm.OpI32Rotl: {exec.OpRotl, wasm.ValueTypeI32},
	wasm.OpI32Rotr: {exec.OpRotr, wasm.ValueTypeI32},

	wasm.OpI64Add:  {exec.OpAdd, wasm.ValueTypeI64},
	wasm.OpI64Sub:  {exec.OpSub, wasm.ValueTypeI64},
	wasm.OpI64Mul:  {exec.OpMul, wasm.ValueTypeI64},
	wasm.OpI64DivS: {exec.OpDivS, wasm.ValueTypeI64},
	wasm.OpI64DivU: {exec.OpDivU, wasm.ValueTypeI64},
	wasm.OpI64RemS: {exec.OpRemS, wasm.ValueTypeI64},
	wasm.OpI64RemU: {exec.OpRemU, wasm.ValueTypeI64},
	wasm.OpI64And:  {exec.OpAnd, wasm.ValueTypeI64},
	wasm.OpI64Or:   {exec.OpOr, wasm.ValueTypeI64},
	wasm.OpI64Xor:  {exec.OpXor, wasm.ValueTypeI64},
	wasm.OpI64Shl:  {exec.OpShl, wasm.ValueTypeI64},
	wasm.OpI64ShrS: {exec.OpShrS, wasm.ValueTypeI64},
	wasm.OpI64ShrU: {exec.OpShrU, wasm.ValueTypeI64},
	wasm.OpI64Rotl: {exec.OpRotl, wasm.ValueTypeI64},
	wasm.OpI64Rotr: {exec.OpRotr, wasm.ValueTypeI64},

	wasm.OpF32Add:      {exec.OpAdd, wasm.ValueTypeF32},
	wasm.OpF32Sub:      {exec.OpSub, wasm.ValueTypeF32},
	wasm.OpF32Mul:      {exec.OpMul, wasm.ValueTypeF32},
	wasm.OpF32Div:      {exec.OpDiv, wasm.ValueTypeF32},
	wasm.OpF32Min:      {exec.OpMin, wasm.ValueTypeF32},
	wasm.OpF32Max:      {exec.OpMax, wasm.ValueTypeF32},
	wasm.OpF32Copysign: {exec.OpCopysign, wasm.ValueTypeF32},

	wasm.OpF64Add:      {exec.OpAdd, wasm.ValueTypeF64},
	wasm.OpF64Sub:      {exec.OpSub, wasm.ValueTypeF64},
	wasm.OpF64Mul:      {exec.OpMul, wasm.ValueTypeF64},
	wasm.OpF64Div:      {exec.OpDiv, wasm.ValueTypeF64},
	wasm.OpF64Min:      {exec.OpMin, wasm.ValueTypeF64},
	wasm.OpF64Max:      {exec.OpMax, wasm.ValueTypeF64},
	wasm.OpF64Copysign: {exec.OpCopysign, wasm.ValueTypeF64},
}

var unaryOps = map[wasm.Opcode]unaryInstr{
	wasm.OpI32Eqz:    {exec.OpEqz, wasm.ValueTypeI32},
	wasm.OpI32Clz:    {exec.OpClz, wasm.ValueTypeI32},
	wasm.OpI32Ctz:    {exec.OpCtz, wasm.ValueTypeI32},
	wasm.OpI32Popcnt: {exec.OpPopcnt, wasm.ValueTypeI32},

	wasm.OpI64Eqz:    {exec.OpEqz, wasm.ValueTypeI64},
	wasm.OpI64Clz:    {exec.OpClz, wasm.ValueTypeI64},
	wasm.OpI64Ctz:    {exec.OpCtz, wasm.ValueTypeI64},
	wasm.OpI64Popcnt: {exec.OpPopcnt, wasm.ValueTypeI64},

	wasm.OpF32Abs:     {exec.OpAbs, wasm.ValueTypeF32},
	wasm.OpF32Neg:     {exec.OpNeg, wasm.ValueTypeF32},
	wasm.OpF32Ceil:    {exec.OpCeil, wasm.ValueTypeF32},
	wasm.OpF32Floor:   {exec.OpFloor, wasm.ValueTypeF32},
	wasm.OpF32Trunc:   {exec.OpTrunc, wasm.ValueTypeF32},
	wasm.OpF32Nearest: {exec.OpNearest, wasm.ValueTypeF32},
	wasm.OpF32Sqrt:    {exec.OpSqrt, wasm.ValueTypeF32},

	wasm.OpF64Abs:     {exec.OpAbs, wasm.ValueTypeF64},
	wasm.OpF64Neg:     {exec.OpNeg, wasm.ValueTypeF64},
	wasm.OpF64Ceil:    {exec.OpCeil, wasm.ValueTypeF64},
	wasm.OpF64Floor:   {exec.OpFloor, wasm.ValueTypeF64},
	wasm.OpF64Trunc:   {exec.OpTrunc, wasm.ValueTypeF64},
	wasm.OpF64Nearest: {exec.OpNearest, wasm.ValueTypeF64},
	wasm.OpF64Sqrt:    {exec.OpSqrt, wasm.ValueTypeF64},

	wasm.OpI32Extend8S:  {exec.OpExtend8S, wasm.ValueTypeI32},
	wasm.OpI32Extend16S: {exec.OpExtend16S, wasm.ValueTypeI32},
	wasm.OpI64Extend8S:  {exec.OpExtend8S, wasm.ValueTypeI64},
	wasm.OpI64Extend16S: {exec.OpExtend16S, wasm.ValueTypeI64},
	wasm.OpI64Extend32S: {exec.OpExtend32S, wasm.ValueTypeI64},
}

func (r *Runtime) binary(instr binaryInstr) error {
	b, err := r.popType(instr.typ)
	if err != nil {
		return err
	}
	a, err := r.popType(instr.typ)
	if err != nil {
		return err
	}
	v, err := instr.op.Apply(a, b)
	if err != nil {
		return err
	}
	r.push(v)
	return nil
}

func (r *Runtime) unary(instr unaryInstr) error {
	v, err := r.popType(instr.typ)
	if err != nil {
		return err
	}
	v, err = instr.op.Apply(v)
	if err != nil {
		return err
	}
	r.push(v)
	return nil
}

func (r *Runtime) convert(op wasm.Opcode) error {
	v, err := r.pop()
	if err != nil {
		return err
	}
	v, err = exec.Convert(op, v)
	if err != nil {
		return err
	}
	r.push(v)
	return nil
}
