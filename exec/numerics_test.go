package exec

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/wasm"
)

func TestBinaryOps(t *testing.T) {
	cases := []struct {
		op       BinaryOp
		a, b     Val
		expected Val
	}{
		{OpAdd, I32(math.MaxInt32), I32(1), I32(math.MinInt32)},
		{OpSub, I64(0), I64(1), I64(-1)},
		{OpMul, I32(-3), I32(7), I32(-21)},
		{OpDivS, I32(-7), I32(2), I32(-3)},
		{OpDivU, I32(-1), I32(2), I32(math.MaxInt32)},
		{OpRemS, I32(-7), I32(2), I32(-1)},
		{OpRemS, I32(math.MinInt32), I32(-1), I32(0)},
		{OpRemU, I64(-1), I64(10), I64(5)},
		{OpShl, I32(1), I32(33), I32(2)},
		{OpShrS, I32(-8), I32(1), I32(-4)},
		{OpShrU, I32(-8), I32(28), I32(15)},
		{OpRotl, I32(math.MinInt32), I32(1), I32(1)},
		{OpRotr, I64(1), I64(1), I64(math.MinInt64)},
		{OpLtS, I32(-1), I32(0), I32(1)},
		{OpLtU, I32(-1), I32(0), I32(0)},
		{OpGeU, I64(-1), I64(0), I32(1)},
		{OpEq, F64(0), F64(math.Copysign(0, -1)), I32(1)},
		{OpNe, F32(float32(math.NaN())), F32(float32(math.NaN())), I32(1)},
		{OpLt, F64(math.NaN()), F64(1), I32(0)},
		{OpDiv, F64(1), F64(0), F64(math.Inf(1))},
		{OpMin, F64(0), F64(math.Copysign(0, -1)), F64(math.Copysign(0, -1))},
		{OpMax, F32(-1), F32(2), F32(2)},
		{OpCopysign, F64(3), F64(-1), F64(-3)},
	}
	for _, c := range cases {
		actual, err := c.op.Apply(c.a, c.b)
		require.NoError(t, err)
		assert.Equal(t, c.expected, actual, "%v op %d %v", c.a, c.op, c.b)
	}
}

func TestBinaryOpTraps(t *testing.T) {
	_, err := OpDivS.Apply(I32(1), I32(0))
	assert.Equal(t, TrapIntegerDivideByZero, err)

	_, err = OpRemU.Apply(I64(1), I64(0))
	assert.Equal(t, TrapIntegerDivideByZero, err)

	_, err = OpDivS.Apply(I64(math.MinInt64), I64(-1))
	assert.Equal(t, TrapIntegerOverflow, err)

	_, err = OpAdd.Apply(I32(1), I64(1))
	assert.Equal(t, ErrUndefinedBinaryOp, err)
}

func TestMinMaxNaN(t *testing.T) {
	v, err := OpMin.Apply(F64(math.NaN()), F64(1))
	require.NoError(t, err)
	assert.True(t, IsNaN(v))

	v, err = OpMax.Apply(F32(1), F32(float32(math.NaN())))
	require.NoError(t, err)
	assert.True(t, IsNaN(v))
}

func TestUnaryOps(t *testing.T) {
	cases := []struct {
		op       UnaryOp
		v        Val
		expected Val
	}{
		{OpClz, I32(1), I32(31)},
		{OpClz, I64(0), I64(64)},
		{OpCtz, I32(8), I32(3)},
		{OpPopcnt, I64(-1), I64(64)},
		{OpEqz, I32(0), I32(1)},
		{OpEqz, I64(5), I32(0)},
		{OpAbs, F64(-2), F64(2)},
		{OpNeg, F32(2), F32(-2)},
		{OpCeil, F64(1.5), F64(2)},
		{OpFloor, F32(-1.5), F32(-2)},
		{OpTrunc, F64(-1.5), F64(-1)},
		{OpNearest, F64(2.5), F64(2)},
		{OpNearest, F32(3.5), F32(4)},
		{OpSqrt, F64(9), F64(3)},
		{OpExtend8S, I32(0x80), I32(-128)},
		{OpExtend16S, I64(0xffff), I64(-1)},
		{OpExtend32S, I64(0x80000000), I64(math.MinInt32)},
	}
	for _, c := range cases {
		actual, err := c.op.Apply(c.v)
		require.NoError(t, err)
		assert.Equal(t, c.expected, actual, "op %d %v", c.op, c.v)
	}

	_, err := OpClz.Apply(F32(1))
	assert.Equal(t, ErrUndefinedUnaryOp, err)
}

func TestNegPreservesNaNPayload(t *testing.T) {
	nan := ValFromBits(wasm.ValueTypeF32, 0x7fc00001)
	v, err := OpNeg.Apply(nan)
	require.NoError(t, err)
	assert.Equal(t, uint64(0xffc00001), v.Bits())
}

func TestConvert(t *testing.T) {
	cases := []struct {
		op       wasm.Opcode
		v        Val
		expected Val
	}{
		{wasm.OpI32WrapI64, I64(0x1_0000_0002), I32(2)},
		{wasm.OpI64ExtendI32S, I32(-1), I64(-1)},
		{wasm.OpI64ExtendI32U, I32(-1), I64(0xffffffff)},
		{wasm.OpI32TruncF64S, F64(-3.9), I32(-3)},
		{wasm.OpI32TruncF32U, F32(3.9), I32(3)},
		{wasm.OpI64TruncF64U, F64(1e19), I64(-8446744073709551616)},
		{wasm.OpF32ConvertI32U, I32(-1), F32(4294967296)},
		{wasm.OpF64ConvertI64S, I64(-5), F64(-5)},
		{wasm.OpF32DemoteF64, F64(1.5), F32(1.5)},
		{wasm.OpF64PromoteF32, F32(1.5), F64(1.5)},
		{wasm.OpI32ReinterpretF32, F32(1), I32(0x3f800000)},
		{wasm.OpF64ReinterpretI64, I64(0), F64(0)},
		{wasm.OpI32TruncSatF64S, F64(1e10), I32(math.MaxInt32)},
		{wasm.OpI32TruncSatF64U, F64(-5), I32(0)},
		{wasm.OpI64TruncSatF32S, F32(float32(math.NaN())), I64(0)},
	}
	for _, c := range cases {
		require.True(t, IsConversion(c.op))
		actual, err := Convert(c.op, c.v)
		require.NoError(t, err, "%v", c.op)
		assert.Equal(t, c.expected, actual, "%v %v", c.op, c.v)
	}
}

func TestConvertErrors(t *testing.T) {
	_, err := Convert(wasm.OpI32TruncF64S, F64(math.NaN()))
	assert.Equal(t, TrapInvalidConversionToInteger, err)

	_, err = Convert(wasm.OpI32TruncF64U, F64(-1))
	assert.Equal(t, TrapIntegerOverflow, err)

	_, err = Convert(wasm.OpI64TruncF32S, F32(float32(math.Inf(1))))
	assert.Equal(t, TrapIntegerOverflow, err)

	_, err = Convert(wasm.OpI32WrapI64, I32(1))
	assert.IsType(t, &TypeMismatchError{}, err)

	assert.False(t, IsConversion(wasm.OpI32Add))
	_, err = Convert(wasm.OpI32Add, I32(1))
	assert.Equal(t, UnsupportedOpcodeError(wasm.OpI32Add), err)
}

func TestTranslateRuntimeError(t *testing.T) {
	err := func() (err error) {
		defer func() { err = RecoverTrap(recover(), err) }()
		var b []byte
		_ = b[len(b)+1]
		return nil
	}()
	assert.True(t, IsTrap(err))

	assert.Panics(t, func() {
		defer func() { _ = RecoverTrap(recover(), nil) }()
		panic("not a trap")
	})
}
