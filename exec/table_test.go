package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/wasmarch/wasmarch/wasm"
)

func TestTable(t *testing.T) {
	table := NewTable(wasm.TableType{ElemType: wasm.ValueTypeFuncRef, Limits: wasm.Limits{Min: 2, Max: 4, HasMax: true}})
	assert.Equal(t, uint32(2), table.Size())
	assert.True(t, table.Get(1).IsNull())

	table.Set(1, FuncRef(5))
	addr, ok := table.Get(1).RefAddr()
	assert.True(t, ok)
	assert.Equal(t, uint32(5), addr)

	assert.PanicsWithValue(t, TrapUndefinedElement, func() { table.Get(2) })
	assert.PanicsWithValue(t, TrapUndefinedElement, func() { table.Set(2, FuncRef(0)) })

	assert.Equal(t, int32(2), table.Grow(2, FuncRef(3)))
	assert.Equal(t, FuncRef(3), table.Get(3))
	assert.Equal(t, int32(-1), table.Grow(1, NullRef(wasm.ValueTypeFuncRef)))

	table.Fill(0, FuncRef(9), 2)
	assert.Equal(t, []Val{FuncRef(9), FuncRef(9), FuncRef(3), FuncRef(3)}, table.Elements())

	table.Init([]uint32{7, 8}, 2, 0, 2)
	assert.Equal(t, FuncRef(8), table.Get(3))

	table.Copy(table, 1, 2, 2)
	assert.Equal(t, []Val{FuncRef(9), FuncRef(7), FuncRef(8), FuncRef(8)}, table.Elements())

	assert.PanicsWithValue(t, TrapOutOfBoundsTableAccess, func() { table.Fill(3, FuncRef(0), 2) })
	assert.PanicsWithValue(t, TrapOutOfBoundsTableAccess, func() { table.Init([]uint32{1}, 0, 1, 1) })
}
