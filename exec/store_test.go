package exec

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/wasm"
)

func storeModule() *wasm.Module {
	i32 := wasm.ValueTypeI32
	return &wasm.Module{
		Version: wasm.Version,
		Types: []wasm.FuncType{
			{Params: []wasm.ValueType{i32}},
			{Results: []wasm.ValueType{i32}},
		},
		Imports: []wasm.Import{
			{Module: "std", Field: "log_i32", Kind: wasm.ExternalFunction, Type: 0},
		},
		Functions: []uint32{1, 1},
		Tables: []wasm.TableType{
			{ElemType: wasm.ValueTypeFuncRef, Limits: wasm.Limits{Min: 4}},
		},
		Memories: []wasm.MemoryType{{Limits: wasm.Limits{Min: 1, Max: 4, HasMax: true}}},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValueType: i32}, Init: wasm.I32Const(2)},
			{Type: wasm.GlobalType{ValueType: i32, Mutable: true}, Init: wasm.GlobalGet(0)},
		},
		Exports: []wasm.Export{
			{Name: "one", Kind: wasm.ExternalFunction, Index: 1},
			{Name: "log", Kind: wasm.ExternalFunction, Index: 0},
			{Name: "table", Kind: wasm.ExternalTable, Index: 0},
			{Name: "memory", Kind: wasm.ExternalMemory, Index: 0},
			{Name: "offset", Kind: wasm.ExternalGlobal, Index: 1},
		},
		Elements: []wasm.ElementSegment{
			{Mode: wasm.SegmentActive, Offset: wasm.GlobalGet(0), Init: []uint32{1, 2}},
			{Mode: wasm.SegmentPassive, Init: []uint32{2}},
			{Mode: wasm.SegmentDeclarative, Init: []uint32{1}},
		},
		Code: []wasm.FuncBody{
			{Code: []wasm.Instruction{wasm.I32Const(1), wasm.End()}},
			{Code: []wasm.Instruction{wasm.GlobalGet(1), wasm.End()}},
		},
		Data: []wasm.DataSegment{
			{Mode: wasm.SegmentActive, Offset: wasm.I32Const(8), Init: []byte("active")},
			{Mode: wasm.SegmentPassive, Init: []byte("passive")},
		},
	}
}

func newTestStore(t *testing.T, m *wasm.Module) *Store {
	s, err := NewStore(m)
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewStore(t *testing.T) {
	s := newTestStore(t, storeModule())

	require.Len(t, s.Funcs, 3)
	ext, ok := s.Funcs[0].(*ExternalFunc)
	require.True(t, ok)
	assert.Equal(t, "std", ext.Module)
	assert.Equal(t, "log_i32", ext.Field)
	assert.Equal(t, uint32(0), ext.Addr())

	internal, ok := s.Funcs[2].(*InternalFunc)
	require.True(t, ok)
	assert.Equal(t, uint32(2), internal.Addr())
	assert.Equal(t, wasm.OpGlobalGet, internal.Body.Code[0].Opcode)

	assert.Equal(t, int32(2), s.Globals[1].GetI32())

	mem, err := s.ExportedMemory("memory")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), mem.Size())
	assert.Equal(t, "active", string(mem.Bytes()[8:14]))

	table, err := s.ExportedTable("table")
	require.NoError(t, err)
	assert.True(t, table.Get(0).IsNull())
	assert.Equal(t, FuncRef(1), table.Get(2))
	assert.Equal(t, FuncRef(2), table.Get(3))

	f, err := s.ExportedFunc("one")
	require.NoError(t, err)
	assert.Equal(t, uint32(1), f.Addr())

	_, err = s.ExportedFunc("memory")
	assert.Equal(t, ErrExpectFuncAddr, err)
	_, err = s.ExportedMemory("one")
	assert.Equal(t, ErrExpectMemAddr, err)
	_, err = s.Export("missing")
	assert.Equal(t, ExportNotFoundError("missing"), err)
}

func TestStoreSegments(t *testing.T) {
	s := newTestStore(t, storeModule())

	// Active and declarative segments are dropped by instantiation.
	elem, err := s.ElemSegment(0)
	require.NoError(t, err)
	assert.Nil(t, elem)
	elem, err = s.ElemSegment(2)
	require.NoError(t, err)
	assert.Nil(t, elem)

	elem, err = s.ElemSegment(1)
	require.NoError(t, err)
	assert.Equal(t, []uint32{2}, elem)
	require.NoError(t, s.DropElem(1))
	elem, err = s.ElemSegment(1)
	require.NoError(t, err)
	assert.Nil(t, elem)

	data, err := s.DataSegment(0)
	require.NoError(t, err)
	assert.Nil(t, data)
	data, err = s.DataSegment(1)
	require.NoError(t, err)
	assert.Equal(t, []byte("passive"), data)
	require.NoError(t, s.DropData(1))
	data, err = s.DataSegment(1)
	require.NoError(t, err)
	assert.Nil(t, data)

	_, err = s.DataSegment(2)
	assert.Error(t, err)
	assert.Error(t, s.DropElem(3))
}

func TestNewStoreErrors(t *testing.T) {
	cases := []struct {
		name   string
		modify func(m *wasm.Module)
		check  func(t *testing.T, err error)
	}{
		{
			name:   "missing code",
			modify: func(m *wasm.Module) { m.Code = m.Code[:1] },
			check:  func(t *testing.T, err error) { assert.Equal(t, InvalidCodeIndexError(1), err) },
		},
		{
			name:   "bad function type",
			modify: func(m *wasm.Module) { m.Functions[0] = 7 },
			check:  func(t *testing.T, err error) { assert.Equal(t, InvalidTypeIndexError(7), err) },
		},
		{
			name:   "bad import type",
			modify: func(m *wasm.Module) { m.Imports[0].Type = 7 },
			check:  func(t *testing.T, err error) { assert.Equal(t, InvalidTypeIndexError(7), err) },
		},
		{
			name:   "bad export",
			modify: func(m *wasm.Module) { m.Exports[0].Index = 9 },
			check:  func(t *testing.T, err error) { assert.Equal(t, InvalidFuncIndexError(9), err) },
		},
		{
			name: "global type mismatch",
			modify: func(m *wasm.Module) {
				m.Globals[0].Init = wasm.I64Const(1)
			},
			check: func(t *testing.T, err error) {
				var mismatch *TypeMismatchError
				assert.True(t, errors.As(err, &mismatch))
			},
		},
		{
			name: "immutable global write",
			modify: func(m *wasm.Module) {
				m.Code[0].Code = []wasm.Instruction{wasm.I32Const(1), wasm.GlobalSet(0), wasm.I32Const(1), wasm.End()}
			},
			check: func(t *testing.T, err error) {
				assert.Equal(t, &ImmutableGlobalError{Func: 1, Global: 0}, err)
			},
		},
		{
			name: "element segment out of bounds",
			modify: func(m *wasm.Module) {
				m.Elements[0].Offset = wasm.I32Const(3)
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, TrapOutOfBoundsTableAccess) },
		},
		{
			name: "element segment bad function",
			modify: func(m *wasm.Module) {
				m.Elements[0].Init = []uint32{1, 99}
			},
			check: func(t *testing.T, err error) {
				var bad InvalidFuncIndexError
				require.True(t, errors.As(err, &bad))
				assert.Equal(t, InvalidFuncIndexError(99), bad)
			},
		},
		{
			name: "data segment out of bounds",
			modify: func(m *wasm.Module) {
				m.Data[0].Offset = wasm.I32Const(PageSize - 1)
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, TrapOutOfBoundsMemoryAccess) },
		},
		{
			name: "non-constant offset",
			modify: func(m *wasm.Module) {
				m.Data[0].Offset = wasm.Nop()
			},
			check: func(t *testing.T, err error) { assert.ErrorIs(t, err, wasm.ErrExpectedConstExpression) },
		},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := storeModule()
			c.modify(m)
			_, err := NewStore(m)
			require.Error(t, err)
			c.check(t, err)
		})
	}
}

func TestSnapshot(t *testing.T) {
	s := newTestStore(t, storeModule())

	require.NoError(t, s.Globals[1].SetI32(17))
	mem := s.Mems[0]
	_, err := mem.Grow(1)
	require.NoError(t, err)
	mem.PutUint32(0xdeadbeef, PageSize, 4)

	b, err := MarshalSnapshot(s.Snapshot())
	require.NoError(t, err)

	// Restore into a fresh store of the same module.
	fresh := newTestStore(t, storeModule())
	snap, err := UnmarshalSnapshot(b)
	require.NoError(t, err)
	require.NoError(t, fresh.Restore(snap))

	assert.Equal(t, int32(17), fresh.Globals[1].GetI32())
	assert.Equal(t, uint32(2), fresh.Mems[0].Size())
	assert.Equal(t, uint32(0xdeadbeef), fresh.Mems[0].Uint32(PageSize, 4))
	assert.Equal(t, mem.Bytes(), fresh.Mems[0].Bytes())

	// Snapshots from a different module are rejected.
	snap.Globals = snap.Globals[:1]
	assert.Equal(t, ErrSnapshotMismatch, fresh.Restore(snap))

	_, err = UnmarshalSnapshot([]byte{0xff})
	assert.Error(t, err)
}
