package exec

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/wasm"
)

func TestMemory(t *testing.T) {
	m, err := NewMemory(wasm.Limits{Min: 1, Max: 2, HasMax: true})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, uint32(1), m.Size())
	assert.Len(t, m.Bytes(), PageSize)

	m.PutUint64(0x0102030405060708, 0, 0)
	assert.Equal(t, []byte{8, 7, 6, 5, 4, 3, 2, 1}, m.Bytes()[:8])
	assert.Equal(t, uint16(0x0304), m.Uint16(2, 2))
	assert.Equal(t, uint8(1), m.Uint8(0, 7))

	m.PutFloat64(1.5, 16, 0)
	assert.Equal(t, 1.5, m.Float64(8, 8))
	m.PutFloat32(-2.5, 24, 0)
	assert.Equal(t, float32(-2.5), m.Float32(24, 0))

	assert.PanicsWithValue(t, TrapOutOfBoundsMemoryAccess, func() { m.Uint32(PageSize-3, 0) })
	assert.PanicsWithValue(t, TrapOutOfBoundsMemoryAccess, func() { m.Uint8(0xffffffff, 0xffffffff) })

	old, err := m.Grow(1)
	require.NoError(t, err)
	assert.Equal(t, uint32(1), old)
	assert.Equal(t, uint32(2), m.Size())
	assert.Equal(t, uint64(0x0102030405060708), m.Uint64(0, 0))
	m.PutUint32(7, PageSize, PageSize-4)
	assert.Equal(t, uint32(7), m.Uint32(2*PageSize-4, 0))

	_, err = m.Grow(1)
	assert.Equal(t, ErrLimitExceeded, err)
	old, err = m.Grow(0)
	require.NoError(t, err)
	assert.Equal(t, uint32(2), old)
}

func TestMemoryBulk(t *testing.T) {
	m, err := NewMemory(wasm.Limits{})
	require.NoError(t, err)
	defer m.Close()

	assert.Equal(t, uint32(1), m.Size())

	m.Init([]byte("abcdef"), 0, 1, 4)
	assert.Equal(t, "bcde", string(m.Range(0, 4)))

	// Overlapping copy.
	m.Copy(1, 0, 4)
	assert.Equal(t, "bbcde", string(m.Range(0, 5)))

	m.Fill(2, 'z', 2)
	assert.Equal(t, "bbzze", string(m.Range(0, 5)))

	assert.PanicsWithValue(t, TrapOutOfBoundsMemoryAccess, func() { m.Init([]byte("ab"), 0, 1, 2) })
	assert.PanicsWithValue(t, TrapOutOfBoundsMemoryAccess, func() { m.Fill(PageSize, 0, 1) })
	assert.NotPanics(t, func() { m.Fill(PageSize, 0, 0) })
}

func TestNewMemoryLimits(t *testing.T) {
	_, err := NewMemory(wasm.Limits{Min: MaxPages + 1})
	assert.Equal(t, ErrLimitExceeded, err)
}
