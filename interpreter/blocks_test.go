package interpreter

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/wasm"
)

func TestScanBlock(t *testing.T) {
	code := []wasm.Instruction{
		wasm.If(),    // 0
		wasm.Block(), // 1
		wasm.If(),    // 2
		wasm.Else(),  // 3
		wasm.End(),   // 4
		wasm.End(),   // 5
		wasm.Else(),  // 6
		wasm.Loop(),  // 7
		wasm.End(),   // 8
		wasm.End(),   // 9
		wasm.End(),   // 10
	}

	cases := []struct {
		pc       int
		end, els int
	}{
		{0, 9, 6},
		{1, 5, -1},
		{2, 4, 3},
		{7, 8, -1},
	}
	for _, c := range cases {
		end, els, err := scanBlock(code, c.pc)
		require.NoError(t, err)
		assert.Equal(t, c.end, end, "end of block at %d", c.pc)
		assert.Equal(t, c.els, els, "else of block at %d", c.pc)
	}

	_, _, err := scanBlock(code[:4], 0)
	assert.Equal(t, exec.ErrUnexpectedEndOfInput, err)
}

func TestBlockMapMemoizes(t *testing.T) {
	code := []wasm.Instruction{wasm.Block(), wasm.Block(), wasm.End(), wasm.End(), wasm.End()}

	m := newBlockMap(code)
	assert.Equal(t, uint(0), m.resolvedCount())

	end, els, err := m.match(code, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, end)
	assert.Equal(t, -1, els)
	assert.Equal(t, uint(1), m.resolvedCount())

	// A memoized match does not rescan the code.
	end, _, err = m.match(nil, 0)
	require.NoError(t, err)
	assert.Equal(t, 3, end)

	_, _, err = m.match(code, 1)
	require.NoError(t, err)
	assert.Equal(t, uint(2), m.resolvedCount())
}

func TestReturnWithoutFrame(t *testing.T) {
	r := New(nil)
	assert.Equal(t, exec.ErrEmptyCallStack, r.ret())
}
