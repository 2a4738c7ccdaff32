package grid

import (
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/interpreter"
	"github.com/wasmarch/wasmarch/wasm"
)

var i32 = wasm.ValueTypeI32

// gridModule builds a 2x1 grid program whose frame function increments cell 0. Cell 1 starts red.
func gridModule(frame ...wasm.Instruction) *wasm.Module {
	if frame == nil {
		frame = []wasm.Instruction{
			wasm.I32Const(0),
			wasm.I32Const(0), wasm.I32Load(0),
			wasm.I32Const(1), wasm.Op(wasm.OpI32Add),
			wasm.I32Store(0),
			wasm.End(),
		}
	}
	return &wasm.Module{
		Version:   wasm.Version,
		Types:     []wasm.FuncType{{}},
		Functions: []uint32{0},
		Memories:  []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals: []wasm.Global{
			{Type: wasm.GlobalType{ValueType: i32, Mutable: true}, Init: wasm.I32Const(2)},
			{Type: wasm.GlobalType{ValueType: i32}, Init: wasm.I32Const(1)},
		},
		Exports: []wasm.Export{
			{Name: FrameFunc, Kind: wasm.ExternalFunction, Index: 0},
			{Name: MemoryName, Kind: wasm.ExternalMemory, Index: 0},
			{Name: WidthGlobal, Kind: wasm.ExternalGlobal, Index: 0},
			{Name: HeightGlobal, Kind: wasm.ExternalGlobal, Index: 1},
		},
		Code: []wasm.FuncBody{{Code: frame}},
		Data: []wasm.DataSegment{{Mode: wasm.SegmentActive, Offset: wasm.I32Const(4), Init: []byte{0, 0, 0xff, 0xee}}},
	}
}

func newRuntime(t *testing.T, m *wasm.Module) *interpreter.Runtime {
	b, err := m.EncodeBytes()
	require.NoError(t, err)
	decoded, err := wasm.DecodeModuleBytes(b)
	require.NoError(t, err)
	store, err := exec.NewStore(decoded)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })
	return interpreter.New(store)
}

func newTestProgram(t *testing.T, m *wasm.Module) *Program {
	p, err := NewProgram(newRuntime(t, m))
	require.NoError(t, err)
	return p
}

func TestProgram(t *testing.T) {
	p := newTestProgram(t, gridModule())

	g, err := p.Grid()
	require.NoError(t, err)
	assert.Equal(t, 2, g.Width)
	assert.Equal(t, 1, g.Height)
	assert.Equal(t, []uint32{0, 0xff0000}, g.Cells)

	require.NoError(t, p.Step())
	require.NoError(t, p.Step())
	assert.Equal(t, uint64(2), p.Frames())

	g, err = p.Grid()
	require.NoError(t, err)
	assert.Equal(t, uint32(2), g.At(0, 0))
	assert.Equal(t, uint32(0xff0000), g.At(1, 0))
}

func TestProgramResize(t *testing.T) {
	p := newTestProgram(t, gridModule())

	require.NoError(t, p.width.SetI32(1))
	g, err := p.Grid()
	require.NoError(t, err)
	assert.Equal(t, []uint32{0}, g.Cells)

	require.NoError(t, p.width.SetI32(1<<20))
	_, err = p.Grid()
	assert.Error(t, err)

	require.NoError(t, p.width.SetI32(-1))
	_, err = p.Grid()
	assert.Error(t, err)
}

func TestNewProgramErrors(t *testing.T) {
	cases := []struct {
		name   string
		export string
	}{
		{"no frame", FrameFunc},
		{"no memory", MemoryName},
		{"no width", WidthGlobal},
		{"no height", HeightGlobal},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			m := gridModule()
			var exports []wasm.Export
			for _, e := range m.Exports {
				if e.Name != c.export {
					exports = append(exports, e)
				}
			}
			m.Exports = exports

			_, err := NewProgram(newRuntime(t, m))
			require.Error(t, err)
			assert.Contains(t, err.Error(), c.export)
		})
	}

	t.Run("frame params", func(t *testing.T) {
		m := gridModule(wasm.End())
		m.Types[0] = wasm.FuncType{Params: []wasm.ValueType{i32}}
		_, err := NewProgram(newRuntime(t, m))
		assert.Error(t, err)
	})
}

func keyMsg(r rune) tea.KeyMsg {
	if r == ' ' {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{r}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune{r}}
}

func TestModel(t *testing.T) {
	p := newTestProgram(t, gridModule())
	m, err := newModel(p, 30)
	require.NoError(t, err)
	assert.NotNil(t, m.Init())

	_, cmd := m.Update(tickMsg{})
	assert.NotNil(t, cmd)
	assert.Equal(t, uint64(1), p.Frames())
	assert.Equal(t, uint32(1), m.grid.At(0, 0))

	m.Update(keyMsg(' '))
	assert.True(t, m.paused)
	m.Update(tickMsg{})
	assert.Equal(t, uint64(1), p.Frames())

	m.Update(keyMsg('s'))
	assert.Equal(t, uint64(2), p.Frames())
	assert.Equal(t, uint32(2), m.grid.At(0, 0))

	view := m.View()
	assert.Contains(t, view, "grid 2x1")
	assert.Contains(t, view, "frame 2")
	assert.Contains(t, view, "paused")

	_, cmd = m.Update(keyMsg('q'))
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
}

func TestModelFrameError(t *testing.T) {
	p := newTestProgram(t, gridModule(wasm.Unreachable(), wasm.End()))
	m, err := newModel(p, 10)
	require.NoError(t, err)

	_, cmd := m.Update(tickMsg{})
	require.NotNil(t, cmd)
	assert.Equal(t, tea.Quit(), cmd())
	assert.ErrorIs(t, m.err, exec.TrapUnreachable)
	assert.Contains(t, m.View(), "unreachable")

	_, err = newModel(p, 0)
	assert.Error(t, err)
}
