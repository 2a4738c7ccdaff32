// Package grid implements the terminal viewer for grid programs.
//
// A grid program exports two i32 globals, grid_width and grid_height, a memory named grid_memory, and a
// function grid_frame. grid_frame is invoked once per frame; afterwards cell (x, y) is read from
// grid_memory as a little-endian 0xRRGGBB value at byte offset (y*grid_width+x)*4.
package grid

import (
	"errors"
	"fmt"

	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/interpreter"
	"github.com/wasmarch/wasmarch/wasm"
)

// Names of the exports a grid program must provide.
const (
	WidthGlobal  = "grid_width"
	HeightGlobal = "grid_height"
	MemoryName   = "grid_memory"
	FrameFunc    = "grid_frame"
)

var ErrNotTerminal = errors.New("grid mode requires a terminal")

// A Grid is a snapshot of a grid program's cells in row-major order.
type Grid struct {
	Width  int
	Height int
	Cells  []uint32
}

// At returns the colour of cell (x, y).
func (g *Grid) At(x, y int) uint32 {
	return g.Cells[y*g.Width+x]
}

// A Program drives a grid program.
type Program struct {
	r      *interpreter.Runtime
	frame  exec.FuncInst
	memory *exec.MemInst
	width  *exec.GlobalInst
	height *exec.GlobalInst
	frames uint64
}

// NewProgram checks that r's module exports the grid interface.
func NewProgram(r *interpreter.Runtime) (*Program, error) {
	frame, err := r.GetFunc(FrameFunc)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", FrameFunc, err)
	}
	if typ := frame.FuncType(); len(typ.Params) != 0 {
		return nil, fmt.Errorf("%s must not take parameters, has type %v", FrameFunc, typ)
	}
	memory, err := r.GetMemory(MemoryName)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", MemoryName, err)
	}
	width, err := i32Global(r, WidthGlobal)
	if err != nil {
		return nil, err
	}
	height, err := i32Global(r, HeightGlobal)
	if err != nil {
		return nil, err
	}
	return &Program{r: r, frame: frame, memory: memory, width: width, height: height}, nil
}

func i32Global(r *interpreter.Runtime, name string) (*exec.GlobalInst, error) {
	g, err := r.GetGlobal(name)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if v := g.Get(); v.Type != wasm.ValueTypeI32 {
		return nil, fmt.Errorf("%s: %w", name, &exec.TypeMismatchError{Expected: wasm.ValueTypeI32, Actual: v.Type})
	}
	return g, nil
}

// Frames returns the number of frames computed so far.
func (p *Program) Frames() uint64 {
	return p.frames
}

// Step invokes grid_frame once.
func (p *Program) Step() error {
	if _, err := p.r.Call(p.frame); err != nil {
		return fmt.Errorf("frame %d: %w", p.frames, err)
	}
	p.frames++
	return nil
}

// Grid reads the current cells. The dimensions are re-read on every call, so programs may resize the grid.
func (p *Program) Grid() (*Grid, error) {
	w, h := int(p.width.GetI32()), int(p.height.GetI32())
	if w < 0 || h < 0 {
		return nil, fmt.Errorf("invalid grid size %dx%d", w, h)
	}
	if need := uint64(w) * uint64(h) * 4; need > uint64(len(p.memory.Bytes())) {
		return nil, fmt.Errorf("a %dx%d grid needs %d bytes of %s, which has %d", w, h, need, MemoryName, len(p.memory.Bytes()))
	}

	g := &Grid{Width: w, Height: h, Cells: make([]uint32, w*h)}
	for i := range g.Cells {
		g.Cells[i] = p.memory.Uint32(uint32(i*4), 0) & 0xffffff
	}
	return g, nil
}
