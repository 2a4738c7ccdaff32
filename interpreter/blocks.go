package interpreter

import (
	"github.com/willf/bitset"

	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/wasm"
)

// scanBlock finds the End that closes the block, loop, or if at pc, and the Else that belongs to it, if any.
// Nested blocks are skipped by counting depth; an Else only belongs to the block when it appears at depth 0.
func scanBlock(code []wasm.Instruction, pc int) (end, els int, err error) {
	depth := 0
	els = -1
	for i := pc + 1; i < len(code); i++ {
		switch code[i].Opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			depth++
		case wasm.OpElse:
			if depth == 0 {
				els = i
			}
		case wasm.OpEnd:
			if depth == 0 {
				return i, els, nil
			}
			depth--
		}
	}
	return 0, 0, exec.ErrUnexpectedEndOfInput
}

// A blockMap memoizes the block matches of one function body. Each block is scanned at most once.
type blockMap struct {
	resolved *bitset.BitSet
	ends     []int
	elses    []int
}

func newBlockMap(code []wasm.Instruction) *blockMap {
	return &blockMap{
		resolved: bitset.New(uint(len(code))),
		ends:     make([]int, len(code)),
		elses:    make([]int, len(code)),
	}
}

// match returns the End and Else (or -1) positions for the block at pc.
func (m *blockMap) match(code []wasm.Instruction, pc int) (end, els int, err error) {
	if m.resolved.Test(uint(pc)) {
		return m.ends[pc], m.elses[pc], nil
	}
	end, els, err = scanBlock(code, pc)
	if err != nil {
		return 0, 0, err
	}
	m.ends[pc], m.elses[pc] = end, els
	m.resolved.Set(uint(pc))
	return end, els, nil
}

// resolvedCount returns the number of blocks that have been matched.
func (m *blockMap) resolvedCount() uint {
	return m.resolved.Count()
}
