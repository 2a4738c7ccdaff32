package exec

import (
	"encoding/binary"
	"errors"
	"math"

	"github.com/wasmarch/wasmarch/wasm"
)

const (
	// PageSize is the size of a WASM memory page in bytes.
	PageSize = 65536
	// MaxPages is the largest number of pages a memory may hold.
	MaxPages = 65536
)

var ErrLimitExceeded = errors.New("memory limit exceeded")

// linearMemory is the backing store of a MemInst.
type linearMemory interface {
	bytes() []byte
	grow(pages uint32) error
	close() error
}

type heapMemory struct {
	data []byte
}

func newHeapMemory(pages uint32) *heapMemory {
	return &heapMemory{data: make([]byte, int(pages)*PageSize)}
}

func (m *heapMemory) bytes() []byte {
	return m.data
}

func (m *heapMemory) grow(pages uint32) error {
	data := make([]byte, int(pages)*PageSize)
	copy(data, m.data)
	m.data = data
	return nil
}

func (m *heapMemory) close() error {
	m.data = nil
	return nil
}

// A MemInst is a WASM linear memory.
type MemInst struct {
	Limits wasm.Limits

	max     uint32
	data    []byte
	backing linearMemory
}

// NewMemory allocates a linear memory with the given limits. A memory with a minimum of zero pages is
// allocated one page.
func NewMemory(limits wasm.Limits) (*MemInst, error) {
	pages := limits.Min
	if pages == 0 {
		pages = 1
	}

	max := uint32(MaxPages)
	if limits.HasMax {
		max = limits.Max
		if max < pages {
			max = pages
		}
	}
	if pages > max {
		return nil, ErrLimitExceeded
	}

	backing, err := newPlatformMemory(pages, max)
	if err != nil {
		return nil, err
	}
	return &MemInst{Limits: limits, max: max, data: backing.bytes(), backing: backing}, nil
}

// Close releases the memory's backing store.
func (m *MemInst) Close() error {
	m.data = nil
	return m.backing.close()
}

// Size returns the current size of the memory in pages.
func (m *MemInst) Size() uint32 {
	return uint32(len(m.data) / PageSize)
}

// Grow grows the memory by the given number of pages. It returns the old size of the memory in pages and
// an error if growing the memory by the requested amount would exceed the memory's maximum size.
func (m *MemInst) Grow(pages uint32) (uint32, error) {
	size := m.Size()
	if pages == 0 {
		return size, nil
	}
	newSize := uint64(size) + uint64(pages)
	if newSize > uint64(m.max) {
		return size, ErrLimitExceeded
	}
	if err := m.backing.grow(uint32(newSize)); err != nil {
		return size, err
	}
	m.data = m.backing.bytes()
	return size, nil
}

// Bytes returns the memory's bytes. The slice is invalidated by Grow.
func (m *MemInst) Bytes() []byte {
	return m.data
}

// slice returns the n bytes at the effective address base+offset. Out-of-bounds accesses trap.
func (m *MemInst) slice(base, offset uint32, n uint64) []byte {
	ea := uint64(base) + uint64(offset)
	if ea+n > uint64(len(m.data)) {
		panic(TrapOutOfBoundsMemoryAccess)
	}
	return m.data[ea : ea+n]
}

// Range returns the n bytes starting at addr. Out-of-bounds ranges trap.
func (m *MemInst) Range(addr, n uint32) []byte {
	return m.slice(addr, 0, uint64(n))
}

func (m *MemInst) Uint8(base, offset uint32) uint8 {
	return m.slice(base, offset, 1)[0]
}

func (m *MemInst) PutUint8(v uint8, base, offset uint32) {
	m.slice(base, offset, 1)[0] = v
}

func (m *MemInst) Uint16(base, offset uint32) uint16 {
	return binary.LittleEndian.Uint16(m.slice(base, offset, 2))
}

func (m *MemInst) PutUint16(v uint16, base, offset uint32) {
	binary.LittleEndian.PutUint16(m.slice(base, offset, 2), v)
}

func (m *MemInst) Uint32(base, offset uint32) uint32 {
	return binary.LittleEndian.Uint32(m.slice(base, offset, 4))
}

func (m *MemInst) PutUint32(v uint32, base, offset uint32) {
	binary.LittleEndian.PutUint32(m.slice(base, offset, 4), v)
}

func (m *MemInst) Uint64(base, offset uint32) uint64 {
	return binary.LittleEndian.Uint64(m.slice(base, offset, 8))
}

func (m *MemInst) PutUint64(v uint64, base, offset uint32) {
	binary.LittleEndian.PutUint64(m.slice(base, offset, 8), v)
}

func (m *MemInst) Float32(base, offset uint32) float32 {
	return math.Float32frombits(m.Uint32(base, offset))
}

func (m *MemInst) PutFloat32(v float32, base, offset uint32) {
	m.PutUint32(math.Float32bits(v), base, offset)
}

func (m *MemInst) Float64(base, offset uint32) float64 {
	return math.Float64frombits(m.Uint64(base, offset))
}

func (m *MemInst) PutFloat64(v float64, base, offset uint32) {
	m.PutUint64(math.Float64bits(v), base, offset)
}

// Fill sets n bytes starting at dst to v.
func (m *MemInst) Fill(dst uint32, v byte, n uint32) {
	b := m.Range(dst, n)
	for i := range b {
		b[i] = v
	}
}

// Copy copies n bytes from src to dst. The ranges may overlap.
func (m *MemInst) Copy(dst, src, n uint32) {
	d, s := m.Range(dst, n), m.Range(src, n)
	copy(d, s)
}

// Init copies n bytes of data starting at src into the memory at dst.
func (m *MemInst) Init(data []byte, dst, src, n uint32) {
	if uint64(src)+uint64(n) > uint64(len(data)) {
		panic(TrapOutOfBoundsMemoryAccess)
	}
	copy(m.Range(dst, n), data[src:src+n])
}
