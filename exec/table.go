package exec

import "github.com/wasmarch/wasmarch/wasm"

// MaxTableSize is the largest number of elements a table may hold.
const MaxTableSize = 10000000

// A TableInst is a WASM table of references.
type TableInst struct {
	Type     wasm.TableType
	elements []Val
}

// NewTable creates a table holding the minimum number of null references.
func NewTable(typ wasm.TableType) *TableInst {
	t := &TableInst{Type: typ, elements: make([]Val, typ.Limits.Min)}
	for i := range t.elements {
		t.elements[i] = NullRef(typ.ElemType)
	}
	return t
}

// Size returns the number of elements in the table.
func (t *TableInst) Size() uint32 {
	return uint32(len(t.elements))
}

// Elements returns the table's elements.
func (t *TableInst) Elements() []Val {
	return t.elements
}

// Get returns the element at index i. Out-of-bounds accesses trap.
func (t *TableInst) Get(i uint32) Val {
	if i >= t.Size() {
		panic(TrapUndefinedElement)
	}
	return t.elements[i]
}

// Set replaces the element at index i. Out-of-bounds accesses trap.
func (t *TableInst) Set(i uint32, v Val) {
	if i >= t.Size() {
		panic(TrapUndefinedElement)
	}
	t.elements[i] = v
}

// Grow appends n copies of init to the table and returns the old size, or -1 if the table cannot grow.
func (t *TableInst) Grow(n uint32, init Val) int32 {
	size := t.Size()
	max := uint64(MaxTableSize)
	if t.Type.Limits.HasMax {
		max = uint64(t.Type.Limits.Max)
	}
	if uint64(size)+uint64(n) > max {
		return -1
	}
	for i := uint32(0); i < n; i++ {
		t.elements = append(t.elements, init)
	}
	return int32(size)
}

func (t *TableInst) bounds(i, n uint32) {
	if uint64(i)+uint64(n) > uint64(t.Size()) {
		panic(TrapOutOfBoundsTableAccess)
	}
}

// Fill sets n elements starting at i to v.
func (t *TableInst) Fill(i uint32, v Val, n uint32) {
	t.bounds(i, n)
	for j := i; j < i+n; j++ {
		t.elements[j] = v
	}
}

// Copy copies n elements from src at s to t at d. The ranges may overlap.
func (t *TableInst) Copy(src *TableInst, d, s, n uint32) {
	t.bounds(d, n)
	src.bounds(s, n)
	copy(t.elements[d:d+n], src.elements[s:s+n])
}

// Init writes references to n functions from elem, starting at elem[s], into the table at d.
func (t *TableInst) Init(elem []uint32, d, s, n uint32) {
	t.bounds(d, n)
	if uint64(s)+uint64(n) > uint64(len(elem)) {
		panic(TrapOutOfBoundsTableAccess)
	}
	for j := uint32(0); j < n; j++ {
		t.elements[d+j] = FuncRef(elem[s+j])
	}
}
