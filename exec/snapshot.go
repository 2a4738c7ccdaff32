package exec

import (
	"fmt"

	"github.com/fxamacker/cbor/v2"

	"github.com/wasmarch/wasmarch/wasm"
)

var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("exec: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// A GlobalSnapshot records the value of one global.
type GlobalSnapshot struct {
	Type wasm.ValueType `cbor:"1,keyasint"`
	Bits uint64         `cbor:"2,keyasint"`
}

// A Snapshot records the mutable state of a store: its globals and the contents of its memories.
type Snapshot struct {
	Globals  []GlobalSnapshot `cbor:"1,keyasint"`
	Memories [][]byte         `cbor:"2,keyasint"`
}

// Snapshot captures the store's current state.
func (s *Store) Snapshot() *Snapshot {
	snap := &Snapshot{
		Globals:  make([]GlobalSnapshot, len(s.Globals)),
		Memories: make([][]byte, len(s.Mems)),
	}
	for i, g := range s.Globals {
		v := g.Get()
		snap.Globals[i] = GlobalSnapshot{Type: v.Type, Bits: v.Bits()}
	}
	for i, m := range s.Mems {
		snap.Memories[i] = append([]byte(nil), m.Bytes()...)
	}
	return snap
}

// Restore replaces the store's state with the contents of a snapshot taken from a store of the same
// module. Memories are grown as needed; bytes past the end of a snapshot's memory are zeroed.
func (s *Store) Restore(snap *Snapshot) error {
	if len(snap.Globals) != len(s.Globals) || len(snap.Memories) != len(s.Mems) {
		return ErrSnapshotMismatch
	}
	for i, g := range snap.Globals {
		if err := s.Globals[i].Set(ValFromBits(g.Type, g.Bits)); err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
	}
	for i, data := range snap.Memories {
		m := s.Mems[i]
		if len(data)%PageSize != 0 {
			return fmt.Errorf("memory %d: %w", i, ErrSnapshotMismatch)
		}
		if pages := uint32(len(data) / PageSize); pages > m.Size() {
			if _, err := m.Grow(pages - m.Size()); err != nil {
				return fmt.Errorf("memory %d: %w", i, err)
			}
		}
		n := copy(m.Bytes(), data)
		zero := m.Bytes()[n:]
		for j := range zero {
			zero[j] = 0
		}
	}
	return nil
}

// MarshalSnapshot serializes a snapshot to CBOR bytes.
func MarshalSnapshot(snap *Snapshot) ([]byte, error) {
	return cborEncMode.Marshal(snap)
}

// UnmarshalSnapshot deserializes a snapshot from CBOR bytes.
func UnmarshalSnapshot(data []byte) (*Snapshot, error) {
	var snap Snapshot
	if err := cbor.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("exec: unmarshal snapshot: %w", err)
	}
	return &snap, nil
}
