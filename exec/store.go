package exec

import (
	"fmt"

	"github.com/willf/bitset"
	"go.uber.org/zap"

	"github.com/wasmarch/wasmarch/wasm"
)

// An ExternalVal is the address of an exported entity in its store's index space.
type ExternalVal struct {
	Kind wasm.ExternalKind
	Addr uint32
}

// An ExportInst binds an export name to the entity it exports.
type ExportInst struct {
	Name  string
	Value ExternalVal
}

// A Store is the runtime instance of a module. Its index spaces are fixed when it is created; only the
// contents of globals, memories, and tables change afterwards.
type Store struct {
	Types   []wasm.FuncType
	Funcs   []FuncInst
	Tables  []*TableInst
	Mems    []*MemInst
	Globals []*GlobalInst
	Exports map[string]ExportInst

	// Start is the index of the start function, if any.
	Start *uint32

	elems        [][]uint32
	datas        [][]byte
	droppedElems *bitset.BitSet
	droppedData  *bitset.BitSet
}

// NewStore instantiates a decoded module. Imported functions become ExternalFuncs that are executed by a
// host hook; the function index space lists them before the module's own functions.
func NewStore(m *wasm.Module) (*Store, error) {
	s := &Store{
		Types:   m.Types,
		Exports: make(map[string]ExportInst, len(m.Exports)),
	}

	if err := s.allocFuncs(m); err != nil {
		return nil, err
	}
	if err := s.allocGlobals(m); err != nil {
		return nil, err
	}
	if err := s.checkGlobalWrites(); err != nil {
		return nil, err
	}
	for _, t := range m.Tables {
		s.Tables = append(s.Tables, NewTable(t))
	}
	if err := s.resolveExports(m); err != nil {
		return nil, err
	}
	for i, mt := range m.Memories {
		mem, err := NewMemory(mt.Limits)
		if err != nil {
			s.Close()
			return nil, fmt.Errorf("memory %d: %w", i, err)
		}
		s.Mems = append(s.Mems, mem)
	}
	if err := s.initElements(m); err != nil {
		s.Close()
		return nil, err
	}
	if err := s.initData(m); err != nil {
		s.Close()
		return nil, err
	}
	s.Start = m.Start

	Logger().Debug("instantiated module",
		zap.Int("funcs", len(s.Funcs)),
		zap.Int("tables", len(s.Tables)),
		zap.Int("memories", len(s.Mems)),
		zap.Int("globals", len(s.Globals)),
		zap.Int("exports", len(s.Exports)))
	return s, nil
}

func (s *Store) allocFuncs(m *wasm.Module) error {
	for _, imp := range m.Imports {
		if imp.Kind != wasm.ExternalFunction {
			continue
		}
		if imp.Type >= uint32(len(m.Types)) {
			return InvalidTypeIndexError(imp.Type)
		}
		s.Funcs = append(s.Funcs, &ExternalFunc{
			Index:  uint32(len(s.Funcs)),
			Module: imp.Module,
			Field:  imp.Field,
			Type:   m.Types[imp.Type],
		})
	}

	for i, typeidx := range m.Functions {
		if i >= len(m.Code) {
			return InvalidCodeIndexError(i)
		}
		if typeidx >= uint32(len(m.Types)) {
			return InvalidTypeIndexError(typeidx)
		}
		s.Funcs = append(s.Funcs, &InternalFunc{
			Index: uint32(len(s.Funcs)),
			Type:  m.Types[typeidx],
			Body:  &m.Code[i],
		})
	}
	return nil
}

func (s *Store) allocGlobals(m *wasm.Module) error {
	for i, g := range m.Globals {
		v, err := EvalConstExpr(g.Init, s.Globals)
		if err != nil {
			return fmt.Errorf("global %d: %w", i, err)
		}
		if v.Type != g.Type.ValueType {
			return fmt.Errorf("global %d: %w", i, &TypeMismatchError{Expected: g.Type.ValueType, Actual: v.Type})
		}
		s.Globals = append(s.Globals, NewGlobal(g.Type, v))
	}
	return nil
}

// checkGlobalWrites rejects modules whose functions set immutable globals.
func (s *Store) checkGlobalWrites() error {
	for _, f := range s.Funcs {
		f, ok := f.(*InternalFunc)
		if !ok {
			continue
		}
		for _, instr := range f.Body.Code {
			if instr.Opcode != wasm.OpGlobalSet {
				continue
			}
			idx := instr.Globalidx()
			if idx < uint32(len(s.Globals)) && !s.Globals[idx].Type.Mutable {
				return &ImmutableGlobalError{Func: f.Index, Global: idx}
			}
		}
	}
	return nil
}

func (s *Store) resolveExports(m *wasm.Module) error {
	for _, exp := range m.Exports {
		switch exp.Kind {
		case wasm.ExternalFunction:
			if exp.Index >= uint32(len(s.Funcs)) {
				return InvalidFuncIndexError(exp.Index)
			}
		case wasm.ExternalTable:
			if exp.Index >= uint32(len(s.Tables)) {
				return InvalidTableIndexError(exp.Index)
			}
		case wasm.ExternalMemory:
			if exp.Index >= uint32(len(m.Memories)) {
				return InvalidMemIndexError(exp.Index)
			}
		case wasm.ExternalGlobal:
			if exp.Index >= uint32(len(s.Globals)) {
				return InvalidGlobalIndexError(exp.Index)
			}
		}
		s.Exports[exp.Name] = ExportInst{Name: exp.Name, Value: ExternalVal{Kind: exp.Kind, Addr: exp.Index}}
	}
	return nil
}

func (s *Store) initElements(m *wasm.Module) error {
	s.elems = make([][]uint32, len(m.Elements))
	s.droppedElems = bitset.New(uint(len(m.Elements)))
	for i, seg := range m.Elements {
		s.elems[i] = seg.Init

		switch seg.Mode {
		case wasm.SegmentPassive:
			continue
		case wasm.SegmentDeclarative:
			s.droppedElems.Set(uint(i))
			continue
		}

		if seg.Table >= uint32(len(s.Tables)) {
			return fmt.Errorf("element segment %d: %w", i, InvalidTableIndexError(seg.Table))
		}
		offset, err := evalOffset(seg.Offset, s.Globals)
		if err != nil {
			return fmt.Errorf("element segment %d: %w", i, err)
		}
		table := s.Tables[seg.Table]
		if uint64(offset)+uint64(len(seg.Init)) > uint64(table.Size()) {
			return fmt.Errorf("element segment %d: %w", i, TrapOutOfBoundsTableAccess)
		}
		for _, funcidx := range seg.Init {
			if funcidx >= uint32(len(s.Funcs)) {
				return fmt.Errorf("element segment %d: %w", i, InvalidFuncIndexError(funcidx))
			}
		}
		for j, funcidx := range seg.Init {
			table.elements[int(offset)+j] = FuncRef(funcidx)
		}
		s.droppedElems.Set(uint(i))
	}
	return nil
}

func (s *Store) initData(m *wasm.Module) error {
	s.datas = make([][]byte, len(m.Data))
	s.droppedData = bitset.New(uint(len(m.Data)))
	for i, seg := range m.Data {
		s.datas[i] = seg.Init
		if seg.Mode != wasm.SegmentActive {
			continue
		}

		if seg.Memory >= uint32(len(s.Mems)) {
			return fmt.Errorf("data segment %d: %w", i, InvalidMemIndexError(seg.Memory))
		}
		offset, err := evalOffset(seg.Offset, s.Globals)
		if err != nil {
			return fmt.Errorf("data segment %d: %w", i, err)
		}
		mem := s.Mems[seg.Memory]
		if uint64(offset)+uint64(len(seg.Init)) > uint64(len(mem.Bytes())) {
			return fmt.Errorf("data segment %d: %w", i, TrapOutOfBoundsMemoryAccess)
		}
		copy(mem.Bytes()[offset:], seg.Init)
		s.droppedData.Set(uint(i))
	}
	return nil
}

// Close releases the store's memories.
func (s *Store) Close() error {
	var first error
	for _, m := range s.Mems {
		if err := m.Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// Type returns the type at the given index.
func (s *Store) Type(typeidx uint32) (wasm.FuncType, error) {
	if typeidx >= uint32(len(s.Types)) {
		return wasm.FuncType{}, InvalidTypeIndexError(typeidx)
	}
	return s.Types[typeidx], nil
}

// Func returns the function at the given address.
func (s *Store) Func(addr uint32) (FuncInst, error) {
	if addr >= uint32(len(s.Funcs)) {
		return nil, InvalidFuncIndexError(addr)
	}
	return s.Funcs[addr], nil
}

// Global returns the global at the given address.
func (s *Store) Global(addr uint32) (*GlobalInst, error) {
	if addr >= uint32(len(s.Globals)) {
		return nil, GlobalNotFoundError(addr)
	}
	return s.Globals[addr], nil
}

// Memory returns the memory at the given address.
func (s *Store) Memory(addr uint32) (*MemInst, error) {
	if addr >= uint32(len(s.Mems)) {
		return nil, InvalidMemIndexError(addr)
	}
	return s.Mems[addr], nil
}

// Table returns the table at the given address.
func (s *Store) Table(addr uint32) (*TableInst, error) {
	if addr >= uint32(len(s.Tables)) {
		return nil, InvalidTableIndexError(addr)
	}
	return s.Tables[addr], nil
}

// Export returns the export with the given name.
func (s *Store) Export(name string) (ExportInst, error) {
	exp, ok := s.Exports[name]
	if !ok {
		return ExportInst{}, ExportNotFoundError(name)
	}
	return exp, nil
}

func (s *Store) export(name string, kind wasm.ExternalKind, kindErr error) (uint32, error) {
	exp, err := s.Export(name)
	if err != nil {
		return 0, err
	}
	if exp.Value.Kind != kind {
		return 0, kindErr
	}
	return exp.Value.Addr, nil
}

// ExportedFunc returns the function exported with the given name.
func (s *Store) ExportedFunc(name string) (FuncInst, error) {
	addr, err := s.export(name, wasm.ExternalFunction, ErrExpectFuncAddr)
	if err != nil {
		return nil, err
	}
	return s.Func(addr)
}

// ExportedGlobal returns the global exported with the given name.
func (s *Store) ExportedGlobal(name string) (*GlobalInst, error) {
	addr, err := s.export(name, wasm.ExternalGlobal, ErrExpectGlobalAddr)
	if err != nil {
		return nil, err
	}
	return s.Global(addr)
}

// ExportedMemory returns the memory exported with the given name.
func (s *Store) ExportedMemory(name string) (*MemInst, error) {
	addr, err := s.export(name, wasm.ExternalMemory, ErrExpectMemAddr)
	if err != nil {
		return nil, err
	}
	return s.Memory(addr)
}

// ExportedTable returns the table exported with the given name.
func (s *Store) ExportedTable(name string) (*TableInst, error) {
	addr, err := s.export(name, wasm.ExternalTable, ErrExpectTableAddr)
	if err != nil {
		return nil, err
	}
	return s.Table(addr)
}

// ElemSegment returns the function indices of an element segment. Dropped segments are empty.
func (s *Store) ElemSegment(elemidx uint32) ([]uint32, error) {
	if elemidx >= uint32(len(s.elems)) {
		return nil, fmt.Errorf("invalid element segment %d", elemidx)
	}
	if s.droppedElems.Test(uint(elemidx)) {
		return nil, nil
	}
	return s.elems[elemidx], nil
}

// DropElem drops an element segment.
func (s *Store) DropElem(elemidx uint32) error {
	if elemidx >= uint32(len(s.elems)) {
		return fmt.Errorf("invalid element segment %d", elemidx)
	}
	s.droppedElems.Set(uint(elemidx))
	return nil
}

// DataSegment returns the bytes of a data segment. Dropped segments are empty.
func (s *Store) DataSegment(dataidx uint32) ([]byte, error) {
	if dataidx >= uint32(len(s.datas)) {
		return nil, fmt.Errorf("invalid data segment %d", dataidx)
	}
	if s.droppedData.Test(uint(dataidx)) {
		return nil, nil
	}
	return s.datas[dataidx], nil
}

// DropData drops a data segment.
func (s *Store) DropData(dataidx uint32) error {
	if dataidx >= uint32(len(s.datas)) {
		return fmt.Errorf("invalid data segment %d", dataidx)
	}
	s.droppedData.Set(uint(dataidx))
	return nil
}
