// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package wasm

import (
	"fmt"
	"io"
	"strings"

	"github.com/wasmarch/wasmarch/wasm/leb128"
)

// ValueType represents the type of a valid value in Wasm.
type ValueType uint8

const (
	ValueTypeI32       ValueType = 0x7f
	ValueTypeI64       ValueType = 0x7e
	ValueTypeF32       ValueType = 0x7d
	ValueTypeF64       ValueType = 0x7c
	ValueTypeFuncRef   ValueType = 0x70
	ValueTypeExternRef ValueType = 0x6f
)

func (t ValueType) String() string {
	switch t {
	case ValueTypeI32:
		return "i32"
	case ValueTypeI64:
		return "i64"
	case ValueTypeF32:
		return "f32"
	case ValueTypeF64:
		return "f64"
	case ValueTypeFuncRef:
		return "funcref"
	case ValueTypeExternRef:
		return "externref"
	default:
		return fmt.Sprintf("<unknown value_type %d>", uint8(t))
	}
}

// IsRef returns true if the type is a reference type.
func (t ValueType) IsRef() bool {
	return t == ValueTypeFuncRef || t == ValueTypeExternRef
}

func readValueType(r io.Reader) (ValueType, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, err
	}
	switch t := ValueType(b); t {
	case ValueTypeI32, ValueTypeI64, ValueTypeF32, ValueTypeF64, ValueTypeFuncRef, ValueTypeExternRef:
		return t, nil
	default:
		return 0, InvalidValueTypeError(b)
	}
}

func readRefType(r io.Reader) (ValueType, error) {
	b, err := readByte(r)
	if err != nil {
		return 0, err
	}
	switch t := ValueType(b); t {
	case ValueTypeFuncRef, ValueTypeExternRef:
		return t, nil
	default:
		return 0, InvalidRefTypeError(b)
	}
}

func readValueTypes(r io.Reader) ([]ValueType, error) {
	count, err := leb128.ReadVarUint32(r)
	if err != nil {
		return nil, err
	}
	if count == 0 {
		return nil, nil
	}
	types := make([]ValueType, 0, getInitialCap(count))
	for i := uint32(0); i < count; i++ {
		t, err := readValueType(r)
		if err != nil {
			return nil, err
		}
		types = append(types, t)
	}
	return types, nil
}

func writeValueTypes(w io.Writer, types []ValueType) error {
	if _, err := leb128.WriteVarUint32(w, uint32(len(types))); err != nil {
		return err
	}
	for _, t := range types {
		if err := writeByte(w, byte(t)); err != nil {
			return err
		}
	}
	return nil
}

// TypeFunc is the tag that introduces a function type.
const TypeFunc = 0x60

// FuncType is the signature of a function. Function types are compared structurally.
type FuncType struct {
	Params  []ValueType `json:"params"`
	Results []ValueType `json:"results"`
}

// Equals returns true if the two function types have identical parameters and results.
func (f FuncType) Equals(other FuncType) bool {
	if len(f.Params) != len(other.Params) || len(f.Results) != len(other.Results) {
		return false
	}
	for i := range f.Params {
		if f.Params[i] != other.Params[i] {
			return false
		}
	}
	for i := range f.Results {
		if f.Results[i] != other.Results[i] {
			return false
		}
	}
	return true
}

func (f FuncType) String() string {
	var b strings.Builder
	b.WriteString("(func")
	if len(f.Params) != 0 {
		b.WriteString(" (param")
		for _, p := range f.Params {
			b.WriteString(" " + p.String())
		}
		b.WriteString(")")
	}
	if len(f.Results) != 0 {
		b.WriteString(" (result")
		for _, r := range f.Results {
			b.WriteString(" " + r.String())
		}
		b.WriteString(")")
	}
	b.WriteString(")")
	return b.String()
}

// UnmarshalWASM reads a function type, including its 0x60 tag.
func (f *FuncType) UnmarshalWASM(r io.Reader) error {
	tag, err := readByte(r)
	if err != nil {
		return err
	}
	if tag != TypeFunc {
		return InvalidTypeKindError(tag)
	}
	if f.Params, err = readValueTypes(r); err != nil {
		return err
	}
	f.Results, err = readValueTypes(r)
	return err
}

// MarshalWASM writes a function type, including its 0x60 tag.
func (f *FuncType) MarshalWASM(w io.Writer) error {
	if err := writeByte(w, TypeFunc); err != nil {
		return err
	}
	if err := writeValueTypes(w, f.Params); err != nil {
		return err
	}
	return writeValueTypes(w, f.Results)
}

// Limits describes the size bounds of a table or memory. Max is only meaningful if HasMax is set.
type Limits struct {
	Min    uint32 `json:"min"`
	Max    uint32 `json:"max,omitempty"`
	HasMax bool   `json:"hasMax"`
}

func (l Limits) String() string {
	if l.HasMax {
		return fmt.Sprintf("%d %d", l.Min, l.Max)
	}
	return fmt.Sprintf("%d", l.Min)
}

// UnmarshalWASM reads limits: flag 0x00 is followed by the minimum, 0x01 by the minimum and maximum.
func (l *Limits) UnmarshalWASM(r io.Reader) error {
	flags, err := readByte(r)
	if err != nil {
		return err
	}
	switch flags {
	case 0x00, 0x01:
	default:
		return InvalidLimitsKindError(flags)
	}
	if l.Min, err = leb128.ReadVarUint32(r); err != nil {
		return err
	}
	l.HasMax = flags == 0x01
	if l.HasMax {
		l.Max, err = leb128.ReadVarUint32(r)
	}
	return err
}

// MarshalWASM writes limits.
func (l *Limits) MarshalWASM(w io.Writer) error {
	flags := byte(0x00)
	if l.HasMax {
		flags = 0x01
	}
	if err := writeByte(w, flags); err != nil {
		return err
	}
	if _, err := leb128.WriteVarUint32(w, l.Min); err != nil {
		return err
	}
	if l.HasMax {
		if _, err := leb128.WriteVarUint32(w, l.Max); err != nil {
			return err
		}
	}
	return nil
}

// TableType describes a table of references.
type TableType struct {
	ElemType ValueType `json:"elemType"`
	Limits   Limits    `json:"limits"`
}

func (t *TableType) UnmarshalWASM(r io.Reader) error {
	var err error
	if t.ElemType, err = readRefType(r); err != nil {
		return err
	}
	return t.Limits.UnmarshalWASM(r)
}

func (t *TableType) MarshalWASM(w io.Writer) error {
	if err := writeByte(w, byte(t.ElemType)); err != nil {
		return err
	}
	return t.Limits.MarshalWASM(w)
}

// MemoryType describes a linear memory. Limits are in units of 64KiB pages.
type MemoryType struct {
	Limits Limits `json:"limits"`
}

func (m *MemoryType) UnmarshalWASM(r io.Reader) error {
	return m.Limits.UnmarshalWASM(r)
}

func (m *MemoryType) MarshalWASM(w io.Writer) error {
	return m.Limits.MarshalWASM(w)
}

// GlobalType describes the type and mutability of a global.
type GlobalType struct {
	ValueType ValueType `json:"valueType"`
	Mutable   bool      `json:"mutable"`
}

func (g *GlobalType) UnmarshalWASM(r io.Reader) error {
	var err error
	if g.ValueType, err = readValueType(r); err != nil {
		return err
	}
	mut, err := readByte(r)
	if err != nil {
		return err
	}
	switch mut {
	case 0x00:
		g.Mutable = false
	case 0x01:
		g.Mutable = true
	default:
		return InvalidMutabilityError(mut)
	}
	return nil
}

func (g *GlobalType) MarshalWASM(w io.Writer) error {
	if err := writeByte(w, byte(g.ValueType)); err != nil {
		return err
	}
	mut := byte(0x00)
	if g.Mutable {
		mut = 0x01
	}
	return writeByte(w, mut)
}

// ExternalKind identifies the kind of an import or export.
type ExternalKind uint8

const (
	ExternalFunction ExternalKind = 0
	ExternalTable    ExternalKind = 1
	ExternalMemory   ExternalKind = 2
	ExternalGlobal   ExternalKind = 3
)

func (e ExternalKind) String() string {
	switch e {
	case ExternalFunction:
		return "function"
	case ExternalTable:
		return "table"
	case ExternalMemory:
		return "memory"
	case ExternalGlobal:
		return "global"
	default:
		return "<unknown external_kind>"
	}
}
