package exec

import (
	"errors"
	"fmt"

	"github.com/wasmarch/wasmarch/wasm"
)

var (
	ErrExpectedInstruction  = errors.New("expected an instruction")
	ErrExpectedValue        = errors.New("expected a value on the operand stack")
	ErrIfConditionNotI32    = errors.New("if condition should be an i32")
	ErrExpectFuncAddr       = errors.New("export is not a function")
	ErrExpectMemAddr        = errors.New("export is not a memory")
	ErrExpectGlobalAddr     = errors.New("export is not a global")
	ErrExpectTableAddr      = errors.New("export is not a table")
	ErrUndefinedBinaryOp    = errors.New("operator is undefined for the operand types")
	ErrUndefinedUnaryOp     = errors.New("operator is undefined for the operand type")
	ErrEmptyCallStack       = errors.New("call stack is empty")
	ErrUnexpectedEndOfInput = errors.New("unexpected end of function body")
	ErrNoHostHook           = errors.New("no host hook registered")
	ErrFuelExhausted        = errors.New("fuel exhausted")
	ErrSnapshotMismatch     = errors.New("snapshot does not match the store")
)

// InvalidTypeIndexError is returned when a type index is out of range.
type InvalidTypeIndexError uint32

func (e InvalidTypeIndexError) Error() string {
	return fmt.Sprintf("invalid type index %d", uint32(e))
}

// InvalidFuncIndexError is returned when a function index is out of range.
type InvalidFuncIndexError uint32

func (e InvalidFuncIndexError) Error() string {
	return fmt.Sprintf("invalid function index %d", uint32(e))
}

// InvalidCodeIndexError is returned when a function has no matching code section entry.
type InvalidCodeIndexError uint32

func (e InvalidCodeIndexError) Error() string {
	return fmt.Sprintf("no code for function %d", uint32(e))
}

// InvalidMemIndexError is returned when a memory index is out of range.
type InvalidMemIndexError uint32

func (e InvalidMemIndexError) Error() string {
	return fmt.Sprintf("invalid memory index %d", uint32(e))
}

// InvalidGlobalIndexError is returned when a global index is out of range.
type InvalidGlobalIndexError uint32

func (e InvalidGlobalIndexError) Error() string {
	return fmt.Sprintf("invalid global index %d", uint32(e))
}

// InvalidTableIndexError is returned when a table index is out of range.
type InvalidTableIndexError uint32

func (e InvalidTableIndexError) Error() string {
	return fmt.Sprintf("invalid table index %d", uint32(e))
}

// ExpectedLabelError is returned when a branch targets a label that does not exist.
type ExpectedLabelError uint32

func (e ExpectedLabelError) Error() string {
	return fmt.Sprintf("no label at depth %d", uint32(e))
}

// LocalNotFoundError is returned when a local index is out of range.
type LocalNotFoundError uint32

func (e LocalNotFoundError) Error() string {
	return fmt.Sprintf("local %d not found", uint32(e))
}

// GlobalNotFoundError is returned when a global index is out of range at run time.
type GlobalNotFoundError uint32

func (e GlobalNotFoundError) Error() string {
	return fmt.Sprintf("global %d not found", uint32(e))
}

// ExportNotFoundError is returned when a name does not refer to an export.
type ExportNotFoundError string

func (e ExportNotFoundError) Error() string {
	return fmt.Sprintf("export %q not found", string(e))
}

// UnsupportedOpcodeError is returned when the interpreter reaches an instruction it cannot execute.
type UnsupportedOpcodeError wasm.Opcode

func (e UnsupportedOpcodeError) Error() string {
	return fmt.Sprintf("unsupported opcode %v", wasm.Opcode(e))
}

// TypeMismatchError is returned when a value does not have the expected type.
type TypeMismatchError struct {
	Expected wasm.ValueType
	Actual   wasm.ValueType
}

func (e *TypeMismatchError) Error() string {
	return fmt.Sprintf("type mismatch: expected %v, got %v", e.Expected, e.Actual)
}

// ImmutableGlobalError is returned by NewStore if a function body sets an immutable global.
type ImmutableGlobalError struct {
	Func   uint32
	Global uint32
}

func (e *ImmutableGlobalError) Error() string {
	return fmt.Sprintf("function %d sets immutable global %d", e.Func, e.Global)
}

// ImportNotFoundError is returned when a host import cannot be resolved.
type ImportNotFoundError struct {
	Module string
	Field  string
}

func (e *ImportNotFoundError) Error() string {
	return fmt.Sprintf("import %s.%s not found", e.Module, e.Field)
}

// InvalidImportError is returned when a host function's signature does not match its import declaration.
type InvalidImportError struct {
	Module   string
	Field    string
	Expected wasm.FuncType
	Actual   wasm.FuncType
}

func (e *InvalidImportError) Error() string {
	return fmt.Sprintf("invalid signature for import %s.%s: expected %v, got %v", e.Module, e.Field, e.Expected, e.Actual)
}
