package exec

import (
	"errors"
	"runtime"
	"strings"
)

// A Trap represents a WASM trap. Traps abort the current invocation.
type Trap string

func (t Trap) Error() string {
	return string(t)
}

// TrapUnreachable indicates execution of unreachable code.
var TrapUnreachable = Trap("unreachable")

// TrapUndefinedElement indicates an attempt to access a table with an index that is out of bounds.
var TrapUndefinedElement = Trap("undefined element")

// TrapUninitializedElement indicates an attempt to call through a null table element.
var TrapUninitializedElement = Trap("uninitialized element")

// TrapIndirectCallTypeMismatch indicates a mismatch between the expected and actual signature of a function.
var TrapIndirectCallTypeMismatch = Trap("indirect call type mismatch")

// TrapOutOfBoundsMemoryAccess indicates an out-of-bounds memory access.
var TrapOutOfBoundsMemoryAccess = Trap("out of bounds memory access")

// TrapOutOfBoundsTableAccess indicates an out-of-bounds bulk table operation.
var TrapOutOfBoundsTableAccess = Trap("out of bounds table access")

// TrapIntegerOverflow indicates an integer overflow.
var TrapIntegerOverflow = Trap("integer overflow")

// TrapInvalidConversionToInteger indicates an invalid conversion from a floating-point value to an
// integer.
var TrapInvalidConversionToInteger = Trap("invalid conversion to integer")

// TrapIntegerDivideByZero indicates an attempt to divide by zero.
var TrapIntegerDivideByZero = Trap("integer divide by zero")

// TrapCallStackExhausted indicates call stack exhaustion.
var TrapCallStackExhausted = Trap("call stack exhausted")

// IsTrap returns true if err is or wraps a Trap.
func IsTrap(err error) bool {
	var trap Trap
	return errors.As(err, &trap)
}

// TranslateRuntimeError translates between Go runtime errors and WASM traps.
func TranslateRuntimeError(err runtime.Error) (Trap, bool) {
	switch {
	case err == nil:
		return "", false
	case strings.HasPrefix(err.Error(), "runtime error: index out of range"):
		return TrapOutOfBoundsMemoryAccess, true
	case strings.HasPrefix(err.Error(), "runtime error: slice bounds out of range"):
		return TrapOutOfBoundsMemoryAccess, true
	case strings.HasPrefix(err.Error(), "runtime error: integer divide by zero"):
		return TrapIntegerDivideByZero, true
	default:
		return "", false
	}
}

// RecoverTrap converts the result of a call to recover() into an error. Traps and Go runtime errors that
// correspond to traps are returned as Traps; errors raised with panic are returned as-is. Anything else is
// re-raised. It should be called like so:
//
//	defer func() { err = exec.RecoverTrap(recover(), err) }()
func RecoverTrap(x interface{}, err error) error {
	switch x := x.(type) {
	case nil:
		return err
	case Trap:
		return x
	case runtime.Error:
		if trap, ok := TranslateRuntimeError(x); ok {
			return trap
		}
		panic(x)
	case error:
		return x
	default:
		panic(x)
	}
}
