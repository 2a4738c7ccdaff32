// Package stdlib implements the std host module: simple logging and randomness for guest programs.
package stdlib

import (
	"fmt"
	"io"
	"math/rand"

	"github.com/wasmarch/wasmarch/exec"
)

// ModuleName is the import module name of the std host module.
const ModuleName = "std"

// Std implements the std host module's functions. Each exported method is imported under its snake_case
// name, e.g. LogI32x2 as log_i32x2.
type Std struct {
	w    io.Writer
	rand *rand.Rand
}

// New creates a std module that writes its output to w and draws random values from the given seed.
func New(w io.Writer, seed int64) *Std {
	return &Std{w: w, rand: rand.New(rand.NewSource(seed))}
}

// NewModule creates the std host module. Std's exported methods are exactly the module's functions.
func NewModule(w io.Writer, seed int64) (*exec.HostModule, error) {
	return exec.NewHostModule(ModuleName, New(w, seed))
}

// Hook returns a host hook that resolves imports against the std module.
func Hook(w io.Writer, seed int64) (exec.HostHook, error) {
	m, err := NewModule(w, seed)
	if err != nil {
		return nil, err
	}
	return exec.NewHostResolver(m).Call, nil
}

func (s *Std) println(args ...interface{}) error {
	for i, arg := range args {
		if i > 0 {
			if _, err := io.WriteString(s.w, ", "); err != nil {
				return err
			}
		}
		if _, err := fmt.Fprint(s.w, arg); err != nil {
			return err
		}
	}
	_, err := io.WriteString(s.w, "\n")
	return err
}

func (s *Std) Newline() error {
	return s.println()
}

func (s *Std) LogI32(a int32) error {
	return s.println(a)
}

func (s *Std) LogI32x2(a, b int32) error {
	return s.println(a, b)
}

func (s *Std) LogI32x3(a, b, c int32) error {
	return s.println(a, b, c)
}

func (s *Std) LogI64(a int64) error {
	return s.println(a)
}

func (s *Std) LogI64x2(a, b int64) error {
	return s.println(a, b)
}

func (s *Std) LogI64x3(a, b, c int64) error {
	return s.println(a, b, c)
}

func (s *Std) LogF32(a float32) error {
	return s.println(a)
}

func (s *Std) LogF32x2(a, b float32) error {
	return s.println(a, b)
}

func (s *Std) LogF32x3(a, b, c float32) error {
	return s.println(a, b, c)
}

func (s *Std) LogF64(a float64) error {
	return s.println(a)
}

func (s *Std) LogF64x2(a, b float64) error {
	return s.println(a, b)
}

func (s *Std) LogF64x3(a, b, c float64) error {
	return s.println(a, b, c)
}

// RandomBool returns a uniformly random boolean, passed to the guest as an i32.
func (s *Std) RandomBool() bool {
	return s.rand.Intn(2) == 1
}
