package exec

import (
	"fmt"
	"reflect"
	"sort"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/wasmarch/wasmarch/wasm"
)

// A HostFunc is a Go method exposed to WASM modules as an importable function.
//
// A variadic method accepts any import whose trailing parameters all have the variadic element's type.
type HostFunc struct {
	Name     string
	Type     wasm.FuncType
	Variadic bool

	method   reflect.Value
	hasError bool
}

func newHostFunc(name string, method reflect.Value) (*HostFunc, error) {
	t := method.Type()

	f := &HostFunc{Name: name, Variadic: t.IsVariadic(), method: method}
	for i, n := 0, t.NumIn(); i < n; i++ {
		in := t.In(i)
		if f.Variadic && i == n-1 {
			in = in.Elem()
		}
		vt := wasmType(in.Kind())
		if vt == 0 {
			return nil, fmt.Errorf("cannot export method %s with parameter type %v", name, in)
		}
		f.Type.Params = append(f.Type.Params, vt)
	}

	nout := t.NumOut()
	if nout > 0 && t.Out(nout-1) == errorType {
		f.hasError, nout = true, nout-1
	}
	if nout > 1 {
		return nil, fmt.Errorf("cannot export method %s with %d results", name, nout)
	}
	for i := 0; i < nout; i++ {
		vt := wasmType(t.Out(i).Kind())
		if vt == 0 {
			return nil, fmt.Errorf("cannot export method %s with result type %v", name, t.Out(i))
		}
		f.Type.Results = append(f.Type.Results, vt)
	}
	return f, nil
}

// Accepts returns true if the function can be imported with the given type.
func (f *HostFunc) Accepts(typ wasm.FuncType) bool {
	if !f.Variadic {
		return f.Type.Equals(typ)
	}

	fixed := len(f.Type.Params) - 1
	if len(typ.Params) < fixed || !valueTypesEqual(typ.Results, f.Type.Results) {
		return false
	}
	if !valueTypesEqual(typ.Params[:fixed], f.Type.Params[:fixed]) {
		return false
	}
	for _, p := range typ.Params[fixed:] {
		if p != f.Type.Params[fixed] {
			return false
		}
	}
	return true
}

func valueTypesEqual(a, b []wasm.ValueType) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

// Call calls the method with the given arguments. The result is None if the method returns nothing.
func (f *HostFunc) Call(args []Val) (Val, error) {
	t := f.method.Type()
	if !f.Variadic && len(args) != t.NumIn() {
		return None, fmt.Errorf("%s: expected %d args; got %d", f.Name, t.NumIn(), len(args))
	}

	vargs := make([]reflect.Value, len(args))
	for i, arg := range args {
		var in reflect.Type
		switch {
		case f.Variadic && i >= t.NumIn()-1:
			in = t.In(t.NumIn() - 1).Elem()
		default:
			in = t.In(i)
		}
		vargs[i] = toReflect(arg, in)
	}

	vreturns := f.method.Call(vargs)
	if f.hasError {
		last := vreturns[len(vreturns)-1]
		if !last.IsNil() {
			return None, last.Interface().(error)
		}
		vreturns = vreturns[:len(vreturns)-1]
	}
	if len(vreturns) == 0 {
		return None, nil
	}
	return fromReflect(vreturns[0]), nil
}

// A HostModule is a named set of host functions. The functions are the exported methods of a Go value;
// each method is exported under the snake_case form of its name, so LogI32 is imported as log_i32.
type HostModule struct {
	name  string
	funcs map[string]*HostFunc
}

// NewHostModule creates a host module from the exported methods of v. Methods whose signatures cannot be
// expressed in WASM types are reported as an error.
func NewHostModule(name string, v interface{}) (*HostModule, error) {
	m := &HostModule{name: name, funcs: map[string]*HostFunc{}}

	value := reflect.ValueOf(v)
	t := value.Type()
	for i, n := 0, t.NumMethod(); i < n; i++ {
		method := t.Method(i)
		if !isExported(method.Name) {
			continue
		}
		f, err := newHostFunc(exportName(method.Name), value.Method(i))
		if err != nil {
			return nil, err
		}
		m.funcs[f.Name] = f
	}
	return m, nil
}

// Name returns the module name used by imports.
func (m *HostModule) Name() string {
	return m.name
}

// Func returns the function with the given field name.
func (m *HostModule) Func(field string) (*HostFunc, bool) {
	f, ok := m.funcs[field]
	return f, ok
}

// Fields returns the module's field names in sorted order.
func (m *HostModule) Fields() []string {
	fields := make([]string, 0, len(m.funcs))
	for name := range m.funcs {
		fields = append(fields, name)
	}
	sort.Strings(fields)
	return fields
}

func isExported(n string) bool {
	r, _ := utf8.DecodeRuneInString(n)
	return unicode.IsUpper(r)
}

// exportName converts a Go method name to snake case.
func exportName(n string) string {
	runes := []rune(n)

	var b strings.Builder
	for i, r := range runes {
		if unicode.IsUpper(r) && i > 0 {
			prev := runes[i-1]
			nextLower := i+1 < len(runes) && unicode.IsLower(runes[i+1])
			if unicode.IsLower(prev) || unicode.IsDigit(prev) || (unicode.IsUpper(prev) && nextLower) {
				b.WriteByte('_')
			}
		}
		b.WriteRune(unicode.ToLower(r))
	}
	return b.String()
}
