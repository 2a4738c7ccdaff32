package exec

import (
	"go.uber.org/zap"
)

// A HostResolver resolves external functions to the host modules that implement them.
type HostResolver map[string]*HostModule

// NewHostResolver creates a resolver for the given host modules.
func NewHostResolver(modules ...*HostModule) HostResolver {
	r := HostResolver{}
	for _, m := range modules {
		r[m.Name()] = m
	}
	return r
}

// Resolve returns the host function that implements f.
func (r HostResolver) Resolve(f *ExternalFunc) (*HostFunc, error) {
	m, ok := r[f.Module]
	if !ok {
		return nil, &ImportNotFoundError{Module: f.Module, Field: f.Field}
	}
	hf, ok := m.Func(f.Field)
	if !ok {
		return nil, &ImportNotFoundError{Module: f.Module, Field: f.Field}
	}
	if !hf.Accepts(f.Type) {
		return nil, &InvalidImportError{Module: f.Module, Field: f.Field, Expected: f.Type, Actual: hf.Type}
	}
	return hf, nil
}

// Check verifies that every external function in the store resolves.
func (r HostResolver) Check(s *Store) error {
	for _, f := range s.Funcs {
		if f, ok := f.(*ExternalFunc); ok {
			if _, err := r.Resolve(f); err != nil {
				return err
			}
		}
	}
	return nil
}

// Call is a HostHook that dispatches to the resolved host function.
func (r HostResolver) Call(f *ExternalFunc, args []Val) (Val, error) {
	hf, err := r.Resolve(f)
	if err != nil {
		return None, err
	}
	Logger().Debug("host call", zap.String("module", f.Module), zap.String("field", f.Field), zap.Int("args", len(args)))
	return hf.Call(args)
}
