package load

import (
	"io"

	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/interpreter"
	"github.com/wasmarch/wasmarch/wasm"
)

// Instantiate creates a store for m and a runtime that executes its imports with the given host modules.
// Every import must resolve to a host function of a compatible type.
func Instantiate(m *wasm.Module, options interpreter.Options, hosts ...*exec.HostModule) (*interpreter.Runtime, error) {
	store, err := exec.NewStore(m)
	if err != nil {
		return nil, err
	}

	resolver := exec.NewHostResolver(hosts...)
	if err := resolver.Check(store); err != nil {
		store.Close()
		return nil, err
	}

	r := interpreter.NewWithOptions(store, options)
	r.SetHostHook(resolver.Call)
	return r, nil
}

// Options converts the configuration's execution settings into runtime options. trace receives the
// execution trace if the configuration enables tracing.
func (c *Config) Options(trace io.Writer) interpreter.Options {
	options := interpreter.Options{MaxCallDepth: c.MaxCallDepth, Fuel: c.Fuel}
	if c.Trace != "" {
		options.Trace = trace
	}
	return options
}
