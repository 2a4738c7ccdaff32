package run

import (
	"bytes"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wasmarch/wasmarch/exec"
	"github.com/wasmarch/wasmarch/load"
	"github.com/wasmarch/wasmarch/wasm"
	"github.com/wasmarch/wasmarch/wasm/trace"
)

var (
	i32 = wasm.ValueTypeI32
	i64 = wasm.ValueTypeI64
)

// writeModule writes a module whose start function logs 42. It exports inc, which increments and returns
// a counter, add, and pair, which returns two results.
func writeModule(t *testing.T) string {
	m := &wasm.Module{
		Version: wasm.Version,
		Types: []wasm.FuncType{
			{Params: []wasm.ValueType{i32}},
			{},
			{Results: []wasm.ValueType{i32}},
			{Params: []wasm.ValueType{i32, i32}, Results: []wasm.ValueType{i32}},
			{Results: []wasm.ValueType{i32, i64}},
		},
		Imports:   []wasm.Import{{Module: "std", Field: "log_i32", Kind: wasm.ExternalFunction, Type: 0}},
		Functions: []uint32{1, 2, 3, 4},
		Memories:  []wasm.MemoryType{{Limits: wasm.Limits{Min: 1}}},
		Globals:   []wasm.Global{{Type: wasm.GlobalType{ValueType: i32, Mutable: true}, Init: wasm.I32Const(0)}},
		Exports: []wasm.Export{
			{Name: "inc", Kind: wasm.ExternalFunction, Index: 2},
			{Name: "add", Kind: wasm.ExternalFunction, Index: 3},
			{Name: "pair", Kind: wasm.ExternalFunction, Index: 4},
		},
		Start: new(uint32),
		Code: []wasm.FuncBody{
			{Code: []wasm.Instruction{wasm.I32Const(42), wasm.Call(0), wasm.End()}},
			{Code: []wasm.Instruction{
				wasm.GlobalGet(0), wasm.I32Const(1), wasm.Op(wasm.OpI32Add), wasm.GlobalSet(0),
				wasm.GlobalGet(0),
				wasm.End(),
			}},
			{Code: []wasm.Instruction{wasm.LocalGet(0), wasm.LocalGet(1), wasm.Op(wasm.OpI32Add), wasm.End()}},
			{Code: []wasm.Instruction{wasm.I32Const(-1), wasm.I64Const(1 << 40), wasm.End()}},
		},
	}
	*m.Start = 1

	b, err := m.EncodeBytes()
	require.NoError(t, err)
	path := filepath.Join(t.TempDir(), "prog.wasm")
	require.NoError(t, os.WriteFile(path, b, 0o600))
	return path
}

func execute(t *testing.T, config *load.Config, args ...string) (string, error) {
	if config == nil {
		config = load.DefaultConfig()
	}
	if args == nil {
		args = []string{}
	}

	var stdout bytes.Buffer
	cmd := Command(config)
	cmd.SetArgs(args)
	cmd.SetOut(&stdout)
	cmd.SetErr(&stdout)
	cmd.SilenceUsage = true
	err := cmd.Execute()
	return stdout.String(), err
}

func TestRunStart(t *testing.T) {
	out, err := execute(t, nil, writeModule(t))
	require.NoError(t, err)
	assert.Equal(t, "42\n", out)
}

func TestRunInvoke(t *testing.T) {
	path := writeModule(t)

	out, err := execute(t, nil, path, "--invoke", "add", "2", "3")
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:5\n", out)

	out, err = execute(t, nil, path, "-i", "pair")
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:-1 i64:1099511627776\n", out)

	_, err = execute(t, nil, path, "-i", "add", "2")
	assert.Error(t, err)

	_, err = execute(t, nil, path, "-i", "add", "2", "x")
	assert.Error(t, err)

	_, err = execute(t, nil, path, "-i", "missing")
	var notFound exec.ExportNotFoundError
	assert.True(t, errors.As(err, &notFound))

	_, err = execute(t, nil)
	assert.Error(t, err)
}

func TestRunConfig(t *testing.T) {
	path := writeModule(t)

	config, err := load.ParseConfig(`
invoke = "add"
args = ["4", "5"]
`)
	require.NoError(t, err)

	out, err := execute(t, config, path)
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:9\n", out)

	// Flags win over the file.
	_, err = execute(t, config, path, "--invoke", "inc")
	require.Error(t, err, "inc takes no arguments but the file supplies two")

	out, err = execute(t, config, path, "--invoke", "add", "1", "1")
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:2\n", out)

	_, err = execute(t, nil, path, "--mode", "sketch")
	assert.Error(t, err)
}

func TestRunFuel(t *testing.T) {
	path := writeModule(t)

	_, err := execute(t, nil, path, "--fuel", "2")
	assert.ErrorIs(t, err, exec.ErrFuelExhausted)

	out, err := execute(t, nil, path, "--fuel", "100", "-i", "inc")
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:1\n", out)
}

func TestRunState(t *testing.T) {
	path := writeModule(t)
	state := filepath.Join(t.TempDir(), "state.cbor")

	out, err := execute(t, nil, path, "-i", "inc", "--save-state", state)
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:1\n", out)

	out, err = execute(t, nil, path, "-i", "inc", "--load-state", state, "--save-state", state)
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:2\n", out)

	out, err = execute(t, nil, path, "-i", "inc", "--load-state", state)
	require.NoError(t, err)
	assert.Equal(t, "42\ni32:3\n", out)

	_, err = execute(t, nil, path, "--load-state", filepath.Join(t.TempDir(), "missing"))
	assert.Error(t, err)
}

func TestRunTrace(t *testing.T) {
	path := writeModule(t)
	tracePath := filepath.Join(t.TempDir(), "trace.bin")

	_, err := execute(t, nil, path, "-i", "add", "1", "2", "--trace", tracePath)
	require.NoError(t, err)

	f, err := os.Open(tracePath)
	require.NoError(t, err)
	defer f.Close()

	entries, err := trace.Decode(f)
	require.NoError(t, err)
	require.NotEmpty(t, entries)
	assert.Equal(t, trace.EntryKind(trace.EntryEnter), entries[0].Kind())
}
