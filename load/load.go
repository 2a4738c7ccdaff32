// Package load reads WASM modules from files and file systems and prepares them for execution.
package load

import (
	"bufio"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"github.com/wasmarch/wasmarch/wasm"
)

// ErrNotBinary is returned for input that does not start with the WASM binary magic number.
var ErrNotBinary = errors.New("not a binary WASM module")

// LoadModule decodes a binary module from r.
func LoadModule(r io.Reader) (*wasm.Module, error) {
	br := bufio.NewReader(r)

	buf, err := br.Peek(4)
	if err != nil {
		if err == io.EOF {
			err = wasm.ErrUnexpectedEOF
		}
		return nil, err
	}
	if binary.LittleEndian.Uint32(buf) != wasm.Magic {
		return nil, ErrNotBinary
	}
	return wasm.DecodeModule(br)
}

// LoadFS loads the module with the given name from fsys. The name is tried as given and with a .wasm
// extension.
func LoadFS(fsys fs.FS, name string) (*wasm.Module, error) {
	for _, ext := range []string{"", ".wasm"} {
		f, err := fsys.Open(name + ext)
		if err != nil {
			continue
		}
		defer f.Close()

		if info, err := f.Stat(); err == nil && info.IsDir() {
			continue
		}
		m, err := LoadModule(f)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", name+ext, err)
		}
		return m, nil
	}
	return nil, fmt.Errorf("module %q: %w", name, fs.ErrNotExist)
}

// LoadFile loads the module at the given path.
func LoadFile(path string) (*wasm.Module, error) {
	dir, name := filepath.Split(path)
	if dir == "" {
		dir = "."
	}
	return LoadFS(os.DirFS(dir), name)
}
