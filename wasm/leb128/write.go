// Copyright 2018 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leb128

import "io"

// WriteVarUint32 writes a LEB128-encoded unsigned 32-bit integer to w.
func WriteVarUint32(w io.Writer, v uint32) (int, error) {
	return WriteVarUint64(w, uint64(v))
}

// WriteVarUint64 writes a LEB128-encoded unsigned 64-bit integer to w.
func WriteVarUint64(w io.Writer, v uint64) (int, error) {
	var buf [10]byte
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		if v != 0 {
			b |= 0x80
		}
		buf[n] = b
		n++
		if v == 0 {
			return w.Write(buf[:n])
		}
	}
}

// WriteVarint32 writes a LEB128-encoded signed 32-bit integer to w.
func WriteVarint32(w io.Writer, v int32) (int, error) {
	return WriteVarint64(w, int64(v))
}

// WriteVarint64 writes a LEB128-encoded signed 64-bit integer to w.
func WriteVarint64(w io.Writer, v int64) (int, error) {
	var buf [10]byte
	n := 0
	for {
		b := byte(v & 0x7f)
		v >>= 7
		done := (v == 0 && b&0x40 == 0) || (v == -1 && b&0x40 != 0)
		if !done {
			b |= 0x80
		}
		buf[n] = b
		n++
		if done {
			return w.Write(buf[:n])
		}
	}
}
