// Copyright 2018 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package leb128 provides functions for reading and writing integers in the
// LEB128 variable-length encoding used by the WebAssembly binary format.
package leb128

import (
	"errors"
	"io"
)

// ErrOverflow is returned when an encoded integer does not fit in the requested width.
var ErrOverflow = errors.New("leb128: integer representation too long")

func readByte(r io.Reader, first bool) (byte, error) {
	if br, ok := r.(io.ByteReader); ok {
		b, err := br.ReadByte()
		if err == io.EOF && !first {
			err = io.ErrUnexpectedEOF
		}
		return b, err
	}

	var buf [1]byte
	if _, err := io.ReadFull(r, buf[:]); err != nil {
		if err == io.EOF && !first {
			err = io.ErrUnexpectedEOF
		}
		return 0, err
	}
	return buf[0], nil
}

func readUnsigned(r io.Reader, bits uint) (uint64, error) {
	var result uint64
	var shift uint
	for i := 0; ; i++ {
		b, err := readByte(r, i == 0)
		if err != nil {
			return 0, err
		}
		if shift >= bits || (bits-shift < 7 && uint64(b&0x7f)>>(bits-shift) != 0) {
			return 0, ErrOverflow
		}
		result |= uint64(b&0x7f) << shift
		if b&0x80 == 0 {
			return result, nil
		}
		shift += 7
	}
}

func readSigned(r io.Reader, bits uint) (int64, error) {
	var result int64
	var shift uint
	var b byte
	for i := 0; ; i++ {
		var err error
		if b, err = readByte(r, i == 0); err != nil {
			return 0, err
		}
		if shift >= bits {
			return 0, ErrOverflow
		}
		if bits-shift < 7 {
			// The unused bits of the final byte must be a sign extension of the last used bit.
			rest := int8(b<<1) >> (bits - shift)
			if b&0x80 != 0 || (rest != 0 && rest != -1) {
				return 0, ErrOverflow
			}
		}
		result |= int64(b&0x7f) << shift
		shift += 7
		if b&0x80 == 0 {
			break
		}
	}
	if shift < 64 && b&0x40 != 0 {
		result |= -1 << shift
	}
	return result, nil
}

// ReadVarUint32 reads a LEB128-encoded unsigned 32-bit integer from r.
func ReadVarUint32(r io.Reader) (uint32, error) {
	v, err := readUnsigned(r, 32)
	return uint32(v), err
}

// ReadVarUint64 reads a LEB128-encoded unsigned 64-bit integer from r.
func ReadVarUint64(r io.Reader) (uint64, error) {
	return readUnsigned(r, 64)
}

// ReadVarint32 reads a LEB128-encoded signed 32-bit integer from r.
func ReadVarint32(r io.Reader) (int32, error) {
	v, err := readSigned(r, 32)
	return int32(v), err
}

// ReadVarint33 reads a LEB128-encoded signed 33-bit integer from r. Block types use this encoding.
func ReadVarint33(r io.Reader) (int64, error) {
	return readSigned(r, 33)
}

// ReadVarint64 reads a LEB128-encoded signed 64-bit integer from r.
func ReadVarint64(r io.Reader) (int64, error) {
	return readSigned(r, 64)
}
