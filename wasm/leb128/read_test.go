// Copyright 2018 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leb128

import (
	"bytes"
	"fmt"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
)

var casesUint = []struct {
	v uint32
	b []byte
}{
	{v: 0, b: []byte{0x00}},
	{v: 8, b: []byte{0x08}},
	{v: 127, b: []byte{0x7f}},
	{v: 128, b: []byte{0x80, 0x01}},
	{v: 624485, b: []byte{0xe5, 0x8e, 0x26}},
	{v: 0xffffffff, b: []byte{0xff, 0xff, 0xff, 0xff, 0x0f}},
}

var casesInt = []struct {
	v int64
	b []byte
}{
	{v: 0, b: []byte{0x00}},
	{v: 2, b: []byte{0x02}},
	{v: -2, b: []byte{0x7e}},
	{v: 63, b: []byte{0x3f}},
	{v: 64, b: []byte{0xc0, 0x00}},
	{v: -64, b: []byte{0x40}},
	{v: -65, b: []byte{0xbf, 0x7f}},
	{v: -123456, b: []byte{0xc0, 0xbb, 0x78}},
	{v: 2147483647, b: []byte{0xff, 0xff, 0xff, 0xff, 0x07}},
	{v: -2147483648, b: []byte{0x80, 0x80, 0x80, 0x80, 0x78}},
}

func TestReadVarUint32(t *testing.T) {
	for _, c := range casesUint {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			v, err := ReadVarUint32(bytes.NewReader(c.b))
			assert.NoError(t, err)
			assert.Equal(t, c.v, v)
		})
	}
}

func TestReadVarint64(t *testing.T) {
	for _, c := range casesInt {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			v, err := ReadVarint64(bytes.NewReader(c.b))
			assert.NoError(t, err)
			assert.Equal(t, c.v, v)
		})
	}
}

func TestReadVarint32Boundaries(t *testing.T) {
	v, err := ReadVarint32(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x07}))
	assert.NoError(t, err)
	assert.Equal(t, int32(2147483647), v)

	_, err = ReadVarint32(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x4f}))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReadVarUint32Overflow(t *testing.T) {
	_, err := ReadVarUint32(bytes.NewReader([]byte{0xff, 0xff, 0xff, 0xff, 0x1f}))
	assert.ErrorIs(t, err, ErrOverflow)

	_, err = ReadVarUint32(bytes.NewReader([]byte{0x80, 0x80, 0x80, 0x80, 0x80, 0x00}))
	assert.ErrorIs(t, err, ErrOverflow)
}

func TestReadEOF(t *testing.T) {
	_, err := ReadVarUint32(bytes.NewReader(nil))
	assert.Equal(t, io.EOF, err)

	_, err = ReadVarUint32(bytes.NewReader([]byte{0x80}))
	assert.Equal(t, io.ErrUnexpectedEOF, err)

	_, err = ReadVarint64(bytes.NewReader([]byte{0xff, 0xff}))
	assert.Equal(t, io.ErrUnexpectedEOF, err)
}

func TestReadVarint33(t *testing.T) {
	v, err := ReadVarint33(bytes.NewReader([]byte{0x40}))
	assert.NoError(t, err)
	assert.Equal(t, int64(-64), v)

	v, err = ReadVarint33(bytes.NewReader([]byte{0x05}))
	assert.NoError(t, err)
	assert.Equal(t, int64(5), v)
}
