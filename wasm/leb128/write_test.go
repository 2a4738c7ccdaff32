// Copyright 2018 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package leb128

import (
	"bytes"
	"fmt"
	"math/rand"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteVarUint32(t *testing.T) {
	for _, c := range casesUint {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			buf := new(bytes.Buffer)
			_, err := WriteVarUint32(buf, c.v)
			require.NoError(t, err)
			assert.Equal(t, c.b, buf.Bytes())
		})
	}
}

func TestWriteVarint64(t *testing.T) {
	for _, c := range casesInt {
		t.Run(fmt.Sprint(c.v), func(t *testing.T) {
			buf := new(bytes.Buffer)
			_, err := WriteVarint64(buf, c.v)
			require.NoError(t, err)
			assert.Equal(t, c.b, buf.Bytes())
		})
	}
}

func TestWriteReadInt64(t *testing.T) {
	r := rand.New(rand.NewSource(1))

	var buf bytes.Buffer
	for i := 0; i < 100000; i++ {
		n := r.Int63()
		if i%2 == 1 {
			n = -n
		}

		buf.Reset()
		_, err := WriteVarint64(&buf, n)
		require.NoError(t, err)

		v, err := ReadVarint64(&buf)
		require.NoError(t, err)
		require.Equal(t, n, v)
	}
}

func TestWriteReadInt32(t *testing.T) {
	r := rand.New(rand.NewSource(2))

	var buf bytes.Buffer
	for i := 0; i < 100000; i++ {
		n := r.Int31()
		if i%2 == 1 {
			n = -n
		}

		buf.Reset()
		_, err := WriteVarint32(&buf, n)
		require.NoError(t, err)

		v, err := ReadVarint32(&buf)
		require.NoError(t, err)
		require.Equal(t, n, v)
	}
}

func TestWriteReadUint32(t *testing.T) {
	r := rand.New(rand.NewSource(3))

	var buf bytes.Buffer
	for i := 0; i < 100000; i++ {
		n := r.Uint32()

		buf.Reset()
		_, err := WriteVarUint32(&buf, n)
		require.NoError(t, err)

		v, err := ReadVarUint32(&buf)
		require.NoError(t, err)
		require.Equal(t, n, v)
	}
}
