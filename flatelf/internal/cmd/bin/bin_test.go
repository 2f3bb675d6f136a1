// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"bytes"
	"encoding/binary"
	"testing"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWriteBin(t *testing.T) {
	var buf bytes.Buffer
	img := &flat.Image{Entry: 0x8004, Base: 0x8000, Data: []byte{1, 0, 0, 2}}
	require.NoError(t, writeBin(&buf, img))
	assert.Equal(t, img.Data, buf.Bytes())
}

func TestWriteUF2(t *testing.T) {
	data := make([]byte, 600)
	for i := range data {
		data[i] = byte(i)
	}
	img := &flat.Image{Entry: 0x10000100, Base: 0x10000000, Data: data}
	id, flags, err := parseFamily("rp2040")
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, writeUF2(&buf, img, flags, id))
	require.Equal(t, 3*512, buf.Len())

	le := binary.LittleEndian
	out := buf.Bytes()
	for i := 0; i < 3; i++ {
		b := out[i*512 : (i+1)*512]
		assert.Equal(t, uint32(uf2Magic0), le.Uint32(b[0:]))
		assert.Equal(t, uint32(uf2Magic1), le.Uint32(b[4:]))
		assert.Equal(t, uint32(uf2FamilyIDPresent), le.Uint32(b[8:]))
		assert.Equal(t, uint32(0x10000000+i*256), le.Uint32(b[12:]))
		assert.Equal(t, uint32(256), le.Uint32(b[16:]))
		assert.Equal(t, uint32(i), le.Uint32(b[20:]))
		assert.Equal(t, uint32(3), le.Uint32(b[24:]))
		assert.Equal(t, uint32(0xe48bff56), le.Uint32(b[28:]))
		assert.Equal(t, uint32(uf2Magic2), le.Uint32(b[508:]))
	}
	assert.Equal(t, data[:256], out[32:32+256])
	assert.Equal(t, data[512:], out[2*512+32:2*512+32+88])
	assert.Equal(t, make([]byte, 256-88), out[2*512+32+88:2*512+32+256])
}

func TestWriteUF2AddressRange(t *testing.T) {
	var buf bytes.Buffer
	img := &flat.Image{Base: 0x1_0000_0000, Data: []byte{1}}
	assert.Error(t, writeUF2(&buf, img, 0, 0))
	img = &flat.Image{Base: 0xffff_ff00, Data: make([]byte, 0x101)}
	assert.Error(t, writeUF2(&buf, img, 0, 0))
	img = &flat.Image{Base: 0xffff_ff00, Data: make([]byte, 0x100)}
	assert.NoError(t, writeUF2(&buf, img, 0, 0))
}

func TestParseFamily(t *testing.T) {
	id, flags, err := parseFamily("")
	require.NoError(t, err)
	assert.Zero(t, id)
	assert.Zero(t, flags)

	id, flags, err = parseFamily("rp2350_riscv")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xe48bff5a), id)
	assert.Equal(t, uint32(uf2FamilyIDPresent), flags)

	id, _, err = parseFamily("0x00ff1234")
	require.NoError(t, err)
	assert.Equal(t, uint32(0xff1234), id)

	_, _, err = parseFamily("esp32-ish")
	assert.Error(t, err)
	_, _, err = parseFamily("0x1ffffffff")
	assert.Error(t, err)
}
