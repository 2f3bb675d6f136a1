// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hex

import (
	"bytes"
	"testing"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/marcinbor85/gohex"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDumpParsesBack(t *testing.T) {
	data := make([]byte, 0x12345)
	for i := range data {
		data[i] = byte(i >> 3)
	}
	img := &flat.Image{Entry: 0x08000101, Base: 0x08000000, Data: data}

	var buf bytes.Buffer
	require.NoError(t, dump(&buf, img))

	mem := gohex.NewMemory()
	require.NoError(t, mem.ParseIntelHex(&buf))
	start, ok := mem.GetStartAddress()
	require.True(t, ok)
	assert.Equal(t, uint32(0x08000101), start)
	assert.Equal(t, data, mem.ToBinary(0x08000000, uint32(len(data)), 0xff))
}

func TestDumpAddressRange(t *testing.T) {
	var buf bytes.Buffer
	err := dump(&buf, &flat.Image{Base: 0xffff_fff0, Data: make([]byte, 0x20)})
	assert.Error(t, err)
	err = dump(&buf, &flat.Image{Base: 0x1_0000_0000, Data: []byte{1}})
	assert.Error(t, err)
}

func TestDumpEntryAbove4G(t *testing.T) {
	var buf bytes.Buffer
	img := &flat.Image{Entry: 0xffff_ffff_8000_0000, Base: 0x1000, Data: []byte{1, 2, 3}}
	require.NoError(t, dump(&buf, img))
	mem := gohex.NewMemory()
	require.NoError(t, mem.ParseIntelHex(&buf))
	_, ok := mem.GetStartAddress()
	assert.False(t, ok)
	assert.Equal(t, []byte{1, 2, 3}, mem.ToBinary(0x1000, 3, 0))
}
