// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package info

import (
	"bytes"
	delf "debug/elf"
	"encoding/binary"
	"testing"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/embeddedgo/flatelf/internal/elftest"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDescribeELF(t *testing.T) {
	data := elftest.File{
		Class: delf.ELFCLASS32,
		Order: binary.BigEndian,
		Entry: 0x80000010,
		Progs: []elftest.Prog{
			{Type: delf.PT_LOAD, Vaddr: 0x80000000, Off: 0x100, Data: make([]byte, 16), Memsz: 0x800},
			{Type: delf.PT_NOTE, Vaddr: 0x90000000, Off: 0x200, Data: []byte("note")},
		},
	}.Bytes()

	var buf bytes.Buffer
	require.NoError(t, describe(&buf, data, 0))
	assert.Equal(t, ""+
		"ELF32 big-endian Entry: 0x80000010\n"+
		"0: LOAD    Off: 0x100 Vaddr: 0x80000000 Paddr: 0x0 Filesz: 0x10 Memsz: 0x800\n"+
		"1: NOTE    Off: 0x200 Vaddr: 0x90000000 Paddr: 0x0 Filesz: 0x4 Memsz: 0x4\n"+
		"Image: Base: 0x80000000 End: 0x80000800 Size: 2048 (2.0 KiB)\n",
		buf.String(),
	)
}

func TestDescribeContainer(t *testing.T) {
	b, err := (&flat.Image{Entry: 0x8000, Base: 0x8000, Data: []byte{1, 2, 3}}).MarshalBinary()
	require.NoError(t, err)

	var buf bytes.Buffer
	require.NoError(t, describe(&buf, b, 0))
	assert.Equal(t, ""+
		"FLATELF1 Entry: 0x8000\n"+
		"Image: Base: 0x8000 End: 0x8003 Size: 3 (3 B)\n",
		buf.String(),
	)

	err = describe(&buf, b[:len(b)-1], 0)
	assert.True(t, errors.Is(err, flat.ErrOffset))
}

func TestDescribeNoLoad(t *testing.T) {
	var buf bytes.Buffer
	err := describe(&buf, elftest.File{Entry: 1}.Bytes(), 0)
	assert.True(t, errors.Is(err, flat.ErrNoLoad))
	assert.Contains(t, buf.String(), "ELF64 little-endian Entry: 0x1\n")
}
