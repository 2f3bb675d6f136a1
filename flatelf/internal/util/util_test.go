// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	delf "debug/elf"
	"os"
	"path/filepath"
	"testing"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/embeddedgo/flatelf/internal/elftest"
	"github.com/go-kit/log/level"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInOutFiles(t *testing.T) {
	in, out := InOutFiles("fw.elf", ".elf", "", ".flatelf")
	assert.Equal(t, "fw.elf", in)
	assert.Equal(t, "fw.flatelf", out)

	in, out = InOutFiles("a/b/kernel", ".elf", "", ".bin")
	assert.Equal(t, "a/b/kernel", in)
	assert.Equal(t, "a/b/kernel.bin", out)

	in, out = InOutFiles("x.elf", ".elf", "y.img", ".bin")
	assert.Equal(t, "x.elf", in)
	assert.Equal(t, "y.img", out)

	in, out = InOutFiles("", ".elf", "", ".hex")
	assert.Equal(t, DirName()+".elf", in)
	assert.Equal(t, DirName()+".hex", out)
}

func TestReadAny(t *testing.T) {
	path := elftest.WriteFile(t, "fw.elf", elftest.File{
		Entry: 0x8000,
		Progs: []elftest.Prog{{Type: delf.PT_LOAD, Vaddr: 0x8000, Data: []byte{1, 2, 3}}},
	})
	img, err := ReadImage(path, 0)
	require.NoError(t, err)
	assert.Equal(t, []byte{1, 2, 3}, img.Data)

	fromELF, err := ReadAny(path, 0)
	require.NoError(t, err)
	assert.Equal(t, img, fromELF)

	container := filepath.Join(t.TempDir(), "fw.flatelf")
	require.NoError(t, WriteFile(container, func(f *os.File) error {
		_, err := img.WriteTo(f)
		return err
	}))
	fromContainer, err := ReadAny(container, 0)
	require.NoError(t, err)
	assert.Equal(t, img, fromContainer)

	_, err = ReadImage(container, 0)
	assert.Error(t, err, "ReadImage accepts ELF files only")

	_, err = ReadAny(filepath.Join(t.TempDir(), "missing"), 0)
	assert.True(t, os.IsNotExist(err))
}

func TestSize(t *testing.T) {
	var s Size
	require.NoError(t, s.Set("64KiB"))
	assert.Equal(t, Size(64<<10), s)
	require.NoError(t, s.Set("4096"))
	assert.Equal(t, Size(4096), s)
	assert.Equal(t, "4.0 KiB", s.String())
	assert.Error(t, s.Set("lots"))

	t.Setenv(EnvMaxSize, "2MiB")
	assert.Equal(t, Size(2<<20), MaxSize())
	t.Setenv(EnvMaxSize, "")
	assert.Equal(t, Size(flat.DefaultMaxSize), MaxSize())
}

func TestEnvDefaults(t *testing.T) {
	t.Setenv(EnvListen, "0.0.0.0:9000")
	assert.Equal(t, "0.0.0.0:9000", Listen())
	t.Setenv(EnvFormat, "bin")
	assert.Equal(t, "bin", Format())
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := NewLogger(&buf, "warn")
	require.NoError(t, err)
	level.Info(logger).Log("msg", "dropped")
	level.Warn(logger).Log("msg", "kept")
	assert.NotContains(t, buf.String(), "dropped")
	assert.Contains(t, buf.String(), "level=warn msg=kept")

	_, err = NewLogger(&buf, "loud")
	assert.Error(t, err)
}
