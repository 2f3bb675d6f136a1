// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elftest writes small ELF executables for tests.
package elftest

import (
	"bytes"
	"debug/elf"
	"encoding/binary"
	"os"
	"path/filepath"
	"testing"
)

type Prog struct {
	Type   elf.ProgType
	Flags  elf.ProgFlag
	Vaddr  uint64
	Paddr  uint64
	Data   []byte // stored in the file after the program header table
	Off    uint64 // if non-zero overrides the computed offset of Data
	Filesz uint64 // len(Data) if zero
	Memsz  uint64 // Filesz if zero
}

type File struct {
	Class     elf.Class        // ELFCLASS64 if zero
	Order     binary.ByteOrder // little-endian if nil
	Machine   elf.Machine
	Version   uint32 // e_version, EV_CURRENT if zero
	Entry     uint64
	Phoff     uint64 // right after the file header if zero
	Phentsize uint16 // the size of the class program header if zero
	Progs     []Prog
}

const maxTable = 1 << 20

func (f *File) defaults() {
	if f.Class == elf.ELFCLASSNONE {
		f.Class = elf.ELFCLASS64
	}
	if f.Order == nil {
		f.Order = binary.LittleEndian
	}
	if f.Version == 0 {
		f.Version = uint32(elf.EV_CURRENT)
	}
	ehsize, phentsize := uint64(64), uint16(56)
	if f.Class == elf.ELFCLASS32 {
		ehsize, phentsize = 52, 32
	}
	if f.Phoff == 0 {
		f.Phoff = ehsize
	}
	if f.Phentsize == 0 {
		f.Phentsize = phentsize
	}
}

// Bytes encodes f. Program headers with nil Data and zero Off get the offset
// of the end of the file.
func (f File) Bytes() []byte {
	f.defaults()
	progs := make([]Prog, len(f.Progs))
	copy(progs, f.Progs)

	tableEnd := f.Phoff + uint64(len(progs))*uint64(f.Phentsize)
	writeTable := f.Phoff < maxTable && tableEnd <= maxTable
	size := tableEnd
	if !writeTable {
		size = 64
	}
	for i := range progs {
		p := &progs[i]
		if p.Off == 0 {
			p.Off = size
			size += uint64(len(p.Data))
		} else if end := p.Off + uint64(len(p.Data)); len(p.Data) != 0 && end > size {
			size = end
		}
		if p.Filesz == 0 {
			p.Filesz = uint64(len(p.Data))
		}
		if p.Memsz == 0 {
			p.Memsz = p.Filesz
		}
	}

	buf := make([]byte, size)
	copy(buf, f.header())
	if writeTable {
		for i, p := range progs {
			off := f.Phoff + uint64(i)*uint64(f.Phentsize)
			copy(buf[off:], f.prog(p))
		}
	}
	for _, p := range progs {
		if len(p.Data) != 0 {
			copy(buf[p.Off:], p.Data)
		}
	}
	return buf
}

func (f *File) ident() (id [elf.EI_NIDENT]byte) {
	copy(id[:], elf.ELFMAG)
	id[elf.EI_CLASS] = byte(f.Class)
	id[elf.EI_DATA] = byte(elf.ELFDATA2LSB)
	if f.Order == binary.BigEndian {
		id[elf.EI_DATA] = byte(elf.ELFDATA2MSB)
	}
	id[elf.EI_VERSION] = byte(elf.EV_CURRENT)
	return
}

func (f *File) header() []byte {
	var h any
	if f.Class == elf.ELFCLASS32 {
		h = &elf.Header32{
			Ident:     f.ident(),
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(f.Machine),
			Version:   f.Version,
			Entry:     uint32(f.Entry),
			Phoff:     uint32(f.Phoff),
			Ehsize:    52,
			Phentsize: f.Phentsize,
			Phnum:     uint16(len(f.Progs)),
		}
	} else {
		h = &elf.Header64{
			Ident:     f.ident(),
			Type:      uint16(elf.ET_EXEC),
			Machine:   uint16(f.Machine),
			Version:   f.Version,
			Entry:     f.Entry,
			Phoff:     f.Phoff,
			Ehsize:    64,
			Phentsize: f.Phentsize,
			Phnum:     uint16(len(f.Progs)),
		}
	}
	return encode(f.Order, h)
}

func (f *File) prog(p Prog) []byte {
	if f.Class == elf.ELFCLASS32 {
		return encode(f.Order, &elf.Prog32{
			Type:   uint32(p.Type),
			Off:    uint32(p.Off),
			Vaddr:  uint32(p.Vaddr),
			Paddr:  uint32(p.Paddr),
			Filesz: uint32(p.Filesz),
			Memsz:  uint32(p.Memsz),
			Flags:  uint32(p.Flags),
			Align:  4,
		})
	}
	return encode(f.Order, &elf.Prog64{
		Type:   uint32(p.Type),
		Flags:  uint32(p.Flags),
		Off:    p.Off,
		Vaddr:  p.Vaddr,
		Paddr:  p.Paddr,
		Filesz: p.Filesz,
		Memsz:  p.Memsz,
		Align:  8,
	})
}

func encode(o binary.ByteOrder, v any) []byte {
	var b bytes.Buffer
	if err := binary.Write(&b, o, v); err != nil {
		panic(err)
	}
	return b.Bytes()
}

// WriteFile writes the encoded f to a file in a temporary directory and
// returns its path.
func WriteFile(t testing.TB, name string, f File) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, f.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}
