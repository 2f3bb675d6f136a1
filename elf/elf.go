// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package elf decodes the part of an ELF file that describes the memory
// image of a program: the identification, the file header and the program
// header table. Sections, symbols and relocations are not read.
package elf

import (
	"fmt"
	"math/bits"
	"strconv"

	"github.com/embeddedgo/flatelf/endian"
	"github.com/pkg/errors"
)

var (
	ErrMagic   = errors.New("invalid ELF magic")
	ErrVersion = errors.New("invalid ELF version")
	ErrClass   = errors.New("invalid CPU word size")
	ErrData    = errors.New("invalid endianness")
	ErrOffset  = errors.New("invalid file or memory offset")
)

const (
	identSize = 16
	magic     = "\x7fELF"
	evCurrent = 1
)

// Class is the CPU word size (EI_CLASS).
type Class uint8

const (
	Class32 Class = 1
	Class64 Class = 2
)

func (c Class) String() string {
	switch c {
	case Class32:
		return "ELF32"
	case Class64:
		return "ELF64"
	}
	return "Class(" + strconv.Itoa(int(c)) + ")"
}

// ProgType is a program header type (p_type).
type ProgType uint32

const (
	PT_NULL    ProgType = 0
	PT_LOAD    ProgType = 1
	PT_DYNAMIC ProgType = 2
	PT_INTERP  ProgType = 3
	PT_NOTE    ProgType = 4
	PT_PHDR    ProgType = 6
	PT_TLS     ProgType = 7
)

var ptNames = map[ProgType]string{
	PT_NULL:    "NULL",
	PT_LOAD:    "LOAD",
	PT_DYNAMIC: "DYNAMIC",
	PT_INTERP:  "INTERP",
	PT_NOTE:    "NOTE",
	PT_PHDR:    "PHDR",
	PT_TLS:     "TLS",
}

func (t ProgType) String() string {
	if s, ok := ptNames[t]; ok {
		return s
	}
	return fmt.Sprintf("%#x", uint32(t))
}

// Prog is a decoded program header. The address and size fields of ELF32
// files are zero-extended.
type Prog struct {
	Type   ProgType
	Flags  uint32
	Off    uint64 // offset of the segment data in the file
	Vaddr  uint64 // virtual address during execution
	Paddr  uint64 // physical (load) address
	Filesz uint64 // number of bytes stored in the file
	Memsz  uint64 // number of bytes occupied in memory
}

func (p Prog) String() string {
	return fmt.Sprintf(
		"%-7s Off: %#x Vaddr: %#x Paddr: %#x Filesz: %#x Memsz: %#x",
		p.Type, p.Off, p.Vaddr, p.Paddr, p.Filesz, p.Memsz,
	)
}

// File is a parsed ELF file.
type File struct {
	Class Class
	Order endian.Order
	Entry uint64
	Progs []Prog // all program headers in the table order
}

// Loads returns the PT_LOAD programs in the table order.
func (f *File) Loads() []Prog {
	var loads []Prog
	for _, p := range f.Progs {
		if p.Type == PT_LOAD {
			loads = append(loads, p)
		}
	}
	return loads
}

type header struct {
	version   uint32
	entry     uint64
	phoff     uint64
	phentsize uint16
	phnum     uint16
}

// decoder reads the class dependent structures. It is selected once from
// the identification so the field layout is not re-examined per field.
type decoder struct {
	r      *endian.Reader
	o      endian.Order
	header func(d *decoder) (header, error)
	prog   func(d *decoder) (Prog, error)
}

// Parse parses the ELF file held in data.
func Parse(data []byte) (*File, error) {
	r := endian.NewReader(data)
	ident, err := r.Read(identSize)
	if err != nil {
		if len(data) < len(magic) || string(data[:len(magic)]) != magic {
			return nil, ErrMagic
		}
		return nil, errors.Wrap(err, "ident")
	}
	if string(ident[:len(magic)]) != magic {
		return nil, ErrMagic
	}
	class, order := Class(ident[4]), endian.Order(ident[5])
	d := &decoder{r: r, o: order}
	switch class {
	case Class32:
		d.header, d.prog = header32, prog32
	case Class64:
		d.header, d.prog = header64, prog64
	default:
		return nil, errors.Wrapf(ErrClass, "EI_CLASS %d", ident[4])
	}
	if !order.Valid() {
		return nil, errors.Wrapf(ErrData, "EI_DATA %d", ident[5])
	}
	if ident[6] != evCurrent {
		return nil, errors.Wrapf(ErrVersion, "EI_VERSION %d", ident[6])
	}

	if err := r.Seek(identSize); err != nil {
		return nil, err
	}
	h, err := d.header(d)
	if err != nil {
		return nil, errors.Wrap(err, "file header")
	}
	if h.version != evCurrent {
		return nil, errors.Wrapf(ErrVersion, "e_version %d", h.version)
	}

	f := &File{
		Class: class,
		Order: order,
		Entry: h.entry,
		Progs: make([]Prog, 0, h.phnum),
	}
	for i := uint64(0); i < uint64(h.phnum); i++ {
		off, err := progOffset(h.phoff, i, uint64(h.phentsize))
		if err != nil {
			return nil, err
		}
		if err := r.Seek(off); err != nil {
			return nil, errors.Wrapf(ErrOffset, "program header %d at %#x", i, off)
		}
		p, err := d.prog(d)
		if err != nil {
			return nil, errors.Wrapf(err, "program header %d", i)
		}
		f.Progs = append(f.Progs, p)
	}
	return f, nil
}

// progOffset returns phoff + i*phentsize or ErrOffset if it overflows.
func progOffset(phoff, i, phentsize uint64) (uint64, error) {
	hi, lo := bits.Mul64(i, phentsize)
	if hi != 0 {
		return 0, errors.Wrapf(ErrOffset, "program header %d: %d*%d overflows", i, i, phentsize)
	}
	off, carry := bits.Add64(phoff, lo, 0)
	if carry != 0 {
		return 0, errors.Wrapf(ErrOffset, "program header %d: %#x+%#x overflows", i, phoff, lo)
	}
	return off, nil
}
