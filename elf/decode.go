// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package elf

import "github.com/embeddedgo/flatelf/endian"

// The field readers keep the first error and return zero after it, so the
// layouts below read like the C structures they decode.

func (d *decoder) u16(err *error) uint16 {
	if *err != nil {
		return 0
	}
	var v uint16
	v, *err = endian.Read[uint16](d.r, d.o)
	return v
}

func (d *decoder) u32(err *error) uint32 {
	if *err != nil {
		return 0
	}
	var v uint32
	v, *err = endian.Read[uint32](d.r, d.o)
	return v
}

func (d *decoder) u64(err *error) uint64 {
	if *err != nil {
		return 0
	}
	var v uint64
	v, *err = endian.Read[uint64](d.r, d.o)
	return v
}

func header32(d *decoder) (h header, err error) {
	d.u16(&err) // e_type
	d.u16(&err) // e_machine
	h.version = d.u32(&err)
	h.entry = uint64(d.u32(&err))
	h.phoff = uint64(d.u32(&err))
	d.u32(&err) // e_shoff
	d.u32(&err) // e_flags
	d.u16(&err) // e_ehsize
	h.phentsize = d.u16(&err)
	h.phnum = d.u16(&err)
	d.u16(&err) // e_shentsize
	d.u16(&err) // e_shnum
	d.u16(&err) // e_shstrndx
	return
}

func header64(d *decoder) (h header, err error) {
	d.u16(&err) // e_type
	d.u16(&err) // e_machine
	h.version = d.u32(&err)
	h.entry = d.u64(&err)
	h.phoff = d.u64(&err)
	d.u64(&err) // e_shoff
	d.u32(&err) // e_flags
	d.u16(&err) // e_ehsize
	h.phentsize = d.u16(&err)
	h.phnum = d.u16(&err)
	d.u16(&err) // e_shentsize
	d.u16(&err) // e_shnum
	d.u16(&err) // e_shstrndx
	return
}

// Elf32_Phdr has p_flags after p_memsz, Elf64_Phdr right after p_type.

func prog32(d *decoder) (p Prog, err error) {
	p.Type = ProgType(d.u32(&err))
	p.Off = uint64(d.u32(&err))
	p.Vaddr = uint64(d.u32(&err))
	p.Paddr = uint64(d.u32(&err))
	p.Filesz = uint64(d.u32(&err))
	p.Memsz = uint64(d.u32(&err))
	p.Flags = d.u32(&err)
	d.u32(&err) // p_align
	return
}

func prog64(d *decoder) (p Prog, err error) {
	p.Type = ProgType(d.u32(&err))
	p.Flags = d.u32(&err)
	p.Off = d.u64(&err)
	p.Vaddr = d.u64(&err)
	p.Paddr = d.u64(&err)
	p.Filesz = d.u64(&err)
	p.Memsz = d.u64(&err)
	d.u64(&err) // p_align
	return
}
