// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package flat builds the flat memory image of an ELF program and encodes it
// in the FLATELF1 container:
//
//	["FLATELF1"][entry][base][size][image]
//
// The three header fields are 64-bit little-endian integers.
package flat

import (
	"cmp"
	"math"
	"math/bits"
	"slices"

	"github.com/embeddedgo/flatelf/elf"
	"github.com/pkg/errors"
)

var (
	ErrNoLoad     = errors.New("no LOAD segments")
	ErrOffset     = elf.ErrOffset
	ErrConversion = errors.New("invalid type conversion")
	ErrTooLarge   = errors.New("flat image too large")
)

// Image is a flat memory image of a program. Data[0] is the byte at the
// virtual address Base.
type Image struct {
	Entry uint64
	Base  uint64
	Data  []byte
}

// End returns the address of the first byte past the image.
func (img *Image) End() uint64 {
	return img.Base + uint64(len(img.Data))
}

// DefaultMaxSize is the image size limit used when Options.MaxSize is zero.
const DefaultMaxSize = 1 << 30

type Options struct {
	// MaxSize limits the size of the image (DefaultMaxSize if zero). Use
	// math.MaxUint64 to allow any size that fits in an int.
	MaxSize uint64
}

// FromELF parses the ELF file held in data and builds its flat image.
func FromELF(data []byte) (*Image, error) {
	return FromELFOpts(data, Options{})
}

func FromELFOpts(data []byte, opts Options) (*Image, error) {
	f, err := elf.Parse(data)
	if err != nil {
		return nil, err
	}
	return BuildOpts(f, data, opts)
}

// Build lays out the PT_LOAD segments of f at their virtual addresses
// relative to the lowest one. The segment contents are copied from data,
// the rest of the image is zero. Segments are copied in address order, so if
// they overlap the one with the higher address wins.
func Build(f *elf.File, data []byte) (*Image, error) {
	return BuildOpts(f, data, Options{})
}

func BuildOpts(f *elf.File, data []byte, opts Options) (*Image, error) {
	loads := f.Loads()
	if len(loads) == 0 {
		return nil, ErrNoLoad
	}
	slices.SortStableFunc(loads, func(a, b elf.Prog) int {
		return cmp.Compare(a.Vaddr, b.Vaddr)
	})
	base := loads[0].Vaddr
	var end uint64
	for _, p := range loads {
		e, carry := bits.Add64(p.Vaddr, p.Memsz, 0)
		if carry != 0 {
			return nil, errors.Wrapf(
				ErrOffset, "segment at %#x: memsz %#x overflows", p.Vaddr, p.Memsz,
			)
		}
		end = max(end, e)
	}
	size, err := sub(end, base)
	if err != nil {
		return nil, err
	}
	n, err := toInt(size)
	if err != nil {
		return nil, err
	}
	limit := opts.MaxSize
	if limit == 0 {
		limit = DefaultMaxSize
	}
	if size > limit {
		return nil, errors.Wrapf(ErrTooLarge, "%d bytes, limit %d", size, limit)
	}

	img := &Image{Entry: f.Entry, Base: base, Data: make([]byte, n)}
	for _, p := range loads {
		src, err := span(data, p.Off, p.Filesz)
		if err != nil {
			return nil, errors.Wrapf(err, "segment at %#x: file data", p.Vaddr)
		}
		o, err := sub(p.Vaddr, base)
		if err != nil {
			return nil, err
		}
		dst, err := span(img.Data, o, p.Filesz)
		if err != nil {
			return nil, errors.Wrapf(err, "segment at %#x: image", p.Vaddr)
		}
		copy(dst, src)
	}
	return img, nil
}

func sub(a, b uint64) (uint64, error) {
	d, borrow := bits.Sub64(a, b, 0)
	if borrow != 0 {
		return 0, errors.Wrapf(ErrOffset, "%#x-%#x underflows", a, b)
	}
	return d, nil
}

func toInt(u uint64) (int, error) {
	if u > math.MaxInt {
		return 0, errors.Wrapf(ErrConversion, "%#x does not fit in int", u)
	}
	return int(u), nil
}

// span returns b[off:off+n] or an error if it is out of range.
func span(b []byte, off, n uint64) ([]byte, error) {
	end, carry := bits.Add64(off, n, 0)
	if carry != 0 || end > uint64(len(b)) {
		return nil, errors.Wrapf(
			ErrOffset, "range %#x+%#x exceeds %#x bytes", off, n, len(b),
		)
	}
	return b[off:end], nil
}
