// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package endian decodes fixed-width integers of either byte order from
// a byte cursor.
package endian

import (
	"encoding/binary"
	"strconv"
	"unsafe"

	"github.com/pkg/errors"
)

var (
	ErrShortRead  = errors.New("short read")
	ErrOutOfRange = errors.New("offset out of range")
	ErrOrder      = errors.New("invalid byte order")
)

// Order is a byte order. The values match the ELF EI_DATA encoding.
type Order uint8

const (
	Little Order = 1
	Big    Order = 2
)

func (o Order) Valid() bool {
	return o == Little || o == Big
}

// ByteOrder returns the encoding/binary counterpart of o or nil if o is not
// valid.
func (o Order) ByteOrder() binary.ByteOrder {
	switch o {
	case Little:
		return binary.LittleEndian
	case Big:
		return binary.BigEndian
	}
	return nil
}

func (o Order) String() string {
	switch o {
	case Little:
		return "little-endian"
	case Big:
		return "big-endian"
	}
	return "Order(" + strconv.Itoa(int(o)) + ")"
}

// Uint128 is an unsigned 128-bit integer.
type Uint128 struct {
	Hi, Lo uint64
}

// Int128 is a signed 128-bit integer in two's complement.
type Int128 struct {
	Hi int64
	Lo uint64
}

// Integer lists the types Read can decode.
type Integer interface {
	int8 | int16 | int32 | int64 | Int128 |
		uint8 | uint16 | uint32 | uint64 | Uint128
}

// Reader is a read cursor over an in-memory byte slice.
type Reader struct {
	b   []byte
	off int
}

func NewReader(b []byte) *Reader {
	return &Reader{b: b}
}

// Pos returns the current read position.
func (r *Reader) Pos() int { return r.off }

// Len returns the number of unread bytes.
func (r *Reader) Len() int { return len(r.b) - r.off }

// Seek sets the read position to off. Seeking to the end of the data is
// allowed, any further is not.
func (r *Reader) Seek(off uint64) error {
	if off > uint64(len(r.b)) {
		return errors.Wrapf(ErrOutOfRange, "seek to %#x, size %#x", off, len(r.b))
	}
	r.off = int(off)
	return nil
}

// Read reads exactly n bytes. The position is left unchanged on error.
func (r *Reader) Read(n int) ([]byte, error) {
	if n < 0 || n > r.Len() {
		return nil, errors.Wrapf(
			ErrShortRead, "need %d bytes at %#x, have %d", n, r.off, r.Len(),
		)
	}
	p := r.b[r.off : r.off+n : r.off+n]
	r.off += n
	return p, nil
}

// Read decodes the next value of type T using the byte order o and advances
// the cursor by the size of T.
func Read[T Integer](r *Reader, o Order) (v T, err error) {
	bo := o.ByteOrder()
	if bo == nil {
		return v, errors.Wrapf(ErrOrder, "%d", o)
	}
	b, err := r.Read(int(unsafe.Sizeof(v)))
	if err != nil {
		return v, err
	}
	switch p := any(&v).(type) {
	case *uint8:
		*p = b[0]
	case *int8:
		*p = int8(b[0])
	case *uint16:
		*p = bo.Uint16(b)
	case *int16:
		*p = int16(bo.Uint16(b))
	case *uint32:
		*p = bo.Uint32(b)
	case *int32:
		*p = int32(bo.Uint32(b))
	case *uint64:
		*p = bo.Uint64(b)
	case *int64:
		*p = int64(bo.Uint64(b))
	case *Uint128:
		p.Hi, p.Lo = split128(bo, o, b)
	case *Int128:
		hi, lo := split128(bo, o, b)
		p.Hi, p.Lo = int64(hi), lo
	}
	return v, nil
}

func split128(bo binary.ByteOrder, o Order, b []byte) (hi, lo uint64) {
	if o == Little {
		return bo.Uint64(b[8:]), bo.Uint64(b[:8])
	}
	return bo.Uint64(b[:8]), bo.Uint64(b[8:])
}

// ReadLE is Read(r, Little).
func ReadLE[T Integer](r *Reader) (T, error) { return Read[T](r, Little) }

// ReadBE is Read(r, Big).
func ReadBE[T Integer](r *Reader) (T, error) { return Read[T](r, Big) }
