// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package flat

import (
	"encoding/binary"
	"io"

	"github.com/pkg/errors"
)

const (
	// Magic identifies the container format. A change of the header layout
	// requires a new magic.
	Magic = "FLATELF1"

	HeaderSize = len(Magic) + 3*8
)

var ErrContainerMagic = errors.New("invalid FLATELF magic")

func (img *Image) header() []byte {
	h := make([]byte, 0, HeaderSize)
	h = append(h, Magic...)
	h = binary.LittleEndian.AppendUint64(h, img.Entry)
	h = binary.LittleEndian.AppendUint64(h, img.Base)
	h = binary.LittleEndian.AppendUint64(h, uint64(len(img.Data)))
	return h
}

// MarshalBinary returns img encoded in the FLATELF1 container.
func (img *Image) MarshalBinary() ([]byte, error) {
	b := make([]byte, 0, HeaderSize+len(img.Data))
	b = append(b, img.header()...)
	return append(b, img.Data...), nil
}

// WriteTo writes img encoded in the FLATELF1 container to w.
func (img *Image) WriteTo(w io.Writer) (n int64, err error) {
	m, err := w.Write(img.header())
	n += int64(m)
	if err != nil {
		return
	}
	m, err = w.Write(img.Data)
	n += int64(m)
	return
}

// Unmarshal decodes a FLATELF1 container. The returned image refers to data.
func Unmarshal(data []byte) (*Image, error) {
	if len(data) < len(Magic) || string(data[:len(Magic)]) != Magic {
		return nil, ErrContainerMagic
	}
	if len(data) < HeaderSize {
		return nil, errors.Wrapf(ErrOffset, "header truncated to %d bytes", len(data))
	}
	le := binary.LittleEndian
	img := &Image{
		Entry: le.Uint64(data[8:]),
		Base:  le.Uint64(data[16:]),
	}
	size := le.Uint64(data[24:])
	if have := uint64(len(data) - HeaderSize); size != have {
		return nil, errors.Wrapf(
			ErrOffset, "header declares %d bytes, payload has %d", size, have,
		)
	}
	img.Data = data[HeaderSize:]
	return img, nil
}
