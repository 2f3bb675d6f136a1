// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"bytes"
	"os"

	"github.com/embeddedgo/flatelf/flat"
)

// ReadImage reads the named ELF file and builds its flat image.
func ReadImage(name string, maxSize uint64) (*flat.Image, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	return flat.FromELFOpts(data, flat.Options{MaxSize: maxSize})
}

// ReadAny works like ReadImage but also accepts a FLATELF container.
func ReadAny(name string, maxSize uint64) (*flat.Image, error) {
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, err
	}
	if bytes.HasPrefix(data, []byte(flat.Magic)) {
		return flat.Unmarshal(data)
	}
	return flat.FromELFOpts(data, flat.Options{MaxSize: maxSize})
}
