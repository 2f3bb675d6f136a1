// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package hex

import (
	"flag"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/embeddedgo/flatelf/flatelf/internal/util"
	"github.com/marcinbor85/gohex"
	"github.com/pkg/errors"
)

const Descr = "convert an ELF file to the Intel HEX format"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF [%s]]\nOptions:\n",
			cmd, strings.ToUpper(cmd),
		)
		fs.PrintDefaults()
	}
	maxSize := util.MaxSize()
	fs.Var(&maxSize, "max-size", "refuse images larger than `size`")
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	elf, out := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), ".hex")
	img, err := util.ReadAny(elf, uint64(maxSize))
	util.FatalErr(elf, err)
	err = util.WriteFile(out, func(f *os.File) error {
		return dump(f, img)
	})
	util.FatalErr("dumpintelhex", err)
}

// dump writes img in the Intel HEX format with the entry point as the start
// linear address.
func dump(w io.Writer, img *flat.Image) error {
	if img.Base > 1<<32-1 || img.End() > 1<<32 {
		return errors.Errorf(
			"image %#x-%#x does not fit in 32-bit address space",
			img.Base, img.End(),
		)
	}
	mem := gohex.NewMemory()
	if err := mem.AddBinary(uint32(img.Base), img.Data); err != nil {
		return err
	}
	if img.Entry <= 1<<32-1 {
		mem.SetStartAddress(uint32(img.Entry))
	}
	return mem.DumpIntelHex(w, 16)
}
