// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pack

import (
	"flag"
	"fmt"
	"os"

	"github.com/embeddedgo/flatelf/flatelf/internal/util"
)

const Descr = "convert an ELF file to the FLATELF container format"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF [FLATELF]]\nOptions:\n",
			cmd,
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
	elf, out := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), ".flatelf")
	util.FatalErr("", Pack(elf, out, uint64(maxSize)))
}

// Pack writes the flat image of the ELF file in to the FLATELF file out.
func Pack(in, out string, maxSize uint64) error {
	img, err := util.ReadImage(in, maxSize)
	if err != nil {
		return err
	}
	return util.WriteFile(out, func(f *os.File) error {
		_, err := img.WriteTo(f)
		return err
	})
}
