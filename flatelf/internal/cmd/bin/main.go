// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bin

import (
	"flag"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/embeddedgo/flatelf/flatelf/internal/util"
)

const (
	DescrBin = "convert an ELF file to a flat binary image"
	DescrUF2 = "convert an ELF file to the UF2 format"
)

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
	var family string
	if cmd == "uf2" {
		fs.StringVar(
			&family, "family", "",
			"UF2 family `ID` (32-bit number) or a known family name:\n"+
				strings.Join(slices.Sorted(maps.Keys(uf2FamilyMap)), "\n"),
		)
	}
	fs.Parse(args)
	if fs.NArg() > 2 {
		fs.Usage()
		os.Exit(1)
	}
	elf, out := util.InOutFiles(fs.Arg(0), ".elf", fs.Arg(1), "."+cmd)
	img, err := util.ReadAny(elf, uint64(maxSize))
	util.FatalErr(elf, err)
	switch cmd {
	case "bin":
		err = util.WriteFile(out, func(f *os.File) error {
			return writeBin(f, img)
		})
		util.FatalErr("", err)
		// The raw image does not carry its addresses.
		fmt.Printf("%#x %#x\n", img.Base, img.Entry)
	case "uf2":
		familyID, flags, err := parseFamily(family)
		util.FatalErr("uf2", err)
		err = util.WriteFile(out, func(f *os.File) error {
			return writeUF2(f, img, flags, familyID)
		})
		util.FatalErr("uf2", err)
	}
}

func writeBin(w io.Writer, img *flat.Image) error {
	_, err := w.Write(img.Data)
	return err
}
