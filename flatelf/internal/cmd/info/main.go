// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package info

import (
	"bytes"
	"flag"
	"fmt"
	"io"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/embeddedgo/flatelf/elf"
	"github.com/embeddedgo/flatelf/flat"
	"github.com/embeddedgo/flatelf/flatelf/internal/util"
)

const Descr = "print the program headers and the flat image layout"

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF|FLATELF]\nOptions:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	maxSize := util.MaxSize()
	fs.Var(&maxSize, "max-size", "refuse images larger than `size`")
	fs.Parse(args)
	if fs.NArg() > 1 {
		fs.Usage()
		os.Exit(1)
	}
	name, _ := util.InOutFiles(fs.Arg(0), ".elf", "", "")
	data, err := os.ReadFile(name)
	util.FatalErr("", err)
	util.FatalErr(name, describe(os.Stdout, data, uint64(maxSize)))
}

func describe(w io.Writer, data []byte, maxSize uint64) error {
	if bytes.HasPrefix(data, []byte(flat.Magic)) {
		img, err := flat.Unmarshal(data)
		if err != nil {
			return err
		}
		fmt.Fprintf(w, "%s Entry: %#x\n", flat.Magic, img.Entry)
		printImage(w, img)
		return nil
	}
	f, err := elf.Parse(data)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "%s %s Entry: %#x\n", f.Class, f.Order, f.Entry)
	for i, p := range f.Progs {
		fmt.Fprintf(w, "%d: %s\n", i, p)
	}
	img, err := flat.BuildOpts(f, data, flat.Options{MaxSize: maxSize})
	if err != nil {
		return err
	}
	printImage(w, img)
	return nil
}

func printImage(w io.Writer, img *flat.Image) {
	fmt.Fprintf(
		w, "Image: Base: %#x End: %#x Size: %d (%s)\n",
		img.Base, img.End(), len(img.Data), humanize.IBytes(uint64(len(img.Data))),
	)
}
