// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Flatelf converts ELF executables to flat memory images.
//
//	flatelf COMMAND [ARGUMENTS]
//
// The older form
//
//	flatelf ELF MODE:OUTPUT
//
// with the modes flatelf:FILE, flatbin:FILE and tcp:HOST:PORT is also
// accepted.
package main

import (
	"fmt"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/embeddedgo/flatelf/flatelf/internal/cmd/bin"
	"github.com/embeddedgo/flatelf/flatelf/internal/cmd/hex"
	"github.com/embeddedgo/flatelf/flatelf/internal/cmd/info"
	"github.com/embeddedgo/flatelf/flatelf/internal/cmd/pack"
	"github.com/embeddedgo/flatelf/flatelf/internal/cmd/serve"
)

type tool struct {
	descr string
	main  func(cmd string, args []string)
}

var tools = map[string]tool{
	"bin":   {bin.DescrBin, bin.Main},
	"hex":   {hex.Descr, hex.Main},
	"info":  {info.Descr, info.Main},
	"pack":  {pack.Descr, pack.Main},
	"serve": {serve.Descr, serve.Main},
	"uf2":   {bin.DescrUF2, bin.Main},
}

// legacyModes maps the modes of the MODE:OUTPUT form to commands.
var legacyModes = map[string]string{
	"flatelf": "pack",
	"flatbin": "bin",
	"tcp":     "serve",
}

func printToolList() {
	names := slices.Sorted(maps.Keys(tools))
	maxLen := 0
	for _, k := range names {
		if maxLen < len(k) {
			maxLen = len(k)
		}
	}
	uw := os.Stderr
	uw.WriteString("Usage:\n  flatelf COMMAND [ARGUMENTS]\n  flatelf ELF MODE:OUTPUT\n\n")
	uw.WriteString("Available commands:\n")
	for _, name := range names {
		fmt.Fprintf(uw, "  %*s  %s\n", maxLen, name, tools[name].descr)
	}
	uw.WriteString("\nModes:\n  flatelf:/path/to/file\n  flatbin:/path/to/file\n  tcp:127.0.0.1:1234\n")
}

// legacyArgs translates "ELF MODE:OUTPUT" to a command and its arguments.
func legacyArgs(args []string) (cmd string, cargs []string, ok bool) {
	if len(args) != 2 {
		return "", nil, false
	}
	mode, output, found := strings.Cut(args[1], ":")
	if !found || output == "" {
		return "", nil, false
	}
	cmd, ok = legacyModes[mode]
	if !ok {
		return "", nil, false
	}
	if cmd == "serve" {
		return cmd, []string{"-addr", output, args[0]}, true
	}
	return cmd, []string{args[0], output}, true
}

func main() {
	if len(os.Args) < 2 || os.Args[1] == "-h" {
		printToolList()
		return
	}
	tool, ok := tools[os.Args[1]]
	if ok {
		tool.main(os.Args[1], os.Args[2:])
		return
	}
	cmd, args, ok := legacyArgs(os.Args[1:])
	if !ok {
		printToolList()
		os.Exit(2)
	}
	tools[cmd].main(cmd, args)
}
