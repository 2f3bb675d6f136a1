// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package util

import (
	"github.com/dustin/go-humanize"
	"github.com/embeddedgo/flatelf/flat"
	"github.com/xyproto/env/v2"
)

// Environment variables that provide the defaults of command options.
const (
	EnvListen   = "FLATELF_LISTEN"
	EnvFormat   = "FLATELF_FORMAT"
	EnvMetrics  = "FLATELF_METRICS"
	EnvMaxSize  = "FLATELF_MAX_SIZE"
	EnvLogLevel = "FLATELF_LOG_LEVEL"
)

func Listen() string   { return env.Str(EnvListen, "127.0.0.1:1234") }
func Format() string   { return env.Str(EnvFormat, "flatelf") }
func Metrics() string  { return env.Str(EnvMetrics) }
func LogLevel() string { return env.Str(EnvLogLevel, "info") }

// MaxSize returns the image size limit from FLATELF_MAX_SIZE (e.g. "16MiB")
// or flat.DefaultMaxSize if it is unset or malformed.
func MaxSize() Size {
	s := env.Str(EnvMaxSize)
	if s == "" {
		return flat.DefaultMaxSize
	}
	n, err := humanize.ParseBytes(s)
	if err != nil {
		Warn("%s: %s, using %s", EnvMaxSize, err, humanize.IBytes(flat.DefaultMaxSize))
		return flat.DefaultMaxSize
	}
	return Size(n)
}

// Size is a byte count flag that accepts units (1024, 64KiB, 2MB).
type Size uint64

func (s *Size) String() string {
	return humanize.IBytes(uint64(*s))
}

func (s *Size) Set(v string) error {
	n, err := humanize.ParseBytes(v)
	if err != nil {
		return err
	}
	*s = Size(n)
	return nil
}
