// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package server sends the flat image of an ELF file to every TCP client.
package server

import (
	"net"
	"os"
	"sync"
	"time"

	"github.com/embeddedgo/flatelf/flat"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/pkg/errors"
)

// Formats lists the supported payload formats.
var Formats = []string{"flatelf", "bin"}

type Config struct {
	Input   string // ELF file, read again for every connection
	Format  string // "flatelf" (container) or "bin" (raw image)
	MaxSize uint64 // see flat.Options
}

// Error reasons reported in the connection_errors_total metric.
const (
	reasonRead  = "read"
	reasonBuild = "build"
	reasonWrite = "write"
)

const maxAcceptDelay = time.Second

type Server struct {
	cfg     Config
	logger  log.Logger
	metrics *Metrics
	encode  func(img *flat.Image) ([]byte, error)
	wg      sync.WaitGroup
}

// New returns a server for cfg. A nil metrics is replaced by unregistered
// metrics.
func New(cfg Config, logger log.Logger, metrics *Metrics) (*Server, error) {
	s := &Server{cfg: cfg, logger: logger, metrics: metrics}
	switch cfg.Format {
	case "flatelf":
		s.encode = (*flat.Image).MarshalBinary
	case "bin":
		s.encode = func(img *flat.Image) ([]byte, error) { return img.Data, nil }
	default:
		return nil, errors.Errorf("unknown format %q", cfg.Format)
	}
	if s.metrics == nil {
		s.metrics = NewMetrics(nil)
	}
	return s, nil
}

// Serve accepts connections on ln until it is closed. Every connection is
// handled in its own goroutine and a failed connection does not affect the
// others. Serve returns nil after ln is closed and all started connections
// are finished.
func (s *Server) Serve(ln net.Listener) error {
	level.Info(s.logger).Log(
		"msg", "listening", "addr", ln.Addr(),
		"input", s.cfg.Input, "format", s.cfg.Format,
	)
	defer s.wg.Wait()
	var delay time.Duration
	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil
			}
			s.metrics.AcceptErrors.Inc()
			delay = min(max(2*delay, 5*time.Millisecond), maxAcceptDelay)
			level.Warn(s.logger).Log("msg", "accept failed", "err", err, "retry_in", delay)
			time.Sleep(delay)
			continue
		}
		delay = 0
		s.wg.Add(1)
		go func() {
			defer s.wg.Done()
			s.handle(conn)
		}()
	}
}

func (s *Server) handle(conn net.Conn) {
	defer conn.Close()
	s.metrics.Connections.Inc()
	logger := log.With(s.logger, "remote", conn.RemoteAddr())

	payload, reason, err := s.payload()
	if err != nil {
		s.metrics.Errors.WithLabelValues(reason).Inc()
		level.Error(logger).Log("msg", "connection error", "reason", reason, "err", err)
		return
	}
	level.Info(logger).Log("msg", "new connection", "bytes", len(payload))
	n, err := conn.Write(payload)
	s.metrics.BytesSent.Add(float64(n))
	if err != nil {
		s.metrics.Errors.WithLabelValues(reasonWrite).Inc()
		level.Error(logger).Log("msg", "connection error", "reason", reasonWrite, "sent", n, "err", err)
	}
}

// payload rebuilds the image from the input file.
func (s *Server) payload() (b []byte, reason string, err error) {
	data, err := os.ReadFile(s.cfg.Input)
	if err != nil {
		return nil, reasonRead, err
	}
	img, err := flat.FromELFOpts(data, flat.Options{MaxSize: s.cfg.MaxSize})
	if err != nil {
		return nil, reasonBuild, errors.Wrap(err, s.cfg.Input)
	}
	b, err = s.encode(img)
	if err != nil {
		return nil, reasonBuild, err
	}
	return b, "", nil
}
