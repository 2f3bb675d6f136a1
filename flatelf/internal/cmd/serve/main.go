// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package serve

import (
	"context"
	"flag"
	"fmt"
	"net"
	"net/http"
	"os"
	"strings"
	"syscall"

	"github.com/embeddedgo/flatelf/flatelf/internal/server"
	"github.com/embeddedgo/flatelf/flatelf/internal/util"
	"github.com/go-kit/log"
	"github.com/go-kit/log/level"
	"github.com/oklog/run"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const Descr = "serve the flat image of an ELF file over TCP"

type options struct {
	addr     string
	metrics  string
	logLevel string
	cfg      server.Config
}

func Main(cmd string, args []string) {
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	fs.Usage = func() {
		fmt.Fprintf(
			os.Stderr,
			"Usage:\n  %s [OPTIONS] [ELF]\n"+
				"The ELF file is read and converted for every connection.\n"+
				"Options:\n",
			cmd,
		)
		fs.PrintDefaults()
	}
	var o options
	fs.StringVar(&o.addr, "addr", util.Listen(), "listen on `host:port`")
	fs.StringVar(
		&o.cfg.Format, "format", util.Format(),
		"payload `format`: "+strings.Join(server.Formats, ", "),
	)
	fs.StringVar(
		&o.metrics, "metrics", util.Metrics(),
		"serve Prometheus metrics at http://`host:port`/metrics",
	)
	fs.StringVar(&o.logLevel, "log.level", util.LogLevel(), "log `level`: debug, info, warn, error")
	maxSize := util.MaxSize()
	fs.Var(&maxSize, "max-size", "refuse images larger than `size`")
	fs.Parse(args)
	if fs.NArg() > 1 {
		fs.Usage()
		os.Exit(1)
	}
	o.cfg.Input, _ = util.InOutFiles(fs.Arg(0), ".elf", "", "")
	o.cfg.MaxSize = uint64(maxSize)

	logger, err := util.NewLogger(os.Stderr, o.logLevel)
	util.FatalErr("log.level", err)
	util.FatalErr("serve", Run(context.Background(), o, logger))
}

// Run serves until ctx is done, the process receives SIGINT or SIGTERM or
// one of the listeners fails.
func Run(ctx context.Context, o options, logger log.Logger) error {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	srv, err := server.New(o.cfg, logger, server.NewMetrics(reg))
	if err != nil {
		return err
	}
	ln, err := net.Listen("tcp", o.addr)
	if err != nil {
		return err
	}

	var g run.Group
	g.Add(func() error {
		return srv.Serve(ln)
	}, func(error) {
		ln.Close()
	})
	if o.metrics != "" {
		mln, err := net.Listen("tcp", o.metrics)
		if err != nil {
			ln.Close()
			return err
		}
		mux := http.NewServeMux()
		mux.Handle("/metrics", promhttp.HandlerFor(reg, promhttp.HandlerOpts{}))
		hs := &http.Server{Handler: mux}
		g.Add(func() error {
			level.Info(logger).Log("msg", "serving metrics", "addr", mln.Addr())
			return hs.Serve(mln)
		}, func(error) {
			hs.Close()
		})
	}
	g.Add(run.SignalHandler(ctx, os.Interrupt, syscall.SIGTERM))

	err = g.Run()
	var sig run.SignalError
	if errors.As(err, &sig) || errors.Is(err, context.Canceled) {
		level.Info(logger).Log("msg", "shutting down", "reason", err)
		return nil
	}
	return err
}
