// Copyright 2025 The Embedded Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package server

import "github.com/prometheus/client_golang/prometheus"

type Metrics struct {
	Connections  prometheus.Counter
	Errors       *prometheus.CounterVec
	BytesSent    prometheus.Counter
	AcceptErrors prometheus.Counter
}

func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		Connections: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flatelf_connections_total",
			Help: "Total number of accepted connections",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "flatelf_connection_errors_total",
			Help: "Total number of connections closed without sending the image",
		}, []string{"reason"}),
		BytesSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flatelf_sent_bytes_total",
			Help: "Total number of bytes written to clients",
		}),
		AcceptErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "flatelf_accept_errors_total",
			Help: "Total number of failed accept calls",
		}),
	}

	if reg != nil {
		reg.MustRegister(
			m.Connections,
			m.Errors,
			m.BytesSent,
			m.AcceptErrors,
		)
	}

	return m
}
