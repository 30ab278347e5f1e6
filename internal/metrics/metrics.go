// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package metrics exposes the dispatcher's runtime counters as Prometheus
// instruments, grounded on nspcc-dev/neo-go's VM-level metrics wiring — the
// pack's only bytecode-VM repo that instruments itself this way.
package metrics

import "github.com/prometheus/client_golang/prometheus"

// Metrics bundles every gauge/counter the dispatcher updates. It is not a
// package-level global: a Transaction owns one, so concurrent transactions
// (in separate processes or, per §5, serialized top-level re-entries) don't
// contend over a shared registry beyond what prometheus itself already
// synchronizes.
type Metrics struct {
	InstructionsDispatched prometheus.Counter
	NSUAborts              prometheus.Counter
	TaintWrites            prometheus.Counter
	PCStackDepth           prometheus.Gauge
}

// New registers a fresh set of instruments against reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		InstructionsDispatched: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ifc4bc",
			Name:      "instructions_dispatched_total",
			Help:      "Number of bytecode instructions executed by the dispatcher.",
		}),
		NSUAborts: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ifc4bc",
			Name:      "nsu_aborts_total",
			Help:      "Number of transactions terminated by a no-sensitive-upgrade violation or a branch-on-taint abort.",
		}),
		TaintWrites: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "ifc4bc",
			Name:      "taint_writes_total",
			Help:      "Number of Family 1 writes that took the delayed-NSU (taint-bit) relaxation instead of a plain overwrite.",
		}),
		PCStackDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: "ifc4bc",
			Name:      "pc_stack_depth",
			Help:      "Current depth of the PC stack for the active transaction.",
		}),
	}
	reg.MustRegister(m.InstructionsDispatched, m.NSUAborts, m.TaintWrites, m.PCStackDepth)
	return m
}

// NewUnregistered returns a Metrics instance backed by a private registry,
// for tests and example CLIs that don't want to touch the global default
// registry.
func NewUnregistered() *Metrics {
	return New(prometheus.NewRegistry())
}
