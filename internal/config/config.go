// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package config holds the runtime tunables the distilled spec leaves as
// unspecified constants: the host call argument cap (§6), the tick budget
// for cooperative timeouts (§5), and the origin registry's preallocation
// size (grounded on original_source/JSLabelMap.h's LABEL_MAP_SIZE).
package config

import "github.com/caarlos0/env/v6"

// Runtime is loaded once, at host start, via Load. It is never mutated
// during a transaction (the same read-only-after-boot discipline as the
// origin registry it sizes).
type Runtime struct {
	// MaxHostCallArgs is the configured cap on the argument-label array
	// passed to a host call (§6). The dispatcher does not read it: a Family
	// 6 host call always passes exactly one argument label.
	MaxHostCallArgs int `env:"IFC_MAX_HOST_CALL_ARGS" envDefault:"100"`

	// TickBudget is the starting value of the loop-class instruction
	// counter (§5 "Timeouts"). Each Dispatcher, including the nested one a
	// Family 6 call starts, counts down its own copy; the loop-class
	// instruction that brings it to zero ends the run with an error that no
	// exception handler catches. There is no host timeout check and no
	// refill. Zero disables the counter.
	TickBudget int `env:"IFC_TICK_BUDGET" envDefault:"1000000"`

	// LabelMapSize preallocates the origin registry's backing map.
	LabelMapSize int `env:"IFC_LABEL_MAP_SIZE" envDefault:"4096"`
}

// Default returns the Runtime that would be loaded from an empty
// environment: useful for tests and for hosts that don't care to set
// anything.
func Default() Runtime {
	r := Runtime{}
	// env.Parse only ever returns an error for malformed tags or types,
	// never for a missing/empty environment; defaults always apply.
	_ = env.Parse(&r)
	return r
}

// Load reads Runtime fields from the process environment, falling back to
// the defaults above for anything unset.
func Load() (Runtime, error) {
	r := Runtime{}
	if err := env.Parse(&r); err != nil {
		return Runtime{}, err
	}
	return r, nil
}
