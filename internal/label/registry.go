// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package label

import "fmt"

// Registry is the process-wide origin label map: it assigns a Label to every
// source URL (or equivalent origin identifier) before execution begins, and
// is never mutated during a transaction (§6 "origin registry").
//
// Capacity is bounded the way original_source/JSLabelMap.h bounds its own
// entry table (LABEL_MAP_SIZE); here the bound is advisory rather than a
// hard cap since a Go map grows freely, but Registry.Len lets a host notice
// when it exceeds the configured budget.
type Registry struct {
	byOrigin map[string]Label
	cap      int
}

// NewRegistry creates an empty registry pre-sized to cap entries.
func NewRegistry(cap int) *Registry {
	if cap <= 0 {
		cap = 4096
	}
	return &Registry{byOrigin: make(map[string]Label, cap), cap: cap}
}

// Assign records the label for a source URL. Called only during host setup,
// before any transaction starts.
func (r *Registry) Assign(origin string, l Label) {
	r.byOrigin[origin] = l
}

// LabelFor returns the label assigned to origin, or Bottom if none was
// assigned (an un-registered origin is trusted as low as possible).
func (r *Registry) LabelFor(origin string) Label {
	if l, ok := r.byOrigin[origin]; ok {
		return l
	}
	return Bottom()
}

// Len reports how many origins have been assigned a label.
func (r *Registry) Len() int {
	return len(r.byOrigin)
}

// ErrRegistryOverCapacity is returned by CheckCapacity when the registry has
// grown past its configured budget; hosts may treat this as advisory.
type ErrRegistryOverCapacity struct {
	Len, Cap int
}

func (e ErrRegistryOverCapacity) Error() string {
	return fmt.Sprintf("label: origin registry has %d entries, over configured capacity %d", e.Len, e.Cap)
}

// CheckCapacity reports ErrRegistryOverCapacity if the registry has grown
// past its configured budget.
func (r *Registry) CheckCapacity() error {
	if len(r.byOrigin) > r.cap {
		return ErrRegistryOverCapacity{Len: len(r.byOrigin), Cap: r.cap}
	}
	return nil
}

// SetLabel is the sole declassification hook (GLOSSARY "Declassification"):
// it assigns a new (possibly lower) label to an origin from code already
// executing at that lower label. It is host-provided policy, not something
// the dispatcher calls on its own; the core exposes it but never invokes it.
func (r *Registry) SetLabel(origin string, l Label) {
	r.byOrigin[origin] = l
}
