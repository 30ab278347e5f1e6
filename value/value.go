// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package value is the Labeled Value Model: the runtime representation of
// every cell the dispatcher attaches a security label to — register slots,
// object property slots, object headers and prototype links, and scope-chain
// links (§3 "Labeled value").
//
// Actual JS-value semantics (numbers, strings, coercions, shape transitions)
// are the "object model internals" §1 treats as an external collaborator;
// Value is deliberately just `any` here, and Object's slot map is a bare Go
// map rather than a shaped/hidden-class representation. Only the
// label-carrying surface is fully specified.
package value

import "github.com/bichhawat/ifc4bc-sub000/internal/label"

// Value is an unlabeled runtime value produced by the host. Its concrete
// representation is out of scope for this core.
type Value any

// Labeled pairs a value with the security label attached to it.
type Labeled[T any] struct {
	V     T
	Label label.Label
}

// NewLabeled constructs a Labeled value.
func NewLabeled[T any](v T, l label.Label) Labeled[T] {
	return Labeled[T]{V: v, Label: l}
}

// Frame is a call frame's register file: a flat array of labeled values
// plus an opaque marker identifying the owning call, the same marker
// pcstack.Frame.FrameMarker carries so the dispatcher can tell its own
// frame apart from a caller's or callee's when consulting the PC stack.
type Frame struct {
	Registers   []Labeled[Value]
	FrameMarker any
}

// NewFrame allocates a register file of n bottom-labeled, nil-valued
// registers for a call frame identified by marker.
func NewFrame(n int, marker any) *Frame {
	regs := make([]Labeled[Value], n)
	for i := range regs {
		regs[i] = Labeled[Value]{Label: label.Bottom()}
	}
	return &Frame{Registers: regs, FrameMarker: marker}
}

// Get returns register reg's labeled value.
func (f *Frame) Get(reg int) Labeled[Value] { return f.Registers[reg] }

// Set overwrites register reg.
func (f *Frame) Set(reg int, v Labeled[Value]) { f.Registers[reg] = v }

// LabelAll joins l into every register's label, leaving values untouched;
// a register already labeled above l keeps its higher label. This backs the
// dispatcher's first-branch labeling promotion (§4.4 "Before setting this
// flag for the first time, the dispatcher back-fills the frame by labeling
// every live register with pc").
func (f *Frame) LabelAll(l label.Label) {
	for i := range f.Registers {
		f.Registers[i].Label = label.Join(f.Registers[i].Label, l)
	}
}
