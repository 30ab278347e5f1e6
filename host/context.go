// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package host concretizes §6's "host call interface" and §5's
// "Concurrency & Resource model": Context is the per-call channel a
// native/host function exchanges label metadata through, and Transaction
// is the top-level unit that drives one PC-stack lifetime end to end.
package host

import "github.com/bichhawat/ifc4bc-sub000/internal/label"

// Context is the thread-local slot bundle named in §5's "Global mutable
// state": argLabels/pc_global/return_label/ABORT, made an explicit
// per-call struct rather than ambient globals (§9 design note). It
// satisfies internal/dispatch.CallContext structurally — dispatch
// declares that interface itself rather than importing this package, to
// keep the dependency one-directional (host -> dispatch, never back).
type Context struct {
	argLabels   []label.Label
	pcGlobal    label.Label
	returnLabel label.Label
	abort       bool
}

// NewContext returns a zero-valued Context, ready for one Family 6 host
// call.
func NewContext() *Context {
	return &Context{}
}

// ArgLabels returns the labels of the arguments passed at the call site —
// read by a Host.Eval implementation deciding what label its own result
// should carry.
func (c *Context) ArgLabels() []label.Label { return c.argLabels }

// PCGlobal returns the pc in effect at the call site.
func (c *Context) PCGlobal() label.Label { return c.pcGlobal }

// SetReturnLabel is how a Host.Eval implementation reports the label the
// dispatcher should join into its call's destination register.
func (c *Context) SetReturnLabel(l label.Label) { c.returnLabel = l }

// SetAbort is how a Host.Eval implementation raises the process-wide ABORT
// flag (§5 "Cancellation"): the dispatcher checks it immediately after the
// call returns and, if set, raises an NSU-class abort.
func (c *Context) SetAbort(b bool) { c.abort = b }

// SetArgLabels, SetPCGlobal, ReturnLabel, and Abort are the
// dispatch.CallContext methods: the dispatcher writes the call site's
// metadata in before invoking Host.Eval, then reads back whatever the
// host set.
func (c *Context) SetArgLabels(ls []label.Label) { c.argLabels = ls }
func (c *Context) SetPCGlobal(l label.Label)     { c.pcGlobal = l }
func (c *Context) ReturnLabel() label.Label      { return c.returnLabel }
func (c *Context) Abort() bool                   { return c.abort }
