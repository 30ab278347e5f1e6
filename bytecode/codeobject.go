// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import "github.com/google/uuid"

// variant indexes the two cached dominator-engine results a code object
// carries: one computed with exception edges included, one without (§3
// invariants: "exactly one of {hasAnalysis=false, hasAnalysis=true}
// variants is active... based on whether an enclosing exception-handler is
// reachable").
type variant int

const (
	VariantNoExceptionEdges variant = iota
	VariantWithExceptionEdges
	numVariants
)

// CodeObject is an ordered sequence of instructions plus the tables named
// in §3 "Code object": identifiers, constants, jump tables, and the
// exception-handler table. It also carries the two cached analysis slots
// described there.
//
// The analysis cache is stored as `any` rather than a concrete
// *cfg.Analysis to avoid an import cycle (internal/cfg imports bytecode to
// read instructions; bytecode must not import internal/cfg back). Callers
// use Analysis/SetAnalysis with their own type assertion — in practice
// always internal/cfg's Analysis type.
type CodeObject struct {
	ID        string
	SourceURL string

	Instructions []Instruction
	Identifiers  []string
	Constants    []any

	ImmSwitchTables   []JumpTable
	CharSwitchTables  []JumpTable
	StringSwitchTables []JumpTable

	ExceptionHandlers []HandlerRange

	analysis    [numVariants]any
	hasAnalysis [numVariants]bool
}

// New creates an empty code object for sourceURL, with a fresh identifier.
func New(sourceURL string) *CodeObject {
	return &CodeObject{ID: uuid.NewString(), SourceURL: sourceURL}
}

// Len returns the number of real instructions (excluding the synthetic
// exit node).
func (co *CodeObject) Len() int { return len(co.Instructions) }

// HandlerFor returns the first exception handler covering pos, or false if
// none covers it — mirroring the linear scan in
// original_source/.../FlowGraph.cpp (handlers are few and checked in
// declaration order, so a linear scan over a small table is the idiomatic
// match rather than an interval tree).
func (co *CodeObject) HandlerFor(pos int) (HandlerRange, bool) {
	for _, h := range co.ExceptionHandlers {
		if h.Covers(pos) {
			return h, true
		}
	}
	return HandlerRange{}, false
}

// HasHandler reports whether any exception handler exists at all, used to
// pick which analysis variant (§3) applies to an execution of co.
func (co *CodeObject) HasHandler() bool {
	return len(co.ExceptionHandlers) > 0
}

// Analysis returns the cached analysis for the given variant and whether it
// is present.
func (co *CodeObject) Analysis(v variant) (any, bool) {
	return co.analysis[v], co.hasAnalysis[v]
}

// SetAnalysis caches an analysis result for the given variant. Idempotent:
// re-setting the same variant simply replaces the cache, matching the
// "write-once-per-variant... safe under the single-threaded assumption"
// note in §5.
func (co *CodeObject) SetAnalysis(v variant, a any) {
	co.analysis[v] = a
	co.hasAnalysis[v] = true
}

// VariantFor returns which cached-analysis variant applies when co executes
// with the given ambient exception-handler flag (the handler may belong to
// an enclosing caller frame, not just co itself — §3's "based on whether an
// enclosing exception-handler is reachable").
func VariantFor(excHandlerReachable bool) variant {
	if excHandlerReachable {
		return VariantWithExceptionEdges
	}
	return VariantNoExceptionEdges
}
