// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package label implements the security label lattice shared by every other
// component of the IFC core: confidentiality/integrity bitsets plus a sticky
// taint bit.
package label

// Label is a pair of principal-set bitmasks plus a one-bit taint flag.
//
// The lattice is subset ordering: a Label L1 is <= L2 iff L1's confidentiality
// set is a subset of L2's, and L1's integrity set is a superset of L2's.
// Confidentiality grows as data gets more secret; integrity shrinks as data
// gets less trusted.
type Label struct {
	Confidentiality uint64
	Integrity       uint64
	Taint           bool
}

// Bottom is the least label: no confidentiality principals, every integrity
// principal, untainted.
func Bottom() Label {
	return Label{Confidentiality: 0, Integrity: ^uint64(0), Taint: false}
}

// Join computes the least upper bound of a and b: confidentiality union,
// integrity intersection, taint propagated if either operand carries it.
func Join(a, b Label) Label {
	return Label{
		Confidentiality: a.Confidentiality | b.Confidentiality,
		Integrity:       a.Integrity & b.Integrity,
		Taint:           a.Taint || b.Taint,
	}
}

// Leq reports whether a <= b in the lattice. The taint bit is not part of
// the ordering; it is a history flag checked explicitly by branch handling,
// never compared structurally.
func Leq(a, b Label) bool {
	return a.Confidentiality&^b.Confidentiality == 0 && b.Integrity&^a.Integrity == 0
}

// Equals reports structural equality, including the taint bit.
func Equals(a, b Label) bool {
	return a.Confidentiality == b.Confidentiality && a.Integrity == b.Integrity && a.Taint == b.Taint
}

// WithTaint returns l with the taint bit set. The bit is sticky: once set it
// survives every subsequent Join.
func WithTaint(l Label) Label {
	l.Taint = true
	return l
}

// Taint reports whether l carries the history bit recording a prior delayed
// no-sensitive-upgrade write.
func Taint(l Label) bool {
	return l.Taint
}
