// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package label

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJoinIsCommutativeAssociativeIdempotent(t *testing.T) {
	a := Label{Confidentiality: 0b0001, Integrity: 0b1110}
	b := Label{Confidentiality: 0b0010, Integrity: 0b1101}
	c := Label{Confidentiality: 0b0100, Integrity: 0b1011}

	assert.Equal(t, Join(a, b), Join(b, a), "join must be commutative")
	assert.Equal(t, Join(Join(a, b), c), Join(a, Join(b, c)), "join must be associative")
	assert.Equal(t, a, Join(a, a), "join must be idempotent")
}

func TestBottomIsJoinUnit(t *testing.T) {
	a := Label{Confidentiality: 0b1010, Integrity: 0b0101}
	assert.Equal(t, a, Join(a, Bottom()))
}

func TestTaintIsStickyAcrossJoin(t *testing.T) {
	a := Label{Confidentiality: 1}
	tainted := WithTaint(a)
	assert.True(t, Taint(tainted))

	joined := Join(tainted, Bottom())
	assert.True(t, Taint(joined), "taint must survive a join with bottom")

	untainted := Join(a, Bottom())
	assert.Equal(t, Taint(a), Taint(untainted))
}

func TestLeqOrdering(t *testing.T) {
	low := Bottom()
	high := Label{Confidentiality: 1, Integrity: ^uint64(0)}
	assert.True(t, Leq(low, high))
	assert.False(t, Leq(high, low))
	assert.True(t, Leq(low, low))
}

func TestRegistryDefaultsToBottom(t *testing.T) {
	r := NewRegistry(4096)
	assert.Equal(t, Bottom(), r.LabelFor("https://unregistered.example"))

	want := Label{Confidentiality: 2}
	r.Assign("https://secret.example", want)
	assert.Equal(t, want, r.LabelFor("https://secret.example"))
	assert.Equal(t, 1, r.Len())
}

func TestRegistryCapacity(t *testing.T) {
	r := NewRegistry(1)
	r.Assign("a", Bottom())
	assert.NoError(t, r.CheckCapacity())
	r.Assign("b", Bottom())
	assert.Error(t, r.CheckCapacity())
}
