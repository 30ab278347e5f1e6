// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuilderRoundTrip(t *testing.T) {
	b := NewBuilder("https://example.test/a.js")
	r1 := int32(0)
	b.Emit(OpMove, r1, int32(1))
	jtrue := b.Emit(OpJTrue, r1, 0)
	b.Emit(OpMove, r1, int32(2))
	join := b.Here()
	b.PatchOffset(jtrue, join)
	b.Emit(OpEnd, r1)

	co := b.Build()
	require.Equal(t, 4, co.Len())
	assert.Equal(t, OpJTrue, co.Instructions[1].Op)
	assert.Equal(t, int32(2), co.Instructions[1].Operands[1], "offset should be relative to the jtrue's own position")
	assert.False(t, co.HasHandler())
}

func TestHandlerFor(t *testing.T) {
	co := New("https://example.test/b.js")
	co.ExceptionHandlers = []HandlerRange{{Start: 2, End: 5, Target: 10}}

	h, ok := co.HandlerFor(3)
	require.True(t, ok)
	assert.Equal(t, 10, h.Target)

	_, ok = co.HandlerFor(5)
	assert.False(t, ok, "End is exclusive")
	assert.True(t, co.HasHandler())
}

func TestAnalysisCacheVariants(t *testing.T) {
	co := New("https://example.test/c.js")
	_, ok := co.Analysis(VariantNoExceptionEdges)
	assert.False(t, ok)

	co.SetAnalysis(VariantNoExceptionEdges, "fake-analysis")
	got, ok := co.Analysis(VariantNoExceptionEdges)
	require.True(t, ok)
	assert.Equal(t, "fake-analysis", got)

	_, ok = co.Analysis(VariantWithExceptionEdges)
	assert.False(t, ok, "the other variant must remain uncached")
}

func TestVariantFor(t *testing.T) {
	assert.Equal(t, VariantWithExceptionEdges, VariantFor(true))
	assert.Equal(t, VariantNoExceptionEdges, VariantFor(false))
}
