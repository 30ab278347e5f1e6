// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package cfg

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
)

// TestStraightLineChainsToSEN builds Move; Move; End and checks every
// instruction's immediate post-dominator is its successor, with End's being
// the synthetic exit.
func TestStraightLineChainsToSEN(t *testing.T) {
	b := bytecode.NewBuilder("t://straight.js")
	b.Emit(bytecode.OpMove, 0, 1)
	b.Emit(bytecode.OpMove, 1, 2)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	g := BuildReverseGraph(co, false)
	a := Analyze(g)

	assert.Equal(t, 1, a.IDom[0])
	assert.Equal(t, 2, a.IDom[1])
	assert.Equal(t, g.SEN(), a.IDom[2])
	assert.Equal(t, g.SEN(), a.IDom[g.SEN()])
}

// TestDiamondJoinsAtMergePoint builds a JTrue/else/join diamond and checks
// the branch instruction's immediate post-dominator is the merge point, not
// either arm — the textbook case the dominator engine exists for.
func TestDiamondJoinsAtMergePoint(t *testing.T) {
	b := bytecode.NewBuilder("t://diamond.js")
	branch := b.Emit(bytecode.OpJTrue, 0, 0) // patched below
	b.Emit(bytecode.OpMove, 1, 10)           // else arm
	elseEnd := b.Emit(bytecode.OpJmp, 0)     // patched below
	thenStart := b.Here()
	b.Emit(bytecode.OpMove, 1, 20) // then arm
	join := b.Here()
	b.PatchOffset(branch, thenStart)
	b.PatchOffset(elseEnd, join)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	g := BuildReverseGraph(co, false)
	a := Analyze(g)

	require.Equal(t, 4, join)
	assert.Equal(t, join, a.IDom[branch], "branch must post-dominate at the merge, not an arm")
	assert.Equal(t, elseEnd, a.IDom[1], "else arm's nearest post-dominator is its own jmp")
	assert.Equal(t, join, a.IDom[elseEnd], "the jmp's only successor is the join point")
	assert.Equal(t, join, a.IDom[thenStart])
}

// TestLoopBackEdgeMarksHeaderAndContainsLoop builds a counted loop using
// OpLoop as the backward edge and checks both the header mark and the
// ContainsLoop interval query.
func TestLoopBackEdgeMarksHeaderAndContainsLoop(t *testing.T) {
	b := bytecode.NewBuilder("t://loop.js")
	header := b.Here()
	b.Emit(bytecode.OpLoopIfLess, 0, 1, 0) // patched to jump past the loop when done
	body := b.Here()
	b.Emit(bytecode.OpPreInc, 0)
	b.Emit(bytecode.OpLoop, int32(header-b.Here()))
	after := b.Here()
	b.PatchOffset(0, after)
	b.Emit(bytecode.OpEnd, 0)
	co := b.Build()

	g := BuildReverseGraph(co, false)
	a := Analyze(g)

	assert.True(t, a.Loop[header], "loop test instruction is the back edge's target")
	assert.True(t, a.ContainsLoop(header, body), "interval spanning the loop body must report a loop")
	assert.False(t, a.ContainsLoop(after, after+0), "the post-loop instruction alone has no loop header")
}

// TestExceptionEdgeRoutesToHandler checks that a may-throw instruction gets
// an edge to its enclosing handler only when exception edges are requested.
func TestExceptionEdgeRoutesToHandler(t *testing.T) {
	b := bytecode.NewBuilder("t://exc.js")
	risky := b.Emit(bytecode.OpGetById, 1, 0, 0)
	b.Emit(bytecode.OpEnd, 1)
	handlerTarget := b.Here()
	b.Emit(bytecode.OpCatch, 2)
	b.Emit(bytecode.OpEnd, 2)
	b.AddHandler(0, 1, handlerTarget)
	co := b.Build()

	withExc := BuildReverseGraph(co, true)
	assert.Contains(t, withExc.RevSucc[handlerTarget], risky)

	withoutExc := BuildReverseGraph(co, false)
	assert.NotContains(t, withoutExc.RevSucc[handlerTarget], risky)
}

// TestSwitchAddsEdgeForEveryCaseAndDefault checks a three-way immediate
// switch contributes one forward edge per case plus the default.
func TestSwitchAddsEdgeForEveryCaseAndDefault(t *testing.T) {
	b := bytecode.NewBuilder("t://switch.js")
	caseA := 4
	caseB := 5
	def := 6
	jt := bytecode.JumpTable{
		IntTargets: map[int32]int32{0: int32(caseA), 1: int32(caseB)},
		Default:    int32(def),
	}
	tableIdx := b.SwitchImmTable(jt)
	sw := b.Emit(bytecode.OpSwitchImm, 0, tableIdx, int32(def))
	b.Emit(bytecode.OpEnd, 0) // 1, unreachable filler to keep indices aligned
	b.Emit(bytecode.OpEnd, 0) // 2
	b.Emit(bytecode.OpEnd, 0) // 3
	b.Emit(bytecode.OpMove, 0, 1) // 4 caseA
	b.Emit(bytecode.OpMove, 0, 2) // 5 caseB
	b.Emit(bytecode.OpEnd, 0)     // 6 default / final terminator
	co := b.Build()

	g := BuildReverseGraph(co, false)
	assert.Contains(t, g.RevSucc[caseA], sw)
	assert.Contains(t, g.RevSucc[caseB], sw)
	assert.Contains(t, g.RevSucc[def], sw)
}
