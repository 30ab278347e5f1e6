// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package pcstack

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bichhawat/ifc4bc-sub000/internal/label"
)

func conf(bits uint64) label.Label {
	return label.Label{Confidentiality: bits, Integrity: ^uint64(0)}
}

func TestPushPopBalance(t *testing.T) {
	s := New()
	assert.True(t, s.Empty())
	s.Push(conf(1), 10, "frame-a", false, true)
	require.Equal(t, 1, s.Len())
	assert.Equal(t, conf(1), s.Head())
	assert.Equal(t, 10, s.Loc())
	assert.Equal(t, "frame-a", s.Reg())
	assert.True(t, s.BranchFlag())

	f := s.Pop()
	assert.Equal(t, conf(1), f.Label)
	assert.True(t, s.Empty())
}

func TestPopOnEmptyPanics(t *testing.T) {
	s := New()
	assert.PanicsWithError(t, "pcstack: operation on empty stack: pop", func() { s.Pop() })
}

func TestHeadOnEmptyPanics(t *testing.T) {
	s := New()
	assert.Panics(t, func() { s.Head() })
}

func TestJoinUpdatesLabelOnly(t *testing.T) {
	s := New()
	s.Push(conf(1), 5, nil, false, false)
	s.Join(conf(2))
	assert.Equal(t, conf(3), s.Head(), "join must union the confidentiality bits")
	assert.Equal(t, 5, s.Loc(), "join must not touch ipd")
	assert.False(t, s.BranchFlag(), "join must not touch flags unless JoinWithFlags is used")
}

func TestJoinWithFlagsUpdatesFlags(t *testing.T) {
	s := New()
	s.Push(conf(1), 5, nil, false, false)
	s.JoinWithFlags(conf(4), true, true)
	assert.Equal(t, conf(5), s.Head())
	assert.True(t, s.ExcHandler())
	assert.True(t, s.BranchFlag())
}

func TestClearDropsAllFrames(t *testing.T) {
	s := New()
	s.Push(conf(1), 1, nil, false, false)
	s.Push(conf(2), 2, nil, false, false)
	s.Clear()
	assert.True(t, s.Empty())
}
