// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package pcstack is the PC Stack (Component C): a LIFO of program-counter
// label frames the dispatcher pushes on branch/call/throw and pops at an
// instruction's immediate post-dominator, at return, or while unwinding an
// exception (§4.3).
package pcstack

import (
	"errors"
	"fmt"

	"github.com/bichhawat/ifc4bc-sub000/internal/label"
)

// ErrEmptyStack is wrapped in the panic value of any operation that requires
// a top frame when the stack is empty — a contract violation of the caller (§4.2's
// "malformed opcode layout is a contract violation" applies equally here:
// the dominator engine's IPD table is assumed to keep push/pop balanced).
var ErrEmptyStack = errors.New("pcstack: operation on empty stack")

// Frame is one entry: the joined guard label controlling this context, the
// instruction offset at which it should be popped (its IPD), an opaque
// identity of the owning call frame, and the two history flags from §3.
type Frame struct {
	Label       label.Label
	IPD         int
	FrameMarker any
	ExcHandler  bool
	BranchFlag  bool
}

// Stack is a single-threaded LIFO of Frame. The zero value is an empty,
// ready-to-use stack.
type Stack struct {
	frames []Frame
}

// New returns an empty stack.
func New() *Stack { return &Stack{} }

// Len reports the current depth.
func (s *Stack) Len() int { return len(s.frames) }

// Push appends a new frame.
func (s *Stack) Push(l label.Label, ipd int, frameMarker any, excHandler, branchFlag bool) {
	s.frames = append(s.frames, Frame{
		Label:       l,
		IPD:         ipd,
		FrameMarker: frameMarker,
		ExcHandler:  excHandler,
		BranchFlag:  branchFlag,
	})
}

// Pop discards and returns the top frame. It panics with ErrEmptyStack if
// the stack is empty: every push has exactly one matching pop over the
// stack's lifetime (§4.3 "Ordering and cancellation"), so an empty pop means
// the dispatcher's IPD/call/exception bookkeeping is broken.
func (s *Stack) Pop() Frame {
	n := len(s.frames)
	if n == 0 {
		panic(fmt.Errorf("%w: pop", ErrEmptyStack))
	}
	top := s.frames[n-1]
	s.frames = s.frames[:n-1]
	return top
}

// Join updates the top frame's label to join(top.label, l), leaving ipd and
// the other flags untouched.
func (s *Stack) Join(l label.Label) {
	s.mustTop().Label = label.Join(s.mustTop().Label, l)
}

// JoinWithFlags is Join plus an update of the exc-handler and branch flags
// (§4.3 "join(label [, newExc, newFun])"). The dispatcher does not call it;
// its call and exception paths use Push, Pop and Join.
func (s *Stack) JoinWithFlags(l label.Label, newExcHandler, newBranchFlag bool) {
	top := s.mustTop()
	top.Label = label.Join(top.Label, l)
	top.ExcHandler = newExcHandler
	top.BranchFlag = newBranchFlag
}

func (s *Stack) mustTop() *Frame {
	n := len(s.frames)
	if n == 0 {
		panic(fmt.Errorf("%w: join", ErrEmptyStack))
	}
	return &s.frames[n-1]
}

// Head returns the top frame's label.
func (s *Stack) Head() label.Label { return s.mustTop().Label }

// Loc returns the top frame's IPD — the instruction offset at which the
// dispatcher should pop it.
func (s *Stack) Loc() int { return s.mustTop().IPD }

// Reg returns the top frame's owning-call-frame marker.
func (s *Stack) Reg() any { return s.mustTop().FrameMarker }

// ExcHandler reports whether the top frame's exception-handler flag is set.
func (s *Stack) ExcHandler() bool { return s.mustTop().ExcHandler }

// BranchFlag reports whether the top frame was entered via an actual
// branch, as opposed to a join of an already-present label.
func (s *Stack) BranchFlag() bool { return s.mustTop().BranchFlag }

// Empty reports whether the stack has no frames.
func (s *Stack) Empty() bool { return len(s.frames) == 0 }

// Clear discards every frame — used when no exception handler is found
// anywhere during unwinding (§4.4 Family 8: "the PC stack is cleared and
// the execution returns undefined to the outer host").
func (s *Stack) Clear() { s.frames = nil }
