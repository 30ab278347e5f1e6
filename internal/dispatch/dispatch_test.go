// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
	"github.com/bichhawat/ifc4bc-sub000/internal/config"
	"github.com/bichhawat/ifc4bc-sub000/internal/label"
	"github.com/bichhawat/ifc4bc-sub000/internal/pcstack"
	"github.com/bichhawat/ifc4bc-sub000/value"
)

func high(bits uint64) label.Label {
	return label.Label{Confidentiality: bits, Integrity: ^uint64(0)}
}

// fakeHost is a minimal Host: Eval does integer addition for OpAdd and
// passes every other opcode's first argument through unchanged, Truthy
// treats every value except false (nil included) as truthy.
type fakeHost struct {
	evalErr error
}

func (h *fakeHost) Eval(op bytecode.Opcode, args []value.Value) (value.Value, error) {
	if h.evalErr != nil {
		return nil, h.evalErr
	}
	if op == bytecode.OpAdd && len(args) == 2 {
		a, _ := args[0].(int)
		b, _ := args[1].(int)
		return a + b, nil
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return nil, nil
}

func (h *fakeHost) Truthy(v value.Value) bool {
	b, ok := v.(bool)
	return !ok || b
}

func newDispatcher(co *bytecode.CodeObject, host Host) *Dispatcher {
	frame := value.NewFrame(8, "frame-1")
	return New(co, frame, pcstack.New(), label.NewRegistry(16), host, nil, nil, config.Runtime{}, false)
}

func TestFamily1AddWritesJoinedLabel(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Emit(bytecode.OpAdd, 2, 0, 1)
	b.Emit(bytecode.OpEnd, 2)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	d.Frame.Set(0, value.NewLabeled[value.Value](3, label.Bottom()))
	d.Frame.Set(1, value.NewLabeled[value.Value](4, high(1)))

	ret, err := d.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 7, ret.V)
	assert.Equal(t, high(1), d.Frame.Get(2).Label)
}

func TestFamily1DelayedNSUTaintsInsteadOfAborting(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Emit(bytecode.OpMove, 1, 0)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	d.Frame.Set(0, value.NewLabeled[value.Value](42, label.Bottom()))
	d.Frame.Set(1, value.NewLabeled[value.Value](7, high(1))) // dest already high

	_, err := d.Run(nil)
	require.NoError(t, err)

	got := d.Frame.Get(1)
	assert.Equal(t, 42, got.V, "the low-labeled value is still written through")
	assert.True(t, label.Taint(got.Label), "old-label-not-leq-new must set the taint bit rather than abort")
}

func TestFamily1EvalErrorRoutesThroughThrow(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Emit(bytecode.OpAdd, 2, 0, 1)
	b.Emit(bytecode.OpEnd, 2)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{evalErr: errors.New("not a number")})
	_, err := d.Run(nil)
	assert.ErrorIs(t, err, ErrNoHandler, "with no handler table, a Throwable failure surfaces as ErrNoHandler")
}

func TestFamily2TaintedGuardAborts(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	jt := b.Emit(bytecode.OpJTrue, 0, 0)
	b.Emit(bytecode.OpMove, 1, 0)
	join := b.Here()
	b.PatchOffset(jt, join)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	d.Frame.Set(0, value.NewLabeled[value.Value](true, label.WithTaint(high(1))))

	_, err := d.Run(nil)
	var tb *TaintBranch
	require.True(t, errors.As(err, &tb))
}

func TestFamily2PushesThenAutoPopsAtIPD(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	jt := b.Emit(bytecode.OpJTrue, 0, 0)
	b.Emit(bytecode.OpMove, 1, 2) // else arm
	join := b.Here()
	b.PatchOffset(jt, join)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	d.Frame.Set(0, value.NewLabeled[value.Value](false, high(1)))
	d.Frame.Set(2, value.NewLabeled[value.Value](9, label.Bottom()))

	_, err := d.Run(nil)
	require.NoError(t, err)
	assert.True(t, d.Stack.Empty(), "the pushed PC frame must auto-pop once the IPD is reached")
}

// TestFamily2NestedBranchJoinsOuterGuardIntoInner covers the shape
// `if (a) { if (b) { x = 1 } ; y = 2 }`, where the inner if's own IPD
// (the instruction right after it) differs from the outer if's IPD (the
// instruction right after the whole statement). Pushing the inner guard
// alone on top of the outer's would silently drop label(a) from x's
// write; the stack must instead carry join(label(a), label(b)) while
// inside the inner branch, then fall back to label(a) alone once the
// inner frame auto-pops at its own IPD.
func TestFamily2NestedBranchJoinsOuterGuardIntoInner(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	jfOuter := b.Emit(bytecode.OpJFalse, 0, 0)
	jfInner := b.Emit(bytecode.OpJFalse, 1, 0)
	b.Emit(bytecode.OpMove, 3, 2) // x = one, inside both branches
	innerJoin := b.Here()
	b.PatchOffset(jfInner, innerJoin)
	b.Emit(bytecode.OpMove, 5, 4) // y = two, inside only the outer branch
	outerJoin := b.Here()
	b.PatchOffset(jfOuter, outerJoin)
	b.Emit(bytecode.OpEnd, 5)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	d.Frame.Set(0, value.NewLabeled[value.Value](true, high(1))) // a
	d.Frame.Set(1, value.NewLabeled[value.Value](true, high(2))) // b
	d.Frame.Set(2, value.NewLabeled[value.Value](1, label.Bottom()))
	d.Frame.Set(4, value.NewLabeled[value.Value](2, label.Bottom()))

	_, err := d.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, high(1|2), d.Frame.Get(3).Label, "x is controlled by both a and b")
	assert.Equal(t, high(1), d.Frame.Get(5).Label, "y is controlled only by a, not by the already-closed inner branch")
	assert.True(t, d.Stack.Empty())
}

func TestFamily4StrictNSUAbortsOnDowngrade(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	ident := b.Identifier("x")
	b.Emit(bytecode.OpPutById, 0, ident, 1)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	obj := value.NewObject(label.Bottom())
	obj.Slots["x"] = value.Labeled[value.Value]{V: 1, Label: high(1)} // already high
	d.Frame.Set(0, value.NewLabeled[value.Value](value.Value(obj), label.Bottom()))
	d.Frame.Set(1, value.NewLabeled[value.Value](2, label.Bottom())) // writer is low

	_, err := d.Run(nil)
	var nsu *NSUViolation
	require.True(t, errors.As(err, &nsu))
	assert.Equal(t, high(1), obj.Slots["x"].Label, "a rejected write must not mutate the slot")
}

func TestFamily3PropertyReadAccumulatesObjectLabel(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	ident := b.Identifier("x")
	b.Emit(bytecode.OpGetById, 1, 0, ident)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	obj := value.NewObject(high(2))
	obj.Slots["x"] = value.Labeled[value.Value]{V: "hi", Label: high(1)}
	d.Frame.Set(0, value.NewLabeled[value.Value](value.Value(obj), high(4)))

	ret, err := d.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, "hi", ret.V)
	assert.Equal(t, high(1|2|4), ret.Label)
}

func TestFamily7EarlyReturnJoinsOpenBranchLabel(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	jf := b.Emit(bytecode.OpJFalse, 0, 0)
	b.Emit(bytecode.OpRet, 1) // early return, inside the still-open branch
	join := b.Here()
	b.PatchOffset(jf, join)
	b.Emit(bytecode.OpEnd, 1)
	co := b.Build()

	d := newDispatcher(co, &fakeHost{})
	d.Frame.Set(0, value.NewLabeled[value.Value](true, high(1))) // guard is high, takes the fallthrough (early-return) arm
	d.Frame.Set(1, value.NewLabeled[value.Value](5, label.Bottom()))

	ret, err := d.Run(nil)
	require.NoError(t, err)
	assert.Equal(t, 5, ret.V)
	assert.Equal(t, high(1), ret.Label, "the branch guard must still taint the early return's value")
	assert.True(t, d.Stack.Empty())
}

// TestFamily8ThrowAcrossCallBoundaryJoinsRealPayload covers a callee that
// throws uncaught: the escaping label must be the thrown value's own
// label (joined through the callee's pc and the call's own labels), not
// the caller's ambient pc at the call site substituted in its place.
func TestFamily8ThrowAcrossCallBoundaryJoinsRealPayload(t *testing.T) {
	cb := bytecode.NewBuilder("https://callee.test/c.js")
	cb.Emit(bytecode.OpThrow, 0)
	calleeCO := cb.Build()

	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Emit(bytecode.OpCall, 1, 0, 2)
	b.Emit(bytecode.OpEnd, 1)
	outerCO := b.Build()

	d := newDispatcher(outerCO, &fakeHost{})
	fn := value.NewFunction(calleeCO, "https://callee.test/c.js")
	d.Frame.Set(0, value.NewLabeled[value.Value](fn, high(8)))  // callee value's own label
	d.Frame.Set(2, value.NewLabeled[value.Value](99, high(5))) // argument, thrown as-is by the callee

	_, err := d.Run(nil)
	var unhandled *UnhandledException
	require.True(t, errors.As(err, &unhandled))
	assert.Equal(t, high(8|5), unhandled.Label,
		"the callee's own escaping label must be joined in, not replaced by the caller's ambient pc")
}

func TestAnalysisIsCachedAcrossDispatchers(t *testing.T) {
	b := bytecode.NewBuilder("https://example.test/a.js")
	b.Emit(bytecode.OpEnd, 0)
	co := b.Build()

	d1 := newDispatcher(co, &fakeHost{})
	a1 := d1.analysis()
	d2 := newDispatcher(co, &fakeHost{})
	a2 := d2.analysis()
	assert.Same(t, a1, a2, "the second dispatcher over the same code object must hit the cache")
}
