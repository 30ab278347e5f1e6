// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package host

import (
	"go.uber.org/zap"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
	"github.com/bichhawat/ifc4bc-sub000/internal/config"
	"github.com/bichhawat/ifc4bc-sub000/internal/dispatch"
	"github.com/bichhawat/ifc4bc-sub000/internal/label"
	"github.com/bichhawat/ifc4bc-sub000/internal/metrics"
	"github.com/bichhawat/ifc4bc-sub000/internal/pcstack"
	"github.com/bichhawat/ifc4bc-sub000/value"
)

// minFrameRegisters bounds a transaction's register file below the number
// of arguments it was started with — the distilled spec's code objects
// don't carry a declared register count (unlike original_source's
// CodeBlock::m_numCalleeLocals), so Transaction.Run sizes the entry
// frame off the argument list instead.
const minFrameRegisters = 16

// Transaction is one top-level invocation of the interpreter (§3
// GLOSSARY "Transaction": program load, event-handler dispatch, or
// eval) — the unit across which PC-stack and abort semantics are
// defined. It owns the Host a code object's Family 1/6 opcodes call
// out to, the label registry origins are assigned from, and the
// runtime configuration handed to the dispatcher (which applies the
// tick budget; the host-call arg cap is not applied).
type Transaction struct {
	Origins *label.Registry
	Host    dispatch.Host
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Config  config.Runtime
}

// New returns a Transaction ready to run code objects. A nil logger is
// replaced with a no-op logger, matching internal/dispatch.New.
func New(origins *label.Registry, h dispatch.Host, logger *zap.Logger, m *metrics.Metrics, cfg config.Runtime) *Transaction {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Transaction{Origins: origins, Host: h, Logger: logger, Metrics: m, Config: cfg}
}

// Run drives one code object from its entry instruction to completion,
// labelling every argument register with origin's registered label
// joined against each argument's own label (an argument literal has
// bottom label; a value threaded in from a prior transaction carries
// whatever it already had). It reports at most one of §7's three
// failure kinds: a recoverable throw that escaped every handler
// surfaces as dispatch.ErrNoHandler, an NSU violation as
// *dispatch.NSUViolation, and a tainted branch condition as
// *dispatch.TaintBranch. On any of them the PC stack is cleared before
// Run returns, completing the "unwinds every PC frame... and returns
// undefined to the outermost host caller" fatal-abort sequence — the
// dispatcher itself already unwinds its own frames down to entryDepth
// on every throwTo path, so this is the top-level backstop for a
// transaction whose entryDepth was already zero.
func (t *Transaction) Run(co *bytecode.CodeObject, args []value.Labeled[value.Value], origin string) (value.Labeled[value.Value], error) {
	originLabel := t.Origins.LabelFor(origin)

	frameSize := len(args)
	if frameSize < minFrameRegisters {
		frameSize = minFrameRegisters
	}
	frame := value.NewFrame(frameSize, co.ID)
	for i, a := range args {
		frame.Set(i, value.NewLabeled[value.Value](a.V, label.Join(a.Label, originLabel)))
	}

	stack := pcstack.New()
	ctx := NewContext()
	d := dispatch.New(co, frame, stack, t.Origins, t.Host, t.Logger, t.Metrics, t.Config, co.HasHandler())

	ret, err := d.Run(ctx)
	if err != nil {
		stack.Clear()
		t.Logger.Error("transaction aborted",
			zap.Error(err),
			zap.String("code_object_id", co.ID),
			zap.String("origin", origin))
		return value.Labeled[value.Value]{}, err
	}
	return ret, nil
}
