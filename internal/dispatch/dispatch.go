// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package dispatch is the Instrumented Dispatcher (Component D): it steps a
// bytecode.CodeObject one instruction at a time, applying the §4.4 IFC
// family rule for whatever opcode class it meets and driving the PC stack
// (internal/pcstack) and dominator engine (internal/cfg) that back it.
//
// Structure follows wagon's exec.VM.execCode: a dense class-keyed switch
// instead of execCode's funcTable, a Dispatcher struct carrying
// pc/stack/locals the way wagon's vm/context structs do, and a single
// step-at-a-time loop a host can drive one instruction or one whole run at
// a time.
package dispatch

import (
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
	"github.com/bichhawat/ifc4bc-sub000/internal/cfg"
	"github.com/bichhawat/ifc4bc-sub000/internal/config"
	"github.com/bichhawat/ifc4bc-sub000/internal/label"
	"github.com/bichhawat/ifc4bc-sub000/internal/metrics"
	"github.com/bichhawat/ifc4bc-sub000/internal/pcstack"
	"github.com/bichhawat/ifc4bc-sub000/value"
)

// Host evaluates the non-IFC part of an opcode: the actual arithmetic,
// comparison, coercion, or native-call result. The dispatcher only ever
// asks "what value comes out of this opcode", never how; computing that is
// the external "object model / bytecode compiler" collaborator named in §1.
type Host interface {
	// Eval computes op's result given its already-unlabeled argument
	// values, in operand order (the destination register is never
	// included). Returning an error is how a Throwable failure (§7) —
	// e.g. arithmetic on an incompatible type — enters the dispatcher;
	// it is routed through the same unwind path as an explicit throw.
	Eval(op bytecode.Opcode, args []value.Value) (value.Value, error)

	// Truthy evaluates a JS "is this value truthy" test for a Family 2
	// conditional branch's test register.
	Truthy(v value.Value) bool
}

// CallContext is the per-call-site channel a host uses to exchange label
// metadata across a Family 6 native call (§4.4 Family 6, §6 "Host calls").
// It is declared here rather than imported from a host package so that
// package host can depend on dispatch without dispatch depending back on
// host; a concrete host.Context satisfies this structurally.
type CallContext interface {
	SetArgLabels(ls []label.Label)
	SetPCGlobal(l label.Label)
	ReturnLabel() label.Label
	Abort() bool
}

// Dispatcher runs a single call frame of one code object. A Family 6 call
// into another code object constructs a nested Dispatcher sharing the same
// PC stack and origin registry, the way a real call shares one evaluator's
// stack across frames.
type Dispatcher struct {
	CO      *bytecode.CodeObject
	Frame   *value.Frame
	Stack   *pcstack.Stack
	Origins *label.Registry
	Host    Host
	Logger  *zap.Logger
	Metrics *metrics.Metrics
	Config  config.Runtime

	excHandlerReachable bool
	entryDepth          int
	ticks               int
	labelReq            bool
	halted              bool
	currentScope        *value.Scope
	pendingException    value.Labeled[value.Value]
	returnValue         value.Labeled[value.Value]
}

// New constructs a Dispatcher for one call frame. excHandlerReachable is
// the ambient flag (§3) used to pick which cached analysis variant
// applies: true if co itself or any enclosing caller frame has a reachable
// exception handler.
func New(co *bytecode.CodeObject, frame *value.Frame, stack *pcstack.Stack, origins *label.Registry, host Host, logger *zap.Logger, m *metrics.Metrics, runtimeConfig config.Runtime, excHandlerReachable bool) *Dispatcher {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Dispatcher{
		CO:                  co,
		Frame:               frame,
		Stack:               stack,
		Origins:             origins,
		Host:                host,
		Logger:              logger,
		Metrics:             m,
		Config:              runtimeConfig,
		excHandlerReachable: excHandlerReachable || co.HasHandler(),
		entryDepth:          stack.Len(),
		ticks:               runtimeConfig.TickBudget,
	}
}

// Run drives the dispatcher from instruction 0 until a return/end
// instruction halts it or an error aborts it. callCtx may be nil if co
// never reaches a Family 6 native call.
func (d *Dispatcher) Run(callCtx CallContext) (value.Labeled[value.Value], error) {
	pc := 0
	for {
		next, err := d.step(pc, callCtx)
		if err != nil {
			return value.Labeled[value.Value]{}, err
		}
		if d.halted {
			return d.returnValue, nil
		}
		pc = next
	}
}

func (d *Dispatcher) step(pos int, callCtx CallContext) (int, error) {
	a := d.analysis()
	d.autoPop(pos)

	if d.Metrics != nil {
		d.Metrics.InstructionsDispatched.Inc()
		d.Metrics.PCStackDepth.Set(float64(d.Stack.Len()))
	}

	in := d.CO.Instructions[pos]

	if bytecode.IsLoopOp(in.Op) && d.Config.TickBudget > 0 {
		d.ticks--
		if d.ticks <= 0 {
			return pos, fmt.Errorf("dispatch: tick budget exhausted in code object %s", d.CO.ID)
		}
	}

	switch {
	case in.Op == bytecode.OpCatch:
		return d.family8Catch(pos, in)

	case bytecode.Class(in.Op) == bytecode.ClassConditional,
		bytecode.Class(in.Op) == bytecode.ClassUnconditional,
		bytecode.Class(in.Op) == bytecode.ClassSwitchImm,
		bytecode.Class(in.Op) == bytecode.ClassSwitchChar,
		bytecode.Class(in.Op) == bytecode.ClassSwitchString:
		return d.family2(pos, in, a)

	case bytecode.IsPropertyRead(in.Op):
		return d.family3(pos, in)

	case bytecode.IsPropertyWrite(in.Op):
		return d.family4(pos, in)

	case bytecode.IsDelete(in.Op):
		return d.family5(pos, in)

	case bytecode.Class(in.Op) == bytecode.ClassCall:
		return d.family6(pos, in, callCtx)

	case bytecode.Class(in.Op) == bytecode.ClassReturn,
		bytecode.Class(in.Op) == bytecode.ClassReturnObjectOrThis:
		return d.family7(pos, in)

	case bytecode.Class(in.Op) == bytecode.ClassThrow:
		return d.family8Throw(pos, in)

	case bytecode.Class(in.Op) == bytecode.ClassScope:
		return d.family9(pos, in)

	case bytecode.Class(in.Op) == bytecode.ClassActivation:
		return d.family10(pos, in)

	case bytecode.Class(in.Op) == bytecode.ClassEnd:
		return d.family11(pos, in)

	default:
		return d.family1(pos, in)
	}
}

// analysis implements the per-code-object UNANALYZED -> ANALYZING -> READY
// state machine (§3, §5): a cache hit returns immediately; a miss builds
// the reversed CFG and runs the dominator engine once, then caches it.
// Single-threaded per §5, so there is no separate ANALYZING state to guard
// concurrent builders against each other — the cache-or-compute call is
// already atomic from the dispatcher's point of view.
func (d *Dispatcher) analysis() *cfg.Analysis {
	v := bytecode.VariantFor(d.excHandlerReachable)
	if cached, ok := d.CO.Analysis(v); ok {
		return cached.(*cfg.Analysis)
	}

	start := time.Now()
	g := cfg.BuildReverseGraph(d.CO, d.excHandlerReachable)
	a := cfg.Analyze(g)
	d.CO.SetAnalysis(v, a)

	d.Logger.Debug("built dominator analysis",
		zap.String("code_object_id", d.CO.ID),
		zap.Bool("exception_edges", d.excHandlerReachable),
		zap.Int("instructions", d.CO.Len()),
		zap.Duration("took", time.Since(start)),
	)
	return a
}

// autoPop pops every PC frame whose IPD is pos and whose owning frame is
// this one, before pos executes (§4.3 "If p == I and F == F_top, pop()").
// Looping rather than popping once handles several branches converging on
// the same join point back to back.
func (d *Dispatcher) autoPop(pos int) {
	for !d.Stack.Empty() && d.Stack.Loc() == pos && d.sameFrame() {
		d.Stack.Pop()
	}
}

func (d *Dispatcher) sameFrame() bool {
	return d.Stack.Reg() == d.Frame.FrameMarker
}

// pc returns the current PC label: the top PC frame's label, or bottom if
// no frame is open.
func (d *Dispatcher) pc() label.Label {
	if d.Stack.Empty() {
		return label.Bottom()
	}
	return d.Stack.Head()
}

func (d *Dispatcher) regLabel(reg int) label.Label {
	if reg < 0 || reg >= len(d.Frame.Registers) {
		return label.Bottom()
	}
	return d.Frame.Get(reg).Label
}

func (d *Dispatcher) regValue(reg int) value.Value {
	if reg < 0 || reg >= len(d.Frame.Registers) {
		return nil
	}
	return d.Frame.Get(reg).V
}

// promoteIfNeeded is the §4.4 "first-branch labelling promotion": the
// first time any observed label rises above bottom, pc is retroactively
// joined into every register label in the frame. This is a performance
// optimization only — it must never change which writes end up tainted,
// just avoid re-deriving the same join on every subsequent pure op — so it
// is safe to trigger it from any call site that already computed an
// observed label, not just the textually-first one.
func (d *Dispatcher) promoteIfNeeded(observed label.Label) {
	if d.labelReq || label.Equals(observed, label.Bottom()) {
		return
	}
	d.labelReq = true
	d.Frame.LabelAll(d.pc())
	d.Logger.Debug("first-branch labelling promotion", zap.String("code_object_id", d.CO.ID))
}

// writeFamily1 applies the delayed no-sensitive-upgrade write rule shared
// by Family 1 (register writes), Family 3 (property-read destinations),
// Family 6 (call-result destinations), and Family 8 (catch destinations):
// overwrite outright when the old label already flows to the new one,
// otherwise keep the old value's label, joined with the new one and
// tainted, rather than aborting (§4.4 Family 1 "delayed NSU").
func (d *Dispatcher) writeFamily1(destReg int, result value.Value, obs label.Label) {
	if destReg < 0 || destReg >= len(d.Frame.Registers) {
		return
	}
	old := d.Frame.Get(destReg)
	if label.Leq(old.Label, obs) {
		d.Frame.Set(destReg, value.NewLabeled[value.Value](result, obs))
		return
	}
	tainted := label.WithTaint(label.Join(obs, old.Label))
	d.Frame.Set(destReg, value.NewLabeled[value.Value](result, tainted))
	if d.Metrics != nil {
		d.Metrics.TaintWrites.Inc()
	}
}

// propertyName resolves the property-key operand of a Family 3/4/5
// instruction to a string key. *ById variants carry a static identifier
// index; every other variant carries either a dynamic key register or (for
// put_by_index) a constant numeric index.
func (d *Dispatcher) propertyName(in bytecode.Instruction) string {
	switch in.Op {
	case bytecode.OpGetById:
		return d.identifier(in.Operands[2])
	case bytecode.OpPutById, bytecode.OpDelById:
		return d.identifier(in.Operands[1])
	case bytecode.OpPutByIndex:
		return fmt.Sprint(in.Operands[1])
	case bytecode.OpGetByVal:
		return fmt.Sprint(d.regValue(int(in.Operands[2])))
	case bytecode.OpPutByVal, bytecode.OpDelByVal:
		return fmt.Sprint(d.regValue(int(in.Operands[1])))
	default:
		return ""
	}
}

func (d *Dispatcher) identifier(idx int32) string {
	if idx >= 0 && int(idx) < len(d.CO.Identifiers) {
		return d.CO.Identifiers[idx]
	}
	return ""
}

// throwTo locates a handler for pos within this dispatcher's own code
// object, unwinding every PC frame pushed since entering it (§4.4 Family
// 8). If none covers pos, every frame down to entryDepth is popped and an
// *UnhandledException carrying payload (wrapping ErrNoHandler) is returned
// so a calling frame's own throwTo gets a chance
// to handle it at its call site — modelling "unwind call frames" as
// ordinary Go error propagation across nested Dispatcher.Run calls.
func (d *Dispatcher) throwTo(pos int, payload label.Label) (int, error) {
	h, ok := d.CO.HandlerFor(pos)
	if !ok {
		for d.Stack.Len() > d.entryDepth {
			d.Stack.Pop()
		}
		return pos, &UnhandledException{Label: payload}
	}
	for d.Stack.Len() > d.entryDepth {
		d.Stack.Pop()
	}
	if d.Stack.Empty() {
		d.Stack.Push(payload, h.Target, d.Frame.FrameMarker, d.excHandlerReachable, false)
	} else {
		d.Stack.Join(payload)
	}
	return h.Target, nil
}
