// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"errors"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
	"github.com/bichhawat/ifc4bc-sub000/internal/cfg"
	"github.com/bichhawat/ifc4bc-sub000/internal/label"
	"github.com/bichhawat/ifc4bc-sub000/value"
)

// family1 is the pure register-to-register rule: compute the result via
// Host.Eval, then write it through the delayed-NSU rule (§4.4 Family 1).
func (d *Dispatcher) family1(pos int, in bytecode.Instruction) (int, error) {
	destReg := int(in.Operands[0])
	n := bytecode.OperandCount(in.Op)

	args := make([]value.Value, 0, n-1)
	obs := d.pc()
	for i := 1; i < n; i++ {
		reg := int(in.Operands[i])
		args = append(args, d.regValue(reg))
		obs = label.Join(obs, d.regLabel(reg))
	}
	d.promoteIfNeeded(obs)

	result, err := d.Host.Eval(in.Op, args)
	if err != nil {
		return d.throwTo(pos, obs)
	}
	d.writeFamily1(destReg, result, obs)
	return in.Fallthrough(pos), nil
}

// family2 is the branch rule: abort if the guard is tainted, otherwise
// apply the push/join discipline of §4.3 before evaluating which way the
// branch actually goes.
func (d *Dispatcher) family2(pos int, in bytecode.Instruction, a *cfg.Analysis) (int, error) {
	guard := d.guardLabel(in)
	if label.Taint(guard) {
		if d.Metrics != nil {
			d.Metrics.NSUAborts.Inc()
		}
		return pos, &TaintBranch{Line: pos, Offset: pos, CodeObjectID: d.CO.ID}
	}
	d.promoteIfNeeded(guard)

	backEdge := false
	if idx := bytecode.OffsetFieldIndex(in.Op); idx >= 0 && bytecode.Class(in.Op) != bytecode.ClassSwitchImm &&
		bytecode.Class(in.Op) != bytecode.ClassSwitchChar && bytecode.Class(in.Op) != bytecode.ClassSwitchString {
		if in.Target(pos) <= pos {
			backEdge = true
		}
	}

	ipd := a.IDom[pos]
	switch {
	case backEdge, bytecode.Class(in.Op) == bytecode.ClassUnconditional:
		// Loop back-edges and unconditional jumps are join points, not
		// branch points: they never push a new PC frame (§3, package
		// comment on OpJmp/OpLoop).
		if !d.Stack.Empty() {
			d.Stack.Join(guard)
		}
	case !d.Stack.Empty() && ipd == d.Stack.Loc() && d.sameFrame():
		d.Stack.Join(guard)
	default:
		d.Stack.Push(label.Join(d.pc(), guard), ipd, d.Frame.FrameMarker, d.excHandlerReachable, true)
	}

	return d.branchTarget(pos, in), nil
}

func (d *Dispatcher) guardLabel(in bytecode.Instruction) label.Label {
	switch bytecode.Class(in.Op) {
	case bytecode.ClassSwitchImm, bytecode.ClassSwitchChar, bytecode.ClassSwitchString:
		return d.regLabel(int(in.Operands[0]))
	default:
		offIdx := bytecode.OffsetFieldIndex(in.Op)
		n := bytecode.OperandCount(in.Op)
		l := label.Bottom()
		for i := 0; i < n; i++ {
			if i == offIdx {
				continue
			}
			l = label.Join(l, d.regLabel(int(in.Operands[i])))
		}
		return l
	}
}

func (d *Dispatcher) branchTarget(pos int, in bytecode.Instruction) int {
	switch bytecode.Class(in.Op) {
	case bytecode.ClassUnconditional:
		return in.Target(pos)
	case bytecode.ClassConditional:
		testReg := int(in.Operands[0])
		truthy := d.Host.Truthy(d.regValue(testReg))
		if isNegatedConditional(in.Op) {
			truthy = !truthy
		}
		if truthy {
			return in.Target(pos)
		}
		return in.Fallthrough(pos)
	case bytecode.ClassSwitchImm, bytecode.ClassSwitchChar, bytecode.ClassSwitchString:
		return d.switchTarget(pos, in)
	default:
		return in.Fallthrough(pos)
	}
}

// isNegatedConditional reports whether op jumps when its host-evaluated
// test is false rather than true — the *False/*Neq*/Not-prefixed half of
// each comparison pair in Family 2.
func isNegatedConditional(op bytecode.Opcode) bool {
	switch op {
	case bytecode.OpJFalse, bytecode.OpLoopIfFalse,
		bytecode.OpJNeqNull,
		bytecode.OpJNLess, bytecode.OpJNLessEq, bytecode.OpJNGreater, bytecode.OpJNGreaterEq:
		return true
	}
	return false
}

func (d *Dispatcher) switchTarget(pos int, in bytecode.Instruction) int {
	tableIdx := in.Operands[1]
	testReg := int(in.Operands[0])
	v := d.regValue(testReg)

	var tables []bytecode.JumpTable
	switch bytecode.Class(in.Op) {
	case bytecode.ClassSwitchImm:
		tables = d.CO.ImmSwitchTables
	case bytecode.ClassSwitchChar:
		tables = d.CO.CharSwitchTables
	case bytecode.ClassSwitchString:
		tables = d.CO.StringSwitchTables
	}
	if int(tableIdx) >= len(tables) {
		return in.Fallthrough(pos)
	}
	jt := tables[tableIdx]

	switch bytecode.Class(in.Op) {
	case bytecode.ClassSwitchImm:
		if iv, ok := v.(int32); ok {
			if off, ok := jt.IntTargets[iv]; ok {
				return pos + int(off)
			}
		}
	case bytecode.ClassSwitchChar:
		if rv, ok := v.(rune); ok {
			if off, ok := jt.CharTargets[rv]; ok {
				return pos + int(off)
			}
		}
	case bytecode.ClassSwitchString:
		if sv, ok := v.(string); ok {
			if off, ok := jt.StringTargets[sv]; ok {
				return pos + int(off)
			}
		}
	}
	return pos + int(jt.Default)
}

// family3 is the property-read rule: GetIFC accumulates the object header
// label plus each prototype hop crossed, and the result is written through
// the same delayed-NSU rule as Family 1 (§4.4 Family 3).
func (d *Dispatcher) family3(pos int, in bytecode.Instruction) (int, error) {
	destReg := int(in.Operands[0])
	baseReg := int(in.Operands[1])
	base := d.Frame.Get(baseReg)

	obj, ok := base.V.(*value.Object)
	if !ok {
		return d.throwTo(pos, label.Join(d.pc(), base.Label))
	}

	name := d.propertyName(in)
	v, acc, found := obj.GetIFC(name)
	obs := label.Join(d.pc(), label.Join(base.Label, acc))
	d.promoteIfNeeded(obs)
	if !found {
		v = nil
	}
	d.writeFamily1(destReg, v, obs)
	return in.Fallthrough(pos), nil
}

// family4 is the property-write rule: strict NSU — PutIFC aborts outright
// rather than relaxing via taint (§4.4 Family 4).
func (d *Dispatcher) family4(pos int, in bytecode.Instruction) (int, error) {
	baseReg := int(in.Operands[0])
	base := d.Frame.Get(baseReg)

	obj, ok := base.V.(*value.Object)
	if !ok {
		return d.throwTo(pos, label.Join(d.pc(), base.Label))
	}

	valReg := int(in.Operands[2])
	val := d.Frame.Get(valReg)
	name := d.propertyName(in)

	newHeader, err := obj.PutIFC(name, val.V, val.Label, d.pc())
	if err != nil {
		if d.Metrics != nil {
			d.Metrics.NSUAborts.Inc()
		}
		return pos, &NSUViolation{Line: pos, Offset: pos, CodeObjectID: d.CO.ID}
	}
	base.Label = newHeader
	d.Frame.Set(baseReg, base)
	return in.Fallthrough(pos), nil
}

// family5 is the delete rule: same strict-NSU shape as Family 4, applied
// to DelIFC (§4.4 Family 5).
func (d *Dispatcher) family5(pos int, in bytecode.Instruction) (int, error) {
	baseReg := int(in.Operands[0])
	base := d.Frame.Get(baseReg)

	obj, ok := base.V.(*value.Object)
	if !ok {
		return d.throwTo(pos, label.Join(d.pc(), base.Label))
	}

	name := d.propertyName(in)
	newHeader, err := obj.DelIFC(name, d.pc())
	if err != nil {
		if d.Metrics != nil {
			d.Metrics.NSUAborts.Inc()
		}
		return pos, &NSUViolation{Line: pos, Offset: pos, CodeObjectID: d.CO.ID}
	}
	base.Label = newHeader
	d.Frame.Set(baseReg, base)
	return in.Fallthrough(pos), nil
}

// family6 is call/construct. A callee that is a *value.Function recurses
// into a nested Dispatcher sharing this dispatcher's PC stack and origin
// registry; any other callee value is treated as a host/native call routed
// through Host.Eval plus the CallContext label channel (§4.4 Family 6).
func (d *Dispatcher) family6(pos int, in bytecode.Instruction, callCtx CallContext) (int, error) {
	destReg := int(in.Operands[0])
	calleeReg := int(in.Operands[1])
	argReg := int(in.Operands[2])
	callee := d.Frame.Get(calleeReg)

	if fn, ok := callee.V.(*value.Function); ok {
		return d.callCodeObject(pos, destReg, argReg, fn, callee.Label)
	}
	return d.callHost(pos, in.Op, destReg, argReg, callCtx)
}

func (d *Dispatcher) callCodeObject(pos, destReg, argReg int, fn *value.Function, calleeLabel label.Label) (int, error) {
	origin := d.Origins.LabelFor(fn.OriginURL)
	pushLabel := label.Join(d.pc(), label.Join(origin, calleeLabel))

	a := d.analysis()
	ipd := a.IDom[pos]
	d.Stack.Push(pushLabel, ipd, d.Frame.FrameMarker, d.excHandlerReachable || fn.Code.HasHandler(), false)

	calleeFrame := value.NewFrame(len(d.Frame.Registers), fn.Code.ID)
	calleeFrame.Set(0, d.Frame.Get(argReg))
	sub := New(fn.Code, calleeFrame, d.Stack, d.Origins, d.Host, d.Logger, d.Metrics, d.Config, d.excHandlerReachable)

	ret, err := sub.Run(nil)
	if d.Stack.Len() > 0 {
		d.Stack.Pop()
	}
	if err != nil {
		payload := d.pc()
		var unhandled *UnhandledException
		if errors.As(err, &unhandled) {
			payload = label.Join(d.pc(), unhandled.Label)
		}
		return d.throwTo(pos, payload)
	}

	obs := label.Join(ret.Label, d.pc())
	d.writeFamily1(destReg, ret.V, obs)
	return pos + 1, nil
}

func (d *Dispatcher) callHost(pos int, op bytecode.Opcode, destReg, argReg int, callCtx CallContext) (int, error) {
	argLabel := d.regLabel(argReg)
	if callCtx != nil {
		callCtx.SetArgLabels([]label.Label{argLabel})
		callCtx.SetPCGlobal(d.pc())
	}

	result, err := d.Host.Eval(op, []value.Value{d.regValue(argReg)})
	if err != nil {
		return d.throwTo(pos, d.pc())
	}
	if callCtx != nil && callCtx.Abort() {
		if d.Metrics != nil {
			d.Metrics.NSUAborts.Inc()
		}
		return pos, &NSUViolation{Line: pos, Offset: pos, CodeObjectID: d.CO.ID}
	}

	retLabel := label.Bottom()
	if callCtx != nil {
		retLabel = callCtx.ReturnLabel()
	}
	obs := label.Join(d.pc(), retLabel)
	d.writeFamily1(destReg, result, obs)
	return pos + 1, nil
}

// family7 is return: every PC frame opened since entering this code object
// is popped and its label joined into the return value, whether this
// return is the code object's final instruction or an early return from
// inside a still-open branch (§4.4 Family 7). The CFG's distinction
// between the "canonical" final return and every other return instruction
// (graph.go's lastTerminatorIndex) only matters for post-dominance
// computation — every return instruction halts the dispatcher directly.
func (d *Dispatcher) family7(pos int, in bytecode.Instruction) (int, error) {
	acc := label.Bottom()
	for d.Stack.Len() > d.entryDepth {
		acc = label.Join(acc, d.Stack.Pop().Label)
	}

	retReg := int(in.Operands[0])
	if in.Op == bytecode.OpRetObjectOrThis {
		obj := d.Frame.Get(retReg)
		if _, isObj := obj.V.(*value.Object); !isObj {
			retReg = int(in.Operands[1])
		}
	}
	retVal := d.Frame.Get(retReg)
	d.returnValue = value.NewLabeled[value.Value](retVal.V, label.Join(retVal.Label, acc))
	d.halted = true
	return pos, nil
}

// family8Throw is the throw half of Family 8: locate a handler (possibly
// in a caller frame, via throwTo's ErrNoHandler propagation) and land with
// the thrown value's label joined into the PC stack.
func (d *Dispatcher) family8Throw(pos int, in bytecode.Instruction) (int, error) {
	reg := int(in.Operands[0])
	val := d.Frame.Get(reg)
	payload := label.Join(d.pc(), val.Label)

	target, err := d.throwTo(pos, payload)
	if err == nil {
		d.pendingException = val
	}
	return target, err
}

// family8Catch is the catch half: writes the pending exception value into
// a register subject to the same delayed-NSU rule as any other Family 1
// write (§4.4 Family 8).
func (d *Dispatcher) family8Catch(pos int, in bytecode.Instruction) (int, error) {
	destReg := int(in.Operands[0])
	obs := label.Join(d.pendingException.Label, d.pc())
	d.writeFamily1(destReg, d.pendingException.V, obs)
	return in.Fallthrough(pos), nil
}

// family9 is scope push/pop: push imprints pc onto the new link, pop is
// strict-NSU gated by value.Scope.PopAllowed (§4.4 Family 9).
func (d *Dispatcher) family9(pos int, in bytecode.Instruction) (int, error) {
	switch in.Op {
	case bytecode.OpPushScope, bytecode.OpPushNewScope:
		reg := int(in.Operands[0])
		regVal := d.Frame.Get(reg)
		s, ok := regVal.V.(*value.Scope)
		if !ok {
			s = value.PushScope(d.currentScope, d.pc())
		} else {
			s.NextScopeLabel = d.pc()
		}
		d.currentScope = s
		d.Frame.Set(reg, value.NewLabeled[value.Value](s, regVal.Label))

	case bytecode.OpPopScope:
		if d.currentScope != nil {
			if !d.currentScope.PopAllowed(d.pc()) {
				if d.Metrics != nil {
					d.Metrics.NSUAborts.Inc()
				}
				return pos, &NSUViolation{Line: pos, Offset: pos, CodeObjectID: d.CO.ID}
			}
			d.currentScope = d.currentScope.Parent
		}
	}
	return in.Fallthrough(pos), nil
}

// family10 is activation/arguments/object-creation: tear-off opcodes are
// strict-NSU gated on the source register's taint bit, matching a scope
// pop's strictness (§4.4 Family 10); creation opcodes stamp pc onto the
// new object's header.
func (d *Dispatcher) family10(pos int, in bytecode.Instruction) (int, error) {
	switch in.Op {
	case bytecode.OpCreateThis, bytecode.OpCreateActivation:
		reg := int(in.Operands[0])
		obj := value.NewObject(d.pc())
		d.Frame.Set(reg, value.NewLabeled[value.Value](obj, d.pc()))

	case bytecode.OpTearOffActivation, bytecode.OpTearOffArguments:
		reg := int(in.Operands[0])
		src := d.Frame.Get(reg)
		if label.Taint(src.Label) {
			if d.Metrics != nil {
				d.Metrics.NSUAborts.Inc()
			}
			return pos, &NSUViolation{Line: pos, Offset: pos, CodeObjectID: d.CO.ID}
		}

	case bytecode.OpNewFunction, bytecode.OpNewRegExp:
		destReg := int(in.Operands[0])
		d.writeFamily1(destReg, nil, d.pc())
	}
	return in.Fallthrough(pos), nil
}

// family11 is end: the code object halts unconditionally, returning
// whatever its single operand register holds (§4.4 Family 11).
func (d *Dispatcher) family11(pos int, in bytecode.Instruction) (int, error) {
	reg := int(in.Operands[0])
	d.returnValue = d.Frame.Get(reg)
	d.halted = true
	return pos, nil
}
