// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package bytecode defines the code-object representation the rest of the
// IFC core operates on: a fixed opcode set over a register file, an
// exception-handler table, and the jump-table variants used by typed
// switches. It is the concrete stand-in for the "compiler / code loader"
// external collaborator named in the distilled spec's §6 — the actual
// bytecode compiler remains out of scope (§1); Builder exists only so tests
// can hand-assemble code objects.
//
// Instructions are stored as one fixed-size struct per slot in a Go slice,
// rather than packed into a raw byte stream the way the original
// JavaScriptCore bytecode (and wagon's WebAssembly bytecode) are. Jump
// targets are stored as offsets relative to the instruction's own index, in
// slice-index units, so OpcodeLength is uniformly 1: the "static length"
// named in the distilled spec's §3/§6 still exists as a concept (advancing
// to the next instruction), it is just always a single slot in this
// representation. This sidesteps stream decoding, which §1 explicitly
// treats as a bytecode-compiler concern outside this core's scope, while
// keeping every offset-based CFG computation in §4.2 intact.
package bytecode

// Opcode identifies an instruction. The grouping below mirrors the eleven
// IFC opcode families of the distilled spec's §4.4.
type Opcode uint8

const (
	OpNop Opcode = iota

	// Family 1 — pure register-to-register.
	OpMove
	OpAdd
	OpSub
	OpMul
	OpDiv
	OpMod
	OpNegate
	OpNot
	OpBitAnd
	OpBitOr
	OpBitXor
	OpLShift
	OpRShift
	OpURShift
	OpEq
	OpNeq
	OpStrictEq
	OpNStrictEq
	OpLess
	OpLessEq
	OpGreater
	OpGreaterEq
	OpPreInc
	OpPreDec
	OpPostInc
	OpPostDec
	OpToNumber
	OpStrCat
	OpTypeOf
	OpIsObject
	OpIsFunction
	OpInstanceOf
	OpIn
	OpGetByPName // property-name-array iteration value fetch

	// Family 2 — branches (and the three unconditional jumps, which never
	// push a PC frame; see internal/dispatch).
	OpJmp
	OpLoop
	OpJmpScopes
	OpJTrue
	OpJFalse
	OpJEmpty // finally-replay jump
	OpJEqNull
	OpJNeqNull
	OpLoopIfTrue
	OpLoopIfFalse
	OpJLess
	OpJLessEq
	OpJGreater
	OpJGreaterEq
	OpJNLess
	OpJNLessEq
	OpJNGreater
	OpJNGreaterEq
	OpLoopIfLess
	OpLoopIfLessEq
	OpLoopIfGreater
	OpLoopIfGreaterEq
	OpSwitchImm
	OpSwitchChar
	OpSwitchString
	OpGetPNames
	OpNextPName

	// Family 3 — property reads.
	OpGetById
	OpGetByVal
	OpGetArgumentsLength
	OpResolve
	OpResolveSkip
	OpResolveGlobal
	OpResolveGlobalDynamic
	OpResolveBase
	OpResolveWithBase
	OpResolveWithThis
	OpEnsurePropertyExists

	// Family 4 — property writes.
	OpPutById
	OpPutByVal
	OpPutByIndex

	// Family 5 — delete.
	OpDelById
	OpDelByVal

	// Family 6 — call and construct.
	OpCall
	OpCallVarargs
	OpCallEval
	OpConstruct

	// Family 7 — return.
	OpRet
	OpRetObjectOrThis

	// Family 8 — throw and catch.
	OpThrow
	OpThrowReferenceError
	OpCatch

	// Family 9 — scope manipulation.
	OpPushScope
	OpPopScope
	OpPushNewScope

	// Family 10 — activation / arguments / object creation.
	OpCreateThis
	OpCreateActivation
	OpTearOffActivation
	OpTearOffArguments
	OpNewFunction
	OpNewRegExp

	// Family 11 — end.
	OpEnd

	numOpcodes
)

// OpcodeClass is the coarse classification used by the dominator engine to
// decide how many forward edges an instruction contributes, and by the
// dispatcher to decide which IFC family rule applies. This is the
// opcode_class(op) external interface named in §6.
type OpcodeClass uint8

const (
	ClassPure OpcodeClass = iota
	ClassConditional
	ClassUnconditional
	ClassSwitchImm
	ClassSwitchChar
	ClassSwitchString
	ClassReturn
	ClassReturnObjectOrThis
	ClassMayThrow
	ClassCall
	ClassThrow
	ClassScope
	ClassActivation
	ClassEnd
)

type opcodeInfo struct {
	class            OpcodeClass
	operandCount     int
	offsetFieldIndex int // -1 if the opcode carries no jump offset
	mayThrow         bool
}

var opcodeTable = [numOpcodes]opcodeInfo{
	OpNop: {ClassPure, 0, -1, false},

	OpMove:       {ClassPure, 2, -1, false},
	OpAdd:        {ClassPure, 3, -1, true},
	OpSub:        {ClassPure, 3, -1, true},
	OpMul:        {ClassPure, 3, -1, true},
	OpDiv:        {ClassPure, 3, -1, true},
	OpMod:        {ClassPure, 3, -1, true},
	OpNegate:     {ClassPure, 2, -1, true},
	OpNot:        {ClassPure, 2, -1, false},
	OpBitAnd:     {ClassPure, 3, -1, true},
	OpBitOr:      {ClassPure, 3, -1, true},
	OpBitXor:     {ClassPure, 3, -1, true},
	OpLShift:     {ClassPure, 3, -1, true},
	OpRShift:     {ClassPure, 3, -1, true},
	OpURShift:    {ClassPure, 3, -1, true},
	OpEq:         {ClassPure, 3, -1, true},
	OpNeq:        {ClassPure, 3, -1, true},
	OpStrictEq:   {ClassPure, 3, -1, true},
	OpNStrictEq:  {ClassPure, 3, -1, true},
	OpLess:       {ClassPure, 3, -1, true},
	OpLessEq:     {ClassPure, 3, -1, true},
	OpGreater:    {ClassPure, 3, -1, true},
	OpGreaterEq:  {ClassPure, 3, -1, true},
	OpPreInc:     {ClassPure, 2, -1, true},
	OpPreDec:     {ClassPure, 2, -1, true},
	OpPostInc:    {ClassPure, 2, -1, true},
	OpPostDec:    {ClassPure, 2, -1, true},
	OpToNumber:   {ClassPure, 2, -1, true},
	OpStrCat:     {ClassPure, 3, -1, true},
	OpTypeOf:     {ClassPure, 2, -1, false},
	OpIsObject:   {ClassPure, 2, -1, false},
	OpIsFunction: {ClassPure, 2, -1, false},
	OpInstanceOf: {ClassPure, 3, -1, true},
	OpIn:         {ClassPure, 3, -1, true},
	OpGetByPName: {ClassPure, 4, -1, false},

	OpJmp:       {ClassUnconditional, 1, 0, false},
	OpLoop:      {ClassUnconditional, 1, 0, false},
	OpJmpScopes: {ClassUnconditional, 2, 1, false},

	OpJTrue:           {ClassConditional, 2, 1, false},
	OpJFalse:          {ClassConditional, 2, 1, false},
	OpJEmpty:          {ClassConditional, 2, 1, false},
	OpJEqNull:         {ClassConditional, 2, 1, false},
	OpJNeqNull:        {ClassConditional, 2, 1, false},
	OpLoopIfTrue:      {ClassConditional, 2, 1, true},
	OpLoopIfFalse:     {ClassConditional, 2, 1, true},
	OpJLess:           {ClassConditional, 3, 2, true},
	OpJLessEq:         {ClassConditional, 3, 2, true},
	OpJGreater:        {ClassConditional, 3, 2, true},
	OpJGreaterEq:      {ClassConditional, 3, 2, true},
	OpJNLess:          {ClassConditional, 3, 2, true},
	OpJNLessEq:        {ClassConditional, 3, 2, true},
	OpJNGreater:       {ClassConditional, 3, 2, true},
	OpJNGreaterEq:     {ClassConditional, 3, 2, true},
	OpLoopIfLess:      {ClassConditional, 3, 2, true},
	OpLoopIfLessEq:    {ClassConditional, 3, 2, true},
	OpLoopIfGreater:   {ClassConditional, 3, 2, true},
	OpLoopIfGreaterEq: {ClassConditional, 3, 2, true},

	// Operands: [0] register to test, [1] jump-table index, [2] default
	// offset (offsetFieldIndex points at the default so Target/Fallthrough
	// behave like any other branch for the default case; the dominator
	// engine reads the per-case offsets directly from the jump table).
	OpSwitchImm:    {ClassSwitchImm, 3, 2, true},
	OpSwitchChar:   {ClassSwitchChar, 3, 2, true},
	OpSwitchString: {ClassSwitchString, 3, 2, true},

	OpGetPNames: {ClassConditional, 4, 3, false},
	OpNextPName: {ClassConditional, 5, 4, true},

	OpGetById:              {ClassMayThrow, 3, -1, true},
	OpGetByVal:             {ClassMayThrow, 3, -1, true},
	OpGetArgumentsLength:   {ClassMayThrow, 2, -1, true},
	OpResolve:              {ClassMayThrow, 2, -1, true},
	OpResolveSkip:          {ClassMayThrow, 3, -1, true},
	OpResolveGlobal:        {ClassMayThrow, 2, -1, true},
	OpResolveGlobalDynamic: {ClassMayThrow, 3, -1, true},
	OpResolveBase:          {ClassMayThrow, 2, -1, true},
	OpResolveWithBase:      {ClassMayThrow, 3, -1, true},
	OpResolveWithThis:      {ClassMayThrow, 3, -1, true},
	OpEnsurePropertyExists: {ClassMayThrow, 2, -1, true},

	OpPutById:  {ClassMayThrow, 3, -1, true},
	OpPutByVal: {ClassMayThrow, 3, -1, true},

	OpPutByIndex: {ClassMayThrow, 3, -1, false},

	OpDelById:  {ClassMayThrow, 2, -1, true},
	OpDelByVal: {ClassMayThrow, 3, -1, true},

	OpCall:         {ClassCall, 3, -1, true},
	OpCallVarargs:  {ClassCall, 3, -1, true},
	OpCallEval:     {ClassCall, 3, -1, true},
	OpConstruct:    {ClassCall, 3, -1, true},

	OpRet:             {ClassReturn, 1, -1, false},
	OpRetObjectOrThis: {ClassReturnObjectOrThis, 2, -1, false},

	OpThrow:               {ClassThrow, 1, -1, true},
	OpThrowReferenceError: {ClassThrow, 1, -1, true},
	OpCatch:               {ClassPure, 1, -1, false},

	OpPushScope:    {ClassScope, 1, -1, true},
	OpPopScope:     {ClassScope, 0, -1, false},
	OpPushNewScope: {ClassScope, 2, -1, false},

	OpCreateThis:        {ClassActivation, 1, -1, false},
	OpCreateActivation:  {ClassActivation, 1, -1, false},
	OpTearOffActivation: {ClassActivation, 1, -1, false},
	OpTearOffArguments:  {ClassActivation, 1, -1, false},
	OpNewFunction:       {ClassActivation, 2, -1, false},
	OpNewRegExp:         {ClassActivation, 2, -1, true},

	OpEnd: {ClassEnd, 1, -1, false},
}

// OpcodeLength returns the number of instruction slots op occupies — always
// 1 in this slice-indexed representation (see package doc).
func OpcodeLength(op Opcode) int { return 1 }

// OperandCount returns how many operand slots op's instruction tuple has.
func OperandCount(op Opcode) int { return opcodeTable[op].operandCount }

// Class returns op's OpcodeClass.
func Class(op Opcode) OpcodeClass { return opcodeTable[op].class }

// OffsetFieldIndex returns which operand slot carries a jump offset, or -1
// if op has none.
func OffsetFieldIndex(op Opcode) int { return opcodeTable[op].offsetFieldIndex }

// MayThrow reports whether op is exception-producing: an implicit throw
// edge should be added to the nearest enclosing handler (or SEN) when
// building the CFG with exception edges included.
func MayThrow(op Opcode) bool { return opcodeTable[op].mayThrow }

// IsBranch reports whether op is a two-way conditional (Family 2 in the
// distilled spec's §4.4), as opposed to an unconditional jump or a switch.
func IsBranch(op Opcode) bool { return opcodeTable[op].class == ClassConditional }

// IsPropertyRead, IsPropertyWrite, and IsDelete disambiguate the three
// opcode families that share ClassMayThrow for CFG purposes (they all
// contribute a single fallthrough edge plus an optional exception edge) but
// need different IFC treatment in the dispatcher (§4.4 Families 3, 4, 5).
func IsPropertyRead(op Opcode) bool {
	switch op {
	case OpGetById, OpGetByVal, OpGetArgumentsLength,
		OpResolve, OpResolveSkip, OpResolveGlobal, OpResolveGlobalDynamic,
		OpResolveBase, OpResolveWithBase, OpResolveWithThis, OpEnsurePropertyExists:
		return true
	}
	return false
}

// IsLoopOp reports whether op is one of the loop-class instructions the
// tick-budget counter decrements on (§5 "a tick counter decrements on each
// loop-class instruction").
func IsLoopOp(op Opcode) bool {
	switch op {
	case OpLoop, OpLoopIfTrue, OpLoopIfFalse, OpLoopIfLess, OpLoopIfLessEq, OpLoopIfGreater, OpLoopIfGreaterEq:
		return true
	}
	return false
}

func IsPropertyWrite(op Opcode) bool {
	switch op {
	case OpPutById, OpPutByVal, OpPutByIndex:
		return true
	}
	return false
}

func IsDelete(op Opcode) bool {
	switch op {
	case OpDelById, OpDelByVal:
		return true
	}
	return false
}
