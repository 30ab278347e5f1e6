// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

// Instruction is an opcode tag plus a fixed-length tuple of operand slots
// (§3 "Instruction"). Operand meaning is opcode-dependent: register index,
// constant index, jump offset, identifier index, or jump-table index.
type Instruction struct {
	Op       Opcode
	Operands [5]int32
}

// Target returns the absolute instruction index a branch/jump instruction
// at position pos would jump to, using its configured offset operand.
// It panics if op carries no offset field — callers must check
// OffsetFieldIndex(op) != -1 first (or IsBranch/Class).
func (in Instruction) Target(pos int) int {
	idx := OffsetFieldIndex(in.Op)
	if idx < 0 {
		panic("bytecode: opcode has no offset field")
	}
	return pos + int(in.Operands[idx])
}

// Fallthrough returns the instruction index reached by falling through
// (not taking) in, positioned at pos.
func (in Instruction) Fallthrough(pos int) int {
	return pos + OpcodeLength(in.Op)
}

// JumpTable indexes the per-opcode table of case targets for a typed
// switch, addressed by the jump-table index operand.
type JumpTable struct {
	// Targets maps a dense integer case (ImmSwitchTables), a character
	// code (CharSwitchTables), or a string value (StringSwitchTables,
	// keyed by the string itself) to a relative branch offset from the
	// switch instruction.
	IntTargets    map[int32]int32
	CharTargets   map[rune]int32
	StringTargets map[string]int32
	Default       int32
}

// Offsets returns every branch offset this table can produce, used by the
// dominator engine to add one forward edge per reachable case.
func (jt JumpTable) Offsets() []int32 {
	offsets := make([]int32, 0, len(jt.IntTargets)+len(jt.CharTargets)+len(jt.StringTargets)+1)
	for _, o := range jt.IntTargets {
		offsets = append(offsets, o)
	}
	for _, o := range jt.CharTargets {
		offsets = append(offsets, o)
	}
	for _, o := range jt.StringTargets {
		offsets = append(offsets, o)
	}
	offsets = append(offsets, jt.Default)
	return offsets
}

// HandlerRange is one entry of the exception-handler table: a half-open
// bytecode range [Start, End) covered by a handler whose code begins at
// Target (§3 "Code object").
type HandlerRange struct {
	Start, End, Target int
}

// Covers reports whether pos falls inside the handler's half-open range.
func (h HandlerRange) Covers(pos int) bool {
	return pos >= h.Start && pos < h.End
}
