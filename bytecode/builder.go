// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package bytecode

// Builder hand-assembles a CodeObject one instruction at a time. It exists
// for tests — the actual bytecode compiler producing CodeObject values from
// source text is
// out of scope (§1), so nothing in the core imports Builder outside tests.
type Builder struct {
	co *CodeObject
}

// NewBuilder starts building a code object for sourceURL.
func NewBuilder(sourceURL string) *Builder {
	return &Builder{co: New(sourceURL)}
}

// Emit appends an instruction with the given opcode and operands (missing
// operands default to zero) and returns its index, useful for patching jump
// offsets once a forward target is known.
func (b *Builder) Emit(op Opcode, operands ...int32) int {
	var in Instruction
	in.Op = op
	copy(in.Operands[:], operands)
	b.co.Instructions = append(b.co.Instructions, in)
	return len(b.co.Instructions) - 1
}

// PatchOffset rewrites the offset operand of the instruction at pos to
// target (absolute), converting it to the relative form Instruction.Target
// expects.
func (b *Builder) PatchOffset(pos, target int) {
	idx := OffsetFieldIndex(b.co.Instructions[pos].Op)
	if idx < 0 {
		panic("bytecode: PatchOffset on opcode with no offset field")
	}
	b.co.Instructions[pos].Operands[idx] = int32(target - pos)
}

// Here returns the index the next Emit call will use.
func (b *Builder) Here() int { return len(b.co.Instructions) }

// AddHandler registers an exception handler range.
func (b *Builder) AddHandler(start, end, target int) {
	b.co.ExceptionHandlers = append(b.co.ExceptionHandlers, HandlerRange{start, end, target})
}

// Constant interns a constant value and returns its index.
func (b *Builder) Constant(v any) int32 {
	b.co.Constants = append(b.co.Constants, v)
	return int32(len(b.co.Constants) - 1)
}

// Identifier interns an identifier and returns its index.
func (b *Builder) Identifier(name string) int32 {
	b.co.Identifiers = append(b.co.Identifiers, name)
	return int32(len(b.co.Identifiers) - 1)
}

// SwitchImmTable adds a dense-integer jump table and returns its index.
func (b *Builder) SwitchImmTable(jt JumpTable) int32 {
	b.co.ImmSwitchTables = append(b.co.ImmSwitchTables, jt)
	return int32(len(b.co.ImmSwitchTables) - 1)
}

// Build returns the assembled code object.
func (b *Builder) Build() *CodeObject { return b.co }
