// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package cfg is the Dominator Engine (Component B): it builds the reversed
// control-flow graph of a bytecode.CodeObject and runs Lengauer–Tarjan to
// compute immediate post-dominators, grounded directly on
// original_source/WebKit-IFC/Source/JavaScriptCore/analysis/FlowGraph.cpp
// and StaticAnalyzer.cpp.
package cfg

import "github.com/bichhawat/ifc4bc-sub000/bytecode"

// Graph is the reversed CFG of one code object: n+1 nodes, 0..n-1 real
// instructions and node n the synthetic exit (SEN). Because post-dominators
// are dominators-of-the-reversed-graph, RevSucc/RevPred name the reversed
// relation directly rather than "forward"/"backward", matching §3's "Flow
// graph" definition.
type Graph struct {
	N int // number of real instructions; SEN = N

	// RevSucc[v] holds the reversed-graph successors of v — i.e. the
	// original-CFG predecessors of v. DFS from SEN walks these.
	RevSucc [][]int

	// RevPred[v] holds the reversed-graph predecessors of v — i.e. the
	// original-CFG successors of v. The semi-dominator computation walks
	// these.
	RevPred [][]int

	// Loop marks, per instruction, whether it is the target of a
	// backward branch (a loop header).
	Loop []bool
}

// SEN returns the synthetic exit node's index.
func (g *Graph) SEN() int { return g.N }

func (g *Graph) addEdge(from, to int) {
	g.RevSucc[to] = append(g.RevSucc[to], from)
	g.RevPred[from] = append(g.RevPred[from], to)
}

// BuildReverseGraph sweeps co's instructions in source order and builds the
// reversed CFG described in §4.2 step 1, optionally including exception
// edges (step 1's "If include-exception-edges and the opcode is
// exception-producing" clause) and marking loop back-edges (step 2).
func BuildReverseGraph(co *bytecode.CodeObject, includeExceptionEdges bool) *Graph {
	n := co.Len()
	g := &Graph{
		N:       n,
		RevSucc: make([][]int, n+1),
		RevPred: make([][]int, n+1),
		Loop:    make([]bool, n+1),
	}

	sen := n
	lastTerminator := lastTerminatorIndex(co)

	for pos, in := range co.Instructions {
		class := bytecode.Class(in.Op)

		switch class {
		case bytecode.ClassConditional:
			target := in.Target(pos)
			g.addEdge(pos, target)
			g.addEdge(pos, in.Fallthrough(pos))
			if target <= pos {
				g.Loop[target] = true
			}

		case bytecode.ClassUnconditional:
			target := in.Target(pos)
			g.addEdge(pos, target)
			if target <= pos {
				g.Loop[target] = true
			}

		case bytecode.ClassSwitchImm:
			addSwitchEdges(g, co.ImmSwitchTables, pos, in)
		case bytecode.ClassSwitchChar:
			addSwitchEdges(g, co.CharSwitchTables, pos, in)
		case bytecode.ClassSwitchString:
			addSwitchEdges(g, co.StringSwitchTables, pos, in)

		case bytecode.ClassReturn, bytecode.ClassReturnObjectOrThis, bytecode.ClassEnd:
			if pos == lastTerminator {
				g.addEdge(pos, sen)
			} else {
				g.addEdge(pos, lastTerminator)
			}

		default:
			g.addEdge(pos, in.Fallthrough(pos))
		}

		if includeExceptionEdges && isExceptionProducing(in.Op) {
			if h, ok := co.HandlerFor(pos); ok {
				g.addEdge(pos, h.Target)
			} else {
				g.addEdge(pos, sen)
			}
		}
	}

	return g
}

// addSwitchEdges adds an edge for every reachable case plus the default,
// per §4.2 "the union of the per-case offsets plus a default offset".
func addSwitchEdges(g *Graph, tables []bytecode.JumpTable, pos int, in bytecode.Instruction) {
	tableIdx := in.Operands[1]
	if int(tableIdx) >= len(tables) {
		return
	}
	for _, off := range tables[tableIdx].Offsets() {
		target := pos + int(off)
		g.addEdge(pos, target)
		if target <= pos {
			g.Loop[target] = true
		}
	}
}

func isExceptionProducing(op bytecode.Opcode) bool {
	return op == bytecode.OpThrow || op == bytecode.OpThrowReferenceError || bytecode.MayThrow(op)
}

// lastTerminatorIndex finds the final return/ret_object_or_this/end
// instruction in co, the canonical exit every other terminator in co
// chains to before reaching SEN (§4.2 step 1, "function-return opcodes").
// A well-formed code object always ends with one.
func lastTerminatorIndex(co *bytecode.CodeObject) int {
	for i := len(co.Instructions) - 1; i >= 0; i-- {
		switch bytecode.Class(co.Instructions[i].Op) {
		case bytecode.ClassReturn, bytecode.ClassReturnObjectOrThis, bytecode.ClassEnd:
			return i
		}
	}
	return len(co.Instructions) - 1
}
