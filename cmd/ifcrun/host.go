// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"fmt"

	"github.com/bichhawat/ifc4bc-sub000/bytecode"
	"github.com/bichhawat/ifc4bc-sub000/value"
)

// arithHost is a minimal Family 1/6 opcode evaluator good enough to run the
// demo fixtures ifcrun ships with: integer arithmetic, comparisons, and a
// pass-through for anything else. Computing opcode *results* is the host
// language runtime's job (§1 Non-goals: "implementing the surrounding
// language runtime... is out of scope") — this exists only so `ifcrun` has
// something to dispatch Family 1 register ops through.
type arithHost struct{}

func (arithHost) Eval(op bytecode.Opcode, args []value.Value) (value.Value, error) {
	if len(args) == 2 {
		a, aok := toInt(args[0])
		b, bok := toInt(args[1])
		if aok && bok {
			switch op {
			case bytecode.OpAdd:
				return a + b, nil
			case bytecode.OpSub:
				return a - b, nil
			case bytecode.OpMul:
				return a * b, nil
			case bytecode.OpDiv:
				if b == 0 {
					return nil, fmt.Errorf("arithHost: division by zero")
				}
				return a / b, nil
			case bytecode.OpMod:
				if b == 0 {
					return nil, fmt.Errorf("arithHost: division by zero")
				}
				return a % b, nil
			case bytecode.OpLess:
				return a < b, nil
			case bytecode.OpLessEq:
				return a <= b, nil
			case bytecode.OpGreater:
				return a > b, nil
			case bytecode.OpGreaterEq:
				return a >= b, nil
			case bytecode.OpEq, bytecode.OpStrictEq:
				return a == b, nil
			case bytecode.OpNeq, bytecode.OpNStrictEq:
				return a != b, nil
			}
		}
	}
	if len(args) > 0 {
		return args[0], nil
	}
	return nil, nil
}

func (arithHost) Truthy(v value.Value) bool {
	switch t := v.(type) {
	case bool:
		return t
	case int:
		return t != 0
	case nil:
		return false
	default:
		return true
	}
}

func toInt(v value.Value) (int, bool) {
	switch t := v.(type) {
	case int:
		return t, true
	case int32:
		return int(t), true
	case int64:
		return int(t), true
	default:
		return 0, false
	}
}
