// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package dispatch

import (
	"fmt"

	"github.com/bichhawat/ifc4bc-sub000/internal/label"
)

// NSUViolation is the §7 "NSU violation (strict)" failure kind: a
// structural write, delete, scope pop, or tear-off whose destination held a
// lower label than the current pc and could not be relaxed via taint.
type NSUViolation struct {
	Line         int
	Offset       int
	CodeObjectID string
}

func (e *NSUViolation) Error() string {
	return fmt.Sprintf("Line %d: IFC Violation at %d in %s", e.Line, e.Offset, e.CodeObjectID)
}

// TaintBranch is the §7 "Branch on taint" failure kind: a Family 2 branch
// whose guard label carries the taint bit. Handled identically to
// NSUViolation by Transaction.Run, but kept distinct so diagnostics can
// name the actual cause.
type TaintBranch struct {
	Line         int
	Offset       int
	CodeObjectID string
}

func (e *TaintBranch) Error() string {
	return fmt.Sprintf("Line %d: IFC Violation (tainted branch guard) at %d in %s", e.Line, e.Offset, e.CodeObjectID)
}

// ErrNoHandler is returned internally when an exception unwinds past every
// call frame in the transaction without finding a handler (§4.4 Family 8:
// "the PC stack is cleared and the execution returns undefined").
var ErrNoHandler = fmt.Errorf("dispatch: no exception handler found")

// UnhandledException wraps ErrNoHandler with the label the escaping
// exception actually carried, so a caller's own throwTo (families.go
// callCodeObject) can join the real payload into its own PC frame instead
// of substituting its ambient pc — §4.4 Family 8: "join the exception-value
// label into the top PC frame" applies across a call boundary too.
type UnhandledException struct {
	Label label.Label
}

func (e *UnhandledException) Error() string {
	return fmt.Sprintf("dispatch: no exception handler found (label=%v)", e.Label)
}

func (e *UnhandledException) Unwrap() error { return ErrNoHandler }
