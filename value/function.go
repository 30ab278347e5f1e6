// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "github.com/bichhawat/ifc4bc-sub000/bytecode"

// Function is the callable value a Family 6 call/construct instruction
// dereferences when its callee register doesn't hold a host/native
// callable: a code object plus the origin URL its defining script was
// loaded from, the key internal/label.Registry looks labels up by (§4.4
// Family 6 "origin label lookup").
type Function struct {
	Code      *bytecode.CodeObject
	OriginURL string
}

// NewFunction wraps a code object as a callable value.
func NewFunction(co *bytecode.CodeObject, originURL string) *Function {
	return &Function{Code: co, OriginURL: originURL}
}
