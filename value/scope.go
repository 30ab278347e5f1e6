// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import "github.com/bichhawat/ifc4bc-sub000/internal/label"

// Scope is one link in the lexical scope chain (§3 "scope-chain links").
// NextScopeLabel guards traversal to Parent, the same way an Object's
// ProtoLabel guards prototype-chain traversal.
type Scope struct {
	Vars           map[string]Labeled[Value]
	NextScopeLabel label.Label
	Parent         *Scope
}

// PushScope creates a new innermost scope imprinting pc onto its
// next-scope label (§4.4 Family 9: "push imprints the current PC onto the
// new link's next-scope label").
func PushScope(parent *Scope, pc label.Label) *Scope {
	return &Scope{Vars: make(map[string]Labeled[Value]), NextScopeLabel: pc, Parent: parent}
}

// PopAllowed reports whether unlinking s (moving to s.Parent) is permitted
// under the current pc. It fails only when s's next-scope label carries the
// taint bit and pc cannot absorb it — §4.4 Family 9's strict NSU check.
func (s *Scope) PopAllowed(pc label.Label) bool {
	if !label.Taint(s.NextScopeLabel) {
		return true
	}
	return label.Leq(s.NextScopeLabel, pc)
}

// Lookup searches s and its ancestors for name, accumulating next-scope
// labels the way Object.GetIFC accumulates proto labels.
func (s *Scope) Lookup(name string) (v Value, acc label.Label, found bool) {
	acc = label.Bottom()
	for cur := s; cur != nil; cur = cur.Parent {
		if lv, ok := cur.Vars[name]; ok {
			return lv.V, label.Join(acc, lv.Label), true
		}
		acc = label.Join(acc, cur.NextScopeLabel)
	}
	return nil, acc, false
}
