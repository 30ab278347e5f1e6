// Copyright 2017 The go-interpreter Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package value

import (
	"errors"

	"github.com/bichhawat/ifc4bc-sub000/internal/label"
)

// ErrNSUViolation is returned by PutIFC/DelIFC when a structural write or
// delete would overwrite a slot with a stale, strictly-higher label — the
// §4.4 Family 4/5 "strict NSU failure" that callers translate into a
// transaction abort. Unlike Family 1's register writes, these never get the
// taint-bit relaxation.
var ErrNSUViolation = errors.New("value: no-sensitive-upgrade violation on structural write")

// Object is a bare property bag: own slots plus the three structural labels
// named in §3 — an object header label guarding structural mutation, a
// proto label guarding prototype-chain traversal, and a pointer to the
// prototype object itself.
type Object struct {
	Slots       map[string]Labeled[Value]
	HeaderLabel label.Label
	ProtoLabel  label.Label
	Proto       *Object
}

// NewObject creates an empty object whose header carries l — the pc at
// creation time (§4.4 Family 10: "Creating an object attaches pc as its
// initial header and prototype labels").
func NewObject(l label.Label) *Object {
	return &Object{Slots: make(map[string]Labeled[Value]), HeaderLabel: l, ProtoLabel: l}
}

// GetIFC walks own slots, then the prototype chain, accumulating a label
// per §4.4 Family 3: the object's own header label (hop 0), then — for
// every hop taken along the chain — the proto-label of the structure just
// left (the label guarding that very traversal), and finally the found
// slot's own label. The returned label does not include pc; callers join it
// in per the dispatcher's general step 3 rule.
func (o *Object) GetIFC(name string) (v Value, acc label.Label, found bool) {
	acc = o.HeaderLabel
	for cur := o; ; {
		if slot, ok := cur.Slots[name]; ok {
			return slot.V, label.Join(acc, slot.Label), true
		}
		if cur.Proto == nil {
			return nil, acc, false
		}
		acc = label.Join(acc, cur.ProtoLabel)
		cur = cur.Proto
	}
}

// PutIFC performs a structural write per §4.4 Family 4. valLabel is the
// label of the value being stored; pc is the dispatcher's current PC label.
// On success it returns the object's (possibly newly-joined) header label,
// which the caller must write back onto its own base-register label — new
// properties monotonically raise the header, existing ones leave it
// unchanged.
func (o *Object) PutIFC(name string, v Value, valLabel, pc label.Label) (newHeaderLabel label.Label, err error) {
	ctx := label.Join(pc, label.Join(o.HeaderLabel, valLabel))
	if slot, ok := o.Slots[name]; ok {
		if !label.Leq(slot.Label, ctx) {
			return o.HeaderLabel, ErrNSUViolation
		}
		o.Slots[name] = Labeled[Value]{V: v, Label: ctx}
		return o.HeaderLabel, nil
	}
	o.Slots[name] = Labeled[Value]{V: v, Label: ctx}
	o.HeaderLabel = label.Join(o.HeaderLabel, ctx)
	return o.HeaderLabel, nil
}

// DelIFC deletes a slot per §4.4 Family 5 — the same strict-NSU discipline
// as PutIFC. Deleting an absent property is a no-op, not a violation.
func (o *Object) DelIFC(name string, pc label.Label) (newHeaderLabel label.Label, err error) {
	slot, ok := o.Slots[name]
	if !ok {
		return o.HeaderLabel, nil
	}
	ctx := label.Join(pc, o.HeaderLabel)
	if !label.Leq(slot.Label, ctx) {
		return o.HeaderLabel, ErrNSUViolation
	}
	delete(o.Slots, name)
	o.HeaderLabel = label.Join(o.HeaderLabel, ctx)
	return o.HeaderLabel, nil
}
