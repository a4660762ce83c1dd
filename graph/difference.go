// Copyright 2026 the original author or authors.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package graph

import (
	"maps"
	"slices"

	"github.com/WorldBank-Transport/iD/model"
)

// ChangeType classifies an id in a Difference.
type ChangeType int

const (
	Created ChangeType = iota
	Modified
	Deleted
)

func (c ChangeType) String() string {
	switch c {
	case Created:
		return "created"
	case Modified:
		return "modified"
	case Deleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// Change is the state of one id in the base and head graphs.  Base is nil
// for created ids, Head is nil for deleted ones.
type Change struct {
	ID   model.ID
	Type ChangeType
	Base model.Entity
	Head model.Entity
}

// Difference classifies every id whose content differs between two graphs
// as exactly one of created, modified or deleted.
type Difference struct {
	base    *Graph
	head    *Graph
	changes map[model.ID]Change
}

// Diff compares head against base.  Only ids written by layers the two
// graphs do not share are examined.
func Diff(base, head *Graph) *Difference {
	candidates := make(map[model.ID]struct{})
	base.local.collect(nil, candidates)
	head.local.collect(nil, candidates)
	head.base.collect(base.base, candidates)
	base.base.collect(head.base, candidates)

	d := &Difference{base: base, head: head, changes: make(map[model.ID]Change)}

	for id := range candidates {
		b, inBase := base.Find(id)
		h, inHead := head.Find(id)

		switch {
		case !inBase && inHead:
			d.changes[id] = Change{ID: id, Type: Created, Head: h}
		case inBase && !inHead:
			d.changes[id] = Change{ID: id, Type: Deleted, Base: b}
		case inBase && inHead && !model.Equal(b, h):
			d.changes[id] = Change{ID: id, Type: Modified, Base: b, Head: h}
		}
	}

	return d
}

// Len returns the number of changed ids.
func (d *Difference) Len() int {
	return len(d.changes)
}

// IsEmpty reports whether the graphs hold the same content.
func (d *Difference) IsEmpty() bool {
	return len(d.changes) == 0
}

// IDs returns the changed ids, sorted.
func (d *Difference) IDs() []model.ID {
	return slices.Sorted(maps.Keys(d.changes))
}

// Change returns the change recorded for id.
func (d *Difference) Change(id model.ID) (Change, bool) {
	c, ok := d.changes[id]
	return c, ok
}

// Changes returns every change, sorted by id.
func (d *Difference) Changes() []Change {
	out := make([]Change, 0, len(d.changes))
	for _, id := range d.IDs() {
		out = append(out, d.changes[id])
	}

	return out
}

func (d *Difference) ofType(t ChangeType) []model.Entity {
	var out []model.Entity

	for _, c := range d.Changes() {
		if c.Type != t {
			continue
		}

		if c.Head != nil {
			out = append(out, c.Head)
		} else {
			out = append(out, c.Base)
		}
	}

	return out
}

// Created returns the head values of created ids.
func (d *Difference) Created() []model.Entity {
	return d.ofType(Created)
}

// Modified returns the head values of modified ids.
func (d *Difference) Modified() []model.Entity {
	return d.ofType(Modified)
}

// Deleted returns the base values of deleted ids.
func (d *Difference) Deleted() []model.Entity {
	return d.ofType(Deleted)
}

// Complete returns the changed ids plus everything whose rendering depends
// on them: nodes added to or dropped from changed ways and the parent ways
// and relations, transitively, of every change.  Values are taken from the
// head graph; deleted ids map to nil.
func (d *Difference) Complete() map[model.ID]model.Entity {
	out := make(map[model.ID]model.Entity)

	for _, c := range d.Changes() {
		out[c.ID] = c.Head

		if c.ID.Type() == model.WAY {
			removed, added := childDiff(wayChildren(c.Base), wayChildren(c.Head))
			for _, id := range slices.Concat(removed, added) {
				e, _ := d.head.Find(id)
				out[id] = e
			}
		}

		for _, w := range d.head.ParentWays(c.ID) {
			d.addParent(w, out)
		}

		for _, r := range d.head.ParentRelations(c.ID) {
			d.addParent(r, out)
		}
	}

	return out
}

func (d *Difference) addParent(p model.Entity, out map[model.ID]model.Entity) {
	if _, ok := out[p.GetID()]; ok {
		return
	}

	out[p.GetID()] = p

	for _, r := range d.head.ParentRelations(p.GetID()) {
		d.addParent(r, out)
	}
}

// SummaryItem is one user-visible change.
type SummaryItem struct {
	Entity model.Entity
	Type   ChangeType
}

// Summary returns the changes as a user would count them, sorted by id.
// Vertices without interesting tags are not reported on their own; moving
// one reports its parent ways as modified instead.
func (d *Difference) Summary() []SummaryItem {
	relevant := make(map[model.ID]SummaryItem)

	add := func(e model.Entity, t ChangeType) {
		relevant[e.GetID()] = SummaryItem{Entity: e, Type: t}
	}

	addParents := func(id model.ID) {
		for _, w := range d.head.ParentWays(id) {
			if _, ok := relevant[w.ID]; !ok {
				add(w, Modified)
			}
		}
	}

	for _, c := range d.Changes() {
		switch {
		case c.Head != nil && !d.head.IsVertex(c.ID):
			if c.Base != nil {
				add(c.Head, Modified)
			} else {
				add(c.Head, Created)
			}
		case c.Base != nil && !d.base.IsVertex(c.ID):
			add(c.Base, Deleted)
		case c.Base != nil && c.Head != nil:
			b, h := c.Base.(*model.Node), c.Head.(*model.Node)
			moved := !b.Loc.Equal(h.Loc)
			retagged := !maps.Equal(b.Tags, h.Tags)

			if moved {
				addParents(c.ID)
			}

			if retagged || (moved && model.HasInterestingTags(h)) {
				add(h, Modified)
			}
		case c.Head != nil && model.HasInterestingTags(c.Head):
			add(c.Head, Created)
		case c.Base != nil && model.HasInterestingTags(c.Base):
			add(c.Base, Deleted)
		}
	}

	out := make([]SummaryItem, 0, len(relevant))
	for _, id := range slices.Sorted(maps.Keys(relevant)) {
		out = append(out, relevant[id])
	}

	return out
}
