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

// Package model contains the entity model shared by the graph, the history
// and the remote service adapter.
package model

import (
	"maps"
	"slices"
	"time"
)

// UID is the primary key for a user.
type UID int32

// Info represents information common to Node, Way, and Relation entities.
// A zero Version marks an entity that has never been uploaded.
type Info struct {
	Version   int32 `validate:"gte=0"`
	UID       UID
	Timestamp time.Time
	Changeset int64
	User      string
	Visible   bool
}

// Equal compares two Info values; timestamps are compared as instants.
func (i Info) Equal(o Info) bool {
	return i.Version == o.Version && i.UID == o.UID && i.Changeset == o.Changeset &&
		i.User == o.User && i.Visible == o.Visible && i.Timestamp.Equal(o.Timestamp)
}

// Entity is a map feature as an immutable, versioned value.  Entities are
// never modified in place; Update returns a copy with V incremented.
type Entity interface {
	isEntity() // prevents extensions

	GetID() ID

	GetType() EntityType

	GetTags() map[string]string

	GetInfo() Info

	// GetV returns the write counter of the value.
	GetV() uint32
}

// Node represents a specific point on the earth's surface defined by its
// longitude and latitude.
type Node struct {
	ID   ID
	Tags map[string]string
	Info Info
	V    uint32
	Loc  Loc
}

var _ Entity = (*Node)(nil)

func (n *Node) isEntity() {}

func (n *Node) GetID() ID {
	return n.ID
}

func (n *Node) GetType() EntityType {
	return NODE
}

func (n *Node) GetTags() map[string]string {
	return n.Tags
}

func (n *Node) GetInfo() Info {
	return n.Info
}

func (n *Node) GetV() uint32 {
	return n.V
}

// Update returns a copy of the node with fn applied and V incremented.  The
// copy passed to fn owns its tags, so fn may modify them freely.
func (n *Node) Update(fn func(*Node)) *Node {
	c := *n
	c.Tags = maps.Clone(n.Tags)

	fn(&c)

	c.ID = n.ID
	c.V = n.V + 1

	return &c
}

// Way is an ordered list of nodes that define a polyline or, when closed,
// an area.
type Way struct {
	ID    ID
	Tags  map[string]string
	Info  Info
	V     uint32
	Nodes []ID
}

var _ Entity = (*Way)(nil)

func (w *Way) isEntity() {}

func (w *Way) GetID() ID {
	return w.ID
}

func (w *Way) GetType() EntityType {
	return WAY
}

func (w *Way) GetTags() map[string]string {
	return w.Tags
}

func (w *Way) GetInfo() Info {
	return w.Info
}

func (w *Way) GetV() uint32 {
	return w.V
}

// Update returns a copy of the way with fn applied and V incremented.
func (w *Way) Update(fn func(*Way)) *Way {
	c := *w
	c.Tags = maps.Clone(w.Tags)
	c.Nodes = slices.Clone(w.Nodes)

	fn(&c)

	c.ID = w.ID
	c.V = w.V + 1

	return &c
}

// First returns the first node id, or the empty id.
func (w *Way) First() ID {
	if len(w.Nodes) == 0 {
		return ""
	}

	return w.Nodes[0]
}

// Last returns the last node id, or the empty id.
func (w *Way) Last() ID {
	if len(w.Nodes) == 0 {
		return ""
	}

	return w.Nodes[len(w.Nodes)-1]
}

// IsClosed reports whether the way starts and ends at the same node.
func (w *Way) IsClosed() bool {
	return len(w.Nodes) > 1 && w.First() == w.Last()
}

// IsDegenerate reports whether the way has too few distinct nodes to be
// drawn: two for a line, three for a closed way.
func (w *Way) IsDegenerate() bool {
	unique := make(map[ID]struct{}, len(w.Nodes))
	for _, id := range w.Nodes {
		unique[id] = struct{}{}
	}

	if w.IsClosed() {
		return len(unique) < 3
	}

	return len(unique) < 2
}

// Contains reports whether the way references the node.
func (w *Way) Contains(id ID) bool {
	return slices.Contains(w.Nodes, id)
}

// IsInterior reports whether the node is used by the way anywhere except
// at its ends.  Every node of a closed way is interior.
func (w *Way) IsInterior(id ID) bool {
	if w.IsClosed() {
		return w.Contains(id)
	}

	for i := 1; i < len(w.Nodes)-1; i++ {
		if w.Nodes[i] == id {
			return true
		}
	}

	return false
}

// AddNode returns a copy of the way with the node inserted at index; a
// negative index appends.
func (w *Way) AddNode(id ID, index int) *Way {
	return w.Update(func(c *Way) {
		if index < 0 || index > len(c.Nodes) {
			index = len(c.Nodes)
		}

		c.Nodes = slices.Insert(c.Nodes, index, id)
	})
}

// ReplaceNode returns a copy of the way with every occurrence of old
// replaced by replacement and consecutive duplicates collapsed.
func (w *Way) ReplaceNode(old, replacement ID) *Way {
	return w.Update(func(c *Way) {
		for i, id := range c.Nodes {
			if id == old {
				c.Nodes[i] = replacement
			}
		}

		c.Nodes = slices.Compact(c.Nodes)
	})
}

// RemoveNode returns a copy of the way without any occurrence of id.  A
// closed way stays closed.
func (w *Way) RemoveNode(id ID) *Way {
	closed := w.IsClosed()

	return w.Update(func(c *Way) {
		c.Nodes = slices.DeleteFunc(c.Nodes, func(n ID) bool { return n == id })
		c.Nodes = slices.Compact(c.Nodes)

		if closed && len(c.Nodes) > 0 && c.Nodes[0] != c.Nodes[len(c.Nodes)-1] {
			c.Nodes = append(c.Nodes, c.Nodes[0])
		}
	})
}

// Member represents an entity that belongs to a relation.
type Member struct {
	ID   ID         `validate:"required,osmid"`
	Type EntityType `validate:"gte=0,lte=2"`
	Role string     `validate:"max=255"`
}

// Relation is a multipurpose data structure that documents a relationship
// between two or more entities (nodes, ways, and/or other relations).
type Relation struct {
	ID      ID
	Tags    map[string]string
	Info    Info
	V       uint32
	Members []Member
}

var _ Entity = (*Relation)(nil)

func (r *Relation) isEntity() {}

func (r *Relation) GetID() ID {
	return r.ID
}

func (r *Relation) GetType() EntityType {
	return RELATION
}

func (r *Relation) GetTags() map[string]string {
	return r.Tags
}

func (r *Relation) GetInfo() Info {
	return r.Info
}

func (r *Relation) GetV() uint32 {
	return r.V
}

// Update returns a copy of the relation with fn applied and V incremented.
func (r *Relation) Update(fn func(*Relation)) *Relation {
	c := *r
	c.Tags = maps.Clone(r.Tags)
	c.Members = slices.Clone(r.Members)

	fn(&c)

	c.ID = r.ID
	c.V = r.V + 1

	return &c
}

// IndexOf returns the index of the first member with the id, or -1.
func (r *Relation) IndexOf(id ID) int {
	return slices.IndexFunc(r.Members, func(m Member) bool { return m.ID == id })
}

// AddMember returns a copy of the relation with m inserted at index; a
// negative index appends.
func (r *Relation) AddMember(m Member, index int) *Relation {
	return r.Update(func(c *Relation) {
		if index < 0 || index > len(c.Members) {
			index = len(c.Members)
		}

		c.Members = slices.Insert(c.Members, index, m)
	})
}

// ReplaceMember returns a copy of the relation with every member old
// replaced by replacement, keeping roles.
func (r *Relation) ReplaceMember(old ID, replacement Entity) *Relation {
	return r.Update(func(c *Relation) {
		for i, m := range c.Members {
			if m.ID == old {
				c.Members[i] = Member{ID: replacement.GetID(), Type: replacement.GetType(), Role: m.Role}
			}
		}
	})
}

// RemoveMembersWithID returns a copy of the relation without members id.
func (r *Relation) RemoveMembersWithID(id ID) *Relation {
	return r.Update(func(c *Relation) {
		c.Members = slices.DeleteFunc(c.Members, func(m Member) bool { return m.ID == id })
	})
}

// WithTags returns a copy of any entity with its tags replaced.
func WithTags(e Entity, tags map[string]string) Entity {
	tags = maps.Clone(tags)

	switch e := e.(type) {
	case *Node:
		return e.Update(func(c *Node) { c.Tags = tags })
	case *Way:
		return e.Update(func(c *Way) { c.Tags = tags })
	case *Relation:
		return e.Update(func(c *Relation) { c.Tags = tags })
	default:
		panic("unknown entity type")
	}
}

// WithInfo returns a copy of any entity with its Info replaced.
func WithInfo(e Entity, info Info) Entity {
	switch e := e.(type) {
	case *Node:
		return e.Update(func(c *Node) { c.Info = info })
	case *Way:
		return e.Update(func(c *Way) { c.Info = info })
	case *Relation:
		return e.Update(func(c *Relation) { c.Info = info })
	default:
		panic("unknown entity type")
	}
}

var uninterestingTags = map[string]struct{}{
	"attribution": {},
	"created_by":  {},
	"source":      {},
	"odbl":        {},
}

// HasInterestingTags reports whether the entity carries any tag that
// describes the feature itself rather than its provenance.
func HasInterestingTags(e Entity) bool {
	for k := range e.GetTags() {
		if _, ok := uninterestingTags[k]; ok {
			continue
		}

		if len(k) >= 6 && k[:6] == "tiger:" {
			continue
		}

		return true
	}

	return false
}

// Equal compares two entities by content, ignoring their write counters.
func Equal(a, b Entity) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if a.GetID() != b.GetID() || !a.GetInfo().Equal(b.GetInfo()) || !maps.Equal(a.GetTags(), b.GetTags()) {
		return false
	}

	switch a := a.(type) {
	case *Node:
		o, ok := b.(*Node)
		return ok && a.Loc.Equal(o.Loc)
	case *Way:
		o, ok := b.(*Way)
		return ok && slices.Equal(a.Nodes, o.Nodes)
	case *Relation:
		o, ok := b.(*Relation)
		return ok && slices.Equal(a.Members, o.Members)
	default:
		return false
	}
}
