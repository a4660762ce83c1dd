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

package action

import (
	"fmt"
	"slices"

	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

// deleter removes entities along with what their removal leaves behind:
// ways that become degenerate, relations without members and untagged
// nodes, ways or relations no longer used by anything.  Each id is visited
// once so cyclic relations terminate.
type deleter struct {
	tx   *graph.Tx
	seen map[model.ID]struct{}
}

func newDeleter(tx *graph.Tx) *deleter {
	return &deleter{tx: tx, seen: make(map[model.ID]struct{})}
}

func (d *deleter) visit(id model.ID) bool {
	if _, ok := d.seen[id]; ok {
		return false
	}

	d.seen[id] = struct{}{}

	return true
}

func (d *deleter) entity(id model.ID) {
	switch id.Type() {
	case model.NODE:
		d.node(id)
	case model.WAY:
		d.way(id)
	case model.RELATION:
		d.relation(id)
	}
}

func (d *deleter) node(id model.ID) {
	if !d.visit(id) {
		return
	}

	for _, w := range d.tx.ParentWays(id) {
		w = w.RemoveNode(id)
		d.tx.Replace(w)

		if w.IsDegenerate() {
			d.way(w.ID)
		}
	}

	d.detach(id)
	d.tx.Remove(id)
}

func (d *deleter) way(id model.ID) {
	if !d.visit(id) {
		return
	}

	e, ok := d.tx.Find(id)
	if !ok {
		return
	}

	d.detach(id)
	d.tx.Remove(id)

	for _, n := range slices.Compact(slices.Sorted(slices.Values(e.(*model.Way).Nodes))) {
		d.orphan(n)
	}
}

func (d *deleter) relation(id model.ID) {
	if !d.visit(id) {
		return
	}

	e, ok := d.tx.Find(id)
	if !ok {
		return
	}

	d.detach(id)
	d.tx.Remove(id)

	seen := make(map[model.ID]struct{})
	for _, m := range e.(*model.Relation).Members {
		if _, dup := seen[m.ID]; dup {
			continue
		}

		seen[m.ID] = struct{}{}
		d.orphan(m.ID)
	}
}

// detach removes id from the relations that have it as a member.
func (d *deleter) detach(id model.ID) {
	for _, r := range d.tx.ParentRelations(id) {
		r = r.RemoveMembersWithID(id)
		d.tx.Replace(r)

		if len(r.Members) == 0 {
			d.relation(r.ID)
		}
	}
}

// orphan deletes id when nothing uses it and it carries no interesting tags.
func (d *deleter) orphan(id model.ID) {
	e, ok := d.tx.Find(id)
	if !ok {
		return
	}

	if len(d.tx.ParentWays(id)) > 0 || len(d.tx.ParentRelations(id)) > 0 || model.HasInterestingTags(e) {
		return
	}

	d.entity(id)
}

func remove(g *graph.Graph, ids ...model.ID) (*graph.Graph, error) {
	for _, id := range ids {
		if !g.HasEntity(id) {
			return nil, fmt.Errorf("delete: %w", &graph.NotFoundError{ID: id})
		}
	}

	return g.Batch(func(tx *graph.Tx) error {
		d := newDeleter(tx)
		for _, id := range ids {
			d.entity(id)
		}

		return nil
	})
}

// DeleteNode removes a node from the graph and from every way and relation
// using it.
type DeleteNode struct {
	ID model.ID
}

func (a DeleteNode) Apply(g *graph.Graph) (*graph.Graph, error) {
	return remove(g, a.ID)
}

func (DeleteNode) Annotation() string {
	return "Deleted a point."
}

// Disabled refuses to leave a parent way with fewer than two nodes.
func (a DeleteNode) Disabled(g *graph.Graph) string {
	for _, w := range g.ParentWays(a.ID) {
		if len(w.RemoveNode(a.ID).Nodes) < 2 {
			return ReasonDegenerateWay
		}
	}

	return ""
}

// DeleteWay removes a way and the untagged nodes only it used.
type DeleteWay struct {
	ID model.ID
}

func (a DeleteWay) Apply(g *graph.Graph) (*graph.Graph, error) {
	return remove(g, a.ID)
}

func (DeleteWay) Annotation() string {
	return "Deleted a line."
}

// DeleteRelation removes a relation and the members only it used.
type DeleteRelation struct {
	ID model.ID
}

func (a DeleteRelation) Apply(g *graph.Graph) (*graph.Graph, error) {
	return remove(g, a.ID)
}

func (DeleteRelation) Annotation() string {
	return "Deleted a relation."
}

// DeleteMultiple removes several entities of any type in one edit.
type DeleteMultiple struct {
	IDs []model.ID
}

func (a DeleteMultiple) Apply(g *graph.Graph) (*graph.Graph, error) {
	return remove(g, a.IDs...)
}

func (a DeleteMultiple) Annotation() string {
	if len(a.IDs) == 1 {
		return "Deleted a feature."
	}

	return fmt.Sprintf("Deleted %d features.", len(a.IDs))
}
