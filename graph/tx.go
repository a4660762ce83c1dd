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
	"slices"

	"github.com/WorldBank-Transport/iD/model"
)

// Tx collects the writes of one Graph.Batch.  Reads through a Tx observe
// its own writes.  A Tx must not be used after Batch returns.
type Tx struct {
	g *Graph
	l *layer
}

// Find returns the entity bound to id.
func (tx *Tx) Find(id model.ID) (model.Entity, bool) {
	return tx.g.Find(id)
}

// Entity returns the entity bound to id, or a *NotFoundError.
func (tx *Tx) Entity(id model.ID) (model.Entity, error) {
	return tx.g.Entity(id)
}

// HasEntity reports whether id is bound.
func (tx *Tx) HasEntity(id model.ID) bool {
	return tx.g.HasEntity(id)
}

// ParentWays returns the ways using id.
func (tx *Tx) ParentWays(id model.ID) []*model.Way {
	return tx.g.ParentWays(id)
}

// ParentRelations returns the relations having id as a member.
func (tx *Tx) ParentRelations(id model.ID) []*model.Relation {
	return tx.g.ParentRelations(id)
}

// Replace binds e to its id.
func (tx *Tx) Replace(e model.Entity) {
	id := e.GetID()
	old, _ := tx.g.Find(id)

	tx.reindex(id, old, e)
	tx.l.entities[id] = e
}

// Remove unbinds id.  Removing an absent id is a no-op.
func (tx *Tx) Remove(id model.ID) {
	old, ok := tx.g.Find(id)
	if !ok {
		return
	}

	tx.reindex(id, old, nil)
	tx.l.entities[id] = nil
}

// reindex patches the parent lists of the children that differ between
// old and updated.
func (tx *Tx) reindex(id model.ID, old, updated model.Entity) {
	switch id.Type() {
	case model.WAY:
		removed, added := childDiff(wayChildren(old), wayChildren(updated))
		for _, c := range removed {
			tx.l.ways[c] = without(tx.g.parentWayIDs(c), id)
		}

		for _, c := range added {
			tx.l.ways[c] = with(tx.g.parentWayIDs(c), id)
		}
	case model.RELATION:
		removed, added := childDiff(memberChildren(old), memberChildren(updated))
		for _, c := range removed {
			tx.l.rels[c] = without(tx.g.parentRelIDs(c), id)
		}

		for _, c := range added {
			tx.l.rels[c] = with(tx.g.parentRelIDs(c), id)
		}
	}
}

func wayChildren(e model.Entity) []model.ID {
	if w, ok := e.(*model.Way); ok {
		return w.Nodes
	}

	return nil
}

func memberChildren(e model.Entity) []model.ID {
	r, ok := e.(*model.Relation)
	if !ok {
		return nil
	}

	ids := make([]model.ID, len(r.Members))
	for i, m := range r.Members {
		ids[i] = m.ID
	}

	return ids
}

// childDiff returns the unique ids only in old and only in updated, in
// first-seen order.
func childDiff(old, updated []model.ID) (removed, added []model.ID) {
	inOld := make(map[model.ID]struct{}, len(old))
	for _, id := range old {
		inOld[id] = struct{}{}
	}

	inNew := make(map[model.ID]struct{}, len(updated))
	for _, id := range updated {
		inNew[id] = struct{}{}
	}

	for _, id := range old {
		if _, ok := inNew[id]; !ok && !slices.Contains(removed, id) {
			removed = append(removed, id)
		}
	}

	for _, id := range updated {
		if _, ok := inOld[id]; !ok && !slices.Contains(added, id) {
			added = append(added, id)
		}
	}

	return removed, added
}

func with(ids []model.ID, id model.ID) []model.ID {
	if slices.Contains(ids, id) {
		return ids
	}

	return append(slices.Clone(ids), id)
}

func without(ids []model.ID, id model.ID) []model.ID {
	return slices.DeleteFunc(slices.Clone(ids), func(p model.ID) bool { return p == id })
}
