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

// Package graph implements the immutable entity graph that edits are
// applied to.  A Graph is a chain of base layers (data loaded from the
// remote service) topped by a chain of local layers (edits).  Every update
// adds one layer holding only what changed, so an edit costs time
// proportional to its size, never to the size of the graph.
package graph

import (
	"maps"
	"slices"

	"github.com/WorldBank-Transport/iD/model"
)

// Graph is an immutable snapshot of entities plus their parent-way and
// parent-relation indices.
type Graph struct {
	base  *layer
	local *layer
}

// New creates a base graph holding entities.
func New(entities ...model.Entity) *Graph {
	g := &Graph{base: newLayer(nil)}

	tx := &Tx{g: g, l: g.base}
	for _, e := range entities {
		tx.Replace(e)
	}

	return g
}

// Find returns the entity bound to id.
func (g *Graph) Find(id model.ID) (model.Entity, bool) {
	if e, ok := g.local.entity(id); ok {
		return e, e != nil
	}

	e, ok := g.base.entity(id)

	return e, ok && e != nil
}

// Entity returns the entity bound to id, or a *NotFoundError.
func (g *Graph) Entity(id model.ID) (model.Entity, error) {
	e, ok := g.Find(id)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	return e, nil
}

// HasEntity reports whether id is bound.
func (g *Graph) HasEntity(id model.ID) bool {
	_, ok := g.Find(id)
	return ok
}

// Node returns the node bound to id.
func (g *Graph) Node(id model.ID) (*model.Node, error) {
	e, err := g.Entity(id)
	if err != nil {
		return nil, err
	}

	n, ok := e.(*model.Node)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	return n, nil
}

// Way returns the way bound to id.
func (g *Graph) Way(id model.ID) (*model.Way, error) {
	e, err := g.Entity(id)
	if err != nil {
		return nil, err
	}

	w, ok := e.(*model.Way)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	return w, nil
}

// Relation returns the relation bound to id.
func (g *Graph) Relation(id model.ID) (*model.Relation, error) {
	e, err := g.Entity(id)
	if err != nil {
		return nil, err
	}

	r, ok := e.(*model.Relation)
	if !ok {
		return nil, &NotFoundError{ID: id}
	}

	return r, nil
}

func (g *Graph) parentWayIDs(id model.ID) []model.ID {
	if p, ok := g.local.parentWays(id); ok {
		return p
	}

	p, _ := g.base.parentWays(id)

	return p
}

func (g *Graph) parentRelIDs(id model.ID) []model.ID {
	if p, ok := g.local.parentRels(id); ok {
		return p
	}

	p, _ := g.base.parentRels(id)

	return p
}

// ParentWays returns the ways whose node list contains id, in the order
// they were bound.  The result is empty, not an error, when there are none.
func (g *Graph) ParentWays(id model.ID) []*model.Way {
	ids := g.parentWayIDs(id)
	ways := make([]*model.Way, 0, len(ids))

	for _, pid := range ids {
		if e, ok := g.Find(pid); ok {
			ways = append(ways, e.(*model.Way))
		}
	}

	return ways
}

// ParentRelations returns the relations that have id as a member.
func (g *Graph) ParentRelations(id model.ID) []*model.Relation {
	ids := g.parentRelIDs(id)
	rels := make([]*model.Relation, 0, len(ids))

	for _, pid := range ids {
		if e, ok := g.Find(pid); ok {
			rels = append(rels, e.(*model.Relation))
		}
	}

	return rels
}

// ChildNodes returns the nodes of w that are bound in g.
func (g *Graph) ChildNodes(w *model.Way) []*model.Node {
	nodes := make([]*model.Node, 0, len(w.Nodes))

	for _, id := range w.Nodes {
		if e, ok := g.Find(id); ok {
			nodes = append(nodes, e.(*model.Node))
		}
	}

	return nodes
}

// IsVertex reports whether id is a node used by at least one way.
func (g *Graph) IsVertex(id model.ID) bool {
	return id.Type() == model.NODE && len(g.parentWayIDs(id)) > 0
}

// Replace returns a graph with e bound to its id.
func (g *Graph) Replace(e model.Entity) *Graph {
	n, _ := g.Batch(func(tx *Tx) error {
		tx.Replace(e)
		return nil
	})

	return n
}

// Remove returns a graph without id.  Entities that reference id are left
// as they are.
func (g *Graph) Remove(id model.ID) *Graph {
	n, _ := g.Batch(func(tx *Tx) error {
		tx.Remove(id)
		return nil
	})

	return n
}

// Batch runs fn against a transaction whose writes become a single new
// local layer.  g is returned unchanged when fn writes nothing; nothing is
// published when fn fails.
func (g *Graph) Batch(fn func(*Tx) error) (*Graph, error) {
	n := &Graph{base: g.base, local: newLayer(g.local)}

	if err := fn(&Tx{g: n, l: n.local}); err != nil {
		return nil, err
	}

	if n.local.empty() {
		return g, nil
	}

	n.local = n.local.flatten()

	return n, nil
}

// Merge folds remotely loaded entities into the base of g.  An entity is
// adopted when its id is absent from the base or its version is strictly
// newer, unless g holds a local edit for the id, in which case the local
// edit wins.  g is returned when nothing was adopted.
func (g *Graph) Merge(entities ...model.Entity) *Graph {
	return g.rebase(entities, false)
}

// Adopt binds entities in the base of g whatever their version.  Local
// edits still win.
func (g *Graph) Adopt(entities ...model.Entity) *Graph {
	return g.rebase(entities, true)
}

func (g *Graph) rebase(entities []model.Entity, force bool) *Graph {
	base := &Graph{base: newLayer(g.base)}
	tx := &Tx{g: base, l: base.base}

	for _, e := range entities {
		id := e.GetID()
		if g.IsLocal(id) {
			continue
		}

		if cur, ok := base.Find(id); ok && !force && e.GetInfo().Version <= cur.GetInfo().Version {
			continue
		}

		tx.Replace(e)
	}

	if base.base.empty() {
		return g
	}

	base.base = base.base.flatten()

	if g.local == nil {
		return base
	}

	// the local overrides are replayed over the new base so their parent
	// lists account for the adopted entities
	edits := g.local.squash()
	n, _ := base.Batch(func(tx *Tx) error {
		for _, id := range slices.Sorted(maps.Keys(edits)) {
			if e := edits[id]; e != nil {
				tx.Replace(e)
			} else {
				tx.Remove(id)
			}
		}

		return nil
	})

	return n
}

// Base returns the graph without any of its local edits.
func (g *Graph) Base() *Graph {
	if g.local == nil {
		return g
	}

	return &Graph{base: g.base}
}

// IsLocal reports whether id was written by a local edit.
func (g *Graph) IsLocal(id model.ID) bool {
	_, ok := g.local.entity(id)
	return ok
}

// LocalIDs returns the ids written by local edits, sorted.
func (g *Graph) LocalIDs() []model.ID {
	if g.local == nil {
		return nil
	}

	return slices.Sorted(maps.Keys(g.local.squash()))
}

// HasChanges reports whether g carries local edits.
func (g *Graph) HasChanges() bool {
	return g.local != nil
}

// Entities returns every bound entity, sorted by id.
func (g *Graph) Entities() []model.Entity {
	all := g.base.squash()
	if g.local != nil {
		maps.Copy(all, g.local.squash())
	}

	out := make([]model.Entity, 0, len(all))
	for _, id := range slices.Sorted(maps.Keys(all)) {
		if e := all[id]; e != nil {
			out = append(out, e)
		}
	}

	return out
}

// Len returns the number of bound entities.
func (g *Graph) Len() int {
	return len(g.Entities())
}
