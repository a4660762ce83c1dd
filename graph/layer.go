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

	"github.com/WorldBank-Transport/iD/model"
)

// maxDepth bounds the length of a layer chain.  Longer chains are collapsed
// so lookups walk at most a handful of maps.
const maxDepth = 16

// layer holds the overrides written by one batch.  A nil entity marks a
// removal; parent lists are stored whole for every child id they touch.
type layer struct {
	parent   *layer
	depth    int
	entities map[model.ID]model.Entity
	ways     map[model.ID][]model.ID
	rels     map[model.ID][]model.ID
}

func newLayer(parent *layer) *layer {
	l := &layer{
		parent:   parent,
		entities: make(map[model.ID]model.Entity),
		ways:     make(map[model.ID][]model.ID),
		rels:     make(map[model.ID][]model.ID),
	}

	if parent != nil {
		l.depth = parent.depth + 1
	}

	return l
}

func (l *layer) entity(id model.ID) (model.Entity, bool) {
	for ; l != nil; l = l.parent {
		if e, ok := l.entities[id]; ok {
			return e, true
		}
	}

	return nil, false
}

func (l *layer) parentWays(id model.ID) ([]model.ID, bool) {
	for ; l != nil; l = l.parent {
		if p, ok := l.ways[id]; ok {
			return p, true
		}
	}

	return nil, false
}

func (l *layer) parentRels(id model.ID) ([]model.ID, bool) {
	for ; l != nil; l = l.parent {
		if p, ok := l.rels[id]; ok {
			return p, true
		}
	}

	return nil, false
}

func (l *layer) empty() bool {
	return len(l.entities) == 0 && len(l.ways) == 0 && len(l.rels) == 0
}

// flatten collapses every layer above the bottom of the chain into a single
// layer once the chain grows past maxDepth.  The bottom layer is shared.
func (l *layer) flatten() *layer {
	if l == nil || l.depth < maxDepth {
		return l
	}

	var chain []*layer
	for c := l; c.parent != nil; c = c.parent {
		chain = append(chain, c)
	}

	f := newLayer(chain[len(chain)-1].parent)
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(f.entities, chain[i].entities)
		maps.Copy(f.ways, chain[i].ways)
		maps.Copy(f.rels, chain[i].rels)
	}

	return f
}

// squash returns the net entity overrides of the whole chain.
func (l *layer) squash() map[model.ID]model.Entity {
	var chain []*layer
	for c := l; c != nil; c = c.parent {
		chain = append(chain, c)
	}

	out := make(map[model.ID]model.Entity)
	for i := len(chain) - 1; i >= 0; i-- {
		maps.Copy(out, chain[i].entities)
	}

	return out
}

// collect adds to ids the entity keys of every layer of l's chain that is
// not also part of other's chain.
func (l *layer) collect(other *layer, ids map[model.ID]struct{}) {
	shared := make(map[*layer]struct{})
	for c := other; c != nil; c = c.parent {
		shared[c] = struct{}{}
	}

	for c := l; c != nil; c = c.parent {
		if _, ok := shared[c]; ok {
			return
		}

		for id := range c.entities {
			ids[id] = struct{}{}
		}
	}
}
