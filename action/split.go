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

// Split cuts every way passing through Node at that node, or only the ways
// listed in Ways.  Each cut way keeps its id and the part up to the node;
// the remainder becomes a new way carrying the same tags and joining the
// same relations with the same role.
//
// The ids of the new ways are allocated on first use and reused by later
// applications, so replaying a split over a refreshed base produces the
// same ids.
type Split struct {
	Node model.ID
	Ways []model.ID

	seq    *model.Sequence
	newIDs []model.ID
}

// NewSplit creates a split drawing new way ids from seq, or from
// model.DefaultSequence when seq is nil.
func NewSplit(node model.ID, seq *model.Sequence, ways ...model.ID) *Split {
	if seq == nil {
		seq = model.DefaultSequence
	}

	return &Split{Node: node, Ways: ways, seq: seq}
}

// NewIDs returns the ids allocated so far.
func (s *Split) NewIDs() []model.ID {
	return slices.Clone(s.newIDs)
}

func (s *Split) candidates(g *graph.Graph) []*model.Way {
	var out []*model.Way

	for _, w := range g.ParentWays(s.Node) {
		if len(s.Ways) > 0 && !slices.Contains(s.Ways, w.ID) {
			continue
		}

		if w.IsInterior(s.Node) {
			out = append(out, w)
		}
	}

	return out
}

func (s *Split) Apply(g *graph.Graph) (*graph.Graph, error) {
	ways := s.candidates(g)
	if len(ways) == 0 {
		return nil, fmt.Errorf("split at %s: no way to split", s.Node)
	}

	for len(s.newIDs) < len(ways) {
		s.newIDs = append(s.newIDs, s.seq.Next(model.WAY))
	}

	return g.Batch(func(tx *graph.Tx) error {
		for i, w := range ways {
			s.split(tx, w, s.newIDs[i])
		}

		return nil
	})
}

func (s *Split) split(tx *graph.Tx, w *model.Way, newID model.ID) {
	var nodesA, nodesB []model.ID

	if w.IsClosed() {
		// the ring is cut at the node and at the node opposite to it
		ring := w.Nodes[:len(w.Nodes)-1]
		a := slices.Index(ring, s.Node)
		b := (a + len(ring)/2) % len(ring)

		if b < a {
			nodesA = slices.Concat(ring[a:], ring[:b+1])
			nodesB = slices.Clone(ring[b : a+1])
		} else {
			nodesA = slices.Clone(ring[a : b+1])
			nodesB = slices.Concat(ring[b:], ring[:a+1])
		}
	} else {
		i := slices.Index(w.Nodes, s.Node)
		nodesA = slices.Clone(w.Nodes[:i+1])
		nodesB = slices.Clone(w.Nodes[i:])
	}

	wayA := w.Update(func(c *model.Way) { c.Nodes = nodesA })
	wayB := &model.Way{ID: newID, Tags: wayA.Tags, Info: model.Info{Visible: true}, Nodes: nodesB}

	tx.Replace(wayA)
	tx.Replace(wayB)

	for _, r := range tx.ParentRelations(w.ID) {
		i := r.IndexOf(w.ID)
		m := model.Member{ID: newID, Type: model.WAY, Role: r.Members[i].Role}
		tx.Replace(r.AddMember(m, i+1))
	}
}

func (*Split) Annotation() string {
	return "Split a line."
}

// Disabled refuses nodes that are not an interior vertex of a way.
func (s *Split) Disabled(g *graph.Graph) string {
	if len(s.candidates(g)) == 0 {
		return ReasonNotEligible
	}

	return ""
}
