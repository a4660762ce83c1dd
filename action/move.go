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

	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

// MoveNode places a node at Loc.
type MoveNode struct {
	ID  model.ID
	Loc model.Loc
}

func (a MoveNode) Apply(g *graph.Graph) (*graph.Graph, error) {
	n, err := g.Node(a.ID)
	if err != nil {
		return nil, err
	}

	return g.Replace(n.Update(func(c *model.Node) { c.Loc = a.Loc })), nil
}

func (MoveNode) Annotation() string {
	return "Moved a point."
}

// Move translates every node of the given entities by Delta.  Way nodes and
// relation members are followed; a node shared by several entities moves
// once.
type Move struct {
	IDs   []model.ID
	Delta model.Loc
}

func (a Move) Apply(g *graph.Graph) (*graph.Graph, error) {
	nodes := make(map[model.ID]struct{})
	visited := make(map[model.ID]struct{})

	var walk func(id model.ID) error
	walk = func(id model.ID) error {
		if _, ok := visited[id]; ok {
			return nil
		}

		visited[id] = struct{}{}

		e, err := g.Entity(id)
		if err != nil {
			return err
		}

		switch e := e.(type) {
		case *model.Node:
			nodes[id] = struct{}{}
		case *model.Way:
			for _, n := range e.Nodes {
				nodes[n] = struct{}{}
			}
		case *model.Relation:
			for _, m := range e.Members {
				if g.HasEntity(m.ID) {
					if err := walk(m.ID); err != nil {
						return err
					}
				}
			}
		}

		return nil
	}

	for _, id := range a.IDs {
		if err := walk(id); err != nil {
			return nil, fmt.Errorf("move: %w", err)
		}
	}

	return g.Batch(func(tx *graph.Tx) error {
		for id := range nodes {
			n, err := g.Node(id)
			if err != nil {
				return fmt.Errorf("move: %w", err)
			}

			tx.Replace(n.Update(func(c *model.Node) { c.Loc = c.Loc.Add(a.Delta.Lon, a.Delta.Lat) }))
		}

		return nil
	})
}

func (a Move) Annotation() string {
	if len(a.IDs) == 1 {
		return "Moved a feature."
	}

	return fmt.Sprintf("Moved %d features.", len(a.IDs))
}

// ChangeTags replaces the tags of an entity.
type ChangeTags struct {
	ID   model.ID
	Tags map[string]string
}

func (a ChangeTags) Apply(g *graph.Graph) (*graph.Graph, error) {
	e, err := g.Entity(a.ID)
	if err != nil {
		return nil, err
	}

	return g.Replace(model.WithTags(e, a.Tags)), nil
}

func (ChangeTags) Annotation() string {
	return "Changed tags."
}
