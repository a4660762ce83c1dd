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

// AddEntity binds a new entity.
type AddEntity struct {
	Entity model.Entity
}

func (a AddEntity) Apply(g *graph.Graph) (*graph.Graph, error) {
	return g.Replace(a.Entity), nil
}

func (a AddEntity) Annotation() string {
	switch a.Entity.GetType() {
	case model.NODE:
		return "Added a point."
	case model.WAY:
		return "Started a line."
	default:
		return "Added a relation."
	}
}

// AddVertex inserts Node into Way at Index.  A negative index appends.
type AddVertex struct {
	Way   model.ID
	Node  model.ID
	Index int
}

func (a AddVertex) Apply(g *graph.Graph) (*graph.Graph, error) {
	w, err := g.Way(a.Way)
	if err != nil {
		return nil, err
	}

	if !g.HasEntity(a.Node) {
		return nil, fmt.Errorf("add vertex to %s: %w", a.Way, &graph.NotFoundError{ID: a.Node})
	}

	return g.Replace(w.AddNode(a.Node, a.Index)), nil
}

func (AddVertex) Annotation() string {
	return "Added a node to a way."
}

// AddMember inserts Member into Relation at Index.  A negative index
// appends.
type AddMember struct {
	Relation model.ID
	Member   model.Member
	Index    int
}

func (a AddMember) Apply(g *graph.Graph) (*graph.Graph, error) {
	r, err := g.Relation(a.Relation)
	if err != nil {
		return nil, err
	}

	return g.Replace(r.AddMember(a.Member, a.Index)), nil
}

func (AddMember) Annotation() string {
	return "Added a member to a relation."
}
