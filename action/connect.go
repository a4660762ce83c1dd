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
	"maps"
	"slices"
	"strings"

	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

// Connect merges nodes into the last of them.  Ways and relations using the
// other nodes are pointed at the survivor, whose tags become the union of
// all tags.  Conflicting values are joined with ";".
type Connect struct {
	IDs []model.ID
}

func (a Connect) Apply(g *graph.Graph) (*graph.Graph, error) {
	if len(a.IDs) == 0 {
		return g, nil
	}

	survivor, err := g.Node(a.IDs[len(a.IDs)-1])
	if err != nil {
		return nil, err
	}

	merged := make([]*model.Node, 0, len(a.IDs)-1)
	for _, id := range a.IDs[:len(a.IDs)-1] {
		n, err := g.Node(id)
		if err != nil {
			return nil, err
		}

		merged = append(merged, n)
	}

	return g.Batch(func(tx *graph.Tx) error {
		tags := survivor.Tags
		for _, n := range merged {
			if n.ID == survivor.ID {
				continue
			}

			for _, w := range tx.ParentWays(n.ID) {
				tx.Replace(w.ReplaceNode(n.ID, survivor.ID))
			}

			for _, r := range tx.ParentRelations(n.ID) {
				tx.Replace(r.ReplaceMember(n.ID, survivor))
			}

			tags = mergeTags(tags, n.Tags)
			tx.Remove(n.ID)
		}

		tx.Replace(model.WithTags(survivor, tags))

		return nil
	})
}

func (Connect) Annotation() string {
	return "Connected a way to another."
}

// Disabled refuses fewer than two nodes and nodes that are members of the
// same relation under different roles.
func (a Connect) Disabled(g *graph.Graph) string {
	if len(a.IDs) < 2 {
		return ReasonNotEligible
	}

	roles := make(map[model.ID]string)
	for _, id := range a.IDs {
		if _, err := g.Node(id); err != nil {
			return ReasonNotEligible
		}

		for _, r := range g.ParentRelations(id) {
			role := r.Members[r.IndexOf(id)].Role
			if prev, ok := roles[r.ID]; ok && prev != role {
				return ReasonRelation
			}

			roles[r.ID] = role
		}
	}

	return ""
}

func mergeTags(a, b map[string]string) map[string]string {
	out := maps.Clone(a)
	if out == nil {
		out = make(map[string]string, len(b))
	}

	for k, v := range b {
		cur, ok := out[k]
		if !ok || cur == "" {
			out[k] = v
			continue
		}

		values := strings.Split(cur, ";")
		for _, s := range strings.Split(v, ";") {
			if !slices.Contains(values, s) {
				values = append(values, s)
			}
		}

		out[k] = strings.Join(values, ";")
	}

	return out
}
