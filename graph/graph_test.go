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

package graph_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

func node(id model.ID, version int32) *model.Node {
	return &model.Node{ID: id, Info: model.Info{Version: version, Visible: true}}
}

func way(id model.ID, nodes ...model.ID) *model.Way {
	return &model.Way{ID: id, Info: model.Info{Version: 1, Visible: true}, Nodes: nodes}
}

func relation(id model.ID, members ...model.ID) *model.Relation {
	r := &model.Relation{ID: id, Info: model.Info{Version: 1, Visible: true}}
	for _, m := range members {
		r.Members = append(r.Members, model.Member{ID: m, Type: m.Type()})
	}

	return r
}

func ids[T model.Entity](es []T) []model.ID {
	out := make([]model.ID, len(es))
	for i, e := range es {
		out[i] = e.GetID()
	}

	return out
}

func TestEntityNotFound(t *testing.T) {
	g := graph.New(node("n1", 1))

	e, err := g.Entity("n1")
	require.NoError(t, err)
	assert.Equal(t, model.ID("n1"), e.GetID())

	_, err = g.Entity("n2")
	assert.ErrorIs(t, err, graph.ErrNotFound)

	var nf *graph.NotFoundError
	require.True(t, errors.As(err, &nf))
	assert.Equal(t, model.ID("n2"), nf.ID)

	_, err = g.Way("n1")
	assert.ErrorIs(t, err, graph.ErrNotFound)
}

func TestParentIndices(t *testing.T) {
	g := graph.New(node("n1", 1), node("n2", 1), node("n3", 1),
		way("w1", "n1", "n2"), way("w2", "n2", "n3", "n2"), relation("r1", "w1", "n3"))

	assert.Equal(t, []model.ID{"w1", "w2"}, ids(g.ParentWays("n2")))
	assert.Equal(t, []model.ID{"w2"}, ids(g.ParentWays("n3")))
	assert.Empty(t, g.ParentWays("n9"))
	assert.Equal(t, []model.ID{"r1"}, ids(g.ParentRelations("w1")))
	assert.Equal(t, []model.ID{"r1"}, ids(g.ParentRelations("n3")))
	assert.True(t, g.IsVertex("n1"))
}

func TestReplaceUpdatesIndices(t *testing.T) {
	g := graph.New(node("n1", 1), node("n2", 1), node("n3", 1), way("w1", "n1", "n2"))

	w, err := g.Way("w1")
	require.NoError(t, err)

	g2 := g.Replace(w.Update(func(c *model.Way) { c.Nodes = []model.ID{"n2", "n3"} }))

	assert.Empty(t, g2.ParentWays("n1"))
	assert.Equal(t, []model.ID{"w1"}, ids(g2.ParentWays("n3")))
	assert.Equal(t, []model.ID{"w1"}, ids(g2.ParentWays("n2")))

	assert.Equal(t, []model.ID{"w1"}, ids(g.ParentWays("n1")), "prior graph is untouched")
	assert.Empty(t, g.ParentWays("n3"))
}

func TestRemove(t *testing.T) {
	g := graph.New(node("n1", 1), node("n2", 1), way("w1", "n1", "n2"), relation("r1", "w1"))

	g2 := g.Remove("w1")
	assert.False(t, g2.HasEntity("w1"))
	assert.Empty(t, g2.ParentWays("n1"))
	assert.Equal(t, []model.ID{"r1"}, ids(g2.ParentRelations("w1")), "referencing relations are left alone")

	g3 := g.Remove("n1")
	assert.False(t, g3.HasEntity("n1"))
	w, err := g3.Way("w1")
	require.NoError(t, err)
	assert.Equal(t, []model.ID{"n1", "n2"}, w.Nodes)

	assert.Same(t, g, g.Remove("n9"), "removing an absent id writes nothing")
	assert.True(t, g.HasEntity("w1"))
}

func TestBatch(t *testing.T) {
	g := graph.New(node("n1", 1))

	g2, err := g.Batch(func(tx *graph.Tx) error {
		tx.Replace(node("n2", 0))
		tx.Replace(way("w-1", "n1", "n2"))

		assert.True(t, tx.HasEntity("w-1"), "reads observe writes")
		assert.Len(t, tx.ParentWays("n2"), 1)

		tx.Remove("n1")
		return nil
	})
	require.NoError(t, err)

	assert.Equal(t, []model.ID{"n1", "n2", "w-1"}, g2.LocalIDs())
	assert.True(t, g2.IsLocal("n1"))
	assert.False(t, g2.HasEntity("n1"))

	boom := errors.New("boom")
	g3, err := g.Batch(func(tx *graph.Tx) error {
		tx.Replace(node("n5", 0))
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Nil(t, g3)
	assert.False(t, g.HasEntity("n5"))
}

func TestDeepChains(t *testing.T) {
	g := graph.New(node("n1", 1))
	graphs := []*graph.Graph{g}

	for i := 2; i < 60; i++ {
		g = g.Replace(node(model.ID(fmt.Sprintf("n%d", i)), 1))
		graphs = append(graphs, g)
	}

	assert.Equal(t, 59, g.Len())
	for i, h := range graphs {
		assert.Equal(t, i+1, h.Len())
		assert.Equal(t, i, graph.Diff(graphs[0], h).Len())
	}
}

func TestMerge(t *testing.T) {
	base := graph.New(node("n1", 1), node("n2", 3))
	local := base.Replace(node("n3", 1).Update(func(n *model.Node) { n.Tags = map[string]string{"a": "b"} }))

	merged := local.Merge(
		node("n1", 2), // newer
		node("n2", 3), // same version
		node("n3", 9), // locally edited
		node("n4", 1), // absent
	)

	n1, _ := merged.Entity("n1")
	n2, _ := merged.Entity("n2")
	n3, _ := merged.Entity("n3")

	assert.Equal(t, int32(2), n1.GetInfo().Version)
	assert.Same(t, mustEntity(t, base, "n2"), n2)
	assert.Equal(t, int32(1), n3.GetInfo().Version, "local edit wins")
	assert.True(t, merged.HasEntity("n4"))
	assert.True(t, merged.IsLocal("n3"))
	assert.False(t, merged.IsLocal("n1"))

	assert.False(t, local.HasEntity("n4"), "merge builds a new graph")
	assert.Same(t, local, local.Merge(node("n2", 1)), "nothing adopted")
}

func TestMergeReindexesLocalEdits(t *testing.T) {
	base := graph.New(node("n1", 1))
	local := base.Replace(node("n1", 1).Update(func(n *model.Node) { n.Loc = model.Loc{Lon: 1, Lat: 1} }))

	merged := local.Merge(way("w1", "n1"), node("n2", 1))

	assert.Equal(t, []model.ID{"w1"}, ids(merged.ParentWays("n1")))
	assert.Equal(t, []model.ID{"n1"}, merged.LocalIDs())
}

func mustEntity(t *testing.T, g *graph.Graph, id model.ID) model.Entity {
	t.Helper()

	e, err := g.Entity(id)
	require.NoError(t, err)

	return e
}
