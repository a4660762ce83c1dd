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

package model_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/model"
)

func TestNodeUpdate(t *testing.T) {
	n := &model.Node{ID: "n1", Tags: map[string]string{"amenity": "cafe"}, Loc: model.Loc{Lon: 1, Lat: 2}}

	u := n.Update(func(c *model.Node) {
		c.ID = "n2"
		c.Tags["name"] = "Bean"
		c.Loc = model.Loc{Lon: 3, Lat: 4}
	})

	assert.Equal(t, model.ID("n1"), u.ID, "id is immutable")
	assert.Equal(t, uint32(1), u.V)
	assert.Equal(t, model.Loc{Lon: 3, Lat: 4}, u.Loc)
	assert.Equal(t, "Bean", u.Tags["name"])

	assert.Equal(t, uint32(0), n.V)
	assert.NotContains(t, n.Tags, "name", "original tags are untouched")
	assert.Equal(t, model.Loc{Lon: 1, Lat: 2}, n.Loc)
}

func TestWayNodes(t *testing.T) {
	w := &model.Way{ID: "w1", Nodes: []model.ID{"n1", "n2", "n3"}}

	assert.Equal(t, model.ID("n1"), w.First())
	assert.Equal(t, model.ID("n3"), w.Last())
	assert.False(t, w.IsClosed())
	assert.False(t, w.IsDegenerate())
	assert.True(t, w.IsInterior("n2"))
	assert.False(t, w.IsInterior("n1"))

	added := w.AddNode("n4", 1)
	assert.Equal(t, []model.ID{"n1", "n4", "n2", "n3"}, added.Nodes)
	assert.Equal(t, []model.ID{"n1", "n2", "n3"}, w.Nodes)

	assert.Equal(t, []model.ID{"n1", "n2", "n3", "n5"}, w.AddNode("n5", -1).Nodes)
	assert.Equal(t, []model.ID{"n1", "n3"}, w.ReplaceNode("n2", "n3").Nodes)
	assert.Equal(t, []model.ID{"n1", "n3"}, w.RemoveNode("n2").Nodes)

	empty := &model.Way{ID: "w2"}
	assert.Equal(t, model.ID(""), empty.First())
	assert.Equal(t, model.ID(""), empty.Last())
	assert.True(t, empty.IsDegenerate())
}

func TestWayClosed(t *testing.T) {
	w := &model.Way{ID: "w1", Nodes: []model.ID{"n1", "n2", "n3", "n1"}}

	assert.True(t, w.IsClosed())
	assert.False(t, w.IsDegenerate())
	assert.True(t, w.IsInterior("n1"))

	removed := w.RemoveNode("n1")
	assert.Equal(t, []model.ID{"n2", "n3", "n2"}, removed.Nodes)
	assert.True(t, removed.IsClosed())
	assert.True(t, removed.IsDegenerate())
}

func TestRelationMembers(t *testing.T) {
	r := &model.Relation{ID: "r1", Members: []model.Member{
		{ID: "w1", Type: model.WAY, Role: "outer"},
		{ID: "n1", Type: model.NODE, Role: "label"},
	}}

	assert.Equal(t, 1, r.IndexOf("n1"))
	assert.Equal(t, -1, r.IndexOf("n9"))

	added := r.AddMember(model.Member{ID: "w2", Type: model.WAY, Role: "inner"}, 1)
	assert.Equal(t, model.ID("w2"), added.Members[1].ID)
	assert.Len(t, r.Members, 2)

	replaced := r.ReplaceMember("w1", &model.Way{ID: "w3"})
	assert.Equal(t, model.Member{ID: "w3", Type: model.WAY, Role: "outer"}, replaced.Members[0])

	assert.Equal(t, []model.Member{{ID: "n1", Type: model.NODE, Role: "label"}}, r.RemoveMembersWithID("w1").Members)
}

func TestWithTags(t *testing.T) {
	tags := map[string]string{"highway": "residential"}

	for _, e := range []model.Entity{
		&model.Node{ID: "n1"},
		&model.Way{ID: "w1"},
		&model.Relation{ID: "r1"},
	} {
		u := model.WithTags(e, tags)
		assert.Equal(t, tags, u.GetTags())
		assert.Equal(t, e.GetID(), u.GetID())
		assert.Equal(t, e.GetType(), u.GetType())
		assert.Equal(t, uint32(1), u.GetV())
	}

	n := model.WithTags(&model.Node{ID: "n1"}, tags)
	tags["name"] = "Main"
	assert.NotContains(t, n.GetTags(), "name", "tags are copied")
}

func TestWithInfo(t *testing.T) {
	info := model.Info{Version: 3, User: "mapper", Visible: true}
	u := model.WithInfo(&model.Way{ID: "w1"}, info)

	assert.Equal(t, info, u.GetInfo())
}

func TestHasInterestingTags(t *testing.T) {
	assert.False(t, model.HasInterestingTags(&model.Node{ID: "n1"}))
	assert.False(t, model.HasInterestingTags(&model.Node{ID: "n1", Tags: map[string]string{
		"source": "survey", "created_by": "JOSM", "tiger:county": "x",
	}}))
	assert.True(t, model.HasInterestingTags(&model.Node{ID: "n1", Tags: map[string]string{"amenity": "bench"}}))
}

func TestEqual(t *testing.T) {
	a := &model.Node{ID: "n1", Tags: map[string]string{"a": "b"}, Loc: model.Loc{Lon: 1, Lat: 1}}
	moved := a.Update(func(c *model.Node) { c.Loc = model.Loc{Lon: 2, Lat: 2} })
	back := moved.Update(func(c *model.Node) { c.Loc = a.Loc })

	assert.True(t, model.Equal(a, back), "write counter is ignored")
	assert.False(t, model.Equal(a, moved))
	assert.False(t, model.Equal(a, &model.Way{ID: "n1"}))
	assert.False(t, model.Equal(a, nil))
	assert.True(t, model.Equal(nil, nil))

	w := &model.Way{ID: "w1", Nodes: []model.ID{"n1", "n2"}}
	assert.True(t, model.Equal(w, w.Update(func(*model.Way) {})))
	assert.False(t, model.Equal(w, w.AddNode("n3", -1)))
}

func TestConstructors(t *testing.T) {
	n, err := model.NewNode(model.NodeAttrs{Loc: model.Loc{Lon: 10, Lat: 20}, Tags: map[string]string{"a": "b"}})
	require.NoError(t, err)
	assert.True(t, n.ID.IsNew())
	assert.Equal(t, model.NODE, n.ID.Type())
	assert.True(t, n.Info.Visible)

	w, err := model.NewWay(model.WayAttrs{ID: "w5", Nodes: []model.ID{"n1", n.ID}})
	require.NoError(t, err)
	assert.Equal(t, model.ID("w5"), w.ID)

	r, err := model.NewRelation(model.RelationAttrs{Members: []model.Member{{ID: "w5", Type: model.WAY, Role: "outer"}}})
	require.NoError(t, err)
	assert.Equal(t, model.RELATION, r.ID.Type())
}

func TestConstructorsValidate(t *testing.T) {
	tests := []struct {
		name  string
		build func() error
	}{
		{"node with way id", func() error {
			_, err := model.NewNode(model.NodeAttrs{ID: "w1"})
			return err
		}},
		{"node out of range", func() error {
			_, err := model.NewNode(model.NodeAttrs{Loc: model.Loc{Lon: 181}})
			return err
		}},
		{"way referencing a way", func() error {
			_, err := model.NewWay(model.WayAttrs{Nodes: []model.ID{"n1", "w2"}})
			return err
		}},
		{"empty tag key", func() error {
			_, err := model.NewWay(model.WayAttrs{Tags: map[string]string{"": "x"}})
			return err
		}},
		{"member type mismatch", func() error {
			_, err := model.NewRelation(model.RelationAttrs{Members: []model.Member{{ID: "n1", Type: model.WAY}}})
			return err
		}},
		{"member without id", func() error {
			_, err := model.NewRelation(model.RelationAttrs{Members: []model.Member{{Type: model.WAY}}})
			return err
		}},
		{"negative version", func() error {
			_, err := model.NewNode(model.NodeAttrs{Info: model.Info{Version: -1}})
			return err
		}},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			assert.ErrorIs(t, tc.build(), model.ErrInvalidEntity)
		})
	}
}
