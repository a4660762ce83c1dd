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

package action_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/action"
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

func TestConnect(t *testing.T) {
	g := graph.New(node("n1", "name", "A"), node("n2", "name", "B", "ref", "7"), node("n3"), node("n4"),
		way("w1", "n3", "n1"), way("w2", "n2", "n4"),
		relation("r1", member("n1", "stop")))

	g = apply(t, action.Connect{IDs: []model.ID{"n1", "n2"}}, g)

	assert.False(t, g.HasEntity("n1"))

	n2, err := g.Node("n2")
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"name": "B;A", "ref": "7"}, n2.Tags)

	w1, _ := g.Way("w1")
	assert.Equal(t, []model.ID{"n3", "n2"}, w1.Nodes)
	assert.Len(t, g.ParentWays("n2"), 2)

	r1, _ := g.Relation("r1")
	assert.Equal(t, []model.Member{member("n2", "stop")}, r1.Members)
}

func TestConnectDisabled(t *testing.T) {
	g := graph.New(node("n1"), node("n2"), node("n3"),
		relation("r1", member("n1", "from"), member("n2", "to")),
		relation("r2", member("n1", "stop"), member("n3", "stop")))

	assert.Equal(t, action.ReasonNotEligible, action.Connect{IDs: []model.ID{"n1"}}.Disabled(g))
	assert.Equal(t, action.ReasonNotEligible, action.Connect{IDs: []model.ID{"n1", "r1"}}.Disabled(g))
	assert.Equal(t, action.ReasonRelation, action.Connect{IDs: []model.ID{"n1", "n2"}}.Disabled(g))
	assert.Equal(t, "", action.Connect{IDs: []model.ID{"n1", "n3"}}.Disabled(g))
}

func TestSplit(t *testing.T) {
	g := graph.New(node("n1"), node("n2"), node("n3"),
		&model.Way{ID: "w1", Tags: map[string]string{"highway": "primary"}, Nodes: []model.ID{"n1", "n2", "n3"}},
		relation("r1", member("w1", "forward")))

	s := action.NewSplit("n2", model.NewSequence())
	out := apply(t, s, g)

	require.Len(t, s.NewIDs(), 1)
	newID := s.NewIDs()[0]
	assert.Equal(t, model.ID("w-1"), newID)

	w1, _ := out.Way("w1")
	w2, err := out.Way(newID)
	require.NoError(t, err)
	assert.Equal(t, []model.ID{"n1", "n2"}, w1.Nodes)
	assert.Equal(t, []model.ID{"n2", "n3"}, w2.Nodes)
	assert.Equal(t, w1.Tags, w2.Tags)
	assert.Len(t, out.ParentWays("n2"), 2)

	r1, _ := out.Relation("r1")
	assert.Equal(t, []model.Member{member("w1", "forward"), member(newID, "forward")}, r1.Members)

	again := apply(t, s, g)
	assert.True(t, graph.Diff(out, again).IsEmpty(), "replays reuse the allocated id")
}

func TestSplitClosedWay(t *testing.T) {
	g := graph.New(node("n1"), node("n2"), node("n3"), node("n4"), way("w1", "n1", "n2", "n3", "n4", "n1"))

	s := action.NewSplit("n2", model.NewSequence())
	out := apply(t, s, g)

	w1, _ := out.Way("w1")
	w2, _ := out.Way(s.NewIDs()[0])
	assert.Equal(t, []model.ID{"n2", "n3", "n4"}, w1.Nodes)
	assert.Equal(t, []model.ID{"n4", "n1", "n2"}, w2.Nodes)
}

func TestSplitDisabled(t *testing.T) {
	g := graph.New(node("n1"), node("n2"), way("w1", "n1", "n2"))

	s := action.NewSplit("n1", nil)
	assert.Equal(t, action.ReasonNotEligible, s.Disabled(g))

	_, err := action.Do(s, g)
	assert.ErrorIs(t, err, action.ErrDisabled)
	assert.Empty(t, s.NewIDs())
}

func TestReverse(t *testing.T) {
	g := graph.New(node("n1"), node("n2"), node("n3"),
		&model.Way{ID: "w1", Nodes: []model.ID{"n1", "n2", "n3"}, Tags: map[string]string{
			"oneway":        "yes",
			"sidewalk:left": "separate",
			"incline":       "5%",
			"layer":         "-1",
			"name":          "Up Street",
		}},
		relation("r1", member("w1", "backward")))

	out := apply(t, action.Reverse{ID: "w1"}, g)

	w, _ := out.Way("w1")
	assert.Equal(t, []model.ID{"n3", "n2", "n1"}, w.Nodes)
	assert.Equal(t, map[string]string{
		"oneway":         "-1",
		"sidewalk:right": "separate",
		"incline":        "-5%",
		"layer":          "-1",
		"name":           "Up Street",
	}, w.Tags)

	r, _ := out.Relation("r1")
	assert.Equal(t, "forward", r.Members[0].Role)

	orig, _ := g.Way("w1")
	assert.Equal(t, []model.ID{"n1", "n2", "n3"}, orig.Nodes)

	assert.Equal(t, action.ReasonNotEligible, action.Reverse{ID: "n1"}.Disabled(g))
}
