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

package history_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/action"
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/model"
)

func relation(id model.ID, version int32, members ...model.Member) *model.Relation {
	return &model.Relation{ID: id, Info: model.Info{Version: version, Visible: true}, Members: members}
}

func TestMergeRules(t *testing.T) {
	h := history.New(graph.New(node("n1", 1), node("n2", 1)))
	perform(t, h, action.MoveNode{ID: "n2", Loc: model.Loc{Lon: 5, Lat: 5}})

	var merged []model.ID
	h.Subscribe(history.EventMerge, func(e history.Event) { merged = e.IDs })

	require.NoError(t, h.Merge(node("n1", 2), node("n2", 7), node("n9", 1)))

	n1, err := h.Base().Node("n1")
	require.NoError(t, err)
	assert.Equal(t, int32(2), n1.Info.Version, "newer version replaces the base")

	n2, err := h.Graph().Node("n2")
	require.NoError(t, err)
	assert.Equal(t, model.Degrees(5), n2.Loc.Lon, "local edit survives")
	base2, _ := h.Base().Node("n2")
	assert.Equal(t, int32(1), base2.Info.Version, "touched ids are ignored")

	assert.True(t, h.Graph().HasEntity("n9"), "merged entities show through the edits")
	assert.Equal(t, []model.ID{"n1", "n9"}, merged)

	assert.Equal(t, []model.ID{"n2"}, entityIDs(h.Difference().Modified()))
	assert.Empty(t, h.Difference().Created())
}

func TestMergeKeepsNewerBase(t *testing.T) {
	h := history.New(graph.New(node("n1", 3)))

	fired := false
	h.Subscribe(history.EventMerge, func(history.Event) { fired = true })

	require.NoError(t, h.Merge(node("n1", 2), node("n1", 3)))

	n1, _ := h.Base().Node("n1")
	assert.Equal(t, int32(3), n1.Info.Version)
	assert.False(t, fired, "a merge that adopts nothing is silent")
}

func TestMergeConflictLeavesHistoryUntouched(t *testing.T) {
	h := history.New(graph.New(node("n1", 1), node("n2", 1)))
	perform(t, h, action.Connect{IDs: []model.ID{"n1", "n2"}})

	top, base, n := h.Graph(), h.Base(), h.Len()

	err := h.Merge(relation("r1", 1,
		model.Member{ID: "n1", Type: model.NODE, Role: "from"},
		model.Member{ID: "n2", Type: model.NODE, Role: "to"},
	))

	var conflict *history.MergeConflictError
	require.ErrorAs(t, err, &conflict)
	assert.Equal(t, 1, conflict.Index)
	assert.ErrorIs(t, err, history.ErrMergeConflict)
	assert.ErrorIs(t, err, action.ErrDisabled)

	assert.Same(t, top, h.Graph())
	assert.Same(t, base, h.Base())
	assert.Equal(t, n, h.Len())
	assert.False(t, h.Base().HasEntity("r1"))
}

func TestMergeDropsUnreplayableRedo(t *testing.T) {
	h := history.New(graph.New(node("n1", 1), node("n2", 1)))
	perform(t, h, action.Connect{IDs: []model.ID{"n1", "n2"}})
	require.True(t, h.Undo())

	require.NoError(t, h.Merge(relation("r1", 1,
		model.Member{ID: "n1", Type: model.NODE, Role: "from"},
		model.Member{ID: "n2", Type: model.NODE, Role: "to"},
	)))

	assert.Equal(t, 1, h.Len())
	assert.False(t, h.Redo())
	assert.True(t, h.Base().HasEntity("r1"))
}

func TestMergeReplaysEveryCheckpoint(t *testing.T) {
	h := history.New(graph.New(node("n1", 1), node("n2", 1), way("w1", 1, "n1", "n2")))
	perform(t, h, action.AddEntity{Entity: node("n-1", 0)})
	perform(t, h, action.AddVertex{Way: "w1", Node: "n-1", Index: -1})
	perform(t, h, action.ChangeTags{ID: "w1", Tags: map[string]string{"highway": "path"}})
	require.True(t, h.Undo())

	require.NoError(t, h.Merge(node("n3", 1)))

	assert.Equal(t, 4, h.Len())
	assert.Equal(t, 2, h.Index())

	require.True(t, h.Redo())
	w, err := h.Graph().Way("w1")
	require.NoError(t, err)
	assert.Equal(t, []model.ID{"n1", "n2", "n-1"}, w.Nodes)
	assert.Equal(t, "path", w.Tags["highway"])
	assert.True(t, h.Graph().HasEntity("n3"))
}
