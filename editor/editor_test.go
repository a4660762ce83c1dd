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

package editor_test

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/action"
	"github.com/WorldBank-Transport/iD/editor"
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/model"
	"github.com/WorldBank-Transport/iD/osm"
)

var _ editor.Service = (*osm.Service)(nil)

type fakeService struct {
	mu       sync.Mutex
	tile     []model.Entity
	entities map[model.ID][]model.Entity
	put      func(*model.Changeset, osm.Changes) (*model.Changeset, error)
	resets   int
}

func (s *fakeService) LoadTiles(_ context.Context, extent model.Extent, callback func(osm.TileResult)) (int, error) {
	callback(osm.TileResult{Extent: extent, Entities: s.tile})

	return 1, nil
}

func (s *fakeService) LoadEntity(_ context.Context, id model.ID) ([]model.Entity, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	es, ok := s.entities[id]
	if !ok {
		return nil, osm.ErrNetwork
	}

	return es, nil
}

func (s *fakeService) PutChangeset(_ context.Context, cs *model.Changeset, changes osm.Changes) (*model.Changeset, error) {
	return s.put(cs, changes)
}

func (s *fakeService) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.resets++
}

func (s *fakeService) resetCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.resets
}

func node(id model.ID, version int32) *model.Node {
	return &model.Node{ID: id, Info: model.Info{Version: version, Visible: true}}
}

func session(t *testing.T, base *graph.Graph) (*editor.Context, *fakeService) {
	t.Helper()

	loop := editor.NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go loop.Run(ctx)

	s := &fakeService{entities: map[model.ID][]model.Entity{}}

	return editor.New(history.New(base), s, loop), s
}

// on runs f on the session loop.
func on(t *testing.T, c *editor.Context, f func()) {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	require.NoError(t, c.Loop().Do(ctx, f))
}

func TestLoopRunsInOrder(t *testing.T) {
	loop := editor.NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go loop.Run(ctx)

	var got []int
	done := make(chan struct{})

	loop.Post(func() {
		for i := range 3 {
			loop.Post(func() {
				got = append(got, i)

				if i == 0 {
					loop.Post(func() { got = append(got, 10) })
				}
			})
		}

		loop.Post(func() {
			loop.Post(func() { close(done) })
		})
	})

	<-done
	assert.Equal(t, []int{0, 1, 2, 10}, got)
}

func TestLoopStops(t *testing.T) {
	loop := editor.NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	assert.ErrorIs(t, loop.Run(ctx), context.Canceled)
	assert.ErrorIs(t, loop.Do(ctx, func() {}), context.Canceled)
}

func TestLoadTilesMerges(t *testing.T) {
	c, s := session(t, graph.New())
	s.tile = []model.Entity{node("n1", 1), node("n2", 1)}

	merged := make(chan []model.ID, 1)

	on(t, c, func() {
		c.History().Subscribe(history.EventMerge, func(e history.Event) { merged <- e.IDs })
		c.LoadTiles(context.Background(), model.InitialExtent())
	})

	assert.Equal(t, []model.ID{"n1", "n2"}, <-merged)

	on(t, c, func() {
		assert.True(t, c.Graph().HasEntity("n2"))
		assert.False(t, c.History().HasChanges())
	})
}

func TestLoadEntity(t *testing.T) {
	c, s := session(t, graph.New())
	s.entities["n7"] = []model.Entity{node("n7", 3)}

	done := make(chan error, 2)

	on(t, c, func() {
		c.LoadEntity(context.Background(), "n7", func(err error) { done <- err })
		c.LoadEntity(context.Background(), "n8", func(err error) { done <- err })
	})

	errs := []error{<-done, <-done}
	assert.Contains(t, errs, nil)
	assert.True(t, errors.Is(errs[0], osm.ErrNetwork) || errors.Is(errs[1], osm.ErrNetwork))

	on(t, c, func() {
		n, err := c.Graph().Node("n7")
		require.NoError(t, err)
		assert.Equal(t, int32(3), n.Info.Version)
	})
}

func TestMergeConflictIsKept(t *testing.T) {
	c, s := session(t, graph.New(node("n1", 1), node("n2", 1)))
	s.tile = []model.Entity{&model.Relation{
		ID:   "r1",
		Info: model.Info{Version: 1, Visible: true},
		Members: []model.Member{
			{ID: "n1", Type: model.NODE, Role: "from"},
			{ID: "n2", Type: model.NODE, Role: "to"},
		},
	}}

	on(t, c, func() {
		require.NoError(t, c.Perform(action.Connect{IDs: []model.ID{"n1", "n2"}}))
		c.LoadTiles(context.Background(), model.InitialExtent())
		assert.NoError(t, c.Conflict(), "tiles are merged after the current task")
	})

	on(t, c, func() {
		assert.ErrorIs(t, c.Conflict(), history.ErrMergeConflict)
		assert.Equal(t, 2, c.History().Len(), "edits survive a conflicting merge")
	})
}

func TestSave(t *testing.T) {
	c, s := session(t, graph.New(node("n1", 1)))

	var uploaded osm.Changes
	s.put = func(cs *model.Changeset, changes osm.Changes) (*model.Changeset, error) {
		uploaded = changes
		return cs.Update(func(u *model.Changeset) { u.ID = 99 }), nil
	}

	var statuses []bool
	saved := make(chan *model.Changeset, 1)

	on(t, c, func() {
		b := editor.NewSaveButton(c, func(enabled bool) { statuses = append(statuses, enabled) })

		assert.ErrorIs(t, c.Save(context.Background(), nil, nil), editor.ErrNoChanges)
		assert.False(t, b.Click(context.Background(), nil, nil))

		require.NoError(t, c.Perform(action.AddEntity{Entity: node("n-1", 0)}))
		require.NoError(t, c.Perform(action.MoveNode{ID: "n-1", Loc: model.Loc{Lon: 1}}))
		assert.Equal(t, 1, b.Count())

		require.True(t, b.Click(context.Background(), map[string]string{"comment": "add a point"}, func(cs *model.Changeset, err error) {
			assert.NoError(t, err)
			saved <- cs
		}))

		assert.Equal(t, editor.ModeSave, c.Mode())
		assert.ErrorIs(t, c.Save(context.Background(), nil, nil), editor.ErrSaving)
		assert.False(t, b.Click(context.Background(), nil, nil))
	})

	cs := <-saved
	assert.Equal(t, int64(99), cs.ID)
	assert.Equal(t, "add a point", cs.Comment())

	on(t, c, func() {
		assert.Equal(t, editor.ModeBrowse, c.Mode())
		assert.False(t, c.History().HasChanges())
		assert.Equal(t, 0, c.Graph().Len())
		assert.Equal(t, []bool{true, false, false, false}, statuses)
	})

	require.NotNil(t, uploaded)
	require.Len(t, uploaded.Created(), 1)
	assert.Equal(t, model.ID("n-1"), uploaded.Created()[0].GetID())
	assert.Equal(t, 1, s.resetCount())
}

func TestEditingIsRefusedWhileSaving(t *testing.T) {
	c, s := session(t, graph.New(node("n1", 1)))

	release := make(chan struct{})
	s.put = func(cs *model.Changeset, _ osm.Changes) (*model.Changeset, error) {
		<-release
		return cs.Update(func(u *model.Changeset) { u.ID = 3 }), nil
	}

	saved := make(chan error, 1)

	on(t, c, func() {
		require.NoError(t, c.Perform(action.AddEntity{Entity: node("n-1", 0)}))
		require.NoError(t, c.Perform(action.MoveNode{ID: "n1", Loc: model.Loc{Lon: 1}}))
		require.True(t, c.Undo())
		require.NoError(t, c.Save(context.Background(), nil, func(_ *model.Changeset, err error) { saved <- err }))
	})

	on(t, c, func() {
		assert.ErrorIs(t, c.Perform(action.AddEntity{Entity: node("n-9", 0)}), editor.ErrSaving)
		assert.False(t, c.Undo())
		assert.False(t, c.Redo())
		assert.False(t, c.Graph().HasEntity("n-9"))
		assert.Equal(t, 1, c.History().Index())
	})

	close(release)
	require.NoError(t, <-saved)

	on(t, c, func() {
		assert.Equal(t, editor.ModeBrowse, c.Mode())
		require.NoError(t, c.Perform(action.AddEntity{Entity: node("n-9", 0)}))
		assert.True(t, c.History().HasChanges())
	})
}

func TestLoadTilesFromService(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/xml")
		io.WriteString(w, `<?xml version="1.0"?><osm version="0.6"><node id="1" lat="0.0001" lon="0.0001" version="1"/></osm>`)
	}))
	t.Cleanup(srv.Close)

	cfg := osm.DefaultConfig()
	cfg.URL = srv.URL
	cfg.ProjectID = "p"
	cfg.ScenarioID = "s"

	loop := editor.NewLoop()

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	go loop.Run(ctx)

	c := editor.New(history.New(graph.New()), osm.New(cfg), loop)

	merged := make(chan struct{})

	on(t, c, func() {
		c.History().Subscribe(history.EventMerge, func(history.Event) {
			select {
			case <-merged:
			default:
				close(merged)
			}
		})
		c.LoadTiles(context.Background(), model.NewExtent(model.Loc{}, model.Loc{Lon: 0.001, Lat: 0.001}))
	})

	// Edits keep running on the loop while tiles arrive.
	for i := range 50 {
		on(t, c, func() {
			require.NoError(t, c.Perform(action.AddEntity{Entity: node(model.FromRemote(model.NODE, -int64(i+1)), 0)}))
		})
	}

	select {
	case <-merged:
	case <-time.After(5 * time.Second):
		t.Fatal("no tile was merged")
	}

	on(t, c, func() {
		assert.True(t, c.Graph().HasEntity("n1"))
		assert.Nil(t, c.Conflict())
	})
}

func TestSaveFailureKeepsEdits(t *testing.T) {
	c, s := session(t, graph.New())
	s.put = func(*model.Changeset, osm.Changes) (*model.Changeset, error) {
		return nil, &osm.UploadError{Phase: "upload", Err: osm.ErrNetwork}
	}

	var statuses []bool
	failed := make(chan error, 1)

	on(t, c, func() {
		editor.NewSaveButton(c, func(enabled bool) { statuses = append(statuses, enabled) })

		require.NoError(t, c.Perform(action.AddEntity{Entity: node("n-1", 0)}))
		require.NoError(t, c.Save(context.Background(), nil, func(_ *model.Changeset, err error) { failed <- err }))
	})

	assert.ErrorIs(t, <-failed, osm.ErrUpload)

	on(t, c, func() {
		assert.Equal(t, editor.ModeBrowse, c.Mode())
		assert.True(t, c.History().HasChanges())
		assert.Equal(t, []bool{true, false, true}, statuses)
	})

	assert.Equal(t, 0, s.resetCount())
}

func TestSaveButtonClose(t *testing.T) {
	c, _ := session(t, graph.New())

	calls := 0

	on(t, c, func() {
		b := editor.NewSaveButton(c, func(bool) { calls++ })
		b.Close()

		require.NoError(t, c.Perform(action.AddEntity{Entity: node("n-1", 0)}))
		assert.True(t, c.Undo())
		assert.True(t, c.Redo())
	})

	assert.Equal(t, 0, calls)
}
