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

// Package editor composes a History with the data service into an editing
// session.  Everything that touches the History runs on a Loop; network
// completions are posted back to it.
package editor

import (
	"context"
	"errors"
	"log/slog"

	"github.com/WorldBank-Transport/iD/action"
	"github.com/WorldBank-Transport/iD/event"
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/model"
	"github.com/WorldBank-Transport/iD/osm"
)

// ErrNoChanges is reported by Save when there is nothing to upload.
var ErrNoChanges = errors.New("no changes to save")

// ErrSaving is reported by Save and Perform while an upload is running.
var ErrSaving = errors.New("save in progress")

// Mode is what the session is doing.
type Mode string

const (
	ModeBrowse Mode = "browse"
	ModeSave   Mode = "save"
)

const eventEnter = "enter"

// Service is the part of *osm.Service a session uses.
type Service interface {
	LoadTiles(ctx context.Context, extent model.Extent, callback func(osm.TileResult)) (int, error)
	LoadEntity(ctx context.Context, id model.ID) ([]model.Entity, error)
	PutChangeset(ctx context.Context, cs *model.Changeset, changes osm.Changes) (*model.Changeset, error)
	Reset()
}

// Option configures a Context.
type Option func(*Context)

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(c *Context) {
		c.logger = l
	}
}

// Context is an editing session.  Except for Loop, its methods must be
// called on the loop.
type Context struct {
	history *history.History
	service Service
	loop    *Loop
	logger  *slog.Logger

	mode     Mode
	conflict error
	events   event.Dispatcher[string, Mode]
}

// New creates a session.  The service should deliver its completions with
// loop.Post.
func New(h *history.History, s Service, loop *Loop, opts ...Option) *Context {
	c := &Context{history: h, service: s, loop: loop, mode: ModeBrowse}
	for _, opt := range opts {
		opt(c)
	}

	if c.logger == nil {
		c.logger = slog.Default()
	}

	return c
}

// History returns the session history.
func (c *Context) History() *history.History {
	return c.history
}

// Loop returns the loop the session runs on.
func (c *Context) Loop() *Loop {
	return c.loop
}

// Graph returns the graph being edited.
func (c *Context) Graph() *graph.Graph {
	return c.history.Graph()
}

// Mode returns the current mode.
func (c *Context) Mode() Mode {
	return c.mode
}

// OnEnter registers fn to run every time a mode is entered.
func (c *Context) OnEnter(fn func(Mode)) event.Handle {
	return c.events.Subscribe(eventEnter, fn)
}

func (c *Context) enter(m Mode) {
	c.mode = m
	c.logger.Debug("entered mode", "mode", m)
	c.events.Emit(eventEnter, m)
}

// Conflict returns the last merge that could not be replayed over the
// edits.  The edits are kept; loading data around them again requires a
// reload.
func (c *Context) Conflict() error {
	return c.conflict
}

// Perform records actions as one edit.  Editing is refused with ErrSaving
// while an upload is running.
func (c *Context) Perform(actions ...action.Action) error {
	if c.mode == ModeSave {
		return ErrSaving
	}

	_, err := c.history.Perform(actions...)

	return err
}

// Undo reverts the last edit.  It does nothing while saving.
func (c *Context) Undo() bool {
	if c.mode == ModeSave {
		return false
	}

	return c.history.Undo()
}

// Redo reapplies the last undone edit.  It does nothing while saving.
func (c *Context) Redo() bool {
	if c.mode == ModeSave {
		return false
	}

	return c.history.Redo()
}

func (c *Context) merge(entities []model.Entity) error {
	err := c.history.Merge(entities...)
	if err != nil {
		c.logger.Error("could not merge loaded entities", "count", len(entities), "error", err)
		c.conflict = err
	}

	return err
}

// LoadTiles loads the data covering extent and merges it on the loop,
// whichever goroutine the service reports tiles from.
func (c *Context) LoadTiles(ctx context.Context, extent model.Extent) {
	_, err := c.service.LoadTiles(ctx, extent, func(r osm.TileResult) {
		c.loop.Post(func() {
			if r.Err != nil {
				c.logger.Warn("could not load tile", "tile", r.Tile.String(), "error", r.Err)
				return
			}

			c.merge(r.Entities) // logged and kept in Conflict
		})
	})
	if err != nil {
		c.logger.Debug("not loading tiles", "error", err)
	}
}

// LoadEntity loads an entity in the background and merges it.  done, when
// not nil, runs on the loop afterwards.
func (c *Context) LoadEntity(ctx context.Context, id model.ID, done func(error)) {
	go func() {
		entities, err := c.service.LoadEntity(ctx, id)

		c.loop.Post(func() {
			if err == nil {
				err = c.merge(entities)
			}

			if done != nil {
				done(err)
			}
		})
	}()
}

// Save uploads the difference as a changeset tagged with tags.  The
// session is in save mode until the upload completes; on success the
// history and the service start over from an empty graph.  done, when not
// nil, runs on the loop afterwards.
func (c *Context) Save(ctx context.Context, tags map[string]string, done func(*model.Changeset, error)) error {
	if c.mode == ModeSave {
		return ErrSaving
	}

	diff := c.history.Difference()
	if diff.IsEmpty() {
		return ErrNoChanges
	}

	c.enter(ModeSave)

	cs := model.NewChangeset(tags)

	go func() {
		uploaded, err := c.service.PutChangeset(ctx, cs, diff)

		c.loop.Post(func() {
			if err != nil {
				c.logger.Error("could not save", "error", err)
			} else {
				c.logger.Info("saved", "changeset", uploaded.ID, "changes", diff.Len())
				c.history.ResetTo(graph.New())
				c.service.Reset()
				c.conflict = nil
			}

			c.enter(ModeBrowse)

			if done != nil {
				done(uploaded, err)
			}
		})
	}()

	return nil
}
