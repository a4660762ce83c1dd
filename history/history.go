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

// Package history records the graphs produced by actions as a stack of
// checkpoints with a cursor.  Undo and redo move the cursor; performing an
// edit after an undo drops the checkpoints above the cursor.  Freshly
// loaded entities are merged into the base and every checkpoint is
// replayed on top of it so local edits survive.
package history

import (
	"log/slog"
	"maps"
	"slices"

	"github.com/google/uuid"

	"github.com/WorldBank-Transport/iD/action"
	"github.com/WorldBank-Transport/iD/event"
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

// Kind names an event emitted by a History.
type Kind string

const (
	EventChange  Kind = "change"
	EventUndone  Kind = "undone"
	EventRedone  Kind = "redone"
	EventMerge   Kind = "merge"
	EventReset   Kind = "reset"
	EventRestore Kind = "restore"
)

// Event is delivered to subscribers.  Difference compares the graph before
// the operation with the graph after it; IDs lists the ids a merge adopted;
// Annotation names the checkpoint that was undone or redone.
type Event struct {
	Kind       Kind
	Difference *graph.Difference
	IDs        []model.ID
	Annotation string
}

type checkpoint struct {
	graph      *graph.Graph
	actions    []action.Action
	annotation string
}

// History is not safe for concurrent use.  Handlers may call back into the
// History; the events those calls emit are delivered after the current
// fan-out completes.
type History struct {
	opts    options
	session uuid.UUID
	stack   []checkpoint
	index   int
	events  event.Dispatcher[Kind, Event]
}

// New creates a history whose pristine checkpoint is base.
func New(base *graph.Graph, opts ...Option) *History {
	o := defaultHistoryConfig
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &History{
		opts:    o,
		session: uuid.New(),
		stack:   []checkpoint{{graph: base}},
	}
}

// Subscribe registers fn for events of kind.
func (h *History) Subscribe(kind Kind, fn func(Event)) event.Handle {
	return h.events.Subscribe(kind, fn)
}

// Unsubscribe removes a subscription.
func (h *History) Unsubscribe(handle event.Handle) bool {
	return h.events.Unsubscribe(handle)
}

// Session identifies the editing session snapshots are written for.
func (h *History) Session() uuid.UUID {
	return h.session
}

// Graph returns the graph at the cursor.
func (h *History) Graph() *graph.Graph {
	return h.stack[h.index].graph
}

// Base returns the pristine graph.
func (h *History) Base() *graph.Graph {
	return h.stack[0].graph
}

// Index returns the cursor.
func (h *History) Index() int {
	return h.index
}

// Len returns the number of checkpoints, the pristine one included.
func (h *History) Len() int {
	return len(h.stack)
}

// Difference classifies the changes between the base and the cursor.
func (h *History) Difference() *graph.Difference {
	return graph.Diff(h.Base(), h.Graph())
}

// HasChanges reports whether the graph at the cursor differs from the base.
func (h *History) HasChanges() bool {
	return !h.Difference().IsEmpty()
}

func apply(g *graph.Graph, actions []action.Action) (*graph.Graph, string, error) {
	var (
		annotation string
		err        error
	)

	for _, a := range actions {
		if g, err = action.Do(a, g); err != nil {
			return nil, "", err
		}

		if s := a.Annotation(); s != "" {
			annotation = s
		}
	}

	return g, annotation, nil
}

// Perform applies actions in order to the graph at the cursor and pushes
// the result.  The checkpoint takes the last non-empty annotation.  On
// error nothing changes.
func (h *History) Perform(actions ...action.Action) (*graph.Difference, error) {
	previous := h.Graph()

	g, annotation, err := apply(previous, actions)
	if err != nil {
		return nil, err
	}

	h.stack = append(h.stack[:h.index+1], checkpoint{graph: g, actions: actions, annotation: annotation})
	h.index++

	h.opts.logger.Debug("performed", "annotation", annotation, "index", h.index)

	return h.change(previous), nil
}

// Replace applies actions to the graph at the cursor and rewrites the
// checkpoint at the cursor with the result, which keeps an in-progress
// edit, such as a drag, to one step.  At the pristine checkpoint Replace
// behaves like Perform.
func (h *History) Replace(actions ...action.Action) (*graph.Difference, error) {
	if h.index == 0 {
		return h.Perform(actions...)
	}

	previous := h.Graph()

	g, annotation, err := apply(previous, actions)
	if err != nil {
		return nil, err
	}

	cur := h.stack[h.index]
	h.stack = append(h.stack[:h.index], checkpoint{
		graph:      g,
		actions:    append(slices.Clone(cur.actions), actions...),
		annotation: annotation,
	})

	return h.change(previous), nil
}

// Pop drops the checkpoint at the cursor and everything above it.  It
// reports false at the pristine checkpoint.
func (h *History) Pop() bool {
	if h.index == 0 {
		return false
	}

	previous := h.Graph()

	h.stack = h.stack[:h.index]
	h.index--
	h.change(previous)

	return true
}

// Undo moves the cursor back to the previous annotated checkpoint, or to
// the pristine one.  It reports false when already at the pristine
// checkpoint.
func (h *History) Undo() bool {
	if h.index == 0 {
		h.opts.logger.Debug("nothing to undo")
		return false
	}

	previous := h.Graph()
	undone := h.UndoAnnotation()

	for h.index > 0 {
		h.index--
		if h.stack[h.index].annotation != "" {
			break
		}
	}

	h.change(previous)
	h.events.Emit(EventUndone, Event{Kind: EventUndone, Annotation: undone})

	return true
}

// Redo moves the cursor forward to the next annotated checkpoint, or to
// the top when none is annotated.  It reports false when already at the
// top.
func (h *History) Redo() bool {
	if h.index == len(h.stack)-1 {
		h.opts.logger.Debug("nothing to redo")
		return false
	}

	previous := h.Graph()

	for h.index < len(h.stack)-1 {
		h.index++
		if h.stack[h.index].annotation != "" {
			break
		}
	}

	h.change(previous)
	h.events.Emit(EventRedone, Event{Kind: EventRedone, Annotation: h.stack[h.index].annotation})

	return true
}

// UndoAnnotation returns the annotation Undo would revert.
func (h *History) UndoAnnotation() string {
	for i := h.index; i > 0; i-- {
		if a := h.stack[i].annotation; a != "" {
			return a
		}
	}

	return ""
}

// RedoAnnotation returns the annotation Redo would restore.
func (h *History) RedoAnnotation() string {
	for i := h.index + 1; i < len(h.stack); i++ {
		if a := h.stack[i].annotation; a != "" {
			return a
		}
	}

	return ""
}

// touched returns every id written by any checkpoint.
func (h *History) touched() map[model.ID]struct{} {
	ids := make(map[model.ID]struct{})

	for _, c := range h.stack[1:] {
		for _, id := range c.graph.LocalIDs() {
			ids[id] = struct{}{}
		}
	}

	return ids
}

// Merge folds loaded entities into the base.  Entities whose id any
// checkpoint has written are ignored; the rest are merged by version and
// every checkpoint is replayed over the new base.
//
// When a checkpoint at or below the cursor can no longer be replayed the
// merge is abandoned with a *MergeConflictError and the history is left
// untouched.  A checkpoint above the cursor that fails to replay is dropped
// along with everything above it.
func (h *History) Merge(entities ...model.Entity) error {
	touched := h.touched()

	incoming := make([]model.Entity, 0, len(entities))
	for _, e := range entities {
		if _, ok := touched[e.GetID()]; !ok {
			incoming = append(incoming, e)
		}
	}

	oldBase := h.Base()
	base := oldBase.Merge(incoming...)

	if base == oldBase {
		return nil
	}

	stack := make([]checkpoint, 1, len(h.stack))
	stack[0] = checkpoint{graph: base}

	for i, c := range h.stack[1:] {
		g, _, err := apply(stack[i].graph, c.actions)
		if err != nil {
			if i+1 <= h.index {
				h.opts.logger.Warn("merge conflict", "index", i+1, "annotation", c.annotation, "error", err)
				return &MergeConflictError{Index: i + 1, Annotation: c.annotation, Err: err}
			}

			h.opts.logger.Warn("dropping redo checkpoints", "from", i+1, "error", err)

			break
		}

		stack = append(stack, checkpoint{graph: g, actions: c.actions, annotation: c.annotation})
	}

	previous := h.Graph()
	h.stack = stack

	ids := graph.Diff(oldBase, base).IDs()
	h.events.Emit(EventMerge, Event{Kind: EventMerge, Difference: graph.Diff(previous, h.Graph()), IDs: ids})

	return nil
}

// Reset drops every checkpoint but the pristine one.
func (h *History) Reset() {
	h.ResetTo(h.Base())
}

// ResetTo drops every checkpoint and starts over from base.
func (h *History) ResetTo(base *graph.Graph) {
	previous := h.Graph()

	h.stack = []checkpoint{{graph: base}}
	h.index = 0

	h.events.Emit(EventReset, Event{Kind: EventReset})
	h.change(previous)
}

func (h *History) change(previous *graph.Graph) *graph.Difference {
	d := graph.Diff(previous, h.Graph())
	h.events.Emit(EventChange, Event{Kind: EventChange, Difference: d})

	return d
}

// Annotations returns the annotation of every checkpoint above the
// pristine one.
func (h *History) Annotations() []string {
	out := make([]string, 0, len(h.stack)-1)
	for _, c := range h.stack[1:] {
		out = append(out, c.annotation)
	}

	return out
}

// Touched returns the sorted ids any checkpoint has written.
func (h *History) Touched() []model.ID {
	return slices.Sorted(maps.Keys(h.touched()))
}
