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

package history

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/WorldBank-Transport/iD/action"
	"github.com/WorldBank-Transport/iD/model"
)

const snapshotVersion = 1

// Snapshot is the serializable state of a History: the base values of the
// ids the edits touched, the delta of every checkpoint against the one
// below it, the cursor and the state of the id sequence.
type Snapshot struct {
	Version int              `json:"version"`
	Session uuid.UUID        `json:"session"`
	Saved   time.Time        `json:"saved"`
	Base    []Record         `json:"base"`
	Stack   []Step           `json:"stack"`
	Index   int              `json:"index"`
	NextIDs map[string]int64 `json:"nextIDs"`
}

// Step is one checkpoint of a Snapshot.
type Step struct {
	Put        []Record   `json:"put,omitempty"`
	Remove     []model.ID `json:"remove,omitempty"`
	Annotation string     `json:"annotation,omitempty"`
}

// Record is the JSON form of an entity.  Its type follows from the id.
type Record struct {
	ID        model.ID          `json:"id"`
	Version   int32             `json:"version,omitempty"`
	Visible   bool              `json:"visible"`
	User      string            `json:"user,omitempty"`
	UID       model.UID         `json:"uid,omitempty"`
	Changeset int64             `json:"changeset,omitempty"`
	Timestamp time.Time         `json:"timestamp"`
	Tags      map[string]string `json:"tags,omitempty"`
	Loc       *model.Loc        `json:"loc,omitempty"`
	Nodes     []model.ID        `json:"nodes,omitempty"`
	Members   []MemberRecord    `json:"members,omitempty"`
}

type MemberRecord struct {
	ID   model.ID `json:"id"`
	Type string   `json:"type"`
	Role string   `json:"role"`
}

func NewRecord(e model.Entity) Record {
	info := e.GetInfo()
	r := Record{
		ID:        e.GetID(),
		Version:   info.Version,
		Visible:   info.Visible,
		User:      info.User,
		UID:       info.UID,
		Changeset: info.Changeset,
		Timestamp: info.Timestamp,
		Tags:      e.GetTags(),
	}

	switch e := e.(type) {
	case *model.Node:
		loc := e.Loc
		r.Loc = &loc
	case *model.Way:
		r.Nodes = e.Nodes
	case *model.Relation:
		for _, m := range e.Members {
			r.Members = append(r.Members, MemberRecord{ID: m.ID, Type: m.Type.String(), Role: m.Role})
		}
	}

	return r
}

// Entity converts the record back.
func (r Record) Entity() (model.Entity, error) {
	info := model.Info{
		Version:   r.Version,
		UID:       r.UID,
		Timestamp: r.Timestamp,
		Changeset: r.Changeset,
		User:      r.User,
		Visible:   r.Visible,
	}

	switch r.ID.Type() {
	case model.NODE:
		n := &model.Node{ID: r.ID, Tags: r.Tags, Info: info}
		if r.Loc != nil {
			n.Loc = *r.Loc
		}

		return n, nil
	case model.WAY:
		return &model.Way{ID: r.ID, Tags: r.Tags, Info: info, Nodes: r.Nodes}, nil
	case model.RELATION:
		rel := &model.Relation{ID: r.ID, Tags: r.Tags, Info: info}

		for _, m := range r.Members {
			t, err := model.ParseEntityType(m.Type)
			if err != nil {
				return nil, fmt.Errorf("%w: member of %s: %w", ErrInvalidSnapshot, r.ID, err)
			}

			rel.Members = append(rel.Members, model.Member{ID: m.ID, Type: t, Role: m.Role})
		}

		return rel, nil
	default:
		return nil, fmt.Errorf("%w: bad entity id %q", ErrInvalidSnapshot, r.ID)
	}
}

func records(es []model.Entity) []Record {
	out := make([]Record, len(es))
	for i, e := range es {
		out[i] = NewRecord(e)
	}

	return out
}

func entities(rs []Record) ([]model.Entity, error) {
	out := make([]model.Entity, len(rs))

	for i, r := range rs {
		e, err := r.Entity()
		if err != nil {
			return nil, err
		}

		out[i] = e
	}

	return out, nil
}

// Snapshot captures the history for a later Restore.
func (h *History) Snapshot() *Snapshot {
	s := &Snapshot{
		Version: snapshotVersion,
		Session: h.session,
		Saved:   time.Now().UTC(),
		Index:   h.index,
		NextIDs: h.opts.sequence.Peek(),
		Stack:   make([]Step, 0, len(h.stack)-1),
	}

	base := h.Base()
	for _, id := range h.Touched() {
		if e, ok := base.Find(id); ok {
			s.Base = append(s.Base, NewRecord(e))
		}
	}

	for i := 1; i < len(h.stack); i++ {
		p := action.Diff(h.stack[i-1].graph, h.stack[i].graph, h.stack[i].annotation)
		s.Stack = append(s.Stack, Step{Put: records(p.Put), Remove: p.Remove, Annotation: p.Label})
	}

	return s
}

// Restore replaces every checkpoint with those of s.  The base values s
// carries are adopted into the current base first; each checkpoint is
// rebuilt as a patch so later merges can replay it.
func (h *History) Restore(s *Snapshot) error {
	if s.Version != snapshotVersion {
		return fmt.Errorf("%w: version %d", ErrInvalidSnapshot, s.Version)
	}

	if s.Index < 0 || s.Index > len(s.Stack) {
		return fmt.Errorf("%w: index %d of %d checkpoints", ErrInvalidSnapshot, s.Index, len(s.Stack))
	}

	baseEntities, err := entities(s.Base)
	if err != nil {
		return err
	}

	stack := []checkpoint{{graph: h.Base().Adopt(baseEntities...)}}

	for i, step := range s.Stack {
		put, err := entities(step.Put)
		if err != nil {
			return err
		}

		p := action.Patch{Put: put, Remove: step.Remove, Label: step.Annotation}

		g, err := p.Apply(stack[i].graph)
		if err != nil {
			return fmt.Errorf("%w: checkpoint %d: %w", ErrInvalidSnapshot, i+1, err)
		}

		stack = append(stack, checkpoint{graph: g, actions: []action.Action{p}, annotation: step.Annotation})

		for _, e := range put {
			h.opts.sequence.Observe(e.GetID())
		}
	}

	for name, next := range s.NextIDs {
		if t, err := model.ParseEntityType(name); err == nil {
			h.opts.sequence.Observe(model.FromRemote(t, next+1))
		}
	}

	previous := h.Graph()

	h.stack = stack
	h.index = s.Index
	h.session = s.Session

	h.opts.logger.Info("restored history", "session", s.Session, "checkpoints", len(s.Stack), "index", s.Index)

	h.events.Emit(EventRestore, Event{Kind: EventRestore})
	h.change(previous)

	return nil
}
