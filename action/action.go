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

// Package action holds the edit operations applied by the history.  An
// action turns a graph into a new graph; it never mutates its input and
// needs no inverse, undo simply discards the graph it produced.
package action

import (
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

// Action is one composable edit.
type Action interface {
	// Apply returns the graph with the edit applied.
	Apply(g *graph.Graph) (*graph.Graph, error)

	// Annotation labels the edit for display.  Checkpoints produced by
	// unannotated actions are skipped by undo and redo.
	Annotation() string
}

// Disabler is implemented by actions that can refuse a graph.  A non-empty
// reason means the action must not be applied.
type Disabler interface {
	Disabled(g *graph.Graph) string
}

// Check returns a *ValidationError when a refuses g.
func Check(a Action, g *graph.Graph) error {
	d, ok := a.(Disabler)
	if !ok {
		return nil
	}

	if reason := d.Disabled(g); reason != "" {
		return &ValidationError{Annotation: a.Annotation(), Reason: reason}
	}

	return nil
}

// Do checks a against g and applies it.
func Do(a Action, g *graph.Graph) (*graph.Graph, error) {
	if err := Check(a, g); err != nil {
		return nil, err
	}

	return a.Apply(g)
}

type annotated struct {
	Action
	label string
}

func (a annotated) Annotation() string {
	return a.label
}

func (a annotated) Disabled(g *graph.Graph) string {
	if d, ok := a.Action.(Disabler); ok {
		return d.Disabled(g)
	}

	return ""
}

// Annotate overrides the annotation of a.  An empty label makes the
// resulting checkpoint invisible to undo and redo.
func Annotate(a Action, label string) Action {
	return annotated{Action: a, label: label}
}

// Noop leaves the graph as it is.  It is used to open a checkpoint that a
// later history Replace fills in.
type Noop struct{}

func (Noop) Apply(g *graph.Graph) (*graph.Graph, error) {
	return g, nil
}

func (Noop) Annotation() string {
	return ""
}

// Compose applies actions in order under one annotation.  Each action is
// checked against the graph produced by the ones before it.
func Compose(annotation string, actions ...Action) Action {
	return composed{label: annotation, actions: actions}
}

type composed struct {
	label   string
	actions []Action
}

func (c composed) Apply(g *graph.Graph) (*graph.Graph, error) {
	var err error

	for _, a := range c.actions {
		if g, err = Do(a, g); err != nil {
			return nil, err
		}
	}

	return g, nil
}

func (c composed) Annotation() string {
	return c.label
}

func (c composed) Disabled(g *graph.Graph) string {
	if len(c.actions) == 0 {
		return ""
	}

	if d, ok := c.actions[0].(Disabler); ok {
		return d.Disabled(g)
	}

	return ""
}

// Patch binds Put and unbinds Remove in a single layer.  Restored history
// checkpoints are replayed as patches.
type Patch struct {
	Put    []model.Entity
	Remove []model.ID
	Label  string
}

func (p Patch) Apply(g *graph.Graph) (*graph.Graph, error) {
	return g.Batch(func(tx *graph.Tx) error {
		for _, e := range p.Put {
			tx.Replace(e)
		}

		for _, id := range p.Remove {
			tx.Remove(id)
		}

		return nil
	})
}

func (p Patch) Annotation() string {
	return p.Label
}

// Diff returns the patch that turns base into head.
func Diff(base, head *graph.Graph, label string) Patch {
	p := Patch{Label: label}

	for _, c := range graph.Diff(base, head).Changes() {
		if c.Head != nil {
			p.Put = append(p.Put, c.Head)
		} else {
			p.Remove = append(p.Remove, c.ID)
		}
	}

	return p
}
