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

package editor

import (
	"context"

	"github.com/WorldBank-Transport/iD/event"
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/model"
)

// StatusFunc is told whether saving is possible.
type StatusFunc func(enabled bool)

// SaveButton follows the number of changes a save would upload.  The
// status is sent when that number changes and on every mode change; saving
// is disabled while a save runs.
type SaveButton struct {
	ctx    *Context
	status StatusFunc
	count  int

	change event.Handle
	enter  event.Handle
}

// NewSaveButton attaches a save button to c.
func NewSaveButton(c *Context, status StatusFunc) *SaveButton {
	b := &SaveButton{ctx: c, status: status}

	b.change = c.History().Subscribe(history.EventChange, func(history.Event) { b.update() })
	b.enter = c.OnEnter(func(Mode) { b.notify() })
	b.count = b.changes()

	return b
}

func (b *SaveButton) changes() int {
	return len(b.ctx.History().Difference().Summary())
}

func (b *SaveButton) saving() bool {
	return b.ctx.Mode() == ModeSave
}

func (b *SaveButton) notify() {
	b.status(b.count > 0 && !b.saving())
}

func (b *SaveButton) update() {
	n := b.changes()
	if n == b.count {
		return
	}

	b.count = n
	b.notify()
}

// Count returns the number of changes shown on the button.
func (b *SaveButton) Count() int {
	return b.count
}

// Click starts a save when there is something to save and no save is
// running.  It reports whether a save was started.
func (b *SaveButton) Click(ctx context.Context, tags map[string]string, done func(*model.Changeset, error)) bool {
	if b.saving() || !b.ctx.History().HasChanges() {
		return false
	}

	return b.ctx.Save(ctx, tags, done) == nil
}

// Close detaches the button.
func (b *SaveButton) Close() {
	b.ctx.History().Unsubscribe(b.change)
	b.ctx.events.Unsubscribe(b.enter)
}
