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
	"sync"
)

// Loop runs posted functions one at a time, in the order they were posted,
// on the goroutine that calls Run.  It is the single thread of control a
// History is mutated from.
type Loop struct {
	mu    sync.Mutex
	queue []func()
	wake  chan struct{}
}

// NewLoop creates an idle loop.
func NewLoop() *Loop {
	return &Loop{wake: make(chan struct{}, 1)}
}

// Post queues f.  It never blocks, so it may be called from the loop
// itself.
func (l *Loop) Post(f func()) {
	l.mu.Lock()
	l.queue = append(l.queue, f)
	l.mu.Unlock()

	select {
	case l.wake <- struct{}{}:
	default:
	}
}

func (l *Loop) take() []func() {
	l.mu.Lock()
	defer l.mu.Unlock()

	q := l.queue
	l.queue = nil

	return q
}

// Run executes posted functions until ctx is done.
func (l *Loop) Run(ctx context.Context) error {
	for {
		for _, f := range l.take() {
			f()
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-l.wake:
		}
	}
}

// Do runs f on the loop and waits for it to return.  It must not be called
// from the loop.
func (l *Loop) Do(ctx context.Context, f func()) error {
	done := make(chan struct{})

	l.Post(func() {
		defer close(done)
		f()
	})

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
