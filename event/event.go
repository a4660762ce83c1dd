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

// Package event provides a synchronous observer dispatcher.  Handlers are
// called in subscription order.  An emission made from inside a handler is
// queued and delivered once the current fan-out has finished, so every
// subscriber observes events in the order the emitting operations completed.
package event

import "sync"

// Handle identifies a subscription.
type Handle uint64

type subscription[K comparable, T any] struct {
	handle Handle
	kind   K
	fn     func(T)
}

type pending[K comparable, T any] struct {
	kind K
	ev   T
}

// Dispatcher fans events of kind K out to handlers of payload T.  The zero
// value is ready to use.
type Dispatcher[K comparable, T any] struct {
	mu     sync.Mutex
	next   Handle
	subs   []subscription[K, T]
	queue  []pending[K, T]
	firing bool
}

// Subscribe registers fn for events of the given kind.
func (d *Dispatcher[K, T]) Subscribe(kind K, fn func(T)) Handle {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.next++
	d.subs = append(d.subs, subscription[K, T]{handle: d.next, kind: kind, fn: fn})

	return d.next
}

// Unsubscribe removes a subscription.  It reports whether the handle was
// registered.  A handler removed during a fan-out is not called again, even
// for the event currently being delivered.
func (d *Dispatcher[K, T]) Unsubscribe(h Handle) bool {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, s := range d.subs {
		if s.handle == h {
			d.subs = append(d.subs[:i:i], d.subs[i+1:]...)
			return true
		}
	}

	return false
}

// Len returns the number of live subscriptions.
func (d *Dispatcher[K, T]) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()

	return len(d.subs)
}

// Emit delivers ev to every handler subscribed to kind.
func (d *Dispatcher[K, T]) Emit(kind K, ev T) {
	d.mu.Lock()
	d.queue = append(d.queue, pending[K, T]{kind: kind, ev: ev})

	if d.firing {
		d.mu.Unlock()
		return
	}

	d.firing = true
	d.mu.Unlock()

	d.drain()
}

func (d *Dispatcher[K, T]) drain() {
	for {
		d.mu.Lock()
		if len(d.queue) == 0 {
			d.firing = false
			d.mu.Unlock()

			return
		}

		p := d.queue[0]
		d.queue = d.queue[1:]

		var handles []Handle
		for _, s := range d.subs {
			if s.kind == p.kind {
				handles = append(handles, s.handle)
			}
		}
		d.mu.Unlock()

		for _, h := range handles {
			if fn := d.lookup(h); fn != nil {
				fn(p.ev)
			}
		}
	}
}

func (d *Dispatcher[K, T]) lookup(h Handle) func(T) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for _, s := range d.subs {
		if s.handle == h {
			return s.fn
		}
	}

	return nil
}
