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

package osm

import (
	"log/slog"
	"net/http"
	"sync"
	"time"
)

// Scheduler runs the completion of an asynchronous load.  The default runs
// it on the goroutine that completed the request; an editor passes its
// event loop so that completions are serialized with user edits.
type Scheduler func(func())

// Credentials authorize requests.  Logout drops whatever the credentials
// hold so that later requests go out anonymously.
type Credentials interface {
	Authenticated() bool
	Authorize(req *http.Request)
	Logout()
}

// Option configures a Service.
type Option func(*options)

type options struct {
	logger      *slog.Logger
	client      *http.Client
	scheduler   Scheduler
	credentials Credentials
	breaker     BreakerSettings
}

// BreakerSettings tune the circuit breaker guarding the transport.
type BreakerSettings struct {
	// MaxFailures is the number of consecutive failures that opens the
	// breaker.
	MaxFailures uint32

	// Timeout is how long the breaker stays open before letting a probe
	// through.
	Timeout time.Duration
}

var defaultServiceConfig = options{
	client:      &http.Client{Timeout: time.Minute},
	scheduler:   func(f func()) { f() },
	credentials: Anonymous{},
	breaker:     BreakerSettings{MaxFailures: 5, Timeout: 30 * time.Second},
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithHTTPClient sets the client requests are sent with.
func WithHTTPClient(c *http.Client) Option {
	return func(o *options) {
		o.client = c
	}
}

// WithScheduler sets where completions and events are delivered.
func WithScheduler(s Scheduler) Option {
	return func(o *options) {
		o.scheduler = s
	}
}

// WithCredentials sets the credentials requests are authorized with.
func WithCredentials(c Credentials) Option {
	return func(o *options) {
		o.credentials = c
	}
}

// WithBreaker tunes the circuit breaker.
func WithBreaker(b BreakerSettings) Option {
	return func(o *options) {
		o.breaker = b
	}
}

// Anonymous sends requests without credentials.
type Anonymous struct{}

func (Anonymous) Authenticated() bool { return false }
func (Anonymous) Authorize(*http.Request) {}
func (Anonymous) Logout() {}

// Token authorizes requests with a bearer token until logged out.
type Token struct {
	mu    sync.Mutex
	token string
}

// NewToken creates credentials holding token.
func NewToken(token string) *Token {
	return &Token{token: token}
}

func (t *Token) Authenticated() bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return t.token != ""
}

func (t *Token) Authorize(req *http.Request) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if t.token != "" {
		req.Header.Set("Authorization", "Bearer "+t.token)
	}
}

func (t *Token) Logout() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.token = ""
}
