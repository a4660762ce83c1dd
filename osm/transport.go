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
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/sony/gobreaker"
)

const maxErrorBody = 4 << 10

func newBreaker(name string, s BreakerSettings, logger *slog.Logger) *gobreaker.CircuitBreaker {
	return gobreaker.NewCircuitBreaker(gobreaker.Settings{
		Name:    name,
		Timeout: s.Timeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= s.MaxFailures
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", "name", name, "from", from.String(), "to", to.String())
		},
		// only transport errors and server errors count against the service
		IsSuccessful: func(err error) bool {
			var se *StatusError
			if errors.As(err, &se) {
				return se.Code < http.StatusInternalServerError
			}

			return err == nil || errors.Is(err, context.Canceled)
		},
	})
}

type request struct {
	method      string
	path        string
	body        []byte
	contentType string
}

// do sends one request through the breaker and returns the decoded body.
func (s *Service) do(ctx context.Context, r request) ([]byte, error) {
	u := s.base + r.path

	res, err := s.breaker.Execute(func() (any, error) {
		var body io.Reader
		if r.body != nil {
			body = bytes.NewReader(r.body)
		}

		req, err := http.NewRequestWithContext(ctx, r.method, u, body)
		if err != nil {
			return nil, err
		}

		if r.contentType != "" {
			req.Header.Set("Content-Type", r.contentType)
		}

		req.Header.Set("Accept-Encoding", "gzip")
		if s.cfg.UserAgent != "" {
			req.Header.Set("User-Agent", s.cfg.UserAgent)
		}

		s.opts.credentials.Authorize(req)

		resp, err := s.opts.client.Do(req)
		if err != nil {
			return nil, err
		}
		defer resp.Body.Close()

		data, err := readBody(resp)
		if err != nil {
			return nil, err
		}

		if resp.StatusCode < 200 || resp.StatusCode > 299 {
			if len(data) > maxErrorBody {
				data = data[:maxErrorBody]
			}

			return nil, &StatusError{Method: r.method, URL: u, Code: resp.StatusCode, Body: strings.TrimSpace(string(data))}
		}

		return data, nil
	})

	if err != nil {
		var se *StatusError
		if errors.As(err, &se) {
			return nil, err
		}

		return nil, fmt.Errorf("%w: %s %s: %w", ErrNetwork, r.method, u, err)
	}

	return res.([]byte), nil
}

func readBody(resp *http.Response) ([]byte, error) {
	if resp.Header.Get("Content-Encoding") != "gzip" {
		return io.ReadAll(resp.Body)
	}

	zr, err := gzip.NewReader(resp.Body)
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	return io.ReadAll(zr)
}

// load GETs path.  An auth failure while authenticated logs out and
// retries once, anonymously.  A rate limit while anonymous raises the
// sticky rate limit flag; it is never retried.
func (s *Service) load(ctx context.Context, path string) ([]byte, error) {
	for attempt := 0; ; attempt++ {
		authenticated := s.opts.credentials.Authenticated()

		data, err := s.do(ctx, request{method: http.MethodGet, path: path})
		if err == nil {
			return data, nil
		}

		var se *StatusError
		if !errors.As(err, &se) {
			return nil, err
		}

		if authenticated && se.auth() && attempt == 0 {
			s.opts.logger.Info("authentication failed, retrying without credentials", "path", path, "status", se.Code)
			s.Logout()

			continue
		}

		if !authenticated && se.rateLimited() {
			s.rateLimit(err)
		}

		return nil, err
	}
}
