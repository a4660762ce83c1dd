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
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrNetwork is matched by transport failures and by responses the
	// service answered with an error status.
	ErrNetwork = errors.New("network error")

	// ErrAuth is matched by 400, 401 and 403 responses.
	ErrAuth = errors.New("authentication failed")

	// ErrRateLimited is matched by 429 and 509 responses.
	ErrRateLimited = errors.New("rate limited")

	// ErrUpload is matched by every failure to create or upload a changeset.
	ErrUpload = errors.New("upload failed")

	// ErrOff is returned by LoadTiles while the service is toggled off.
	ErrOff = errors.New("service is off")
)

const statusBandwidthLimitExceeded = 509

// StatusError is a response with a status code outside 2xx.
type StatusError struct {
	Method string
	URL    string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%s %s: %d %s", e.Method, e.URL, e.Code, http.StatusText(e.Code))
}

func (e *StatusError) auth() bool {
	return e.Code == http.StatusBadRequest || e.Code == http.StatusUnauthorized || e.Code == http.StatusForbidden
}

func (e *StatusError) rateLimited() bool {
	return e.Code == http.StatusTooManyRequests || e.Code == statusBandwidthLimitExceeded
}

func (e *StatusError) Unwrap() []error {
	switch {
	case e.auth():
		return []error{ErrNetwork, ErrAuth}
	case e.rateLimited():
		return []error{ErrNetwork, ErrRateLimited}
	default:
		return []error{ErrNetwork}
	}
}

// UploadError reports the phase of PutChangeset that failed.
type UploadError struct {
	Phase string
	Err   error
}

func (e *UploadError) Error() string {
	return fmt.Sprintf("changeset %s failed: %v", e.Phase, e.Err)
}

func (e *UploadError) Unwrap() []error {
	return []error{ErrUpload, e.Err}
}
