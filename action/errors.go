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

package action

import "errors"

// ErrDisabled is matched by every *ValidationError.
var ErrDisabled = errors.New("action disabled")

// ValidationError reports an action that refused the graph it was given.
type ValidationError struct {
	Annotation string
	Reason     string
}

func (e *ValidationError) Error() string {
	if e.Annotation == "" {
		return "action disabled: " + e.Reason
	}

	return "action " + e.Annotation + " disabled: " + e.Reason
}

func (e *ValidationError) Unwrap() error {
	return ErrDisabled
}

// Reasons reported by Disabled.
const (
	ReasonNotEligible   = "not_eligible"
	ReasonDegenerateWay = "degenerate_way"
	ReasonRelation      = "relation"
)
