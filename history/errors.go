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
	"errors"
	"fmt"
)

var (
	// ErrMergeConflict is matched by every *MergeConflictError.
	ErrMergeConflict = errors.New("merge conflict")

	// ErrInvalidSnapshot is returned when a snapshot cannot be restored.
	ErrInvalidSnapshot = errors.New("invalid snapshot")
)

// MergeConflictError reports a checkpoint whose actions could not be
// replayed over the merged base.  The history is left as it was.
type MergeConflictError struct {
	Index      int
	Annotation string
	Err        error
}

func (e *MergeConflictError) Error() string {
	return fmt.Sprintf("merge conflict replaying checkpoint %d (%s): %v", e.Index, e.Annotation, e.Err)
}

func (e *MergeConflictError) Unwrap() []error {
	return []error{ErrMergeConflict, e.Err}
}
