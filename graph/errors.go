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

package graph

import (
	"errors"

	"github.com/WorldBank-Transport/iD/model"
)

// ErrNotFound is matched by lookups of ids the graph does not hold.
var ErrNotFound = errors.New("entity not found")

// NotFoundError names the id that was looked up.
type NotFoundError struct {
	ID model.ID
}

func (e *NotFoundError) Error() string {
	return "entity " + string(e.ID) + " not found"
}

func (e *NotFoundError) Unwrap() error {
	return ErrNotFound
}
