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
	"log/slog"

	"github.com/WorldBank-Transport/iD/model"
)

// Option configures a History.
type Option func(*options)

type options struct {
	logger   *slog.Logger
	sequence *model.Sequence
}

var defaultHistoryConfig = options{
	sequence: model.DefaultSequence,
}

// WithLogger sets the logger; slog.Default() is used otherwise.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) {
		o.logger = l
	}
}

// WithSequence sets the id sequence that snapshots record and restores
// advance.
func WithSequence(s *model.Sequence) Option {
	return func(o *options) {
		o.sequence = s
	}
}
