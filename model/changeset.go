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

package model

import (
	"maps"
	"strings"
)

// Changeset is the metadata of an upload: comment, source, imagery used and
// the like.  It receives its ID once the remote service has created it.
type Changeset struct {
	ID   int64
	Tags map[string]string
	V    uint32
}

// NewChangeset creates a changeset that has not been opened yet.
func NewChangeset(tags map[string]string) *Changeset {
	return &Changeset{Tags: maps.Clone(tags)}
}

// Update returns a copy of the changeset with fn applied and V incremented.
func (c *Changeset) Update(fn func(*Changeset)) *Changeset {
	u := *c
	u.Tags = maps.Clone(c.Tags)

	if u.Tags == nil {
		u.Tags = map[string]string{}
	}

	fn(&u)

	u.V = c.V + 1

	return &u
}

// WithTags returns a copy with the given tags merged over the current ones.
// An empty value removes the tag.
func (c *Changeset) WithTags(tags map[string]string) *Changeset {
	return c.Update(func(u *Changeset) {
		for k, v := range tags {
			if v == "" {
				delete(u.Tags, k)
			} else {
				u.Tags[k] = v
			}
		}
	})
}

// Comment returns the changeset comment.
func (c *Changeset) Comment() string {
	return c.Tags["comment"]
}

// Source returns the changeset source.
func (c *Changeset) Source() string {
	return c.Tags["source"]
}

// ImageryUsed returns the semicolon separated imagery_used values.
func (c *Changeset) ImageryUsed() []string {
	v := c.Tags["imagery_used"]
	if v == "" {
		return nil
	}

	return strings.Split(v, ";")
}
