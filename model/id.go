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
	"fmt"
	"strconv"
	"sync"
)

// EntityType is an enumeration of entity types.
type EntityType int32

const (
	// NODE denotes a node, or a member that is a node.
	NODE EntityType = iota

	// WAY denotes a way, or a member that is a way.
	WAY

	// RELATION denotes a relation, or a member that is a relation.
	RELATION

	// InvalidType is returned for ids without a known prefix.
	InvalidType EntityType = -1
)

var typeNames = [...]string{"node", "way", "relation"}

func (t EntityType) String() string {
	if t < NODE || t > RELATION {
		return "EntityType(" + strconv.Itoa(int(t)) + ")"
	}

	return typeNames[t]
}

// ParseEntityType converts "node", "way" or "relation" to an EntityType.
func ParseEntityType(s string) (EntityType, error) {
	for i, name := range typeNames {
		if name == s {
			return EntityType(i), nil
		}
	}

	return InvalidType, fmt.Errorf("unknown entity type %q", s)
}

func (t EntityType) prefix() byte {
	return typeNames[t][0]
}

// ID is the stable local identifier of an entity: the first letter of its
// type followed by the remote numeric id.  Entities that were never uploaded
// carry negative numbers so they cannot collide with remote ids.
type ID string

// FromRemote builds the local id of a remote entity.
func FromRemote(t EntityType, remote int64) ID {
	return ID(string(t.prefix()) + strconv.FormatInt(remote, 10))
}

// ParseID validates s as an entity id.
func ParseID(s string) (ID, error) {
	id := ID(s)
	if !id.Valid() {
		return "", fmt.Errorf("invalid entity id %q", s)
	}

	return id, nil
}

// Type returns the entity type encoded in the id prefix.
func (id ID) Type() EntityType {
	if len(id) < 2 {
		return InvalidType
	}

	switch id[0] {
	case 'n':
		return NODE
	case 'w':
		return WAY
	case 'r':
		return RELATION
	default:
		return InvalidType
	}
}

// Remote returns the numeric id used by the remote service.
func (id ID) Remote() int64 {
	if len(id) < 2 {
		return 0
	}

	n, err := strconv.ParseInt(string(id[1:]), 10, 64)
	if err != nil {
		return 0
	}

	return n
}

// Valid reports whether the id has a type prefix and a non-zero number.
func (id ID) Valid() bool {
	return id.Type() != InvalidType && id.Remote() != 0
}

// IsNew reports whether the id was allocated locally.
func (id ID) IsNew() bool {
	return id.Remote() < 0
}

// Sequence allocates ids for entities created locally.  Each type counts
// down from -1 independently.
type Sequence struct {
	mu   sync.Mutex
	next [3]int64
}

// DefaultSequence is used by the constructors when an id is not given.
var DefaultSequence = NewSequence()

// NewSequence creates a Sequence starting at -1 for every type.
func NewSequence() *Sequence {
	return &Sequence{next: [3]int64{-1, -1, -1}}
}

// Next allocates a new id of type t.
func (s *Sequence) Next(t EntityType) ID {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := s.next[t]
	s.next[t]--

	return FromRemote(t, n)
}

// Observe makes sure a local id already in use is never handed out again.
func (s *Sequence) Observe(id ID) {
	if !id.IsNew() || id.Type() == InvalidType {
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, n := id.Type(), id.Remote()
	if n <= s.next[t] {
		s.next[t] = n - 1
	}
}

// Peek returns the next number for each type, keyed by type name.
func (s *Sequence) Peek() map[string]int64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return map[string]int64{
		NODE.String():     s.next[NODE],
		WAY.String():      s.next[WAY],
		RELATION.String(): s.next[RELATION],
	}
}

// Reset rewinds the sequence to -1 for every type.
func (s *Sequence) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.next = [3]int64{-1, -1, -1}
}
