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

package core

import (
	"bytes"
	"sync"
)

var buffers = sync.Pool{
	New: func() any { return new(bytes.Buffer) },
}

// PooledBuffer is a bytes.Buffer borrowed from a process wide pool.  Close
// returns it; the bytes it handed out must not be used afterwards.
type PooledBuffer struct {
	*bytes.Buffer
}

func NewPooledBuffer() *PooledBuffer {
	b := buffers.Get().(*bytes.Buffer)
	b.Reset()

	return &PooledBuffer{Buffer: b}
}

func (b *PooledBuffer) Close() {
	if b.Buffer == nil {
		return
	}

	buffers.Put(b.Buffer)
	b.Buffer = nil
}
