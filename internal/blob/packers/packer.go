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

// Package packers holds the compressors used to pack blob data.
package packers

import (
	"bytes"
	"io"
)

// Packer compresses what is written to it.  The packed bytes are available
// from Bytes once Close has been called.
type Packer interface {
	io.WriteCloser

	Bytes() []byte
}

type base struct {
	io.WriteCloser
	buf *bytes.Buffer
}

func newBasePacker(buf *bytes.Buffer, w io.WriteCloser) *base {
	return &base{WriteCloser: w, buf: buf}
}

func (b *base) Bytes() []byte {
	return b.buf.Bytes()
}

type nopCloserWriter struct {
	io.Writer
}

func (w nopCloserWriter) Close() error {
	return nil
}

func NewRawPacker() Packer {
	buf := new(bytes.Buffer)
	return newBasePacker(buf, nopCloserWriter{buf})
}
