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

// Package blob frames opaque payloads as length prefixed, optionally
// compressed blobs.  The framing is the one used by OSM PBF files: a 4 byte
// big endian header length, a BlobHeader message naming the payload type
// and the blob size, then a Blob message carrying the packed bytes.
package blob

import (
	"errors"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

var (
	ErrUnknownCompressionType = errors.New("unknown blob compression type")
	ErrMalformed              = errors.New("malformed blob")
)

// Compression selects the packer of a blob.
type Compression int

const (
	RAW Compression = iota
	ZLIB
	LZMA
	LZ4
	ZSTD
)

var compressionNames = [...]string{"raw", "zlib", "lzma", "lz4", "zstd"}

func (c Compression) String() string {
	if c < RAW || c > ZSTD {
		return fmt.Sprintf("Compression(%d)", int(c))
	}

	return compressionNames[c]
}

// ParseCompression maps a compression name back to its value.
func ParseCompression(s string) (Compression, error) {
	for i, n := range compressionNames {
		if n == s {
			return Compression(i), nil
		}
	}

	return RAW, fmt.Errorf("%w: %q", ErrUnknownCompressionType, s)
}

// Header precedes every blob.
type Header struct {
	Type     string
	DataSize int32
}

const (
	headerType     protowire.Number = 1
	headerDataSize protowire.Number = 3
)

func (h *Header) Marshal() []byte {
	var b []byte

	b = protowire.AppendTag(b, headerType, protowire.BytesType)
	b = protowire.AppendString(b, h.Type)
	b = protowire.AppendTag(b, headerDataSize, protowire.VarintType)
	b = protowire.AppendVarint(b, uint64(h.DataSize))

	return b
}

func (h *Header) Unmarshal(b []byte) error {
	*h = Header{}

	return consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		switch {
		case num == headerType && typ == protowire.BytesType:
			v, n := protowire.ConsumeBytes(b)
			h.Type = string(v)

			return n, nil
		case num == headerDataSize && typ == protowire.VarintType:
			v, n := protowire.ConsumeVarint(b)
			h.DataSize = int32(v)

			return n, nil
		default:
			return protowire.ConsumeFieldValue(num, typ, b), nil
		}
	})
}

// Blob holds packed data along with the size it unpacks to.
type Blob struct {
	Compression Compression
	RawSize     int32
	Data        []byte
}

var dataFields = map[Compression]protowire.Number{
	RAW:  1,
	ZLIB: 3,
	LZMA: 4,
	LZ4:  6,
	ZSTD: 7,
}

const blobRawSize protowire.Number = 2

func (bl *Blob) Marshal() []byte {
	var b []byte

	if bl.Compression != RAW {
		b = protowire.AppendTag(b, blobRawSize, protowire.VarintType)
		b = protowire.AppendVarint(b, uint64(bl.RawSize))
	}

	b = protowire.AppendTag(b, dataFields[bl.Compression], protowire.BytesType)
	b = protowire.AppendBytes(b, bl.Data)

	return b
}

func (bl *Blob) Unmarshal(b []byte) error {
	*bl = Blob{Compression: -1}

	err := consumeFields(b, func(num protowire.Number, typ protowire.Type, b []byte) (int, error) {
		if num == blobRawSize && typ == protowire.VarintType {
			v, n := protowire.ConsumeVarint(b)
			bl.RawSize = int32(v)

			return n, nil
		}

		for c, field := range dataFields {
			if num == field && typ == protowire.BytesType {
				v, n := protowire.ConsumeBytes(b)
				bl.Compression = c
				bl.Data = v

				return n, nil
			}
		}

		return protowire.ConsumeFieldValue(num, typ, b), nil
	})
	if err != nil {
		return err
	}

	if bl.Compression < 0 {
		return ErrUnknownCompressionType
	}

	if bl.Compression == RAW {
		bl.RawSize = int32(len(bl.Data))
	}

	return nil
}

func consumeFields(b []byte, field func(protowire.Number, protowire.Type, []byte) (int, error)) error {
	for len(b) > 0 {
		num, typ, n := protowire.ConsumeTag(b)
		if n < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(n))
		}

		b = b[n:]

		m, err := field(num, typ, b)
		if err != nil {
			return err
		}

		if m < 0 {
			return fmt.Errorf("%w: %w", ErrMalformed, protowire.ParseError(m))
		}

		b = b[m:]
	}

	return nil
}
