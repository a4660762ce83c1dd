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

package blob

import (
	"bytes"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"
	"github.com/klauspost/compress/zstd"
	"github.com/pierrec/lz4"
	"github.com/ulikunitz/xz/lzma"

	"github.com/WorldBank-Transport/iD/internal/blob/packers"
	"github.com/WorldBank-Transport/iD/internal/core"
)

// Pack compresses data into a blob.
func Pack(data []byte, c Compression) (*Blob, error) {
	p := newPacker(c)

	if _, err := p.Write(data); err != nil {
		return nil, fmt.Errorf("could not compress data: %w", err)
	}

	if err := p.Close(); err != nil {
		return nil, fmt.Errorf("could not close writer: %w", err)
	}

	return &Blob{Compression: c, RawSize: int32(len(data)), Data: p.Bytes()}, nil
}

// newPacker creates the appropriate Packer for the compression.
func newPacker(c Compression) packers.Packer {
	switch c {
	case RAW:
		return packers.NewRawPacker()
	case ZLIB:
		return packers.NewZlibPacker()
	case LZMA:
		return packers.NewLzmaPacker()
	case LZ4:
		return packers.NewLz4Packer()
	case ZSTD:
		return packers.NewZstdPacker()
	default:
		panic(fmt.Errorf("%w: %v", ErrUnknownCompressionType, c))
	}
}

// Unpack uncompresses the blob into buf and returns the unpacked bytes,
// which alias buf.
func (bl *Blob) Unpack(buf *core.PooledBuffer) ([]byte, error) {
	var factory func(data []byte) (io.Reader, error)

	switch bl.Compression {
	case RAW:
		return bl.Data, nil
	case ZLIB:
		factory = func(data []byte) (io.Reader, error) {
			return zlib.NewReader(bytes.NewReader(data))
		}
	case LZMA:
		factory = func(data []byte) (io.Reader, error) {
			return lzma.NewReader(bytes.NewReader(data))
		}
	case LZ4:
		factory = func(data []byte) (io.Reader, error) {
			return lz4.NewReader(bytes.NewReader(data)), nil
		}
	case ZSTD:
		factory = func(data []byte) (io.Reader, error) {
			d, err := zstd.NewReader(bytes.NewReader(data))
			if err != nil {
				return nil, err
			}

			return d.IOReadCloser(), nil
		}
	default:
		return nil, ErrUnknownCompressionType
	}

	rawBufferSize := int(bl.RawSize) + bytes.MinRead
	if rawBufferSize > buf.Cap() {
		buf.Grow(rawBufferSize)
	}

	rdr, err := factory(bl.Data)
	if err != nil {
		return nil, fmt.Errorf("unpacker factory error: %w", err)
	}

	if c, ok := rdr.(io.Closer); ok {
		defer c.Close()
	}

	if n, err := buf.ReadFrom(rdr); err != nil {
		return nil, fmt.Errorf("unpacker read error: %w", err)
	} else if n != int64(bl.RawSize) {
		return nil, fmt.Errorf("%w: raw blob data size %d but expected %d", ErrMalformed, n, bl.RawSize)
	}

	return buf.Bytes(), nil
}
