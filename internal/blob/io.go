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
	"context"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"iter"
	"log/slog"
	"slices"

	"github.com/WorldBank-Transport/iD/internal/core"
)

// Frame is one decoded blob.
type Frame struct {
	Type string
	Data []byte
}

// Write packs data and writes it to w as a single frame of the given type.
func Write(w io.Writer, typ string, data []byte, c Compression) error {
	bl, err := Pack(data, c)
	if err != nil {
		return err
	}

	return WriteBlob(w, typ, bl)
}

// WriteBlob writes an already packed blob to w.
func WriteBlob(w io.Writer, typ string, bl *Blob) error {
	bb := bl.Marshal()

	hdr := &Header{Type: typ, DataSize: int32(len(bb))}
	hb := hdr.Marshal()

	if err := binary.Write(w, binary.BigEndian, uint32(len(hb))); err != nil {
		return fmt.Errorf("could not write header size: %w", err)
	}

	if _, err := w.Write(hb); err != nil {
		return fmt.Errorf("could not write blob header: %w", err)
	}

	if _, err := w.Write(bb); err != nil {
		return fmt.Errorf("could not write blob data: %w", err)
	}

	return nil
}

// Read reads and unpacks the next frame.  io.EOF is returned unwrapped
// when r is exhausted at a frame boundary.
func Read(r io.Reader) (Frame, error) {
	buf := core.NewPooledBuffer()
	defer buf.Close()

	hdr, err := readHeader(buf, r)
	if err != nil {
		return Frame{}, err
	}

	buf.Reset()

	if _, err := io.CopyN(buf, r, int64(hdr.DataSize)); err != nil {
		return Frame{}, fmt.Errorf("error reading blob: %w", noEOF(err))
	}

	var bl Blob
	if err := bl.Unmarshal(buf.Bytes()); err != nil {
		return Frame{}, fmt.Errorf("error unmarshalling blob: %w", err)
	}

	ubuf := core.NewPooledBuffer()
	defer ubuf.Close()

	data, err := bl.Unpack(ubuf)
	if err != nil {
		return Frame{}, err
	}

	return Frame{Type: hdr.Type, Data: slices.Clone(data)}, nil
}

func readHeader(buf *core.PooledBuffer, r io.Reader) (*Header, error) {
	var size uint32

	if err := binary.Read(r, binary.BigEndian, &size); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, io.EOF
		}

		return nil, fmt.Errorf("error reading blob header size: %w", noEOF(err))
	}

	if _, err := io.CopyN(buf, r, int64(size)); err != nil {
		return nil, fmt.Errorf("error reading blob header: %w", noEOF(err))
	}

	hdr := &Header{}
	if err := hdr.Unmarshal(buf.Bytes()); err != nil {
		return nil, fmt.Errorf("error unmarshalling blob header: %w", err)
	}

	return hdr, nil
}

// noEOF turns an end of input inside a frame into io.ErrUnexpectedEOF.
func noEOF(err error) error {
	if errors.Is(err, io.EOF) {
		return io.ErrUnexpectedEOF
	}

	return err
}

// Frames iterates over the frames of r until it is exhausted, ctx is done
// or a frame fails to decode.
func Frames(ctx context.Context, r io.Reader) iter.Seq2[Frame, error] {
	return func(yield func(Frame, error) bool) {
		for {
			select {
			case <-ctx.Done():
				yield(Frame{}, ctx.Err())
				return
			default:
			}

			f, err := Read(r)
			if err != nil {
				if !errors.Is(err, io.EOF) {
					slog.Error("unable to read blob", "error", err)
					yield(Frame{}, err)
				}

				return
			}

			if !yield(f, nil) {
				return
			}
		}
	}
}
