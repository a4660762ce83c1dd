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
	"context"
	"io"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var payload = []byte(strings.Repeat(`{"id":"n-1","tags":{"amenity":"cafe"}}`, 64))

func TestRoundTrip(t *testing.T) {
	for _, c := range []Compression{RAW, ZLIB, LZMA, LZ4, ZSTD} {
		t.Run(c.String(), func(t *testing.T) {
			var buf bytes.Buffer

			require.NoError(t, Write(&buf, "Snapshot", payload, c))

			f, err := Read(&buf)
			require.NoError(t, err)
			assert.Equal(t, "Snapshot", f.Type)
			assert.Equal(t, payload, f.Data)

			_, err = Read(&buf)
			assert.Equal(t, io.EOF, err)
		})
	}
}

func TestCompressionNames(t *testing.T) {
	c, err := ParseCompression("zstd")
	require.NoError(t, err)
	assert.Equal(t, ZSTD, c)

	_, err = ParseCompression("brotli")
	assert.ErrorIs(t, err, ErrUnknownCompressionType)
	assert.Equal(t, "Compression(9)", Compression(9).String())
}

func TestHeaderMarshal(t *testing.T) {
	h := Header{Type: "Entities", DataSize: 4242}

	var got Header
	require.NoError(t, got.Unmarshal(h.Marshal()))
	assert.Equal(t, h, got)

	assert.ErrorIs(t, got.Unmarshal([]byte{0xff}), ErrMalformed)
}

func TestBlobUnmarshalUnknown(t *testing.T) {
	var bl Blob
	assert.ErrorIs(t, bl.Unmarshal(nil), ErrUnknownCompressionType)
}

func TestTruncatedFrame(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "Snapshot", payload, ZLIB))

	_, err := Read(bytes.NewReader(buf.Bytes()[:buf.Len()-3]))
	assert.ErrorIs(t, err, io.ErrUnexpectedEOF)
}

func TestFrames(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Write(&buf, "a", []byte("one"), RAW))
	require.NoError(t, Write(&buf, "b", []byte("two"), LZ4))

	var types []string
	for f, err := range Frames(context.Background(), &buf) {
		require.NoError(t, err)
		types = append(types, f.Type+"="+string(f.Data))
	}

	assert.Equal(t, []string{"a=one", "b=two"}, types)
}

func TestFramesCancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	var errs []error
	for _, err := range Frames(ctx, bytes.NewReader(nil)) {
		errs = append(errs, err)
	}

	require.Len(t, errs, 1)
	assert.ErrorIs(t, errs[0], context.Canceled)
}
