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
	"context"
	"encoding/json"
	"fmt"
	"io"
	"runtime"

	"github.com/destel/rill"

	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/internal/blob"
	"github.com/WorldBank-Transport/iD/model"
)

const (
	snapshotFrame = "Snapshot"
	entitiesFrame = "Entities"
)

// Archive is what a backup file holds: a snapshot and the base entities it
// was taken against.
type Archive struct {
	Snapshot *Snapshot
	Entities []model.Entity
}

// Archive captures the snapshot together with the whole base graph.
func (h *History) Archive() *Archive {
	return &Archive{Snapshot: h.Snapshot(), Entities: h.Base().Entities()}
}

// Open rebuilds a history from an archive.
func Open(a *Archive, opts ...Option) (*History, error) {
	h := New(graph.New(a.Entities...), opts...)

	if err := h.Restore(a.Snapshot); err != nil {
		return nil, err
	}

	return h, nil
}

// BackupOption configures WriteArchive.
type BackupOption func(*backupOptions)

type backupOptions struct {
	compression blob.Compression
	batchSize   int
	ncpu        uint16
}

var defaultBackupConfig = backupOptions{
	compression: blob.ZSTD,
	batchSize:   8000,
	ncpu:        uint16(runtime.GOMAXPROCS(-1)),
}

// WithCompression selects the blob compression.
func WithCompression(c blob.Compression) BackupOption {
	return func(o *backupOptions) {
		o.compression = c
	}
}

// WithBatchSize sets the number of entities packed per blob.
func WithBatchSize(n int) BackupOption {
	return func(o *backupOptions) {
		o.batchSize = n
	}
}

// WithNCpus sets the number of goroutines packing blobs.
func WithNCpus(n uint16) BackupOption {
	return func(o *backupOptions) {
		o.ncpu = n
	}
}

// WriteArchive writes the snapshot as the first blob and the entities in
// batches after it.  Batches are packed concurrently and written in order.
func WriteArchive(w io.Writer, a *Archive, opts ...BackupOption) error {
	o := defaultBackupConfig
	for _, opt := range opts {
		opt(&o)
	}

	data, err := json.Marshal(a.Snapshot)
	if err != nil {
		return fmt.Errorf("could not marshal snapshot: %w", err)
	}

	if err := blob.Write(w, snapshotFrame, data, o.compression); err != nil {
		return fmt.Errorf("could not write snapshot: %w", err)
	}

	batches := rill.Batch(rill.FromSlice(a.Entities, nil), o.batchSize, -1)

	packed := rill.OrderedMap(batches, int(max(o.ncpu, 1)), func(batch []model.Entity) (*blob.Blob, error) {
		data, err := json.Marshal(records(batch))
		if err != nil {
			return nil, fmt.Errorf("could not marshal entities: %w", err)
		}

		return blob.Pack(data, o.compression)
	})

	return rill.ForEach(packed, 1, func(bl *blob.Blob) error {
		return blob.WriteBlob(w, entitiesFrame, bl)
	})
}

// ReadArchive reads an archive written by WriteArchive.
func ReadArchive(ctx context.Context, r io.Reader) (*Archive, error) {
	a := &Archive{}

	for f, err := range blob.Frames(ctx, r) {
		if err != nil {
			return nil, err
		}

		switch f.Type {
		case snapshotFrame:
			a.Snapshot = &Snapshot{}
			if err := json.Unmarshal(f.Data, a.Snapshot); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
			}
		case entitiesFrame:
			var rs []Record
			if err := json.Unmarshal(f.Data, &rs); err != nil {
				return nil, fmt.Errorf("%w: %w", ErrInvalidSnapshot, err)
			}

			es, err := entities(rs)
			if err != nil {
				return nil, err
			}

			a.Entities = append(a.Entities, es...)
		default:
			return nil, fmt.Errorf("%w: unexpected blob %q", ErrInvalidSnapshot, f.Type)
		}
	}

	if a.Snapshot == nil {
		return nil, fmt.Errorf("%w: no snapshot", ErrInvalidSnapshot)
	}

	return a, nil
}
