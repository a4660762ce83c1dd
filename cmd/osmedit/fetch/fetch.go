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

// Package fetch downloads the map tiles covering a bounding box and stores
// them as the base of a new edit session backup.
package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/iD/cmd/osmedit/cli"
	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/internal/blob"
	"github.com/WorldBank-Transport/iD/model"
	"github.com/WorldBank-Transport/iD/osm"
)

// ErrNoTiles is returned for a bounding box that covers no tile.
var ErrNoTiles = errors.New("bounding box covers no tiles")

var (
	extent      model.Extent
	output      string
	compression blob.Compression
)

func init() {
	cli.RootCmd.AddCommand(fetchCmd)

	flags := fetchCmd.Flags()
	flags.Var(cli.NewExtentValue(model.Extent{}, &extent), "bbox", "bounding box as minlon,minlat,maxlon,maxlat")
	flags.StringVarP(&output, "out", "o", "session.osmedit", "backup file to write")
	flags.Var(cli.NewCompressionValue(blob.ZSTD, &compression), "compression", "backup compression: raw, zlib, lzma, lz4 or zstd")
	flags.BoolP("quiet", "q", false, "do not show progress")

	if err := fetchCmd.MarkFlagRequired("bbox"); err != nil {
		panic(err)
	}
}

var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download the tiles covering a bounding box into a new backup",
	Long:  "Download the tiles covering a bounding box into a new backup",
	Args:  cobra.NoArgs,
	Run: func(cmd *cobra.Command, _ []string) {
		cfg, err := cli.Config(cmd)
		if err != nil {
			log.Fatal(err)
		}

		quiet, err := cmd.Flags().GetBool("quiet")
		if err != nil {
			log.Fatal(err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		s := osm.New(cfg, osm.WithLogger(slog.Default()))

		h, err := runFetch(ctx, s, extent, quiet)
		if err != nil {
			log.Fatal(err)
		}

		f, err := os.Create(output)
		if err != nil {
			log.Fatal(err)
		}

		if err := write(f, h, compression); err != nil {
			_ = f.Close()
			log.Fatal(err)
		}

		if err := f.Close(); err != nil {
			log.Fatal(err)
		}
	},
}

// Loader is the part of the remote service a fetch needs.
type Loader interface {
	TileZoom() int
	LoadTiles(ctx context.Context, extent model.Extent, callback func(osm.TileResult)) (int, error)
}

func runFetch(ctx context.Context, s Loader, extent model.Extent, quiet bool) (*history.History, error) {
	tiles := osm.TilesFor(extent, s.TileZoom())
	if len(tiles) == 0 {
		return nil, ErrNoTiles
	}

	// Buffered for every tile so late completions never block the service.
	results := make(chan osm.TileResult, len(tiles))

	started, err := s.LoadTiles(ctx, extent, func(r osm.TileResult) { results <- r })
	if err != nil {
		return nil, err
	}

	var counter *cli.Counter
	if !quiet {
		counter = cli.NewCounter(started, "tiles ")
		defer counter.Finish()
	}

	var (
		entities []model.Entity
		errs     []error
	)

	for range started {
		select {
		case r := <-results:
			if r.Err != nil {
				errs = append(errs, fmt.Errorf("tile %s: %w", r.Tile, r.Err))
			} else {
				entities = append(entities, r.Entities...)
			}
		case <-ctx.Done():
			return nil, ctx.Err()
		}

		if counter != nil {
			counter.Increment()
		}
	}

	if err := errors.Join(errs...); err != nil {
		return nil, err
	}

	slog.Debug("fetched tiles", "tiles", started, "entities", len(entities))

	return history.New(graph.New(entities...), history.WithSequence(model.NewSequence())), nil
}

func write(w io.Writer, h *history.History, c blob.Compression) error {
	return history.WriteArchive(w, h.Archive(), history.WithCompression(c))
}
