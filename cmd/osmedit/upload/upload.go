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

// Package upload sends the changes recorded in an edit session backup to
// the remote service as one changeset.
package upload

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
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/model"
	"github.com/WorldBank-Transport/iD/osm"
)

// ErrNoChanges is returned for a backup without edits.
var ErrNoChanges = errors.New("backup has no changes")

var out io.Writer = os.Stdout

func init() {
	cli.RootCmd.AddCommand(uploadCmd)

	flags := uploadCmd.Flags()
	flags.StringP("comment", "m", "", "changeset comment")
	flags.String("token", "", "bearer token for the service")
	flags.Bool("dry-run", false, "print the osmChange document instead of uploading it")
}

var uploadCmd = &cobra.Command{
	Use:   "upload <backup file>",
	Short: "Upload the changes of an edit session backup",
	Long:  "Upload the changes of an edit session backup",
	Args:  cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()

		comment, err := flags.GetString("comment")
		if err != nil {
			log.Fatal(err)
		}

		token, err := flags.GetString("token")
		if err != nil {
			log.Fatal(err)
		}

		dryRun, err := flags.GetBool("dry-run")
		if err != nil {
			log.Fatal(err)
		}

		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}

		in, err := cli.OpenInput(args[0], true)
		if err != nil {
			log.Fatal(err)
		}

		h, err := open(ctx, in)
		_ = in.Close()
		if err != nil {
			log.Fatal(err)
		}

		if dryRun {
			if err := printChange(h); err != nil {
				log.Fatal(err)
			}

			return
		}

		cfg, err := cli.Config(cmd)
		if err != nil {
			log.Fatal(err)
		}

		opts := []osm.Option{osm.WithLogger(slog.Default())}
		if token != "" {
			opts = append(opts, osm.WithCredentials(osm.NewToken(token)))
		}

		if err := runUpload(ctx, osm.New(cfg, opts...), h, comment); err != nil {
			log.Fatal(err)
		}
	},
}

// Uploader is the part of the remote service an upload needs.
type Uploader interface {
	PutChangeset(ctx context.Context, cs *model.Changeset, d osm.Changes) (*model.Changeset, error)
	ChangesetURL(id int64) string
}

func open(ctx context.Context, in io.Reader) (*history.History, error) {
	a, err := history.ReadArchive(ctx, in)
	if err != nil {
		return nil, err
	}

	h, err := history.Open(a, history.WithSequence(model.NewSequence()))
	if err != nil {
		return nil, err
	}

	if !h.HasChanges() {
		return nil, ErrNoChanges
	}

	return h, nil
}

func printChange(h *history.History) error {
	b, err := osm.ChangeXML(0, h.Difference())
	if err != nil {
		return err
	}

	_, err = out.Write(b)

	return err
}

func runUpload(ctx context.Context, s Uploader, h *history.History, comment string) error {
	tags := map[string]string{"created_by": "osmedit"}
	if comment != "" {
		tags["comment"] = comment
	}

	cs, err := s.PutChangeset(ctx, model.NewChangeset(tags), h.Difference())
	if err != nil {
		return err
	}

	slog.Info("changeset uploaded", "changeset", cs.ID, "changes", len(h.Difference().Summary()))
	fmt.Fprintln(out, s.ChangesetURL(cs.ID))

	return nil
}
