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

// Package info prints a summary of an edit session backup.
package info

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"time"

	humanize "github.com/dustin/go-humanize"
	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/iD/cmd/osmedit/cli"
	"github.com/WorldBank-Transport/iD/history"
	"github.com/WorldBank-Transport/iD/model"
)

var out io.Writer = os.Stdout

type summary struct {
	Session     string    `json:"session"`
	Saved       time.Time `json:"saved"`
	Size        uint64    `json:"size"`
	Entities    int64     `json:"entities"`
	Checkpoints int       `json:"checkpoints"`
	Index       int       `json:"index"`
	Created     int64     `json:"created"`
	Modified    int64     `json:"modified"`
	Deleted     int64     `json:"deleted"`
	Changes     int       `json:"changes"`
	Undo        string    `json:"undo,omitempty"`
	Edits       []string  `json:"edits,omitempty"`
}

func init() {
	cli.RootCmd.AddCommand(infoCmd)

	flags := infoCmd.Flags()
	flags.BoolP("json", "j", false, "format information in JSON")
	flags.BoolP("edits", "e", false, "list the annotation of every edit")
}

var infoCmd = &cobra.Command{
	Use:   "info [<backup file>]",
	Short: "Print information about an edit session backup",
	Long:  "Print information about an edit session backup",
	Args:  cobra.MaximumNArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		flags := cmd.Flags()

		jsonfmt, err := flags.GetBool("json")
		if err != nil {
			log.Fatal(err)
		}

		edits, err := flags.GetBool("edits")
		if err != nil {
			log.Fatal(err)
		}

		var path string
		if len(args) == 1 {
			path = args[0]
		}

		in, err := cli.OpenInput(path, jsonfmt)
		if err != nil {
			log.Fatal(err)
		}

		info, err := runInfo(cmd.Context(), in, edits)
		if err != nil {
			log.Fatal(err)
		}

		if err := in.Close(); err != nil {
			log.Fatal(err)
		}

		if jsonfmt {
			renderJSON(info)
		} else {
			renderTxt(info)
		}
	},
}

type countingReader struct {
	r io.Reader
	n uint64
}

func (c *countingReader) Read(p []byte) (int, error) {
	n, err := c.r.Read(p)
	c.n += uint64(n)

	return n, err
}

func runInfo(ctx context.Context, in io.Reader, edits bool) (*summary, error) {
	if ctx == nil {
		ctx = context.Background()
	}

	cr := &countingReader{r: in}

	a, err := history.ReadArchive(ctx, cr)
	if err != nil {
		return nil, err
	}

	h, err := history.Open(a, history.WithSequence(model.NewSequence()))
	if err != nil {
		return nil, err
	}

	d := h.Difference()

	info := &summary{
		Session:     h.Session().String(),
		Saved:       a.Snapshot.Saved,
		Size:        cr.n,
		Entities:    int64(len(a.Entities)),
		Checkpoints: h.Len() - 1,
		Index:       h.Index(),
		Created:     int64(len(d.Created())),
		Modified:    int64(len(d.Modified())),
		Deleted:     int64(len(d.Deleted())),
		Changes:     len(d.Summary()),
		Undo:        h.UndoAnnotation(),
	}

	if edits {
		info.Edits = h.Annotations()
	}

	return info, nil
}

func renderJSON(info *summary) {
	b, err := json.Marshal(info)
	if err != nil {
		log.Fatal(err)
	}

	fmt.Fprint(out, string(b))
}

func renderTxt(info *summary) {
	fmt.Fprintf(out, "Session: %s\n", info.Session)
	fmt.Fprintf(out, "Saved: %s\n", info.Saved.UTC().Format(time.RFC3339))
	fmt.Fprintf(out, "Size: %s\n", humanize.Bytes(info.Size))
	fmt.Fprintf(out, "Entities: %s\n", humanize.Comma(info.Entities))
	fmt.Fprintf(out, "Checkpoints: %d (at %d)\n", info.Checkpoints, info.Index)
	fmt.Fprintf(out, "Created: %s\n", humanize.Comma(info.Created))
	fmt.Fprintf(out, "Modified: %s\n", humanize.Comma(info.Modified))
	fmt.Fprintf(out, "Deleted: %s\n", humanize.Comma(info.Deleted))
	fmt.Fprintf(out, "Changes: %d\n", info.Changes)
	fmt.Fprintf(out, "Undo: %s\n", info.Undo)

	if len(info.Edits) > 0 {
		fmt.Fprintf(out, "Edits:\n  %s\n", strings.Join(info.Edits, "\n  "))
	}
}
