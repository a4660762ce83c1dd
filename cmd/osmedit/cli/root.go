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

// Package cli holds the root command and the helpers its subcommands share.
package cli

import (
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/WorldBank-Transport/iD/osm"
)

// RootCmd is the osmedit command every subcommand registers with.
var RootCmd = &cobra.Command{
	Use:   "osmedit",
	Short: "Fetch, inspect and upload OSM edit sessions",
	Long:  "Fetch scenario data into edit session backups, inspect them and upload their changes",
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
			level = slog.LevelDebug
		}

		slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
	},
}

func init() {
	flags := RootCmd.PersistentFlags()
	flags.StringP("config", "c", "osmedit.yaml", "service config file")
	flags.BoolP("verbose", "v", false, "log debug output")
}

// Config loads the service config named by the --config flag.
func Config(cmd *cobra.Command) (osm.Config, error) {
	path, err := cmd.Flags().GetString("config")
	if err != nil {
		return osm.Config{}, err
	}

	return osm.LoadConfigFile(path)
}
