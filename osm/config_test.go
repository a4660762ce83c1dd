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

package osm_test

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/osm"
)

func TestLoadConfig(t *testing.T) {
	cfg, err := osm.LoadConfig(strings.NewReader(`
url: https://rra.example.org/
project: "12"
scenario: "3"
settle_delay: 1s
batch_size: 50
`))
	require.NoError(t, err)

	assert.Equal(t, "https://rra.example.org/projects/12/scenarios/3/osm", cfg.BaseURL())
	assert.Equal(t, time.Second, cfg.SettleDelay)
	assert.Equal(t, 50, cfg.BatchSize)
	assert.Equal(t, 16, cfg.TileZoom, "defaults fill what the file leaves out")
}

func TestLoadConfigErrors(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"missing project", "url: http://localhost\nscenario: s\n"},
		{"bad url", "url: not a url\nproject: p\nscenario: s\n"},
		{"unknown field", "url: http://localhost\nproject: p\nscenario: s\ntile: 3\n"},
		{"bad batch size", "url: http://localhost\nproject: p\nscenario: s\nbatch_size: 0\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := osm.LoadConfig(strings.NewReader(tt.yaml))
			assert.Error(t, err)
		})
	}
}
