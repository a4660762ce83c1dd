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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/WorldBank-Transport/iD/model"
	"github.com/WorldBank-Transport/iD/osm"
)

func TestTilesFor(t *testing.T) {
	london := model.Loc{Lon: -0.1278, Lat: 51.5074}

	tiles := osm.TilesFor(model.NewExtent(london, london), 16)
	require.Equal(t, []osm.Tile{{X: 32744, Y: 21792, Z: 16}}, tiles)
	assert.Equal(t, "32744,21792,16", tiles[0].String())
	assert.True(t, tiles[0].Extent().Contains(london))

	world := model.NewExtent(model.Loc{Lon: -180, Lat: -90}, model.Loc{Lon: 180, Lat: 90})
	assert.Equal(t, []osm.Tile{
		{X: 0, Y: 0, Z: 1}, {X: 1, Y: 0, Z: 1},
		{X: 0, Y: 1, Z: 1}, {X: 1, Y: 1, Z: 1},
	}, osm.TilesFor(world, 1))

	assert.Empty(t, osm.TilesFor(model.InitialExtent(), 16))
}

func TestTileExtent(t *testing.T) {
	e := osm.Tile{X: 0, Y: 0, Z: 0}.Extent()

	assert.Equal(t, model.Degrees(-180), e.Min.Lon)
	assert.Equal(t, model.Degrees(180), e.Max.Lon)
	assert.True(t, e.Max.Lat.EqualWithin(85.0511287798, model.E9))
	assert.True(t, e.Min.Lat.EqualWithin(-85.0511287798, model.E9))

	tile := osm.Tile{X: 5, Y: 9, Z: 4}
	c := tile.Extent().Center()
	assert.Equal(t, []osm.Tile{tile}, osm.TilesFor(model.NewExtent(c, c), 4))
}
