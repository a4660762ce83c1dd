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

package osm

import (
	"fmt"
	"math"

	"github.com/golang/geo/s1"
	"golang.org/x/exp/constraints"

	"github.com/WorldBank-Transport/iD/model"
)

// maxMercatorLat is the latitude at which web mercator tiles end.
const maxMercatorLat model.Degrees = 85.0511287798066

// Tile is a web mercator tile.
type Tile struct {
	X, Y, Z int
}

func clamp[T constraints.Integer | constraints.Float](v, lo, hi T) T {
	return min(max(v, lo), hi)
}

func tileX(lon model.Degrees, n float64) int {
	return int(math.Floor((float64(lon) + 180) / 360 * n))
}

func tileY(lat model.Degrees, n float64) int {
	r := clamp(lat, -maxMercatorLat, maxMercatorLat).Radians()
	return int(math.Floor((1 - math.Log(math.Tan(r)+1/math.Cos(r))/math.Pi) / 2 * n))
}

// TilesFor returns the tiles at zoom z covering extent, row by row from the
// north-west corner.
func TilesFor(extent model.Extent, z int) []Tile {
	if extent.IsEmpty() {
		return nil
	}

	n := math.Exp2(float64(z))
	last := int(n) - 1

	x0 := clamp(tileX(extent.Min.Lon, n), 0, last)
	x1 := clamp(tileX(extent.Max.Lon, n), 0, last)
	y0 := clamp(tileY(extent.Max.Lat, n), 0, last)
	y1 := clamp(tileY(extent.Min.Lat, n), 0, last)

	tiles := make([]Tile, 0, (x1-x0+1)*(y1-y0+1))
	for y := y0; y <= y1; y++ {
		for x := x0; x <= x1; x++ {
			tiles = append(tiles, Tile{X: x, Y: y, Z: z})
		}
	}

	return tiles
}

func tileLat(y int, n float64) model.Degrees {
	return model.Degrees(s1.Angle(math.Atan(math.Sinh(math.Pi * (1 - 2*float64(y)/n)))).Degrees())
}

// Extent returns the area the tile covers.
func (t Tile) Extent() model.Extent {
	n := math.Exp2(float64(t.Z))

	return model.NewExtent(
		model.Loc{Lon: model.Degrees(float64(t.X)/n*360 - 180), Lat: tileLat(t.Y+1, n)},
		model.Loc{Lon: model.Degrees(float64(t.X+1)/n*360 - 180), Lat: tileLat(t.Y, n)},
	)
}

// String returns the tile id, "x,y,z".
func (t Tile) String() string {
	return fmt.Sprintf("%d,%d,%d", t.X, t.Y, t.Z)
}
