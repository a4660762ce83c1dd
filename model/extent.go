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

package model

import (
	"fmt"
	"strings"
)

const (
	MaxLat Degrees = 90.0
	MaxLon Degrees = 180.0
	MinLat Degrees = -90.0
	MinLon Degrees = -180.0
)

// Extent is a bounding box given by its south-west and north-east corners.
type Extent struct {
	Min Loc
	Max Loc
}

// InitialExtent creates an Extent that is meant to be expanded.
func InitialExtent() Extent {
	return Extent{
		Min: Loc{Lon: MaxLon, Lat: MaxLat},
		Max: Loc{Lon: MinLon, Lat: MinLat},
	}
}

// NewExtent creates the smallest extent containing both corners.
func NewExtent(a, b Loc) Extent {
	e := InitialExtent()
	e = e.Extend(a)

	return e.Extend(b)
}

// IsEmpty reports whether the extent has never been expanded.
func (e Extent) IsEmpty() bool {
	return e.Min.Lon > e.Max.Lon || e.Min.Lat > e.Max.Lat
}

// EqualWithin checks if two extents are within a specific epsilon.
func (e Extent) EqualWithin(o Extent, eps Epsilon) bool {
	return e.Min.Lon.EqualWithin(o.Min.Lon, eps) &&
		e.Min.Lat.EqualWithin(o.Min.Lat, eps) &&
		e.Max.Lon.EqualWithin(o.Max.Lon, eps) &&
		e.Max.Lat.EqualWithin(o.Max.Lat, eps)
}

// Contains checks if the extent contains the coordinate.
func (e Extent) Contains(l Loc) bool {
	return e.Min.Lon <= l.Lon && l.Lon <= e.Max.Lon && e.Min.Lat <= l.Lat && l.Lat <= e.Max.Lat
}

// Intersects checks if two extents overlap.
func (e Extent) Intersects(o Extent) bool {
	return o.Max.Lon >= e.Min.Lon && o.Min.Lon <= e.Max.Lon &&
		o.Max.Lat >= e.Min.Lat && o.Min.Lat <= e.Max.Lat
}

// Extend returns the extent grown to contain l.
func (e Extent) Extend(l Loc) Extent {
	if l.Lon < e.Min.Lon {
		e.Min.Lon = l.Lon
	}

	if l.Lat < e.Min.Lat {
		e.Min.Lat = l.Lat
	}

	if l.Lon > e.Max.Lon {
		e.Max.Lon = l.Lon
	}

	if l.Lat > e.Max.Lat {
		e.Max.Lat = l.Lat
	}

	return e
}

// Union returns the extent containing both e and o.
func (e Extent) Union(o Extent) Extent {
	if o.IsEmpty() {
		return e
	}

	return e.Extend(o.Min).Extend(o.Max)
}

// Center returns the midpoint of the extent.
func (e Extent) Center() Loc {
	return Loc{
		Lon: (e.Min.Lon + e.Max.Lon) / 2,
		Lat: (e.Min.Lat + e.Max.Lat) / 2,
	}
}

// Param renders the extent as the bbox query parameter
// "minLon,minLat,maxLon,maxLat".
func (e Extent) Param() string {
	return strings.Join([]string{
		ftoa(float64(e.Min.Lon)), ftoa(float64(e.Min.Lat)),
		ftoa(float64(e.Max.Lon)), ftoa(float64(e.Max.Lat)),
	}, ",")
}

// ParseExtent parses the form produced by Param.
func ParseExtent(s string) (Extent, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Extent{}, fmt.Errorf("extent %q: expected 4 comma separated values", s)
	}

	var vals [4]Degrees

	for i, p := range parts {
		d, err := ParseDegrees(strings.TrimSpace(p))
		if err != nil {
			return Extent{}, fmt.Errorf("extent %q: %w", s, err)
		}

		vals[i] = d
	}

	return NewExtent(Loc{Lon: vals[0], Lat: vals[1]}, Loc{Lon: vals[2], Lat: vals[3]}), nil
}

func (e Extent) String() string {
	return fmt.Sprintf("[%s %s]", e.Min, e.Max)
}
