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
	"math"
	"strconv"

	"github.com/golang/geo/s1"
)

// Degrees is the decimal degree representation of a longitude or latitude.
type Degrees float64

// Epsilon is an enumeration of precisions that can be used when comparing Degrees.
type Epsilon float64

// Comparison precisions.
const (
	E5 Epsilon = 1e-5
	E6 Epsilon = 1e-6
	E7 Epsilon = 1e-7
	E8 Epsilon = 1e-8
	E9 Epsilon = 1e-9
)

// Radians returns the angle in radians.
func (d Degrees) Radians() float64 { return (s1.Angle(d) * s1.Degree).Radians() }

func (d Degrees) MarshalJSON() ([]byte, error) {
	return []byte(ftoa(float64(d))), nil
}

// EqualWithin checks if two degrees are within a specific epsilon.
func (d Degrees) EqualWithin(o Degrees, eps Epsilon) bool {
	return round(float64(d)/float64(eps)) == round(float64(o)/float64(eps))
}

// round returns the value rounded half away from zero.  Any longitude or
// latitude over E9 fits in an int64.
func round(val float64) int64 {
	return int64(math.Round(val))
}

// ParseDegrees converts a string to a Degrees instance.
func ParseDegrees(s string) (Degrees, error) {
	u, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, err
	}

	return Degrees(u), nil
}

// Loc is a coordinate in longitude, latitude order.
type Loc struct {
	Lon Degrees `json:"lon"`
	Lat Degrees `json:"lat"`
}

// Equal reports whether both coordinates are identical.
func (l Loc) Equal(o Loc) bool {
	return l.Lon == o.Lon && l.Lat == o.Lat
}

// Add translates the coordinate by a delta.
func (l Loc) Add(dlon, dlat Degrees) Loc {
	return Loc{Lon: l.Lon + dlon, Lat: l.Lat + dlat}
}

func (l Loc) String() string {
	return fmt.Sprintf("(%s, %s)", ftoa(float64(l.Lon)), ftoa(float64(l.Lat)))
}

func ftoa(f float64) string {
	return strconv.FormatFloat(f, 'f', -1, 64)
}
