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

package cli

import (
	"github.com/spf13/pflag"

	"github.com/WorldBank-Transport/iD/internal/blob"
	"github.com/WorldBank-Transport/iD/model"
)

// -- model.Extent Value
type extentValue struct {
	value *model.Extent
}

// NewExtentValue creates a pflag Value parsing "minLon,minLat,maxLon,maxLat".
func NewExtentValue(def model.Extent, p *model.Extent) pflag.Value {
	*p = def

	return &extentValue{value: p}
}

func (e *extentValue) Set(val string) error {
	ext, err := model.ParseExtent(val)
	if err != nil {
		return err
	}

	*e.value = ext

	return nil
}

func (e *extentValue) Type() string {
	return "bbox"
}

func (e *extentValue) String() string {
	if e.value.IsEmpty() {
		return ""
	}

	return e.value.Param()
}

// -- blob.Compression Value
type compressionValue struct {
	value *blob.Compression
}

// NewCompressionValue creates a pflag Value parsing a compression name.
func NewCompressionValue(def blob.Compression, p *blob.Compression) pflag.Value {
	*p = def

	return &compressionValue{value: p}
}

func (c *compressionValue) Set(val string) error {
	v, err := blob.ParseCompression(val)
	if err != nil {
		return err
	}

	*c.value = v

	return nil
}

func (c *compressionValue) Type() string {
	return "compression"
}

func (c *compressionValue) String() string {
	return c.value.String()
}
