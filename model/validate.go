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
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

// ErrInvalidEntity is matched by every error returned by the constructors.
var ErrInvalidEntity = errors.New("invalid entity")

// NodeAttrs are the attributes accepted by NewNode.
type NodeAttrs struct {
	ID   ID                `validate:"omitempty,osmid=node"`
	Tags map[string]string `validate:"dive,keys,required,max=255,endkeys,max=255"`
	Info Info
	Loc  Loc
}

// WayAttrs are the attributes accepted by NewWay.
type WayAttrs struct {
	ID    ID                `validate:"omitempty,osmid=way"`
	Tags  map[string]string `validate:"dive,keys,required,max=255,endkeys,max=255"`
	Info  Info
	Nodes []ID `validate:"dive,osmid=node"`
}

// RelationAttrs are the attributes accepted by NewRelation.
type RelationAttrs struct {
	ID      ID                `validate:"omitempty,osmid=relation"`
	Tags    map[string]string `validate:"dive,keys,required,max=255,endkeys,max=255"`
	Info    Info
	Members []Member `validate:"dive"`
}

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()

	if err := v.RegisterValidation("osmid", validateID); err != nil {
		panic(err)
	}

	v.RegisterStructValidation(validateMember, Member{})
	v.RegisterStructValidation(validateLoc, Loc{})

	return v
}

// validateID checks an ID field, optionally restricted to a type name.
func validateID(fl validator.FieldLevel) bool {
	id := ID(fl.Field().String())
	if !id.Valid() {
		return false
	}

	if p := fl.Param(); p != "" {
		return id.Type().String() == p
	}

	return true
}

func validateMember(sl validator.StructLevel) {
	m := sl.Current().Interface().(Member)
	if m.ID.Valid() && m.ID.Type() != m.Type {
		sl.ReportError(m.Type, "Type", "Type", "membertype", m.ID.Type().String())
	}
}

func validateLoc(sl validator.StructLevel) {
	l := sl.Current().Interface().(Loc)
	if l.Lon < MinLon || l.Lon > MaxLon {
		sl.ReportError(l.Lon, "Lon", "Lon", "longitude", "")
	}

	if l.Lat < MinLat || l.Lat > MaxLat {
		sl.ReportError(l.Lat, "Lat", "Lat", "latitude", "")
	}
}

func check(attrs any) error {
	if err := validate.Struct(attrs); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidEntity, err)
	}

	return nil
}

// NewNode validates attrs and creates a visible node.  A fresh local id is
// allocated from DefaultSequence when attrs.ID is empty.
func NewNode(attrs NodeAttrs) (*Node, error) {
	if err := check(attrs); err != nil {
		return nil, err
	}

	if attrs.ID == "" {
		attrs.ID = DefaultSequence.Next(NODE)
	}

	attrs.Info.Visible = true

	return &Node{ID: attrs.ID, Tags: cloneTags(attrs.Tags), Info: attrs.Info, Loc: attrs.Loc}, nil
}

// NewWay validates attrs and creates a visible way.
func NewWay(attrs WayAttrs) (*Way, error) {
	if err := check(attrs); err != nil {
		return nil, err
	}

	if attrs.ID == "" {
		attrs.ID = DefaultSequence.Next(WAY)
	}

	attrs.Info.Visible = true

	return &Way{ID: attrs.ID, Tags: cloneTags(attrs.Tags), Info: attrs.Info, Nodes: append([]ID(nil), attrs.Nodes...)}, nil
}

// NewRelation validates attrs and creates a visible relation.
func NewRelation(attrs RelationAttrs) (*Relation, error) {
	if err := check(attrs); err != nil {
		return nil, err
	}

	if attrs.ID == "" {
		attrs.ID = DefaultSequence.Next(RELATION)
	}

	attrs.Info.Visible = true

	return &Relation{ID: attrs.ID, Tags: cloneTags(attrs.Tags), Info: attrs.Info, Members: append([]Member(nil), attrs.Members...)}, nil
}

func cloneTags(tags map[string]string) map[string]string {
	c := make(map[string]string, len(tags))
	for k, v := range tags {
		c[k] = v
	}

	return c
}
