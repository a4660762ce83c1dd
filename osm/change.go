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
	"bytes"
	"encoding/xml"
	"slices"

	"github.com/WorldBank-Transport/iD/model"
)

// Changes are the entities an upload carries; *graph.Difference provides
// them.
type Changes interface {
	Created() []model.Entity
	Modified() []model.Entity
	Deleted() []model.Entity
}

type xmlChangeBlock struct {
	IfUnused string       `xml:"if-unused,attr,omitempty"`
	Elements []xmlElement `xml:",any"`
}

type xmlOSMChange struct {
	XMLName   xml.Name       `xml:"osmChange"`
	Version   string         `xml:"version,attr"`
	Generator string         `xml:"generator,attr"`
	Create    xmlChangeBlock `xml:"create"`
	Modify    xmlChangeBlock `xml:"modify"`
	Delete    xmlChangeBlock `xml:"delete"`
}

type xmlChangeset struct {
	Version   string   `xml:"version,attr"`
	Generator string   `xml:"generator,attr"`
	Tags      []xmlTag `xml:"tag"`
}

type xmlChangesetDoc struct {
	XMLName   xml.Name     `xml:"osm"`
	Changeset xmlChangeset `xml:"changeset"`
}

// ChangesetXML renders the envelope sent to open a changeset.
func ChangesetXML(cs *model.Changeset) ([]byte, error) {
	var buf bytes.Buffer

	doc := xmlChangesetDoc{Changeset: xmlChangeset{Version: apiVersion, Generator: generator, Tags: tags(cs.Tags)}}
	if err := encode(&buf, doc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// byType splits entities by type, keeping their order.
func byType(es []model.Entity) (nodes, ways []model.Entity, rels []*model.Relation) {
	for _, e := range es {
		switch e := e.(type) {
		case *model.Node:
			nodes = append(nodes, e)
		case *model.Way:
			ways = append(ways, e)
		case *model.Relation:
			rels = append(rels, e)
		}
	}

	return nodes, ways, rels
}

// dependencyOrder orders relations so that a relation comes after every
// relation of the set it has as a member.  Members outside the set and
// cycles are ignored.
func dependencyOrder(rels []*model.Relation) []model.Entity {
	byID := make(map[model.ID]*model.Relation, len(rels))
	for _, r := range rels {
		byID[r.ID] = r
	}

	out := make([]model.Entity, 0, len(rels))
	visited := make(map[model.ID]bool, len(rels))

	var visit func(r *model.Relation)
	visit = func(r *model.Relation) {
		if visited[r.ID] {
			return
		}

		visited[r.ID] = true

		for _, m := range r.Members {
			if c, ok := byID[m.ID]; ok {
				visit(c)
			}
		}

		out = append(out, r)
	}

	for _, r := range rels {
		visit(r)
	}

	return out
}

func elements(changeset int64, groups ...[]model.Entity) []xmlElement {
	var out []xmlElement

	for _, g := range groups {
		for _, e := range g {
			out = append(out, element(e, changeset))
		}
	}

	return out
}

// ChangeXML renders d as an osmChange document for changeset.  Creations
// are ordered nodes, ways, relations with member relations first so every
// reference resolves; deletions run the other way round and are
// conditional on the entity being unused.
func ChangeXML(changeset int64, d Changes) ([]byte, error) {
	doc := xmlOSMChange{Version: apiVersion, Generator: generator}

	nodes, ways, rels := byType(d.Created())
	doc.Create.Elements = elements(changeset, nodes, ways, dependencyOrder(rels))

	doc.Modify.Elements = elements(changeset, d.Modified())

	nodes, ways, rels = byType(d.Deleted())
	deleted := dependencyOrder(rels)
	slices.Reverse(deleted)
	doc.Delete.IfUnused = "true"
	doc.Delete.Elements = elements(changeset, deleted, ways, nodes)

	var buf bytes.Buffer
	if err := encode(&buf, doc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}
