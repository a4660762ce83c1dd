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
	"encoding/xml"
	"fmt"
	"io"
	"maps"
	"slices"
	"strconv"
	"time"

	"github.com/WorldBank-Transport/iD/model"
)

const (
	apiVersion = "0.6"
	generator  = "iD"
)

type xmlTag struct {
	K string `xml:"k,attr"`
	V string `xml:"v,attr"`
}

type xmlNd struct {
	Ref int64 `xml:"ref,attr"`
}

type xmlMember struct {
	Type string `xml:"type,attr"`
	Ref  int64  `xml:"ref,attr"`
	Role string `xml:"role,attr"`
}

// xmlElement is the exchange form of a node, way or relation.  The element
// name carries the type.
type xmlElement struct {
	XMLName   xml.Name
	ID        int64       `xml:"id,attr"`
	Lat       string      `xml:"lat,attr,omitempty"`
	Lon       string      `xml:"lon,attr,omitempty"`
	Version   int32       `xml:"version,attr,omitempty"`
	Changeset int64       `xml:"changeset,attr,omitempty"`
	Visible   string      `xml:"visible,attr,omitempty"`
	User      string      `xml:"user,attr,omitempty"`
	UID       model.UID   `xml:"uid,attr,omitempty"`
	Timestamp string      `xml:"timestamp,attr,omitempty"`
	Nds       []xmlNd     `xml:"nd"`
	Members   []xmlMember `xml:"member"`
	Tags      []xmlTag    `xml:"tag"`
}

func formatDegrees(d model.Degrees) string {
	return strconv.FormatFloat(float64(d), 'f', -1, 64)
}

func tags(m map[string]string) []xmlTag {
	out := make([]xmlTag, 0, len(m))
	for _, k := range slices.Sorted(maps.Keys(m)) {
		out = append(out, xmlTag{K: k, V: m[k]})
	}

	return out
}

// element converts an entity.  A changeset id other than zero replaces the
// one the entity was last uploaded with.
func element(e model.Entity, changeset int64) xmlElement {
	info := e.GetInfo()

	x := xmlElement{
		XMLName:   xml.Name{Local: e.GetType().String()},
		ID:        e.GetID().Remote(),
		Version:   info.Version,
		Changeset: info.Changeset,
		User:      info.User,
		UID:       info.UID,
		Tags:      tags(e.GetTags()),
	}

	if changeset != 0 {
		x.Changeset = changeset
	}

	if !info.Timestamp.IsZero() {
		x.Timestamp = info.Timestamp.UTC().Format(time.RFC3339)
	}

	switch e := e.(type) {
	case *model.Node:
		x.Lat = formatDegrees(e.Loc.Lat)
		x.Lon = formatDegrees(e.Loc.Lon)
	case *model.Way:
		x.Nds = make([]xmlNd, len(e.Nodes))
		for i, id := range e.Nodes {
			x.Nds[i] = xmlNd{Ref: id.Remote()}
		}
	case *model.Relation:
		x.Members = make([]xmlMember, len(e.Members))
		for i, m := range e.Members {
			x.Members[i] = xmlMember{Type: m.Type.String(), Ref: m.ID.Remote(), Role: m.Role}
		}
	}

	return x
}

func (x *xmlElement) entity() (model.Entity, error) {
	t, err := model.ParseEntityType(x.XMLName.Local)
	if err != nil {
		return nil, err
	}

	info := model.Info{
		Version:   x.Version,
		UID:       x.UID,
		Changeset: x.Changeset,
		User:      x.User,
		Visible:   x.Visible != "false",
	}

	if x.Timestamp != "" {
		if info.Timestamp, err = time.Parse(time.RFC3339, x.Timestamp); err != nil {
			return nil, fmt.Errorf("%s %d: %w", t, x.ID, err)
		}
	}

	var tm map[string]string
	if len(x.Tags) > 0 {
		tm = make(map[string]string, len(x.Tags))
		for _, tag := range x.Tags {
			tm[tag.K] = tag.V
		}
	}

	id := model.FromRemote(t, x.ID)

	switch t {
	case model.NODE:
		n := &model.Node{ID: id, Tags: tm, Info: info}

		if n.Loc.Lat, err = model.ParseDegrees(x.Lat); err != nil {
			return nil, fmt.Errorf("node %d: lat: %w", x.ID, err)
		}

		if n.Loc.Lon, err = model.ParseDegrees(x.Lon); err != nil {
			return nil, fmt.Errorf("node %d: lon: %w", x.ID, err)
		}

		return n, nil
	case model.WAY:
		w := &model.Way{ID: id, Tags: tm, Info: info, Nodes: make([]model.ID, len(x.Nds))}
		for i, nd := range x.Nds {
			w.Nodes[i] = model.FromRemote(model.NODE, nd.Ref)
		}

		return w, nil
	default:
		r := &model.Relation{ID: id, Tags: tm, Info: info, Members: make([]model.Member, len(x.Members))}

		for i, m := range x.Members {
			mt, err := model.ParseEntityType(m.Type)
			if err != nil {
				return nil, fmt.Errorf("relation %d: member %d: %w", x.ID, i, err)
			}

			r.Members[i] = model.Member{ID: model.FromRemote(mt, m.Ref), Type: mt, Role: m.Role}
		}

		return r, nil
	}
}

// Decode reads the nodes, ways and relations directly under the root
// element of an OSM document.  Anything else is skipped.
func Decode(r io.Reader) ([]model.Entity, error) {
	var (
		entities []model.Entity
		depth    int
	)

	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			return entities, nil
		}

		if err != nil {
			return nil, fmt.Errorf("could not decode osm xml: %w", err)
		}

		switch t := tok.(type) {
		case xml.StartElement:
			if depth != 1 {
				depth++
				continue
			}

			switch t.Name.Local {
			case "node", "way", "relation":
				var x xmlElement
				if err := dec.DecodeElement(&x, &t); err != nil {
					return nil, fmt.Errorf("could not decode %s: %w", t.Name.Local, err)
				}

				e, err := x.entity()
				if err != nil {
					return nil, err
				}

				entities = append(entities, e)
			default:
				if err := dec.Skip(); err != nil {
					return nil, err
				}
			}
		case xml.EndElement:
			depth--
		}
	}
}

type xmlOSM struct {
	XMLName   xml.Name     `xml:"osm"`
	Version   string       `xml:"version,attr"`
	Generator string       `xml:"generator,attr"`
	Elements  []xmlElement `xml:",any"`
}

// Encode writes entities as an OSM document, in the order given.
func Encode(w io.Writer, entities []model.Entity) error {
	doc := xmlOSM{Version: apiVersion, Generator: generator, Elements: make([]xmlElement, len(entities))}

	for i, e := range entities {
		doc.Elements[i] = element(e, 0)
		if doc.Elements[i].Visible = "true"; !e.GetInfo().Visible {
			doc.Elements[i].Visible = "false"
		}
	}

	return encode(w, doc)
}

func encode(w io.Writer, v any) error {
	if _, err := io.WriteString(w, xml.Header); err != nil {
		return err
	}

	enc := xml.NewEncoder(w)
	enc.Indent("", "  ")

	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("could not encode osm xml: %w", err)
	}

	return enc.Close()
}
