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

package action

import (
	"slices"
	"strings"

	"github.com/WorldBank-Transport/iD/graph"
	"github.com/WorldBank-Transport/iD/model"
)

// Reverse flips the node order of a way along with the tags and relation
// roles that depend on its direction.
type Reverse struct {
	ID model.ID
}

func (a Reverse) Apply(g *graph.Graph) (*graph.Graph, error) {
	w, err := g.Way(a.ID)
	if err != nil {
		return nil, err
	}

	return g.Batch(func(tx *graph.Tx) error {
		tx.Replace(w.Update(func(c *model.Way) {
			slices.Reverse(c.Nodes)
			c.Tags = reverseTags(c.Tags)
		}))

		for _, r := range tx.ParentRelations(a.ID) {
			tx.Replace(r.Update(func(c *model.Relation) {
				for i, m := range c.Members {
					if m.ID == a.ID {
						c.Members[i].Role = swap(valueWords, m.Role)
					}
				}
			}))
		}

		return nil
	})
}

func (Reverse) Annotation() string {
	return "Reversed a line."
}

// Disabled refuses anything but a bound way.
func (a Reverse) Disabled(g *graph.Graph) string {
	if _, err := g.Way(a.ID); err != nil {
		return ReasonNotEligible
	}

	return ""
}

var keyWords = map[string]string{
	"left":     "right",
	"right":    "left",
	"forward":  "backward",
	"backward": "forward",
}

var valueWords = map[string]string{
	"left":      "right",
	"right":     "left",
	"forward":   "backward",
	"backward":  "forward",
	"forwards":  "backwards",
	"backwards": "forwards",
	"up":        "down",
	"down":      "up",
}

func swap(words map[string]string, s string) string {
	if r, ok := words[s]; ok {
		return r
	}

	return s
}

// reverseKey swaps direction words between ':' separators, so that
// "sidewalk:left" becomes "sidewalk:right".
func reverseKey(k string) string {
	parts := strings.Split(k, ":")
	for i, p := range parts {
		parts[i] = swap(keyWords, p)
	}

	return strings.Join(parts, ":")
}

func reverseValue(key, v string) string {
	switch key {
	case "oneway":
		switch v {
		case "yes", "true", "1":
			return "-1"
		case "-1":
			return "yes"
		}

		return v
	case "incline":
		if strings.HasPrefix(v, "-") {
			return v[1:]
		}

		if v != "" && v[0] >= '0' && v[0] <= '9' {
			return "-" + v
		}
	}

	return swap(valueWords, v)
}

func reverseTags(tags map[string]string) map[string]string {
	if tags == nil {
		return nil
	}

	out := make(map[string]string, len(tags))
	for k, v := range tags {
		out[reverseKey(k)] = reverseValue(k, v)
	}

	return out
}
