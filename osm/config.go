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
	"io"
	"net/url"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

// Config locates the data service of one scenario and tunes how it is
// queried.
type Config struct {
	URL         string        `yaml:"url" validate:"required,url"`
	ProjectID   string        `yaml:"project" validate:"required"`
	ScenarioID  string        `yaml:"scenario" validate:"required"`
	TileZoom    int           `yaml:"tile_zoom" validate:"gte=0,lte=22"`
	BatchSize   int           `yaml:"batch_size" validate:"gte=1"`
	Concurrency int           `yaml:"concurrency" validate:"gte=1"`
	SettleDelay time.Duration `yaml:"settle_delay" validate:"gte=0"`
	UserAgent   string        `yaml:"user_agent"`
}

// DefaultConfig returns the settings used for anything a config file leaves
// out.
func DefaultConfig() Config {
	return Config{
		URL:         "http://localhost:4000",
		TileZoom:    16,
		BatchSize:   150,
		Concurrency: 4,
		SettleDelay: 2500 * time.Millisecond,
		UserAgent:   "osmedit",
	}
}

var validate = validator.New()

// Validate checks the config for missing or out of range values.
func (c Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	return nil
}

// BaseURL is the root every request path is appended to.
func (c Config) BaseURL() string {
	return strings.TrimRight(c.URL, "/") +
		"/projects/" + url.PathEscape(c.ProjectID) +
		"/scenarios/" + url.PathEscape(c.ScenarioID) +
		"/osm"
}

// LoadConfig decodes a YAML config over the defaults and validates it.
func LoadConfig(r io.Reader) (Config, error) {
	cfg := DefaultConfig()

	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	if err := dec.Decode(&cfg); err != nil && err != io.EOF {
		return Config{}, fmt.Errorf("could not decode config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

// LoadConfigFile reads the config at path.
func LoadConfigFile(path string) (Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return Config{}, err
	}
	defer f.Close()

	return LoadConfig(f)
}
