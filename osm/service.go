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

// Package osm talks to the data service a scenario is edited against: it
// loads entities by id and by tile, uploads changesets and reports the
// service status.
package osm

import (
	"bytes"
	"context"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"maps"
	"math"
	"net/http"
	"net/url"
	"slices"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/destel/rill"
	"github.com/sony/gobreaker"

	"github.com/WorldBank-Transport/iD/event"
	"github.com/WorldBank-Transport/iD/model"
)

// Kind names an event emitted by a Service.
type Kind string

const (
	// EventChange fires when the session status changed: a logout or the
	// first rate limited response.
	EventChange Kind = "change"

	// EventLoading fires when a tile request starts while none is in flight.
	EventLoading Kind = "loading"

	// EventLoaded fires when the last tile request in flight completes.
	EventLoaded Kind = "loaded"
)

// Event is delivered to subscribers.
type Event struct {
	Kind Kind
}

// TileResult is passed to the LoadTiles callback once per requested tile.
type TileResult struct {
	Tile     Tile
	Extent   model.Extent
	Entities []model.Entity
	Err      error
}

// StatusRateLimited is reported by Status while the rate limit flag is
// raised.
const StatusRateLimited = "rateLimited"

var defaultBlacklists = []string{`.*\.google(apis)?\..*/(vt|kh)[\?/].*([xyz]=.*){3}.*`}

type tileLoad struct {
	cancel context.CancelFunc
}

// Service holds the state of one editing session against the data service.
// It is safe for concurrent use.
type Service struct {
	cfg     Config
	opts    options
	base    string
	breaker *gobreaker.CircuitBreaker
	events  event.Dispatcher[Kind, Event]
	slots   chan struct{}

	mu         sync.Mutex
	inflight   map[string]*tileLoad
	loaded     map[string]struct{}
	limited    error
	off        bool
	tileZoom   int
	blacklists []string
}

// New creates a service for cfg.
func New(cfg Config, opts ...Option) *Service {
	o := defaultServiceConfig
	for _, opt := range opts {
		opt(&o)
	}

	if o.logger == nil {
		o.logger = slog.Default()
	}

	return &Service{
		cfg:        cfg,
		opts:       o,
		base:       cfg.BaseURL(),
		breaker:    newBreaker("osm", o.breaker, o.logger),
		slots:      make(chan struct{}, max(cfg.Concurrency, 1)),
		inflight:   make(map[string]*tileLoad),
		loaded:     make(map[string]struct{}),
		tileZoom:   cfg.TileZoom,
		blacklists: defaultBlacklists,
	}
}

// Subscribe registers fn for events of kind.
func (s *Service) Subscribe(kind Kind, fn func(Event)) event.Handle {
	return s.events.Subscribe(kind, fn)
}

// Unsubscribe removes a subscription.
func (s *Service) Unsubscribe(h event.Handle) bool {
	return s.events.Unsubscribe(h)
}

func (s *Service) emit(kind Kind) {
	s.opts.scheduler(func() {
		s.events.Emit(kind, Event{Kind: kind})
	})
}

// Reset cancels the tile requests in flight, forgets the loaded tiles and
// clears the rate limit flag.
func (s *Service) Reset() {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, l := range s.inflight {
		l.cancel()
	}

	s.inflight = make(map[string]*tileLoad)
	s.loaded = make(map[string]struct{})
	s.limited = nil
}

// Toggle switches tile loading on or off.
func (s *Service) Toggle(on bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.off = !on
}

// TileZoom returns the zoom tiles are requested at.
func (s *Service) TileZoom() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.tileZoom
}

// SetTileZoom sets the zoom tiles are requested at.
func (s *Service) SetTileZoom(z int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.tileZoom = z
}

// LoadedTiles returns the ids of the tiles loaded so far, sorted.
func (s *Service) LoadedTiles() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Sorted(maps.Keys(s.loaded))
}

// Authenticated reports whether requests carry credentials.
func (s *Service) Authenticated() bool {
	return s.opts.credentials.Authenticated()
}

// Logout drops the credentials.
func (s *Service) Logout() {
	s.opts.credentials.Logout()
	s.emit(EventChange)
}

// RateLimited returns the first rate limited response received while
// anonymous, until Reset.
func (s *Service) RateLimited() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.limited
}

func (s *Service) rateLimit(err error) {
	s.mu.Lock()
	first := s.limited == nil
	if first {
		s.limited = err
	}
	s.mu.Unlock()

	if first {
		s.opts.logger.Warn("rate limited", "error", err)
		s.emit(EventChange)
	}
}

// ImageryBlacklists returns the patterns of imagery urls the service
// refuses.
func (s *Service) ImageryBlacklists() []string {
	s.mu.Lock()
	defer s.mu.Unlock()

	return slices.Clone(s.blacklists)
}

func (s *Service) fetch(ctx context.Context, path string) ([]model.Entity, error) {
	data, err := s.load(ctx, path)
	if err != nil {
		return nil, err
	}

	return Decode(bytes.NewReader(data))
}

func entityPath(id model.ID) (string, error) {
	if !id.Valid() || id.IsNew() {
		return "", fmt.Errorf("cannot load %q: not a remote entity", id)
	}

	return "/" + id.Type().String() + "/" + strconv.FormatInt(id.Remote(), 10), nil
}

// LoadEntity loads an entity; ways and relations come with their nodes and
// members.
func (s *Service) LoadEntity(ctx context.Context, id model.ID) ([]model.Entity, error) {
	path, err := entityPath(id)
	if err != nil {
		return nil, err
	}

	if id.Type() != model.NODE {
		path += "/full"
	}

	return s.fetch(ctx, path)
}

// LoadEntityVersion loads one version of an entity.
func (s *Service) LoadEntityVersion(ctx context.Context, id model.ID, version int32) ([]model.Entity, error) {
	path, err := entityPath(id)
	if err != nil {
		return nil, err
	}

	return s.fetch(ctx, path+"/"+strconv.FormatInt(int64(version), 10))
}

// multiplePaths groups ids by type, drops duplicates and chunks each group
// into requests of at most size ids.
func multiplePaths(ids []model.ID, size int) []string {
	var (
		groups [3][]string
		seen   = make(map[model.ID]struct{}, len(ids))
	)

	for _, id := range ids {
		if _, ok := seen[id]; ok {
			continue
		}

		seen[id] = struct{}{}

		if t := id.Type(); t >= model.NODE && t <= model.RELATION {
			groups[t] = append(groups[t], strconv.FormatInt(id.Remote(), 10))
		}
	}

	var paths []string

	for t, group := range groups {
		plural := model.EntityType(t).String() + "s"

		for chunk := range slices.Chunk(group, max(size, 1)) {
			paths = append(paths, "/"+plural+"?"+plural+"="+strings.Join(chunk, ","))
		}
	}

	return paths
}

// LoadMultiple loads the given entities, a batch of ids per request.
func (s *Service) LoadMultiple(ctx context.Context, ids []model.ID) ([]model.Entity, error) {
	for _, id := range ids {
		if !id.Valid() || id.IsNew() {
			return nil, fmt.Errorf("cannot load %q: not a remote entity", id)
		}
	}

	paths := multiplePaths(ids, s.cfg.BatchSize)

	batches := rill.OrderedMap(rill.FromSlice(paths, nil), max(s.cfg.Concurrency, 1), func(path string) ([]model.Entity, error) {
		return s.fetch(ctx, path)
	})

	loaded, err := rill.ToSlice(batches)
	if err != nil {
		return nil, err
	}

	return slices.Concat(loaded...), nil
}

// LoadTiles requests every tile covering extent that is neither loaded nor
// in flight, and cancels the requests in flight for tiles outside extent.
// It returns at once with the number of requests it started, or ErrOff
// while the service is toggled off; callback receives each tile through
// the scheduler.  A tile whose request was cancelled, or reset, is not
// reported.
func (s *Service) LoadTiles(ctx context.Context, extent model.Extent, callback func(TileResult)) (int, error) {
	s.mu.Lock()

	if s.off {
		s.mu.Unlock()
		return 0, ErrOff
	}

	tiles := TilesFor(extent, s.tileZoom)

	wanted := make(map[string]struct{}, len(tiles))
	for _, t := range tiles {
		wanted[t.String()] = struct{}{}
	}

	for id, l := range s.inflight {
		if _, ok := wanted[id]; !ok {
			s.opts.logger.Debug("cancelling tile", "tile", id)
			l.cancel()
			delete(s.inflight, id)
		}
	}

	type pending struct {
		tile Tile
		load *tileLoad
		ctx  context.Context
	}

	var (
		start   []pending
		loading bool
	)

	for _, t := range tiles {
		id := t.String()

		if _, ok := s.loaded[id]; ok {
			continue
		}

		if _, ok := s.inflight[id]; ok {
			continue
		}

		if len(s.inflight) == 0 {
			loading = true
		}

		tctx, cancel := context.WithCancel(ctx)
		l := &tileLoad{cancel: cancel}
		s.inflight[id] = l

		start = append(start, pending{tile: t, load: l, ctx: tctx})
	}

	s.mu.Unlock()

	if loading {
		s.emit(EventLoading)
	}

	for _, p := range start {
		go s.loadTile(p.ctx, p.tile, p.load, callback)
	}

	return len(start), nil
}

func (s *Service) loadTile(ctx context.Context, t Tile, l *tileLoad, callback func(TileResult)) {
	defer l.cancel()

	res := TileResult{Tile: t, Extent: t.Extent()}

	select {
	case s.slots <- struct{}{}:
		res.Entities, res.Err = s.fetch(ctx, "/map?bbox="+res.Extent.Param())
		<-s.slots
	case <-ctx.Done():
		res.Err = ctx.Err()
	}

	s.opts.scheduler(func() {
		id := t.String()

		s.mu.Lock()
		if s.inflight[id] != l {
			s.mu.Unlock()
			s.opts.logger.Debug("dropping cancelled tile", "tile", id)

			return
		}

		delete(s.inflight, id)
		if res.Err == nil {
			s.loaded[id] = struct{}{}
		}

		done := len(s.inflight) == 0
		s.mu.Unlock()

		if callback != nil {
			callback(res)
		}

		if done {
			s.events.Emit(EventLoaded, Event{Kind: EventLoaded})
		}
	})
}

// Status reads the capabilities of the service: the API status and the
// imagery blacklists.  While rate limited it reports StatusRateLimited
// along with the response that raised the flag.
func (s *Service) Status(ctx context.Context) (string, error) {
	data, err := s.do(ctx, request{method: http.MethodGet, path: "/capabilities"})
	if err != nil {
		return "", err
	}

	status, regexes, err := parseCapabilities(bytes.NewReader(data))
	if err != nil {
		return "", err
	}

	s.mu.Lock()
	if len(regexes) > 0 {
		s.blacklists = regexes
	}
	limited := s.limited
	s.mu.Unlock()

	if limited != nil {
		return StatusRateLimited, limited
	}

	return status, nil
}

func parseCapabilities(r io.Reader) (status string, blacklists []string, err error) {
	dec := xml.NewDecoder(r)

	for {
		tok, err := dec.Token()
		if err == io.EOF {
			break
		}

		if err != nil {
			return "", nil, fmt.Errorf("could not decode capabilities: %w", err)
		}

		el, ok := tok.(xml.StartElement)
		if !ok {
			continue
		}

		for _, a := range el.Attr {
			switch {
			case el.Name.Local == "status" && a.Name.Local == "api" && status == "":
				status = a.Value
			case el.Name.Local == "blacklist" && a.Name.Local == "regex" && a.Value != "":
				blacklists = append(blacklists, a.Value)
			}
		}
	}

	if status == "" {
		return "", nil, errors.New("capabilities carry no api status")
	}

	return status, blacklists, nil
}

func (s *Service) changesetPath(id int64, op string) string {
	return "/changeset/" + strconv.FormatInt(id, 10) + "/" + op
}

// PutChangeset opens a changeset, uploads d to it and waits for the
// settle delay before returning the changeset with its id.  Closing the
// changeset is attempted in the background and never delays the return;
// its failure is logged and ignored.
func (s *Service) PutChangeset(ctx context.Context, cs *model.Changeset, d Changes) (*model.Changeset, error) {
	envelope, err := ChangesetXML(cs)
	if err != nil {
		return nil, &UploadError{Phase: "create", Err: err}
	}

	data, err := s.do(ctx, request{method: http.MethodPut, path: "/changeset/create", body: envelope, contentType: "text/xml"})
	if err != nil {
		return nil, &UploadError{Phase: "create", Err: err}
	}

	id, err := strconv.ParseInt(strings.TrimSpace(string(data)), 10, 64)
	if err != nil {
		return nil, &UploadError{Phase: "create", Err: fmt.Errorf("bad changeset id: %w", err)}
	}

	cs = cs.Update(func(c *model.Changeset) { c.ID = id })

	change, err := ChangeXML(id, d)
	if err != nil {
		return nil, &UploadError{Phase: "upload", Err: err}
	}

	if _, err := s.do(ctx, request{method: http.MethodPost, path: s.changesetPath(id, "upload"), body: change, contentType: "text/xml"}); err != nil {
		return nil, &UploadError{Phase: "upload", Err: err}
	}

	s.opts.logger.Info("uploaded changeset", "changeset", id)

	go func() {
		if _, err := s.do(context.WithoutCancel(ctx), request{method: http.MethodPut, path: s.changesetPath(id, "close"), contentType: "text/xml"}); err != nil {
			s.opts.logger.Warn("could not close changeset", "changeset", id, "error", err)
		}
	}()

	settle := time.NewTimer(s.cfg.SettleDelay)
	defer settle.Stop()

	select {
	case <-settle.C:
	case <-ctx.Done():
		return cs, ctx.Err()
	}

	return cs, nil
}

// ChangesetURL links to a changeset.
func (s *Service) ChangesetURL(id int64) string {
	return s.base + "/changeset/" + strconv.FormatInt(id, 10)
}

// EntityURL links to an entity.
func (s *Service) EntityURL(id model.ID) string {
	return s.base + "/" + id.Type().String() + "/" + strconv.FormatInt(id.Remote(), 10)
}

// UserURL links to a user profile.
func (s *Service) UserURL(name string) string {
	return s.base + "/user/" + url.PathEscape(name)
}

// HistoryURL links to the edit history around center at zoom, rounding the
// coordinates to what the zoom can tell apart.
func (s *Service) HistoryURL(center model.Loc, zoom float64) string {
	precision := max(0, int(math.Ceil(math.Log2(zoom))))

	return fmt.Sprintf("%s/history#map=%d/%.*f/%.*f", s.base, int(math.Floor(zoom)),
		precision, float64(center.Lat), precision, float64(center.Lon))
}
