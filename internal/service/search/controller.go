package search

import (
	"context"
	"sync"
	"time"

	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/internal/geocoder"
	"github.com/urbango/ride-engine/pkg/logger"
)

// State is a snapshot of one input field's search state.
type State struct {
	Query       string
	Suggestions []geocoder.Suggestion
	Loading     bool
}

// Config holds search controller configuration
type Config struct {
	Debounce    time.Duration // quiet interval before a search is issued
	MinQueryLen int           // below this, suggestions are cleared immediately
	Timeout     time.Duration // per-call geocoder timeout
}

// DefaultConfig returns the standard debouncing contract: 300ms quiet
// interval, 3-character minimum.
func DefaultConfig() Config {
	return Config{
		Debounce:    300 * time.Millisecond,
		MinQueryLen: 3,
		Timeout:     10 * time.Second,
	}
}

// Controller debounces free-text input for one location field, invokes the
// geocoder once per stabilized query, and exposes ranked suggestions plus a
// loading flag. Any keystroke restarts the debounce timer; a superseded
// in-flight request's response is discarded, keyed by generation rather than
// arrival order, so only the most recent query's result is ever applied.
type Controller struct {
	geocoder geocoder.Geocoder
	config   Config
	logger   *logger.Logger
	onChange func(State)

	mu          sync.Mutex
	query       string
	gen         uint64
	timer       *time.Timer
	suggestions []geocoder.Suggestion
	loading     bool
	closed      bool
}

// NewController creates a controller for one input field. onChange, if
// non-nil, is invoked with a state snapshot after every visible change.
func NewController(g geocoder.Geocoder, config Config, log *logger.Logger, onChange func(State)) *Controller {
	return &Controller{
		geocoder: g,
		config:   config,
		logger:   log,
		onChange: onChange,
	}
}

// SetQuery records a keystroke. Short queries clear suggestions immediately;
// otherwise a search is scheduled once the query stabilizes for the
// configured quiet interval.
func (c *Controller) SetQuery(query string) {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}

	c.query = query
	c.gen++ // supersedes any pending timer or in-flight request
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}

	if len(query) < c.config.MinQueryLen {
		c.suggestions = nil
		c.loading = false
		c.notifyLocked()
		c.mu.Unlock()
		return
	}

	gen := c.gen
	c.timer = time.AfterFunc(c.config.Debounce, func() {
		c.search(gen, query)
	})
	c.mu.Unlock()
}

// search runs once the debounce timer fires. gen pins the query generation
// this request belongs to; the result is dropped if the field has moved on.
func (c *Controller) search(gen uint64, query string) {
	c.mu.Lock()
	if c.closed || gen != c.gen {
		c.mu.Unlock()
		return
	}
	c.loading = true
	c.notifyLocked()
	c.mu.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), c.config.Timeout)
	defer cancel()

	results, err := c.geocoder.Search(ctx, query)

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.closed || gen != c.gen {
		// Stale response: a newer keystroke owns the field now.
		c.logger.Debug("stale search response discarded",
			logger.String("query", query),
			logger.Uint64("generation", gen),
		)
		return
	}

	c.loading = false
	if err != nil {
		// Degrade to an empty suggestion set rather than failing the field.
		c.logger.Warn("location search failed",
			logger.String("query", query),
			logger.Err(err),
		)
		c.suggestions = nil
	} else {
		c.suggestions = results
	}
	c.notifyLocked()
}

// Accept resolves a chosen suggestion into an address and settles the field,
// cancelling any pending search.
func (c *Controller) Accept(s geocoder.Suggestion) ride.Address {
	c.mu.Lock()
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
	c.query = s.DisplayName
	c.suggestions = nil
	c.loading = false
	c.notifyLocked()
	c.mu.Unlock()

	return ride.Address{Coordinate: s.Coordinate, Label: s.DisplayName}
}

// UseCurrentPosition reverse-geocodes the device position into an address.
// Independent of the text query; a failed lookup falls back to a formatted
// coordinate label instead of failing the caller.
func (c *Controller) UseCurrentPosition(ctx context.Context, lat, lng float64) ride.Address {
	ctx, cancel := context.WithTimeout(ctx, c.config.Timeout)
	defer cancel()

	label, err := c.geocoder.ReverseGeocode(ctx, lat, lng)
	if err != nil {
		c.logger.Warn("reverse geocode failed, using coordinate label",
			logger.Float64("lat", lat),
			logger.Float64("lng", lng),
			logger.Err(err),
		)
		label = geocoder.FallbackLabel(lat, lng)
	}

	return ride.Address{
		Coordinate: geo.Coordinate{Lat: lat, Lng: lng},
		Label:      label,
	}
}

// Snapshot returns the current field state.
func (c *Controller) Snapshot() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.stateLocked()
}

// Close cancels any pending debounce timer and makes further input a no-op.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.closed = true
	c.gen++
	if c.timer != nil {
		c.timer.Stop()
		c.timer = nil
	}
}

func (c *Controller) stateLocked() State {
	out := make([]geocoder.Suggestion, len(c.suggestions))
	copy(out, c.suggestions)
	return State{
		Query:       c.query,
		Suggestions: out,
		Loading:     c.loading,
	}
}

// notifyLocked invokes the change listener with a snapshot. Called with the
// lock held; listeners must not call back into the controller.
func (c *Controller) notifyLocked() {
	if c.onChange != nil {
		c.onChange(c.stateLocked())
	}
}
