package search

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/internal/geocoder"
	"github.com/urbango/ride-engine/pkg/logger"
)

// fakeGeocoder records every search it serves and lets tests gate responses.
type fakeGeocoder struct {
	mu      sync.Mutex
	queries []string
	results map[string][]geocoder.Suggestion
	err     error
	block   chan struct{} // when non-nil, Search waits on it before returning
}

func (f *fakeGeocoder) Search(ctx context.Context, query string) ([]geocoder.Suggestion, error) {
	f.mu.Lock()
	f.queries = append(f.queries, query)
	block := f.block
	f.mu.Unlock()

	if block != nil {
		select {
		case <-block:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.results[query], nil
}

func (f *fakeGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return "Connaught Place, New Delhi", nil
}

func (f *fakeGeocoder) searched() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.queries))
	copy(out, f.queries)
	return out
}

func suggestionsFor(name string) []geocoder.Suggestion {
	return []geocoder.Suggestion{{
		DisplayName: name,
		Coordinate:  geo.Coordinate{Lat: 28.6139, Lng: 77.2090},
		PlaceID:     "place-" + name,
	}}
}

func testConfig() Config {
	return Config{
		Debounce:    25 * time.Millisecond,
		MinQueryLen: 3,
		Timeout:     time.Second,
	}
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	require.Eventually(t, cond, 2*time.Second, 5*time.Millisecond)
}

func TestControllerDebouncesBurst(t *testing.T) {
	fake := &fakeGeocoder{results: map[string][]geocoder.Suggestion{
		"connaught": suggestionsFor("Connaught Place, New Delhi"),
	}}
	c := NewController(fake, testConfig(), logger.NewNop(), nil)
	defer c.Close()

	// A typing burst well inside the quiet interval.
	c.SetQuery("con")
	c.SetQuery("conna")
	c.SetQuery("connaught")

	waitFor(t, func() bool { return len(fake.searched()) > 0 })
	time.Sleep(50 * time.Millisecond) // no trailing searches for old keystrokes

	assert.Equal(t, []string{"connaught"}, fake.searched(),
		"only the final stabilized query reaches the geocoder")

	waitFor(t, func() bool { return !c.Snapshot().Loading })
	snap := c.Snapshot()
	require.Len(t, snap.Suggestions, 1)
	assert.Equal(t, "Connaught Place, New Delhi", snap.Suggestions[0].DisplayName)
}

func TestControllerShortQueryClearsImmediately(t *testing.T) {
	fake := &fakeGeocoder{results: map[string][]geocoder.Suggestion{
		"connaught": suggestionsFor("Connaught Place, New Delhi"),
	}}
	c := NewController(fake, testConfig(), logger.NewNop(), nil)
	defer c.Close()

	c.SetQuery("connaught")
	waitFor(t, func() bool { return len(c.Snapshot().Suggestions) == 1 })

	c.SetQuery("co")
	snap := c.Snapshot()
	assert.Empty(t, snap.Suggestions, "short query clears without debouncing")
	assert.False(t, snap.Loading)

	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, []string{"connaught"}, fake.searched(),
		"a short query never reaches the geocoder")
}

func TestControllerDiscardsStaleResponse(t *testing.T) {
	release := make(chan struct{})
	fake := &fakeGeocoder{
		block: release,
		results: map[string][]geocoder.Suggestion{
			"old query": suggestionsFor("Old Place"),
			"new query": suggestionsFor("New Place"),
		},
	}
	c := NewController(fake, testConfig(), logger.NewNop(), nil)
	defer c.Close()

	c.SetQuery("old query")
	waitFor(t, func() bool { return len(fake.searched()) == 1 })

	// The first request is now in flight and blocked; a newer keystroke
	// supersedes it before it can respond.
	c.SetQuery("new query")
	waitFor(t, func() bool { return len(fake.searched()) == 2 })
	close(release)

	waitFor(t, func() bool {
		snap := c.Snapshot()
		return !snap.Loading && len(snap.Suggestions) == 1
	})
	assert.Equal(t, "New Place", c.Snapshot().Suggestions[0].DisplayName,
		"the superseded response must never surface")
}

func TestControllerDegradesOnGeocoderFailure(t *testing.T) {
	fake := &fakeGeocoder{err: geocoder.ErrUnavailable}
	c := NewController(fake, testConfig(), logger.NewNop(), nil)
	defer c.Close()

	c.SetQuery("connaught")
	waitFor(t, func() bool { return len(fake.searched()) == 1 })
	waitFor(t, func() bool { return !c.Snapshot().Loading })

	assert.Empty(t, c.Snapshot().Suggestions, "failure degrades to an empty set")
}

func TestControllerAccept(t *testing.T) {
	fake := &fakeGeocoder{}
	var states []State
	c := NewController(fake, testConfig(), logger.NewNop(), func(s State) {
		states = append(states, s)
	})
	defer c.Close()

	s := suggestionsFor("Sector 18, Noida")[0]
	addr := c.Accept(s)

	assert.Equal(t, "Sector 18, Noida", addr.Label)
	assert.Equal(t, s.Coordinate, addr.Coordinate)

	snap := c.Snapshot()
	assert.Equal(t, "Sector 18, Noida", snap.Query)
	assert.Empty(t, snap.Suggestions)
	assert.False(t, snap.Loading)
	require.NotEmpty(t, states, "accepting a suggestion notifies the listener")
}

func TestControllerUseCurrentPosition(t *testing.T) {
	t.Run("resolves via reverse geocode", func(t *testing.T) {
		c := NewController(&fakeGeocoder{}, testConfig(), logger.NewNop(), nil)
		defer c.Close()

		addr := c.UseCurrentPosition(context.Background(), 28.6139, 77.2090)
		assert.Equal(t, "Connaught Place, New Delhi", addr.Label)
		assert.Equal(t, geo.Coordinate{Lat: 28.6139, Lng: 77.2090}, addr.Coordinate)
	})

	t.Run("falls back to coordinate label", func(t *testing.T) {
		c := NewController(&fakeGeocoder{err: geocoder.ErrUnavailable}, testConfig(), logger.NewNop(), nil)
		defer c.Close()

		addr := c.UseCurrentPosition(context.Background(), 28.6139, 77.2090)
		assert.Equal(t, "28.6139, 77.2090", addr.Label)
	})
}

func TestControllerClose(t *testing.T) {
	fake := &fakeGeocoder{}
	c := NewController(fake, testConfig(), logger.NewNop(), nil)

	c.SetQuery("connaught")
	c.Close()
	c.SetQuery("noida") // no-op after close

	time.Sleep(60 * time.Millisecond)
	assert.Empty(t, fake.searched(), "no search fires after close")
}
