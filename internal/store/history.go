package store

import (
	"context"
	"sync"

	"github.com/urbango/ride-engine/internal/domain/ride"
)

// HistoryStore archives terminal rides for the read-only history surface.
// The core treats this as supporting infrastructure: the default backend is
// in-memory and scoped to the process lifetime.
type HistoryStore interface {
	Save(ctx context.Context, r *ride.Ride) error
	List(ctx context.Context, limit int) ([]*ride.Ride, error)
}

// MemoryStore keeps history in memory, newest first, bounded.
type MemoryStore struct {
	mu    sync.Mutex
	rides []*ride.Ride
	max   int
}

// NewMemoryStore creates an in-memory history store holding at most max
// rides (0 means 100).
func NewMemoryStore(max int) *MemoryStore {
	if max <= 0 {
		max = 100
	}
	return &MemoryStore{max: max}
}

// Save prepends the ride snapshot.
func (s *MemoryStore) Save(_ context.Context, r *ride.Ride) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.rides = append([]*ride.Ride{r.Clone()}, s.rides...)
	if len(s.rides) > s.max {
		s.rides = s.rides[:s.max]
	}
	return nil
}

// List returns up to limit rides, newest first.
func (s *MemoryStore) List(_ context.Context, limit int) ([]*ride.Ride, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if limit <= 0 || limit > len(s.rides) {
		limit = len(s.rides)
	}
	out := make([]*ride.Ride, 0, limit)
	for _, r := range s.rides[:limit] {
		out = append(out, r.Clone())
	}
	return out, nil
}
