package store

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
)

func archivedRide(label string) *ride.Ride {
	return &ride.Ride{
		ID:     uuid.New(),
		Class:  ride.VehicleCar,
		Status: ride.StatusCompleted,
		Pickup: ride.Address{
			Coordinate: geo.Coordinate{Lat: 28.6139, Lng: 77.2090},
			Label:      label,
		},
		CreatedAt: time.Now(),
	}
}

func TestMemoryStoreNewestFirst(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	first := archivedRide("first")
	second := archivedRide("second")
	require.NoError(t, s.Save(ctx, first))
	require.NoError(t, s.Save(ctx, second))

	rides, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rides, 2)
	assert.Equal(t, second.ID, rides[0].ID)
	assert.Equal(t, first.ID, rides[1].ID)
}

func TestMemoryStoreLimit(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, s.Save(ctx, archivedRide(fmt.Sprintf("ride-%d", i))))
	}

	rides, err := s.List(ctx, 3)
	require.NoError(t, err)
	assert.Len(t, rides, 3)

	rides, err = s.List(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, rides, 5)
}

func TestMemoryStoreBounded(t *testing.T) {
	s := NewMemoryStore(3)
	ctx := context.Background()

	var last *ride.Ride
	for i := 0; i < 5; i++ {
		last = archivedRide(fmt.Sprintf("ride-%d", i))
		require.NoError(t, s.Save(ctx, last))
	}

	rides, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rides, 3, "oldest entries are evicted")
	assert.Equal(t, last.ID, rides[0].ID)
}

func TestMemoryStoreIsolation(t *testing.T) {
	s := NewMemoryStore(10)
	ctx := context.Background()

	r := archivedRide("original")
	require.NoError(t, s.Save(ctx, r))

	// Mutating the caller's ride after save must not touch the archive.
	r.Pickup.Label = "mutated"

	rides, err := s.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, rides, 1)
	assert.Equal(t, "original", rides[0].Pickup.Label)

	// Mutating a listed snapshot must not touch the archive either.
	rides[0].Status = ride.StatusCancelled
	again, err := s.List(ctx, 0)
	require.NoError(t, err)
	assert.Equal(t, ride.StatusCompleted, again[0].Status)
}
