package store

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/urbango/ride-engine/internal/domain/ride"
)

const historyKey = "rides:history"

// RedisStore archives ride history in a Redis list, newest first, with a
// retention TTL. Session-grade storage for deployments that want history to
// survive a process restart without a full database.
type RedisStore struct {
	client *redis.Client
	max    int64
	ttl    time.Duration
}

// NewRedisStore creates a Redis-backed history store keeping at most max
// entries for ttl.
func NewRedisStore(client *redis.Client, max int, ttl time.Duration) *RedisStore {
	if max <= 0 {
		max = 100
	}
	return &RedisStore{client: client, max: int64(max), ttl: ttl}
}

// Save pushes the ride snapshot and trims the list to the retention bound.
func (s *RedisStore) Save(ctx context.Context, r *ride.Ride) error {
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal ride: %w", err)
	}

	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, historyKey, data)
	pipe.LTrim(ctx, historyKey, 0, s.max-1)
	if s.ttl > 0 {
		pipe.Expire(ctx, historyKey, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("save ride history: %w", err)
	}
	return nil
}

// List returns up to limit rides, newest first.
func (s *RedisStore) List(ctx context.Context, limit int) ([]*ride.Ride, error) {
	if limit <= 0 {
		limit = int(s.max)
	}
	entries, err := s.client.LRange(ctx, historyKey, 0, int64(limit)-1).Result()
	if err != nil {
		return nil, fmt.Errorf("list ride history: %w", err)
	}

	rides := make([]*ride.Ride, 0, len(entries))
	for _, e := range entries {
		var r ride.Ride
		if err := json.Unmarshal([]byte(e), &r); err != nil {
			continue // skip corrupt entries rather than failing the read
		}
		rides = append(rides, &r)
	}
	return rides, nil
}
