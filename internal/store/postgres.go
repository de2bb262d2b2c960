package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
)

// PostgresStore archives ride history in a rides table for durable
// deployments.
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a Postgres-backed history store.
func NewPostgresStore(db *sql.DB) *PostgresStore {
	return &PostgresStore{db: db}
}

// Save inserts the terminal ride snapshot.
func (s *PostgresStore) Save(ctx context.Context, r *ride.Ride) error {
	var driverJSON []byte
	if r.Driver != nil {
		var err error
		driverJSON, err = json.Marshal(r.Driver)
		if err != nil {
			return fmt.Errorf("marshal driver: %w", err)
		}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO rides (
			id, status, vehicle_class,
			pickup_latitude, pickup_longitude, pickup_address,
			dropoff_latitude, dropoff_longitude, dropoff_address,
			fare_distance_km, fare_duration_min, fare_total, fare_currency,
			driver, created_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
		ON CONFLICT (id) DO UPDATE SET
			status = EXCLUDED.status,
			driver = EXCLUDED.driver
	`,
		r.ID, r.Status, r.Class,
		r.Pickup.Lat, r.Pickup.Lng, r.Pickup.Label,
		r.Dropoff.Lat, r.Dropoff.Lng, r.Dropoff.Label,
		r.Fare.DistanceKm, r.Fare.DurationMin, r.Fare.Total, r.Fare.Currency,
		nullableBytes(driverJSON), r.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("save ride history: %w", err)
	}
	return nil
}

// List returns up to limit rides, newest first.
func (s *PostgresStore) List(ctx context.Context, limit int) ([]*ride.Ride, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, status, vehicle_class,
		       pickup_latitude, pickup_longitude, pickup_address,
		       dropoff_latitude, dropoff_longitude, dropoff_address,
		       fare_distance_km, fare_duration_min, fare_total, fare_currency,
		       driver, created_at
		FROM rides
		ORDER BY created_at DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list ride history: %w", err)
	}
	defer rows.Close()

	var rides []*ride.Ride
	for rows.Next() {
		var (
			r          ride.Ride
			id         string
			driverJSON sql.NullString
			createdAt  time.Time
		)
		var pickupLat, pickupLng, dropoffLat, dropoffLng float64
		if err := rows.Scan(
			&id, &r.Status, &r.Class,
			&pickupLat, &pickupLng, &r.Pickup.Label,
			&dropoffLat, &dropoffLng, &r.Dropoff.Label,
			&r.Fare.DistanceKm, &r.Fare.DurationMin, &r.Fare.Total, &r.Fare.Currency,
			&driverJSON, &createdAt,
		); err != nil {
			return nil, fmt.Errorf("scan ride: %w", err)
		}

		rideID, err := uuid.Parse(id)
		if err != nil {
			continue
		}
		r.ID = rideID
		r.Pickup.Coordinate = geo.Coordinate{Lat: pickupLat, Lng: pickupLng}
		r.Dropoff.Coordinate = geo.Coordinate{Lat: dropoffLat, Lng: dropoffLng}
		r.CreatedAt = createdAt

		if driverJSON.Valid {
			var d ride.Driver
			if err := json.Unmarshal([]byte(driverJSON.String), &d); err == nil {
				r.Driver = &d
			}
		}
		rides = append(rides, &r)
	}
	return rides, rows.Err()
}

func nullableBytes(b []byte) interface{} {
	if len(b) == 0 {
		return nil
	}
	return b
}
