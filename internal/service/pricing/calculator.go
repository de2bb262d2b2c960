package pricing

import (
	"fmt"
	"math"

	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
)

// Service computes fare estimates from route distance and vehicle class
// using a linear rate model.
type Service struct {
	config Config
}

// Config holds pricing configuration
type Config struct {
	BaseFare  map[ride.VehicleClass]float64
	PerKMRate map[ride.VehicleClass]float64
	Currency  string
	// MinutesPerKm is a fixed speed proxy (~24 km/h effective). A stand-in
	// for a real routing engine, preserved for behavioral compatibility.
	MinutesPerKm   float64
	MinDurationMin int
}

// DefaultConfig returns the fixed rate table for the three vehicle classes.
func DefaultConfig() Config {
	return Config{
		BaseFare: map[ride.VehicleClass]float64{
			ride.VehicleBike: 25.0,
			ride.VehicleCar:  50.0,
			ride.VehicleXL:   75.0,
		},
		PerKMRate: map[ride.VehicleClass]float64{
			ride.VehicleBike: 8.0,
			ride.VehicleCar:  15.0,
			ride.VehicleXL:   20.0,
		},
		Currency:       "INR",
		MinutesPerKm:   2.5,
		MinDurationMin: 5,
	}
}

// NewService creates a new pricing service
func NewService(config Config) *Service {
	return &Service{config: config}
}

// Estimate computes the fare for one route and vehicle class. Side-effect
// free and deterministic, so it is safe to run concurrently for all classes
// against the same pickup/dropoff pair.
func (s *Service) Estimate(pickup, dropoff geo.Coordinate, class ride.VehicleClass) (*ride.FareEstimate, error) {
	if err := pickup.Validate(); err != nil {
		return nil, fmt.Errorf("pickup: %w", err)
	}
	if err := dropoff.Validate(); err != nil {
		return nil, fmt.Errorf("dropoff: %w", err)
	}
	base, ok := s.config.BaseFare[class]
	if !ok {
		return nil, fmt.Errorf("no rate configured for vehicle class %q", class)
	}
	perKM := s.config.PerKMRate[class]

	// The 1-decimal display distance is also the billed distance, so the
	// quoted figures always agree with each other.
	distanceKm := round1(geo.DistanceKm(pickup, dropoff))

	durationMin := int(math.Round(distanceKm * s.config.MinutesPerKm))
	if durationMin < s.config.MinDurationMin {
		durationMin = s.config.MinDurationMin
	}

	return &ride.FareEstimate{
		DistanceKm:  distanceKm,
		DurationMin: durationMin,
		Total:       round2(base + distanceKm*perKM),
		Currency:    s.config.Currency,
	}, nil
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
