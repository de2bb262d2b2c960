package driver

import (
	"math/rand"

	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
)

// profile is one entry in the simulated driver roster.
type profile struct {
	name   string
	plate  string
	rating float64
}

var profiles = []profile{
	{name: "Ravi Sharma", plate: "DL08XY9876", rating: 4.7},
	{name: "Rajesh Kumar", plate: "DL01AB1234", rating: 4.8},
	{name: "Amit Singh", plate: "DL05CD5678", rating: 4.6},
	{name: "Sunil Verma", plate: "DL03EF4321", rating: 4.9},
	{name: "Deepak Yadav", plate: "DL11GH8765", rating: 4.5},
}

var modelsByClass = map[ride.VehicleClass]string{
	ride.VehicleBike: "Honda Activa",
	ride.VehicleCar:  "Maruti Swift",
	ride.VehicleXL:   "Toyota Innova",
}

// Pool hands out simulated drivers for assigned rides. A production
// implementation would be replaced by real dispatch; the shape of the
// returned Driver is the contract that survives.
type Pool struct {
	rng *rand.Rand
}

// NewPool creates a pool drawing from the given randomness source.
func NewPool(rng *rand.Rand) *Pool {
	return &Pool{rng: rng}
}

// Pick returns a driver of the requested class positioned near the pickup
// point (within roughly half a kilometer).
func (p *Pool) Pick(class ride.VehicleClass, pickup geo.Coordinate) *ride.Driver {
	prof := profiles[p.rng.Intn(len(profiles))]
	return &ride.Driver{
		ID:     uuid.New(),
		Name:   prof.name,
		Class:  class,
		Rating: prof.rating,
		Location: geo.Coordinate{
			Lat: pickup.Lat + (p.rng.Float64()-0.5)*0.01,
			Lng: pickup.Lng + (p.rng.Float64()-0.5)*0.01,
		},
		PlateNumber:  prof.plate,
		VehicleModel: modelsByClass[class],
	}
}
