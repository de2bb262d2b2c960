package ride

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/geo"
)

// Status represents ride status
type Status string

const (
	StatusRequested Status = "requested"
	StatusAssigned  Status = "assigned"
	StatusAccepted  Status = "accepted"
	StatusOnTrip    Status = "on_trip"
	StatusCompleted Status = "completed"
	StatusCancelled Status = "cancelled"
)

// VehicleClass is the tier of vehicle requested. Closed set, no dynamic
// extension: the domain genuinely has three classes.
type VehicleClass string

const (
	VehicleBike VehicleClass = "bike"
	VehicleCar  VehicleClass = "car"
	VehicleXL   VehicleClass = "xl"
)

// Classes lists all vehicle classes, in display order.
var Classes = []VehicleClass{VehicleBike, VehicleCar, VehicleXL}

// Address is a coordinate plus its human-readable label.
type Address struct {
	geo.Coordinate
	Label string `json:"address"`
}

// FareEstimate is a precomputed, non-binding quote for one route and vehicle
// class. Immutable once computed.
type FareEstimate struct {
	DistanceKm  float64 `json:"distance_km"`
	DurationMin int     `json:"duration_min"`
	Total       float64 `json:"total"`
	Currency    string  `json:"currency"`
}

// Driver is the driver attached to a ride. Never created before the ride is
// assigned; its Location is advanced only by tracking position updates.
type Driver struct {
	ID           uuid.UUID      `json:"id"`
	Name         string         `json:"name"`
	Class        VehicleClass   `json:"vehicle_class"`
	Location     geo.Coordinate `json:"location"`
	Rating       float64        `json:"rating"`
	PlateNumber  string         `json:"plate_number"`
	VehicleModel string         `json:"vehicle_model"`
}

// Ride is one rider's booking from request through terminal resolution.
type Ride struct {
	ID               uuid.UUID    `json:"id"`
	Pickup           Address      `json:"pickup"`
	Dropoff          Address      `json:"dropoff"`
	Class            VehicleClass `json:"vehicle_class"`
	Status           Status       `json:"status"`
	Fare             FareEstimate `json:"fare"`
	Driver           *Driver      `json:"driver,omitempty"`
	CreatedAt        time.Time    `json:"created_at"`
	EstimatedArrival *time.Time   `json:"estimated_arrival,omitempty"`
}

// Errors
var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrDriverRequired    = errors.New("driver must be attached at assignment")
	ErrDriverAlreadySet  = errors.New("driver already attached")
)

// transitions is the single source of truth for what can happen next.
var transitions = map[Status][]Status{
	StatusRequested: {StatusAssigned, StatusCancelled},
	StatusAssigned:  {StatusAccepted, StatusCancelled},
	StatusAccepted:  {StatusOnTrip, StatusCancelled},
	StatusOnTrip:    {StatusCompleted},
	StatusCompleted: {},
	StatusCancelled: {},
}

// IsValid validates the status
func (s Status) IsValid() bool {
	_, ok := transitions[s]
	return ok
}

// IsTerminal reports whether the status has no outgoing transitions.
func (s Status) IsTerminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// CanTransitionTo reports whether next is a legal successor of s.
func (s Status) CanTransitionTo(next Status) bool {
	for _, t := range transitions[s] {
		if t == next {
			return true
		}
	}
	return false
}

// CanCancel reports whether rider-initiated cancellation is legal: only
// while no trip is underway.
func (s Status) CanCancel() bool {
	switch s {
	case StatusRequested, StatusAssigned, StatusAccepted:
		return true
	}
	return false
}

// IsValid validates the vehicle class
func (v VehicleClass) IsValid() bool {
	switch v {
	case VehicleBike, VehicleCar, VehicleXL:
		return true
	}
	return false
}

// ParseVehicleClass converts a wire value into a VehicleClass.
func ParseVehicleClass(s string) (VehicleClass, error) {
	v := VehicleClass(s)
	if !v.IsValid() {
		return "", fmt.Errorf("unknown vehicle class %q", s)
	}
	return v, nil
}

// Transition advances the ride to next, rejecting out-of-order or disallowed
// changes. Moving to assigned must go through Assign so a driver is attached
// at the same step.
func (r *Ride) Transition(next Status) error {
	if !r.Status.CanTransitionTo(next) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, next)
	}
	if next == StatusAssigned && r.Driver == nil {
		return fmt.Errorf("%w: %s -> %s", ErrDriverRequired, r.Status, next)
	}
	r.Status = next
	return nil
}

// Assign attaches a driver and moves the ride to assigned in one step. The
// driver transitions from absent to present exactly once.
func (r *Ride) Assign(d *Driver) error {
	if d == nil {
		return ErrDriverRequired
	}
	if r.Driver != nil {
		return ErrDriverAlreadySet
	}
	if !r.Status.CanTransitionTo(StatusAssigned) {
		return fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, r.Status, StatusAssigned)
	}
	r.Driver = d
	r.Status = StatusAssigned
	return nil
}

// Cancel moves the ride to cancelled if cancellation is still legal.
func (r *Ride) Cancel() error {
	if !r.Status.CanCancel() {
		return fmt.Errorf("%w: cannot cancel from %s", ErrIllegalTransition, r.Status)
	}
	r.Status = StatusCancelled
	return nil
}

// Clone returns a deep copy so callers can hand out snapshots without
// exposing the orchestrator-owned record.
func (r *Ride) Clone() *Ride {
	cp := *r
	if r.Driver != nil {
		d := *r.Driver
		cp.Driver = &d
	}
	if r.EstimatedArrival != nil {
		t := *r.EstimatedArrival
		cp.EstimatedArrival = &t
	}
	return &cp
}
