package booking

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/internal/service/pricing"
	"github.com/urbango/ride-engine/internal/service/tracking"
	"github.com/urbango/ride-engine/internal/store"
	apperrors "github.com/urbango/ride-engine/pkg/errors"
	"github.com/urbango/ride-engine/pkg/logger"
)

// ErrRideNotFound indicates the ride id is neither active nor in history.
var ErrRideNotFound = errors.New("ride not found")

// arrivalLeadTime is the simulated pickup ETA attached to a new ride.
const arrivalLeadTime = 8 * time.Minute

// Notifier observes every update applied to a ride: the triggering tracking
// event plus a snapshot of the merged ride state.
type Notifier func(ev tracking.Event, snapshot *ride.Ride)

// Request carries what the rider chose: two resolved addresses and a class.
type Request struct {
	Pickup  ride.Address
	Dropoff ride.Address
	Class   ride.VehicleClass
}

// Service is the ride orchestrator. It exclusively owns every active Ride:
// tracking sessions only emit events, and all mutation funnels through apply
// under the service lock (single-writer discipline), so no two components
// ever race on the same ride.
type Service struct {
	pricing  *pricing.Service
	tracker  *tracking.Manager
	history  store.HistoryStore
	logger   *logger.Logger
	notifier Notifier

	mu     sync.Mutex
	active map[uuid.UUID]*ride.Ride
}

// NewService creates the orchestrator.
func NewService(p *pricing.Service, t *tracking.Manager, h store.HistoryStore, log *logger.Logger) *Service {
	return &Service{
		pricing: p,
		tracker: t,
		history: h,
		logger:  log,
		active:  make(map[uuid.UUID]*ride.Ride),
	}
}

// SetNotifier installs the update observer (e.g. the websocket fan-out).
// Call before the first RequestRide.
func (s *Service) SetNotifier(n Notifier) {
	s.notifier = n
}

// GetFareEstimates computes estimates for all vehicle classes concurrently.
// A class whose estimate fails maps to nil rather than aborting the others.
func (s *Service) GetFareEstimates(ctx context.Context, pickup, dropoff geo.Coordinate) map[ride.VehicleClass]*ride.FareEstimate {
	estimates := make(map[ride.VehicleClass]*ride.FareEstimate, len(ride.Classes))

	var (
		wg sync.WaitGroup
		mu sync.Mutex
	)
	for _, class := range ride.Classes {
		wg.Add(1)
		go func(class ride.VehicleClass) {
			defer wg.Done()
			est, err := s.pricing.Estimate(pickup, dropoff, class)
			if err != nil {
				s.logger.Warn("fare estimate unavailable",
					logger.String("vehicle_class", string(class)),
					logger.Err(err),
				)
				est = nil
			}
			mu.Lock()
			estimates[class] = est
			mu.Unlock()
		}(class)
	}
	wg.Wait()

	return estimates
}

// RequestRide creates a ride in requested status with a fresh fare estimate
// and starts its tracking session.
func (s *Service) RequestRide(ctx context.Context, req Request) (*ride.Ride, error) {
	if req.Pickup.Label == "" || req.Dropoff.Label == "" {
		return nil, apperrors.ErrMissingLocations
	}
	if !req.Class.IsValid() {
		return nil, apperrors.ErrInvalidVehicleClass
	}

	fare, err := s.pricing.Estimate(req.Pickup.Coordinate, req.Dropoff.Coordinate, req.Class)
	if err != nil {
		return nil, err
	}

	arrival := time.Now().Add(arrivalLeadTime)
	r := &ride.Ride{
		ID:               uuid.New(),
		Pickup:           req.Pickup,
		Dropoff:          req.Dropoff,
		Class:            req.Class,
		Status:           ride.StatusRequested,
		Fare:             *fare,
		CreatedAt:        time.Now(),
		EstimatedArrival: &arrival,
	}

	s.mu.Lock()
	s.active[r.ID] = r
	s.mu.Unlock()

	session := s.tracker.Start(r.ID, r.Class, r.Pickup.Coordinate)
	events, _ := session.Subscribe()
	go s.consume(r.ID, events)

	s.logger.Info("ride requested",
		logger.String("ride_id", r.ID.String()),
		logger.String("vehicle_class", string(r.Class)),
		logger.Float64("fare_total", fare.Total),
	)

	return r.Clone(), nil
}

// CancelRide cancels a ride if its status still allows it. Illegal
// cancellation (mid-trip or already terminal) surfaces ErrIllegalTransition
// to the caller rather than being swallowed.
func (s *Service) CancelRide(ctx context.Context, rideID uuid.UUID) (*ride.Ride, error) {
	s.mu.Lock()
	r, ok := s.active[rideID]
	if !ok {
		s.mu.Unlock()
		if archived, err := s.findArchived(ctx, rideID); err == nil && archived != nil {
			return nil, ride.ErrIllegalTransition
		}
		return nil, ErrRideNotFound
	}

	if err := r.Cancel(); err != nil {
		s.mu.Unlock()
		return nil, err
	}
	delete(s.active, rideID)
	snapshot := r.Clone()
	s.mu.Unlock()

	s.tracker.Stop(rideID)
	s.archive(ctx, snapshot)

	s.logger.Info("ride cancelled", logger.String("ride_id", rideID.String()))
	return snapshot, nil
}

// GetRide returns a snapshot of an active or archived ride.
func (s *Service) GetRide(ctx context.Context, rideID uuid.UUID) (*ride.Ride, error) {
	s.mu.Lock()
	if r, ok := s.active[rideID]; ok {
		snapshot := r.Clone()
		s.mu.Unlock()
		return snapshot, nil
	}
	s.mu.Unlock()

	archived, err := s.findArchived(ctx, rideID)
	if err != nil {
		return nil, err
	}
	if archived == nil {
		return nil, ErrRideNotFound
	}
	return archived, nil
}

// History lists terminated rides, newest first.
func (s *Service) History(ctx context.Context, limit int) ([]*ride.Ride, error) {
	return s.history.List(ctx, limit)
}

// Shutdown tears down all live tracking sessions.
func (s *Service) Shutdown() {
	s.tracker.StopAll()
}

// consume drains one ride's tracking feed. The channel closes on session
// teardown, which ends the goroutine.
func (s *Service) consume(rideID uuid.UUID, events <-chan tracking.Event) {
	for ev := range events {
		s.apply(rideID, ev)
	}
}

// apply merges one tracking event into the authoritative ride record,
// running the state machine's legality check before any mutation. An event
// arriving out of legal order is rejected, not applied.
func (s *Service) apply(rideID uuid.UUID, ev tracking.Event) {
	s.mu.Lock()
	r, ok := s.active[rideID]
	if !ok {
		// Ride already terminated (e.g. cancelled while the event was in
		// flight); the session is being torn down.
		s.mu.Unlock()
		return
	}

	switch ev.Type {
	case tracking.EventStatusChanged:
		var err error
		if ev.Status == ride.StatusAssigned {
			err = r.Assign(ev.Driver)
		} else {
			err = r.Transition(ev.Status)
		}
		if err != nil {
			s.mu.Unlock()
			s.logger.Warn("rejected tracking status event",
				logger.String("ride_id", rideID.String()),
				logger.String("status", string(ev.Status)),
				logger.Uint64("seq", ev.Seq),
				logger.Err(err),
			)
			return
		}

	case tracking.EventDriverMoved:
		if r.Driver == nil || ev.Location == nil {
			s.mu.Unlock()
			return
		}
		r.Driver.Location = *ev.Location
	}

	terminal := r.Status.IsTerminal()
	if terminal {
		delete(s.active, rideID)
	}
	snapshot := r.Clone()
	s.mu.Unlock()

	if s.notifier != nil {
		s.notifier(ev, snapshot)
	}

	if terminal {
		s.tracker.Stop(rideID)
		s.archive(context.Background(), snapshot)
		s.logger.Info("ride completed",
			logger.String("ride_id", rideID.String()),
			logger.String("status", string(snapshot.Status)),
		)
	}
}

// archive saves a terminal ride to the history store.
func (s *Service) archive(ctx context.Context, r *ride.Ride) {
	if err := s.history.Save(ctx, r); err != nil {
		s.logger.Error("failed to archive ride",
			logger.String("ride_id", r.ID.String()),
			logger.Err(err),
		)
	}
}

// findArchived scans history for a ride id. History is small and bounded,
// so a linear scan is fine.
func (s *Service) findArchived(ctx context.Context, rideID uuid.UUID) (*ride.Ride, error) {
	rides, err := s.history.List(ctx, 0)
	if err != nil {
		return nil, err
	}
	for _, r := range rides {
		if r.ID == rideID {
			return r, nil
		}
	}
	return nil, nil
}
