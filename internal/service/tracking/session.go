package tracking

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/domain/driver"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/pkg/logger"
)

// EventType discriminates tracking events
type EventType string

const (
	EventStatusChanged EventType = "status_changed"
	EventDriverMoved   EventType = "driver_moved"
)

// Event is one emission in a ride's live feed. Events for a ride are
// strictly ordered; Seq increases monotonically per session.
type Event struct {
	RideID   uuid.UUID       `json:"ride_id"`
	Type     EventType       `json:"type"`
	Seq      uint64          `json:"seq"`
	Status   ride.Status     `json:"status,omitempty"`
	Driver   *ride.Driver    `json:"driver,omitempty"`
	Location *geo.Coordinate `json:"location,omitempty"`
	At       time.Time       `json:"at"`
}

// Schedule fixes when the simulated feed emits. The delays stand in for real
// dispatch timing; a production backend would replace the delay source while
// preserving the emission contract.
type Schedule struct {
	AssignAfter   time.Duration
	AcceptAfter   time.Duration
	StartAfter    time.Duration
	CompleteAfter time.Duration // zero disables automatic completion
	MoveInterval  time.Duration
	JitterDegrees float64 // full width of the uniform per-axis position jitter
}

// DefaultSchedule returns the standard simulation timing.
func DefaultSchedule() Schedule {
	return Schedule{
		AssignAfter:   3 * time.Second,
		AcceptAfter:   8 * time.Second,
		StartAfter:    15 * time.Second,
		CompleteAfter: 45 * time.Second,
		MoveInterval:  5 * time.Second,
		JitterDegrees: 0.001,
	}
}

// Session produces the live event feed for one active ride: scheduled status
// transitions and driver position deltas. All emissions come from a single
// goroutine, so observers see one total order. Multiple observers of the
// same ride receive the same sequence (broadcast, not one-shot queue).
type Session struct {
	rideID   uuid.UUID
	class    ride.VehicleClass
	pickup   geo.Coordinate
	schedule Schedule
	drivers  *driver.Pool
	rng      *rand.Rand
	logger   *logger.Logger

	mu      sync.Mutex
	subs    map[int]chan Event
	nextSub int
	seq     uint64

	done     chan struct{}
	stopOnce sync.Once
}

// subscriberBuffer absorbs short consumer stalls without reordering.
const subscriberBuffer = 64

// NewSession creates a session for one ride identifier. Call Run to start
// the feed.
func NewSession(rideID uuid.UUID, class ride.VehicleClass, pickup geo.Coordinate, schedule Schedule, rng *rand.Rand, log *logger.Logger) *Session {
	return &Session{
		rideID:   rideID,
		class:    class,
		pickup:   pickup,
		schedule: schedule,
		drivers:  driver.NewPool(rng),
		rng:      rng,
		logger:   log.With(logger.String("ride_id", rideID.String())),
		subs:     make(map[int]chan Event),
		done:     make(chan struct{}),
	}
}

// Subscribe registers an observer. The returned cancel func detaches it and
// closes its channel; the channel is also closed on session stop.
func (s *Session) Subscribe() (<-chan Event, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	ch := make(chan Event, subscriberBuffer)
	select {
	case <-s.done:
		// Already stopped: hand back a closed channel so consumers drain
		// and exit instead of blocking forever.
		close(ch)
		return ch, func() {}
	default:
	}

	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		if sub, ok := s.subs[id]; ok {
			delete(s.subs, id)
			close(sub)
		}
	}
	return ch, cancel
}

// Run drives the feed until the simulated trip completes or Stop is called.
// Blocking; callers run it in a goroutine.
func (s *Session) Run() {
	assign := time.NewTimer(s.schedule.AssignAfter)
	accept := time.NewTimer(s.schedule.AcceptAfter)
	start := time.NewTimer(s.schedule.StartAfter)
	move := time.NewTicker(s.schedule.MoveInterval)
	defer func() {
		assign.Stop()
		accept.Stop()
		start.Stop()
		move.Stop()
	}()

	var complete <-chan time.Time
	if s.schedule.CompleteAfter > 0 {
		t := time.NewTimer(s.schedule.CompleteAfter)
		defer t.Stop()
		complete = t.C
	}

	// Position state lives in this goroutine only; consumers get copies.
	var drv *ride.Driver

	for {
		select {
		case <-s.done:
			return

		case <-assign.C:
			drv = s.drivers.Pick(s.class, s.pickup)
			d := *drv
			s.emit(Event{Type: EventStatusChanged, Status: ride.StatusAssigned, Driver: &d})

		case <-accept.C:
			s.emit(Event{Type: EventStatusChanged, Status: ride.StatusAccepted})

		case <-start.C:
			s.emit(Event{Type: EventStatusChanged, Status: ride.StatusOnTrip})

		case <-complete:
			s.emit(Event{Type: EventStatusChanged, Status: ride.StatusCompleted})
			s.Stop()
			return

		case <-move.C:
			if drv == nil {
				continue // no driver attached yet
			}
			drv.Location.Lat += (s.rng.Float64() - 0.5) * s.schedule.JitterDegrees
			drv.Location.Lng += (s.rng.Float64() - 0.5) * s.schedule.JitterDegrees
			loc := drv.Location
			s.emit(Event{Type: EventDriverMoved, Location: &loc})
		}
	}
}

// Stop tears the session down: no event fires after it returns and all
// subscriber channels are closed. Idempotent.
func (s *Session) Stop() {
	s.stopOnce.Do(func() {
		close(s.done)

		s.mu.Lock()
		defer s.mu.Unlock()
		for id, ch := range s.subs {
			delete(s.subs, id)
			close(ch)
		}
		s.logger.Debug("tracking session stopped", logger.Uint64("events_emitted", s.seq))
	})
}

// Stopped reports whether the session has been torn down.
func (s *Session) Stopped() bool {
	select {
	case <-s.done:
		return true
	default:
		return false
	}
}

// emit stamps and broadcasts one event to every subscriber, in order.
// Sends, unsubscribes, and stop all serialize on mu, so a send can never
// race a channel close. A subscriber that has fallen subscriberBuffer
// events behind is dropped rather than allowed to stall the feed.
func (s *Session) emit(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()

	select {
	case <-s.done:
		return
	default:
	}

	s.seq++
	ev.Seq = s.seq
	ev.RideID = s.rideID
	ev.At = time.Now()

	for id, ch := range s.subs {
		select {
		case ch <- ev:
		default:
			delete(s.subs, id)
			close(ch)
			s.logger.Warn("dropping stalled tracking subscriber",
				logger.Int("subscriber", id),
				logger.Uint64("seq", ev.Seq),
			)
		}
	}
}
