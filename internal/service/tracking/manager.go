package tracking

import (
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/pkg/logger"
)

// Manager indexes live sessions by ride identifier. Session lifecycle is
// tied to ride identity: one session per active ride, torn down when the
// ride terminates.
type Manager struct {
	schedule Schedule
	logger   *logger.Logger

	mu       sync.Mutex
	sessions map[uuid.UUID]*Session
}

// NewManager creates a session manager with the given simulation schedule.
func NewManager(schedule Schedule, log *logger.Logger) *Manager {
	return &Manager{
		schedule: schedule,
		logger:   log,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Start creates and runs a session for the ride. If one is already live for
// this ride it is returned unchanged.
func (m *Manager) Start(rideID uuid.UUID, class ride.VehicleClass, pickup geo.Coordinate) *Session {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.sessions[rideID]; ok && !s.Stopped() {
		return s
	}

	rng := rand.New(rand.NewSource(time.Now().UnixNano()))
	s := NewSession(rideID, class, pickup, m.schedule, rng, m.logger)
	m.sessions[rideID] = s
	go s.Run()

	m.logger.Info("tracking session started",
		logger.String("ride_id", rideID.String()),
		logger.String("vehicle_class", string(class)),
	)
	return s
}

// Get returns the session for a ride, if one exists.
func (m *Manager) Get(rideID uuid.UUID) (*Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[rideID]
	return s, ok
}

// Stop tears down the ride's session and forgets it.
func (m *Manager) Stop(rideID uuid.UUID) {
	m.mu.Lock()
	s, ok := m.sessions[rideID]
	delete(m.sessions, rideID)
	m.mu.Unlock()

	if ok {
		s.Stop()
	}
}

// StopAll tears down every live session, for shutdown.
func (m *Manager) StopAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for id, s := range m.sessions {
		sessions = append(sessions, s)
		delete(m.sessions, id)
	}
	m.mu.Unlock()

	for _, s := range sessions {
		s.Stop()
	}
}
