package handlers

import (
	"github.com/urbango/ride-engine/internal/geocoder"
	"github.com/urbango/ride-engine/internal/service/booking"
	"github.com/urbango/ride-engine/pkg/logger"
	"github.com/urbango/ride-engine/pkg/monitoring"
	"github.com/urbango/ride-engine/pkg/websocket"
)

// Handlers holds all handler dependencies
type Handlers struct {
	Booking  *booking.Service
	Geocoder geocoder.Geocoder
	Logger   *logger.Logger
	Hub      *websocket.Hub
	Monitor  *monitoring.NewRelicApp
}

// NewHandlers creates a new Handlers instance
func NewHandlers(b *booking.Service, g geocoder.Geocoder, log *logger.Logger, hub *websocket.Hub, monitor *monitoring.NewRelicApp) *Handlers {
	return &Handlers{
		Booking:  b,
		Geocoder: g,
		Logger:   log,
		Hub:      hub,
		Monitor:  monitor,
	}
}
