package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/urbango/ride-engine/internal/api/dto"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/internal/service/booking"
	apperrors "github.com/urbango/ride-engine/pkg/errors"
	"github.com/urbango/ride-engine/pkg/logger"
)

// EstimateFares handles POST /v1/fares/estimate
func (h *Handlers) EstimateFares(c *gin.Context) {
	var req dto.EstimateFaresRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	pickup := geo.Coordinate{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng}
	dropoff := geo.Coordinate{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng}
	if pickup.Validate() != nil || dropoff.Validate() != nil {
		h.respondAppError(c, apperrors.ErrInvalidCoordinates)
		return
	}

	start := time.Now()
	estimates := h.Booking.GetFareEstimates(c.Request.Context(), pickup, dropoff)
	h.Monitor.RecordEstimateLatency(float64(time.Since(start).Milliseconds()))

	// Failed classes surface as null entries, not as a request failure.
	c.JSON(http.StatusOK, gin.H{
		"estimates": estimates,
	})
}

// CreateRide handles POST /v1/rides
func (h *Handlers) CreateRide(c *gin.Context) {
	var req dto.CreateRideRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload", "details": err.Error()})
		return
	}

	class, err := ride.ParseVehicleClass(req.VehicleClass)
	if err != nil {
		h.respondAppError(c, apperrors.ErrInvalidVehicleClass)
		return
	}

	r, err := h.Booking.RequestRide(c.Request.Context(), booking.Request{
		Pickup: ride.Address{
			Coordinate: geo.Coordinate{Lat: req.Pickup.Lat, Lng: req.Pickup.Lng},
			Label:      req.Pickup.Address,
		},
		Dropoff: ride.Address{
			Coordinate: geo.Coordinate{Lat: req.Dropoff.Lat, Lng: req.Dropoff.Lng},
			Label:      req.Dropoff.Address,
		},
		Class: class,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordRideRequested(string(r.Class), r.Fare.Total)
	h.Logger.Info("Ride request accepted",
		logger.String("ride_id", r.ID.String()),
		logger.String("vehicle_class", string(r.Class)),
	)

	c.JSON(http.StatusCreated, r)
}

// GetRide handles GET /v1/rides/:id
func (h *Handlers) GetRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	r, err := h.Booking.GetRide(c.Request.Context(), rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, r)
}

// CancelRide handles POST /v1/rides/:id/cancel
func (h *Handlers) CancelRide(c *gin.Context) {
	rideID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ride id"})
		return
	}

	r, err := h.Booking.CancelRide(c.Request.Context(), rideID)
	if err != nil {
		h.respondError(c, err)
		return
	}

	h.Monitor.RecordRideCancelled(rideID.String())
	c.JSON(http.StatusOK, r)
}

// ListRides handles GET /v1/rides (ride history, newest first)
func (h *Handlers) ListRides(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	rides, err := h.Booking.History(c.Request.Context(), limit)
	if err != nil {
		h.Logger.Error("Failed to list ride history", logger.Err(err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to load ride history"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"rides": rides})
}

// respondError maps service errors onto the wire taxonomy.
func (h *Handlers) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, ride.ErrIllegalTransition):
		h.respondAppError(c, apperrors.ErrIllegalTransition)
	case errors.Is(err, booking.ErrRideNotFound):
		h.respondAppError(c, apperrors.ErrRideNotFound)
	case errors.Is(err, geo.ErrInvalidCoordinate):
		h.respondAppError(c, apperrors.ErrInvalidCoordinates)
	default:
		appErr := apperrors.GetAppError(err)
		if appErr.Status >= http.StatusInternalServerError {
			h.Logger.Error("Request failed", logger.Err(err))
		}
		h.respondAppError(c, appErr)
	}
}

func (h *Handlers) respondAppError(c *gin.Context, appErr *apperrors.AppError) {
	c.JSON(appErr.Status, dto.ErrorResponse{Code: appErr.Code, Message: appErr.Message})
}
