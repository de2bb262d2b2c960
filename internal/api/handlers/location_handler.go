package handlers

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/urbango/ride-engine/internal/geocoder"
	"github.com/urbango/ride-engine/pkg/logger"
)

// minQueryLen mirrors the search controller threshold: shorter queries get
// an empty suggestion set without touching the geocoder.
const minQueryLen = 3

// SearchLocations handles GET /v1/locations/search?q=
func (h *Handlers) SearchLocations(c *gin.Context) {
	query := c.Query("q")
	if len(query) < minQueryLen {
		c.JSON(http.StatusOK, gin.H{"suggestions": []geocoder.Suggestion{}})
		return
	}

	suggestions, err := h.Geocoder.Search(c.Request.Context(), query)
	if err != nil {
		// Geocoder failure degrades to an empty set, never a hard failure.
		h.Logger.Warn("Location search degraded",
			logger.String("query", query),
			logger.Err(err),
		)
		h.Monitor.RecordGeocoderFallback("search")
		suggestions = nil
	}
	if suggestions == nil {
		suggestions = []geocoder.Suggestion{}
	}

	c.JSON(http.StatusOK, gin.H{"suggestions": suggestions})
}

// ReverseGeocode handles GET /v1/locations/reverse?lat=&lng=
func (h *Handlers) ReverseGeocode(c *gin.Context) {
	lat, errLat := strconv.ParseFloat(c.Query("lat"), 64)
	lng, errLng := strconv.ParseFloat(c.Query("lng"), 64)
	if errLat != nil || errLng != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "lat and lng are required"})
		return
	}

	address, err := h.Geocoder.ReverseGeocode(c.Request.Context(), lat, lng)
	if err != nil {
		// Fall back to a formatted coordinate label.
		h.Logger.Warn("Reverse geocode degraded",
			logger.Float64("lat", lat),
			logger.Float64("lng", lng),
			logger.Err(err),
		)
		h.Monitor.RecordGeocoderFallback("reverse")
		address = geocoder.FallbackLabel(lat, lng)
	}

	c.JSON(http.StatusOK, gin.H{"address": address})
}
