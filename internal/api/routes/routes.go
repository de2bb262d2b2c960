package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/newrelic/go-agent/v3/integrations/nrgin"
	"github.com/newrelic/go-agent/v3/newrelic"
	"github.com/urbango/ride-engine/internal/api/handlers"
)

// SetupRoutes configures all API routes
func SetupRoutes(r *gin.Engine, h *handlers.Handlers, nrApp *newrelic.Application) {
	// Add New Relic middleware if enabled
	if nrApp != nil {
		r.Use(nrgin.Middleware(nrApp))
	}

	// Health check
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "healthy"})
	})

	// API v1 routes
	v1 := r.Group("/v1")
	{
		// Live tracking feed
		v1.GET("/ws", h.HandleWebSocket)

		// Fare estimates
		v1.POST("/fares/estimate", h.EstimateFares)

		// Ride endpoints
		rides := v1.Group("/rides")
		{
			rides.POST("", h.CreateRide)
			rides.GET("", h.ListRides)
			rides.GET("/:id", h.GetRide)
			rides.POST("/:id/cancel", h.CancelRide)
		}

		// Location endpoints
		locations := v1.Group("/locations")
		{
			locations.GET("/search", h.SearchLocations)
			locations.GET("/reverse", h.ReverseGeocode)
		}
	}
}
