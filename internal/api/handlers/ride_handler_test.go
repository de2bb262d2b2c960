package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urbango/ride-engine/internal/api/handlers"
	"github.com/urbango/ride-engine/internal/api/routes"
	"github.com/urbango/ride-engine/internal/domain/ride"
	"github.com/urbango/ride-engine/internal/geo"
	"github.com/urbango/ride-engine/internal/geocoder"
	"github.com/urbango/ride-engine/internal/service/booking"
	"github.com/urbango/ride-engine/internal/service/pricing"
	"github.com/urbango/ride-engine/internal/service/tracking"
	"github.com/urbango/ride-engine/internal/store"
	"github.com/urbango/ride-engine/pkg/logger"
	"github.com/urbango/ride-engine/pkg/monitoring"
	"github.com/urbango/ride-engine/pkg/websocket"
)

type stubGeocoder struct {
	suggestions []geocoder.Suggestion
	address     string
	err         error
}

func (s stubGeocoder) Search(ctx context.Context, query string) ([]geocoder.Suggestion, error) {
	return s.suggestions, s.err
}

func (s stubGeocoder) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	return s.address, s.err
}

func setupRouter(t *testing.T, g geocoder.Geocoder) *gin.Engine {
	t.Helper()
	gin.SetMode(gin.TestMode)

	log := logger.NewNop()
	tracker := tracking.NewManager(tracking.Schedule{
		AssignAfter:   time.Hour,
		AcceptAfter:   time.Hour,
		StartAfter:    time.Hour,
		MoveInterval:  time.Hour,
		JitterDegrees: 0.001,
	}, log)
	svc := booking.NewService(
		pricing.NewService(pricing.DefaultConfig()),
		tracker,
		store.NewMemoryStore(10),
		log,
	)
	t.Cleanup(svc.Shutdown)

	monitor, err := monitoring.New(monitoring.Config{Enabled: false})
	require.NoError(t, err)

	h := handlers.NewHandlers(svc, g, log, websocket.NewHub(log), monitor)
	router := gin.New()
	routes.SetupRoutes(router, h, nil)
	return router
}

func doJSON(t *testing.T, router *gin.Engine, method, path string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	return w
}

func createRideBody() map[string]interface{} {
	return map[string]interface{}{
		"pickup": map[string]interface{}{
			"lat": 28.6139, "lng": 77.2090, "address": "Connaught Place, New Delhi",
		},
		"dropoff": map[string]interface{}{
			"lat": 28.5355, "lng": 77.3910, "address": "Sector 18, Noida",
		},
		"vehicle_class": "car",
	}
}

func TestEstimateFaresEndpoint(t *testing.T) {
	router := setupRouter(t, stubGeocoder{})

	t.Run("returns all class estimates", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/fares/estimate", map[string]interface{}{
			"pickup":  map[string]float64{"lat": 28.6139, "lng": 77.2090},
			"dropoff": map[string]float64{"lat": 28.5355, "lng": 77.3910},
		})
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Estimates map[string]*ride.FareEstimate `json:"estimates"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Estimates, 3)
		require.NotNil(t, resp.Estimates["car"])
		assert.InDelta(t, 347.0, resp.Estimates["car"].Total, 1e-9)
		assert.Equal(t, 50, resp.Estimates["car"].DurationMin)
	})

	t.Run("rejects out of range coordinates", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/fares/estimate", map[string]interface{}{
			"pickup":  map[string]float64{"lat": 95, "lng": 77.2090},
			"dropoff": map[string]float64{"lat": 28.5355, "lng": 77.3910},
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
		assert.Contains(t, w.Body.String(), "BAD_REQUEST")
	})

	t.Run("rejects malformed payload", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/fares/estimate", map[string]interface{}{
			"pickup": "not an object",
		})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestCreateRideEndpoint(t *testing.T) {
	router := setupRouter(t, stubGeocoder{})

	t.Run("creates requested ride", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/rides", createRideBody())
		require.Equal(t, http.StatusCreated, w.Code)

		var r ride.Ride
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
		assert.Equal(t, ride.StatusRequested, r.Status)
		assert.Equal(t, ride.VehicleCar, r.Class)
		assert.Nil(t, r.Driver)
		assert.InDelta(t, 347.0, r.Fare.Total, 1e-9)
	})

	t.Run("rejects unknown vehicle class", func(t *testing.T) {
		body := createRideBody()
		body["vehicle_class"] = "rickshaw"
		w := doJSON(t, router, http.MethodPost, "/v1/rides", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("rejects missing dropoff", func(t *testing.T) {
		body := createRideBody()
		delete(body, "dropoff")
		w := doJSON(t, router, http.MethodPost, "/v1/rides", body)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestGetRideEndpoint(t *testing.T) {
	router := setupRouter(t, stubGeocoder{})

	w := doJSON(t, router, http.MethodPost, "/v1/rides", createRideBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created ride.Ride
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	t.Run("found", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/rides/"+created.ID.String(), nil)
		require.Equal(t, http.StatusOK, w.Code)

		var r ride.Ride
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
		assert.Equal(t, created.ID, r.ID)
	})

	t.Run("invalid id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/rides/not-a-uuid", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown id", func(t *testing.T) {
		w := doJSON(t, router, http.MethodGet, "/v1/rides/00000000-0000-0000-0000-000000000001", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
		assert.Contains(t, w.Body.String(), "NOT_FOUND")
	})
}

func TestCancelRideEndpoint(t *testing.T) {
	router := setupRouter(t, stubGeocoder{})

	w := doJSON(t, router, http.MethodPost, "/v1/rides", createRideBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created ride.Ride
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	cancelPath := fmt.Sprintf("/v1/rides/%s/cancel", created.ID)

	t.Run("cancels while cancellable", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, cancelPath, nil)
		require.Equal(t, http.StatusOK, w.Code)

		var r ride.Ride
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &r))
		assert.Equal(t, ride.StatusCancelled, r.Status)
	})

	t.Run("second cancel conflicts", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, cancelPath, nil)
		assert.Equal(t, http.StatusConflict, w.Code)
		assert.Contains(t, w.Body.String(), "ILLEGAL_TRANSITION")
	})

	t.Run("unknown ride", func(t *testing.T) {
		w := doJSON(t, router, http.MethodPost, "/v1/rides/00000000-0000-0000-0000-000000000001/cancel", nil)
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestListRidesEndpoint(t *testing.T) {
	router := setupRouter(t, stubGeocoder{})

	w := doJSON(t, router, http.MethodPost, "/v1/rides", createRideBody())
	require.Equal(t, http.StatusCreated, w.Code)
	var created ride.Ride
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &created))

	// History is empty until a ride terminates.
	w = doJSON(t, router, http.MethodGet, "/v1/rides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var resp struct {
		Rides []*ride.Ride `json:"rides"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Empty(t, resp.Rides)

	w = doJSON(t, router, http.MethodPost, fmt.Sprintf("/v1/rides/%s/cancel", created.ID), nil)
	require.Equal(t, http.StatusOK, w.Code)

	w = doJSON(t, router, http.MethodGet, "/v1/rides", nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Rides, 1)
	assert.Equal(t, created.ID, resp.Rides[0].ID)
	assert.Equal(t, ride.StatusCancelled, resp.Rides[0].Status)
}

func TestSearchLocationsEndpoint(t *testing.T) {
	suggestion := geocoder.Suggestion{
		DisplayName: "Connaught Place, New Delhi",
		Coordinate:  geo.Coordinate{Lat: 28.6139, Lng: 77.2090},
		PlaceID:     "place-cp",
	}

	t.Run("returns suggestions", func(t *testing.T) {
		router := setupRouter(t, stubGeocoder{suggestions: []geocoder.Suggestion{suggestion}})
		w := doJSON(t, router, http.MethodGet, "/v1/locations/search?q=connaught", nil)
		require.Equal(t, http.StatusOK, w.Code)

		var resp struct {
			Suggestions []geocoder.Suggestion `json:"suggestions"`
		}
		require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
		require.Len(t, resp.Suggestions, 1)
		assert.Equal(t, suggestion, resp.Suggestions[0])
	})

	t.Run("short query returns empty without lookup", func(t *testing.T) {
		router := setupRouter(t, stubGeocoder{err: geocoder.ErrUnavailable})
		w := doJSON(t, router, http.MethodGet, "/v1/locations/search?q=co", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"suggestions":[]`)
	})

	t.Run("geocoder failure degrades to empty set", func(t *testing.T) {
		router := setupRouter(t, stubGeocoder{err: geocoder.ErrUnavailable})
		w := doJSON(t, router, http.MethodGet, "/v1/locations/search?q=connaught", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), `"suggestions":[]`)
	})
}

func TestReverseGeocodeEndpoint(t *testing.T) {
	t.Run("returns resolved address", func(t *testing.T) {
		router := setupRouter(t, stubGeocoder{address: "Connaught Place, New Delhi"})
		w := doJSON(t, router, http.MethodGet, "/v1/locations/reverse?lat=28.6139&lng=77.2090", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "Connaught Place, New Delhi")
	})

	t.Run("falls back to coordinate label", func(t *testing.T) {
		router := setupRouter(t, stubGeocoder{err: geocoder.ErrUnavailable})
		w := doJSON(t, router, http.MethodGet, "/v1/locations/reverse?lat=28.6139&lng=77.2090", nil)
		require.Equal(t, http.StatusOK, w.Code)
		assert.Contains(t, w.Body.String(), "28.6139, 77.2090")
	})

	t.Run("missing params", func(t *testing.T) {
		router := setupRouter(t, stubGeocoder{})
		w := doJSON(t, router, http.MethodGet, "/v1/locations/reverse?lat=28.6139", nil)
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
