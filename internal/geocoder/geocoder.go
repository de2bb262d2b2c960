package geocoder

import (
	"context"
	"errors"

	"github.com/urbango/ride-engine/internal/geo"
)

// ErrUnavailable indicates the geocoding backend could not be reached or
// returned a failure. Callers degrade gracefully instead of propagating it.
var ErrUnavailable = errors.New("geocoder unavailable")

// Suggestion is one ranked result for a free-text location search.
// Ephemeral, produced per query, never persisted.
type Suggestion struct {
	DisplayName string         `json:"display_name"`
	Coordinate  geo.Coordinate `json:"coordinate"`
	PlaceID     string         `json:"place_id"`
}

// Geocoder is the external collaborator contract consumed by the core.
// Search returns a small bounded number of ranked results; an empty result
// is a valid, non-error outcome. ReverseGeocode returns a best-effort
// human-readable label or fails, in which case callers substitute
// FallbackLabel.
type Geocoder interface {
	Search(ctx context.Context, query string) ([]Suggestion, error)
	ReverseGeocode(ctx context.Context, lat, lng float64) (string, error)
}

// FallbackLabel formats a coordinate as the address label of last resort.
func FallbackLabel(lat, lng float64) string {
	return geo.Coordinate{Lat: lat, Lng: lng}.String()
}
