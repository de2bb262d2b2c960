package geocoder

import (
	"context"
	"fmt"

	"googlemaps.github.io/maps"

	"github.com/urbango/ride-engine/internal/geo"
)

// maxSuggestions bounds the ranked results returned per search.
const maxSuggestions = 5

// GoogleMaps is the production Geocoder backed by the Google Maps
// Geocoding API.
type GoogleMaps struct {
	client *maps.Client
	region string
}

// NewGoogleMaps creates a Google Maps geocoder with the given API key.
// region optionally biases results (ccTLD code, e.g. "in").
func NewGoogleMaps(apiKey, region string) (*GoogleMaps, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create maps client: %w", err)
	}
	return &GoogleMaps{client: client, region: region}, nil
}

// Search forward-geocodes a free-text query into ranked suggestions.
func (g *GoogleMaps) Search(ctx context.Context, query string) ([]Suggestion, error) {
	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{
		Address: query,
		Region:  g.region,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	suggestions := make([]Suggestion, 0, maxSuggestions)
	for _, r := range results {
		suggestions = append(suggestions, Suggestion{
			DisplayName: r.FormattedAddress,
			Coordinate: geo.Coordinate{
				Lat: r.Geometry.Location.Lat,
				Lng: r.Geometry.Location.Lng,
			},
			PlaceID: r.PlaceID,
		})
		if len(suggestions) >= maxSuggestions {
			break
		}
	}
	return suggestions, nil
}

// ReverseGeocode resolves a coordinate into its best-effort address label.
func (g *GoogleMaps) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	results, err := g.client.ReverseGeocode(ctx, &maps.GeocodingRequest{
		LatLng: &maps.LatLng{Lat: lat, Lng: lng},
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if len(results) == 0 {
		return "", fmt.Errorf("%w: no results", ErrUnavailable)
	}
	return results[0].FormattedAddress, nil
}
