package geocoder

import "context"

// Unavailable is the geocoder used when no backend is configured. Every
// call fails with ErrUnavailable, which callers already degrade around:
// empty suggestion sets and coordinate fallback labels.
type Unavailable struct{}

// Search always fails with ErrUnavailable.
func (Unavailable) Search(ctx context.Context, query string) ([]Suggestion, error) {
	return nil, ErrUnavailable
}

// ReverseGeocode always fails with ErrUnavailable.
func (Unavailable) ReverseGeocode(ctx context.Context, lat, lng float64) (string, error) {
	return "", ErrUnavailable
}
