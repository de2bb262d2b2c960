package geo

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCoordinateValidate(t *testing.T) {
	tests := []struct {
		name    string
		coord   Coordinate
		wantErr bool
	}{
		{"valid delhi", Coordinate{Lat: 28.6139, Lng: 77.2090}, false},
		{"origin", Coordinate{Lat: 0, Lng: 0}, false},
		{"lat upper bound", Coordinate{Lat: 90, Lng: 0}, false},
		{"lat lower bound", Coordinate{Lat: -90, Lng: 0}, false},
		{"lng bounds", Coordinate{Lat: 0, Lng: -180}, false},
		{"lat too high", Coordinate{Lat: 90.1, Lng: 0}, true},
		{"lat too low", Coordinate{Lat: -91, Lng: 0}, true},
		{"lng too high", Coordinate{Lat: 0, Lng: 180.5}, true},
		{"lng too low", Coordinate{Lat: 0, Lng: -200}, true},
		{"nan lat", Coordinate{Lat: math.NaN(), Lng: 0}, true},
		{"nan lng", Coordinate{Lat: 0, Lng: math.NaN()}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.coord.Validate()
			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, ErrInvalidCoordinate)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestCoordinateString(t *testing.T) {
	c := Coordinate{Lat: 28.61394567, Lng: 77.209}
	assert.Equal(t, "28.6139, 77.2090", c.String())
}

func TestDistanceKm(t *testing.T) {
	connaughtPlace := Coordinate{Lat: 28.6139, Lng: 77.2090}
	noidaSector18 := Coordinate{Lat: 28.5355, Lng: 77.3910}

	t.Run("zero for identical points", func(t *testing.T) {
		assert.Zero(t, DistanceKm(connaughtPlace, connaughtPlace))
	})

	t.Run("symmetric", func(t *testing.T) {
		ab := DistanceKm(connaughtPlace, noidaSector18)
		ba := DistanceKm(noidaSector18, connaughtPlace)
		assert.InDelta(t, ab, ba, 1e-9)
	})

	t.Run("delhi to noida", func(t *testing.T) {
		d := DistanceKm(connaughtPlace, noidaSector18)
		assert.InDelta(t, 19.8, d, 0.05)
	})

	t.Run("quarter meridian", func(t *testing.T) {
		// Equator to pole along a meridian is a quarter of the
		// great circle: pi/2 * R.
		d := DistanceKm(Coordinate{Lat: 0, Lng: 0}, Coordinate{Lat: 90, Lng: 0})
		assert.InDelta(t, math.Pi/2*6371, d, 0.01)
	})
}
