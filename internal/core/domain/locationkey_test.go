package domain

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestCoordinates_LocationKey(t *testing.T) {
	tests := []struct {
		name     string
		coords   Coordinates
		expected string
	}{
		{
			name:     "san francisco",
			coords:   Coordinates{Latitude: 37.77, Longitude: -122.42},
			expected: "37.77,-122.42",
		},
		{
			name:     "rounds extra precision",
			coords:   Coordinates{Latitude: 37.77493, Longitude: -122.41942},
			expected: "37.77,-122.42",
		},
		{
			name:     "zero zero",
			coords:   Coordinates{Latitude: 0, Longitude: 0},
			expected: "0.00,0.00",
		},
		{
			name:     "southern hemisphere",
			coords:   Coordinates{Latitude: -33.8688, Longitude: 151.2093},
			expected: "-33.87,151.21",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.coords.LocationKey())
		})
	}
}

func TestParseLocationKey_RoundTrip(t *testing.T) {
	coords := []Coordinates{
		{Latitude: 37.77, Longitude: -122.42},
		{Latitude: 40.7128, Longitude: -74.0060},
		{Latitude: -33.8688, Longitude: 151.2093},
		{Latitude: 89.99, Longitude: 179.99},
		{Latitude: -89.99, Longitude: -179.99},
		{Latitude: 0.004, Longitude: -0.004},
	}

	for _, c := range coords {
		t.Run(c.LocationKey(), func(t *testing.T) {
			parsed, err := ParseLocationKey(c.LocationKey())

			assert.NoError(t, err)
			assert.InDelta(t, c.Latitude, parsed.Latitude, 0.01)
			assert.InDelta(t, c.Longitude, parsed.Longitude, 0.01)
		})
	}
}

func TestParseLocationKey_ExactCellCenter(t *testing.T) {
	// A key already at cell resolution parses back without loss.
	parsed, err := ParseLocationKey("37.77,-122.42")

	assert.NoError(t, err)
	assert.Equal(t, 37.77, parsed.Latitude)
	assert.Equal(t, -122.42, parsed.Longitude)
}

func TestParseLocationKey_Malformed(t *testing.T) {
	tests := []struct {
		name string
		key  string
	}{
		{name: "empty", key: ""},
		{name: "single field", key: "37.77"},
		{name: "three fields", key: "37.77,-122.42,12"},
		{name: "non-numeric latitude", key: "north,-122.42"},
		{name: "non-numeric longitude", key: "37.77,west"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseLocationKey(tt.key)

			assert.Error(t, err)

			var envErr *EnvironmentError
			assert.ErrorAs(t, err, &envErr)
			assert.Equal(t, "MALFORMED_LOCATION_KEY", envErr.Code)
		})
	}
}

func TestCoordinates_Validate(t *testing.T) {
	tests := []struct {
		coords  Coordinates
		wantErr bool
	}{
		{coords: Coordinates{Latitude: 40.7128, Longitude: -74.0060}},
		{coords: Coordinates{Latitude: 90, Longitude: 180}},
		{coords: Coordinates{Latitude: -90, Longitude: -180}},
		{coords: Coordinates{Latitude: 91, Longitude: 0}, wantErr: true},
		{coords: Coordinates{Latitude: 0, Longitude: -181}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(fmt.Sprintf("%v", tt.coords), func(t *testing.T) {
			err := tt.coords.Validate()

			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}
