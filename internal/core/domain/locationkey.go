package domain

import (
	"fmt"
	"strconv"
	"strings"
)

// Location keys coarsen coordinates to two decimal places (roughly a 1.1 km
// cell) so that nearby requests share cached history. Distinct requesters
// inside the same cell intentionally collide on the same rows; historical
// weather does not vary meaningfully across a cell and the collision is what
// makes the cache effective against a rate-limited upstream.

// LocationKey derives the cache key for these coordinates. Rounding is
// deterministic, so the same cell always produces the same key.
func (c Coordinates) LocationKey() string {
	return fmt.Sprintf("%.2f,%.2f", c.Latitude, c.Longitude)
}

// ParseLocationKey is the inverse of LocationKey. It recovers the cell
// center coordinates, accurate to the 0.01 degree rounding resolution.
// A key that does not contain exactly two numeric fields yields a
// MALFORMED_LOCATION_KEY error; this is the one failure in the subsystem
// that propagates to callers, since it indicates a programming error rather
// than an environmental condition.
func ParseLocationKey(key string) (Coordinates, error) {
	parts := strings.Split(key, ",")

	if len(parts) != 2 {
		return Coordinates{}, &EnvironmentError{
			Code:    "MALFORMED_LOCATION_KEY",
			Message: fmt.Sprintf("location key %q must contain exactly two comma-separated fields", key),
		}
	}

	lat, err := strconv.ParseFloat(strings.TrimSpace(parts[0]), 64)

	if err != nil {
		return Coordinates{}, &EnvironmentError{
			Code:    "MALFORMED_LOCATION_KEY",
			Message: fmt.Sprintf("location key %q has a non-numeric latitude", key),
			Cause:   err,
		}
	}

	lon, err := strconv.ParseFloat(strings.TrimSpace(parts[1]), 64)

	if err != nil {
		return Coordinates{}, &EnvironmentError{
			Code:    "MALFORMED_LOCATION_KEY",
			Message: fmt.Sprintf("location key %q has a non-numeric longitude", key),
			Cause:   err,
		}
	}

	return Coordinates{Latitude: lat, Longitude: lon}, nil
}
