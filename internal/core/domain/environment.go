// Package domain contains the core business entities for the environmental
// data subsystem. It defines the normalized shapes that provider responses
// are mapped into, independent of any vendor payload format or transport.
package domain

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Coordinates represent a geographic location using latitude and longitude.
type Coordinates struct {
	// Latitude specifies the north-south position (-90 to 90 degrees)
	Latitude float64

	// Longitude specifies the east-west position (-180 to 180 degrees)
	Longitude float64
}

// Validate checks if the coordinates are within valid geographic bounds.
func (c Coordinates) Validate() error {
	if c.Latitude < -90 || c.Latitude > 90 {
		return fmt.Errorf("latitude must be between -90 and 90, got %f", c.Latitude)
	}

	if c.Longitude < -180 || c.Longitude > 180 {
		return fmt.Errorf("longitude must be between -180 and 180, got %f", c.Longitude)
	}

	return nil
}

// HistoricalWeatherPoint is the canonical mid-day weather reading for one
// calendar day at one location cell. Date is the ISO calendar day the point
// represents; Timestamp is the epoch second of the sample actually used.
type HistoricalWeatherPoint struct {
	Date        string  `json:"date"`
	Timestamp   int64   `json:"timestamp"`
	Temperature float64 `json:"temperature"`
	FeelsLike   float64 `json:"feels_like"`
	Pressure    float64 `json:"pressure"`
	Humidity    float64 `json:"humidity"`
	WindSpeed   float64 `json:"wind_speed"`
	Description string  `json:"weather_description"`
	Clouds      float64 `json:"clouds"`
}

// CurrentWeather is an instantaneous weather reading plus air quality.
// AQI uses the provider's 1-5 category scale; 0 means unavailable.
type CurrentWeather struct {
	Temperature   float64 `json:"temperature"`
	FeelsLike     float64 `json:"feels_like"`
	Pressure      float64 `json:"pressure"`
	Humidity      float64 `json:"humidity"`
	WindSpeed     float64 `json:"wind_speed"`
	Description   string  `json:"weather_description"`
	Clouds        float64 `json:"clouds"`
	AQI           int     `json:"aqi,omitempty"`
	PressureTrend string  `json:"pressure_trend,omitempty"`
}

// LunarData holds computed lunar state for an instant. Pure computation,
// always present in a snapshot.
type LunarData struct {
	PhaseFraction float64 `json:"phase_fraction"`
	PhaseName     string  `json:"phase_name"`
	Illumination  float64 `json:"illumination"`
	DistanceKM    float64 `json:"distance_km"`
	DistanceTrend string  `json:"distance_trend"`
}

// TemporalData holds computed solar/calendar state for an instant and
// location. Pure computation, always present in a snapshot.
type TemporalData struct {
	Sunrise           time.Time `json:"sunrise"`
	Sunset            time.Time `json:"sunset"`
	DayLengthHours    float64   `json:"day_length_hours"`
	DaysSinceSolstice int       `json:"days_since_solstice"`
	LastSolstice      string    `json:"last_solstice"`
}

// GeomagneticData is the latest planetary K-index reading. Storm flags
// Kp at or above 5, the threshold for geomagnetic storm conditions.
type GeomagneticData struct {
	KpIndex    float64   `json:"kp_index"`
	Storm      bool      `json:"storm"`
	ObservedAt time.Time `json:"observed_at"`
}

// SolarData is the latest X-ray flux reading with its flare classification.
type SolarData struct {
	Flux             float64   `json:"flux"`
	Class            string    `json:"class"`
	FlareProbability float64   `json:"flare_probability"`
	ObservedAt       time.Time `json:"observed_at"`
}

// TidalData is the current tidal state at a station.
type TidalData struct {
	StationID      string    `json:"station_id"`
	WaterLevel     float64   `json:"water_level"`
	State          string    `json:"state"`
	NextEventType  string    `json:"next_event_type"`
	NextEventAt    time.Time `json:"next_event_at"`
	NextEventLevel float64   `json:"next_event_level"`
	ObservedAt     time.Time `json:"observed_at"`
}

// EnvironmentalSnapshot bundles all current environmental readings plus the
// computed astronomical and temporal values for one instant and location.
// Weather, Geomagnetic, Solar and Tidal are independently nil when their
// provider is unreachable; Lunar and Temporal are computed locally and are
// always present. Snapshots are built fresh per request and never persisted
// by this subsystem (pain entries embed them as opaque blobs elsewhere).
type EnvironmentalSnapshot struct {
	ID           uuid.UUID        `json:"id"`
	ObservedAt   time.Time        `json:"observed_at"`
	LocationKey  string           `json:"location_key"`
	LocationName string           `json:"location_name,omitempty"`
	Weather      *CurrentWeather  `json:"weather"`
	Lunar        LunarData        `json:"lunar"`
	Geomagnetic  *GeomagneticData `json:"geomagnetic"`
	Solar        *SolarData       `json:"solar"`
	Tidal        *TidalData       `json:"tidal"`
	Temporal     TemporalData     `json:"temporal"`
}

// CacheStats describes the cached history held for one location key.
type CacheStats struct {
	LocationKey string `json:"location_key"`
	Count       int    `json:"count"`
	OldestDate  string `json:"oldest_date,omitempty"`
	NewestDate  string `json:"newest_date,omitempty"`
}

// EnvironmentError represents domain-specific errors for environmental
// operations. It provides structured error information with error codes
// and optional underlying causes.
type EnvironmentError struct {
	// Code identifies the type of error for programmatic handling
	Code string

	// Message provides a human-readable error description
	Message string

	// Cause wraps an underlying error if applicable
	Cause error
}

// Error implements the error interface for EnvironmentError.
func (e EnvironmentError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Code, e.Message, e.Cause)
	}

	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Unwrap exposes the underlying cause for errors.Is/As chains.
func (e EnvironmentError) Unwrap() error {
	return e.Cause
}
