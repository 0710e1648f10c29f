// Package ports defines the interfaces between the core environmental
// services and their adapters. Secondary adapters (provider clients, the
// weather cache store, key/value caches) implement the outbound interfaces;
// the REST layer consumes EnvironmentService.
package ports

import (
	"context"
	"time"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

// EnvironmentService is the API this core exposes to the rest of the
// system: resolve a historical daily series for a range, compose a current
// conditions snapshot, and report cache coverage.
type EnvironmentService interface {
	AssembleHistoricalRange(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.HistoricalWeatherPoint, error)
	AssembleCurrentSnapshot(ctx context.Context, coords domain.Coordinates) (*domain.EnvironmentalSnapshot, error)
	CacheStats(ctx context.Context, coords domain.Coordinates) (*domain.CacheStats, error)
}

// HistoricalSource fetches one point-in-time weather reading within a day.
// Implementations return either a normalized point or an error; they never
// let a vendor payload fault escape as anything but an error value.
// Swapping vendors means adding an implementation, not touching the
// assembler.
type HistoricalSource interface {
	FetchPointInTime(ctx context.Context, coords domain.Coordinates, at time.Time) (*domain.HistoricalWeatherPoint, error)
}

// CurrentWeatherSource fetches an instantaneous reading plus air quality.
type CurrentWeatherSource interface {
	FetchCurrent(ctx context.Context, coords domain.Coordinates) (*domain.CurrentWeather, error)
}

// GeomagneticSource fetches the latest planetary K-index value.
type GeomagneticSource interface {
	LatestKpIndex(ctx context.Context) (*domain.GeomagneticData, error)
}

// SolarSource fetches the latest X-ray flux reading.
type SolarSource interface {
	LatestXrayFlux(ctx context.Context) (*domain.SolarData, error)
}

// TidalSource fetches the current tidal state for a station.
type TidalSource interface {
	StationState(ctx context.Context, stationID string) (*domain.TidalData, error)
}

// WeatherCache is the durable per-day history cache keyed by
// (locationKey, date). Reads are fail-open: an unreachable store behaves as
// an empty cache rather than an error, since the cache is an optimization
// and never the source of truth. Writes are idempotent first-write-wins.
type WeatherCache interface {
	GetMany(ctx context.Context, locationKey string, dates []string) (map[string]domain.HistoricalWeatherPoint, error)
	PutMany(ctx context.Context, locationKey string, points []domain.HistoricalWeatherPoint) error
	Stats(ctx context.Context, locationKey string) (*domain.CacheStats, error)
}

// CacheService is a generic byte-value cache used for snapshot memoization
// and pressure-trend state. Implementations report misses with
// cache.ErrCacheMiss.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
