// Package services implements the environmental assembly logic: resolving a
// historical daily series through the cache and the historical provider, and
// composing current-conditions snapshots from independent sources.
package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/astro"
	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
	"github.com/joacim-boive/phantom-tracker/internal/core/ports"
)

const (
	// defaultMaxRangeDays caps one historical assembly; upstream history
	// providers impose a 90 day lookback ceiling.
	defaultMaxRangeDays = 90

	// defaultFetchBatchSize is how many uncached dates are fetched in
	// parallel before pausing.
	defaultFetchBatchSize = 10

	// defaultBatchDelay is the fixed pacing delay between provider
	// batches. Fixed rather than adaptive: the range cap already bounds
	// total request volume per call.
	defaultBatchDelay = time.Second

	// defaultSnapshotTTL memoizes a composed snapshot per location cell so
	// repeated polls do not re-fan-out to every provider.
	defaultSnapshotTTL = 10 * time.Minute

	// pressureSampleTTL bounds how old a previous pressure sample may be
	// and still feed the trend comparison.
	pressureSampleTTL = 12 * time.Hour

	// pressureTrendThreshold is the hPa delta below which the trend is
	// reported as stable.
	pressureTrendThreshold = 0.5

	dateLayout = "2006-01-02"
)

// Config tunes assembly behavior. Zero values fall back to the defaults
// above.
type Config struct {
	MaxRangeDays   int
	FetchBatchSize int
	BatchDelay     time.Duration
	SnapshotTTL    time.Duration
	TidalStationID string
	LocationName   string
}

// Deps collects the outbound dependencies of the environment service. The
// cache client and every provider source are injected explicitly; nothing
// here reaches for package-level singletons, which is what lets tests swap
// in in-memory fakes.
type Deps struct {
	WeatherCache ports.WeatherCache
	Historical   ports.HistoricalSource
	Current      ports.CurrentWeatherSource
	Geomagnetic  ports.GeomagneticSource
	Solar        ports.SolarSource
	Tidal        ports.TidalSource
	KV           ports.CacheService
}

type environmentService struct {
	deps   Deps
	cfg    Config
	logger *zap.Logger
}

// NewEnvironmentService creates the environment service with the given
// dependencies and configuration.
func NewEnvironmentService(deps Deps, cfg Config, logger *zap.Logger) ports.EnvironmentService {
	if cfg.MaxRangeDays <= 0 {
		cfg.MaxRangeDays = defaultMaxRangeDays
	}

	if cfg.FetchBatchSize <= 0 {
		cfg.FetchBatchSize = defaultFetchBatchSize
	}

	if cfg.BatchDelay <= 0 {
		cfg.BatchDelay = defaultBatchDelay
	}

	if cfg.SnapshotTTL <= 0 {
		cfg.SnapshotTTL = defaultSnapshotTTL
	}

	return &environmentService{
		deps:   deps,
		cfg:    cfg,
		logger: logger,
	}
}

// AssembleHistoricalRange resolves the complete daily series for an
// inclusive date range: one batched cache read, provider fetches for the
// misses in paced parallel batches, a best-effort cache write-back, then a
// date-sorted merge. Days for which neither the cache nor the provider
// produced data are simply absent from the output; total provider
// unavailability degrades to cached-only, never a rejected request.
func (s *environmentService) AssembleHistoricalRange(ctx context.Context, coords domain.Coordinates, start, end time.Time) ([]domain.HistoricalWeatherPoint, error) {
	if err := coords.Validate(); err != nil {
		return nil, &domain.EnvironmentError{
			Code:    "INVALID_COORDINATES",
			Message: "The provided coordinates are invalid",
			Cause:   err,
		}
	}

	startDay := midnightUTC(start)
	endDay := midnightUTC(end)

	if endDay.Before(startDay) {
		return nil, &domain.EnvironmentError{
			Code:    "INVALID_RANGE",
			Message: "End date precedes start date",
		}
	}

	rangeDays := int(endDay.Sub(startDay).Hours()/24) + 1

	if rangeDays > s.cfg.MaxRangeDays {
		return nil, &domain.EnvironmentError{
			Code:    "RANGE_TOO_WIDE",
			Message: fmt.Sprintf("Range spans %d days; at most %d days per request", rangeDays, s.cfg.MaxRangeDays),
		}
	}

	// Enumerate every calendar day at the canonical noon UTC sampling
	// instant, and compute the cache key once for the whole range.
	dates := make([]string, 0, rangeDays)
	samples := make(map[string]time.Time, rangeDays)

	for day := startDay; !day.After(endDay); day = day.AddDate(0, 0, 1) {
		date := day.Format(dateLayout)
		dates = append(dates, date)
		samples[date] = day.Add(12 * time.Hour)
	}

	locationKey := coords.LocationKey()

	cached, err := s.deps.WeatherCache.GetMany(ctx, locationKey, dates)

	if err != nil {
		// The store is already fail-open; this is belt and braces.
		s.logger.Warn("weather cache read failed, treating as empty",
			zap.String("location_key", locationKey),
			zap.Error(err))

		cached = map[string]domain.HistoricalWeatherPoint{}
	}

	missing := make([]string, 0, len(dates))

	for _, date := range dates {
		if _, ok := cached[date]; !ok {
			missing = append(missing, date)
		}
	}

	s.logger.Info("assembling historical range",
		zap.String("location_key", locationKey),
		zap.Int("days", rangeDays),
		zap.Int("cache_hits", len(cached)),
		zap.Int("cache_misses", len(missing)))

	fetched := s.fetchMissing(ctx, coords, missing, samples)

	if len(fetched) > 0 {
		if err := s.deps.WeatherCache.PutMany(ctx, locationKey, fetched); err != nil {
			// Freshly fetched data is still returned to the caller; a
			// failed cache write never fails the request.
			s.logger.Warn("weather cache write failed",
				zap.String("location_key", locationKey),
				zap.Int("points", len(fetched)),
				zap.Error(err))
		}
	}

	points := make([]domain.HistoricalWeatherPoint, 0, len(cached)+len(fetched))

	for _, point := range cached {
		points = append(points, point)
	}

	points = append(points, fetched...)

	sort.Slice(points, func(i, j int) bool {
		return points[i].Date < points[j].Date
	})

	return points, nil
}

// fetchMissing invokes the historical source for each uncached date in
// fixed-size parallel batches with a fixed delay between batches. A failure
// for an individual date drops only that date.
func (s *environmentService) fetchMissing(ctx context.Context, coords domain.Coordinates, missing []string, samples map[string]time.Time) []domain.HistoricalWeatherPoint {
	var (
		mu      sync.Mutex
		fetched []domain.HistoricalWeatherPoint
	)

	for offset := 0; offset < len(missing); offset += s.cfg.FetchBatchSize {
		batchEnd := offset + s.cfg.FetchBatchSize

		if batchEnd > len(missing) {
			batchEnd = len(missing)
		}

		var wg sync.WaitGroup

		for _, date := range missing[offset:batchEnd] {
			wg.Add(1)

			go func(date string, at time.Time) {
				defer wg.Done()

				point, err := s.deps.Historical.FetchPointInTime(ctx, coords, at)

				if err != nil {
					// Partial success is expected and normal.
					s.logger.Warn("historical fetch failed for date",
						zap.String("date", date),
						zap.Error(err))

					return
				}

				point.Date = date

				mu.Lock()
				fetched = append(fetched, *point)
				mu.Unlock()
			}(date, samples[date])
		}

		wg.Wait()

		if batchEnd < len(missing) {
			time.Sleep(s.cfg.BatchDelay)
		}
	}

	return fetched
}

// AssembleCurrentSnapshot fans out to all current-data providers in
// parallel and merges the results with the locally computed lunar and
// temporal records. Each provider branch is isolated: a failure yields nil
// for that field without affecting the others.
func (s *environmentService) AssembleCurrentSnapshot(ctx context.Context, coords domain.Coordinates) (*domain.EnvironmentalSnapshot, error) {
	if err := coords.Validate(); err != nil {
		return nil, &domain.EnvironmentError{
			Code:    "INVALID_COORDINATES",
			Message: "The provided coordinates are invalid",
			Cause:   err,
		}
	}

	locationKey := coords.LocationKey()
	memoKey := "env:snapshot:" + locationKey

	if data, err := s.deps.KV.Get(ctx, memoKey); err == nil {
		var snapshot domain.EnvironmentalSnapshot

		if err := json.Unmarshal(data, &snapshot); err == nil {
			s.logger.Debug("snapshot served from memo",
				zap.String("location_key", locationKey))

			return &snapshot, nil
		}

		s.logger.Warn("discarding unreadable memoized snapshot",
			zap.String("location_key", locationKey))
	}

	now := time.Now().UTC()

	var (
		wg          sync.WaitGroup
		weather     *domain.CurrentWeather
		geomagnetic *domain.GeomagneticData
		solar       *domain.SolarData
		tidal       *domain.TidalData
	)

	wg.Add(3)

	go func() {
		defer wg.Done()

		result, err := s.deps.Current.FetchCurrent(ctx, coords)

		if err != nil {
			s.logger.Warn("current weather unavailable", zap.Error(err))
			return
		}

		weather = result
	}()

	go func() {
		defer wg.Done()

		result, err := s.deps.Geomagnetic.LatestKpIndex(ctx)

		if err != nil {
			s.logger.Warn("geomagnetic index unavailable", zap.Error(err))
			return
		}

		geomagnetic = result
	}()

	go func() {
		defer wg.Done()

		result, err := s.deps.Solar.LatestXrayFlux(ctx)

		if err != nil {
			s.logger.Warn("solar flux unavailable", zap.Error(err))
			return
		}

		solar = result
	}()

	// Tidal data only applies to coastal deployments; without a configured
	// station there is nothing to ask for.
	if s.cfg.TidalStationID != "" {
		wg.Add(1)

		go func() {
			defer wg.Done()

			result, err := s.deps.Tidal.StationState(ctx, s.cfg.TidalStationID)

			if err != nil {
				s.logger.Warn("tidal state unavailable",
					zap.String("station_id", s.cfg.TidalStationID),
					zap.Error(err))

				return
			}

			tidal = result
		}()
	}

	wg.Wait()

	if weather != nil {
		weather.PressureTrend = s.pressureTrend(ctx, locationKey, weather.Pressure)
	}

	snapshot := &domain.EnvironmentalSnapshot{
		ID:           uuid.New(),
		ObservedAt:   now,
		LocationKey:  locationKey,
		LocationName: s.cfg.LocationName,
		Weather:      weather,
		Lunar:        astro.LunarFor(now),
		Geomagnetic:  geomagnetic,
		Solar:        solar,
		Tidal:        tidal,
		Temporal:     astro.TemporalFor(now, coords),
	}

	if data, err := json.Marshal(snapshot); err == nil {
		if err := s.deps.KV.Set(ctx, memoKey, data, s.cfg.SnapshotTTL); err != nil {
			s.logger.Debug("snapshot memoization failed", zap.Error(err))
		}
	}

	return snapshot, nil
}

// pressureTrend compares the current pressure against the previous stored
// sample for the cell and classifies the movement. The first sample, or a
// sample older than the retention window, reports unknown rather than
// fabricating a stable reading.
func (s *environmentService) pressureTrend(ctx context.Context, locationKey string, pressure float64) string {
	stateKey := "env:pressure:" + locationKey
	trend := "unknown"

	if data, err := s.deps.KV.Get(ctx, stateKey); err == nil {
		if previous, err := strconv.ParseFloat(string(data), 64); err == nil {
			delta := pressure - previous

			switch {
			case delta >= pressureTrendThreshold:
				trend = "rising"
			case delta <= -pressureTrendThreshold:
				trend = "falling"
			default:
				trend = "stable"
			}
		}
	}

	value := strconv.FormatFloat(pressure, 'f', -1, 64)

	if err := s.deps.KV.Set(ctx, stateKey, []byte(value), pressureSampleTTL); err != nil {
		s.logger.Debug("pressure sample store failed", zap.Error(err))
	}

	return trend
}

// CacheStats reports the cached history coverage for the coordinates' cell.
func (s *environmentService) CacheStats(ctx context.Context, coords domain.Coordinates) (*domain.CacheStats, error) {
	if err := coords.Validate(); err != nil {
		return nil, &domain.EnvironmentError{
			Code:    "INVALID_COORDINATES",
			Message: "The provided coordinates are invalid",
			Cause:   err,
		}
	}

	return s.deps.WeatherCache.Stats(ctx, coords.LocationKey())
}

func midnightUTC(t time.Time) time.Time {
	t = t.UTC()

	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}
