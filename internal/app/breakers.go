package app

import (
	"context"
	"time"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
	"github.com/joacim-boive/phantom-tracker/internal/core/ports"
	"github.com/joacim-boive/phantom-tracker/internal/infrastructure/circuitbreaker"
	"github.com/joacim-boive/phantom-tracker/internal/observability"
)

// The breaker wrappers put each upstream feed behind its own circuit
// breaker and count every fetch attempt per provider. A tripped breaker
// surfaces as a plain error, which the assembler already treats as that
// provider being unavailable.

// recordFetch increments the per-provider fetch counter. Telemetry is nil
// when initialization failed at startup.
func recordFetch(ctx context.Context, telemetry *observability.Telemetry, provider string, err error) {
	if telemetry != nil {
		telemetry.RecordProviderFetch(ctx, provider, err)
	}
}

type breakerHistoricalSource struct {
	source    ports.HistoricalSource
	cb        *circuitbreaker.CircuitBreakerWrapper
	telemetry *observability.Telemetry
	name      string
}

func (b *breakerHistoricalSource) FetchPointInTime(ctx context.Context, coords domain.Coordinates, at time.Time) (*domain.HistoricalWeatherPoint, error) {
	var point *domain.HistoricalWeatherPoint

	err := b.cb.Execute(ctx, "FetchPointInTime", func() error {
		var err error
		point, err = b.source.FetchPointInTime(ctx, coords, at)

		return err
	})

	recordFetch(ctx, b.telemetry, b.name, err)

	if err != nil {
		return nil, err
	}

	return point, nil
}

type breakerCurrentSource struct {
	source    ports.CurrentWeatherSource
	cb        *circuitbreaker.CircuitBreakerWrapper
	telemetry *observability.Telemetry
	name      string
}

func (b *breakerCurrentSource) FetchCurrent(ctx context.Context, coords domain.Coordinates) (*domain.CurrentWeather, error) {
	var weather *domain.CurrentWeather

	err := b.cb.Execute(ctx, "FetchCurrent", func() error {
		var err error
		weather, err = b.source.FetchCurrent(ctx, coords)

		return err
	})

	recordFetch(ctx, b.telemetry, b.name, err)

	if err != nil {
		return nil, err
	}

	return weather, nil
}

type breakerGeomagneticSource struct {
	source    ports.GeomagneticSource
	cb        *circuitbreaker.CircuitBreakerWrapper
	telemetry *observability.Telemetry
	name      string
}

func (b *breakerGeomagneticSource) LatestKpIndex(ctx context.Context) (*domain.GeomagneticData, error) {
	var data *domain.GeomagneticData

	err := b.cb.Execute(ctx, "LatestKpIndex", func() error {
		var err error
		data, err = b.source.LatestKpIndex(ctx)

		return err
	})

	recordFetch(ctx, b.telemetry, b.name, err)

	if err != nil {
		return nil, err
	}

	return data, nil
}

type breakerSolarSource struct {
	source    ports.SolarSource
	cb        *circuitbreaker.CircuitBreakerWrapper
	telemetry *observability.Telemetry
	name      string
}

func (b *breakerSolarSource) LatestXrayFlux(ctx context.Context) (*domain.SolarData, error) {
	var data *domain.SolarData

	err := b.cb.Execute(ctx, "LatestXrayFlux", func() error {
		var err error
		data, err = b.source.LatestXrayFlux(ctx)

		return err
	})

	recordFetch(ctx, b.telemetry, b.name, err)

	if err != nil {
		return nil, err
	}

	return data, nil
}

type breakerTidalSource struct {
	source    ports.TidalSource
	cb        *circuitbreaker.CircuitBreakerWrapper
	telemetry *observability.Telemetry
	name      string
}

func (b *breakerTidalSource) StationState(ctx context.Context, stationID string) (*domain.TidalData, error) {
	var data *domain.TidalData

	err := b.cb.Execute(ctx, "StationState", func() error {
		var err error
		data, err = b.source.StationState(ctx, stationID)

		return err
	})

	recordFetch(ctx, b.telemetry, b.name, err)

	if err != nil {
		return nil, err
	}

	return data, nil
}
