package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/core/domain"
)

type PostgresDB struct {
	db     *sql.DB
	logger *zap.Logger
}

type Config struct {
	Host                  string
	Port                  int
	User                  string
	Password              string
	Database              string
	SSLMode               string
	MaxConnections        int
	MaxIdleConnections    int
	ConnectionMaxLifetime time.Duration
}

func NewPostgresDB(cfg Config, logger *zap.Logger) (*PostgresDB, error) {
	dsn := fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		cfg.Host, cfg.Port, cfg.User, cfg.Password, cfg.Database, cfg.SSLMode)

	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db.SetMaxOpenConns(cfg.MaxConnections)
	db.SetMaxIdleConns(cfg.MaxIdleConnections)
	db.SetConnMaxLifetime(cfg.ConnectionMaxLifetime)

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &PostgresDB{
		db:     db,
		logger: logger,
	}, nil
}

// GetMany loads the cached daily points for a location over a set of ISO
// dates. The result maps date to point; dates with no row are simply
// absent. A store fault is logged and reported as an empty cache so a
// database outage degrades to slower responses, never failed ones.
func (p *PostgresDB) GetMany(ctx context.Context, locationKey string, dates []string) (map[string]domain.HistoricalWeatherPoint, error) {
	tracer := otel.Tracer("database")
	ctx, span := tracer.Start(ctx, "WeatherCacheGetMany")
	defer span.End()

	span.SetAttributes(
		attribute.String("location_key", locationKey),
		attribute.Int("dates_requested", len(dates)),
	)

	result := make(map[string]domain.HistoricalWeatherPoint, len(dates))

	if len(dates) == 0 {
		return result, nil
	}

	query := `
		SELECT date, observed_at, temperature, feels_like, pressure,
		       humidity, wind_speed, description, clouds
		FROM weather_cache
		WHERE location_key = $1 AND date = ANY($2)
	`

	start := time.Now()
	rows, err := p.db.QueryContext(ctx, query, locationKey, pq.Array(dates))

	if err != nil {
		p.logger.Warn("weather cache read failed, treating as empty",
			zap.Error(err),
			zap.String("location_key", locationKey),
			zap.Duration("duration", time.Since(start)),
		)
		span.RecordError(err)
		return result, nil
	}

	defer func() {
		_ = rows.Close()
	}()

	for rows.Next() {
		var point domain.HistoricalWeatherPoint
		if err := rows.Scan(
			&point.Date,
			&point.Timestamp,
			&point.Temperature,
			&point.FeelsLike,
			&point.Pressure,
			&point.Humidity,
			&point.WindSpeed,
			&point.Description,
			&point.Clouds,
		); err != nil {
			p.logger.Warn("weather cache row scan failed, skipping",
				zap.Error(err),
				zap.String("location_key", locationKey),
			)
			continue
		}

		result[point.Date] = point
	}

	if err := rows.Err(); err != nil {
		p.logger.Warn("weather cache read interrupted, returning partial result",
			zap.Error(err),
			zap.String("location_key", locationKey),
		)
		span.RecordError(err)
	}

	p.logger.Debug("weather cache read",
		zap.String("location_key", locationKey),
		zap.Int("requested", len(dates)),
		zap.Int("found", len(result)),
		zap.Duration("duration", time.Since(start)),
	)

	return result, nil
}

// PutMany stores freshly fetched daily points. Conflicting rows are left
// untouched so concurrent fetchers converge on whichever wrote first; the
// values describe the same day either way.
func (p *PostgresDB) PutMany(ctx context.Context, locationKey string, points []domain.HistoricalWeatherPoint) error {
	tracer := otel.Tracer("database")
	ctx, span := tracer.Start(ctx, "WeatherCachePutMany")
	defer span.End()

	span.SetAttributes(
		attribute.String("location_key", locationKey),
		attribute.Int("points", len(points)),
	)

	if len(points) == 0 {
		return nil
	}

	tx, err := p.db.BeginTx(ctx, nil)

	if err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	defer func() {
		_ = tx.Rollback()
	}()

	query := `
		INSERT INTO weather_cache (
			location_key, date, observed_at, temperature, feels_like,
			pressure, humidity, wind_speed, description, clouds
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		ON CONFLICT (location_key, date) DO NOTHING
	`

	start := time.Now()

	for _, point := range points {
		if _, err := tx.ExecContext(ctx, query,
			locationKey,
			point.Date,
			point.Timestamp,
			point.Temperature,
			point.FeelsLike,
			point.Pressure,
			point.Humidity,
			point.WindSpeed,
			point.Description,
			point.Clouds,
		); err != nil {
			span.RecordError(err)
			return fmt.Errorf("failed to store point for %s: %w", point.Date, err)
		}
	}

	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		return fmt.Errorf("failed to commit weather cache write: %w", err)
	}

	p.logger.Debug("weather cache write",
		zap.String("location_key", locationKey),
		zap.Int("points", len(points)),
		zap.Duration("duration", time.Since(start)),
	)

	return nil
}

// Stats reports cache coverage for one location cell. Like GetMany it is
// fail-open: a store fault is logged and reported as empty coverage rather
// than an error, since stats is a diagnostic read over the same cache.
func (p *PostgresDB) Stats(ctx context.Context, locationKey string) (*domain.CacheStats, error) {
	query := `
		SELECT COUNT(*), COALESCE(MIN(date), ''), COALESCE(MAX(date), '')
		FROM weather_cache
		WHERE location_key = $1
	`

	stats := &domain.CacheStats{LocationKey: locationKey}

	err := p.db.QueryRowContext(ctx, query, locationKey).Scan(
		&stats.Count,
		&stats.OldestDate,
		&stats.NewestDate,
	)

	if err != nil {
		p.logger.Warn("cache stats read failed, reporting empty coverage",
			zap.Error(err),
			zap.String("location_key", locationKey),
		)

		return &domain.CacheStats{LocationKey: locationKey}, nil
	}

	return stats, nil
}

// DB exposes the underlying connection for the migration runner.
func (p *PostgresDB) DB() *sql.DB {
	return p.db
}

func (p *PostgresDB) Close() error {
	return p.db.Close()
}

func (p *PostgresDB) Ping() error {
	return p.db.Ping()
}
