// Package config provides centralized configuration management for the
// environmental data service. It loads configuration from environment
// variables with sensible defaults, supporting different deployment
// environments (development, staging, production).
package config

import (
	"os"
	"strconv"
	"time"
)

// Config holds all configuration settings for the environmental data
// service. It aggregates configuration for all service components including
// HTTP server, databases, external provider feeds, assembly behavior, and
// observability tools.
type Config struct {
	Server        ServerConfig
	Redis         RedisConfig
	Database      DatabaseConfig
	Observability ObservabilityConfig
	Providers     ProvidersConfig
	Assembly      AssemblyConfig
}

// ServerConfig contains HTTP server settings and timeouts.
// These settings control how the service handles incoming requests.
type ServerConfig struct {
	Port         string
	MetricsPort  string
	Environment  string
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// RedisConfig contains settings for the Redis key/value cache used for
// snapshot memoization and pressure-trend state. When disabled the service
// falls back to an in-process cache.
type RedisConfig struct {
	Enabled      bool
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	MaxRetries   int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DatabaseConfig contains PostgreSQL connection settings for the durable
// weather history cache.
type DatabaseConfig struct {
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

// ObservabilityConfig contains settings for distributed tracing and metrics.
type ObservabilityConfig struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	SampleRate     float64
}

// ProvidersConfig contains settings for the external environmental data
// feeds.
type ProvidersConfig struct {
	// OpenWeatherBaseURL and OpenWeatherAPIKey configure the weather and
	// air quality provider.
	OpenWeatherBaseURL string
	OpenWeatherAPIKey  string

	// SWPCBaseURL configures the NOAA space weather feeds.
	SWPCBaseURL string

	// COOPSBaseURL and TidalStationID configure the NOAA tide data API.
	// An empty station ID disables tidal readings.
	COOPSBaseURL   string
	TidalStationID string

	// HTTPTimeout bounds every provider call.
	HTTPTimeout time.Duration
}

// AssemblyConfig tunes how historical ranges and snapshots are assembled.
type AssemblyConfig struct {
	// FetchBatchSize is how many uncached days are fetched concurrently.
	FetchBatchSize int

	// BatchDelay is the pause between fetch batches, pacing requests
	// against the provider's rate limits.
	BatchDelay time.Duration

	// SnapshotTTL is how long an assembled snapshot is memoized.
	SnapshotTTL time.Duration

	// LocationName labels snapshots for display.
	LocationName string
}

// Load reads configuration from environment variables and returns a Config instance.
//
// Returns:
//   - *Config: Configuration with values from environment or defaults
func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("PORT", "8080"),
			MetricsPort:  getEnv("METRICS_PORT", "9090"),
			Environment:  getEnv("ENVIRONMENT", "development"),
			ReadTimeout:  15 * time.Second,
			WriteTimeout: 15 * time.Second,
			IdleTimeout:  60 * time.Second,
		},
		Redis: RedisConfig{
			Enabled:      getEnvAsBool("REDIS_ENABLED", true),
			Addr:         getEnv("REDIS_ADDR", "localhost:6379"),
			Password:     getEnv("REDIS_PASSWORD", ""),
			DB:           getEnvAsInt("REDIS_DB", 0),
			PoolSize:     10,
			MinIdleConns: 5,
			MaxRetries:   3,
			DialTimeout:  5 * time.Second,
			ReadTimeout:  3 * time.Second,
			WriteTimeout: 3 * time.Second,
		},
		Database: DatabaseConfig{
			Host:                  getEnv("DB_HOST", "localhost"),
			Port:                  getEnvAsInt("DB_PORT", 5432),
			User:                  getEnv("DB_USER", "phantom"),
			Password:              getEnv("DB_PASSWORD", ""),
			Database:              getEnv("DB_NAME", "phantom_tracker"),
			SSLMode:               getEnv("DB_SSLMODE", "disable"),
			MaxConnections:        25,
			MaxIdleConnections:    5,
			ConnectionMaxLifetime: 5 * time.Minute,
		},
		Observability: ObservabilityConfig{
			ServiceName:    "phantom-tracker-environment",
			ServiceVersion: getEnv("VERSION", "1.0.0"),
			Environment:    getEnv("ENVIRONMENT", "development"),
			OTLPEndpoint:   getEnv("OTEL_EXPORTER_OTLP_ENDPOINT", "localhost:4317"),
			SampleRate:     0.1,
		},
		Providers: ProvidersConfig{
			OpenWeatherBaseURL: getEnv("OPENWEATHER_BASE_URL", "https://api.openweathermap.org"),
			OpenWeatherAPIKey:  getEnv("OPENWEATHER_API_KEY", ""),
			SWPCBaseURL:        getEnv("SWPC_BASE_URL", "https://services.swpc.noaa.gov"),
			COOPSBaseURL:       getEnv("COOPS_BASE_URL", "https://api.tidesandcurrents.noaa.gov"),
			TidalStationID:     getEnv("TIDAL_STATION_ID", ""),
			HTTPTimeout:        getEnvAsDuration("PROVIDER_HTTP_TIMEOUT", 30*time.Second),
		},
		Assembly: AssemblyConfig{
			FetchBatchSize: getEnvAsInt("FETCH_BATCH_SIZE", 10),
			BatchDelay:     getEnvAsDuration("FETCH_BATCH_DELAY", time.Second),
			SnapshotTTL:    getEnvAsDuration("SNAPSHOT_TTL", 10*time.Minute),
			LocationName:   getEnv("LOCATION_NAME", ""),
		},
	}
}

// getEnv retrieves an environment variable value with a fallback default.
//
// Parameters:
//   - key: Environment variable name
//   - defaultValue: Value to use if variable is not set
//
// Returns:
//   - string: Environment value or default
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}

	return defaultValue
}

// getEnvAsInt retrieves an environment variable as an integer with a fallback default.
//
// Parameters:
//   - key: Environment variable name
//   - defaultValue: Value to use if variable is not set or invalid
//
// Returns:
//   - int: Parsed integer value or default
func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}

	return defaultValue
}

// getEnvAsBool retrieves an environment variable as a boolean with a fallback default.
//
// Parameters:
//   - key: Environment variable name
//   - defaultValue: Value to use if variable is not set or invalid
//
// Returns:
//   - bool: Parsed boolean value or default
func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}

	return defaultValue
}

// getEnvAsDuration retrieves an environment variable as a duration with a fallback default.
//
// Parameters:
//   - key: Environment variable name
//   - defaultValue: Value to use if variable is not set or invalid
//
// Returns:
//   - time.Duration: Parsed duration value or default
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if duration, err := time.ParseDuration(value); err == nil {
			return duration
		}
	}

	return defaultValue
}
