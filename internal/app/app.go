// Package app provides application-level coordination and dependency injection.
// It orchestrates the initialization of all service components, manages their lifecycles,
// and provides a clean application structure following dependency inversion principles.
package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/joacim-boive/phantom-tracker/internal/adapters/primary/rest"
	"github.com/joacim-boive/phantom-tracker/internal/adapters/secondary/coops"
	"github.com/joacim-boive/phantom-tracker/internal/adapters/secondary/openweather"
	"github.com/joacim-boive/phantom-tracker/internal/adapters/secondary/swpc"
	"github.com/joacim-boive/phantom-tracker/internal/config"
	"github.com/joacim-boive/phantom-tracker/internal/core/ports"
	"github.com/joacim-boive/phantom-tracker/internal/core/services"
	"github.com/joacim-boive/phantom-tracker/internal/infrastructure/cache"
	"github.com/joacim-boive/phantom-tracker/internal/infrastructure/circuitbreaker"
	"github.com/joacim-boive/phantom-tracker/internal/infrastructure/database"
	"github.com/joacim-boive/phantom-tracker/internal/middleware"
	"github.com/joacim-boive/phantom-tracker/internal/observability"
	"github.com/joacim-boive/phantom-tracker/internal/version"
)

// Server represents the HTTP server instance.
type Server struct {
	server *http.Server
	logger *zap.Logger
}

// App manages the application lifecycle and dependencies.
type App struct {
	cfg           *config.Config
	server        *Server
	metricsServer *http.Server
	logger        *zap.Logger
	telemetry     *observability.Telemetry
	db            *database.PostgresDB
}

// New creates a new application instance.
//
// Returns:
//   - *App: Configured application instance
//   - error: Logger initialization error
func New() (*App, error) {
	logger, err := zap.NewProduction()

	if err != nil {
		return nil, fmt.Errorf("failed to initialize logger: %w", err)
	}

	cfg := config.Load()

	return &App{
		cfg:    cfg,
		logger: logger,
	}, nil
}

// Start initializes and starts all application components.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Server start error
func (a *App) Start(ctx context.Context) error {
	if err := a.initTelemetry(ctx); err != nil {
		a.logger.Warn("failed to initialize telemetry, continuing without it", zap.Error(err))
	}

	kvCache := a.initKVCache(ctx)

	if err := a.initDatabase(); err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}

	environmentService := services.NewEnvironmentService(
		a.initProviderSources(kvCache),
		services.Config{
			FetchBatchSize: a.cfg.Assembly.FetchBatchSize,
			BatchDelay:     a.cfg.Assembly.BatchDelay,
			SnapshotTTL:    a.cfg.Assembly.SnapshotTTL,
			TidalStationID: a.cfg.Providers.TidalStationID,
			LocationName:   a.cfg.Assembly.LocationName,
		},
		a.logger,
	)

	environmentHandler := rest.NewEnvironmentHandler(environmentService, a.logger)

	router := a.setupRouter(environmentHandler, a.telemetry)

	a.server = &Server{
		server: &http.Server{
			Addr:         fmt.Sprintf(":%s", a.cfg.Server.Port),
			Handler:      router,
			ReadTimeout:  a.cfg.Server.ReadTimeout,
			WriteTimeout: a.cfg.Server.WriteTimeout,
			IdleTimeout:  a.cfg.Server.IdleTimeout,
		},
		logger: a.logger,
	}

	go func() {
		a.logger.Info("starting HTTP server", zap.String("port", a.cfg.Server.Port))

		if err := a.server.server.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Fatal("failed to start server", zap.Error(err))
			}
		}
	}()

	a.startMetricsServer()

	return nil
}

// Stop gracefully shuts down all application components.
func (a *App) Stop() {
	a.logger.Info("shutting down application...")

	if a.server != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()

		if err := a.server.server.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown server gracefully", zap.Error(err))
		}
	}

	if a.metricsServer != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.metricsServer.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown metrics server gracefully", zap.Error(err))
		}
	}

	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.logger.Error("failed to close database connection", zap.Error(err))
		}
	}

	if a.telemetry != nil {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		if err := a.telemetry.Shutdown(shutdownCtx); err != nil {
			a.logger.Error("failed to shutdown telemetry", zap.Error(err))
		}
	}

	if err := a.logger.Sync(); err != nil {
		// Sync can fail on some platforms, ignore the error
		_ = err
	}
}

// WaitForShutdown blocks until the server receives a shutdown signal.
func (a *App) WaitForShutdown() {
	// Wait for the interrupt signal to gracefully shut down the server
	quit := make(chan os.Signal, 1)

	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit
	a.logger.Info("shutdown signal received")
}

// initTelemetry initializes OpenTelemetry providers.
//
// Parameters:
//   - ctx: Context for initialization
//
// Returns:
//   - error: Telemetry initialization error
func (a *App) initTelemetry(ctx context.Context) error {
	telemetryConfig := observability.Config{
		ServiceName:    a.cfg.Observability.ServiceName,
		ServiceVersion: a.cfg.Observability.ServiceVersion,
		Environment:    a.cfg.Observability.Environment,
		OTLPEndpoint:   a.cfg.Observability.OTLPEndpoint,
		SampleRate:     a.cfg.Observability.SampleRate,
	}

	var err error
	a.telemetry, err = observability.InitTelemetry(ctx, telemetryConfig, a.logger)

	return err
}

// initKVCache initializes the Redis-backed or memory-backed key/value cache
// used for snapshot memoization and pressure-trend state.
//
// Parameters:
//   - ctx: Context for Redis connection testing
//
// Returns:
//   - ports.CacheService: Cache implementation (Redis or memory)
func (a *App) initKVCache(ctx context.Context) ports.CacheService {
	if !a.cfg.Redis.Enabled {
		a.logger.Info("Redis disabled, using memory-based cache")

		return cache.NewMemoryCache(5*time.Minute, 10*time.Minute, a.logger)
	}

	redisClient := redis.NewClient(&redis.Options{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	})

	if err := redisClient.Ping(ctx).Err(); err != nil {
		a.logger.Warn("Redis connection failed, falling back to memory-based cache", zap.Error(err))

		return cache.NewMemoryCache(5*time.Minute, 10*time.Minute, a.logger)
	}

	_ = redisClient.Close()

	a.logger.Info("Redis connected successfully")

	redisCfg := cache.Config{
		Addr:         a.cfg.Redis.Addr,
		Password:     a.cfg.Redis.Password,
		DB:           a.cfg.Redis.DB,
		PoolSize:     a.cfg.Redis.PoolSize,
		MinIdleConns: a.cfg.Redis.MinIdleConns,
		MaxRetries:   a.cfg.Redis.MaxRetries,
		DialTimeout:  a.cfg.Redis.DialTimeout,
		ReadTimeout:  a.cfg.Redis.ReadTimeout,
		WriteTimeout: a.cfg.Redis.WriteTimeout,
	}

	cacheService, err := cache.NewRedisCache(redisCfg, a.logger)

	if err != nil {
		a.logger.Warn("Redis cache initialization failed, falling back to memory-based cache", zap.Error(err))

		return cache.NewMemoryCache(5*time.Minute, 10*time.Minute, a.logger)
	}

	return cacheService
}

// initDatabase initializes the PostgreSQL history cache and runs pending
// migrations. The database is required: without it every history request
// would hammer the provider.
//
// Returns:
//   - error: Database connection or migration error
func (a *App) initDatabase() error {
	dbConfig := database.Config{
		Host:                  a.cfg.Database.Host,
		Port:                  a.cfg.Database.Port,
		User:                  a.cfg.Database.User,
		Password:              a.cfg.Database.Password,
		Database:              a.cfg.Database.Database,
		SSLMode:               a.cfg.Database.SSLMode,
		MaxConnections:        a.cfg.Database.MaxConnections,
		MaxIdleConnections:    a.cfg.Database.MaxIdleConnections,
		ConnectionMaxLifetime: a.cfg.Database.ConnectionMaxLifetime,
	}

	db, err := database.NewPostgresDB(dbConfig, a.logger)

	if err != nil {
		return err
	}

	if err := database.RunMigrations(db.DB(), a.logger); err != nil {
		return fmt.Errorf("failed to run migrations: %w", err)
	}

	a.db = db

	return nil
}

// initProviderSources creates the provider clients, wraps each in its own
// circuit breaker, and bundles them with the storage dependencies.
//
// Parameters:
//   - kvCache: Key/value cache for memoization and trend state
//
// Returns:
//   - services.Deps: Fully wired service dependencies
func (a *App) initProviderSources(kvCache ports.CacheService) services.Deps {
	httpClient := &http.Client{
		Timeout: a.cfg.Providers.HTTPTimeout,
	}

	weatherClient := openweather.NewClient(
		a.cfg.Providers.OpenWeatherBaseURL,
		a.cfg.Providers.OpenWeatherAPIKey,
		httpClient,
		a.logger,
	)
	swpcClient := swpc.NewClient(a.cfg.Providers.SWPCBaseURL, httpClient, a.logger)
	coopsClient := coops.NewClient(a.cfg.Providers.COOPSBaseURL, httpClient, a.logger)

	cbManager := circuitbreaker.NewManager(a.logger)
	cbConfig := circuitbreaker.Config{
		MaxRequests: 3,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
	}

	return services.Deps{
		WeatherCache: a.db,
		Historical: &breakerHistoricalSource{
			source:    weatherClient,
			cb:        cbManager.GetBreaker("openweather-history", cbConfig),
			telemetry: a.telemetry,
			name:      "openweather-history",
		},
		Current: &breakerCurrentSource{
			source:    weatherClient,
			cb:        cbManager.GetBreaker("openweather-current", cbConfig),
			telemetry: a.telemetry,
			name:      "openweather-current",
		},
		Geomagnetic: &breakerGeomagneticSource{
			source:    swpcClient,
			cb:        cbManager.GetBreaker("swpc-kp", cbConfig),
			telemetry: a.telemetry,
			name:      "swpc-kp",
		},
		Solar: &breakerSolarSource{
			source:    swpcClient,
			cb:        cbManager.GetBreaker("swpc-xray", cbConfig),
			telemetry: a.telemetry,
			name:      "swpc-xray",
		},
		Tidal: &breakerTidalSource{
			source:    coopsClient,
			cb:        cbManager.GetBreaker("coops-tides", cbConfig),
			telemetry: a.telemetry,
			name:      "coops-tides",
		},
		KV: kvCache,
	}
}

// startMetricsServer exposes Prometheus metrics on a separate port.
func (a *App) startMetricsServer() {
	metricsRouter := mux.NewRouter()
	metricsRouter.Handle("/metrics", promhttp.Handler())

	a.metricsServer = &http.Server{
		Addr:    fmt.Sprintf(":%s", a.cfg.Server.MetricsPort),
		Handler: metricsRouter,
	}

	go func() {
		a.logger.Info("starting metrics server", zap.String("port", a.cfg.Server.MetricsPort))

		if err := a.metricsServer.ListenAndServe(); err != nil {
			if !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("metrics server failed", zap.Error(err))
			}
		}
	}()
}

// setupRouter creates and configures the HTTP router with all middleware.
//
// Parameters:
//   - environmentHandler: Handler for environmental data endpoints
//   - telemetry: Telemetry instance for observability
//
// Returns:
//   - http.Handler: Configured router with all routes and middleware
func (a *App) setupRouter(
	environmentHandler *rest.EnvironmentHandler,
	telemetry *observability.Telemetry,
) http.Handler {
	router := mux.NewRouter()

	// Health check endpoint
	router.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		if a.db != nil {
			if err := a.db.Ping(); err != nil {
				w.WriteHeader(http.StatusServiceUnavailable)
				_, _ = w.Write([]byte("database unavailable"))

				return
			}
		}

		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	}).Methods("GET")

	// Version endpoint
	router.HandleFunc("/version", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)

		versionInfo := version.Get()

		if err := json.NewEncoder(w).Encode(versionInfo); err != nil {
			a.logger.Error("failed to encode version info", zap.Error(err))
		}
	}).Methods("GET")

	// Apply observability middleware if telemetry is available
	if telemetry != nil {
		obsMiddleware := middleware.NewObservabilityMiddleware(telemetry, a.logger)
		router.Use(obsMiddleware.TracingMiddleware)
		router.Use(obsMiddleware.MetricsMiddleware)
		router.Use(obsMiddleware.LoggingMiddleware)
	}

	// API routes
	api := router.PathPrefix("/api/v1").Subrouter()

	// Environment endpoints
	api.HandleFunc("/environment/current", environmentHandler.GetCurrentSnapshot).Methods("GET")
	api.HandleFunc("/environment/history", environmentHandler.GetHistory).Methods("GET")
	api.HandleFunc("/environment/cache/stats", environmentHandler.GetCacheStats).Methods("GET")

	return router
}
