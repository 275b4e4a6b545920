// Package main provides the entrypoint for the Switchback API server.
package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/api"
	"github.com/switchbackmaps/switchback/internal/api/handler"
	"github.com/switchbackmaps/switchback/internal/api/middleware"
	"github.com/switchbackmaps/switchback/internal/curvature"
	"github.com/switchbackmaps/switchback/internal/database"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/featureflags"
	"github.com/switchbackmaps/switchback/internal/geocode"
	"github.com/switchbackmaps/switchback/internal/geocode/nominatim"
	"github.com/switchbackmaps/switchback/internal/provider/resilience"
	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/routing/osrm"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/internal/session"
	"github.com/switchbackmaps/switchback/internal/telemetry"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "switchback-api"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Switchback API")

	// Get configuration from environment
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	otlpEndpoint := os.Getenv("OTEL_EXPORTER_OTLP_ENDPOINT")
	if otlpEndpoint == "" {
		otlpEndpoint = "localhost:4317"
	}

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = "development"
	}

	// Initialize OpenTelemetry
	ctx := context.Background()
	telemetryEnabled := os.Getenv("OTEL_ENABLED") == "true"

	tp, err := telemetry.Init(ctx, telemetry.Config{
		ServiceName:    serviceName,
		ServiceVersion: Version,
		Environment:    env,
		OTLPEndpoint:   otlpEndpoint,
		Enabled:        telemetryEnabled,
	})
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize telemetry")
	}
	defer func() {
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if shutdownErr := tp.Shutdown(shutdownCtx); shutdownErr != nil {
			log.Error().Err(shutdownErr).Msg("failed to shutdown telemetry")
		}
	}()

	if telemetryEnabled {
		log.Info().
			Str("otlp_endpoint", otlpEndpoint).
			Msg("OpenTelemetry initialized")
	}

	// Initialize metrics
	metrics, err := middleware.NewMetrics()
	if err != nil {
		log.Error().Err(err).Msg("failed to initialize metrics")
		os.Exit(1) //nolint:gocritic // intentional exit, telemetry cleanup is best-effort
	}

	// Connect to database
	dbConfig := database.ConfigFromEnv()
	pool, err := database.Connect(ctx, dbConfig)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pool.Close()
	log.Info().
		Str("host", dbConfig.Host).
		Int("port", dbConfig.Port).
		Str("database", dbConfig.Database).
		Msg("database connected")

	// Provider registry tracks circuit state for the ops endpoints
	registry := resilience.NewRegistry()

	// Initialize session service (get signing key from environment)
	jwtSigningKey := os.Getenv("JWT_SIGNING_KEY")
	if jwtSigningKey == "" {
		jwtSigningKey = "local-dev-signing-key-change-in-production"
		log.Warn().Msg("using default JWT signing key - not secure for production")
	}

	sessionService := session.NewService(session.ServiceConfig{
		JWTService: session.NewJWTService(session.JWTConfig{
			SigningKey: jwtSigningKey,
		}),
		Repo:   session.NewPostgresRepository(pool),
		Logger: log,
	})
	log.Info().Msg("session service initialized")

	// Initialize routing service backed by OSRM
	osrmClient := osrm.NewClient(osrm.ClientConfig{
		BaseURL:  os.Getenv("OSRM_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: osrmClient,
		Logger:   log,
	})
	log.Info().Str("provider", osrmClient.Name()).Msg("routing service initialized")

	// Initialize geocoding service backed by Nominatim
	nominatimClient := nominatim.NewClient(nominatim.ClientConfig{
		BaseURL:  os.Getenv("NOMINATIM_BASE_URL"),
		Registry: registry,
		Logger:   log,
	})
	geocodeService := geocode.NewService(geocode.ServiceConfig{
		Provider: nominatimClient,
		Logger:   log,
	})
	log.Info().Str("provider", nominatimClient.Name()).Msg("geocoding service initialized")

	// Initialize saved route and segment services
	savedService := saved.NewService(saved.NewPostgresRepository(pool), log)
	segmentService := curvature.NewService(curvature.NewPostgresRepository(pool), log)

	// Initialize feature flags repository and service
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})
	log.Info().Msg("feature flags service initialized")

	// Initialize the per-session route builder manager. Segment chaining
	// validation is read once at startup.
	builders := engine.NewManager(engine.ManagerConfig{
		Engine: engine.Config{
			Planner:          routingService,
			Logger:           log,
			ValidateChaining: ffService.IsSegmentChainingEnabled(ctx),
		},
		Logger: log,
	})
	defer builders.Close()
	log.Info().Msg("route builder manager initialized")

	// Create router with configuration
	router := api.NewRouter(api.RouterConfig{
		Version:            Version,
		BuildTime:          BuildTime,
		Logger:             log,
		ServiceName:        serviceName,
		Metrics:            metrics,
		SessionService:     sessionService,
		SavedService:       savedService,
		SegmentService:     segmentService,
		GeocodeService:     geocodeService,
		FeatureFlagService: ffService,
		Builders:           builders,
		DB:                 pool,
		Providers:          []handler.HealthChecker{routingService, geocodeService},
		Registry:           registry,
	})

	// Create HTTP server
	server := &http.Server{
		Addr:         ":" + port,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	// Start server in goroutine
	go func() {
		log.Info().
			Str("addr", server.Addr).
			Msg("server listening")

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("server error")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down server")

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("server forced to shutdown")
		os.Exit(1)
	}

	log.Info().Msg("server stopped")
}
