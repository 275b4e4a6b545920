// Package main provides the entrypoint for the Switchback background worker.
package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/database"
	"github.com/switchbackmaps/switchback/internal/featureflags"
	"github.com/switchbackmaps/switchback/internal/provider/resilience"
	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/routing/osrm"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/internal/worker"
)

// Version and BuildTime are set at compile time via ldflags.
var (
	Version   = "dev"
	BuildTime = "unknown"
)

func main() {
	const serviceName = "switchback-worker"

	// Setup structured logging
	log := zerolog.New(os.Stdout).
		With().
		Timestamp().
		Str("service", serviceName).
		Str("version", Version).
		Logger()

	log.Info().
		Str("build_time", BuildTime).
		Msg("starting Switchback worker")

	// Worker also exposes a health endpoint for Cloud Run
	port := os.Getenv("APP_PORT")
	if port == "" {
		port = "8080"
	}

	// Create context for graceful shutdown
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

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

	// Initialize saved route service
	savedService := saved.NewService(saved.NewPostgresRepository(pool), log)

	// Initialize routing service backed by OSRM
	registry := resilience.NewRegistry()
	routingService := routing.NewService(routing.ServiceConfig{
		Provider: osrm.NewClient(osrm.ClientConfig{
			BaseURL:  os.Getenv("OSRM_BASE_URL"),
			Registry: registry,
			Logger:   log,
		}),
		Logger: log,
	})

	// Initialize feature flags service
	ffService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewPostgresRepository(pool),
		Logger:     log,
		CacheTTL:   1 * time.Minute,
	})

	// Initialize refresh job
	refreshJob := worker.NewRefreshJob(worker.RefreshJobConfig{
		Config:  worker.DefaultRefreshConfig(),
		Logger:  log,
		Routes:  savedService,
		Planner: routingService,
		Flags:   ffService,
	})

	// Create HTTP server for health checks
	mux := http.NewServeMux()
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, `{"status":"healthy","version":"%s"}`, Version)
	})

	server := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
	}

	go func() {
		log.Info().Str("addr", server.Addr).Msg("health check server listening")
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error().Err(err).Msg("health server error")
		}
	}()

	// Start the Pub/Sub subscriber when configured; fall back to a local
	// ticker so development environments without Pub/Sub still refresh.
	projectID := os.Getenv("GOOGLE_CLOUD_PROJECT")
	subscriptionName := os.Getenv("PUBSUB_SUBSCRIPTION")
	if subscriptionName == "" {
		subscriptionName = "switchback-worker-jobs"
	}

	if projectID != "" {
		pubsubHandler, err := worker.NewPubSubHandler(ctx, worker.PubSubConfig{
			ProjectID:        projectID,
			SubscriptionName: subscriptionName,
			RefreshJob:       refreshJob,
			Logger:           log,
		})
		if err != nil {
			log.Fatal().Err(err).Msg("failed to create pubsub handler")
		}
		defer func() {
			if closeErr := pubsubHandler.Close(); closeErr != nil {
				log.Error().Err(closeErr).Msg("failed to close pubsub client")
			}
		}()

		go func() {
			if err := pubsubHandler.Start(ctx); err != nil && ctx.Err() == nil {
				log.Fatal().Err(err).Msg("pubsub handler error")
			}
		}()
	} else {
		log.Warn().Msg("GOOGLE_CLOUD_PROJECT not set - running local refresh ticker")

		go func() {
			ticker := time.NewTicker(1 * time.Hour)
			defer ticker.Stop()

			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					result := refreshJob.Run(ctx)
					log.Info().
						Int("refreshed", result.Refreshed).
						Int("failed", result.Failed).
						Bool("disabled", result.Disabled).
						Msg("scheduled route refresh completed")
				}
			}
		}()
	}

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info().Msg("shutting down worker")
	cancel()

	// Graceful shutdown
	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("health server forced to shutdown")
	}

	log.Info().Msg("worker stopped")
}
