// Package api provides the HTTP API for Switchback.
package api

import (
	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/api/handler"
	"github.com/switchbackmaps/switchback/internal/api/middleware"
	"github.com/switchbackmaps/switchback/internal/curvature"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/featureflags"
	"github.com/switchbackmaps/switchback/internal/geocode"
	"github.com/switchbackmaps/switchback/internal/provider/resilience"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/internal/session"
)

// RouterConfig holds configuration for the router.
type RouterConfig struct {
	Version            string
	BuildTime          string
	Logger             zerolog.Logger
	ServiceName        string
	Metrics            *middleware.Metrics
	SessionService     *session.Service
	SavedService       *saved.Service
	SegmentService     *curvature.Service
	GeocodeService     *geocode.Service
	FeatureFlagService *featureflags.Service
	Builders           *engine.Manager
	DB                 handler.Pinger
	Providers          []handler.HealthChecker
	Registry           *resilience.Registry
}

// NewRouter creates a new chi router with all API routes configured.
func NewRouter(cfg RouterConfig) *chi.Mux {
	r := chi.NewRouter()

	// Set default service name if not provided
	serviceName := cfg.ServiceName
	if serviceName == "" {
		serviceName = "switchback-api"
	}

	// Global middleware - order matters
	r.Use(middleware.RequestID)            // Generate/propagate request ID first
	r.Use(middleware.Tracing(serviceName)) // Distributed tracing
	if cfg.Metrics != nil {
		r.Use(cfg.Metrics.Middleware()) // HTTP metrics
	}
	r.Use(middleware.Logger(cfg.Logger))   // Structured logging
	r.Use(middleware.Recovery(cfg.Logger)) // Panic recovery
	r.Use(chimiddleware.RealIP)            // Real IP extraction
	r.Use(middleware.SecurityHeaders)      // Security headers (HSTS, CSP, etc.)
	r.Use(middleware.RequireTLS)           // TLS enforcement (enabled via REQUIRE_TLS=true)
	r.Use(middleware.ContentTypeJSON)      // JSON content type

	// Initialize handlers
	opsHandler := handler.NewOpsHandler(handler.OpsHandlerConfig{
		Version:   cfg.Version,
		BuildTime: cfg.BuildTime,
		DB:        cfg.DB,
		Providers: cfg.Providers,
		Registry:  cfg.Registry,
		Builders:  cfg.Builders,
	})
	sessionHandler := handler.NewSessionHandler(cfg.SessionService, cfg.SavedService, cfg.Builders)
	builderHandler := handler.NewBuilderHandler(cfg.Builders, cfg.SegmentService, cfg.SavedService)
	routesHandler := handler.NewRoutesHandler(cfg.SavedService, cfg.Builders, cfg.FeatureFlagService)
	segmentsHandler := handler.NewSegmentsHandler(cfg.SegmentService)
	geocodeHandler := handler.NewGeocodeHandler(cfg.GeocodeService, cfg.FeatureFlagService)
	featureFlagsHandler := handler.NewFeatureFlagsHandler(cfg.FeatureFlagService)

	// Create session middleware
	sessionMiddleware := middleware.Session(cfg.SessionService)

	// Create rate limit middleware for different endpoint categories
	sessionCreateRateLimit := middleware.RateLimitByIP(middleware.AuthRateLimit)       // 10 req/min
	expensiveRateLimit := middleware.RateLimitByIP(middleware.ExpensiveRateLimit)      // 30 req/min
	standardRateLimit := middleware.RateLimitByIP(middleware.StandardRateLimit)        // 100 req/min
	builderRateLimit := middleware.RateLimitBySession(middleware.StandardRateLimit)    // 100 req/min per session

	// API v1 routes
	r.Route("/v1", func(r chi.Router) {
		// Session endpoints - creation is public, strictly rate limited
		r.Route("/sessions", func(r chi.Router) {
			r.With(sessionCreateRateLimit).Post("/", sessionHandler.Create)
			r.With(sessionMiddleware).Get("/me", sessionHandler.Get)
			r.With(sessionMiddleware).Delete("/me", sessionHandler.End)
		})

		// Ops endpoints (public)
		r.Route("/ops", func(r chi.Router) {
			r.Get("/health", opsHandler.HealthCheck)
			r.Get("/ready", opsHandler.ReadinessCheck)
			// Status endpoint requires a session
			r.With(sessionMiddleware).Get("/status", opsHandler.SystemStatus)
		})

		// Route builder endpoints (per-session working state)
		r.Route("/builder", func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Use(builderRateLimit)
			r.Get("/", builderHandler.State)
			r.Delete("/", builderHandler.Clear)
			r.Post("/waypoints", builderHandler.AddWaypoint)
			r.Post("/waypoints/reorder", builderHandler.ReorderWaypoint)
			r.Route("/waypoints/{waypointId}", func(r chi.Router) {
				r.Patch("/", builderHandler.MoveWaypoint)
				r.Delete("/", builderHandler.RemoveWaypoint)
			})
			r.Post("/segments", builderHandler.AddSegment)
			r.Post("/cancel", builderHandler.CancelRecalculation)
			r.Post("/restore", builderHandler.Restore)
		})

		// Saved routes (session-scoped)
		r.Route("/routes", func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Use(builderRateLimit)
			r.Get("/", routesHandler.List)
			r.Post("/", routesHandler.Save)
			r.Get("/shared/{slug}", routesHandler.GetBySlug)
			r.Route("/{routeId}", func(r chi.Router) {
				r.Get("/", routesHandler.Get)
				r.Patch("/", routesHandler.Update)
				r.Delete("/", routesHandler.Delete)
				r.Get("/export/{format}", routesHandler.Export)
			})
		})

		// Curated segments (public) - standard rate limiting
		r.Route("/segments", func(r chi.Router) {
			r.Use(standardRateLimit)
			r.Get("/", segmentsHandler.List)
			r.Get("/{segmentId}", segmentsHandler.Get)
		})

		// Geocoding proxies an upstream provider - strict rate limiting
		r.Route("/geocode", func(r chi.Router) {
			r.Use(expensiveRateLimit)
			r.Get("/search", geocodeHandler.Search)
			r.Get("/reverse", geocodeHandler.Reverse)
		})

		// Admin endpoints (session required) - for internal operations
		r.Route("/admin", func(r chi.Router) {
			r.Use(sessionMiddleware)
			r.Use(standardRateLimit)

			// Feature flags management
			r.Route("/feature-flags", func(r chi.Router) {
				r.Get("/", featureFlagsHandler.ListFeatureFlags)
				r.Put("/", featureFlagsHandler.UpsertFeatureFlags)
				r.Post("/invalidate", featureFlagsHandler.InvalidateCache)
			})
		})
	})

	return r
}
