package routing

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the routing service.
type ServiceConfig struct {
	// Provider is the routing engine.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache computed paths (default: 5 minutes).
	CacheTTL time.Duration

	// CacheGridSize is the size of cache grid cells in degrees (default: 0.0001 ~ 11m).
	// Waypoint lists whose points all fall in the same grid cells share cached paths,
	// so a sub-cell drag does not trigger a new engine call.
	CacheGridSize float64

	// StaleIfErrorTTL allows serving stale paths on provider errors (default: 15 minutes).
	StaleIfErrorTTL time.Duration

	// CleanupInterval is how often to clean up expired entries (default: 5 minutes).
	CleanupInterval time.Duration
}

// Service computes paths with caching in front of the routing engine.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	cacheGridSize   float64
	staleIfErrorTTL time.Duration
	cleanupInterval time.Duration

	mu          sync.RWMutex
	cache       map[string]*cachedPath
	lastCleanup time.Time
}

type cachedPath struct {
	path      *ComputedPath
	fetchedAt time.Time
	expiresAt time.Time
}

// NewService creates a new routing service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = 5 * time.Minute
	}

	cacheGridSize := cfg.CacheGridSize
	if cacheGridSize == 0 {
		cacheGridSize = 0.0001 // ~11m at equator
	}

	staleIfErrorTTL := cfg.StaleIfErrorTTL
	if staleIfErrorTTL == 0 {
		staleIfErrorTTL = 15 * time.Minute
	}

	cleanupInterval := cfg.CleanupInterval
	if cleanupInterval == 0 {
		cleanupInterval = 5 * time.Minute
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		cacheGridSize:   cacheGridSize,
		staleIfErrorTTL: staleIfErrorTTL,
		cleanupInterval: cleanupInterval,
		cache:           make(map[string]*cachedPath),
	}
}

// ComputeRoute returns a road-snapped path through the waypoints.
// Uses cached data if available and not expired.
func (s *Service) ComputeRoute(ctx context.Context, req RouteRequest) (*ComputedPath, error) {
	if err := validateRequest(req); err != nil {
		return nil, &Error{
			Provider: s.provider.Name(),
			Code:     "INVALID_REQUEST",
			Message:  "invalid route request",
			Err:      err,
		}
	}

	cacheKey := s.cacheKey(req)

	// Check cache (read lock)
	s.mu.RLock()
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.mu.RUnlock()
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit for computed path")
		return cached.path, nil
	}
	s.mu.RUnlock()

	return s.fetchRoute(ctx, req, cacheKey)
}

// fetchRoute computes the path via the provider and updates the cache.
func (s *Service) fetchRoute(ctx context.Context, req RouteRequest, cacheKey string) (*ComputedPath, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check cache (prevents thundering herd)
	if cached, ok := s.cache[cacheKey]; ok && time.Now().Before(cached.expiresAt) {
		s.logger.Debug().
			Str("cache_key", cacheKey).
			Msg("cache hit after double-check")
		return cached.path, nil
	}

	s.logger.Debug().
		Int("waypoints", len(req.Waypoints)).
		Str("provider", s.provider.Name()).
		Msg("computing path via provider")

	path, err := s.provider.ComputeRoute(ctx, req)
	if err != nil {
		s.logger.Error().Err(err).
			Int("waypoints", len(req.Waypoints)).
			Msg("failed to compute path")

		// Check for stale data (stale-if-error pattern)
		if cached, ok := s.cache[cacheKey]; ok {
			if time.Now().Before(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
				s.logger.Warn().
					Time("fetched_at", cached.fetchedAt).
					Str("cache_key", cacheKey).
					Msg("serving stale path due to provider error")
				return cached.path, nil
			}
		}

		return nil, err
	}

	now := time.Now()
	s.cache[cacheKey] = &cachedPath{
		path:      path,
		fetchedAt: now,
		expiresAt: now.Add(s.cacheTTL),
	}

	s.logger.Debug().
		Str("cache_key", cacheKey).
		Float64("distance_m", path.DistanceMeters).
		Msg("cached computed path")

	s.cleanupIfNeeded()

	return path, nil
}

// cacheKey generates a cache key for a route request by quantizing every
// waypoint onto the cache grid. Two requests whose waypoints all fall in the
// same grid cells share a key.
func (s *Service) cacheKey(req RouteRequest) string {
	var b strings.Builder
	for i, wp := range req.Waypoints {
		if i > 0 {
			b.WriteByte(';')
		}
		gridLng := math.Floor(wp.Lng/s.cacheGridSize) * s.cacheGridSize
		gridLat := math.Floor(wp.Lat/s.cacheGridSize) * s.cacheGridSize
		fmt.Fprintf(&b, "%.4f,%.4f", gridLng, gridLat)
	}
	return b.String()
}

// cleanupIfNeeded removes expired entries if the cleanup interval has passed.
func (s *Service) cleanupIfNeeded() {
	now := time.Now()
	if now.Sub(s.lastCleanup) < s.cleanupInterval {
		return
	}

	s.lastCleanup = now
	expired := 0

	for key, cached := range s.cache {
		// Remove entries that are past the stale-if-error window
		if now.After(cached.fetchedAt.Add(s.staleIfErrorTTL)) {
			delete(s.cache, key)
			expired++
		}
	}

	if expired > 0 {
		s.logger.Debug().
			Int("expired_entries", expired).
			Msg("cleaned up expired path cache entries")
	}
}

// InvalidateCache clears all cached paths.
func (s *Service) InvalidateCache() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cache = make(map[string]*cachedPath)
}

// CacheStats contains cache statistics.
type CacheStats struct {
	TotalEntries int
	FreshEntries int
	StaleEntries int
	Provider     string
}

// CacheStats returns cache statistics.
func (s *Service) CacheStats() CacheStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	now := time.Now()
	fresh := 0
	stale := 0

	for _, c := range s.cache {
		if now.Before(c.expiresAt) {
			fresh++
		} else if now.Before(c.fetchedAt.Add(s.staleIfErrorTTL)) {
			stale++
		}
	}

	return CacheStats{
		TotalEntries: len(s.cache),
		FreshEntries: fresh,
		StaleEntries: stale,
		Provider:     s.provider.Name(),
	}
}

// Name returns the name of the underlying provider.
func (s *Service) Name() string {
	return s.provider.Name()
}

// CheckHealth probes the underlying provider.
func (s *Service) CheckHealth(ctx context.Context) error {
	return s.provider.CheckHealth(ctx)
}
