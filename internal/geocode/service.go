package geocode

import (
	"context"
	"fmt"
	"math"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
)

// ServiceConfig holds configuration for the geocoding service.
type ServiceConfig struct {
	// Provider is the geocoding backend.
	Provider Provider

	// Logger for service operations.
	Logger zerolog.Logger

	// CacheTTL is how long to cache results (default: 1 hour). Place
	// data changes rarely, so a long TTL keeps load off the upstream
	// geocoder's usage policy.
	CacheTTL time.Duration

	// ReverseGridSize is the cell size in degrees for reverse lookup
	// caching (default: 0.001 ~ 110m).
	ReverseGridSize float64
}

// Service provides geocoding with caching in front of the backend.
type Service struct {
	provider        Provider
	logger          zerolog.Logger
	cacheTTL        time.Duration
	reverseGridSize float64

	mu      sync.RWMutex
	search  map[string]*cachedResult
	reverse map[string]*cachedResult
}

type cachedResult struct {
	places    []Place
	expiresAt time.Time
}

// NewService creates a new geocoding service.
func NewService(cfg ServiceConfig) *Service {
	cacheTTL := cfg.CacheTTL
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}

	reverseGridSize := cfg.ReverseGridSize
	if reverseGridSize == 0 {
		reverseGridSize = 0.001
	}

	return &Service{
		provider:        cfg.Provider,
		logger:          cfg.Logger,
		cacheTTL:        cacheTTL,
		reverseGridSize: reverseGridSize,
		search:          make(map[string]*cachedResult),
		reverse:         make(map[string]*cachedResult),
	}
}

// Search finds places matching a free-form query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]Place, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrInvalidQuery
	}
	if limit <= 0 {
		limit = 5
	}

	key := fmt.Sprintf("%s|%d", strings.ToLower(query), limit)
	if places, ok := s.cached(s.search, key); ok {
		return places, nil
	}

	places, err := s.provider.Search(ctx, query, limit)
	if err != nil {
		return nil, err
	}

	s.store(s.search, key, places)
	return places, nil
}

// Reverse finds the place at a coordinate. Lookups within the same grid
// cell share a cached result.
func (s *Service) Reverse(ctx context.Context, lng, lat float64) (*Place, error) {
	gridLng := math.Floor(lng/s.reverseGridSize) * s.reverseGridSize
	gridLat := math.Floor(lat/s.reverseGridSize) * s.reverseGridSize
	key := fmt.Sprintf("%.3f,%.3f", gridLng, gridLat)

	if places, ok := s.cached(s.reverse, key); ok && len(places) > 0 {
		place := places[0]
		return &place, nil
	}

	place, err := s.provider.Reverse(ctx, lng, lat)
	if err != nil {
		return nil, err
	}

	s.store(s.reverse, key, []Place{*place})
	return place, nil
}

// Name returns the name of the underlying provider.
func (s *Service) Name() string {
	return s.provider.Name()
}

// CheckHealth probes the underlying provider.
func (s *Service) CheckHealth(ctx context.Context) error {
	return s.provider.CheckHealth(ctx)
}

func (s *Service) cached(cache map[string]*cachedResult, key string) ([]Place, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if entry, ok := cache[key]; ok && time.Now().Before(entry.expiresAt) {
		return entry.places, true
	}
	return nil, false
}

func (s *Service) store(cache map[string]*cachedResult, key string, places []Place) {
	s.mu.Lock()
	defer s.mu.Unlock()

	cache[key] = &cachedResult{
		places:    places,
		expiresAt: time.Now().Add(s.cacheTTL),
	}
}
