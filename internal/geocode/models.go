// Package geocode provides place search and reverse geocoding for
// waypoint labeling.
package geocode

import (
	"context"
	"errors"
)

// Sentinel errors for geocoding operations.
var (
	// ErrProviderUnavailable indicates the geocoder is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("geocoding provider unavailable")
	// ErrNoResults indicates the query matched nothing.
	ErrNoResults = errors.New("no geocoding results")
	// ErrInvalidQuery indicates an empty or malformed query.
	ErrInvalidQuery = errors.New("invalid geocoding query")
)

// Provider defines the interface for geocoding backends.
type Provider interface {
	// Search finds places matching a free-form query.
	Search(ctx context.Context, query string, limit int) ([]Place, error)
	// Reverse finds the place at a coordinate.
	Reverse(ctx context.Context, lng, lat float64) (*Place, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// CheckHealth verifies the geocoder is reachable and responding.
	CheckHealth(ctx context.Context) error
}

// Place is a geocoding result.
type Place struct {
	Name        string
	DisplayName string
	Lng         float64
	Lat         float64
	Category    string
	Type        string
}
