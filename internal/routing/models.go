// Package routing provides road-network path computation for the route
// builder, backed by an external routing engine.
package routing

import (
	"context"
	"errors"
	"time"
)

// Sentinel errors for routing operations.
var (
	// ErrProviderUnavailable indicates the routing engine is down or the circuit breaker is open.
	ErrProviderUnavailable = errors.New("routing provider unavailable")
	// ErrNoRouteFound indicates no routable path exists through the given waypoints.
	ErrNoRouteFound = errors.New("no route found through the given waypoints")
	// ErrTimeout indicates the routing engine did not respond in time.
	ErrTimeout = errors.New("routing request timed out")
	// ErrInvalidCoordinates indicates a waypoint coordinate is out of range.
	ErrInvalidCoordinates = errors.New("invalid coordinates")
	// ErrTooFewWaypoints indicates fewer than two waypoints were supplied.
	ErrTooFewWaypoints = errors.New("at least two waypoints are required")
)

// Provider defines the interface for routing engines.
type Provider interface {
	// ComputeRoute computes a road-snapped path through the ordered waypoints.
	ComputeRoute(ctx context.Context, req RouteRequest) (*ComputedPath, error)
	// Name returns the provider identifier for logging and metrics.
	Name() string
	// CheckHealth verifies the routing engine is reachable and responding.
	CheckHealth(ctx context.Context) error
}

// Coordinate represents a geographic point.
type Coordinate struct {
	Lng float64
	Lat float64
}

// RouteWaypoint is a single input point for path computation.
type RouteWaypoint struct {
	Lng       float64
	Lat       float64
	SegmentID string // originating road segment, if any
}

// RouteRequest is the request for computing a path. Waypoints must contain
// at least two entries.
type RouteRequest struct {
	Waypoints []RouteWaypoint
}

// SnappedWaypoint is an input waypoint as placed on the road network by the
// routing engine.
type SnappedWaypoint struct {
	Lng     float64
	Lat     float64
	Snapped bool
}

// ComputedPath is a road-snapped path through a waypoint sequence.
type ComputedPath struct {
	Geometry         []Coordinate
	DistanceMeters   float64
	DurationSeconds  float64
	SnappedWaypoints []SnappedWaypoint
	Provider         string
	FetchedAt        time.Time
}

// Error provides detailed error information from the routing provider.
type Error struct {
	Provider string // Provider that generated the error
	Code     string // Error code from the provider
	Message  string // Human-readable error message
	Err      error  // Underlying error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRetryable returns true if the error is transient and a later attempt may
// succeed.
func (e *Error) IsRetryable() bool {
	return errors.Is(e.Err, ErrProviderUnavailable) || errors.Is(e.Err, ErrTimeout)
}

// validateRequest checks waypoint count and coordinate ranges.
func validateRequest(req RouteRequest) error {
	if len(req.Waypoints) < 2 {
		return ErrTooFewWaypoints
	}
	for _, wp := range req.Waypoints {
		if wp.Lat < -90 || wp.Lat > 90 || wp.Lng < -180 || wp.Lng > 180 {
			return ErrInvalidCoordinates
		}
	}
	return nil
}
