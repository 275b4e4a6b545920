package saved

import (
	"context"
	"time"
)

// Repository defines the interface for saved route persistence.
type Repository interface {
	// Get retrieves a route by session ID and route ID.
	Get(ctx context.Context, sessionID, routeID string) (*Route, error)

	// GetBySlug retrieves a route by its public slug. Slugs resolve
	// regardless of owning session; callers enforce visibility.
	GetBySlug(ctx context.Context, slug string) (*Route, error)

	// ListBySession retrieves all routes for a session, newest first.
	ListBySession(ctx context.Context, sessionID string, opts ListOptions) (*ListResult, error)

	// ListStale retrieves routes not updated since olderThan, oldest
	// first, for background path refresh.
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*Route, error)

	// Create creates a new route. Returns ErrSlugTaken on slug conflict.
	Create(ctx context.Context, route *Route) error

	// Update updates an existing route.
	Update(ctx context.Context, route *Route) error

	// Delete deletes a route.
	Delete(ctx context.Context, sessionID, routeID string) error

	// DeleteBySession deletes all routes for a session.
	DeleteBySession(ctx context.Context, sessionID string) error
}
