package saved

import (
	"context"
	"sort"
	"sync"
	"time"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu     sync.RWMutex
	routes map[string]*Route // keyed by route ID
	slugs  map[string]string // slug -> route ID mapping
}

// NewInMemoryRepository creates a new in-memory saved route repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		routes: make(map[string]*Route),
		slugs:  make(map[string]string),
	}
}

// Get retrieves a route by session ID and route ID.
func (r *InMemoryRepository) Get(_ context.Context, sessionID, routeID string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	route, ok := r.routes[routeID]
	if !ok || route.SessionID != sessionID {
		return nil, ErrRouteNotFound
	}

	return copyRoute(route), nil
}

// GetBySlug retrieves a route by its public slug.
func (r *InMemoryRepository) GetBySlug(_ context.Context, slug string) (*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	routeID, ok := r.slugs[slug]
	if !ok {
		return nil, ErrRouteNotFound
	}

	route, ok := r.routes[routeID]
	if !ok {
		return nil, ErrRouteNotFound
	}

	return copyRoute(route), nil
}

// ListBySession retrieves all routes for a session, newest first.
func (r *InMemoryRepository) ListBySession(_ context.Context, sessionID string, opts ListOptions) (*ListResult, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Route
	for _, route := range r.routes {
		if route.SessionID == sessionID {
			items = append(items, copyRoute(route))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].CreatedAt.After(items[j].CreatedAt)
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return &ListResult{
		Items:      items,
		NextCursor: "",
	}, nil
}

// ListStale retrieves routes not updated since olderThan, oldest first.
func (r *InMemoryRepository) ListStale(_ context.Context, olderThan time.Time, limit int) ([]*Route, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var items []*Route
	for _, route := range r.routes {
		if route.UpdatedAt.Before(olderThan) {
			items = append(items, copyRoute(route))
		}
	}

	sort.Slice(items, func(i, j int) bool {
		return items[i].UpdatedAt.Before(items[j].UpdatedAt)
	})

	if limit <= 0 {
		limit = 100
	}
	if len(items) > limit {
		items = items[:limit]
	}

	return items, nil
}

// Create creates a new route.
func (r *InMemoryRepository) Create(_ context.Context, route *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.slugs[route.Slug]; ok {
		return ErrSlugTaken
	}

	r.routes[route.ID] = copyRoute(route)
	r.slugs[route.Slug] = route.ID
	return nil
}

// Update updates an existing route.
func (r *InMemoryRepository) Update(_ context.Context, route *Route) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	existing, ok := r.routes[route.ID]
	if !ok || existing.SessionID != route.SessionID {
		return ErrRouteNotFound
	}

	r.routes[route.ID] = copyRoute(route)
	return nil
}

// Delete deletes a route.
func (r *InMemoryRepository) Delete(_ context.Context, sessionID, routeID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	route, ok := r.routes[routeID]
	if !ok || route.SessionID != sessionID {
		return ErrRouteNotFound
	}

	delete(r.slugs, route.Slug)
	delete(r.routes, routeID)
	return nil
}

// DeleteBySession deletes all routes for a session.
func (r *InMemoryRepository) DeleteBySession(_ context.Context, sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, route := range r.routes {
		if route.SessionID == sessionID {
			delete(r.slugs, route.Slug)
			delete(r.routes, id)
		}
	}
	return nil
}

// copyRoute creates a deep copy of a route.
func copyRoute(route *Route) *Route {
	if route == nil {
		return nil
	}

	routeCopy := *route

	if route.Description != nil {
		val := *route.Description
		routeCopy.Description = &val
	}

	routeCopy.Waypoints = make([]StoredWaypoint, len(route.Waypoints))
	copy(routeCopy.Waypoints, route.Waypoints)
	for i, wp := range route.Waypoints {
		if wp.Curvature != nil {
			val := *wp.Curvature
			routeCopy.Waypoints[i].Curvature = &val
		}
	}

	return &routeCopy
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
