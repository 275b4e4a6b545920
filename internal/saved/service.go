package saved

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// slugRetries bounds attempts to find a free slug before giving up.
const slugRetries = 3

// Service provides saved route operations.
type Service struct {
	repo   Repository
	logger zerolog.Logger
}

// NewService creates a new saved route service.
func NewService(repo Repository, logger zerolog.Logger) *Service {
	return &Service{repo: repo, logger: logger}
}

// SaveInput is the snapshot of a built route at save time.
type SaveInput struct {
	Name             string
	Description      *string
	IsPublic         bool
	Waypoints        []StoredWaypoint
	Geometry         string
	DistanceMeters   float64
	DurationSeconds  float64
	CurvatureTotal   float64
	CurvatureAverage float64
	Rating           string
}

// UpdateInput carries the mutable route attributes. Nil fields are left
// unchanged.
type UpdateInput struct {
	Name        *string
	Description *string
	IsPublic    *bool
}

// Save persists a new route for the session under a generated slug.
func (s *Service) Save(ctx context.Context, sessionID string, input SaveInput) (*Route, error) {
	now := time.Now()

	route := &Route{
		ID:               "rte_" + uuid.New().String()[:22],
		SessionID:        sessionID,
		Name:             input.Name,
		Description:      input.Description,
		Waypoints:        input.Waypoints,
		Geometry:         input.Geometry,
		DistanceMeters:   input.DistanceMeters,
		DurationSeconds:  input.DurationSeconds,
		CurvatureTotal:   input.CurvatureTotal,
		CurvatureAverage: input.CurvatureAverage,
		Rating:           input.Rating,
		IsPublic:         input.IsPublic,
		CreatedAt:        now,
		UpdatedAt:        now,
	}

	base := slugify(input.Name)
	for attempt := 0; attempt <= slugRetries; attempt++ {
		route.Slug = base
		if attempt > 0 {
			route.Slug = base + "-" + uuid.New().String()[:6]
		}

		err := s.repo.Create(ctx, route)
		if err == nil {
			s.logger.Info().
				Str("route_id", route.ID).
				Str("slug", route.Slug).
				Msg("saved route")
			return route, nil
		}
		if !errors.Is(err, ErrSlugTaken) {
			return nil, err
		}
	}

	return nil, ErrSlugTaken
}

// Get retrieves a route owned by the session.
func (s *Service) Get(ctx context.Context, sessionID, routeID string) (*Route, error) {
	return s.repo.Get(ctx, sessionID, routeID)
}

// GetBySlug retrieves a route by slug. Private routes resolve only for
// their owning session; to anyone else they do not exist.
func (s *Service) GetBySlug(ctx context.Context, sessionID, slug string) (*Route, error) {
	route, err := s.repo.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if !route.IsPublic && route.SessionID != sessionID {
		return nil, ErrRouteNotFound
	}
	return route, nil
}

// List retrieves the session's saved routes, newest first.
func (s *Service) List(ctx context.Context, sessionID string, limit int) (*ListResult, error) {
	return s.repo.ListBySession(ctx, sessionID, ListOptions{Limit: limit})
}

// Update applies the given attribute changes to a route. The slug is
// stable across renames so shared links keep working.
func (s *Service) Update(ctx context.Context, sessionID, routeID string, input UpdateInput) (*Route, error) {
	route, err := s.repo.Get(ctx, sessionID, routeID)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		route.Name = *input.Name
	}
	if input.Description != nil {
		route.Description = input.Description
	}
	if input.IsPublic != nil {
		route.IsPublic = *input.IsPublic
	}
	route.UpdatedAt = time.Now()

	if err := s.repo.Update(ctx, route); err != nil {
		return nil, err
	}
	return route, nil
}

// ListStale retrieves routes whose stored paths predate olderThan.
func (s *Service) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*Route, error) {
	return s.repo.ListStale(ctx, olderThan, limit)
}

// StorePath replaces a route's computed path summary. Used by the
// background refresh job after re-routing the stored waypoints.
func (s *Service) StorePath(ctx context.Context, route *Route, geometry string, distanceMeters, durationSeconds float64) error {
	route.Geometry = geometry
	route.DistanceMeters = distanceMeters
	route.DurationSeconds = durationSeconds
	route.UpdatedAt = time.Now()
	return s.repo.Update(ctx, route)
}

// Delete removes a route owned by the session.
func (s *Service) Delete(ctx context.Context, sessionID, routeID string) error {
	return s.repo.Delete(ctx, sessionID, routeID)
}

// DeleteBySession removes every route owned by the session.
func (s *Service) DeleteBySession(ctx context.Context, sessionID string) error {
	return s.repo.DeleteBySession(ctx, sessionID)
}

// slugify lowercases the name and collapses everything that is not a
// letter or digit into single hyphens.
func slugify(name string) string {
	var b strings.Builder
	lastHyphen := true
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z' || r >= '0' && r <= '9':
			b.WriteRune(r)
			lastHyphen = false
		case !lastHyphen:
			b.WriteByte('-')
			lastHyphen = true
		}
	}
	slug := strings.TrimRight(b.String(), "-")
	if slug == "" {
		slug = "route"
	}
	return slug
}
