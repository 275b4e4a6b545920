package saved

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uniqueViolation is the PostgreSQL error code for unique constraint
// violations, used to detect slug conflicts.
const uniqueViolation = "23505"

// PostgresRepository is a PostgreSQL implementation of Repository.
// Waypoints are stored as a JSONB column.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL saved route repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const routeColumns = `
	id, session_id, name, description, slug, waypoints, geometry,
	distance_meters, duration_seconds, curvature_total, curvature_average,
	rating, is_public, created_at, updated_at
`

// Get retrieves a route by session ID and route ID.
func (r *PostgresRepository) Get(ctx context.Context, sessionID, routeID string) (*Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM saved_routes
		WHERE id = $1 AND session_id = $2
	`

	return r.scanRoute(r.pool.QueryRow(ctx, query, routeID, sessionID))
}

// GetBySlug retrieves a route by its public slug.
func (r *PostgresRepository) GetBySlug(ctx context.Context, slug string) (*Route, error) {
	query := `
		SELECT ` + routeColumns + `
		FROM saved_routes
		WHERE slug = $1
	`

	return r.scanRoute(r.pool.QueryRow(ctx, query, slug))
}

func (r *PostgresRepository) scanRoute(row pgx.Row) (*Route, error) {
	var route Route
	var waypointsJSON []byte

	err := row.Scan(
		&route.ID,
		&route.SessionID,
		&route.Name,
		&route.Description,
		&route.Slug,
		&waypointsJSON,
		&route.Geometry,
		&route.DistanceMeters,
		&route.DurationSeconds,
		&route.CurvatureTotal,
		&route.CurvatureAverage,
		&route.Rating,
		&route.IsPublic,
		&route.CreatedAt,
		&route.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrRouteNotFound
		}
		return nil, err
	}

	if err := json.Unmarshal(waypointsJSON, &route.Waypoints); err != nil {
		return nil, err
	}

	return &route, nil
}

// ListBySession retrieves all routes for a session, newest first.
func (r *PostgresRepository) ListBySession(ctx context.Context, sessionID string, opts ListOptions) (*ListResult, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 50
	}
	fetchLimit := limit + 1

	query := `
		SELECT ` + routeColumns + `
		FROM saved_routes
		WHERE session_id = $1
		ORDER BY created_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, sessionID, fetchLimit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*Route
	for rows.Next() {
		route, err := r.scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	result := &ListResult{
		Items: routes,
	}

	if len(routes) > limit {
		result.Items = routes[:limit]
		result.NextCursor = routes[limit-1].ID
	}

	return result, nil
}

// ListStale retrieves routes not updated since olderThan, oldest first.
func (r *PostgresRepository) ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*Route, error) {
	if limit <= 0 {
		limit = 100
	}

	query := `
		SELECT ` + routeColumns + `
		FROM saved_routes
		WHERE updated_at < $1
		ORDER BY updated_at ASC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, olderThan, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var routes []*Route
	for rows.Next() {
		route, err := r.scanRoute(rows)
		if err != nil {
			return nil, err
		}
		routes = append(routes, route)
	}

	return routes, rows.Err()
}

// Create creates a new route.
func (r *PostgresRepository) Create(ctx context.Context, route *Route) error {
	waypointsJSON, err := json.Marshal(route.Waypoints)
	if err != nil {
		return err
	}

	query := `
		INSERT INTO saved_routes (` + routeColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	_, err = r.pool.Exec(ctx, query,
		route.ID,
		route.SessionID,
		route.Name,
		route.Description,
		route.Slug,
		waypointsJSON,
		route.Geometry,
		route.DistanceMeters,
		route.DurationSeconds,
		route.CurvatureTotal,
		route.CurvatureAverage,
		route.Rating,
		route.IsPublic,
		route.CreatedAt,
		route.UpdatedAt,
	)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return ErrSlugTaken
		}
		return err
	}
	return nil
}

// Update updates an existing route.
func (r *PostgresRepository) Update(ctx context.Context, route *Route) error {
	waypointsJSON, err := json.Marshal(route.Waypoints)
	if err != nil {
		return err
	}

	query := `
		UPDATE saved_routes SET
			name = $3,
			description = $4,
			waypoints = $5,
			geometry = $6,
			distance_meters = $7,
			duration_seconds = $8,
			curvature_total = $9,
			curvature_average = $10,
			rating = $11,
			is_public = $12,
			updated_at = $13
		WHERE id = $1 AND session_id = $2
	`

	result, err := r.pool.Exec(ctx, query,
		route.ID,
		route.SessionID,
		route.Name,
		route.Description,
		waypointsJSON,
		route.Geometry,
		route.DistanceMeters,
		route.DurationSeconds,
		route.CurvatureTotal,
		route.CurvatureAverage,
		route.Rating,
		route.IsPublic,
		route.UpdatedAt,
	)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}

	return nil
}

// Delete deletes a route.
func (r *PostgresRepository) Delete(ctx context.Context, sessionID, routeID string) error {
	query := `DELETE FROM saved_routes WHERE id = $1 AND session_id = $2`

	result, err := r.pool.Exec(ctx, query, routeID, sessionID)
	if err != nil {
		return err
	}

	if result.RowsAffected() == 0 {
		return ErrRouteNotFound
	}

	return nil
}

// DeleteBySession deletes all routes for a session.
func (r *PostgresRepository) DeleteBySession(ctx context.Context, sessionID string) error {
	query := `DELETE FROM saved_routes WHERE session_id = $1`
	_, err := r.pool.Exec(ctx, query, sessionID)
	return err
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
