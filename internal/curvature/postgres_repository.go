package curvature

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// PostgresRepository is a PostgreSQL implementation of Repository.
type PostgresRepository struct {
	pool *pgxpool.Pool
}

// NewPostgresRepository creates a new PostgreSQL segment repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

const segmentColumns = `
	id, name, start_lng, start_lat, end_lng, end_lat,
	curvature, length_meters, paved, geometry
`

// Get retrieves a segment by ID.
func (r *PostgresRepository) Get(ctx context.Context, segmentID string) (*Segment, error) {
	query := `
		SELECT ` + segmentColumns + `
		FROM curvature_segments
		WHERE id = $1
	`

	segment, err := scanSegment(r.pool.QueryRow(ctx, query, segmentID))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSegmentNotFound
		}
		return nil, err
	}
	return segment, nil
}

// ListInBounds retrieves segments whose endpoints fall inside the
// bounding box, most curvy first.
func (r *PostgresRepository) ListInBounds(ctx context.Context, bounds Bounds, opts ListOptions) ([]*Segment, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}

	query := `
		SELECT ` + segmentColumns + `
		FROM curvature_segments
		WHERE start_lng BETWEEN $1 AND $3
		  AND start_lat BETWEEN $2 AND $4
		  AND curvature >= $5
		  AND (NOT $6 OR paved)
		ORDER BY curvature DESC
		LIMIT $7
	`

	rows, err := r.pool.Query(ctx, query,
		bounds.MinLng, bounds.MinLat, bounds.MaxLng, bounds.MaxLat,
		opts.MinCurvature, opts.PavedOnly, limit,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var segments []*Segment
	for rows.Next() {
		segment, err := scanSegment(rows)
		if err != nil {
			return nil, err
		}
		segments = append(segments, segment)
	}

	if err := rows.Err(); err != nil {
		return nil, err
	}

	return segments, nil
}

func scanSegment(row pgx.Row) (*Segment, error) {
	var segment Segment
	err := row.Scan(
		&segment.ID,
		&segment.Name,
		&segment.StartLng,
		&segment.StartLat,
		&segment.EndLng,
		&segment.EndLat,
		&segment.Curvature,
		&segment.LengthMeters,
		&segment.Paved,
		&segment.Geometry,
	)
	if err != nil {
		return nil, err
	}
	return &segment, nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
