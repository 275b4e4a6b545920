package session

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

// NewPostgresRepository creates a new PostgreSQL session repository.
func NewPostgresRepository(pool *pgxpool.Pool) *PostgresRepository {
	return &PostgresRepository{pool: pool}
}

// Create stores a new session.
func (r *PostgresRepository) Create(ctx context.Context, session *Session) error {
	query := `
		INSERT INTO sessions (id, created_at, last_seen_at)
		VALUES ($1, $2, $3)
	`

	_, err := r.pool.Exec(ctx, query, session.ID, session.CreatedAt, session.LastSeenAt)
	return err
}

// FindByID finds a session by its ID.
func (r *PostgresRepository) FindByID(ctx context.Context, id string) (*Session, error) {
	query := `
		SELECT id, created_at, last_seen_at
		FROM sessions
		WHERE id = $1
	`

	var session Session
	err := r.pool.QueryRow(ctx, query, id).Scan(
		&session.ID,
		&session.CreatedAt,
		&session.LastSeenAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrSessionNotFound
		}
		return nil, err
	}

	return &session, nil
}

// Touch updates the session's last-seen timestamp.
func (r *PostgresRepository) Touch(ctx context.Context, id string) error {
	query := `UPDATE sessions SET last_seen_at = now() WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Delete removes a session.
func (r *PostgresRepository) Delete(ctx context.Context, id string) error {
	query := `DELETE FROM sessions WHERE id = $1`

	result, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if result.RowsAffected() == 0 {
		return ErrSessionNotFound
	}
	return nil
}

// Ensure PostgresRepository implements Repository interface.
var _ Repository = (*PostgresRepository)(nil)
