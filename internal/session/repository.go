package session

import (
	"context"
	"sync"
	"time"
)

// Repository defines the interface for session persistence.
type Repository interface {
	// Create stores a new session.
	Create(ctx context.Context, session *Session) error

	// FindByID finds a session by its ID.
	FindByID(ctx context.Context, id string) (*Session, error)

	// Touch updates the session's last-seen timestamp.
	Touch(ctx context.Context, id string) error

	// Delete removes a session.
	Delete(ctx context.Context, id string) error
}

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing. Production should use the PostgreSQL implementation.
type InMemoryRepository struct {
	mu       sync.RWMutex
	sessions map[string]*Session
}

// NewInMemoryRepository creates a new in-memory session repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		sessions: make(map[string]*Session),
	}
}

// Create stores a new session.
func (r *InMemoryRepository) Create(_ context.Context, session *Session) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	sessionCopy := *session
	r.sessions[session.ID] = &sessionCopy
	return nil
}

// FindByID finds a session by its ID.
func (r *InMemoryRepository) FindByID(_ context.Context, id string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[id]
	if !ok {
		return nil, ErrSessionNotFound
	}

	sessionCopy := *session
	return &sessionCopy, nil
}

// Touch updates the session's last-seen timestamp.
func (r *InMemoryRepository) Touch(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	session, ok := r.sessions[id]
	if !ok {
		return ErrSessionNotFound
	}

	session.LastSeenAt = time.Now()
	return nil
}

// Delete removes a session.
func (r *InMemoryRepository) Delete(_ context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.sessions[id]; !ok {
		return ErrSessionNotFound
	}
	delete(r.sessions, id)
	return nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
