package session

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// Service provides session operations.
type Service struct {
	jwtService *JWTService
	repo       Repository
	logger     zerolog.Logger
}

// ServiceConfig holds configuration for the session service.
type ServiceConfig struct {
	JWTService *JWTService
	Repo       Repository
	Logger     zerolog.Logger
}

// NewService creates a new session service.
func NewService(cfg ServiceConfig) *Service {
	return &Service{
		jwtService: cfg.JWTService,
		repo:       cfg.Repo,
		logger:     cfg.Logger,
	}
}

// Create starts a new anonymous session and returns its bearer token.
func (s *Service) Create(ctx context.Context) (*TokenResponse, error) {
	now := time.Now()
	session := &Session{
		ID:         generateSessionID(),
		CreatedAt:  now,
		LastSeenAt: now,
	}

	if err := s.repo.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("creating session: %w", err)
	}

	token, expiresAt, err := s.jwtService.GenerateToken(session)
	if err != nil {
		return nil, fmt.Errorf("generating session token: %w", err)
	}

	s.logger.Info().Str("session_id", session.ID).Msg("created anonymous session")

	return &TokenResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int64(time.Until(expiresAt).Seconds()),
		Session:   session,
	}, nil
}

// Validate validates a session token, confirms the session still exists
// and returns its ID. The last-seen timestamp is refreshed best-effort.
func (s *Service) Validate(ctx context.Context, tokenString string) (string, error) {
	claims, err := s.jwtService.ValidateToken(tokenString)
	if err != nil {
		return "", err
	}

	if _, err := s.repo.FindByID(ctx, claims.SessionID); err != nil {
		return "", ErrSessionNotFound
	}

	if err := s.repo.Touch(ctx, claims.SessionID); err != nil {
		s.logger.Warn().Err(err).Str("session_id", claims.SessionID).Msg("failed to touch session")
	}

	return claims.SessionID, nil
}

// Get retrieves a session by ID.
func (s *Service) Get(ctx context.Context, sessionID string) (*Session, error) {
	return s.repo.FindByID(ctx, sessionID)
}

// End removes a session. Saved route cleanup is the caller's concern.
func (s *Service) End(ctx context.Context, sessionID string) error {
	return s.repo.Delete(ctx, sessionID)
}

// generateSessionID generates a unique session ID with prefix.
func generateSessionID() string {
	return "ses_" + uuid.New().String()[:22]
}
