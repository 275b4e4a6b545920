// Package session provides anonymous session management. A session is
// created on first contact without any signup and identifies one route
// builder and its saved routes.
package session

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrSessionNotFound = errors.New("session not found")
)

// Session represents an anonymous builder session.
type Session struct {
	ID         string    `json:"sessionId"`
	CreatedAt  time.Time `json:"createdAt"`
	LastSeenAt time.Time `json:"lastSeenAt"`
}

// TokenResponse represents the response after creating a session.
type TokenResponse struct {
	// Token is the bearer token identifying the session.
	Token string `json:"token"`

	// TokenType is always "Bearer".
	TokenType string `json:"tokenType"`

	// ExpiresIn is the number of seconds until the token expires.
	ExpiresIn int64 `json:"expiresIn"`

	// Session contains the created session.
	Session *Session `json:"session"`
}
