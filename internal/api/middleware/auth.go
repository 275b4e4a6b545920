package middleware

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/session"
)

// sessionIDKey is the context key for the authenticated session ID.
type sessionIDKey struct{}

// Session creates middleware that validates session bearer tokens.
func Session(sessionService *session.Service) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			// Extract bearer token from Authorization header
			authHeader := r.Header.Get("Authorization")
			if authHeader == "" {
				writeUnauthorized(w, r, "missing authorization header")
				return
			}

			// Check for Bearer prefix (case-insensitive)
			const bearerPrefix = "Bearer "
			if len(authHeader) < len(bearerPrefix) ||
				!strings.EqualFold(authHeader[:len(bearerPrefix)], bearerPrefix) {
				writeUnauthorized(w, r, "invalid authorization header format")
				return
			}

			tokenString := authHeader[len(bearerPrefix):]
			if tokenString == "" {
				writeUnauthorized(w, r, "missing bearer token")
				return
			}

			// Validate the token
			sessionID, err := sessionService.Validate(r.Context(), tokenString)
			if err != nil {
				switch {
				case errors.Is(err, session.ErrTokenExpired):
					writeUnauthorized(w, r, "session token has expired")
				case errors.Is(err, session.ErrInvalidToken):
					writeUnauthorized(w, r, "invalid session token")
				case errors.Is(err, session.ErrSessionNotFound):
					writeUnauthorized(w, r, "session has ended")
				default:
					writeUnauthorized(w, r, "authentication failed")
				}
				return
			}

			// Add session ID to context
			ctx := context.WithValue(r.Context(), sessionIDKey{}, sessionID)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// writeUnauthorized writes a 401 Unauthorized response.
// This is implemented directly here to avoid import cycle with response package.
func writeUnauthorized(w http.ResponseWriter, r *http.Request, detail string) {
	traceID := GetRequestID(r.Context())
	problem := models.NewUnauthorized(traceID, detail)
	problem.Instance = r.URL.Path
	problem.Write(w)
}

// GetSessionID retrieves the authenticated session ID from the context.
// Returns an empty string if not authenticated.
func GetSessionID(ctx context.Context) string {
	if id, ok := ctx.Value(sessionIDKey{}).(string); ok {
		return id
	}
	return ""
}
