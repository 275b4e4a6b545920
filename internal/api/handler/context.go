package handler

import (
	"context"

	"github.com/switchbackmaps/switchback/internal/api/middleware"
)

// GetSessionID retrieves the authenticated session ID from the context.
// This is a convenience wrapper around middleware.GetSessionID.
func GetSessionID(ctx context.Context) string {
	return middleware.GetSessionID(ctx)
}
