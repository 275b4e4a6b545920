package handler

import (
	"errors"
	"net/http"

	"github.com/switchbackmaps/switchback/internal/api/response"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/internal/session"
)

// SessionHandler handles anonymous session endpoints.
type SessionHandler struct {
	sessionService *session.Service
	savedService   *saved.Service
	builders       *engine.Manager
}

// NewSessionHandler creates a new SessionHandler.
func NewSessionHandler(sessionService *session.Service, savedService *saved.Service, builders *engine.Manager) *SessionHandler {
	return &SessionHandler{
		sessionService: sessionService,
		savedService:   savedService,
		builders:       builders,
	}
}

// Create handles POST /v1/sessions - start an anonymous session.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	tokenResp, err := h.sessionService.Create(r.Context())
	if err != nil {
		response.InternalError(w, r, "failed to create session")
		return
	}

	response.JSON(w, r, http.StatusCreated, tokenResp)
}

// Get handles GET /v1/sessions/me - the current session.
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	sess, err := h.sessionService.Get(r.Context(), sessionID)
	if err != nil {
		if errors.Is(err, session.ErrSessionNotFound) {
			response.NotFound(w, r, "session not found")
			return
		}
		response.InternalError(w, r, "failed to load session")
		return
	}

	response.JSON(w, r, http.StatusOK, sess)
}

// End handles DELETE /v1/sessions/me - end the session and discard its data.
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	h.builders.Remove(sessionID)

	if err := h.savedService.DeleteBySession(r.Context(), sessionID); err != nil {
		response.InternalError(w, r, "failed to delete saved routes")
		return
	}

	if err := h.sessionService.End(r.Context(), sessionID); err != nil {
		response.InternalError(w, r, "failed to end session")
		return
	}

	response.NoContent(w, r)
}
