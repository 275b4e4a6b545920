package handler

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/api/response"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/featureflags"
	"github.com/switchbackmaps/switchback/internal/saved"
)

// RoutesHandler handles saved route endpoints.
type RoutesHandler struct {
	savedService *saved.Service
	builders     *engine.Manager
	flags        *featureflags.Service
}

// NewRoutesHandler creates a new RoutesHandler.
func NewRoutesHandler(savedService *saved.Service, builders *engine.Manager, flags *featureflags.Service) *RoutesHandler {
	return &RoutesHandler{
		savedService: savedService,
		builders:     builders,
		flags:        flags,
	}
}

// Save handles POST /v1/routes - save the builder's current route.
func (h *RoutesHandler) Save(w http.ResponseWriter, r *http.Request) {
	var input models.SaveRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Name == "" {
		response.BadRequest(w, r, "name is required", nil)
		return
	}

	sessionID := GetSessionID(r.Context())
	snap := h.builders.Get(sessionID).State()

	if len(snap.Waypoints) < 2 {
		response.BadRequest(w, r, "a route needs at least two waypoints before it can be saved", nil)
		return
	}

	saveInput := saved.SaveInput{
		Name:             input.Name,
		Description:      input.Description,
		IsPublic:         input.IsPublic,
		Waypoints:        storedWaypoints(snap),
		DistanceMeters:   snap.Stats.DistanceMeters,
		DurationSeconds:  snap.Stats.DurationSeconds,
		CurvatureTotal:   snap.Stats.CurvatureTotal,
		CurvatureAverage: snap.Stats.CurvatureAverage,
		Rating:           string(snap.Stats.Rating),
	}
	if snap.Path != nil {
		saveInput.Geometry = encodePathGeometry(snap.Path.Geometry)
	}

	route, err := h.savedService.Save(r.Context(), sessionID, saveInput)
	if err != nil {
		if errors.Is(err, saved.ErrSlugTaken) {
			response.Conflict(w, r, "could not find a free slug for this name")
			return
		}
		response.InternalError(w, r, "failed to save route")
		return
	}

	location := fmt.Sprintf("/v1/routes/%s", route.ID)
	response.Created(w, r, location, routeDTO(route))
}

// List handles GET /v1/routes - list the session's saved routes.
func (h *RoutesHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 200", nil)
			return
		}
		limit = parsed
	}

	result, err := h.savedService.List(r.Context(), GetSessionID(r.Context()), limit)
	if err != nil {
		response.InternalError(w, r, "failed to list routes")
		return
	}

	page := models.PagedRoutes{
		Items: make([]models.Route, len(result.Items)),
		Meta:  models.PagedResponseMeta{Limit: limit},
	}
	for i, route := range result.Items {
		page.Items[i] = routeDTO(route)
	}
	if result.NextCursor != "" {
		page.Meta.NextCursor = &result.NextCursor
	}

	response.JSON(w, r, http.StatusOK, page)
}

// Get handles GET /v1/routes/{routeId}.
func (h *RoutesHandler) Get(w http.ResponseWriter, r *http.Request) {
	route, err := h.savedService.Get(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "routeId"))
	if err != nil {
		if errors.Is(err, saved.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to load route")
		return
	}

	response.JSON(w, r, http.StatusOK, routeDTO(route))
}

// GetBySlug handles GET /v1/routes/shared/{slug} - resolve a shared link.
func (h *RoutesHandler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	sessionID := GetSessionID(r.Context())

	route, err := h.savedService.GetBySlug(r.Context(), sessionID, chi.URLParam(r, "slug"))
	if err != nil {
		if errors.Is(err, saved.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to load route")
		return
	}

	// With sharing off, slugs resolve only for the owning session.
	if route.SessionID != sessionID && !h.flags.IsPublicSharingEnabled(r.Context()) {
		response.NotFound(w, r, "route not found")
		return
	}

	response.JSON(w, r, http.StatusOK, routeDTO(route))
}

// Update handles PATCH /v1/routes/{routeId}.
func (h *RoutesHandler) Update(w http.ResponseWriter, r *http.Request) {
	var input models.UpdateRouteRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.Name != nil && *input.Name == "" {
		response.BadRequest(w, r, "name cannot be empty", nil)
		return
	}

	route, err := h.savedService.Update(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "routeId"), saved.UpdateInput{
		Name:        input.Name,
		Description: input.Description,
		IsPublic:    input.IsPublic,
	})
	if err != nil {
		if errors.Is(err, saved.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to update route")
		return
	}

	response.JSON(w, r, http.StatusOK, routeDTO(route))
}

// Delete handles DELETE /v1/routes/{routeId}.
func (h *RoutesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	err := h.savedService.Delete(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "routeId"))
	if err != nil {
		if errors.Is(err, saved.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to delete route")
		return
	}

	response.NoContent(w, r)
}

// Export handles GET /v1/routes/{routeId}/export/{format} - GPX/KML download.
func (h *RoutesHandler) Export(w http.ResponseWriter, r *http.Request) {
	route, err := h.savedService.Get(r.Context(), GetSessionID(r.Context()), chi.URLParam(r, "routeId"))
	if err != nil {
		if errors.Is(err, saved.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to load route")
		return
	}

	var (
		data        []byte
		contentType string
		extension   string
	)

	switch models.ExportFormat(chi.URLParam(r, "format")) {
	case models.ExportFormatGPX:
		data, err = saved.ExportGPX(route)
		contentType = "application/gpx+xml"
		extension = "gpx"
	case models.ExportFormatKML:
		data, err = saved.ExportKML(route)
		contentType = "application/vnd.google-earth.kml+xml"
		extension = "kml"
	default:
		response.BadRequest(w, r, "format must be gpx or kml", nil)
		return
	}

	if err != nil {
		response.InternalError(w, r, "failed to export route")
		return
	}

	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", route.Slug+"."+extension))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(data)
}

// storedWaypoints converts the builder snapshot into persistable waypoints.
func storedWaypoints(snap engine.Snapshot) []saved.StoredWaypoint {
	waypoints := make([]saved.StoredWaypoint, len(snap.Waypoints))
	for i, wp := range snap.Waypoints {
		waypoints[i] = saved.StoredWaypoint{
			Lng:             wp.Lng,
			Lat:             wp.Lat,
			Order:           wp.Order,
			Label:           wp.Label,
			OriginSegmentID: wp.OriginSegmentID,
			Curvature:       wp.Curvature,
		}
	}
	return waypoints
}

// routeDTO maps a saved route onto the API representation.
func routeDTO(route *saved.Route) models.Route {
	dto := models.Route{
		ID:               route.ID,
		Name:             route.Name,
		Description:      route.Description,
		Slug:             route.Slug,
		Waypoints:        make([]models.RouteWaypoint, len(route.Waypoints)),
		Geometry:         route.Geometry,
		DistanceMeters:   route.DistanceMeters,
		DurationSeconds:  route.DurationSeconds,
		CurvatureTotal:   route.CurvatureTotal,
		CurvatureAverage: route.CurvatureAverage,
		Rating:           route.Rating,
		IsPublic:         route.IsPublic,
		CreatedAt:        models.Timestamp(route.CreatedAt),
		UpdatedAt:        models.Timestamp(route.UpdatedAt),
	}
	for i, wp := range route.Waypoints {
		dto.Waypoints[i] = models.RouteWaypoint{
			Lng:             wp.Lng,
			Lat:             wp.Lat,
			Order:           wp.Order,
			Label:           wp.Label,
			OriginSegmentID: wp.OriginSegmentID,
			Curvature:       wp.Curvature,
		}
	}
	return dto
}
