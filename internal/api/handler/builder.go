// Package handler provides HTTP handlers for the Switchback API.
package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/api/response"
	"github.com/switchbackmaps/switchback/internal/curvature"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/internal/waypoint"
	"github.com/switchbackmaps/switchback/pkg/polyline"
)

// BuilderHandler handles the interactive route builder endpoints.
type BuilderHandler struct {
	builders     *engine.Manager
	segments     *curvature.Service
	savedService *saved.Service
}

// NewBuilderHandler creates a new BuilderHandler.
func NewBuilderHandler(builders *engine.Manager, segments *curvature.Service, savedService *saved.Service) *BuilderHandler {
	return &BuilderHandler{
		builders:     builders,
		segments:     segments,
		savedService: savedService,
	}
}

// State handles GET /v1/builder - the current builder snapshot.
func (h *BuilderHandler) State(w http.ResponseWriter, r *http.Request) {
	eng := h.builders.Get(GetSessionID(r.Context()))
	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// AddWaypoint handles POST /v1/builder/waypoints - add a free-dropped stop.
func (h *BuilderHandler) AddWaypoint(w http.ResponseWriter, r *http.Request) {
	var input models.AddWaypointRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := validateCoordinate(input.Lng, input.Lat); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	eng := h.builders.Get(GetSessionID(r.Context()))
	eng.AddWaypoint(input.Lng, input.Lat, waypoint.AddOptions{
		Label:     input.Label,
		Curvature: input.Curvature,
	})

	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// AddSegment handles POST /v1/builder/segments - chain a curated segment.
func (h *BuilderHandler) AddSegment(w http.ResponseWriter, r *http.Request) {
	var input models.AddSegmentRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.SegmentID == "" {
		response.BadRequest(w, r, "segmentId is required", nil)
		return
	}

	seg, err := h.segments.Get(r.Context(), input.SegmentID)
	if err != nil {
		if errors.Is(err, curvature.ErrSegmentNotFound) {
			response.NotFound(w, r, "segment not found")
			return
		}
		response.InternalError(w, r, "failed to load segment")
		return
	}

	eng := h.builders.Get(GetSessionID(r.Context()))
	if _, err := eng.AddSegment(seg.Connectable()); err != nil {
		if errors.Is(err, engine.ErrSegmentNotConnected) {
			response.Conflict(w, r, "segment does not connect to the end of the chain")
			return
		}
		response.InternalError(w, r, "failed to add segment")
		return
	}

	// A segment already in the chain is a silent no-op.
	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// MoveWaypoint handles PATCH /v1/builder/waypoints/{waypointId} - drag a stop.
func (h *BuilderHandler) MoveWaypoint(w http.ResponseWriter, r *http.Request) {
	waypointID := chi.URLParam(r, "waypointId")

	var input models.MoveWaypointRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	if errs := validateCoordinate(input.Lng, input.Lat); len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	eng := h.builders.Get(GetSessionID(r.Context()))
	if !eng.MoveWaypoint(waypointID, input.Lng, input.Lat) {
		response.NotFound(w, r, "waypoint not found")
		return
	}

	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// RemoveWaypoint handles DELETE /v1/builder/waypoints/{waypointId}.
func (h *BuilderHandler) RemoveWaypoint(w http.ResponseWriter, r *http.Request) {
	waypointID := chi.URLParam(r, "waypointId")

	eng := h.builders.Get(GetSessionID(r.Context()))
	if !eng.RemoveWaypoint(waypointID) {
		response.NotFound(w, r, "waypoint not found")
		return
	}

	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// ReorderWaypoint handles POST /v1/builder/waypoints/reorder.
func (h *BuilderHandler) ReorderWaypoint(w http.ResponseWriter, r *http.Request) {
	var input models.ReorderWaypointRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}

	eng := h.builders.Get(GetSessionID(r.Context()))
	if !eng.ReorderWaypoint(input.FromIndex, input.ToIndex) {
		response.BadRequest(w, r, "reorder indices out of range", nil)
		return
	}

	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// Clear handles DELETE /v1/builder - empty the sequence.
func (h *BuilderHandler) Clear(w http.ResponseWriter, r *http.Request) {
	eng := h.builders.Get(GetSessionID(r.Context()))
	eng.Clear()
	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// CancelRecalculation handles POST /v1/builder/cancel - stop pending work.
func (h *BuilderHandler) CancelRecalculation(w http.ResponseWriter, r *http.Request) {
	eng := h.builders.Get(GetSessionID(r.Context()))
	eng.CancelRecalculation()
	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// Restore handles POST /v1/builder/restore - load a saved route.
func (h *BuilderHandler) Restore(w http.ResponseWriter, r *http.Request) {
	var input models.RestoreRequest
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		response.BadRequest(w, r, "invalid JSON body", nil)
		return
	}
	if input.RouteID == "" {
		response.BadRequest(w, r, "routeId is required", nil)
		return
	}

	sessionID := GetSessionID(r.Context())

	route, err := h.savedService.Get(r.Context(), sessionID, input.RouteID)
	if err != nil {
		if errors.Is(err, saved.ErrRouteNotFound) {
			response.NotFound(w, r, "route not found")
			return
		}
		response.InternalError(w, r, "failed to load route")
		return
	}

	eng := h.builders.Get(sessionID)
	eng.Restore(restoredWaypoints(route.Waypoints))

	response.JSON(w, r, http.StatusOK, builderStateDTO(eng.State()))
}

// restoredWaypoints converts stored waypoints back into builder waypoints.
// Ids are left empty; the store assigns fresh ones.
func restoredWaypoints(stored []saved.StoredWaypoint) []waypoint.Waypoint {
	waypoints := make([]waypoint.Waypoint, len(stored))
	for i, wp := range stored {
		waypoints[i] = waypoint.Waypoint{
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

func validateCoordinate(lng, lat float64) []models.FieldError {
	var errs []models.FieldError
	if lng < -180 || lng > 180 {
		errs = append(errs, models.FieldError{Field: "lng", Message: "must be between -180 and 180", Code: "out_of_range"})
	}
	if lat < -90 || lat > 90 {
		errs = append(errs, models.FieldError{Field: "lat", Message: "must be between -90 and 90", Code: "out_of_range"})
	}
	return errs
}

// builderStateDTO maps an engine snapshot onto the API representation.
func builderStateDTO(snap engine.Snapshot) models.BuilderState {
	state := models.BuilderState{
		Waypoints:       make([]models.Waypoint, len(snap.Waypoints)),
		SequenceVersion: snap.Version,
		Path:            pathDTO(snap.Path),
		PathVersion:     snap.PathVersion,
		Recalculation:   string(snap.Scheduler),
		Stats: models.RouteStats{
			DistanceMeters:   snap.Stats.DistanceMeters,
			DurationSeconds:  snap.Stats.DurationSeconds,
			Stops:            snap.Stats.Stops,
			CurvatureTotal:   snap.Stats.CurvatureTotal,
			CurvatureAverage: snap.Stats.CurvatureAverage,
			Rating:           string(snap.Stats.Rating),
		},
	}

	for i, wp := range snap.Waypoints {
		state.Waypoints[i] = models.Waypoint{
			ID:              wp.ID,
			Lng:             wp.Lng,
			Lat:             wp.Lat,
			Order:           wp.Order,
			Label:           wp.Label,
			OriginSegmentID: wp.OriginSegmentID,
			UserModified:    wp.UserModified,
			Curvature:       wp.Curvature,
		}
	}

	if snap.Err != nil {
		msg := snap.Err.Error()
		state.Error = &msg
	}

	return state
}

func pathDTO(path *routing.ComputedPath) *models.Path {
	if path == nil {
		return nil
	}

	dto := &models.Path{
		Geometry:        encodePathGeometry(path.Geometry),
		DistanceMeters:  path.DistanceMeters,
		DurationSeconds: path.DurationSeconds,
		Provider:        path.Provider,
		ComputedAt:      models.Timestamp(path.FetchedAt),
	}

	for _, wp := range path.SnappedWaypoints {
		dto.SnappedWaypoints = append(dto.SnappedWaypoints, models.SnappedWaypoint{
			Lng:     wp.Lng,
			Lat:     wp.Lat,
			Snapped: wp.Snapped,
		})
	}

	return dto
}

func encodePathGeometry(coords []routing.Coordinate) string {
	points := make([]polyline.Coordinate, len(coords))
	for i, c := range coords {
		points[i] = polyline.Coordinate{Lng: c.Lng, Lat: c.Lat}
	}
	return polyline.Encode(points)
}
