package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/api/response"
	"github.com/switchbackmaps/switchback/internal/curvature"
)

// SegmentsHandler handles curated segment endpoints.
type SegmentsHandler struct {
	segments *curvature.Service
}

// NewSegmentsHandler creates a new SegmentsHandler.
func NewSegmentsHandler(segments *curvature.Service) *SegmentsHandler {
	return &SegmentsHandler{segments: segments}
}

// List handles GET /v1/segments - segments in a bounding box as GeoJSON.
func (h *SegmentsHandler) List(w http.ResponseWriter, r *http.Request) {
	bounds, errs := parseBounds(r)
	if len(errs) > 0 {
		response.BadRequest(w, r, "validation error", errs)
		return
	}

	opts := curvature.ListOptions{}
	query := r.URL.Query()

	if raw := query.Get("minCurvature"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < 0 {
			response.BadRequest(w, r, "minCurvature must be a non-negative number", nil)
			return
		}
		opts.MinCurvature = parsed
	}
	if raw := query.Get("pavedOnly"); raw != "" {
		parsed, err := strconv.ParseBool(raw)
		if err != nil {
			response.BadRequest(w, r, "pavedOnly must be a boolean", nil)
			return
		}
		opts.PavedOnly = parsed
	}
	if raw := query.Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 500 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 500", nil)
			return
		}
		opts.Limit = parsed
	}

	segments, err := h.segments.ListInBounds(r.Context(), bounds, opts)
	if err != nil {
		response.InternalError(w, r, "failed to list segments")
		return
	}

	response.JSON(w, r, http.StatusOK, curvature.ToGeoJSON(segments))
}

// Get handles GET /v1/segments/{segmentId}.
func (h *SegmentsHandler) Get(w http.ResponseWriter, r *http.Request) {
	seg, err := h.segments.Get(r.Context(), chi.URLParam(r, "segmentId"))
	if err != nil {
		if errors.Is(err, curvature.ErrSegmentNotFound) {
			response.NotFound(w, r, "segment not found")
			return
		}
		response.InternalError(w, r, "failed to load segment")
		return
	}

	response.JSON(w, r, http.StatusOK, segmentDTO(seg))
}

// parseBounds reads the required bounding box query parameters.
func parseBounds(r *http.Request) (curvature.Bounds, []models.FieldError) {
	var bounds curvature.Bounds
	var errs []models.FieldError

	parse := func(name string, dst *float64, min, max float64) {
		raw := r.URL.Query().Get(name)
		if raw == "" {
			errs = append(errs, models.FieldError{Field: name, Message: "is required", Code: "required"})
			return
		}
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed < min || parsed > max {
			errs = append(errs, models.FieldError{Field: name, Message: "must be a valid coordinate", Code: "out_of_range"})
			return
		}
		*dst = parsed
	}

	parse("minLng", &bounds.MinLng, -180, 180)
	parse("minLat", &bounds.MinLat, -90, 90)
	parse("maxLng", &bounds.MaxLng, -180, 180)
	parse("maxLat", &bounds.MaxLat, -90, 90)

	if len(errs) == 0 && (bounds.MinLng > bounds.MaxLng || bounds.MinLat > bounds.MaxLat) {
		errs = append(errs, models.FieldError{Field: "bounds", Message: "min must not exceed max", Code: "invalid"})
	}

	return bounds, errs
}

func segmentDTO(seg *curvature.Segment) models.Segment {
	return models.Segment{
		ID:           seg.ID,
		Name:         seg.Name,
		Start:        models.Coordinate{Lng: seg.StartLng, Lat: seg.StartLat},
		End:          models.Coordinate{Lng: seg.EndLng, Lat: seg.EndLat},
		Curvature:    seg.Curvature,
		Level:        string(seg.Level()),
		LengthMeters: seg.LengthMeters,
		Paved:        seg.Paved,
		Geometry:     seg.Geometry,
	}
}
