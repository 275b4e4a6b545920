package handler

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/api/response"
	"github.com/switchbackmaps/switchback/internal/featureflags"
	"github.com/switchbackmaps/switchback/internal/geocode"
)

// GeocodeHandler handles place search and reverse geocoding.
type GeocodeHandler struct {
	geocoder *geocode.Service
	flags    *featureflags.Service
}

// NewGeocodeHandler creates a new GeocodeHandler.
func NewGeocodeHandler(geocoder *geocode.Service, flags *featureflags.Service) *GeocodeHandler {
	return &GeocodeHandler{geocoder: geocoder, flags: flags}
}

// Search handles GET /v1/geocode/search - find places by name.
func (h *GeocodeHandler) Search(w http.ResponseWriter, r *http.Request) {
	if !h.flags.IsGeocodingEnabled(r.Context()) {
		response.ServiceUnavailable(w, r, "geocoding is currently disabled")
		return
	}

	query := r.URL.Query().Get("q")
	if query == "" {
		response.BadRequest(w, r, "q is required", nil)
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 20 {
			response.BadRequest(w, r, "limit must be an integer between 1 and 20", nil)
			return
		}
		limit = parsed
	}

	places, err := h.geocoder.Search(r.Context(), query, limit)
	if err != nil && !errors.Is(err, geocode.ErrNoResults) {
		response.ServiceUnavailable(w, r, "place search is unavailable at this time")
		return
	}

	result := models.GeocodeSearchResponse{
		Query:  query,
		Places: make([]models.Place, len(places)),
	}
	for i, place := range places {
		result.Places[i] = placeDTO(place)
	}

	response.JSON(w, r, http.StatusOK, result)
}

// Reverse handles GET /v1/geocode/reverse - name the place at a coordinate.
func (h *GeocodeHandler) Reverse(w http.ResponseWriter, r *http.Request) {
	if !h.flags.IsGeocodingEnabled(r.Context()) {
		response.ServiceUnavailable(w, r, "geocoding is currently disabled")
		return
	}

	lng, err := strconv.ParseFloat(r.URL.Query().Get("lng"), 64)
	if err != nil || lng < -180 || lng > 180 {
		response.BadRequest(w, r, "lng must be a valid longitude", nil)
		return
	}
	lat, err := strconv.ParseFloat(r.URL.Query().Get("lat"), 64)
	if err != nil || lat < -90 || lat > 90 {
		response.BadRequest(w, r, "lat must be a valid latitude", nil)
		return
	}

	place, err := h.geocoder.Reverse(r.Context(), lng, lat)
	if err != nil {
		if errors.Is(err, geocode.ErrNoResults) {
			response.NotFound(w, r, "no place found at this coordinate")
			return
		}
		response.ServiceUnavailable(w, r, "reverse geocoding is unavailable at this time")
		return
	}

	response.JSON(w, r, http.StatusOK, placeDTO(*place))
}

func placeDTO(place geocode.Place) models.Place {
	return models.Place{
		Name:        place.Name,
		DisplayName: place.DisplayName,
		Lng:         place.Lng,
		Lat:         place.Lat,
		Category:    place.Category,
		Type:        place.Type,
	}
}
