package api_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/switchbackmaps/switchback/internal/api"
	"github.com/switchbackmaps/switchback/internal/api/models"
	"github.com/switchbackmaps/switchback/internal/curvature"
	"github.com/switchbackmaps/switchback/internal/engine"
	"github.com/switchbackmaps/switchback/internal/featureflags"
	"github.com/switchbackmaps/switchback/internal/geocode"
	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/internal/session"
)

// fakeRoutePlanner echoes the input waypoints back as the path geometry.
type fakeRoutePlanner struct{}

func (fakeRoutePlanner) ComputeRoute(_ context.Context, req routing.RouteRequest) (*routing.ComputedPath, error) {
	geometry := make([]routing.Coordinate, len(req.Waypoints))
	snapped := make([]routing.SnappedWaypoint, len(req.Waypoints))
	for i, wp := range req.Waypoints {
		geometry[i] = routing.Coordinate{Lng: wp.Lng, Lat: wp.Lat}
		snapped[i] = routing.SnappedWaypoint{Lng: wp.Lng, Lat: wp.Lat, Snapped: true}
	}
	return &routing.ComputedPath{
		Geometry:         geometry,
		DistanceMeters:   float64(len(req.Waypoints)) * 1000,
		DurationSeconds:  float64(len(req.Waypoints)) * 60,
		SnappedWaypoints: snapped,
		Provider:         "test",
		FetchedAt:        time.Now(),
	}, nil
}

type fakeGeocoder struct{}

func (fakeGeocoder) Search(_ context.Context, query string, _ int) ([]geocode.Place, error) {
	return []geocode.Place{{Name: query, DisplayName: query + ", Test County", Lng: -120.1, Lat: 39.2}}, nil
}

func (fakeGeocoder) Reverse(_ context.Context, lng, lat float64) (*geocode.Place, error) {
	return &geocode.Place{Name: "Somewhere", DisplayName: "Somewhere, Test County", Lng: lng, Lat: lat}, nil
}

func (fakeGeocoder) Name() string { return "test-geocoder" }

func (fakeGeocoder) CheckHealth(_ context.Context) error { return nil }

func newTestRouter(t *testing.T) http.Handler {
	t.Helper()
	logger := zerolog.Nop()

	sessionService := session.NewService(session.ServiceConfig{
		JWTService: session.NewJWTService(session.JWTConfig{SigningKey: "router-test-signing-key"}),
		Repo:       session.NewInMemoryRepository(),
		Logger:     logger,
	})

	savedService := saved.NewService(saved.NewInMemoryRepository(), logger)

	segmentRepo := curvature.NewInMemoryRepository()
	segmentRepo.Seed([]*curvature.Segment{{
		ID:           "seg_alpine_loop",
		Name:         "Alpine Loop Road",
		StartLng:     -120.10,
		StartLat:     39.20,
		EndLng:       -120.05,
		EndLat:       39.30,
		Curvature:    1200,
		LengthMeters: 18000,
		Paved:        true,
	}})
	segmentService := curvature.NewService(segmentRepo, logger)

	flagService := featureflags.NewService(featureflags.ServiceConfig{
		Repository: featureflags.NewInMemoryRepository(),
		Logger:     logger,
	})

	geocodeService := geocode.NewService(geocode.ServiceConfig{
		Provider: fakeGeocoder{},
		Logger:   logger,
	})

	builders := engine.NewManager(engine.ManagerConfig{
		Engine: engine.Config{Planner: fakeRoutePlanner{}, Logger: logger},
		Logger: logger,
	})
	t.Cleanup(builders.Close)

	return api.NewRouter(api.RouterConfig{
		Version:            "test",
		BuildTime:          "2026-01-01T00:00:00Z",
		Logger:             logger,
		SessionService:     sessionService,
		SavedService:       savedService,
		SegmentService:     segmentService,
		GeocodeService:     geocodeService,
		FeatureFlagService: flagService,
		Builders:           builders,
	})
}

func doRequest(t *testing.T, h http.Handler, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		data, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(data)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func createSession(t *testing.T, h http.Handler) string {
	t.Helper()

	w := doRequest(t, h, http.MethodPost, "/v1/sessions", "", nil)
	require.Equal(t, http.StatusCreated, w.Code)

	var token session.TokenResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &token))
	require.NotEmpty(t, token.Token)
	return token.Token
}

func decodeState(t *testing.T, w *httptest.ResponseRecorder) models.BuilderState {
	t.Helper()

	var state models.BuilderState
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &state))
	return state
}

func TestRouter_HealthEndpointsArePublic(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/v1/ops/health", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodGet, "/v1/ops/ready", "", nil)
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRouter_BuilderRequiresSession(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/v1/builder", "", nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/problem+json")
}

func TestRouter_SessionLifecycle(t *testing.T) {
	h := newTestRouter(t)
	token := createSession(t, h)

	w := doRequest(t, h, http.MethodGet, "/v1/sessions/me", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var sess session.Session
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &sess))
	assert.NotEmpty(t, sess.ID)

	w = doRequest(t, h, http.MethodDelete, "/v1/sessions/me", token, nil)
	require.Equal(t, http.StatusNoContent, w.Code)

	// The token no longer resolves to a session.
	w = doRequest(t, h, http.MethodGet, "/v1/sessions/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestRouter_BuildSaveExportFlow(t *testing.T) {
	h := newTestRouter(t)
	token := createSession(t, h)

	w := doRequest(t, h, http.MethodPost, "/v1/builder/waypoints", token, models.AddWaypointRequest{Lng: -120.10, Lat: 39.20})
	require.Equal(t, http.StatusOK, w.Code)

	w = doRequest(t, h, http.MethodPost, "/v1/builder/waypoints", token, models.AddWaypointRequest{Lng: -120.05, Lat: 39.30})
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, decodeState(t, w).Waypoints, 2)

	// Recalculation runs asynchronously; wait for the path to land.
	require.Eventually(t, func() bool {
		w := doRequest(t, h, http.MethodGet, "/v1/builder", token, nil)
		if w.Code != http.StatusOK {
			return false
		}
		state := decodeState(t, w)
		return state.Path != nil && state.Recalculation == "idle"
	}, 2*time.Second, 10*time.Millisecond)

	w = doRequest(t, h, http.MethodPost, "/v1/routes", token, models.SaveRouteRequest{Name: "Morning Sweepers"})
	require.Equal(t, http.StatusCreated, w.Code)
	assert.NotEmpty(t, w.Header().Get("Location"))

	var route models.Route
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &route))
	assert.Equal(t, "Morning Sweepers", route.Name)
	assert.Len(t, route.Waypoints, 2)
	assert.NotEmpty(t, route.Geometry)

	w = doRequest(t, h, http.MethodGet, "/v1/routes", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var page models.PagedRoutes
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &page))
	require.Len(t, page.Items, 1)

	w = doRequest(t, h, http.MethodGet, "/v1/routes/"+route.ID+"/export/gpx", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Type"), "application/gpx+xml")
	assert.Contains(t, w.Body.String(), "<gpx")
}

func TestRouter_RestoreSavedRoute(t *testing.T) {
	h := newTestRouter(t)
	token := createSession(t, h)

	doRequest(t, h, http.MethodPost, "/v1/builder/waypoints", token, models.AddWaypointRequest{Lng: -120.10, Lat: 39.20})
	doRequest(t, h, http.MethodPost, "/v1/builder/waypoints", token, models.AddWaypointRequest{Lng: -120.05, Lat: 39.30})

	w := doRequest(t, h, http.MethodPost, "/v1/routes", token, models.SaveRouteRequest{Name: "Keeper"})
	require.Equal(t, http.StatusCreated, w.Code)

	var route models.Route
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &route))

	w = doRequest(t, h, http.MethodDelete, "/v1/builder", token, nil)
	require.Equal(t, http.StatusOK, w.Code)
	require.Empty(t, decodeState(t, w).Waypoints)

	w = doRequest(t, h, http.MethodPost, "/v1/builder/restore", token, models.RestoreRequest{RouteID: route.ID})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeState(t, w).Waypoints, 2)
}

func TestRouter_ReorderWaypointInPlace(t *testing.T) {
	h := newTestRouter(t)
	token := createSession(t, h)

	doRequest(t, h, http.MethodPost, "/v1/builder/waypoints", token, models.AddWaypointRequest{Lng: -120.10, Lat: 39.20})
	doRequest(t, h, http.MethodPost, "/v1/builder/waypoints", token, models.AddWaypointRequest{Lng: -120.05, Lat: 39.30})

	// Releasing a dragged stop on its own position is a successful no-op.
	w := doRequest(t, h, http.MethodPost, "/v1/builder/waypoints/reorder", token, models.ReorderWaypointRequest{FromIndex: 0, ToIndex: 0})
	require.Equal(t, http.StatusOK, w.Code)

	state := decodeState(t, w)
	require.Len(t, state.Waypoints, 2)
	assert.Equal(t, -120.10, state.Waypoints[0].Lng)

	w = doRequest(t, h, http.MethodPost, "/v1/builder/waypoints/reorder", token, models.ReorderWaypointRequest{FromIndex: 0, ToIndex: 5})
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_SegmentsEndpoint(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/v1/segments?minLng=-121&minLat=39&maxLng=-120&maxLat=40", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var fc curvature.FeatureCollection
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &fc))
	assert.Len(t, fc.Features, 1)

	w = doRequest(t, h, http.MethodGet, "/v1/segments/seg_alpine_loop", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var seg models.Segment
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &seg))
	assert.Equal(t, "Alpine Loop Road", seg.Name)

	w = doRequest(t, h, http.MethodGet, "/v1/segments", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_ChainSegmentIntoBuilder(t *testing.T) {
	h := newTestRouter(t)
	token := createSession(t, h)

	w := doRequest(t, h, http.MethodPost, "/v1/builder/segments", token, models.AddSegmentRequest{SegmentID: "seg_alpine_loop"})
	require.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeState(t, w).Waypoints, 2)

	w = doRequest(t, h, http.MethodPost, "/v1/builder/segments", token, models.AddSegmentRequest{SegmentID: "seg_missing"})
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestRouter_GeocodeSearch(t *testing.T) {
	h := newTestRouter(t)

	w := doRequest(t, h, http.MethodGet, "/v1/geocode/search?q=alpine", "", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var result models.GeocodeSearchResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.Equal(t, "alpine", result.Query)
	require.Len(t, result.Places, 1)

	w = doRequest(t, h, http.MethodGet, "/v1/geocode/search", "", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestRouter_FeatureFlagsGateGeocoding(t *testing.T) {
	h := newTestRouter(t)
	token := createSession(t, h)

	w := doRequest(t, h, http.MethodGet, "/v1/admin/feature-flags", token, nil)
	require.Equal(t, http.StatusOK, w.Code)

	var list featureflags.FlagList
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &list))
	assert.NotEmpty(t, list.Items)

	update := featureflags.FlagUpdateRequest{
		Updates: []featureflags.FlagUpdate{{Key: featureflags.FlagGeocoding, Value: false}},
		Reason:  "upstream outage",
	}
	w = doRequest(t, h, http.MethodPut, "/v1/admin/feature-flags", token, update)
	require.Equal(t, http.StatusNoContent, w.Code)

	w = doRequest(t, h, http.MethodGet, "/v1/geocode/search?q=alpine", "", nil)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
