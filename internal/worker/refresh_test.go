package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/saved"
)

type fakeRouteStore struct {
	mu     sync.Mutex
	stale  []*saved.Route
	stored map[string]string // route ID -> geometry
}

func (s *fakeRouteStore) ListStale(_ context.Context, _ time.Time, limit int) ([]*saved.Route, error) {
	if len(s.stale) > limit {
		return s.stale[:limit], nil
	}
	return s.stale, nil
}

func (s *fakeRouteStore) StorePath(_ context.Context, route *saved.Route, geometry string, _, _ float64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.stored == nil {
		s.stored = make(map[string]string)
	}
	s.stored[route.ID] = geometry
	return nil
}

type fakePlanner struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (p *fakePlanner) ComputeRoute(_ context.Context, req routing.RouteRequest) (*routing.ComputedPath, error) {
	p.mu.Lock()
	p.calls++
	p.mu.Unlock()

	if p.err != nil {
		return nil, p.err
	}

	geometry := make([]routing.Coordinate, len(req.Waypoints))
	for i, wp := range req.Waypoints {
		geometry[i] = routing.Coordinate{Lng: wp.Lng, Lat: wp.Lat}
	}
	return &routing.ComputedPath{
		Geometry:       geometry,
		DistanceMeters: 1000,
	}, nil
}

func (p *fakePlanner) CheckHealth(context.Context) error { return p.err }
func (p *fakePlanner) Name() string                      { return "fake" }

type staticFlags struct {
	refreshDisabled bool
}

func (f staticFlags) IsRouteRefreshDisabled(context.Context) bool { return f.refreshDisabled }

func testRoute(id string, stops int) *saved.Route {
	route := &saved.Route{ID: id, SessionID: "ses_test"}
	for i := 0; i < stops; i++ {
		route.Waypoints = append(route.Waypoints, saved.StoredWaypoint{
			Lng:   -82.5 + float64(i)*0.01,
			Lat:   35.5 + float64(i)*0.01,
			Order: i,
		})
	}
	return route
}

func TestRefreshJob_RefreshesStaleRoutes(t *testing.T) {
	store := &fakeRouteStore{
		stale: []*saved.Route{testRoute("rte_a", 2), testRoute("rte_b", 3)},
	}
	planner := &fakePlanner{}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:  zerolog.Nop(),
		Routes:  store,
		Planner: planner,
	})

	result := job.Run(context.Background())

	if result.Refreshed != 2 || result.Failed != 0 {
		t.Fatalf("expected 2 refreshed, got %+v", result)
	}
	if len(store.stored) != 2 {
		t.Errorf("expected 2 stored paths, got %d", len(store.stored))
	}
	if store.stored["rte_a"] == "" {
		t.Error("expected non-empty geometry stored")
	}

	metrics := job.GetMetrics()
	if metrics.TotalRuns != 1 || metrics.RefreshedRoutes != 2 {
		t.Errorf("unexpected metrics %+v", &metrics)
	}
}

func TestRefreshJob_SkipsSingleStopRoutes(t *testing.T) {
	store := &fakeRouteStore{
		stale: []*saved.Route{testRoute("rte_solo", 1), testRoute("rte_pair", 2)},
	}
	planner := &fakePlanner{}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:  zerolog.Nop(),
		Routes:  store,
		Planner: planner,
	})

	result := job.Run(context.Background())

	if result.Refreshed != 1 || result.Skipped != 1 {
		t.Fatalf("expected 1 refreshed and 1 skipped, got %+v", result)
	}
	if planner.calls != 1 {
		t.Errorf("expected 1 planner call, got %d", planner.calls)
	}
}

func TestRefreshJob_RecordsFailures(t *testing.T) {
	store := &fakeRouteStore{stale: []*saved.Route{testRoute("rte_a", 2)}}
	planner := &fakePlanner{err: errors.New("engine down")}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:  zerolog.Nop(),
		Routes:  store,
		Planner: planner,
	})

	result := job.Run(context.Background())

	if result.Failed != 1 || result.Refreshed != 0 {
		t.Fatalf("expected 1 failure, got %+v", result)
	}
	if len(result.Errors) != 1 || result.Errors[0].RouteID != "rte_a" {
		t.Errorf("expected error attributed to route, got %+v", result.Errors)
	}
}

func TestRefreshJob_DisabledByFlag(t *testing.T) {
	store := &fakeRouteStore{stale: []*saved.Route{testRoute("rte_a", 2)}}
	planner := &fakePlanner{}

	job := NewRefreshJob(RefreshJobConfig{
		Logger:  zerolog.Nop(),
		Routes:  store,
		Planner: planner,
		Flags:   staticFlags{refreshDisabled: true},
	})

	result := job.Run(context.Background())

	if !result.Disabled {
		t.Fatal("expected run marked disabled")
	}
	if planner.calls != 0 {
		t.Errorf("expected no planner calls, got %d", planner.calls)
	}
}

func TestRefreshJob_HonorsBatchSize(t *testing.T) {
	store := &fakeRouteStore{
		stale: []*saved.Route{testRoute("rte_a", 2), testRoute("rte_b", 2), testRoute("rte_c", 2)},
	}
	planner := &fakePlanner{}

	job := NewRefreshJob(RefreshJobConfig{
		Config:  RefreshConfig{BatchSize: 2},
		Logger:  zerolog.Nop(),
		Routes:  store,
		Planner: planner,
	})

	result := job.Run(context.Background())

	if result.TotalRoutes != 2 {
		t.Errorf("expected batch limited to 2 routes, got %d", result.TotalRoutes)
	}
}

func TestBuildRequest_OrdersByStopPosition(t *testing.T) {
	route := &saved.Route{
		Waypoints: []saved.StoredWaypoint{
			{Lng: 2, Lat: 2, Order: 1},
			{Lng: 1, Lat: 1, Order: 0},
			{Lng: 3, Lat: 3, Order: 2},
		},
	}

	req := buildRequest(route)

	if len(req.Waypoints) != 3 {
		t.Fatalf("expected 3 waypoints, got %d", len(req.Waypoints))
	}
	for i, wp := range req.Waypoints {
		if wp.Lng != float64(i+1) {
			t.Errorf("waypoint %d out of order: %+v", i, wp)
		}
	}
}
