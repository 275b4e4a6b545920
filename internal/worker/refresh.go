package worker

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/saved"
	"github.com/switchbackmaps/switchback/pkg/polyline"
)

// RouteStore lists stale routes and stores refreshed paths.
type RouteStore interface {
	ListStale(ctx context.Context, olderThan time.Time, limit int) ([]*saved.Route, error)
	StorePath(ctx context.Context, route *saved.Route, geometry string, distanceMeters, durationSeconds float64) error
}

// PathPlanner computes road-snapped paths for stored waypoint sequences.
type PathPlanner interface {
	ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.ComputedPath, error)
	CheckHealth(ctx context.Context) error
	Name() string
}

// RefreshFlags gates the refresh job at runtime.
type RefreshFlags interface {
	IsRouteRefreshDisabled(ctx context.Context) bool
}

// RefreshJob re-computes the stored paths of saved routes so they track
// changes in the underlying road network data.
type RefreshJob struct {
	config  RefreshConfig
	logger  zerolog.Logger
	routes  RouteStore
	planner PathPlanner
	flags   RefreshFlags

	metrics *RefreshMetrics
}

// RefreshJobConfig holds configuration for creating a RefreshJob.
type RefreshJobConfig struct {
	Config  RefreshConfig
	Logger  zerolog.Logger
	Routes  RouteStore
	Planner PathPlanner
	Flags   RefreshFlags // optional
}

// NewRefreshJob creates a new refresh job processor.
func NewRefreshJob(cfg RefreshJobConfig) *RefreshJob {
	return &RefreshJob{
		config:  cfg.Config.withDefaults(),
		logger:  cfg.Logger,
		routes:  cfg.Routes,
		planner: cfg.Planner,
		flags:   cfg.Flags,
		metrics: &RefreshMetrics{},
	}
}

// RefreshMetrics tracks refresh job statistics.
type RefreshMetrics struct {
	mu sync.RWMutex

	TotalRuns       int64
	RefreshedRoutes int64
	SkippedRoutes   int64
	FailedRoutes    int64

	LastRunAt       time.Time
	LastRunDuration time.Duration
	TotalDuration   time.Duration
}

// RefreshResult contains the result of a refresh run.
type RefreshResult struct {
	StartTime   time.Time
	EndTime     time.Time
	Duration    time.Duration
	TotalRoutes int
	Refreshed   int
	Skipped     int
	Failed      int
	Disabled    bool
	Errors      []RefreshError
}

// RefreshError records a single route's refresh failure.
type RefreshError struct {
	RouteID string
	Error   string
}

// Run refreshes the stored paths of every stale saved route.
func (j *RefreshJob) Run(ctx context.Context) *RefreshResult {
	startTime := time.Now()
	result := &RefreshResult{StartTime: startTime}

	if j.flags != nil && j.flags.IsRouteRefreshDisabled(ctx) {
		j.logger.Info().Msg("route refresh disabled by feature flag, skipping run")
		result.Disabled = true
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		return result
	}

	olderThan := startTime.Add(-j.config.Staleness)
	routes, err := j.routes.ListStale(ctx, olderThan, j.config.BatchSize)
	if err != nil {
		j.logger.Error().Err(err).Msg("failed to list stale routes")
		result.Errors = append(result.Errors, RefreshError{Error: err.Error()})
		result.EndTime = time.Now()
		result.Duration = result.EndTime.Sub(startTime)
		return result
	}

	result.TotalRoutes = len(routes)

	j.logger.Info().
		Int("total_routes", result.TotalRoutes).
		Int("concurrency", j.config.Concurrency).
		Time("older_than", olderThan).
		Msg("starting route refresh job")

	routesChan := make(chan *saved.Route, len(routes))
	resultsChan := make(chan routeResult, len(routes))

	var wg sync.WaitGroup
	for i := 0; i < j.config.Concurrency; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			j.refreshWorker(ctx, routesChan, resultsChan)
		}()
	}

	for _, route := range routes {
		routesChan <- route
	}
	close(routesChan)

	go func() {
		wg.Wait()
		close(resultsChan)
	}()

	for rr := range resultsChan {
		switch {
		case rr.skipped:
			result.Skipped++
		case rr.err != nil:
			result.Failed++
			result.Errors = append(result.Errors, RefreshError{
				RouteID: rr.routeID,
				Error:   rr.err.Error(),
			})
		default:
			result.Refreshed++
		}
	}

	result.EndTime = time.Now()
	result.Duration = result.EndTime.Sub(startTime)

	j.updateMetrics(result)

	j.logger.Info().
		Dur("duration", result.Duration).
		Int("refreshed", result.Refreshed).
		Int("skipped", result.Skipped).
		Int("failed", result.Failed).
		Msg("route refresh job completed")

	return result
}

// HealthCheck verifies the routing engine is reachable.
func (j *RefreshJob) HealthCheck(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()
	return j.planner.CheckHealth(ctx)
}

type routeResult struct {
	routeID string
	skipped bool
	err     error
}

func (j *RefreshJob) refreshWorker(ctx context.Context, routes <-chan *saved.Route, results chan<- routeResult) {
	for route := range routes {
		select {
		case <-ctx.Done():
			return
		default:
			results <- j.refreshRoute(ctx, route)
		}
	}
}

func (j *RefreshJob) refreshRoute(ctx context.Context, route *saved.Route) routeResult {
	result := routeResult{routeID: route.ID}

	// Routes saved with fewer than two stops carry no path to refresh.
	if len(route.Waypoints) < 2 {
		result.skipped = true
		return result
	}

	routeCtx, cancel := context.WithTimeout(ctx, j.config.Timeout)
	defer cancel()

	path, err := j.planner.ComputeRoute(routeCtx, buildRequest(route))
	if err != nil {
		j.logger.Warn().Err(err).
			Str("route_id", route.ID).
			Msg("failed to refresh route path")
		result.err = err
		return result
	}

	geometry := encodeGeometry(path.Geometry)
	if err := j.routes.StorePath(ctx, route, geometry, path.DistanceMeters, path.DurationSeconds); err != nil {
		j.logger.Error().Err(err).
			Str("route_id", route.ID).
			Msg("failed to store refreshed path")
		result.err = err
		return result
	}

	j.logger.Debug().
		Str("route_id", route.ID).
		Float64("distance_m", path.DistanceMeters).
		Msg("refreshed route path")

	return result
}

// buildRequest converts a route's stored waypoints into a path request,
// ordered by their stop position.
func buildRequest(route *saved.Route) routing.RouteRequest {
	waypoints := make([]saved.StoredWaypoint, len(route.Waypoints))
	copy(waypoints, route.Waypoints)
	sort.Slice(waypoints, func(i, j int) bool {
		return waypoints[i].Order < waypoints[j].Order
	})

	req := routing.RouteRequest{
		Waypoints: make([]routing.RouteWaypoint, len(waypoints)),
	}
	for i, wp := range waypoints {
		req.Waypoints[i] = routing.RouteWaypoint{
			Lng:       wp.Lng,
			Lat:       wp.Lat,
			SegmentID: wp.OriginSegmentID,
		}
	}
	return req
}

func encodeGeometry(coords []routing.Coordinate) string {
	points := make([]polyline.Coordinate, len(coords))
	for i, c := range coords {
		points[i] = polyline.Coordinate{Lng: c.Lng, Lat: c.Lat}
	}
	return polyline.Encode(points)
}

func (j *RefreshJob) updateMetrics(result *RefreshResult) {
	j.metrics.mu.Lock()
	defer j.metrics.mu.Unlock()

	j.metrics.TotalRuns++
	j.metrics.RefreshedRoutes += int64(result.Refreshed)
	j.metrics.SkippedRoutes += int64(result.Skipped)
	j.metrics.FailedRoutes += int64(result.Failed)
	j.metrics.LastRunAt = result.EndTime
	j.metrics.LastRunDuration = result.Duration
	j.metrics.TotalDuration += result.Duration
}

// GetMetrics returns a copy of the current metrics.
func (j *RefreshJob) GetMetrics() RefreshMetrics {
	j.metrics.mu.RLock()
	defer j.metrics.mu.RUnlock()

	return RefreshMetrics{
		TotalRuns:       j.metrics.TotalRuns,
		RefreshedRoutes: j.metrics.RefreshedRoutes,
		SkippedRoutes:   j.metrics.SkippedRoutes,
		FailedRoutes:    j.metrics.FailedRoutes,
		LastRunAt:       j.metrics.LastRunAt,
		LastRunDuration: j.metrics.LastRunDuration,
		TotalDuration:   j.metrics.TotalDuration,
	}
}

// MetricsSnapshot returns a snapshot of the current metrics as a map.
func (j *RefreshJob) MetricsSnapshot() map[string]interface{} {
	m := j.GetMetrics()
	return map[string]interface{}{
		"total_runs":        m.TotalRuns,
		"refreshed_routes":  m.RefreshedRoutes,
		"skipped_routes":    m.SkippedRoutes,
		"failed_routes":     m.FailedRoutes,
		"last_run_at":       m.LastRunAt,
		"last_run_duration": m.LastRunDuration.String(),
		"total_duration":    m.TotalDuration.String(),
	}
}
