// Package engine composes the waypoint sequence, the recalculation
// scheduler and route statistics into the interactive route builder used
// by one session.
package engine

import (
	"errors"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/waypoint"
)

// ErrSegmentNotConnected is returned when a chained segment does not
// touch the end of the current chain within tolerance.
var ErrSegmentNotConnected = errors.New("segment does not connect to the end of the chain")

// Config holds the dependencies and tuning for an Engine.
type Config struct {
	Planner Planner
	Clock   Clock
	Logger  zerolog.Logger

	// IDGenerator overrides waypoint id generation (optional).
	IDGenerator waypoint.IDGenerator
	// ValidateChaining rejects segments that do not connect to the end
	// of the chain. When false any segment may be appended.
	ValidateChaining bool

	DragDebounce   time.Duration
	RequestTimeout time.Duration
}

// Engine is the route builder for a single session. Mutations update the
// waypoint store and notify the scheduler; reads assemble a consistent
// snapshot for the API layer.
type Engine struct {
	store            *waypoint.Store
	sched            *Scheduler
	logger           zerolog.Logger
	validateChaining bool
}

// New creates an Engine with an empty waypoint sequence.
func New(cfg Config) *Engine {
	store := waypoint.NewStore(waypoint.StoreConfig{IDGenerator: cfg.IDGenerator})
	sched := NewScheduler(SchedulerConfig{
		Planner:        cfg.Planner,
		Store:          store,
		Clock:          cfg.Clock,
		Logger:         cfg.Logger,
		DragDebounce:   cfg.DragDebounce,
		RequestTimeout: cfg.RequestTimeout,
	})
	return &Engine{
		store:            store,
		sched:            sched,
		logger:           cfg.Logger,
		validateChaining: cfg.ValidateChaining,
	}
}

// AddWaypoint appends a free-dropped waypoint and schedules an immediate
// recalculation.
func (e *Engine) AddWaypoint(lng, lat float64, opts waypoint.AddOptions) waypoint.Waypoint {
	wp := e.store.Add(lng, lat, opts)
	e.sched.OnSequenceChanged(ChangeDiscrete)
	return wp
}

// AddSegment appends a curated segment's endpoints to the chain. When
// chaining validation is enabled and a previous segment exists, the new
// segment must touch its end within tolerance in either traversal
// direction. Returns false when the segment is already in the chain.
func (e *Engine) AddSegment(seg waypoint.ConnectableSegment) (bool, error) {
	if e.validateChaining {
		if last := e.store.LastSegment(); last != nil && !waypoint.Connects(*last, seg) {
			return false, ErrSegmentNotConnected
		}
	}
	added := e.store.AddFromSegment(seg)
	if !added {
		return false, nil
	}
	e.sched.OnSequenceChanged(ChangeDiscrete)
	return true, nil
}

// MoveWaypoint repositions a waypoint during a drag. Recalculation is
// debounced so a continuous drag produces one request, not dozens.
func (e *Engine) MoveWaypoint(id string, lng, lat float64) bool {
	if !e.store.Update(id, lng, lat) {
		return false
	}
	e.sched.OnSequenceChanged(ChangeDrag)
	return true
}

// RemoveWaypoint deletes a waypoint and schedules an immediate
// recalculation.
func (e *Engine) RemoveWaypoint(id string) bool {
	if !e.store.Remove(id) {
		return false
	}
	e.sched.OnSequenceChanged(ChangeDiscrete)
	return true
}

// ReorderWaypoint moves the waypoint at fromIndex to toIndex. A move onto
// the same position succeeds without scheduling a recalculation.
func (e *Engine) ReorderWaypoint(fromIndex, toIndex int) bool {
	if !e.store.Reorder(fromIndex, toIndex) {
		return false
	}
	if fromIndex != toIndex {
		e.sched.OnSequenceChanged(ChangeDiscrete)
	}
	return true
}

// Clear empties the sequence, cancels pending work and drops the path.
func (e *Engine) Clear() {
	e.sched.Cancel()
	e.store.Clear()
	e.sched.OnSequenceChanged(ChangeDiscrete)
}

// Restore replaces the sequence with waypoints from a saved route and
// schedules a recalculation for the restored sequence.
func (e *Engine) Restore(waypoints []waypoint.Waypoint) {
	e.store.Restore(waypoints)
	e.sched.OnSequenceChanged(ChangeDiscrete)
}

// CancelRecalculation stops any pending recalculation, keeping the
// published path.
func (e *Engine) CancelRecalculation() {
	e.sched.Cancel()
}

// Snapshot is a consistent view of the builder for one session.
type Snapshot struct {
	Waypoints   []waypoint.Waypoint
	Version     uint64
	Path        *routing.ComputedPath
	PathVersion uint64
	Scheduler   State
	Stats       Stats
	Err         error
}

// State assembles the current snapshot. The path may lag the waypoint
// sequence while a recalculation is pending or in flight; PathVersion
// tells the caller which sequence version the path describes.
func (e *Engine) State() Snapshot {
	waypoints := e.store.Snapshot()
	path, pathVersion := e.sched.Path()
	return Snapshot{
		Waypoints:   waypoints,
		Version:     e.store.Version(),
		Path:        path,
		PathVersion: pathVersion,
		Scheduler:   e.sched.CurrentState(),
		Stats:       ComputeStats(waypoints, path),
		Err:         e.sched.Err(),
	}
}

// Close shuts down the scheduler and waits for outstanding work.
func (e *Engine) Close() {
	e.sched.Close()
}
