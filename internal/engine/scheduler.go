package engine

import (
	"context"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/waypoint"
)

// State describes what the scheduler is currently doing.
type State string

const (
	// StateIdle means no recalculation is pending or outstanding.
	StateIdle State = "idle"
	// StatePending means a mutation has been observed and a request will
	// be issued once the debounce window elapses.
	StatePending State = "pending"
	// StateInFlight means a recalculation request is outstanding.
	StateInFlight State = "inflight"
)

// ChangeKind distinguishes continuous drag updates, which are debounced,
// from discrete mutations, which trigger recalculation immediately.
type ChangeKind int

const (
	ChangeDiscrete ChangeKind = iota
	ChangeDrag
)

const (
	// DefaultDragDebounce is the quiet period required after the last
	// drag update before a recalculation is issued.
	DefaultDragDebounce = 150 * time.Millisecond
	// DefaultRequestTimeout bounds a single recalculation request.
	DefaultRequestTimeout = 30 * time.Second
)

// Planner computes a drivable path through an ordered set of waypoints.
// It is satisfied by routing.Service and by the raw providers.
type Planner interface {
	ComputeRoute(ctx context.Context, req routing.RouteRequest) (*routing.ComputedPath, error)
}

// SchedulerConfig holds the dependencies and tuning for a Scheduler.
type SchedulerConfig struct {
	Planner Planner
	Store   *waypoint.Store
	Clock   Clock
	Logger  zerolog.Logger

	// DragDebounce overrides DefaultDragDebounce when positive.
	DragDebounce time.Duration
	// RequestTimeout overrides DefaultRequestTimeout when positive.
	RequestTimeout time.Duration
}

// Scheduler decides when to recalculate the route for a waypoint sequence.
//
// Every request is tagged with the store's sequence version at launch time.
// A response whose tag no longer matches the current version describes a
// sequence the user has since changed and is discarded without touching
// the published path. Because clearing the sequence resets the version
// counter, requests additionally carry an epoch that advances whenever the
// sequence empties; a response from a previous epoch is discarded even when
// a rebuilt sequence lands on the same version number. At most one request
// is outstanding at a time; a mutation observed while one is in flight
// re-arms the debounce timer and the follow-up request is issued once the
// stale response returns.
type Scheduler struct {
	planner        Planner
	store          *waypoint.Store
	clock          Clock
	logger         zerolog.Logger
	dragDebounce   time.Duration
	requestTimeout time.Duration

	baseCtx   context.Context
	cancelAll context.CancelFunc

	mu          sync.Mutex
	timer       Timer
	timerArmed  bool
	epoch       uint64
	inFlight    bool
	inFlightTag uint64
	queued      bool
	path        *routing.ComputedPath
	pathVersion uint64
	lastErr     error
	closed      bool

	wg sync.WaitGroup
}

// NewScheduler creates a Scheduler. Store and Planner are required.
func NewScheduler(cfg SchedulerConfig) *Scheduler {
	if cfg.Clock == nil {
		cfg.Clock = NewClock()
	}
	if cfg.DragDebounce <= 0 {
		cfg.DragDebounce = DefaultDragDebounce
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = DefaultRequestTimeout
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Scheduler{
		planner:        cfg.Planner,
		store:          cfg.Store,
		clock:          cfg.Clock,
		logger:         cfg.Logger,
		dragDebounce:   cfg.DragDebounce,
		requestTimeout: cfg.RequestTimeout,
		baseCtx:        ctx,
		cancelAll:      cancel,
	}
}

// OnSequenceChanged notifies the scheduler that the waypoint sequence was
// mutated. Drag changes are debounced; discrete changes fire immediately.
// Fewer than two waypoints cancels any pending work and clears the path.
func (s *Scheduler) OnSequenceChanged(kind ChangeKind) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		return
	}

	// A fresh mutation re-arms recalculation, so a previous failure no
	// longer describes the current sequence.
	s.lastErr = nil

	if s.store.Len() < 2 {
		s.stopTimerLocked()
		s.queued = false
		s.epoch++
		s.path = nil
		s.pathVersion = 0
		return
	}

	delay := time.Duration(0)
	if kind == ChangeDrag {
		delay = s.dragDebounce
	}

	s.stopTimerLocked()
	s.timerArmed = true
	s.timer = s.clock.AfterFunc(delay, s.onTimer)
}

// Cancel stops any pending recalculation without clearing the published
// path. An outstanding request is allowed to finish; its response is
// dropped if the sequence has moved on.
func (s *Scheduler) Cancel() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.stopTimerLocked()
	s.queued = false
}

// CurrentState reports the scheduler's state. A re-armed debounce timer
// takes precedence over an outstanding request, since the request's
// result is already known to be stale.
func (s *Scheduler) CurrentState() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.timerArmed || s.queued:
		return StatePending
	case s.inFlight:
		return StateInFlight
	default:
		return StateIdle
	}
}

// Path returns the most recently published path and the sequence version
// it was computed for. Nil when no path has been computed yet or the
// sequence shrank below two waypoints.
func (s *Scheduler) Path() (*routing.ComputedPath, uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.path, s.pathVersion
}

// Err returns the failure from the most recent recalculation attempt, or
// nil. The previous path stays published alongside the error.
func (s *Scheduler) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastErr
}

// Close cancels pending and outstanding work and waits for the worker
// goroutine to exit. The scheduler must not be used afterwards.
func (s *Scheduler) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	s.stopTimerLocked()
	s.queued = false
	s.mu.Unlock()

	s.cancelAll()
	s.wg.Wait()
}

func (s *Scheduler) stopTimerLocked() {
	if s.timer != nil {
		s.timer.Stop()
		s.timer = nil
	}
	s.timerArmed = false
}

func (s *Scheduler) onTimer() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.timerArmed = false
	s.timer = nil
	if s.closed {
		return
	}
	if s.inFlight {
		// Only one request may be outstanding. Remember the intent and
		// launch once the stale response comes back.
		s.queued = true
		return
	}
	s.launchLocked()
}

// launchLocked snapshots the sequence and issues a recalculation request
// tagged with the current version. Caller holds s.mu.
func (s *Scheduler) launchLocked() {
	snapshot := s.store.Snapshot()
	version := s.store.Version()

	if len(snapshot) < 2 {
		s.path = nil
		s.pathVersion = 0
		return
	}

	s.inFlight = true
	s.inFlightTag = version
	epoch := s.epoch

	req := routing.RouteRequest{Waypoints: make([]routing.RouteWaypoint, len(snapshot))}
	for i, wp := range snapshot {
		req.Waypoints[i] = routing.RouteWaypoint{
			Lng:       wp.Lng,
			Lat:       wp.Lat,
			SegmentID: wp.OriginSegmentID,
		}
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(s.baseCtx, s.requestTimeout)
		defer cancel()
		path, err := s.planner.ComputeRoute(ctx, req)
		s.handleResponse(epoch, version, path, err)
	}()
}

func (s *Scheduler) handleResponse(epoch, tag uint64, path *routing.ComputedPath, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.inFlight = false
	if s.closed {
		return
	}

	current := s.store.Version()
	if epoch != s.epoch || tag != current {
		s.logger.Debug().
			Uint64("request_epoch", epoch).
			Uint64("request_version", tag).
			Uint64("current_version", current).
			Msg("discarding stale route response")
		if s.queued {
			s.queued = false
			s.launchLocked()
		}
		return
	}

	if err != nil {
		s.logger.Warn().Err(err).Uint64("version", tag).Msg("route recalculation failed")
		s.lastErr = err
	} else {
		s.path = path
		s.pathVersion = tag
		s.lastErr = nil
	}

	if s.queued {
		s.queued = false
		s.launchLocked()
	}
}
