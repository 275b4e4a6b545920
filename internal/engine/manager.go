package engine

import (
	"sync"
	"time"

	"github.com/rs/zerolog"
)

const (
	// DefaultSessionTTL is how long an untouched builder survives before
	// eviction.
	DefaultSessionTTL = 2 * time.Hour
	// DefaultEvictionInterval is how often idle builders are swept.
	DefaultEvictionInterval = 10 * time.Minute
)

// ManagerConfig holds the dependencies and tuning for a Manager.
type ManagerConfig struct {
	// Engine is the template applied to every session's builder.
	Engine Config
	Logger zerolog.Logger

	// SessionTTL overrides DefaultSessionTTL when positive.
	SessionTTL time.Duration
	// EvictionInterval overrides DefaultEvictionInterval when positive.
	EvictionInterval time.Duration
}

type managedEngine struct {
	engine     *Engine
	lastAccess time.Time
}

// Manager owns one Engine per session and evicts builders that have been
// idle past the TTL. Eviction closes the builder; the session's saved
// routes are unaffected.
type Manager struct {
	cfg    Config
	logger zerolog.Logger
	ttl    time.Duration

	mu      sync.Mutex
	engines map[string]*managedEngine

	stop     chan struct{}
	stopOnce sync.Once
}

// NewManager creates a Manager and starts its eviction loop.
func NewManager(cfg ManagerConfig) *Manager {
	if cfg.SessionTTL <= 0 {
		cfg.SessionTTL = DefaultSessionTTL
	}
	if cfg.EvictionInterval <= 0 {
		cfg.EvictionInterval = DefaultEvictionInterval
	}

	m := &Manager{
		cfg:     cfg.Engine,
		logger:  cfg.Logger,
		ttl:     cfg.SessionTTL,
		engines: make(map[string]*managedEngine),
		stop:    make(chan struct{}),
	}
	go m.evictLoop(cfg.EvictionInterval)
	return m
}

// Get returns the session's builder, creating it on first use.
func (m *Manager) Get(sessionID string) *Engine {
	m.mu.Lock()
	defer m.mu.Unlock()

	if me, ok := m.engines[sessionID]; ok {
		me.lastAccess = time.Now()
		return me.engine
	}

	eng := New(m.cfg)
	m.engines[sessionID] = &managedEngine{engine: eng, lastAccess: time.Now()}
	m.logger.Debug().Str("session_id", sessionID).Msg("created route builder")
	return eng
}

// Remove closes and discards the session's builder if one exists.
func (m *Manager) Remove(sessionID string) {
	m.mu.Lock()
	me, ok := m.engines[sessionID]
	if ok {
		delete(m.engines, sessionID)
	}
	m.mu.Unlock()

	if ok {
		me.engine.Close()
	}
}

// SessionCount returns the number of live builders.
func (m *Manager) SessionCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.engines)
}

// Close stops the eviction loop and shuts down every builder.
func (m *Manager) Close() {
	m.stopOnce.Do(func() { close(m.stop) })

	m.mu.Lock()
	engines := make([]*managedEngine, 0, len(m.engines))
	for _, me := range m.engines {
		engines = append(engines, me)
	}
	m.engines = make(map[string]*managedEngine)
	m.mu.Unlock()

	for _, me := range engines {
		me.engine.Close()
	}
}

func (m *Manager) evictLoop(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-m.stop:
			return
		case <-ticker.C:
			m.evictIdle()
		}
	}
}

func (m *Manager) evictIdle() {
	cutoff := time.Now().Add(-m.ttl)

	m.mu.Lock()
	var expired []*managedEngine
	for id, me := range m.engines {
		if me.lastAccess.Before(cutoff) {
			expired = append(expired, me)
			delete(m.engines, id)
		}
	}
	m.mu.Unlock()

	if len(expired) > 0 {
		m.logger.Info().Int("count", len(expired)).Msg("evicted idle route builders")
	}
	for _, me := range expired {
		me.engine.Close()
	}
}
