package waypoint

import (
	"sync"

	"github.com/google/uuid"
)

// IDGenerator produces waypoint ids. The default generator uses UUIDs;
// tests inject a deterministic sequence.
type IDGenerator func() string

// defaultIDGenerator returns ids of the form "wpt_<uuid prefix>".
func defaultIDGenerator() string {
	return "wpt_" + uuid.New().String()[:22]
}

// Store is the single source of truth for the ordered waypoint list of one
// route-building session.
//
// All mutations are total over valid inputs: unknown ids and out-of-range
// indices are silent no-ops, never errors, so a stale UI reference (a
// double-click racing a removal) cannot corrupt the session. Every mutation
// re-derives Order as a contiguous 0..n-1 permutation and bumps a monotonic
// version counter used downstream for stale-response detection.
type Store struct {
	mu        sync.RWMutex
	waypoints []Waypoint
	version   uint64
	lastSeg   *ConnectableSegment
	genID     IDGenerator
}

// StoreConfig holds configuration for a Store.
type StoreConfig struct {
	// IDGenerator overrides waypoint id generation (optional).
	IDGenerator IDGenerator
}

// NewStore creates an empty waypoint store.
func NewStore(cfg StoreConfig) *Store {
	gen := cfg.IDGenerator
	if gen == nil {
		gen = defaultIDGenerator
	}
	return &Store{genID: gen}
}

// AddOptions carries the optional attributes of a free-dropped waypoint.
type AddOptions struct {
	Label     string
	Curvature *float64
}

// Add appends a waypoint at the end of the sequence and returns it.
func (s *Store) Add(lng, lat float64, opts AddOptions) Waypoint {
	s.mu.Lock()
	defer s.mu.Unlock()

	wp := Waypoint{
		ID:        s.genID(),
		Lng:       lng,
		Lat:       lat,
		Order:     len(s.waypoints),
		Label:     opts.Label,
		Curvature: opts.Curvature,
	}
	s.waypoints = append(s.waypoints, wp)
	s.version++
	return wp
}

// AddFromSegment appends the segment's start and end as a connected waypoint
// pair. Returns false without modifying the sequence if the segment is
// already represented (matched by origin segment id); duplicates are a UI
// affordance, not an error.
func (s *Store) AddFromSegment(seg ConnectableSegment) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, wp := range s.waypoints {
		if wp.OriginSegmentID != "" && wp.OriginSegmentID == seg.ID {
			return false
		}
	}

	curvature := seg.Curvature
	for _, c := range []Coordinate{seg.Start, seg.End} {
		s.waypoints = append(s.waypoints, Waypoint{
			ID:              s.genID(),
			Lng:             c.Lng,
			Lat:             c.Lat,
			Order:           len(s.waypoints),
			OriginSegmentID: seg.ID,
			Label:           seg.Name,
			Curvature:       &curvature,
		})
	}

	segCopy := seg
	s.lastSeg = &segCopy
	s.version++
	return true
}

// Update repositions a waypoint and marks it user-modified. No-op if the id
// is unknown; returns whether anything changed.
func (s *Store) Update(id string, lng, lat float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.waypoints {
		if s.waypoints[i].ID == id {
			s.waypoints[i].Lng = lng
			s.waypoints[i].Lat = lat
			s.waypoints[i].UserModified = true
			s.version++
			return true
		}
	}
	return false
}

// Remove deletes a waypoint by id and re-derives Order for the remaining
// entries. No-op if the id is unknown.
func (s *Store) Remove(id string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.waypoints {
		if s.waypoints[i].ID == id {
			s.waypoints = append(s.waypoints[:i], s.waypoints[i+1:]...)
			s.reindex()
			s.version++
			return true
		}
	}
	return false
}

// Reorder moves the waypoint at fromIndex to toIndex and re-derives Order.
// No-op if either index is out of range. Dropping a waypoint back onto its
// own position is valid input: it succeeds without mutating the sequence
// or bumping the version.
func (s *Store) Reorder(fromIndex, toIndex int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	n := len(s.waypoints)
	if fromIndex < 0 || fromIndex >= n || toIndex < 0 || toIndex >= n {
		return false
	}
	if fromIndex == toIndex {
		return true
	}

	wp := s.waypoints[fromIndex]
	s.waypoints = append(s.waypoints[:fromIndex], s.waypoints[fromIndex+1:]...)
	s.waypoints = append(s.waypoints[:toIndex], append([]Waypoint{wp}, s.waypoints[toIndex:]...)...)
	s.reindex()
	s.version++
	return true
}

// Clear empties the sequence and resets the version counter baseline.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waypoints = nil
	s.lastSeg = nil
	s.version = 0
}

// reindex re-derives the Order invariant. Callers hold the write lock.
func (s *Store) reindex() {
	for i := range s.waypoints {
		s.waypoints[i].Order = i
	}
}

// Snapshot returns a copy of the current sequence.
func (s *Store) Snapshot() []Waypoint {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]Waypoint, len(s.waypoints))
	copy(out, s.waypoints)
	return out
}

// Version returns the current sequence version. The counter increases on
// every mutation and resets only on Clear.
func (s *Store) Version() uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.version
}

// Len returns the number of waypoints in the sequence.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.waypoints)
}

// LastSegment returns the most recently chained segment, or nil if the
// chain is empty. The returned value is a copy.
func (s *Store) LastSegment() *ConnectableSegment {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.lastSeg == nil {
		return nil
	}
	seg := *s.lastSeg
	return &seg
}

// Restore replaces the sequence with waypoints rebuilt from a saved record:
// fresh ids, UserModified cleared, Order re-derived. The version counter is
// bumped so a recalculation fires for the restored sequence.
func (s *Store) Restore(waypoints []Waypoint) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.waypoints = make([]Waypoint, 0, len(waypoints))
	for _, wp := range waypoints {
		wp.ID = s.genID()
		wp.UserModified = false
		wp.Order = len(s.waypoints)
		s.waypoints = append(s.waypoints, wp)
	}
	s.lastSeg = nil
	s.version++
}
