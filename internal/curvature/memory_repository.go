package curvature

import (
	"context"
	"sort"
	"sync"
)

// InMemoryRepository is an in-memory implementation of Repository.
// This is intended for testing and local development without a database.
type InMemoryRepository struct {
	mu       sync.RWMutex
	segments map[string]*Segment
}

// NewInMemoryRepository creates a new in-memory segment repository.
func NewInMemoryRepository() *InMemoryRepository {
	return &InMemoryRepository{
		segments: make(map[string]*Segment),
	}
}

// Seed loads segments into the repository, replacing existing ones with
// the same ID.
func (r *InMemoryRepository) Seed(segments []*Segment) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, segment := range segments {
		segmentCopy := *segment
		r.segments[segment.ID] = &segmentCopy
	}
}

// Get retrieves a segment by ID.
func (r *InMemoryRepository) Get(_ context.Context, segmentID string) (*Segment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	segment, ok := r.segments[segmentID]
	if !ok {
		return nil, ErrSegmentNotFound
	}

	segmentCopy := *segment
	return &segmentCopy, nil
}

// ListInBounds retrieves segments whose endpoints fall inside the
// bounding box, most curvy first.
func (r *InMemoryRepository) ListInBounds(_ context.Context, bounds Bounds, opts ListOptions) ([]*Segment, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var segments []*Segment
	for _, segment := range r.segments {
		if segment.StartLng < bounds.MinLng || segment.StartLng > bounds.MaxLng ||
			segment.StartLat < bounds.MinLat || segment.StartLat > bounds.MaxLat {
			continue
		}
		if segment.Curvature < opts.MinCurvature {
			continue
		}
		if opts.PavedOnly && !segment.Paved {
			continue
		}
		segmentCopy := *segment
		segments = append(segments, &segmentCopy)
	}

	sort.Slice(segments, func(i, j int) bool {
		return segments[i].Curvature > segments[j].Curvature
	})

	limit := opts.Limit
	if limit <= 0 {
		limit = 200
	}
	if len(segments) > limit {
		segments = segments[:limit]
	}

	return segments, nil
}

// Ensure InMemoryRepository implements Repository interface.
var _ Repository = (*InMemoryRepository)(nil)
