package curvature

import "context"

// Repository defines the interface for segment catalog persistence. The
// catalog is read-mostly; writes happen through offline imports.
type Repository interface {
	// Get retrieves a segment by ID.
	Get(ctx context.Context, segmentID string) (*Segment, error)

	// ListInBounds retrieves segments whose endpoints fall inside the
	// bounding box.
	ListInBounds(ctx context.Context, bounds Bounds, opts ListOptions) ([]*Segment, error)
}
