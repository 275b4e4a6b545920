// Package waypoint provides the ordered waypoint sequence that backs an
// in-progress route and the adjacency rule used by the segment-chaining
// building mode.
package waypoint

// Coordinate represents a geographic point in WGS84.
type Coordinate struct {
	Lng float64
	Lat float64
}

// Waypoint is a single stop in the route under construction.
type Waypoint struct {
	// ID is an opaque identifier, assigned at creation and stable for the
	// waypoint's lifetime.
	ID string

	Lng float64
	Lat float64

	// Order is the zero-based position in the sequence. It always equals the
	// waypoint's index in the owning store and is re-derived after every
	// mutation, never set by callers.
	Order int

	// OriginSegmentID identifies the road segment this waypoint was derived
	// from, if it was created by clicking a segment rather than a free point.
	OriginSegmentID string

	// Label is an optional human-readable name for display.
	Label string

	// UserModified is true once the user has dragged or repositioned the
	// waypoint after creation.
	UserModified bool

	// Curvature carries the curvature score inherited from the originating
	// segment. Nil for free-dropped waypoints; used only for stats display.
	Curvature *float64
}

// ConnectableSegment is a directed road-segment descriptor supplied by the
// map layer. It is immutable once received; the store never retains more
// than the last one for adjacency checks.
type ConnectableSegment struct {
	ID        string
	Name      string
	Start     Coordinate
	End       Coordinate
	Curvature float64
	Length    float64 // meters
	Paved     bool
}
