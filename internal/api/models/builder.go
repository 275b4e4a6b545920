package models

// Waypoint is a stop in the route builder sequence.
type Waypoint struct {
	ID              string   `json:"id"`
	Lng             float64  `json:"lng"`
	Lat             float64  `json:"lat"`
	Order           int      `json:"order"`
	Label           string   `json:"label,omitempty"`
	OriginSegmentID string   `json:"originSegmentId,omitempty"`
	UserModified    bool     `json:"userModified"`
	Curvature       *float64 `json:"curvature,omitempty"`
}

// SnappedWaypoint is an input waypoint as placed on the road network.
type SnappedWaypoint struct {
	Lng     float64 `json:"lng"`
	Lat     float64 `json:"lat"`
	Snapped bool    `json:"snapped"`
}

// Path is a computed road-snapped path. Geometry is polyline-encoded.
type Path struct {
	Geometry         string            `json:"geometry"`
	DistanceMeters   float64           `json:"distanceMeters"`
	DurationSeconds  float64           `json:"durationSeconds"`
	SnappedWaypoints []SnappedWaypoint `json:"snappedWaypoints,omitempty"`
	Provider         string            `json:"provider"`
	ComputedAt       Timestamp         `json:"computedAt"`
}

// RouteStats summarizes the route being built.
type RouteStats struct {
	DistanceMeters   float64 `json:"distanceMeters"`
	DurationSeconds  float64 `json:"durationSeconds"`
	Stops            int     `json:"stops"`
	CurvatureTotal   float64 `json:"curvatureTotal"`
	CurvatureAverage float64 `json:"curvatureAverage"`
	Rating           string  `json:"rating"`
}

// BuilderState is a snapshot of the session's route builder. The path may
// describe an older sequence version while a recalculation is pending or
// in flight.
type BuilderState struct {
	Waypoints       []Waypoint `json:"waypoints"`
	SequenceVersion uint64     `json:"sequenceVersion"`
	Path            *Path      `json:"path,omitempty"`
	PathVersion     uint64     `json:"pathVersion"`
	Recalculation   string     `json:"recalculation"`
	Stats           RouteStats `json:"stats"`
	Error           *string    `json:"error,omitempty"`
}

// AddWaypointRequest adds a free-dropped waypoint to the sequence.
type AddWaypointRequest struct {
	Lng       float64  `json:"lng" validate:"required,gte=-180,lte=180"`
	Lat       float64  `json:"lat" validate:"required,gte=-90,lte=90"`
	Label     string   `json:"label,omitempty"`
	Curvature *float64 `json:"curvature,omitempty"`
}

// AddSegmentRequest appends a curated segment to the chain.
type AddSegmentRequest struct {
	SegmentID string `json:"segmentId" validate:"required"`
}

// MoveWaypointRequest repositions a waypoint during a drag.
type MoveWaypointRequest struct {
	Lng float64 `json:"lng" validate:"required,gte=-180,lte=180"`
	Lat float64 `json:"lat" validate:"required,gte=-90,lte=90"`
}

// ReorderWaypointRequest moves a waypoint between sequence positions.
type ReorderWaypointRequest struct {
	FromIndex int `json:"fromIndex" validate:"gte=0"`
	ToIndex   int `json:"toIndex" validate:"gte=0"`
}

// RestoreRequest loads a saved route into the builder.
type RestoreRequest struct {
	RouteID string `json:"routeId" validate:"required"`
}
