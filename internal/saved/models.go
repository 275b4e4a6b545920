// Package saved provides persistence for named routes built in a session.
package saved

import (
	"errors"
	"time"
)

// Repository errors.
var (
	ErrRouteNotFound = errors.New("saved route not found")
	ErrSlugTaken     = errors.New("route slug already taken")
)

// StoredWaypoint is a waypoint as persisted inside a saved route. Ids are
// not stored; the builder assigns fresh ones on restore.
type StoredWaypoint struct {
	Lng             float64  `json:"lng"`
	Lat             float64  `json:"lat"`
	Order           int      `json:"order"`
	Label           string   `json:"label,omitempty"`
	OriginSegmentID string   `json:"origin_segment_id,omitempty"`
	Curvature       *float64 `json:"curvature,omitempty"`
}

// Route is a saved route: the waypoint sequence plus the computed path
// summary at save time. Geometry is a polyline-encoded string.
type Route struct {
	ID               string
	SessionID        string
	Name             string
	Description      *string
	Slug             string
	Waypoints        []StoredWaypoint
	Geometry         string
	DistanceMeters   float64
	DurationSeconds  float64
	CurvatureTotal   float64
	CurvatureAverage float64
	Rating           string
	IsPublic         bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// ListOptions contains options for listing saved routes.
type ListOptions struct {
	Limit int
}

// ListResult contains the result of listing saved routes.
type ListResult struct {
	Items      []*Route
	NextCursor string
}
