package models

// RouteWaypoint is a waypoint as persisted inside a saved route.
type RouteWaypoint struct {
	Lng             float64  `json:"lng"`
	Lat             float64  `json:"lat"`
	Order           int      `json:"order"`
	Label           string   `json:"label,omitempty"`
	OriginSegmentID string   `json:"originSegmentId,omitempty"`
	Curvature       *float64 `json:"curvature,omitempty"`
}

// Route is a saved route. Geometry is polyline-encoded.
type Route struct {
	ID               string          `json:"id"`
	Name             string          `json:"name"`
	Description      *string         `json:"description,omitempty"`
	Slug             string          `json:"slug"`
	Waypoints        []RouteWaypoint `json:"waypoints"`
	Geometry         string          `json:"geometry"`
	DistanceMeters   float64         `json:"distanceMeters"`
	DurationSeconds  float64         `json:"durationSeconds"`
	CurvatureTotal   float64         `json:"curvatureTotal"`
	CurvatureAverage float64         `json:"curvatureAverage"`
	Rating           string          `json:"rating"`
	IsPublic         bool            `json:"isPublic"`
	CreatedAt        Timestamp       `json:"createdAt"`
	UpdatedAt        Timestamp       `json:"updatedAt"`
}

// PagedRoutes is a page of saved routes.
type PagedRoutes struct {
	Items []Route           `json:"items"`
	Meta  PagedResponseMeta `json:"meta"`
}

// SaveRouteRequest saves the builder's current route under a name.
type SaveRouteRequest struct {
	Name        string  `json:"name" validate:"required,min=1,max=120"`
	Description *string `json:"description,omitempty"`
	IsPublic    bool    `json:"isPublic"`
}

// UpdateRouteRequest updates a saved route's attributes. Nil fields are
// left unchanged.
type UpdateRouteRequest struct {
	Name        *string `json:"name,omitempty"`
	Description *string `json:"description,omitempty"`
	IsPublic    *bool   `json:"isPublic,omitempty"`
}
