package osrm

// osrmResponse is the OSRM route service response envelope.
type osrmResponse struct {
	Code      string         `json:"code"`
	Message   string         `json:"message,omitempty"`
	Routes    []osrmRoute    `json:"routes"`
	Waypoints []osrmWaypoint `json:"waypoints"`
}

// osrmRoute is a single route in an OSRM response.
type osrmRoute struct {
	Geometry string  `json:"geometry"` // encoded polyline (precision 5)
	Distance float64 `json:"distance"` // meters
	Duration float64 `json:"duration"` // seconds
}

// osrmWaypoint is an input coordinate snapped onto the road network.
type osrmWaypoint struct {
	Name     string     `json:"name"`
	Location [2]float64 `json:"location"` // [lng, lat]
	Distance float64    `json:"distance"` // snap distance, meters
}
