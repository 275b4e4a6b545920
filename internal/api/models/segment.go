package models

// Segment is a curated road segment with its curvature score.
type Segment struct {
	ID           string     `json:"id"`
	Name         string     `json:"name"`
	Start        Coordinate `json:"start"`
	End          Coordinate `json:"end"`
	Curvature    float64    `json:"curvature"`
	Level        string     `json:"level"`
	LengthMeters float64    `json:"lengthMeters"`
	Paved        bool       `json:"paved"`
	Geometry     string     `json:"geometry,omitempty"`
}
