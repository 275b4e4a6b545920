// Package curvature provides the catalog of curvature-scored road
// segments that the builder offers for chaining.
package curvature

import (
	"errors"

	"github.com/switchbackmaps/switchback/internal/waypoint"
)

// Repository errors.
var (
	ErrSegmentNotFound = errors.New("segment not found")
)

// Level is the qualitative twistiness class of a single segment, derived
// from its curvature score.
type Level string

const (
	LevelMild     Level = "mild"
	LevelModerate Level = "moderate"
	LevelCurvy    Level = "curvy"
	LevelExtreme  Level = "extreme"
)

// Segment level thresholds, upper bound exclusive.
const (
	moderateMin = 600
	curvyMin    = 1000
	extremeMin  = 2000
)

// LevelForScore maps a curvature score to its level.
func LevelForScore(score float64) Level {
	switch {
	case score < moderateMin:
		return LevelMild
	case score < curvyMin:
		return LevelModerate
	case score < extremeMin:
		return LevelCurvy
	default:
		return LevelExtreme
	}
}

// Segment is a curvature-scored stretch of road. Geometry is a
// polyline-encoded string; Start and End are its endpoints.
type Segment struct {
	ID           string
	Name         string
	StartLng     float64
	StartLat     float64
	EndLng       float64
	EndLat       float64
	Curvature    float64
	LengthMeters float64
	Paved        bool
	Geometry     string
}

// Level returns the segment's twistiness class.
func (s *Segment) Level() Level {
	return LevelForScore(s.Curvature)
}

// Connectable converts the segment for use by the builder's chain
// validation.
func (s *Segment) Connectable() waypoint.ConnectableSegment {
	return waypoint.ConnectableSegment{
		ID:        s.ID,
		Name:      s.Name,
		Start:     waypoint.Coordinate{Lng: s.StartLng, Lat: s.StartLat},
		End:       waypoint.Coordinate{Lng: s.EndLng, Lat: s.EndLat},
		Curvature: s.Curvature,
		Length:    s.LengthMeters,
		Paved:     s.Paved,
	}
}

// Bounds is a geographic bounding box for segment queries.
type Bounds struct {
	MinLng float64
	MinLat float64
	MaxLng float64
	MaxLat float64
}

// ListOptions contains options for listing segments.
type ListOptions struct {
	// MinCurvature filters out segments scored below the threshold.
	MinCurvature float64

	// PavedOnly excludes unpaved segments.
	PavedOnly bool

	Limit int
}
