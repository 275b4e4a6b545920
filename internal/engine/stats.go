package engine

import (
	"github.com/switchbackmaps/switchback/internal/routing"
	"github.com/switchbackmaps/switchback/internal/waypoint"
)

// Rating is the qualitative driving-character label derived from the
// average curvature score of the stops on a route.
type Rating string

const (
	RatingUnrated   Rating = "unrated"
	RatingRelaxed   Rating = "relaxed"
	RatingSpirited  Rating = "spirited"
	RatingEngaging  Rating = "engaging"
	RatingTechnical Rating = "technical"
	RatingExpert    Rating = "expert"
	RatingLegendary Rating = "legendary"
)

// Rating buckets, lower bound inclusive. An average of exactly 600 is
// spirited, not relaxed.
const (
	spiritedMin  = 600
	engagingMin  = 1000
	technicalMin = 2000
	expertMin    = 3500
	legendaryMin = 5000
)

// RatingForCurvature maps an average curvature score to its bucket. The
// unrated label is not produced here; it is reserved for routes with no
// scored waypoints at all, which ComputeStats detects directly.
func RatingForCurvature(avg float64) Rating {
	switch {
	case avg < spiritedMin:
		return RatingRelaxed
	case avg < engagingMin:
		return RatingSpirited
	case avg < technicalMin:
		return RatingEngaging
	case avg < expertMin:
		return RatingTechnical
	case avg < legendaryMin:
		return RatingExpert
	default:
		return RatingLegendary
	}
}

// Stats summarizes a route for display alongside the map.
type Stats struct {
	DistanceMeters   float64 `json:"distance_meters"`
	DurationSeconds  float64 `json:"duration_seconds"`
	Stops            int     `json:"stops"`
	CurvatureTotal   float64 `json:"curvature_total"`
	CurvatureAverage float64 `json:"curvature_average"`
	Rating           Rating  `json:"rating"`
}

// ComputeStats derives route statistics from the waypoint sequence and
// the latest computed path. Distance and duration come from the path and
// are zero while no path is available. Curvature aggregates only the
// waypoints that carry a score; unscored waypoints still count as stops.
func ComputeStats(waypoints []waypoint.Waypoint, path *routing.ComputedPath) Stats {
	stats := Stats{Stops: len(waypoints)}

	if path != nil {
		stats.DistanceMeters = path.DistanceMeters
		stats.DurationSeconds = path.DurationSeconds
	}

	scored := 0
	for _, wp := range waypoints {
		if wp.Curvature == nil {
			continue
		}
		stats.CurvatureTotal += *wp.Curvature
		scored++
	}
	if scored == 0 {
		stats.Rating = RatingUnrated
		return stats
	}
	stats.CurvatureAverage = stats.CurvatureTotal / float64(scored)
	stats.Rating = RatingForCurvature(stats.CurvatureAverage)

	return stats
}
