package waypoint

import "math"

// ConnectTolerance is the maximum coordinate distance, in degrees, at which
// two segment endpoints are considered the same junction. Roughly one meter
// at mid latitudes.
const ConnectTolerance = 1e-5

// Connects reports whether candidate may extend a chain whose last segment
// is prev. The candidate is accepted if either of its endpoints lies within
// ConnectTolerance of prev's end point, so it may be traversed forward or
// reversed. Chains with no previous segment accept any candidate; callers
// handle that case since only they know the chain state.
func Connects(prev, candidate ConnectableSegment) bool {
	return near(prev.End, candidate.Start) || near(prev.End, candidate.End)
}

func near(a, b Coordinate) bool {
	return math.Abs(a.Lng-b.Lng) <= ConnectTolerance &&
		math.Abs(a.Lat-b.Lat) <= ConnectTolerance
}
