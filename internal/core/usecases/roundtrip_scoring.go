package usecases

import (
	"math"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

const (
	elevationPivotMeters = 500.0
	maxElevationPenalty  = 20.0
	loopClosureMeters    = 100.0
	loopQualityWeight    = 20.0
	minAdjustScale       = 0.5
	maxAdjustScale       = 2.0
)

// DistanceErrorRatio is |actual - target| / target.
func DistanceErrorRatio(actual, target float64) float64 {
	return math.Abs(actual-target) / target
}

// ElevationPenalty penalizes flat requests that climb more than 500 m and
// hilly requests that climb less, up to 20 points.
func ElevationPenalty(ascentMeters float64, pref domain.ElevationPreference) float64 {
	switch {
	case pref == domain.ElevationFlat && ascentMeters > elevationPivotMeters:
		return math.Min(maxElevationPenalty, (ascentMeters-elevationPivotMeters)/50)
	case pref == domain.ElevationHilly && ascentMeters < elevationPivotMeters:
		return math.Min(maxElevationPenalty, (elevationPivotMeters-ascentMeters)/50)
	}
	return 0
}

// LoopQuality is 0 unless the route returns within 100 m of its start;
// otherwise 1 minus the normalized variance of the waypoints' distances from
// their centroid.
func LoopQuality(route domain.Route, waypoints []domain.Coordinate) float64 {
	if len(route.Coordinates) < 2 || len(waypoints) == 0 {
		return 0
	}
	if geospatial.Distance(route.Start(), route.End()) > loopClosureMeters {
		return 0
	}

	c := geospatial.Centroid(waypoints)
	dists := make([]float64, len(waypoints))
	var mean float64
	for i, w := range waypoints {
		dists[i] = geospatial.Distance(c, w)
		mean += dists[i]
	}
	mean /= float64(len(dists))
	if mean == 0 {
		return 0
	}

	var variance float64
	for _, d := range dists {
		variance += (d - mean) * (d - mean)
	}
	variance /= float64(len(dists))

	return 1 - math.Max(0, math.Min(1, variance/(mean*mean)))
}

// Score rates a realized attempt; lower is better.
func Score(route domain.Route, waypoints []domain.Coordinate, targetMeters float64, pref domain.ElevationPreference) float64 {
	return DistanceErrorRatio(route.DistanceMeters, targetMeters)*100 +
		ElevationPenalty(route.AscentMeters, pref) +
		(1-LoopQuality(route, waypoints))*loopQualityWeight
}

// AdjustScale is target/actual clamped to [0.5, 2].
func AdjustScale(targetMeters, actualMeters float64) float64 {
	if actualMeters <= 0 {
		return maxAdjustScale
	}
	return math.Max(minAdjustScale, math.Min(maxAdjustScale, targetMeters/actualMeters))
}

// Adjust scales every waypoint's distance from the waypoint centroid by
// scale, keeping its bearing, then pulls waypoints farther than maxRadius
// from start back onto that circle. The input slice is not modified.
func Adjust(start domain.Coordinate, waypoints []domain.Coordinate, scale, maxRadius float64) []domain.Coordinate {
	c := geospatial.Centroid(waypoints)
	out := make([]domain.Coordinate, len(waypoints))
	for i, w := range waypoints {
		p := geospatial.DestinationPoint(c, geospatial.Bearing(c, w), geospatial.Distance(c, w)*scale)
		if geospatial.Distance(start, p) > maxRadius {
			p = geospatial.DestinationPoint(start, geospatial.Bearing(start, p), maxRadius)
		}
		out[i] = p
	}
	return out
}
