package geospatial

import "github.com/samirrijal/ridekit/internal/core/domain"

// DefaultSegmentLength is the target segment length in meters.
const DefaultSegmentLength = 100.0

const segmentEpsilon = 1e-6

// Segment splits coords into chunks of roughly targetMeters. A chunk is closed
// as soon as its accumulated length reaches the target, so it may overshoot by
// up to one edge. Neighbouring segments share their boundary coordinate and
// the lengths sum to RouteLength(coords).
func Segment(coords []domain.Coordinate, targetMeters float64) []domain.Segment {
	if len(coords) == 0 {
		return nil
	}
	if targetMeters <= 0 {
		targetMeters = DefaultSegmentLength
	}
	if len(coords) == 1 {
		return []domain.Segment{{ID: 0, Coordinates: coords[:1]}}
	}

	var (
		segments []domain.Segment
		start    int
		acc      float64
	)
	for i := 1; i < len(coords); i++ {
		acc += Distance(coords[i-1], coords[i])
		last := i == len(coords)-1
		if acc+segmentEpsilon >= targetMeters || last {
			segments = append(segments, domain.Segment{
				ID:           len(segments),
				StartIndex:   start,
				EndIndex:     i,
				LengthMeters: acc,
				Coordinates:  coords[start : i+1],
			})
			start = i
			acc = 0
		}
	}
	return segments
}
