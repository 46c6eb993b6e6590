package geospatial

import (
	"math"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// ProjectOntoSegment returns the point of segment a-b closest to p and the
// interpolation factor t in [0, 1]. The projection is done in a local
// equirectangular frame, which is accurate for segments of a few kilometers.
func ProjectOntoSegment(p, a, b domain.Coordinate) (domain.Coordinate, float64) {
	kx := math.Cos(toRad((a.Lat + b.Lat) / 2))

	dx := (b.Lng - a.Lng) * kx
	dy := b.Lat - a.Lat
	lenSq := dx*dx + dy*dy
	if lenSq == 0 {
		return a, 0
	}

	t := ((p.Lng-a.Lng)*kx*dx + (p.Lat-a.Lat)*dy) / lenSq
	t = math.Max(0, math.Min(1, t))

	return domain.Coordinate{
		Lat: a.Lat + t*(b.Lat-a.Lat),
		Lng: a.Lng + t*(b.Lng-a.Lng),
	}, t
}

// BoundingBox returns the min/max envelope of coords expanded by bufferDegrees.
func BoundingBox(coords []domain.Coordinate, bufferDegrees float64) domain.Bounds {
	if len(coords) == 0 {
		return domain.Bounds{}
	}
	b := domain.Bounds{
		MinLat: coords[0].Lat, MaxLat: coords[0].Lat,
		MinLng: coords[0].Lng, MaxLng: coords[0].Lng,
	}
	for _, c := range coords[1:] {
		b.MinLat = math.Min(b.MinLat, c.Lat)
		b.MaxLat = math.Max(b.MaxLat, c.Lat)
		b.MinLng = math.Min(b.MinLng, c.Lng)
		b.MaxLng = math.Max(b.MaxLng, c.Lng)
	}
	return b.Expand(bufferDegrees)
}

// RouteLength sums the pairwise distances of coords.
func RouteLength(coords []domain.Coordinate) float64 {
	var total float64
	for i := 1; i < len(coords); i++ {
		total += Distance(coords[i-1], coords[i])
	}
	return total
}

// CumulativeDistances returns, for each coordinate, the along-route distance from the first one.
func CumulativeDistances(coords []domain.Coordinate) []float64 {
	cum := make([]float64, len(coords))
	for i := 1; i < len(coords); i++ {
		cum[i] = cum[i-1] + Distance(coords[i-1], coords[i])
	}
	return cum
}

// Centroid returns the arithmetic mean of the coordinates.
func Centroid(coords []domain.Coordinate) domain.Coordinate {
	if len(coords) == 0 {
		return domain.Coordinate{}
	}
	var lat, lng float64
	for _, c := range coords {
		lat += c.Lat
		lng += c.Lng
	}
	n := float64(len(coords))
	return domain.Coordinate{Lat: lat / n, Lng: lng / n}
}

// Nearest is the closest route edge to a point.
type Nearest struct {
	EdgeIndex      int
	Point          domain.Coordinate
	DistanceMeters float64
	AlongMeters    float64
}

// NearestOnRoute scans every edge of coords and returns the closest projection
// of p. cum must come from CumulativeDistances(coords).
func NearestOnRoute(p domain.Coordinate, coords []domain.Coordinate, cum []float64) Nearest {
	best := Nearest{DistanceMeters: math.Inf(1)}
	switch len(coords) {
	case 0:
		return best
	case 1:
		return Nearest{Point: coords[0], DistanceMeters: Distance(p, coords[0]), AlongMeters: cum[0]}
	}
	for i := 0; i+1 < len(coords); i++ {
		proj, _ := ProjectOntoSegment(p, coords[i], coords[i+1])
		d := Distance(p, proj)
		if d < best.DistanceMeters {
			best = Nearest{
				EdgeIndex:      i,
				Point:          proj,
				DistanceMeters: d,
				AlongMeters:    cum[i] + Distance(coords[i], proj),
			}
		}
	}
	return best
}
