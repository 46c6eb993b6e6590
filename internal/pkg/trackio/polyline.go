package trackio

import (
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// DecodePolyline decodes a precision-5 encoded polyline.
func DecodePolyline(encoded string) ([]domain.Coordinate, error) {
	if encoded == "" {
		return nil, domain.InvalidInputf("encoded polyline is empty")
	}
	pts, rest, err := polyline.DecodeCoords([]byte(encoded))
	if err != nil {
		return nil, domain.InvalidInputf("decode polyline: %v", err)
	}
	if len(rest) > 0 {
		return nil, domain.InvalidInputf("decode polyline: %d trailing bytes", len(rest))
	}
	out := make([]domain.Coordinate, len(pts))
	for i, p := range pts {
		out[i] = domain.Coordinate{Lat: p[0], Lng: p[1]}
	}
	return out, nil
}

// EncodePolyline encodes coords at precision 5.
func EncodePolyline(coords []domain.Coordinate) string {
	pts := make([][]float64, len(coords))
	for i, c := range coords {
		pts[i] = []float64{c.Lat, c.Lng}
	}
	return string(polyline.EncodeCoords(pts))
}
