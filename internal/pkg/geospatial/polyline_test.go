package geospatial_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

func TestProjectOntoSegment_Interior(t *testing.T) {
	a := domain.Coordinate{Lat: 43.0, Lng: -3.0}
	b := domain.Coordinate{Lat: 43.0, Lng: -2.98}
	p := domain.Coordinate{Lat: 43.001, Lng: -2.99}

	proj, tt := geospatial.ProjectOntoSegment(p, a, b)
	assert.InDelta(t, 0.5, tt, 1e-9)
	assert.InDelta(t, 43.0, proj.Lat, 1e-12)
	assert.InDelta(t, -2.99, proj.Lng, 1e-12)
}

func TestProjectOntoSegment_ClampsToEndpoints(t *testing.T) {
	a := domain.Coordinate{Lat: 43.0, Lng: -3.0}
	b := domain.Coordinate{Lat: 43.0, Lng: -2.99}

	before := domain.Coordinate{Lat: 43.0, Lng: -3.01}
	proj, tt := geospatial.ProjectOntoSegment(before, a, b)
	assert.Equal(t, 0.0, tt)
	assert.InDelta(t, a.Lng, proj.Lng, 1e-12)

	after := domain.Coordinate{Lat: 43.0005, Lng: -2.95}
	proj, tt = geospatial.ProjectOntoSegment(after, a, b)
	assert.Equal(t, 1.0, tt)
	assert.InDelta(t, b.Lng, proj.Lng, 1e-12)
}

func TestProjectOntoSegment_Degenerate(t *testing.T) {
	a := domain.Coordinate{Lat: 43.0, Lng: -3.0}
	proj, tt := geospatial.ProjectOntoSegment(domain.Coordinate{Lat: 43.1, Lng: -3.1}, a, a)
	assert.Equal(t, 0.0, tt)
	assert.Equal(t, a, proj)
}

func TestBoundingBox(t *testing.T) {
	coords := []domain.Coordinate{
		{Lat: 43.26, Lng: -2.93},
		{Lat: 43.30, Lng: -2.99},
		{Lat: 43.28, Lng: -2.90},
	}
	b := geospatial.BoundingBox(coords, 0)
	assert.Equal(t, domain.Bounds{MinLat: 43.26, MinLng: -2.99, MaxLat: 43.30, MaxLng: -2.90}, b)

	buffered := geospatial.BoundingBox(coords, 0.001)
	assert.InDelta(t, 43.259, buffered.MinLat, 1e-12)
	assert.InDelta(t, -2.899, buffered.MaxLng, 1e-12)

	assert.Equal(t, domain.Bounds{}, geospatial.BoundingBox(nil, 0.1))
}

func TestCumulativeDistances(t *testing.T) {
	coords := []domain.Coordinate{bilbao, getxo, donostia}
	cum := geospatial.CumulativeDistances(coords)
	require.Len(t, cum, 3)
	assert.Equal(t, 0.0, cum[0])
	assert.InDelta(t, geospatial.Distance(bilbao, getxo), cum[1], 1e-9)
	assert.InDelta(t, geospatial.RouteLength(coords), cum[2], 1e-9)
}

func TestCentroid(t *testing.T) {
	c := geospatial.Centroid([]domain.Coordinate{{Lat: 0, Lng: 0}, {Lat: 2, Lng: 4}})
	assert.Equal(t, domain.Coordinate{Lat: 1, Lng: 2}, c)
}

func TestNearestOnRoute_PerpendicularOffset(t *testing.T) {
	coords := []domain.Coordinate{
		{Lat: 43.0, Lng: -3.0},
		{Lat: 43.0, Lng: -2.99},
		{Lat: 43.0, Lng: -2.98},
	}
	cum := geospatial.CumulativeDistances(coords)

	// ~50 m north of the middle of the second edge.
	p := domain.Coordinate{Lat: 43.0 + 50.0/111195.0, Lng: -2.985}
	n := geospatial.NearestOnRoute(p, coords, cum)

	assert.Equal(t, 1, n.EdgeIndex)
	assert.InDelta(t, 50, n.DistanceMeters, 0.5)
	assert.InDelta(t, cum[1]+cum[1]/2, n.AlongMeters, 1)
}
