package geospatial_test

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

// straightLine returns n+1 points spaced stepMeters apart heading east.
func straightLine(start domain.Coordinate, n int, stepMeters float64) []domain.Coordinate {
	coords := []domain.Coordinate{start}
	cur := start
	for i := 0; i < n; i++ {
		cur = geospatial.DestinationPoint(cur, math.Pi/2, stepMeters)
		coords = append(coords, cur)
	}
	return coords
}

func TestSegment_LengthsSumToRoute(t *testing.T) {
	coords := straightLine(bilbao, 57, 13)
	segs := geospatial.Segment(coords, 100)

	var sum float64
	for _, s := range segs {
		sum += s.LengthMeters
	}
	assert.InDelta(t, geospatial.RouteLength(coords), sum, 1e-6)
}

func TestSegment_CountMatchesCeil(t *testing.T) {
	// 10 m steps divide the 100 m target evenly, so no segment overshoots.
	coords := straightLine(bilbao, 95, 10)
	segs := geospatial.Segment(coords, 100)

	total := geospatial.RouteLength(coords)
	assert.Len(t, segs, int(math.Ceil(total/100)))
	assert.LessOrEqual(t, segs[len(segs)-1].LengthMeters, 100.0+1e-6)
}

func TestSegment_SharedBoundaries(t *testing.T) {
	coords := straightLine(bilbao, 30, 25)
	segs := geospatial.Segment(coords, 100)
	require.Greater(t, len(segs), 1)

	assert.Equal(t, 0, segs[0].StartIndex)
	assert.Equal(t, len(coords)-1, segs[len(segs)-1].EndIndex)
	for i := 1; i < len(segs); i++ {
		assert.Equal(t, segs[i-1].EndIndex, segs[i].StartIndex)
		assert.Equal(t, i, segs[i].ID)
		assert.Equal(t, segs[i].EndIndex-segs[i].StartIndex+1, len(segs[i].Coordinates))
	}
}

func TestSegment_OvershootsByAtMostOneEdge(t *testing.T) {
	coords := straightLine(bilbao, 20, 70)
	for _, s := range geospatial.Segment(coords, 100) {
		assert.Less(t, s.LengthMeters, 100.0+70.0+1e-6)
	}
}

func TestSegment_DefaultTarget(t *testing.T) {
	coords := straightLine(bilbao, 50, 10)
	assert.Equal(t, geospatial.Segment(coords, 100), geospatial.Segment(coords, 0))
	assert.Equal(t, geospatial.Segment(coords, 100), geospatial.Segment(coords, -5))
}

func TestSegment_ZeroLengthRoute(t *testing.T) {
	segs := geospatial.Segment([]domain.Coordinate{bilbao, bilbao, bilbao}, 100)
	require.Len(t, segs, 1)
	assert.Equal(t, 0.0, segs[0].LengthMeters)
	assert.Equal(t, 2, segs[0].EndIndex)
}

func TestSegment_Empty(t *testing.T) {
	assert.Nil(t, geospatial.Segment(nil, 100))
}
