package domain_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

func TestParseBounds(t *testing.T) {
	b, err := domain.ParseBounds("43.2, -3.0,43.4,-2.8")
	require.NoError(t, err)
	assert.Equal(t, domain.Bounds{MinLat: 43.2, MinLng: -3.0, MaxLat: 43.4, MaxLng: -2.8}, b)
}

func TestParseBounds_Invalid(t *testing.T) {
	for _, in := range []string{
		"",
		"1,2,3",
		"a,2,3,4",
		"43.4,-3,43.2,-2.8",
		"95,0,96,1",
	} {
		_, err := domain.ParseBounds(in)
		assert.True(t, errors.Is(err, domain.ErrInvalidInput), "input %q", in)
	}
}

func TestBoundsTiles(t *testing.T) {
	b := domain.Bounds{MinLat: 43.0, MinLng: -3.0, MaxLat: 43.25, MaxLng: -2.8}
	tiles := b.Tiles(0.1)

	// 3 rows (0.1, 0.1, 0.05) by 2 columns (0.1, 0.1).
	require.Len(t, tiles, 6)
	last := tiles[len(tiles)-1]
	assert.InDelta(t, 43.2, last.MinLat, 1e-9)
	assert.Equal(t, 43.25, last.MaxLat)
	assert.Equal(t, -2.8, last.MaxLng)

	for _, tile := range tiles {
		assert.Less(t, tile.MinLat, tile.MaxLat)
		assert.Less(t, tile.MinLng, tile.MaxLng)
	}
}

func TestBoundsTiles_ExactMultipleHasNoSliver(t *testing.T) {
	b := domain.Bounds{MinLat: 0, MinLng: 0, MaxLat: 0.8, MaxLng: 0.1}
	assert.Len(t, b.Tiles(0.1), 8)
	assert.Len(t, b.Tiles(0), 1)
}
