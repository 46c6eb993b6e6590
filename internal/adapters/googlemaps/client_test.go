package googlemaps_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"
	maps "googlemaps.github.io/maps"

	"github.com/samirrijal/ridekit/internal/adapters/googlemaps"
	"github.com/samirrijal/ridekit/internal/core/domain"
)

func directionsServer(t *testing.T, status string) (*httptest.Server, *http.Request) {
	t.Helper()
	var seen http.Request
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = *r
		resp := map[string]any{"status": status, "routes": []any{}}
		if status == "OK" {
			pts := polyline.EncodeCoords([][]float64{{43.263, -2.935}, {43.27, -2.92}, {43.263, -2.935}})
			resp["routes"] = []map[string]any{{
				"overview_polyline": map[string]any{"points": string(pts)},
				"legs": []map[string]any{
					{"distance": map[string]any{"value": 1800, "text": "1.8 km"}, "duration": map[string]any{"value": 420, "text": "7 mins"}},
					{"distance": map[string]any{"value": 1700, "text": "1.7 km"}, "duration": map[string]any{"value": 380, "text": "6 mins"}},
				},
			}}
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	t.Cleanup(srv.Close)
	return srv, &seen
}

func TestClient_Realize(t *testing.T) {
	srv, seen := directionsServer(t, "OK")
	c, err := googlemaps.New("test-key", maps.WithBaseURL(srv.URL))
	require.NoError(t, err)

	wps := []domain.Coordinate{{Lat: 43.263, Lng: -2.935}, {Lat: 43.27, Lng: -2.92}, {Lat: 43.263, Lng: -2.935}}
	route, err := c.Realize(context.Background(), wps, domain.ProfileBicycle)
	require.NoError(t, err)

	require.Len(t, route.Coordinates, 3)
	assert.InDelta(t, 43.27, route.Coordinates[1].Lat, 1e-5)
	assert.Equal(t, 3500.0, route.DistanceMeters)
	assert.Equal(t, 800.0, route.DurationSeconds)

	q := seen.URL.Query()
	assert.Equal(t, "bicycling", q.Get("mode"))
	assert.Equal(t, "via:43.270000,-2.920000", q.Get("waypoints"))
}

func TestClient_ZeroResults(t *testing.T) {
	srv, _ := directionsServer(t, "ZERO_RESULTS")
	c, err := googlemaps.New("test-key", maps.WithBaseURL(srv.URL))
	require.NoError(t, err)

	_, err = c.Realize(context.Background(), []domain.Coordinate{{Lat: 1, Lng: 1}, {Lat: 2, Lng: 2}}, domain.ProfileBicycle)
	assert.Error(t, err)
}

func TestClient_TooManyWaypoints(t *testing.T) {
	c, err := googlemaps.New("test-key")
	require.NoError(t, err)

	wps := make([]domain.Coordinate, 30)
	_, err = c.Realize(context.Background(), wps, domain.ProfileBicycle)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}
