package valhalla_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-polyline"

	"github.com/samirrijal/ridekit/internal/adapters/valhalla"
	"github.com/samirrijal/ridekit/internal/core/domain"
)

var polyline6 = polyline.Codec{Dim: 2, Scale: 1e6}

func shape(pts ...[]float64) string {
	return string(polyline6.EncodeCoords(nil, pts))
}

func TestClient_Realize(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/route", r.URL.Path)
		_ = json.NewDecoder(r.Body).Decode(&got)
		resp := map[string]any{
			"trip": map[string]any{
				"legs": []map[string]any{
					{"shape": shape([]float64{43.263, -2.935}, []float64{43.264, -2.930}), "elevation": []float64{10, 25, 20}},
					{"shape": shape([]float64{43.264, -2.930}, []float64{43.263, -2.935}), "elevation": []float64{20, 30, 10}},
				},
				"summary": map[string]any{"length": 1.234, "time": 300},
			},
		}
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer srv.Close()

	c := valhalla.New(srv.URL+"/", nil)
	wps := []domain.Coordinate{{Lat: 43.263, Lng: -2.935}, {Lat: 43.264, Lng: -2.930}, {Lat: 43.263, Lng: -2.935}}
	route, err := c.Realize(context.Background(), wps, domain.ProfileBicycle)
	require.NoError(t, err)

	assert.Equal(t, "bicycle", got["costing"])
	locs := got["locations"].([]any)
	require.Len(t, locs, 3)
	assert.Equal(t, "break", locs[0].(map[string]any)["type"])
	assert.Equal(t, "through", locs[1].(map[string]any)["type"])

	require.Len(t, route.Coordinates, 3, "junction point is not duplicated")
	assert.InDelta(t, 43.264, route.Coordinates[1].Lat, 1e-9)
	assert.InDelta(t, 1234, route.DistanceMeters, 1e-6)
	assert.Equal(t, 300.0, route.DurationSeconds)
	assert.InDelta(t, 25, route.AscentMeters, 1e-9)
	assert.InDelta(t, 25, route.DescentMeters, 1e-9)
}

func TestClient_Motorcycle(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_ = json.NewEncoder(w).Encode(map[string]any{"trip": map[string]any{
			"legs":    []map[string]any{{"shape": shape([]float64{1, 1}, []float64{1, 2})}},
			"summary": map[string]any{"length": 1, "time": 60},
		}})
	}))
	defer srv.Close()

	_, err := valhalla.New(srv.URL, nil).Realize(context.Background(),
		[]domain.Coordinate{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 2}}, domain.ProfileMotorcycle)
	require.NoError(t, err)
	assert.Equal(t, "motorcycle", got["costing"])
}

func TestClient_NoRoute(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		_, _ = w.Write([]byte(`{"error_code":442,"error":"No path could be found for input","status_code":400}`))
	}))
	defer srv.Close()

	_, err := valhalla.New(srv.URL, nil).Realize(context.Background(),
		[]domain.Coordinate{{Lat: 1, Lng: 1}, {Lat: 1, Lng: 2}}, domain.ProfileBicycle)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "No path could be found")
}

func TestClient_RejectsSingleWaypoint(t *testing.T) {
	_, err := valhalla.New("http://127.0.0.1:1", nil).Realize(context.Background(),
		[]domain.Coordinate{{Lat: 1, Lng: 1}}, domain.ProfileBicycle)
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestClimb(t *testing.T) {
	up, down := valhalla.Climb([]float64{100, 120, 110, 150, 150, 90})
	assert.Equal(t, 60.0, up)
	assert.Equal(t, 70.0, down)

	up, down = valhalla.Climb(nil)
	assert.Zero(t, up)
	assert.Zero(t, down)
}
