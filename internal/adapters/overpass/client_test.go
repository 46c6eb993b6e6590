package overpass_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/adapters/overpass"
	"github.com/samirrijal/ridekit/internal/core/domain"
)

var box = domain.Bounds{MinLat: 43.26, MinLng: -2.94, MaxLat: 43.27, MaxLng: -2.93}

func TestFeaturesQuery(t *testing.T) {
	rules := []domain.TagRule{
		{Key: "amenity", Matcher: domain.Exact("drinking_water")},
		{Key: "historic", Matcher: domain.Wildcard{}},
	}
	q := overpass.FeaturesQuery(box, rules, 25)

	assert.True(t, strings.HasPrefix(q, "[out:json][timeout:25];("))
	assert.Contains(t, q, `node["amenity"="drinking_water"](43.260000,-2.940000,43.270000,-2.930000);`)
	assert.Contains(t, q, `way["historic"](43.260000,-2.940000,43.270000,-2.930000);`)
	assert.True(t, strings.HasSuffix(q, "out center tags;"))
}

func TestFeaturesQuery_EscapesQuotes(t *testing.T) {
	q := overpass.FeaturesQuery(box, []domain.TagRule{{Key: "name", Matcher: domain.Exact(`Bar "Txoko"`)}}, 10)
	assert.Contains(t, q, `["name"="Bar \"Txoko\""]`)
}

func TestWaysQuery(t *testing.T) {
	assert.Equal(t,
		`[out:json][timeout:10];way["highway"](43.260000,-2.940000,43.270000,-2.930000);out tags;`,
		overpass.WaysQuery(box, 10))
}

func newServer(t *testing.T, status int, body string) (*httptest.Server, *string) {
	t.Helper()
	var gotQuery string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = r.ParseForm()
		gotQuery = r.PostForm.Get("data")
		assert.Equal(t, "ridekit-test", r.Header.Get("User-Agent"))
		w.WriteHeader(status)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv, &gotQuery
}

func TestClient_WaysInBounds(t *testing.T) {
	srv, got := newServer(t, http.StatusOK, `{"elements":[
		{"type":"way","id":4321,"tags":{"highway":"cycleway","surface":"asphalt","smoothness":"good"}},
		{"type":"way","id":99,"tags":{"highway":"track","surface":"gravel"}}
	]}`)
	c := overpass.New(overpass.Options{URL: srv.URL, UserAgent: "ridekit-test", Timeout: 5 * time.Second})

	ways, err := c.WaysInBounds(context.Background(), box)
	require.NoError(t, err)
	require.Len(t, ways, 2)
	assert.Equal(t, "way/4321", ways[0].ID)
	assert.Equal(t, "asphalt", ways[0].Tags["surface"])
	assert.Equal(t, "gravel", ways[1].Tags["surface"])
	assert.Contains(t, *got, `way["highway"]`)
}

func TestClient_FeaturesInBounds(t *testing.T) {
	srv, _ := newServer(t, http.StatusOK, `{"elements":[
		{"type":"node","id":1,"lat":43.2651,"lon":-2.9352,"tags":{"amenity":"drinking_water"}},
		{"type":"way","id":2,"center":{"lat":43.2662,"lon":-2.9311},"tags":{"amenity":"bicycle_parking"}},
		{"type":"way","id":3,"tags":{"amenity":"bicycle_parking"}}
	]}`)
	c := overpass.New(overpass.Options{URL: srv.URL, UserAgent: "ridekit-test"})

	features, err := c.FeaturesInBounds(context.Background(), box, []domain.TagRule{
		{Key: "amenity", Matcher: domain.Exact("drinking_water")},
	})
	require.NoError(t, err)
	require.Len(t, features, 2, "elements without a position are skipped")
	assert.Equal(t, "node/1", features[0].ID)
	assert.InDelta(t, 43.2651, features[0].Coordinate.Lat, 1e-9)
	assert.Equal(t, "way/2", features[1].ID)
	assert.InDelta(t, -2.9311, features[1].Coordinate.Lng, 1e-9)
}

func TestClient_NoRulesSkipsQuery(t *testing.T) {
	c := overpass.New(overpass.Options{URL: "http://127.0.0.1:1"})
	features, err := c.FeaturesInBounds(context.Background(), box, nil)
	assert.NoError(t, err)
	assert.Empty(t, features)
}

func TestClient_StatusError(t *testing.T) {
	srv, _ := newServer(t, http.StatusTooManyRequests, "rate_limited")
	c := overpass.New(overpass.Options{URL: srv.URL, UserAgent: "ridekit-test"})

	_, err := c.WaysInBounds(context.Background(), box)
	var se *overpass.StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusTooManyRequests, se.Code)
	assert.Equal(t, "rate_limited", se.Body)
}

func TestClient_HonorsDeadline(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer srv.Close()
	c := overpass.New(overpass.Options{URL: srv.URL})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	start := time.Now()
	_, err := c.WaysInBounds(ctx, box)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Less(t, time.Since(start), time.Second)
}
