package bootstrap_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/adapters/googlemaps"
	"github.com/samirrijal/ridekit/internal/adapters/overpass"
	"github.com/samirrijal/ridekit/internal/adapters/valhalla"
	"github.com/samirrijal/ridekit/internal/bootstrap"
	"github.com/samirrijal/ridekit/internal/pkg/config"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	t.Chdir(t.TempDir())
	cfg, err := config.Load("ridekit-test")
	require.NoError(t, err)
	return cfg
}

func TestRouting_SelectsProvider(t *testing.T) {
	r, err := bootstrap.Routing(config.RoutingConfig{Provider: "valhalla", ValhallaURL: "http://localhost:8002"})
	require.NoError(t, err)
	assert.IsType(t, &valhalla.Client{}, r)

	r, err = bootstrap.Routing(config.RoutingConfig{Provider: "googlemaps", GoogleAPIKey: "AIza-test"})
	require.NoError(t, err)
	assert.IsType(t, &googlemaps.Client{}, r)
}

func TestRouting_Errors(t *testing.T) {
	_, err := bootstrap.Routing(config.RoutingConfig{Provider: "osrm"})
	assert.ErrorContains(t, err, "unknown routing provider")

	r, err := bootstrap.Routing(config.RoutingConfig{Provider: "googlemaps"})
	assert.Error(t, err)
	assert.Nil(t, r)
}

func TestNewServices_OverpassDefault(t *testing.T) {
	cfg := testConfig(t)

	svc, err := bootstrap.NewServices(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &overpass.Client{}, svc.Features)
	assert.IsType(t, &overpass.Client{}, svc.Roads)
	assert.NotNil(t, svc.Surface)
	assert.NotNil(t, svc.POIs)
	assert.Equal(t, 0.1, svc.RoundTrips.Options().Tolerance)
	assert.Equal(t, 10, svc.RoundTrips.Options().MaxAttempts)
}

func TestNewServices_PostGISNeedsDatabase(t *testing.T) {
	cfg := testConfig(t)
	cfg.POI.Source = "postgis"

	_, err := bootstrap.NewServices(cfg, &bootstrap.Infra{})
	assert.ErrorContains(t, err, "needs a database")
}

func TestInfra_NilPorts(t *testing.T) {
	var in *bootstrap.Infra
	assert.Nil(t, in.SharedCache())
	assert.Nil(t, in.Events())

	in = &bootstrap.Infra{}
	assert.Nil(t, in.SharedCache())
	assert.Nil(t, in.Events())
	in.Close()
}
