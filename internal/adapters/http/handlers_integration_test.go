//go:build integration
// +build integration

package http_test

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/ridekit/internal/adapters/http"
	"github.com/samirrijal/ridekit/internal/adapters/postgres"
	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/config"
)

// setupTestDB connects to the test database, skipping when it is unreachable.
func setupTestDB(t *testing.T) *postgres.DB {
	t.Helper()
	cfg, err := config.Load("ridekit-test")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		t.Skipf("database not reachable: %v", err)
	}
	t.Cleanup(db.Close)
	return db
}

func TestIntegration_POISearchFromPostGIS(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewFeatureRepo(db)
	ctx := context.Background()

	route := shortRoute()
	fountain := domain.PointFeature{
		ID:         "node/99911",
		Coordinate: domain.Coordinate{Lat: route[1].Lat + 0.0002, Lng: route[1].Lng},
		Tags:       domain.Tags{"amenity": "drinking_water", "name": "Test fountain"},
	}
	require.NoError(t, repo.UpsertBatch(ctx, []domain.PointFeature{fountain}))
	t.Cleanup(func() {
		_, _ = db.Pool.Exec(context.Background(), `DELETE FROM point_features WHERE feature_id = $1`, fountain.ID)
	})

	app := setupApp(makeDeps(func(d *handler.Dependencies) {
		d.DB = db
		d.POIs = usecases.NewPOIService(repo, nil, nil, usecases.POIOptions{})
	}))

	ready := get(t, app, "/v1/ready")
	assert.Equal(t, 200, ready.StatusCode)

	resp := postJSON(t, app, "/v1/pois/search", fiber.Map{
		"route":      route,
		"categories": []string{"waterSources"},
		"radius_m":   100,
	})
	require.Equal(t, 200, resp.StatusCode)

	var result domain.POISearchResult
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&result))
	require.NotEmpty(t, result.CategorizedResults["waterSources"])

	var found bool
	for _, p := range result.CategorizedResults["waterSources"] {
		if p.ID == fountain.ID {
			found = true
			assert.Equal(t, "Test fountain", p.Name)
			assert.InDelta(t, 22, p.DistanceToRouteMeters, 2)
		}
	}
	assert.True(t, found)
}
