//go:build integration
// +build integration

package postgres_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/adapters/postgres"
	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/config"
)

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

	_, err = db.Pool.Exec(ctx, `DELETE FROM point_features WHERE feature_id LIKE 'node/9990%'`)
	require.NoError(t, err)
	return db
}

func TestFeatureRepo_RoundTrip(t *testing.T) {
	db := setupTestDB(t)
	repo := postgres.NewFeatureRepo(db)
	ctx := context.Background()

	features := []domain.PointFeature{
		{ID: "node/99901", Coordinate: domain.Coordinate{Lat: 43.2631, Lng: -2.9351}, Tags: domain.Tags{"amenity": "drinking_water"}},
		{ID: "node/99902", Coordinate: domain.Coordinate{Lat: 43.2641, Lng: -2.9341}, Tags: domain.Tags{"historic": "monument", "name": "Puente"}},
		{ID: "node/99903", Coordinate: domain.Coordinate{Lat: 43.5, Lng: -2.5}, Tags: domain.Tags{"amenity": "drinking_water"}},
	}
	require.NoError(t, repo.UpsertBatch(ctx, features))
	require.NoError(t, repo.UpsertBatch(ctx, features[:1]), "upsert is idempotent")

	box := domain.Bounds{MinLat: 43.26, MinLng: -2.94, MaxLat: 43.27, MaxLng: -2.93}
	got, err := repo.FeaturesInBounds(ctx, box, []domain.TagRule{
		{Key: "amenity", Matcher: domain.Exact("drinking_water")},
		{Key: "historic", Matcher: domain.Wildcard{}},
	})
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "node/99901", got[0].ID)
	assert.InDelta(t, 43.2631, got[0].Coordinate.Lat, 1e-9)
	assert.Equal(t, "Puente", got[1].Tags.Name())

	n, err := repo.Count(ctx)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, n, int64(3))
}
