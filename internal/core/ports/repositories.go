package ports

import (
	"context"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// PointFeatureRepository persists imported point features for offline POI search.
type PointFeatureRepository interface {
	UpsertBatch(ctx context.Context, features []domain.PointFeature) error
	FeaturesInBounds(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error)
	Count(ctx context.Context) (int64, error)
}
