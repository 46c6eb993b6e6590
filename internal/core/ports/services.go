package ports

import (
	"context"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// RoutingService realizes an ordered waypoint list into a concrete route.
type RoutingService interface {
	Realize(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error)
}

// RoadAttributeService returns tagged road features intersecting a box.
type RoadAttributeService interface {
	WaysInBounds(ctx context.Context, b domain.Bounds) ([]domain.WayFeature, error)
}

// PointFeatureService returns point features inside a box matching any rule.
type PointFeatureService interface {
	FeaturesInBounds(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error)
}

// EventPublisher publishes analysis events to a message broker.
type EventPublisher interface {
	PublishSurfaceAnalyzed(ctx context.Context, event *domain.SurfaceAnalyzedEvent) error
	PublishPOISearched(ctx context.Context, event *domain.POISearchedEvent) error
	PublishRoundTripAttempt(ctx context.Context, event *domain.RoundTripAttemptEvent) error
	PublishRoundTripOutcome(ctx context.Context, event *domain.RoundTripOutcomeEvent) error
}

// EventSubscriber consumes analysis events from a message broker.
type EventSubscriber interface {
	SubscribeRoundTripOutcomes(ctx context.Context, handler func(ctx context.Context, event *domain.RoundTripOutcomeEvent) error) error
	SubscribeRoundTripAttempts(ctx context.Context, handler func(ctx context.Context, event *domain.RoundTripAttemptEvent) error) error
}

// CacheService provides a shared byte cache.
type CacheService interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, value []byte, ttlSeconds int) error
	Delete(ctx context.Context, key string) error
}

// RoundTripRunner runs round-trip generation out of band.
type RoundTripRunner interface {
	Start(ctx context.Context, id string, req domain.RoundTripRequest) (runID string, err error)
	// Result returns (nil, nil) while the generation is still running.
	Result(ctx context.Context, id string) (*domain.RoundTripResult, error)
}
