package usecases_test

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// --- Mock RoadAttributeService ---

type mockRoads struct {
	calls          atomic.Int32
	waysInBoundsFn func(ctx context.Context, b domain.Bounds) ([]domain.WayFeature, error)
}

func (m *mockRoads) WaysInBounds(ctx context.Context, b domain.Bounds) ([]domain.WayFeature, error) {
	m.calls.Add(1)
	if m.waysInBoundsFn != nil {
		return m.waysInBoundsFn(ctx, b)
	}
	return nil, nil
}

// --- Mock PointFeatureService ---

type mockFeatures struct {
	calls      atomic.Int32
	mu         sync.Mutex
	lastRules  []domain.TagRule
	lastBox    domain.Bounds
	featuresFn func(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error)
}

func (m *mockFeatures) FeaturesInBounds(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastRules = rules
	m.lastBox = b
	m.mu.Unlock()
	if m.featuresFn != nil {
		return m.featuresFn(ctx, b, rules)
	}
	return nil, nil
}

// --- Mock RoutingService ---

type mockRouting struct {
	calls     atomic.Int32
	realizeFn func(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error)
}

func (m *mockRouting) Realize(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	m.calls.Add(1)
	if m.realizeFn != nil {
		return m.realizeFn(ctx, waypoints, profile)
	}
	return domain.Route{}, errors.New("no route")
}

// --- Mock CacheService ---

type mockCache struct {
	mu   sync.Mutex
	data map[string][]byte
}

func newMockCache() *mockCache { return &mockCache{data: map[string][]byte{}} }

func (m *mockCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if v, ok := m.data[key]; ok {
		return v, nil
	}
	return nil, errors.New("miss")
}

func (m *mockCache) Set(ctx context.Context, key string, value []byte, ttlSeconds int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = value
	return nil
}

func (m *mockCache) Delete(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.data, key)
	return nil
}

// --- Mock EventPublisher ---

type mockPublisher struct {
	mu       sync.Mutex
	surface  []*domain.SurfaceAnalyzedEvent
	poi      []*domain.POISearchedEvent
	attempts []*domain.RoundTripAttemptEvent
	outcomes []*domain.RoundTripOutcomeEvent
}

func (m *mockPublisher) PublishSurfaceAnalyzed(ctx context.Context, e *domain.SurfaceAnalyzedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.surface = append(m.surface, e)
	return nil
}

func (m *mockPublisher) PublishPOISearched(ctx context.Context, e *domain.POISearchedEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.poi = append(m.poi, e)
	return nil
}

func (m *mockPublisher) PublishRoundTripAttempt(ctx context.Context, e *domain.RoundTripAttemptEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.attempts = append(m.attempts, e)
	return nil
}

func (m *mockPublisher) PublishRoundTripOutcome(ctx context.Context, e *domain.RoundTripOutcomeEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.outcomes = append(m.outcomes, e)
	return nil
}
