package workflows_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.temporal.io/sdk/testsuite"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/workflows"
)

var bilbao = domain.Coordinate{Lat: 43.263, Lng: -2.935}

type fakeRouting struct {
	mu        sync.Mutex
	calls     int
	distances []float64
	err       error
}

func (f *fakeRouting) Realize(ctx context.Context, wps []domain.Coordinate, p domain.Profile) (domain.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return domain.Route{}, f.err
	}
	d := f.distances[min(f.calls-1, len(f.distances)-1)]
	coords := make([]domain.Coordinate, len(wps))
	copy(coords, wps)
	return domain.Route{Coordinates: coords, DistanceMeters: d}, nil
}

type fakeEvents struct {
	mu       sync.Mutex
	attempts []*domain.RoundTripAttemptEvent
	outcomes []*domain.RoundTripOutcomeEvent
}

func (f *fakeEvents) PublishSurfaceAnalyzed(ctx context.Context, e *domain.SurfaceAnalyzedEvent) error {
	return nil
}

func (f *fakeEvents) PublishPOISearched(ctx context.Context, e *domain.POISearchedEvent) error {
	return nil
}

func (f *fakeEvents) PublishRoundTripAttempt(ctx context.Context, e *domain.RoundTripAttemptEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.attempts = append(f.attempts, e)
	return nil
}

func (f *fakeEvents) PublishRoundTripOutcome(ctx context.Context, e *domain.RoundTripOutcomeEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.outcomes = append(f.outcomes, e)
	return nil
}

func runRoundTrip(t *testing.T, acts *workflows.RoundTripActivities, in workflows.RoundTripInput) *testsuite.TestWorkflowEnvironment {
	t.Helper()
	var suite testsuite.WorkflowTestSuite
	env := suite.NewTestWorkflowEnvironment()
	env.RegisterWorkflow(workflows.RoundTripWorkflow)
	env.RegisterActivity(acts)
	env.ExecuteWorkflow(workflows.RoundTripWorkflow, in)
	require.True(t, env.IsWorkflowCompleted())
	return env
}

func request(target float64) domain.RoundTripRequest {
	start := bilbao
	return domain.RoundTripRequest{Start: &start, TargetDistanceMeters: target}
}

func TestRoundTripWorkflow_Converges(t *testing.T) {
	routing := &fakeRouting{distances: []float64{15000, 10500}}
	events := &fakeEvents{}
	env := runRoundTrip(t, &workflows.RoundTripActivities{Routing: routing, Events: events},
		workflows.RoundTripInput{ID: "rt-1", Request: request(10000)})

	require.NoError(t, env.GetWorkflowError())
	var result domain.RoundTripResult
	require.NoError(t, env.GetWorkflowResult(&result))

	assert.Equal(t, "rt-1", result.ID)
	assert.Equal(t, 2, result.Metadata.Attempts)
	assert.Equal(t, domain.ShapeLoop, result.Metadata.Shape)
	assert.InDelta(t, 10500, result.Metadata.ActualDistanceMeters, 1e-9)
	assert.InDelta(t, 0.05, result.Metadata.DistanceErrorRatio, 1e-9)
	assert.Len(t, result.Metadata.Waypoints, 4)
	assert.Len(t, result.Instructions, 6)
	assert.Equal(t, 2, routing.calls)

	require.Len(t, events.attempts, 2)
	assert.Equal(t, "rt-1", events.attempts[1].RoundTripID)
	assert.Equal(t, 2, events.attempts[1].Attempt)
	require.Len(t, events.outcomes, 1)
	assert.Equal(t, "completed", events.outcomes[0].Status)
}

func TestRoundTripWorkflow_NotConverged(t *testing.T) {
	routing := &fakeRouting{distances: []float64{30000}}
	events := &fakeEvents{}
	env := runRoundTrip(t, &workflows.RoundTripActivities{Routing: routing, Events: events},
		workflows.RoundTripInput{ID: "rt-2", Request: request(10000), MaxAttempts: 3})

	err := workflows.DomainError(env.GetWorkflowError())
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrGenerationFailure)

	var ge *domain.GenerationError
	require.ErrorAs(t, err, &ge)
	assert.Equal(t, 3, ge.Attempts)
	assert.InDelta(t, 0.1, ge.Tolerance, 1e-9)

	assert.Equal(t, 3, routing.calls)
	require.Len(t, events.outcomes, 1)
	assert.Equal(t, "failed", events.outcomes[0].Status)
}

func TestRoundTripWorkflow_RoutingUnavailable(t *testing.T) {
	routing := &fakeRouting{err: errors.New("connection refused")}
	env := runRoundTrip(t, &workflows.RoundTripActivities{Routing: routing},
		workflows.RoundTripInput{ID: "rt-3", Request: request(10000), MaxAttempts: 2})

	err := workflows.DomainError(env.GetWorkflowError())
	assert.ErrorIs(t, err, domain.ErrServiceUnavailable)
	// Each synthesis attempt is retried by the activity policy.
	assert.Equal(t, 6, routing.calls)
}

func TestRoundTripWorkflow_InvalidRequest(t *testing.T) {
	routing := &fakeRouting{distances: []float64{10000}}
	env := runRoundTrip(t, &workflows.RoundTripActivities{Routing: routing},
		workflows.RoundTripInput{ID: "rt-4", Request: request(-5)})

	err := workflows.DomainError(env.GetWorkflowError())
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Contains(t, err.Error(), "target distance")
	assert.Zero(t, routing.calls)
}
