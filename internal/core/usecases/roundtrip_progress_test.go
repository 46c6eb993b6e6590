package usecases_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
)

// fakeSubscriber captures the handlers so tests can push events directly.
type fakeSubscriber struct {
	attempts   func(context.Context, *domain.RoundTripAttemptEvent) error
	outcomes   func(context.Context, *domain.RoundTripOutcomeEvent) error
	outcomeErr error
}

func (f *fakeSubscriber) SubscribeRoundTripAttempts(ctx context.Context, fn func(context.Context, *domain.RoundTripAttemptEvent) error) error {
	f.attempts = fn
	return nil
}

func (f *fakeSubscriber) SubscribeRoundTripOutcomes(ctx context.Context, fn func(context.Context, *domain.RoundTripOutcomeEvent) error) error {
	if f.outcomeErr != nil {
		return f.outcomeErr
	}
	f.outcomes = fn
	return nil
}

func TestRoundTripProgress_TracksLatestAttempt(t *testing.T) {
	ctx := context.Background()
	sub := &fakeSubscriber{}
	p := usecases.NewRoundTripProgress(16, time.Minute)
	require.NoError(t, p.Follow(ctx, sub))

	require.NoError(t, sub.attempts(ctx, &domain.RoundTripAttemptEvent{RoundTripID: "a", Attempt: 1, ActualDistanceMeters: 12000}))
	require.NoError(t, sub.attempts(ctx, &domain.RoundTripAttemptEvent{RoundTripID: "a", Attempt: 3, ActualDistanceMeters: 10400}))
	// A late redelivery of attempt 2 does not move progress backwards.
	require.NoError(t, sub.attempts(ctx, &domain.RoundTripAttemptEvent{RoundTripID: "a", Attempt: 2, ActualDistanceMeters: 11000}))

	got, ok := p.Latest("a")
	require.True(t, ok)
	assert.Equal(t, 3, got.Attempt)
	assert.InDelta(t, 10400, got.ActualDistanceMeters, 1e-9)

	_, ok = p.Latest("b")
	assert.False(t, ok)
}

func TestRoundTripProgress_OutcomeClears(t *testing.T) {
	ctx := context.Background()
	sub := &fakeSubscriber{}
	p := usecases.NewRoundTripProgress(0, 0)
	require.NoError(t, p.Follow(ctx, sub))

	require.NoError(t, sub.attempts(ctx, &domain.RoundTripAttemptEvent{RoundTripID: "a", Attempt: 1}))
	require.NoError(t, sub.outcomes(ctx, &domain.RoundTripOutcomeEvent{RoundTripID: "a", Status: "completed"}))

	_, ok := p.Latest("a")
	assert.False(t, ok)

	// A redelivered attempt after the outcome stays dropped.
	require.NoError(t, sub.attempts(ctx, &domain.RoundTripAttemptEvent{RoundTripID: "a", Attempt: 2}))
	_, ok = p.Latest("a")
	assert.False(t, ok)
}

func TestRoundTripProgress_SubscribeError(t *testing.T) {
	sub := &fakeSubscriber{outcomeErr: errors.New("no stream")}
	err := usecases.NewRoundTripProgress(4, time.Minute).Follow(context.Background(), sub)
	assert.ErrorContains(t, err, "follow outcomes: no stream")
}
