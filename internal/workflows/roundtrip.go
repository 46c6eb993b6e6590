package workflows

import (
	"errors"
	"math/rand/v2"
	"time"

	"go.temporal.io/sdk/temporal"
	"go.temporal.io/sdk/workflow"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
)

// TaskQueue is the queue the round-trip worker polls.
const TaskQueue = "ridekit-roundtrip"

// Application error types carried across the workflow boundary.
const (
	ErrTypeInvalidInput       = "InvalidInput"
	ErrTypeServiceUnavailable = "ServiceUnavailable"
	ErrTypeGenerationFailure  = "GenerationFailure"
)

// RoundTripInput is the input for the round-trip workflow.
type RoundTripInput struct {
	ID          string
	Request     domain.RoundTripRequest
	Tolerance   float64
	MaxAttempts int
}

// RoundTripWorkflow runs the synthesis loop durably: every routing call is an
// activity, so a worker restart resumes at the last completed attempt.
func RoundTripWorkflow(ctx workflow.Context, input RoundTripInput) (*domain.RoundTripResult, error) {
	logger := workflow.GetLogger(ctx)

	req, err := usecases.PrepareRequest(input.Request)
	if err != nil {
		return nil, applicationError(err)
	}
	id := input.ID
	if id == "" {
		id = workflow.GetInfo(ctx).WorkflowExecution.ID
	}
	opts := usecases.RoundTripOptions{Tolerance: input.Tolerance, MaxAttempts: input.MaxAttempts}.WithDefaults()

	logger.Info("Starting round trip workflow", "id", id, "shape", req.Shape, "target_m", req.TargetDistanceMeters)

	ctx = workflow.WithActivityOptions(ctx, workflow.ActivityOptions{
		StartToCloseTimeout: 30 * time.Second,
		RetryPolicy: &temporal.RetryPolicy{
			MaximumAttempts: 3,
		},
	})

	// The random source must replay identically, so its seed is recorded once.
	var seed [2]uint64
	err = workflow.SideEffect(ctx, func(workflow.Context) interface{} {
		return [2]uint64{rand.Uint64(), rand.Uint64()}
	}).Get(&seed)
	if err != nil {
		return nil, err
	}

	var interest []domain.PointFeature
	if req.Shape == domain.ShapeRandom && req.Preferences.WantsInterestPoints() {
		_ = workflow.ExecuteActivity(ctx, "FetchInterestFeatures", req).Get(ctx, &interest)
	}

	radius := usecases.BaseRadius(req.TargetDistanceMeters)
	rng := rand.New(rand.NewPCG(seed[0], seed[1]))
	synth := usecases.NewSynthesis(req, usecases.GenerateWaypoints(*req.Start, req, radius, rng, interest), opts.Tolerance, opts.MaxAttempts)

	for {
		var route domain.Route
		rerr := workflow.ExecuteActivity(ctx, "RealizeRoute", synth.Candidate(), req.Preferences.Profile).Get(ctx, &route)
		if temporal.IsCanceledError(rerr) {
			return nil, rerr
		}
		scored, done := synth.Record(route, rerr)

		attempt := AttemptInput{RoundTripID: id, Attempt: synth.Attempts(), Request: req, Scored: scored}
		if rerr != nil {
			attempt.Error = rerr.Error()
			logger.Warn("route realization failed", "attempt", attempt.Attempt, "error", rerr)
		}
		_ = workflow.ExecuteActivity(ctx, "PublishAttempt", attempt).Get(ctx, nil)

		if done {
			break
		}
	}

	accepted, err := synth.Result()
	if err != nil {
		logger.Warn("round trip did not converge", "attempts", synth.Attempts(), "error", err)
		_ = workflow.ExecuteActivity(ctx, "PublishOutcome", OutcomeInput{RoundTripID: id, Error: err.Error()}).Get(ctx, nil)
		return nil, applicationError(err)
	}

	result := usecases.BuildRoundTripResult(id, req, accepted, synth.Attempts())
	if req.Preferences.IncludePOIs {
		var pois *domain.POISearchResult
		if err := workflow.ExecuteActivity(ctx, "SearchPOIs", result.Route, req.Preferences.POICategories).Get(ctx, &pois); err == nil {
			result.PointsOfInterest = pois
		}
	}

	_ = workflow.ExecuteActivity(ctx, "PublishOutcome", OutcomeInput{RoundTripID: id, Metadata: &result.Metadata}).Get(ctx, nil)

	logger.Info("Round trip generated", "attempts", synth.Attempts(), "actual_m", result.Metadata.ActualDistanceMeters)
	return result, nil
}

// applicationError converts a domain error into a non-retryable workflow
// failure. The message and any GenerationError travel as details.
func applicationError(err error) error {
	msg := err.Error()
	switch {
	case errors.Is(err, domain.ErrInvalidInput):
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeInvalidInput, nil, msg)
	case errors.Is(err, domain.ErrGenerationFailure):
		var ge *domain.GenerationError
		if errors.As(err, &ge) {
			return temporal.NewNonRetryableApplicationError(msg, ErrTypeGenerationFailure, nil, msg, *ge)
		}
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeGenerationFailure, nil, msg)
	default:
		return temporal.NewNonRetryableApplicationError(msg, ErrTypeServiceUnavailable, nil, msg)
	}
}
