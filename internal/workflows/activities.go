package workflows

import (
	"context"
	"log/slog"
	"time"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

// RoundTripActivities holds the activity implementations for the round-trip workflow.
type RoundTripActivities struct {
	Routing  ports.RoutingService
	Features ports.PointFeatureService
	POIs     *usecases.POIService
	Events   ports.EventPublisher

	RouteTimeout time.Duration
}

// AttemptInput is one recorded iteration handed to PublishAttempt.
type AttemptInput struct {
	RoundTripID string
	Attempt     int
	Request     domain.RoundTripRequest
	Scored      *domain.ScoredRoute
	Error       string
}

// OutcomeInput is the final status handed to PublishOutcome.
type OutcomeInput struct {
	RoundTripID string
	Metadata    *domain.RoundTripMetadata
	Error       string
}

// FetchInterestFeatures returns candidate features around the start for the
// random shape. A failing lookup returns no features instead of an error.
func (a *RoundTripActivities) FetchInterestFeatures(ctx context.Context, req domain.RoundTripRequest) ([]domain.PointFeature, error) {
	if a.Features == nil || req.Start == nil {
		return nil, nil
	}
	radius := usecases.BaseRadius(req.TargetDistanceMeters)
	b := geospatial.BoundsAround(*req.Start, 2*radius)
	features, err := a.Features.FeaturesInBounds(ctx, b, usecases.InterestRules(req.Preferences))
	if err != nil {
		slog.Warn("interest point lookup failed", "error", err)
		return nil, nil
	}
	return features, nil
}

// RealizeRoute asks the routing collaborator for a concrete route.
func (a *RoundTripActivities) RealizeRoute(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	if a.RouteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.RouteTimeout)
		defer cancel()
	}
	route, err := a.Routing.Realize(ctx, waypoints, profile)
	if err != nil {
		return domain.Route{}, &domain.ExternalQueryError{Service: "routing", Err: err}
	}
	return route, nil
}

// SearchPOIs attaches points of interest to the accepted route. Lookup
// failures leave the round trip without POIs.
func (a *RoundTripActivities) SearchPOIs(ctx context.Context, route domain.Route, categories []string) (*domain.POISearchResult, error) {
	if a.POIs == nil {
		return nil, nil
	}
	res, err := a.POIs.Search(ctx, route, categories, usecases.SearchOptions{})
	if err != nil {
		slog.Warn("poi lookup on round trip failed", "error", err)
		return nil, nil
	}
	return res, nil
}

// PublishAttempt emits a progress event for one iteration.
func (a *RoundTripActivities) PublishAttempt(ctx context.Context, in AttemptInput) error {
	if a.Events == nil {
		return nil
	}
	var rerr error
	if in.Error != "" {
		rerr = activityFailure(in.Error)
	}
	return a.Events.PublishRoundTripAttempt(ctx, usecases.AttemptEvent(in.RoundTripID, in.Attempt, in.Request, in.Scored, rerr))
}

// PublishOutcome emits the completed or failed event.
func (a *RoundTripActivities) PublishOutcome(ctx context.Context, in OutcomeInput) error {
	if a.Events == nil {
		return nil
	}
	var genErr error
	if in.Error != "" {
		genErr = activityFailure(in.Error)
	}
	return a.Events.PublishRoundTripOutcome(ctx, usecases.OutcomeEvent(in.RoundTripID, in.Metadata, genErr))
}

type activityFailure string

func (e activityFailure) Error() string { return string(e) }
