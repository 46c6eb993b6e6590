package usecases

import (
	"context"
	"errors"
	"log/slog"
	"math/rand/v2"
	"time"

	"github.com/google/uuid"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
)

const routingService = "routing"

// RoundTripOptions tunes a RoundTripService. Zero values fall back to defaults.
type RoundTripOptions struct {
	Tolerance       float64
	MaxAttempts     int
	RouteTimeout    time.Duration
	InterestTimeout time.Duration
}

// WithDefaults fills zero fields with the default tuning.
func (o RoundTripOptions) WithDefaults() RoundTripOptions {
	if o.Tolerance <= 0 {
		o.Tolerance = 0.1
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = 10
	}
	if o.RouteTimeout <= 0 {
		o.RouteTimeout = 20 * time.Second
	}
	if o.InterestTimeout <= 0 {
		o.InterestTimeout = 10 * time.Second
	}
	return o
}

// RoundTripService synthesizes closed routes of a target length.
type RoundTripService struct {
	routing  ports.RoutingService
	features ports.PointFeatureService
	pois     *POIService
	events   ports.EventPublisher
	opts     RoundTripOptions

	newID func() string
	seed  func() (uint64, uint64)
}

// NewRoundTripService creates a new RoundTripService. features, pois and
// events may be nil.
func NewRoundTripService(
	routing ports.RoutingService,
	features ports.PointFeatureService,
	pois *POIService,
	events ports.EventPublisher,
	opts RoundTripOptions,
) *RoundTripService {
	return &RoundTripService{
		routing:  routing,
		features: features,
		pois:     pois,
		events:   events,
		opts:     opts.WithDefaults(),
		newID:    uuid.NewString,
		seed:     func() (uint64, uint64) { return rand.Uint64(), rand.Uint64() },
	}
}

// WithSeed fixes the random source. Used by tests and the CLI --seed flag.
func (s *RoundTripService) WithSeed(a, b uint64) *RoundTripService {
	s.seed = func() (uint64, uint64) { return a, b }
	return s
}

// Options returns the effective options.
func (s *RoundTripService) Options() RoundTripOptions { return s.opts }

// PrepareRequest normalizes and validates a request before any network call.
func PrepareRequest(req domain.RoundTripRequest) (domain.RoundTripRequest, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return req, err
	}
	if req.Preferences.IncludePOIs {
		if _, err := ResolveCategories(req.Preferences.POICategories); err != nil {
			return req, err
		}
	}
	return req, nil
}

// Generate runs the synthesis loop until an attempt lands within tolerance of
// the target distance or attempts run out.
func (s *RoundTripService) Generate(ctx context.Context, req domain.RoundTripRequest) (*domain.RoundTripResult, error) {
	return s.GenerateWithID(ctx, s.newID(), req)
}

// GenerateWithID is Generate with a caller-chosen result ID.
func (s *RoundTripService) GenerateWithID(ctx context.Context, id string, req domain.RoundTripRequest) (*domain.RoundTripResult, error) {
	req, err := PrepareRequest(req)
	if err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanRoundTripGen)
	log := slog.With("round_trip_id", id, "shape", req.Shape, "target_m", req.TargetDistanceMeters)

	a, b := s.seed()
	rng := rand.New(rand.NewPCG(a, b))
	radius := BaseRadius(req.TargetDistanceMeters)

	interest := s.interestFeatures(ctx, req, radius)
	synth := NewSynthesis(req, GenerateWaypoints(*req.Start, req, radius, rng, interest), s.opts.Tolerance, s.opts.MaxAttempts)

	for {
		route, rerr := s.realize(ctx, synth.Candidate(), req.Preferences.Profile)
		if ctxErr := ctx.Err(); ctxErr != nil {
			telemetry.EndSpan(span, ctxErr)
			return nil, ctxErr
		}
		scored, done := synth.Record(route, rerr)
		s.publishAttempt(ctx, id, synth.Attempts(), req, scored, rerr)
		if rerr != nil {
			log.Warn("route realization failed", "attempt", synth.Attempts(), "error", rerr)
		} else {
			log.Debug("attempt scored", "attempt", synth.Attempts(), "actual_m", scored.Route.DistanceMeters, "error_ratio", scored.DistanceErrorRatio)
		}
		if done {
			break
		}
	}

	metrics.RoundTripAttempts.Observe(float64(synth.Attempts()))
	accepted, err := synth.Result()
	if err != nil {
		metrics.RoundTripOutcomes.WithLabelValues(string(req.Shape), outcomeLabel(err)).Inc()
		s.publishOutcome(ctx, id, nil, err)
		telemetry.EndSpan(span, err)
		return nil, err
	}

	result := BuildRoundTripResult(id, req, accepted, synth.Attempts())
	if req.Preferences.IncludePOIs && s.pois != nil {
		pois, err := s.pois.Search(ctx, result.Route, req.Preferences.POICategories, SearchOptions{})
		if err != nil {
			log.Warn("poi lookup on round trip failed", "error", err)
		} else {
			result.PointsOfInterest = pois
		}
	}

	metrics.RoundTripOutcomes.WithLabelValues(string(req.Shape), "completed").Inc()
	s.publishOutcome(ctx, id, &result.Metadata, nil)
	telemetry.EndSpan(span, nil)
	log.Info("round trip generated", "attempts", synth.Attempts(), "actual_m", result.Metadata.ActualDistanceMeters)
	return result, nil
}

func (s *RoundTripService) realize(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	ctx, cancel := context.WithTimeout(ctx, s.opts.RouteTimeout)
	defer cancel()

	route, err := s.routing.Realize(ctx, waypoints, profile)
	if err != nil {
		return domain.Route{}, &domain.ExternalQueryError{Service: routingService, Err: err}
	}
	return route, nil
}

// interestFeatures fetches candidate features for the random shape. Failure
// only loses the bias toward interesting places.
func (s *RoundTripService) interestFeatures(ctx context.Context, req domain.RoundTripRequest, radius float64) []domain.PointFeature {
	if req.Shape != domain.ShapeRandom || !req.Preferences.WantsInterestPoints() || s.features == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(ctx, s.opts.InterestTimeout)
	defer cancel()

	// The center is not known before the start bearing is drawn, so cover every possible center.
	b := geospatial.BoundsAround(*req.Start, 2*radius)
	features, err := s.features.FeaturesInBounds(ctx, b, InterestRules(req.Preferences))
	if err != nil {
		slog.Warn("interest point lookup failed", "error", err)
		return nil
	}
	return features
}

func (s *RoundTripService) publishAttempt(ctx context.Context, id string, attempt int, req domain.RoundTripRequest, scored *domain.ScoredRoute, rerr error) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishRoundTripAttempt(ctx, AttemptEvent(id, attempt, req, scored, rerr))
}

func (s *RoundTripService) publishOutcome(ctx context.Context, id string, meta *domain.RoundTripMetadata, genErr error) {
	if s.events == nil {
		return
	}
	_ = s.events.PublishRoundTripOutcome(ctx, OutcomeEvent(id, meta, genErr))
}

// AttemptEvent builds the progress event for one attempt.
func AttemptEvent(id string, attempt int, req domain.RoundTripRequest, scored *domain.ScoredRoute, rerr error) *domain.RoundTripAttemptEvent {
	ev := &domain.RoundTripAttemptEvent{
		RoundTripID:          id,
		Attempt:              attempt,
		TargetDistanceMeters: req.TargetDistanceMeters,
		At:                   time.Now().UTC(),
	}
	if rerr != nil {
		ev.Error = rerr.Error()
		return ev
	}
	ev.Waypoints = scored.Waypoints
	ev.ActualDistanceMeters = scored.Route.DistanceMeters
	ev.DistanceErrorRatio = scored.DistanceErrorRatio
	ev.Score = scored.Score
	return ev
}

// OutcomeEvent builds the completed/failed event.
func OutcomeEvent(id string, meta *domain.RoundTripMetadata, genErr error) *domain.RoundTripOutcomeEvent {
	ev := &domain.RoundTripOutcomeEvent{RoundTripID: id, Status: "completed", Metadata: meta, At: time.Now().UTC()}
	if genErr != nil {
		ev.Status = "failed"
		ev.Error = genErr.Error()
	}
	return ev
}

func outcomeLabel(err error) string {
	switch {
	case errors.Is(err, domain.ErrGenerationFailure):
		return "not_converged"
	case errors.Is(err, domain.ErrServiceUnavailable):
		return "unavailable"
	default:
		return "error"
	}
}
