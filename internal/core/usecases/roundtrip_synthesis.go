package usecases

import (
	"fmt"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

// Synthesis is the convergence loop of round-trip generation without any
// I/O. The caller realizes Candidate() and feeds the outcome to Record until
// it reports done. Both the in-process service and the workflow drive it.
type Synthesis struct {
	start       domain.Coordinate
	target      float64
	elevation   domain.ElevationPreference
	tolerance   float64
	maxAttempts int
	maxRadius   float64

	waypoints []domain.Coordinate
	attempts  int
	realized  int
	best      *domain.ScoredRoute
	accepted  *domain.ScoredRoute
	lastErr   error
}

// NewSynthesis starts a loop from the initial waypoints.
func NewSynthesis(req domain.RoundTripRequest, waypoints []domain.Coordinate, tolerance float64, maxAttempts int) *Synthesis {
	return &Synthesis{
		start:       *req.Start,
		target:      req.TargetDistanceMeters,
		elevation:   req.Preferences.Elevation,
		tolerance:   tolerance,
		maxAttempts: maxAttempts,
		maxRadius:   2 * BaseRadius(req.TargetDistanceMeters),
		waypoints:   waypoints,
	}
}

// Waypoints returns the current intermediate waypoints.
func (s *Synthesis) Waypoints() []domain.Coordinate {
	return s.waypoints
}

// Candidate returns the waypoint list to realize: start, waypoints, start.
func (s *Synthesis) Candidate() []domain.Coordinate {
	out := make([]domain.Coordinate, 0, len(s.waypoints)+2)
	out = append(out, s.start)
	out = append(out, s.waypoints...)
	return append(out, s.start)
}

// Attempts is the number of recorded attempts so far.
func (s *Synthesis) Attempts() int { return s.attempts }

// Record scores the outcome of realizing Candidate() and prepares the next
// candidate. It returns the scored attempt (nil when realization failed) and
// whether the loop is finished.
func (s *Synthesis) Record(route domain.Route, realizeErr error) (*domain.ScoredRoute, bool) {
	s.attempts++

	if realizeErr != nil {
		s.lastErr = realizeErr
		return nil, s.attempts >= s.maxAttempts
	}
	s.realized++

	if route.DistanceMeters <= 0 {
		route.DistanceMeters = geospatial.RouteLength(route.Coordinates)
	}
	wps := s.waypoints
	current := &domain.ScoredRoute{
		Route:              route,
		Waypoints:          wps,
		Score:              Score(route, wps, s.target, s.elevation),
		DistanceErrorRatio: DistanceErrorRatio(route.DistanceMeters, s.target),
	}
	if s.best == nil || current.Score < s.best.Score {
		s.best = current
	}

	switch {
	case s.best.DistanceErrorRatio <= s.tolerance:
		s.accepted = s.best
		return current, true
	case current.DistanceErrorRatio <= s.tolerance:
		s.accepted = current
		return current, true
	}

	s.waypoints = Adjust(s.start, wps, AdjustScale(s.target, route.DistanceMeters), s.maxRadius)
	return current, s.attempts >= s.maxAttempts
}

// Result returns the accepted attempt, or the error explaining why none was accepted.
func (s *Synthesis) Result() (*domain.ScoredRoute, error) {
	if s.accepted != nil {
		return s.accepted, nil
	}
	if s.realized == 0 {
		return nil, fmt.Errorf("%w: routing failed on all %d attempts: %v", domain.ErrServiceUnavailable, s.attempts, s.lastErr)
	}
	return nil, &domain.GenerationError{
		Attempts:       s.attempts,
		BestErrorRatio: s.best.DistanceErrorRatio,
		Tolerance:      s.tolerance,
	}
}

// BuildRoundTripResult assembles the user-facing result for an accepted attempt.
func BuildRoundTripResult(id string, req domain.RoundTripRequest, accepted *domain.ScoredRoute, attempts int) *domain.RoundTripResult {
	return &domain.RoundTripResult{
		ID:    id,
		Route: accepted.Route,
		Metadata: domain.RoundTripMetadata{
			Shape:                req.Shape,
			Direction:            req.Direction,
			TargetDistanceMeters: req.TargetDistanceMeters,
			ActualDistanceMeters: accepted.Route.DistanceMeters,
			DistanceErrorRatio:   accepted.DistanceErrorRatio,
			Score:                accepted.Score,
			Attempts:             attempts,
			Waypoints:            accepted.Waypoints,
		},
		Instructions: Instructions(accepted.Route, accepted.Waypoints),
	}
}

// Instructions synthesizes depart, per-waypoint and arrive placeholders with
// their along-route distance.
func Instructions(route domain.Route, waypoints []domain.Coordinate) []domain.Instruction {
	if len(route.Coordinates) == 0 {
		return nil
	}
	cum := geospatial.CumulativeDistances(route.Coordinates)

	out := make([]domain.Instruction, 0, len(waypoints)+2)
	out = append(out, domain.Instruction{
		Index:      0,
		Type:       "depart",
		Text:       "Depart from start",
		Coordinate: route.Start(),
	})

	// Waypoints are visited in order, so never search behind the previous one.
	from := 0
	for i, w := range waypoints {
		near := geospatial.NearestOnRoute(w, route.Coordinates[from:], cum[from:])
		along := near.AlongMeters
		from += near.EdgeIndex
		out = append(out, domain.Instruction{
			Index:          i + 1,
			Type:           "waypoint",
			Text:           fmt.Sprintf("Continue through waypoint %d", i+1),
			Coordinate:     w,
			DistanceMeters: along,
		})
	}

	out = append(out, domain.Instruction{
		Index:          len(waypoints) + 1,
		Type:           "arrive",
		Text:           "Arrive back at start",
		Coordinate:     route.End(),
		DistanceMeters: cum[len(cum)-1],
	})
	return out
}
