package usecases

import (
	"math"
	"math/rand/v2"
	"sort"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

const (
	deg            = math.Pi / 180
	interestSector = 2 * math.Pi / 8
)

// BaseRadius is the radius of a circle whose circumference equals the target distance.
func BaseRadius(targetMeters float64) float64 {
	return targetMeters / (2 * math.Pi)
}

// traversalSign returns +1 for clockwise and -1 for counterclockwise traversal.
// DirectionAny picks one at random.
func traversalSign(d domain.Direction, rng *rand.Rand) float64 {
	switch d {
	case domain.DirectionClockwise:
		return 1
	case domain.DirectionCounterclockwise:
		return -1
	default:
		if rng.IntN(2) == 0 {
			return 1
		}
		return -1
	}
}

// GenerateWaypoints lays out the initial waypoints for a shape. Every
// waypoint lies within 2*radius of start. interest is only used by the random
// shape and may be nil.
func GenerateWaypoints(start domain.Coordinate, req domain.RoundTripRequest, radius float64, rng *rand.Rand, interest []domain.PointFeature) []domain.Coordinate {
	theta0 := rng.Float64() * 2 * math.Pi
	sign := traversalSign(req.Direction, rng)

	switch req.Shape {
	case domain.ShapeTriangle:
		return polygonAround(start, theta0, radius, sign, 3)
	case domain.ShapeFigure8:
		return figureEight(start, theta0, radius, sign)
	case domain.ShapeRandom:
		return randomWaypoints(start, theta0, radius, sign, rng, req.Preferences, interest)
	default:
		return polygonAround(start, theta0, radius, sign, 4)
	}
}

// polygonAround places n points on the circle of radius r whose center lies
// r away from start along theta0. Start sits on the same circle, so the
// points are offset from it by half a step.
func polygonAround(start domain.Coordinate, theta0, r, sign float64, n int) []domain.Coordinate {
	center := geospatial.DestinationPoint(start, theta0, r)
	back := theta0 + math.Pi
	step := 2 * math.Pi / float64(n)

	out := make([]domain.Coordinate, n)
	for k := 0; k < n; k++ {
		b := back + sign*(step/2+float64(k)*step)
		out[k] = geospatial.DestinationPoint(center, geospatial.NormalizeBearing(b), r)
	}
	return out
}

// figureEight traces two half-radius loops meeting at start, the second in
// the opposite sense.
func figureEight(start domain.Coordinate, theta0, r, sign float64) []domain.Coordinate {
	half := r / 2
	c1 := geospatial.DestinationPoint(start, theta0, half)
	c2 := geospatial.DestinationPoint(start, theta0+math.Pi, half)

	out := make([]domain.Coordinate, 0, 6)
	for k := 1; k <= 3; k++ {
		b := theta0 + math.Pi + sign*float64(k)*90*deg
		out = append(out, geospatial.DestinationPoint(c1, geospatial.NormalizeBearing(b), half))
	}
	for k := 1; k <= 3; k++ {
		b := theta0 - sign*float64(k)*90*deg
		out = append(out, geospatial.DestinationPoint(c2, geospatial.NormalizeBearing(b), half))
	}
	return out
}

type scoredCandidate struct {
	coord  domain.Coordinate
	score  float64
	sector int
}

func randomWaypoints(start domain.Coordinate, theta0, r, sign float64, rng *rand.Rand, prefs domain.Preferences, interest []domain.PointFeature) []domain.Coordinate {
	n := 3 + rng.IntN(3)
	center := geospatial.DestinationPoint(start, theta0, r)

	var picked []domain.Coordinate
	if prefs.WantsInterestPoints() && len(interest) > 0 {
		picked = pickInterestPoints(center, r, n, prefs, interest)
	}
	for len(picked) < n {
		b := rng.Float64() * 2 * math.Pi
		d := r * (0.5 + 0.5*rng.Float64())
		picked = append(picked, geospatial.DestinationPoint(center, b, d))
	}

	// Order around the center starting from the side facing start.
	back := theta0 + math.Pi
	rel := func(c domain.Coordinate) float64 {
		return geospatial.NormalizeBearing(geospatial.Bearing(center, c) - back)
	}
	sort.SliceStable(picked, func(i, j int) bool {
		if sign > 0 {
			return rel(picked[i]) < rel(picked[j])
		}
		return rel(picked[i]) > rel(picked[j])
	})
	return picked
}

// pickInterestPoints keeps the best feature per 45 degree sector around
// center and returns up to n of them, highest scores first.
func pickInterestPoints(center domain.Coordinate, r float64, n int, prefs domain.Preferences, interest []domain.PointFeature) []domain.Coordinate {
	best := make(map[int]scoredCandidate)
	for _, f := range interest {
		if geospatial.Distance(center, f.Coordinate) > r {
			continue
		}
		score := InterestScore(f.Tags, prefs)
		if score <= 0 {
			continue
		}
		sector := int(geospatial.Bearing(center, f.Coordinate)/interestSector) % 8
		if cur, ok := best[sector]; !ok || score > cur.score {
			best[sector] = scoredCandidate{coord: f.Coordinate, score: score, sector: sector}
		}
	}

	cands := make([]scoredCandidate, 0, len(best))
	for _, c := range best {
		cands = append(cands, c)
	}
	sort.Slice(cands, func(i, j int) bool {
		if cands[i].score != cands[j].score {
			return cands[i].score > cands[j].score
		}
		return cands[i].sector < cands[j].sector
	})
	if len(cands) > n {
		cands = cands[:n]
	}

	out := make([]domain.Coordinate, len(cands))
	for i, c := range cands {
		out[i] = domain.Coordinate{Lat: c.coord.Lat, Lng: c.coord.Lng}
	}
	return out
}

// InterestRules returns the tag rules worth querying for the given preferences.
func InterestRules(prefs domain.Preferences) []domain.TagRule {
	var rules []domain.TagRule
	if prefs.Scenic {
		rules = append(rules,
			exact("tourism", "viewpoint"),
			exact("natural", "peak"),
			exact("waterway", "waterfall"),
		)
	}
	if prefs.Nature {
		rules = append(rules,
			exact("leisure", "nature_reserve"),
			exact("leisure", "park"),
			exact("boundary", "national_park"),
			exact("natural", "wood"),
		)
	}
	if prefs.Cultural {
		rules = append(rules,
			anyValue("historic"),
			exact("tourism", "museum"),
			exact("tourism", "attraction"),
		)
	}
	return rules
}

// InterestScore weights a feature by how well it matches the preferences.
// Zero means the feature is of no interest.
func InterestScore(tags domain.Tags, prefs domain.Preferences) float64 {
	var score float64
	if prefs.Scenic {
		switch {
		case tags["tourism"] == "viewpoint":
			score += 3
		case tags["natural"] == "peak", tags["waterway"] == "waterfall":
			score += 2
		}
	}
	if prefs.Nature {
		switch {
		case tags["boundary"] == "national_park", tags["leisure"] == "nature_reserve":
			score += 3
		case tags["leisure"] == "park", tags["natural"] == "wood":
			score += 1.5
		}
	}
	if prefs.Cultural {
		switch {
		case tags["tourism"] == "museum":
			score += 2.5
		case tags["historic"] != "":
			score += 2
		case tags["tourism"] == "attraction":
			score += 1.5
		}
	}
	if score > 0 && tags.Name() != "" {
		score += 0.5
	}
	return score
}
