package domain

import "math"

// Shape selects the waypoint pattern of a round trip.
type Shape string

const (
	ShapeLoop     Shape = "loop"
	ShapeFigure8  Shape = "figure8"
	ShapeTriangle Shape = "triangle"
	ShapeRandom   Shape = "random"
)

// Valid reports whether s is a known shape.
func (s Shape) Valid() bool {
	switch s {
	case ShapeLoop, ShapeFigure8, ShapeTriangle, ShapeRandom:
		return true
	}
	return false
}

// Direction is the traversal sense of a round trip.
type Direction string

const (
	DirectionAny              Direction = "any"
	DirectionClockwise        Direction = "clockwise"
	DirectionCounterclockwise Direction = "counterclockwise"
)

// Valid reports whether d is a known direction.
func (d Direction) Valid() bool {
	switch d {
	case DirectionAny, DirectionClockwise, DirectionCounterclockwise:
		return true
	}
	return false
}

// ElevationPreference biases scoring toward flat or hilly routes.
type ElevationPreference string

const (
	ElevationAny   ElevationPreference = "any"
	ElevationFlat  ElevationPreference = "flat"
	ElevationHilly ElevationPreference = "hilly"
)

// Profile is the vehicle the routing engine should route for.
type Profile string

const (
	ProfileBicycle    Profile = "bicycle"
	ProfileMotorcycle Profile = "motorcycle"
)

// Preferences tune waypoint generation and scoring.
type Preferences struct {
	Scenic        bool                `json:"scenic,omitempty"`
	Nature        bool                `json:"nature,omitempty"`
	Cultural      bool                `json:"cultural,omitempty"`
	Elevation     ElevationPreference `json:"elevation,omitempty"`
	Profile       Profile             `json:"profile,omitempty"`
	IncludePOIs   bool                `json:"include_pois,omitempty"`
	POICategories []string            `json:"poi_categories,omitempty"`
}

// WantsInterestPoints reports whether random waypoints should be drawn toward interesting features.
func (p Preferences) WantsInterestPoints() bool {
	return p.Scenic || p.Nature || p.Cultural
}

// RoundTripRequest asks for a closed route starting and ending at Start.
type RoundTripRequest struct {
	Start                *Coordinate `json:"start"`
	TargetDistanceMeters float64     `json:"target_distance_m"`
	Shape                Shape       `json:"shape"`
	Direction            Direction   `json:"direction"`
	Preferences          Preferences `json:"preferences"`
}

// Normalize fills defaults for empty enum fields.
func (r *RoundTripRequest) Normalize() {
	if r.Shape == "" {
		r.Shape = ShapeLoop
	}
	if r.Direction == "" {
		r.Direction = DirectionAny
	}
	if r.Preferences.Elevation == "" {
		r.Preferences.Elevation = ElevationAny
	}
	if r.Preferences.Profile == "" {
		r.Preferences.Profile = ProfileBicycle
	}
}

// Validate fails with ErrInvalidInput for unusable requests.
func (r RoundTripRequest) Validate() error {
	if r.Start == nil {
		return InvalidInputf("start point is required")
	}
	if !r.Start.IsValid() {
		return InvalidInputf("start point out of range: %.6f,%.6f", r.Start.Lat, r.Start.Lng)
	}
	if !(r.TargetDistanceMeters > 0) || math.IsInf(r.TargetDistanceMeters, 1) {
		return InvalidInputf("target distance must be positive and finite, got %v", r.TargetDistanceMeters)
	}
	if !r.Shape.Valid() {
		return InvalidInputf("unknown shape %q", r.Shape)
	}
	if !r.Direction.Valid() {
		return InvalidInputf("unknown direction %q", r.Direction)
	}
	switch r.Preferences.Elevation {
	case ElevationAny, ElevationFlat, ElevationHilly:
	default:
		return InvalidInputf("unknown elevation preference %q", r.Preferences.Elevation)
	}
	switch r.Preferences.Profile {
	case ProfileBicycle, ProfileMotorcycle:
	default:
		return InvalidInputf("unknown profile %q", r.Preferences.Profile)
	}
	return nil
}

// ScoredRoute is one realized attempt inside the synthesis loop.
type ScoredRoute struct {
	Route              Route
	Waypoints          []Coordinate
	Score              float64
	DistanceErrorRatio float64
}

// RoundTripMetadata describes how an accepted round trip was produced.
type RoundTripMetadata struct {
	Shape                Shape        `json:"shape"`
	Direction            Direction    `json:"direction"`
	TargetDistanceMeters float64      `json:"target_distance_m"`
	ActualDistanceMeters float64      `json:"actual_distance_m"`
	DistanceErrorRatio   float64      `json:"distance_error_ratio"`
	Score                float64      `json:"score"`
	Attempts             int          `json:"attempts"`
	Waypoints            []Coordinate `json:"waypoints"`
}

// Instruction is a turn-by-turn placeholder attached to a waypoint.
type Instruction struct {
	Index          int        `json:"index"`
	Type           string     `json:"type"`
	Text           string     `json:"text"`
	Coordinate     Coordinate `json:"coordinate"`
	DistanceMeters float64    `json:"distance_m"`
}

// RoundTripResult is the accepted round trip handed to the display collaborator.
type RoundTripResult struct {
	ID               string            `json:"id"`
	Route            Route             `json:"route"`
	Metadata         RoundTripMetadata `json:"metadata"`
	Instructions     []Instruction     `json:"instructions"`
	PointsOfInterest *POISearchResult  `json:"points_of_interest,omitempty"`
}
