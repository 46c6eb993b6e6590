package domain

import (
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Coordinate represents a geographic coordinate (WGS 84) with an optional elevation in meters.
type Coordinate struct {
	Lat       float64  `json:"lat"`
	Lng       float64  `json:"lng"`
	Elevation *float64 `json:"elevation,omitempty"`
}

// IsValid reports whether the coordinate lies inside the WGS 84 range.
func (c Coordinate) IsValid() bool {
	return !math.IsNaN(c.Lat) && !math.IsNaN(c.Lng) &&
		c.Lat >= -90 && c.Lat <= 90 && c.Lng >= -180 && c.Lng <= 180
}

// Route is an ordered sequence of coordinates. The metric fields are filled in
// by the routing engine when the route was realized from waypoints.
type Route struct {
	Coordinates     []Coordinate `json:"coordinates"`
	DistanceMeters  float64      `json:"distance_m"`
	DurationSeconds float64      `json:"duration_s,omitempty"`
	AscentMeters    float64      `json:"ascent_m,omitempty"`
	DescentMeters   float64      `json:"descent_m,omitempty"`
}

// NewRoute validates coords and returns a route that owns a copy of them.
func NewRoute(coords []Coordinate) (Route, error) {
	if err := ValidateCoordinates(coords); err != nil {
		return Route{}, err
	}
	cp := make([]Coordinate, len(coords))
	copy(cp, coords)
	return Route{Coordinates: cp}, nil
}

// ValidateCoordinates fails with ErrInvalidInput for fewer than two points or
// out-of-range values.
func ValidateCoordinates(coords []Coordinate) error {
	if len(coords) < 2 {
		return InvalidInputf("route needs at least 2 coordinates, got %d", len(coords))
	}
	for i, c := range coords {
		if !c.IsValid() {
			return InvalidInputf("coordinate %d out of range: %.6f,%.6f", i, c.Lat, c.Lng)
		}
	}
	return nil
}

// Start returns the first coordinate of the route.
func (r Route) Start() Coordinate { return r.Coordinates[0] }

// End returns the last coordinate of the route.
func (r Route) End() Coordinate { return r.Coordinates[len(r.Coordinates)-1] }

// Bounds represents a geographic bounding box.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Expand grows the box by deg degrees on every side.
func (b Bounds) Expand(deg float64) Bounds {
	return Bounds{
		MinLat: b.MinLat - deg,
		MinLng: b.MinLng - deg,
		MaxLat: b.MaxLat + deg,
		MaxLng: b.MaxLng + deg,
	}
}

// Contains reports whether c lies inside the box (edges included).
func (b Bounds) Contains(c Coordinate) bool {
	return c.Lat >= b.MinLat && c.Lat <= b.MaxLat && c.Lng >= b.MinLng && c.Lng <= b.MaxLng
}

// Center returns the midpoint of the box.
func (b Bounds) Center() Coordinate {
	return Coordinate{Lat: (b.MinLat + b.MaxLat) / 2, Lng: (b.MinLng + b.MaxLng) / 2}
}

// Key is a stable string form used for cache keys (6 decimals, ~0.1 m).
func (b Bounds) Key() string {
	return fmt.Sprintf("%.6f,%.6f,%.6f,%.6f", b.MinLat, b.MinLng, b.MaxLat, b.MaxLng)
}

// ParseBounds reads "minLat,minLng,maxLat,maxLng".
func ParseBounds(s string) (Bounds, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return Bounds{}, InvalidInputf("bounds must be minLat,minLng,maxLat,maxLng")
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return Bounds{}, InvalidInputf("bounds value %q is not a number", p)
		}
		v[i] = f
	}
	b := Bounds{MinLat: v[0], MinLng: v[1], MaxLat: v[2], MaxLng: v[3]}
	if !(Coordinate{Lat: b.MinLat, Lng: b.MinLng}).IsValid() || !(Coordinate{Lat: b.MaxLat, Lng: b.MaxLng}).IsValid() {
		return Bounds{}, InvalidInputf("bounds out of range")
	}
	if b.MinLat >= b.MaxLat || b.MinLng >= b.MaxLng {
		return Bounds{}, InvalidInputf("bounds minimum must be below maximum")
	}
	return b, nil
}

// Tiles splits the box into a grid of cells at most step degrees wide.
// Edge cells are clipped to the box.
func (b Bounds) Tiles(step float64) []Bounds {
	if step <= 0 {
		return []Bounds{b}
	}
	rows := int(math.Ceil((b.MaxLat-b.MinLat)/step - 1e-9))
	cols := int(math.Ceil((b.MaxLng-b.MinLng)/step - 1e-9))
	tiles := make([]Bounds, 0, rows*cols)
	for r := 0; r < rows; r++ {
		lat := b.MinLat + float64(r)*step
		for c := 0; c < cols; c++ {
			lng := b.MinLng + float64(c)*step
			tiles = append(tiles, Bounds{
				MinLat: lat,
				MinLng: lng,
				MaxLat: math.Min(lat+step, b.MaxLat),
				MaxLng: math.Min(lng+step, b.MaxLng),
			})
		}
	}
	return tiles
}
