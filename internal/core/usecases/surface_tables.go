package usecases

import "github.com/samirrijal/ridekit/internal/core/domain"

// suitability holds 0-100 scores per vehicle class for one surface value.
type suitability struct {
	road, gravel, mountain, hybrid float64
}

func (s suitability) score(v domain.VehicleClass) float64 {
	switch v {
	case domain.VehicleRoad:
		return s.road
	case domain.VehicleGravel:
		return s.gravel
	case domain.VehicleMountain:
		return s.mountain
	default:
		return s.hybrid
	}
}

const unknownSuitability = 50

var surfaceSuitability = map[string]suitability{
	"asphalt":             {100, 90, 70, 95},
	"paved":               {95, 90, 70, 95},
	"concrete":            {95, 85, 65, 90},
	"concrete:plates":     {85, 85, 65, 85},
	"concrete:lanes":      {85, 85, 65, 85},
	"paving_stones":       {75, 85, 70, 85},
	"sett":                {50, 75, 75, 70},
	"cobblestone":         {40, 70, 75, 60},
	"unhewn_cobblestone":  {30, 60, 75, 50},
	"metal":               {70, 75, 70, 75},
	"wood":                {70, 75, 75, 75},
	"compacted":           {45, 95, 85, 80},
	"fine_gravel":         {35, 95, 85, 75},
	"gravel":              {20, 90, 90, 60},
	"pebblestone":         {15, 70, 85, 45},
	"unpaved":             {25, 80, 90, 60},
	"dirt":                {15, 75, 95, 50},
	"earth":               {15, 75, 95, 50},
	"ground":              {20, 75, 95, 55},
	"grass":               {10, 55, 85, 35},
	"grass_paver":         {30, 65, 80, 50},
	"mud":                 {5, 35, 75, 20},
	"sand":                {5, 30, 60, 20},
	"rock":                {5, 35, 80, 20},
	"stepping_stones":     {5, 30, 70, 15},
	"artificial_turf":     {20, 50, 70, 40},
	"woodchips":           {10, 45, 80, 30},
	"concrete:flattened":  {85, 85, 65, 85},
	"paving_stones:lanes": {75, 85, 70, 85},
}

func suitabilityOf(surface string, v domain.VehicleClass) float64 {
	if s, ok := surfaceSuitability[surface]; ok {
		return s.score(v)
	}
	return unknownSuitability
}

const (
	surfaceHazardThreshold    = 5.0
	smoothnessHazardThreshold = 5.0
	unpavedThreshold          = 20.0
	looseSurfaceTireThreshold = 30.0
	recommendThreshold        = 70.0
)

// hazardousSurfaces raise a warning each when they exceed surfaceHazardThreshold.
var hazardousSurfaces = []struct {
	tag, severity, message string
}{
	{"sand", "high", "Sandy sections may require walking"},
	{"mud", "high", "Muddy sections, expect slow progress after rain"},
	{"grass", "medium", "Grass sections increase rolling resistance"},
}

// poorSmoothness values raise a warning each when they exceed smoothnessHazardThreshold.
var poorSmoothness = []struct {
	tag, severity string
}{
	{"bad", "medium"},
	{"very_bad", "medium"},
	{"horrible", "high"},
	{"very_horrible", "high"},
	{"impassable", "high"},
}

var unpavedSurfaces = []string{
	"unpaved", "compacted", "gravel", "fine_gravel", "dirt", "earth", "ground", "grass",
}

var looseSurfaces = []string{"gravel", "dirt"}

const wideTireHint = "Loose gravel and dirt: 35 mm or wider tires recommended"

var surfaceColors = map[string]string{
	"asphalt":            "#2E7D32",
	"paved":              "#2E7D32",
	"concrete":           "#388E3C",
	"concrete:plates":    "#388E3C",
	"paving_stones":      "#689F38",
	"sett":               "#7B1FA2",
	"cobblestone":        "#7B1FA2",
	"unhewn_cobblestone": "#7B1FA2",
	"compacted":          "#AFB42B",
	"fine_gravel":        "#AFB42B",
	"gravel":             "#FBC02D",
	"pebblestone":        "#FBC02D",
	"unpaved":            "#F57C00",
	"dirt":               "#E64A19",
	"earth":              "#E64A19",
	"ground":             "#E64A19",
	"grass":              "#9CCC65",
	"mud":                "#5D4037",
	"sand":               "#D32F2F",
	"rock":               "#616161",
}

const unknownColor = "#9E9E9E"

// SurfaceColor returns the display color for a surface value.
func SurfaceColor(surface string) string {
	if c, ok := surfaceColors[surface]; ok {
		return c
	}
	return unknownColor
}
