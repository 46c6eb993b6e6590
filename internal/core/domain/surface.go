package domain

// Segment is a contiguous chunk of a route produced by the segmenter.
// Coordinates aliases the parent route's slice and must not be modified.
type Segment struct {
	ID           int          `json:"id"`
	StartIndex   int          `json:"start_index"`
	EndIndex     int          `json:"end_index"`
	LengthMeters float64      `json:"length_m"`
	Coordinates  []Coordinate `json:"-"`
}

// UnknownTag is used when no road data was found for a segment.
const UnknownTag = "unknown"

// SurfaceSample is the road classification of one segment.
type SurfaceSample struct {
	SegmentID    int     `json:"segment_id"`
	Surface      string  `json:"surface"`
	Smoothness   string  `json:"smoothness"`
	Highway      string  `json:"highway"`
	TrackType    string  `json:"track_type,omitempty"`
	MTBScale     string  `json:"mtb_scale,omitempty"`
	LengthMeters float64 `json:"length_m"`
}

// VehicleClass is a bicycle type suitability is scored for.
type VehicleClass string

const (
	VehicleRoad     VehicleClass = "road"
	VehicleGravel   VehicleClass = "gravel"
	VehicleMountain VehicleClass = "mountain"
	VehicleHybrid   VehicleClass = "hybrid"
)

// VehicleClasses lists every class in presentation order.
var VehicleClasses = []VehicleClass{VehicleRoad, VehicleGravel, VehicleMountain, VehicleHybrid}

// TagShare is the distance covered by one tag value.
type TagShare struct {
	DistanceMeters float64 `json:"distance_m"`
	Percentage     float64 `json:"percentage"`
}

// SurfaceStatistics aggregates samples across the whole route.
type SurfaceStatistics struct {
	TotalDistanceMeters float64             `json:"total_distance_m"`
	SegmentCount        int                 `json:"segment_count"`
	Surfaces            map[string]TagShare `json:"surfaces"`
	Smoothness          map[string]TagShare `json:"smoothness"`
}

// Warning flags a route property riders should know about.
type Warning struct {
	Code       string  `json:"code"`
	Severity   string  `json:"severity"`
	Message    string  `json:"message"`
	Percentage float64 `json:"percentage"`
}

// VehicleScore is a 0-100 suitability score for one vehicle class.
type VehicleScore struct {
	Vehicle VehicleClass `json:"vehicle"`
	Score   float64      `json:"score"`
}

// Recommendations holds suitability scores and advice derived from them.
type Recommendations struct {
	Scores      []VehicleScore `json:"scores"`
	Recommended []VehicleScore `json:"recommended"`
	TireWidth   string         `json:"tire_width,omitempty"`
}

// SegmentStyle is the rendering hint for one segment.
type SegmentStyle struct {
	SegmentID   int          `json:"segment_id"`
	Surface     string       `json:"surface"`
	Color       string       `json:"color"`
	Coordinates []Coordinate `json:"coordinates"`
}

// SurfaceReport is the output of a surface analysis.
type SurfaceReport struct {
	Samples         []SurfaceSample   `json:"samples"`
	Statistics      SurfaceStatistics `json:"statistics"`
	Warnings        []Warning         `json:"warnings"`
	Recommendations Recommendations   `json:"recommendations"`
	Visualization   []SegmentStyle    `json:"visualization"`
	Degraded        bool              `json:"degraded,omitempty"`
}
