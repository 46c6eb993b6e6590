package domain

import "time"

// SurfaceAnalyzedEvent is published after a surface analysis completes.
type SurfaceAnalyzedEvent struct {
	TotalDistanceMeters float64        `json:"total_distance_m"`
	SegmentCount        int            `json:"segment_count"`
	Warnings            int            `json:"warnings"`
	Recommended         []VehicleScore `json:"recommended"`
	Degraded            bool           `json:"degraded"`
	At                  time.Time      `json:"at"`
}

// POISearchedEvent is published after a POI search completes.
type POISearchedEvent struct {
	Categories []string       `json:"categories"`
	Counts     map[string]int `json:"counts"`
	Total      int            `json:"total"`
	Degraded   bool           `json:"degraded"`
	At         time.Time      `json:"at"`
}

// RoundTripAttemptEvent reports one iteration of the synthesis loop.
type RoundTripAttemptEvent struct {
	RoundTripID          string       `json:"round_trip_id"`
	Attempt              int          `json:"attempt"`
	Waypoints            []Coordinate `json:"waypoints"`
	TargetDistanceMeters float64      `json:"target_distance_m"`
	ActualDistanceMeters float64      `json:"actual_distance_m"`
	DistanceErrorRatio   float64      `json:"distance_error_ratio"`
	Score                float64      `json:"score"`
	Error                string       `json:"error,omitempty"`
	At                   time.Time    `json:"at"`
}

// RoundTripOutcomeEvent reports the end of a synthesis run.
type RoundTripOutcomeEvent struct {
	RoundTripID string             `json:"round_trip_id"`
	Status      string             `json:"status"` // "completed" | "failed"
	Metadata    *RoundTripMetadata `json:"metadata,omitempty"`
	Error       string             `json:"error,omitempty"`
	At          time.Time          `json:"at"`
}
