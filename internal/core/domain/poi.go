package domain

// RoutePosition locates a POI relative to the route: the nearest route edge
// (coordinate i to i+1) and the along-route distance to the projected point.
type RoutePosition struct {
	SegmentIndex             int     `json:"segment_index"`
	CumulativeDistanceMeters float64 `json:"cumulative_distance_m"`
}

// POI is a point of interest found near a route.
type POI struct {
	ID                    string         `json:"id"`
	Category              string         `json:"category"`
	Name                  string         `json:"name,omitempty"`
	Coordinate            Coordinate     `json:"coordinate"`
	Tags                  Tags           `json:"tags"`
	Details               map[string]any `json:"details,omitempty"`
	DistanceToRouteMeters float64        `json:"distance_to_route_m"`
	RoutePosition         RoutePosition  `json:"route_position"`
}

// POICategory groups the tag rules that identify a kind of POI.
type POICategory struct {
	Name        string    `json:"name"`
	Label       string    `json:"label"`
	Rules       []TagRule `json:"-"`
	RuleStrings []string  `json:"rules"`
}

// NearestPOI is the closest POI of a category in the summary.
type NearestPOI struct {
	Name                  string  `json:"name"`
	DistanceToRouteMeters float64 `json:"distance_to_route_m"`
	RoutePositionKm       float64 `json:"route_position_km"`
}

// CategorySummary condenses one category's results.
type CategorySummary struct {
	Count   int         `json:"count"`
	Nearest *NearestPOI `json:"nearest,omitempty"`
}

// POISearchResult is the output of a POI search.
type POISearchResult struct {
	Total              int                        `json:"total"`
	CategorizedResults map[string][]POI           `json:"categorized_results"`
	Summary            map[string]CategorySummary `json:"summary"`
	Degraded           bool                       `json:"degraded,omitempty"`
}
