package http

import (
	"encoding/json"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

// RouteInput carries a route in one of the accepted encodings.
type RouteInput struct {
	Route    []domain.Coordinate `json:"route,omitempty"`
	Polyline string              `json:"polyline,omitempty"`
	GPX      string              `json:"gpx,omitempty"`
	GeoJSON  json.RawMessage     `json:"geojson,omitempty"`
}

// ToRoute decodes whichever encoding is present. Exactly one must be set.
func (in RouteInput) ToRoute() (domain.Route, error) {
	set := 0
	for _, ok := range []bool{len(in.Route) > 0, in.Polyline != "", in.GPX != "", len(in.GeoJSON) > 0} {
		if ok {
			set++
		}
	}
	switch {
	case set == 0:
		return domain.Route{}, domain.InvalidInputf("one of route, polyline, gpx or geojson is required")
	case set > 1:
		return domain.Route{}, domain.InvalidInputf("only one of route, polyline, gpx or geojson may be given")
	}

	switch {
	case in.Polyline != "":
		return trackio.Decode(trackio.FormatPolyline, []byte(in.Polyline))
	case in.GPX != "":
		return trackio.Decode(trackio.FormatGPX, []byte(in.GPX))
	case len(in.GeoJSON) > 0:
		return trackio.Decode(trackio.FormatGeoJSON, in.GeoJSON)
	}
	return domain.NewRoute(in.Route)
}
