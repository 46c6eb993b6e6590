package trackio

import (
	"github.com/tkrajina/gpxgo/gpx"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// ParseGPX extracts the route geometry from a GPX document. Track points
// win over route points, which win over waypoints.
func ParseGPX(data []byte) ([]domain.Coordinate, error) {
	g, err := gpx.ParseBytes(data)
	if err != nil {
		return nil, domain.InvalidInputf("parse gpx: %v", err)
	}

	var coords []domain.Coordinate
	for _, trk := range g.Tracks {
		for _, seg := range trk.Segments {
			for _, p := range seg.Points {
				coords = append(coords, fromGPX(p))
			}
		}
	}
	if len(coords) == 0 {
		for _, rte := range g.Routes {
			for _, p := range rte.Points {
				coords = append(coords, fromGPX(p))
			}
		}
	}
	if len(coords) == 0 {
		for _, p := range g.Waypoints {
			coords = append(coords, fromGPX(p))
		}
	}
	if len(coords) == 0 {
		return nil, domain.InvalidInputf("gpx document has no points")
	}
	return coords, nil
}

func fromGPX(p gpx.GPXPoint) domain.Coordinate {
	c := domain.Coordinate{Lat: p.Latitude, Lng: p.Longitude}
	if p.Elevation.NotNull() {
		e := p.Elevation.Value()
		c.Elevation = &e
	}
	return c
}

func toGPX(c domain.Coordinate) gpx.GPXPoint {
	p := gpx.GPXPoint{Point: gpx.Point{Latitude: c.Lat, Longitude: c.Lng}}
	if c.Elevation != nil {
		p.Elevation.SetValue(*c.Elevation)
	}
	return p
}

// EncodeGPX writes the route as a single-segment GPX 1.1 track, with POIs as waypoints.
func EncodeGPX(name string, route domain.Route, pois []domain.POI) ([]byte, error) {
	seg := gpx.GPXTrackSegment{Points: make([]gpx.GPXPoint, len(route.Coordinates))}
	for i, c := range route.Coordinates {
		seg.Points[i] = toGPX(c)
	}

	g := &gpx.GPX{
		Creator: "ridekit",
		Name:    name,
		Tracks:  []gpx.GPXTrack{{Name: name, Segments: []gpx.GPXTrackSegment{seg}}},
	}
	for _, p := range pois {
		wp := toGPX(p.Coordinate)
		wp.Name = poiName(p)
		wp.Type = p.Category
		g.Waypoints = append(g.Waypoints, wp)
	}
	return g.ToXml(gpx.ToXmlParams{Version: "1.1", Indent: true})
}

func poiName(p domain.POI) string {
	if p.Name != "" {
		return p.Name
	}
	return p.Category + " " + p.ID
}
