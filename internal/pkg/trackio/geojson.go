package trackio

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

func lineString(coords []domain.Coordinate) orb.LineString {
	ls := make(orb.LineString, len(coords))
	for i, c := range coords {
		ls[i] = orb.Point{c.Lng, c.Lat}
	}
	return ls
}

// FeatureCollection renders the route as GeoJSON. With a surface report the
// line is split into one feature per segment carrying its surface and color;
// otherwise a single LineString is emitted. POIs become Point features.
func FeatureCollection(route domain.Route, report *domain.SurfaceReport, pois []domain.POI) *geojson.FeatureCollection {
	fc := geojson.NewFeatureCollection()

	if report != nil && len(report.Visualization) > 0 {
		for _, seg := range report.Visualization {
			f := geojson.NewFeature(lineString(seg.Coordinates))
			f.Properties["kind"] = "segment"
			f.Properties["segment_id"] = seg.SegmentID
			f.Properties["surface"] = seg.Surface
			f.Properties["stroke"] = seg.Color
			fc.Append(f)
		}
	} else if len(route.Coordinates) > 0 {
		f := geojson.NewFeature(lineString(route.Coordinates))
		f.Properties["kind"] = "route"
		if route.DistanceMeters > 0 {
			f.Properties["distance_m"] = route.DistanceMeters
		}
		fc.Append(f)
	}

	for _, p := range pois {
		f := geojson.NewFeature(orb.Point{p.Coordinate.Lng, p.Coordinate.Lat})
		f.ID = p.ID
		f.Properties["kind"] = "poi"
		f.Properties["category"] = p.Category
		f.Properties["name"] = p.Name
		f.Properties["distance_to_route_m"] = p.DistanceToRouteMeters
		f.Properties["route_position_m"] = p.RoutePosition.CumulativeDistanceMeters
		fc.Append(f)
	}
	return fc
}

// ParseGeoJSON takes the first LineString (or the lines of the first
// MultiLineString, joined) from a FeatureCollection.
func ParseGeoJSON(data []byte) ([]domain.Coordinate, error) {
	fc, err := geojson.UnmarshalFeatureCollection(data)
	if err != nil {
		return nil, domain.InvalidInputf("parse geojson: %v", err)
	}
	for _, f := range fc.Features {
		switch g := f.Geometry.(type) {
		case orb.LineString:
			return fromLineString(g), nil
		case orb.MultiLineString:
			var out []domain.Coordinate
			for _, ls := range g {
				out = append(out, fromLineString(ls)...)
			}
			return out, nil
		}
	}
	return nil, domain.InvalidInputf("geojson has no LineString feature")
}

func fromLineString(ls orb.LineString) []domain.Coordinate {
	out := make([]domain.Coordinate, len(ls))
	for i, p := range ls {
		out[i] = domain.Coordinate{Lat: p.Lat(), Lng: p.Lon()}
	}
	return out
}

// POIs flattens a search result in category order.
func POIs(r *domain.POISearchResult, order []string) []domain.POI {
	if r == nil {
		return nil
	}
	var out []domain.POI
	for _, name := range order {
		out = append(out, r.CategorizedResults[name]...)
	}
	return out
}
