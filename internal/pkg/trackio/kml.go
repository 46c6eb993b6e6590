package trackio

import (
	"bytes"

	"github.com/twpayne/go-kml"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

func kmlCoord(c domain.Coordinate) kml.Coordinate {
	k := kml.Coordinate{Lon: c.Lng, Lat: c.Lat}
	if c.Elevation != nil {
		k.Alt = *c.Elevation
	}
	return k
}

// EncodeKML writes the route as a tessellated LineString placemark, with one
// point placemark per POI.
func EncodeKML(name string, route domain.Route, pois []domain.POI) ([]byte, error) {
	line := make([]kml.Coordinate, len(route.Coordinates))
	for i, c := range route.Coordinates {
		line[i] = kmlCoord(c)
	}

	children := []kml.Element{
		kml.Name(name),
		kml.Placemark(
			kml.Name(name),
			kml.LineString(
				kml.Tessellate(true),
				kml.Coordinates(line...),
			),
		),
	}
	for _, p := range pois {
		children = append(children, kml.Placemark(
			kml.Name(poiName(p)),
			kml.Description(p.Category),
			kml.Point(kml.Coordinates(kmlCoord(p.Coordinate))),
		))
	}

	var buf bytes.Buffer
	if err := kml.KML(kml.Document(children...)).WriteIndent(&buf, "", "  "); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
