// Package trackio converts routes between ridekit's model and the common
// track exchange formats.
package trackio

import (
	"strings"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// Format is a track exchange format.
type Format string

const (
	FormatGPX      Format = "gpx"
	FormatKML      Format = "kml"
	FormatGeoJSON  Format = "geojson"
	FormatPolyline Format = "polyline"
)

// ParseFormat accepts a format name or file extension, case-insensitively.
func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.TrimPrefix(strings.ToLower(s), ".")); f {
	case FormatGPX, FormatKML, FormatGeoJSON, FormatPolyline:
		return f, nil
	case "json":
		return FormatGeoJSON, nil
	}
	return "", domain.InvalidInputf("unknown track format %q", s)
}

// ContentType is the MIME type of f.
func (f Format) ContentType() string {
	switch f {
	case FormatGPX:
		return "application/gpx+xml"
	case FormatKML:
		return "application/vnd.google-earth.kml+xml"
	case FormatGeoJSON:
		return "application/geo+json"
	default:
		return "text/plain; charset=utf-8"
	}
}

// Export is everything an exported track can carry.
type Export struct {
	Name    string
	Route   domain.Route
	Surface *domain.SurfaceReport
	POIs    []domain.POI
}

// Encode renders e in format f.
func Encode(f Format, e Export) ([]byte, error) {
	if e.Name == "" {
		e.Name = "ridekit route"
	}
	switch f {
	case FormatGPX:
		return EncodeGPX(e.Name, e.Route, e.POIs)
	case FormatKML:
		return EncodeKML(e.Name, e.Route, e.POIs)
	case FormatGeoJSON:
		return FeatureCollection(e.Route, e.Surface, e.POIs).MarshalJSON()
	case FormatPolyline:
		return []byte(EncodePolyline(e.Route.Coordinates)), nil
	}
	return nil, domain.InvalidInputf("unknown track format %q", f)
}

// Decode reads route coordinates from data in format f and validates them.
func Decode(f Format, data []byte) (domain.Route, error) {
	var (
		coords []domain.Coordinate
		err    error
	)
	switch f {
	case FormatGPX:
		coords, err = ParseGPX(data)
	case FormatGeoJSON:
		coords, err = ParseGeoJSON(data)
	case FormatPolyline:
		coords, err = DecodePolyline(strings.TrimSpace(string(data)))
	default:
		return domain.Route{}, domain.InvalidInputf("cannot read %s tracks", f)
	}
	if err != nil {
		return domain.Route{}, err
	}
	return domain.NewRoute(coords)
}
