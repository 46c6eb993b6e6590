package geospatial

import (
	"math"

	"github.com/samirrijal/ridekit/internal/core/domain"
)

// EarthRadiusMeters is the mean Earth radius used by every distance in the module.
const EarthRadiusMeters = 6371000.0

// metersPerDegree approximates one degree of latitude.
const metersPerDegree = 111320.0

// Distance calculates the great-circle (haversine) distance in meters between two points.
func Distance(a, b domain.Coordinate) float64 {
	return Haversine(a.Lat, a.Lng, b.Lat, b.Lng)
}

// Haversine calculates the great-circle distance in meters between two points.
func Haversine(lat1, lon1, lat2, lon2 float64) float64 {
	dLat := toRad(lat2 - lat1)
	dLon := toRad(lon2 - lon1)

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(toRad(lat1))*math.Cos(toRad(lat2))*
			math.Sin(dLon/2)*math.Sin(dLon/2)

	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return EarthRadiusMeters * c
}

// DestinationPoint returns the point reached by travelling distanceMeters from
// origin along the initial bearing (radians clockwise from north).
func DestinationPoint(origin domain.Coordinate, bearingRad, distanceMeters float64) domain.Coordinate {
	delta := distanceMeters / EarthRadiusMeters
	lat1 := toRad(origin.Lat)
	lon1 := toRad(origin.Lng)

	lat2 := math.Asin(math.Sin(lat1)*math.Cos(delta) +
		math.Cos(lat1)*math.Sin(delta)*math.Cos(bearingRad))
	lon2 := lon1 + math.Atan2(
		math.Sin(bearingRad)*math.Sin(delta)*math.Cos(lat1),
		math.Cos(delta)-math.Sin(lat1)*math.Sin(lat2),
	)

	return domain.Coordinate{Lat: toDeg(lat2), Lng: normalizeLng(toDeg(lon2))}
}

// Bearing returns the initial bearing in radians [0, 2π) from a to b.
func Bearing(a, b domain.Coordinate) float64 {
	lat1, lat2 := toRad(a.Lat), toRad(b.Lat)
	dLon := toRad(b.Lng - a.Lng)

	y := math.Sin(dLon) * math.Cos(lat2)
	x := math.Cos(lat1)*math.Sin(lat2) - math.Sin(lat1)*math.Cos(lat2)*math.Cos(dLon)
	return NormalizeBearing(math.Atan2(y, x))
}

// NormalizeBearing maps any angle onto [0, 2π).
func NormalizeBearing(rad float64) float64 {
	rad = math.Mod(rad, 2*math.Pi)
	if rad < 0 {
		rad += 2 * math.Pi
	}
	return rad
}

// BoundsAround returns a bounding box around a point with the given radius in meters.
func BoundsAround(center domain.Coordinate, radiusMeters float64) domain.Bounds {
	latDelta := radiusMeters / metersPerDegree
	lonDelta := radiusMeters / (metersPerDegree * math.Cos(toRad(center.Lat)))

	return domain.Bounds{
		MinLat: center.Lat - latDelta,
		MinLng: center.Lng - lonDelta,
		MaxLat: center.Lat + latDelta,
		MaxLng: center.Lng + lonDelta,
	}
}

func normalizeLng(lng float64) float64 {
	lng = math.Mod(lng+540, 360) - 180
	if lng == 180 {
		return -180
	}
	return lng
}

func toRad(deg float64) float64 {
	return deg * math.Pi / 180
}

func toDeg(rad float64) float64 {
	return rad * 180 / math.Pi
}
