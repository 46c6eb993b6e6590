package googlemaps

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	maps "googlemaps.github.io/maps"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
)

const (
	serviceName = "googlemaps"
	// maxWaypoints is the Directions API limit on intermediate waypoints.
	maxWaypoints = 25
)

// Client implements ports.RoutingService with the Google Directions API.
type Client struct {
	maps *maps.Client
}

// New creates a Directions client. Extra options (e.g. maps.WithBaseURL) are passed through.
func New(apiKey string, opts ...maps.ClientOption) (*Client, error) {
	c, err := maps.NewClient(append([]maps.ClientOption{maps.WithAPIKey(apiKey)}, opts...)...)
	if err != nil {
		return nil, fmt.Errorf("maps.NewClient: %w", err)
	}
	return &Client{maps: c}, nil
}

// Realize asks for a route from the first to the last waypoint through the
// intermediate ones, in order.
func (c *Client) Realize(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	if len(waypoints) < 2 {
		return domain.Route{}, domain.InvalidInputf("routing needs at least 2 waypoints, got %d", len(waypoints))
	}
	if len(waypoints)-2 > maxWaypoints {
		return domain.Route{}, domain.InvalidInputf("at most %d intermediate waypoints, got %d", maxWaypoints, len(waypoints)-2)
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanRoutingRealize,
		attribute.String("provider", serviceName), attribute.Int("waypoints", len(waypoints)))
	start := time.Now()

	route, err := c.realize(ctx, waypoints, profile)
	metrics.ObserveExternal(serviceName, start, err)
	telemetry.EndSpan(span, err)
	return route, err
}

func (c *Client) realize(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	req := &maps.DirectionsRequest{
		Origin:      latLng(waypoints[0]),
		Destination: latLng(waypoints[len(waypoints)-1]),
		Mode:        maps.TravelModeBicycling,
	}
	for _, w := range waypoints[1 : len(waypoints)-1] {
		req.Waypoints = append(req.Waypoints, "via:"+latLng(w))
	}
	if profile == domain.ProfileMotorcycle {
		req.Mode = maps.TravelModeDriving
		req.Avoid = []maps.Avoid{maps.AvoidHighways}
	}

	routes, _, err := c.maps.Directions(ctx, req)
	if err != nil {
		return domain.Route{}, fmt.Errorf("directions: %w", err)
	}
	if len(routes) == 0 {
		return domain.Route{}, errors.New("directions returned no routes")
	}
	return toRoute(routes[0])
}

func toRoute(r maps.Route) (domain.Route, error) {
	pts, err := r.OverviewPolyline.Decode()
	if err != nil {
		return domain.Route{}, fmt.Errorf("decode overview polyline: %w", err)
	}
	coords := make([]domain.Coordinate, len(pts))
	for i, p := range pts {
		coords[i] = domain.Coordinate{Lat: p.Lat, Lng: p.Lng}
	}

	out := domain.Route{Coordinates: coords}
	for _, leg := range r.Legs {
		if leg == nil {
			continue
		}
		out.DistanceMeters += float64(leg.Distance.Meters)
		out.DurationSeconds += leg.Duration.Seconds()
	}
	return out, nil
}

func latLng(c domain.Coordinate) string {
	return fmt.Sprintf("%.6f,%.6f", c.Lat, c.Lng)
}
