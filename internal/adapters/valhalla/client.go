package valhalla

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/twpayne/go-polyline"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
)

const (
	serviceName = "valhalla"
	// elevationInterval is the spacing in meters of the returned elevation samples.
	elevationInterval = 30
)

// shapeCodec decodes Valhalla's polyline6 leg shapes.
var shapeCodec = polyline.Codec{Dim: 2, Scale: 1e6}

// Client implements ports.RoutingService against a Valhalla /route endpoint.
type Client struct {
	baseURL string
	http    *http.Client
}

// New creates a Valhalla client. httpClient may be nil.
func New(baseURL string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

type location struct {
	Lat  float64 `json:"lat"`
	Lon  float64 `json:"lon"`
	Type string  `json:"type"`
}

type routeRequest struct {
	Locations         []location     `json:"locations"`
	Costing           string         `json:"costing"`
	CostingOptions    map[string]any `json:"costing_options,omitempty"`
	Units             string         `json:"units"`
	ElevationInterval int            `json:"elevation_interval"`
	DirectionsType    string         `json:"directions_type"`
}

type leg struct {
	Shape     string    `json:"shape"`
	Elevation []float64 `json:"elevation"`
}

type routeResponse struct {
	Trip struct {
		Legs    []leg `json:"legs"`
		Summary struct {
			Time   float64 `json:"time"`
			Length float64 `json:"length"`
		} `json:"summary"`
	} `json:"trip"`
}

type errorResponse struct {
	ErrorCode int    `json:"error_code"`
	Error     string `json:"error"`
}

// Realize routes through the waypoints in order and returns the joined geometry.
func (c *Client) Realize(ctx context.Context, waypoints []domain.Coordinate, profile domain.Profile) (domain.Route, error) {
	if len(waypoints) < 2 {
		return domain.Route{}, domain.InvalidInputf("routing needs at least 2 waypoints, got %d", len(waypoints))
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
	body, err := json.Marshal(buildRequest(waypoints, profile))
	if err != nil {
		return domain.Route{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/route", bytes.NewReader(body))
	if err != nil {
		return domain.Route{}, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return domain.Route{}, fmt.Errorf("valhalla request: %w", err)
	}
	defer res.Body.Close()

	data, err := io.ReadAll(res.Body)
	if err != nil {
		return domain.Route{}, fmt.Errorf("read valhalla response: %w", err)
	}
	if res.StatusCode != http.StatusOK {
		var e errorResponse
		if json.Unmarshal(data, &e) == nil && e.Error != "" {
			return domain.Route{}, fmt.Errorf("valhalla %d (code %d): %s", res.StatusCode, e.ErrorCode, e.Error)
		}
		return domain.Route{}, fmt.Errorf("valhalla returned HTTP %d", res.StatusCode)
	}

	var rr routeResponse
	if err := json.Unmarshal(data, &rr); err != nil {
		return domain.Route{}, fmt.Errorf("decode valhalla response: %w", err)
	}
	return toRoute(rr)
}

func buildRequest(waypoints []domain.Coordinate, profile domain.Profile) routeRequest {
	locs := make([]location, len(waypoints))
	for i, w := range waypoints {
		t := "through"
		if i == 0 || i == len(waypoints)-1 {
			t = "break"
		}
		locs[i] = location{Lat: w.Lat, Lon: w.Lng, Type: t}
	}

	req := routeRequest{
		Locations:         locs,
		Units:             "kilometers",
		ElevationInterval: elevationInterval,
		DirectionsType:    "none",
	}
	switch profile {
	case domain.ProfileMotorcycle:
		req.Costing = "motorcycle"
		req.CostingOptions = map[string]any{"motorcycle": map[string]any{"use_highways": 0.2, "use_trails": 0.3}}
	default:
		req.Costing = "bicycle"
		req.CostingOptions = map[string]any{"bicycle": map[string]any{"bicycle_type": "Hybrid"}}
	}
	return req
}

func toRoute(rr routeResponse) (domain.Route, error) {
	if len(rr.Trip.Legs) == 0 {
		return domain.Route{}, errors.New("valhalla returned no legs")
	}

	var coords []domain.Coordinate
	var elevation []float64
	for i, l := range rr.Trip.Legs {
		pts, _, err := shapeCodec.DecodeCoords([]byte(l.Shape))
		if err != nil {
			return domain.Route{}, fmt.Errorf("decode leg %d shape: %w", i, err)
		}
		// Consecutive legs share their junction point.
		if i > 0 && len(pts) > 0 {
			pts = pts[1:]
		}
		for _, p := range pts {
			coords = append(coords, domain.Coordinate{Lat: p[0], Lng: p[1]})
		}
		elevation = append(elevation, l.Elevation...)
	}

	ascent, descent := Climb(elevation)
	return domain.Route{
		Coordinates:     coords,
		DistanceMeters:  rr.Trip.Summary.Length * 1000,
		DurationSeconds: rr.Trip.Summary.Time,
		AscentMeters:    ascent,
		DescentMeters:   descent,
	}, nil
}

// Climb sums the positive and negative elevation changes of a profile.
func Climb(elevation []float64) (ascent, descent float64) {
	for i := 1; i < len(elevation); i++ {
		d := elevation[i] - elevation[i-1]
		if d > 0 {
			ascent += d
		} else {
			descent -= d
		}
	}
	return ascent, descent
}
