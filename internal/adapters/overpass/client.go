package overpass

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/paulmach/osm"
	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/time/rate"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
)

const serviceName = "overpass"

// Options configures a Client.
type Options struct {
	URL        string
	Timeout    time.Duration
	UserAgent  string
	RPS        float64
	Burst      int
	HTTPClient *http.Client
}

// Client implements ports.RoadAttributeService and ports.PointFeatureService
// against an Overpass API interpreter endpoint.
type Client struct {
	url       string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates an Overpass client. A zero RPS disables client-side rate limiting.
func New(opts Options) *Client {
	if opts.Timeout <= 0 {
		opts.Timeout = 25 * time.Second
	}
	if opts.UserAgent == "" {
		opts.UserAgent = "ridekit/1.0"
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: opts.Timeout + 5*time.Second}
	}
	limit := rate.Inf
	if opts.RPS > 0 {
		limit = rate.Limit(opts.RPS)
	}
	if opts.Burst <= 0 {
		opts.Burst = 1
	}
	return &Client{
		url:       opts.URL,
		userAgent: opts.UserAgent,
		timeout:   opts.Timeout,
		http:      opts.HTTPClient,
		limiter:   rate.NewLimiter(limit, opts.Burst),
	}
}

// WaysInBounds returns every highway way intersecting b with its tags.
func (c *Client) WaysInBounds(ctx context.Context, b domain.Bounds) ([]domain.WayFeature, error) {
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanOverpassWays, attribute.String("bbox", b.Key()))
	start := time.Now()

	resp, err := c.query(ctx, WaysQuery(b, c.timeoutSeconds()))
	metrics.ObserveExternal(serviceName, start, err)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	ways := make([]domain.WayFeature, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		if e.Type != "way" {
			continue
		}
		ways = append(ways, domain.WayFeature{ID: e.featureID(), Tags: e.Tags})
	}
	return ways, nil
}

// FeaturesInBounds returns nodes and way centers inside b matching any rule.
func (c *Client) FeaturesInBounds(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanOverpassFeatures,
		attribute.String("bbox", b.Key()), attribute.Int("rules", len(rules)))
	start := time.Now()

	resp, err := c.query(ctx, FeaturesQuery(b, rules, c.timeoutSeconds()))
	metrics.ObserveExternal(serviceName, start, err)
	telemetry.EndSpan(span, err)
	if err != nil {
		return nil, err
	}

	out := make([]domain.PointFeature, 0, len(resp.Elements))
	for _, e := range resp.Elements {
		coord, ok := e.coordinate()
		if !ok {
			continue
		}
		out = append(out, domain.PointFeature{ID: e.featureID(), Coordinate: coord, Tags: e.Tags})
	}
	return out, nil
}

func (c *Client) timeoutSeconds() int {
	return int(c.timeout.Seconds())
}

func (c *Client) query(ctx context.Context, q string) (*response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	form := url.Values{"data": {q}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Accept", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("overpass request: %w", err)
	}
	defer res.Body.Close()

	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(res.Body, 512))
		return nil, &StatusError{Code: res.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	var out response
	if err := json.NewDecoder(res.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode overpass response: %w", err)
	}
	if out.Remark != "" && strings.Contains(out.Remark, "runtime error") {
		return nil, fmt.Errorf("overpass: %s", out.Remark)
	}
	return &out, nil
}

// StatusError is a non-200 reply from the interpreter (429 and 504 are the usual ones).
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("overpass returned HTTP %d", e.Code)
	}
	return fmt.Sprintf("overpass returned HTTP %d: %s", e.Code, e.Body)
}

type response struct {
	Remark   string    `json:"remark"`
	Elements []element `json:"elements"`
}

type element struct {
	Type   string            `json:"type"`
	ID     int64             `json:"id"`
	Lat    *float64          `json:"lat"`
	Lon    *float64          `json:"lon"`
	Center *latLon           `json:"center"`
	Tags   map[string]string `json:"tags"`
}

type latLon struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (e element) featureID() string {
	switch e.Type {
	case "node":
		return osm.NodeID(e.ID).FeatureID().String()
	case "way":
		return osm.WayID(e.ID).FeatureID().String()
	case "relation":
		return osm.RelationID(e.ID).FeatureID().String()
	}
	return fmt.Sprintf("%s/%d", e.Type, e.ID)
}

func (e element) coordinate() (domain.Coordinate, bool) {
	switch {
	case e.Lat != nil && e.Lon != nil:
		return domain.Coordinate{Lat: *e.Lat, Lng: *e.Lon}, true
	case e.Center != nil:
		return domain.Coordinate{Lat: e.Center.Lat, Lng: e.Center.Lon}, true
	}
	return domain.Coordinate{}, false
}
