package usecases

import (
	"context"
	"encoding/json"
	"log/slog"
	"math"
	"sort"
	"strings"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
)

// metersPerDegreeApprox converts a search radius into a bounding-box buffer.
const metersPerDegreeApprox = 111111.0

const pointFeatureService = "point-features"

// SearchOptions controls a single POI search.
type SearchOptions struct {
	RadiusMeters float64 `json:"radius_m"`
	MaxResults   int     `json:"max_results"`
}

// POIOptions tunes a POIService. Zero values fall back to defaults.
type POIOptions struct {
	DefaultRadiusMeters float64
	MaxResults          int
	QueryTimeout        time.Duration
	CacheSize           int
	CacheTTL            time.Duration
}

func (o POIOptions) withDefaults() POIOptions {
	if o.DefaultRadiusMeters <= 0 {
		o.DefaultRadiusMeters = 1000
	}
	if o.MaxResults <= 0 {
		o.MaxResults = 100
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 20 * time.Second
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 512
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Hour
	}
	return o
}

// POIService finds categorized points of interest along a route.
type POIService struct {
	features ports.PointFeatureService
	shared   ports.CacheService
	events   ports.EventPublisher
	cache    *expirable.LRU[string, []domain.PointFeature]
	opts     POIOptions
}

// NewPOIService creates a new POIService. shared and events may be nil.
func NewPOIService(
	features ports.PointFeatureService,
	shared ports.CacheService,
	events ports.EventPublisher,
	opts POIOptions,
) *POIService {
	opts = opts.withDefaults()
	return &POIService{
		features: features,
		shared:   shared,
		events:   events,
		cache:    newLRU[[]domain.PointFeature](opts.CacheSize, opts.CacheTTL),
		opts:     opts,
	}
}

// Search queries point features around the route once for all requested
// categories and ranks them by position along the route. A failed query
// yields an empty, degraded result rather than an error.
func (s *POIService) Search(ctx context.Context, route domain.Route, categories []string, opts SearchOptions) (*domain.POISearchResult, error) {
	if err := domain.ValidateCoordinates(route.Coordinates); err != nil {
		return nil, err
	}
	cats, err := ResolveCategories(categories)
	if err != nil {
		return nil, err
	}
	if opts.RadiusMeters < 0 || opts.MaxResults < 0 {
		return nil, domain.InvalidInputf("radius and max results must not be negative")
	}
	if opts.RadiusMeters == 0 {
		opts.RadiusMeters = s.opts.DefaultRadiusMeters
	}
	if opts.MaxResults == 0 {
		opts.MaxResults = s.opts.MaxResults
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanPOISearch)
	bounds := geospatial.BoundingBox(route.Coordinates, opts.RadiusMeters/metersPerDegreeApprox)

	features, err := s.featuresInBounds(ctx, bounds, cats)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			telemetry.EndSpan(span, ctxErr)
			return nil, ctxErr
		}
		slog.Warn("poi query failed, returning empty result", "error", err)
		telemetry.EndSpan(span, err)
		result := BuildPOIResult(route.Coordinates, cats, nil, opts.MaxResults)
		result.Degraded = true
		return result, nil
	}

	result := BuildPOIResult(route.Coordinates, cats, features, opts.MaxResults)
	telemetry.EndSpan(span, nil)

	for cat, pois := range result.CategorizedResults {
		metrics.POIsFound.WithLabelValues(cat).Add(float64(len(pois)))
	}
	s.publish(ctx, cats, result)
	return result, nil
}

func (s *POIService) featuresInBounds(ctx context.Context, b domain.Bounds, cats []domain.POICategory) ([]domain.PointFeature, error) {
	names := make([]string, len(cats))
	for i, c := range cats {
		names[i] = c.Name
	}
	sort.Strings(names)
	key := "poi:features:" + b.Key() + ":" + strings.Join(names, ",")

	if f, ok := s.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("poi", "local").Inc()
		return f, nil
	}
	if s.shared != nil {
		if data, err := s.shared.Get(ctx, key); err == nil {
			var f []domain.PointFeature
			if err := json.Unmarshal(data, &f); err == nil {
				metrics.CacheHits.WithLabelValues("poi", "shared").Inc()
				s.cache.Add(key, f)
				return f, nil
			}
		}
	}
	metrics.CacheMisses.WithLabelValues("poi").Inc()

	qctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
	defer cancel()

	features, err := s.features.FeaturesInBounds(qctx, b, UnionRules(cats))
	if err != nil {
		return nil, &domain.ExternalQueryError{Service: pointFeatureService, Err: err}
	}

	s.cache.Add(key, features)
	if s.shared != nil {
		if data, err := json.Marshal(features); err == nil {
			_ = s.shared.Set(ctx, key, data, int(s.opts.CacheTTL.Seconds()))
		}
	}
	return features, nil
}

func (s *POIService) publish(ctx context.Context, cats []domain.POICategory, r *domain.POISearchResult) {
	if s.events == nil {
		return
	}
	names := make([]string, len(cats))
	counts := make(map[string]int, len(cats))
	for i, c := range cats {
		names[i] = c.Name
		counts[c.Name] = len(r.CategorizedResults[c.Name])
	}
	err := s.events.PublishPOISearched(ctx, &domain.POISearchedEvent{
		Categories: names,
		Counts:     counts,
		Total:      r.Total,
		Degraded:   r.Degraded,
		At:         time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("publish poi event", "error", err)
	}
}

// BuildPOIResult deduplicates, categorizes, positions and ranks features
// against the route. It performs no I/O.
func BuildPOIResult(coords []domain.Coordinate, cats []domain.POICategory, features []domain.PointFeature, maxResults int) *domain.POISearchResult {
	cum := geospatial.CumulativeDistances(coords)
	groups := make(map[string][]domain.POI, len(cats))
	seen := make(map[string]bool, len(features))

	for _, f := range features {
		if seen[f.ID] {
			continue
		}
		seen[f.ID] = true

		cat, ok := firstMatch(cats, f.Tags)
		if !ok {
			continue
		}
		near := geospatial.NearestOnRoute(f.Coordinate, coords, cum)
		groups[cat.Name] = append(groups[cat.Name], domain.POI{
			ID:                    f.ID,
			Category:              cat.Name,
			Name:                  f.Tags.Name(),
			Coordinate:            f.Coordinate,
			Tags:                  f.Tags,
			Details:               ExtractDetails(cat.Name, f.Tags),
			DistanceToRouteMeters: near.DistanceMeters,
			RoutePosition: domain.RoutePosition{
				SegmentIndex:             near.EdgeIndex,
				CumulativeDistanceMeters: near.AlongMeters,
			},
		})
	}

	perCategory := 0
	if len(cats) > 0 {
		perCategory = int(math.Ceil(float64(maxResults) / float64(len(cats))))
	}

	result := &domain.POISearchResult{
		CategorizedResults: make(map[string][]domain.POI, len(cats)),
		Summary:            make(map[string]domain.CategorySummary, len(cats)),
	}
	for _, c := range cats {
		pois := groups[c.Name]
		sort.SliceStable(pois, func(i, j int) bool {
			pi, pj := pois[i].RoutePosition.CumulativeDistanceMeters, pois[j].RoutePosition.CumulativeDistanceMeters
			if pi != pj {
				return pi < pj
			}
			return pois[i].ID < pois[j].ID
		})
		if len(pois) > perCategory {
			pois = pois[:perCategory]
		}
		if pois == nil {
			pois = []domain.POI{}
		}
		result.CategorizedResults[c.Name] = pois
		result.Summary[c.Name] = summarize(pois)
		result.Total += len(pois)
	}
	return result
}

func firstMatch(cats []domain.POICategory, tags domain.Tags) (domain.POICategory, bool) {
	for _, c := range cats {
		if domain.MatchesAny(c.Rules, tags) {
			return c, true
		}
	}
	return domain.POICategory{}, false
}

func summarize(pois []domain.POI) domain.CategorySummary {
	sum := domain.CategorySummary{Count: len(pois)}
	for i := range pois {
		p := &pois[i]
		if sum.Nearest == nil || p.DistanceToRouteMeters < sum.Nearest.DistanceToRouteMeters {
			sum.Nearest = &domain.NearestPOI{
				Name:                  p.Name,
				DistanceToRouteMeters: p.DistanceToRouteMeters,
				RoutePositionKm:       round2(p.RoutePosition.CumulativeDistanceMeters / 1000),
			}
		}
	}
	return sum
}
