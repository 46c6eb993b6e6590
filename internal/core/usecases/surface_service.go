package usecases

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"math"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
	"github.com/samirrijal/ridekit/internal/pkg/throttle"
)

// SurfaceOptions tunes a SurfaceService. Zero values fall back to defaults.
type SurfaceOptions struct {
	SegmentLengthMeters float64
	BBoxBufferDegrees   float64
	BatchSize           int
	BatchInterval       time.Duration
	QueryTimeout        time.Duration
	CacheSize           int
	CacheTTL            time.Duration
}

func (o SurfaceOptions) withDefaults() SurfaceOptions {
	if o.SegmentLengthMeters <= 0 {
		o.SegmentLengthMeters = geospatial.DefaultSegmentLength
	}
	if o.BBoxBufferDegrees <= 0 {
		o.BBoxBufferDegrees = 0.0001
	}
	if o.BatchSize <= 0 {
		o.BatchSize = 10
	}
	if o.QueryTimeout <= 0 {
		o.QueryTimeout = 10 * time.Second
	}
	if o.CacheSize <= 0 {
		o.CacheSize = 4096
	}
	if o.CacheTTL <= 0 {
		o.CacheTTL = time.Hour
	}
	return o
}

const roadAttributeService = "road-attributes"

// SurfaceService classifies the road surface along a route.
type SurfaceService struct {
	roads    ports.RoadAttributeService
	shared   ports.CacheService
	events   ports.EventPublisher
	cache    *expirable.LRU[string, []domain.WayFeature]
	throttle *throttle.Throttle
	opts     SurfaceOptions
}

// NewSurfaceService creates a new SurfaceService. shared and events may be nil.
func NewSurfaceService(
	roads ports.RoadAttributeService,
	shared ports.CacheService,
	events ports.EventPublisher,
	opts SurfaceOptions,
) *SurfaceService {
	opts = opts.withDefaults()
	return &SurfaceService{
		roads:    roads,
		shared:   shared,
		events:   events,
		cache:    newLRU[[]domain.WayFeature](opts.CacheSize, opts.CacheTTL),
		throttle: throttle.New(opts.BatchSize, opts.BatchInterval),
		opts:     opts,
	}
}

type segmentLookup struct {
	ways   []domain.WayFeature
	failed bool
}

// Analyze segments the route, classifies every segment and aggregates the result.
func (s *SurfaceService) Analyze(ctx context.Context, route domain.Route) (*domain.SurfaceReport, error) {
	if err := domain.ValidateCoordinates(route.Coordinates); err != nil {
		return nil, err
	}

	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanSurfaceAnalyze)
	segments := geospatial.Segment(route.Coordinates, s.opts.SegmentLengthMeters)
	lookups := make([]segmentLookup, len(segments))

	var g errgroup.Group
	for i := range segments {
		g.Go(func() error {
			b := geospatial.BoundingBox(segments[i].Coordinates, s.opts.BBoxBufferDegrees)
			ways, err := s.waysInBounds(ctx, b)
			if err != nil {
				slog.Debug("surface query failed", "segment", i, "error", err)
				lookups[i].failed = true
				return nil
			}
			lookups[i].ways = ways
			return nil
		})
	}
	_ = g.Wait()

	if err := ctx.Err(); err != nil {
		telemetry.EndSpan(span, err)
		return nil, err
	}

	failures := 0
	for _, l := range lookups {
		if l.failed {
			failures++
		}
	}
	if failures == len(segments) {
		err := fmt.Errorf("%w: all %d road-attribute queries failed", domain.ErrServiceUnavailable, failures)
		telemetry.EndSpan(span, err)
		return nil, err
	}

	samples := make([]domain.SurfaceSample, len(segments))
	for i, seg := range segments {
		samples[i] = classifySegment(seg, lookups[i].ways)
		if samples[i].Surface == domain.UnknownTag {
			metrics.SurfaceSegmentsAnalyzed.WithLabelValues("unknown").Inc()
		} else {
			metrics.SurfaceSegmentsAnalyzed.WithLabelValues("classified").Inc()
		}
	}

	report := BuildSurfaceReport(segments, samples)
	report.Degraded = failures > 0
	telemetry.EndSpan(span, nil)

	s.publish(ctx, report)
	return report, nil
}

// waysInBounds reads through the local cache, then the shared tier, then the service.
func (s *SurfaceService) waysInBounds(ctx context.Context, b domain.Bounds) ([]domain.WayFeature, error) {
	key := "surface:ways:" + b.Key()

	if ways, ok := s.cache.Get(key); ok {
		metrics.CacheHits.WithLabelValues("surface", "local").Inc()
		return ways, nil
	}
	if s.shared != nil {
		if data, err := s.shared.Get(ctx, key); err == nil {
			var ways []domain.WayFeature
			if err := json.Unmarshal(data, &ways); err == nil {
				metrics.CacheHits.WithLabelValues("surface", "shared").Inc()
				s.cache.Add(key, ways)
				return ways, nil
			}
		}
	}
	metrics.CacheMisses.WithLabelValues("surface").Inc()

	var ways []domain.WayFeature
	err := s.throttle.Do(ctx, func(ctx context.Context) error {
		qctx, cancel := context.WithTimeout(ctx, s.opts.QueryTimeout)
		defer cancel()

		var err error
		ways, err = s.roads.WaysInBounds(qctx, b)
		return err
	})
	if err != nil {
		return nil, &domain.ExternalQueryError{Service: roadAttributeService, Err: err}
	}

	s.cache.Add(key, ways)
	if s.shared != nil {
		if data, err := json.Marshal(ways); err == nil {
			_ = s.shared.Set(ctx, key, data, int(s.opts.CacheTTL.Seconds()))
		}
	}
	return ways, nil
}

func (s *SurfaceService) publish(ctx context.Context, r *domain.SurfaceReport) {
	if s.events == nil {
		return
	}
	err := s.events.PublishSurfaceAnalyzed(ctx, &domain.SurfaceAnalyzedEvent{
		TotalDistanceMeters: r.Statistics.TotalDistanceMeters,
		SegmentCount:        r.Statistics.SegmentCount,
		Warnings:            len(r.Warnings),
		Recommended:         r.Recommendations.Recommended,
		Degraded:            r.Degraded,
		At:                  time.Now().UTC(),
	})
	if err != nil {
		slog.Warn("publish surface event", "error", err)
	}
}

// classifySegment picks the dominant tags among the ways found for a segment.
func classifySegment(seg domain.Segment, ways []domain.WayFeature) domain.SurfaceSample {
	orUnknown := func(v string) string {
		if v == "" {
			return domain.UnknownTag
		}
		return v
	}
	return domain.SurfaceSample{
		SegmentID:    seg.ID,
		Surface:      orUnknown(DominantTag(ways, "surface")),
		Smoothness:   orUnknown(DominantTag(ways, "smoothness")),
		Highway:      orUnknown(DominantTag(ways, "highway")),
		TrackType:    DominantTag(ways, "tracktype"),
		MTBScale:     DominantTag(ways, "mtb:scale"),
		LengthMeters: seg.LengthMeters,
	}
}

// DominantTag returns the most frequent value of key among ways. Ties go to
// the value seen first. It returns "" when no way carries the key.
func DominantTag(ways []domain.WayFeature, key string) string {
	counts := make(map[string]int)
	var order []string
	for _, w := range ways {
		v, ok := w.Tags[key]
		if !ok || v == "" {
			continue
		}
		if counts[v] == 0 {
			order = append(order, v)
		}
		counts[v]++
	}

	best, bestCount := "", 0
	for _, v := range order {
		if counts[v] > bestCount {
			best, bestCount = v, counts[v]
		}
	}
	return best
}

// BuildSurfaceReport aggregates per-segment samples. It performs no I/O.
func BuildSurfaceReport(segments []domain.Segment, samples []domain.SurfaceSample) *domain.SurfaceReport {
	var total float64
	for _, seg := range segments {
		total += seg.LengthMeters
	}

	// Zero-length routes weight every segment equally.
	weight := func(i int) float64 {
		if total > 0 {
			return segments[i].LengthMeters
		}
		return 1
	}
	var weightSum float64
	for i := range segments {
		weightSum += weight(i)
	}

	surfaces := make(map[string]tagAcc)
	smoothness := make(map[string]tagAcc)
	for i, smp := range samples {
		w := weight(i)
		surfaces[smp.Surface] = surfaces[smp.Surface].add(segments[i].LengthMeters, w)
		smoothness[smp.Smoothness] = smoothness[smp.Smoothness].add(segments[i].LengthMeters, w)
	}

	stats := domain.SurfaceStatistics{
		TotalDistanceMeters: total,
		SegmentCount:        len(segments),
		Surfaces:            shares(surfaces, weightSum),
		Smoothness:          shares(smoothness, weightSum),
	}

	scores := make([]domain.VehicleScore, 0, len(domain.VehicleClasses))
	for _, v := range domain.VehicleClasses {
		var acc float64
		for i, smp := range samples {
			acc += suitabilityOf(smp.Surface, v) * weight(i)
		}
		score := 0.0
		if weightSum > 0 {
			score = round1(acc / weightSum)
		}
		scores = append(scores, domain.VehicleScore{Vehicle: v, Score: score})
	}

	viz := make([]domain.SegmentStyle, len(samples))
	for i, smp := range samples {
		viz[i] = domain.SegmentStyle{
			SegmentID:   smp.SegmentID,
			Surface:     smp.Surface,
			Color:       SurfaceColor(smp.Surface),
			Coordinates: segments[i].Coordinates,
		}
	}

	return &domain.SurfaceReport{
		Samples:         samples,
		Statistics:      stats,
		Warnings:        SurfaceWarnings(stats),
		Recommendations: Recommend(scores, stats),
		Visualization:   viz,
	}
}

// tagAcc accumulates distance and weight for one tag value.
type tagAcc struct {
	distance, weight float64
}

func (a tagAcc) add(distance, weight float64) tagAcc {
	return tagAcc{distance: a.distance + distance, weight: a.weight + weight}
}

func shares(acc map[string]tagAcc, weightSum float64) map[string]domain.TagShare {
	out := make(map[string]domain.TagShare, len(acc))
	for tag, a := range acc {
		pct := 0.0
		if weightSum > 0 {
			pct = round2(a.weight / weightSum * 100)
		}
		out[tag] = domain.TagShare{DistanceMeters: a.distance, Percentage: pct}
	}
	return out
}

// SurfaceWarnings derives rider warnings from the aggregated statistics.
func SurfaceWarnings(stats domain.SurfaceStatistics) []domain.Warning {
	warnings := []domain.Warning{}

	for _, h := range hazardousSurfaces {
		if pct := stats.Surfaces[h.tag].Percentage; pct > surfaceHazardThreshold {
			warnings = append(warnings, domain.Warning{
				Code:       "surface_" + h.tag,
				Severity:   h.severity,
				Message:    fmt.Sprintf("%s (%.0f%% of route)", h.message, pct),
				Percentage: pct,
			})
		}
	}

	for _, p := range poorSmoothness {
		if pct := stats.Smoothness[p.tag].Percentage; pct > smoothnessHazardThreshold {
			warnings = append(warnings, domain.Warning{
				Code:       "smoothness_" + p.tag,
				Severity:   p.severity,
				Message:    fmt.Sprintf("Rough surface rated %q on %.0f%% of route", p.tag, pct),
				Percentage: pct,
			})
		}
	}

	if pct := sumPercent(stats.Surfaces, unpavedSurfaces); pct > unpavedThreshold {
		warnings = append(warnings, domain.Warning{
			Code:       "unpaved",
			Severity:   "info",
			Message:    fmt.Sprintf("%.0f%% of route is unpaved", pct),
			Percentage: pct,
		})
	}
	return warnings
}

// Recommend lists vehicle classes scoring above the threshold, best first,
// and adds a tire hint for loose surfaces.
func Recommend(scores []domain.VehicleScore, stats domain.SurfaceStatistics) domain.Recommendations {
	recommended := []domain.VehicleScore{}
	for _, s := range scores {
		if s.Score > recommendThreshold {
			recommended = append(recommended, s)
		}
	}
	sort.SliceStable(recommended, func(i, j int) bool {
		return recommended[i].Score > recommended[j].Score
	})

	rec := domain.Recommendations{Scores: scores, Recommended: recommended}
	if sumPercent(stats.Surfaces, looseSurfaces) > looseSurfaceTireThreshold {
		rec.TireWidth = wideTireHint
	}
	return rec
}

func sumPercent(shares map[string]domain.TagShare, tags []string) float64 {
	var sum float64
	for _, t := range tags {
		sum += shares[t].Percentage
	}
	return sum
}

func round1(v float64) float64 { return math.Round(v*10) / 10 }

func round2(v float64) float64 { return math.Round(v*100) / 100 }
