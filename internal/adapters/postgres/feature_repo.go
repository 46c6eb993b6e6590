package postgres

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/ewkb"
	"go.opentelemetry.io/otel/attribute"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/pkg/metrics"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
)

const featureServiceName = "postgis"

// FeatureRepo implements ports.PointFeatureRepository and
// ports.PointFeatureService over the point_features table.
type FeatureRepo struct {
	db *DB
}

// NewFeatureRepo creates a new FeatureRepo.
func NewFeatureRepo(db *DB) *FeatureRepo {
	return &FeatureRepo{db: db}
}

// EncodePoint returns the EWKB form of c with SRID 4326.
func EncodePoint(c domain.Coordinate) ([]byte, error) {
	p := geom.NewPointFlat(geom.XY, []float64{c.Lng, c.Lat}).SetSRID(4326)
	return ewkb.Marshal(p, ewkb.NDR)
}

// DecodePoint parses an EWKB point.
func DecodePoint(data []byte) (domain.Coordinate, error) {
	g, err := ewkb.Unmarshal(data)
	if err != nil {
		return domain.Coordinate{}, fmt.Errorf("decode ewkb: %w", err)
	}
	p, ok := g.(*geom.Point)
	if !ok {
		return domain.Coordinate{}, fmt.Errorf("expected point geometry, got %T", g)
	}
	return domain.Coordinate{Lat: p.Y(), Lng: p.X()}, nil
}

// UpsertBatch inserts or refreshes many features using pgx.Batch.
func (r *FeatureRepo) UpsertBatch(ctx context.Context, features []domain.PointFeature) error {
	if len(features) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, f := range features {
		wkb, err := EncodePoint(f.Coordinate)
		if err != nil {
			return fmt.Errorf("encode %s: %w", f.ID, err)
		}
		batch.Queue(`
			INSERT INTO point_features (feature_id, location, tags, imported_at)
			VALUES ($1, ST_GeomFromEWKB($2), $3, now())
			ON CONFLICT (feature_id) DO UPDATE
			SET location = EXCLUDED.location, tags = EXCLUDED.tags, imported_at = EXCLUDED.imported_at
		`, f.ID, wkb, map[string]string(f.Tags))
	}
	br := r.db.Pool.SendBatch(ctx, batch)
	defer br.Close()
	for range features {
		if _, err := br.Exec(); err != nil {
			return fmt.Errorf("batch exec: %w", err)
		}
	}
	return nil
}

// FeaturesInBounds returns stored features inside b matching any rule.
func (r *FeatureRepo) FeaturesInBounds(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error) {
	if len(rules) == 0 {
		return nil, nil
	}
	ctx, span := telemetry.StartSpan(ctx, telemetry.SpanPostGISFeatures, attribute.String("bbox", b.Key()))
	start := time.Now()

	features, err := r.featuresInBounds(ctx, b, rules)
	metrics.ObserveExternal(featureServiceName, start, err)
	telemetry.EndSpan(span, err)
	return features, err
}

func (r *FeatureRepo) featuresInBounds(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error) {
	filter, args := ruleFilter(rules, 5)
	query := `
		SELECT feature_id, ST_AsEWKB(location), tags
		FROM point_features
		WHERE location && ST_MakeEnvelope($1, $2, $3, $4, 4326)
		  AND (` + filter + `)
		ORDER BY feature_id`
	args = append([]any{b.MinLng, b.MinLat, b.MaxLng, b.MaxLat}, args...)

	rows, err := r.db.Pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.PointFeature
	for rows.Next() {
		var (
			f    domain.PointFeature
			wkb  []byte
			tags map[string]string
		)
		if err := rows.Scan(&f.ID, &wkb, &tags); err != nil {
			return nil, err
		}
		if f.Coordinate, err = DecodePoint(wkb); err != nil {
			return nil, err
		}
		f.Tags = tags
		out = append(out, f)
	}
	return out, rows.Err()
}

// Count returns the number of stored features.
func (r *FeatureRepo) Count(ctx context.Context) (int64, error) {
	var n int64
	err := r.db.Pool.QueryRow(ctx, `SELECT count(*) FROM point_features`).Scan(&n)
	return n, err
}

// ruleFilter renders rules as an OR of jsonb predicates with positional
// parameters numbered from firstArg.
func ruleFilter(rules []domain.TagRule, firstArg int) (string, []any) {
	clauses := make([]string, 0, len(rules))
	args := make([]any, 0, 2*len(rules))
	n := firstArg
	for _, rule := range rules {
		switch m := rule.Matcher.(type) {
		case domain.Exact:
			clauses = append(clauses, fmt.Sprintf("tags->>$%d = $%d", n, n+1))
			args = append(args, rule.Key, string(m))
			n += 2
		default:
			clauses = append(clauses, fmt.Sprintf("tags ? $%d", n))
			args = append(args, rule.Key)
			n++
		}
	}
	return strings.Join(clauses, " OR "), args
}
