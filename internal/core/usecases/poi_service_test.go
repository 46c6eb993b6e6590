package usecases_test

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/geospatial"
)

// offsetNorth returns the point metersNorth north of c.
func offsetNorth(c domain.Coordinate, metersNorth float64) domain.Coordinate {
	return geospatial.DestinationPoint(c, 0, metersNorth)
}

func TestPOIService_WaterSourceFiftyMetersAway(t *testing.T) {
	route := eastRoute(10, 100) // 1 km
	fountain := domain.PointFeature{
		ID:         "node/42",
		Coordinate: offsetNorth(route.Coordinates[4], 50),
		Tags:       domain.Tags{"amenity": "drinking_water", "name": "Iturria"},
	}
	features := &mockFeatures{
		featuresFn: func(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error) {
			return []domain.PointFeature{fountain}, nil
		},
	}
	svc := usecases.NewPOIService(features, nil, nil, usecases.POIOptions{})

	result, err := svc.Search(context.Background(), route, []string{"waterSources"}, usecases.SearchOptions{})
	require.NoError(t, err)

	require.Equal(t, 1, result.Total)
	require.Len(t, result.CategorizedResults["waterSources"], 1)
	poi := result.CategorizedResults["waterSources"][0]
	assert.InDelta(t, 50, poi.DistanceToRouteMeters, 1)
	assert.InDelta(t, 400, poi.RoutePosition.CumulativeDistanceMeters, 1)
	assert.Equal(t, "Iturria", poi.Name)
	assert.Equal(t, true, poi.Details["potable"])

	summary := result.Summary["waterSources"]
	assert.Equal(t, 1, summary.Count)
	require.NotNil(t, summary.Nearest)
	assert.Equal(t, "Iturria", summary.Nearest.Name)
	assert.InDelta(t, 0.4, summary.Nearest.RoutePositionKm, 0.01)
	assert.False(t, result.Degraded)
}

func TestPOIService_BoundsUseRadiusBuffer(t *testing.T) {
	route := eastRoute(2, 100)
	features := &mockFeatures{}
	svc := usecases.NewPOIService(features, nil, nil, usecases.POIOptions{})

	_, err := svc.Search(context.Background(), route, []string{"toilets"}, usecases.SearchOptions{RadiusMeters: 1111.11})
	require.NoError(t, err)

	raw := geospatial.BoundingBox(route.Coordinates, 0)
	assert.InDelta(t, raw.MinLat-0.01, features.lastBox.MinLat, 1e-9)
	assert.InDelta(t, raw.MaxLng+0.01, features.lastBox.MaxLng, 1e-9)
}

func TestPOIService_UnknownCategory(t *testing.T) {
	features := &mockFeatures{}
	svc := usecases.NewPOIService(features, nil, nil, usecases.POIOptions{})

	_, err := svc.Search(context.Background(), eastRoute(3, 100), []string{"waterSources", "casinos"}, usecases.SearchOptions{})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Equal(t, int32(0), features.calls.Load())
}

func TestPOIService_EmptyCategoriesMeansAll(t *testing.T) {
	features := &mockFeatures{}
	svc := usecases.NewPOIService(features, nil, nil, usecases.POIOptions{})

	result, err := svc.Search(context.Background(), eastRoute(3, 100), nil, usecases.SearchOptions{})
	require.NoError(t, err)
	assert.Len(t, result.CategorizedResults, len(usecases.Categories()))
	assert.Len(t, features.lastRules, len(usecases.UnionRules(usecases.Categories())))
}

func TestPOIService_QueryFailureDegrades(t *testing.T) {
	features := &mockFeatures{
		featuresFn: func(ctx context.Context, b domain.Bounds, rules []domain.TagRule) ([]domain.PointFeature, error) {
			return nil, errors.New("429 too many requests")
		},
	}
	svc := usecases.NewPOIService(features, nil, nil, usecases.POIOptions{})

	result, err := svc.Search(context.Background(), eastRoute(3, 100), []string{"foodStops"}, usecases.SearchOptions{})
	require.NoError(t, err)
	assert.True(t, result.Degraded)
	assert.Equal(t, 0, result.Total)
	assert.NotNil(t, result.CategorizedResults["foodStops"])
}

func TestPOIService_CachesByBoundsAndCategories(t *testing.T) {
	features := &mockFeatures{}
	svc := usecases.NewPOIService(features, nil, nil, usecases.POIOptions{})
	route := eastRoute(3, 100)

	_, _ = svc.Search(context.Background(), route, []string{"toilets", "parking"}, usecases.SearchOptions{})
	_, _ = svc.Search(context.Background(), route, []string{"parking", "toilets"}, usecases.SearchOptions{})
	assert.Equal(t, int32(1), features.calls.Load())

	_, _ = svc.Search(context.Background(), route, []string{"parking"}, usecases.SearchOptions{})
	assert.Equal(t, int32(2), features.calls.Load())
}

func TestPOIService_PublishesEvent(t *testing.T) {
	pub := &mockPublisher{}
	svc := usecases.NewPOIService(&mockFeatures{}, nil, pub, usecases.POIOptions{})

	_, err := svc.Search(context.Background(), eastRoute(3, 100), []string{"toilets"}, usecases.SearchOptions{})
	require.NoError(t, err)
	require.Len(t, pub.poi, 1)
	assert.Equal(t, []string{"toilets"}, pub.poi[0].Categories)
}

func TestBuildPOIResult_DeduplicatesAndAssignsFirstCategory(t *testing.T) {
	route := eastRoute(5, 100)
	shopCafe := domain.PointFeature{
		ID:         "node/1",
		Coordinate: offsetNorth(route.Coordinates[1], 20),
		Tags:       domain.Tags{"shop": "bicycle", "amenity": "cafe"},
	}
	cats, err := usecases.ResolveCategories([]string{"bikeShops", "foodStops"})
	require.NoError(t, err)

	result := usecases.BuildPOIResult(route.Coordinates, cats,
		[]domain.PointFeature{shopCafe, shopCafe, {ID: "node/2", Tags: domain.Tags{"amenity": "bench"}}}, 100)

	assert.Equal(t, 1, result.Total)
	assert.Len(t, result.CategorizedResults["bikeShops"], 1)
	assert.Empty(t, result.CategorizedResults["foodStops"])
	assert.Nil(t, result.Summary["foodStops"].Nearest)

	cats, _ = usecases.ResolveCategories([]string{"foodStops", "bikeShops"})
	result = usecases.BuildPOIResult(route.Coordinates, cats, []domain.PointFeature{shopCafe}, 100)
	assert.Len(t, result.CategorizedResults["foodStops"], 1)
}

func TestBuildPOIResult_SortedAndTruncated(t *testing.T) {
	route := eastRoute(20, 100) // 2 km
	var features []domain.PointFeature
	// Added in reverse order of route position.
	for i := 19; i >= 0; i-- {
		features = append(features, domain.PointFeature{
			ID:         "node/" + string(rune('a'+i)),
			Coordinate: offsetNorth(route.Coordinates[i], 30),
			Tags:       domain.Tags{"amenity": "toilets"},
		})
	}
	for i := 0; i < 3; i++ {
		features = append(features, domain.PointFeature{
			ID:         "node/v" + string(rune('a'+i)),
			Coordinate: offsetNorth(route.Coordinates[i*5], 200),
			Tags:       domain.Tags{"tourism": "viewpoint"},
		})
	}
	cats, _ := usecases.ResolveCategories([]string{"toilets", "viewpoints"})

	result := usecases.BuildPOIResult(route.Coordinates, cats, features, 11)

	// ceil(11 / 2) = 6 per category.
	toilets := result.CategorizedResults["toilets"]
	require.Len(t, toilets, 6)
	assert.Len(t, result.CategorizedResults["viewpoints"], 3)
	assert.Equal(t, 9, result.Total)
	for i := 1; i < len(toilets); i++ {
		assert.LessOrEqual(t,
			toilets[i-1].RoutePosition.CumulativeDistanceMeters,
			toilets[i].RoutePosition.CumulativeDistanceMeters)
	}
	assert.Equal(t, "node/a", toilets[0].ID)
	assert.Equal(t, 6, result.Summary["toilets"].Count)
}

func TestBuildPOIResult_RoutePositionSegmentIndex(t *testing.T) {
	route := eastRoute(4, 100)
	mid := geospatial.DestinationPoint(route.Coordinates[2], math.Pi/2, 50)
	f := domain.PointFeature{ID: "node/9", Coordinate: offsetNorth(mid, 10), Tags: domain.Tags{"amenity": "toilets"}}
	cats, _ := usecases.ResolveCategories([]string{"toilets"})

	result := usecases.BuildPOIResult(route.Coordinates, cats, []domain.PointFeature{f}, 10)
	p := result.CategorizedResults["toilets"][0]
	assert.Equal(t, 2, p.RoutePosition.SegmentIndex)
	assert.InDelta(t, 250, p.RoutePosition.CumulativeDistanceMeters, 1)
	assert.InDelta(t, 10, p.DistanceToRouteMeters, 0.5)
}

func TestTagRules(t *testing.T) {
	attractions, ok := usecases.LookupCategory("attractions")
	require.True(t, ok)
	assert.Contains(t, attractions.RuleStrings, "historic=*")
	assert.True(t, domain.MatchesAny(attractions.Rules, domain.Tags{"historic": "castle"}))
	assert.False(t, domain.MatchesAny(attractions.Rules, domain.Tags{"tourism": "hotel"}))

	rule := domain.TagRule{Key: "amenity", Matcher: domain.Exact("fuel")}
	assert.True(t, rule.Matches(domain.Tags{"amenity": "fuel"}))
	assert.False(t, rule.Matches(domain.Tags{"amenity": "cafe"}))
	assert.False(t, domain.TagRule{Key: "historic", Matcher: domain.Wildcard{}}.Matches(domain.Tags{}))
}

func TestExtractDetails(t *testing.T) {
	d := usecases.ExtractDetails("bikeShops", domain.Tags{
		"shop": "bicycle", "service:bicycle:repair": "yes", "service:bicycle:rental": "no", "opening_hours": "Mo-Fr 10:00-19:00",
	})
	assert.Equal(t, true, d["repair"])
	assert.Equal(t, false, d["rental"])
	assert.Equal(t, "Mo-Fr 10:00-19:00", d["opening_hours"])

	d = usecases.ExtractDetails("fuelStations", domain.Tags{"amenity": "fuel", "fuel:diesel": "yes", "fuel:octane_95": "yes", "fuel:lpg": "no"})
	assert.Equal(t, []string{"diesel", "octane_95"}, d["fuel_types"])

	d = usecases.ExtractDetails("lodging", domain.Tags{"tourism": "hotel", "stars": "3", "rooms": "24"})
	assert.Equal(t, 3.0, d["stars"])
	assert.Equal(t, 24.0, d["rooms"])

	d = usecases.ExtractDetails("foodStops", domain.Tags{"amenity": "cafe", "diet:vegan": "only"})
	assert.Equal(t, true, d["vegan"])

	assert.Nil(t, usecases.ExtractDetails("viewpoints", domain.Tags{"tourism": "viewpoint"}))
}
