package http

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/graphql-go/graphql"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

// buildSchema creates the GraphQL schema wired to our services. Routes are
// exchanged as encoded polylines.
func buildSchema(deps *Dependencies) (graphql.Schema, error) {
	coordinateType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Coordinate",
		Fields: graphql.Fields{
			"lat": &graphql.Field{Type: graphql.Float},
			"lng": &graphql.Field{Type: graphql.Float},
		},
	})

	categoryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "POICategory",
		Fields: graphql.Fields{
			"name":  &graphql.Field{Type: graphql.String},
			"label": &graphql.Field{Type: graphql.String},
			"rules": &graphql.Field{Type: graphql.NewList(graphql.String)},
		},
	})

	warningType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SurfaceWarning",
		Fields: graphql.Fields{
			"code":       &graphql.Field{Type: graphql.String},
			"severity":   &graphql.Field{Type: graphql.String},
			"message":    &graphql.Field{Type: graphql.String},
			"percentage": &graphql.Field{Type: graphql.Float},
		},
	})

	vehicleScoreType := graphql.NewObject(graphql.ObjectConfig{
		Name: "VehicleScore",
		Fields: graphql.Fields{
			"vehicle": &graphql.Field{Type: graphql.String},
			"score":   &graphql.Field{Type: graphql.Float},
		},
	})

	surfaceType := graphql.NewObject(graphql.ObjectConfig{
		Name: "SurfaceReport",
		Fields: graphql.Fields{
			"totalDistance": &graphql.Field{Type: graphql.Float},
			"segmentCount":  &graphql.Field{Type: graphql.Int},
			"warnings":      &graphql.Field{Type: graphql.NewList(warningType)},
			"recommended":   &graphql.Field{Type: graphql.NewList(vehicleScoreType)},
			"tireWidth":     &graphql.Field{Type: graphql.String},
			"degraded":      &graphql.Field{Type: graphql.Boolean},
		},
	})

	poiType := graphql.NewObject(graphql.ObjectConfig{
		Name: "POI",
		Fields: graphql.Fields{
			"id":              &graphql.Field{Type: graphql.String},
			"category":        &graphql.Field{Type: graphql.String},
			"name":            &graphql.Field{Type: graphql.String},
			"lat":             &graphql.Field{Type: graphql.Float},
			"lng":             &graphql.Field{Type: graphql.Float},
			"distanceToRoute": &graphql.Field{Type: graphql.Float},
			"alongRoute":      &graphql.Field{Type: graphql.Float},
		},
	})

	poiResultType := graphql.NewObject(graphql.ObjectConfig{
		Name: "POISearchResult",
		Fields: graphql.Fields{
			"total":    &graphql.Field{Type: graphql.Int},
			"degraded": &graphql.Field{Type: graphql.Boolean},
			"pois":     &graphql.Field{Type: graphql.NewList(poiType)},
		},
	})

	roundTripType := graphql.NewObject(graphql.ObjectConfig{
		Name: "RoundTrip",
		Fields: graphql.Fields{
			"id":                 &graphql.Field{Type: graphql.String},
			"status":             &graphql.Field{Type: graphql.String},
			"error":              &graphql.Field{Type: graphql.String},
			"polyline":           &graphql.Field{Type: graphql.String},
			"targetDistance":     &graphql.Field{Type: graphql.Float},
			"actualDistance":     &graphql.Field{Type: graphql.Float},
			"distanceErrorRatio": &graphql.Field{Type: graphql.Float},
			"attempts":           &graphql.Field{Type: graphql.Int},
			"waypoints":          &graphql.Field{Type: graphql.NewList(coordinateType)},
		},
	})

	routeArgs := graphql.FieldConfigArgument{
		"polyline": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
	}

	queryType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Query",
		Fields: graphql.Fields{
			"poiCategories": &graphql.Field{
				Type:        graphql.NewList(categoryType),
				Description: "POI category catalogue",
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					var out []map[string]interface{}
					for _, cat := range usecases.Categories() {
						out = append(out, map[string]interface{}{
							"name":  cat.Name,
							"label": cat.Label,
							"rules": cat.RuleStrings,
						})
					}
					return out, nil
				},
			},
			"surface": &graphql.Field{
				Type:        surfaceType,
				Description: "Surface analysis of an encoded polyline",
				Args:        routeArgs,
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := trackio.Decode(trackio.FormatPolyline, []byte(p.Args["polyline"].(string)))
					if err != nil {
						return nil, err
					}
					report, err := deps.Surface.Analyze(p.Context, route)
					if err != nil {
						return nil, err
					}
					var warnings []map[string]interface{}
					for _, w := range report.Warnings {
						warnings = append(warnings, map[string]interface{}{
							"code": w.Code, "severity": w.Severity, "message": w.Message, "percentage": w.Percentage,
						})
					}
					var recommended []map[string]interface{}
					for _, v := range report.Recommendations.Recommended {
						recommended = append(recommended, map[string]interface{}{"vehicle": string(v.Vehicle), "score": v.Score})
					}
					return map[string]interface{}{
						"totalDistance": report.Statistics.TotalDistanceMeters,
						"segmentCount":  report.Statistics.SegmentCount,
						"warnings":      warnings,
						"recommended":   recommended,
						"tireWidth":     report.Recommendations.TireWidth,
						"degraded":      report.Degraded,
					}, nil
				},
			},
			"pois": &graphql.Field{
				Type:        poiResultType,
				Description: "Points of interest along an encoded polyline",
				Args: graphql.FieldConfigArgument{
					"polyline":   &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
					"categories": &graphql.ArgumentConfig{Type: graphql.NewList(graphql.String)},
					"radius":     &graphql.ArgumentConfig{Type: graphql.Float, DefaultValue: 0.0},
					"maxResults": &graphql.ArgumentConfig{Type: graphql.Int, DefaultValue: 0},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					route, err := trackio.Decode(trackio.FormatPolyline, []byte(p.Args["polyline"].(string)))
					if err != nil {
						return nil, err
					}
					var categories []string
					if raw, ok := p.Args["categories"].([]interface{}); ok {
						for _, v := range raw {
							if s, ok := v.(string); ok {
								categories = append(categories, s)
							}
						}
					}
					cats, err := usecases.ResolveCategories(categories)
					if err != nil {
						return nil, err
					}
					result, err := deps.POIs.Search(p.Context, route, categories, usecases.SearchOptions{
						RadiusMeters: p.Args["radius"].(float64),
						MaxResults:   p.Args["maxResults"].(int),
					})
					if err != nil {
						return nil, err
					}
					order := make([]string, len(cats))
					for i, c := range cats {
						order[i] = c.Name
					}
					var pois []map[string]interface{}
					for _, poi := range trackio.POIs(result, order) {
						pois = append(pois, map[string]interface{}{
							"id":              poi.ID,
							"category":        poi.Category,
							"name":            poi.Name,
							"lat":             poi.Coordinate.Lat,
							"lng":             poi.Coordinate.Lng,
							"distanceToRoute": poi.DistanceToRouteMeters,
							"alongRoute":      poi.RoutePosition.CumulativeDistanceMeters,
						})
					}
					return map[string]interface{}{
						"total":    result.Total,
						"degraded": result.Degraded,
						"pois":     pois,
					}, nil
				},
			},
			"roundTrip": &graphql.Field{
				Type:        roundTripType,
				Description: "State of an asynchronous round trip",
				Args: graphql.FieldConfigArgument{
					"id": &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.String)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					if deps.Runner == nil {
						return nil, errors.New("asynchronous generation is not configured")
					}
					id := p.Args["id"].(string)
					result, err := deps.Runner.Result(p.Context, id)
					switch {
					case errors.Is(err, domain.ErrNotFound):
						return nil, nil
					case errors.Is(err, domain.ErrGenerationFailure),
						errors.Is(err, domain.ErrServiceUnavailable),
						errors.Is(err, domain.ErrInvalidInput):
						return map[string]interface{}{"id": id, "status": "failed", "error": err.Error()}, nil
					case err != nil:
						return nil, err
					case result == nil:
						return map[string]interface{}{"id": id, "status": "running"}, nil
					}
					return roundTripFields(result), nil
				},
			},
		},
	})

	mutationType := graphql.NewObject(graphql.ObjectConfig{
		Name: "Mutation",
		Fields: graphql.Fields{
			"generateRoundTrip": &graphql.Field{
				Type:        roundTripType,
				Description: "Generate a round trip starting and ending at a point",
				Args: graphql.FieldConfigArgument{
					"lat":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"lng":       &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"distance":  &graphql.ArgumentConfig{Type: graphql.NewNonNull(graphql.Float)},
					"shape":     &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.ShapeLoop)},
					"direction": &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.DirectionAny)},
					"profile":   &graphql.ArgumentConfig{Type: graphql.String, DefaultValue: string(domain.ProfileBicycle)},
				},
				Resolve: func(p graphql.ResolveParams) (interface{}, error) {
					start := domain.Coordinate{Lat: p.Args["lat"].(float64), Lng: p.Args["lng"].(float64)}
					result, err := deps.RoundTrips.Generate(p.Context, domain.RoundTripRequest{
						Start:                &start,
						TargetDistanceMeters: p.Args["distance"].(float64),
						Shape:                domain.Shape(p.Args["shape"].(string)),
						Direction:            domain.Direction(p.Args["direction"].(string)),
						Preferences:          domain.Preferences{Profile: domain.Profile(p.Args["profile"].(string))},
					})
					if err != nil {
						return nil, err
					}
					return roundTripFields(result), nil
				},
			},
		},
	})

	return graphql.NewSchema(graphql.SchemaConfig{
		Query:    queryType,
		Mutation: mutationType,
	})
}

func roundTripFields(r *domain.RoundTripResult) map[string]interface{} {
	waypoints := make([]map[string]interface{}, len(r.Metadata.Waypoints))
	for i, w := range r.Metadata.Waypoints {
		waypoints[i] = map[string]interface{}{"lat": w.Lat, "lng": w.Lng}
	}
	return map[string]interface{}{
		"id":                 r.ID,
		"status":             "completed",
		"polyline":           trackio.EncodePolyline(r.Route.Coordinates),
		"targetDistance":     r.Metadata.TargetDistanceMeters,
		"actualDistance":     r.Metadata.ActualDistanceMeters,
		"distanceErrorRatio": r.Metadata.DistanceErrorRatio,
		"attempts":           r.Metadata.Attempts,
		"waypoints":          waypoints,
	}
}

// GraphQLHandler serves the GraphQL endpoint.
func GraphQLHandler(deps *Dependencies) fiber.Handler {
	schema, err := buildSchema(deps)
	if err != nil {
		// This would be a programming error in the schema definition
		panic("graphql schema build: " + err.Error())
	}

	type gqlRequest struct {
		Query         string                 `json:"query"`
		OperationName string                 `json:"operationName"`
		Variables     map[string]interface{} `json:"variables"`
	}

	return func(c *fiber.Ctx) error {
		var req gqlRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result := graphql.Do(graphql.Params{
			Schema:         schema,
			RequestString:  req.Query,
			VariableValues: req.Variables,
			OperationName:  req.OperationName,
			Context:        c.UserContext(),
		})
		if result.HasErrors() {
			LoggerFromCtx(c.UserContext()).Warn("graphql errors", "count", len(result.Errors), "first", result.Errors[0].Message)
		}

		return c.JSON(result)
	}
}
