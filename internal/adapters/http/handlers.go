package http

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/trackio"
)

// SurfaceAnalyzeHandler classifies the surface along a posted route.
// ?format=geojson returns the coloured segments as a FeatureCollection.
func SurfaceAnalyzeHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var in RouteInput
		if err := c.BodyParser(&in); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		route, err := in.ToRoute()
		if err != nil {
			return errFromDomain(c, err)
		}

		report, err := deps.Surface.Analyze(c.UserContext(), route)
		if err != nil {
			return errFromDomain(c, err)
		}

		if c.Query("format") == string(trackio.FormatGeoJSON) {
			data, err := trackio.FeatureCollection(route, report, nil).MarshalJSON()
			if err != nil {
				return errInternal(c, err.Error())
			}
			c.Set(fiber.HeaderContentType, trackio.FormatGeoJSON.ContentType())
			return c.Send(data)
		}
		return c.JSON(report)
	}
}

// POICategoriesHandler lists the POI category catalogue.
func POICategoriesHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		c.Set("Cache-Control", "public, max-age=3600")
		return c.JSON(usecases.Categories())
	}
}

type poiSearchRequest struct {
	RouteInput
	Categories   []string `json:"categories"`
	RadiusMeters float64  `json:"radius_m"`
	MaxResults   int      `json:"max_results"`
}

// POISearchHandler finds points of interest along a posted route.
func POISearchHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req poiSearchRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		route, err := req.ToRoute()
		if err != nil {
			return errFromDomain(c, err)
		}

		result, err := deps.POIs.Search(c.UserContext(), route, req.Categories, usecases.SearchOptions{
			RadiusMeters: req.RadiusMeters,
			MaxResults:   req.MaxResults,
		})
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(result)
	}
}

// RoundTripHandler generates a round trip within the request.
func RoundTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var req domain.RoundTripRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}

		result, err := deps.RoundTrips.Generate(c.UserContext(), req)
		if err != nil {
			return errFromDomain(c, err)
		}
		return c.JSON(result)
	}
}

// RoundTripAsyncHandler starts a durable generation and returns its id.
func RoundTripAsyncHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Runner == nil {
			return errUnavailable(c, "asynchronous generation is not configured")
		}
		var req domain.RoundTripRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		req, err := usecases.PrepareRequest(req)
		if err != nil {
			return errFromDomain(c, err)
		}

		id := uuid.NewString()
		runID, err := deps.Runner.Start(c.UserContext(), id, req)
		if err != nil {
			LoggerFromCtx(c.UserContext()).Error("start round trip", "id", id, "error", err)
			return errUnavailable(c, "could not start round trip generation")
		}

		c.Location("/v1/roundtrips/" + id)
		return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
			"id":     id,
			"run_id": runID,
			"status": "running",
		})
	}
}

// GetRoundTripHandler reports the state of an asynchronous generation.
func GetRoundTripHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if deps.Runner == nil {
			return errUnavailable(c, "asynchronous generation is not configured")
		}
		id := c.Params("id")
		if _, err := uuid.Parse(id); err != nil {
			return errBadRequest(c, "round trip id must be a UUID")
		}

		result, err := deps.Runner.Result(c.UserContext(), id)
		switch {
		case errors.Is(err, domain.ErrNotFound):
			return errNotFound(c, "round trip not found")
		case errors.Is(err, domain.ErrGenerationFailure),
			errors.Is(err, domain.ErrServiceUnavailable),
			errors.Is(err, domain.ErrInvalidInput):
			return c.JSON(fiber.Map{"id": id, "status": "failed", "error": err.Error()})
		case err != nil:
			return errFromDomain(c, err)
		case result == nil:
			c.Set("Cache-Control", "no-cache")
			body := fiber.Map{"id": id, "status": "running"}
			if deps.Progress != nil {
				if last, ok := deps.Progress.Latest(id); ok {
					body["last_attempt"] = last
				}
			}
			return c.JSON(body)
		}
		return c.JSON(fiber.Map{"id": id, "status": "completed", "result": result})
	}
}

type exportRequest struct {
	RouteInput
	Name           string   `json:"name"`
	IncludeSurface bool     `json:"include_surface"`
	IncludePOIs    bool     `json:"include_pois"`
	POICategories  []string `json:"poi_categories"`
}

// ExportHandler renders a route as GPX, KML, GeoJSON or an encoded polyline,
// optionally enriched with surface colouring and POIs.
func ExportHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		format, err := trackio.ParseFormat(c.Query("format", string(trackio.FormatGPX)))
		if err != nil {
			return errFromDomain(c, err)
		}
		var req exportRequest
		if err := c.BodyParser(&req); err != nil {
			return errBadRequest(c, "invalid request body")
		}
		route, err := req.ToRoute()
		if err != nil {
			return errFromDomain(c, err)
		}

		export := trackio.Export{Name: req.Name, Route: route}
		ctx := c.UserContext()

		if req.IncludeSurface && format == trackio.FormatGeoJSON {
			report, err := deps.Surface.Analyze(ctx, route)
			if err != nil {
				return errFromDomain(c, err)
			}
			export.Surface = report
		}
		if req.IncludePOIs {
			cats, err := usecases.ResolveCategories(req.POICategories)
			if err != nil {
				return errFromDomain(c, err)
			}
			result, err := deps.POIs.Search(ctx, route, req.POICategories, usecases.SearchOptions{})
			if err != nil {
				return errFromDomain(c, err)
			}
			order := make([]string, len(cats))
			for i, cat := range cats {
				order[i] = cat.Name
			}
			export.POIs = trackio.POIs(result, order)
		}

		data, err := trackio.Encode(format, export)
		if err != nil {
			return errFromDomain(c, err)
		}
		c.Set(fiber.HeaderContentType, format.ContentType())
		c.Set(fiber.HeaderContentDisposition, fmt.Sprintf(`attachment; filename="route.%s"`, format))
		return c.Send(data)
	}
}
