package http_test

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	handler "github.com/samirrijal/ridekit/internal/adapters/http"
)

func TestOpenAPI_DescribesEveryRoute(t *testing.T) {
	doc, err := handler.LoadOpenAPI()
	require.NoError(t, err)

	for _, path := range []string{
		"/v1/health",
		"/v1/ready",
		"/v1/surface/analyze",
		"/v1/pois/categories",
		"/v1/pois/search",
		"/v1/roundtrips",
		"/v1/roundtrips/async",
		"/v1/roundtrips/{id}",
		"/v1/routes/export",
		"/graphql",
	} {
		assert.NotNil(t, doc.Paths.Find(path), "path %s not described", path)
	}

	for _, schema := range []string{
		"APIError",
		"Coordinate",
		"RouteInput",
		"SurfaceReport",
		"POICategory",
		"POISearchResult",
		"RoundTripRequest",
		"RoundTripResult",
		"RoundTripStatus",
	} {
		assert.NotNil(t, doc.Components.Schemas[schema], "schema %s missing", schema)
	}
}

func TestOpenAPI_Info(t *testing.T) {
	doc, err := handler.LoadOpenAPI()
	require.NoError(t, err)

	assert.Equal(t, "ridekit Route Analysis API", doc.Info.Title)
	assert.Equal(t, "1.0.0", doc.Info.Version)
	assert.NotEmpty(t, doc.Info.Description)
	require.NotEmpty(t, doc.Servers)
}

func TestDocsEndpoints(t *testing.T) {
	app := setupApp(makeDeps())

	page := get(t, app, "/docs")
	require.Equal(t, 200, page.StatusCode)
	assert.Contains(t, string(readBody(t, page.Body)), "<title>ridekit Route Analysis API · API docs</title>")

	yaml := get(t, app, "/docs/openapi.yaml")
	require.Equal(t, 200, yaml.StatusCode)
	assert.Equal(t, "application/yaml", yaml.Header.Get("Content-Type"))
	assert.Contains(t, string(readBody(t, yaml.Body)), "openapi: 3.0.3")

	js := get(t, app, "/docs/openapi.json")
	require.Equal(t, 200, js.StatusCode)
	var doc struct {
		OpenAPI string `json:"openapi"`
		Info    struct {
			Title string `json:"title"`
		} `json:"info"`
		Paths map[string]any `json:"paths"`
	}
	require.NoError(t, json.Unmarshal(readBody(t, js.Body), &doc))
	assert.Equal(t, "3.0.3", doc.OpenAPI)
	assert.Equal(t, "ridekit Route Analysis API", doc.Info.Title)
	assert.Contains(t, doc.Paths, "/v1/roundtrips/{id}")
}
