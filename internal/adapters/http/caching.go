package http

import (
	"strings"

	"github.com/gofiber/fiber/v2"
)

type cacheRule struct {
	prefix string
	exact  bool
	value  string
}

// cacheRules are checked in order; the first match wins.
var cacheRules = []cacheRule{
	{prefix: "/v1/health", exact: true, value: "public, max-age=10"},
	{prefix: "/v1/ready", exact: true, value: "public, max-age=10"},
	{prefix: "/metrics", exact: true, value: "no-cache"},
	{prefix: "/v1/pois/categories", exact: true, value: "public, max-age=3600"},
	// Running round trips are marked no-cache by their handler.
	{prefix: "/v1/roundtrips/", value: "private, max-age=300"},
	{prefix: "/docs", value: "public, max-age=3600"},
	{prefix: "/v1/", value: "private, max-age=60"},
}

func cacheControlFor(path string) string {
	for _, r := range cacheRules {
		if (r.exact && path == r.prefix) || (!r.exact && strings.HasPrefix(path, r.prefix)) {
			return r.value
		}
	}
	return ""
}

// CachingMiddleware sets Cache-Control on GET responses the handler left
// without one. Error responses are never cached.
func CachingMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		err := c.Next()

		if c.Method() != fiber.MethodGet || c.GetRespHeader(fiber.HeaderCacheControl) != "" {
			return err
		}
		if err != nil || c.Response().StatusCode() >= fiber.StatusBadRequest {
			c.Set(fiber.HeaderCacheControl, "no-store")
			return err
		}
		if v := cacheControlFor(c.Path()); v != "" {
			c.Set(fiber.HeaderCacheControl, v)
		}
		return err
	}
}
