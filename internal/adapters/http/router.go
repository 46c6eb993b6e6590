package http

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/timeout"
	"github.com/gofiber/websocket/v2"

	"github.com/samirrijal/ridekit/internal/pkg/metrics"
)

// statusTimeout bounds the endpoints that only talk to Temporal.
const statusTimeout = 10 * time.Second

// SetupRoutes registers all REST, GraphQL, and WebSocket routes.
func SetupRoutes(app *fiber.App, deps *Dependencies) {
	app.Use(metrics.Middleware())
	app.Get("/metrics", metrics.Handler())

	installMiddleware(app, deps)

	app.Get("/v1/health", HealthHandler(deps))
	app.Get("/v1/ready", ReadyHandler(deps))

	registerV1(app.Group("/v1"), deps)
	app.Post("/graphql", timeout.NewWithContext(GraphQLHandler(deps), deps.timeout()))

	SetupDocs(app)

	app.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	app.Get("/ws", websocket.New(WebSocketHandler(deps.NATS)))
}

func installMiddleware(app *fiber.App, deps *Dependencies) {
	app.Use(compress.New(compress.Config{Level: compress.LevelBestSpeed}))
	app.Use(requestid.New())
	app.Use(RequestIDLogMiddleware())
	app.Use(AccessLogMiddleware())
	app.Use(limiter.New(limiter.Config{
		Max:        deps.rateLimit(),
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP()
		},
		LimitReached: func(c *fiber.Ctx) error {
			return newError(c, fiber.StatusTooManyRequests, "rate_limited", "too many requests, please try again later")
		},
		Next: func(c *fiber.Ctx) bool {
			return probePaths[c.Path()]
		},
	}))
	app.Use(securityHeaders)
	app.Use(ETagMiddleware())
	app.Use(CachingMiddleware())
}

func securityHeaders(c *fiber.Ctx) error {
	c.Set(fiber.HeaderXContentTypeOptions, "nosniff")
	c.Set(fiber.HeaderXFrameOptions, "DENY")
	c.Set(fiber.HeaderReferrerPolicy, "strict-origin-when-cross-origin")
	c.Set("X-API-Version", "1.0.0")
	return c.Next()
}

// registerV1 mounts the REST API. Analysis endpoints fan out to external
// services and share the configured request timeout.
func registerV1(v1 fiber.Router, deps *Dependencies) {
	t := deps.timeout()

	v1.Get("/pois/categories", POICategoriesHandler(deps))
	v1.Post("/pois/search", timeout.NewWithContext(POISearchHandler(deps), t))
	v1.Post("/surface/analyze", timeout.NewWithContext(SurfaceAnalyzeHandler(deps), t))
	v1.Post("/routes/export", timeout.NewWithContext(ExportHandler(deps), t))

	v1.Post("/roundtrips", timeout.NewWithContext(RoundTripHandler(deps), t))
	v1.Post("/roundtrips/async", timeout.NewWithContext(RoundTripAsyncHandler(deps), statusTimeout))
	v1.Get("/roundtrips/:id", timeout.NewWithContext(GetRoundTripHandler(deps), statusTimeout))
}
