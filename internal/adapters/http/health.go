package http

import (
	"context"
	"runtime/debug"
	"time"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/sync/errgroup"
)

func buildVersion() string {
	if info, ok := debug.ReadBuildInfo(); ok && info.Main.Version != "" && info.Main.Version != "(devel)" {
		return info.Main.Version
	}
	return "dev"
}

// HealthHandler returns a basic liveness check.
func HealthHandler(deps *Dependencies) fiber.Handler {
	startedAt := time.Now()
	version := buildVersion()

	return func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"status":  "healthy",
			"uptime":  time.Since(startedAt).Round(time.Second).String(),
			"version": version,
		})
	}
}

// probe reports a dependency's state. required probes fail readiness when
// the dependency is missing; optional ones only when it is configured but
// not answering.
type probe struct {
	name       string
	configured bool
	required   bool
	check      func(ctx context.Context) error
}

func (d *Dependencies) probes() []probe {
	return []probe{
		{name: "routing", configured: d.RoutingProvider != "", required: true},
		{name: "database", configured: d.DB != nil, check: func(ctx context.Context) error { return d.DB.Ping(ctx) }},
		{name: "cache", configured: d.Cache != nil, check: func(ctx context.Context) error { return d.Cache.Ping(ctx) }},
		{name: "nats", configured: d.NATS != nil, check: func(context.Context) error {
			if !d.NATS.IsConnected() {
				return errDisconnected
			}
			return nil
		}},
		{name: "async_roundtrips", configured: d.Runner != nil},
	}
}

type readinessError string

func (e readinessError) Error() string { return string(e) }

const errDisconnected = readinessError("disconnected")

// ReadyHandler probes the routing collaborator and the optional backing
// stores concurrently.
func ReadyHandler(deps *Dependencies) fiber.Handler {
	return func(c *fiber.Ctx) error {
		ctx, cancel := context.WithTimeout(c.UserContext(), 3*time.Second)
		defer cancel()

		probes := deps.probes()
		results := make([]string, len(probes))
		ok := make([]bool, len(probes))

		// A failing probe is reported, not propagated, so every probe runs to the end.
		var g errgroup.Group
		for i, p := range probes {
			switch {
			case !p.configured:
				results[i], ok[i] = "not configured", !p.required
			case p.check == nil:
				results[i], ok[i] = "ok", true
			default:
				g.Go(func() error {
					if err := p.check(ctx); err != nil {
						results[i] = "error: " + err.Error()
						return nil
					}
					results[i], ok[i] = "ok", true
					return nil
				})
			}
		}
		_ = g.Wait()

		checks := make(map[string]string, len(probes))
		allOK := true
		for i, p := range probes {
			checks[p.name] = results[i]
			allOK = allOK && ok[i]
		}
		if deps.RoutingProvider != "" {
			checks["routing"] = deps.RoutingProvider
		}

		status, code := "ready", fiber.StatusOK
		if !allOK {
			status, code = "not ready", fiber.StatusServiceUnavailable
		}
		return c.Status(code).JSON(fiber.Map{
			"status": status,
			"checks": checks,
		})
	}
}
