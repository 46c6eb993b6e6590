package http

import (
	"time"

	"github.com/nats-io/nats.go"

	"github.com/samirrijal/ridekit/internal/adapters/postgres"
	"github.com/samirrijal/ridekit/internal/adapters/valkey"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/core/usecases"
)

// Dependencies holds all services needed by HTTP handlers.
type Dependencies struct {
	Surface    *usecases.SurfaceService
	POIs       *usecases.POIService
	RoundTrips *usecases.RoundTripService
	Runner     ports.RoundTripRunner // nil when no Temporal worker is configured
	Progress   *usecases.RoundTripProgress

	NATS  *nats.Conn
	DB    *postgres.DB
	Cache *valkey.Cache

	RoutingProvider string
	RequestTimeout  time.Duration
	RateLimit       int // requests per minute per client IP
}

func (d *Dependencies) timeout() time.Duration {
	if d.RequestTimeout > 0 {
		return d.RequestTimeout
	}
	return 30 * time.Second
}

func (d *Dependencies) rateLimit() int {
	if d.RateLimit > 0 {
		return d.RateLimit
	}
	return 60
}
