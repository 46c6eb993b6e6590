// Package bootstrap builds adapters and services from configuration for the
// ridekit binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/samirrijal/ridekit/internal/adapters/googlemaps"
	natsadapter "github.com/samirrijal/ridekit/internal/adapters/nats"
	"github.com/samirrijal/ridekit/internal/adapters/overpass"
	"github.com/samirrijal/ridekit/internal/adapters/postgres"
	"github.com/samirrijal/ridekit/internal/adapters/valhalla"
	"github.com/samirrijal/ridekit/internal/adapters/valkey"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/config"
)

// Routing builds the routing collaborator selected by routing.provider.
func Routing(cfg config.RoutingConfig) (ports.RoutingService, error) {
	switch cfg.Provider {
	case "valhalla":
		return valhalla.New(cfg.ValhallaURL, &http.Client{Timeout: cfg.Timeout}), nil
	case "googlemaps":
		c, err := googlemaps.New(cfg.GoogleAPIKey)
		if err != nil {
			return nil, err
		}
		return c, nil
	}
	return nil, fmt.Errorf("unknown routing provider %q", cfg.Provider)
}

// Overpass builds the Overpass client used for road attributes and, unless
// the local store is selected, point features.
func Overpass(cfg config.OverpassConfig) *overpass.Client {
	return overpass.New(overpass.Options{
		URL:       cfg.URL,
		Timeout:   cfg.Timeout,
		UserAgent: cfg.UserAgent,
		RPS:       cfg.RPS,
		Burst:     cfg.Burst,
	})
}

// Infra holds the optional shared infrastructure. Any field may be nil when
// the backing service is disabled or unreachable.
type Infra struct {
	DB        *postgres.DB
	Cache     *valkey.Cache
	Publisher *natsadapter.Publisher
}

// Connect opens the database, cache and event bus. Failures are logged and
// leave the corresponding field nil; only a database required by
// poi.source=postgis is fatal.
func Connect(ctx context.Context, cfg *config.Config) (*Infra, error) {
	in := &Infra{}

	db, err := postgres.New(ctx, cfg.Database.DSN())
	switch {
	case err == nil:
		in.DB = db
	case cfg.POI.Source == "postgis":
		return nil, fmt.Errorf("database required for poi.source=postgis: %w", err)
	default:
		slog.Warn("database unavailable", "error", err)
	}

	if cfg.Valkey.Enabled {
		cache, err := valkey.New(cfg.Valkey.Addr)
		if err != nil {
			slog.Warn("valkey unavailable", "error", err)
		} else {
			in.Cache = cache
		}
	}

	if cfg.NATS.Enabled {
		pub, err := natsadapter.NewPublisher(cfg.NATS.URL)
		if err != nil {
			slog.Warn("nats unavailable", "error", err)
		} else {
			in.Publisher = pub
		}
	}
	return in, nil
}

// Close releases every open connection.
func (in *Infra) Close() {
	if in.Publisher != nil {
		in.Publisher.Close()
	}
	if in.Cache != nil {
		in.Cache.Close()
	}
	if in.DB != nil {
		in.DB.Close()
	}
}

// SharedCache returns the cache as a port, nil when absent.
func (in *Infra) SharedCache() ports.CacheService {
	if in == nil || in.Cache == nil {
		return nil
	}
	return in.Cache
}

// Events returns the publisher as a port, nil when absent.
func (in *Infra) Events() ports.EventPublisher {
	if in == nil || in.Publisher == nil {
		return nil
	}
	return in.Publisher
}

// Services is the wired application core.
type Services struct {
	Routing    ports.RoutingService
	Roads      ports.RoadAttributeService
	Features   ports.PointFeatureService
	Surface    *usecases.SurfaceService
	POIs       *usecases.POIService
	RoundTrips *usecases.RoundTripService
}

// NewServices wires the use cases on top of in. in may be nil for a
// standalone process without shared infrastructure.
func NewServices(cfg *config.Config, in *Infra) (*Services, error) {
	routing, err := Routing(cfg.Routing)
	if err != nil {
		return nil, err
	}
	op := Overpass(cfg.Overpass)

	var features ports.PointFeatureService = op
	if cfg.POI.Source == "postgis" {
		if in == nil || in.DB == nil {
			return nil, fmt.Errorf("poi.source=postgis needs a database")
		}
		features = postgres.NewFeatureRepo(in.DB)
	}

	shared, events := in.SharedCache(), in.Events()

	surface := usecases.NewSurfaceService(op, shared, events, usecases.SurfaceOptions{
		SegmentLengthMeters: cfg.Analysis.SegmentLengthMeters,
		BBoxBufferDegrees:   cfg.Analysis.BBoxBufferDegrees,
		BatchSize:           cfg.Analysis.BatchSize,
		BatchInterval:       cfg.Analysis.BatchInterval,
		QueryTimeout:        cfg.Analysis.QueryTimeout,
		CacheSize:           cfg.Analysis.CacheSize,
		CacheTTL:            cfg.Analysis.CacheTTL,
	})
	pois := usecases.NewPOIService(features, shared, events, usecases.POIOptions{
		DefaultRadiusMeters: cfg.POI.DefaultRadiusMeters,
		MaxResults:          cfg.POI.MaxResults,
		QueryTimeout:        cfg.POI.QueryTimeout,
	})
	roundTrips := usecases.NewRoundTripService(routing, features, pois, events, usecases.RoundTripOptions{
		Tolerance:    cfg.RoundTrip.Tolerance,
		MaxAttempts:  cfg.RoundTrip.MaxAttempts,
		RouteTimeout: cfg.RoundTrip.RouteTimeout,
	})

	return &Services{
		Routing:    routing,
		Roads:      op,
		Features:   features,
		Surface:    surface,
		POIs:       pois,
		RoundTrips: roundTrips,
	}, nil
}
