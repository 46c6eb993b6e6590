package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"go.temporal.io/sdk/client"

	"github.com/samirrijal/ridekit/internal/adapters/http"
	natsadapter "github.com/samirrijal/ridekit/internal/adapters/nats"
	"github.com/samirrijal/ridekit/internal/bootstrap"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/config"
	"github.com/samirrijal/ridekit/internal/pkg/logging"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
	"github.com/samirrijal/ridekit/internal/workflows"
)

func main() {
	cfg, err := config.Load("ridekit-api")
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Telemetry
	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	// Database, cache, event bus
	infra, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("infrastructure: %v", err)
	}
	defer infra.Close()

	svc, err := bootstrap.NewServices(cfg, infra)
	if err != nil {
		log.Fatalf("services: %v", err)
	}

	// Raw NATS connection for WebSocket relay
	natsConn, err := natsadapter.RawConn(cfg.NATS.URL)
	if err != nil {
		slog.Warn("nats ws conn unavailable", "error", err)
	} else {
		defer natsConn.Close()
	}

	deps := &http.Dependencies{
		Surface:         svc.Surface,
		POIs:            svc.POIs,
		RoundTrips:      svc.RoundTrips,
		NATS:            natsConn,
		DB:              infra.DB,
		Cache:           infra.Cache,
		RoutingProvider: cfg.Routing.Provider,
		RequestTimeout:  cfg.Server.RequestTimeout,
		RateLimit:       cfg.Server.RateLimit,
	}

	// Temporal for asynchronous round trips
	if cfg.Temporal.Enabled {
		tc, err := client.Dial(client.Options{
			HostPort:  cfg.Temporal.HostPort,
			Namespace: cfg.Temporal.Namespace,
		})
		if err != nil {
			slog.Warn("temporal unavailable, async round trips disabled", "error", err)
		} else {
			defer tc.Close()
			deps.Runner = workflows.NewRunner(tc, cfg.Temporal.TaskQueue, cfg.RoundTrip.Tolerance, cfg.RoundTrip.MaxAttempts)
		}
	}

	// Attempt progress for running async round trips
	if deps.Runner != nil && natsConn != nil {
		sub, err := natsadapter.NewSubscriber(natsConn, "")
		if err == nil {
			progress := usecases.NewRoundTripProgress(cfg.Analysis.CacheSize, time.Hour)
			err = progress.Follow(ctx, sub)
			if err == nil {
				deps.Progress = progress
				defer sub.Close()
			}
		}
		if err != nil {
			slog.Warn("round-trip progress unavailable", "error", err)
		}
	}

	// Pool gauges
	if infra.DB != nil {
		go func() {
			ticker := time.NewTicker(15 * time.Second)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					infra.DB.ReportStats()
				}
			}
		}()
	}

	// Fiber
	app := fiber.New(fiber.Config{
		ReadTimeout:  time.Duration(cfg.Server.ReadTimeout) * time.Second,
		WriteTimeout: time.Duration(cfg.Server.WriteTimeout) * time.Second,
		BodyLimit:    8 * 1024 * 1024, // GPX uploads
		AppName:      "ridekit API",
	})
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins:     "*",
		AllowMethods:     "GET,POST,OPTIONS",
		AllowHeaders:     "Origin, Content-Type, Accept, Authorization, X-Request-ID",
		AllowCredentials: false,
		MaxAge:           3600,
	}))

	http.SetupRoutes(app, deps)

	// Graceful shutdown
	go func() {
		addr := fmt.Sprintf(":%d", cfg.Server.Port)
		slog.Info("API server starting", "addr", addr, "routing", cfg.Routing.Provider, "poi_source", cfg.POI.Source)
		if err := app.Listen(addr); err != nil {
			log.Fatalf("listen: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	sig := <-quit

	slog.Info("shutdown signal received, draining connections...", "signal", sig.String())

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		slog.Error("forced shutdown", "error", err)
	}

	slog.Info("server stopped")
}
