package main

import (
	"context"
	"log"
	"log/slog"

	"go.temporal.io/sdk/client"
	"go.temporal.io/sdk/worker"

	"github.com/samirrijal/ridekit/internal/bootstrap"
	"github.com/samirrijal/ridekit/internal/pkg/config"
	"github.com/samirrijal/ridekit/internal/pkg/logging"
	"github.com/samirrijal/ridekit/internal/pkg/telemetry"
	"github.com/samirrijal/ridekit/internal/workflows"
)

func main() {
	cfg, err := config.Load("ridekit-worker")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()

	if cfg.Telemetry.Enabled {
		shutdown, err := telemetry.InitTracer(ctx, cfg.Telemetry.ServiceName, cfg.Telemetry.TempoAddr)
		if err != nil {
			slog.Warn("telemetry init failed", "error", err)
		} else {
			defer shutdown()
		}
	}

	infra, err := bootstrap.Connect(ctx, cfg)
	if err != nil {
		log.Fatalf("infrastructure: %v", err)
	}
	defer infra.Close()

	svc, err := bootstrap.NewServices(cfg, infra)
	if err != nil {
		log.Fatalf("services: %v", err)
	}

	// Connect to Temporal
	c, err := client.Dial(client.Options{
		HostPort:  cfg.Temporal.HostPort,
		Namespace: cfg.Temporal.Namespace,
	})
	if err != nil {
		log.Fatalf("temporal client: %v", err)
	}
	defer c.Close()

	taskQueue := cfg.Temporal.TaskQueue
	if taskQueue == "" {
		taskQueue = workflows.TaskQueue
	}
	w := worker.New(c, taskQueue, worker.Options{})

	// Register workflow & activities
	w.RegisterWorkflow(workflows.RoundTripWorkflow)
	w.RegisterActivity(&workflows.RoundTripActivities{
		Routing:      svc.Routing,
		Features:     svc.Features,
		POIs:         svc.POIs,
		Events:       infra.Events(),
		RouteTimeout: cfg.RoundTrip.RouteTimeout,
	})

	slog.Info("round-trip worker started", "task_queue", taskQueue, "routing", cfg.Routing.Provider)
	if err := w.Run(worker.InterruptCh()); err != nil {
		log.Fatalf("worker: %v", err)
	}
}
