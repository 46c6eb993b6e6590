package main

import (
	"context"
	"log"
	"log/slog"
	"os"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/samirrijal/ridekit/internal/pkg/config"
	"github.com/samirrijal/ridekit/internal/pkg/logging"
	"github.com/samirrijal/ridekit/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down>")
	}

	cfg, err := config.Load("ridekit-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	ctx := context.Background()
	pool, err := pgxpool.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()

	// One connection, so the advisory lock and its release share a session.
	conn, err := pool.Acquire(ctx)
	if err != nil {
		log.Fatalf("acquire connection: %v", err)
	}
	defer conn.Release()

	switch os.Args[1] {
	case "up":
		applied, err := migrations.Up(ctx, conn)
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		slog.Info("migrations up to date", "applied", len(applied))
	case "down":
		name, err := migrations.Down(ctx, conn)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		if name == "" {
			slog.Info("nothing to roll back")
		}
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
