package main

import (
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"sync/atomic"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/samirrijal/ridekit/internal/adapters/postgres"
	"github.com/samirrijal/ridekit/internal/bootstrap"
	"github.com/samirrijal/ridekit/internal/core/domain"
	"github.com/samirrijal/ridekit/internal/core/ports"
	"github.com/samirrijal/ridekit/internal/core/usecases"
	"github.com/samirrijal/ridekit/internal/pkg/config"
	"github.com/samirrijal/ridekit/internal/pkg/logging"
)

const (
	// tileDegrees keeps each Overpass query well below the server's area limits.
	tileDegrees = 0.1
	concurrency = 4
)

// Imports the point features behind the POI categories into the local
// PostGIS store, so poi.source=postgis can serve searches offline.
//
//	ingestor <minLat,minLng,maxLat,maxLng> [category,category,...]
func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: ingestor <minLat,minLng,maxLat,maxLng> [categories]")
	}

	cfg, err := config.Load("ridekit-ingestor")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	logging.Setup(cfg.Telemetry.ServiceName, cfg.Log.Level, cfg.Log.Format)

	bounds, err := domain.ParseBounds(os.Args[1])
	if err != nil {
		log.Fatalf("bounds: %v", err)
	}

	var names []string
	if len(os.Args) > 2 {
		for _, s := range strings.Split(os.Args[2], ",") {
			names = append(names, strings.TrimSpace(s))
		}
	}
	cats, err := usecases.ResolveCategories(names)
	if err != nil {
		log.Fatalf("categories: %v", err)
	}
	rules := usecases.UnionRules(cats)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := postgres.New(ctx, cfg.Database.DSN())
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	repo := postgres.NewFeatureRepo(db)
	op := bootstrap.Overpass(cfg.Overpass)

	tiles := bounds.Tiles(tileDegrees)
	slog.Info("ingestion starting", "tiles", len(tiles), "categories", len(cats), "bounds", bounds.Key())

	start := time.Now()
	var imported, failed atomic.Int64

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(concurrency)
	for i, tile := range tiles {
		g.Go(func() error {
			n, err := ingestTile(gctx, op, repo, tile, rules)
			if err != nil {
				if gctx.Err() != nil {
					return gctx.Err()
				}
				// One bad tile does not abort the import.
				failed.Add(1)
				slog.Warn("tile failed", "tile", i, "bbox", tile.Key(), "error", err)
				return nil
			}
			imported.Add(int64(n))
			slog.Debug("tile imported", "tile", i, "features", n)
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		log.Fatalf("ingestion interrupted: %v", err)
	}

	total, err := repo.Count(ctx)
	if err != nil {
		slog.Warn("count features", "error", err)
	}
	slog.Info("ingestion complete",
		"imported", imported.Load(),
		"failed_tiles", failed.Load(),
		"stored_total", total,
		"duration", time.Since(start).Round(time.Millisecond).String(),
	)
}

func ingestTile(ctx context.Context, src ports.PointFeatureService, repo ports.PointFeatureRepository, tile domain.Bounds, rules []domain.TagRule) (int, error) {
	features, err := src.FeaturesInBounds(ctx, tile, rules)
	if err != nil {
		return 0, fmt.Errorf("overpass: %w", err)
	}
	if len(features) == 0 {
		return 0, nil
	}
	if err := repo.UpsertBatch(ctx, features); err != nil {
		return 0, fmt.Errorf("upsert: %w", err)
	}
	return len(features), nil
}
