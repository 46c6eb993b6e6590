// Package migrations applies the embedded PostGIS schema.
package migrations

import (
	"context"
	"embed"
	"fmt"
	"io/fs"
	"log/slog"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

//go:embed *.sql
var files embed.FS

const (
	downSuffix = ".down.sql"
	lockID     = 4_271_301
)

// DB is the subset of pgxpool.Pool the migrator needs.
type DB interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
}

// UpFiles lists the forward migrations in apply order.
func UpFiles(fsys fs.FS) ([]string, error) {
	entries, err := fs.ReadDir(fsys, ".")
	if err != nil {
		return nil, err
	}
	var names []string
	for _, e := range entries {
		n := e.Name()
		if e.IsDir() || !strings.HasSuffix(n, ".sql") || strings.HasSuffix(n, downSuffix) {
			continue
		}
		names = append(names, n)
	}
	sort.Strings(names)
	return names, nil
}

// Pending filters out the migrations already recorded as applied.
func Pending(all []string, applied map[string]bool) []string {
	var out []string
	for _, n := range all {
		if !applied[n] {
			out = append(out, n)
		}
	}
	return out
}

// DownFile is the rollback script paired with an up migration.
func DownFile(up string) string {
	return strings.TrimSuffix(up, ".sql") + downSuffix
}

// Up applies every pending migration and returns the names applied.
func Up(ctx context.Context, db DB) ([]string, error) {
	var done []string
	err := locked(ctx, db, func() error {
		all, err := UpFiles(files)
		if err != nil {
			return fmt.Errorf("list migrations: %w", err)
		}
		applied, err := appliedMigrations(ctx, db)
		if err != nil {
			return err
		}
		for _, name := range Pending(all, applied) {
			data, err := files.ReadFile(name)
			if err != nil {
				return fmt.Errorf("read %s: %w", name, err)
			}
			if _, err := db.Exec(ctx, string(data)); err != nil {
				return fmt.Errorf("apply %s: %w", name, err)
			}
			if _, err := db.Exec(ctx, `INSERT INTO schema_migrations (filename) VALUES ($1)`, name); err != nil {
				return fmt.Errorf("record %s: %w", name, err)
			}
			slog.Info("migration applied", "file", name)
			done = append(done, name)
		}
		return nil
	})
	return done, err
}

// Down rolls back the most recently applied migration that has a rollback
// script. It returns the name rolled back, or "" when nothing can be.
func Down(ctx context.Context, db DB) (string, error) {
	var rolled string
	err := locked(ctx, db, func() error {
		applied, err := appliedMigrations(ctx, db)
		if err != nil {
			return err
		}
		names := make([]string, 0, len(applied))
		for n := range applied {
			names = append(names, n)
		}
		sort.Sort(sort.Reverse(sort.StringSlice(names)))

		for _, name := range names {
			data, err := files.ReadFile(DownFile(name))
			if err != nil {
				continue
			}
			if _, err := db.Exec(ctx, string(data)); err != nil {
				return fmt.Errorf("roll back %s: %w", name, err)
			}
			if _, err := db.Exec(ctx, `DELETE FROM schema_migrations WHERE filename = $1`, name); err != nil {
				return fmt.Errorf("unrecord %s: %w", name, err)
			}
			slog.Info("migration rolled back", "file", name)
			rolled = name
			return nil
		}
		return nil
	})
	return rolled, err
}

// locked runs fn under a session advisory lock so overlapping deploys do
// not migrate concurrently.
func locked(ctx context.Context, db DB, fn func() error) error {
	if _, err := db.Exec(ctx, `SELECT pg_advisory_lock($1)`, lockID); err != nil {
		return fmt.Errorf("acquire migration lock: %w", err)
	}
	defer func() {
		if _, err := db.Exec(context.Background(), `SELECT pg_advisory_unlock($1)`, lockID); err != nil {
			slog.Warn("release migration lock", "error", err)
		}
	}()

	if _, err := db.Exec(ctx, `
		CREATE TABLE IF NOT EXISTS schema_migrations (
			filename   TEXT PRIMARY KEY,
			applied_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`); err != nil {
		return fmt.Errorf("ensure schema_migrations: %w", err)
	}
	return fn()
}

func appliedMigrations(ctx context.Context, db DB) (map[string]bool, error) {
	rows, err := db.Query(ctx, `SELECT filename FROM schema_migrations`)
	if err != nil {
		return nil, fmt.Errorf("query applied migrations: %w", err)
	}
	defer rows.Close()

	applied := make(map[string]bool)
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("scan migration row: %w", err)
		}
		applied[name] = true
	}
	return applied, rows.Err()
}
