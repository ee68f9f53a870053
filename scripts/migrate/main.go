// Package main provides a standalone migration script that reads the change
// log of a legacy SQLite back-office install and writes it into the
// PostgreSQL compatibility ledger.
//
// Usage:
//
//	SQLITE_PATH=/path/to/backoffice.sqlite DATABASE_URL=postgres://... go run ./scripts/migrate
package main

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
	_ "modernc.org/sqlite"
)

// config holds environment-driven migration settings.
type config struct {
	SQLitePath  string
	DatabaseURL string
	DryRun      bool
}

// skippedEntry records a legacy row that was skipped during migration.
type skippedEntry struct {
	ID     int64
	Reason string
}

// report holds the final migration summary.
type report struct {
	Source          string
	Target          string
	EntriesRead     int
	EntriesInserted int
	EntriesSkipped  int
	EntriesVerified int
	SkippedEntries  []skippedEntry
	SpotChecks      []string
	Duration        time.Duration
	DryRun          bool
	Err             error
}

func main() {
	cfg := loadConfig()
	if cfg.DatabaseURL == "" {
		slog.Error("DATABASE_URL is required")
		os.Exit(1)
	}

	slog.Info("starting migration",
		"sqlite", cfg.SQLitePath,
		"dry_run", cfg.DryRun,
	)

	start := time.Now()
	r, err := runMigration(context.Background(), cfg)
	r.Duration = time.Since(start)
	if err != nil {
		r.Err = err
		slog.Error("migration failed", "error", err)
	}
	printReport(&r)
	if err != nil {
		os.Exit(1)
	}
}

// loadConfig reads configuration from environment variables.
func loadConfig() config {
	return config{
		SQLitePath:  envOr("SQLITE_PATH", "backoffice.sqlite"),
		DatabaseURL: envOr("DATABASE_URL", ""),
		DryRun:      os.Getenv("DRY_RUN") == "true" || os.Getenv("DRY_RUN") == "1",
	}
}

// runMigration executes the full migration pipeline.
func runMigration(ctx context.Context, cfg config) (report, error) {
	r := report{
		Source: cfg.SQLitePath,
		Target: sanitizeURL(cfg.DatabaseURL),
		DryRun: cfg.DryRun,
	}

	// Open SQLite (read-only).
	lite, err := sql.Open("sqlite", cfg.SQLitePath+"?mode=ro")
	if err != nil {
		return r, fmt.Errorf("open sqlite: %w", err)
	}
	defer lite.Close()

	entries, skipped, err := readEntries(ctx, lite)
	if err != nil {
		return r, fmt.Errorf("read legacy entries: %w", err)
	}
	r.EntriesRead = len(entries) + len(skipped)
	r.EntriesSkipped = len(skipped)
	r.SkippedEntries = skipped
	slog.Info("read legacy entries from sqlite", "count", r.EntriesRead, "skipped", r.EntriesSkipped)

	if cfg.DryRun {
		slog.Info("dry run, skipping PostgreSQL writes")
		r.EntriesInserted = len(entries)
		return r, nil
	}

	// Connect to PostgreSQL and run in a transaction.
	conn, err := pgx.Connect(ctx, cfg.DatabaseURL)
	if err != nil {
		return r, fmt.Errorf("connect postgres: %w", err)
	}
	defer conn.Close(ctx)

	tx, err := conn.Begin(ctx)
	if err != nil {
		return r, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	if err := insertEntries(ctx, tx, entries); err != nil {
		return r, fmt.Errorf("insert entries: %w", err)
	}
	r.EntriesInserted = len(entries)
	slog.Info("inserted entries", "count", r.EntriesInserted)

	// Verify counts.
	r.EntriesVerified, err = countRows(ctx, tx, "legacy_change_log")
	if err != nil {
		return r, fmt.Errorf("verify entry count: %w", err)
	}

	// Spot-check random entries.
	r.SpotChecks, err = spotCheck(ctx, tx, entries)
	if err != nil {
		return r, fmt.Errorf("spot check: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return r, fmt.Errorf("commit: %w", err)
	}
	slog.Info("transaction committed")
	return r, nil
}
