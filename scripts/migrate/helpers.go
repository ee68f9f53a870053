package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"net/url"
	"os"
	"time"

	"github.com/jackc/pgx/v5"
)

// parseTime parses a SQLite datetime string to time.Time.
func parseTime(s string) time.Time {
	t, err := time.Parse("2006-01-02 15:04:05", s)
	if err != nil {
		slog.Warn("unparseable time, using now", "value", s)
		return time.Now()
	}
	return t.UTC()
}

// sanitizeURL removes credentials from a database URL for display.
func sanitizeURL(raw string) string {
	u, err := url.Parse(raw)
	if err != nil {
		return "[unparseable URL]"
	}
	u.User = nil
	return u.String()
}

// envOr returns the environment variable value or a default.
func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// allowedTables is the set of table names that countRows may query.
var allowedTables = map[string]bool{
	"legacy_change_log": true,
}

// countRows counts rows in a table.
func countRows(ctx context.Context, tx pgx.Tx, table string) (int, error) {
	if !allowedTables[table] {
		return 0, fmt.Errorf("disallowed table name: %s", table)
	}

	var count int
	sanitized := pgx.Identifier{table}.Sanitize()
	err := tx.QueryRow(ctx,
		fmt.Sprintf("SELECT count(*) FROM %s", sanitized),
	).Scan(&count)
	return count, err
}

// spotCheck verifies 5 random entries match between SQLite and PostgreSQL.
func spotCheck(ctx context.Context, tx pgx.Tx, entries []legacyEntry) ([]string, error) {
	if len(entries) == 0 {
		return nil, nil
	}
	count := min(5, len(entries))
	indices := rand.Perm(len(entries))[:count]
	var checks []string

	for _, idx := range indices {
		e := entries[idx]
		var pgType string
		var pgActor int64
		var pgCreated time.Time
		err := tx.QueryRow(ctx,
			`SELECT entity_type, actor_id, created_at FROM legacy_change_log WHERE id = $1`,
			e.ID,
		).Scan(&pgType, &pgActor, &pgCreated)
		if err != nil {
			checks = append(checks, fmt.Sprintf("FAIL #%d: not found in postgres: %v", e.ID, err))
			continue
		}
		if pgType == e.EntityType && pgActor == e.ActorID && pgCreated.UTC().Equal(e.createdAt) {
			checks = append(checks, fmt.Sprintf("OK   #%d: type=%s, actor=%d", e.ID, pgType, pgActor))
		} else {
			checks = append(checks, fmt.Sprintf("FAIL #%d: mismatch: pg(%s/%d) vs sqlite(%s/%d)",
				e.ID, pgType, pgActor, e.EntityType, e.ActorID))
		}
	}
	return checks, nil
}

// printReport outputs the final migration summary.
func printReport(r *report) {
	fmt.Println()
	fmt.Println("=== Back-Office Change Log Migration Report ===")
	if r.DryRun {
		fmt.Println("MODE: DRY RUN (no changes made)")
	}
	fmt.Printf("Source: %s\n", r.Source)
	fmt.Printf("Target: %s\n", r.Target)
	fmt.Println()
	if r.EntriesSkipped > 0 {
		fmt.Printf("Entries: %d read, %d inserted (%d skipped), %d verified\n",
			r.EntriesRead, r.EntriesInserted, r.EntriesSkipped, r.EntriesVerified)
	} else {
		fmt.Printf("Entries: %d read, %d inserted, %d verified\n",
			r.EntriesRead, r.EntriesInserted, r.EntriesVerified)
	}

	if len(r.SkippedEntries) > 0 {
		fmt.Println("\nSkipped entries:")
		for _, s := range r.SkippedEntries {
			fmt.Printf("  - #%d (reason: %s)\n", s.ID, s.Reason)
		}
	}

	if len(r.SpotChecks) > 0 {
		fmt.Println("\nSpot checks:")
		for _, c := range r.SpotChecks {
			fmt.Printf("  %s\n", c)
		}
	}

	fmt.Printf("\nDuration: %.1fs\n", r.Duration.Seconds())
	if r.Err != nil {
		fmt.Printf("Status: FAILED: %v\n", r.Err)
	} else {
		fmt.Println("Status: SUCCESS")
	}
}

// nullJSON validates an optional JSON column. NULL and empty stay NULL, and
// malformed payloads degrade to NULL with a warning instead of aborting.
func nullJSON(s sql.NullString) any {
	if !s.Valid || s.String == "" {
		return nil
	}
	var js json.RawMessage
	if json.Unmarshal([]byte(s.String), &js) != nil {
		slog.Warn("invalid JSON payload, storing NULL", "value", s.String)
		return nil
	}
	return s.String
}
