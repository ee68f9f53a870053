package main

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
)

// knownEntityTypes is what the legacy install logged. Rows with anything
// else are skipped rather than imported blind.
var knownEntityTypes = map[string]bool{
	"user":       true,
	"department": true,
	"product":    true,
	"order":      true,
}

// legacyEntry is one change-log row read from the legacy SQLite install.
type legacyEntry struct {
	ID         int64
	EntityType string
	EntityID   sql.NullInt64
	ActorID    int64
	Before     sql.NullString
	After      sql.NullString
	Created    string

	createdAt time.Time
}

// readEntries reads all change_log rows from SQLite, splitting off rows
// that cannot be imported.
func readEntries(ctx context.Context, db *sql.DB) ([]legacyEntry, []skippedEntry, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, entity_type, entity_id, user_id, before, after, created_at
		 FROM change_log
		 ORDER BY id`)
	if err != nil {
		return nil, nil, err
	}
	defer rows.Close()

	var entries []legacyEntry
	var skipped []skippedEntry
	for rows.Next() {
		var e legacyEntry
		if err := rows.Scan(&e.ID, &e.EntityType, &e.EntityID, &e.ActorID,
			&e.Before, &e.After, &e.Created); err != nil {
			return nil, nil, fmt.Errorf("scan entry: %w", err)
		}

		if !knownEntityTypes[e.EntityType] {
			skipped = append(skipped, skippedEntry{ID: e.ID, Reason: "unknown entity type " + e.EntityType})
			continue
		}
		if e.ActorID <= 0 {
			skipped = append(skipped, skippedEntry{ID: e.ID, Reason: "missing actor"})
			continue
		}

		e.createdAt = parseTime(e.Created)
		entries = append(entries, e)
	}
	return entries, skipped, rows.Err()
}

// insertEntries batch-inserts legacy entries into PostgreSQL in groups of 100.
func insertEntries(ctx context.Context, tx pgx.Tx, entries []legacyEntry) error {
	const batchSize = 100
	for i := 0; i < len(entries); i += batchSize {
		end := min(i+batchSize, len(entries))
		if err := insertEntryBatch(ctx, tx, entries[i:end]); err != nil {
			return fmt.Errorf("batch %d-%d: %w", i, end, err)
		}
	}
	return nil
}

// insertEntryBatch inserts a single batch of entries. Legacy ids are kept so
// reruns are idempotent.
func insertEntryBatch(ctx context.Context, tx pgx.Tx, batch []legacyEntry) error {
	for i := range batch {
		e := &batch[i]

		var entityID *int64
		if e.EntityID.Valid {
			entityID = &e.EntityID.Int64
		}

		_, err := tx.Exec(ctx,
			`INSERT INTO legacy_change_log (id, entity_type, entity_id, actor_id, before, after, created_at)
			 VALUES ($1,$2,$3,$4,$5,$6,$7)
			 ON CONFLICT (id) DO NOTHING`,
			e.ID, e.EntityType, entityID, e.ActorID,
			nullJSON(e.Before), nullJSON(e.After), e.createdAt,
		)
		if err != nil {
			return fmt.Errorf("insert entry %d: %w", e.ID, err)
		}
	}
	return nil
}
