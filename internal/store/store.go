// Package store provides focused, single-concern data access stores for
// the back-office change log.
//
// Each store owns one domain (the change ledger, business-entity reads)
// and embeds shared helpers (Pool, logger) via the Base struct. Stores
// never import each other; shared logic lives in this file.
package store

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/dbpool"
)

const defaultQueryTimeout = 30 * time.Second

// Base contains shared dependencies for all stores.
// Embed this in each store struct.
type Base struct {
	Pool *dbpool.Pool
	Log  *logrus.Logger
}

// withTimeout creates a context with the default query timeout.
func withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return context.WithTimeout(ctx, defaultQueryTimeout)
}

// beginTx starts a read-write transaction.
func (b *Base) beginTx(ctx context.Context) (pgx.Tx, error) {
	return b.Pool.Begin(ctx)
}

// beginReadTx starts a read-only transaction.
func (b *Base) beginReadTx(ctx context.Context) (pgx.Tx, error) {
	return b.Pool.BeginTx(ctx, pgx.TxOptions{AccessMode: pgx.ReadOnly})
}

// beginViewTx starts a read-only transaction under snapshot isolation.
// Read committed takes a fresh snapshot per statement; repeatable read
// pins one, which multi-statement entity views rely on.
func (b *Base) beginViewTx(ctx context.Context) (pgx.Tx, error) {
	return b.Pool.BeginTx(ctx, pgx.TxOptions{IsoLevel: pgx.RepeatableRead, AccessMode: pgx.ReadOnly})
}

// notifyChannel is the pg_notify channel carrying appended change records
// for the live tail bridge.
const notifyChannel = "changelog_events"

// notify sends a pg_notify for a freshly appended record (best-effort,
// post-commit).
func (b *Base) notify(recordID int64, entityType string) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	payload, _ := json.Marshal(map[string]any{ //nolint:errcheck // static keys, cannot fail.
		"record_id":   recordID,
		"entity_type": entityType,
	})
	if _, err := b.Pool.Exec(ctx, "SELECT pg_notify($1, $2)", notifyChannel, string(payload)); err != nil {
		b.Log.WithError(err).Warn("failed to send change record notification")
	}
}
