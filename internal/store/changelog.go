package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/backoffice/internal/models"
)

// ChangeLogStore provides data access for the canonical change_log ledger
// and the narrow legacy_change_log compatibility ledger.
type ChangeLogStore struct {
	Base
}

// NewChangeLogStore creates a ChangeLogStore.
func NewChangeLogStore(base Base) *ChangeLogStore {
	return &ChangeLogStore{Base: base}
}

// changeLogColumns lists the columns selected for change record queries.
const changeLogColumns = `id, entity_type, entity_id, actor_id, scope_department_id,
	message, snapshot_before, snapshot_after, actor_snapshot, actions, created_at`

// InsertRecord persists a change record in its own transaction and sends
// the live-tail notification after commit.
func (s *ChangeLogStore) InsertRecord(ctx context.Context, rec models.ChangeRecord) (*models.ChangeRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	stored, err := s.InsertRecordTx(ctx, tx, rec)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing change record: %w", err)
	}

	s.notify(stored.ID, string(stored.EntityType))

	return stored, nil
}

// InsertRecordTx persists a change record within the caller's transaction,
// so the record commits atomically with the business mutation it describes.
// For first-class entity types it dual-writes the legacy ledger in the same
// transaction. The caller owns commit; no notification is sent here.
func (s *ChangeLogStore) InsertRecordTx(ctx context.Context, tx pgx.Tx, rec models.ChangeRecord) (*models.ChangeRecord, error) {
	beforeJSON, err := marshalSnapshot(rec.Before)
	if err != nil {
		return nil, err
	}

	afterJSON, err := marshalSnapshot(rec.After)
	if err != nil {
		return nil, err
	}

	actorJSON, err := json.Marshal(rec.Actor)
	if err != nil {
		return nil, fmt.Errorf("marshalling actor snapshot: %w", err)
	}

	var actions []string
	for _, a := range rec.Actions {
		actions = append(actions, string(a))
	}

	err = tx.QueryRow(ctx, `
		INSERT INTO change_log (entity_type, entity_id, actor_id, scope_department_id,
			message, snapshot_before, snapshot_after, actor_snapshot, actions)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		RETURNING id, created_at`,
		rec.EntityType, rec.EntityID, rec.ActorID, rec.ScopeDepartmentID,
		rec.Message, beforeJSON, afterJSON, actorJSON, actions,
	).Scan(&rec.ID, &rec.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("inserting change record: %w", err)
	}

	if rec.EntityType.FirstClass() {
		_, err = tx.Exec(ctx, `
			INSERT INTO legacy_change_log (entity_type, entity_id, actor_id, before, after, created_at)
			VALUES ($1, $2, $3, $4, $5, $6)`,
			rec.EntityType, rec.EntityID, rec.ActorID, beforeJSON, afterJSON, rec.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("inserting legacy change record: %w", err)
		}
	}

	return &rec, nil
}

// buildRecordFilter builds the WHERE clause for the indexable predicates of
// a ChangeLogFilter. Free-text, tag, and pagination filters are applied by
// the query service after scanning.
func buildRecordFilter(f models.ChangeLogFilter) (where string, args []any) {
	var conditions []string
	argIdx := 1

	if f.EntityType != "" {
		conditions = append(conditions, "entity_type = $"+strconv.Itoa(argIdx))
		args = append(args, f.EntityType)
		argIdx++
	}
	if f.EntityID != nil {
		conditions = append(conditions, "entity_id = $"+strconv.Itoa(argIdx))
		args = append(args, *f.EntityID)
		argIdx++
	}
	if f.ScopeDepartmentID != nil {
		conditions = append(conditions, "scope_department_id = $"+strconv.Itoa(argIdx))
		args = append(args, *f.ScopeDepartmentID)
		argIdx++
	}
	if f.From != nil {
		conditions = append(conditions, "created_at >= $"+strconv.Itoa(argIdx))
		args = append(args, *f.From)
		argIdx++
	}
	if f.To != nil {
		conditions = append(conditions, "created_at <= $"+strconv.Itoa(argIdx))
		args = append(args, *f.To)
		argIdx++
	}

	if len(conditions) > 0 {
		where = "WHERE " + strings.Join(conditions, " AND ")
	}

	return where, args
}

// QueryRecords returns all records matching the filter's indexable
// predicates, newest first (created_at DESC, id DESC). Pagination happens
// in the query service, after the non-index-backed filters ran.
func (s *ChangeLogStore) QueryRecords(ctx context.Context, f models.ChangeLogFilter) ([]models.ChangeRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginReadTx(ctx)
	if err != nil {
		return nil, fmt.Errorf("beginning read transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	where, args := buildRecordFilter(f)

	query := fmt.Sprintf(
		"SELECT %s FROM change_log %s ORDER BY created_at DESC, id DESC",
		changeLogColumns, where,
	)

	rows, err := tx.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying change log: %w", err)
	}
	defer rows.Close()

	var records []models.ChangeRecord

	for rows.Next() {
		rec, err := scanChangeRecord(rows.Scan)
		if err != nil {
			return nil, err
		}

		records = append(records, *rec)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating change log rows: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, fmt.Errorf("committing change log query: %w", err)
	}

	return records, nil
}

// GetRecord returns a single change record by id.
func (s *ChangeLogStore) GetRecord(ctx context.Context, id int64) (*models.ChangeRecord, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	row := s.Pool.QueryRow(ctx,
		fmt.Sprintf("SELECT %s FROM change_log WHERE id = $1", changeLogColumns), id)

	rec, err := scanChangeRecord(row.Scan)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrRecordNotFound
		}

		return nil, err
	}

	return rec, nil
}

// purgeBatchSize limits the number of rows deleted per transaction to avoid
// holding long locks on the ledgers.
const purgeBatchSize = 5000

// PurgeOldEntries deletes change records older than retentionDays from both
// ledgers in batches. Irreversible. Returns the number of deleted canonical
// records.
func (s *ChangeLogStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	var totalDeleted int

	for {
		batchCtx, cancel := withTimeout(ctx)

		deleted, err := s.purgeBatch(batchCtx, retentionDays)
		cancel()

		if err != nil {
			return totalDeleted, err
		}

		totalDeleted += deleted
		if deleted < purgeBatchSize {
			break
		}
	}

	return totalDeleted, nil
}

func (s *ChangeLogStore) purgeBatch(ctx context.Context, retentionDays int) (int, error) {
	tx, err := s.beginTx(ctx)
	if err != nil {
		return 0, fmt.Errorf("beginning purge transaction: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback on early return.

	tag, err := tx.Exec(ctx,
		`DELETE FROM change_log WHERE ctid IN (
			SELECT ctid FROM change_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging change records: %w", err)
	}

	_, err = tx.Exec(ctx,
		`DELETE FROM legacy_change_log WHERE ctid IN (
			SELECT ctid FROM legacy_change_log
			WHERE created_at < NOW() - make_interval(days => $1)
			LIMIT $2
		)`,
		retentionDays, purgeBatchSize,
	)
	if err != nil {
		return 0, fmt.Errorf("purging legacy change records: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("committing purge: %w", err)
	}

	return int(tag.RowsAffected()), nil
}

// marshalSnapshot encodes a snapshot for JSONB storage; nil stays NULL.
func marshalSnapshot(s *models.Snapshot) ([]byte, error) {
	if s == nil {
		return nil, nil
	}

	data, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s snapshot: %w", s.EntityType, err)
	}

	return data, nil
}
