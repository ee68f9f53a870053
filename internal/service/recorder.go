package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/classify"
	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/metrics"
	"github.com/orderdesk/backoffice/internal/models"
)

// RecorderStore is the ledger interface the Recorder depends on.
type RecorderStore interface {
	InsertRecord(ctx context.Context, rec models.ChangeRecord) (*models.ChangeRecord, error)
	InsertRecordTx(ctx context.Context, tx pgx.Tx, rec models.ChangeRecord) (*models.ChangeRecord, error)
}

// ActorResolver resolves acting principals into frozen snapshots.
type ActorResolver interface {
	GetActor(ctx context.Context, userID int64) (*models.ActorSnapshot, error)
}

// Compile-time check: *Recorder must satisfy domain.Recorder.
var _ domain.Recorder = (*Recorder)(nil)

// Recorder captures change records: it freezes the actor, fills in missing
// snapshots and action tags, and persists the record (plus the legacy
// dual-write, handled by the store).
type Recorder struct {
	store     RecorderStore
	actors    ActorResolver
	collector domain.SnapshotCollector
	log       *logrus.Logger
}

// NewRecorder creates a Recorder.
func NewRecorder(store RecorderStore, actors ActorResolver, collector domain.SnapshotCollector, log *logrus.Logger) *Recorder {
	return &Recorder{store: store, actors: actors, collector: collector, log: log}
}

// Record captures one change record in its own transaction.
func (r *Recorder) Record(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeRecord, error) {
	rec, err := r.buildRecord(ctx, req)
	if err != nil {
		return nil, err
	}

	stored, err := r.store.InsertRecord(ctx, *rec)
	if err != nil {
		return nil, err
	}

	r.logStored(stored)

	return stored, nil
}

// RecordTx captures one change record inside the caller's transaction, so
// the record commits or rolls back atomically with the business mutation
// it describes.
func (r *Recorder) RecordTx(ctx context.Context, tx pgx.Tx, req models.RecordChangeRequest) (*models.ChangeRecord, error) {
	rec, err := r.buildRecord(ctx, req)
	if err != nil {
		return nil, err
	}

	stored, err := r.store.InsertRecordTx(ctx, tx, *rec)
	if err != nil {
		return nil, err
	}

	r.logStored(stored)

	return stored, nil
}

// buildRecord validates the request and assembles the full record: actor
// snapshot first (fail closed), then scope, snapshots, and tags.
func (r *Recorder) buildRecord(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeRecord, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}

	// The actor snapshot is resolved and frozen before anything else. No
	// resolvable actor means no record: attribution is never fabricated.
	actor, err := r.actors.GetActor(ctx, req.ActorID)
	if err != nil {
		return nil, err
	}

	scope := req.ScopeDepartmentID
	if scope == nil {
		scope = actor.DepartmentID
	}

	before, after, err := r.resolveSnapshots(ctx, req)
	if err != nil {
		return nil, err
	}

	if before == nil && after == nil {
		return nil, models.ErrMissingSnapshots
	}

	actions := req.Actions
	if len(actions) == 0 {
		actions = classify.Classify(before, after)
	}

	return &models.ChangeRecord{
		EntityType:        req.EntityType,
		EntityID:          req.EntityID,
		ActorID:           req.ActorID,
		ScopeDepartmentID: scope,
		Message:           req.Message,
		Before:            before,
		After:             after,
		Actor:             *actor,
		Actions:           actions,
	}, nil
}

// resolveSnapshots returns the before/after pair: explicit snapshots are
// deep-copied (stored snapshots never alias live entities); missing ones
// are collected from current state when the caller asked for that. A
// vanished entity during collection degrades to "no snapshot".
func (r *Recorder) resolveSnapshots(ctx context.Context, req models.RecordChangeRequest) (before, after *models.Snapshot, err error) {
	before = req.Before.Clone()
	after = req.After.Clone()

	if before == nil && req.CollectBefore {
		before, err = r.collect(ctx, req)
		if err != nil {
			return nil, nil, fmt.Errorf("collecting before snapshot: %w", err)
		}
	}

	if after == nil && req.CollectAfter {
		after, err = r.collect(ctx, req)
		if err != nil {
			return nil, nil, fmt.Errorf("collecting after snapshot: %w", err)
		}
	}

	return before, after, nil
}

func (r *Recorder) collect(ctx context.Context, req models.RecordChangeRequest) (*models.Snapshot, error) {
	if req.EntityID == nil {
		return nil, nil
	}

	snap, err := r.collector.Collect(ctx, req.EntityType, *req.EntityID)
	if err != nil {
		if errors.Is(err, models.ErrEntityNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return snap, nil
}

func (r *Recorder) logStored(rec *models.ChangeRecord) {
	metrics.RecordsTotal.WithLabelValues(string(rec.EntityType)).Inc()

	r.log.WithFields(logrus.Fields{
		"record_id":   rec.ID,
		"entity_type": rec.EntityType,
		"entity_id":   rec.EntityID,
		"actor_id":    rec.ActorID,
		"actions":     rec.Actions,
	}).Info("changelog.record")
}
