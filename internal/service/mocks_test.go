package service

import (
	"context"
	"errors"
	"sync"

	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/backoffice/internal/models"
)

// mockLedger records calls and returns configured responses.
type mockLedger struct {
	mu    sync.Mutex
	calls []string

	insertRecord   func(ctx context.Context, rec models.ChangeRecord) (*models.ChangeRecord, error)
	insertRecordTx func(ctx context.Context, tx pgx.Tx, rec models.ChangeRecord) (*models.ChangeRecord, error)
}

func (m *mockLedger) record(name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, name)
}

func (m *mockLedger) InsertRecord(ctx context.Context, rec models.ChangeRecord) (*models.ChangeRecord, error) {
	m.record("InsertRecord")
	return m.insertRecord(ctx, rec)
}

func (m *mockLedger) InsertRecordTx(ctx context.Context, tx pgx.Tx, rec models.ChangeRecord) (*models.ChangeRecord, error) {
	m.record("InsertRecordTx")
	return m.insertRecordTx(ctx, tx, rec)
}

// mockActorResolver returns configured actor snapshots.
type mockActorResolver struct {
	getActor func(ctx context.Context, userID int64) (*models.ActorSnapshot, error)
}

func (m *mockActorResolver) GetActor(ctx context.Context, userID int64) (*models.ActorSnapshot, error) {
	return m.getActor(ctx, userID)
}

// mockCollector returns configured snapshots per entity type and id.
type mockCollector struct {
	mu    sync.Mutex
	calls []string

	collect func(ctx context.Context, entityType models.EntityType, id int64) (*models.Snapshot, error)
}

func (m *mockCollector) Collect(ctx context.Context, entityType models.EntityType, id int64) (*models.Snapshot, error) {
	m.mu.Lock()
	m.calls = append(m.calls, string(entityType))
	m.mu.Unlock()
	return m.collect(ctx, entityType, id)
}

// mockEntityReader serves propagation lookups.
type mockEntityReader struct {
	getServiceKit          func(ctx context.Context, id int64) (*models.ServiceKit, error)
	listServiceKitBookings func(ctx context.Context, kitID int64) ([]models.Booking, error)
}

func (m *mockEntityReader) GetServiceKit(ctx context.Context, id int64) (*models.ServiceKit, error) {
	return m.getServiceKit(ctx, id)
}

func (m *mockEntityReader) ListServiceKitBookings(ctx context.Context, kitID int64) ([]models.Booking, error) {
	return m.listServiceKitBookings(ctx, kitID)
}

// mockRecorder records every request it receives. failWhen makes selected
// requests fail, for exercising per-target failure isolation.
type mockRecorder struct {
	mu   sync.Mutex
	reqs []models.RecordChangeRequest

	err      error
	failWhen func(req models.RecordChangeRequest) bool
}

func (m *mockRecorder) Record(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeRecord, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reqs = append(m.reqs, req)
	if m.err != nil {
		return nil, m.err
	}
	if m.failWhen != nil && m.failWhen(req) {
		return nil, errors.New("insert failed")
	}
	return &models.ChangeRecord{ID: int64(len(m.reqs)), EntityType: req.EntityType}, nil
}

func (m *mockRecorder) getReqs() []models.RecordChangeRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	cp := make([]models.RecordChangeRequest, len(m.reqs))
	copy(cp, m.reqs)
	return cp
}

// mockQueryStore returns a configured record set.
type mockQueryStore struct {
	queryRecords func(ctx context.Context, f models.ChangeLogFilter) ([]models.ChangeRecord, error)
}

func (m *mockQueryStore) QueryRecords(ctx context.Context, f models.ChangeLogFilter) ([]models.ChangeRecord, error) {
	return m.queryRecords(ctx, f)
}

// mockDisplayResolver resolves display names from a fixed map keyed by
// entity id; missing ids report models.ErrEntityNotFound.
type mockDisplayResolver struct {
	names map[int64]string
}

func (m *mockDisplayResolver) DisplayName(_ context.Context, _ models.EntityType, id int64) (string, error) {
	if name, ok := m.names[id]; ok {
		return name, nil
	}
	return "", models.ErrEntityNotFound
}

// mockAdminStore returns a configured purge result.
type mockAdminStore struct {
	purgeOldEntries func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockAdminStore) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeOldEntries(ctx, retentionDays)
}
