package api_test

import (
	"context"

	"github.com/orderdesk/backoffice/internal/models"
)

// mockRecorder implements domain.Recorder for testing.
type mockRecorder struct {
	recordFn func(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeRecord, error)
}

func (m *mockRecorder) Record(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeRecord, error) {
	return m.recordFn(ctx, req)
}

// mockQuery implements domain.ChangeLogQuery for testing.
type mockQuery struct {
	listFn func(ctx context.Context, f models.ChangeLogFilter) (*models.ChangeLogPage, error)
}

func (m *mockQuery) List(ctx context.Context, f models.ChangeLogFilter) (*models.ChangeLogPage, error) {
	return m.listFn(ctx, f)
}

// mockAdmin implements domain.ChangeLogAdmin for testing.
type mockAdmin struct {
	purgeFn func(ctx context.Context, retentionDays int) (int, error)
}

func (m *mockAdmin) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	return m.purgeFn(ctx, retentionDays)
}

// mockPropagator implements domain.Propagator for testing.
type mockPropagator struct {
	serviceKitFn    func(ctx context.Context, req models.ServiceKitChangeRequest) (int, error)
	bookingFn       func(ctx context.Context, req models.BookingChangeRequest) (int, error)
	bookingDeleteFn func(ctx context.Context, req models.BookingDeleteRequest) (int, error)
}

func (m *mockPropagator) ServiceKitChanged(ctx context.Context, req models.ServiceKitChangeRequest) (int, error) {
	return m.serviceKitFn(ctx, req)
}

func (m *mockPropagator) BookingChanged(ctx context.Context, req models.BookingChangeRequest) (int, error) {
	return m.bookingFn(ctx, req)
}

func (m *mockPropagator) BookingDeleted(ctx context.Context, req models.BookingDeleteRequest) (int, error) {
	return m.bookingDeleteFn(ctx, req)
}
