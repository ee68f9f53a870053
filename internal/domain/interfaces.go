// Package domain defines the canonical service interfaces shared across
// API layers and the client SDK. Consumers should depend on these
// interfaces rather than re-declaring equivalent ones.
package domain

import (
	"context"

	"github.com/orderdesk/backoffice/internal/models"
)

// Recorder captures change records.
type Recorder interface {
	// Record resolves and freezes the actor, fills in missing snapshots
	// or action tags, and persists one immutable change record. Fails
	// closed with models.ErrActorNotFound when the actor cannot be
	// resolved.
	Record(ctx context.Context, req models.RecordChangeRequest) (*models.ChangeRecord, error)
}

// Propagator writes secondary, causally-linked records onto dependents of
// a changed entity. All operations are explicit, post-commit, best-effort,
// and never re-entrant: propagation never triggers further propagation.
// Each returns the number of secondary records written.
type Propagator interface {
	ServiceKitChanged(ctx context.Context, req models.ServiceKitChangeRequest) (int, error)
	BookingChanged(ctx context.Context, req models.BookingChangeRequest) (int, error)
	BookingDeleted(ctx context.Context, req models.BookingDeleteRequest) (int, error)
}

// ChangeLogQuery reconstructs, filters, and paginates change records.
type ChangeLogQuery interface {
	List(ctx context.Context, f models.ChangeLogFilter) (*models.ChangeLogPage, error)
}

// ChangeLogAdmin covers destructive maintenance operations.
type ChangeLogAdmin interface {
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// SnapshotCollector materializes entity snapshots.
type SnapshotCollector interface {
	Collect(ctx context.Context, entityType models.EntityType, id int64) (*models.Snapshot, error)
}

// EntityReader reads current business-entity state. *store.EntityStore
// implements it.
type EntityReader interface {
	GetUser(ctx context.Context, id int64) (*models.User, error)
	GetDepartment(ctx context.Context, id int64) (*models.Department, error)
	GetProduct(ctx context.Context, id int64) (*models.Product, error)
	GetOrder(ctx context.Context, id int64) (*models.Order, error)
	GetBooking(ctx context.Context, id int64) (*models.Booking, error)
	GetServiceKit(ctx context.Context, id int64) (*models.ServiceKit, error)
	GetCategory(ctx context.Context, id int64) (*models.Category, error)
	ListDepartmentUsers(ctx context.Context, departmentID int64) ([]models.User, error)
	ListDepartmentProducts(ctx context.Context, departmentID int64) ([]models.Product, error)
	ListDepartmentOrders(ctx context.Context, departmentID int64) ([]models.Order, error)
	ListDepartmentCategoryIDs(ctx context.Context, departmentID int64) ([]int64, error)
	ListClientOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListManagedOrders(ctx context.Context, userID int64) ([]models.Order, error)
	ListProductFilterValues(ctx context.Context, productID int64) ([]models.FilterValue, error)
	ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error)
}

// EntityViewer serves callbacks with an EntityReader bound to one
// consistent read view. Database-backed implementations run fn inside a
// single read-only transaction, so a caller assembling an entity tree from
// several reads observes one database state throughout.
type EntityViewer interface {
	View(ctx context.Context, fn func(EntityReader) error) error
}
