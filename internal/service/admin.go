package service

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/domain"
)

// AdminStore is the maintenance surface of the ledger.
type AdminStore interface {
	PurgeOldEntries(ctx context.Context, retentionDays int) (int, error)
}

// Compile-time check: *AdminService must satisfy domain.ChangeLogAdmin.
var _ domain.ChangeLogAdmin = (*AdminService)(nil)

// AdminService covers destructive maintenance of the change log.
type AdminService struct {
	store AdminStore
	log   *logrus.Logger
}

// NewAdminService creates an AdminService.
func NewAdminService(store AdminStore, log *logrus.Logger) *AdminService {
	return &AdminService{store: store, log: log}
}

// PurgeOldEntries deletes records older than the retention window from
// both ledgers and returns how many were removed.
func (s *AdminService) PurgeOldEntries(ctx context.Context, retentionDays int) (int, error) {
	if retentionDays <= 0 {
		return 0, fmt.Errorf("retention days must be positive, got %d", retentionDays)
	}

	deleted, err := s.store.PurgeOldEntries(ctx, retentionDays)
	if err != nil {
		return 0, err
	}

	if deleted > 0 {
		s.log.WithFields(logrus.Fields{
			"deleted":        deleted,
			"retention_days": retentionDays,
		}).Info("changelog.purge")
	}

	return deleted, nil
}
