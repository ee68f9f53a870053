package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/classify"
	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
)

// QueryStore is the read side of the ledger the query service depends on.
// SQL-level filtering covers entity type, entity id, scope, and the time
// window; everything else is applied in memory here.
type QueryStore interface {
	QueryRecords(ctx context.Context, f models.ChangeLogFilter) ([]models.ChangeRecord, error)
}

// DisplayResolver resolves an entity's current display name.
type DisplayResolver interface {
	DisplayName(ctx context.Context, entityType models.EntityType, id int64) (string, error)
}

// Compile-time check: *QueryService must satisfy domain.ChangeLogQuery.
var _ domain.ChangeLogQuery = (*QueryService)(nil)

// defaultPageLimit caps a page when the caller did not pick a size.
const defaultPageLimit = 50

// QueryService reconstructs, filters, and paginates change records.
// Records without stored action tags get them re-derived from their
// snapshots on read, so old rows and new rows filter identically.
type QueryService struct {
	store    QueryStore
	entities DisplayResolver
	log      *logrus.Logger
}

// NewQueryService creates a QueryService.
func NewQueryService(store QueryStore, entities DisplayResolver, log *logrus.Logger) *QueryService {
	return &QueryService{store: store, entities: entities, log: log}
}

// List returns one page of change records matching the filter. Pagination
// applies after the in-memory actor, target, and action filters, so page
// boundaries line up with what the caller actually sees.
func (q *QueryService) List(ctx context.Context, f models.ChangeLogFilter) (*models.ChangeLogPage, error) {
	if f.EntityType != "" && !f.EntityType.Valid() {
		return nil, models.ErrInvalidEntityType
	}

	recs, err := q.store.QueryRecords(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("querying change log: %w", err)
	}

	views := make([]models.ChangeRecordView, 0, len(recs))

	for _, rec := range recs {
		if len(rec.Actions) == 0 {
			rec.Actions = classify.Classify(rec.Before, rec.After)
		}

		if !matchActions(rec.Actions, f.Actions) || !matchActor(rec.Actor, f.ActorQuery) {
			continue
		}

		view := models.ChangeRecordView{
			ChangeRecord:  rec,
			ActorDisplay:  rec.Actor.DisplayName(),
			TargetDisplay: q.targetDisplay(ctx, rec),
		}

		if !q.matchTarget(view, f.TargetQuery) {
			continue
		}

		views = append(views, view)
	}

	total := len(views)

	limit := f.Limit
	if limit <= 0 {
		limit = defaultPageLimit
	}

	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	if offset > total {
		offset = total
	}

	end := offset + limit
	if end > total {
		end = total
	}

	return &models.ChangeLogPage{
		Records: views[offset:end],
		Total:   total,
		HasMore: end < total,
	}, nil
}

// targetDisplay resolves the target's current identifying fields; when the
// entity no longer exists it falls back to the snapshot's point-in-time
// ones, so deleted entities stay readable in history.
func (q *QueryService) targetDisplay(ctx context.Context, rec models.ChangeRecord) string {
	if rec.EntityID != nil {
		name, err := q.entities.DisplayName(ctx, rec.EntityType, *rec.EntityID)
		if err == nil {
			return name
		}

		if !errors.Is(err, models.ErrEntityNotFound) {
			q.log.WithError(err).WithFields(logrus.Fields{
				"entity_type": rec.EntityType,
				"entity_id":   *rec.EntityID,
			}).Warn("changelog.query resolving target display")
		}
	}

	if rec.After != nil {
		return snapshotDisplay(rec.After)
	}

	return snapshotDisplay(rec.Before)
}

// matchActions implements OR semantics over requested tags.
func matchActions(have, want []models.ActionTag) bool {
	if len(want) == 0 {
		return true
	}

	for _, w := range want {
		for _, h := range have {
			if h == w {
				return true
			}
		}
	}

	return false
}

// matchActor does a case-insensitive substring match against the frozen
// actor snapshot: id, phone, and display name.
func matchActor(actor models.ActorSnapshot, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	if strings.Contains(strconv.FormatInt(actor.ID, 10), query) {
		return true
	}

	if strings.Contains(strings.ToLower(actor.Phone), query) {
		return true
	}

	return strings.Contains(strings.ToLower(actor.DisplayName()), query)
}

// matchTarget does a case-insensitive substring match against the resolved
// target display and the stored snapshot contents.
func (q *QueryService) matchTarget(view models.ChangeRecordView, query string) bool {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return true
	}

	if strings.Contains(strings.ToLower(view.TargetDisplay), query) {
		return true
	}

	return snapshotContains(view.Before, query) || snapshotContains(view.After, query)
}

// snapshotContains searches the snapshot's serialized form. Snapshots are
// fully materialized, so names of related entities are matchable too.
func snapshotContains(s *models.Snapshot, query string) bool {
	if s == nil {
		return false
	}

	raw, err := json.Marshal(s)
	if err != nil {
		return false
	}

	return strings.Contains(strings.ToLower(string(raw)), query)
}

// snapshotDisplay derives a point-in-time display string from a snapshot.
func snapshotDisplay(s *models.Snapshot) string {
	if s == nil {
		return ""
	}

	switch {
	case s.Department != nil:
		return s.Department.Name
	case s.User != nil:
		return s.User.DisplayName()
	case s.Product != nil:
		return s.Product.Name
	case s.Order != nil:
		return fmt.Sprintf("order #%d (%s)", s.Order.ID, s.Order.Status)
	case s.Booking != nil:
		return fmt.Sprintf("booking #%d (%s)", s.Booking.ID, s.Booking.Status)
	case s.ServiceKit != nil:
		return s.ServiceKit.Name
	}

	return ""
}
