package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/metrics"
	"github.com/orderdesk/backoffice/internal/models"
)

// PropagationReader locates the referrers of a changed shared resource.
type PropagationReader interface {
	GetServiceKit(ctx context.Context, id int64) (*models.ServiceKit, error)
	ListServiceKitBookings(ctx context.Context, kitID int64) ([]models.Booking, error)
}

// Compile-time check: *Propagator must satisfy domain.Propagator.
var _ domain.Propagator = (*Propagator)(nil)

// Propagator writes secondary records onto entities causally affected by a
// change that already committed elsewhere. Every target write runs in its
// own transaction through the recorder; a failed write is logged, counted,
// and swallowed, so it never aborts sibling writes and never surfaces to
// the caller of the primary mutation. Propagation depth is fixed: a shared
// resource reaches its direct referrers and their linked dependents, one
// hop each, and a propagated record never triggers further propagation.
type Propagator struct {
	recorder  domain.Recorder
	entities  PropagationReader
	collector domain.SnapshotCollector
	log       *logrus.Logger
}

// NewPropagator creates a Propagator.
func NewPropagator(recorder domain.Recorder, entities PropagationReader, collector domain.SnapshotCollector, log *logrus.Logger) *Propagator {
	return &Propagator{recorder: recorder, entities: entities, collector: collector, log: log}
}

// ServiceKitChanged propagates a committed field change on a service kit:
// every booking referencing the kit gets a secondary record, and each such
// booking's linked order gets one more. Returns the number of records
// written.
func (p *Propagator) ServiceKitChanged(ctx context.Context, req models.ServiceKitChangeRequest) (int, error) {
	kitName := fmt.Sprintf("service kit #%d", req.KitID)

	if kit, err := p.entities.GetServiceKit(ctx, req.KitID); err == nil {
		kitName = kit.Name
	} else if !errors.Is(err, models.ErrEntityNotFound) {
		p.log.WithError(err).WithField("kit_id", req.KitID).Warn("propagation: resolving service kit name")
	}

	bookings, err := p.entities.ListServiceKitBookings(ctx, req.KitID)
	if err != nil {
		return 0, fmt.Errorf("locating bookings for service kit %d: %w", req.KitID, err)
	}

	written := 0
	msg := fmt.Sprintf("%s of %s changed from %q to %q", req.Field, kitName, req.OldValue, req.NewValue)

	for _, b := range bookings {
		if p.writeSecondary(ctx, "service_kit", models.EntityBooking, b.ID, req.ActorID, msg,
			[]models.ActionTag{models.TagServiceKitUpdated}, nil) {
			written++
		}

		if b.OrderID == nil {
			continue
		}

		orderMsg := fmt.Sprintf("%s of %s for linked booking #%d changed from %q to %q",
			req.Field, kitName, b.ID, req.OldValue, req.NewValue)

		if p.writeSecondary(ctx, "service_kit", models.EntityOrder, *b.OrderID, req.ActorID, orderMsg,
			[]models.ActionTag{models.TagLinkedBookingChanged}, nil) {
			written++
		}
	}

	return written, nil
}

// bookingWatchedDiff summarizes the watched booking fields that moved
// between two snapshots. Empty result means nothing to propagate.
func bookingWatchedDiff(before, after *models.BookingSnapshot) string {
	var parts []string

	if before.Status != after.Status {
		parts = append(parts, fmt.Sprintf("status %q -> %q", before.Status, after.Status))
	}

	if !before.Date.Equal(after.Date) {
		parts = append(parts, fmt.Sprintf("date %s -> %s",
			before.Date.Format("2006-01-02 15:04"), after.Date.Format("2006-01-02 15:04")))
	}

	if name := refName(before.Manager); name != refName(after.Manager) {
		parts = append(parts, fmt.Sprintf("manager %q -> %q", name, refName(after.Manager)))
	}

	if kit := kitName(before.ServiceKit); kit != kitName(after.ServiceKit) {
		parts = append(parts, fmt.Sprintf("service kit %q -> %q", kit, kitName(after.ServiceKit)))
	}

	return strings.Join(parts, ", ")
}

// BookingChanged propagates a committed booking change onto its linked
// order, summarizing exactly which watched fields moved. No-op when no
// watched field changed or the booking has no linked order.
func (p *Propagator) BookingChanged(ctx context.Context, req models.BookingChangeRequest) (int, error) {
	if req.Before == nil || req.After == nil {
		return 0, models.ErrMissingSnapshots
	}

	summary := bookingWatchedDiff(req.Before, req.After)
	if summary == "" || req.After.OrderID == nil {
		return 0, nil
	}

	msg := fmt.Sprintf("linked booking #%d changed: %s", req.After.ID, summary)

	if p.writeSecondary(ctx, "booking", models.EntityOrder, *req.After.OrderID, req.ActorID, msg,
		[]models.ActionTag{models.TagLinkedBookingChanged}, nil) {
		return 1, nil
	}

	return 0, nil
}

// BookingDeleted writes a terminal record on the deleted booking's linked
// order. The booking row is gone and cannot be re-collected, so the final
// state supplied by the caller becomes the record's before snapshot, with
// the order's current state on the after side and a summary in the message.
func (p *Propagator) BookingDeleted(ctx context.Context, req models.BookingDeleteRequest) (int, error) {
	if req.Final == nil {
		return 0, models.ErrMissingSnapshots
	}

	if req.Final.OrderID == nil {
		return 0, nil
	}

	msg := fmt.Sprintf("linked booking #%d deleted (status %q, date %s, manager %q, service kit %q)",
		req.Final.ID, req.Final.Status, req.Final.Date.Format("2006-01-02 15:04"),
		refName(req.Final.Manager), kitName(req.Final.ServiceKit))

	final := models.Snapshot{EntityType: models.EntityBooking, Booking: req.Final}

	if p.writeSecondary(ctx, "booking_deleted", models.EntityOrder, *req.Final.OrderID, req.ActorID, msg,
		[]models.ActionTag{models.TagLinkedBookingDeleted}, final.Clone()) {
		return 1, nil
	}

	return 0, nil
}

// writeSecondary snapshots the target and records one secondary entry in
// its own transaction. The after side carries the target's current state;
// before defaults to the same state unless the caller supplies the causal
// entity's snapshot (terminal records do). The explicit tags name the
// causal change. Failures are logged, counted, and swallowed.
func (p *Propagator) writeSecondary(ctx context.Context, trigger string, entityType models.EntityType, entityID, actorID int64, msg string, tags []models.ActionTag, before *models.Snapshot) bool {
	snap, err := p.collector.Collect(ctx, entityType, entityID)
	if err != nil && !errors.Is(err, models.ErrEntityNotFound) {
		p.failed(trigger, entityType, entityID, err, "collecting target snapshot")

		return false
	}

	if snap == nil {
		// Target vanished between commit and propagation; nothing to annotate.
		p.failed(trigger, entityType, entityID, models.ErrEntityNotFound, "target gone")

		return false
	}

	if before == nil {
		before = snap
	}

	_, err = p.recorder.Record(ctx, models.RecordChangeRequest{
		EntityType: entityType,
		EntityID:   &entityID,
		ActorID:    actorID,
		Message:    msg,
		Before:     before,
		After:      snap,
		Actions:    tags,
	})
	if err != nil {
		p.failed(trigger, entityType, entityID, err, "writing secondary record")

		return false
	}

	metrics.PropagationRecordsTotal.WithLabelValues(trigger).Inc()

	return true
}

func (p *Propagator) failed(trigger string, entityType models.EntityType, entityID int64, err error, stage string) {
	metrics.PropagationFailuresTotal.WithLabelValues(trigger).Inc()

	p.log.WithError(err).WithFields(logrus.Fields{
		"trigger":     trigger,
		"entity_type": entityType,
		"entity_id":   entityID,
	}).Warn("changelog.propagation " + stage)
}

func refName(r *models.UserRef) string {
	if r == nil {
		return ""
	}

	return r.Name
}

func kitName(r *models.ServiceKitRef) string {
	if r == nil {
		return ""
	}

	return r.Name
}
