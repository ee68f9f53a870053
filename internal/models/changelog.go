package models

import (
	"strings"
	"time"
)

// EntityType discriminates the shape of the snapshots on a ChangeRecord.
type EntityType string

// Entity types tracked by the change log.
const (
	EntityUser              EntityType = "user"
	EntityDepartment        EntityType = "department"
	EntityProduct           EntityType = "product"
	EntityOrder             EntityType = "order"
	EntityBooking           EntityType = "booking"
	EntityBookingDepartment EntityType = "bookingDepartment"
	EntityServiceKit        EntityType = "serviceKit"
)

// Valid reports whether t is a known entity type.
func (t EntityType) Valid() bool {
	switch t {
	case EntityUser, EntityDepartment, EntityProduct, EntityOrder,
		EntityBooking, EntityBookingDepartment, EntityServiceKit:
		return true
	}

	return false
}

// FirstClass reports whether records for t are dual-written into the
// legacy compatibility ledger.
func (t EntityType) FirstClass() bool {
	switch t {
	case EntityUser, EntityDepartment, EntityProduct, EntityOrder:
		return true
	}

	return false
}

// TagSuffix returns the snake_case spelling of t used in action tags,
// e.g. create_service_kit.
func (t EntityType) TagSuffix() string {
	switch t {
	case EntityBookingDepartment:
		return "booking_department"
	case EntityServiceKit:
		return "service_kit"
	default:
		return string(t)
	}
}

// ActionTag is a semantic label describing the nature of a change.
type ActionTag string

// Field-specific action tags. Creation, deletion, and generic update tags
// are per entity type and built via CreateTag, DeleteTag, and UpdateTag.
const (
	TagChangeName       ActionTag = "change_name"
	TagChangeStatus     ActionTag = "change_status"
	TagChangeCategories ActionTag = "change_categories"
	TagAddEmployees     ActionTag = "add_employees"
	TagRemoveEmployees  ActionTag = "remove_employees"
	TagChangeRole       ActionTag = "change_role"
	TagChangeDepartment ActionTag = "change_department"
	TagChangePrice      ActionTag = "change_price"
	TagChangeCategory   ActionTag = "change_category"
	TagChangeFilters    ActionTag = "change_filters"
	TagChangeManager    ActionTag = "change_manager"
	TagChangeClient     ActionTag = "change_client"
	TagChangeItems      ActionTag = "change_items"
	TagChangeDate       ActionTag = "change_date"
	TagChangeAddress    ActionTag = "change_address"
	TagChangeServiceKit ActionTag = "change_service_kit"
)

// CreateTag returns the creation tag for an entity type, e.g. create_department.
func CreateTag(t EntityType) ActionTag { return ActionTag("create_" + t.TagSuffix()) }

// DeleteTag returns the deletion tag for an entity type.
func DeleteTag(t EntityType) ActionTag { return ActionTag("delete_" + t.TagSuffix()) }

// UpdateTag returns the generic fallback update tag for an entity type.
func UpdateTag(t EntityType) ActionTag { return ActionTag("update_" + t.TagSuffix()) }

// ActorSnapshot is a frozen copy of the acting principal as of the time of
// the action. It is never re-derived from current actor state.
type ActorSnapshot struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone,omitempty"`
	Role           string `json:"role"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// DisplayName composes the actor's human-readable name.
func (a ActorSnapshot) DisplayName() string {
	return strings.TrimSpace(a.FirstName + " " + a.LastName)
}

// ChangeRecord is one immutable audit entry capturing a mutation.
// Exactly one of Before/After absent means creation or deletion; both
// present means update. Actions may be nil for rows written before
// explicit tagging existed; readers derive them from the snapshots.
type ChangeRecord struct {
	ID                int64         `json:"id"`
	EntityType        EntityType    `json:"entity_type"`
	EntityID          *int64        `json:"entity_id,omitempty"`
	ActorID           int64         `json:"actor_id"`
	ScopeDepartmentID *int64        `json:"scope_department_id,omitempty"`
	Message           string        `json:"message,omitempty"`
	Before            *Snapshot     `json:"before,omitempty"`
	After             *Snapshot     `json:"after,omitempty"`
	Actor             ActorSnapshot `json:"actor"`
	Actions           []ActionTag   `json:"actions,omitempty"`
	CreatedAt         time.Time     `json:"created_at"`
}

// RecordChangeRequest carries the inputs for recording a change.
type RecordChangeRequest struct {
	EntityType        EntityType  `json:"entity_type"`
	EntityID          *int64      `json:"entity_id,omitempty"`
	ActorID           int64       `json:"actor_id"`
	ScopeDepartmentID *int64      `json:"scope_department_id,omitempty"`
	Message           string      `json:"message,omitempty"`
	Before            *Snapshot   `json:"before,omitempty"`
	After             *Snapshot   `json:"after,omitempty"`
	Actions           []ActionTag `json:"actions,omitempty"`

	// CollectBefore/CollectAfter ask the recorder to build the missing
	// snapshot from current entity state instead of using the explicit
	// values above. EntityID must be set for either to apply.
	CollectBefore bool `json:"collect_before,omitempty"`
	CollectAfter  bool `json:"collect_after,omitempty"`
}

// Validate checks the structural requirements of a record request.
func (r RecordChangeRequest) Validate() error {
	if !r.EntityType.Valid() {
		return ErrInvalidEntityType
	}

	if r.ActorID == 0 {
		return ErrMissingActor
	}

	return nil
}

// ChangeLogFilter holds the filters for querying the change log.
type ChangeLogFilter struct {
	EntityType        EntityType  // optional
	EntityID          *int64      // optional: one specific target entity
	ScopeDepartmentID *int64      // optional organizational scope
	ActorQuery        string      // free text against actor id, phone, display name
	TargetQuery       string      // free text against snapshots and current entity state
	Actions           []ActionTag // tag membership, OR semantics
	From              *time.Time
	To                *time.Time
	Limit             int
	Offset            int
}

// ChangeRecordView is a ChangeRecord decorated for presentation.
type ChangeRecordView struct {
	ChangeRecord

	ActorDisplay string `json:"actor_display"`
	// TargetDisplay holds the target entity's current identifying fields
	// when the entity still exists, else the snapshot's point-in-time ones.
	TargetDisplay string `json:"target_display,omitempty"`
}

// ChangeLogPage is one page of filtered change records.
type ChangeLogPage struct {
	Records []ChangeRecordView `json:"records"`
	Total   int                `json:"total"`
	HasMore bool               `json:"has_more"`
}
