package client

import (
	"encoding/json"
	"time"
)

// ActorSnapshot is the frozen acting principal stored on a change record.
type ActorSnapshot struct {
	ID             int64  `json:"id"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	Phone          string `json:"phone,omitempty"`
	Role           string `json:"role"`
	DepartmentID   *int64 `json:"department_id,omitempty"`
	DepartmentName string `json:"department_name,omitempty"`
}

// ChangeRecord is one immutable audit entry. Snapshots are kept as raw
// JSON; their shape depends on the entity type.
type ChangeRecord struct {
	ID                int64           `json:"id"`
	EntityType        string          `json:"entity_type"`
	EntityID          *int64          `json:"entity_id,omitempty"`
	ActorID           int64           `json:"actor_id"`
	ScopeDepartmentID *int64          `json:"scope_department_id,omitempty"`
	Message           string          `json:"message,omitempty"`
	Before            json.RawMessage `json:"before,omitempty"`
	After             json.RawMessage `json:"after,omitempty"`
	Actor             ActorSnapshot   `json:"actor"`
	Actions           []string        `json:"actions,omitempty"`
	CreatedAt         time.Time       `json:"created_at"`
}

// ChangeRecordView is a ChangeRecord decorated for presentation.
type ChangeRecordView struct {
	ChangeRecord

	ActorDisplay  string `json:"actor_display"`
	TargetDisplay string `json:"target_display,omitempty"`
}

// ChangeLogPage is one page of filtered change records.
type ChangeLogPage struct {
	Records []ChangeRecordView `json:"records"`
	Total   int                `json:"total"`
	HasMore bool               `json:"has_more"`
}

// RecordChangeRequest carries the inputs for recording a change.
type RecordChangeRequest struct {
	EntityType        string          `json:"entity_type"`
	EntityID          *int64          `json:"entity_id,omitempty"`
	ActorID           int64           `json:"actor_id"`
	ScopeDepartmentID *int64          `json:"scope_department_id,omitempty"`
	Message           string          `json:"message,omitempty"`
	Before            json.RawMessage `json:"before,omitempty"`
	After             json.RawMessage `json:"after,omitempty"`
	Actions           []string        `json:"actions,omitempty"`
	CollectBefore     bool            `json:"collect_before,omitempty"`
	CollectAfter      bool            `json:"collect_after,omitempty"`
}

// ChangeLogQueryOptions filters a change log query.
type ChangeLogQueryOptions struct {
	EntityType   string
	EntityID     int64
	DepartmentID int64
	Actor        string
	Target       string
	Actions      []string
	From         *time.Time
	To           *time.Time
	Limit        int
	Offset       int
}

// ServiceKitChangeRequest propagates a committed service kit field change.
type ServiceKitChangeRequest struct {
	ActorID  int64  `json:"actor_id"`
	KitID    int64  `json:"kit_id"`
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// BookingSnapshot is the booking state carried in propagation requests.
type BookingSnapshot struct {
	ID         int64           `json:"id"`
	Status     string          `json:"status"`
	Date       time.Time       `json:"date"`
	CreatedAt  time.Time       `json:"created_at"`
	Client     json.RawMessage `json:"client,omitempty"`
	Manager    json.RawMessage `json:"manager,omitempty"`
	Department json.RawMessage `json:"department,omitempty"`
	ServiceKit json.RawMessage `json:"service_kit,omitempty"`
	OrderID    *int64          `json:"order_id,omitempty"`
}

// BookingChangeRequest propagates a committed booking change.
type BookingChangeRequest struct {
	ActorID int64            `json:"actor_id"`
	Before  *BookingSnapshot `json:"before"`
	After   *BookingSnapshot `json:"after"`
}

// BookingDeleteRequest propagates a booking deletion with its final state.
type BookingDeleteRequest struct {
	ActorID int64            `json:"actor_id"`
	Final   *BookingSnapshot `json:"final"`
}

// HealthResponse is the liveness check payload.
type HealthResponse struct {
	Status        string  `json:"status"`
	Version       string  `json:"version"`
	Database      string  `json:"database"`
	WSClients     int     `json:"ws_clients"`
	UptimeSeconds float64 `json:"uptime_seconds"`
}
