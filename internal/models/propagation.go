package models

// Tags carried by propagated (secondary) records. Secondary records always
// store explicit actions, so the read path never has to re-derive them
// from their context snapshots. TagServiceKitUpdated is distinct from
// TagChangeServiceKit: the latter means a booking's kit assignment moved,
// the former means the assigned kit itself changed.
const (
	TagServiceKitUpdated    ActionTag = "service_kit_updated"
	TagLinkedBookingChanged ActionTag = "linked_booking_changed"
	TagLinkedBookingDeleted ActionTag = "linked_booking_deleted"
)

// ServiceKitChangeRequest describes a committed field change on a shared
// service kit, to be propagated onto referencing bookings and their linked
// orders.
type ServiceKitChangeRequest struct {
	ActorID  int64  `json:"actor_id"`
	KitID    int64  `json:"kit_id"`
	Field    string `json:"field"`
	OldValue string `json:"old_value"`
	NewValue string `json:"new_value"`
}

// BookingChangeRequest describes a committed booking change, to be
// propagated onto the booking's linked order when a watched field moved.
type BookingChangeRequest struct {
	ActorID int64            `json:"actor_id"`
	Before  *BookingSnapshot `json:"before"`
	After   *BookingSnapshot `json:"after"`
}

// BookingDeleteRequest carries the final state of a deleted booking so a
// terminal entry can be written on the linked order; after deletion no
// further snapshot can be taken.
type BookingDeleteRequest struct {
	ActorID int64            `json:"actor_id"`
	Final   *BookingSnapshot `json:"final"`
}
