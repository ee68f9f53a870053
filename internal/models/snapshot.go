package models

import (
	"encoding/json"
	"fmt"
	"time"
)

// Snapshot is a fully materialized, reference-free copy of an entity plus
// its immediate relations at one instant. It is a tagged union keyed by
// EntityType: exactly one variant pointer is non-nil. bookingDepartment
// records carry the Department variant.
type Snapshot struct {
	EntityType EntityType

	Department *DepartmentSnapshot
	User       *UserSnapshot
	Product    *ProductSnapshot
	Order      *OrderSnapshot
	Booking    *BookingSnapshot
	ServiceKit *ServiceKitSnapshot
}

// UserRef is an inlined reference to a user.
type UserRef struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Role         string `json:"role,omitempty"`
	Status       string `json:"status,omitempty"`
	DepartmentID int64  `json:"department_id,omitempty"`
}

// DepartmentRef is an inlined reference to a department.
type DepartmentRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// CategoryRef is an inlined reference to a product category.
type CategoryRef struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}

// ServiceKitRef is an inlined reference to a service kit.
type ServiceKitRef struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`
}

// ProductSummary is a product as seen from a department snapshot.
type ProductSummary struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Price  int64  `json:"price"`
	Status string `json:"status,omitempty"`
}

// OrderSummary is an order as seen from a department or user snapshot.
type OrderSummary struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`
}

// OrderItem is one resolved line item on an order.
type OrderItem struct {
	ProductID int64  `json:"product_id"`
	Name      string `json:"name"`
	Quantity  int    `json:"quantity"`
	Price     int64  `json:"price"`
}

// FilterValue is a resolved filter-value assignment on a product.
type FilterValue struct {
	FilterID int64  `json:"filter_id"`
	Filter   string `json:"filter"`
	Value    string `json:"value"`
}

// DepartmentSnapshot materializes a department with its full member list,
// product and order summaries, and derived aggregates.
type DepartmentSnapshot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	CategoryIDs []int64          `json:"category_ids,omitempty"`
	Users       []UserRef        `json:"users,omitempty"`
	Products    []ProductSummary `json:"products,omitempty"`
	Orders      []OrderSummary   `json:"orders,omitempty"`

	UserCount       int `json:"user_count"`
	ActiveUserCount int `json:"active_user_count"`
	ProductCount    int `json:"product_count"`
	OrderCount      int `json:"order_count"`
}

// UserSnapshot materializes a user with department, order relations, and
// derived aggregates.
type UserSnapshot struct {
	ID        int64     `json:"id"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
	Phone     string    `json:"phone,omitempty"`
	Role      string    `json:"role"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Department    *DepartmentRef `json:"department,omitempty"`
	ClientOrders  []OrderSummary `json:"client_orders,omitempty"`
	ManagedOrders []OrderSummary `json:"managed_orders,omitempty"`

	AccountAgeDays int   `json:"account_age_days"`
	OrderCount     int   `json:"order_count"`
	OrderTotal     int64 `json:"order_total"`
}

// DisplayName composes the user's human-readable name.
func (u UserSnapshot) DisplayName() string {
	if u.LastName == "" {
		return u.FirstName
	}

	return u.FirstName + " " + u.LastName
}

// ProductSnapshot materializes a product with category, department, and
// resolved filter values.
type ProductSnapshot struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Price     int64     `json:"price"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`

	Category     *CategoryRef   `json:"category,omitempty"`
	Department   *DepartmentRef `json:"department,omitempty"`
	FilterValues []FilterValue  `json:"filter_values,omitempty"`
}

// OrderSnapshot materializes an order with all foreign keys resolved.
type OrderSnapshot struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Total     int64     `json:"total"`
	CreatedAt time.Time `json:"created_at"`

	Client     *UserRef       `json:"client,omitempty"`
	Manager    *UserRef       `json:"manager,omitempty"`
	Department *DepartmentRef `json:"department,omitempty"`
	BookingID  *int64         `json:"booking_id,omitempty"`
	Items      []OrderItem    `json:"items,omitempty"`
}

// BookingSnapshot materializes a booking with all foreign keys resolved.
type BookingSnapshot struct {
	ID        int64     `json:"id"`
	Status    string    `json:"status"`
	Date      time.Time `json:"date"`
	CreatedAt time.Time `json:"created_at"`

	Client     *UserRef       `json:"client,omitempty"`
	Manager    *UserRef       `json:"manager,omitempty"`
	Department *DepartmentRef `json:"department,omitempty"`
	ServiceKit *ServiceKitRef `json:"service_kit,omitempty"`
	OrderID    *int64         `json:"order_id,omitempty"`
}

// ServiceKitSnapshot materializes a service kit (a shared resource
// referenced by bookings).
type ServiceKitSnapshot struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Address string `json:"address"`

	Department *DepartmentRef `json:"department,omitempty"`
}

// snapshotEnvelope is the stored JSON form of the union.
type snapshotEnvelope struct {
	EntityType EntityType      `json:"entity_type"`
	Data       json.RawMessage `json:"data"`
}

// MarshalJSON encodes the active variant under its entity type tag.
func (s Snapshot) MarshalJSON() ([]byte, error) {
	variant := s.variant()
	if variant == nil {
		return nil, fmt.Errorf("snapshot for %q has no variant set", s.EntityType)
	}

	data, err := json.Marshal(variant)
	if err != nil {
		return nil, fmt.Errorf("marshalling %s snapshot: %w", s.EntityType, err)
	}

	return json.Marshal(snapshotEnvelope{EntityType: s.EntityType, Data: data})
}

// UnmarshalJSON decodes the variant selected by the entity type tag.
func (s *Snapshot) UnmarshalJSON(data []byte) error {
	var env snapshotEnvelope
	if err := json.Unmarshal(data, &env); err != nil {
		return fmt.Errorf("unmarshalling snapshot envelope: %w", err)
	}

	if !env.EntityType.Valid() {
		return fmt.Errorf("snapshot has unknown entity type %q: %w", env.EntityType, ErrInvalidEntityType)
	}

	*s = Snapshot{EntityType: env.EntityType}

	var target any

	switch env.EntityType {
	case EntityDepartment, EntityBookingDepartment:
		s.Department = &DepartmentSnapshot{}
		target = s.Department
	case EntityUser:
		s.User = &UserSnapshot{}
		target = s.User
	case EntityProduct:
		s.Product = &ProductSnapshot{}
		target = s.Product
	case EntityOrder:
		s.Order = &OrderSnapshot{}
		target = s.Order
	case EntityBooking:
		s.Booking = &BookingSnapshot{}
		target = s.Booking
	case EntityServiceKit:
		s.ServiceKit = &ServiceKitSnapshot{}
		target = s.ServiceKit
	}

	if err := json.Unmarshal(env.Data, target); err != nil {
		return fmt.Errorf("unmarshalling %s snapshot: %w", env.EntityType, err)
	}

	return nil
}

// variant returns the active variant pointer, or nil when none is set.
func (s *Snapshot) variant() any {
	switch {
	case s.Department != nil:
		return s.Department
	case s.User != nil:
		return s.User
	case s.Product != nil:
		return s.Product
	case s.Order != nil:
		return s.Order
	case s.Booking != nil:
		return s.Booking
	case s.ServiceKit != nil:
		return s.ServiceKit
	}

	return nil
}

// Clone returns a deep copy of the snapshot. Stored snapshots must never
// share references with live entities.
func (s *Snapshot) Clone() *Snapshot {
	if s == nil {
		return nil
	}

	out := Snapshot{EntityType: s.EntityType}

	if s.Department != nil {
		d := *s.Department
		d.CategoryIDs = append([]int64(nil), s.Department.CategoryIDs...)
		d.Users = append([]UserRef(nil), s.Department.Users...)
		d.Products = append([]ProductSummary(nil), s.Department.Products...)
		d.Orders = append([]OrderSummary(nil), s.Department.Orders...)
		out.Department = &d
	}

	if s.User != nil {
		u := *s.User
		u.Department = cloneRef(s.User.Department)
		u.ClientOrders = append([]OrderSummary(nil), s.User.ClientOrders...)
		u.ManagedOrders = append([]OrderSummary(nil), s.User.ManagedOrders...)
		out.User = &u
	}

	if s.Product != nil {
		p := *s.Product
		p.Category = cloneRef(s.Product.Category)
		p.Department = cloneRef(s.Product.Department)
		p.FilterValues = append([]FilterValue(nil), s.Product.FilterValues...)
		out.Product = &p
	}

	if s.Order != nil {
		o := *s.Order
		o.Client = cloneRef(s.Order.Client)
		o.Manager = cloneRef(s.Order.Manager)
		o.Department = cloneRef(s.Order.Department)
		o.BookingID = cloneRef(s.Order.BookingID)
		o.Items = append([]OrderItem(nil), s.Order.Items...)
		out.Order = &o
	}

	if s.Booking != nil {
		b := *s.Booking
		b.Client = cloneRef(s.Booking.Client)
		b.Manager = cloneRef(s.Booking.Manager)
		b.Department = cloneRef(s.Booking.Department)
		b.ServiceKit = cloneRef(s.Booking.ServiceKit)
		b.OrderID = cloneRef(s.Booking.OrderID)
		out.Booking = &b
	}

	if s.ServiceKit != nil {
		k := *s.ServiceKit
		k.Department = cloneRef(s.ServiceKit.Department)
		out.ServiceKit = &k
	}

	return &out
}

func cloneRef[T any](v *T) *T {
	if v == nil {
		return nil
	}

	c := *v

	return &c
}
