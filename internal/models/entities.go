package models

import "time"

// Row types for the core business entities as read from their tables.
// Their CRUD lives in the back-office handlers; this service only reads
// them to build snapshots and to resolve current display values.

// User is an acting principal or client.
type User struct {
	ID           int64     `json:"id"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Phone        string    `json:"phone,omitempty"`
	Role         string    `json:"role"`
	Status       string    `json:"status"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Department is an organizational unit and the scope boundary for queries.
type Department struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Status    string    `json:"status"`
	CreatedAt time.Time `json:"created_at"`
}

// Product is a sellable item.
type Product struct {
	ID           int64     `json:"id"`
	Name         string    `json:"name"`
	Price        int64     `json:"price"`
	Status       string    `json:"status"`
	CategoryID   *int64    `json:"category_id,omitempty"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Order is a client purchase, optionally linked to a booking.
type Order struct {
	ID           int64     `json:"id"`
	Status       string    `json:"status"`
	Total        int64     `json:"total"`
	ClientID     *int64    `json:"client_id,omitempty"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	BookingID    *int64    `json:"booking_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// Booking is a scheduled service, optionally linked to an order and
// referencing a shared service kit.
type Booking struct {
	ID           int64     `json:"id"`
	Status       string    `json:"status"`
	Date         time.Time `json:"date"`
	ClientID     *int64    `json:"client_id,omitempty"`
	ManagerID    *int64    `json:"manager_id,omitempty"`
	DepartmentID *int64    `json:"department_id,omitempty"`
	ServiceKitID *int64    `json:"service_kit_id,omitempty"`
	OrderID      *int64    `json:"order_id,omitempty"`
	CreatedAt    time.Time `json:"created_at"`
}

// ServiceKit is a shared resource (service location and equipment set)
// referenced by bookings.
type ServiceKit struct {
	ID           int64  `json:"id"`
	Name         string `json:"name"`
	Address      string `json:"address"`
	DepartmentID *int64 `json:"department_id,omitempty"`
}

// Category classifies products.
type Category struct {
	ID   int64  `json:"id"`
	Name string `json:"name"`
}
