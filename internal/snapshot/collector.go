// Package snapshot materializes deep, point-in-time copies of business
// entities plus their immediate relations. The result is plain data, safe
// to serialize and store: no handle, cursor, or lazy reference survives
// the call.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
)

// Collector builds snapshots from current entity state. All reads for one
// snapshot run through a single domain.EntityViewer view, so the assembled
// tree cannot mix state from before and after a concurrent mutation.
type Collector struct {
	source domain.EntityViewer
	log    *logrus.Logger
	now    func() time.Time
}

// NewCollector creates a Collector.
func NewCollector(source domain.EntityViewer, log *logrus.Logger) *Collector {
	return &Collector{source: source, log: log, now: time.Now}
}

// Collect materializes the snapshot for one entity. When the entity no
// longer exists it returns models.ErrEntityNotFound — "no snapshot", which
// callers must keep distinct from an empty snapshot.
func (c *Collector) Collect(ctx context.Context, entityType models.EntityType, id int64) (*models.Snapshot, error) {
	if !entityType.Valid() {
		return nil, models.ErrInvalidEntityType
	}

	var snap *models.Snapshot

	err := c.source.View(ctx, func(r domain.EntityReader) error {
		s, err := c.collect(ctx, r, entityType, id)
		if err != nil {
			return err
		}

		snap = s

		return nil
	})
	if err != nil {
		return nil, err
	}

	return snap, nil
}

func (c *Collector) collect(ctx context.Context, r domain.EntityReader, entityType models.EntityType, id int64) (*models.Snapshot, error) {
	switch entityType {
	case models.EntityDepartment, models.EntityBookingDepartment:
		d, err := c.collectDepartment(ctx, r, id)
		if err != nil {
			return nil, err
		}

		return &models.Snapshot{EntityType: entityType, Department: d}, nil
	case models.EntityUser:
		u, err := c.collectUser(ctx, r, id)
		if err != nil {
			return nil, err
		}

		return &models.Snapshot{EntityType: entityType, User: u}, nil
	case models.EntityProduct:
		p, err := c.collectProduct(ctx, r, id)
		if err != nil {
			return nil, err
		}

		return &models.Snapshot{EntityType: entityType, Product: p}, nil
	case models.EntityOrder:
		o, err := c.collectOrder(ctx, r, id)
		if err != nil {
			return nil, err
		}

		return &models.Snapshot{EntityType: entityType, Order: o}, nil
	case models.EntityBooking:
		b, err := c.collectBooking(ctx, r, id)
		if err != nil {
			return nil, err
		}

		return &models.Snapshot{EntityType: entityType, Booking: b}, nil
	case models.EntityServiceKit:
		k, err := c.collectServiceKit(ctx, r, id)
		if err != nil {
			return nil, err
		}

		return &models.Snapshot{EntityType: entityType, ServiceKit: k}, nil
	}

	return nil, models.ErrInvalidEntityType
}

func (c *Collector) collectDepartment(ctx context.Context, r domain.EntityReader, id int64) (*models.DepartmentSnapshot, error) {
	dept, err := r.GetDepartment(ctx, id)
	if err != nil {
		return nil, err
	}

	users, err := r.ListDepartmentUsers(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting department %d users: %w", id, err)
	}

	products, err := r.ListDepartmentProducts(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting department %d products: %w", id, err)
	}

	orders, err := r.ListDepartmentOrders(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting department %d orders: %w", id, err)
	}

	categoryIDs, err := r.ListDepartmentCategoryIDs(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting department %d categories: %w", id, err)
	}

	snap := &models.DepartmentSnapshot{
		ID:          dept.ID,
		Name:        dept.Name,
		Status:      dept.Status,
		CreatedAt:   dept.CreatedAt,
		CategoryIDs: categoryIDs,
	}

	for _, u := range users {
		snap.Users = append(snap.Users, userRef(u))

		if u.Status == "active" {
			snap.ActiveUserCount++
		}
	}

	for _, p := range products {
		snap.Products = append(snap.Products, models.ProductSummary{
			ID: p.ID, Name: p.Name, Price: p.Price, Status: p.Status,
		})
	}

	for _, o := range orders {
		snap.Orders = append(snap.Orders, orderSummary(o))
	}

	snap.UserCount = len(users)
	snap.ProductCount = len(products)
	snap.OrderCount = len(orders)

	return snap, nil
}

func (c *Collector) collectUser(ctx context.Context, r domain.EntityReader, id int64) (*models.UserSnapshot, error) {
	user, err := r.GetUser(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &models.UserSnapshot{
		ID:        user.ID,
		FirstName: user.FirstName,
		LastName:  user.LastName,
		Phone:     user.Phone,
		Role:      user.Role,
		Status:    user.Status,
		CreatedAt: user.CreatedAt,
	}

	if user.DepartmentID != nil {
		dept, err := r.GetDepartment(ctx, *user.DepartmentID)
		if err != nil && !errors.Is(err, models.ErrEntityNotFound) {
			return nil, fmt.Errorf("collecting user %d department: %w", id, err)
		}

		if dept != nil {
			snap.Department = &models.DepartmentRef{ID: dept.ID, Name: dept.Name}
		}
	}

	clientOrders, err := r.ListClientOrders(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting user %d client orders: %w", id, err)
	}

	managedOrders, err := r.ListManagedOrders(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting user %d managed orders: %w", id, err)
	}

	for _, o := range clientOrders {
		snap.ClientOrders = append(snap.ClientOrders, orderSummary(o))
		snap.OrderTotal += o.Total
	}

	for _, o := range managedOrders {
		snap.ManagedOrders = append(snap.ManagedOrders, orderSummary(o))
	}

	snap.OrderCount = len(clientOrders)
	snap.AccountAgeDays = int(c.now().Sub(user.CreatedAt).Hours() / 24)

	return snap, nil
}

func (c *Collector) collectProduct(ctx context.Context, r domain.EntityReader, id int64) (*models.ProductSnapshot, error) {
	product, err := r.GetProduct(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &models.ProductSnapshot{
		ID:        product.ID,
		Name:      product.Name,
		Price:     product.Price,
		Status:    product.Status,
		CreatedAt: product.CreatedAt,
	}

	if product.CategoryID != nil {
		category, err := r.GetCategory(ctx, *product.CategoryID)
		if err != nil && !errors.Is(err, models.ErrEntityNotFound) {
			return nil, fmt.Errorf("collecting product %d category: %w", id, err)
		}

		if category != nil {
			snap.Category = &models.CategoryRef{ID: category.ID, Name: category.Name}
		}
	}

	snap.Department, err = departmentRef(ctx, r, product.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("collecting product %d department: %w", id, err)
	}

	snap.FilterValues, err = r.ListProductFilterValues(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting product %d filter values: %w", id, err)
	}

	return snap, nil
}

func (c *Collector) collectOrder(ctx context.Context, r domain.EntityReader, id int64) (*models.OrderSnapshot, error) {
	order, err := r.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &models.OrderSnapshot{
		ID:        order.ID,
		Status:    order.Status,
		Total:     order.Total,
		CreatedAt: order.CreatedAt,
		BookingID: order.BookingID,
	}

	snap.Client, err = userRefByID(ctx, r, order.ClientID)
	if err != nil {
		return nil, fmt.Errorf("collecting order %d client: %w", id, err)
	}

	snap.Manager, err = userRefByID(ctx, r, order.ManagerID)
	if err != nil {
		return nil, fmt.Errorf("collecting order %d manager: %w", id, err)
	}

	snap.Department, err = departmentRef(ctx, r, order.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("collecting order %d department: %w", id, err)
	}

	snap.Items, err = r.ListOrderItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("collecting order %d items: %w", id, err)
	}

	return snap, nil
}

func (c *Collector) collectBooking(ctx context.Context, r domain.EntityReader, id int64) (*models.BookingSnapshot, error) {
	booking, err := r.GetBooking(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &models.BookingSnapshot{
		ID:        booking.ID,
		Status:    booking.Status,
		Date:      booking.Date,
		CreatedAt: booking.CreatedAt,
		OrderID:   booking.OrderID,
	}

	snap.Client, err = userRefByID(ctx, r, booking.ClientID)
	if err != nil {
		return nil, fmt.Errorf("collecting booking %d client: %w", id, err)
	}

	snap.Manager, err = userRefByID(ctx, r, booking.ManagerID)
	if err != nil {
		return nil, fmt.Errorf("collecting booking %d manager: %w", id, err)
	}

	snap.Department, err = departmentRef(ctx, r, booking.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("collecting booking %d department: %w", id, err)
	}

	if booking.ServiceKitID != nil {
		kit, err := r.GetServiceKit(ctx, *booking.ServiceKitID)
		if err != nil && !errors.Is(err, models.ErrEntityNotFound) {
			return nil, fmt.Errorf("collecting booking %d service kit: %w", id, err)
		}

		if kit != nil {
			snap.ServiceKit = &models.ServiceKitRef{ID: kit.ID, Name: kit.Name, Address: kit.Address}
		}
	}

	return snap, nil
}

func (c *Collector) collectServiceKit(ctx context.Context, r domain.EntityReader, id int64) (*models.ServiceKitSnapshot, error) {
	kit, err := r.GetServiceKit(ctx, id)
	if err != nil {
		return nil, err
	}

	snap := &models.ServiceKitSnapshot{
		ID:      kit.ID,
		Name:    kit.Name,
		Address: kit.Address,
	}

	snap.Department, err = departmentRef(ctx, r, kit.DepartmentID)
	if err != nil {
		return nil, fmt.Errorf("collecting service kit %d department: %w", id, err)
	}

	return snap, nil
}

// userRefByID resolves an optional user foreign key into an inlined ref.
// A dangling reference degrades to nil instead of failing the snapshot.
func userRefByID(ctx context.Context, r domain.EntityReader, id *int64) (*models.UserRef, error) {
	if id == nil {
		return nil, nil
	}

	u, err := r.GetUser(ctx, *id)
	if err != nil {
		if errors.Is(err, models.ErrEntityNotFound) {
			return nil, nil
		}

		return nil, err
	}

	ref := userRef(*u)

	return &ref, nil
}

func departmentRef(ctx context.Context, r domain.EntityReader, id *int64) (*models.DepartmentRef, error) {
	if id == nil {
		return nil, nil
	}

	d, err := r.GetDepartment(ctx, *id)
	if err != nil {
		if errors.Is(err, models.ErrEntityNotFound) {
			return nil, nil
		}

		return nil, err
	}

	return &models.DepartmentRef{ID: d.ID, Name: d.Name}, nil
}

func userRef(u models.User) models.UserRef {
	ref := models.UserRef{
		ID:     u.ID,
		Name:   u.FirstName + " " + u.LastName,
		Role:   u.Role,
		Status: u.Status,
	}

	if u.DepartmentID != nil {
		ref.DepartmentID = *u.DepartmentID
	}

	return ref
}

func orderSummary(o models.Order) models.OrderSummary {
	return models.OrderSummary{
		ID:        o.ID,
		Status:    o.Status,
		Total:     o.Total,
		CreatedAt: o.CreatedAt,
	}
}
