package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
)

// querier is the query subset shared by dbpool.Pool and pgx.Tx, so the same
// read methods can run on the pool or inside a transaction-bound view.
type querier interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// Compile-time checks: *EntityStore serves both plain and view-bound reads.
var (
	_ domain.EntityReader = (*EntityStore)(nil)
	_ domain.EntityViewer = (*EntityStore)(nil)
)

// EntityStore reads the core business entities. It is the single place this
// service touches the business tables: the snapshot collector materializes
// entity trees through it, the recorder resolves actors, the query service
// resolves current display values, and the propagator locates referrers.
type EntityStore struct {
	Base

	q querier
}

// NewEntityStore creates an EntityStore reading from the pool.
func NewEntityStore(base Base) *EntityStore {
	return &EntityStore{Base: base, q: base.Pool}
}

// View runs fn with a copy of the store bound to one read-only transaction,
// so every read made inside fn observes the same database state. The snapshot
// collector depends on this: an entity tree assembled from several queries
// must not tear under concurrent writes.
func (s *EntityStore) View(ctx context.Context, fn func(domain.EntityReader) error) error {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	tx, err := s.beginViewTx(ctx)
	if err != nil {
		return fmt.Errorf("beginning entity view: %w", err)
	}
	defer tx.Rollback(ctx) //nolint:errcheck // best-effort rollback after commit.

	view := *s
	view.q = tx

	if err := fn(&view); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing entity view: %w", err)
	}

	return nil
}

// GetActor resolves a user into a frozen actor snapshot, including the
// department name as of now. Returns models.ErrActorNotFound when the user
// does not exist.
func (s *EntityStore) GetActor(ctx context.Context, userID int64) (*models.ActorSnapshot, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var actor models.ActorSnapshot
	var deptName *string

	err := s.q.QueryRow(ctx, `
		SELECT u.id, u.first_name, u.last_name, u.phone, u.role, u.department_id, d.name
		FROM users u
		LEFT JOIN departments d ON d.id = u.department_id
		WHERE u.id = $1`,
		userID,
	).Scan(&actor.ID, &actor.FirstName, &actor.LastName, &actor.Phone,
		&actor.Role, &actor.DepartmentID, &deptName)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, models.ErrActorNotFound
		}

		return nil, fmt.Errorf("resolving actor %d: %w", userID, err)
	}

	if deptName != nil {
		actor.DepartmentName = *deptName
	}

	return &actor, nil
}

// GetUser returns one user row.
func (s *EntityStore) GetUser(ctx context.Context, id int64) (*models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var u models.User

	err := s.q.QueryRow(ctx, `
		SELECT id, first_name, last_name, phone, role, status, department_id, created_at
		FROM users WHERE id = $1`, id,
	).Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &u.Role, &u.Status, &u.DepartmentID, &u.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "user", id)
	}

	return &u, nil
}

// GetDepartment returns one department row.
func (s *EntityStore) GetDepartment(ctx context.Context, id int64) (*models.Department, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var d models.Department

	err := s.q.QueryRow(ctx,
		`SELECT id, name, status, created_at FROM departments WHERE id = $1`, id,
	).Scan(&d.ID, &d.Name, &d.Status, &d.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "department", id)
	}

	return &d, nil
}

// GetProduct returns one product row.
func (s *EntityStore) GetProduct(ctx context.Context, id int64) (*models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var p models.Product

	err := s.q.QueryRow(ctx, `
		SELECT id, name, price, status, category_id, department_id, created_at
		FROM products WHERE id = $1`, id,
	).Scan(&p.ID, &p.Name, &p.Price, &p.Status, &p.CategoryID, &p.DepartmentID, &p.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "product", id)
	}

	return &p, nil
}

// GetOrder returns one order row.
func (s *EntityStore) GetOrder(ctx context.Context, id int64) (*models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var o models.Order

	err := s.q.QueryRow(ctx, `
		SELECT id, status, total, client_id, manager_id, department_id, booking_id, created_at
		FROM orders WHERE id = $1`, id,
	).Scan(&o.ID, &o.Status, &o.Total, &o.ClientID, &o.ManagerID, &o.DepartmentID, &o.BookingID, &o.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "order", id)
	}

	return &o, nil
}

// GetBooking returns one booking row.
func (s *EntityStore) GetBooking(ctx context.Context, id int64) (*models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var b models.Booking

	err := s.q.QueryRow(ctx, `
		SELECT id, status, date, client_id, manager_id, department_id, service_kit_id, order_id, created_at
		FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.Status, &b.Date, &b.ClientID, &b.ManagerID, &b.DepartmentID,
		&b.ServiceKitID, &b.OrderID, &b.CreatedAt)
	if err != nil {
		return nil, wrapNotFound(err, "booking", id)
	}

	return &b, nil
}

// GetServiceKit returns one service kit row.
func (s *EntityStore) GetServiceKit(ctx context.Context, id int64) (*models.ServiceKit, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var k models.ServiceKit

	err := s.q.QueryRow(ctx,
		`SELECT id, name, address, department_id FROM service_kits WHERE id = $1`, id,
	).Scan(&k.ID, &k.Name, &k.Address, &k.DepartmentID)
	if err != nil {
		return nil, wrapNotFound(err, "service kit", id)
	}

	return &k, nil
}

// GetCategory returns one category row.
func (s *EntityStore) GetCategory(ctx context.Context, id int64) (*models.Category, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	var c models.Category

	err := s.q.QueryRow(ctx,
		`SELECT id, name FROM categories WHERE id = $1`, id,
	).Scan(&c.ID, &c.Name)
	if err != nil {
		return nil, wrapNotFound(err, "category", id)
	}

	return &c, nil
}

// ListDepartmentUsers returns every user currently in a department.
func (s *EntityStore) ListDepartmentUsers(ctx context.Context, departmentID int64) ([]models.User, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT id, first_name, last_name, phone, role, status, department_id, created_at
		FROM users WHERE department_id = $1 ORDER BY id`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("listing department users: %w", err)
	}
	defer rows.Close()

	var users []models.User

	for rows.Next() {
		var u models.User
		if err := rows.Scan(&u.ID, &u.FirstName, &u.LastName, &u.Phone, &u.Role,
			&u.Status, &u.DepartmentID, &u.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning user row: %w", err)
		}

		users = append(users, u)
	}

	return users, rows.Err()
}

// ListDepartmentProducts returns product rows for a department.
func (s *EntityStore) ListDepartmentProducts(ctx context.Context, departmentID int64) ([]models.Product, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT id, name, price, status, category_id, department_id, created_at
		FROM products WHERE department_id = $1 ORDER BY id`, departmentID)
	if err != nil {
		return nil, fmt.Errorf("listing department products: %w", err)
	}
	defer rows.Close()

	return scanProducts(rows)
}

// ListDepartmentOrders returns order rows for a department.
func (s *EntityStore) ListDepartmentOrders(ctx context.Context, departmentID int64) ([]models.Order, error) {
	return s.listOrders(ctx, "department_id", departmentID)
}

// ListClientOrders returns orders where the user acts as client.
func (s *EntityStore) ListClientOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.listOrders(ctx, "client_id", userID)
}

// ListManagedOrders returns orders where the user acts as manager.
func (s *EntityStore) ListManagedOrders(ctx context.Context, userID int64) ([]models.Order, error) {
	return s.listOrders(ctx, "manager_id", userID)
}

// listOrders runs the shared order query for one foreign-key column.
// The column name is always one of the fixed callers above, never user input.
func (s *EntityStore) listOrders(ctx context.Context, column string, id int64) ([]models.Order, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, fmt.Sprintf(`
		SELECT id, status, total, client_id, manager_id, department_id, booking_id, created_at
		FROM orders WHERE %s = $1 ORDER BY id`, column), id)
	if err != nil {
		return nil, fmt.Errorf("listing orders by %s: %w", column, err)
	}
	defer rows.Close()

	var orders []models.Order

	for rows.Next() {
		var o models.Order
		if err := rows.Scan(&o.ID, &o.Status, &o.Total, &o.ClientID, &o.ManagerID,
			&o.DepartmentID, &o.BookingID, &o.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning order row: %w", err)
		}

		orders = append(orders, o)
	}

	return orders, rows.Err()
}

// ListDepartmentCategoryIDs returns the ids of the categories a department
// is allowed to sell.
func (s *EntityStore) ListDepartmentCategoryIDs(ctx context.Context, departmentID int64) ([]int64, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx,
		`SELECT category_id FROM department_categories WHERE department_id = $1 ORDER BY category_id`,
		departmentID)
	if err != nil {
		return nil, fmt.Errorf("listing department categories: %w", err)
	}
	defer rows.Close()

	var ids []int64

	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("scanning category id: %w", err)
		}

		ids = append(ids, id)
	}

	return ids, rows.Err()
}

// ListProductFilterValues returns the resolved filter-value assignments of
// a product.
func (s *EntityStore) ListProductFilterValues(ctx context.Context, productID int64) ([]models.FilterValue, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT f.id, f.name, pfv.value
		FROM product_filter_values pfv
		JOIN filters f ON f.id = pfv.filter_id
		WHERE pfv.product_id = $1 ORDER BY f.id, pfv.value`, productID)
	if err != nil {
		return nil, fmt.Errorf("listing product filter values: %w", err)
	}
	defer rows.Close()

	var values []models.FilterValue

	for rows.Next() {
		var v models.FilterValue
		if err := rows.Scan(&v.FilterID, &v.Filter, &v.Value); err != nil {
			return nil, fmt.Errorf("scanning filter value: %w", err)
		}

		values = append(values, v)
	}

	return values, rows.Err()
}

// ListOrderItems returns the resolved line items of an order.
func (s *EntityStore) ListOrderItems(ctx context.Context, orderID int64) ([]models.OrderItem, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT oi.product_id, p.name, oi.quantity, oi.price
		FROM order_items oi
		JOIN products p ON p.id = oi.product_id
		WHERE oi.order_id = $1 ORDER BY oi.product_id`, orderID)
	if err != nil {
		return nil, fmt.Errorf("listing order items: %w", err)
	}
	defer rows.Close()

	var items []models.OrderItem

	for rows.Next() {
		var it models.OrderItem
		if err := rows.Scan(&it.ProductID, &it.Name, &it.Quantity, &it.Price); err != nil {
			return nil, fmt.Errorf("scanning order item: %w", err)
		}

		items = append(items, it)
	}

	return items, rows.Err()
}

// ListServiceKitBookings returns every booking referencing a service kit.
// The propagator uses this to locate direct referrers of a changed kit.
func (s *EntityStore) ListServiceKitBookings(ctx context.Context, kitID int64) ([]models.Booking, error) {
	ctx, cancel := withTimeout(ctx)
	defer cancel()

	rows, err := s.q.Query(ctx, `
		SELECT id, status, date, client_id, manager_id, department_id, service_kit_id, order_id, created_at
		FROM bookings WHERE service_kit_id = $1 ORDER BY id`, kitID)
	if err != nil {
		return nil, fmt.Errorf("listing service kit bookings: %w", err)
	}
	defer rows.Close()

	var bookings []models.Booking

	for rows.Next() {
		var b models.Booking
		if err := rows.Scan(&b.ID, &b.Status, &b.Date, &b.ClientID, &b.ManagerID,
			&b.DepartmentID, &b.ServiceKitID, &b.OrderID, &b.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning booking row: %w", err)
		}

		bookings = append(bookings, b)
	}

	return bookings, rows.Err()
}

// DisplayName returns the entity's current identifying text, so the query
// service can match renamed entities by their present values and decorate
// views with up-to-date display info. Returns models.ErrEntityNotFound for
// entities that no longer exist.
func (s *EntityStore) DisplayName(ctx context.Context, entityType models.EntityType, id int64) (string, error) {
	switch entityType {
	case models.EntityUser:
		u, err := s.GetUser(ctx, id)
		if err != nil {
			return "", err
		}

		return u.FirstName + " " + u.LastName, nil
	case models.EntityDepartment, models.EntityBookingDepartment:
		d, err := s.GetDepartment(ctx, id)
		if err != nil {
			return "", err
		}

		return d.Name, nil
	case models.EntityProduct:
		p, err := s.GetProduct(ctx, id)
		if err != nil {
			return "", err
		}

		return p.Name, nil
	case models.EntityOrder:
		o, err := s.GetOrder(ctx, id)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("order #%d (%s)", o.ID, o.Status), nil
	case models.EntityBooking:
		b, err := s.GetBooking(ctx, id)
		if err != nil {
			return "", err
		}

		return fmt.Sprintf("booking #%d (%s)", b.ID, b.Status), nil
	case models.EntityServiceKit:
		k, err := s.GetServiceKit(ctx, id)
		if err != nil {
			return "", err
		}

		return k.Name + ", " + k.Address, nil
	}

	return "", models.ErrInvalidEntityType
}

// scanProducts drains product rows.
func scanProducts(rows pgx.Rows) ([]models.Product, error) {
	var products []models.Product

	for rows.Next() {
		var p models.Product
		if err := rows.Scan(&p.ID, &p.Name, &p.Price, &p.Status, &p.CategoryID,
			&p.DepartmentID, &p.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning product row: %w", err)
		}

		products = append(products, p)
	}

	return products, rows.Err()
}

// wrapNotFound maps pgx.ErrNoRows to models.ErrEntityNotFound and wraps
// everything else with context.
func wrapNotFound(err error, kind string, id int64) error {
	if errors.Is(err, pgx.ErrNoRows) {
		return models.ErrEntityNotFound
	}

	return fmt.Errorf("fetching %s %d: %w", kind, id, err)
}
