package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
)

// fixtureReader serves entities from in-memory maps; missing ids report
// models.ErrEntityNotFound like the real store does. views counts View
// invocations so tests can assert how many read views a collection opened.
type fixtureReader struct {
	views int
	users       map[int64]models.User
	departments map[int64]models.Department
	products    map[int64]models.Product
	orders      map[int64]models.Order
	bookings    map[int64]models.Booking
	kits        map[int64]models.ServiceKit
	categories  map[int64]models.Category

	deptUsers    map[int64][]models.User
	deptProducts map[int64][]models.Product
	deptOrders   map[int64][]models.Order
	deptCats     map[int64][]int64
	clientOrders map[int64][]models.Order
	manageOrders map[int64][]models.Order
	filterValues map[int64][]models.FilterValue
	orderItems   map[int64][]models.OrderItem
}

func (f *fixtureReader) View(_ context.Context, fn func(domain.EntityReader) error) error {
	f.views++
	return fn(f)
}

func (f *fixtureReader) GetUser(_ context.Context, id int64) (*models.User, error) {
	if u, ok := f.users[id]; ok {
		return &u, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) GetDepartment(_ context.Context, id int64) (*models.Department, error) {
	if d, ok := f.departments[id]; ok {
		return &d, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) GetProduct(_ context.Context, id int64) (*models.Product, error) {
	if p, ok := f.products[id]; ok {
		return &p, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) GetOrder(_ context.Context, id int64) (*models.Order, error) {
	if o, ok := f.orders[id]; ok {
		return &o, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) GetBooking(_ context.Context, id int64) (*models.Booking, error) {
	if b, ok := f.bookings[id]; ok {
		return &b, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) GetServiceKit(_ context.Context, id int64) (*models.ServiceKit, error) {
	if k, ok := f.kits[id]; ok {
		return &k, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) GetCategory(_ context.Context, id int64) (*models.Category, error) {
	if c, ok := f.categories[id]; ok {
		return &c, nil
	}
	return nil, models.ErrEntityNotFound
}

func (f *fixtureReader) ListDepartmentUsers(_ context.Context, id int64) ([]models.User, error) {
	return f.deptUsers[id], nil
}

func (f *fixtureReader) ListDepartmentProducts(_ context.Context, id int64) ([]models.Product, error) {
	return f.deptProducts[id], nil
}

func (f *fixtureReader) ListDepartmentOrders(_ context.Context, id int64) ([]models.Order, error) {
	return f.deptOrders[id], nil
}

func (f *fixtureReader) ListDepartmentCategoryIDs(_ context.Context, id int64) ([]int64, error) {
	return f.deptCats[id], nil
}

func (f *fixtureReader) ListClientOrders(_ context.Context, id int64) ([]models.Order, error) {
	return f.clientOrders[id], nil
}

func (f *fixtureReader) ListManagedOrders(_ context.Context, id int64) ([]models.Order, error) {
	return f.manageOrders[id], nil
}

func (f *fixtureReader) ListProductFilterValues(_ context.Context, id int64) ([]models.FilterValue, error) {
	return f.filterValues[id], nil
}

func (f *fixtureReader) ListOrderItems(_ context.Context, id int64) ([]models.OrderItem, error) {
	return f.orderItems[id], nil
}

func ptr[T any](v T) *T { return &v }

func newTestCollector(reader *fixtureReader, now time.Time) *Collector {
	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	c := NewCollector(reader, log)
	c.now = func() time.Time { return now }
	return c
}

func TestCollect_UnknownEntityType(t *testing.T) {
	c := newTestCollector(&fixtureReader{}, time.Now())

	_, err := c.Collect(context.Background(), "warehouse", 1)
	if !errors.Is(err, models.ErrInvalidEntityType) {
		t.Fatalf("got err %v, want ErrInvalidEntityType", err)
	}
}

func TestCollect_EntityGone(t *testing.T) {
	c := newTestCollector(&fixtureReader{}, time.Now())

	for _, et := range []models.EntityType{
		models.EntityUser, models.EntityDepartment, models.EntityProduct,
		models.EntityOrder, models.EntityBooking, models.EntityServiceKit,
	} {
		if _, err := c.Collect(context.Background(), et, 999); !errors.Is(err, models.ErrEntityNotFound) {
			t.Errorf("%s: got err %v, want ErrEntityNotFound", et, err)
		}
	}
}

func TestCollect_User(t *testing.T) {
	created := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	now := created.AddDate(0, 0, 45)

	reader := &fixtureReader{
		users: map[int64]models.User{
			7: {ID: 7, FirstName: "Ivan", LastName: "Sokolov", Role: "manager",
				Status: "active", DepartmentID: ptr(int64(5)), CreatedAt: created},
		},
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics", Status: "active"},
		},
		clientOrders: map[int64][]models.Order{
			7: {{ID: 300, Status: "paid", Total: 9000}, {ID: 301, Status: "open", Total: 2500}},
		},
		manageOrders: map[int64][]models.Order{
			7: {{ID: 400, Status: "open", Total: 100}},
		},
	}

	c := newTestCollector(reader, now)

	snap, err := c.Collect(context.Background(), models.EntityUser, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	u := snap.User
	if u == nil {
		t.Fatal("user variant not set")
	}
	if u.Department == nil || u.Department.Name != "Logistics" {
		t.Errorf("department ref = %+v, want Logistics", u.Department)
	}
	if u.OrderCount != 2 || u.OrderTotal != 11500 {
		t.Errorf("order aggregates = %d / %d, want 2 / 11500", u.OrderCount, u.OrderTotal)
	}
	if len(u.ManagedOrders) != 1 {
		t.Errorf("managed orders = %d, want 1", len(u.ManagedOrders))
	}
	if u.AccountAgeDays != 45 {
		t.Errorf("account age = %d days, want 45", u.AccountAgeDays)
	}
}

func TestCollect_UserWithDanglingDepartment(t *testing.T) {
	reader := &fixtureReader{
		users: map[int64]models.User{
			7: {ID: 7, FirstName: "Ivan", DepartmentID: ptr(int64(99))},
		},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityUser, 7)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.User.Department != nil {
		t.Errorf("department ref = %+v, want nil for dangling reference", snap.User.Department)
	}
}

func TestCollect_Department(t *testing.T) {
	reader := &fixtureReader{
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics", Status: "active"},
		},
		deptUsers: map[int64][]models.User{
			5: {
				{ID: 1, FirstName: "Anna", LastName: "Petrova", Status: "active", DepartmentID: ptr(int64(5))},
				{ID: 2, FirstName: "Pavel", LastName: "Orlov", Status: "blocked"},
			},
		},
		deptProducts: map[int64][]models.Product{
			5: {{ID: 20, Name: "Chair", Price: 4500, Status: "active"}},
		},
		deptOrders: map[int64][]models.Order{
			5: {{ID: 300, Status: "paid", Total: 9000}},
		},
		deptCats: map[int64][]int64{5: {10, 11}},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityDepartment, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	d := snap.Department
	if d.UserCount != 2 || d.ActiveUserCount != 1 {
		t.Errorf("user counts = %d / %d, want 2 / 1", d.UserCount, d.ActiveUserCount)
	}
	if d.ProductCount != 1 || d.OrderCount != 1 {
		t.Errorf("product/order counts = %d / %d, want 1 / 1", d.ProductCount, d.OrderCount)
	}
	if len(d.CategoryIDs) != 2 {
		t.Errorf("category ids = %v, want 2 entries", d.CategoryIDs)
	}
	if d.Users[0].Name != "Anna Petrova" || d.Users[0].DepartmentID != 5 {
		t.Errorf("user ref = %+v, want inlined name and department", d.Users[0])
	}
}

func TestCollect_DepartmentOrderSummaries(t *testing.T) {
	created := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)

	reader := &fixtureReader{
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics", Status: "active"},
		},
		deptOrders: map[int64][]models.Order{
			5: {{ID: 300, Status: "paid", Total: 9000, CreatedAt: created}},
		},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityDepartment, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	want := models.OrderSummary{ID: 300, Status: "paid", Total: 9000, CreatedAt: created}
	if len(snap.Department.Orders) != 1 || snap.Department.Orders[0] != want {
		t.Errorf("order summaries = %+v, want [%+v]", snap.Department.Orders, want)
	}
}

func TestCollect_OneViewPerSnapshot(t *testing.T) {
	reader := &fixtureReader{
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics", Status: "active"},
		},
		deptUsers: map[int64][]models.User{
			5: {{ID: 1, FirstName: "Anna", LastName: "Petrova", Status: "active"}},
		},
		deptOrders: map[int64][]models.Order{
			5: {{ID: 300, Status: "paid", Total: 9000}},
		},
		deptCats: map[int64][]int64{5: {10}},
	}

	c := newTestCollector(reader, time.Now())

	if _, err := c.Collect(context.Background(), models.EntityDepartment, 5); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Five relation reads, one consistent view.
	if reader.views != 1 {
		t.Errorf("views opened = %d, want 1", reader.views)
	}
}

func TestCollect_BookingDepartmentUsesDepartmentVariant(t *testing.T) {
	reader := &fixtureReader{
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics", Status: "active"},
		},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityBookingDepartment, 5)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if snap.EntityType != models.EntityBookingDepartment {
		t.Errorf("entity type = %s, want bookingDepartment", snap.EntityType)
	}
	if snap.Department == nil || snap.Department.Name != "Logistics" {
		t.Errorf("department variant = %+v, want Logistics", snap.Department)
	}
}

func TestCollect_Order(t *testing.T) {
	reader := &fixtureReader{
		orders: map[int64]models.Order{
			300: {ID: 300, Status: "paid", Total: 9000,
				ClientID: ptr(int64(7)), ManagerID: ptr(int64(99)),
				DepartmentID: ptr(int64(5)), BookingID: ptr(int64(100))},
		},
		users: map[int64]models.User{
			7: {ID: 7, FirstName: "Ivan", LastName: "Sokolov"},
		},
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics"},
		},
		orderItems: map[int64][]models.OrderItem{
			300: {{ProductID: 20, Name: "Chair", Quantity: 2, Price: 4500}},
		},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityOrder, 300)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	o := snap.Order
	if o.Client == nil || o.Client.Name != "Ivan Sokolov" {
		t.Errorf("client ref = %+v, want Ivan Sokolov", o.Client)
	}
	// Manager id 99 does not resolve; the ref degrades to nil.
	if o.Manager != nil {
		t.Errorf("manager ref = %+v, want nil for dangling reference", o.Manager)
	}
	if o.BookingID == nil || *o.BookingID != 100 {
		t.Errorf("booking link = %v, want 100", o.BookingID)
	}
	if len(o.Items) != 1 || o.Items[0].Name != "Chair" {
		t.Errorf("items = %+v, want one resolved line", o.Items)
	}
}

func TestCollect_Booking(t *testing.T) {
	date := time.Date(2026, 3, 14, 10, 0, 0, 0, time.UTC)

	reader := &fixtureReader{
		bookings: map[int64]models.Booking{
			100: {ID: 100, Status: "scheduled", Date: date,
				ManagerID: ptr(int64(2)), ServiceKitID: ptr(int64(50)), OrderID: ptr(int64(300))},
		},
		users: map[int64]models.User{
			2: {ID: 2, FirstName: "Olga", LastName: "Ivanova"},
		},
		kits: map[int64]models.ServiceKit{
			50: {ID: 50, Name: "Downtown Kit", Address: "12 Main St"},
		},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityBooking, 100)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	b := snap.Booking
	if b.ServiceKit == nil || b.ServiceKit.Name != "Downtown Kit" || b.ServiceKit.Address != "12 Main St" {
		t.Errorf("service kit ref = %+v, want Downtown Kit", b.ServiceKit)
	}
	if b.Manager == nil || b.Manager.Name != "Olga Ivanova" {
		t.Errorf("manager ref = %+v, want Olga Ivanova", b.Manager)
	}
	if b.OrderID == nil || *b.OrderID != 300 {
		t.Errorf("order link = %v, want 300", b.OrderID)
	}
}

func TestCollect_ServiceKit(t *testing.T) {
	reader := &fixtureReader{
		kits: map[int64]models.ServiceKit{
			50: {ID: 50, Name: "Downtown Kit", Address: "12 Main St", DepartmentID: ptr(int64(5))},
		},
		departments: map[int64]models.Department{
			5: {ID: 5, Name: "Logistics"},
		},
	}

	c := newTestCollector(reader, time.Now())

	snap, err := c.Collect(context.Background(), models.EntityServiceKit, 50)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	k := snap.ServiceKit
	if k.Name != "Downtown Kit" || k.Address != "12 Main St" {
		t.Errorf("kit = %+v, want name and address", k)
	}
	if k.Department == nil || k.Department.Name != "Logistics" {
		t.Errorf("department ref = %+v, want Logistics", k.Department)
	}
}
