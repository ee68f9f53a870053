package store_test

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/orderdesk/backoffice/internal/domain"
	"github.com/orderdesk/backoffice/internal/models"
	"github.com/orderdesk/backoffice/internal/store"
)

func TestGetActor(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)
	ctx := context.Background()

	deptID := seedDepartment(t, base, "Sales")
	userID := seedUser(t, base, "Anna", "Petrova", &deptID)

	actor, err := s.GetActor(ctx, userID)
	if err != nil {
		t.Fatalf("GetActor: %v", err)
	}

	if actor.DisplayName() != "Anna Petrova" {
		t.Errorf("display name = %q, want %q", actor.DisplayName(), "Anna Petrova")
	}
	if actor.Role != "manager" {
		t.Errorf("role = %q, want manager", actor.Role)
	}
	if actor.DepartmentID == nil || *actor.DepartmentID != deptID {
		t.Errorf("department id = %v, want %d", actor.DepartmentID, deptID)
	}
	if actor.DepartmentName != "Sales" {
		t.Errorf("department name = %q, want Sales", actor.DepartmentName)
	}
}

func TestGetActor_NoDepartment(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)

	userID := seedUser(t, base, "Pavel", "Orlov", nil)

	actor, err := s.GetActor(context.Background(), userID)
	if err != nil {
		t.Fatalf("GetActor: %v", err)
	}
	if actor.DepartmentID != nil || actor.DepartmentName != "" {
		t.Errorf("expected no department, got id=%v name=%q", actor.DepartmentID, actor.DepartmentName)
	}
}

func TestGetActor_NotFound(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)

	_, err := s.GetActor(context.Background(), 99999)
	if !errors.Is(err, models.ErrActorNotFound) {
		t.Errorf("error = %v, want ErrActorNotFound", err)
	}
}

func TestGetEntity_NotFound(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)
	ctx := context.Background()

	_, err := s.GetUser(ctx, 99999)
	if !errors.Is(err, models.ErrEntityNotFound) {
		t.Errorf("GetUser error = %v, want ErrEntityNotFound", err)
	}

	_, err = s.GetServiceKit(ctx, 99999)
	if !errors.Is(err, models.ErrEntityNotFound) {
		t.Errorf("GetServiceKit error = %v, want ErrEntityNotFound", err)
	}
}

func TestListServiceKitBookings(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)
	ctx := context.Background()

	kitID := seedServiceKit(t, base, "Downtown Kit", "12 Main St")
	otherKitID := seedServiceKit(t, base, "Uptown Kit", "7 North Ave")

	orderID := seedOrder(t, base, nil)
	b1 := seedBooking(t, base, &kitID, &orderID)
	b2 := seedBooking(t, base, &kitID, nil)
	seedBooking(t, base, &otherKitID, nil)

	bookings, err := s.ListServiceKitBookings(ctx, kitID)
	if err != nil {
		t.Fatalf("ListServiceKitBookings: %v", err)
	}

	if len(bookings) != 2 {
		t.Fatalf("booking count = %d, want 2", len(bookings))
	}
	if bookings[0].ID != b1 || bookings[1].ID != b2 {
		t.Errorf("booking ids = [%d %d], want [%d %d]", bookings[0].ID, bookings[1].ID, b1, b2)
	}
	if bookings[0].OrderID == nil || *bookings[0].OrderID != orderID {
		t.Errorf("first booking order id = %v, want %d", bookings[0].OrderID, orderID)
	}
	if bookings[1].OrderID != nil {
		t.Errorf("second booking order id = %v, want nil", bookings[1].OrderID)
	}
}

func TestDisplayName(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)
	ctx := context.Background()

	deptID := seedDepartment(t, base, "Sales")
	userID := seedUser(t, base, "Ivan", "Sokolov", &deptID)
	kitID := seedServiceKit(t, base, "Downtown Kit", "12 Main St")
	orderID := seedOrder(t, base, &userID)

	tests := []struct {
		name       string
		entityType models.EntityType
		id         int64
		want       string
	}{
		{name: "user", entityType: models.EntityUser, id: userID, want: "Ivan Sokolov"},
		{name: "department", entityType: models.EntityDepartment, id: deptID, want: "Sales"},
		{name: "booking department", entityType: models.EntityBookingDepartment, id: deptID, want: "Sales"},
		{name: "service kit", entityType: models.EntityServiceKit, id: kitID, want: "Downtown Kit, 12 Main St"},
		{name: "order", entityType: models.EntityOrder, id: orderID, want: fmt.Sprintf("order #%d (open)", orderID)},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := s.DisplayName(ctx, tc.entityType, tc.id)
			if err != nil {
				t.Fatalf("DisplayName: %v", err)
			}
			if got != tc.want {
				t.Errorf("DisplayName = %q, want %q", got, tc.want)
			}
		})
	}
}

func TestDisplayName_Gone(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)

	_, err := s.DisplayName(context.Background(), models.EntityUser, 99999)
	if !errors.Is(err, models.ErrEntityNotFound) {
		t.Errorf("error = %v, want ErrEntityNotFound", err)
	}
}

func TestListClientAndManagedOrders(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)
	ctx := context.Background()

	clientID := seedUser(t, base, "Ivan", "Sokolov", nil)
	managerID := seedUser(t, base, "Olga", "Ivanova", nil)

	o1 := seedOrder(t, base, &clientID)
	o2 := seedOrder(t, base, &clientID)
	if _, err := base.Pool.Exec(ctx,
		"UPDATE orders SET manager_id = $1 WHERE id = $2", managerID, o2); err != nil {
		t.Fatalf("assigning manager: %v", err)
	}

	client, err := s.ListClientOrders(ctx, clientID)
	if err != nil {
		t.Fatalf("ListClientOrders: %v", err)
	}
	if len(client) != 2 || client[0].ID != o1 || client[1].ID != o2 {
		t.Errorf("client orders = %+v, want ids [%d %d]", client, o1, o2)
	}

	managed, err := s.ListManagedOrders(ctx, managerID)
	if err != nil {
		t.Fatalf("ListManagedOrders: %v", err)
	}
	if len(managed) != 1 || managed[0].ID != o2 {
		t.Errorf("managed orders = %+v, want id %d", managed, o2)
	}
}

func TestEntityStoreView_ConsistentReads(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)
	ctx := context.Background()

	deptID := seedDepartment(t, base, "Sales")
	seedUser(t, base, "Anna", "Petrova", &deptID)

	err := s.View(ctx, func(r domain.EntityReader) error {
		first, err := r.ListDepartmentUsers(ctx, deptID)
		if err != nil {
			return err
		}

		// Committed outside the view after its snapshot was pinned.
		seedUser(t, base, "Pavel", "Orlov", &deptID)

		second, err := r.ListDepartmentUsers(ctx, deptID)
		if err != nil {
			return err
		}

		if len(first) != 1 || len(second) != 1 {
			t.Errorf("reads inside one view = %d then %d users, want 1 and 1", len(first), len(second))
		}

		return nil
	})
	if err != nil {
		t.Fatalf("View: %v", err)
	}

	// The view is read-only snapshot state, not lost data.
	after, err := s.ListDepartmentUsers(ctx, deptID)
	if err != nil {
		t.Fatalf("ListDepartmentUsers: %v", err)
	}
	if len(after) != 2 {
		t.Errorf("users after view = %d, want 2", len(after))
	}
}

func TestListDepartmentUsers(t *testing.T) {
	base := setupTestBase(t)
	s := store.NewEntityStore(base)

	deptID := seedDepartment(t, base, "Sales")
	u1 := seedUser(t, base, "Anna", "Petrova", &deptID)
	u2 := seedUser(t, base, "Pavel", "Orlov", &deptID)
	seedUser(t, base, "Ivan", "Sokolov", nil)

	users, err := s.ListDepartmentUsers(context.Background(), deptID)
	if err != nil {
		t.Fatalf("ListDepartmentUsers: %v", err)
	}
	if len(users) != 2 || users[0].ID != u1 || users[1].ID != u2 {
		t.Errorf("users = %+v, want ids [%d %d]", users, u1, u2)
	}
}
