package store_test

import (
	"context"
	"os"
	"testing"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/orderdesk/backoffice/internal/dbpool"
	"github.com/orderdesk/backoffice/internal/store"
)

// testEnv holds shared test infrastructure (single pool across all tests).
type testEnv struct {
	pool *dbpool.Pool
	log  *logrus.Logger
}

var sharedEnv *testEnv

func getTestEnv(t *testing.T) *testEnv {
	t.Helper()

	if sharedEnv != nil {
		return sharedEnv
	}

	dbURL := os.Getenv("TEST_DATABASE_URL")
	if dbURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	ctx := context.Background()

	pool, err := dbpool.NewPool(ctx, dbURL)
	if err != nil {
		t.Fatalf("connecting to test DB: %v", err)
	}

	log := logrus.New()
	log.SetLevel(logrus.ErrorLevel)

	sharedEnv = &testEnv{
		pool: pool,
		log:  log,
	}

	return sharedEnv
}

// setupTestBase creates a Base over a wiped schema: tests own the whole
// database, so every table is truncated up front.
func setupTestBase(t *testing.T) store.Base {
	t.Helper()

	env := getTestEnv(t)
	ctx := context.Background()

	_, err := env.pool.Exec(ctx, `
		TRUNCATE change_log, legacy_change_log, order_items, orders, bookings,
			service_kits, product_filter_values, products, filters,
			department_categories, categories, users, departments
		RESTART IDENTITY CASCADE`)
	if err != nil {
		t.Fatalf("truncating test tables: %v", err)
	}

	return store.Base{Pool: env.pool, Log: env.log}
}

// seedDepartment inserts a department row and returns its id.
func seedDepartment(t *testing.T, base store.Base, name string) int64 {
	t.Helper()

	var id int64
	err := base.Pool.QueryRow(context.Background(),
		"INSERT INTO departments (name, status) VALUES ($1, 'active') RETURNING id", name,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding department: %v", err)
	}

	return id
}

// seedUser inserts a user row and returns its id.
func seedUser(t *testing.T, base store.Base, first, last string, departmentID *int64) int64 {
	t.Helper()

	var id int64
	err := base.Pool.QueryRow(context.Background(), `
		INSERT INTO users (first_name, last_name, phone, role, status, department_id)
		VALUES ($1, $2, '', 'manager', 'active', $3) RETURNING id`,
		first, last, departmentID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding user: %v", err)
	}

	return id
}

// seedServiceKit inserts a service kit row and returns its id.
func seedServiceKit(t *testing.T, base store.Base, name, address string) int64 {
	t.Helper()

	var id int64
	err := base.Pool.QueryRow(context.Background(),
		"INSERT INTO service_kits (name, address) VALUES ($1, $2) RETURNING id", name, address,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding service kit: %v", err)
	}

	return id
}

// seedBooking inserts a booking row and returns its id.
func seedBooking(t *testing.T, base store.Base, kitID, orderID *int64) int64 {
	t.Helper()

	var id int64
	err := base.Pool.QueryRow(context.Background(), `
		INSERT INTO bookings (status, date, service_kit_id, order_id)
		VALUES ('scheduled', $1, $2, $3) RETURNING id`,
		time.Now().Add(48*time.Hour), kitID, orderID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding booking: %v", err)
	}

	return id
}

// seedOrder inserts an order row and returns its id.
func seedOrder(t *testing.T, base store.Base, clientID *int64) int64 {
	t.Helper()

	var id int64
	err := base.Pool.QueryRow(context.Background(),
		"INSERT INTO orders (status, total, client_id) VALUES ('open', 0, $1) RETURNING id", clientID,
	).Scan(&id)
	if err != nil {
		t.Fatalf("seeding order: %v", err)
	}

	return id
}
