package database

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
)

func setupTestDb(t *testing.T) (*Service, func()) {
	db, err := sql.Open("sqlite3", ":memory:")
	if err != nil {
		t.Fatalf("Failed to open test database: %v", err)
	}
	// Every pooled connection to :memory: would otherwise see its own database.
	db.SetMaxOpenConns(1)

	service, err := newServiceFromDB(db)
	if err != nil {
		t.Fatalf("Failed to create test schema: %v", err)
	}

	cleanup := func() {
		db.Close()
	}

	return service, cleanup
}

func newTestOrder(id, username string, amount string, created time.Time) *models.Order {
	expires := created.Add(10 * time.Minute).UnixMilli()
	return &models.Order{
		OrderId:   id,
		Username:  username,
		Game:      "Fire Kirin",
		Amount:    decimal.RequireFromString(amount),
		Btc:       "0.00100000",
		Method:    models.MethodLightning,
		Status:    models.OrderStatusPending,
		Invoice:   "lnbc1test" + id,
		CreatedAt: created,
		ExpiresAt: &expires,
	}
}

func TestCreateOrder_RoundTrip(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	created := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	order := newTestOrder("pi_1", "Alice", "50", created)

	if err := service.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	got, err := service.GetOrder(ctx, "pi_1")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}

	if got.OrderId != "pi_1" {
		t.Errorf("Expected order id pi_1, got %s", got.OrderId)
	}
	if got.Status != models.OrderStatusPending {
		t.Errorf("Expected status pending, got %s", got.Status)
	}
	if !got.Amount.Equal(decimal.NewFromInt(50)) {
		t.Errorf("Expected amount 50, got %s", got.Amount.String())
	}
	if !got.CreatedAt.Equal(created) {
		t.Errorf("Expected created %v, got %v", created, got.CreatedAt)
	}
	if got.ExpiresAt == nil || *got.ExpiresAt != *order.ExpiresAt {
		t.Errorf("Expected expires_at %d, got %v", *order.ExpiresAt, got.ExpiresAt)
	}
	if got.PaidManually || got.Read || got.PaidAt != nil || got.ReadAt != nil {
		t.Errorf("Expected fresh order flags, got %+v", got)
	}
}

func TestCreateOrder_NullExpiry(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("pi_noexp", "bob", "20", time.Now())
	order.ExpiresAt = nil

	if err := service.CreateOrder(ctx, order); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	got, err := service.GetOrder(ctx, "pi_noexp")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.ExpiresAt != nil {
		t.Errorf("Expected nil expiry, got %d", *got.ExpiresAt)
	}
	if !got.Expired(time.Now()) {
		t.Errorf("Expected order without expiry to count as expired")
	}
}

func TestCreateOrder_DuplicateHandling(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	order := newTestOrder("pi_dup", "alice", "10", time.Now())

	if err := service.CreateOrder(ctx, order); err != nil {
		t.Fatalf("First CreateOrder failed: %v", err)
	}

	err := service.CreateOrder(ctx, order)
	if !errors.Is(err, store.ErrDuplicateOrder) {
		t.Errorf("Expected duplicate order error, got: %v", err)
	}
}

func TestGetOrder_NotFound(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	_, err := service.GetOrder(context.Background(), "missing")
	if !errors.Is(err, store.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound, got: %v", err)
	}
}

func TestMarkOrderPaid_Idempotent(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.CreateOrder(ctx, newTestOrder("pi_pay", "alice", "25", time.Now())); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	updated, err := service.MarkOrderPaid(ctx, "pi_pay", time.Now())
	if err != nil {
		t.Fatalf("MarkOrderPaid failed: %v", err)
	}
	if !updated {
		t.Errorf("Expected first MarkOrderPaid to update")
	}

	updated, err = service.MarkOrderPaid(ctx, "pi_pay", time.Now())
	if err != nil {
		t.Fatalf("Second MarkOrderPaid failed: %v", err)
	}
	if updated {
		t.Errorf("Expected second MarkOrderPaid to be a no-op")
	}

	got, err := service.GetOrder(ctx, "pi_pay")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != models.OrderStatusPaid || got.PaidManually || got.PaidAt == nil {
		t.Errorf("Expected paid, not manual, with paid_at; got %+v", got)
	}
}

func TestMarkOrderPaid_ConcurrentCallersConverge(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.CreateOrder(ctx, newTestOrder("pi_race", "alice", "25", time.Now())); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	var wg sync.WaitGroup
	var mu sync.Mutex
	updates := 0
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			updated, err := service.MarkOrderPaid(ctx, "pi_race", time.Now())
			if err != nil {
				t.Errorf("MarkOrderPaid failed: %v", err)
				return
			}
			if updated {
				mu.Lock()
				updates++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if updates != 1 {
		t.Errorf("Expected exactly one caller to apply the update, got %d", updates)
	}
}

func TestForceOrderPaid(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.CreateOrder(ctx, newTestOrder("pi_manual", "alice", "25", time.Now())); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	if err := service.ForceOrderPaid(ctx, "pi_manual", time.Now()); err != nil {
		t.Fatalf("ForceOrderPaid failed: %v", err)
	}

	got, err := service.GetOrder(ctx, "pi_manual")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if got.Status != models.OrderStatusPaid || !got.PaidManually {
		t.Errorf("Expected paid manually, got status=%s manual=%v", got.Status, got.PaidManually)
	}

	// A later provider confirmation must not flip the status or clear the flag.
	updated, err := service.MarkOrderPaid(ctx, "pi_manual", time.Now())
	if err != nil {
		t.Fatalf("MarkOrderPaid failed: %v", err)
	}
	if updated {
		t.Errorf("Expected provider confirmation after manual mark to be a no-op")
	}

	if err := service.ForceOrderPaid(ctx, "missing", time.Now()); !errors.Is(err, store.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound for missing order, got: %v", err)
	}
}

func TestMarkOrderReadAndDelete(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	if err := service.CreateOrder(ctx, newTestOrder("pi_read", "alice", "25", time.Now())); err != nil {
		t.Fatalf("CreateOrder failed: %v", err)
	}

	readAt := time.Date(2026, 3, 2, 9, 30, 0, 0, time.UTC)
	if err := service.MarkOrderRead(ctx, "pi_read", readAt); err != nil {
		t.Fatalf("MarkOrderRead failed: %v", err)
	}

	got, err := service.GetOrder(ctx, "pi_read")
	if err != nil {
		t.Fatalf("GetOrder failed: %v", err)
	}
	if !got.Read || got.ReadAt == nil || !got.ReadAt.Equal(readAt) {
		t.Errorf("Expected read at %v, got read=%v read_at=%v", readAt, got.Read, got.ReadAt)
	}

	if err := service.DeleteOrder(ctx, "pi_read"); err != nil {
		t.Fatalf("DeleteOrder failed: %v", err)
	}
	if _, err := service.GetOrder(ctx, "pi_read"); !errors.Is(err, store.ErrOrderNotFound) {
		t.Errorf("Expected deleted order to be gone, got: %v", err)
	}
	if err := service.DeleteOrder(ctx, "pi_read"); !errors.Is(err, store.ErrOrderNotFound) {
		t.Errorf("Expected ErrOrderNotFound on second delete, got: %v", err)
	}
}

func TestListOrders_FilterAndOrder(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	for i, id := range []string{"pi_a", "pi_b", "pi_c"} {
		if err := service.CreateOrder(ctx, newTestOrder(id, "alice", "10", base.Add(time.Duration(i)*time.Hour))); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}
	if _, err := service.MarkOrderPaid(ctx, "pi_b", base); err != nil {
		t.Fatalf("MarkOrderPaid failed: %v", err)
	}

	all, err := service.ListOrders(ctx, store.ListOrdersParams{})
	if err != nil {
		t.Fatalf("ListOrders failed: %v", err)
	}
	if len(all) != 3 || all[0].OrderId != "pi_c" {
		t.Fatalf("Expected 3 orders newest first, got %d (first=%v)", len(all), all)
	}

	pending, err := service.ListOrders(ctx, store.ListOrdersParams{Status: models.OrderStatusPending})
	if err != nil {
		t.Fatalf("ListOrders pending failed: %v", err)
	}
	if len(pending) != 2 {
		t.Errorf("Expected 2 pending orders, got %d", len(pending))
	}

	recent, err := service.ListOrders(ctx, store.ListOrdersParams{CreatedAfter: base.Add(90 * time.Minute), Limit: 10})
	if err != nil {
		t.Fatalf("ListOrders recent failed: %v", err)
	}
	if len(recent) != 1 || recent[0].OrderId != "pi_c" {
		t.Errorf("Expected only pi_c after cutoff, got %v", recent)
	}
}

func TestListPaidOrders_RangeBoundary(t *testing.T) {
	service, cleanup := setupTestDb(t)
	defer cleanup()

	ctx := context.Background()
	from := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	to := time.Date(2026, 3, 1, 23, 59, 59, int(999*time.Millisecond), time.UTC)

	inside := newTestOrder("pi_in", "alice", "50", to)
	outside := newTestOrder("pi_out", "alice", "50", to.Add(time.Millisecond))
	unpaid := newTestOrder("pi_unpaid", "alice", "50", from.Add(time.Hour))
	for _, o := range []*models.Order{inside, outside, unpaid} {
		if err := service.CreateOrder(ctx, o); err != nil {
			t.Fatalf("CreateOrder failed: %v", err)
		}
	}
	for _, id := range []string{"pi_in", "pi_out"} {
		if _, err := service.MarkOrderPaid(ctx, id, to); err != nil {
			t.Fatalf("MarkOrderPaid failed: %v", err)
		}
	}

	orders, err := service.ListPaidOrders(ctx, from, to)
	if err != nil {
		t.Fatalf("ListPaidOrders failed: %v", err)
	}
	if len(orders) != 1 || orders[0].OrderId != "pi_in" {
		t.Errorf("Expected only pi_in in range, got %v", orders)
	}
}
