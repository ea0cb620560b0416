package listener

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"luckypaw-payments-go/internal/api"
	"luckypaw-payments-go/internal/models"
)

type fakeService struct {
	mu       sync.Mutex
	orders   []models.Order
	statuses map[string]string
	failures map[string]error
	calls    map[string]int
	since    time.Time
}

func newFakeService(ids ...string) *fakeService {
	f := &fakeService{
		statuses: make(map[string]string),
		failures: make(map[string]error),
		calls:    make(map[string]int),
	}
	for _, id := range ids {
		f.orders = append(f.orders, models.Order{OrderId: id, Status: models.OrderStatusPending})
	}
	return f
}

func (f *fakeService) ListOutstandingOrders(_ context.Context, since time.Time) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.since = since
	var out []models.Order
	for _, o := range f.orders {
		if f.statuses[o.OrderId] != models.OrderStatusPaid {
			out = append(out, o)
		}
	}
	return out, nil
}

func (f *fakeService) ReconcileByPolling(ctx context.Context, orderId string) (*models.OrderStatusResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls[orderId]++

	if rc := models.GetReconcileContext(ctx); rc == nil || rc.Source != models.SourceReconciler {
		return nil, fmt.Errorf("missing reconciler context")
	}
	if err := f.failures[orderId]; err != nil {
		return nil, err
	}
	if f.statuses[orderId] == "provider-paid" {
		f.statuses[orderId] = models.OrderStatusPaid
		return &models.OrderStatusResult{OrderId: orderId, Status: models.OrderStatusPaid, Updated: true}, nil
	}
	return &models.OrderStatusResult{OrderId: orderId, Status: models.OrderStatusPending}, nil
}

func (f *fakeService) callCount(orderId string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[orderId]
}

func TestReconcilePending_SettlesPaidOrders(t *testing.T) {
	svc := newFakeService("pi_a", "pi_b", "pi_c")
	svc.statuses["pi_a"] = "provider-paid"
	svc.statuses["pi_c"] = "provider-paid"

	r := NewReconciler(ReconcilerConfig{Service: svc, PollingInterval: time.Minute, LookbackWindow: 2 * time.Hour, Workers: 2})
	fixed := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return fixed }

	settled := r.reconcilePending(context.Background())
	if settled != 2 {
		t.Errorf("Expected 2 settled orders, got %d", settled)
	}
	if !svc.since.Equal(fixed.Add(-2 * time.Hour)) {
		t.Errorf("Expected lookback cutoff %v, got %v", fixed.Add(-2*time.Hour), svc.since)
	}

	// Settled orders drop out of the outstanding list.
	settled = r.reconcilePending(context.Background())
	if settled != 0 {
		t.Errorf("Expected no new settlements, got %d", settled)
	}
	if svc.callCount("pi_a") != 1 {
		t.Errorf("Expected pi_a polled once, got %d", svc.callCount("pi_a"))
	}
	if svc.callCount("pi_b") != 2 {
		t.Errorf("Expected pi_b polled twice, got %d", svc.callCount("pi_b"))
	}
}

func TestReconcilePending_BacksOffAfterUpstreamFailure(t *testing.T) {
	svc := newFakeService("pi_down", "pi_gone")
	svc.failures["pi_down"] = fmt.Errorf("%w: timeout", api.ErrUpstream)
	svc.failures["pi_gone"] = fmt.Errorf("%w: deleted", api.ErrNotFound)

	r := NewReconciler(ReconcilerConfig{Service: svc, PollingInterval: time.Minute, RetryBackoff: 5 * time.Minute})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.reconcilePending(context.Background())
	r.reconcilePending(context.Background())

	if svc.callCount("pi_down") != 1 {
		t.Errorf("Expected pi_down deferred after failure, polled %d times", svc.callCount("pi_down"))
	}
	if svc.callCount("pi_gone") != 2 {
		t.Errorf("Expected not-found orders to not be deferred, polled %d times", svc.callCount("pi_gone"))
	}

	now = now.Add(6 * time.Minute)
	r.reconcilePending(context.Background())
	if svc.callCount("pi_down") != 2 {
		t.Errorf("Expected pi_down retried after backoff, polled %d times", svc.callCount("pi_down"))
	}
}

func TestCleanupDeferredOrders(t *testing.T) {
	r := NewReconciler(ReconcilerConfig{Service: newFakeService()})
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	r.now = func() time.Time { return now }

	r.deferOrder("expired", now.Add(-time.Second))
	r.deferOrder("active", now.Add(time.Minute))

	r.cleanupDeferredOrders()

	if r.isDeferred("expired", now) {
		t.Error("Expected lapsed entry to be removed")
	}
	if !r.isDeferred("active", now) {
		t.Error("Expected active entry to remain")
	}
	if len(r.deferredOrders) != 1 {
		t.Errorf("Expected 1 remaining entry, got %d", len(r.deferredOrders))
	}
}

func TestStartStop(t *testing.T) {
	svc := newFakeService("pi_a")
	svc.statuses["pi_a"] = "provider-paid"

	r := NewReconciler(ReconcilerConfig{Service: svc, PollingInterval: time.Hour})
	r.Start(context.Background())

	deadline := time.Now().Add(2 * time.Second)
	for svc.callCount("pi_a") == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	r.Stop()

	if svc.callCount("pi_a") != 1 {
		t.Errorf("Expected initial pass to poll pi_a once, got %d", svc.callCount("pi_a"))
	}
}

func TestStart_DisabledWithZeroInterval(t *testing.T) {
	svc := newFakeService("pi_a")
	r := NewReconciler(ReconcilerConfig{Service: svc})
	r.Start(context.Background())
	r.Stop()

	if svc.callCount("pi_a") != 0 {
		t.Error("Expected disabled reconciler to never poll")
	}
}

