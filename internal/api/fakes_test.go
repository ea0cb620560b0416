package api

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/mock"
)

// memoryStore is an in-memory OrderStore and CashoutLedger for service tests
type memoryStore struct {
	mu       sync.Mutex
	orders   map[string]models.Order
	cashouts []models.Cashout
	writes   int
	failWith error
}

var (
	_ store.OrderStore    = (*memoryStore)(nil)
	_ store.CashoutLedger = (*memoryStore)(nil)
)

func newMemoryStore() *memoryStore {
	return &memoryStore{orders: make(map[string]models.Order)}
}

func (m *memoryStore) CreateOrder(_ context.Context, order *models.Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return m.failWith
	}
	if _, ok := m.orders[order.OrderId]; ok {
		return store.ErrDuplicateOrder
	}
	m.orders[order.OrderId] = *order
	m.writes++
	return nil
}

func (m *memoryStore) GetOrder(_ context.Context, orderId string) (*models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	o, ok := m.orders[orderId]
	if !ok {
		return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	return &o, nil
}

func (m *memoryStore) ListOrders(_ context.Context, params store.ListOrdersParams) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if params.Status != "" && o.Status != params.Status {
			continue
		}
		if o.CreatedAt.Before(params.CreatedAfter) {
			continue
		}
		out = append(out, o)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) ListPaidOrders(_ context.Context, from, to time.Time) ([]models.Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Order
	for _, o := range m.orders {
		if o.Status == models.OrderStatusPaid && !o.CreatedAt.Before(from) && !o.CreatedAt.After(to) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memoryStore) MarkOrderPaid(_ context.Context, orderId string, at time.Time) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderId]
	if !ok || o.Status == models.OrderStatusPaid {
		return false, nil
	}
	o.Status = models.OrderStatusPaid
	o.PaidManually = false
	o.PaidAt = &at
	m.orders[orderId] = o
	m.writes++
	return true, nil
}

func (m *memoryStore) ForceOrderPaid(_ context.Context, orderId string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderId]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	o.Status = models.OrderStatusPaid
	o.PaidManually = true
	if o.PaidAt == nil {
		o.PaidAt = &at
	}
	m.orders[orderId] = o
	m.writes++
	return nil
}

func (m *memoryStore) MarkOrderRead(_ context.Context, orderId string, at time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[orderId]
	if !ok {
		return fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	o.Read = true
	o.ReadAt = &at
	m.orders[orderId] = o
	return nil
}

func (m *memoryStore) DeleteOrder(_ context.Context, orderId string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.orders[orderId]; !ok {
		return fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	delete(m.orders, orderId)
	return nil
}

func (m *memoryStore) Ping(context.Context) error { return m.failWith }

func (m *memoryStore) Close() {}

func (m *memoryStore) RecordCashout(_ context.Context, params store.RecordCashoutParams) (*models.Cashout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failWith != nil {
		return nil, m.failWith
	}
	c := models.Cashout{
		Id:          uuid.New().String(),
		Username:    params.Username,
		AmountUSD:   params.Amount,
		Time:        params.Time,
		Status:      params.Status,
		Type:        params.Type,
		Description: params.Description,
	}
	m.cashouts = append(m.cashouts, c)
	return &c, nil
}

func (m *memoryStore) ListCashouts(_ context.Context, from, to time.Time) ([]models.Cashout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Cashout
	for _, c := range m.cashouts {
		if !c.Time.Before(from) && !c.Time.After(to) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (m *memoryStore) ListCompletedCashouts(_ context.Context, username string, since time.Time) ([]models.Cashout, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.Cashout
	for _, c := range m.cashouts {
		if strings.EqualFold(c.Username, username) && c.Status == models.CashoutStatusCompleted && c.Time.After(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out, nil
}

func (m *memoryStore) seedOrder(o models.Order) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orders[o.OrderId] = o
}

func (m *memoryStore) seedCashout(username string, amount int64, at time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.cashouts = append(m.cashouts, models.Cashout{
		Id:        uuid.New().String(),
		Username:  username,
		AmountUSD: decimal.NewFromInt(amount),
		Time:      at,
		Status:    models.CashoutStatusCompleted,
		Type:      models.CashoutTypeCashout,
	})
}

func (m *memoryStore) order(id string) models.Order {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.orders[id]
}

type mockProvider struct {
	mock.Mock
}

func (p *mockProvider) CreatePayment(ctx context.Context, amountUSD decimal.Decimal, method string) (models.PaymentResult, error) {
	args := p.Called(ctx, amountUSD, method)
	result, _ := args.Get(0).(models.PaymentResult)
	return result, args.Error(1)
}

func (p *mockProvider) GetPayment(ctx context.Context, paymentId string) (*models.SpeedPayment, error) {
	args := p.Called(ctx, paymentId)
	payment, _ := args.Get(0).(*models.SpeedPayment)
	return payment, args.Error(1)
}

func (p *mockProvider) DecodeInvoice(ctx context.Context, invoice string) (*models.InvoiceDetails, error) {
	args := p.Called(ctx, invoice)
	details, _ := args.Get(0).(*models.InvoiceDetails)
	return details, args.Error(1)
}

type mockRates struct {
	mock.Mock
}

func (r *mockRates) BtcUsd(ctx context.Context) (decimal.Decimal, error) {
	args := r.Called(ctx)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

type gameSet map[string]bool

func (g gameSet) Contains(game string) bool { return g[game] }

type fixedClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fixedClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fixedClock) Set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}
