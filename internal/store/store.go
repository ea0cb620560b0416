package store

import (
	"context"
	"errors"
	"time"

	"luckypaw-payments-go/internal/models"

	"github.com/shopspring/decimal"
)

// Sentinel errors shared across all backend implementations.
var (
	ErrOrderNotFound    = errors.New("order not found")
	ErrDuplicateOrder   = errors.New("duplicate order")
	ErrDuplicateCashout = errors.New("duplicate cashout")
)

// ListOrdersParams filters an operator order listing.
type ListOrdersParams struct {
	Status       string    // empty for any status
	CreatedAfter time.Time // zero for no lower bound
	Limit        int
}

// RecordCashoutParams captures a payout to append to the cashout ledger.
type RecordCashoutParams struct {
	Id          string // optional; generated when empty
	Username    string
	Amount      decimal.Decimal
	Status      string
	Type        string
	Description string
	Time        time.Time
}

// OrderStore holds one record per payment attempt, keyed by the provider's payment id.
type OrderStore interface {
	// --- Orders ---
	CreateOrder(ctx context.Context, order *models.Order) error
	GetOrder(ctx context.Context, orderId string) (*models.Order, error)
	ListOrders(ctx context.Context, params ListOrdersParams) ([]models.Order, error)
	ListPaidOrders(ctx context.Context, from, to time.Time) ([]models.Order, error)

	// MarkOrderPaid advances a pending order to paid. It reports false when the
	// order was already paid, so concurrent callers converge without conflict.
	MarkOrderPaid(ctx context.Context, orderId string, at time.Time) (bool, error)
	// ForceOrderPaid sets paid with the manual flag regardless of current status.
	ForceOrderPaid(ctx context.Context, orderId string, at time.Time) error
	MarkOrderRead(ctx context.Context, orderId string, at time.Time) error
	DeleteOrder(ctx context.Context, orderId string) error

	// --- Lifecycle ---
	Ping(ctx context.Context) error
	Close()
}

// CashoutLedger defines the contract that every cashout backend (SQLite, Formance, ...) must satisfy.
type CashoutLedger interface {
	RecordCashout(ctx context.Context, params RecordCashoutParams) (*models.Cashout, error)
	// ListCashouts returns all cashouts whose time falls within [from, to].
	ListCashouts(ctx context.Context, from, to time.Time) ([]models.Cashout, error)
	// ListCompletedCashouts returns completed cashouts for a username (case-insensitive)
	// with time after since, ordered ascending by time.
	ListCompletedCashouts(ctx context.Context, username string, since time.Time) ([]models.Cashout, error)

	// --- Lifecycle ---
	Close()
}
