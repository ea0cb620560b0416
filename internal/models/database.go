package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order status values
const (
	OrderStatusPending = "pending"
	OrderStatusPaid    = "paid"
)

// Payment methods
const (
	MethodLightning = "lightning"
)

// Cashout status and type values
const (
	CashoutStatusCompleted = "completed"
	CashoutTypeCashout     = "cashout"
	CashoutTypeLightning   = "cashout_lightning"
)

// BtcUnavailable is stored in place of the bitcoin amount when it cannot be computed
const BtcUnavailable = "N/A"

// Order represents one payment attempt for a game top-up
type Order struct {
	OrderId      string          `db:"order_id" json:"orderId"`
	Username     string          `db:"username" json:"username"`
	Game         string          `db:"game" json:"game"`
	Amount       decimal.Decimal `db:"amount" json:"amount"`
	Btc          string          `db:"btc" json:"btc"`
	Method       string          `db:"method" json:"method"`
	Status       string          `db:"status" json:"status"`
	Invoice      string          `db:"invoice" json:"invoice"`
	CreatedAt    time.Time       `db:"created_at" json:"createdAt"`
	ExpiresAt    *int64          `db:"expires_at" json:"expiresAt"`
	PaidManually bool            `db:"paid_manually" json:"paidManually"`
	PaidAt       *time.Time      `db:"paid_at" json:"paidAt"`
	Read         bool            `db:"read" json:"read"`
	ReadAt       *time.Time      `db:"read_at" json:"readAt"`
}

// IsPaid reports whether the order reached its terminal state
func (o *Order) IsPaid() bool {
	return o.Status == OrderStatusPaid
}

// Expired reports whether the invoice validity deadline has passed.
// A missing expiry counts as expired.
func (o *Order) Expired(now time.Time) bool {
	if o.ExpiresAt == nil {
		return true
	}
	return now.UnixMilli() >= *o.ExpiresAt
}

// Cashout represents a payout recorded against a customer
type Cashout struct {
	Id          string          `db:"id" json:"id"`
	Username    string          `db:"username" json:"username"`
	AmountUSD   decimal.Decimal `db:"amount_usd" json:"amountUsd"`
	Time        time.Time       `db:"time" json:"time"`
	Status      string          `db:"status" json:"status"`
	Type        string          `db:"type" json:"type"`
	Description string          `db:"description" json:"description"`
}
