/**
 * Copyright 2025-present Coinbase Global, Inc.
 *
 * Licensed under the Apache License, Version 2.0 (the "License");
 * you may not use this file except in compliance with the License.
 * You may obtain a copy of the License at
 *
 *  http://www.apache.org/licenses/LICENSE-2.0
 *
 * Unless required by applicable law or agreed to in writing, software
 * distributed under the License is distributed on an "AS IS" BASIS,
 * WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
 * See the License for the specific language governing permissions and
 * limitations under the License.
 */

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// CreateOrderResult is returned to the customer after invoice creation
type CreateOrderResult struct {
	OrderId   string `json:"orderId"`
	Invoice   string `json:"invoice"`
	BtcAmount string `json:"btcAmount"`
	ExpiresAt *int64 `json:"expiresAt"`
}

// OrderStatusResult is returned by the reconciliation endpoints
type OrderStatusResult struct {
	OrderId string `json:"orderId"`
	Status  string `json:"status"`
	Updated bool   `json:"updated"`
}

// WebhookResult describes what an authenticated webhook delivery did
type WebhookResult struct {
	Received bool   `json:"received"`
	OrderId  string `json:"orderId,omitempty"`
	Status   string `json:"status,omitempty"`
	Updated  bool   `json:"updated"`
	Ignored  bool   `json:"ignored,omitempty"`
}

// LedgerEntry is the derived union of deposits and cashouts used for reporting
type LedgerEntry struct {
	Type      string          `json:"type"` // "deposit", "cashout"
	Username  string          `json:"username"`
	Amount    decimal.Decimal `json:"amount"`
	Time      time.Time       `json:"time"`
	Reference string          `json:"reference"`
}

// Ledger entry types
const (
	EntryTypeDeposit = "deposit"
	EntryTypeCashout = "cashout"
)

// CustomerSummary holds the profit/loss totals for one customer
type CustomerSummary struct {
	Username     string          `json:"username"`
	TotalDeposit decimal.Decimal `json:"totalDeposit"`
	TotalCashout decimal.Decimal `json:"totalCashout"`
	Net          decimal.Decimal `json:"net"`
	ProfitMargin decimal.Decimal `json:"profitMargin"`
}

// Summary is the profit/loss report over a date range
type Summary struct {
	From      time.Time         `json:"from"`
	To        time.Time         `json:"to"`
	Customers []CustomerSummary `json:"customers"`
	Totals    CustomerSummary   `json:"totals"`
	Entries   []LedgerEntry     `json:"entries"`
}

// LimitStatus is the rolling cashout window state for a customer
type LimitStatus struct {
	Username       string          `json:"username"`
	Limit          decimal.Decimal `json:"limit"`
	Used           decimal.Decimal `json:"used"`
	Remaining      decimal.Decimal `json:"remaining"`
	WindowResetsAt *time.Time      `json:"windowResetsAt"`
}

// InvoiceDetails is the decoded form of a payment request
type InvoiceDetails struct {
	Invoice     string `json:"invoice"`
	AmountSats  int64  `json:"amountSats"`
	Description string `json:"description,omitempty"`
	ExpiresAt   *int64 `json:"expiresAt,omitempty"`
}
