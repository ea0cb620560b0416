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


package api

import (
	"context"
	"fmt"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/shopspring/decimal"
)

// PaymentProvider is the subset of the Speed client the lifecycle needs
type PaymentProvider interface {
	CreatePayment(ctx context.Context, amountUSD decimal.Decimal, method string) (models.PaymentResult, error)
	GetPayment(ctx context.Context, paymentId string) (*models.SpeedPayment, error)
	DecodeInvoice(ctx context.Context, invoice string) (*models.InvoiceDetails, error)
}

// RateSource quotes the USD price of one bitcoin
type RateSource interface {
	BtcUsd(ctx context.Context) (decimal.Decimal, error)
}

// GameCatalog restricts which games can be topped up
type GameCatalog interface {
	Contains(game string) bool
}

// Options tune a LedgerService. Zero values fall back to defaults.
type Options struct {
	WebhookSecret string
	CashoutLimit  decimal.Decimal
	CashoutWindow time.Duration
	Games         GameCatalog
	Location      *time.Location
	Now           func() time.Time
}

var (
	defaultCashoutLimit  = decimal.NewFromInt(300)
	defaultCashoutWindow = 24 * time.Hour
)

// LedgerService implements the payment lifecycle, reporting and cashout guard
type LedgerService struct {
	orders        store.OrderStore
	cashouts      store.CashoutLedger
	provider      PaymentProvider
	rates         RateSource
	games         GameCatalog
	webhookSecret string
	cashoutLimit  decimal.Decimal
	cashoutWindow time.Duration
	location      *time.Location
	now           func() time.Time
}

func NewLedgerService(orders store.OrderStore, cashouts store.CashoutLedger, provider PaymentProvider, rates RateSource, opts Options) *LedgerService {
	s := &LedgerService{
		orders:        orders,
		cashouts:      cashouts,
		provider:      provider,
		rates:         rates,
		games:         opts.Games,
		webhookSecret: opts.WebhookSecret,
		cashoutLimit:  opts.CashoutLimit,
		cashoutWindow: opts.CashoutWindow,
		location:      opts.Location,
		now:           opts.Now,
	}

	if !s.cashoutLimit.IsPositive() {
		s.cashoutLimit = defaultCashoutLimit
	}
	if s.cashoutWindow <= 0 {
		s.cashoutWindow = defaultCashoutWindow
	}
	if s.location == nil {
		s.location = time.Local
	}
	if s.now == nil {
		s.now = time.Now
	}
	return s
}

func (s *LedgerService) HealthCheck(ctx context.Context) error {
	if err := s.orders.Ping(ctx); err != nil {
		return fmt.Errorf("database health check failed: %w", err)
	}
	return nil
}
