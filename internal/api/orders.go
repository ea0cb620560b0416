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
	"errors"
	"fmt"
	"strings"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const outstandingOrdersLimit = 500

// CreateOrderParams is a customer top-up request
type CreateOrderParams struct {
	Username string
	Game     string
	Amount   string
	Method   string
}

// CreateOrder requests a payment from the provider and persists the pending order
func (s *LedgerService) CreateOrder(ctx context.Context, params CreateOrderParams) (*models.CreateOrderResult, error) {
	username := strings.TrimSpace(params.Username)
	game := strings.TrimSpace(params.Game)
	method := strings.ToLower(strings.TrimSpace(params.Method))

	if username == "" || game == "" || strings.TrimSpace(params.Amount) == "" || method == "" {
		return nil, validationError("username, game, amount and method are required")
	}

	amount, err := decimal.NewFromString(strings.TrimSpace(params.Amount))
	if err != nil || !amount.IsPositive() {
		return nil, validationError("amount must be a positive number, got %q", params.Amount)
	}

	if method != models.MethodLightning {
		return nil, validationError("unsupported payment method %q", params.Method)
	}

	if s.games != nil && !s.games.Contains(game) {
		return nil, validationError("unknown game %q", game)
	}

	zap.L().Info("Creating order",
		zap.String("username", username),
		zap.String("game", game),
		zap.String("amount", amount.String()),
		zap.String("method", method))

	payment, err := s.provider.CreatePayment(ctx, amount, method)
	if err != nil {
		zap.L().Error("Provider rejected payment creation",
			zap.String("username", username),
			zap.String("amount", amount.String()),
			zap.Error(err))
		return nil, upstreamError("create payment", err)
	}
	if payment == nil || payment.PaymentId() == "" {
		return nil, upstreamError("create payment", errors.New("response missing payment id"))
	}
	if payment.PaymentMethod() != method || payment.PaymentRequest() == "" {
		return nil, upstreamError("create payment", fmt.Errorf("response missing %s payment request", method))
	}

	order := &models.Order{
		OrderId:   payment.PaymentId(),
		Username:  username,
		Game:      game,
		Amount:    amount,
		Btc:       s.btcAmount(ctx, amount, payment.Satoshis()),
		Method:    method,
		Status:    models.OrderStatusPending,
		Invoice:   payment.PaymentRequest(),
		CreatedAt: s.now(),
		ExpiresAt: models.NormalizeExpiry(payment.ExpiresAt()),
	}

	if err := s.orders.CreateOrder(ctx, order); err != nil {
		zap.L().Error("Failed to persist order after provider accepted payment",
			zap.String("order_id", order.OrderId),
			zap.Error(err))
		return nil, storeError("create order", err)
	}

	zap.L().Info("Order created",
		zap.String("order_id", order.OrderId),
		zap.String("btc", order.Btc))

	return &models.CreateOrderResult{
		OrderId:   order.OrderId,
		Invoice:   order.Invoice,
		BtcAmount: order.Btc,
		ExpiresAt: order.ExpiresAt,
	}, nil
}

// btcAmount prefers the provider quote, then the spot rate, then gives up with N/A
func (s *LedgerService) btcAmount(ctx context.Context, amountUSD decimal.Decimal, sats int64) string {
	if sats > 0 {
		return decimal.NewFromInt(sats).Shift(-8).StringFixed(8)
	}

	if s.rates == nil {
		return models.BtcUnavailable
	}

	rate, err := s.rates.BtcUsd(ctx)
	if err != nil || !rate.IsPositive() {
		zap.L().Warn("BTC amount unavailable, storing N/A",
			zap.String("amount_usd", amountUSD.String()),
			zap.Error(err))
		return models.BtcUnavailable
	}
	return amountUSD.DivRound(rate, 8).StringFixed(8)
}

// ReconcileByPolling asks the provider for the payment status and settles the order if paid
func (s *LedgerService) ReconcileByPolling(ctx context.Context, orderId string) (*models.OrderStatusResult, error) {
	if orderId == "" {
		return nil, validationError("order id is required")
	}

	order, err := s.orders.GetOrder(ctx, orderId)
	if err != nil {
		return nil, storeError("get order", err)
	}
	if order.IsPaid() {
		return &models.OrderStatusResult{OrderId: orderId, Status: models.OrderStatusPaid}, nil
	}

	payment, err := s.provider.GetPayment(ctx, orderId)
	if err != nil {
		zap.L().Warn("Payment status poll failed",
			zap.String("order_id", orderId),
			zap.Error(err))
		return nil, upstreamError("get payment", err)
	}

	if payment.Status != models.SpeedStatusPaid {
		return &models.OrderStatusResult{OrderId: orderId, Status: order.Status}, nil
	}

	if models.GetReconcileContext(ctx) == nil {
		ctx = models.WithReconcileContext(ctx, &models.ReconcileContext{
			Source:     models.SourcePoll,
			ReceivedAt: s.now(),
		})
	}

	updated, err := s.orders.MarkOrderPaid(ctx, orderId, s.now())
	if err != nil {
		return nil, storeError("mark order paid", err)
	}

	return &models.OrderStatusResult{OrderId: orderId, Status: models.OrderStatusPaid, Updated: updated}, nil
}

// MarkPaidManually is the operator override used when automated reconciliation cannot settle an order
func (s *LedgerService) MarkPaidManually(ctx context.Context, orderId string) (*models.OrderStatusResult, error) {
	if orderId == "" {
		return nil, validationError("order id is required")
	}

	ctx = models.WithReconcileContext(ctx, &models.ReconcileContext{Source: models.SourceManual, ReceivedAt: s.now()})
	if err := s.orders.ForceOrderPaid(ctx, orderId, s.now()); err != nil {
		return nil, storeError("force order paid", err)
	}

	zap.L().Info("Order marked paid by operator", zap.String("order_id", orderId))
	return &models.OrderStatusResult{OrderId: orderId, Status: models.OrderStatusPaid, Updated: true}, nil
}

func (s *LedgerService) GetOrder(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := s.orders.GetOrder(ctx, orderId)
	if err != nil {
		return nil, storeError("get order", err)
	}
	return order, nil
}

// ListOrders returns the newest orders, optionally filtered by status
func (s *LedgerService) ListOrders(ctx context.Context, status string, limit int) ([]models.Order, error) {
	switch status {
	case "", models.OrderStatusPending, models.OrderStatusPaid:
	default:
		return nil, validationError("unknown status %q", status)
	}
	if limit < 0 {
		return nil, validationError("limit must not be negative")
	}

	orders, err := s.orders.ListOrders(ctx, store.ListOrdersParams{Status: status, Limit: limit})
	if err != nil {
		return nil, storeError("list orders", err)
	}
	return orders, nil
}

// ListOutstandingOrders returns pending orders created after since whose invoice has not expired
func (s *LedgerService) ListOutstandingOrders(ctx context.Context, since time.Time) ([]models.Order, error) {
	orders, err := s.orders.ListOrders(ctx, store.ListOrdersParams{
		Status:       models.OrderStatusPending,
		CreatedAfter: since,
		Limit:        outstandingOrdersLimit,
	})
	if err != nil {
		return nil, storeError("list pending orders", err)
	}

	now := s.now()
	outstanding := orders[:0]
	for _, o := range orders {
		if !o.Expired(now) {
			outstanding = append(outstanding, o)
		}
	}
	return outstanding, nil
}

func (s *LedgerService) MarkOrderRead(ctx context.Context, orderId string) error {
	if err := s.orders.MarkOrderRead(ctx, orderId, s.now()); err != nil {
		return storeError("mark order read", err)
	}
	return nil
}

func (s *LedgerService) DeleteOrder(ctx context.Context, orderId string) error {
	if err := s.orders.DeleteOrder(ctx, orderId); err != nil {
		return storeError("delete order", err)
	}
	return nil
}

// DecodeInvoice returns the amount and expiry encoded in a payment request
func (s *LedgerService) DecodeInvoice(ctx context.Context, invoice string) (*models.InvoiceDetails, error) {
	invoice = strings.TrimSpace(invoice)
	if invoice == "" {
		return nil, validationError("invoice is required")
	}

	details, err := s.provider.DecodeInvoice(ctx, invoice)
	if err != nil {
		return nil, upstreamError("decode invoice", err)
	}
	return details, nil
}
