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
	"encoding/json"
	"errors"
	"fmt"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/speed"
	"luckypaw-payments-go/internal/store"

	"go.uber.org/zap"
)

// Event types in the payment-updated family
var paymentUpdateEvents = map[string]bool{
	"payment.updated":   true,
	"payment.paid":      true,
	"payment.confirmed": true,
}

// ReconcileByWebhook authenticates a provider event and applies the status it carries.
// The signature is checked against the raw body before anything in it is trusted.
func (s *LedgerService) ReconcileByWebhook(ctx context.Context, body []byte, signature string) (*models.WebhookResult, error) {
	if signature == "" {
		zap.L().Warn("Webhook rejected: missing signature")
		return nil, fmt.Errorf("%w: missing signature", ErrAuthentication)
	}
	if !speed.VerifySignature(s.webhookSecret, body, signature) {
		zap.L().Warn("Webhook rejected: signature mismatch", zap.Int("body_bytes", len(body)))
		return nil, fmt.Errorf("%w: signature mismatch", ErrAuthentication)
	}

	var event models.SpeedWebhookEvent
	if err := json.Unmarshal(body, &event); err != nil {
		return nil, validationError("malformed webhook body: %v", err)
	}

	if !paymentUpdateEvents[event.EventType] {
		zap.L().Debug("Ignoring webhook event",
			zap.String("event_id", event.Id),
			zap.String("event_type", event.EventType))
		return &models.WebhookResult{Received: true, Ignored: true}, nil
	}

	orderId := event.Data.Object.Id
	if orderId == "" {
		zap.L().Warn("Webhook event without payment id",
			zap.String("event_id", event.Id),
			zap.String("event_type", event.EventType))
		return &models.WebhookResult{Received: true, Ignored: true}, nil
	}

	status := models.OrderStatusPending
	if event.Data.Object.Status == models.SpeedStatusPaid {
		status = models.OrderStatusPaid
	}

	order, err := s.orders.GetOrder(ctx, orderId)
	if err != nil {
		if errors.Is(err, store.ErrOrderNotFound) {
			zap.L().Warn("Webhook references unknown order",
				zap.String("order_id", orderId),
				zap.String("event_id", event.Id),
				zap.String("event_type", event.EventType),
				zap.String("provider_status", event.Data.Object.Status))
			return &models.WebhookResult{Received: true, OrderId: orderId, Ignored: true}, nil
		}
		return nil, storeError("get order", err)
	}

	if status != models.OrderStatusPaid {
		return &models.WebhookResult{Received: true, OrderId: orderId, Status: order.Status}, nil
	}

	ctx = models.WithReconcileContext(ctx, &models.ReconcileContext{
		Source:     models.SourceWebhook,
		EventId:    event.Id,
		EventType:  event.EventType,
		ReceivedAt: s.now(),
	})

	updated, err := s.orders.MarkOrderPaid(ctx, orderId, s.now())
	if err != nil {
		return nil, storeError("mark order paid", err)
	}

	return &models.WebhookResult{Received: true, OrderId: orderId, Status: models.OrderStatusPaid, Updated: updated}, nil
}
