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

package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

const defaultListLimit = 100

// CreateOrder inserts a new order keyed by the provider payment id
func (s *Service) CreateOrder(ctx context.Context, order *models.Order) error {
	zap.L().Info("Creating order",
		zap.String("order_id", order.OrderId),
		zap.String("username", order.Username),
		zap.String("game", order.Game),
		zap.String("amount", order.Amount.String()))

	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateOrder, order.OrderId).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate order id detected, skipping", zap.String("order_id", order.OrderId))
		return fmt.Errorf("%w: order_id %s already exists", store.ErrDuplicateOrder, order.OrderId)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("failed to check for duplicate order: %w", err)
	}

	var expiresAt sql.NullInt64
	if order.ExpiresAt != nil {
		expiresAt = sql.NullInt64{Int64: *order.ExpiresAt, Valid: true}
	}

	_, err = s.db.ExecContext(ctx, queryInsertOrder,
		order.OrderId, order.Username, order.Game, order.Amount.String(), order.Btc,
		order.Method, order.Status, order.Invoice, order.CreatedAt.UnixMilli(), expiresAt,
		order.PaidManually)
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) && sqliteErr.Code == sqlite3.ErrConstraint {
			return fmt.Errorf("%w: order_id %s already exists", store.ErrDuplicateOrder, order.OrderId)
		}
		return fmt.Errorf("failed to insert order: %w", err)
	}

	return nil
}

// GetOrder returns an order by provider payment id
func (s *Service) GetOrder(ctx context.Context, orderId string) (*models.Order, error) {
	order, err := scanOrder(s.db.QueryRowContext(ctx, queryGetOrder, orderId))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	if err != nil {
		zap.L().Error("Failed to get order", zap.String("order_id", orderId), zap.Error(err))
		return nil, fmt.Errorf("failed to get order: %w", err)
	}
	return order, nil
}

// ListOrders returns orders newest first
func (s *Service) ListOrders(ctx context.Context, params store.ListOrdersParams) ([]models.Order, error) {
	limit := params.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	var createdAfter int64
	if !params.CreatedAfter.IsZero() {
		createdAfter = params.CreatedAfter.UnixMilli()
	}

	rows, err := s.db.QueryContext(ctx, queryListOrders, params.Status, params.Status, createdAfter, limit)
	if err != nil {
		zap.L().Error("Failed to list orders", zap.String("status", params.Status), zap.Error(err))
		return nil, fmt.Errorf("failed to list orders: %w", err)
	}
	return collectOrders(rows)
}

// ListPaidOrders returns paid orders created within [from, to], oldest first
func (s *Service) ListPaidOrders(ctx context.Context, from, to time.Time) ([]models.Order, error) {
	rows, err := s.db.QueryContext(ctx, queryListPaidOrdersInRange, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		zap.L().Error("Failed to list paid orders", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, fmt.Errorf("failed to list paid orders: %w", err)
	}
	return collectOrders(rows)
}

// MarkOrderPaid advances a pending order to paid and reports whether this call made the change
func (s *Service) MarkOrderPaid(ctx context.Context, orderId string, at time.Time) (bool, error) {
	result, err := s.db.ExecContext(ctx, queryMarkOrderPaid, at.UnixMilli(), orderId)
	if err != nil {
		return false, fmt.Errorf("failed to mark order paid: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to check rows affected: %w", err)
	}

	fields := []zap.Field{zap.String("order_id", orderId), zap.Bool("updated", rowsAffected > 0)}
	if rc := models.GetReconcileContext(ctx); rc != nil {
		fields = append(fields, zap.String("source", rc.Source))
		if rc.EventId != "" {
			fields = append(fields, zap.String("event_id", rc.EventId))
		}
	}

	if rowsAffected == 0 {
		zap.L().Debug("Order already paid, nothing to update", fields...)
		return false, nil
	}

	zap.L().Info("Order marked paid", fields...)
	return true, nil
}

// ForceOrderPaid sets paid with the manual flag whatever the current status
func (s *Service) ForceOrderPaid(ctx context.Context, orderId string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, queryForceOrderPaid, at.UnixMilli(), orderId)
	if err != nil {
		return fmt.Errorf("failed to force order paid: %w", err)
	}
	if err := requireRow(result, orderId); err != nil {
		return err
	}

	zap.L().Info("Order marked paid manually", zap.String("order_id", orderId))
	return nil
}

// MarkOrderRead records operator acknowledgement
func (s *Service) MarkOrderRead(ctx context.Context, orderId string, at time.Time) error {
	result, err := s.db.ExecContext(ctx, queryMarkOrderRead, at.UnixMilli(), orderId)
	if err != nil {
		return fmt.Errorf("failed to mark order read: %w", err)
	}
	return requireRow(result, orderId)
}

// DeleteOrder removes an order (administrative only)
func (s *Service) DeleteOrder(ctx context.Context, orderId string) error {
	result, err := s.db.ExecContext(ctx, queryDeleteOrder, orderId)
	if err != nil {
		return fmt.Errorf("failed to delete order: %w", err)
	}
	if err := requireRow(result, orderId); err != nil {
		return err
	}

	zap.L().Info("Order deleted", zap.String("order_id", orderId))
	return nil
}

func requireRow(result sql.Result, orderId string) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("failed to check rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrOrderNotFound, orderId)
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (*models.Order, error) {
	var order models.Order
	var amountStr string
	var createdAt int64
	var expiresAt, paidAt, readAt sql.NullInt64

	err := row.Scan(&order.OrderId, &order.Username, &order.Game, &amountStr, &order.Btc,
		&order.Method, &order.Status, &order.Invoice, &createdAt, &expiresAt,
		&order.PaidManually, &paidAt, &order.Read, &readAt)
	if err != nil {
		return nil, err
	}

	order.Amount, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount '%s': %w", amountStr, err)
	}

	order.CreatedAt = time.UnixMilli(createdAt)
	if expiresAt.Valid {
		v := expiresAt.Int64
		order.ExpiresAt = &v
	}
	order.PaidAt = millisToTime(paidAt)
	order.ReadAt = millisToTime(readAt)

	return &order, nil
}

func collectOrders(rows *sql.Rows) ([]models.Order, error) {
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var orders []models.Order
	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan order: %w", err)
		}
		orders = append(orders, *order)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during order row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating order rows: %w", err)
	}
	return orders, nil
}

func millisToTime(v sql.NullInt64) *time.Time {
	if !v.Valid {
		return nil
	}
	t := time.UnixMilli(v.Int64)
	return &t
}
