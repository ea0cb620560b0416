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

const (
	// Order queries
	queryCheckDuplicateOrder = `
		SELECT order_id FROM orders WHERE order_id = ? LIMIT 1`

	queryInsertOrder = `
		INSERT INTO orders (
			order_id, username, game, amount, btc, method, status, invoice,
			created_at, expires_at, paid_manually, paid_at, read, read_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, NULL, 0, NULL)`

	queryGetOrder = `
		SELECT order_id, username, game, amount, btc, method, status, invoice,
		       created_at, expires_at, paid_manually, paid_at, read, read_at
		FROM orders
		WHERE order_id = ?`

	queryListOrders = `
		SELECT order_id, username, game, amount, btc, method, status, invoice,
		       created_at, expires_at, paid_manually, paid_at, read, read_at
		FROM orders
		WHERE (? = '' OR status = ?) AND created_at >= ?
		ORDER BY created_at DESC
		LIMIT ?`

	queryListPaidOrdersInRange = `
		SELECT order_id, username, game, amount, btc, method, status, invoice,
		       created_at, expires_at, paid_manually, paid_at, read, read_at
		FROM orders
		WHERE status = 'paid' AND created_at >= ? AND created_at <= ?
		ORDER BY created_at`

	// Only a pending order is advanced; a second caller sees zero rows affected.
	queryMarkOrderPaid = `
		UPDATE orders
		SET status = 'paid', paid_manually = 0, paid_at = ?
		WHERE order_id = ? AND status != 'paid'`

	queryForceOrderPaid = `
		UPDATE orders
		SET status = 'paid', paid_manually = 1, paid_at = COALESCE(paid_at, ?)
		WHERE order_id = ?`

	queryMarkOrderRead = `
		UPDATE orders
		SET read = 1, read_at = ?
		WHERE order_id = ?`

	queryDeleteOrder = `
		DELETE FROM orders WHERE order_id = ?`

	queryPing = `
		SELECT COUNT(*) FROM orders`

	// Cashout queries
	queryCheckDuplicateCashout = `
		SELECT id FROM cashouts WHERE id = ? LIMIT 1`

	queryInsertCashout = `
		INSERT INTO cashouts (id, username, amount_usd, time, status, type, description)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		RETURNING id, username, amount_usd, time, status, type, description`

	queryListCashoutsInRange = `
		SELECT id, username, amount_usd, time, status, type, description
		FROM cashouts
		WHERE time >= ? AND time <= ?
		ORDER BY time`

	queryListCompletedCashoutsSince = `
		SELECT id, username, amount_usd, time, status, type, description
		FROM cashouts
		WHERE LOWER(username) = LOWER(?) AND status = 'completed' AND time > ?
		ORDER BY time ASC`
)
