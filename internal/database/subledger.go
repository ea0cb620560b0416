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
	"database/sql"
	"time"
)

// SubledgerService handles the cashout ledger
type SubledgerService struct {
	db  *sql.DB
	now func() time.Time
}

func NewSubledgerService(db *sql.DB) *SubledgerService {
	return &SubledgerService{
		db:  db,
		now: time.Now,
	}
}

func (s *SubledgerService) InitSchema() error {
	schema := `
	-- Cashouts Table (append-only payouts)
	CREATE TABLE IF NOT EXISTS cashouts (
		id TEXT PRIMARY KEY,
		username TEXT NOT NULL,
		amount_usd TEXT NOT NULL,
		time INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'completed',
		type TEXT NOT NULL DEFAULT 'cashout',
		description TEXT NOT NULL DEFAULT ''
	);

	-- Performance Indexes for Cashouts
	CREATE INDEX IF NOT EXISTS idx_cashouts_time ON cashouts(time);
	CREATE INDEX IF NOT EXISTS idx_cashouts_username_status_time ON cashouts(username, status, time);
	CREATE INDEX IF NOT EXISTS idx_cashouts_username_lower ON cashouts(LOWER(username));
	`

	_, err := s.db.Exec(schema)
	return err
}
