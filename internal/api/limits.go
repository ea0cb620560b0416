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
	"strings"

	"luckypaw-payments-go/internal/models"

	"github.com/shopspring/decimal"
)

// CheckLimit reports how much a customer may still cash out in the rolling window.
// It is advisory; RecordCashout never consults it.
func (s *LedgerService) CheckLimit(ctx context.Context, username string) (*models.LimitStatus, error) {
	username = strings.TrimSpace(username)
	if username == "" {
		return nil, validationError("username is required")
	}

	now := s.now()
	empty := &models.LimitStatus{
		Username:  username,
		Limit:     s.cashoutLimit,
		Used:      decimal.Zero,
		Remaining: s.cashoutLimit,
	}

	cashouts, err := s.cashouts.ListCompletedCashouts(ctx, username, now.Add(-s.cashoutWindow))
	if err != nil {
		return nil, storeError("list completed cashouts", err)
	}
	if len(cashouts) == 0 {
		return empty, nil
	}

	resetsAt := cashouts[0].Time.Add(s.cashoutWindow)
	if !resetsAt.After(now) {
		return empty, nil
	}

	used := decimal.Zero
	for _, c := range cashouts {
		used = used.Add(c.AmountUSD)
	}

	remaining := s.cashoutLimit.Sub(used)
	if remaining.IsNegative() {
		remaining = decimal.Zero
	}

	return &models.LimitStatus{
		Username:       username,
		Limit:          s.cashoutLimit,
		Used:           used,
		Remaining:      remaining,
		WindowResetsAt: &resetsAt,
	}, nil
}
