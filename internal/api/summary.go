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
	"sort"
	"strings"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordCashoutParams is a payout to append to the cashout ledger
type RecordCashoutParams struct {
	Username    string
	Amount      decimal.Decimal
	Type        string
	Description string
}

var hundred = decimal.NewFromInt(100)

// ComputeSummary aggregates paid deposits and cashouts per customer over whole days [from, to]
func (s *LedgerService) ComputeSummary(ctx context.Context, from, to time.Time) (*models.Summary, error) {
	from, to = s.dayBounds(from, to)
	if to.Before(from) {
		return nil, validationError("range end %s is before start %s", to.Format(time.DateOnly), from.Format(time.DateOnly))
	}

	orders, err := s.orders.ListPaidOrders(ctx, from, to)
	if err != nil {
		return nil, storeError("list paid orders", err)
	}
	cashouts, err := s.cashouts.ListCashouts(ctx, from, to)
	if err != nil {
		return nil, storeError("list cashouts", err)
	}

	entries := make([]models.LedgerEntry, 0, len(orders)+len(cashouts))
	for _, o := range orders {
		entries = append(entries, models.LedgerEntry{
			Type:      models.EntryTypeDeposit,
			Username:  o.Username,
			Amount:    o.Amount,
			Time:      o.CreatedAt,
			Reference: o.OrderId,
		})
	}
	for _, c := range cashouts {
		entries = append(entries, models.LedgerEntry{
			Type:      models.EntryTypeCashout,
			Username:  c.Username,
			Amount:    c.AmountUSD,
			Time:      c.Time,
			Reference: c.Id,
		})
	}
	sort.SliceStable(entries, func(i, j int) bool { return entries[i].Time.Before(entries[j].Time) })

	groups := make(map[string]*models.CustomerSummary)
	var keys []string
	for _, e := range entries {
		key := strings.ToLower(e.Username)
		g, ok := groups[key]
		if !ok {
			g = &models.CustomerSummary{Username: e.Username}
			groups[key] = g
			keys = append(keys, key)
		}
		if e.Type == models.EntryTypeDeposit {
			g.TotalDeposit = g.TotalDeposit.Add(e.Amount)
		} else {
			g.TotalCashout = g.TotalCashout.Add(e.Amount)
		}
	}
	sort.Strings(keys)

	summary := &models.Summary{
		From:      from,
		To:        to,
		Customers: make([]models.CustomerSummary, 0, len(keys)),
		Entries:   entries,
	}
	for _, key := range keys {
		g := groups[key]
		finishSummary(g)
		summary.Customers = append(summary.Customers, *g)
		summary.Totals.TotalDeposit = summary.Totals.TotalDeposit.Add(g.TotalDeposit)
		summary.Totals.TotalCashout = summary.Totals.TotalCashout.Add(g.TotalCashout)
	}
	finishSummary(&summary.Totals)

	zap.L().Debug("Computed summary",
		zap.Time("from", from),
		zap.Time("to", to),
		zap.Int("customers", len(summary.Customers)),
		zap.Int("entries", len(entries)))

	return summary, nil
}

func finishSummary(g *models.CustomerSummary) {
	g.Net = g.TotalDeposit.Sub(g.TotalCashout)
	if g.TotalDeposit.IsPositive() {
		g.ProfitMargin = g.Net.Div(g.TotalDeposit).Mul(hundred).Round(2)
	} else {
		g.ProfitMargin = decimal.Zero
	}
}

// dayBounds widens from to the start of its day and to to 23:59:59.999 of its day
func (s *LedgerService) dayBounds(from, to time.Time) (time.Time, time.Time) {
	f := from.In(s.location)
	t := to.In(s.location)
	start := time.Date(f.Year(), f.Month(), f.Day(), 0, 0, 0, 0, s.location)
	end := time.Date(t.Year(), t.Month(), t.Day(), 23, 59, 59, int(999*time.Millisecond), s.location)
	return start, end
}

// RecordCashout appends a completed payout. It does not consult the limit guard.
func (s *LedgerService) RecordCashout(ctx context.Context, params RecordCashoutParams) (*models.Cashout, error) {
	username := strings.TrimSpace(params.Username)
	if username == "" {
		return nil, validationError("username is required")
	}
	if !params.Amount.IsPositive() {
		return nil, validationError("amount must be positive, got %s", params.Amount.String())
	}

	cashoutType := params.Type
	switch cashoutType {
	case "":
		cashoutType = models.CashoutTypeCashout
	case models.CashoutTypeCashout, models.CashoutTypeLightning:
	default:
		return nil, validationError("unknown cashout type %q", params.Type)
	}

	cashout, err := s.cashouts.RecordCashout(ctx, store.RecordCashoutParams{
		Username:    username,
		Amount:      params.Amount,
		Status:      models.CashoutStatusCompleted,
		Type:        cashoutType,
		Description: strings.TrimSpace(params.Description),
		Time:        s.now(),
	})
	if err != nil {
		return nil, storeError("record cashout", err)
	}
	return cashout, nil
}

// RequestCashout is the customer path: the rolling limit is checked before the cashout is recorded
func (s *LedgerService) RequestCashout(ctx context.Context, params RecordCashoutParams) (*models.Cashout, error) {
	if !params.Amount.IsPositive() {
		return nil, validationError("amount must be positive, got %s", params.Amount.String())
	}

	status, err := s.CheckLimit(ctx, params.Username)
	if err != nil {
		return nil, err
	}

	if status.Remaining.LessThan(params.Amount) {
		zap.L().Info("Cashout request over limit",
			zap.String("username", params.Username),
			zap.String("requested", params.Amount.String()),
			zap.String("remaining", status.Remaining.String()))
		return nil, fmt.Errorf("%w: requested %s, remaining %s", ErrLimitExceeded, params.Amount.String(), status.Remaining.String())
	}

	return s.RecordCashout(ctx, params)
}
