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


package formance

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/operations"
	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// All cashout fields live in transaction metadata so reads never depend on postings.
const numscriptCashout = `vars {
  asset $asset
  number $amount
  account $customer
  string $cashout_id
  string $username
  string $username_key
  string $amount_usd
  string $status
  string $cashout_type
  string $description
}

send [$asset $amount] (
  source = @house:cashouts allowing unbounded overdraft
  destination = @customers:$customer:cashouts
)

set_tx_meta("entry_type", "cashout")
set_tx_meta("cashout_id", $cashout_id)
set_tx_meta("username", $username)
set_tx_meta("username_key", $username_key)
set_tx_meta("amount_usd", $amount_usd)
set_tx_meta("status", $status)
set_tx_meta("type", $cashout_type)
set_tx_meta("description", $description)
`

const listPageSize = int64(100)

// RecordCashout posts a payout transaction referenced by the cashout id.
func (s *Service) RecordCashout(ctx context.Context, params store.RecordCashoutParams) (*models.Cashout, error) {
	cashout := models.Cashout{
		Id:          params.Id,
		Username:    params.Username,
		AmountUSD:   params.Amount,
		Time:        params.Time,
		Status:      params.Status,
		Type:        params.Type,
		Description: params.Description,
	}
	if cashout.Id == "" {
		cashout.Id = uuid.New().String()
	}
	if cashout.Status == "" {
		cashout.Status = models.CashoutStatusCompleted
	}
	if cashout.Type == "" {
		cashout.Type = models.CashoutTypeCashout
	}
	if cashout.Time.IsZero() {
		cashout.Time = time.Now()
	}
	// Ledger timestamps carry no sub-millisecond precision worth keeping.
	cashout.Time = cashout.Time.UTC().Truncate(time.Millisecond)

	smallAmt := params.Amount.Shift(int32(precisionFor("USD"))).BigInt().String()

	postTx := shared.V2PostTransaction{
		Reference: strPtr(cashout.Id),
		Timestamp: &cashout.Time,
		Script: &shared.V2PostTransactionScript{
			Plain: numscriptCashout,
			Vars: map[string]string{
				"asset":        formanceAsset("USD"),
				"amount":       smallAmt,
				"customer":     accountSegment(params.Username),
				"cashout_id":   cashout.Id,
				"username":     params.Username,
				"username_key": strings.ToLower(params.Username),
				"amount_usd":   params.Amount.String(),
				"status":       cashout.Status,
				"cashout_type": cashout.Type,
				"description":  cashout.Description,
			},
		},
	}

	_, err := s.client.Ledger.V2.CreateTransaction(ctx, operations.V2CreateTransactionRequest{
		Ledger:            s.ledger,
		V2PostTransaction: postTx,
	})
	if err != nil {
		if isConflictError(err) {
			return nil, fmt.Errorf("%w: id %s already exists", store.ErrDuplicateCashout, cashout.Id)
		}
		return nil, fmt.Errorf("error recording cashout: %w", err)
	}

	zap.L().Info("Cashout recorded in Formance",
		zap.String("cashout_id", cashout.Id),
		zap.String("username", cashout.Username),
		zap.String("amount_usd", cashout.AmountUSD.String()))
	return &cashout, nil
}

// ListCashouts returns every cashout whose time falls within [from, to].
func (s *Service) ListCashouts(ctx context.Context, from, to time.Time) ([]models.Cashout, error) {
	cashouts, err := s.listCashoutTransactions(ctx, map[string]any{"metadata[entry_type]": "cashout"})
	if err != nil {
		return nil, err
	}
	return filterCashouts(cashouts, func(c models.Cashout) bool {
		return !c.Time.Before(from) && !c.Time.After(to)
	}), nil
}

// ListCompletedCashouts returns completed cashouts for a username after since, oldest first.
func (s *Service) ListCompletedCashouts(ctx context.Context, username string, since time.Time) ([]models.Cashout, error) {
	cashouts, err := s.listCashoutTransactions(ctx, map[string]any{
		"metadata[username_key]": strings.ToLower(username),
	})
	if err != nil {
		return nil, err
	}
	return filterCashouts(cashouts, func(c models.Cashout) bool {
		return c.Status == models.CashoutStatusCompleted && c.Time.After(since)
	}), nil
}

func (s *Service) listCashoutTransactions(ctx context.Context, match map[string]any) ([]models.Cashout, error) {
	var cashouts []models.Cashout
	var cursor *string

	for {
		pageSize := listPageSize
		resp, err := s.client.Ledger.V2.ListTransactions(ctx, operations.V2ListTransactionsRequest{
			Ledger:      s.ledger,
			PageSize:    &pageSize,
			Cursor:      cursor,
			RequestBody: map[string]any{"$match": match},
		})
		if err != nil {
			return nil, fmt.Errorf("error listing cashout transactions: %w", err)
		}

		page := resp.V2TransactionsCursorResponse.Cursor
		for i := range page.Data {
			cashout, err := txToCashout(&page.Data[i])
			if err != nil {
				zap.L().Warn("Skipping malformed cashout transaction", zap.Error(err))
				continue
			}
			cashouts = append(cashouts, *cashout)
		}

		if !page.HasMore || page.Next == nil {
			break
		}
		cursor = page.Next
	}

	return cashouts, nil
}

// txToCashout rebuilds a cashout from the metadata written by numscriptCashout.
func txToCashout(tx *shared.V2Transaction) (*models.Cashout, error) {
	meta := tx.Metadata
	if meta["entry_type"] != "cashout" {
		return nil, fmt.Errorf("transaction is not a cashout")
	}

	amount, err := decimal.NewFromString(meta["amount_usd"])
	if err != nil {
		return nil, fmt.Errorf("invalid amount_usd %q: %w", meta["amount_usd"], err)
	}

	id := meta["cashout_id"]
	if id == "" && tx.Reference != nil {
		id = *tx.Reference
	}

	return &models.Cashout{
		Id:          id,
		Username:    meta["username"],
		AmountUSD:   amount,
		Time:        tx.Timestamp,
		Status:      meta["status"],
		Type:        meta["type"],
		Description: meta["description"],
	}, nil
}

func filterCashouts(cashouts []models.Cashout, keep func(models.Cashout) bool) []models.Cashout {
	var out []models.Cashout
	for _, c := range cashouts {
		if keep(c) {
			out = append(out, c)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Time.Before(out[j].Time) })
	return out
}
