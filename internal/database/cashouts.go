package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"luckypaw-payments-go/internal/models"
	"luckypaw-payments-go/internal/store"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// RecordCashout appends a payout to the cashout ledger
func (s *SubledgerService) RecordCashout(ctx context.Context, params store.RecordCashoutParams) (*models.Cashout, error) {
	id := params.Id
	if id == "" {
		id = uuid.New().String()
	}
	status := params.Status
	if status == "" {
		status = models.CashoutStatusCompleted
	}
	cashoutType := params.Type
	if cashoutType == "" {
		cashoutType = models.CashoutTypeCashout
	}
	at := params.Time
	if at.IsZero() {
		at = s.now()
	}

	zap.L().Info("Recording cashout",
		zap.String("cashout_id", id),
		zap.String("username", params.Username),
		zap.String("amount_usd", params.Amount.String()),
		zap.String("type", cashoutType))

	var existingId string
	err := s.db.QueryRowContext(ctx, queryCheckDuplicateCashout, id).Scan(&existingId)
	if err == nil {
		zap.L().Warn("Duplicate cashout id detected, skipping", zap.String("cashout_id", id))
		return nil, fmt.Errorf("%w: id %s already exists", store.ErrDuplicateCashout, id)
	} else if !errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("failed to check for duplicate cashout: %w", err)
	}

	cashout, err := scanCashout(s.db.QueryRowContext(ctx, queryInsertCashout,
		id, params.Username, params.Amount.String(), at.UnixMilli(), status, cashoutType, params.Description))
	if err != nil {
		return nil, fmt.Errorf("failed to insert cashout: %w", err)
	}

	return cashout, nil
}

// ListCashouts returns every cashout whose time falls within [from, to]
func (s *SubledgerService) ListCashouts(ctx context.Context, from, to time.Time) ([]models.Cashout, error) {
	rows, err := s.db.QueryContext(ctx, queryListCashoutsInRange, from.UnixMilli(), to.UnixMilli())
	if err != nil {
		zap.L().Error("Failed to list cashouts", zap.Time("from", from), zap.Time("to", to), zap.Error(err))
		return nil, fmt.Errorf("failed to list cashouts: %w", err)
	}
	return collectCashouts(rows)
}

// ListCompletedCashouts returns completed cashouts for a user after since, oldest first
func (s *SubledgerService) ListCompletedCashouts(ctx context.Context, username string, since time.Time) ([]models.Cashout, error) {
	zap.L().Debug("Getting completed cashouts", zap.String("username", username), zap.Time("since", since))

	rows, err := s.db.QueryContext(ctx, queryListCompletedCashoutsSince, username, since.UnixMilli())
	if err != nil {
		zap.L().Error("Failed to list completed cashouts", zap.String("username", username), zap.Error(err))
		return nil, fmt.Errorf("failed to list completed cashouts: %w", err)
	}
	return collectCashouts(rows)
}

func scanCashout(row rowScanner) (*models.Cashout, error) {
	var cashout models.Cashout
	var amountStr string
	var at int64

	err := row.Scan(&cashout.Id, &cashout.Username, &amountStr, &at,
		&cashout.Status, &cashout.Type, &cashout.Description)
	if err != nil {
		return nil, err
	}

	cashout.AmountUSD, err = decimal.NewFromString(amountStr)
	if err != nil {
		return nil, fmt.Errorf("failed to parse amount_usd '%s': %w", amountStr, err)
	}
	cashout.Time = time.UnixMilli(at)
	return &cashout, nil
}

func collectCashouts(rows *sql.Rows) ([]models.Cashout, error) {
	defer func(rows *sql.Rows) {
		if err := rows.Close(); err != nil {
			zap.L().Warn("Failed to close rows", zap.Error(err))
		}
	}(rows)

	var cashouts []models.Cashout
	for rows.Next() {
		cashout, err := scanCashout(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan cashout: %w", err)
		}
		cashouts = append(cashouts, *cashout)
	}

	if err := rows.Err(); err != nil {
		zap.L().Error("Error during cashout row iteration", zap.Error(err))
		return nil, fmt.Errorf("error iterating cashout rows: %w", err)
	}
	return cashouts, nil
}
