package formance

import (
	"testing"
	"time"

	"luckypaw-payments-go/internal/models"

	"github.com/formancehq/formance-sdk-go/v3/pkg/models/shared"
	"github.com/shopspring/decimal"
)

// ---------- Unit tests for pure helpers (no Formance stack needed) ----------

func TestFormanceAsset(t *testing.T) {
	tests := []struct {
		symbol string
		want   string
	}{
		{"USD", "USD/2"},
		{"BTC", "BTC/8"},
		{"UNKNOWN", "UNKNOWN/2"}, // default precision
	}
	for _, tt := range tests {
		if got := formanceAsset(tt.symbol); got != tt.want {
			t.Errorf("formanceAsset(%q) = %q, want %q", tt.symbol, got, tt.want)
		}
	}
}

func TestAccountSegment(t *testing.T) {
	tests := []struct {
		input string
		want  string
	}{
		{"Alice", "alice"},
		{"  bob_99 ", "bob_99"},
		{"fish.king@x", "fish_king_x"},
		{"", "unknown"},
	}
	for _, tt := range tests {
		if got := accountSegment(tt.input); got != tt.want {
			t.Errorf("accountSegment(%q) = %q, want %q", tt.input, got, tt.want)
		}
	}
}

func TestTxToCashout(t *testing.T) {
	ts := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	ref := "co-ref"

	tx := &shared.V2Transaction{
		Reference: &ref,
		Timestamp: ts,
		Metadata: map[string]string{
			"entry_type":  "cashout",
			"username":    "Alice",
			"amount_usd":  "42.50",
			"status":      "completed",
			"type":        "cashout_lightning",
			"description": "weekly",
		},
	}

	cashout, err := txToCashout(tx)
	if err != nil {
		t.Fatalf("txToCashout failed: %v", err)
	}
	if cashout.Id != "co-ref" {
		t.Errorf("expected id from reference, got %q", cashout.Id)
	}
	if !cashout.AmountUSD.Equal(decimal.RequireFromString("42.5")) {
		t.Errorf("expected 42.5, got %s", cashout.AmountUSD.String())
	}
	if cashout.Type != models.CashoutTypeLightning {
		t.Errorf("expected lightning cashout type, got %s", cashout.Type)
	}
	if !cashout.Time.Equal(ts) {
		t.Errorf("expected time %v, got %v", ts, cashout.Time)
	}

	tx.Metadata["entry_type"] = "deposit"
	if _, err := txToCashout(tx); err == nil {
		t.Error("expected error for non-cashout transaction")
	}

	tx.Metadata["entry_type"] = "cashout"
	tx.Metadata["amount_usd"] = "abc"
	if _, err := txToCashout(tx); err == nil {
		t.Error("expected error for invalid amount")
	}
}

func TestFilterCashouts_SortsAscending(t *testing.T) {
	base := time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC)
	cashouts := []models.Cashout{
		{Id: "c", Time: base.Add(3 * time.Hour), Status: models.CashoutStatusCompleted},
		{Id: "a", Time: base.Add(1 * time.Hour), Status: models.CashoutStatusCompleted},
		{Id: "p", Time: base.Add(2 * time.Hour), Status: "pending"},
	}

	got := filterCashouts(cashouts, func(c models.Cashout) bool {
		return c.Status == models.CashoutStatusCompleted
	})
	if len(got) != 2 {
		t.Fatalf("expected 2 completed cashouts, got %d", len(got))
	}
	if got[0].Id != "a" || got[1].Id != "c" {
		t.Errorf("expected ascending order [a c], got [%s %s]", got[0].Id, got[1].Id)
	}
}
