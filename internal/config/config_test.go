package config

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ledger.Backend != LedgerBackendSqlite {
		t.Errorf("Expected default ledger backend %q, got %q", LedgerBackendSqlite, cfg.Ledger.Backend)
	}
	if !cfg.Cashout.DailyLimit.Equal(decimal.NewFromInt(300)) {
		t.Errorf("Expected default cashout limit 300, got %s", cfg.Cashout.DailyLimit.String())
	}
	if cfg.Cashout.Window != 24*time.Hour {
		t.Errorf("Expected 24h cashout window, got %v", cfg.Cashout.Window)
	}
	if cfg.Speed.BaseURL != "https://api.tryspeed.com" {
		t.Errorf("Unexpected default Speed URL %q", cfg.Speed.BaseURL)
	}
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("LEDGER_BACKEND", "Formance")
	t.Setenv("CASHOUT_DAILY_LIMIT", "500")
	t.Setenv("RECONCILER_INTERVAL", "1m")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Ledger.Backend != LedgerBackendFormance {
		t.Errorf("Expected formance backend, got %q", cfg.Ledger.Backend)
	}
	if !cfg.Cashout.DailyLimit.Equal(decimal.NewFromInt(500)) {
		t.Errorf("Expected limit 500, got %s", cfg.Cashout.DailyLimit.String())
	}
	if cfg.Reconciler.Interval != time.Minute {
		t.Errorf("Expected 1m interval, got %v", cfg.Reconciler.Interval)
	}
}

func TestLoad_InvalidValues(t *testing.T) {
	tests := []struct {
		key   string
		value string
	}{
		{"LEDGER_BACKEND", "postgres"},
		{"CASHOUT_DAILY_LIMIT", "-1"},
		{"CASHOUT_DAILY_LIMIT", "lots"},
		{"SPEED_TIMEOUT", "soon"},
	}
	for _, tt := range tests {
		t.Run(tt.key+"="+tt.value, func(t *testing.T) {
			t.Setenv(tt.key, tt.value)
			if _, err := Load(); err == nil {
				t.Errorf("Expected error for %s=%q", tt.key, tt.value)
			}
		})
	}
}
