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

package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"luckypaw-payments-go/internal/models"

	"github.com/shopspring/decimal"
)

const (
	LedgerBackendSqlite   = "sqlite"
	LedgerBackendFormance = "formance"
)

func Load() (*models.Config, error) {
	connMaxLifetime, err := getEnvDuration("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	if err != nil {
		return nil, err
	}

	connMaxIdleTime, err := getEnvDuration("DB_CONN_MAX_IDLE_TIME", 30*time.Second)
	if err != nil {
		return nil, err
	}

	pingTimeout, err := getEnvDuration("DB_PING_TIMEOUT", 5*time.Second)
	if err != nil {
		return nil, err
	}

	speedTimeout, err := getEnvDuration("SPEED_TIMEOUT", 60*time.Second)
	if err != nil {
		return nil, err
	}

	ratesTimeout, err := getEnvDuration("RATES_TIMEOUT", 10*time.Second)
	if err != nil {
		return nil, err
	}

	requestTimeout, err := getEnvDuration("REQUEST_TIMEOUT", 30*time.Second)
	if err != nil {
		return nil, err
	}

	reconcilerInterval, err := getEnvDuration("RECONCILER_INTERVAL", 30*time.Second)
	if err != nil {
		return nil, err
	}

	reconcilerLookback, err := getEnvDuration("RECONCILER_LOOKBACK", 2*time.Hour)
	if err != nil {
		return nil, err
	}

	reconcilerCleanup, err := getEnvDuration("RECONCILER_CLEANUP_INTERVAL", 15*time.Minute)
	if err != nil {
		return nil, err
	}

	dailyLimit, err := getEnvDecimal("CASHOUT_DAILY_LIMIT", decimal.NewFromInt(300))
	if err != nil {
		return nil, err
	}

	backend := strings.ToLower(getEnvString("LEDGER_BACKEND", LedgerBackendSqlite))
	if backend != LedgerBackendSqlite && backend != LedgerBackendFormance {
		return nil, fmt.Errorf("invalid LEDGER_BACKEND: %q (expected %q or %q)", backend, LedgerBackendSqlite, LedgerBackendFormance)
	}

	return &models.Config{
		Database: models.DatabaseConfig{
			Path:            getEnvString("DATABASE_PATH", "fishing-room.db"),
			MaxOpenConns:    getEnvInt("DB_MAX_OPEN_CONNS", 25),
			MaxIdleConns:    getEnvInt("DB_MAX_IDLE_CONNS", 5),
			ConnMaxLifetime: connMaxLifetime,
			ConnMaxIdleTime: connMaxIdleTime,
			PingTimeout:     pingTimeout,
		},
		Ledger: models.LedgerConfig{
			Backend: backend,
			Formance: models.FormanceConfig{
				StackURL:     getEnvString("FORMANCE_STACK_URL", ""),
				ClientID:     getEnvString("FORMANCE_CLIENT_ID", ""),
				ClientSecret: getEnvString("FORMANCE_CLIENT_SECRET", ""),
				LedgerName:   getEnvString("FORMANCE_LEDGER", "fishing-room-cashouts"),
			},
		},
		Speed: models.SpeedConfig{
			BaseURL:       getEnvString("SPEED_API_URL", "https://api.tryspeed.com"),
			SecretKey:     getEnvString("SPEED_SECRET_KEY", ""),
			WebhookSecret: getEnvString("SPEED_WEBHOOK_SECRET", ""),
			Timeout:       speedTimeout,
		},
		Rates: models.RatesConfig{
			URL:     getEnvString("RATES_API_URL", "https://api.coingecko.com/api/v3/simple/price?ids=bitcoin&vs_currencies=usd"),
			Timeout: ratesTimeout,
		},
		Server: models.ServerConfig{
			Addr:           getEnvString("HTTP_ADDR", ":8080"),
			AdminApiKey:    getEnvString("ADMIN_API_KEY", ""),
			RequestTimeout: requestTimeout,
			GamesFile:      getEnvString("GAMES_FILE", ""),
		},
		Reconciler: models.ReconcilerConfig{
			Interval:        reconcilerInterval,
			LookbackWindow:  reconcilerLookback,
			CleanupInterval: reconcilerCleanup,
		},
		Cashout: models.CashoutConfig{
			DailyLimit: dailyLimit,
			Window:     24 * time.Hour,
		},
		Log: models.LogConfig{
			File:       getEnvString("LOG_FILE", ""),
			MaxSizeMB:  getEnvInt("LOG_MAX_SIZE_MB", 100),
			MaxBackups: getEnvInt("LOG_MAX_BACKUPS", 3),
			MaxAgeDays: getEnvInt("LOG_MAX_AGE_DAYS", 28),
		},
	}, nil
}

func getEnvString(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	if value := os.Getenv(key); value != "" {
		duration, err := time.ParseDuration(value)
		if err != nil {
			return 0, fmt.Errorf("invalid duration for %s: %q (%w)", key, value, err)
		}
		return duration, nil
	}
	return defaultValue, nil
}

func getEnvDecimal(key string, defaultValue decimal.Decimal) (decimal.Decimal, error) {
	if value := os.Getenv(key); value != "" {
		d, err := decimal.NewFromString(value)
		if err != nil {
			return decimal.Zero, fmt.Errorf("invalid decimal for %s: %q (%w)", key, value, err)
		}
		if !d.IsPositive() {
			return decimal.Zero, fmt.Errorf("%s must be positive, got %s", key, value)
		}
		return d, nil
	}
	return defaultValue, nil
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}
