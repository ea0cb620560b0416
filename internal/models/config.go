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

package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Config represents the application configuration
type Config struct {
	Database   DatabaseConfig
	Ledger     LedgerConfig
	Speed      SpeedConfig
	Rates      RatesConfig
	Server     ServerConfig
	Reconciler ReconcilerConfig
	Cashout    CashoutConfig
	Log        LogConfig
}

// DatabaseConfig holds database connection settings
type DatabaseConfig struct {
	Path            string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
	PingTimeout     time.Duration
}

// LedgerConfig selects the cashout ledger backend ("sqlite" or "formance")
type LedgerConfig struct {
	Backend  string
	Formance FormanceConfig
}

// FormanceConfig holds Formance Stack connection settings
type FormanceConfig struct {
	StackURL     string
	ClientID     string
	ClientSecret string
	LedgerName   string
}

// SpeedConfig holds payment provider settings
type SpeedConfig struct {
	BaseURL       string
	SecretKey     string
	WebhookSecret string
	Timeout       time.Duration
}

// RatesConfig holds the exchange-rate fallback settings
type RatesConfig struct {
	URL     string
	Timeout time.Duration
}

// ServerConfig holds HTTP listener settings
type ServerConfig struct {
	Addr           string
	AdminApiKey    string
	RequestTimeout time.Duration
	GamesFile      string
}

// ReconcilerConfig holds background reconciliation settings
type ReconcilerConfig struct {
	Interval        time.Duration
	LookbackWindow  time.Duration
	CleanupInterval time.Duration
}

// CashoutConfig holds the rolling cashout ceiling
type CashoutConfig struct {
	DailyLimit decimal.Decimal
	Window     time.Duration
}

// LogConfig holds logger settings
type LogConfig struct {
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}
