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


package rates

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"luckypaw-payments-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

var ErrRateUnavailable = errors.New("exchange rate unavailable")

// Service fetches the USD spot price of bitcoin from a simple-price endpoint
type Service struct {
	url        string
	httpClient *http.Client
}

func NewService(cfg models.RatesConfig) *Service {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Service{
		url:        cfg.URL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type simplePriceResponse struct {
	Bitcoin struct {
		Usd decimal.NullDecimal `json:"usd"`
	} `json:"bitcoin"`
}

// BtcUsd returns the current price of one bitcoin in USD
func (s *Service) BtcUsd(ctx context.Context) (decimal.Decimal, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, s.url, nil)
	if err != nil {
		return decimal.Zero, fmt.Errorf("unable to build rate request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close rate response body", zap.Error(err))
		}
	}()

	if resp.StatusCode != http.StatusOK {
		return decimal.Zero, fmt.Errorf("%w: status %d", ErrRateUnavailable, resp.StatusCode)
	}

	var body simplePriceResponse
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err != nil {
		return decimal.Zero, fmt.Errorf("%w: %v", ErrRateUnavailable, err)
	}

	if !body.Bitcoin.Usd.Valid || !body.Bitcoin.Usd.Decimal.IsPositive() {
		return decimal.Zero, fmt.Errorf("%w: missing or non-positive rate", ErrRateUnavailable)
	}

	zap.L().Debug("Fetched BTC/USD rate", zap.String("rate", body.Bitcoin.Usd.Decimal.String()))
	return body.Bitcoin.Usd.Decimal, nil
}
