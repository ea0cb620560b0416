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


package speed

import (
	"bytes"
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"luckypaw-payments-go/internal/models"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
	"golang.org/x/net/http2"
)

var (
	ErrRequestFailed   = errors.New("speed request failed")
	ErrInvalidResponse = errors.New("speed returned an unusable response")
)

const maxResponseBytes = 1 << 20

type Service struct {
	baseUrl    string
	authHeader string
	httpClient http.Client
}

func NewService(cfg models.SpeedConfig) (*Service, error) {
	if cfg.SecretKey == "" {
		return nil, fmt.Errorf("speed secret key is required")
	}

	httpClient, err := createCustomHttpClient(cfg.Timeout)
	if err != nil {
		return nil, fmt.Errorf("unable to create custom http client: %w", err)
	}

	return newServiceWithClient(cfg, httpClient), nil
}

func newServiceWithClient(cfg models.SpeedConfig, httpClient http.Client) *Service {
	return &Service{
		baseUrl:    strings.TrimRight(cfg.BaseURL, "/"),
		authHeader: "Basic " + base64.StdEncoding.EncodeToString([]byte(cfg.SecretKey+":")),
		httpClient: httpClient,
	}
}

func createCustomHttpClient(timeout time.Duration) (http.Client, error) {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}

	tr := &http.Transport{
		ResponseHeaderTimeout: 30 * time.Second,
		Proxy:                 http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			KeepAlive: 30 * time.Second,
			Timeout:   15 * time.Second,
		}).DialContext,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
		TLSHandshakeTimeout:   10 * time.Second,
		MaxIdleConnsPerHost:   5,
		ExpectContinueTimeout: 5 * time.Second,
	}

	if err := http2.ConfigureTransport(tr); err != nil {
		return http.Client{}, err
	}

	return http.Client{
		Transport: tr,
		Timeout:   timeout,
	}, nil
}

type createPaymentRequest struct {
	Currency       string      `json:"currency"`
	Amount         json.Number `json:"amount"`
	TargetCurrency string      `json:"target_currency"`
	PaymentMethods []string    `json:"payment_methods"`
}

type paymentResponse struct {
	Id                     string              `json:"id"`
	Status                 string              `json:"status"`
	TargetAmountInSatoshis decimal.NullDecimal `json:"target_amount_in_satoshis"`
	ExpiresAt              any                 `json:"expires_at"`
	PaymentMethodOptions   struct {
		Lightning struct {
			PaymentRequest string `json:"payment_request"`
		} `json:"lightning"`
		OnChain struct {
			Address string `json:"address"`
		} `json:"on_chain"`
	} `json:"payment_method_options"`
}

// CreatePayment asks the provider for a new payment of amountUSD payable by method
func (s *Service) CreatePayment(ctx context.Context, amountUSD decimal.Decimal, method string) (models.PaymentResult, error) {
	speedMethod := method
	if method == models.MethodOnChain {
		speedMethod = "on_chain"
	}

	zap.L().Info("Creating payment via Speed API",
		zap.String("amount_usd", amountUSD.String()),
		zap.String("method", method))

	body := createPaymentRequest{
		Currency:       "USD",
		Amount:         json.Number(amountUSD.String()),
		TargetCurrency: "SATS",
		PaymentMethods: []string{speedMethod},
	}

	var resp paymentResponse
	if err := s.do(ctx, http.MethodPost, "/payments", body, &resp); err != nil {
		return nil, err
	}

	return toPaymentResult(&resp, method)
}

func toPaymentResult(resp *paymentResponse, method string) (models.PaymentResult, error) {
	if resp.Id == "" {
		return nil, fmt.Errorf("%w: payment id missing", ErrInvalidResponse)
	}

	var sats int64
	if resp.TargetAmountInSatoshis.Valid && resp.TargetAmountInSatoshis.Decimal.IsPositive() {
		sats = resp.TargetAmountInSatoshis.Decimal.IntPart()
	}

	switch method {
	case models.MethodLightning:
		invoice := resp.PaymentMethodOptions.Lightning.PaymentRequest
		if invoice == "" {
			return nil, fmt.Errorf("%w: lightning payment request missing for %s", ErrInvalidResponse, resp.Id)
		}
		return &models.LightningPaymentResult{
			Id:         resp.Id,
			Invoice:    invoice,
			AmountSats: sats,
			RawExpiry:  resp.ExpiresAt,
			Status:     resp.Status,
		}, nil
	case models.MethodOnChain:
		address := resp.PaymentMethodOptions.OnChain.Address
		if address == "" {
			return nil, fmt.Errorf("%w: on-chain address missing for %s", ErrInvalidResponse, resp.Id)
		}
		return &models.OnChainPaymentResult{
			Id:         resp.Id,
			Address:    address,
			AmountSats: sats,
			RawExpiry:  resp.ExpiresAt,
			Status:     resp.Status,
		}, nil
	default:
		return nil, fmt.Errorf("%w: unsupported payment method %q", ErrInvalidResponse, method)
	}
}

// GetPayment fetches the current provider view of a payment
func (s *Service) GetPayment(ctx context.Context, paymentId string) (*models.SpeedPayment, error) {
	if paymentId == "" {
		return nil, fmt.Errorf("payment id is required")
	}

	var resp models.SpeedPayment
	if err := s.do(ctx, http.MethodGet, "/payments/"+paymentId, nil, &resp); err != nil {
		return nil, err
	}
	if resp.Status == "" {
		return nil, fmt.Errorf("%w: status missing for payment %s", ErrInvalidResponse, paymentId)
	}

	zap.L().Debug("Fetched payment status",
		zap.String("payment_id", paymentId),
		zap.String("status", resp.Status))

	return &resp, nil
}

type decodeInvoiceRequest struct {
	PaymentRequest string `json:"payment_request"`
}

type decodeInvoiceResponse struct {
	Amount      decimal.NullDecimal `json:"amount"`
	Description string              `json:"description"`
	ExpiresAt   any                 `json:"expires_at"`
}

// DecodeInvoice asks the provider to decode a bolt11 payment request
func (s *Service) DecodeInvoice(ctx context.Context, invoice string) (*models.InvoiceDetails, error) {
	var resp decodeInvoiceResponse
	if err := s.do(ctx, http.MethodPost, "/invoices/decode", decodeInvoiceRequest{PaymentRequest: invoice}, &resp); err != nil {
		return nil, err
	}

	details := &models.InvoiceDetails{
		Invoice:     invoice,
		Description: resp.Description,
		ExpiresAt:   models.NormalizeExpiry(resp.ExpiresAt),
	}
	if resp.Amount.Valid {
		details.AmountSats = resp.Amount.Decimal.IntPart()
	}
	return details, nil
}

func (s *Service) do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("unable to encode request: %w", err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, s.baseUrl+path, reader)
	if err != nil {
		return fmt.Errorf("unable to build request: %w", err)
	}
	req.Header.Set("Authorization", s.authHeader)
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrRequestFailed, method, path, err)
	}
	defer func() {
		if err := resp.Body.Close(); err != nil {
			zap.L().Warn("Failed to close response body", zap.Error(err))
		}
	}()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return fmt.Errorf("%w: reading response: %v", ErrRequestFailed, err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		zap.L().Warn("Speed API returned error status",
			zap.String("method", method),
			zap.String("path", path),
			zap.Int("status_code", resp.StatusCode),
			zap.String("body", truncate(string(raw), 512)))
		return fmt.Errorf("%w: %s %s returned %d", ErrRequestFailed, method, path, resp.StatusCode)
	}

	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidResponse, err)
	}
	return nil
}

// VerifySignature reports whether signature is the hex HMAC-SHA256 of body under secret
func VerifySignature(secret string, body []byte, signature string) bool {
	if secret == "" || signature == "" {
		return false
	}

	given, err := hex.DecodeString(strings.TrimSpace(signature))
	if err != nil {
		return false
	}

	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hmac.Equal(given, mac.Sum(nil))
}

// Sign returns the hex HMAC-SHA256 of body, the form the provider sends in speed-signature
func Sign(secret string, body []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write(body)
	return hex.EncodeToString(mac.Sum(nil))
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
