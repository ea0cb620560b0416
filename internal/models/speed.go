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
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// PaymentResult is the validated result of a Speed payment creation.
// Exactly one of LightningPaymentResult or OnChainPaymentResult implements it
// for a given payment, depending on the requested method.
type PaymentResult interface {
	PaymentId() string
	PaymentMethod() string
	// PaymentRequest is the string the customer pays: a bolt11 invoice or an address.
	PaymentRequest() string
	// Satoshis is the provider-quoted amount, zero when the provider did not report one.
	Satoshis() int64
	// ExpiresAt is the raw expiry as reported by the provider (number or numeric string).
	ExpiresAt() any
}

// LightningPaymentResult is a payment that settles over Lightning
type LightningPaymentResult struct {
	Id         string
	Invoice    string
	AmountSats int64
	RawExpiry  any
	Status     string
}

func (r *LightningPaymentResult) PaymentId() string      { return r.Id }
func (r *LightningPaymentResult) PaymentMethod() string  { return MethodLightning }
func (r *LightningPaymentResult) PaymentRequest() string { return r.Invoice }
func (r *LightningPaymentResult) Satoshis() int64        { return r.AmountSats }
func (r *LightningPaymentResult) ExpiresAt() any         { return r.RawExpiry }

// OnChainPaymentResult is a payment that settles to a bitcoin address
type OnChainPaymentResult struct {
	Id         string
	Address    string
	AmountSats int64
	RawExpiry  any
	Status     string
}

func (r *OnChainPaymentResult) PaymentId() string      { return r.Id }
func (r *OnChainPaymentResult) PaymentMethod() string  { return MethodOnChain }
func (r *OnChainPaymentResult) PaymentRequest() string { return r.Address }
func (r *OnChainPaymentResult) Satoshis() int64        { return r.AmountSats }
func (r *OnChainPaymentResult) ExpiresAt() any         { return r.RawExpiry }

// MethodOnChain is accepted by the provider client but orders are only created for Lightning
const MethodOnChain = "onchain"

// Speed payment status values
const (
	SpeedStatusPaid = "paid"
)

// SpeedPayment is the subset of the provider's payment object used for status polling
type SpeedPayment struct {
	Id     string `json:"id"`
	Status string `json:"status"`
}

// SpeedWebhookEvent is the signed event body sent by the provider
type SpeedWebhookEvent struct {
	Id        string           `json:"id"`
	EventType string           `json:"event_type"`
	Data      SpeedWebhookData `json:"data"`
}

// SpeedWebhookData wraps the payment object carried by an event
type SpeedWebhookData struct {
	Object SpeedPayment `json:"object"`
}

// NormalizeExpiry turns a provider expiry into epoch milliseconds. Numbers and
// numeric strings are accepted; any other shape or a non-positive value yields nil.
func NormalizeExpiry(raw any) *int64 {
	var ms int64
	switch v := raw.(type) {
	case int64:
		ms = v
	case int:
		ms = int64(v)
	case float64:
		ms = int64(v)
	case json.Number:
		n, err := v.Int64()
		if err != nil {
			f, ferr := v.Float64()
			if ferr != nil {
				return nil
			}
			n = int64(f)
		}
		ms = n
	case string:
		n, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return nil
		}
		ms = int64(n)
	default:
		return nil
	}

	if ms <= 0 {
		return nil
	}
	return &ms
}
