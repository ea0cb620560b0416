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
	"errors"
	"fmt"

	"luckypaw-payments-go/internal/store"
)

// Error classes surfaced to callers. The HTTP layer maps each one to a status code.
var (
	ErrValidation     = errors.New("validation failed")
	ErrNotFound       = errors.New("not found")
	ErrAuthentication = errors.New("authentication failed")
	ErrUpstream       = errors.New("payment provider error")
	ErrStore          = errors.New("store error")

	// ErrLimitExceeded is a validation error: the caller asked for more than the window allows.
	ErrLimitExceeded = fmt.Errorf("%w: cashout limit exceeded", ErrValidation)
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

func upstreamError(op string, err error) error {
	return fmt.Errorf("%w: %s: %w", ErrUpstream, op, err)
}

// storeError classifies a store failure, keeping not-found distinct from persistence faults
func storeError(op string, err error) error {
	if errors.Is(err, store.ErrOrderNotFound) {
		return fmt.Errorf("%w: %w", ErrNotFound, err)
	}
	return fmt.Errorf("%w: %s: %w", ErrStore, op, err)
}
