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


package listener

import (
	"context"
	"time"

	"go.uber.org/zap"
)

func (r *Reconciler) isDeferred(orderId string, now time.Time) bool {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	until, exists := r.deferredOrders[orderId]
	return exists && now.Before(until)
}

func (r *Reconciler) deferOrder(orderId string, until time.Time) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	r.deferredOrders[orderId] = until
}

func (r *Reconciler) cleanupLoop(ctx context.Context) {
	ticker := time.NewTicker(r.cleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			r.cleanupDeferredOrders()
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// cleanupDeferredOrders drops backoff entries that have already lapsed
func (r *Reconciler) cleanupDeferredOrders() {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	now := r.now()
	removed := 0
	for orderId, until := range r.deferredOrders {
		if !now.Before(until) {
			delete(r.deferredOrders, orderId)
			removed++
		}
	}

	if removed > 0 {
		zap.L().Debug("Cleaned up deferred orders",
			zap.Int("removed", removed),
			zap.Int("remaining", len(r.deferredOrders)))
	}
}
