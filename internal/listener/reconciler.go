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
	"errors"
	"sync"
	"time"

	"luckypaw-payments-go/internal/api"
	"luckypaw-payments-go/internal/models"

	"go.uber.org/zap"
)

// OrderReconciler is the part of the lifecycle service the reconciler drives
type OrderReconciler interface {
	ListOutstandingOrders(ctx context.Context, since time.Time) ([]models.Order, error)
	ReconcileByPolling(ctx context.Context, orderId string) (*models.OrderStatusResult, error)
}

type ReconcilerConfig struct {
	Service         OrderReconciler
	PollingInterval time.Duration
	LookbackWindow  time.Duration
	CleanupInterval time.Duration
	RetryBackoff    time.Duration
	Workers         int
}

// Reconciler polls the provider for pending orders so payments settle even when
// no client is polling and the webhook never arrives.
type Reconciler struct {
	service OrderReconciler

	// Orders whose last poll failed upstream, keyed to the time they may be retried
	deferredOrders map[string]time.Time
	mutex          sync.RWMutex

	pollingInterval time.Duration
	lookbackWindow  time.Duration
	cleanupInterval time.Duration
	retryBackoff    time.Duration
	workers         int
	now             func() time.Time

	// Control channels
	stopChan chan struct{}
	doneChan chan struct{}
	started  bool
}

func NewReconciler(cfg ReconcilerConfig) *Reconciler {
	r := &Reconciler{
		service:         cfg.Service,
		deferredOrders:  make(map[string]time.Time),
		pollingInterval: cfg.PollingInterval,
		lookbackWindow:  cfg.LookbackWindow,
		cleanupInterval: cfg.CleanupInterval,
		retryBackoff:    cfg.RetryBackoff,
		workers:         cfg.Workers,
		now:             time.Now,
		stopChan:        make(chan struct{}),
		doneChan:        make(chan struct{}),
	}
	if r.cleanupInterval <= 0 {
		r.cleanupInterval = 10 * time.Minute
	}
	if r.retryBackoff <= 0 {
		r.retryBackoff = time.Minute
	}
	if r.workers <= 0 {
		r.workers = 4
	}
	return r
}

// Start launches the poll and cleanup loops. A zero polling interval disables the reconciler.
func (r *Reconciler) Start(ctx context.Context) {
	if r.pollingInterval <= 0 {
		zap.L().Info("Background reconciler disabled")
		return
	}

	r.started = true
	go r.pollLoop(ctx)
	go r.cleanupLoop(ctx)

	zap.L().Info("Background reconciler started",
		zap.Duration("polling_interval", r.pollingInterval),
		zap.Duration("lookback_window", r.lookbackWindow),
		zap.Int("workers", r.workers))
}

// Stop gracefully stops the reconciler and waits for the current pass to finish
func (r *Reconciler) Stop() {
	if !r.started {
		return
	}
	zap.L().Info("Stopping background reconciler")
	close(r.stopChan)
	<-r.doneChan
	zap.L().Info("Background reconciler stopped")
}

func (r *Reconciler) pollLoop(ctx context.Context) {
	defer close(r.doneChan)

	ticker := time.NewTicker(r.pollingInterval)
	defer ticker.Stop()

	r.reconcilePending(ctx)

	for {
		select {
		case <-ticker.C:
			r.reconcilePending(ctx)
		case <-r.stopChan:
			return
		case <-ctx.Done():
			return
		}
	}
}

// reconcilePending polls every outstanding order once, skipping ones still backing off
func (r *Reconciler) reconcilePending(ctx context.Context) int {
	now := r.now()
	orders, err := r.service.ListOutstandingOrders(ctx, now.Add(-r.lookbackWindow))
	if err != nil {
		zap.L().Error("Failed to list outstanding orders", zap.Error(err))
		return 0
	}

	jobs := make(chan string)
	var wg sync.WaitGroup
	var settledMu sync.Mutex
	settled := 0

	for i := 0; i < r.workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for orderId := range jobs {
				if r.reconcileOrder(ctx, orderId) {
					settledMu.Lock()
					settled++
					settledMu.Unlock()
				}
			}
		}()
	}

	for _, o := range orders {
		if r.isDeferred(o.OrderId, now) {
			continue
		}
		jobs <- o.OrderId
	}
	close(jobs)
	wg.Wait()

	if len(orders) > 0 {
		zap.L().Debug("Reconciler pass finished",
			zap.Int("outstanding", len(orders)),
			zap.Int("settled", settled))
	}
	return settled
}

// reconcileOrder reports whether this call moved the order to paid
func (r *Reconciler) reconcileOrder(ctx context.Context, orderId string) bool {
	ctx = models.WithReconcileContext(ctx, &models.ReconcileContext{
		Source:     models.SourceReconciler,
		ReceivedAt: r.now(),
	})

	result, err := r.service.ReconcileByPolling(ctx, orderId)
	if err != nil {
		if errors.Is(err, api.ErrNotFound) {
			zap.L().Debug("Order disappeared before reconcile", zap.String("order_id", orderId))
			return false
		}
		zap.L().Warn("Failed to reconcile order",
			zap.String("order_id", orderId),
			zap.Error(err))
		if errors.Is(err, api.ErrUpstream) {
			r.deferOrder(orderId, r.now().Add(r.retryBackoff))
		}
		return false
	}

	if result.Updated {
		zap.L().Info("Reconciler settled order",
			zap.String("order_id", orderId),
			zap.String("status", result.Status))
	}
	return result.Updated
}
