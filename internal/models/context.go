package models

import (
	"context"
	"time"
)

type reconcileContextKey struct{}

// ReconcileContext carries the origin of a status change through context so
// the store can log which channel settled an order without widening the
// OrderStore interface.
type ReconcileContext struct {
	Source     string    // "poll", "webhook", "manual", "reconciler"
	EventId    string    // provider event id for webhook deliveries
	EventType  string    // provider event type for webhook deliveries
	ReceivedAt time.Time // when the request reached us
}

// Reconcile sources
const (
	SourcePoll       = "poll"
	SourceWebhook    = "webhook"
	SourceManual     = "manual"
	SourceReconciler = "reconciler"
)

// WithReconcileContext attaches reconcile origin data to a context.
func WithReconcileContext(ctx context.Context, rc *ReconcileContext) context.Context {
	return context.WithValue(ctx, reconcileContextKey{}, rc)
}

// GetReconcileContext retrieves reconcile origin data from context, or nil if absent.
func GetReconcileContext(ctx context.Context) *ReconcileContext {
	rc, _ := ctx.Value(reconcileContextKey{}).(*ReconcileContext)
	return rc
}
