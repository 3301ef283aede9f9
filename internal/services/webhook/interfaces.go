package webhook

import (
	"context"

	"payhook/internal/services/notification"
	"payhook/internal/services/provider"
)

// Reconciler processes one normalized notification.
type Reconciler interface {
	Reconcile(ctx context.Context, event *Event) error
}

// Fetcher reads authoritative resources from the provider. Every error it
// returns is treated as the resource being unavailable.
type Fetcher interface {
	FetchPayment(ctx context.Context, id string) (*provider.Resource, error)
	FetchChargeback(ctx context.Context, id string) (*provider.Resource, error)
}

// Notifier receives settlement events.
type Notifier interface {
	Publish(ctx context.Context, event notification.SettlementEvent) error
}
