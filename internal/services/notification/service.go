// Package notification publishes settlement side effects. Publishing is
// best-effort: callers log failures and never retry.
package notification

import (
	"context"
	"log"
)

const EventTypePaymentSettled = "payment.settled"

// SettlementEvent is the message body sent when a payment settles.
type SettlementEvent struct {
	Type      string `json:"type"`
	PaymentID string `json:"payment_id"`
}

// Notifier delivers settlement events to a downstream consumer. Delivery is
// at-least-once; consumers must be idempotent.
type Notifier interface {
	Publish(ctx context.Context, event SettlementEvent) error
	Close() error
}

// LogNotifier only logs events. It is used when no broker is configured.
type LogNotifier struct{}

func NewLogNotifier() *LogNotifier { return &LogNotifier{} }

func (n *LogNotifier) Publish(ctx context.Context, event SettlementEvent) error {
	log.Printf("Settlement notification %s for payment %s (log only)", event.Type, event.PaymentID)
	return nil
}

func (n *LogNotifier) Close() error { return nil }
