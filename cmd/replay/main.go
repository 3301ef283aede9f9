// Command replay re-runs reconciliation for journaled webhook events using
// their stored payload.
//
//	replay <event_id> [event_id ...]
package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"payhook/internal/config"
	"payhook/internal/repositories"
	"payhook/internal/services/notification"
	"payhook/internal/services/provider"
	"payhook/internal/services/webhook"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: replay <event_id> [event_id ...]")
	}

	config.LoadEnv()
	cfg := config.MustLoad()

	db, err := repositories.InitDB(cfg.DB)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer repositories.Close(db)

	notifier := notification.New(cfg.Kafka)
	defer notifier.Close()

	journal := repositories.NewJournalRepository(db, cfg.DB.OpTimeout)
	svc := webhook.NewService(
		journal,
		repositories.NewPaymentRepository(db, cfg.DB.OpTimeout),
		repositories.NewChargebackRepository(db, cfg.DB.OpTimeout),
		provider.NewClient(cfg.Provider, nil),
		notifier,
		nil,
	)

	ctx := context.Background()
	failed := 0
	for _, eventID := range os.Args[1:] {
		if err := replay(ctx, journal, svc, eventID); err != nil {
			log.Printf("⚠️ %v", err)
			failed++
		}
	}
	if failed > 0 {
		notifier.Close()
		repositories.Close(db)
		os.Exit(1)
	}
}

func replay(ctx context.Context, journal repositories.JournalRepository, svc webhook.Reconciler, eventID string) error {
	row, err := journal.FindByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("load event %s: %w", eventID, err)
	}

	event, err := webhook.NormalizePayload(row.RawPayload)
	if err != nil {
		return fmt.Errorf("event %s: %w", eventID, err)
	}
	// Synthesized ids and topics must match the journal row.
	event.EventID = row.EventID
	event.Topic = row.Topic

	if err := svc.Reconcile(ctx, event); err != nil {
		return fmt.Errorf("reconcile event %s: %w", eventID, err)
	}

	after, err := journal.FindByEventID(ctx, eventID)
	if err != nil {
		return fmt.Errorf("reload event %s: %w", eventID, err)
	}
	paymentID := "-"
	if after.PaymentID != nil {
		paymentID = *after.PaymentID
	}
	log.Printf("Event %s replayed: status=%s payment=%s attempt=%d", eventID, after.ProcessStatus, paymentID, after.Attempt)
	return nil
}
