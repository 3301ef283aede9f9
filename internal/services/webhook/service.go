package webhook

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"payhook/internal/metrics"
	"payhook/internal/models"
	"payhook/internal/repositories"
	"payhook/internal/services/notification"

	"gorm.io/datatypes"
)

type Service struct {
	journal     repositories.JournalRepository
	payments    repositories.PaymentRepository
	chargebacks repositories.ChargebackRepository
	fetcher     Fetcher
	notifier    Notifier
	metrics     metrics.Collector
	now         func() time.Time
}

func NewService(
	journal repositories.JournalRepository,
	payments repositories.PaymentRepository,
	chargebacks repositories.ChargebackRepository,
	fetcher Fetcher,
	notifier Notifier,
	collector metrics.Collector,
) *Service {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &Service{
		journal:     journal,
		payments:    payments,
		chargebacks: chargebacks,
		fetcher:     fetcher,
		notifier:    notifier,
		metrics:     collector,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// Reconcile journals event and brings the store in line with the provider's
// view of the referenced resource. Failures after the journal insert are
// recorded on the journal row, not returned.
func (s *Service) Reconcile(ctx context.Context, event *Event) error {
	row := &models.WebhookEvent{
		EventID:    event.EventID,
		Topic:      event.Topic,
		RawPayload: datatypes.JSON(event.RawPayload()),
		ReceivedAt: s.now(),
	}
	created, err := s.journal.RecordFirst(ctx, row)
	if err != nil {
		log.Printf("Failed to journal event %s: %v", event.EventID, err)
		return fmt.Errorf("%w: %v", ErrJournalUnavailable, err)
	}
	if !created {
		log.Printf("Event %s already journaled, reprocessing", event.EventID)
	}

	defer func() {
		if r := recover(); r != nil {
			log.Printf("Panic while reconciling event %s: %v", event.EventID, r)
			s.finalize(ctx, event, models.EventOutcome{
				Status:       models.EventStatusFailed,
				ErrorMessage: fmt.Sprintf("panic: %v", r),
			})
		}
	}()

	if event.IsChargeback() {
		s.finalize(ctx, event, s.reconcileChargeback(ctx, event))
		return nil
	}

	outcome, written := s.reconcilePayment(ctx, event)
	s.finalize(ctx, event, outcome)
	if written && outcome.PaymentID != nil {
		s.notifyIfSettled(ctx, *outcome.PaymentID)
	}
	return nil
}

func (s *Service) reconcilePayment(ctx context.Context, event *Event) (models.EventOutcome, bool) {
	id := event.ResourceID
	if id == "" {
		id = ExtractResourceID(event.Payload)
	}
	if id == "" {
		log.Printf("Event %s carries no resource id", event.EventID)
		return models.EventOutcome{Status: models.EventStatusProcessedNoID}, false
	}
	return s.syncPayment(ctx, id)
}

// syncPayment fetches payment id and merges it into the store. The outcome
// only carries a payment id once the payments row has been written.
func (s *Service) syncPayment(ctx context.Context, id string) (models.EventOutcome, bool) {
	res, err := s.fetcher.FetchPayment(ctx, id)
	if err != nil {
		log.Printf("Payment %s unavailable: %v", id, err)
		return models.EventOutcome{Status: models.EventStatusAPIUnavailable, ErrorMessage: err.Error()}, false
	}

	payment := MapPayment(id, res.Body)
	written, err := s.payments.Upsert(ctx, payment)
	if err != nil {
		log.Printf("Failed to upsert payment %s: %v", payment.PaymentID, err)
		return models.EventOutcome{Status: models.EventStatusFailed, ErrorMessage: err.Error()}, false
	}
	if !written {
		log.Printf("Payment %s produced no mappable fields", payment.PaymentID)
		return models.EventOutcome{Status: models.EventStatusProcessed, ErrorMessage: "no mappable payment fields"}, false
	}

	// Dependent rows are their own units of work. A failure here leaves the
	// payment row in place and is only reported.
	var problems []string
	if err := s.payments.UpsertPayload(ctx, MapPayload(payment.PaymentID, res.Raw)); err != nil {
		log.Printf("Failed to store payload for payment %s: %v", payment.PaymentID, err)
		problems = append(problems, err.Error())
	}
	if err := s.payments.UpsertAntifraud(ctx, MapAntifraud(payment.PaymentID, res.Body)); err != nil {
		log.Printf("Failed to store antifraud signals for payment %s: %v", payment.PaymentID, err)
		problems = append(problems, err.Error())
	}

	paymentID := payment.PaymentID
	return models.EventOutcome{
		Status:       models.EventStatusProcessed,
		PaymentID:    &paymentID,
		ErrorMessage: strings.Join(problems, "; "),
	}, true
}

func (s *Service) finalize(ctx context.Context, event *Event, outcome models.EventOutcome) {
	if outcome.ProcessedAt.IsZero() {
		outcome.ProcessedAt = s.now()
	}
	if err := s.journal.Finalize(ctx, event.EventID, outcome); err != nil {
		log.Printf("Failed to finalize event %s as %s: %v", event.EventID, outcome.Status, err)
		return
	}
	s.metrics.RecordJournalOutcome(event.TopicFamily(), string(outcome.Status))
}

// notifyIfSettled reads the payment back and publishes a settlement event
// when the stored state is approved and accredited.
func (s *Service) notifyIfSettled(ctx context.Context, paymentID string) {
	if s.notifier == nil {
		return
	}
	payment, err := s.payments.FindByID(ctx, paymentID)
	if err != nil {
		log.Printf("Failed to read back payment %s: %v", paymentID, err)
		return
	}
	if !payment.IsSettled() {
		return
	}

	err = s.notifier.Publish(ctx, notification.SettlementEvent{
		Type:      notification.EventTypePaymentSettled,
		PaymentID: paymentID,
	})
	if err != nil {
		log.Printf("Failed to publish settlement for payment %s: %v", paymentID, err)
		s.metrics.RecordNotification("failed")
		return
	}
	log.Printf("Settlement published for payment %s", paymentID)
	s.metrics.RecordNotification("published")
}

func isPaymentMissing(err error) bool {
	return errors.Is(err, repositories.ErrPaymentNotFound)
}
