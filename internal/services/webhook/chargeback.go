package webhook

import (
	"context"
	"fmt"
	"log"

	"payhook/internal/models"
)

// reconcileChargeback stores the chargeback and links the journal row to the
// disputed payment. When that payment is not stored yet it is synced first,
// so the chargeback's foreign key always resolves.
func (s *Service) reconcileChargeback(ctx context.Context, event *Event) models.EventOutcome {
	chargebackID := event.ResourceID
	if chargebackID == "" {
		chargebackID = ExtractChargebackID(event.Payload)
	}
	if chargebackID == "" {
		log.Printf("Chargeback event %s carries no chargeback id", event.EventID)
		return models.EventOutcome{Status: models.EventStatusProcessedNoID}
	}

	var body map[string]interface{}
	raw := event.RawPayload()
	if res, err := s.fetcher.FetchChargeback(ctx, chargebackID); err != nil {
		log.Printf("Chargeback %s unavailable, using notification fields: %v", chargebackID, err)
	} else {
		body, raw = res.Body, res.Raw
	}

	paymentID := chargebackPaymentID(body)
	if paymentID == "" {
		paymentID, _ = firstOf(chargebackPaymentExtractors, event.Payload)
	}
	if paymentID == "" {
		log.Printf("Chargeback %s has no payment id", chargebackID)
		return models.EventOutcome{Status: models.EventStatusFailed, ErrorMessage: ErrChargebackWithoutPayment.Error()}
	}

	if _, err := s.payments.FindByID(ctx, paymentID); err != nil {
		if !isPaymentMissing(err) {
			return models.EventOutcome{Status: models.EventStatusFailed, ErrorMessage: err.Error()}
		}
		outcome, written := s.syncPayment(ctx, paymentID)
		if !written {
			msg := fmt.Sprintf("payment %s for chargeback %s not stored: %s", paymentID, chargebackID, outcome.ErrorMessage)
			return models.EventOutcome{Status: models.EventStatusFailed, ErrorMessage: msg}
		}
		paymentID = *outcome.PaymentID
	}

	cb := MapChargeback(chargebackID, paymentID, body, event.Payload, raw)
	if err := s.chargebacks.Upsert(ctx, cb); err != nil {
		log.Printf("Failed to upsert chargeback %s: %v", chargebackID, err)
		return models.EventOutcome{Status: models.EventStatusFailed, ErrorMessage: err.Error()}
	}

	log.Printf("Chargeback %s stored for payment %s", chargebackID, paymentID)
	return models.EventOutcome{Status: models.EventStatusProcessed, PaymentID: &paymentID}
}
