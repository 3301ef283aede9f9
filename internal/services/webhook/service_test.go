package webhook

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"payhook/internal/models"
	"payhook/internal/repositories"
	"payhook/internal/services/notification"
	"payhook/internal/services/provider"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type mocks struct {
	journal     *MockJournal
	payments    *MockPayments
	chargebacks *MockChargebacks
	fetcher     *MockFetcher
	notifier    *MockNotifier
}

func newMockedService() (*Service, *mocks) {
	m := &mocks{
		journal:     new(MockJournal),
		payments:    new(MockPayments),
		chargebacks: new(MockChargebacks),
		fetcher:     new(MockFetcher),
		notifier:    new(MockNotifier),
	}
	return NewService(m.journal, m.payments, m.chargebacks, m.fetcher, m.notifier, nil), m
}

func (m *mocks) assertExpectations(t *testing.T) {
	m.journal.AssertExpectations(t)
	m.payments.AssertExpectations(t)
	m.chargebacks.AssertExpectations(t)
	m.fetcher.AssertExpectations(t)
	m.notifier.AssertExpectations(t)
}

func paymentEvent(id string) *Event {
	return Normalize(Input{Body: []byte(fmt.Sprintf(`{"type":"payment","data":{"id":"%s"}}`, id)), ReceivedAt: receivedAt})
}

func outcomeWith(status models.EventStatus, paymentID string) interface{} {
	return mock.MatchedBy(func(o models.EventOutcome) bool {
		if o.Status != status || o.ProcessedAt.IsZero() {
			return false
		}
		if paymentID == "" {
			return o.PaymentID == nil
		}
		return o.PaymentID != nil && *o.PaymentID == paymentID
	})
}

func settledResource(id string) *provider.Resource {
	raw := []byte(fmt.Sprintf(`{"id":%s,"status":"approved","status_detail":"accredited","transaction_amount":"10.50"}`, id))
	ev, _ := NormalizePayload(raw)
	return &provider.Resource{Kind: provider.ResourcePayment, ID: id, Body: ev.Payload, Raw: raw}
}

func TestReconcile_PaymentFlow(t *testing.T) {
	tests := []struct {
		name    string
		event   *Event
		setup   func(m *mocks)
		wantErr error
	}{
		{
			name:  "settled payment is stored, linked and published",
			event: paymentEvent("123"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.MatchedBy(func(ev *models.WebhookEvent) bool {
					return ev.EventID == "123" && ev.Topic == "payment" && ev.PaymentID == nil && len(ev.RawPayload) > 0
				})).Return(true, nil).Once()
				m.fetcher.On("FetchPayment", mock.Anything, "123").Return(settledResource("123"), nil).Once()
				m.payments.On("Upsert", mock.Anything, mock.MatchedBy(func(p *models.Payment) bool {
					return p.PaymentID == "123" && *p.Status == models.PaymentStatusApproved
				})).Return(true, nil).Once()
				m.payments.On("UpsertPayload", mock.Anything, mock.AnythingOfType("*models.PaymentPayload")).Return(nil).Once()
				m.payments.On("UpsertAntifraud", mock.Anything, mock.AnythingOfType("*models.PaymentAntifraud")).Return(nil).Once()
				m.journal.On("Finalize", mock.Anything, "123", outcomeWith(models.EventStatusProcessed, "123")).Return(nil).Once()
				approved, accredited := "approved", "accredited"
				m.payments.On("FindByID", mock.Anything, "123").
					Return(&models.Payment{PaymentID: "123", Status: &approved, StatusDetail: &accredited}, nil).Once()
				m.notifier.On("Publish", mock.Anything, notification.SettlementEvent{
					Type:      notification.EventTypePaymentSettled,
					PaymentID: "123",
				}).Return(nil).Once()
			},
		},
		{
			name:  "pending payment is not published",
			event: paymentEvent("124"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "124").Return(settledResource("124"), nil)
				m.payments.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)
				m.payments.On("UpsertPayload", mock.Anything, mock.Anything).Return(nil)
				m.payments.On("UpsertAntifraud", mock.Anything, mock.Anything).Return(nil)
				m.journal.On("Finalize", mock.Anything, "124", outcomeWith(models.EventStatusProcessed, "124")).Return(nil)
				pending := "pending"
				m.payments.On("FindByID", mock.Anything, "124").Return(&models.Payment{PaymentID: "124", Status: &pending}, nil)
			},
		},
		{
			name:  "no resource id",
			event: Normalize(Input{Body: []byte(`{"type":"payment","foo":"bar"}`), ReceivedAt: receivedAt}),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.journal.On("Finalize", mock.Anything, "payment-1714564800000", outcomeWith(models.EventStatusProcessedNoID, "")).Return(nil)
			},
		},
		{
			name:  "provider unavailable",
			event: paymentEvent("125"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "125").
					Return(nil, fmt.Errorf("%w: status 503", provider.ErrUnavailable))
				m.journal.On("Finalize", mock.Anything, "125", mock.MatchedBy(func(o models.EventOutcome) bool {
					return o.Status == models.EventStatusAPIUnavailable && o.PaymentID == nil &&
						o.ErrorMessage != ""
				})).Return(nil)
			},
		},
		{
			name:  "no mappable fields leaves the event unlinked",
			event: paymentEvent("126"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "126").
					Return(&provider.Resource{Body: map[string]interface{}{}, Raw: []byte(`{}`)}, nil)
				m.payments.On("Upsert", mock.Anything, mock.Anything).Return(false, nil)
				m.journal.On("Finalize", mock.Anything, "126", outcomeWith(models.EventStatusProcessed, "")).Return(nil)
			},
		},
		{
			name:  "payment upsert failure is recorded",
			event: paymentEvent("127"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "127").Return(settledResource("127"), nil)
				m.payments.On("Upsert", mock.Anything, mock.Anything).Return(false, errors.New("connection reset"))
				m.journal.On("Finalize", mock.Anything, "127", mock.MatchedBy(func(o models.EventOutcome) bool {
					return o.Status == models.EventStatusFailed && o.PaymentID == nil && o.ErrorMessage == "connection reset"
				})).Return(nil)
			},
		},
		{
			name:  "dependent failures keep the payment and the link",
			event: paymentEvent("128"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "128").Return(settledResource("128"), nil)
				m.payments.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)
				m.payments.On("UpsertPayload", mock.Anything, mock.Anything).Return(errors.New("payload too large"))
				m.payments.On("UpsertAntifraud", mock.Anything, mock.Anything).Return(errors.New("antifraud down"))
				m.journal.On("Finalize", mock.Anything, "128", mock.MatchedBy(func(o models.EventOutcome) bool {
					return o.Status == models.EventStatusProcessed && o.PaymentID != nil && *o.PaymentID == "128" &&
						o.ErrorMessage == "payload too large; antifraud down"
				})).Return(nil)
				m.payments.On("FindByID", mock.Anything, "128").Return(&models.Payment{PaymentID: "128"}, nil)
			},
		},
		{
			name:  "notifier failure is swallowed",
			event: paymentEvent("129"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "129").Return(settledResource("129"), nil)
				m.payments.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)
				m.payments.On("UpsertPayload", mock.Anything, mock.Anything).Return(nil)
				m.payments.On("UpsertAntifraud", mock.Anything, mock.Anything).Return(nil)
				m.journal.On("Finalize", mock.Anything, "129", outcomeWith(models.EventStatusProcessed, "129")).Return(nil)
				approved, accredited := "approved", "accredited"
				m.payments.On("FindByID", mock.Anything, "129").
					Return(&models.Payment{PaymentID: "129", Status: &approved, StatusDetail: &accredited}, nil)
				m.notifier.On("Publish", mock.Anything, mock.Anything).Return(errors.New("tls handshake failed"))
			},
		},
		{
			name:  "duplicate event is reprocessed",
			event: paymentEvent("130"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(false, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "130").Return(nil, provider.ErrUnavailable)
				m.journal.On("Finalize", mock.Anything, "130", outcomeWith(models.EventStatusAPIUnavailable, "")).Return(nil)
			},
		},
		{
			name:  "journal insert failure is returned",
			event: paymentEvent("131"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(false, errors.New("pool exhausted"))
			},
			wantErr: ErrJournalUnavailable,
		},
		{
			name:  "panic is recorded as failed",
			event: paymentEvent("132"),
			setup: func(m *mocks) {
				m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
				m.fetcher.On("FetchPayment", mock.Anything, "132").Run(func(mock.Arguments) {
					panic("boom")
				})
				m.journal.On("Finalize", mock.Anything, "132", mock.MatchedBy(func(o models.EventOutcome) bool {
					return o.Status == models.EventStatusFailed && o.ErrorMessage == "panic: boom"
				})).Return(nil)
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc, m := newMockedService()
			tt.setup(m)

			err := svc.Reconcile(context.Background(), tt.event)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
			m.assertExpectations(t)
		})
	}
}

func TestReconcile_FinalizeErrorIsNotReturned(t *testing.T) {
	svc, m := newMockedService()
	m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
	m.journal.On("Finalize", mock.Anything, mock.Anything, mock.Anything).Return(repositories.ErrEventNotFound)

	err := svc.Reconcile(context.Background(), Normalize(Input{Body: []byte(`{"event_id":"e1"}`), ReceivedAt: receivedAt}))
	require.NoError(t, err)
	m.assertExpectations(t)
}

func TestReconcile_Chargeback(t *testing.T) {
	chargebackEvent := func() *Event {
		return Normalize(Input{
			Body:       []byte(`{"type":"chargeback","id":"evt-cb","data":{"id":"cb-1"}}`),
			ReceivedAt: receivedAt,
		})
	}

	t.Run("stored and linked to an existing payment", func(t *testing.T) {
		svc, m := newMockedService()
		m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
		m.fetcher.On("FetchChargeback", mock.Anything, "cb-1").Return(&provider.Resource{
			Kind: provider.ResourceChargeback,
			Body: map[string]interface{}{"id": "cb-1", "payments": []interface{}{"123"}, "status": "opened"},
			Raw:  []byte(`{"id":"cb-1","payments":["123"]}`),
		}, nil)
		m.payments.On("FindByID", mock.Anything, "123").Return(&models.Payment{PaymentID: "123"}, nil)
		m.chargebacks.On("Upsert", mock.Anything, mock.MatchedBy(func(cb *models.Chargeback) bool {
			return cb.ChargebackID == "cb-1" && cb.PaymentID == "123" && *cb.Status == "opened"
		})).Return(nil)
		m.journal.On("Finalize", mock.Anything, "evt-cb", outcomeWith(models.EventStatusProcessed, "123")).Return(nil)

		require.NoError(t, svc.Reconcile(context.Background(), chargebackEvent()))
		m.assertExpectations(t)
	})

	t.Run("missing payment is synced first", func(t *testing.T) {
		svc, m := newMockedService()
		m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
		m.fetcher.On("FetchChargeback", mock.Anything, "cb-1").Return(nil, provider.ErrUnavailable)
		m.payments.On("FindByID", mock.Anything, "200").Return(nil, repositories.ErrPaymentNotFound)
		m.fetcher.On("FetchPayment", mock.Anything, "200").Return(settledResource("200"), nil)
		m.payments.On("Upsert", mock.Anything, mock.Anything).Return(true, nil)
		m.payments.On("UpsertPayload", mock.Anything, mock.Anything).Return(nil)
		m.payments.On("UpsertAntifraud", mock.Anything, mock.Anything).Return(nil)
		m.chargebacks.On("Upsert", mock.Anything, mock.MatchedBy(func(cb *models.Chargeback) bool {
			return cb.PaymentID == "200" && cb.Reason != nil && *cb.Reason == "fraud"
		})).Return(nil)
		m.journal.On("Finalize", mock.Anything, "evt-cb", outcomeWith(models.EventStatusProcessed, "200")).Return(nil)

		ev := Normalize(Input{
			Body:       []byte(`{"type":"chargeback","id":"evt-cb","data":{"id":"cb-1","payment_id":"200","reason":"fraud"}}`),
			ReceivedAt: receivedAt,
		})
		require.NoError(t, svc.Reconcile(context.Background(), ev))
		m.assertExpectations(t)
	})

	t.Run("missing payment that cannot be fetched fails", func(t *testing.T) {
		svc, m := newMockedService()
		m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
		m.fetcher.On("FetchChargeback", mock.Anything, "cb-1").Return(nil, provider.ErrUnavailable)
		m.payments.On("FindByID", mock.Anything, "201").Return(nil, repositories.ErrPaymentNotFound)
		m.fetcher.On("FetchPayment", mock.Anything, "201").Return(nil, provider.ErrUnavailable)
		m.journal.On("Finalize", mock.Anything, "evt-cb", outcomeWith(models.EventStatusFailed, "")).Return(nil)

		ev := Normalize(Input{
			Body:       []byte(`{"type":"chargeback","id":"evt-cb","data":{"id":"cb-1"},"payment_id":"201"}`),
			ReceivedAt: receivedAt,
		})
		require.NoError(t, svc.Reconcile(context.Background(), ev))
		m.assertExpectations(t)
	})

	t.Run("without payment id", func(t *testing.T) {
		svc, m := newMockedService()
		m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
		m.fetcher.On("FetchChargeback", mock.Anything, "cb-1").Return(nil, provider.ErrUnavailable)
		m.journal.On("Finalize", mock.Anything, "evt-cb", mock.MatchedBy(func(o models.EventOutcome) bool {
			return o.Status == models.EventStatusFailed && o.PaymentID == nil &&
				o.ErrorMessage == ErrChargebackWithoutPayment.Error()
		})).Return(nil)

		require.NoError(t, svc.Reconcile(context.Background(), chargebackEvent()))
		m.assertExpectations(t)
	})

	t.Run("upsert failure leaves the event unlinked", func(t *testing.T) {
		svc, m := newMockedService()
		m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
		m.fetcher.On("FetchChargeback", mock.Anything, "cb-1").Return(&provider.Resource{
			Body: map[string]interface{}{"payment_id": "123"},
			Raw:  []byte(`{"payment_id":"123"}`),
		}, nil)
		m.payments.On("FindByID", mock.Anything, "123").Return(&models.Payment{PaymentID: "123"}, nil)
		m.chargebacks.On("Upsert", mock.Anything, mock.Anything).Return(errors.New("deadlock detected"))
		m.journal.On("Finalize", mock.Anything, "evt-cb", outcomeWith(models.EventStatusFailed, "")).Return(nil)

		require.NoError(t, svc.Reconcile(context.Background(), chargebackEvent()))
		m.assertExpectations(t)
	})

	t.Run("no chargeback id", func(t *testing.T) {
		svc, m := newMockedService()
		m.journal.On("RecordFirst", mock.Anything, mock.Anything).Return(true, nil)
		m.journal.On("Finalize", mock.Anything, mock.Anything, outcomeWith(models.EventStatusProcessedNoID, "")).Return(nil)

		ev := Normalize(Input{Body: []byte(`{"type":"chargeback"}`), ReceivedAt: receivedAt})
		require.NoError(t, svc.Reconcile(context.Background(), ev))
		m.assertExpectations(t)
	})
}
