package webhook

import (
	"context"

	"payhook/internal/models"
	"payhook/internal/services/notification"
	"payhook/internal/services/provider"

	"github.com/stretchr/testify/mock"
)

type MockJournal struct {
	mock.Mock
}

func (m *MockJournal) RecordFirst(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	args := m.Called(ctx, event)
	return args.Bool(0), args.Error(1)
}

func (m *MockJournal) Finalize(ctx context.Context, eventID string, outcome models.EventOutcome) error {
	args := m.Called(ctx, eventID, outcome)
	return args.Error(0)
}

func (m *MockJournal) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	args := m.Called(ctx, eventID)
	if ev, ok := args.Get(0).(*models.WebhookEvent); ok {
		return ev, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockPayments struct {
	mock.Mock
}

func (m *MockPayments) Upsert(ctx context.Context, payment *models.Payment) (bool, error) {
	args := m.Called(ctx, payment)
	return args.Bool(0), args.Error(1)
}

func (m *MockPayments) UpsertPayload(ctx context.Context, payload *models.PaymentPayload) error {
	args := m.Called(ctx, payload)
	return args.Error(0)
}

func (m *MockPayments) UpsertAntifraud(ctx context.Context, signal *models.PaymentAntifraud) error {
	args := m.Called(ctx, signal)
	return args.Error(0)
}

func (m *MockPayments) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	args := m.Called(ctx, paymentID)
	if p, ok := args.Get(0).(*models.Payment); ok {
		return p, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockChargebacks struct {
	mock.Mock
}

func (m *MockChargebacks) Upsert(ctx context.Context, chargeback *models.Chargeback) error {
	args := m.Called(ctx, chargeback)
	return args.Error(0)
}

type MockFetcher struct {
	mock.Mock
}

func (m *MockFetcher) FetchPayment(ctx context.Context, id string) (*provider.Resource, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*provider.Resource); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

func (m *MockFetcher) FetchChargeback(ctx context.Context, id string) (*provider.Resource, error) {
	args := m.Called(ctx, id)
	if r, ok := args.Get(0).(*provider.Resource); ok {
		return r, args.Error(1)
	}
	return nil, args.Error(1)
}

type MockNotifier struct {
	mock.Mock
}

func (m *MockNotifier) Publish(ctx context.Context, event notification.SettlementEvent) error {
	args := m.Called(ctx, event)
	return args.Error(0)
}
