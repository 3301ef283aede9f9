package repositories

import (
	"context"
	"errors"
	"fmt"
	"time"

	"payhook/internal/models"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrEventNotFound is returned when a journal row does not exist.
var ErrEventNotFound = errors.New("webhook event not found")

// JournalRepository records every inbound notification exactly once per
// event id.
type JournalRepository interface {
	RecordFirst(ctx context.Context, event *models.WebhookEvent) (bool, error)
	Finalize(ctx context.Context, eventID string, outcome models.EventOutcome) error
	FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error)
}

type journalRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewJournalRepository(db *gorm.DB, timeout time.Duration) JournalRepository {
	return &journalRepository{db: db, timeout: timeout}
}

// RecordFirst inserts the event unless a row with the same event id exists.
// payment_id is always written as NULL here. It reports whether a new row
// was created.
func (r *journalRepository) RecordFirst(ctx context.Context, event *models.WebhookEvent) (bool, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	event.PaymentID = nil
	if event.ProcessStatus == "" {
		event.ProcessStatus = models.EventStatusReceived
	}
	if event.ReceivedAt.IsZero() {
		event.ReceivedAt = time.Now().UTC()
	}

	tx := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "event_id"}},
		DoNothing: true,
	}).Create(event)
	if tx.Error != nil {
		return false, fmt.Errorf("record webhook event %s: %w", event.EventID, tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// Finalize writes the outcome columns of an existing journal row.
func (r *journalRepository) Finalize(ctx context.Context, eventID string, outcome models.EventOutcome) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if outcome.ProcessedAt.IsZero() {
		outcome.ProcessedAt = time.Now().UTC()
	}

	tx := r.db.WithContext(ctx).
		Model(&models.WebhookEvent{}).
		Where("event_id = ?", eventID).
		Updates(outcome.Columns())
	if tx.Error != nil {
		return fmt.Errorf("finalize webhook event %s: %w", eventID, tx.Error)
	}
	if tx.RowsAffected == 0 {
		return fmt.Errorf("finalize webhook event %s: %w", eventID, ErrEventNotFound)
	}
	return nil
}

func (r *journalRepository) FindByEventID(ctx context.Context, eventID string) (*models.WebhookEvent, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var event models.WebhookEvent
	err := r.db.WithContext(ctx).Where("event_id = ?", eventID).First(&event).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEventNotFound
	}
	if err != nil {
		return nil, err
	}
	return &event, nil
}
