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

// ErrPaymentNotFound is returned when no payments row matches.
var ErrPaymentNotFound = errors.New("payment not found")

// PaymentRepository persists payments and the rows that depend on them.
// Each method is its own unit of work.
type PaymentRepository interface {
	Upsert(ctx context.Context, payment *models.Payment) (bool, error)
	UpsertPayload(ctx context.Context, payload *models.PaymentPayload) error
	UpsertAntifraud(ctx context.Context, signal *models.PaymentAntifraud) error
	FindByID(ctx context.Context, paymentID string) (*models.Payment, error)
}

type paymentRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewPaymentRepository(db *gorm.DB, timeout time.Duration) PaymentRepository {
	return &paymentRepository{db: db, timeout: timeout}
}

// Upsert merges the non-nil fields of payment into its row. It reports
// whether a row was written; a payment with no mapped fields is skipped.
func (r *paymentRepository) Upsert(ctx context.Context, payment *models.Payment) (bool, error) {
	cols := payment.Columns()
	if payment.PaymentID == "" || len(cols) == 0 {
		return false, nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	updates := append(sortedKeys(cols), "updated_at")
	now := time.Now().UTC()
	cols["payment_id"] = payment.PaymentID
	cols["created_at"] = now
	cols["updated_at"] = now

	tx := mergeUpsert(r.db.WithContext(ctx), &models.Payment{}, "payment_id", cols, updates)
	if tx.Error != nil {
		return false, fmt.Errorf("upsert payment %s: %w", payment.PaymentID, tx.Error)
	}
	return tx.RowsAffected > 0, nil
}

// UpsertPayload replaces the stored provider resource for a payment.
func (r *paymentRepository) UpsertPayload(ctx context.Context, payload *models.PaymentPayload) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	if payload.FetchedAt.IsZero() {
		payload.FetchedAt = time.Now().UTC()
	}

	err := r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "payment_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"payload", "fetched_at"}),
	}).Create(payload).Error
	if err != nil {
		return fmt.Errorf("upsert payload for payment %s: %w", payload.PaymentID, err)
	}
	return nil
}

// UpsertAntifraud merges the non-nil antifraud attributes for a payment.
func (r *paymentRepository) UpsertAntifraud(ctx context.Context, signal *models.PaymentAntifraud) error {
	cols := signal.Columns()
	if signal.PaymentID == "" || len(cols) == 0 {
		return nil
	}

	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	updates := append(sortedKeys(cols), "updated_at")
	cols["payment_id"] = signal.PaymentID
	cols["updated_at"] = time.Now().UTC()

	if err := mergeUpsert(r.db.WithContext(ctx), &models.PaymentAntifraud{}, "payment_id", cols, updates).Error; err != nil {
		return fmt.Errorf("upsert antifraud for payment %s: %w", signal.PaymentID, err)
	}
	return nil
}

func (r *paymentRepository) FindByID(ctx context.Context, paymentID string) (*models.Payment, error) {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	var payment models.Payment
	err := r.db.WithContext(ctx).Where("payment_id = ?", paymentID).First(&payment).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPaymentNotFound
	}
	if err != nil {
		return nil, err
	}
	return &payment, nil
}
