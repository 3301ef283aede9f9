package repositories

import (
	"context"
	"fmt"
	"time"

	"payhook/internal/models"

	"gorm.io/gorm"
)

// ChargebackRepository persists provider chargebacks.
type ChargebackRepository interface {
	Upsert(ctx context.Context, chargeback *models.Chargeback) error
}

type chargebackRepository struct {
	db      *gorm.DB
	timeout time.Duration
}

func NewChargebackRepository(db *gorm.DB, timeout time.Duration) ChargebackRepository {
	return &chargebackRepository{db: db, timeout: timeout}
}

// Upsert merges the chargeback keyed by chargeback id. The referenced
// payments row must already exist.
func (r *chargebackRepository) Upsert(ctx context.Context, chargeback *models.Chargeback) error {
	ctx, cancel := withTimeout(ctx, r.timeout)
	defer cancel()

	cols := chargeback.Columns()
	updates := append(sortedKeys(cols), "updated_at")
	now := time.Now().UTC()
	cols["chargeback_id"] = chargeback.ChargebackID
	cols["created_at"] = now
	cols["updated_at"] = now

	if err := mergeUpsert(r.db.WithContext(ctx), &models.Chargeback{}, "chargeback_id", cols, updates).Error; err != nil {
		return fmt.Errorf("upsert chargeback %s: %w", chargeback.ChargebackID, err)
	}
	return nil
}
