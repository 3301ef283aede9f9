package models

import (
	"time"

	"gorm.io/datatypes"
)

// PaymentPayload keeps the full provider resource for audit and debugging.
// It references payments(payment_id) and is written only after that row.
type PaymentPayload struct {
	PaymentID string         `gorm:"column:payment_id;primaryKey;size:64"`
	Payload   datatypes.JSON `gorm:"column:payload;type:jsonb;not null"`
	FetchedAt time.Time      `gorm:"column:fetched_at;not null"`
}

func (PaymentPayload) TableName() string {
	return "payment_payloads"
}
