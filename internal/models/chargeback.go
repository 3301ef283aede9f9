package models

import (
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Chargeback is one row per provider chargeback, referencing the disputed
// payment.
type Chargeback struct {
	ChargebackID string           `gorm:"column:chargeback_id;primaryKey;size:64"`
	PaymentID    string           `gorm:"column:payment_id;size:64;not null;index"`
	Status       *string          `gorm:"column:status;size:64"`
	Reason       *string          `gorm:"column:reason;size:255"`
	Amount       *decimal.Decimal `gorm:"column:amount;type:numeric(18,2)"`
	Currency     *string          `gorm:"column:currency;size:8"`
	DateCreated  *time.Time       `gorm:"column:date_created"`
	Payload      datatypes.JSON   `gorm:"column:payload;type:jsonb"`
	CreatedAt    time.Time        `gorm:"column:created_at"`
	UpdatedAt    time.Time        `gorm:"column:updated_at"`
}

func (Chargeback) TableName() string {
	return "payment_chargebacks"
}

// Columns returns payment_id plus the non-nil attributes keyed by column name.
func (c *Chargeback) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"payment_id": c.PaymentID,
	}
	putString(cols, "status", c.Status)
	putString(cols, "reason", c.Reason)
	putDecimal(cols, "amount", c.Amount)
	putString(cols, "currency", c.Currency)
	putTime(cols, "date_created", c.DateCreated)
	if len(c.Payload) > 0 {
		cols["payload"] = c.Payload
	}
	return cols
}
