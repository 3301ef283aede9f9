package models

import "time"

// PaymentAntifraud holds non-sensitive card metadata and risk flags for a
// payment. Full card numbers and security codes are never stored.
type PaymentAntifraud struct {
	PaymentID        string    `gorm:"column:payment_id;primaryKey;size:64"`
	CardBIN          *string   `gorm:"column:card_bin;size:8"`
	CardLastFour     *string   `gorm:"column:card_last_four;size:4"`
	CardholderName   *string   `gorm:"column:cardholder_name;size:255"`
	CardholderIDType *string   `gorm:"column:cardholder_id_type;size:32"`
	IPAddress        *string   `gorm:"column:ip_address;size:64"`
	RiskFlags        JSON      `gorm:"column:risk_flags;type:jsonb"`
	UpdatedAt        time.Time `gorm:"column:updated_at"`
}

func (PaymentAntifraud) TableName() string {
	return "payment_antifraud"
}

// Columns returns the non-nil attributes keyed by column name.
func (a *PaymentAntifraud) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	putString(cols, "card_bin", a.CardBIN)
	putString(cols, "card_last_four", a.CardLastFour)
	putString(cols, "cardholder_name", a.CardholderName)
	putString(cols, "cardholder_id_type", a.CardholderIDType)
	putString(cols, "ip_address", a.IPAddress)
	if len(a.RiskFlags) > 0 {
		cols["risk_flags"] = a.RiskFlags
	}
	return cols
}
