package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// Normalized payment status vocabulary.
const (
	PaymentStatusPending     = "pending"
	PaymentStatusApproved    = "approved"
	PaymentStatusAuthorized  = "authorized"
	PaymentStatusInProcess   = "in_process"
	PaymentStatusInMediation = "in_mediation"
	PaymentStatusRejected    = "rejected"
	PaymentStatusCancelled   = "cancelled"
	PaymentStatusRefunded    = "refunded"
	PaymentStatusChargedBack = "charged_back"
	PaymentStatusUnknown     = "unknown"

	StatusDetailAccredited = "accredited"
)

var paymentStatuses = map[string]string{
	"pending":      PaymentStatusPending,
	"approved":     PaymentStatusApproved,
	"authorized":   PaymentStatusAuthorized,
	"in_process":   PaymentStatusInProcess,
	"in_mediation": PaymentStatusInMediation,
	"rejected":     PaymentStatusRejected,
	"cancelled":    PaymentStatusCancelled,
	"canceled":     PaymentStatusCancelled,
	"refunded":     PaymentStatusRefunded,
	"charged_back": PaymentStatusChargedBack,
	"chargeback":   PaymentStatusChargedBack,
}

// NormalizePaymentStatus lower-cases s and maps it into the fixed status
// vocabulary. Unrecognized values become PaymentStatusUnknown.
func NormalizePaymentStatus(s string) string {
	key := strings.ToLower(strings.TrimSpace(s))
	if st, ok := paymentStatuses[key]; ok {
		return st
	}
	return PaymentStatusUnknown
}

// Payment is one row per provider payment, keyed by the provider id. Every
// mapped attribute is a pointer: nil means "not known from this fetch" and
// is never written over a stored value.
type Payment struct {
	PaymentID         string           `gorm:"column:payment_id;primaryKey;size:64"`
	Status            *string          `gorm:"column:status;size:32;index"`
	StatusDetail      *string          `gorm:"column:status_detail;size:64"`
	TransactionAmount *decimal.Decimal `gorm:"column:transaction_amount;type:numeric(18,2)"`
	Currency          *string          `gorm:"column:currency;size:8"`
	DateCreated       *time.Time       `gorm:"column:date_created"`
	DateApproved      *time.Time       `gorm:"column:date_approved"`
	DateAccredited    *time.Time       `gorm:"column:date_accredited"`
	DateLastUpdated   *time.Time       `gorm:"column:date_last_updated"`
	PaymentMethodID   *string          `gorm:"column:payment_method_id;size:64"`
	PaymentTypeID     *string          `gorm:"column:payment_type_id;size:64"`
	IssuerID          *string          `gorm:"column:issuer_id;size:64"`
	Installments      *int             `gorm:"column:installments"`
	PayerID           *string          `gorm:"column:payer_id;size:64"`
	PayerEmail        *string          `gorm:"column:payer_email;size:255"`
	NetReceivedAmount *decimal.Decimal `gorm:"column:net_received_amount;type:numeric(18,2)"`
	TotalPaidAmount   *decimal.Decimal `gorm:"column:total_paid_amount;type:numeric(18,2)"`
	FeeAmount         *decimal.Decimal `gorm:"column:fee_amount;type:numeric(18,2)"`
	ExternalReference *string          `gorm:"column:external_reference;size:255;index"`
	LiveMode          *bool            `gorm:"column:live_mode"`
	CreatedAt         time.Time        `gorm:"column:created_at"`
	UpdatedAt         time.Time        `gorm:"column:updated_at"`
}

func (Payment) TableName() string {
	return "payments"
}

// Columns returns the non-nil mapped attributes keyed by column name,
// excluding the key and bookkeeping timestamps.
func (p *Payment) Columns() map[string]interface{} {
	cols := map[string]interface{}{}
	putString(cols, "status", p.Status)
	putString(cols, "status_detail", p.StatusDetail)
	putDecimal(cols, "transaction_amount", p.TransactionAmount)
	putString(cols, "currency", p.Currency)
	putTime(cols, "date_created", p.DateCreated)
	putTime(cols, "date_approved", p.DateApproved)
	putTime(cols, "date_accredited", p.DateAccredited)
	putTime(cols, "date_last_updated", p.DateLastUpdated)
	putString(cols, "payment_method_id", p.PaymentMethodID)
	putString(cols, "payment_type_id", p.PaymentTypeID)
	putString(cols, "issuer_id", p.IssuerID)
	if p.Installments != nil {
		cols["installments"] = *p.Installments
	}
	putString(cols, "payer_id", p.PayerID)
	putString(cols, "payer_email", p.PayerEmail)
	putDecimal(cols, "net_received_amount", p.NetReceivedAmount)
	putDecimal(cols, "total_paid_amount", p.TotalPaidAmount)
	putDecimal(cols, "fee_amount", p.FeeAmount)
	putString(cols, "external_reference", p.ExternalReference)
	if p.LiveMode != nil {
		cols["live_mode"] = *p.LiveMode
	}
	return cols
}

// IsSettled reports whether the stored payment is approved and its funds
// accredited.
func (p *Payment) IsSettled() bool {
	if p == nil || p.Status == nil || p.StatusDetail == nil {
		return false
	}
	return *p.Status == PaymentStatusApproved &&
		strings.EqualFold(*p.StatusDetail, StatusDetailAccredited)
}

func putString(cols map[string]interface{}, name string, v *string) {
	if v != nil {
		cols[name] = *v
	}
}

func putDecimal(cols map[string]interface{}, name string, v *decimal.Decimal) {
	if v != nil {
		cols[name] = *v
	}
}

func putTime(cols map[string]interface{}, name string, v *time.Time) {
	if v != nil {
		cols[name] = *v
	}
}
