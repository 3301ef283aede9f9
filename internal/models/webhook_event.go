package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// EventStatus is the processing state of a journaled notification.
type EventStatus string

const (
	EventStatusReceived       EventStatus = "received"
	EventStatusProcessed      EventStatus = "processed"
	EventStatusProcessedNoID  EventStatus = "processed_no_id"
	EventStatusAPIUnavailable EventStatus = "api_unavailable"
	EventStatusFailed         EventStatus = "failed"
)

// MaxErrorMessageLen bounds error_message so a runaway error string cannot
// blow up a journal row.
const MaxErrorMessageLen = 500

// WebhookEvent is one row per inbound notification. PaymentID stays NULL
// until the referenced payments row exists.
type WebhookEvent struct {
	ID            uint           `gorm:"primaryKey"`
	EventID       string         `gorm:"column:event_id;size:191;not null;uniqueIndex"`
	Topic         string         `gorm:"column:topic;size:64;not null;index"`
	PaymentID     *string        `gorm:"column:payment_id;size:64;index"`
	RawPayload    datatypes.JSON `gorm:"column:raw_payload;type:jsonb;not null"`
	Attempt       int            `gorm:"column:attempt;not null;default:0"`
	ProcessStatus EventStatus    `gorm:"column:process_status;size:32;not null;default:'received'"`
	ErrorMessage  *string        `gorm:"column:error_message;type:text"`
	ReceivedAt    time.Time      `gorm:"column:received_at;not null"`
	ProcessedAt   *time.Time     `gorm:"column:processed_at"`
}

func (WebhookEvent) TableName() string {
	return "webhook_events"
}

// EventOutcome is the mutable slice of a journal row written when
// reconciliation of an event ends.
type EventOutcome struct {
	Status       EventStatus
	PaymentID    *string
	ErrorMessage string
	ProcessedAt  time.Time
}

// Columns maps the outcome onto webhook_events columns. payment_id is only
// present when set, so finalizing never clears a link made earlier.
func (o EventOutcome) Columns() map[string]interface{} {
	cols := map[string]interface{}{
		"process_status": o.Status,
		"processed_at":   o.ProcessedAt,
		"attempt":        gorm.Expr("attempt + 1"),
	}
	if o.ErrorMessage != "" {
		cols["error_message"] = Truncate(o.ErrorMessage, MaxErrorMessageLen)
	} else {
		cols["error_message"] = nil
	}
	if o.PaymentID != nil && *o.PaymentID != "" {
		cols["payment_id"] = *o.PaymentID
	}
	return cols
}

// Truncate cuts s to at most n bytes without splitting a UTF-8 sequence.
func Truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	for n > 0 && !isRuneStart(s[n]) {
		n--
	}
	return s[:n]
}

func isRuneStart(b byte) bool {
	return b&0xC0 != 0x80
}
