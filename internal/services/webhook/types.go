package webhook

import (
	"encoding/json"
	"strings"
)

const (
	TopicUnknown    = "unknown"
	topicChargeback = "chargeback"
	topicPayment    = "payment"
	topicOther      = "other"
)

// Event is a normalized notification.
type Event struct {
	EventID string
	Topic   string
	// ResourceID is the payment id, or the chargeback id on chargeback
	// topics.
	ResourceID string
	// Synthesized is set when no provider id was present and EventID was
	// built from the topic and the receive time.
	Synthesized bool
	Payload     map[string]interface{}
}

// IsChargeback reports whether the event belongs to the chargeback path.
func (e *Event) IsChargeback() bool {
	return strings.HasPrefix(e.Topic, topicChargeback)
}

// TopicFamily folds the sender-supplied topic into payment, chargeback or
// other, for use as a bounded metrics label.
func (e *Event) TopicFamily() string {
	switch {
	case e.IsChargeback():
		return topicChargeback
	case strings.HasPrefix(e.Topic, topicPayment):
		return topicPayment
	default:
		return topicOther
	}
}

// RawPayload is the merged notification as stored in the journal.
func (e *Event) RawPayload() []byte {
	if e.Payload == nil {
		return []byte("{}")
	}
	b, err := json.Marshal(e.Payload)
	if err != nil {
		return []byte("{}")
	}
	return b
}
