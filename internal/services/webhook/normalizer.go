package webhook

import (
	"bytes"
	"encoding/json"
	"fmt"
	"log"
	"mime"
	"net/url"
	"strings"
	"time"
)

// Input is an inbound notification as received on the wire.
type Input struct {
	Body        []byte
	ContentType string
	Query       map[string]string
	ReceivedAt  time.Time
}

// Normalize merges the JSON body, the form body and the query string into
// one payload, in that order of increasing precedence, and derives the
// topic, event id and resource id.
func Normalize(in Input) *Event {
	payload := map[string]interface{}{}

	if obj, ok := decodeJSONObject(in.Body); ok {
		for k, v := range obj {
			payload[k] = v
		}
	}
	if isForm(in.ContentType) {
		if values, err := url.ParseQuery(string(in.Body)); err == nil {
			for k := range values {
				payload[k] = values.Get(k)
			}
		}
	}
	for k, v := range in.Query {
		payload[k] = v
	}

	return newEvent(payload, in.ReceivedAt)
}

// NormalizePayload rebuilds an event from a stored raw payload.
func NormalizePayload(raw []byte) (*Event, error) {
	obj, ok := decodeJSONObject(raw)
	if !ok {
		return nil, fmt.Errorf("stored payload is not a JSON object")
	}
	return newEvent(obj, time.Now()), nil
}

func newEvent(payload map[string]interface{}, receivedAt time.Time) *Event {
	if receivedAt.IsZero() {
		receivedAt = time.Now()
	}

	topic, _ := firstOf(topicExtractors, payload)
	topic = strings.ToLower(topic)
	if topic == "" {
		topic = TopicUnknown
	}

	event := &Event{
		Topic:   topic,
		Payload: payload,
	}
	if event.IsChargeback() {
		event.ResourceID = ExtractChargebackID(payload)
	} else {
		event.ResourceID = ExtractResourceID(payload)
	}

	event.EventID, _ = firstOf(eventIDExtractors, payload)
	if event.EventID == "" {
		event.EventID = fmt.Sprintf("%s-%d", topic, receivedAt.UnixMilli())
		event.Synthesized = true
		log.Printf("Notification without id, synthesized event id %s", event.EventID)
	}
	return event
}

func decodeJSONObject(body []byte) (map[string]interface{}, bool) {
	body = bytes.TrimSpace(body)
	if len(body) == 0 || body[0] != '{' {
		return nil, false
	}
	obj := map[string]interface{}{}
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, false
	}
	return obj, true
}

func isForm(contentType string) bool {
	mediaType, _, err := mime.ParseMediaType(contentType)
	return err == nil && mediaType == "application/x-www-form-urlencoded"
}
