package webhook

import (
	"encoding/json"
	"strconv"
	"strings"
)

// extractor pulls one candidate value out of a merged payload.
type extractor struct {
	name string
	fn   func(payload map[string]interface{}) (string, bool)
}

// Resource ids appear under different names depending on the notification
// format. Order matters: the first match wins.
var resourceIDExtractors = []extractor{
	{name: "data.id", fn: nestedKey("data", "id")},
	{name: "data.id (flat)", fn: flatKey("data.id")},
	{name: "payment_id", fn: flatKey("payment_id")},
	{name: "resource_id", fn: flatKey("resource_id")},
	{name: "resource", fn: resourcePath},
	{name: "id", fn: flatKey("id")},
}

// Chargeback ids. payment_id and resource_id are left out: on chargeback
// notifications they name the disputed payment.
var chargebackIDExtractors = []extractor{
	{name: "data.id", fn: nestedKey("data", "id")},
	{name: "data.id (flat)", fn: flatKey("data.id")},
	{name: "resource", fn: resourcePath},
	{name: "id", fn: flatKey("id")},
}

var eventIDExtractors = []extractor{
	{name: "id", fn: flatKey("id")},
	{name: "event_id", fn: flatKey("event_id")},
	{name: "data.id", fn: nestedKey("data", "id")},
	{name: "data.id (flat)", fn: flatKey("data.id")},
}

var topicExtractors = []extractor{
	{name: "type", fn: flatKey("type")},
	{name: "topic", fn: flatKey("topic")},
}

// Payment references carried by chargeback notifications.
var chargebackPaymentExtractors = []extractor{
	{name: "payment_id", fn: flatKey("payment_id")},
	{name: "data.payment_id", fn: nestedKey("data", "payment_id")},
	{name: "data.payment_id (flat)", fn: flatKey("data.payment_id")},
}

// firstOf returns the first value produced by extractors and the name of
// the extractor that produced it.
func firstOf(extractors []extractor, payload map[string]interface{}) (string, string) {
	for _, ex := range extractors {
		if v, ok := ex.fn(payload); ok {
			return v, ex.name
		}
	}
	return "", ""
}

// ExtractResourceID finds the payment id in a payload.
func ExtractResourceID(payload map[string]interface{}) string {
	v, _ := firstOf(resourceIDExtractors, payload)
	return v
}

// ExtractChargebackID finds the chargeback id in a chargeback notification.
func ExtractChargebackID(payload map[string]interface{}) string {
	v, _ := firstOf(chargebackIDExtractors, payload)
	return v
}

func flatKey(key string) func(map[string]interface{}) (string, bool) {
	return func(payload map[string]interface{}) (string, bool) {
		return scalarString(payload[key])
	}
}

func nestedKey(path ...string) func(map[string]interface{}) (string, bool) {
	return func(payload map[string]interface{}) (string, bool) {
		return scalarString(lookup(payload, path...))
	}
}

// resourcePath accepts a resource URL such as ".../v1/payments/123" or a
// bare id and returns the last path segment.
func resourcePath(payload map[string]interface{}) (string, bool) {
	raw, ok := scalarString(payload["resource"])
	if !ok {
		return "", false
	}
	if i := strings.IndexAny(raw, "?#"); i >= 0 {
		raw = raw[:i]
	}
	raw = strings.TrimRight(raw, "/")
	if i := strings.LastIndex(raw, "/"); i >= 0 {
		raw = raw[i+1:]
	}
	if raw == "" {
		return "", false
	}
	return raw, true
}

// lookup walks nested objects along path.
func lookup(payload map[string]interface{}, path ...string) interface{} {
	var cur interface{} = payload
	for _, key := range path {
		m, ok := cur.(map[string]interface{})
		if !ok {
			return nil
		}
		cur = m[key]
	}
	return cur
}

// scalarString renders strings and numbers as a non-empty string.
func scalarString(v interface{}) (string, bool) {
	var s string
	switch t := v.(type) {
	case string:
		s = strings.TrimSpace(t)
	case json.Number:
		s = t.String()
	case float64:
		s = strconv.FormatFloat(t, 'f', -1, 64)
	case int:
		s = strconv.Itoa(t)
	case int64:
		s = strconv.FormatInt(t, 10)
	default:
		return "", false
	}
	return s, s != ""
}
