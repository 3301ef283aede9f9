package webhook

import (
	"encoding/json"
	"strconv"
	"strings"
	"time"

	"payhook/internal/models"

	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// MapPayment maps a provider payment resource onto a Payment. Fields the
// resource does not carry stay nil. The provider's own id wins over the id
// taken from the notification.
func MapPayment(resourceID string, body map[string]interface{}) *models.Payment {
	id := resourceID
	if v, ok := scalarString(body["id"]); ok {
		id = v
	}

	p := &models.Payment{
		PaymentID:         id,
		StatusDetail:      lowerString(body, "status_detail"),
		TransactionAmount: decimalAt(body, "transaction_amount"),
		Currency:          upperString(body, "currency_id"),
		DateCreated:       timeAt(body, "date_created"),
		DateApproved:      timeAt(body, "date_approved"),
		DateAccredited:    timeAt(body, "date_accredited"),
		DateLastUpdated:   timeAt(body, "date_last_updated"),
		PaymentMethodID:   stringAt(body, "payment_method_id"),
		PaymentTypeID:     stringAt(body, "payment_type_id"),
		IssuerID:          stringAt(body, "issuer_id"),
		Installments:      intAt(body, "installments"),
		PayerID:           stringAt(body, "payer", "id"),
		PayerEmail:        stringAt(body, "payer", "email"),
		NetReceivedAmount: decimalAt(body, "transaction_details", "net_received_amount"),
		TotalPaidAmount:   decimalAt(body, "transaction_details", "total_paid_amount"),
		FeeAmount:         feeTotal(body),
		ExternalReference: stringAt(body, "external_reference"),
		LiveMode:          boolAt(body, "live_mode"),
	}
	if status := stringAt(body, "status"); status != nil {
		normalized := models.NormalizePaymentStatus(*status)
		p.Status = &normalized
	}
	return p
}

// MapPayload wraps the raw provider resource for the payment_payloads table.
func MapPayload(paymentID string, raw []byte) *models.PaymentPayload {
	return &models.PaymentPayload{
		PaymentID: paymentID,
		Payload:   datatypes.JSON(raw),
		FetchedAt: time.Now().UTC(),
	}
}

// MapAntifraud keeps card metadata that is safe to store: BIN, last four
// digits and holder identity. Risk flags are only set when derivable.
func MapAntifraud(paymentID string, body map[string]interface{}) *models.PaymentAntifraud {
	a := &models.PaymentAntifraud{
		PaymentID:        paymentID,
		CardBIN:          stringAt(body, "card", "first_six_digits"),
		CardLastFour:     stringAt(body, "card", "last_four_digits"),
		CardholderName:   stringAt(body, "card", "cardholder", "name"),
		CardholderIDType: stringAt(body, "card", "cardholder", "identification", "type"),
		IPAddress:        stringAt(body, "additional_info", "ip_address"),
	}

	flags := models.JSON{}
	if detail := lowerString(body, "status_detail"); detail != nil {
		flags["high_risk"] = strings.Contains(*detail, "high_risk")
	}
	if v, ok := body["three_ds_info"]; ok {
		flags["three_ds"] = v != nil
	}
	if live := boolAt(body, "live_mode"); live != nil {
		flags["live_mode"] = *live
	}
	if len(flags) > 0 {
		a.RiskFlags = flags
	}
	return a
}

// MapChargeback maps a chargeback resource. fallback is the notification
// payload, used for fields the resource does not carry or when no resource
// could be fetched.
func MapChargeback(chargebackID, paymentID string, body, fallback map[string]interface{}, raw []byte) *models.Chargeback {
	pick := func(f func(map[string]interface{}) *string) *string {
		if v := f(body); v != nil {
			return v
		}
		return f(fallback)
	}

	cb := &models.Chargeback{
		ChargebackID: chargebackID,
		PaymentID:    paymentID,
		Status: pick(func(m map[string]interface{}) *string {
			return firstString(m, []string{"status"}, []string{"data", "status"})
		}),
		Reason: pick(func(m map[string]interface{}) *string {
			return firstString(m, []string{"reason"}, []string{"reason_code"}, []string{"data", "reason"})
		}),
		Currency: pick(func(m map[string]interface{}) *string {
			return firstString(m, []string{"currency"}, []string{"currency_id"})
		}),
		Amount:      decimalAt(body, "amount"),
		DateCreated: timeAt(body, "date_created"),
	}
	if cb.Status != nil {
		s := strings.ToLower(*cb.Status)
		cb.Status = &s
	}
	if cb.Amount == nil {
		cb.Amount = decimalAt(fallback, "amount")
	}
	if len(raw) > 0 {
		cb.Payload = datatypes.JSON(raw)
	}
	return cb
}

// chargebackPaymentID finds the disputed payment in a chargeback resource.
func chargebackPaymentID(body map[string]interface{}) string {
	if payments, ok := body["payments"].([]interface{}); ok {
		for _, p := range payments {
			if id, ok := scalarString(p); ok {
				return id
			}
			if m, ok := p.(map[string]interface{}); ok {
				if id, ok := scalarString(m["id"]); ok {
					return id
				}
			}
		}
	}
	if id, ok := scalarString(body["payment_id"]); ok {
		return id
	}
	return ""
}

func stringAt(body map[string]interface{}, path ...string) *string {
	s, ok := scalarString(lookup(body, path...))
	if !ok {
		return nil
	}
	return &s
}

func firstString(body map[string]interface{}, paths ...[]string) *string {
	for _, path := range paths {
		if s := stringAt(body, path...); s != nil {
			return s
		}
	}
	return nil
}

func lowerString(body map[string]interface{}, path ...string) *string {
	s := stringAt(body, path...)
	if s == nil {
		return nil
	}
	v := strings.ToLower(*s)
	return &v
}

func upperString(body map[string]interface{}, path ...string) *string {
	s := stringAt(body, path...)
	if s == nil {
		return nil
	}
	v := strings.ToUpper(*s)
	return &v
}

// decimalAt parses money values without going through float64 when the
// source kept the literal.
func decimalAt(body map[string]interface{}, path ...string) *decimal.Decimal {
	var (
		d   decimal.Decimal
		err error
	)
	switch v := lookup(body, path...).(type) {
	case json.Number:
		d, err = decimal.NewFromString(v.String())
	case string:
		if strings.TrimSpace(v) == "" {
			return nil
		}
		d, err = decimal.NewFromString(strings.TrimSpace(v))
	case float64:
		d = decimal.NewFromFloat(v)
	default:
		return nil
	}
	if err != nil {
		return nil
	}
	return &d
}

func feeTotal(body map[string]interface{}) *decimal.Decimal {
	details, ok := body["fee_details"].([]interface{})
	if !ok || len(details) == 0 {
		return nil
	}
	total := decimal.Zero
	found := false
	for _, item := range details {
		m, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if amount := decimalAt(m, "amount"); amount != nil {
			total = total.Add(*amount)
			found = true
		}
	}
	if !found {
		return nil
	}
	return &total
}

func timeAt(body map[string]interface{}, path ...string) *time.Time {
	s := stringAt(body, path...)
	if s == nil {
		return nil
	}
	t, err := time.Parse(time.RFC3339, *s)
	if err != nil {
		return nil
	}
	t = t.UTC()
	return &t
}

func intAt(body map[string]interface{}, path ...string) *int {
	s, ok := scalarString(lookup(body, path...))
	if !ok {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return nil
	}
	return &n
}

func boolAt(body map[string]interface{}, path ...string) *bool {
	switch v := lookup(body, path...).(type) {
	case bool:
		return &v
	case string:
		b, err := strconv.ParseBool(v)
		if err != nil {
			return nil
		}
		return &b
	default:
		return nil
	}
}
