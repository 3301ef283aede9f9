// Package middleware provides HTTP middleware components for the application.
package middleware

import (
	"errors"
	"log"
	"strings"

	"payhook/internal/config"
	"payhook/internal/metrics"
	"payhook/internal/services/verifier"
	"payhook/internal/utils/response"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Locals keys set by SignatureMiddleware.
const (
	LocalRequestID     = "requestID"
	LocalCorrelationID = "correlationID"
)

type RequestVerifier interface {
	Verify(req verifier.Request) (verifier.Result, error)
}

// SignatureMiddleware authenticates provider notifications before they reach
// the webhook handler.
type SignatureMiddleware struct {
	verifier        RequestVerifier
	signatureHeader string
	requestIDHeader string
	metrics         metrics.Collector
}

func NewSignatureMiddleware(v RequestVerifier, cfg config.WebhookConfig, collector metrics.Collector) *SignatureMiddleware {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &SignatureMiddleware{
		verifier:        v,
		signatureHeader: cfg.SignatureHeader,
		requestIDHeader: cfg.RequestIDHeader,
		metrics:         collector,
	}
}

// Handler answers 500 when no secret is configured and 401 for any other
// verification failure. Accepted requests carry the provider request id in
// Locals, plus a correlation id for logs.
func (m *SignatureMiddleware) Handler(c *fiber.Ctx) error {
	result, err := m.verifier.Verify(verifier.Request{
		Body:      c.Body(),
		Signature: c.Get(m.signatureHeader),
		RequestID: strings.Clone(c.Get(m.requestIDHeader)),
		Query:     c.Queries(),
	})
	if err != nil {
		if errors.Is(err, verifier.ErrSecretNotConfigured) {
			log.Printf("Webhook rejected: %v", err)
			m.metrics.RecordVerification("misconfigured")
			return response.ServerError(c, "webhook verification not configured")
		}
		log.Printf("Webhook rejected from %s: %v", c.IP(), err)
		m.metrics.RecordVerification("rejected")
		return response.Unauthorized(c)
	}

	m.metrics.RecordVerification("accepted")

	correlationID := result.RequestID
	if correlationID == "" {
		correlationID = uuid.NewString()
	}
	c.Locals(LocalRequestID, result.RequestID)
	c.Locals(LocalCorrelationID, correlationID)
	return c.Next()
}
