package handlers

import (
	"log"
	"time"

	"payhook/internal/metrics"
	"payhook/internal/middleware"
	"payhook/internal/repositories/cache"
	"payhook/internal/services/webhook"
	"payhook/internal/utils/response"

	"github.com/gofiber/fiber/v2"
)

type WebhookHandler struct {
	reconciler webhook.Reconciler
	requests   cache.RequestCache
	tokenParam string
	metrics    metrics.Collector
}

func NewWebhookHandler(reconciler webhook.Reconciler, requests cache.RequestCache, tokenParam string, collector metrics.Collector) *WebhookHandler {
	if collector == nil {
		collector = metrics.NoopCollector{}
	}
	return &WebhookHandler{
		reconciler: reconciler,
		requests:   requests,
		tokenParam: tokenParam,
		metrics:    collector,
	}
}

// Receive handles POST /webhook. It answers 200 with an empty body once the
// event is journaled, whatever the reconciliation outcome, and 500 only when
// the event could not be journaled.
func (h *WebhookHandler) Receive(c *fiber.Ctx) error {
	ctx := c.UserContext()
	requestID, _ := c.Locals(middleware.LocalRequestID).(string)
	correlationID, _ := c.Locals(middleware.LocalCorrelationID).(string)

	if requestID != "" && h.requests.Contains(ctx, requestID) {
		log.Printf("[%s] Duplicate request dropped", correlationID)
		h.metrics.RecordDuplicateRequest()
		return response.Empty(c, fiber.StatusOK)
	}

	query := c.Queries()
	delete(query, h.tokenParam)

	event := webhook.Normalize(webhook.Input{
		Body:        append([]byte(nil), c.Body()...),
		ContentType: c.Get(fiber.HeaderContentType),
		Query:       query,
		ReceivedAt:  time.Now(),
	})
	log.Printf("[%s] Notification %s topic=%s resource=%s", correlationID, event.EventID, event.Topic, event.ResourceID)

	if err := h.reconciler.Reconcile(ctx, event); err != nil {
		log.Printf("[%s] Notification %s not journaled: %v", correlationID, event.EventID, err)
		return response.ServerError(c, "event not recorded")
	}

	if requestID != "" {
		h.requests.Add(ctx, requestID)
	}
	return response.Empty(c, fiber.StatusOK)
}
