// Package metrics exposes Prometheus collectors for the webhook pipeline.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Collector records pipeline outcomes.
type Collector interface {
	RecordVerification(result string)
	RecordDuplicateRequest()
	RecordJournalOutcome(topic, status string)
	RecordFetch(resource, result string, duration time.Duration)
	RecordNotification(result string)
}

// WebhookMetrics holds the Prometheus vectors behind Collector.
type WebhookMetrics struct {
	VerificationsTotal   *prometheus.CounterVec
	DuplicateRequests    prometheus.Counter
	JournalOutcomesTotal *prometheus.CounterVec
	FetchTotal           *prometheus.CounterVec
	FetchDuration        *prometheus.HistogramVec
	NotificationsTotal   *prometheus.CounterVec
}

// NewWebhookMetrics registers the collectors with reg. Pass
// prometheus.DefaultRegisterer to expose them on the default handler.
func NewWebhookMetrics(reg prometheus.Registerer) *WebhookMetrics {
	factory := promauto.With(reg)
	return &WebhookMetrics{
		VerificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_verifications_total",
				Help: "Inbound notifications by verification result",
			},
			[]string{"result"},
		),

		DuplicateRequests: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "webhook_duplicate_requests_total",
				Help: "Requests dropped by the request-id cache",
			},
		),

		JournalOutcomesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "webhook_journal_outcomes_total",
				Help: "Finalized journal rows by topic and process status",
			},
			[]string{"topic", "status"},
		),

		FetchTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "provider_fetch_total",
				Help: "Provider read API calls by resource and result",
			},
			[]string{"resource", "result"},
		),

		FetchDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "provider_fetch_duration_seconds",
				Help:    "Provider read API latency in seconds",
				Buckets: prometheus.ExponentialBuckets(0.025, 2, 10), // 25ms .. ~12.8s
			},
			[]string{"resource"},
		),

		NotificationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "settlement_notifications_total",
				Help: "Settlement notifications by publish result",
			},
			[]string{"result"},
		),
	}
}

func (m *WebhookMetrics) RecordVerification(result string) {
	m.VerificationsTotal.WithLabelValues(result).Inc()
}

func (m *WebhookMetrics) RecordDuplicateRequest() {
	m.DuplicateRequests.Inc()
}

func (m *WebhookMetrics) RecordJournalOutcome(topic, status string) {
	m.JournalOutcomesTotal.WithLabelValues(topic, status).Inc()
}

func (m *WebhookMetrics) RecordFetch(resource, result string, duration time.Duration) {
	m.FetchTotal.WithLabelValues(resource, result).Inc()
	m.FetchDuration.WithLabelValues(resource).Observe(duration.Seconds())
}

func (m *WebhookMetrics) RecordNotification(result string) {
	m.NotificationsTotal.WithLabelValues(result).Inc()
}

// NoopCollector is a no-op implementation of Collector
type NoopCollector struct{}

func (NoopCollector) RecordVerification(string)                 {}
func (NoopCollector) RecordDuplicateRequest()                   {}
func (NoopCollector) RecordJournalOutcome(string, string)       {}
func (NoopCollector) RecordFetch(string, string, time.Duration) {}
func (NoopCollector) RecordNotification(string)                 {}
