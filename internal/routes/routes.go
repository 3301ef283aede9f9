// Package routes defines the HTTP route table.
package routes

import (
	"payhook/internal/handlers"
	"payhook/internal/middleware"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Dependencies are the handlers the route table wires together.
type Dependencies struct {
	Webhook   *handlers.WebhookHandler
	Health    *handlers.HealthHandler
	Signature *middleware.SignatureMiddleware
}

// SetupRoutes registers the webhook endpoint, its root alias, the health
// endpoints and the Prometheus scrape endpoint.
func SetupRoutes(app *fiber.App, deps Dependencies) {
	app.Get("/", handlers.HealthCheck)
	app.Get("/health", deps.Health.Readiness)
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))

	// Providers are configured with either path.
	app.Post("/webhook", deps.Signature.Handler, deps.Webhook.Receive)
	app.Post("/", deps.Signature.Handler, deps.Webhook.Receive)
}
