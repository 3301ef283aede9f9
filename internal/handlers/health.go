package handlers

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"
)

const version = "1.0.0"

// Pinger checks one backing service.
type Pinger func(ctx context.Context) error

// HealthCheck is the liveness payload served on GET /.
func HealthCheck(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":  "ok",
		"version": version,
	})
}

type HealthHandler struct {
	pingers map[string]Pinger
	timeout time.Duration
}

func NewHealthHandler(timeout time.Duration, pingers map[string]Pinger) *HealthHandler {
	if timeout <= 0 {
		timeout = 2 * time.Second
	}
	return &HealthHandler{pingers: pingers, timeout: timeout}
}

// Readiness pings every backing service and answers 503 if any is down.
func (h *HealthHandler) Readiness(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.UserContext(), h.timeout)
	defer cancel()

	status := fiber.StatusOK
	services := fiber.Map{}
	for name, ping := range h.pingers {
		if err := ping(ctx); err != nil {
			services[name] = "unavailable: " + err.Error()
			status = fiber.StatusServiceUnavailable
			continue
		}
		services[name] = "connected"
	}

	overall := "ok"
	if status != fiber.StatusOK {
		overall = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   overall,
		"version":  version,
		"services": services,
	})
}
