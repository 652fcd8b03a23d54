package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"

	"meetscribe/internal/database"
)

// HealthHandler answers liveness and readiness probes
type HealthHandler struct {
	mongo     *database.MongoDB
	startedAt time.Time
}

// NewHealthHandler creates a new health handler. mongo may be nil in
// development mode.
func NewHealthHandler(mongo *database.MongoDB) *HealthHandler {
	return &HealthHandler{
		mongo:     mongo,
		startedAt: time.Now(),
	}
}

// Health reports process health and database reachability.
// GET /health
func (h *HealthHandler) Health(c *fiber.Ctx) error {
	status := fiber.Map{
		"status":  "ok",
		"uptime":  time.Since(h.startedAt).String(),
		"storage": "memory",
	}

	if h.mongo != nil {
		status["storage"] = "mongodb"
		if err := h.mongo.Ping(c.Context()); err != nil {
			status["status"] = "degraded"
			status["storage_error"] = err.Error()
			return c.Status(fiber.StatusServiceUnavailable).JSON(status)
		}
	}
	return c.JSON(status)
}
