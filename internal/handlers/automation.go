package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/middleware"
	"meetscribe/internal/models"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

// AutomationHandler exposes the automation catalog and per-account
// subscriptions
type AutomationHandler struct {
	automations *services.AutomationService
	accounts    *services.AccountService
}

// NewAutomationHandler creates a new automation handler
func NewAutomationHandler(automations *services.AutomationService, accounts *services.AccountService) *AutomationHandler {
	return &AutomationHandler{
		automations: automations,
		accounts:    accounts,
	}
}

// List returns the full automation catalog.
// GET /api/automations
func (h *AutomationHandler) List(c *fiber.Ctx) error {
	automations, err := h.automations.List(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list automations",
		})
	}
	return c.JSON(automations)
}

// Create stores a user-defined automation.
// POST /api/automations
func (h *AutomationHandler) Create(c *fiber.Ctx) error {
	var req models.CreateAutomationRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	automation, err := h.automations.Create(c.Context(), req)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.Status(fiber.StatusCreated).JSON(automation)
}

// Delete removes a user-defined automation.
// DELETE /api/automations/:id
func (h *AutomationHandler) Delete(c *fiber.Ctx) error {
	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid automation id",
		})
	}

	if err := h.automations.Delete(c.Context(), id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Automation not found",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "deleted"})
}

// Subscribe adds the automation to the caller's accounts.
// POST /api/automations/:id/subscription
func (h *AutomationHandler) Subscribe(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid automation id",
		})
	}

	if err := h.accounts.SubscribeAutomation(c.Context(), session, id); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Automation not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to subscribe",
		})
	}
	return c.JSON(fiber.Map{"status": "subscribed"})
}

// Unsubscribe removes the automation from the caller's accounts.
// DELETE /api/automations/:id/subscription
func (h *AutomationHandler) Unsubscribe(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	id, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid automation id",
		})
	}

	if err := h.accounts.UnsubscribeAutomation(c.Context(), session, id); err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to unsubscribe",
		})
	}
	return c.JSON(fiber.Map{"status": "unsubscribed"})
}
