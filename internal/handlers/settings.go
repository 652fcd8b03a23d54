package handlers

import (
	"errors"

	"github.com/gofiber/fiber/v2"

	"meetscribe/internal/middleware"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

// SettingsHandler exposes per-account settings
type SettingsHandler struct {
	accounts *services.AccountService
}

// NewSettingsHandler creates a new settings handler
func NewSettingsHandler(accounts *services.AccountService) *SettingsHandler {
	return &SettingsHandler{accounts: accounts}
}

type settingsResponse struct {
	MinutesBeforeMeeting int `json:"minutes_before_meeting"`
}

// Get returns the caller's settings.
// GET /api/settings
func (h *SettingsHandler) Get(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	account, err := h.accounts.GetSettings(c.Context(), session)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Account not found",
			})
		}
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to load settings",
		})
	}
	return c.JSON(settingsResponse{MinutesBeforeMeeting: account.MinutesBeforeMeeting})
}

type updateSettingsRequest struct {
	MinutesBeforeMeeting int `json:"minutes_before_meeting"`
}

// Update changes the dispatch lead time for all of the caller's Google
// identities.
// PUT /api/settings
func (h *SettingsHandler) Update(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	var req updateSettingsRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	if err := h.accounts.UpdateMinutesBeforeMeeting(c.Context(), session, req.MinutesBeforeMeeting); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": err.Error(),
		})
	}
	return c.JSON(settingsResponse{MinutesBeforeMeeting: req.MinutesBeforeMeeting})
}
