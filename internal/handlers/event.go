package handlers

import (
	"errors"
	"log"

	"github.com/gofiber/fiber/v2"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"meetscribe/internal/middleware"
	"meetscribe/internal/services"
	"meetscribe/internal/store"
)

// EventHandler exposes calendar events and the bot toggle
type EventHandler struct {
	events *services.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(events *services.EventService) *EventHandler {
	return &EventHandler{events: events}
}

// List returns the caller's stored events. With ?sync=true a reconciliation
// pass against the calendar provider runs first; a partial-success pass
// still returns the refreshed list.
// GET /api/events
func (h *EventHandler) List(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	if c.QueryBool("sync", false) {
		if err := h.events.ReconcileSession(c.Context(), session); err != nil {
			log.Printf("⚠️ [EVENTS] Sync for %s: %v", session.PrimaryEmail(), err)
		}
	}

	events, err := h.events.ListEvents(c.Context(), session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list events",
		})
	}
	return c.JSON(events)
}

// Sync runs a reconciliation pass for every Google identity in the session.
// Only a failed calendar fetch is reported as an error; per-event failures
// retry on the next pass and just produce a partial-success summary.
// POST /api/events/sync
func (h *EventHandler) Sync(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	if err := h.events.ReconcileSession(c.Context(), session); err != nil {
		log.Printf("⚠️ [EVENTS] Sync for %s: %v", session.PrimaryEmail(), err)
		if errors.Is(err, services.ErrCalendarUnavailable) {
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": err.Error(),
			})
		}
		return c.JSON(fiber.Map{
			"status": "partial",
			"detail": err.Error(),
		})
	}
	return c.JSON(fiber.Map{"status": "ok"})
}

// Ongoing returns events whose meeting started with a bot attached but are
// not finished yet.
// GET /api/events/ongoing
func (h *EventHandler) Ongoing(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	events, err := h.events.ListOngoing(c.Context(), session)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to list ongoing events",
		})
	}
	return c.JSON(events)
}

type setBotRequest struct {
	WantsBot bool `json:"wants_bot"`
}

// SetBot toggles the bot flag for one event and immediately executes the
// resulting lifecycle action.
// PATCH /api/events/:id/bot
func (h *EventHandler) SetBot(c *fiber.Ctx) error {
	session, ok := middleware.SessionFromCtx(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{
			"error": "Authentication required",
		})
	}

	eventID, err := primitive.ObjectIDFromHex(c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid event id",
		})
	}

	var req setBotRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Invalid request body",
		})
	}

	event, err := h.events.SetWantsBot(c.Context(), session, eventID, req.WantsBot)
	if err != nil {
		switch {
		case errors.Is(err, store.ErrNotFound):
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
				"error": "Event not found",
			})
		case errors.Is(err, services.ErrForbidden):
			return c.Status(fiber.StatusForbidden).JSON(fiber.Map{
				"error": "Not your event",
			})
		case errors.Is(err, services.ErrNoMeetingLink):
			return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
				"error": "Event has no meeting link",
			})
		default:
			log.Printf("⚠️ [EVENTS] SetBot for %s: %v", c.Params("id"), err)
			return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
				"error": "Failed to apply bot action",
			})
		}
	}
	return c.JSON(event)
}
