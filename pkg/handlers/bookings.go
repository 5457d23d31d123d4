package handlers

import (
	"log"

	"megacity/pkg/backend"
	"megacity/pkg/hub"
	"megacity/pkg/middleware"
	"megacity/pkg/models"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// BookingsHandler serves a customer's past bookings and cancellation.
type BookingsHandler struct {
	api      *backend.Client
	sessions *session.Store
	hub      *hub.Hub
}

func NewBookings(api *backend.Client, sessions *session.Store, h *hub.Hub) *BookingsHandler {
	return &BookingsHandler{api: api, sessions: sessions, hub: h}
}

func (h *BookingsHandler) Mine(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	bookings, err := h.api.CustomerBookings(c.Context(), sess.Token)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings, "count": len(bookings)})
}

func (h *BookingsHandler) Cancel(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")

	var req models.CancelRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": firstValidationError(err)})
	}

	if err := h.api.CancelBooking(c.Context(), sess.Token, id, req.Reason); err != nil {
		return proxyError(c, h.sessions, err)
	}

	log.Printf("[BOOKING] cancelled: booking=%s customer=%s", id, sess.UserID)
	go h.hub.BroadcastRole(models.RoleAdmin, "booking_cancelled", fiber.Map{
		"bookingId":  id,
		"customerId": sess.UserID,
		"reason":     req.Reason,
	})

	return c.JSON(fiber.Map{"status": "cancelled", "bookingId": id})
}
