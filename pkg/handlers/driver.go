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

// DriverHandler covers the public driver application form and the
// driver dashboard.
type DriverHandler struct {
	api      *backend.Client
	sessions *session.Store
	hub      *hub.Hub
}

func NewDriver(api *backend.Client, sessions *session.Store, h *hub.Hub) *DriverHandler {
	return &DriverHandler{api: api, sessions: sessions, hub: h}
}

// Apply registers a new driver from the public form. No session needed;
// the account starts unavailable until an admin approves it.
func (h *DriverHandler) Apply(c *fiber.Ctx) error {
	var app models.DriverApplication
	if err := c.BodyParser(&app); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := validate.Struct(app); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": firstValidationError(err)})
	}

	created, err := h.api.CreateDriver(c.Context(), app.ToDriver())
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	log.Printf("[DRIVER] application received: id=%s email=%s", created.DriverID, created.Email)
	go h.hub.BroadcastRole(models.RoleAdmin, "driver_applied", created)

	return c.Status(201).JSON(fiber.Map{"status": "received", "driverId": created.DriverID})
}

func (h *DriverHandler) Me(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	driver, err := h.api.GetDriver(c.Context(), sess.Token, sess.UserID)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(driver)
}

// SetAvailability toggles whether the driver accepts new assignments.
func (h *DriverHandler) SetAvailability(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	var req struct {
		Available bool `json:"available"`
	}
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	driver, err := h.api.GetDriver(c.Context(), sess.Token, sess.UserID)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	driver.Available = req.Available
	updated, err := h.api.UpdateDriver(c.Context(), sess.Token, sess.UserID, driver)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	log.Printf("[DRIVER] availability: id=%s available=%t", sess.UserID, updated.Available)
	go h.hub.BroadcastRole(models.RoleAdmin, "driver_availability", updated)

	return c.JSON(updated)
}
