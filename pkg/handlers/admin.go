package handlers

import (
	"log"

	"megacity/pkg/backend"
	"megacity/pkg/hub"
	"megacity/pkg/middleware"
	"megacity/pkg/models"
	"megacity/pkg/services"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// AdminHandler backs the admin dashboard: fleet CRUD plus read access to
// all bookings and registered customers. Fleet writes invalidate the
// catalog cache and notify connected dashboards.
type AdminHandler struct {
	api      *backend.Client
	catalog  *services.CatalogService
	sessions *session.Store
	hub      *hub.Hub
}

func NewAdmin(api *backend.Client, catalog *services.CatalogService, sessions *session.Store, h *hub.Hub) *AdminHandler {
	return &AdminHandler{api: api, catalog: catalog, sessions: sessions, hub: h}
}

func (h *AdminHandler) Bookings(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	bookings, err := h.api.AllBookings(c.Context(), sess.Token)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(fiber.Map{"bookings": bookings, "count": len(bookings)})
}

func (h *AdminHandler) Customers(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	customers, err := h.api.ViewCustomers(c.Context(), sess.Token)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(fiber.Map{"customers": customers, "count": len(customers)})
}

func (h *AdminHandler) Customer(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	cust, err := h.api.GetCustomer(c.Context(), sess.Token, c.Params("id"))
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(cust)
}

// Cars lists the fleet without the availability filter the storefront
// applies, so unavailable vehicles stay visible for management.
func (h *AdminHandler) Cars(c *fiber.Ctx) error {
	vehicles, err := h.catalog.Vehicles(c.Context())
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(fiber.Map{"vehicles": vehicles, "count": len(vehicles)})
}

func (h *AdminHandler) CreateCar(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	var car models.CarDTO
	if err := c.BodyParser(&car); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	created, err := h.api.CreateCar(c.Context(), sess.Token, car)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	h.catalog.Invalidate()
	log.Printf("[ADMIN] car created: id=%s by=%s", created.CarID, sess.UserID)
	go h.hub.Broadcast("fleet_updated", fiber.Map{"action": "created", "carId": created.CarID})

	return c.Status(201).JSON(created)
}

func (h *AdminHandler) UpdateCar(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")

	var car models.CarDTO
	if err := c.BodyParser(&car); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	updated, err := h.api.UpdateCar(c.Context(), sess.Token, id, car)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	h.catalog.Invalidate()
	go h.hub.Broadcast("fleet_updated", fiber.Map{"action": "updated", "carId": id})

	return c.JSON(updated)
}

func (h *AdminHandler) DeleteCar(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	id := c.Params("id")

	if err := h.api.DeleteCar(c.Context(), sess.Token, id); err != nil {
		return proxyError(c, h.sessions, err)
	}

	h.catalog.Invalidate()
	log.Printf("[ADMIN] car deleted: id=%s by=%s", id, sess.UserID)
	go h.hub.Broadcast("fleet_updated", fiber.Map{"action": "deleted", "carId": id})

	return c.JSON(fiber.Map{"status": "deleted", "carId": id})
}

func (h *AdminHandler) Drivers(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)

	drivers, err := h.api.AllDrivers(c.Context(), sess.Token)
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	return c.JSON(fiber.Map{"drivers": drivers, "count": len(drivers)})
}
