package handlers

import (
	"log"

	"megacity/pkg/services"

	"github.com/gofiber/fiber/v2"
)

type FleetHandler struct {
	catalog *services.CatalogService
}

func NewFleet(catalog *services.CatalogService) *FleetHandler {
	return &FleetHandler{catalog: catalog}
}

// List serves the public fleet page. A catalog load failure is an explicit
// error response, never an empty list: the page must be able to tell
// "nothing matches your filters" from "catalog service is down".
func (h *FleetHandler) List(c *fiber.Ctx) error {
	vehicles, err := h.catalog.Vehicles(c.Context())
	if err != nil {
		log.Printf("[FLEET] catalog load failed: %v", err)
		return c.Status(503).JSON(fiber.Map{
			"error": "Unable to load available vehicles. Please try again later.",
		})
	}

	filtered := services.Filter(vehicles, c.Query("type", services.FilterAll), c.Query("availability", services.FilterAll))
	return c.JSON(fiber.Map{
		"vehicles": filtered,
		"count":    len(filtered),
	})
}
