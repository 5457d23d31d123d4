package handlers

import (
	"errors"
	"log"
	"time"

	"megacity/pkg/backend"
	"megacity/pkg/cache"
	"megacity/pkg/hub"
	"megacity/pkg/middleware"
	"megacity/pkg/models"
	"megacity/pkg/services"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

const wizardTTL = 1 * time.Hour

// BookingHandler drives the three-step booking wizard over HTTP. The
// wizard value itself lives in the cache keyed by session, so every
// request loads it, applies one transition and stores it back.
type BookingHandler struct {
	api      *backend.Client
	catalog  *services.CatalogService
	sessions *session.Store
	cache    cache.Cache
	hub      *hub.Hub
}

func NewBooking(api *backend.Client, catalog *services.CatalogService, sessions *session.Store, c cache.Cache, h *hub.Hub) *BookingHandler {
	return &BookingHandler{api: api, catalog: catalog, sessions: sessions, cache: c, hub: h}
}

func (h *BookingHandler) load(c *fiber.Ctx) (*services.Wizard, string) {
	sid := h.sessions.SID(c)
	if sid == "" {
		return nil, ""
	}
	var w services.Wizard
	if h.cache.Get(session.WizardKey(sid), &w) {
		return &w, sid
	}
	return nil, sid
}

func (h *BookingHandler) save(sid string, w *services.Wizard) {
	h.cache.Set(session.WizardKey(sid), w, wizardTTL)
}

// render returns the wizard snapshot. On the selection step it also
// carries the bookable catalog; an empty catalog is reported explicitly
// and a load failure becomes the wizard's inline error state.
func (h *BookingHandler) render(c *fiber.Ctx, w *services.Wizard) error {
	resp := fiber.Map{"wizard": w}

	if w.Step == services.StepSelectVehicle {
		vehicles, err := h.catalog.Available(c.Context())
		if err != nil {
			log.Printf("[BOOKING] catalog load failed: %v", err)
			resp["error"] = "Unable to load available vehicles. Please try again later."
			return c.JSON(resp)
		}
		resp["vehicles"] = vehicles
		resp["empty"] = len(vehicles) == 0
	}

	return c.JSON(resp)
}

// Show returns the current wizard, starting a fresh flow on first visit.
// `?car=<id>` preselects a vehicle (arriving from the fleet page) and
// skips straight to trip details; a previous unconfirmed draft is carried
// over so re-entry never loses input.
func (h *BookingHandler) Show(c *fiber.Ctx) error {
	w, sid := h.load(c)

	carID := c.Query("car")
	if w != nil && carID == "" && !c.QueryBool("restart") {
		return h.render(c, w)
	}

	var preserved *models.TripDraft
	if w != nil && w.Step != services.StepConfirmation {
		preserved = &w.Draft
	}

	// Preselection is looked up in the full catalog, not the bookable
	// subset: a vehicle that went unavailable since the fleet page was
	// rendered still lands in trip details, and the backend rejects the
	// submit if it is truly gone.
	var preselected *models.Vehicle
	if carID != "" {
		vehicles, err := h.catalog.Vehicles(c.Context())
		if err != nil {
			log.Printf("[BOOKING] preselect lookup failed: %v", err)
		} else if v, ok := services.FindVehicle(vehicles, carID); ok {
			preselected = &v
		}
	}

	w = services.NewWizard(preselected, preserved)
	h.save(sid, w)
	return h.render(c, w)
}

// Select records the chosen vehicle and advances to trip details.
func (h *BookingHandler) Select(c *fiber.Ctx) error {
	w, sid := h.load(c)
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "no active booking"})
	}

	var req struct {
		VehicleID string `json:"vehicleId"`
	}
	if err := c.BodyParser(&req); err != nil || req.VehicleID == "" {
		return c.Status(400).JSON(fiber.Map{"error": "vehicleId is required"})
	}

	vehicles, err := h.catalog.Available(c.Context())
	if err != nil {
		return proxyError(c, h.sessions, err)
	}
	v, ok := services.FindVehicle(vehicles, req.VehicleID)
	if !ok {
		return c.Status(404).JSON(fiber.Map{"error": "vehicle not available"})
	}

	if err := w.SelectVehicle(v); err != nil {
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}
	if w.Step == services.StepSelectVehicle {
		if err := w.Advance(); err != nil {
			return c.Status(409).JSON(fiber.Map{"error": err.Error()})
		}
	}

	h.save(sid, w)
	return h.render(c, w)
}

// Details applies the trip details form to the draft. The fare in the
// response already reflects a changed driver flag.
func (h *BookingHandler) Details(c *fiber.Ctx) error {
	w, sid := h.load(c)
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "no active booking"})
	}

	var form services.TripDetailsForm
	if err := c.BodyParser(&form); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}

	if err := w.UpdateDetails(form); err != nil {
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}

	h.save(sid, w)
	return h.render(c, w)
}

// ChangeVehicle returns to catalog browsing, keeping the entered draft.
func (h *BookingHandler) ChangeVehicle(c *fiber.Ctx) error {
	w, sid := h.load(c)
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "no active booking"})
	}

	if err := w.ChangeVehicle(); err != nil {
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	}

	h.save(sid, w)
	return h.render(c, w)
}

// Submit sends the booking to the backend. On failure the wizard stays in
// trip details with the error surfaced inline; on success the flow is
// terminal and the confirmation summary is returned.
func (h *BookingHandler) Submit(c *fiber.Ctx) error {
	sess := middleware.SessionFrom(c)
	w, sid := h.load(c)
	if w == nil {
		return c.Status(404).JSON(fiber.Map{"error": "no active booking"})
	}

	rec, err := w.Submit(c.Context(), h.api, sess)
	if err != nil {
		h.save(sid, w)
		return h.submitError(c, err)
	}

	h.save(sid, w)
	log.Printf("[BOOKING] confirmed: booking=%s customer=%s total=%.2f", rec.BookingID, sess.UserID, rec.TotalAmount)
	go h.hub.BroadcastRole(models.RoleAdmin, "booking_created", rec)

	return h.render(c, w)
}

func (h *BookingHandler) submitError(c *fiber.Ctx, err error) error {
	switch {
	case errors.Is(err, services.ErrWizardDone):
		return c.Status(409).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, backend.ErrUnauthorized),
		errors.Is(err, backend.ErrForbidden),
		errors.Is(err, backend.ErrUnreachable),
		errors.Is(err, backend.ErrServer):
		return proxyError(c, h.sessions, err)
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{"error": apiErr.Message})
	}

	// draft validation failure: stays inline in the trip details step
	return c.Status(422).JSON(fiber.Map{"error": err.Error()})
}
