package handlers

import (
	"errors"
	"log"

	"megacity/pkg/backend"
	"megacity/pkg/hub"
	"megacity/pkg/models"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

type AuthHandler struct {
	api      *backend.Client
	sessions *session.Store
	hub      *hub.Hub
}

func NewAuth(api *backend.Client, sessions *session.Store, h *hub.Hub) *AuthHandler {
	return &AuthHandler{api: api, sessions: sessions, hub: h}
}

// Login forwards the credentials to the backend, persists the resulting
// identity and tells the client where that role lands after login.
func (h *AuthHandler) Login(c *fiber.Ctx) error {
	var req models.LoginRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": firstValidationError(err)})
	}

	resp, err := h.api.Login(c.Context(), req)
	if err != nil {
		status, msg := loginFailure(err)
		return c.Status(status).JSON(fiber.Map{"error": msg})
	}

	sess, err := h.sessions.Login(c, resp)
	if err != nil {
		log.Printf("[AUTH] login rejected: %v (role=%q userId=%q)", err, resp.Role, resp.UserID)
		msg := "Invalid user role"
		if errors.Is(err, session.ErrNoIdentity) {
			msg = "Login failed. Please try again later"
		}
		return c.Status(502).JSON(fiber.Map{"error": msg})
	}

	log.Printf("[AUTH] login: user=%s role=%s", sess.UserID, sess.Role)
	go h.hub.BroadcastRole(models.RoleAdmin, "user_login", fiber.Map{
		"userId": sess.UserID, "role": sess.Role,
	})

	return c.JSON(fiber.Map{
		"token":    sess.Token,
		"userId":   sess.UserID,
		"role":     sess.Role,
		"redirect": sess.Role.DashboardPath(),
	})
}

// loginFailure maps backend login errors onto the storefront's messages.
func loginFailure(err error) (int, string) {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		return 401, "Invalid email or password"
	case errors.Is(err, backend.ErrForbidden):
		return 403, "Account is locked. Please contact support"
	case errors.Is(err, backend.ErrUnreachable):
		return 503, "Cannot connect to server. Please check your internet connection"
	}
	var apiErr *backend.APIError
	if errors.As(err, &apiErr) && apiErr.Status == 404 {
		return 404, "User not found"
	}
	return 500, "Login failed. Please try again later"
}

// Signup creates a customer account on the backend.
func (h *AuthHandler) Signup(c *fiber.Ctx) error {
	var req models.SignupRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": "invalid JSON"})
	}
	if err := validate.Struct(req); err != nil {
		return c.Status(400).JSON(fiber.Map{"error": firstValidationError(err)})
	}

	created, err := h.api.CreateCustomer(c.Context(), req.ToCustomer())
	if err != nil {
		return proxyError(c, h.sessions, err)
	}

	log.Printf("[AUTH] signup: customer=%s", created.CustomerID)
	return c.Status(201).JSON(fiber.Map{
		"status":   "created",
		"redirect": "/login",
	})
}

// Logout clears the session; any in-flight booking draft goes with it.
func (h *AuthHandler) Logout(c *fiber.Ctx) error {
	h.sessions.Logout(c)
	return c.JSON(fiber.Map{"redirect": "/"})
}

// Session returns the current snapshot so the shell can decide between
// "Profile" and "Login" without guessing.
func (h *AuthHandler) Session(c *fiber.Ctx) error {
	sess := h.sessions.Current(c)
	if sess.Anonymous() {
		return c.JSON(fiber.Map{"authenticated": false})
	}
	return c.JSON(fiber.Map{
		"authenticated": true,
		"userId":        sess.UserID,
		"role":          sess.Role,
		"dashboard":     sess.Role.DashboardPath(),
	})
}
