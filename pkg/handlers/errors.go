package handlers

import (
	"errors"
	"log"

	"megacity/pkg/backend"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

// proxyError converts a backend client failure into the matching handler
// response. An authentication failure destroys the session: the token is
// dead and keeping the session around would only produce more 401s.
func proxyError(c *fiber.Ctx, sessions *session.Store, err error) error {
	switch {
	case errors.Is(err, backend.ErrUnauthorized):
		sessions.Logout(c)
		return c.Status(401).JSON(fiber.Map{"error": "session expired, please log in again", "redirect": "/login"})
	case errors.Is(err, backend.ErrForbidden):
		return c.Status(403).JSON(fiber.Map{"error": "not authorized", "redirect": "/unauthorized"})
	case errors.Is(err, backend.ErrUnreachable):
		return c.Status(503).JSON(fiber.Map{"error": "Cannot connect to server. Please check your internet connection"})
	}

	var apiErr *backend.APIError
	if errors.As(err, &apiErr) {
		return c.Status(apiErr.Status).JSON(fiber.Map{"error": apiErr.Message})
	}

	log.Printf("[API] backend error: %v", err)
	return c.Status(502).JSON(fiber.Map{"error": "Something went wrong. Please try again."})
}
