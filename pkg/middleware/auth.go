package middleware

import (
	"slices"

	"megacity/pkg/models"
	"megacity/pkg/session"

	"github.com/gofiber/fiber/v2"
)

const sessionLocal = "session"

// RequireAuth gates a route on having any logged-in session. Anonymous
// requests are pointed at the login page.
func RequireAuth(store *session.Store) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := store.Current(c)
		if sess.Anonymous() {
			return c.Status(401).JSON(fiber.Map{"error": "login required", "redirect": "/login"})
		}
		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// RequireRole additionally restricts the route to the given roles. A
// logged-in user with the wrong role is blocked and pointed at the
// not-authorized page, never silently shown a broken view.
func RequireRole(store *session.Store, roles ...models.Role) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sess := store.Current(c)
		if sess.Anonymous() {
			return c.Status(401).JSON(fiber.Map{"error": "login required", "redirect": "/login"})
		}
		if !slices.Contains(roles, sess.Role) {
			return c.Status(403).JSON(fiber.Map{"error": "not authorized", "redirect": "/unauthorized"})
		}
		c.Locals(sessionLocal, sess)
		return c.Next()
	}
}

// SessionFrom returns the session a guard stored on the request.
func SessionFrom(c *fiber.Ctx) models.Session {
	sess, _ := c.Locals(sessionLocal).(models.Session)
	return sess
}
