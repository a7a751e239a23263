package handlers

import (
	"crypto/subtle"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
)

const adminHeader = "X-Admin-Token"

// RequireAdmin guards operator-only routes with a shared token sent in the
// X-Admin-Token header. With no token configured the routes are closed.
func RequireAdmin(token string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		got := c.Get(adminHeader)
		if token == "" || subtle.ConstantTimeCompare([]byte(got), []byte(token)) != 1 {
			log.Security(c, "access.denied.admin", map[string]any{"token_sent": got != ""})
			return fiber.NewError(fiber.StatusForbidden, "Access denied")
		}
		return c.Next()
	}
}
