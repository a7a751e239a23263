package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/utils"

	"storefront/internal/log"
	"storefront/internal/search"
	"storefront/internal/sessions"
)

const sessionCookie = "sid"

// Session attaches the visitor's search store to the request, issuing a new
// sid cookie when the visitor has none or it expired.
func Session(reg *sessions.Registry, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// Cookies aliases the request buffer, which fasthttp reuses
		old := utils.CopyString(c.Cookies(sessionCookie))
		st, sid := reg.Get(old)
		if sid != old {
			c.Cookie(sidCookie(sid, secure, time.Time{}))
		}
		c.Locals("store", st)
		c.Locals("sid", sid)
		return c.Next()
	}
}

// EndSession forgets the visitor's store and expires the cookie. The next
// request starts a fresh session.
func EndSession(reg *sessions.Registry, secure bool) fiber.Handler {
	return func(c *fiber.Ctx) error {
		sid, _ := c.Locals("sid").(string)
		reg.Drop(sid)
		c.Cookie(sidCookie("", secure, time.Unix(0, 0)))
		log.Audit(c, "session.end", nil)
		return c.SendStatus(fiber.StatusNoContent)
	}
}

func sidCookie(value string, secure bool, expires time.Time) *fiber.Cookie {
	return &fiber.Cookie{
		Name:     sessionCookie,
		Value:    value,
		Path:     "/",
		Expires:  expires,
		HTTPOnly: true,
		Secure:   secure,
		SameSite: "Lax",
	}
}

func storeOf(c *fiber.Ctx) *search.Store {
	st, _ := c.Locals("store").(*search.Store)
	return st
}
