package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/products"
)

type DataHandler struct {
	Products *products.Service
}

// Load asks the backend to import products and reloads the first page for
// this visitor.
func (h *DataHandler) Load(c *fiber.Ctx) error {
	st := storeOf(c)
	st.LoadData(c.UserContext())
	log.Audit(c, "data.load", nil)
	return c.JSON(st.Snapshot())
}

func (h *DataHandler) Clear(c *fiber.Ctx) error {
	if err := h.Products.ClearData(c.UserContext()); err != nil {
		return upstream(c, "data.clear.error", err, "")
	}
	log.Audit(c, "data.clear", nil)
	return c.SendStatus(fiber.StatusNoContent)
}

func (h *DataHandler) Status(c *fiber.Ctx) error {
	s, err := h.Products.DataStatus(c.UserContext())
	if err != nil {
		return upstream(c, "data.status.error", err, "")
	}
	return c.JSON(s)
}

func (h *DataHandler) CacheStats(c *fiber.Ctx) error {
	return c.JSON(h.Products.CacheStats())
}

func (h *DataHandler) ClearCache(c *fiber.Ctx) error {
	h.Products.ClearCache()
	log.Audit(c, "cache.clear", nil)
	return c.SendStatus(fiber.StatusNoContent)
}
