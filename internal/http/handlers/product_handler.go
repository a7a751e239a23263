package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/products"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Products *products.Service
}

const gone = "This item is no longer available"

func (h *ProductHandler) Detail(c *fiber.Ctx) error {
	id, ok := validate.ID(c.Params("id"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "product"})
		return fiber.NewError(fiber.StatusNotFound, gone)
	}
	p, err := h.Products.GetProductByID(c.UserContext(), id)
	if err != nil {
		return upstream(c, "product.error", err, gone)
	}
	return c.JSON(p)
}

func (h *ProductHandler) BySKU(c *fiber.Ctx) error {
	sku, ok := validate.SKU(c.Params("sku"))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "sku"})
		return fiber.NewError(fiber.StatusNotFound, gone)
	}
	p, err := h.Products.GetProductBySKU(c.UserContext(), sku)
	if err != nil {
		return upstream(c, "product.error", err, gone)
	}
	return c.JSON(p)
}

func (h *ProductHandler) ByExternalID(c *fiber.Ctx) error {
	raw, ok := validate.ExternalID(c.Params("id"))
	id, err := strconv.ParseInt(raw, 10, 64)
	if !ok || err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "externalId"})
		return fiber.NewError(fiber.StatusNotFound, gone)
	}
	p, err := h.Products.GetProductByExternalID(c.UserContext(), id)
	if err != nil {
		return upstream(c, "product.error", err, gone)
	}
	return c.JSON(p)
}
