package handlers

import (
	"net/url"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/config"
	"storefront/internal/log"
	"storefront/internal/products"
	"storefront/internal/validate"
)

type CategoryHandler struct {
	Cfg      config.SearchConfig
	Products *products.Service
}

type categoriesBody struct {
	Categories []string `json:"categories" validate:"required,min=1,max=25,dive,required,max=100"`
}

// Load shows one page of a single category.
func (h *CategoryHandler) Load(c *fiber.Ctx) error {
	raw, err := url.PathUnescape(c.Params("name"))
	if err != nil {
		raw = c.Params("name")
	}
	name, ok := validate.Name(raw)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "category"})
		return fiber.NewError(fiber.StatusBadRequest, "Invalid category")
	}
	page := validate.Page(c.Query("page"))
	size := validate.Size(c.Query("size"), h.Cfg.DefaultPageSize, h.Cfg.MaxPageSize)

	st := storeOf(c)
	st.LoadProductsByCategory(c.UserContext(), name, page, size)
	return c.JSON(st.Snapshot())
}

// LoadMany merges several categories into one list.
func (h *CategoryHandler) LoadMany(c *fiber.Ctx) error {
	var b categoriesBody
	if err := bind(c, &b); err != nil {
		return err
	}
	for _, raw := range b.Categories {
		if _, ok := validate.Name(raw); !ok {
			log.Security(c, "validation.fail", map[string]any{"field": "categories", "value": raw})
			return fiber.NewError(fiber.StatusBadRequest, "Invalid category")
		}
	}
	st := storeOf(c)
	st.LoadProductsByCategories(c.UserContext(), b.Categories)
	return c.JSON(st.Snapshot())
}

func (h *CategoryHandler) Categories(c *fiber.Ctx) error {
	res := h.Products.GetCategories(c.UserContext())
	if res.Degraded() {
		log.Error(c, "categories.degraded", res.Err, nil)
	}
	return c.JSON(fiber.Map{"categories": res.Value})
}

func (h *CategoryHandler) Brands(c *fiber.Ctx) error {
	res := h.Products.GetBrands(c.UserContext())
	if res.Degraded() {
		log.Error(c, "brands.degraded", res.Err, nil)
	}
	return c.JSON(fiber.Map{"brands": res.Value})
}
