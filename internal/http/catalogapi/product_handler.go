package catalogapi

import (
	"net/url"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/services"
	"storefront/internal/validate"
)

type ProductHandler struct {
	Catalog *services.CatalogService
}

// pageRequest reads page, size, sort and direction from the query string.
// Bad values fall back to the defaults instead of failing the request.
func pageRequest(c *fiber.Ctx) services.PageRequest {
	r := services.PageRequest{
		Page:      validate.Page(c.Query("page")),
		Size:      validate.Size(c.Query("size"), services.DefaultPageSize, services.MaxPageSize),
		Sort:      "title",
		Direction: "asc",
	}
	if f, ok := validate.SortField(c.Query("sort")); ok {
		r.Sort = f
	}
	if d, ok := validate.Direction(c.Query("direction")); ok {
		r.Direction = d
	}
	return r
}

// query returns the optional q parameter. An empty q is allowed and matches
// everything; a malformed one is rejected.
func query(c *fiber.Ctx) (string, error) {
	raw := c.Query("q")
	if raw == "" {
		return "", nil
	}
	q, ok := validate.Q(raw)
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid search query")
	}
	return q, nil
}

func name(raw, what string) (string, error) {
	if s, err := url.PathUnescape(raw); err == nil {
		raw = s
	}
	n, ok := validate.Name(raw)
	if !ok {
		return "", fiber.NewError(fiber.StatusBadRequest, "Invalid "+what)
	}
	return n, nil
}

func (h *ProductHandler) List(c *fiber.Ctx) error {
	page, err := h.Catalog.List(pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "Products retrieved", page)
}

// Search serves /products/search. fuzzy=true switches to word matching.
func (h *ProductHandler) Search(c *fiber.Ctx) error {
	return h.search(c, c.QueryBool("fuzzy"))
}

func (h *ProductHandler) SearchFuzzy(c *fiber.Ctx) error {
	return h.search(c, true)
}

func (h *ProductHandler) search(c *fiber.Ctx, fuzzy bool) error {
	q, err := query(c)
	if err != nil {
		return err
	}
	page, err := h.Catalog.Search(q, fuzzy, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "Search completed", page)
}

func (h *ProductHandler) SearchInCategory(c *fiber.Ctx) error {
	q, err := query(c)
	if err != nil {
		return err
	}
	cat, err := name(c.Query("category"), "category")
	if err != nil {
		return err
	}
	page, err := h.Catalog.SearchInCategory(q, cat, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "Search completed", page)
}

func (h *ProductHandler) SearchInBrand(c *fiber.Ctx) error {
	q, err := query(c)
	if err != nil {
		return err
	}
	brand, err := name(c.Query("brand"), "brand")
	if err != nil {
		return err
	}
	page, err := h.Catalog.SearchInBrand(q, brand, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "Search completed", page)
}

func (h *ProductHandler) ByCategory(c *fiber.Ctx) error {
	cat, err := name(c.Params("category"), "category")
	if err != nil {
		return err
	}
	page, err := h.Catalog.ByCategory(cat, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "Products retrieved", page)
}

func (h *ProductHandler) ByBrand(c *fiber.Ctx) error {
	brand, err := name(c.Params("brand"), "brand")
	if err != nil {
		return err
	}
	page, err := h.Catalog.ByBrand(brand, pageRequest(c))
	if err != nil {
		return err
	}
	return ok(c, "Products retrieved", page)
}

func (h *ProductHandler) Suggestions(c *fiber.Ctx) error {
	q, valid := validate.Q(c.Query("q"))
	if !valid {
		return fiber.NewError(fiber.StatusBadRequest, "Query is required")
	}
	limit := c.QueryInt("limit", 10)
	out, err := h.Catalog.Suggestions(q, limit)
	if err != nil {
		return err
	}
	return ok(c, "Suggestions retrieved", out)
}

func (h *ProductHandler) Categories(c *fiber.Ctx) error {
	out, err := h.Catalog.Categories()
	if err != nil {
		return err
	}
	return ok(c, "Categories retrieved", nonNil(out))
}

func (h *ProductHandler) Brands(c *fiber.Ctx) error {
	out, err := h.Catalog.Brands()
	if err != nil {
		return err
	}
	return ok(c, "Brands retrieved", nonNil(out))
}

func (h *ProductHandler) Get(c *fiber.Ctx) error {
	id, valid := validate.ID(c.Params("id"))
	if !valid {
		return &services.NotFoundError{By: "id", Value: c.Params("id")}
	}
	p, err := h.Catalog.Get(id)
	if err != nil {
		return err
	}
	return ok(c, "Product found", p)
}

func (h *ProductHandler) BySKU(c *fiber.Ctx) error {
	sku, valid := validate.SKU(c.Params("sku"))
	if !valid {
		return &services.NotFoundError{By: "sku", Value: c.Params("sku")}
	}
	p, err := h.Catalog.GetBySKU(sku)
	if err != nil {
		return err
	}
	return ok(c, "Product found", p)
}

func (h *ProductHandler) ByExternalID(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("id"), 10, 64)
	if err != nil {
		return &services.NotFoundError{By: "external id", Value: c.Params("id")}
	}
	p, err := h.Catalog.GetByExternalID(id)
	if err != nil {
		return err
	}
	return ok(c, "Product found", p)
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
