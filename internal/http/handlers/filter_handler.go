package handlers

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/log"
	"storefront/internal/search"
)

type FilterHandler struct{}

// Merge adds or changes filter constraints; keys not in the body are kept.
func (h *FilterHandler) Merge(c *fiber.Ctx) error {
	var f search.Filters
	if err := bind(c, &f); err != nil {
		return err
	}
	st := storeOf(c)
	if err := st.SetFilters(f); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "filters"})
		return fiber.NewError(fiber.StatusBadRequest, "Filter values cannot be empty")
	}
	return c.JSON(st.Snapshot())
}

// Replace sets the filters to exactly the body.
func (h *FilterHandler) Replace(c *fiber.Ctx) error {
	var f search.Filters
	if err := bind(c, &f); err != nil {
		return err
	}
	st := storeOf(c)
	if err := st.ReplaceFilters(f); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": "filters"})
		return fiber.NewError(fiber.StatusBadRequest, "Filter values cannot be empty")
	}
	return c.JSON(st.Snapshot())
}

type filterValueBody struct {
	Value string `json:"value" validate:"required,max=100"`
}

// SetOne sets a single filter from its text form, e.g. {"value":"49.99"}
// for maxPrice.
func (h *FilterHandler) SetOne(c *fiber.Ctx) error {
	key, err := filterKey(c)
	if err != nil {
		return err
	}
	var b filterValueBody
	if err := bind(c, &b); err != nil {
		return err
	}
	st := storeOf(c)
	if err := st.SetFilter(key, b.Value); err != nil {
		log.Security(c, "validation.fail", map[string]any{"field": string(key), "value": b.Value})
		return fiber.NewError(fiber.StatusBadRequest, "Invalid value for "+string(key))
	}
	return c.JSON(st.Snapshot())
}

func (h *FilterHandler) Remove(c *fiber.Ctx) error {
	key, err := filterKey(c)
	if err != nil {
		return err
	}
	st := storeOf(c)
	st.RemoveFilter(key)
	return c.JSON(st.Snapshot())
}

func filterKey(c *fiber.Ctx) (search.FilterKey, error) {
	key := search.FilterKey(c.Params("key"))
	for _, k := range search.FilterKeys {
		if k == key {
			return key, nil
		}
	}
	log.Security(c, "validation.fail", map[string]any{"field": "filter", "value": string(key)})
	return "", fiber.NewError(fiber.StatusNotFound, "Unknown filter")
}
