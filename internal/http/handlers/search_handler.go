package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"storefront/internal/config"
	"storefront/internal/log"
	"storefront/internal/search"
	"storefront/internal/validate"
)

type SearchHandler struct {
	Cfg config.SearchConfig
}

type searchBody struct {
	Query string `json:"query" validate:"required,max=100"`
	Fuzzy bool   `json:"fuzzy"`
}

type loadBody struct {
	Page int `json:"page" validate:"gte=0"`
	Size int `json:"size" validate:"gte=0"`
}

type sortBody struct {
	Field     string `json:"field" validate:"required"`
	Direction string `json:"direction" validate:"required,oneof=asc desc"`
}

type suggestBody struct {
	Query string `json:"query" validate:"required,max=100"`
}

func (h *SearchHandler) State(c *fiber.Ctx) error {
	return c.JSON(storeOf(c).Snapshot())
}

// Search runs a text search. Queries below the minimum length leave the
// state untouched.
func (h *SearchHandler) Search(c *fiber.Ctx) error {
	var b searchBody
	if err := bind(c, &b); err != nil {
		return err
	}
	q, ok := validate.Q(b.Query)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "query", "value": b.Query})
		return fiber.NewError(fiber.StatusBadRequest, "Enter a valid keyword (letters/numbers only)")
	}
	st := storeOf(c)
	st.SearchProducts(c.UserContext(), q, b.Fuzzy)
	log.Info(c, "search", map[string]any{"q": q, "fuzzy": b.Fuzzy})
	return c.JSON(st.Snapshot())
}

func (h *SearchHandler) Load(c *fiber.Ctx) error {
	var b loadBody
	if len(c.Body()) > 0 {
		if err := bind(c, &b); err != nil {
			return err
		}
	}
	size := b.Size
	if size > h.Cfg.MaxPageSize {
		size = h.Cfg.MaxPageSize
	}
	st := storeOf(c)
	st.LoadProducts(c.UserContext(), b.Page, size)
	return c.JSON(st.Snapshot())
}

// Suggestions looks up suggestions synchronously and returns them.
func (h *SearchHandler) Suggestions(c *fiber.Ctx) error {
	raw := c.Query("q")
	if strings.TrimSpace(raw) == "" {
		return c.JSON(fiber.Map{"suggestions": []string{}})
	}
	q, ok := validate.Q(raw)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "q", "value": raw})
		return fiber.NewError(fiber.StatusBadRequest, "Enter a valid keyword (letters/numbers only)")
	}
	st := storeOf(c)
	st.GetSuggestions(c.UserContext(), q)
	return c.JSON(fiber.Map{"suggestions": st.Snapshot().Suggestions})
}

// Suggest schedules a debounced lookup; the result shows up in the state.
func (h *SearchHandler) Suggest(c *fiber.Ctx) error {
	var b suggestBody
	if err := bind(c, &b); err != nil {
		return err
	}
	q, ok := validate.Q(b.Query)
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "query", "value": b.Query})
		return fiber.NewError(fiber.StatusBadRequest, "Enter a valid keyword (letters/numbers only)")
	}
	storeOf(c).SuggestDebounced(q)
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"scheduled": true, "delayMs": h.Cfg.DebounceDelay.Milliseconds()})
}

func (h *SearchHandler) Sort(c *fiber.Ctx) error {
	var b sortBody
	if err := bind(c, &b); err != nil {
		return err
	}
	opt, ok := search.LookupSort(search.SortField(b.Field), search.Direction(b.Direction))
	if !ok {
		log.Security(c, "validation.fail", map[string]any{"field": "sort", "value": b.Field + " " + b.Direction})
		return fiber.NewError(fiber.StatusBadRequest, "Unknown sort option")
	}
	st := storeOf(c)
	st.SetSortOption(opt)
	return c.JSON(st.Snapshot())
}

func (h *SearchHandler) SortOptions(c *fiber.Ctx) error {
	return c.JSON(search.SortOptions)
}

func (h *SearchHandler) Clear(c *fiber.Ctx) error {
	st := storeOf(c)
	st.ClearSearch()
	return c.JSON(st.Snapshot())
}

func (h *SearchHandler) Reset(c *fiber.Ctx) error {
	st := storeOf(c)
	st.ResetState()
	log.Audit(c, "state.reset", nil)
	return c.JSON(st.Snapshot())
}
