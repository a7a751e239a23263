package catalogapi

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	applog "storefront/internal/log"
	"storefront/internal/services"
)

type DataHandler struct {
	Loader *services.DataLoadService
}

// Load copies the whole external feed. It answers once the load finishes.
func (h *DataHandler) Load(c *fiber.Ctx) error {
	res, err := h.Loader.LoadAll(c.UserContext())
	if err != nil {
		return err
	}
	applog.Audit(c, "data.load", map[string]any{"count": res.Count})
	return ok(c, "Data loading completed", res)
}

func (h *DataHandler) LoadOne(c *fiber.Ctx) error {
	id, err := strconv.ParseInt(c.Params("externalId"), 10, 64)
	if err != nil || id < 1 {
		return fiber.NewError(fiber.StatusBadRequest, "Invalid external id")
	}
	res, err := h.Loader.LoadOne(c.UserContext(), id)
	if err != nil {
		return err
	}
	applog.Audit(c, "data.load_one", map[string]any{"external_id": id})
	return ok(c, "Product loaded successfully", res)
}

func (h *DataHandler) Clear(c *fiber.Ctx) error {
	res, err := h.Loader.Clear()
	if err != nil {
		return err
	}
	applog.Audit(c, "data.clear", map[string]any{"count": res.Count})
	return ok(c, "Products cleared successfully", res)
}

func (h *DataHandler) Status(c *fiber.Ctx) error {
	st, err := h.Loader.Status()
	if err != nil {
		return err
	}
	return ok(c, "Loading status retrieved", st)
}
