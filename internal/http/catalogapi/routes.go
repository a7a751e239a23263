package catalogapi

import (
	"github.com/gofiber/fiber/v2"

	"storefront/internal/services"
)

// Mount registers the catalog REST API under /api/v1.
func Mount(app *fiber.App, catalog *services.CatalogService, loader *services.DataLoadService) {
	ph := &ProductHandler{Catalog: catalog}
	dh := &DataHandler{Loader: loader}

	app.Get("/healthz", func(c *fiber.Ctx) error { return c.SendString("ok") })

	v1 := app.Group("/api/v1")

	p := v1.Group("/products")
	p.Get("/", ph.List)
	// fixed paths before /:id
	p.Get("/search", ph.Search)
	p.Get("/search/fuzzy", ph.SearchFuzzy)
	p.Get("/search/category", ph.SearchInCategory)
	p.Get("/search/brand", ph.SearchInBrand)
	p.Get("/suggestions", ph.Suggestions)
	p.Get("/categories", ph.Categories)
	p.Get("/brands", ph.Brands)
	p.Get("/sku/:sku", ph.BySKU)
	p.Get("/external/:id", ph.ByExternalID)
	p.Get("/category/:category", ph.ByCategory)
	p.Get("/brand/:brand", ph.ByBrand)
	p.Get("/:id", ph.Get)

	d := v1.Group("/data")
	d.Post("/load", dh.Load)
	d.Post("/load/:externalId", dh.LoadOne)
	d.Delete("/clear", dh.Clear)
	d.Get("/status", dh.Status)

	app.Use(func(c *fiber.Ctx) error {
		return fiber.NewError(fiber.StatusNotFound, "Resource not found: "+c.Path())
	})
}
