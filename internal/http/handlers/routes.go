package handlers

import "github.com/gofiber/fiber/v2"

// Mount registers the storefront API on app.
func Mount(app *fiber.App, d *Deps) {
	app.Get("/healthz", func(c *fiber.Ctx) error { return c.JSON(fiber.Map{"ok": true}) })

	api := app.Group("/api", Session(d.Sessions, d.secureCookies))

	api.Get("/state", d.SearchHandler.State)
	api.Post("/search", d.SearchHandler.Search)
	api.Post("/products/load", d.SearchHandler.Load)
	api.Get("/suggestions", d.SearchHandler.Suggestions)
	api.Post("/suggest", d.SearchHandler.Suggest)
	api.Put("/sort", d.SearchHandler.Sort)
	api.Get("/sort-options", d.SearchHandler.SortOptions)
	api.Post("/clear", d.SearchHandler.Clear)
	api.Post("/reset", d.SearchHandler.Reset)
	api.Delete("/session", EndSession(d.Sessions, d.secureCookies))

	api.Patch("/filters", d.FilterHandler.Merge)
	api.Put("/filters", d.FilterHandler.Replace)
	api.Put("/filters/:key", d.FilterHandler.SetOne)
	api.Delete("/filters/:key", d.FilterHandler.Remove)

	api.Get("/category/:name", d.CategoryHandler.Load)
	api.Post("/categories/load", d.CategoryHandler.LoadMany)
	api.Get("/categories", d.CategoryHandler.Categories)
	api.Get("/brands", d.CategoryHandler.Brands)

	api.Get("/products/sku/:sku", d.ProductHandler.BySKU)
	api.Get("/products/external/:id", d.ProductHandler.ByExternalID)
	api.Get("/products/:id", d.ProductHandler.Detail)

	api.Post("/data/load", d.DataHandler.Load)
	// wipe the backend catalog or the shared cache: operators only
	admin := RequireAdmin(d.adminToken)
	api.Delete("/data", admin, d.DataHandler.Clear)
	api.Get("/data/status", d.DataHandler.Status)
	api.Get("/cache", d.DataHandler.CacheStats)
	api.Delete("/cache", admin, d.DataHandler.ClearCache)
}
