package main

import (
	"io"
	"log"
	"os"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/http/handlers"
	applog "storefront/internal/log"
	"storefront/internal/products"
	"storefront/internal/search"
	"storefront/internal/sessions"
)

func main() {
	cfg := config.Load()

	// Optional file logging
	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}
	applog.SetDebug(cfg.LogDebug)

	// Catalog access, one response cache for all sessions
	client := apiclient.New(cfg.API)
	svc := products.NewService(client, cache.NewTTL[string, any](nil), cfg.Cache, cfg.Search)
	reg := sessions.NewRegistry(nil, cfg.SessionIdle, func() *search.Store {
		return search.NewStore(svc, cfg.Search)
	})

	go func() {
		for range time.Tick(cfg.SessionIdle) {
			if n := reg.Sweep(); n > 0 {
				applog.Event("info", "sessions.sweep", nil, map[string]any{"evicted": n, "active": reg.Len()})
			}
		}
	}()

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	// Global body size guard
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB

	// ---------- Middlewares ----------
	app.Use(requestid.New())
	app.Use(logger.New())
	app.Use(helmet.New())
	app.Use(limiter.New(limiter.Config{
		Max:        60,
		Expiration: time.Minute,
		Next: func(c *fiber.Ctx) bool {
			return !strings.HasPrefix(c.Path(), "/api/")
		},
	}))
	app.Use("/api/search", limiter.New(limiter.Config{
		Max:        20,
		Expiration: time.Minute,
		KeyGenerator: func(c *fiber.Ctx) string {
			return c.IP() + "|search"
		},
		LimitReached: func(c *fiber.Ctx) error {
			applog.Security(c, "rate.search.hit", nil)
			return c.Status(fiber.StatusTooManyRequests).JSON(fiber.Map{"error": "Too many searches. Please slow down."})
		},
	}))

	// ---------- API ----------
	handlers.Mount(app, handlers.NewDeps(svc, reg, cfg))

	// ---------- Static SPA ----------
	log.Printf("[static] / -> %s", cfg.StaticDir)
	app.Static("/", cfg.StaticDir)

	log.Printf("[storefront] catalog API %s", client.BaseURL())
	log.Fatal(app.Listen(":" + cfg.Port))
}
