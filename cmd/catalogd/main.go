package main

import (
	"io"
	"log"
	"os"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/requestid"

	"storefront/internal/apiclient"
	"storefront/internal/config"
	"storefront/internal/http/catalogapi"
	applog "storefront/internal/log"
	"storefront/internal/repos"
	"storefront/internal/services"
)

func main() {
	cfg := config.Load()

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
		if err != nil {
			log.Printf("[warn] could not open log file %s: %v", cfg.LogFile, err)
		} else {
			log.SetOutput(io.MultiWriter(os.Stdout, f))
		}
	}
	applog.SetDebug(cfg.LogDebug)

	db, err := repos.OpenDB(cfg.DBDSN)
	if err != nil {
		log.Fatal(err)
	}

	prods := repos.NewProductRepo(db)
	// the feed is slow; give it longer than storefront calls get
	feed := apiclient.New(config.APIConfig{
		Timeout:       60 * time.Second,
		RetryAttempts: cfg.API.RetryAttempts,
		RetryDelay:    cfg.API.RetryDelay,
	})
	catalog := services.NewCatalogService(prods)
	loader := services.NewDataLoadService(prods, feed, cfg.SourceURL)

	app := fiber.New(fiber.Config{ErrorHandler: catalogapi.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20 // 1 MiB
	app.Use(requestid.New())
	app.Use(logger.New())

	catalogapi.Mount(app, catalog, loader)

	log.Printf("[catalogd] db=%s source=%s", cfg.DBDSN, cfg.SourceURL)
	log.Fatal(app.Listen(":" + cfg.CatalogPort))
}
