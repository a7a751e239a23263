package handlers

import (
	"storefront/internal/config"
	"storefront/internal/products"
	"storefront/internal/sessions"
)

type Deps struct {
	Sessions        *sessions.Registry
	SearchHandler   *SearchHandler
	FilterHandler   *FilterHandler
	CategoryHandler *CategoryHandler
	ProductHandler  *ProductHandler
	DataHandler     *DataHandler
	secureCookies   bool
	adminToken      string
}

func NewDeps(svc *products.Service, reg *sessions.Registry, cfg config.Config) *Deps {
	return &Deps{
		Sessions:        reg,
		SearchHandler:   &SearchHandler{Cfg: cfg.Search},
		FilterHandler:   &FilterHandler{},
		CategoryHandler: &CategoryHandler{Cfg: cfg.Search, Products: svc},
		ProductHandler:  &ProductHandler{Products: svc},
		DataHandler:     &DataHandler{Products: svc},
		secureCookies:   cfg.Environment == "production",
		adminToken:      cfg.AdminToken,
	}
}
