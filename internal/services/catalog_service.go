package services

import (
	"database/sql"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"storefront/internal/domain"
	"storefront/internal/repos"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 1000

	defaultSuggestions = 10
	maxSuggestions     = 50
)

// NotFoundError is returned when a product lookup matches nothing.
type NotFoundError struct {
	By    string
	Value string
}

func (e *NotFoundError) Error() string {
	return "Product not found with " + e.By + ": " + e.Value
}

// PageRequest is the paging and sort part of a list or search call, as it
// arrives from the query string. Zero values mean defaults.
type PageRequest struct {
	Page      int
	Size      int
	Sort      string
	Direction string
}

func (r PageRequest) normalize() (page, size int, s repos.Sort) {
	page, size = r.Page, r.Size
	if page < 0 {
		page = 0
	}
	if size <= 0 {
		size = DefaultPageSize
	}
	if size > MaxPageSize {
		size = MaxPageSize
	}
	return page, size, repos.Sort{Field: r.Sort, Desc: strings.EqualFold(r.Direction, "desc")}
}

type CatalogService struct {
	Prods *repos.ProductRepo
}

func NewCatalogService(prods *repos.ProductRepo) *CatalogService {
	return &CatalogService{Prods: prods}
}

type pageQuery func(s repos.Sort, limit, offset int) ([]domain.Product, int64, error)

func paged(r PageRequest, q pageQuery) (domain.PagedResponse[domain.Product], error) {
	page, size, s := r.normalize()
	items, total, err := q(s, size, page*size)
	if err != nil {
		return domain.PagedResponse[domain.Product]{}, err
	}
	return domain.NewPage(items, page, size, total), nil
}

func (c *CatalogService) List(r PageRequest) (domain.PagedResponse[domain.Product], error) {
	return paged(r, c.Prods.List)
}

func (c *CatalogService) ByCategory(category string, r PageRequest) (domain.PagedResponse[domain.Product], error) {
	return paged(r, func(s repos.Sort, limit, offset int) ([]domain.Product, int64, error) {
		return c.Prods.ListByCategory(category, s, limit, offset)
	})
}

func (c *CatalogService) ByBrand(brand string, r PageRequest) (domain.PagedResponse[domain.Product], error) {
	return paged(r, func(s repos.Sort, limit, offset int) ([]domain.Product, int64, error) {
		return c.Prods.ListByBrand(brand, s, limit, offset)
	})
}

// Search matches q as one substring, or word by word with tolerant
// prefixes when fuzzy is set.
func (c *CatalogService) Search(q string, fuzzy bool, r PageRequest) (domain.PagedResponse[domain.Product], error) {
	q = strings.TrimSpace(q)
	return paged(r, func(s repos.Sort, limit, offset int) ([]domain.Product, int64, error) {
		if fuzzy {
			return c.Prods.SearchFuzzy(q, s, limit, offset)
		}
		return c.Prods.Search(q, s, limit, offset)
	})
}

func (c *CatalogService) SearchInCategory(q, category string, r PageRequest) (domain.PagedResponse[domain.Product], error) {
	q = strings.TrimSpace(q)
	return paged(r, func(s repos.Sort, limit, offset int) ([]domain.Product, int64, error) {
		return c.Prods.SearchInCategory(q, category, s, limit, offset)
	})
}

func (c *CatalogService) SearchInBrand(q, brand string, r PageRequest) (domain.PagedResponse[domain.Product], error) {
	q = strings.TrimSpace(q)
	return paged(r, func(s repos.Sort, limit, offset int) ([]domain.Product, int64, error) {
		return c.Prods.SearchInBrand(q, brand, s, limit, offset)
	})
}

func (c *CatalogService) Get(id int64) (domain.Product, error) {
	p, err := c.Prods.Get(id)
	return p, notFound(err, "id", strconv.FormatInt(id, 10))
}

func (c *CatalogService) GetBySKU(sku string) (domain.Product, error) {
	p, err := c.Prods.GetBySKU(sku)
	return p, notFound(err, "sku", sku)
}

func (c *CatalogService) GetByExternalID(externalID int64) (domain.Product, error) {
	p, err := c.Prods.GetByExternalID(externalID)
	return p, notFound(err, "external id", strconv.FormatInt(externalID, 10))
}

// Suggestions returns titles containing q. A blank q gives an empty list.
func (c *CatalogService) Suggestions(q string, limit int) ([]string, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = defaultSuggestions
	}
	if limit > maxSuggestions {
		limit = maxSuggestions
	}
	out, err := c.Prods.Suggestions(q, limit)
	if err != nil {
		return nil, err
	}
	if out == nil {
		out = []string{}
	}
	return out, nil
}

func (c *CatalogService) Categories() ([]string, error) { return c.Prods.Categories() }
func (c *CatalogService) Brands() ([]string, error)     { return c.Prods.Brands() }

func notFound(err error, by, value string) error {
	if errors.Is(err, sql.ErrNoRows) {
		return &NotFoundError{By: by, Value: value}
	}
	if err != nil {
		return fmt.Errorf("get product by %s: %w", by, err)
	}
	return nil
}
