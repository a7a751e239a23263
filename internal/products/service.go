package products

import (
	"context"
	"net/url"
	"sort"
	"strconv"
	"time"
	"unicode/utf8"

	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/domain"
	applog "storefront/internal/log"
)

// API is the slice of the HTTP client the service needs.
type API interface {
	Get(ctx context.Context, path string, out any) error
	Post(ctx context.Context, path string, body, out any) error
	Delete(ctx context.Context, path string, out any) error
}

// ServiceError is returned when the backend answers with a non-success envelope.
type ServiceError struct {
	Op      string
	Message string
}

func (e *ServiceError) Error() string { return e.Op + ": " + e.Message }

// Params carries paging and sort for list and search calls.
type Params struct {
	Page      *int
	Size      *int
	Sort      string
	Direction string
}

// SearchParams is Params plus a text query and the fuzzy switch.
type SearchParams struct {
	Query string
	Params
	Fuzzy bool
}

// Page and Size build Params fields inline.
func Page(n int) *int { return &n }
func Size(n int) *int { return &n }

// BestEffort holds the result of a call whose failure degrades to an empty
// value. Value is always usable; Err says why it is empty, if it is.
type BestEffort[T any] struct {
	Value T
	Err   error
}

func (b BestEffort[T]) Degraded() bool { return b.Err != nil }

type CacheStats struct {
	Size int      `json:"size"`
	Keys []string `json:"keys"`
}

type Service struct {
	api    API
	cache  *cache.TTL[string, any]
	ttl    config.CacheConfig
	search config.SearchConfig
}

func NewService(api API, c *cache.TTL[string, any], ttl config.CacheConfig, search config.SearchConfig) *Service {
	if c == nil {
		c = cache.NewTTL[string, any](nil)
	}
	return &Service{api: api, cache: c, ttl: ttl, search: search}
}

func (s *Service) GetProducts(ctx context.Context, p Params) (domain.PagedResponse[domain.Product], error) {
	q := p.values()
	return cachedGet[domain.PagedResponse[domain.Product]](ctx, s, "products_"+q.Encode(), s.ttl.ProductsTTL,
		withQuery("/products", q), "Failed to fetch products")
}

func (s *Service) GetProductByID(ctx context.Context, id int64) (domain.Product, error) {
	return cachedGet[domain.Product](ctx, s, "product_"+strconv.FormatInt(id, 10), s.ttl.ProductTTL,
		"/products/"+strconv.FormatInt(id, 10), "Product not found")
}

func (s *Service) GetProductBySKU(ctx context.Context, sku string) (domain.Product, error) {
	return cachedGet[domain.Product](ctx, s, "product_sku_"+sku, s.ttl.ProductTTL,
		"/products/sku/"+url.PathEscape(sku), "Product not found")
}

func (s *Service) GetProductByExternalID(ctx context.Context, externalID int64) (domain.Product, error) {
	id := strconv.FormatInt(externalID, 10)
	return cachedGet[domain.Product](ctx, s, "product_ext_"+id, s.ttl.ProductTTL,
		"/products/external/"+id, "Product not found")
}

// SearchProducts routes to the fuzzy endpoint when p.Fuzzy is set.
func (s *Service) SearchProducts(ctx context.Context, p SearchParams) (domain.PagedResponse[domain.Product], error) {
	q := url.Values{}
	if p.Query != "" {
		q.Set("q", p.Query)
	}
	p.Params.appendTo(q)
	if p.Fuzzy {
		q.Set("fuzzy", "true")
	}
	endpoint := "/products/search"
	if p.Fuzzy {
		endpoint = "/products/search/fuzzy"
	}
	return cachedGet[domain.PagedResponse[domain.Product]](ctx, s, "search_"+q.Encode(), s.ttl.SearchTTL,
		withQuery(endpoint, q), "Search failed")
}

func (s *Service) SearchProductsByCategory(ctx context.Context, query, category string, p Params) (domain.PagedResponse[domain.Product], error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("category", category)
	p.appendTo(q)
	return get[domain.PagedResponse[domain.Product]](ctx, s, withQuery("/products/search/category", q), "Category search failed")
}

func (s *Service) SearchProductsByBrand(ctx context.Context, query, brand string, p Params) (domain.PagedResponse[domain.Product], error) {
	q := url.Values{}
	q.Set("q", query)
	q.Set("brand", brand)
	p.appendTo(q)
	return get[domain.PagedResponse[domain.Product]](ctx, s, withQuery("/products/search/brand", q), "Brand search failed")
}

// GetProductsByCategory lists one category server side.
func (s *Service) GetProductsByCategory(ctx context.Context, category string, p Params) (domain.PagedResponse[domain.Product], error) {
	q := p.values()
	return cachedGet[domain.PagedResponse[domain.Product]](ctx, s, "category_"+category+"_"+q.Encode(), s.ttl.ProductsTTL,
		withQuery("/products/category/"+url.PathEscape(category), q), "Failed to fetch products by category")
}

func (s *Service) GetProductsByBrand(ctx context.Context, brand string, p Params) (domain.PagedResponse[domain.Product], error) {
	q := p.values()
	return cachedGet[domain.PagedResponse[domain.Product]](ctx, s, "brand_"+brand+"_"+q.Encode(), s.ttl.ProductsTTL,
		withQuery("/products/brand/"+url.PathEscape(brand), q), "Failed to fetch products by brand")
}

// GetSearchSuggestions never fails: short queries and errors yield an empty list.
func (s *Service) GetSearchSuggestions(ctx context.Context, query string) BestEffort[[]string] {
	if utf8.RuneCountInString(query) < s.search.MinSearchLength {
		return BestEffort[[]string]{Value: []string{}}
	}
	q := url.Values{}
	q.Set("q", query)
	q.Set("limit", strconv.Itoa(s.search.SuggestionLimit))

	out, err := cachedGet[[]string](ctx, s, "suggestions_"+query, s.ttl.SuggestionsTTL,
		withQuery("/products/suggestions", q), "Suggestions unavailable")
	if err != nil {
		applog.Warn("suggestions.error", err, map[string]any{"q": query})
		return BestEffort[[]string]{Value: []string{}, Err: err}
	}
	if out == nil {
		out = []string{}
	}
	return BestEffort[[]string]{Value: out}
}

// LoadData asks the backend to bulk-load products and, on success, drops
// every cached response since any of them may now be stale.
func (s *Service) LoadData(ctx context.Context) (domain.DataLoadResult, error) {
	var env domain.Envelope[domain.DataLoadResult]
	if err := s.api.Post(ctx, "/data/load", nil, &env); err != nil {
		applog.Event("error", "products.load_data", err, nil)
		return domain.DataLoadResult{}, err
	}
	if env.Status != domain.StatusSuccess {
		return domain.DataLoadResult{}, &ServiceError{Op: "load data", Message: orDefault(env.Message, "Failed to load data")}
	}
	s.ClearCache()
	return env.Data, nil
}

// ClearData empties the backend catalog and the local cache.
func (s *Service) ClearData(ctx context.Context) error {
	var env domain.Envelope[any]
	if err := s.api.Delete(ctx, "/data/clear", &env); err != nil {
		return err
	}
	if env.Status != domain.StatusSuccess {
		return &ServiceError{Op: "clear data", Message: orDefault(env.Message, "Failed to clear data")}
	}
	s.ClearCache()
	return nil
}

func (s *Service) DataStatus(ctx context.Context) (domain.DataStatus, error) {
	return get[domain.DataStatus](ctx, s, "/data/status", "Failed to fetch data status")
}

// GetBrands projects the brands of up to 1000 products, deduplicated and sorted.
func (s *Service) GetBrands(ctx context.Context) BestEffort[[]string] {
	return s.distinct(ctx, "brands", func(p domain.Product) string { return p.Brand })
}

func (s *Service) GetCategories(ctx context.Context) BestEffort[[]string] {
	return s.distinct(ctx, "categories", func(p domain.Product) string { return p.Category })
}

func (s *Service) distinct(ctx context.Context, what string, field func(domain.Product) string) BestEffort[[]string] {
	page, err := s.GetProducts(ctx, Params{Size: Size(1000)})
	if err != nil {
		applog.Warn("products."+what+".error", err, nil)
		return BestEffort[[]string]{Value: []string{}, Err: err}
	}
	seen := make(map[string]struct{}, len(page.Content))
	out := []string{}
	for _, p := range page.Content {
		v := field(p)
		if v == "" {
			continue
		}
		if _, ok := seen[v]; ok {
			continue
		}
		seen[v] = struct{}{}
		out = append(out, v)
	}
	sort.Strings(out)
	return BestEffort[[]string]{Value: out}
}

func (s *Service) ClearCache() { s.cache.Clear() }

func (s *Service) CacheStats() CacheStats {
	keys := cache.SortedKeys(s.cache)
	return CacheStats{Size: len(keys), Keys: keys}
}

// cachedGet serves key from the cache or fetches path and stores the
// unwrapped data for ttl.
func cachedGet[T any](ctx context.Context, s *Service, key string, ttl time.Duration, path, failure string) (T, error) {
	if v, ok := s.cache.Get(key); ok {
		if data, ok := v.(T); ok {
			return data, nil
		}
	}
	data, err := get[T](ctx, s, path, failure)
	if err != nil {
		return data, err
	}
	s.cache.Set(key, data, ttl)
	return data, nil
}

func get[T any](ctx context.Context, s *Service, path, failure string) (T, error) {
	var env domain.Envelope[T]
	if err := s.api.Get(ctx, path, &env); err != nil {
		applog.Event("error", "products.fetch", err, map[string]any{"path": path})
		var zero T
		return zero, err
	}
	if env.Status != domain.StatusSuccess {
		var zero T
		return zero, &ServiceError{Op: "GET " + path, Message: orDefault(env.Message, failure)}
	}
	return env.Data, nil
}

// values encodes params in a fixed order so equal params give equal keys.
func (p Params) values() url.Values {
	q := url.Values{}
	p.appendTo(q)
	return q
}

func (p Params) appendTo(q url.Values) {
	if p.Page != nil {
		q.Set("page", strconv.Itoa(*p.Page))
	}
	if p.Size != nil {
		q.Set("size", strconv.Itoa(*p.Size))
	}
	if p.Sort != "" {
		q.Set("sort", p.Sort)
	}
	if p.Direction != "" {
		q.Set("direction", p.Direction)
	}
}

func withQuery(path string, q url.Values) string {
	if len(q) == 0 {
		return path
	}
	return path + "?" + q.Encode()
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
