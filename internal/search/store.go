package search

import (
	"context"
	"errors"
	"sync"
	"unicode/utf8"

	"storefront/internal/apiclient"
	"storefront/internal/config"
	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/products"
)

// Catalog is what the store needs from the product service.
type Catalog interface {
	GetProducts(ctx context.Context, p products.Params) (domain.PagedResponse[domain.Product], error)
	GetProductsByCategory(ctx context.Context, category string, p products.Params) (domain.PagedResponse[domain.Product], error)
	SearchProducts(ctx context.Context, p products.SearchParams) (domain.PagedResponse[domain.Product], error)
	GetSearchSuggestions(ctx context.Context, query string) products.BestEffort[[]string]
	LoadData(ctx context.Context) (domain.DataLoadResult, error)
}

// perCategoryLimit caps how many products one category contributes to a
// multi-category load.
const perCategoryLimit = 100

// Store owns one State. Every change goes through Dispatch, which re-derives
// FilteredProducts whenever products, filters or sort change.
//
// Fetches are fenced: each primary load and each suggestion lookup takes a
// generation number, and a result that arrives after a newer request started
// is dropped instead of overwriting fresher state.
type Store struct {
	mu         sync.Mutex
	state      State
	initial    State
	catalog    Catalog
	cfg        config.SearchConfig
	fetchGen   uint64
	suggestGen uint64
	debounce   *Debouncer
}

func NewStore(catalog Catalog, cfg config.SearchConfig) *Store {
	initial := InitialState(cfg.DefaultPageSize)
	return &Store{
		state:    initial,
		initial:  initial,
		catalog:  catalog,
		cfg:      cfg,
		debounce: NewDebouncer(cfg.DebounceDelay),
	}
}

// Snapshot returns the current state. Product slices are shared and must
// not be modified.
func (s *Store) Snapshot() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Store) Dispatch(actions ...Action) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(actions...)
}

func (s *Store) apply(actions ...Action) {
	for _, a := range actions {
		s.state = Reduce(s.state, a, s.initial)
		if touchesView(a) {
			s.state.FilteredProducts = DeriveView(s.state.Products, s.state.Filters, s.state.SortOption)
		}
	}
}

// begin starts a primary fetch and returns its generation.
func (s *Store) begin(actions ...Action) uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchGen++
	s.apply(append([]Action{SetLoading{Loading: true}}, actions...)...)
	return s.fetchGen
}

// commit applies actions only if gen is still the latest fetch.
func (s *Store) commit(gen uint64, op string, actions ...Action) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.fetchGen {
		applog.Debug("search.stale", map[string]any{"op": op, "gen": gen, "current": s.fetchGen})
		return false
	}
	s.apply(actions...)
	return true
}

func (s *Store) fail(gen uint64, op string, err error, fallback string) {
	applog.Event("error", "search."+op, err, nil)
	msg := errorMessage(err, fallback)
	s.commit(gen, op, SetError{Err: &msg})
}

// SearchProducts runs a server-side text search. Queries shorter than the
// minimum search length are ignored. Filters are left as they are.
func (s *Store) SearchProducts(ctx context.Context, query string, fuzzy bool) {
	if utf8.RuneCountInString(query) < s.cfg.MinSearchLength {
		return
	}
	size := s.Snapshot().Pagination.Size
	gen := s.begin(SetSearchQuery{Query: query})

	resp, err := s.catalog.SearchProducts(ctx, products.SearchParams{
		Query:  query,
		Params: products.Params{Page: products.Page(0), Size: products.Size(size)},
		Fuzzy:  fuzzy,
	})
	if err != nil {
		s.fail(gen, "search", err, "Search failed")
		return
	}
	s.commit(gen, "search", SetProducts{Products: resp.Content}, SetPagination{Delta: PageOf(resp)})
}

// LoadProducts fetches one page of the whole catalog, sorted server side by
// the active sort option. size <= 0 means the default page size.
func (s *Store) LoadProducts(ctx context.Context, page, size int) {
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	sortOpt := s.Snapshot().SortOption
	gen := s.begin()

	resp, err := s.catalog.GetProducts(ctx, products.Params{
		Page: products.Page(page), Size: products.Size(size),
		Sort: string(sortOpt.Field), Direction: string(sortOpt.Direction),
	})
	if err != nil {
		s.fail(gen, "load", err, "Failed to load products")
		return
	}
	s.commit(gen, "load", SetProducts{Products: resp.Content}, SetPagination{Delta: PageOf(resp)})
}

func (s *Store) LoadProductsByCategory(ctx context.Context, category string, page, size int) {
	if size <= 0 {
		size = s.cfg.DefaultPageSize
	}
	sortOpt := s.Snapshot().SortOption
	gen := s.begin()

	resp, err := s.catalog.GetProductsByCategory(ctx, category, products.Params{
		Page: products.Page(page), Size: products.Size(size),
		Sort: string(sortOpt.Field), Direction: string(sortOpt.Direction),
	})
	if err != nil {
		s.fail(gen, "category", err, "Failed to load products by category")
		return
	}
	s.commit(gen, "category", SetProducts{Products: resp.Content}, SetPagination{Delta: PageOf(resp)})
}

// LoadProductsByCategories fetches each category in turn, one request at a
// time, and merges the results as a single page. A failing category is
// logged and skipped. Duplicates are dropped by product id, first one wins.
func (s *Store) LoadProductsByCategories(ctx context.Context, categories []string) {
	gen := s.begin(SetError{Err: nil}, SetLoading{Loading: true})

	seen := make(map[int64]struct{})
	unique := []domain.Product{}
	for _, category := range categories {
		resp, err := s.catalog.GetProductsByCategory(ctx, category, products.Params{
			Page: products.Page(0), Size: products.Size(perCategoryLimit),
			Sort: string(SortTitle), Direction: string(Asc),
		})
		if err != nil {
			applog.Warn("search.category.failed", err, map[string]any{"category": category})
			continue
		}
		for _, p := range resp.Content {
			if _, dup := seen[p.ID]; dup {
				continue
			}
			seen[p.ID] = struct{}{}
			unique = append(unique, p)
		}
	}

	n := len(unique)
	total := int64(n)
	zero, one := 0, 1
	s.commit(gen, "categories",
		SetProducts{Products: unique},
		SetPagination{Delta: PaginationDelta{Page: &zero, Size: &n, TotalElements: &total, TotalPages: &one}},
	)
}

// SetFilters merges delta into the active filters. A delta that changes
// nothing leaves the view as it is.
func (s *Store) SetFilters(delta Filters) error {
	if !delta.Valid() {
		return errors.New("filters: empty value")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state.Filters.Merge(delta).Equal(s.state.Filters) {
		return nil
	}
	s.apply(ApplyFilters{Delta: delta})
	return nil
}

// SetFilter parses raw for a single key and merges it in.
func (s *Store) SetFilter(key FilterKey, raw string) error {
	delta, err := Filters{}.Set(key, raw)
	if err != nil {
		return err
	}
	return s.SetFilters(delta)
}

// ReplaceFilters overwrites the active filters; it is the only way to drop a key.
func (s *Store) ReplaceFilters(f Filters) error {
	if !f.Valid() {
		return errors.New("filters: empty value")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if f.Equal(s.state.Filters) {
		return nil
	}
	s.apply(ReplaceFilters{Filters: f})
	return nil
}

func (s *Store) RemoveFilter(key FilterKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.apply(ReplaceFilters{Filters: s.state.Filters.Without(key)})
}

func (s *Store) SetSortOption(opt SortOption) {
	s.Dispatch(SetSortOption{Option: opt})
}

// GetSuggestions always ends with a suggestion list, empty on failure.
func (s *Store) GetSuggestions(ctx context.Context, query string) {
	s.mu.Lock()
	s.suggestGen++
	gen := s.suggestGen
	s.mu.Unlock()

	res := s.catalog.GetSearchSuggestions(ctx, query)
	if res.Degraded() {
		applog.Warn("search.suggestions.failed", res.Err, map[string]any{"q": query})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if gen != s.suggestGen {
		return
	}
	s.apply(SetSuggestions{Suggestions: res.Value})
}

// SuggestDebounced schedules GetSuggestions after the debounce delay. A new
// call before the delay passes replaces the pending one.
func (s *Store) SuggestDebounced(query string) {
	s.debounce.Trigger(func() {
		s.GetSuggestions(context.Background(), query)
	})
}

// LoadData triggers the backend bulk load, then reloads the first page.
func (s *Store) LoadData(ctx context.Context) {
	gen := s.begin()
	if _, err := s.catalog.LoadData(ctx); err != nil {
		s.fail(gen, "load_data", err, "Failed to load data")
		return
	}
	s.LoadProducts(ctx, 0, 0)
}

// ClearSearch drops the query and suggestions and shows the raw products
// again, without reapplying filters.
func (s *Store) ClearSearch() {
	s.Dispatch(ClearSearch{})
}

// ResetState restores the initial state. Fetches still in flight are
// discarded when they return.
func (s *Store) ResetState() {
	s.debounce.Stop()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.fetchGen++
	s.suggestGen++
	s.apply(ResetState{})
}

// Close stops any pending debounced call.
func (s *Store) Close() { s.debounce.Stop() }

func errorMessage(err error, fallback string) string {
	var apiErr *apiclient.Error
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message
	}
	var svcErr *products.ServiceError
	if errors.As(err, &svcErr) && svcErr.Message != "" {
		return svcErr.Message
	}
	if err != nil && err.Error() != "" {
		return err.Error()
	}
	return fallback
}
