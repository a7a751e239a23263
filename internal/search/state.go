package search

import "storefront/internal/domain"

type Pagination struct {
	Page          int   `json:"page"`
	Size          int   `json:"size"`
	TotalElements int64 `json:"totalElements"`
	TotalPages    int   `json:"totalPages"`
}

// PaginationDelta merges into Pagination; nil fields are left alone.
type PaginationDelta struct {
	Page          *int   `json:"page,omitempty"`
	Size          *int   `json:"size,omitempty"`
	TotalElements *int64 `json:"totalElements,omitempty"`
	TotalPages    *int   `json:"totalPages,omitempty"`
}

// PageOf copies the paging numbers of a server response.
func PageOf[T any](r domain.PagedResponse[T]) PaginationDelta {
	return PaginationDelta{Page: &r.Page, Size: &r.Size, TotalElements: &r.TotalElements, TotalPages: &r.TotalPages}
}

// State is everything the product search screen shows.
type State struct {
	Products         []domain.Product `json:"products"`
	FilteredProducts []domain.Product `json:"filteredProducts"`
	Loading          bool             `json:"loading"`
	Error            *string          `json:"error"`
	SearchQuery      string           `json:"searchQuery"`
	Filters          Filters          `json:"filters"`
	SortOption       SortOption       `json:"sortOption"`
	Pagination       Pagination       `json:"pagination"`
	Suggestions      []string         `json:"suggestions"`
}

func InitialState(pageSize int) State {
	return State{
		Products:         []domain.Product{},
		FilteredProducts: []domain.Product{},
		SortOption:       DefaultSort,
		Pagination:       Pagination{Page: 0, Size: pageSize},
		Suggestions:      []string{},
	}
}

// Action is a closed set of state transitions. Each variant is a distinct
// type so merging and replacing filters can't be confused.
type Action interface {
	isAction()
}

type (
	SetLoading          struct{ Loading bool }
	SetError            struct{ Err *string } // nil clears
	SetProducts         struct{ Products []domain.Product }
	SetFilteredProducts struct{ Products []domain.Product }
	SetSearchQuery      struct{ Query string }
	ApplyFilters        struct{ Delta Filters }
	ReplaceFilters      struct{ Filters Filters }
	SetSortOption       struct{ Option SortOption }
	SetPagination       struct{ Delta PaginationDelta }
	SetSuggestions      struct{ Suggestions []string }
	ClearSearch         struct{}
	ResetState          struct{}
)

func (SetLoading) isAction()          {}
func (SetError) isAction()            {}
func (SetProducts) isAction()         {}
func (SetFilteredProducts) isAction() {}
func (SetSearchQuery) isAction()      {}
func (ApplyFilters) isAction()        {}
func (ReplaceFilters) isAction()      {}
func (SetSortOption) isAction()       {}
func (SetPagination) isAction()       {}
func (SetSuggestions) isAction()      {}
func (ClearSearch) isAction()         {}
func (ResetState) isAction()          {}

// Reduce is the only way State changes. initial is what ResetState restores.
func Reduce(s State, a Action, initial State) State {
	switch a := a.(type) {
	case SetLoading:
		s.Loading = a.Loading
	case SetError:
		// an error ends any in-flight load
		s.Error = a.Err
		s.Loading = false
	case SetProducts:
		s.Products = nonNil(a.Products)
		s.Error = nil
		s.Loading = false
	case SetFilteredProducts:
		s.FilteredProducts = nonNil(a.Products)
	case SetSearchQuery:
		s.SearchQuery = a.Query
	case ApplyFilters:
		s.Filters = s.Filters.Merge(a.Delta)
	case ReplaceFilters:
		s.Filters = a.Filters
	case SetSortOption:
		s.SortOption = a.Option
	case SetPagination:
		s.Pagination = mergePagination(s.Pagination, a.Delta)
	case SetSuggestions:
		s.Suggestions = a.Suggestions
		if s.Suggestions == nil {
			s.Suggestions = []string{}
		}
	case ClearSearch:
		// the view is reset to the raw list without re-filtering
		s.SearchQuery = ""
		s.Suggestions = []string{}
		s.FilteredProducts = s.Products
	case ResetState:
		return initial
	}
	return s
}

func mergePagination(p Pagination, d PaginationDelta) Pagination {
	if d.Page != nil {
		p.Page = *d.Page
	}
	if d.Size != nil {
		p.Size = *d.Size
	}
	if d.TotalElements != nil {
		p.TotalElements = *d.TotalElements
	}
	if d.TotalPages != nil {
		p.TotalPages = *d.TotalPages
	}
	return p
}

func nonNil(ps []domain.Product) []domain.Product {
	if ps == nil {
		return []domain.Product{}
	}
	return ps
}

// touchesView reports whether a changes products, filters or sort, the
// inputs of DeriveView.
func touchesView(a Action) bool {
	switch a.(type) {
	case SetProducts, ApplyFilters, ReplaceFilters, SetSortOption:
		return true
	}
	return false
}
