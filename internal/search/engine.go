package search

import (
	"sort"
	"strings"
	"time"

	"storefront/internal/domain"
)

// DeriveView is the filtered-and-sorted projection of products. It is pure
// and always computed from scratch.
func DeriveView(products []domain.Product, f Filters, opt SortOption) []domain.Product {
	return Sort(Filter(products, f), opt)
}

// Filter keeps the products that satisfy every set constraint. Order is kept.
func Filter(products []domain.Product, f Filters) []domain.Product {
	out := make([]domain.Product, 0, len(products))
	for _, p := range products {
		if matches(p, f) {
			out = append(out, p)
		}
	}
	return out
}

func matches(p domain.Product, f Filters) bool {
	if f.Brand != nil && p.Brand != *f.Brand {
		return false
	}
	if f.Category != nil && p.Category != *f.Category {
		return false
	}
	if f.MinPrice != nil && p.Price.LessThan(*f.MinPrice) {
		return false
	}
	if f.MaxPrice != nil && p.Price.GreaterThan(*f.MaxPrice) {
		return false
	}
	if f.MinRating != nil && p.Rating < *f.MinRating {
		return false
	}
	if f.AvailabilityStatus != nil && p.AvailabilityStatus != *f.AvailabilityStatus {
		return false
	}
	return true
}

// Sort returns a sorted copy. The sort is stable: products with equal keys
// keep their input order, there is no secondary key.
func Sort(products []domain.Product, opt SortOption) []domain.Product {
	out := make([]domain.Product, len(products))
	copy(out, products)
	cmp := comparator(opt.Field)
	desc := opt.Direction == Desc
	sort.SliceStable(out, func(i, j int) bool {
		c := cmp(out[i], out[j])
		if desc {
			return c > 0
		}
		return c < 0
	})
	return out
}

func comparator(field SortField) func(a, b domain.Product) int {
	switch field {
	case SortPrice:
		return func(a, b domain.Product) int { return a.Price.Cmp(b.Price) }
	case SortRating:
		return func(a, b domain.Product) int { return cmpFloat(a.Rating, b.Rating) }
	case SortCreatedAt:
		return func(a, b domain.Product) int { return cmpInt(epochMillis(a.CreatedAt), epochMillis(b.CreatedAt)) }
	default:
		return func(a, b domain.Product) int {
			return strings.Compare(strings.ToLower(textField(a, field)), strings.ToLower(textField(b, field)))
		}
	}
}

func textField(p domain.Product, field SortField) string {
	switch field {
	case SortBrand:
		return p.Brand
	case SortCategory:
		return p.Category
	case "sku":
		return p.SKU
	case "availabilityStatus":
		return p.AvailabilityStatus
	default:
		return p.Title
	}
}

func cmpFloat(a, b float64) int {
	// NaN sorts as zero
	if a != a {
		a = 0
	}
	if b != b {
		b = 0
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

func cmpInt(a, b int64) int {
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

var timestampLayouts = []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05", "2006-01-02"}

// epochMillis parses an ISO-8601 timestamp; anything unparseable is 0.
func epochMillis(s string) int64 {
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t.UnixMilli()
		}
	}
	return 0
}
