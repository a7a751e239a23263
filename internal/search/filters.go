package search

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

type FilterKey string

const (
	FilterBrand              FilterKey = "brand"
	FilterCategory           FilterKey = "category"
	FilterMinPrice           FilterKey = "minPrice"
	FilterMaxPrice           FilterKey = "maxPrice"
	FilterMinRating          FilterKey = "minRating"
	FilterAvailabilityStatus FilterKey = "availabilityStatus"
)

var FilterKeys = []FilterKey{
	FilterBrand, FilterCategory, FilterMinPrice, FilterMaxPrice, FilterMinRating, FilterAvailabilityStatus,
}

// Filters is sparse: a nil field means no constraint. A set field is never
// empty; use Without to drop a constraint.
type Filters struct {
	Brand              *string          `json:"brand,omitempty"`
	Category           *string          `json:"category,omitempty"`
	MinPrice           *decimal.Decimal `json:"minPrice,omitempty"`
	MaxPrice           *decimal.Decimal `json:"maxPrice,omitempty"`
	MinRating          *float64         `json:"minRating,omitempty"`
	AvailabilityStatus *string          `json:"availabilityStatus,omitempty"`
}

// Merge returns f with every field set in delta overriding f. Fields unset
// in delta are kept, so Merge can add or change constraints but never drop one.
func (f Filters) Merge(delta Filters) Filters {
	if delta.Brand != nil {
		f.Brand = delta.Brand
	}
	if delta.Category != nil {
		f.Category = delta.Category
	}
	if delta.MinPrice != nil {
		f.MinPrice = delta.MinPrice
	}
	if delta.MaxPrice != nil {
		f.MaxPrice = delta.MaxPrice
	}
	if delta.MinRating != nil {
		f.MinRating = delta.MinRating
	}
	if delta.AvailabilityStatus != nil {
		f.AvailabilityStatus = delta.AvailabilityStatus
	}
	return f
}

func (f Filters) Without(key FilterKey) Filters {
	switch key {
	case FilterBrand:
		f.Brand = nil
	case FilterCategory:
		f.Category = nil
	case FilterMinPrice:
		f.MinPrice = nil
	case FilterMaxPrice:
		f.MaxPrice = nil
	case FilterMinRating:
		f.MinRating = nil
	case FilterAvailabilityStatus:
		f.AvailabilityStatus = nil
	}
	return f
}

// Set parses raw for key. Empty values are rejected.
func (f Filters) Set(key FilterKey, raw string) (Filters, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return f, fmt.Errorf("filter %s: empty value", key)
	}
	switch key {
	case FilterBrand:
		f.Brand = &raw
	case FilterCategory:
		f.Category = &raw
	case FilterAvailabilityStatus:
		f.AvailabilityStatus = &raw
	case FilterMinPrice, FilterMaxPrice:
		d, err := decimal.NewFromString(raw)
		if err != nil {
			return f, fmt.Errorf("filter %s: %w", key, err)
		}
		if key == FilterMinPrice {
			f.MinPrice = &d
		} else {
			f.MaxPrice = &d
		}
	case FilterMinRating:
		r, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return f, fmt.Errorf("filter %s: %w", key, err)
		}
		f.MinRating = &r
	default:
		return f, fmt.Errorf("unknown filter %q", key)
	}
	return f, nil
}

// Valid reports whether no set string field is empty.
func (f Filters) Valid() bool {
	for _, s := range []*string{f.Brand, f.Category, f.AvailabilityStatus} {
		if s != nil && strings.TrimSpace(*s) == "" {
			return false
		}
	}
	return true
}

func (f Filters) Empty() bool {
	return f == Filters{}
}

// Equal compares by value, not by pointer identity.
func (f Filters) Equal(o Filters) bool {
	return eqStr(f.Brand, o.Brand) && eqStr(f.Category, o.Category) &&
		eqDec(f.MinPrice, o.MinPrice) && eqDec(f.MaxPrice, o.MaxPrice) &&
		eqFloat(f.MinRating, o.MinRating) && eqStr(f.AvailabilityStatus, o.AvailabilityStatus)
}

func eqStr(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

func eqDec(a, b *decimal.Decimal) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func eqFloat(a, b *float64) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}

// Str, Price and Rating build filter fields inline.
func Str(s string) *string { return &s }

func Price(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func Rating(r float64) *float64 { return &r }
