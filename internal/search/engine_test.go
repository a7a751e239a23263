package search_test

import (
	"math"
	"testing"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	"storefront/internal/search"
)

func product(id int64, title, category, brand, price string, rating float64, created string) domain.Product {
	return domain.Product{
		ID:                 id,
		Title:              title,
		Category:           category,
		Brand:              brand,
		Price:              decimal.RequireFromString(price),
		Rating:             rating,
		AvailabilityStatus: "In Stock",
		CreatedAt:          created,
	}
}

func catalog() []domain.Product {
	return []domain.Product{
		product(1, "Phone X", "electronics", "Acme", "799.99", 4.5, "2024-01-05T10:00:00"),
		product(2, "Laptop Pro", "electronics", "Acme", "1299.00", 4.8, "2024-02-01T10:00:00"),
		product(3, "Desk Lamp", "furniture", "Glow", "39.50", 3.9, "2023-11-20T10:00:00"),
		product(4, "Headphones", "electronics", "Sonix", "199.00", 4.1, "2024-03-12T10:00:00"),
		product(5, "Armchair", "furniture", "Comfy", "450.00", 4.3, "2023-09-01T10:00:00"),
		product(6, "Mascara", "beauty", "Essence", "9.99", 2.8, "2024-04-01T10:00:00"),
		product(7, "Lipstick", "beauty", "Essence", "14.99", 3.5, "not a date"),
		product(8, "Tablet", "electronics", "Acme", "499.00", 3.2, "2024-05-01T10:00:00"),
		product(9, "Sofa", "furniture", "Comfy", "899.00", 4.6, "2022-06-15"),
		product(10, "Perfume", "fragrances", "Scent", "69.00", 4.0, "2024-06-06T10:00:00Z"),
	}
}

func ids(ps []domain.Product) []int64 {
	out := make([]int64, len(ps))
	for i, p := range ps {
		out[i] = p.ID
	}
	return out
}

func equalIDs(a, b []int64) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func TestFilterByCategory(t *testing.T) {
	got := search.Filter(catalog(), search.Filters{Category: search.Str("electronics")})
	if want := []int64{1, 2, 4, 8}; !equalIDs(ids(got), want) {
		t.Fatalf("electronics = %v, want %v", ids(got), want)
	}
}

func TestFilterConjunction(t *testing.T) {
	f := search.Filters{
		Category:  search.Str("electronics"),
		MinPrice:  search.Price("199.00"),
		MaxPrice:  search.Price("799.99"),
		MinRating: search.Rating(4.0),
	}
	got := search.Filter(catalog(), f)
	// price bounds and rating are inclusive
	if want := []int64{1, 4}; !equalIDs(ids(got), want) {
		t.Fatalf("got %v, want %v", ids(got), want)
	}
	for _, p := range got {
		if p.Category != "electronics" || p.Price.LessThan(*f.MinPrice) || p.Price.GreaterThan(*f.MaxPrice) || p.Rating < 4.0 {
			t.Fatalf("product %d violates a filter", p.ID)
		}
	}
}

func TestFilterEmptyKeepsEverything(t *testing.T) {
	if got := search.Filter(catalog(), search.Filters{}); len(got) != 10 {
		t.Fatalf("len = %d, want 10", len(got))
	}
	if got := search.Filter(nil, search.Filters{Brand: search.Str("Acme")}); len(got) != 0 {
		t.Fatalf("filtering nothing returned %d", len(got))
	}
}

func TestReplacingFiltersCanEnlargeView(t *testing.T) {
	narrow := search.Filter(catalog(), search.Filters{Brand: search.Str("Acme"), MinRating: search.Rating(4.6)})
	wide := search.Filter(catalog(), search.Filters{Brand: search.Str("Acme")})
	if len(narrow) != 1 || len(wide) != 3 {
		t.Fatalf("narrow=%v wide=%v", ids(narrow), ids(wide))
	}
}

func TestSortPriceBothDirections(t *testing.T) {
	asc := search.Sort(catalog(), search.SortOption{Field: search.SortPrice, Direction: search.Asc})
	if want := []int64{6, 7, 3, 10, 4, 5, 8, 1, 9, 2}; !equalIDs(ids(asc), want) {
		t.Fatalf("asc = %v", ids(asc))
	}
	desc := search.Sort(catalog(), search.SortOption{Field: search.SortPrice, Direction: search.Desc})
	if want := []int64{2, 9, 1, 8, 5, 4, 10, 3, 7, 6}; !equalIDs(ids(desc), want) {
		t.Fatalf("desc = %v", ids(desc))
	}
}

func TestSortTitleIgnoresCase(t *testing.T) {
	ps := []domain.Product{
		product(1, "banana", "x", "b", "1", 0, ""),
		product(2, "Apple", "x", "b", "1", 0, ""),
		product(3, "cherry", "x", "b", "1", 0, ""),
	}
	got := search.Sort(ps, search.DefaultSort)
	if want := []int64{2, 1, 3}; !equalIDs(ids(got), want) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSortCreatedAtUnparseableIsZero(t *testing.T) {
	got := search.Sort(catalog(), search.SortOption{Field: search.SortCreatedAt, Direction: search.Asc})
	if got[0].ID != 7 {
		t.Fatalf("first = %d, want the product with an invalid date", got[0].ID)
	}
	if got[1].ID != 9 {
		t.Fatalf("second = %d, want the date-only product", got[1].ID)
	}
	if got[len(got)-1].ID != 10 {
		t.Fatalf("last = %d, want newest", got[len(got)-1].ID)
	}
}

func TestSortIsStableAndIdempotent(t *testing.T) {
	ps := []domain.Product{
		product(1, "A", "x", "b", "5", 4, ""),
		product(2, "B", "x", "b", "1", 4, ""),
		product(3, "C", "x", "b", "3", 4, ""),
	}
	opt := search.SortOption{Field: search.SortRating, Direction: search.Desc}
	once := search.Sort(ps, opt)
	if want := []int64{1, 2, 3}; !equalIDs(ids(once), want) {
		t.Fatalf("equal keys reordered: %v", ids(once))
	}
	twice := search.Sort(once, opt)
	if !equalIDs(ids(once), ids(twice)) {
		t.Fatalf("not idempotent: %v vs %v", ids(once), ids(twice))
	}
}

func TestSortNaNRatingAsZero(t *testing.T) {
	ps := []domain.Product{
		product(1, "A", "x", "b", "1", 1.5, ""),
		product(2, "B", "x", "b", "1", math.NaN(), ""),
		product(3, "C", "x", "b", "1", 0.5, ""),
	}
	got := search.Sort(ps, search.SortOption{Field: search.SortRating, Direction: search.Asc})
	if want := []int64{2, 3, 1}; !equalIDs(ids(got), want) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestSortDoesNotMutateInput(t *testing.T) {
	in := catalog()
	_ = search.Sort(in, search.SortOption{Field: search.SortPrice, Direction: search.Desc})
	if in[0].ID != 1 || in[9].ID != 10 {
		t.Fatalf("input reordered: %v", ids(in))
	}
}

func TestDeriveView(t *testing.T) {
	got := search.DeriveView(catalog(),
		search.Filters{Category: search.Str("electronics")},
		search.SortOption{Field: search.SortRating, Direction: search.Desc})
	if want := []int64{2, 1, 4, 8}; !equalIDs(ids(got), want) {
		t.Fatalf("got %v", ids(got))
	}
}

func TestFiltersMergeNeverDrops(t *testing.T) {
	f := search.Filters{Brand: search.Str("Acme"), MinRating: search.Rating(4)}
	merged := f.Merge(search.Filters{Category: search.Str("electronics")})
	if merged.Brand == nil || merged.MinRating == nil || merged.Category == nil {
		t.Fatalf("merge lost a key: %+v", merged)
	}
	if merged = merged.Without(search.FilterBrand); merged.Brand != nil {
		t.Fatalf("Without kept brand")
	}
	if _, err := f.Set(search.FilterBrand, "  "); err == nil {
		t.Fatalf("empty value accepted")
	}
	if _, err := f.Set(search.FilterMinPrice, "abc"); err == nil {
		t.Fatalf("bad price accepted")
	}
	g, err := f.Set(search.FilterMaxPrice, "100.50")
	if err != nil || !g.MaxPrice.Equal(decimal.RequireFromString("100.5")) {
		t.Fatalf("set max price: %v %v", g.MaxPrice, err)
	}
}
