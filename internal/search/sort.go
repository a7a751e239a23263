package search

type SortField string

const (
	SortTitle     SortField = "title"
	SortPrice     SortField = "price"
	SortRating    SortField = "rating"
	SortCreatedAt SortField = "createdAt"
	SortBrand     SortField = "brand"
	SortCategory  SortField = "category"
)

type Direction string

const (
	Asc  Direction = "asc"
	Desc Direction = "desc"
)

type SortOption struct {
	Field     SortField `json:"field"`
	Direction Direction `json:"direction"`
	Label     string    `json:"label"`
}

var DefaultSort = SortOption{Field: SortTitle, Direction: Asc, Label: "Title (A-Z)"}

// SortOptions is the catalogue offered to shoppers.
var SortOptions = []SortOption{
	DefaultSort,
	{Field: SortTitle, Direction: Desc, Label: "Title (Z-A)"},
	{Field: SortPrice, Direction: Asc, Label: "Price (Low to High)"},
	{Field: SortPrice, Direction: Desc, Label: "Price (High to Low)"},
	{Field: SortRating, Direction: Desc, Label: "Rating (High to Low)"},
	{Field: SortRating, Direction: Asc, Label: "Rating (Low to High)"},
	{Field: SortCreatedAt, Direction: Desc, Label: "Newest First"},
	{Field: SortCreatedAt, Direction: Asc, Label: "Oldest First"},
}

// LookupSort finds the catalogue entry for field and direction.
func LookupSort(field SortField, dir Direction) (SortOption, bool) {
	for _, o := range SortOptions {
		if o.Field == field && o.Direction == dir {
			return o, true
		}
	}
	return SortOption{}, false
}
