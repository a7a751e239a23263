package domain

import "github.com/shopspring/decimal"

func init() {
	// prices travel as JSON numbers on the wire
	decimal.MarshalJSONWithoutQuotes = true
}

// Product is a catalog item as served by the backend. Once fetched it is
// treated as immutable.
type Product struct {
	ID                   int64           `json:"id"`
	ExternalID           int64           `json:"externalId"`
	Title                string          `json:"title"`
	Description          string          `json:"description"`
	Category             string          `json:"category"`
	Price                decimal.Decimal `json:"price"`
	DiscountPercentage   *float64        `json:"discountPercentage,omitempty"`
	Rating               float64         `json:"rating"`
	Stock                int             `json:"stock"`
	Tags                 []string        `json:"tags"`
	Brand                string          `json:"brand"`
	SKU                  string          `json:"sku"`
	Weight               *float64        `json:"weight,omitempty"`
	WarrantyInformation  string          `json:"warrantyInformation,omitempty"`
	ShippingInformation  string          `json:"shippingInformation,omitempty"`
	AvailabilityStatus   string          `json:"availabilityStatus"`
	ReturnPolicy         string          `json:"returnPolicy,omitempty"`
	MinimumOrderQuantity *int            `json:"minimumOrderQuantity,omitempty"`
	Images               []string        `json:"images"`
	Thumbnail            string          `json:"thumbnail"`
	Dimensions           *Dimensions     `json:"dimensions,omitempty"`
	Meta                 *Meta           `json:"meta,omitempty"`
	Reviews              []Review        `json:"reviews,omitempty"`
	CreatedAt            string          `json:"createdAt"`
	UpdatedAt            string          `json:"updatedAt"`
}

type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
	Depth  float64 `json:"depth"`
}

type Meta struct {
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
	Barcode   string `json:"barcode,omitempty"`
	QRCode    string `json:"qrCode,omitempty"`
}

type Review struct {
	ID            int64   `json:"id,omitempty"`
	Rating        float64 `json:"rating"`
	Comment       string  `json:"comment"`
	ReviewDate    string  `json:"reviewDate"` // ISO-8601
	ReviewerName  string  `json:"reviewerName"`
	ReviewerEmail string  `json:"reviewerEmail"`
}

// PagedResponse is one server page of results.
type PagedResponse[T any] struct {
	Content          []T   `json:"content"`
	Page             int   `json:"page"`
	Size             int   `json:"size"`
	TotalElements    int64 `json:"totalElements"`
	TotalPages       int   `json:"totalPages"`
	First            bool  `json:"first"`
	Last             bool  `json:"last"`
	NumberOfElements int   `json:"numberOfElements"`
	Empty            bool  `json:"empty"`
}

// NewPage fills the derived page flags from the content and totals.
func NewPage[T any](content []T, page, size int, total int64) PagedResponse[T] {
	if content == nil {
		content = []T{}
	}
	pages := 0
	if size > 0 {
		pages = int((total + int64(size) - 1) / int64(size))
	}
	return PagedResponse[T]{
		Content:          content,
		Page:             page,
		Size:             size,
		TotalElements:    total,
		TotalPages:       pages,
		First:            page == 0,
		Last:             page >= pages-1,
		NumberOfElements: len(content),
		Empty:            len(content) == 0,
	}
}

const (
	StatusSuccess = "success"
	StatusError   = "error"
)

// Envelope wraps every backend JSON response.
type Envelope[T any] struct {
	Status    string `json:"status"`
	Message   string `json:"message"`
	Data      T      `json:"data"`
	Timestamp string `json:"timestamp"`
	Path      string `json:"path"`
}

type DataLoadResult struct {
	Message string `json:"message"`
	Count   int    `json:"count"`
}

// DataStatus reports the backend's bulk-load progress.
type DataStatus struct {
	Loading       bool   `json:"loading"`
	Status        string `json:"status"`
	Progress      int    `json:"progress"`
	TotalProducts int64  `json:"totalProducts"`
}
