package services

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/shopspring/decimal"

	"storefront/internal/domain"
	applog "storefront/internal/log"
	"storefront/internal/repos"
)

const batchSize = 50

var ErrLoadInProgress = errors.New("Data loading is already in progress")

// Source fetches JSON from the external product feed. apiclient.Client
// satisfies it; absolute URLs bypass its base URL.
type Source interface {
	Get(ctx context.Context, path string, out any) error
}

// DataLoadService copies the external feed into the catalog database and
// reports progress while it does.
type DataLoadService struct {
	Prods     *repos.ProductRepo
	src       Source
	sourceURL string

	mu     sync.Mutex
	status domain.DataStatus
}

func NewDataLoadService(prods *repos.ProductRepo, src Source, sourceURL string) *DataLoadService {
	return &DataLoadService{
		Prods:     prods,
		src:       src,
		sourceURL: sourceURL,
		status:    domain.DataStatus{Status: "Not started"},
	}
}

type feedResponse struct {
	Products []feedProduct `json:"products"`
	Total    int           `json:"total"`
}

type feedProduct struct {
	ID                   int64              `json:"id"`
	Title                string             `json:"title"`
	Description          string             `json:"description"`
	Category             string             `json:"category"`
	Price                decimal.Decimal    `json:"price"`
	DiscountPercentage   *float64           `json:"discountPercentage"`
	Rating               float64            `json:"rating"`
	Stock                int                `json:"stock"`
	Tags                 []string           `json:"tags"`
	Brand                string             `json:"brand"`
	SKU                  string             `json:"sku"`
	Weight               *float64           `json:"weight"`
	Dimensions           *domain.Dimensions `json:"dimensions"`
	WarrantyInformation  string             `json:"warrantyInformation"`
	ShippingInformation  string             `json:"shippingInformation"`
	AvailabilityStatus   string             `json:"availabilityStatus"`
	Reviews              []feedReview       `json:"reviews"`
	ReturnPolicy         string             `json:"returnPolicy"`
	MinimumOrderQuantity *int               `json:"minimumOrderQuantity"`
	Meta                 *domain.Meta       `json:"meta"`
	Images               []string           `json:"images"`
	Thumbnail            string             `json:"thumbnail"`
}

type feedReview struct {
	Rating        float64 `json:"rating"`
	Comment       string  `json:"comment"`
	Date          string  `json:"date"`
	ReviewerName  string  `json:"reviewerName"`
	ReviewerEmail string  `json:"reviewerEmail"`
}

func (f feedProduct) product() domain.Product {
	p := domain.Product{
		ExternalID:           f.ID,
		Title:                f.Title,
		Description:          f.Description,
		Category:             f.Category,
		Price:                f.Price,
		DiscountPercentage:   f.DiscountPercentage,
		Rating:               f.Rating,
		Stock:                f.Stock,
		Tags:                 f.Tags,
		Brand:                f.Brand,
		SKU:                  f.SKU,
		Weight:               f.Weight,
		Dimensions:           f.Dimensions,
		WarrantyInformation:  f.WarrantyInformation,
		ShippingInformation:  f.ShippingInformation,
		AvailabilityStatus:   f.AvailabilityStatus,
		ReturnPolicy:         f.ReturnPolicy,
		MinimumOrderQuantity: f.MinimumOrderQuantity,
		Meta:                 f.Meta,
		Images:               f.Images,
		Thumbnail:            f.Thumbnail,
	}
	for _, r := range f.Reviews {
		p.Reviews = append(p.Reviews, domain.Review{
			Rating:        r.Rating,
			Comment:       r.Comment,
			ReviewDate:    r.Date,
			ReviewerName:  r.ReviewerName,
			ReviewerEmail: r.ReviewerEmail,
		})
	}
	return p
}

// begin marks a load as running. It fails if one already is.
func (s *DataLoadService) begin() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.status.Loading {
		return ErrLoadInProgress
	}
	s.status.Loading = true
	s.status.Progress = 0
	s.status.Status = "Starting data load..."
	return nil
}

func (s *DataLoadService) finish(status string, progress int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Loading = false
	s.status.Status = status
	s.status.Progress = progress
}

func (s *DataLoadService) progress(status string, pct int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.status.Status = status
	s.status.Progress = pct
}

// LoadAll fetches every product from the feed and upserts them by external
// id in batches. Running it twice leaves the database unchanged.
func (s *DataLoadService) LoadAll(ctx context.Context) (domain.DataLoadResult, error) {
	if err := s.begin(); err != nil {
		return domain.DataLoadResult{}, err
	}

	var feed feedResponse
	if err := s.src.Get(ctx, s.sourceURL, &feed); err != nil {
		s.finish("Failed: "+err.Error(), 0)
		applog.Event("error", "data.load.fetch", err, map[string]any{"url": s.sourceURL})
		return domain.DataLoadResult{}, fmt.Errorf("fetch products: %w", err)
	}
	if len(feed.Products) == 0 {
		s.finish("Completed successfully", 100)
		return domain.DataLoadResult{Message: "No products to load", Count: 0}, nil
	}

	s.progress("Processing "+strconv.Itoa(len(feed.Products))+" products...", 10)
	var created, updated int
	for start := 0; start < len(feed.Products); start += batchSize {
		end := min(start+batchSize, len(feed.Products))
		batch := make([]domain.Product, 0, end-start)
		for _, fp := range feed.Products[start:end] {
			batch = append(batch, fp.product())
		}
		c, u, err := s.Prods.UpsertAll(batch)
		if err != nil {
			s.finish("Failed: "+err.Error(), 0)
			applog.Event("error", "data.load.upsert", err, map[string]any{"batch_start": start})
			return domain.DataLoadResult{}, fmt.Errorf("save products: %w", err)
		}
		created += c
		updated += u
		s.progress("Processed "+strconv.Itoa(end)+" of "+strconv.Itoa(len(feed.Products)), 10+end*90/len(feed.Products))
	}

	s.finish("Completed successfully", 100)
	total := created + updated
	applog.Event("info", "data.load.done", nil, map[string]any{"created": created, "updated": updated})
	return domain.DataLoadResult{
		Message: fmt.Sprintf("Successfully loaded %d products (%d new, %d updated)", total, created, updated),
		Count:   total,
	}, nil
}

// LoadOne fetches a single feed product by its external id and upserts it.
func (s *DataLoadService) LoadOne(ctx context.Context, externalID int64) (domain.DataLoadResult, error) {
	u, err := productURL(s.sourceURL, externalID)
	if err != nil {
		return domain.DataLoadResult{}, err
	}
	var fp feedProduct
	if err := s.src.Get(ctx, u, &fp); err != nil {
		return domain.DataLoadResult{}, fmt.Errorf("fetch product %d: %w", externalID, err)
	}
	created, _, err := s.Prods.UpsertAll([]domain.Product{fp.product()})
	if err != nil {
		return domain.DataLoadResult{}, fmt.Errorf("save product %d: %w", externalID, err)
	}
	verb := "updated"
	if created == 1 {
		verb = "created"
	}
	return domain.DataLoadResult{Message: "Product " + verb + " successfully", Count: 1}, nil
}

// productURL turns the feed list URL into the URL of one of its items:
// https://host/products?limit=0 becomes https://host/products/7.
func productURL(list string, id int64) (string, error) {
	u, err := url.Parse(list)
	if err != nil {
		return "", fmt.Errorf("parse source url: %w", err)
	}
	u.RawQuery = ""
	u.Path = strings.TrimSuffix(u.Path, "/") + "/" + strconv.FormatInt(id, 10)
	return u.String(), nil
}

// Clear deletes every product and reports how many were removed.
func (s *DataLoadService) Clear() (domain.DataLoadResult, error) {
	n, err := s.Prods.DeleteAll()
	if err != nil {
		return domain.DataLoadResult{}, err
	}
	s.mu.Lock()
	s.status.Status = "Database cleared"
	s.mu.Unlock()
	return domain.DataLoadResult{Message: fmt.Sprintf("Successfully cleared %d products", n), Count: int(n)}, nil
}

func (s *DataLoadService) Status() (domain.DataStatus, error) {
	s.mu.Lock()
	st := s.status
	s.mu.Unlock()
	n, err := s.Prods.Count()
	if err != nil {
		return st, err
	}
	st.TotalProducts = n
	return st, nil
}
