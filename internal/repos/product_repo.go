package repos

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"storefront/internal/domain"
)

type ProductRepo struct{ db *sqlx.DB }

func NewProductRepo(db *sqlx.DB) *ProductRepo { return &ProductRepo{db: db} }

// Sort orders a listing. Unknown fields fall back to title.
type Sort struct {
	Field string
	Desc  bool
}

var sortColumns = map[string]string{
	"id":        "id",
	"title":     "LOWER(title)",
	"price":     "CAST(price AS REAL)",
	"rating":    "rating",
	"createdAt": "created_at",
	"brand":     "LOWER(brand)",
	"category":  "LOWER(category)",
	"stock":     "stock",
}

func (s Sort) orderBy() string {
	col, ok := sortColumns[s.Field]
	if !ok {
		col = sortColumns["title"]
	}
	dir := "ASC"
	if s.Desc {
		dir = "DESC"
	}
	return col + " " + dir + ", id ASC"
}

const productColumns = `
    id, external_id, title, description, category, price, discount_percentage, rating, stock,
    tags_json, brand, sku, weight, warranty_information, shipping_information,
    availability_status, return_policy, minimum_order_quantity, images_json, thumbnail,
    dimensions_json, meta_json, reviews_json,
    COALESCE(created_at,'') AS created_at, COALESCE(updated_at,'') AS updated_at`

type productRow struct {
	ID                   int64           `db:"id"`
	ExternalID           sql.NullInt64   `db:"external_id"`
	Title                string          `db:"title"`
	Description          string          `db:"description"`
	Category             string          `db:"category"`
	Price                decimal.Decimal `db:"price"`
	DiscountPercentage   sql.NullFloat64 `db:"discount_percentage"`
	Rating               float64         `db:"rating"`
	Stock                int             `db:"stock"`
	TagsJSON             string          `db:"tags_json"`
	Brand                string          `db:"brand"`
	SKU                  string          `db:"sku"`
	Weight               sql.NullFloat64 `db:"weight"`
	WarrantyInformation  string          `db:"warranty_information"`
	ShippingInformation  string          `db:"shipping_information"`
	AvailabilityStatus   string          `db:"availability_status"`
	ReturnPolicy         string          `db:"return_policy"`
	MinimumOrderQuantity sql.NullInt64   `db:"minimum_order_quantity"`
	ImagesJSON           string          `db:"images_json"`
	Thumbnail            string          `db:"thumbnail"`
	DimensionsJSON       sql.NullString  `db:"dimensions_json"`
	MetaJSON             sql.NullString  `db:"meta_json"`
	ReviewsJSON          string          `db:"reviews_json"`
	CreatedAt            string          `db:"created_at"`
	UpdatedAt            string          `db:"updated_at"`
}

func (r productRow) product() domain.Product {
	p := domain.Product{
		ID:                  r.ID,
		ExternalID:          r.ExternalID.Int64,
		Title:               r.Title,
		Description:         r.Description,
		Category:            r.Category,
		Price:               r.Price,
		Rating:              r.Rating,
		Stock:               r.Stock,
		Brand:               r.Brand,
		SKU:                 r.SKU,
		WarrantyInformation: r.WarrantyInformation,
		ShippingInformation: r.ShippingInformation,
		AvailabilityStatus:  r.AvailabilityStatus,
		ReturnPolicy:        r.ReturnPolicy,
		Thumbnail:           r.Thumbnail,
		CreatedAt:           r.CreatedAt,
		UpdatedAt:           r.UpdatedAt,
		Tags:                []string{},
		Images:              []string{},
	}
	if r.DiscountPercentage.Valid {
		v := r.DiscountPercentage.Float64
		p.DiscountPercentage = &v
	}
	if r.Weight.Valid {
		v := r.Weight.Float64
		p.Weight = &v
	}
	if r.MinimumOrderQuantity.Valid {
		v := int(r.MinimumOrderQuantity.Int64)
		p.MinimumOrderQuantity = &v
	}
	// malformed JSON columns read as empty
	_ = json.Unmarshal([]byte(r.TagsJSON), &p.Tags)
	_ = json.Unmarshal([]byte(r.ImagesJSON), &p.Images)
	_ = json.Unmarshal([]byte(r.ReviewsJSON), &p.Reviews)
	if r.DimensionsJSON.Valid {
		var d domain.Dimensions
		if json.Unmarshal([]byte(r.DimensionsJSON.String), &d) == nil {
			p.Dimensions = &d
		}
	}
	if r.MetaJSON.Valid {
		var m domain.Meta
		if json.Unmarshal([]byte(r.MetaJSON.String), &m) == nil {
			p.Meta = &m
		}
	}
	return p
}

func toProducts(rows []productRow) []domain.Product {
	out := make([]domain.Product, len(rows))
	for i, r := range rows {
		out[i] = r.product()
	}
	return out
}

// page runs a filtered, sorted and paged listing and counts all matches.
func (r *ProductRepo) page(where string, args []any, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	if where == "" {
		where = "1=1"
	}
	var total int64
	if err := r.db.Get(&total, `SELECT COUNT(*) FROM products WHERE `+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count products: %w", err)
	}
	var rows []productRow
	q := `SELECT ` + productColumns + `
  FROM products
  WHERE ` + where + `
  ORDER BY ` + s.orderBy() + `
  LIMIT ? OFFSET ?`
	if err := r.db.Select(&rows, q, append(args, limit, offset)...); err != nil {
		return nil, 0, fmt.Errorf("list products: %w", err)
	}
	return toProducts(rows), total, nil
}

func (r *ProductRepo) List(s Sort, limit, offset int) ([]domain.Product, int64, error) {
	return r.page("", nil, s, limit, offset)
}

func (r *ProductRepo) ListByCategory(category string, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	return r.page(`LOWER(category) = LOWER(?)`, []any{category}, s, limit, offset)
}

func (r *ProductRepo) ListByBrand(brand string, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	return r.page(`LOWER(brand) = LOWER(?)`, []any{brand}, s, limit, offset)
}

// textMatch matches one term against the searchable text columns.
const textMatch = `(LOWER(title) LIKE ? ESCAPE '\' OR LOWER(description) LIKE ? ESCAPE '\' OR LOWER(brand) LIKE ? ESCAPE '\' OR LOWER(category) LIKE ? ESCAPE '\' OR LOWER(tags_json) LIKE ? ESCAPE '\')`

func termArgs(term string) []any {
	like := "%" + escapeLike(strings.ToLower(term)) + "%"
	return []any{like, like, like, like, like}
}

// Search matches q as one substring. An empty q matches everything.
func (r *ProductRepo) Search(q string, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return r.List(s, limit, offset)
	}
	return r.page(textMatch, termArgs(q), s, limit, offset)
}

// SearchFuzzy matches any word of q, and tolerates a wrong ending on longer
// words by also matching their leading characters.
func (r *ProductRepo) SearchFuzzy(q string, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	terms := fuzzyTerms(q)
	if len(terms) == 0 {
		return r.List(s, limit, offset)
	}
	clauses := make([]string, 0, len(terms))
	var args []any
	for _, t := range terms {
		clauses = append(clauses, textMatch)
		args = append(args, termArgs(t)...)
	}
	return r.page(strings.Join(clauses, " OR "), args, s, limit, offset)
}

func fuzzyTerms(q string) []string {
	seen := map[string]bool{}
	var out []string
	add := func(t string) {
		if t != "" && !seen[t] {
			seen[t] = true
			out = append(out, t)
		}
	}
	for _, w := range strings.Fields(strings.ToLower(q)) {
		add(w)
		if n := len([]rune(w)); n >= 5 {
			add(string([]rune(w)[:n-2]))
		}
	}
	return out
}

func (r *ProductRepo) SearchInCategory(q, category string, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	where := `LOWER(category) = LOWER(?)`
	args := []any{category}
	if q = strings.TrimSpace(q); q != "" {
		where += ` AND ` + textMatch
		args = append(args, termArgs(q)...)
	}
	return r.page(where, args, s, limit, offset)
}

func (r *ProductRepo) SearchInBrand(q, brand string, s Sort, limit, offset int) ([]domain.Product, int64, error) {
	where := `LOWER(brand) = LOWER(?)`
	args := []any{brand}
	if q = strings.TrimSpace(q); q != "" {
		where += ` AND ` + textMatch
		args = append(args, termArgs(q)...)
	}
	return r.page(where, args, s, limit, offset)
}

// Get returns sql.ErrNoRows when id is unknown; so do the other lookups.
func (r *ProductRepo) Get(id int64) (domain.Product, error) {
	return r.one(`id = ?`, id)
}

func (r *ProductRepo) GetBySKU(sku string) (domain.Product, error) {
	return r.one(`sku = ?`, sku)
}

func (r *ProductRepo) GetByExternalID(externalID int64) (domain.Product, error) {
	return r.one(`external_id = ?`, externalID)
}

func (r *ProductRepo) one(where string, arg any) (domain.Product, error) {
	var row productRow
	err := r.db.Get(&row, `SELECT `+productColumns+` FROM products WHERE `+where+` LIMIT 1`, arg)
	if err != nil {
		return domain.Product{}, err
	}
	return row.product(), nil
}

// Suggestions returns distinct titles containing partial, alphabetically.
func (r *ProductRepo) Suggestions(partial string, limit int) ([]string, error) {
	out := []string{}
	err := r.db.Select(&out, `
  SELECT DISTINCT title FROM products
  WHERE LOWER(title) LIKE ? ESCAPE '\'
  ORDER BY title ASC
  LIMIT ?`, "%"+escapeLike(strings.ToLower(strings.TrimSpace(partial)))+"%", limit)
	return out, err
}

func (r *ProductRepo) Categories() ([]string, error) {
	return r.distinct("category")
}

func (r *ProductRepo) Brands() ([]string, error) {
	return r.distinct("brand")
}

func (r *ProductRepo) distinct(col string) ([]string, error) {
	out := []string{}
	err := r.db.Select(&out, `SELECT DISTINCT `+col+` FROM products WHERE `+col+` <> '' ORDER BY `+col)
	return out, err
}

func (r *ProductRepo) Count() (int64, error) {
	var n int64
	err := r.db.Get(&n, `SELECT COUNT(*) FROM products`)
	return n, err
}

// UpsertAll inserts or updates products by external id in one transaction.
func (r *ProductRepo) UpsertAll(ps []domain.Product) (created, updated int, err error) {
	tx, err := r.db.Beginx()
	if err != nil {
		return 0, 0, err
	}
	defer func() { _ = tx.Rollback() }()

	now := time.Now().UTC().Format(timestampLayout)
	for _, p := range ps {
		var exists int
		if err := tx.Get(&exists, `SELECT COUNT(*) FROM products WHERE external_id = ?`, p.ExternalID); err != nil {
			return 0, 0, fmt.Errorf("check product %d: %w", p.ExternalID, err)
		}
		if _, err := tx.NamedExec(upsertSQL, rowArgs(p, now)); err != nil {
			return 0, 0, fmt.Errorf("upsert product %d: %w", p.ExternalID, err)
		}
		if exists > 0 {
			updated++
		} else {
			created++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, 0, err
	}
	return created, updated, nil
}

const upsertSQL = `
INSERT INTO products(
  external_id, title, description, category, price, discount_percentage, rating, stock,
  tags_json, brand, sku, weight, warranty_information, shipping_information,
  availability_status, return_policy, minimum_order_quantity, images_json, thumbnail,
  dimensions_json, meta_json, reviews_json, created_at, updated_at
) VALUES (
  :external_id, :title, :description, :category, :price, :discount_percentage, :rating, :stock,
  :tags_json, :brand, :sku, :weight, :warranty_information, :shipping_information,
  :availability_status, :return_policy, :minimum_order_quantity, :images_json, :thumbnail,
  :dimensions_json, :meta_json, :reviews_json, :created_at, :updated_at
)
ON CONFLICT(external_id) DO UPDATE SET
  title = excluded.title, description = excluded.description, category = excluded.category,
  price = excluded.price, discount_percentage = excluded.discount_percentage,
  rating = excluded.rating, stock = excluded.stock, tags_json = excluded.tags_json,
  brand = excluded.brand, sku = excluded.sku, weight = excluded.weight,
  warranty_information = excluded.warranty_information,
  shipping_information = excluded.shipping_information,
  availability_status = excluded.availability_status, return_policy = excluded.return_policy,
  minimum_order_quantity = excluded.minimum_order_quantity, images_json = excluded.images_json,
  thumbnail = excluded.thumbnail, dimensions_json = excluded.dimensions_json,
  meta_json = excluded.meta_json, reviews_json = excluded.reviews_json,
  updated_at = :now`

const timestampLayout = "2006-01-02T15:04:05"

func rowArgs(p domain.Product, now string) map[string]any {
	jsonText := func(v any) string {
		b, err := json.Marshal(v)
		if err != nil {
			return "null"
		}
		return string(b)
	}
	nullJSON := func(v any, present bool) any {
		if !present {
			return nil
		}
		return jsonText(v)
	}
	tags, images, reviews := p.Tags, p.Images, p.Reviews
	if tags == nil {
		tags = []string{}
	}
	if images == nil {
		images = []string{}
	}
	if reviews == nil {
		reviews = []domain.Review{}
	}
	created := p.CreatedAt
	if created == "" && p.Meta != nil {
		created = p.Meta.CreatedAt
	}
	if created == "" {
		created = now
	}
	var updatedAt any
	if p.Meta != nil && p.Meta.UpdatedAt != "" {
		updatedAt = p.Meta.UpdatedAt
	}
	return map[string]any{
		"external_id":            p.ExternalID,
		"title":                  p.Title,
		"description":            p.Description,
		"category":               p.Category,
		"price":                  p.Price.String(),
		"discount_percentage":    deref(p.DiscountPercentage),
		"rating":                 p.Rating,
		"stock":                  p.Stock,
		"tags_json":              jsonText(tags),
		"brand":                  p.Brand,
		"sku":                    p.SKU,
		"weight":                 deref(p.Weight),
		"warranty_information":   p.WarrantyInformation,
		"shipping_information":   p.ShippingInformation,
		"availability_status":    p.AvailabilityStatus,
		"return_policy":          p.ReturnPolicy,
		"minimum_order_quantity": deref(p.MinimumOrderQuantity),
		"images_json":            jsonText(images),
		"thumbnail":              p.Thumbnail,
		"dimensions_json":        nullJSON(p.Dimensions, p.Dimensions != nil),
		"meta_json":              nullJSON(p.Meta, p.Meta != nil),
		"reviews_json":           jsonText(reviews),
		"created_at":             created,
		"updated_at":             updatedAt,
		"now":                    now,
	}
}

// deref turns an optional field into NULL or its value.
func deref[T any](p *T) any {
	if p == nil {
		return nil
	}
	return *p
}

func (r *ProductRepo) DeleteAll() (int64, error) {
	res, err := r.db.Exec(`DELETE FROM products`)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}
