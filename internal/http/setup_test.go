package handlers_test

import (
	"bytes"
	"encoding/json"
	"io"
	"log"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/shopspring/decimal"

	"storefront/internal/apiclient"
	"storefront/internal/cache"
	"storefront/internal/config"
	"storefront/internal/domain"
	"storefront/internal/http/handlers"
	"storefront/internal/products"
	"storefront/internal/search"
	"storefront/internal/sessions"
)

func fixture() []domain.Product {
	mk := func(id int64, title, category, brand, price string, rating float64) domain.Product {
		return domain.Product{
			ID: id, Title: title, Category: category, Brand: brand,
			Price: decimal.RequireFromString(price), Rating: rating,
			SKU: "SKU-" + strconv.FormatInt(id, 10), AvailabilityStatus: "In Stock",
		}
	}
	return []domain.Product{
		mk(1, "Phone X", "electronics", "Acme", "799.99", 4.5),
		mk(2, "Laptop Pro", "electronics", "Acme", "1299.00", 4.8),
		mk(3, "Desk Lamp", "furniture", "Glow", "39.50", 3.9),
		mk(4, "Headphones", "electronics", "Sonix", "199.00", 4.1),
		mk(5, "Armchair", "furniture", "Comfy", "450.00", 4.3),
		mk(6, "Mascara", "beauty", "Essence", "9.99", 2.8),
		mk(7, "Lipstick", "beauty", "Essence", "14.99", 3.5),
		mk(8, "Tablet", "electronics", "Acme", "499.00", 3.2),
		mk(9, "Sofa", "furniture", "Comfy", "899.00", 4.6),
		mk(10, "Perfume", "fragrances", "Scent", "69.00", 4.0),
	}
}

// backend is a fake catalog API speaking the envelope format.
type backend struct {
	mu    sync.Mutex
	calls map[string]int
	srv   *httptest.Server
}

func newBackend(t *testing.T) *backend {
	t.Helper()
	b := &backend{calls: map[string]int{}}
	b.srv = httptest.NewServer(http.HandlerFunc(b.serve))
	t.Cleanup(b.srv.Close)
	return b
}

func (b *backend) count(kind string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[kind]
}

func (b *backend) hit(kind string) {
	b.mu.Lock()
	b.calls[kind]++
	b.mu.Unlock()
}

func envelope(w http.ResponseWriter, status int, data any, msg string) {
	env := map[string]any{"status": domain.StatusSuccess, "data": data, "timestamp": time.Now().UTC().Format(time.RFC3339)}
	if status >= 400 {
		env = map[string]any{"status": domain.StatusError, "message": msg}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(env)
}

func page(ps []domain.Product) domain.PagedResponse[domain.Product] {
	return domain.NewPage(ps, 0, 100, int64(len(ps)))
}

func (b *backend) serve(w http.ResponseWriter, r *http.Request) {
	path := strings.TrimPrefix(r.URL.Path, "/api/v1")
	all := fixture()
	switch {
	case r.Method == http.MethodPost && path == "/data/load":
		b.hit("load")
		envelope(w, 200, domain.DataLoadResult{Message: "Loaded", Count: len(all)}, "")
	case r.Method == http.MethodDelete && path == "/data/clear":
		b.hit("clear")
		envelope(w, 200, nil, "")
	case path == "/data/status":
		envelope(w, 200, domain.DataStatus{Status: "ready", Progress: 100, TotalProducts: int64(len(all))}, "")
	case path == "/products":
		b.hit("products")
		envelope(w, 200, page(all), "")
	case path == "/products/search":
		b.hit("search")
		q := strings.ToLower(r.URL.Query().Get("q"))
		var hits []domain.Product
		for _, p := range all {
			if strings.Contains(strings.ToLower(p.Title), q) {
				hits = append(hits, p)
			}
		}
		envelope(w, 200, page(hits), "")
	case path == "/products/suggestions":
		b.hit("suggestions")
		q := strings.ToLower(r.URL.Query().Get("q"))
		out := []string{}
		for _, p := range all {
			if strings.HasPrefix(strings.ToLower(p.Title), q) {
				out = append(out, p.Title)
			}
		}
		envelope(w, 200, out, "")
	case strings.HasPrefix(path, "/products/category/"):
		b.hit("category")
		name := strings.TrimPrefix(path, "/products/category/")
		if name == "broken" {
			envelope(w, 500, nil, "Internal error")
			return
		}
		var hits []domain.Product
		for _, p := range all {
			if p.Category == name {
				hits = append(hits, p)
			}
		}
		envelope(w, 200, page(hits), "")
	case strings.HasPrefix(path, "/products/sku/"):
		sku := strings.TrimPrefix(path, "/products/sku/")
		for _, p := range all {
			if p.SKU == sku {
				envelope(w, 200, p, "")
				return
			}
		}
		envelope(w, 404, nil, "Product not found with sku: "+sku)
	case strings.HasPrefix(path, "/products/"):
		b.hit("detail")
		id, _ := strconv.ParseInt(strings.TrimPrefix(path, "/products/"), 10, 64)
		for _, p := range all {
			if p.ID == id {
				envelope(w, 200, p, "")
				return
			}
		}
		envelope(w, 404, nil, "Product not found with id: "+strconv.FormatInt(id, 10))
	default:
		envelope(w, 404, nil, "not found")
	}
}

func testConfig(base string) config.Config {
	cfg := config.Defaults()
	cfg.API.BaseURL = base + "/api/v1"
	cfg.API.FallbackURL = ""
	cfg.API.RetryAttempts = 0
	cfg.API.Timeout = 2 * time.Second
	cfg.Search.DebounceDelay = 10 * time.Millisecond
	cfg.AdminToken = testAdminToken
	return cfg
}

const testAdminToken = "test-admin"

func newStorefront(t *testing.T, base string) (*fiber.App, *products.Service) {
	t.Helper()
	app, svc, _ := buildStorefront(t, base)
	return app, svc
}

func buildStorefront(t *testing.T, base string) (*fiber.App, *products.Service, *sessions.Registry) {
	t.Helper()
	cfg := testConfig(base)
	client := apiclient.New(cfg.API)
	svc := products.NewService(client, cache.NewTTL[string, any](nil), cfg.Cache, cfg.Search)
	reg := sessions.NewRegistry(nil, cfg.SessionIdle, func() *search.Store {
		return search.NewStore(svc, cfg.Search)
	})

	app := fiber.New(fiber.Config{ErrorHandler: handlers.ErrorHandler})
	app.Server().MaxRequestBodySize = 1 << 20
	app.Use(requestid.New())
	handlers.Mount(app, handlers.NewDeps(svc, reg, cfg))
	return app, svc, reg
}

// client keeps the sid cookie between requests like a browser would.
type client struct {
	t   *testing.T
	app *fiber.App
	sid string
	// admin, when set, is sent as X-Admin-Token
	admin string
}

func (c *client) do(method, path, body string) (*http.Response, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != "" {
		r = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, path, r)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.sid != "" {
		req.AddCookie(&http.Cookie{Name: "sid", Value: c.sid})
	}
	if c.admin != "" {
		req.Header.Set("X-Admin-Token", c.admin)
	}
	resp, err := c.app.Test(req, 5000)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	for _, ck := range resp.Cookies() {
		if ck.Name == "sid" {
			c.sid = ck.Value
		}
	}
	data, _ := io.ReadAll(resp.Body)
	return resp, data
}

func (c *client) state(method, path, body string) search.State {
	c.t.Helper()
	resp, data := c.do(method, path, body)
	if resp.StatusCode != http.StatusOK {
		c.t.Fatalf("%s %s: status %d body=%s", method, path, resp.StatusCode, data)
	}
	var st search.State
	if err := json.Unmarshal(data, &st); err != nil {
		c.t.Fatalf("decode state: %v body=%s", err, data)
	}
	return st
}

type logLine struct {
	Level  string         `json:"level"`
	Action string         `json:"action"`
	Fields map[string]any `json:"fields"`
}

type lockedBuf struct {
	b  *bytes.Buffer
	mu *sync.Mutex
}

func (l *lockedBuf) Write(p []byte) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.b.Write(p)
}

func captureLogs(t *testing.T, fn func()) []logLine {
	t.Helper()
	var buf bytes.Buffer
	var mu sync.Mutex
	oldW := log.Writer()
	oldFlags := log.Flags()
	log.SetOutput(&lockedBuf{b: &buf, mu: &mu})
	log.SetFlags(0)
	defer func() {
		log.SetOutput(oldW)
		log.SetFlags(oldFlags)
	}()

	fn()

	var entries []logLine
	for _, line := range strings.Split(strings.TrimSpace(buf.String()), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		var e logLine
		if err := json.Unmarshal([]byte(line), &e); err == nil {
			entries = append(entries, e)
		}
	}
	return entries
}
