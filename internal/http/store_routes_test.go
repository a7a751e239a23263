package handlers_test

import (
	"encoding/json"
	"net/http"
	"strings"
	"testing"
	"time"

	"storefront/internal/search"
)

func TestStateStartsEmptyAndIssuesSession(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	st := c.state("GET", "/api/state", "")
	if c.sid == "" {
		t.Fatal("no sid cookie issued")
	}
	if len(st.Products) != 0 || st.SortOption != search.DefaultSort || st.Pagination.Size != 12 {
		t.Fatalf("initial state = %+v", st)
	}
	sid := c.sid
	c.state("GET", "/api/state", "")
	if c.sid != sid {
		t.Fatal("sid rotated for a live session")
	}
}

func TestFilterAndSortFlow(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	st := c.state("POST", "/api/products/load", `{"page":0,"size":20}`)
	if len(st.Products) != 10 || len(st.FilteredProducts) != 10 {
		t.Fatalf("loaded %d/%d", len(st.Products), len(st.FilteredProducts))
	}

	st = c.state("PATCH", "/api/filters", `{"category":"electronics"}`)
	if len(st.FilteredProducts) != 4 {
		t.Fatalf("electronics = %d, want 4", len(st.FilteredProducts))
	}
	st = c.state("PATCH", "/api/filters", `{"minRating":4}`)
	if len(st.FilteredProducts) != 3 || st.Filters.Category == nil {
		t.Fatalf("merged filters = %+v, view %d", st.Filters, len(st.FilteredProducts))
	}

	// replacing drops the category constraint and widens the view
	st = c.state("PUT", "/api/filters", `{"minRating":4}`)
	if len(st.FilteredProducts) != 6 || st.Filters.Category != nil {
		t.Fatalf("replaced filters = %+v, view %d", st.Filters, len(st.FilteredProducts))
	}

	st = c.state("PUT", "/api/sort", `{"field":"price","direction":"desc"}`)
	if st.FilteredProducts[0].ID != 2 || st.SortOption.Label != "Price (High to Low)" {
		t.Fatalf("sorted first = %d label %q", st.FilteredProducts[0].ID, st.SortOption.Label)
	}

	st = c.state("DELETE", "/api/filters/minRating", "")
	if len(st.FilteredProducts) != 10 || !st.Filters.Empty() {
		t.Fatalf("after remove: %+v", st.Filters)
	}
	if len(st.Products) != 10 {
		t.Fatal("filtering changed the product list")
	}
}

func TestSessionsAreIsolated(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	alice := &client{t: t, app: app}
	bob := &client{t: t, app: app}

	alice.state("POST", "/api/products/load", `{}`)
	bob.state("POST", "/api/products/load", `{}`)
	alice.state("PATCH", "/api/filters", `{"brand":"Acme"}`)

	if st := bob.state("GET", "/api/state", ""); st.Filters.Brand != nil || len(st.FilteredProducts) != 10 {
		t.Fatalf("bob sees alice's filters: %+v", st.Filters)
	}
	if alice.sid == bob.sid {
		t.Fatal("shared sid")
	}
}

func TestSearchShortQueryIsIgnored(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	st := c.state("POST", "/api/search", `{"query":"la"}`)
	if be.count("search") != 0 || st.SearchQuery != "" {
		t.Fatalf("short query searched: calls=%d q=%q", be.count("search"), st.SearchQuery)
	}

	st = c.state("POST", "/api/search", `{"query":"lamp"}`)
	if st.SearchQuery != "lamp" || len(st.Products) != 1 || st.Products[0].ID != 3 {
		t.Fatalf("search state: q=%q products=%d", st.SearchQuery, len(st.Products))
	}

	st = c.state("POST", "/api/clear", "")
	if st.SearchQuery != "" || len(st.FilteredProducts) != 1 {
		t.Fatalf("after clear: q=%q view=%d", st.SearchQuery, len(st.FilteredProducts))
	}
}

func TestSuggestionsSynchronous(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	var out struct {
		Suggestions []string `json:"suggestions"`
	}
	_, body := c.do("GET", "/api/suggestions?q=ph", "")
	_ = json.Unmarshal(body, &out)
	if len(out.Suggestions) != 0 || be.count("suggestions") != 0 {
		t.Fatalf("short query: %v calls=%d", out.Suggestions, be.count("suggestions"))
	}

	_, body = c.do("GET", "/api/suggestions?q=pho", "")
	_ = json.Unmarshal(body, &out)
	if len(out.Suggestions) != 1 || out.Suggestions[0] != "Phone X" {
		t.Fatalf("suggestions = %v", out.Suggestions)
	}
}

func TestSuggestDebounced(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	for _, q := range []string{"p", "ph", "pho"} {
		resp, _ := c.do("POST", "/api/suggest", `{"query":"`+q+`"}`)
		if resp.StatusCode != http.StatusAccepted {
			t.Fatalf("suggest status %d", resp.StatusCode)
		}
	}

	deadline := time.Now().Add(2 * time.Second)
	var st search.State
	for time.Now().Before(deadline) {
		if st = c.state("GET", "/api/state", ""); len(st.Suggestions) > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	if len(st.Suggestions) != 1 || st.Suggestions[0] != "Phone X" {
		t.Fatalf("suggestions = %v", st.Suggestions)
	}
	if n := be.count("suggestions"); n != 1 {
		t.Fatalf("backend suggestion calls = %d, want 1", n)
	}
}

func TestLoadCategoriesSkipsFailingOne(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	st := c.state("POST", "/api/categories/load", `{"categories":["furniture","broken","electronics"]}`)
	if len(st.Products) != 7 {
		t.Fatalf("merged = %d, want 7", len(st.Products))
	}
	if st.Pagination.TotalPages != 1 || st.Pagination.TotalElements != 7 || st.Pagination.Size != 7 {
		t.Fatalf("pagination = %+v", st.Pagination)
	}
	if st.Error != nil {
		t.Fatalf("error surfaced: %s", *st.Error)
	}
	if be.count("category") != 3 {
		t.Fatalf("category calls = %d", be.count("category"))
	}

	st = c.state("GET", "/api/category/beauty?page=0&size=5", "")
	if len(st.Products) != 2 {
		t.Fatalf("beauty = %d", len(st.Products))
	}
}

func TestProductDetail(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	resp, body := c.do("GET", "/api/products/1", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Phone X") {
		t.Fatalf("detail: %d %s", resp.StatusCode, body)
	}
	// second lookup is served from the cache
	c.do("GET", "/api/products/1", "")
	if be.count("detail") != 1 {
		t.Fatalf("detail calls = %d, want 1", be.count("detail"))
	}

	resp, body = c.do("GET", "/api/products/999", "")
	if resp.StatusCode != http.StatusNotFound || !strings.Contains(string(body), "no longer available") {
		t.Fatalf("missing product: %d %s", resp.StatusCode, body)
	}
	resp, _ = c.do("GET", "/api/products/abc", "")
	if resp.StatusCode != http.StatusNotFound {
		t.Fatalf("bad id: %d", resp.StatusCode)
	}

	resp, body = c.do("GET", "/api/products/sku/SKU-4", "")
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), "Headphones") {
		t.Fatalf("sku: %d %s", resp.StatusCode, body)
	}
}

func TestBrandsAndCategories(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	var brands struct {
		Brands []string `json:"brands"`
	}
	_, body := c.do("GET", "/api/brands", "")
	_ = json.Unmarshal(body, &brands)
	want := []string{"Acme", "Comfy", "Essence", "Glow", "Scent", "Sonix"}
	if strings.Join(brands.Brands, ",") != strings.Join(want, ",") {
		t.Fatalf("brands = %v", brands.Brands)
	}

	var cats struct {
		Categories []string `json:"categories"`
	}
	_, body = c.do("GET", "/api/categories", "")
	_ = json.Unmarshal(body, &cats)
	if strings.Join(cats.Categories, ",") != "beauty,electronics,fragrances,furniture" {
		t.Fatalf("categories = %v", cats.Categories)
	}
	// both lists come from one cached projection
	if be.count("products") != 1 {
		t.Fatalf("products calls = %d", be.count("products"))
	}
}

func TestDataLoadInvalidatesCache(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	c.state("POST", "/api/products/load", `{}`)
	c.state("POST", "/api/products/load", `{}`)
	if be.count("products") != 1 {
		t.Fatalf("second load not cached: %d", be.count("products"))
	}

	st := c.state("POST", "/api/data/load", "")
	if be.count("load") != 1 || be.count("products") != 2 {
		t.Fatalf("load=%d products=%d", be.count("load"), be.count("products"))
	}
	if len(st.Products) != 10 {
		t.Fatalf("products after load = %d", len(st.Products))
	}

	var stats struct {
		Size int      `json:"size"`
		Keys []string `json:"keys"`
	}
	_, body := c.do("GET", "/api/cache", "")
	_ = json.Unmarshal(body, &stats)
	if stats.Size != 1 || !strings.HasPrefix(stats.Keys[0], "products_") {
		t.Fatalf("cache = %+v", stats)
	}

	c.admin = testAdminToken
	resp, _ := c.do("DELETE", "/api/data", "")
	if resp.StatusCode != http.StatusNoContent || be.count("clear") != 1 {
		t.Fatalf("clear: %d calls=%d", resp.StatusCode, be.count("clear"))
	}
}

func TestResetRestoresDefaults(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	c := &client{t: t, app: app}

	c.state("POST", "/api/products/load", `{}`)
	c.state("PUT", "/api/sort", `{"field":"rating","direction":"desc"}`)
	st := c.state("POST", "/api/reset", "")
	if len(st.Products) != 0 || st.SortOption != search.DefaultSort {
		t.Fatalf("reset = %+v", st)
	}
}

func TestBackendDown(t *testing.T) {
	be := newBackend(t)
	app, _ := newStorefront(t, be.srv.URL)
	be.srv.Close()
	c := &client{t: t, app: app}

	st := c.state("POST", "/api/products/load", `{}`)
	if st.Error == nil || st.Loading {
		t.Fatalf("expected error state, got loading=%v err=%v", st.Loading, st.Error)
	}

	resp, body := c.do("GET", "/api/products/1", "")
	if resp.StatusCode != http.StatusBadGateway {
		t.Fatalf("detail with backend down: %d %s", resp.StatusCode, body)
	}

	var brands struct {
		Brands []string `json:"brands"`
	}
	resp, body = c.do("GET", "/api/brands", "")
	_ = json.Unmarshal(body, &brands)
	if resp.StatusCode != http.StatusOK || brands.Brands == nil || len(brands.Brands) != 0 {
		t.Fatalf("brands degraded: %d %s", resp.StatusCode, body)
	}
}
