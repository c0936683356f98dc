package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/rubiojr/catalog/pkg/storage/memory"
	"github.com/rubiojr/catalog/pkg/version"
)

func setupTestAPIServer(t *testing.T, store *memory.Store, opts ...Option) (*Server, *httptest.Server) {
	t.Helper()
	if store == nil {
		store = memory.Demo()
	}
	srv := NewServer(search.New(store, catalog.DefaultSchema()), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func getJSON(t *testing.T, url string, out any) *http.Response {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatalf("GET %s: %v", url, err)
	}
	defer func() { _ = resp.Body.Close() }()
	if out != nil {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			t.Fatalf("decoding %s: %v", url, err)
		}
	}
	return resp
}

func TestHandleProducts(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	tests := []struct {
		name    string
		query   string
		ids     []string
		total   int
		hasMore bool
	}{
		{"all published", "", []string{"p3", "p2", "p1"}, 3, false},
		{"sku", "?q=X-100", []string{"p1"}, 1, false},
		{"category alias and vendor", "?q=vendor-a&cat=5", []string{"p1"}, 1, false},
		{"category slug", "?category=storage", []string{"p3"}, 1, false},
		{"paged", "?paged=1&per_page=2", []string{"p3", "p2"}, 3, true},
		{"second page", "?page=2&page_size=2", []string{"p1"}, 3, false},
		{"non numeric page", "?page=abc&page_size=2", []string{"p3", "p2"}, 3, true},
		{"unknown field", "?q=rack&field=colour", []string{}, 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var body search.Response
			resp := getJSON(t, ts.URL+"/api/products"+tt.query, &body)
			if resp.StatusCode != http.StatusOK {
				t.Fatalf("status = %d", resp.StatusCode)
			}

			ids := make([]string, 0, len(body.Rows))
			for _, r := range body.Rows {
				ids = append(ids, string(r.ID))
			}
			if strings.Join(ids, ",") != strings.Join(tt.ids, ",") {
				t.Errorf("ids = %v, want %v", ids, tt.ids)
			}
			if body.Total != tt.total {
				t.Errorf("total = %d, want %d", body.Total, tt.total)
			}
			if body.HasMore != tt.hasMore {
				t.Errorf("has_more = %v, want %v", body.HasMore, tt.hasMore)
			}
		})
	}
}

func TestHandleProductsStoreUnavailable(t *testing.T) {
	store := memory.Demo()
	store.FailWith(errors.New("database is locked"))
	_, ts := setupTestAPIServer(t, store)

	var body ErrorResponse
	resp := getJSON(t, ts.URL+"/api/products?q=rack", &body)
	if resp.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("status = %d, want 503", resp.StatusCode)
	}
	if resp.Header.Get("Retry-After") == "" {
		t.Error("missing Retry-After")
	}
	if !body.Retryable {
		t.Error("expected retryable error")
	}
}

func TestHandleProductRows(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	var body RowsResponse
	resp := getJSON(t, ts.URL+"/api/rows?q=rack&sort=sku", &body)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if got := strings.Count(body.Rows, "<tr "); got != 2 {
		t.Errorf("rendered %d rows, want 2", got)
	}
	if strings.Index(body.Rows, `data-id="p1"`) > strings.Index(body.Rows, `data-id="p2"`) {
		t.Error("rows not in sku order")
	}
	if body.Total != 2 || body.HasMore || body.Page != 1 {
		t.Errorf("unexpected paging fields: %+v", body)
	}
}

func TestHandleProduct(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	var detail struct {
		ID     string `json:"id"`
		Title  string `json:"title"`
		Fields []struct {
			Name  string  `json:"name"`
			Value *string `json:"value"`
		} `json:"fields"`
	}
	resp := getJSON(t, ts.URL+"/api/products/p1", &detail)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if detail.Title != "Rack unit" {
		t.Errorf("title = %q", detail.Title)
	}
	owner := ""
	for _, f := range detail.Fields {
		if f.Name == "product_owner" && f.Value != nil {
			owner = *f.Value
		}
	}
	if owner != "Jane Doe" {
		t.Errorf("owner = %q, want Jane Doe", owner)
	}

	var errBody ErrorResponse
	resp = getJSON(t, ts.URL+"/api/products/missing", &errBody)
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp.StatusCode)
	}
	if errBody.Retryable {
		t.Error("not found must not be retryable")
	}
}

func TestHandleProductPage(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	resp, err := http.Get(ts.URL + "/products/p1")
	if err != nil {
		t.Fatal(err)
	}
	defer func() { _ = resp.Body.Close() }()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/html") {
		t.Errorf("content type = %q", ct)
	}

	resp404, err := http.Get(ts.URL + "/products/nope")
	if err != nil {
		t.Fatal(err)
	}
	_ = resp404.Body.Close()
	if resp404.StatusCode != http.StatusNotFound {
		t.Errorf("status = %d, want 404", resp404.StatusCode)
	}
}

func TestHandleCategoriesAndSchema(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	var cats []catalog.Category
	getJSON(t, ts.URL+"/api/categories", &cats)
	if len(cats) != 2 || cats[0].Slug != "servers" {
		t.Errorf("categories = %+v", cats)
	}

	var schema SchemaResponse
	getJSON(t, ts.URL+"/api/schema", &schema)
	if len(schema.Attributes) != catalog.DefaultSchema().Len() {
		t.Errorf("got %d attributes", len(schema.Attributes))
	}
	if len(schema.Columns) == 0 || schema.Columns[0] != catalog.AttrInternalSKU {
		t.Errorf("columns = %v", schema.Columns)
	}
}

func TestHandleHealth(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	var health HealthResponse
	resp := getJSON(t, ts.URL+"/health", &health)
	if resp.StatusCode != http.StatusOK || health.Status != "ok" {
		t.Errorf("health = %d %+v", resp.StatusCode, health)
	}
	if health.Version != version.Version || health.API != version.API {
		t.Errorf("health versions = %q %q", health.Version, health.API)
	}
}

func TestGzip(t *testing.T) {
	store := memory.New()
	memory.Bulk(store, 200)
	_, ts := setupTestAPIServer(t, store)

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/products?page_size=200", nil)
	req.Header.Set("Accept-Encoding", "gzip")
	resp, err := http.DefaultTransport.RoundTrip(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.Header.Get("Content-Encoding") != "gzip" {
		t.Errorf("expected gzip response, got %q", resp.Header.Get("Content-Encoding"))
	}
}

func TestRateLimit(t *testing.T) {
	srv, ts := setupTestAPIServer(t, nil, WithRateLimit(0.001, 2))

	codes := make([]int, 0, 3)
	for range 3 {
		resp := getJSON(t, ts.URL+"/api/categories", nil)
		_ = resp.Body.Close()
		codes = append(codes, resp.StatusCode)
	}
	if codes[0] != http.StatusOK || codes[1] != http.StatusOK || codes[2] != http.StatusTooManyRequests {
		t.Errorf("codes = %v", codes)
	}

	health := getJSON(t, ts.URL+"/health", nil)
	if health.StatusCode != http.StatusOK {
		t.Errorf("health limited: %d", health.StatusCode)
	}

	srv.SetRateLimit(0, 0)
	resp := getJSON(t, ts.URL+"/api/categories", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("limit not lifted: %d", resp.StatusCode)
	}
}

func TestCorsPreflight(t *testing.T) {
	_, ts := setupTestAPIServer(t, nil)

	req, _ := http.NewRequest(http.MethodOptions, ts.URL+"/api/products", nil)
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	_ = resp.Body.Close()
	if resp.StatusCode != http.StatusOK || resp.Header.Get("Access-Control-Allow-Origin") != "*" {
		t.Errorf("preflight = %d %v", resp.StatusCode, resp.Header)
	}
}

func TestListRoutesLeaveProductIDsFree(t *testing.T) {
	store := memory.Demo()
	for _, id := range []catalog.ProductID{"rows", "ws"} {
		store.AddProduct(catalog.Product{ID: id, Title: "Named " + string(id), Status: catalog.StatusPublished})
	}
	_, ts := setupTestAPIServer(t, store)

	for _, id := range []string{"rows", "ws"} {
		var detail struct {
			ID    string `json:"id"`
			Title string `json:"title"`
		}
		resp := getJSON(t, ts.URL+"/api/products/"+id, &detail)
		if resp.StatusCode != http.StatusOK {
			t.Fatalf("%s: status = %d", id, resp.StatusCode)
		}
		if detail.ID != id || detail.Title != "Named "+id {
			t.Errorf("%s: got %+v", id, detail)
		}
	}
}

func TestErrorResponse(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		status    int
		retryable bool
	}{
		{"not found", fmt.Errorf("loading product x: %w", catalog.ErrNotFound), http.StatusNotFound, false},
		{"store down", catalog.Unavailable("query ids", errors.New("connection refused")), http.StatusServiceUnavailable, true},
		{"deadline", fmt.Errorf("searching: %w", context.DeadlineExceeded), http.StatusServiceUnavailable, true},
		{"canceled", fmt.Errorf("searching: %w", context.Canceled), StatusClientClosedRequest, false},
		{"other", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			status, resp := errorResponse(tt.err)
			if status != tt.status {
				t.Errorf("status = %d, want %d", status, tt.status)
			}
			if resp.Retryable != tt.retryable {
				t.Errorf("retryable = %v, want %v", resp.Retryable, tt.retryable)
			}
		})
	}
}

func TestCanceledRequestIsNotAnOutage(t *testing.T) {
	srv, _ := setupTestAPIServer(t, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	req := httptest.NewRequest(http.MethodGet, "/api/products?q=rack", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	srv.HandleProducts(rec, req)

	if rec.Code != StatusClientClosedRequest {
		t.Errorf("status = %d, want %d", rec.Code, StatusClientClosedRequest)
	}
	if rec.Header().Get("Retry-After") != "" {
		t.Error("canceled request should not carry Retry-After")
	}
}
