package search

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"testing"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/query"
	"github.com/rubiojr/catalog/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseSearchQuery(t *testing.T) {
	tests := []struct {
		name     string
		query    string
		expected query.SearchQuery
	}{
		{
			name:     "empty",
			query:    "",
			expected: query.SearchQuery{Sort: query.SortNewest},
		},
		{
			name:  "basic",
			query: "q=widget&field=title&page=2&page_size=20&sort=sku",
			expected: query.SearchQuery{
				Text: "widget", Field: "title", Page: 2, PageSize: 20, Sort: query.SortSKU,
			},
		},
		{
			name:  "aliases",
			query: "q=x&cat=servers&paged=3&per_page=10",
			expected: query.SearchQuery{
				Text: "x", Category: catalog.CategoryRef{Slug: "servers"}, Page: 3, PageSize: 10, Sort: query.SortNewest,
			},
		},
		{
			name:  "canonical name wins over alias",
			query: "category=5&cat=6&page=1&paged=9&pageSize=7&per=8",
			expected: query.SearchQuery{
				Category: catalog.CategoryRef{ID: 5}, Page: 1, PageSize: 7, Sort: query.SortNewest,
			},
		},
		{
			name:     "non numeric page and size",
			query:    "page=abc&page_size=lots",
			expected: query.SearchQuery{Sort: query.SortNewest},
		},
		{
			name:     "explicit zero size",
			query:    "page_size=0",
			expected: query.SearchQuery{PageSize: 1, Sort: query.SortNewest},
		},
		{
			name:     "unknown sort",
			query:    "sort=price",
			expected: query.SearchQuery{Sort: query.SortNewest},
		},
		{
			name:     "category zero is no restriction",
			query:    "category=0",
			expected: query.SearchQuery{Sort: query.SortNewest},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			values, err := url.ParseQuery(tt.query)
			require.NoError(t, err)
			assert.Equal(t, tt.expected, ParseSearchQuery(values))
		})
	}
}

func titles(resp *Response) []string {
	out := make([]string, 0, len(resp.Rows))
	for _, r := range resp.Rows {
		out = append(out, r.Title.Text)
	}
	return out
}

func TestSearch(t *testing.T) {
	svc := New(memory.Demo(), catalog.DefaultSchema())
	ctx := context.Background()

	t.Run("empty query lists published newest first", func(t *testing.T) {
		resp, err := svc.Search(ctx, query.SearchQuery{})
		require.NoError(t, err)
		assert.Equal(t, []string{"Widget", "Rack unit 2", "Rack unit"}, titles(resp))
		assert.Equal(t, 3, resp.Total)
		assert.False(t, resp.HasMore)
		assert.Equal(t, 1, resp.Page)
		assert.Equal(t, query.DefaultPageSize, resp.PageSize)
		assert.Equal(t, query.FieldAll, resp.Field)
	})

	t.Run("sku across all fields", func(t *testing.T) {
		resp, err := svc.Search(ctx, query.SearchQuery{Text: "x-100"})
		require.NoError(t, err)
		assert.Equal(t, []string{"Rack unit"}, titles(resp))
		assert.Equal(t, "Jane Doe", resp.Rows[0].Attr(catalog.AttrProductOwner).Text)
	})

	t.Run("category and vendor", func(t *testing.T) {
		resp, err := svc.Search(ctx, query.SearchQuery{Text: "vendor-a", Category: catalog.ParseCategoryRef("5")})
		require.NoError(t, err)
		assert.Equal(t, []string{"Rack unit"}, titles(resp))
		assert.Equal(t, "5", resp.Category)
	})

	t.Run("unknown field matches nothing", func(t *testing.T) {
		resp, err := svc.Search(ctx, query.SearchQuery{Text: "rack", Field: "colour"})
		require.NoError(t, err)
		assert.Empty(t, resp.Rows)
		assert.NotNil(t, resp.Rows)
		assert.Zero(t, resp.Total)
	})

	t.Run("page past the end", func(t *testing.T) {
		resp, err := svc.Search(ctx, query.SearchQuery{Page: 10, PageSize: 2})
		require.NoError(t, err)
		assert.Empty(t, resp.Rows)
		assert.False(t, resp.HasMore)
		assert.Equal(t, 3, resp.Total)
	})

	t.Run("sort by sku", func(t *testing.T) {
		resp, err := svc.Search(ctx, query.SearchQuery{Field: "title", Text: "rack", Sort: query.SortSKU})
		require.NoError(t, err)
		assert.Equal(t, []string{"Rack unit", "Rack unit 2"}, titles(resp))
	})
}

func TestSearchJSONShape(t *testing.T) {
	svc := New(memory.Demo(), catalog.DefaultSchema())
	resp, err := svc.Search(context.Background(), query.SearchQuery{Text: "widget", PageSize: 1})
	require.NoError(t, err)

	data, err := json.Marshal(resp)
	require.NoError(t, err)

	var got map[string]any
	require.NoError(t, json.Unmarshal(data, &got))
	for _, key := range []string{"rows", "has_more", "total", "page", "page_size", "query", "field"} {
		assert.Contains(t, got, key)
	}
	assert.Equal(t, "widget", got["query"])
	assert.Equal(t, false, got["has_more"])
}

func TestDefaultPageSizeOption(t *testing.T) {
	store := memory.New()
	memory.Bulk(store, 7)
	svc := New(store, catalog.DefaultSchema(), WithDefaultPageSize(3))

	resp, err := svc.Search(context.Background(), query.SearchQuery{})
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 3)
	assert.Equal(t, 3, resp.PageSize)
	assert.True(t, resp.HasMore)

	resp, err = svc.Search(context.Background(), query.SearchQuery{PageSize: 5})
	require.NoError(t, err)
	assert.Len(t, resp.Rows, 5)
}

func TestWalkVisitsEveryProductOnce(t *testing.T) {
	store := memory.New()
	ids := memory.Bulk(store, 23)
	svc := New(store, catalog.DefaultSchema())

	seen := make(map[catalog.ProductID]int)
	pages := 0
	err := svc.Walk(context.Background(), query.SearchQuery{PageSize: 5, Sort: query.SortSKU}, func(r *Response) error {
		pages++
		for _, row := range r.Rows {
			seen[row.ID]++
		}
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, 5, pages)
	assert.Len(t, seen, len(ids))
	for id, n := range seen {
		assert.Equal(t, 1, n, "product %s seen %d times", id, n)
	}
}

func TestWalkStopsOnCallbackError(t *testing.T) {
	store := memory.New()
	memory.Bulk(store, 10)
	svc := New(store, catalog.DefaultSchema())

	stop := errors.New("stop")
	calls := 0
	err := svc.Walk(context.Background(), query.SearchQuery{PageSize: 2}, func(*Response) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
}

func TestStoreFailureIsSurfaced(t *testing.T) {
	store := memory.Demo()
	store.FailWith(errors.New("connection refused"))
	svc := New(store, catalog.DefaultSchema())

	resp, err := svc.Search(context.Background(), query.SearchQuery{Text: "rack"})
	assert.Nil(t, resp)
	require.Error(t, err)
	assert.True(t, catalog.IsRetryable(err))
	assert.ErrorIs(t, err, catalog.ErrStoreUnavailable)

	_, err = svc.Categories(context.Background())
	assert.True(t, catalog.IsRetryable(err))
}

func TestProductAndCategories(t *testing.T) {
	svc := New(memory.Demo(), catalog.DefaultSchema())
	ctx := context.Background()

	d, err := svc.Product(ctx, "p1")
	require.NoError(t, err)
	assert.Equal(t, "Rack unit", d.Title.Text)
	owner, ok := d.Field(catalog.AttrProductOwner)
	require.True(t, ok)
	assert.Equal(t, "Jane Doe", owner.Value.Text)

	_, err = svc.Product(ctx, "nope")
	assert.ErrorIs(t, err, catalog.ErrNotFound)

	cats, err := svc.Categories(ctx)
	require.NoError(t, err)
	require.Len(t, cats, 2)
	assert.Equal(t, "Servers", cats[0].Name)
}

// stallingStore answers page queries but hangs on row reads until the
// request context ends.
type stallingStore struct {
	*memory.Store
}

func (s stallingStore) Product(ctx context.Context, _ catalog.ProductID) (*catalog.Product, error) {
	<-ctx.Done()
	return nil, ctx.Err()
}

func TestStoreTimeoutBoundsRowReads(t *testing.T) {
	svc := New(stallingStore{memory.Demo()}, catalog.DefaultSchema(), WithStoreTimeout(50*time.Millisecond))

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()

	start := time.Now()
	resp, err := svc.Search(ctx, query.SearchQuery{})
	elapsed := time.Since(start)

	assert.Nil(t, resp)
	require.Error(t, err)
	assert.Less(t, elapsed, time.Second)
	assert.True(t, catalog.IsRetryable(err))
	assert.ErrorIs(t, err, catalog.ErrStoreUnavailable)
	assert.ErrorIs(t, err, context.DeadlineExceeded)

	start = time.Now()
	_, err = svc.Product(ctx, "p1")
	assert.Less(t, time.Since(start), time.Second)
	assert.ErrorIs(t, err, catalog.ErrStoreUnavailable)
}

func TestCallerCancellationIsNotAStoreFailure(t *testing.T) {
	svc := New(stallingStore{memory.Demo()}, catalog.DefaultSchema(), WithStoreTimeout(time.Minute))

	ctx, cancel := context.WithCancel(context.Background())
	time.AfterFunc(20*time.Millisecond, cancel)

	_, err := svc.Search(ctx, query.SearchQuery{})
	require.Error(t, err)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, catalog.IsRetryable(err))
}
