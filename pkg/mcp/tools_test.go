package mcp

import (
	"context"
	"errors"
	"testing"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/query"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/rubiojr/catalog/pkg/storage/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, store *memory.Store) *Server {
	t.Helper()
	server, err := NewServer(search.New(store, catalog.DefaultSchema()))
	require.NoError(t, err)
	return server
}

func intPtr(n int) *int { return &n }

func TestNewServer(t *testing.T) {
	server, err := NewServer(nil)
	assert.Nil(t, server)
	assert.ErrorIs(t, err, ErrMissingSearchService)
}

func TestServer_handleSearch(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, memory.Demo())

	t.Run("sku lookup", func(t *testing.T) {
		_, out, err := server.handleSearch(ctx, nil, SearchInput{Query: "x-100"})
		require.NoError(t, err)
		require.Len(t, out.Rows, 1)
		assert.Equal(t, "p1", out.Rows[0].ID)
		assert.Equal(t, "Jane Doe", out.Rows[0].Attributes["product_owner"])
		assert.Equal(t, "Servers", out.Rows[0].Categories)
		_, hasVendorSKU := out.Rows[0].Attributes["vendor_sku"]
		assert.False(t, hasVendorSKU, "absent attributes are omitted")
	})

	t.Run("paging", func(t *testing.T) {
		_, out, err := server.handleSearch(ctx, nil, SearchInput{PageSize: intPtr(2)})
		require.NoError(t, err)
		assert.Len(t, out.Rows, 2)
		assert.True(t, out.HasMore)
		assert.Equal(t, 3, out.Total)
	})

	t.Run("explicit zero page size", func(t *testing.T) {
		_, out, err := server.handleSearch(ctx, nil, SearchInput{PageSize: intPtr(0)})
		require.NoError(t, err)
		assert.Equal(t, 1, out.PageSize)
		assert.Len(t, out.Rows, 1)
		assert.True(t, out.HasMore)
	})

	t.Run("unset page size", func(t *testing.T) {
		_, out, err := server.handleSearch(ctx, nil, SearchInput{})
		require.NoError(t, err)
		assert.Equal(t, query.DefaultPageSize, out.PageSize)
		assert.Len(t, out.Rows, 3)
	})

	t.Run("category slug", func(t *testing.T) {
		_, out, err := server.handleSearch(ctx, nil, SearchInput{Category: "storage"})
		require.NoError(t, err)
		require.Len(t, out.Rows, 1)
		assert.Equal(t, "Widget", out.Rows[0].Title)
	})

	t.Run("store failure", func(t *testing.T) {
		store := memory.Demo()
		store.FailWith(errors.New("disk I/O error"))
		_, _, err := newTestServer(t, store).handleSearch(ctx, nil, SearchInput{Query: "rack"})
		require.Error(t, err)
		assert.True(t, catalog.IsRetryable(err))
	})
}

func TestServer_handleProduct(t *testing.T) {
	ctx := context.Background()
	server := newTestServer(t, memory.Demo())

	_, out, err := server.handleProduct(ctx, nil, ProductInput{ID: "p3"})
	require.NoError(t, err)
	assert.Equal(t, "Widget", out.Title)
	assert.Equal(t, "published", out.Status)
	assert.Equal(t, []string{"Storage"}, out.Categories)
	assert.Len(t, out.Fields, catalog.DefaultSchema().Len())

	for _, f := range out.Fields {
		if f.Name == "product_owner" {
			assert.True(t, f.Present)
			assert.Equal(t, "Acme Corp", f.Value)
		}
	}

	_, _, err = server.handleProduct(ctx, nil, ProductInput{ID: "nope"})
	assert.ErrorIs(t, err, catalog.ErrNotFound)
}

func TestServer_handleCategories(t *testing.T) {
	server := newTestServer(t, memory.Demo())
	_, out, err := server.handleCategories(context.Background(), nil, CategoriesInput{})
	require.NoError(t, err)
	require.Len(t, out.Categories, 2)
	assert.Equal(t, CategoryOutput{ID: 5, Slug: "servers", Name: "Servers"}, out.Categories[0])
}
