package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/projection"
	"github.com/rubiojr/catalog/pkg/query"
)

type SearchInput struct {
	Query    string `json:"query,omitempty" jsonschema:"text to look for, empty lists everything"`
	Field    string `json:"field,omitempty" jsonschema:"all (default), title, or an attribute key such as internal_sku"`
	Category string `json:"category,omitempty" jsonschema:"category ID or slug"`
	Page     int    `json:"page,omitempty" jsonschema:"1-based page number"`
	PageSize *int   `json:"page_size,omitempty" jsonschema:"rows per page, 1 to 500, default 50"`
	Sort     string `json:"sort,omitempty" jsonschema:"newest (default), title, sku, vendor or type"`
}

// ProductRow is a list row. Absent attributes are omitted.
type ProductRow struct {
	ID         string            `json:"id"`
	Title      string            `json:"title"`
	Permalink  string            `json:"permalink,omitempty"`
	Categories string            `json:"categories,omitempty"`
	Attributes map[string]string `json:"attributes"`
}

type SearchOutput struct {
	Rows     []ProductRow `json:"rows"`
	HasMore  bool         `json:"has_more"`
	Total    int          `json:"total"`
	Page     int          `json:"page"`
	PageSize int          `json:"page_size"`
}

type ProductInput struct {
	ID string `json:"id" jsonschema:"product ID"`
}

type FieldOutput struct {
	Name    string `json:"name"`
	Label   string `json:"label"`
	Value   string `json:"value"`
	Present bool   `json:"present"`
}

type ProductOutput struct {
	ID         string        `json:"id"`
	Title      string        `json:"title"`
	Status     string        `json:"status"`
	Permalink  string        `json:"permalink,omitempty"`
	CreatedAt  string        `json:"created_at"`
	Categories []string      `json:"categories"`
	Fields     []FieldOutput `json:"fields"`
}

type CategoriesInput struct{}

type CategoryOutput struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

type CategoriesOutput struct {
	Categories []CategoryOutput `json:"categories"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_products",
		Description: "Search published catalog products by text, attribute and category, one page at a time",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_product",
		Description: "Get every attribute of a single product",
	}, s.handleProduct)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_categories",
		Description: "List product categories",
	}, s.handleCategories)
}

func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, in SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	resp, err := s.search.Search(ctx, query.SearchQuery{
		Text:     in.Query,
		Field:    in.Field,
		Category: catalog.ParseCategoryRef(in.Category),
		Page:     in.Page,
		PageSize: query.RequestedPageSize(in.PageSize),
		Sort:     query.ParseSort(in.Sort),
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	out := SearchOutput{
		Rows:     make([]ProductRow, len(resp.Rows)),
		HasMore:  resp.HasMore,
		Total:    resp.Total,
		Page:     resp.Page,
		PageSize: resp.PageSize,
	}
	for i, r := range resp.Rows {
		out.Rows[i] = rowOutput(r)
	}
	return nil, out, nil
}

func rowOutput(r projection.Row) ProductRow {
	row := ProductRow{
		ID:         r.ID.String(),
		Title:      r.Title.Text,
		Permalink:  r.Permalink.Text,
		Categories: r.Categories.Text,
		Attributes: make(map[string]string, len(r.Attributes)),
	}
	for name, v := range r.Attributes {
		if v.Present {
			row.Attributes[string(name)] = v.Text
		}
	}
	return row
}

func (s *Server) handleProduct(ctx context.Context, _ *mcp.CallToolRequest, in ProductInput) (*mcp.CallToolResult, ProductOutput, error) {
	d, err := s.search.Product(ctx, catalog.ProductID(in.ID))
	if err != nil {
		return nil, ProductOutput{}, err
	}

	out := ProductOutput{
		ID:         d.ID.String(),
		Title:      d.Title.Text,
		Status:     string(d.Status),
		Permalink:  d.Permalink.Text,
		CreatedAt:  d.CreatedAt.UTC().Format(time.RFC3339),
		Categories: make([]string, len(d.Categories)),
		Fields:     make([]FieldOutput, len(d.Fields)),
	}
	for i, c := range d.Categories {
		out.Categories[i] = c.Name
	}
	for i, f := range d.Fields {
		out.Fields[i] = FieldOutput{
			Name:    string(f.Name),
			Label:   f.Label,
			Value:   f.Value.Text,
			Present: f.Value.Present,
		}
	}
	return nil, out, nil
}

func (s *Server) handleCategories(ctx context.Context, _ *mcp.CallToolRequest, _ CategoriesInput) (*mcp.CallToolResult, CategoriesOutput, error) {
	cats, err := s.search.Categories(ctx)
	if err != nil {
		return nil, CategoriesOutput{}, err
	}
	out := CategoriesOutput{Categories: make([]CategoryOutput, len(cats))}
	for i, c := range cats {
		out.Categories[i] = CategoryOutput{ID: c.ID, Slug: c.Slug, Name: c.Name}
	}
	return nil, out, nil
}
