package memory

import (
	"fmt"

	"github.com/rubiojr/catalog/pkg/catalog"
)

// Demo returns a store with a small fixed catalog: two categories, one
// known user and a handful of products including a draft.
//
//	p1 "Rack unit"      X-100, Vendor-A Ltd, owner 42, category servers
//	p2 "Rack unit 2"    X-200, vendor-b, category servers
//	p3 "Widget"         owner "Acme Corp", category storage
//	p4 "Widget draft"   draft, never listed
func Demo() *Store {
	s := New()
	s.AddUser(42, "Jane Doe")
	servers := s.AddCategory(catalog.Category{ID: 5, Slug: "servers", Name: "Servers"})
	storage := s.AddCategory(catalog.Category{ID: 6, Slug: "storage", Name: "Storage"})

	s.AddProduct(catalog.Product{
		ID: "p1", Slug: "rack-unit", Title: "Rack unit", Status: catalog.StatusPublished,
		Permalink: "https://catalog.example/products/rack-unit",
		Attributes: map[catalog.AttrName]string{
			catalog.AttrInternalSKU:  "X-100",
			catalog.AttrVendorName:   "Vendor-A Ltd",
			catalog.AttrType:         "rack",
			catalog.AttrProductOwner: "42",
			catalog.AttrLaunchDate:   "20240315",
			catalog.AttrProductURL:   "https://vendor-a.example/x100",
		},
	}, servers.ID)
	s.AddProduct(catalog.Product{
		ID: "p2", Slug: "rack-unit-2", Title: "Rack unit 2", Status: catalog.StatusPublished,
		Attributes: map[catalog.AttrName]string{
			catalog.AttrInternalSKU: "X-200",
			catalog.AttrVendorName:  "vendor-b",
			catalog.AttrType:        "rack",
		},
	}, servers.ID)
	s.AddProduct(catalog.Product{
		ID: "p3", Slug: "widget", Title: "Widget", Status: catalog.StatusPublished,
		Attributes: map[catalog.AttrName]string{
			catalog.AttrProductOwner: "Acme Corp",
			catalog.AttrDetail:       "<b>Compact</b> widget",
		},
	}, storage.ID)
	s.AddProduct(catalog.Product{
		ID: "p4", Slug: "widget-draft", Title: "Widget draft", Status: catalog.StatusDraft,
	}, storage.ID)
	return s
}

// Bulk adds n published products titled "Item 0001".."Item n" with SKUs
// "SKU-0001".. to s and returns their IDs in insertion order.
func Bulk(s *Store, n int) []catalog.ProductID {
	ids := make([]catalog.ProductID, 0, n)
	for i := 1; i <= n; i++ {
		id := catalog.ProductID(fmt.Sprintf("bulk-%04d", i))
		s.AddProduct(catalog.Product{
			ID:         id,
			Title:      fmt.Sprintf("Item %04d", i),
			Status:     catalog.StatusPublished,
			Attributes: map[catalog.AttrName]string{catalog.AttrInternalSKU: fmt.Sprintf("SKU-%04d", i)},
		})
		ids = append(ids, id)
	}
	return ids
}
