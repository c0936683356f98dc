package query

import (
	"strings"

	"github.com/rubiojr/catalog/pkg/catalog"
)

const (
	// DefaultPageSize is used when a request does not specify a page size.
	DefaultPageSize = 50
	// MaxPageSize is the largest page a single request may ask for.
	MaxPageSize = 500

	// FieldAll searches the title and every schema attribute.
	FieldAll = "all"
	// FieldTitle searches the title only.
	FieldTitle = "title"
)

// Sort is a stable result ordering. Every ordering breaks ties by product
// ID so consecutive pages never overlap.
type Sort string

const (
	SortNewest Sort = "newest"
	SortTitle  Sort = "title"
	SortSKU    Sort = "sku"
	SortVendor Sort = "vendor"
	SortType   Sort = "type"
)

var sortAttrs = map[Sort]catalog.AttrName{
	SortSKU:    catalog.AttrInternalSKU,
	SortVendor: catalog.AttrVendorName,
	SortType:   catalog.AttrType,
}

// ParseSort maps raw to a Sort, falling back to SortNewest.
func ParseSort(raw string) Sort {
	s := Sort(strings.ToLower(strings.TrimSpace(raw)))
	switch s {
	case SortNewest, SortTitle, SortSKU, SortVendor, SortType:
		return s
	}
	return SortNewest
}

// Attribute returns the attribute a sort orders by, if any.
func (s Sort) Attribute() (catalog.AttrName, bool) {
	a, ok := sortAttrs[s]
	return a, ok
}

// SearchQuery is the immutable context of one retrieval request.
type SearchQuery struct {
	Text     string
	Field    string
	Category catalog.CategoryRef
	Page     int
	PageSize int
	Sort     Sort
}

// Normalize returns a copy with text trimmed, field defaulted to FieldAll,
// page clamped to >= 1 and page size clamped to [1, MaxPageSize]. A zero
// page size means "unset" and becomes DefaultPageSize.
func (q SearchQuery) Normalize() SearchQuery {
	q.Text = strings.TrimSpace(q.Text)
	q.Field = strings.ToLower(strings.TrimSpace(q.Field))
	if q.Field == "" {
		q.Field = FieldAll
	}
	q.Page = ClampPage(q.Page)
	if q.PageSize == 0 {
		q.PageSize = DefaultPageSize
	}
	q.PageSize = ClampPageSize(q.PageSize)
	q.Sort = ParseSort(string(q.Sort))
	return q
}

// ClampPage maps any page number below 1 to 1.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ClampPageSize bounds size to [1, MaxPageSize].
func ClampPageSize(size int) int {
	if size < 1 {
		return 1
	}
	if size > MaxPageSize {
		return MaxPageSize
	}
	return size
}

// RequestedPageSize converts a client-supplied page size. Nil keeps the
// default (0); an explicit zero asks for the smallest page.
func RequestedPageSize(n *int) int {
	if n == nil {
		return 0
	}
	if *n == 0 {
		return 1
	}
	return *n
}

// Offset returns the index of the first row of the page.
func (q SearchQuery) Offset() int {
	n := q.Normalize()
	return (n.Page - 1) * n.PageSize
}
