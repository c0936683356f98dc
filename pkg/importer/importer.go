// Package importer loads products from spreadsheets into a product store and
// exports search results back to spreadsheets.
//
// The first sheet of a workbook is read. Its first row is the header: each
// column is mapped by attribute key or label ("internal_sku" or
// "Internal SKU"), or is one of the product columns id, slug, title, status,
// permalink and categories. Columns that map to nothing are reported and
// ignored.
package importer

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/xuri/excelize/v2"
)

// Writer stores imported products.
type Writer interface {
	SaveProduct(ctx context.Context, p *catalog.Product) error
	EnsureCategory(ctx context.Context, name string) (catalog.Category, error)
	SetProductCategories(ctx context.Context, id catalog.ProductID, categoryIDs []int64) error
}

var ErrNoHeader = errors.New("workbook has no header row")

// Result summarizes an import.
type Result struct {
	Imported int
	Skipped  int
	Warnings []string
}

func (r *Result) warnf(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

type Importer struct {
	w             Writer
	schema        *catalog.Schema
	defaultStatus catalog.Status
	newID         func() string
	log           *log.Logger
}

type Option func(*Importer)

// WithDefaultStatus sets the status of rows that leave it blank. Published
// unless changed.
func WithDefaultStatus(s catalog.Status) Option {
	return func(im *Importer) { im.defaultStatus = s }
}

func New(w Writer, schema *catalog.Schema, opts ...Option) *Importer {
	im := &Importer{
		w:             w,
		schema:        schema,
		defaultStatus: catalog.StatusPublished,
		newID:         uuid.NewString,
		log:           log.For("importer"),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile imports the workbook at path.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Result, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("opening workbook %s: %w", path, err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			im.log.Warnf("failed to close workbook: %v", err)
		}
	}()
	return im.importWorkbook(ctx, f)
}

// ImportReader imports a workbook read from r.
func (im *Importer) ImportReader(ctx context.Context, r io.Reader) (*Result, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, fmt.Errorf("opening workbook: %w", err)
	}
	defer func() {
		if err := f.Close(); err != nil {
			im.log.Warnf("failed to close workbook: %v", err)
		}
	}()
	return im.importWorkbook(ctx, f)
}

// column kinds beyond schema attributes
const (
	colID         = "id"
	colSlug       = "slug"
	colTitle      = "title"
	colStatus     = "status"
	colPermalink  = "permalink"
	colCategories = "categories"
)

type column struct {
	product string // one of the col* names, or ""
	attr    catalog.AttrName
}

func (im *Importer) mapHeader(header []string, res *Result) []column {
	cols := make([]column, len(header))
	for i, h := range header {
		key := strings.ToLower(strings.TrimSpace(h))
		switch key {
		case "":
			continue
		case colID, colSlug, colTitle, colStatus, colPermalink, colCategories:
			cols[i].product = key
			continue
		case "category":
			cols[i].product = colCategories
			continue
		}
		if a, ok := im.schema.LookupLabel(h); ok {
			cols[i].attr = a.Name
			continue
		}
		res.warnf("column %q does not match any attribute, ignored", strings.TrimSpace(h))
	}
	return cols
}

func (im *Importer) importWorkbook(ctx context.Context, f *excelize.File) (*Result, error) {
	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, fmt.Errorf("workbook has no sheets")
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("reading sheet %s: %w", sheets[0], err)
	}
	if len(rows) == 0 {
		return nil, ErrNoHeader
	}

	res := &Result{}
	cols := im.mapHeader(rows[0], res)
	im.log.Debugf("importing %d rows from sheet %s", len(rows)-1, sheets[0])

	for i, cells := range rows[1:] {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		line := i + 2
		if blank(cells) {
			continue
		}

		p, categories, err := im.product(cells, cols)
		if err != nil {
			res.Skipped++
			res.warnf("row %d: %v", line, err)
			continue
		}
		if err := im.save(ctx, p, categories); err != nil {
			return res, fmt.Errorf("row %d: %w", line, err)
		}
		res.Imported++
	}

	im.log.Infof("imported %d products, skipped %d", res.Imported, res.Skipped)
	return res, nil
}

func blank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

// product builds a sanitized product from one row.
func (im *Importer) product(cells []string, cols []column) (*catalog.Product, []string, error) {
	p := &catalog.Product{Status: im.defaultStatus}
	var categories []string

	for i, raw := range cells {
		if i >= len(cols) {
			break
		}
		col := cols[i]
		value := strings.TrimSpace(raw)

		switch col.product {
		case colID:
			p.ID = catalog.ProductID(value)
		case colSlug:
			p.Slug = catalog.Slugify(value)
		case colTitle:
			p.Title = strings.Join(strings.Fields(value), " ")
		case colStatus:
			if value == "" {
				continue
			}
			st, err := catalog.ParseStatus(value)
			if err != nil {
				return nil, nil, err
			}
			p.Status = st
		case colPermalink:
			if value != "" && !catalog.ValidURL(value) {
				return nil, nil, fmt.Errorf("invalid permalink %q", value)
			}
			p.Permalink = value
		case colCategories:
			categories = splitList(value)
		default:
			if col.attr == "" || value == "" {
				continue
			}
			clean, err := im.schema.Sanitize(col.attr, value)
			if err != nil {
				return nil, nil, err
			}
			if clean != "" {
				p.SetAttribute(col.attr, clean)
			}
		}
	}

	if p.Title == "" {
		return nil, nil, errors.New("missing title")
	}
	if p.ID == "" {
		p.ID = catalog.ProductID(im.newID())
	}
	if p.Slug == "" {
		p.Slug = catalog.Slugify(p.Title)
	}
	return p, categories, nil
}

// splitList splits a category cell on commas, semicolons or pipes.
func splitList(v string) []string {
	parts := strings.FieldsFunc(v, func(r rune) bool {
		return r == ',' || r == ';' || r == '|'
	})
	out := parts[:0]
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func (im *Importer) save(ctx context.Context, p *catalog.Product, categories []string) error {
	if err := im.w.SaveProduct(ctx, p); err != nil {
		return fmt.Errorf("saving product %s: %w", p.ID, err)
	}

	ids := make([]int64, 0, len(categories))
	seen := make(map[int64]bool, len(categories))
	for _, name := range categories {
		c, err := im.w.EnsureCategory(ctx, name)
		if err != nil {
			return fmt.Errorf("ensuring category %q: %w", name, err)
		}
		if !seen[c.ID] {
			seen[c.ID] = true
			ids = append(ids, c.ID)
		}
	}
	if err := im.w.SetProductCategories(ctx, p.ID, ids); err != nil {
		return fmt.Errorf("assigning categories to %s: %w", p.ID, err)
	}
	return nil
}
