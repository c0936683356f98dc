// Package projection turns stored products into the flat rows used by list
// rendering and into the full details view.
//
// Projection is read only and tolerant: a product that vanished between the
// page query and the projection, or one missing fields, yields absent values
// instead of failing the page. Only store unavailability is propagated.
package projection

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/log"
	"golang.org/x/sync/errgroup"
)

// Reader loads products and their categories.
type Reader interface {
	Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, error)
	CategoriesOf(ctx context.Context, id catalog.ProductID) ([]catalog.Category, error)
}

// UserResolver maps a numeric user identity to a display name.
type UserResolver interface {
	ResolveUser(ctx context.Context, id int64) (string, bool, error)
}

// ListColumns are the attributes shown in list rows, in display order.
var ListColumns = []catalog.AttrName{
	catalog.AttrInternalSKU,
	catalog.AttrVendorName,
	catalog.AttrVendorSKU,
	catalog.AttrType,
	catalog.AttrConfiguration,
	catalog.AttrDetail,
	catalog.AttrAlternateVendorName,
	catalog.AttrAlternateVendorSKU,
	catalog.AttrLaunchDate,
	catalog.AttrProductOwner,
}

// Row is the list projection of a product.
type Row struct {
	ID         catalog.ProductID                  `json:"id"`
	Slug       string                             `json:"slug"`
	Title      catalog.Value                      `json:"title"`
	Permalink  catalog.Value                      `json:"permalink"`
	Categories catalog.Value                      `json:"categories"`
	Attributes map[catalog.AttrName]catalog.Value `json:"attributes"`
}

// Attr returns the projected value of name, Absent when not projected.
func (r Row) Attr(name catalog.AttrName) catalog.Value {
	return r.Attributes[name]
}

// Field is one labelled attribute of the details view.
type Field struct {
	Name  catalog.AttrName `json:"name"`
	Label string           `json:"label"`
	Kind  catalog.Kind     `json:"kind"`
	Value catalog.Value    `json:"value"`
}

// Detail is the full projection of a single product.
type Detail struct {
	ID         catalog.ProductID  `json:"id"`
	Slug       string             `json:"slug"`
	Title      catalog.Value      `json:"title"`
	Status     catalog.Status     `json:"status"`
	Permalink  catalog.Value      `json:"permalink"`
	CreatedAt  time.Time          `json:"created_at"`
	Categories []catalog.Category `json:"categories"`
	Fields     []Field            `json:"fields"`
}

// Field returns the detail field for name.
func (d *Detail) Field(name catalog.AttrName) (Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return Field{}, false
}

type Projector struct {
	reader  Reader
	users   UserResolver
	schema  *catalog.Schema
	columns []catalog.AttrName
	workers int
	log     *log.Logger
}

type Option func(*Projector)

// WithWorkers bounds how many rows ProjectAll projects concurrently.
func WithWorkers(n int) Option {
	return func(p *Projector) {
		if n > 0 {
			p.workers = n
		}
	}
}

// New returns a projector. users may be nil, in which case owner values are
// passed through unresolved.
func New(reader Reader, users UserResolver, schema *catalog.Schema, opts ...Option) *Projector {
	p := &Projector{
		reader:  reader,
		users:   users,
		schema:  schema,
		workers: 8,
		log:     log.For("projection"),
	}
	for _, name := range ListColumns {
		if _, ok := schema.Lookup(string(name)); ok {
			p.columns = append(p.columns, name)
		}
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Columns returns the attributes projected into rows.
func (p *Projector) Columns() []catalog.AttrName {
	out := make([]catalog.AttrName, len(p.columns))
	copy(out, p.columns)
	return out
}

// Project builds the list row for id.
func (p *Projector) Project(ctx context.Context, id catalog.ProductID) (Row, error) {
	row := Row{
		ID:         id,
		Attributes: make(map[catalog.AttrName]catalog.Value, len(p.columns)),
	}
	for _, name := range p.columns {
		row.Attributes[name] = catalog.Absent
	}

	prod, err := p.reader.Product(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		p.log.Warnf("product %s disappeared before projection", id)
		return row, nil
	}
	if err != nil {
		return Row{}, fmt.Errorf("projecting %s: %w", id, err)
	}

	row.Slug = prod.Slug
	row.Title = nonEmpty(prod.Title)
	row.Permalink = nonEmpty(prod.Permalink)
	for _, name := range p.columns {
		row.Attributes[name] = p.attrValue(ctx, prod, name)
	}

	cats, err := p.reader.CategoriesOf(ctx, id)
	if err != nil {
		return Row{}, fmt.Errorf("projecting categories of %s: %w", id, err)
	}
	if len(cats) > 0 {
		names := make([]string, len(cats))
		for i, c := range cats {
			names[i] = c.Name
		}
		row.Categories = catalog.Present(strings.Join(names, ", "))
	}
	return row, nil
}

// ProjectAll projects ids concurrently and returns rows in the same order.
func (p *Projector) ProjectAll(ctx context.Context, ids []catalog.ProductID) ([]Row, error) {
	rows := make([]Row, len(ids))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, id := range ids {
		g.Go(func() error {
			row, err := p.Project(gctx, id)
			if err != nil {
				return err
			}
			rows[i] = row
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return rows, nil
}

// Detail builds the details view for id. Unknown products return an error
// matching catalog.ErrNotFound.
func (p *Projector) Detail(ctx context.Context, id catalog.ProductID) (*Detail, error) {
	prod, err := p.reader.Product(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading product %s: %w", id, err)
	}
	cats, err := p.reader.CategoriesOf(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("loading categories of %s: %w", id, err)
	}
	if cats == nil {
		cats = []catalog.Category{}
	}

	d := &Detail{
		ID:         prod.ID,
		Slug:       prod.Slug,
		Title:      nonEmpty(prod.Title),
		Status:     prod.Status,
		Permalink:  nonEmpty(prod.Permalink),
		CreatedAt:  prod.CreatedAt,
		Categories: cats,
	}
	for _, a := range p.schema.Attributes() {
		d.Fields = append(d.Fields, Field{
			Name:  a.Name,
			Label: a.Label,
			Kind:  a.Kind,
			Value: p.attrValue(ctx, prod, a.Name),
		})
	}
	return d, nil
}

func (p *Projector) attrValue(ctx context.Context, prod *catalog.Product, name catalog.AttrName) catalog.Value {
	raw, ok := prod.Attribute(name)
	if !ok {
		return catalog.Absent
	}
	if a, _ := p.schema.Lookup(string(name)); a.Kind == catalog.KindUser {
		return catalog.Present(p.resolveOwner(ctx, raw))
	}
	return catalog.Present(raw)
}

// resolveOwner maps a numeric owner to a display name. Anything else,
// including unknown users and resolver failures, is returned unchanged.
func (p *Projector) resolveOwner(ctx context.Context, raw string) string {
	if p.users == nil {
		return raw
	}
	uid, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return raw
	}
	name, found, err := p.users.ResolveUser(ctx, uid)
	if err != nil {
		p.log.Warnf("resolving user %d: %v", uid, err)
		return raw
	}
	if !found || name == "" {
		return raw
	}
	return name
}

func nonEmpty(s string) catalog.Value {
	if s == "" {
		return catalog.Absent
	}
	return catalog.Present(s)
}
