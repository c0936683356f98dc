// Package memory is an in-process product store. It evaluates filter
// expressions with query.Eval and backs tests and the demo seed data.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/query"
)

type Store struct {
	mu          sync.RWMutex
	products    map[catalog.ProductID]*catalog.Product
	categories  map[int64]catalog.Category
	productCats map[catalog.ProductID][]int64
	users       map[int64]string
	nextCat     int64
	nextCreated time.Time

	failWith error
	delay    time.Duration
}

func New() *Store {
	return &Store{
		products:    make(map[catalog.ProductID]*catalog.Product),
		categories:  make(map[int64]catalog.Category),
		productCats: make(map[catalog.ProductID][]int64),
		users:       make(map[int64]string),
		nextCreated: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

// FailWith makes every read return err until called again with nil.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failWith = err
}

// SetDelay makes QueryIDs wait d before answering, honouring cancellation.
func (s *Store) SetDelay(d time.Duration) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.delay = d
}

// AddProduct stores a copy of p assigned to the given category IDs. A zero
// CreatedAt gets a strictly increasing timestamp so newest-first ordering is
// deterministic.
func (s *Store) AddProduct(p catalog.Product, categoryIDs ...int64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.putLocked(p)
	s.productCats[p.ID] = append([]int64(nil), categoryIDs...)
}

// AddCategory stores c, assigning an ID when c.ID is zero.
func (s *Store) AddCategory(c catalog.Category) catalog.Category {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.addCategoryLocked(c)
}

func (s *Store) AddUser(id int64, displayName string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = displayName
}

func (s *Store) putLocked(p catalog.Product) {
	if p.CreatedAt.IsZero() {
		s.nextCreated = s.nextCreated.Add(time.Second)
		p.CreatedAt = s.nextCreated
	}
	attrs := make(map[catalog.AttrName]string, len(p.Attributes))
	for k, v := range p.Attributes {
		attrs[k] = v
	}
	p.Attributes = attrs
	s.products[p.ID] = &p
}

func (s *Store) addCategoryLocked(c catalog.Category) catalog.Category {
	if c.ID == 0 {
		s.nextCat++
		c.ID = s.nextCat
	} else if c.ID > s.nextCat {
		s.nextCat = c.ID
	}
	if c.Slug == "" {
		c.Slug = catalog.Slugify(c.Name)
	}
	s.categories[c.ID] = c
	return c
}

func (s *Store) check(ctx context.Context, op string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if s.failWith != nil {
		return catalog.Unavailable(op, s.failWith)
	}
	return nil
}

type subject struct {
	p    *catalog.Product
	cats []catalog.Category
}

func (s subject) Title() string          { return s.p.Title }
func (s subject) Status() catalog.Status { return s.p.Status }
func (s subject) Attribute(name catalog.AttrName) (string, bool) {
	return s.p.Attribute(name)
}
func (s subject) InCategory(ref catalog.CategoryRef) bool {
	for _, c := range s.cats {
		if ref.Matches(c) {
			return true
		}
	}
	return false
}

func (s *Store) categoriesLocked(id catalog.ProductID) []catalog.Category {
	ids := s.productCats[id]
	out := make([]catalog.Category, 0, len(ids))
	for _, cid := range ids {
		if c, ok := s.categories[cid]; ok {
			out = append(out, c)
		}
	}
	return out
}

// QueryIDs evaluates expr against every product and returns the requested
// window of the sorted matches.
func (s *Store) QueryIDs(ctx context.Context, expr query.Expr, order query.Sort, offset, limit int) ([]catalog.ProductID, int, error) {
	s.mu.RLock()
	delay := s.delay
	s.mu.RUnlock()
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return nil, 0, ctx.Err()
		}
	}

	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "query ids"); err != nil {
		return nil, 0, err
	}

	var matches []*catalog.Product
	for id, p := range s.products {
		if query.Eval(expr, subject{p: p, cats: s.categoriesLocked(id)}) {
			matches = append(matches, p)
		}
	}
	sortProducts(matches, order)

	total := len(matches)
	if offset >= total || limit <= 0 {
		return []catalog.ProductID{}, total, nil
	}
	end := total
	if limit < total-offset {
		end = offset + limit
	}
	ids := make([]catalog.ProductID, 0, end-offset)
	for _, p := range matches[offset:end] {
		ids = append(ids, p.ID)
	}
	return ids, total, nil
}

func sortProducts(ps []*catalog.Product, order query.Sort) {
	key := func(p *catalog.Product) string {
		if order == query.SortTitle {
			return query.Fold(p.Title)
		}
		if attr, ok := order.Attribute(); ok {
			v, _ := p.Attribute(attr)
			return query.Fold(v)
		}
		return ""
	}
	sort.SliceStable(ps, func(i, j int) bool {
		a, b := ps[i], ps[j]
		if order == query.SortNewest || order == "" {
			if !a.CreatedAt.Equal(b.CreatedAt) {
				return a.CreatedAt.After(b.CreatedAt)
			}
			return a.ID < b.ID
		}
		if ka, kb := key(a), key(b); ka != kb {
			return ka < kb
		}
		return a.ID < b.ID
	})
}

func (s *Store) Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "product"); err != nil {
		return nil, err
	}
	p, ok := s.products[id]
	if !ok {
		return nil, fmt.Errorf("product %s: %w", id, catalog.ErrNotFound)
	}
	cp := *p
	cp.Attributes = make(map[catalog.AttrName]string, len(p.Attributes))
	for k, v := range p.Attributes {
		cp.Attributes[k] = v
	}
	return &cp, nil
}

func (s *Store) Attribute(ctx context.Context, id catalog.ProductID, name catalog.AttrName) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "attribute"); err != nil {
		return "", false, err
	}
	p, ok := s.products[id]
	if !ok {
		return "", false, nil
	}
	v, ok := p.Attribute(name)
	return v, ok, nil
}

func (s *Store) CategoriesOf(ctx context.Context, id catalog.ProductID) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "categories of"); err != nil {
		return nil, err
	}
	return s.categoriesLocked(id), nil
}

// Categories lists all categories ordered by name.
func (s *Store) Categories(ctx context.Context) ([]catalog.Category, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "categories"); err != nil {
		return nil, err
	}
	out := make([]catalog.Category, 0, len(s.categories))
	for _, c := range s.categories {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Name != out[j].Name {
			return out[i].Name < out[j].Name
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func (s *Store) ResolveUser(ctx context.Context, id int64) (string, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if err := s.check(ctx, "resolve user"); err != nil {
		return "", false, err
	}
	name, ok := s.users[id]
	return name, ok, nil
}

// SaveProduct inserts or replaces p, keeping the original creation time of
// an existing product.
func (s *Store) SaveProduct(ctx context.Context, p *catalog.Product) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "save product"); err != nil {
		return err
	}
	if old, ok := s.products[p.ID]; ok && p.CreatedAt.IsZero() {
		p.CreatedAt = old.CreatedAt
	}
	s.putLocked(*p)
	return nil
}

// EnsureCategory returns the category named name, creating it if needed.
func (s *Store) EnsureCategory(ctx context.Context, name string) (catalog.Category, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "ensure category"); err != nil {
		return catalog.Category{}, err
	}
	slug := catalog.Slugify(name)
	for _, c := range s.categories {
		if c.Slug == slug || strings.EqualFold(c.Name, name) {
			return c, nil
		}
	}
	return s.addCategoryLocked(catalog.Category{Name: name, Slug: slug}), nil
}

func (s *Store) SetProductCategories(ctx context.Context, id catalog.ProductID, categoryIDs []int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "set product categories"); err != nil {
		return err
	}
	s.productCats[id] = append([]int64(nil), categoryIDs...)
	return nil
}

func (s *Store) SaveUser(ctx context.Context, id int64, displayName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.check(ctx, "save user"); err != nil {
		return err
	}
	s.users[id] = displayName
	return nil
}

// Len returns the number of stored products.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.products)
}
