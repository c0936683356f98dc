package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/query"
)

func (s *Store) q(stmt string) string {
	return s.dialect.Rebind(stmt)
}

// QueryIDs counts the matches of expr and returns the IDs in
// [offset, offset+limit) of the requested order. Both statements run in
// one read-only transaction so total and page agree.
func (s *Store) QueryIDs(ctx context.Context, expr query.Expr, order query.Sort, offset, limit int) ([]catalog.ProductID, int, error) {
	f := &filterSQL{dialect: s.dialect}
	where, err := f.where(expr)
	if err != nil {
		return nil, 0, err
	}
	countArgs := append([]any(nil), f.args...)
	countSQL := "SELECT COUNT(*) FROM products p WHERE " + where

	orderBy := f.orderBy(order)
	selectSQL := fmt.Sprintf("SELECT p.id FROM products p WHERE %s ORDER BY %s LIMIT %s OFFSET %s",
		where, orderBy, f.bind(limit), f.bind(offset))

	tx, err := s.db.BeginTx(ctx, &sql.TxOptions{ReadOnly: true})
	if err != nil {
		return nil, 0, s.fail(ctx, "query ids", err)
	}
	committed := false
	defer s.rollback(tx, &committed)

	var total int
	if err := tx.QueryRowContext(ctx, countSQL, countArgs...).Scan(&total); err != nil {
		return nil, 0, s.fail(ctx, "count matches", err)
	}

	ids := []catalog.ProductID{}
	if offset < total {
		rows, err := tx.QueryContext(ctx, selectSQL, f.args...)
		if err != nil {
			return nil, 0, s.fail(ctx, "query ids", err)
		}
		defer s.closeRows(rows)
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				return nil, 0, s.fail(ctx, "query ids", err)
			}
			ids = append(ids, catalog.ProductID(id))
		}
		if err := rows.Err(); err != nil {
			return nil, 0, s.fail(ctx, "query ids", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, 0, s.fail(ctx, "query ids", err)
	}
	committed = true
	s.log.Debugf("%s -> %d of %d", expr, len(ids), total)
	return ids, total, nil
}

// Product loads a product with all its attributes.
func (s *Store) Product(ctx context.Context, id catalog.ProductID) (*catalog.Product, error) {
	p := &catalog.Product{ID: id, Attributes: make(map[catalog.AttrName]string)}
	var status string
	var created int64
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT slug, title, status, permalink, created_at FROM products WHERE id = ?"), string(id),
	).Scan(&p.Slug, &p.Title, &status, &p.Permalink, &created)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("product %s: %w", id, catalog.ErrNotFound)
	}
	if err != nil {
		return nil, s.fail(ctx, "load product", err)
	}
	p.Status = catalog.Status(status)
	p.CreatedAt = time.UnixMicro(created).UTC()

	rows, err := s.db.QueryContext(ctx, s.q("SELECT name, value FROM product_attributes WHERE product_id = ?"), string(id))
	if err != nil {
		return nil, s.fail(ctx, "load attributes", err)
	}
	defer s.closeRows(rows)
	for rows.Next() {
		var name, value string
		if err := rows.Scan(&name, &value); err != nil {
			return nil, s.fail(ctx, "load attributes", err)
		}
		p.Attributes[catalog.AttrName(name)] = value
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, "load attributes", err)
	}
	return p, nil
}

// Attribute returns a single attribute value. Missing products and missing
// attributes both report absent.
func (s *Store) Attribute(ctx context.Context, id catalog.ProductID, name catalog.AttrName) (string, bool, error) {
	var value string
	err := s.db.QueryRowContext(ctx,
		s.q("SELECT value FROM product_attributes WHERE product_id = ? AND name = ?"), string(id), string(name),
	).Scan(&value)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail(ctx, "load attribute", err)
	}
	return value, true, nil
}

// CategoriesOf returns the categories of a product in assignment order.
func (s *Store) CategoriesOf(ctx context.Context, id catalog.ProductID) ([]catalog.Category, error) {
	return s.categories(ctx, "categories of", s.q(`
		SELECT c.id, c.slug, c.name
		FROM product_categories pc
		JOIN categories c ON c.id = pc.category_id
		WHERE pc.product_id = ?
		ORDER BY pc.position, c.id`), string(id))
}

// Categories lists every category ordered by name.
func (s *Store) Categories(ctx context.Context) ([]catalog.Category, error) {
	return s.categories(ctx, "list categories", "SELECT id, slug, name FROM categories ORDER BY name, id")
}

func (s *Store) categories(ctx context.Context, op, stmt string, args ...any) ([]catalog.Category, error) {
	rows, err := s.db.QueryContext(ctx, stmt, args...)
	if err != nil {
		return nil, s.fail(ctx, op, err)
	}
	defer s.closeRows(rows)

	cats := []catalog.Category{}
	for rows.Next() {
		var c catalog.Category
		if err := rows.Scan(&c.ID, &c.Slug, &c.Name); err != nil {
			return nil, s.fail(ctx, op, err)
		}
		cats = append(cats, c)
	}
	if err := rows.Err(); err != nil {
		return nil, s.fail(ctx, op, err)
	}
	return cats, nil
}

// ResolveUser looks up a user's display name.
func (s *Store) ResolveUser(ctx context.Context, id int64) (string, bool, error) {
	var name string
	err := s.db.QueryRowContext(ctx, s.q("SELECT display_name FROM users WHERE id = ?"), id).Scan(&name)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, s.fail(ctx, "resolve user", err)
	}
	return name, true, nil
}

// SaveProduct inserts or updates a product and replaces its attributes.
// Folded copies of the title and values are stored for matching. An
// existing product keeps its creation time.
func (s *Store) SaveProduct(ctx context.Context, p *catalog.Product) error {
	if p.ID == "" {
		return fmt.Errorf("saving product: empty id")
	}
	created := p.CreatedAt
	if created.IsZero() {
		created = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "save product", err)
	}
	committed := false
	defer s.rollback(tx, &committed)

	_, err = tx.ExecContext(ctx, s.q(`
		INSERT INTO products (id, slug, title, title_fold, status, permalink, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (id) DO UPDATE SET
			slug = excluded.slug,
			title = excluded.title,
			title_fold = excluded.title_fold,
			status = excluded.status,
			permalink = excluded.permalink`),
		string(p.ID), p.Slug, p.Title, query.Fold(p.Title), string(p.Status), p.Permalink, created.UnixMicro(),
	)
	if err != nil {
		return s.fail(ctx, "save product", err)
	}

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM product_attributes WHERE product_id = ?"), string(p.ID)); err != nil {
		return s.fail(ctx, "save attributes", err)
	}

	stmt, err := tx.PrepareContext(ctx, s.q("INSERT INTO product_attributes (product_id, name, value, value_fold) VALUES (?, ?, ?, ?)"))
	if err != nil {
		return s.fail(ctx, "save attributes", err)
	}
	defer func() {
		if err := stmt.Close(); err != nil {
			s.log.Warnf("failed to close statement: %v", err)
		}
	}()
	for name, value := range p.Attributes {
		if _, err := stmt.ExecContext(ctx, string(p.ID), string(name), value, query.Fold(value)); err != nil {
			return s.fail(ctx, "save attributes", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail(ctx, "save product", err)
	}
	committed = true
	return nil
}

// EnsureCategory returns the category whose slug matches name, creating it
// when missing.
func (s *Store) EnsureCategory(ctx context.Context, name string) (catalog.Category, error) {
	c := catalog.Category{Name: name, Slug: catalog.Slugify(name)}
	if c.Slug == "" {
		return c, fmt.Errorf("category %q has no usable slug", name)
	}

	err := s.db.QueryRowContext(ctx, s.q("SELECT id, name FROM categories WHERE slug = ?"), c.Slug).Scan(&c.ID, &c.Name)
	if err == nil {
		return c, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return c, s.fail(ctx, "find category", err)
	}

	err = s.db.QueryRowContext(ctx, s.q("INSERT INTO categories (slug, name) VALUES (?, ?) RETURNING id"), c.Slug, c.Name).Scan(&c.ID)
	if err != nil {
		return c, s.fail(ctx, "create category", err)
	}
	return c, nil
}

// SetProductCategories replaces the category assignment of a product. The
// slice order becomes the display order.
func (s *Store) SetProductCategories(ctx context.Context, id catalog.ProductID, categoryIDs []int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return s.fail(ctx, "set categories", err)
	}
	committed := false
	defer s.rollback(tx, &committed)

	if _, err := tx.ExecContext(ctx, s.q("DELETE FROM product_categories WHERE product_id = ?"), string(id)); err != nil {
		return s.fail(ctx, "set categories", err)
	}
	seen := make(map[int64]bool, len(categoryIDs))
	for pos, cid := range categoryIDs {
		if seen[cid] {
			continue
		}
		seen[cid] = true
		_, err := tx.ExecContext(ctx,
			s.q("INSERT INTO product_categories (product_id, category_id, position) VALUES (?, ?, ?)"),
			string(id), cid, pos)
		if err != nil {
			return s.fail(ctx, "set categories", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return s.fail(ctx, "set categories", err)
	}
	committed = true
	return nil
}

// SaveUser inserts or renames a user.
func (s *Store) SaveUser(ctx context.Context, id int64, displayName string) error {
	_, err := s.db.ExecContext(ctx, s.q(`
		INSERT INTO users (id, display_name) VALUES (?, ?)
		ON CONFLICT (id) DO UPDATE SET display_name = excluded.display_name`), id, displayName)
	if err != nil {
		return s.fail(ctx, "save user", err)
	}
	return nil
}
