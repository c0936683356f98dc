package storage

import (
	"fmt"
	"strings"

	"github.com/rubiojr/catalog/pkg/db"
	"github.com/rubiojr/catalog/pkg/query"
)

// filterSQL lowers filter expressions to parameterized SQL over
// "products p". Attribute and category conditions are EXISTS subqueries, so
// a product matching several ways still yields a single row.
type filterSQL struct {
	dialect db.Dialect
	args    []any
}

func (f *filterSQL) bind(v any) string {
	f.args = append(f.args, v)
	return f.dialect.Placeholder(len(f.args))
}

func (f *filterSQL) where(e query.Expr) (string, error) {
	switch v := e.(type) {
	case query.All:
		return "1=1", nil
	case query.None:
		return "1=0", nil
	case query.And:
		return f.join(v, " AND ", "1=1")
	case query.Or:
		return f.join(v, " OR ", "1=0")
	case query.TitleContains:
		return "p.title_fold LIKE " + f.bind(likePattern(v.Needle)) + ` ESCAPE '\'`, nil
	case query.AttrContains:
		if len(v.Attrs) == 0 {
			return "1=0", nil
		}
		names := make([]string, len(v.Attrs))
		for i, a := range v.Attrs {
			names[i] = f.bind(string(a))
		}
		return fmt.Sprintf(
			`EXISTS (SELECT 1 FROM product_attributes a WHERE a.product_id = p.id AND a.name IN (%s) AND a.value_fold LIKE %s ESCAPE '\')`,
			strings.Join(names, ", "), f.bind(likePattern(v.Needle)),
		), nil
	case query.InCategory:
		if v.Ref.ID != 0 {
			return "EXISTS (SELECT 1 FROM product_categories pc WHERE pc.product_id = p.id AND pc.category_id = " + f.bind(v.Ref.ID) + ")", nil
		}
		if v.Ref.Slug == "" {
			return "1=1", nil
		}
		return "EXISTS (SELECT 1 FROM product_categories pc JOIN categories c ON c.id = pc.category_id WHERE pc.product_id = p.id AND c.slug = " + f.bind(v.Ref.Slug) + ")", nil
	case query.HasStatus:
		return "p.status = " + f.bind(string(v.Status)), nil
	}
	return "", fmt.Errorf("unsupported filter expression %T", e)
}

func (f *filterSQL) join(es []query.Expr, sep, empty string) (string, error) {
	if len(es) == 0 {
		return empty, nil
	}
	parts := make([]string, len(es))
	for i, e := range es {
		s, err := f.where(e)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "(" + strings.Join(parts, sep) + ")", nil
}

// orderBy returns the ORDER BY clause for a sort. Product ID is always the
// final tie-break.
func (f *filterSQL) orderBy(s query.Sort) string {
	if s == query.SortTitle {
		return "p.title_fold ASC, p.id ASC"
	}
	if attr, ok := s.Attribute(); ok {
		return "COALESCE((SELECT a.value_fold FROM product_attributes a WHERE a.product_id = p.id AND a.name = " +
			f.bind(string(attr)) + "), '') ASC, p.id ASC"
	}
	return "p.created_at DESC, p.id ASC"
}

// escapeLike escapes LIKE wildcards so the needle matches literally with
// ESCAPE '\'.
func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}

func likePattern(needle string) string {
	return "%" + escapeLike(needle) + "%"
}
