package query

import (
	"github.com/rubiojr/catalog/pkg/catalog"
)

// Planner turns a SearchQuery into a filter expression. It holds only the
// schema and is safe for concurrent use.
type Planner struct {
	schema *catalog.Schema
}

func NewPlanner(schema *catalog.Schema) *Planner {
	return &Planner{schema: schema}
}

// Plan builds the filter for q. Only published products are listed; the
// text condition depends on the field mode and the category restriction is
// AND-ed on top. Unknown attributes produce None rather than an error.
func (p *Planner) Plan(q SearchQuery) Expr {
	q = q.Normalize()

	parts := []Expr{HasStatus{Status: catalog.StatusPublished}}
	parts = append(parts, p.textCondition(q))
	if !q.Category.IsZero() {
		parts = append(parts, InCategory{Ref: q.Category})
	}
	return AndOf(parts...)
}

func (p *Planner) textCondition(q SearchQuery) Expr {
	m := BuildMatcher(q.Text)
	if m.MatchesAll() {
		return All{}
	}
	title := TitleContains{Needle: m.Needle()}

	switch q.Field {
	case FieldTitle:
		return title
	case FieldAll:
		if p.schema.Len() == 0 {
			return title
		}
		return OrOf(title, AttrContains{Attrs: p.schema.Names(), Needle: m.Needle()})
	}

	attr, ok := p.schema.Lookup(q.Field)
	if !ok {
		return None{}
	}
	return AttrContains{Attrs: []catalog.AttrName{attr.Name}, Needle: m.Needle()}
}
