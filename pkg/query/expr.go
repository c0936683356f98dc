package query

import (
	"fmt"
	"strings"

	"github.com/rubiojr/catalog/pkg/catalog"
)

// Expr is a filter expression over products. Expressions are immutable
// values; build them with the constructors and lower them in a store.
type Expr interface {
	fmt.Stringer
	isExpr()
}

// All matches every product.
type All struct{}

// None matches no product.
type None struct{}

// And matches when every operand matches.
type And []Expr

// Or matches when at least one operand matches.
type Or []Expr

// TitleContains matches products whose folded title contains Needle.
// Needle must already be folded (see Matcher.Needle).
type TitleContains struct {
	Needle string
}

// AttrContains matches products where any of Attrs holds a value whose
// folded form contains Needle.
type AttrContains struct {
	Attrs  []catalog.AttrName
	Needle string
}

// InCategory matches products assigned to the referenced category.
type InCategory struct {
	Ref catalog.CategoryRef
}

// HasStatus matches products with the given status.
type HasStatus struct {
	Status catalog.Status
}

func (All) isExpr()           {}
func (None) isExpr()          {}
func (And) isExpr()           {}
func (Or) isExpr()            {}
func (TitleContains) isExpr() {}
func (AttrContains) isExpr()  {}
func (InCategory) isExpr()    {}
func (HasStatus) isExpr()     {}

func (All) String() string  { return "all" }
func (None) String() string { return "none" }

func (e And) String() string { return "and(" + joinExprs(e) + ")" }
func (e Or) String() string  { return "or(" + joinExprs(e) + ")" }

func (e TitleContains) String() string {
	return fmt.Sprintf("title~%q", e.Needle)
}

func (e AttrContains) String() string {
	names := make([]string, len(e.Attrs))
	for i, n := range e.Attrs {
		names[i] = string(n)
	}
	return fmt.Sprintf("attr[%s]~%q", strings.Join(names, ","), e.Needle)
}

func (e InCategory) String() string { return "category=" + e.Ref.String() }
func (e HasStatus) String() string  { return "status=" + string(e.Status) }

func joinExprs(es []Expr) string {
	parts := make([]string, len(es))
	for i, e := range es {
		parts[i] = e.String()
	}
	return strings.Join(parts, ", ")
}

// AndOf builds a simplified conjunction: nested Ands are flattened, All
// operands dropped and any None collapses the result to None.
func AndOf(es ...Expr) Expr {
	var out And
	for _, e := range es {
		switch v := e.(type) {
		case nil, All:
		case None:
			return None{}
		case And:
			for _, inner := range v {
				if _, isNone := inner.(None); isNone {
					return None{}
				}
			}
			out = append(out, v...)
		default:
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return All{}
	case 1:
		return out[0]
	}
	return out
}

// OrOf builds a simplified disjunction: nested Ors are flattened, None
// operands dropped and any All collapses the result to All.
func OrOf(es ...Expr) Expr {
	var out Or
	for _, e := range es {
		switch v := e.(type) {
		case nil, None:
		case All:
			return All{}
		case Or:
			for _, inner := range v {
				if _, isAll := inner.(All); isAll {
					return All{}
				}
			}
			out = append(out, v...)
		default:
			out = append(out, e)
		}
	}
	switch len(out) {
	case 0:
		return None{}
	case 1:
		return out[0]
	}
	return out
}

// Subject is what Eval needs to know about a product.
type Subject interface {
	Title() string
	Attribute(name catalog.AttrName) (string, bool)
	InCategory(ref catalog.CategoryRef) bool
	Status() catalog.Status
}

// Eval evaluates e against s in memory. SQL stores must agree with it.
func Eval(e Expr, s Subject) bool {
	switch v := e.(type) {
	case All:
		return true
	case None, nil:
		return false
	case And:
		for _, inner := range v {
			if !Eval(inner, s) {
				return false
			}
		}
		return true
	case Or:
		for _, inner := range v {
			if Eval(inner, s) {
				return true
			}
		}
		return false
	case TitleContains:
		return strings.Contains(Fold(s.Title()), v.Needle)
	case AttrContains:
		for _, name := range v.Attrs {
			if val, ok := s.Attribute(name); ok && strings.Contains(Fold(val), v.Needle) {
				return true
			}
		}
		return false
	case InCategory:
		return s.InCategory(v.Ref)
	case HasStatus:
		return s.Status() == v.Status
	}
	return false
}
