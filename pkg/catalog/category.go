package catalog

import (
	"strconv"
	"strings"
)

// Category groups products. Products and categories are many-to-many.
type Category struct {
	ID   int64  `json:"id"`
	Slug string `json:"slug"`
	Name string `json:"name"`
}

// CategoryRef identifies a category either by numeric ID or by slug.
// The zero value means "no category restriction".
type CategoryRef struct {
	ID   int64
	Slug string
}

// ParseCategoryRef interprets raw as a category ID when it is numeric and
// as a slug otherwise. Empty input and "0" yield the zero ref.
func ParseCategoryRef(raw string) CategoryRef {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return CategoryRef{}
	}
	if n, err := strconv.ParseInt(raw, 10, 64); err == nil {
		return CategoryRef{ID: n}
	}
	return CategoryRef{Slug: strings.ToLower(raw)}
}

func (r CategoryRef) IsZero() bool {
	return r.ID == 0 && r.Slug == ""
}

// Matches reports whether c is the category this ref points at.
func (r CategoryRef) Matches(c Category) bool {
	if r.ID != 0 {
		return c.ID == r.ID
	}
	return r.Slug != "" && strings.EqualFold(c.Slug, r.Slug)
}

func (r CategoryRef) String() string {
	if r.ID != 0 {
		return strconv.FormatInt(r.ID, 10)
	}
	return r.Slug
}
