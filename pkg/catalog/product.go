package catalog

import (
	"fmt"
	"strings"
	"time"
)

// ProductID is the opaque identity of a product. The store assigns it; this
// package never interprets it.
type ProductID string

func (id ProductID) String() string { return string(id) }

// Status is the publication state of a product.
type Status string

const (
	StatusDraft     Status = "draft"
	StatusPending   Status = "pending"
	StatusPrivate   Status = "private"
	StatusPublished Status = "published"
)

var statuses = []Status{StatusDraft, StatusPending, StatusPrivate, StatusPublished}

// Statuses returns every known status in a stable order.
func Statuses() []Status {
	out := make([]Status, len(statuses))
	copy(out, statuses)
	return out
}

// ParseStatus maps a raw string to a Status. "publish" is accepted as an
// alias of published since older exports use it.
func ParseStatus(raw string) (Status, error) {
	s := strings.ToLower(strings.TrimSpace(raw))
	if s == "" {
		return StatusDraft, nil
	}
	if s == "publish" {
		return StatusPublished, nil
	}
	for _, st := range statuses {
		if string(st) == s {
			return st, nil
		}
	}
	return "", fmt.Errorf("unknown product status %q", raw)
}

// Product is a catalog record as held by the store.
type Product struct {
	ID         ProductID
	Slug       string
	Title      string
	Status     Status
	Permalink  string
	CreatedAt  time.Time
	Attributes map[AttrName]string
}

// Attribute returns the raw stored value of an attribute and whether it is
// present at all.
func (p *Product) Attribute(name AttrName) (string, bool) {
	if p == nil || p.Attributes == nil {
		return "", false
	}
	v, ok := p.Attributes[name]
	return v, ok
}

// SetAttribute stores a value without validation. Use Schema.Sanitize first
// when the value comes from user input.
func (p *Product) SetAttribute(name AttrName, value string) {
	if p.Attributes == nil {
		p.Attributes = make(map[AttrName]string)
	}
	p.Attributes[name] = value
}

// Slugify derives a URL friendly slug from a title: lower case ASCII letters
// and digits separated by single dashes.
func Slugify(title string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}
