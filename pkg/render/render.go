// Package render produces the HTML fragments used by the web front end:
// the table rows appended by the infinite-scroll loader and the product
// details panel. Fragments are templ components so they can be embedded in
// larger templ pages or rendered on their own.
package render

import (
	"context"
	"io"
	"strings"
	"time"

	"github.com/a-h/templ"
	"github.com/rubiojr/catalog/pkg/catalog"
)

// Placeholder is shown for absent values.
const Placeholder = "—"

// launch dates come from spreadsheets and the legacy store in several shapes
var dateLayouts = []string{
	"20060102",
	"2006-01-02",
	time.RFC3339,
	"01/02/2006",
	"1/2/2006",
}

// Display returns the text of v, or Placeholder when v is absent or blank.
func Display(v catalog.Value) string {
	if !v.Present || strings.TrimSpace(v.Text) == "" {
		return Placeholder
	}
	return v.Text
}

// FormatDate renders a stored date as "Jan 2, 2006". Values that do not
// parse are returned unchanged.
func FormatDate(raw string) string {
	raw = strings.TrimSpace(raw)
	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, raw); err == nil {
			return t.Format("Jan 2, 2006")
		}
	}
	return raw
}

// String renders c into a string.
func String(ctx context.Context, c templ.Component) (string, error) {
	var sb strings.Builder
	if err := c.Render(ctx, &sb); err != nil {
		return "", err
	}
	return sb.String(), nil
}

// htmlWriter collects the first write error so components can emit markup
// without checking every call.
type htmlWriter struct {
	w   io.Writer
	err error
}

func (h *htmlWriter) raw(s string) {
	if h.err != nil {
		return
	}
	_, h.err = io.WriteString(h.w, s)
}

func (h *htmlWriter) text(s string) {
	h.raw(templ.EscapeString(s))
}

func (h *htmlWriter) link(href, label string) {
	h.raw(`<a href="`)
	h.text(string(templ.URL(href)))
	h.raw(`" rel="noopener">`)
	h.text(label)
	h.raw(`</a>`)
}

// value writes v formatted for its kind.
func (h *htmlWriter) value(kind catalog.Kind, v catalog.Value) {
	text := Display(v)
	if text == Placeholder {
		h.raw(`<span class="absent">`)
		h.text(Placeholder)
		h.raw(`</span>`)
		return
	}

	switch kind {
	case catalog.KindURL:
		if catalog.ValidURL(text) {
			h.link(text, text)
			return
		}
		h.text(text)
	case catalog.KindDate:
		h.text(FormatDate(text))
	case catalog.KindLongText:
		for i, line := range strings.Split(text, "\n") {
			if i > 0 {
				h.raw("<br>")
			}
			h.text(line)
		}
	default:
		h.text(text)
	}
}
