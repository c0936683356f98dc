package render

import (
	"context"
	"io"

	"github.com/a-h/templ"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/projection"
)

// Rows renders one <tr> per row. The first two cells are the title (linked
// to the permalink when there is one) and the categories, followed by one
// cell per column in order.
func Rows(schema *catalog.Schema, columns []catalog.AttrName, rows []projection.Row) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		for _, row := range rows {
			h.raw(`<tr data-id="`)
			h.text(row.ID.String())
			h.raw(`"><td class="title">`)
			if row.Permalink.Present && row.Title.Present {
				h.link(row.Permalink.Text, row.Title.Text)
			} else {
				h.value(catalog.KindText, row.Title)
			}
			h.raw(`</td><td class="categories">`)
			h.value(catalog.KindText, row.Categories)
			h.raw(`</td>`)

			for _, name := range columns {
				kind := catalog.KindText
				if a, ok := schema.Lookup(string(name)); ok {
					kind = a.Kind
				}
				h.raw(`<td class="`)
				h.text(string(name))
				h.raw(`">`)
				h.value(kind, row.Attr(name))
				h.raw(`</td>`)
			}
			h.raw("</tr>\n")
		}
		return h.err
	})
}

// Header renders the <tr> of column headings matching Rows.
func Header(schema *catalog.Schema, columns []catalog.AttrName) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<tr><th>Title</th><th>Categories</th>`)
		for _, name := range columns {
			label := string(name)
			if a, ok := schema.Lookup(string(name)); ok {
				label = a.Label
			}
			h.raw(`<th>`)
			h.text(label)
			h.raw(`</th>`)
		}
		h.raw("</tr>\n")
		return h.err
	})
}
