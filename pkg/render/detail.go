package render

import (
	"context"
	"io"
	"strings"

	"github.com/a-h/templ"
	"github.com/rubiojr/catalog/pkg/projection"
)

// Detail renders the details panel of a product as a definition list of
// every schema field.
func Detail(d *projection.Detail) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		h := &htmlWriter{w: w}
		h.raw(`<article class="product" data-id="`)
		h.text(d.ID.String())
		h.raw(`"><h1>`)
		h.text(Display(d.Title))
		h.raw(`</h1>`)

		if d.Permalink.Present {
			h.raw(`<p class="permalink">`)
			h.link(d.Permalink.Text, d.Permalink.Text)
			h.raw(`</p>`)
		}

		if len(d.Categories) > 0 {
			names := make([]string, len(d.Categories))
			for i, c := range d.Categories {
				names[i] = c.Name
			}
			h.raw(`<p class="categories">`)
			h.text(strings.Join(names, ", "))
			h.raw(`</p>`)
		}

		h.raw(`<dl>`)
		for _, f := range d.Fields {
			h.raw(`<dt>`)
			h.text(f.Label)
			h.raw(`</dt><dd class="`)
			h.text(string(f.Name))
			h.raw(`">`)
			h.value(f.Kind, f.Value)
			h.raw(`</dd>`)
		}
		h.raw("</dl></article>\n")
		return h.err
	})
}
