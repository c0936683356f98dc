package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"github.com/mattn/go-isatty"
	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/projection"
	"github.com/rubiojr/catalog/pkg/render"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/rubiojr/catalog/pkg/storage"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86")).
			Background(lipgloss.Color("235")).
			Padding(0, 1).
			Margin(0, 0, 1, 0)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("214"))

	labelStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("245")).
			Width(24)

	metaStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)

	urlStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("33"))

	noDataStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true).
			Margin(1, 0)

	borderStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("240"))
	cellStyle   = lipgloss.NewStyle().Padding(0, 1)
)

const maxCellWidth = 40

var tsvEscaper = strings.NewReplacer("\t", " ", "\r\n", " ", "\n", " ", "\r", " ")

// isTerminal reports whether f is an interactive terminal. Styled output is
// only used there; pipes get tab separated values.
func isTerminal(f *os.File) bool {
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}

func newTable(headers ...string) *table.Table {
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(borderStyle).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return headerStyle.Padding(0, 1)
			}
			return cellStyle
		}).
		Headers(headers...)
}

// printSearch writes one result page. columns selects the attributes shown
// after the id, title and categories.
func printSearch(w io.Writer, schema *catalog.Schema, columns []catalog.AttrName, resp *search.Response, styled bool) {
	headers := []string{"ID", "Title", "Categories"}
	for _, name := range columns {
		label := string(name)
		if attr, ok := schema.Lookup(string(name)); ok {
			label = attr.Label
		}
		headers = append(headers, label)
	}

	if !styled {
		printTSVHeader(w, columns)
		printTSVRows(w, columns, resp)
		return
	}

	if len(resp.Rows) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No products found"))
		return
	}

	t := newTable(headers...)
	for _, row := range resp.Rows {
		cells := []string{string(row.ID), render.Display(row.Title), render.Display(row.Categories)}
		for _, name := range columns {
			cells = append(cells, render.Display(row.Attr(name)))
		}
		for i, c := range cells {
			cells[i] = truncate(tsvEscaper.Replace(c), maxCellWidth)
		}
		t.Row(cells...)
	}
	fmt.Fprintln(w, t.String())
	fmt.Fprintln(w, metaStyle.Render(pageSummary(resp)))
}

func printTSVHeader(w io.Writer, columns []catalog.AttrName) {
	names := []string{"id", "title", "categories"}
	for _, c := range columns {
		names = append(names, string(c))
	}
	fmt.Fprintln(w, strings.Join(names, "\t"))
}

func printTSVRows(w io.Writer, columns []catalog.AttrName, resp *search.Response) {
	for _, row := range resp.Rows {
		cells := []string{string(row.ID), row.Title.Text, row.Categories.Text}
		for _, name := range columns {
			cells = append(cells, row.Attr(name).Text)
		}
		for i, c := range cells {
			cells[i] = tsvEscaper.Replace(c)
		}
		fmt.Fprintln(w, strings.Join(cells, "\t"))
	}
}

func pageSummary(resp *search.Response) string {
	first := (resp.Page-1)*resp.PageSize + 1
	last := first + len(resp.Rows) - 1
	s := fmt.Sprintf("Page %d, showing %d-%d of %d", resp.Page, first, last, resp.Total)
	if resp.HasMore {
		s += fmt.Sprintf(", next: --page %d", resp.Page+1)
	}
	return s
}

// printDetail writes the details view of a product.
func printDetail(w io.Writer, d *projection.Detail, styled bool) {
	categories := make([]string, len(d.Categories))
	for i, c := range d.Categories {
		categories[i] = c.Name
	}
	catLine := strings.Join(categories, ", ")

	if !styled {
		fmt.Fprintf(w, "id\t%s\n", d.ID)
		fmt.Fprintf(w, "title\t%s\n", tsvEscaper.Replace(d.Title.Text))
		fmt.Fprintf(w, "status\t%s\n", d.Status)
		fmt.Fprintf(w, "permalink\t%s\n", d.Permalink.Text)
		fmt.Fprintf(w, "categories\t%s\n", catLine)
		for _, f := range d.Fields {
			fmt.Fprintf(w, "%s\t%s\n", f.Name, tsvEscaper.Replace(f.Value.Text))
		}
		return
	}

	fmt.Fprintln(w, titleStyle.Render(render.Display(d.Title)))
	meta := fmt.Sprintf("%s · %s", d.ID, d.Status)
	if !d.CreatedAt.IsZero() {
		meta += " · created " + d.CreatedAt.Format("Jan 2, 2006")
	}
	fmt.Fprintln(w, metaStyle.Render(meta))
	if d.Permalink.Present {
		fmt.Fprintln(w, urlStyle.Render(d.Permalink.Text))
	}
	if catLine == "" {
		catLine = render.Placeholder
	}
	fmt.Fprintln(w, labelStyle.Render("Categories")+catLine)
	fmt.Fprintln(w)
	for _, f := range d.Fields {
		value := render.Display(f.Value)
		if f.Kind == catalog.KindDate && f.Value.Present {
			value = render.FormatDate(f.Value.Text)
		}
		if f.Kind == catalog.KindURL && f.Value.Present {
			value = urlStyle.Render(value)
		}
		fmt.Fprintln(w, labelStyle.Render(f.Label)+value)
	}
}

func printCategories(w io.Writer, categories []catalog.Category, styled bool) {
	if !styled {
		fmt.Fprintln(w, "id\tslug\tname")
		for _, c := range categories {
			fmt.Fprintf(w, "%d\t%s\t%s\n", c.ID, c.Slug, tsvEscaper.Replace(c.Name))
		}
		return
	}
	if len(categories) == 0 {
		fmt.Fprintln(w, noDataStyle.Render("No categories"))
		return
	}
	t := newTable("ID", "Slug", "Name")
	for _, c := range categories {
		t.Row(fmt.Sprint(c.ID), c.Slug, c.Name)
	}
	fmt.Fprintln(w, t.String())
}

func printStats(w io.Writer, st *storage.Stats, styled bool) {
	title := cases.Title(language.English)
	rows := [][2]string{}
	for _, status := range catalog.Statuses() {
		rows = append(rows, [2]string{title.String(string(status)), fmt.Sprint(st.Products[status])})
	}
	rows = append(rows,
		[2]string{"Total products", fmt.Sprint(st.Total())},
		[2]string{"Attribute values", fmt.Sprint(st.Attributes)},
		[2]string{"Categories", fmt.Sprint(st.Categories)},
		[2]string{"Users", fmt.Sprint(st.Users)},
	)

	if !styled {
		for _, r := range rows {
			fmt.Fprintf(w, "%s\t%s\n", r[0], r[1])
		}
		return
	}
	fmt.Fprintln(w, titleStyle.Render("Catalog statistics"))
	for _, r := range rows {
		fmt.Fprintln(w, labelStyle.Render(r[0])+r[1])
	}
}
