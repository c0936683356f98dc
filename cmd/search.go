package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/query"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/urfave/cli/v3"
)

// searchFlags are shared by the search and export commands.
func searchFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{
			Name:    "query",
			Aliases: []string{"q"},
			Usage:   "Text to look for, case-insensitive substring",
		},
		&cli.StringFlag{
			Name:  "field",
			Usage: `Where to look: "all", "title" or an attribute key`,
			Value: query.FieldAll,
		},
		&cli.StringFlag{
			Name:  "category",
			Usage: "Category ID or slug",
		},
		&cli.StringFlag{
			Name:  "sort",
			Usage: "newest, title, sku, vendor or type",
			Value: string(query.SortNewest),
		},
	}
}

func searchQueryFrom(c *cli.Command) query.SearchQuery {
	return query.SearchQuery{
		Text:     c.String("query"),
		Field:    c.String("field"),
		Category: catalog.ParseCategoryRef(c.String("category")),
		Page:     c.Int("page"),
		PageSize: c.Int("page-size"),
		Sort:     query.ParseSort(c.String("sort")),
	}
}

// SearchCommand creates the search command
func SearchCommand() *cli.Command {
	flags := append(searchFlags(),
		&cli.IntFlag{
			Name:  "page",
			Usage: "Page number, starting at 1",
			Value: 1,
		},
		&cli.IntFlag{
			Name:  "page-size",
			Usage: "Rows per page (1-500), 0 uses the configured default",
		},
		&cli.StringFlag{
			Name:  "columns",
			Usage: "Comma separated attribute keys to show",
		},
		&cli.BoolFlag{
			Name:  "all",
			Usage: "Print every page starting at --page",
		},
		&cli.BoolFlag{
			Name:  "json",
			Usage: "Print raw JSON pages",
		},
	)
	return &cli.Command{
		Name:      "search",
		Usage:     "Search published products",
		ArgsUsage: "[TEXT]",
		Flags:     flags,
		Action: func(ctx context.Context, c *cli.Command) error {
			cfg, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			q := searchQueryFrom(c)
			if q.Text == "" && c.Args().Len() > 0 {
				q.Text = strings.Join(c.Args().Slice(), " ")
			}
			opts := searchOptions{
				columns: c.String("columns"),
				all:     c.Bool("all"),
				json:    c.Bool("json"),
				styled:  isTerminal(os.Stdout),
			}
			return runSearch(ctx, os.Stdout, newService(cfg, store), q, opts)
		},
	}
}

type searchOptions struct {
	columns string
	all     bool
	json    bool
	styled  bool
}

func runSearch(ctx context.Context, w io.Writer, svc *search.Service, q query.SearchQuery, opts searchOptions) error {
	columns, err := selectColumns(svc, opts.columns, opts.styled)
	if err != nil {
		return err
	}

	emit := func(resp *search.Response) error {
		if opts.json {
			enc := json.NewEncoder(w)
			enc.SetIndent("", "  ")
			return enc.Encode(resp)
		}
		printSearch(w, svc.Schema(), columns, resp, opts.styled)
		return nil
	}

	if opts.all {
		first := true
		return svc.Walk(ctx, q, func(resp *search.Response) error {
			defer func() { first = false }()
			if !opts.json && !opts.styled {
				// A single header keeps the output one TSV document.
				if first {
					printTSVHeader(w, columns)
				}
				printTSVRows(w, columns, resp)
				return nil
			}
			return emit(resp)
		})
	}

	resp, err := svc.Search(ctx, q)
	if err != nil {
		return err
	}
	return emit(resp)
}

// selectColumns resolves the --columns flag. Without it, styled output
// shows a few leading columns and plain output shows all of them.
func selectColumns(svc *search.Service, raw string, styled bool) ([]catalog.AttrName, error) {
	all := svc.Columns()
	if strings.TrimSpace(raw) == "" {
		if styled && len(all) > 3 {
			return all[:3], nil
		}
		return all, nil
	}

	var cols []catalog.AttrName
	for _, name := range strings.Split(raw, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		attr, ok := svc.Schema().Lookup(name)
		if !ok {
			return nil, fmt.Errorf("unknown column %q", name)
		}
		cols = append(cols, attr.Name)
	}
	return cols, nil
}
