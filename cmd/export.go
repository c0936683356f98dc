package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/catalog/pkg/importer"
	"github.com/rubiojr/catalog/pkg/query"
	"github.com/urfave/cli/v3"
)

// ExportCommand creates the export command
func ExportCommand() *cli.Command {
	return &cli.Command{
		Name:      "export",
		Usage:     "Export matching products to an Excel workbook",
		ArgsUsage: "FILE.xlsx",
		Flags:     searchFlags(),
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one output file")
			}
			path := c.Args().First()

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
			q.PageSize = query.MaxPageSize
			n, err := importer.Export(ctx, newService(cfg, store), q, path)
			if err != nil {
				return err
			}
			fmt.Printf("Exported %d product(s) to %s\n", n, path)
			return nil
		},
	}
}
