package cmd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/urfave/cli/v3"
)

// ShowCommand creates the show command
func ShowCommand() *cli.Command {
	return &cli.Command{
		Name:      "show",
		Usage:     "Show the details of a product",
		ArgsUsage: "ID",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Print the details as JSON",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one product ID")
			}

			cfg, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}
			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			id := catalog.ProductID(c.Args().First())
			return showProduct(ctx, os.Stdout, newService(cfg, store), id, c.Bool("json"), isTerminal(os.Stdout))
		},
	}
}

func showProduct(ctx context.Context, w io.Writer, svc *search.Service, id catalog.ProductID, asJSON, styled bool) error {
	d, err := svc.Product(ctx, id)
	if errors.Is(err, catalog.ErrNotFound) {
		return fmt.Errorf("product %q not found", id)
	}
	if err != nil {
		return err
	}

	if asJSON {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(d)
	}
	printDetail(w, d, styled)
	return nil
}
