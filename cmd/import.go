package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/importer"
	"github.com/urfave/cli/v3"
)

// ImportCommand creates the import command
func ImportCommand() *cli.Command {
	return &cli.Command{
		Name:      "import",
		Usage:     "Import products from an Excel workbook",
		ArgsUsage: "FILE.xlsx",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "status",
				Usage: "Status for rows without one (draft, pending, private, published)",
				Value: string(catalog.StatusPublished),
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			if c.Args().Len() != 1 {
				return fmt.Errorf("expected exactly one workbook")
			}
			status, err := catalog.ParseStatus(c.String("status"))
			if err != nil {
				return err
			}

			cfg, err := loadConfig(c.String("config"))
			if err != nil {
				return err
			}

			lock := importer.NewLock(cfg.StorageDir)
			if err := lock.TryLock(); err != nil {
				if errors.Is(err, importer.ErrLocked) {
					return fmt.Errorf("%w (lock file %s)", err, lock.Path())
				}
				return err
			}
			defer func() {
				if err := lock.Unlock(); err != nil {
					cliLog.Warnf("%v", err)
				}
			}()

			store, err := openStore(cfg)
			if err != nil {
				return err
			}
			defer closeStore(store)

			im := importer.New(store, catalog.DefaultSchema(), importer.WithDefaultStatus(status))
			res, err := im.ImportFile(ctx, c.Args().First())
			if err != nil {
				return err
			}
			printImportResult(os.Stdout, res)
			return nil
		},
	}
}

func printImportResult(w io.Writer, res *importer.Result) {
	for _, warning := range res.Warnings {
		fmt.Fprintf(w, "warning: %s\n", warning)
	}
	fmt.Fprintf(w, "Imported %d product(s), skipped %d\n", res.Imported, res.Skipped)
}
