package cmd

import (
	"context"
	"os"

	"github.com/urfave/cli/v3"
)

// CategoriesCommand creates the categories command
func CategoriesCommand() *cli.Command {
	return &cli.Command{
		Name:  "categories",
		Usage: "List product categories",
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

			cats, err := newService(cfg, store).Categories(ctx)
			if err != nil {
				return err
			}
			printCategories(os.Stdout, cats, isTerminal(os.Stdout))
			return nil
		},
	}
}
