package cmd

import (
	"context"
	"os"
	"strings"

	"github.com/rubiojr/catalog/pkg/config"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/urfave/cli/v3"
)

// EnvDebug lists components to debug, comma separated, e.g. "api,storage".
const EnvDebug = "CATALOG_DEBUG"

// App builds the catalog command line.
func App(defaultConfigPath string) *cli.Command {
	return &cli.Command{
		Name:  "catalog",
		Usage: "Search and browse a product catalog",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "debug",
				Usage: "Enable debug logging",
				Value: false,
			},
			&cli.StringFlag{
				Name:  "config",
				Usage: "Configuration file path",
				Value: defaultConfigPath,
			},
		},
		Before: func(ctx context.Context, c *cli.Command) (context.Context, error) {
			if err := config.LoadDotEnv(".env"); err != nil {
				return ctx, err
			}
			configureLogging(c.Bool("debug"), os.Getenv(EnvDebug))
			return ctx, nil
		},
		Commands: []*cli.Command{
			InitCommand(),
			MigrateCommand(),
			ImportCommand(),
			ExportCommand(),
			SearchCommand(),
			ShowCommand(),
			CategoriesCommand(),
			StatsCommand(),
			OptimizeCommand(),
			ServeCommand(),
			MCPCommand(),
			VersionCommand(),
		},
	}
}

func configureLogging(debug bool, components string) {
	log.SetDebug(debug)
	if components == "" {
		return
	}
	if components == "all" || components == "*" {
		log.SetDebug(true)
		return
	}
	log.EnableDebug(strings.Split(components, ",")...)
}
