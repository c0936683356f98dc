package cmd

import (
	"context"
	"fmt"

	"github.com/rubiojr/catalog/pkg/config"
	"github.com/urfave/cli/v3"
)

// InitCommand creates the init command
func InitCommand() *cli.Command {
	return &cli.Command{
		Name:  "init",
		Usage: "Initialize configuration and database",
		Action: func(ctx context.Context, c *cli.Command) error {
			return initCatalog(c.String("config"))
		},
	}
}

// initCatalog writes the configuration template and creates the database.
func initCatalog(configPath string) error {
	cfg, err := config.GetDefaultConfig()
	if err != nil {
		return err
	}
	if err := cfg.SaveTemplateConfig(configPath); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("Configuration initialized at %s\n", configPath)

	cfg, err = loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStoreWithoutMigrationCheck(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	n, err := store.Migrate()
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	fmt.Printf("Database ready (%d migration(s) applied)\n", n)
	return nil
}
