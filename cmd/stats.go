package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/urfave/cli/v3"
)

// StatsCommand creates the stats command
func StatsCommand() *cli.Command {
	return &cli.Command{
		Name:  "stats",
		Usage: "Show statistics",
		Action: func(ctx context.Context, c *cli.Command) error {
			return showStats(ctx, c.String("config"))
		},
	}
}

// showStats displays store statistics
func showStats(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	stats, err := store.Stats(ctx)
	if err != nil {
		return fmt.Errorf("getting stats: %w", err)
	}
	printStats(os.Stdout, stats, isTerminal(os.Stdout))
	return nil
}
