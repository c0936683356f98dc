package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/urfave/cli/v3"
)

// OptimizeCommand creates the optimize command
func OptimizeCommand() *cli.Command {
	return &cli.Command{
		Name:  "optimize",
		Usage: "Refresh query planner statistics and compact the database",
		Action: func(ctx context.Context, c *cli.Command) error {
			return optimizeStore(ctx, c.String("config"))
		},
	}
}

func optimizeStore(ctx context.Context, configPath string) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	start := time.Now()
	if err := store.Optimize(ctx); err != nil {
		return fmt.Errorf("optimizing store: %w", err)
	}
	fmt.Printf("Optimized %s store in %v\n", store.Dialect(), time.Since(start).Round(time.Millisecond))
	return nil
}
