package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rubiojr/catalog/pkg/db"
	"github.com/urfave/cli/v3"
)

// MigrateCommand creates the migrate command
func MigrateCommand() *cli.Command {
	return &cli.Command{
		Name:  "migrate",
		Usage: "Run database migrations",
		Flags: []cli.Flag{
			&cli.BoolFlag{
				Name:  "status",
				Usage: "Show migration status without applying migrations",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return runMigrations(os.Stdout, c.String("config"), c.Bool("status"))
		},
	}
}

func runMigrations(w io.Writer, configPath string, statusOnly bool) error {
	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	store, err := openStoreWithoutMigrationCheck(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	if statusOnly {
		status, err := store.MigrationStatus()
		if err != nil {
			return fmt.Errorf("reading migration status: %w", err)
		}
		printMigrationStatus(w, status)
		return nil
	}

	n, err := store.Migrate()
	if err != nil {
		return fmt.Errorf("applying migrations: %w", err)
	}
	if n == 0 {
		fmt.Fprintln(w, "Database is up to date")
	} else {
		fmt.Fprintf(w, "Applied %d migration(s)\n", n)
	}
	return nil
}

func printMigrationStatus(w io.Writer, status *db.MigrationStatus) {
	fmt.Fprintf(w, "Applied migrations: %d\n", len(status.Applied))
	for _, m := range status.Applied {
		appliedTime := "unknown"
		if m.AppliedAt != nil {
			appliedTime = m.AppliedAt.Format("2006-01-02 15:04:05")
		}
		fmt.Fprintf(w, "  ✓ %03d: %s (applied: %s)\n", m.Version, m.Name, appliedTime)
	}

	fmt.Fprintf(w, "Pending migrations: %d\n", len(status.Pending))
	for _, m := range status.Pending {
		fmt.Fprintf(w, "  • %03d: %s\n", m.Version, m.Name)
	}
	if len(status.Pending) == 0 {
		fmt.Fprintln(w, "  (none - database is up to date)")
	}
}
