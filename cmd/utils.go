package cmd

import (
	"fmt"
	"os"

	"github.com/rubiojr/catalog/pkg/catalog"
	"github.com/rubiojr/catalog/pkg/config"
	"github.com/rubiojr/catalog/pkg/db"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/rubiojr/catalog/pkg/search"
	"github.com/rubiojr/catalog/pkg/storage"
)

var cliLog = log.For("cli")

// openStore opens the configured store and refuses to continue while
// migrations are pending.
func openStore(cfg *config.Config) (*storage.Store, error) {
	store, err := openStoreWithoutMigrationCheck(cfg)
	if err != nil {
		return nil, err
	}

	status, err := store.MigrationStatus()
	if err != nil {
		closeStore(store)
		return nil, fmt.Errorf("checking migrations: %w", err)
	}
	if n := len(status.Pending); n > 0 {
		closeStore(store)
		return nil, fmt.Errorf("database has %d pending migration(s), run 'catalog migrate' first", n)
	}
	return store, nil
}

func openStoreWithoutMigrationCheck(cfg *config.Config) (*storage.Store, error) {
	if d, _ := db.ParseDialect(cfg.Store.Driver); d == db.SQLite {
		if err := os.MkdirAll(cfg.StorageDir, 0755); err != nil {
			return nil, fmt.Errorf("creating storage directory: %w", err)
		}
	}

	store, err := storage.Open(cfg.Store.Driver, cfg.StoreDSN())
	if err != nil {
		return nil, fmt.Errorf("opening store: %w", err)
	}
	return store, nil
}

func closeStore(store *storage.Store) {
	if err := store.Close(); err != nil {
		cliLog.Warnf("failed to close store: %v", err)
	}
}

func newService(cfg *config.Config, store search.Store) *search.Service {
	return search.New(store, catalog.DefaultSchema(),
		search.WithDefaultPageSize(cfg.Search.DefaultPageSize),
		search.WithStoreTimeout(cfg.Search.StoreTimeout.Duration),
		search.WithProjectionWorkers(cfg.Search.ProjectionWorkers),
	)
}

func loadConfig(configPath string) (*config.Config, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	return cfg, nil
}
