package cmd

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/rubiojr/catalog/pkg/api"
	"github.com/rubiojr/catalog/pkg/config"
	"github.com/rubiojr/catalog/pkg/log"
	"github.com/rubiojr/catalog/pkg/warehouse"
	"github.com/urfave/cli/v3"
)

// ServeCommand creates the serve command
func ServeCommand() *cli.Command {
	return &cli.Command{
		Name:  "serve",
		Usage: "Serve the catalog HTTP API",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "host",
				Usage: "Listen host, overrides server.host",
			},
			&cli.IntFlag{
				Name:  "port",
				Usage: "Listen port, overrides server.port",
			},
		},
		Action: func(ctx context.Context, c *cli.Command) error {
			return serve(ctx, c.String("config"), c.String("host"), c.Int("port"))
		},
	}
}

func serve(ctx context.Context, configPath, host string, port int) error {
	logger := log.For("serve")

	cfg, err := loadConfig(configPath)
	if err != nil {
		return err
	}
	// Flags win over the file, on reloads too.
	override := func(c *config.Config) {
		if host != "" {
			c.Server.Host = host
		}
		if port != 0 {
			c.Server.Port = port
		}
	}
	override(cfg)

	store, err := openStore(cfg)
	if err != nil {
		return err
	}
	defer closeStore(store)

	srv := api.NewServer(newService(cfg, store), api.WithRateLimit(cfg.Server.RateLimit, cfg.Server.RateBurst))

	wh := warehouse.NewWarehouse(warehouse.Config{OptimizeInterval: cfg.Store.OptimizeInterval.Duration}, store)
	if err := wh.Start(ctx); err != nil {
		return fmt.Errorf("starting warehouse: %w", err)
	}
	defer wh.Stop()

	server := &http.Server{
		Addr:              cfg.Addr(),
		Handler:           srv.Handler(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Infof("Starting catalog API on http://%s", cfg.Addr())
		logger.Infof("Available endpoints:")
		logger.Infof("  GET /api/products - Search products (JSON)")
		logger.Infof("  GET /api/rows - Search products (HTML rows)")
		logger.Infof("  GET /api/ws - Incremental paging over WebSocket")
		logger.Infof("  GET /api/products/{id} - Product details (JSON)")
		logger.Infof("  GET /api/categories - List categories")
		logger.Infof("  GET /api/schema - Attribute schema and list columns")
		logger.Infof("  GET /products/{id} - Product details (HTML)")
		logger.Infof("  GET /health - Health check")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM, syscall.SIGHUP)
	defer signal.Stop(sigCh)

	// nil channels block forever, so a missing watcher simply never fires.
	var fsEvents <-chan fsnotify.Event
	var fsErrors <-chan error
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		logger.Warnf("failed to create config file watcher: %v", err)
	} else {
		defer func() {
			if err := watcher.Close(); err != nil {
				logger.Warnf("failed to close config file watcher: %v", err)
			}
		}()
		if err := watcher.Add(configPath); err != nil {
			logger.Warnf("failed to watch config file %s: %v", configPath, err)
		} else {
			logger.Infof("Watching config file for changes: %s", configPath)
			fsEvents, fsErrors = watcher.Events, watcher.Errors
		}
	}

	current := cfg
	reload := func(reason string) {
		logger.Infof("%s, reloading configuration...", reason)
		next, err := reloadConfiguration(configPath, current, override, srv, wh)
		if err != nil {
			logger.Errorf("Failed to reload configuration: %v", err)
			return
		}
		current = next
		logger.Infof("Configuration reloaded successfully")
	}

	for {
		select {
		case err := <-errCh:
			return fmt.Errorf("server failed: %w", err)
		case <-ctx.Done():
			return shutdown(server)
		case sig := <-sigCh:
			if sig == syscall.SIGHUP {
				reload("Received SIGHUP")
				continue
			}
			return shutdown(server)
		case event, ok := <-fsEvents:
			if !ok {
				fsEvents = nil
				continue
			}
			if !(event.Has(fsnotify.Write) || event.Has(fsnotify.Create) || event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove)) {
				continue
			}
			// Editors often replace the file atomically, which drops the watch.
			if event.Has(fsnotify.Rename) || event.Has(fsnotify.Remove) {
				time.Sleep(200 * time.Millisecond)
				if _, err := os.Stat(configPath); os.IsNotExist(err) {
					logger.Warnf("Config file was removed and not replaced, skipping reload")
					continue
				}
				if err := watcher.Add(configPath); err != nil {
					logger.Warnf("failed to re-add config file to watcher: %v", err)
				}
			} else {
				time.Sleep(100 * time.Millisecond)
			}
			reload(fmt.Sprintf("Config file changed (%s)", event.Op))
		case err, ok := <-fsErrors:
			if !ok {
				fsErrors = nil
				continue
			}
			logger.Warnf("Config file watcher error: %v", err)
		}
	}
}

func shutdown(server *http.Server) error {
	log.For("serve").Infof("Shutting down...")
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	return server.Shutdown(ctx)
}

// reloadConfiguration applies the settings a running server can change
// and returns the configuration now in effect.
func reloadConfiguration(configPath string, current *config.Config, override func(*config.Config), srv *api.Server, wh *warehouse.Warehouse) (*config.Config, error) {
	next, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, fmt.Errorf("loading new config: %w", err)
	}
	override(next)

	plan := planReload(current, next)
	if plan.rateLimit {
		srv.SetRateLimit(next.Server.RateLimit, next.Server.RateBurst)
		log.For("serve").Infof("Rate limit set to %.2f req/s (burst %d)", next.Server.RateLimit, next.Server.RateBurst)
	}
	if plan.optimizeInterval {
		wh.SetOptimizeInterval(next.Store.OptimizeInterval.Duration)
	}
	for _, setting := range plan.restart {
		log.For("serve").Warnf("%s changed, restart to apply it", setting)
	}

	// Settings that need a restart keep their running values.
	applied := *current
	applied.Server.RateLimit = next.Server.RateLimit
	applied.Server.RateBurst = next.Server.RateBurst
	applied.Store.OptimizeInterval = next.Store.OptimizeInterval
	return &applied, nil
}

type reloadPlan struct {
	rateLimit        bool
	optimizeInterval bool
	restart          []string
}

func planReload(old, next *config.Config) reloadPlan {
	var p reloadPlan
	p.rateLimit = old.Server.RateLimit != next.Server.RateLimit || old.Server.RateBurst != next.Server.RateBurst
	p.optimizeInterval = old.Store.OptimizeInterval != next.Store.OptimizeInterval

	if old.Addr() != next.Addr() {
		p.restart = append(p.restart, "server address")
	}
	if old.Store.Driver != next.Store.Driver || old.StoreDSN() != next.StoreDSN() {
		p.restart = append(p.restart, "store")
	}
	if old.Search != next.Search {
		p.restart = append(p.restart, "search settings")
	}
	return p
}
