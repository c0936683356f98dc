package warehouse

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/rubiojr/catalog/pkg/log"
)

// Optimizer refreshes store statistics. *storage.Store satisfies it.
type Optimizer interface {
	Optimize(ctx context.Context) error
}

type Config struct {
	// Zero disables scheduled optimization.
	OptimizeInterval time.Duration
}

// Warehouse runs housekeeping against the product store while the catalog
// is being served.
type Warehouse struct {
	config    Config
	store     Optimizer
	log       *log.Logger
	ticker    *time.Ticker
	stopCh    chan struct{}
	ctx       context.Context
	ctxCancel context.CancelFunc
	mu        sync.Mutex
	wg        sync.WaitGroup
	running   bool
	runs      int
}

func NewWarehouse(config Config, store Optimizer) *Warehouse {
	return &Warehouse{
		config: config,
		store:  store,
		log:    log.For("warehouse"),
	}
}

func (w *Warehouse) Start(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.running {
		return fmt.Errorf("warehouse is already running")
	}

	w.ctx, w.ctxCancel = context.WithCancel(ctx)
	w.stopCh = make(chan struct{})
	w.running = true

	if w.config.OptimizeInterval > 0 {
		w.startTicker()
	}
	w.log.Infof("Warehouse started, optimize interval: %v", w.config.OptimizeInterval)
	return nil
}

// startTicker expects w.mu to be held.
func (w *Warehouse) startTicker() {
	w.ticker = time.NewTicker(w.config.OptimizeInterval)
	w.wg.Add(1)
	go w.runOptimization(w.ctx, w.ticker, w.stopCh)
}

func (w *Warehouse) runOptimization(ctx context.Context, ticker *time.Ticker, stopCh chan struct{}) {
	defer w.wg.Done()
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.log.Debugf("optimization context cancelled")
			return
		case <-stopCh:
			return
		case <-ticker.C:
			w.optimize(ctx)
		}
	}
}

func (w *Warehouse) optimize(ctx context.Context) {
	w.log.Infof("Running database optimization")
	start := time.Now()
	if err := w.store.Optimize(ctx); err != nil {
		w.log.Warnf("Database optimization failed: %v", err)
		return
	}
	w.mu.Lock()
	w.runs++
	w.mu.Unlock()
	w.log.Debugf("optimization finished in %v", time.Since(start))
}

// SetOptimizeInterval restarts the optimization schedule with a new
// interval. Zero stops it.
func (w *Warehouse) SetOptimizeInterval(interval time.Duration) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.config.OptimizeInterval == interval {
		return
	}
	w.config.OptimizeInterval = interval
	if !w.running {
		return
	}

	// Old loop exits on its stop channel; the new one gets a fresh channel.
	close(w.stopCh)
	w.stopCh = make(chan struct{})
	w.ticker = nil
	if interval > 0 {
		w.startTicker()
	}
	w.log.Infof("Optimize interval set to %v", interval)
}

// Runs returns how many scheduled optimizations completed successfully.
func (w *Warehouse) Runs() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.runs
}

func (w *Warehouse) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.log.Infof("Stopping warehouse...")
	w.ctxCancel()
	close(w.stopCh)
	w.running = false
	w.mu.Unlock()

	w.wg.Wait()
	w.log.Infof("Warehouse stopped")
}

func (w *Warehouse) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}
