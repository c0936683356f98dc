package warehouse

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"
)

type countingOptimizer struct {
	calls atomic.Int32
	err   error
}

func (o *countingOptimizer) Optimize(ctx context.Context) error {
	o.calls.Add(1)
	return o.err
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not met before deadline")
}

func TestWarehouseRunsScheduledOptimization(t *testing.T) {
	opt := &countingOptimizer{}
	w := NewWarehouse(Config{OptimizeInterval: 10 * time.Millisecond}, opt)

	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	waitFor(t, func() bool { return w.Runs() >= 2 })
	if !w.IsRunning() {
		t.Error("warehouse should be running")
	}
}

func TestWarehouseStartTwice(t *testing.T) {
	w := NewWarehouse(Config{}, &countingOptimizer{})
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	if err := w.Start(context.Background()); err == nil {
		t.Error("second Start should fail")
	}
}

func TestWarehouseDisabledInterval(t *testing.T) {
	opt := &countingOptimizer{}
	w := NewWarehouse(Config{}, opt)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	time.Sleep(30 * time.Millisecond)
	w.Stop()

	if n := opt.calls.Load(); n != 0 {
		t.Errorf("optimize called %d times with interval 0", n)
	}
	if w.IsRunning() {
		t.Error("warehouse should be stopped")
	}
}

func TestWarehouseSetOptimizeInterval(t *testing.T) {
	opt := &countingOptimizer{}
	w := NewWarehouse(Config{}, opt)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer w.Stop()

	w.SetOptimizeInterval(10 * time.Millisecond)
	waitFor(t, func() bool { return w.Runs() >= 1 })

	w.SetOptimizeInterval(0)
	// Let an in-flight tick finish before sampling.
	time.Sleep(20 * time.Millisecond)
	before := opt.calls.Load()
	time.Sleep(50 * time.Millisecond)
	if after := opt.calls.Load(); after != before {
		t.Errorf("optimize kept running after disabling: %d -> %d", before, after)
	}
}

func TestWarehouseFailedOptimizationNotCounted(t *testing.T) {
	opt := &countingOptimizer{err: errors.New("disk full")}
	w := NewWarehouse(Config{OptimizeInterval: 10 * time.Millisecond}, opt)
	if err := w.Start(context.Background()); err != nil {
		t.Fatalf("Start: %v", err)
	}

	waitFor(t, func() bool { return opt.calls.Load() >= 2 })
	w.Stop()

	if w.Runs() != 0 {
		t.Errorf("runs = %d, want 0", w.Runs())
	}
}

func TestWarehouseStopWithoutStart(t *testing.T) {
	w := NewWarehouse(Config{}, &countingOptimizer{})
	w.Stop()
	if w.IsRunning() {
		t.Error("warehouse should not be running")
	}
}
