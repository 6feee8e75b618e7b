package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/service"
)

// CollectionWorker sweeps pending debts on a short cadence, independent
// of the accrual schedule.
type CollectionWorker struct {
	svc      *service.DebtCollectionService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

func NewCollectionWorker(svc *service.DebtCollectionService) *CollectionWorker {
	return &CollectionWorker{
		svc:      svc,
		interval: 5 * time.Second,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *CollectionWorker) WithInterval(interval time.Duration) *CollectionWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and sweeps at the configured interval.
func (w *CollectionWorker) Start(ctx context.Context) {
	zap.L().Info("collection worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("collection worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("collection worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *CollectionWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *CollectionWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *CollectionWorker) runOnce(ctx context.Context) {
	if err := w.svc.Run(ctx); err != nil {
		observability.IncrementWorkerRun("collection", "failed")
		zap.L().Error("collection run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("collection", "success")
}
