package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/ayo6706/wallet-ledger/internal/observability"
	"github.com/ayo6706/wallet-ledger/internal/service"
)

// AccrualWorker runs the maintenance-fee accrual on a daily cadence.
type AccrualWorker struct {
	svc      *service.DebtAccrualService
	interval time.Duration
	stopCh   chan struct{}
	stopOnce sync.Once
}

// NewAccrualWorker constructs a worker with a default daily interval.
func NewAccrualWorker(svc *service.DebtAccrualService) *AccrualWorker {
	return &AccrualWorker{
		svc:      svc,
		interval: 24 * time.Hour,
		stopCh:   make(chan struct{}),
	}
}

// WithInterval updates the run interval.
func (w *AccrualWorker) WithInterval(interval time.Duration) *AccrualWorker {
	if interval > 0 {
		w.interval = interval
	}
	return w
}

// Start blocks and runs accrual at the configured interval.
func (w *AccrualWorker) Start(ctx context.Context) {
	zap.L().Info("accrual worker starting", zap.Duration("interval", w.interval))
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	// Run once immediately at startup.
	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("accrual worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("accrual worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop stops the running worker loop.
func (w *AccrualWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *AccrualWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

func (w *AccrualWorker) runOnce(ctx context.Context) {
	if err := w.svc.Run(ctx); err != nil {
		observability.IncrementWorkerRun("accrual", "failed")
		zap.L().Error("accrual run failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("accrual", "success")
}
