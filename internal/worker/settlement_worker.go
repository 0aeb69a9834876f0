package worker

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/observability"
	"github.com/rahulj/bank-settlement/internal/service"
)

// SettlementWorker is the durable scheduling watcher: it polls for
// transactions whose execution time has arrived and finalizes them. It also
// sweeps up immediate drafts that never got finalized, so a crash between
// draft and finalize heals on the next pass instead of leaving the
// transaction PENDING forever. Safe to run in multiple instances thanks to
// FOR UPDATE SKIP LOCKED on the claim query.
type SettlementWorker struct {
	svc          *service.SettlementService
	pollInterval time.Duration
	batchSize    int32
	staleWindow  time.Duration
	stopCh       chan struct{}
	stopOnce     sync.Once
}

func NewSettlementWorker(svc *service.SettlementService) *SettlementWorker {
	return &SettlementWorker{
		svc:          svc,
		pollInterval: 30 * time.Second,
		batchSize:    50,
		staleWindow:  2 * time.Minute,
		stopCh:       make(chan struct{}),
	}
}

// WithPollInterval sets how often the worker scans for due transactions.
func (w *SettlementWorker) WithPollInterval(interval time.Duration) *SettlementWorker {
	if interval > 0 {
		w.pollInterval = interval
	}
	return w
}

// WithBatchSize caps how many transactions one pass may settle.
func (w *SettlementWorker) WithBatchSize(size int32) *SettlementWorker {
	if size > 0 {
		w.batchSize = size
	}
	return w
}

// WithStaleWindow sets how old an unfinalized immediate draft must be
// before the worker picks it up.
func (w *SettlementWorker) WithStaleWindow(window time.Duration) *SettlementWorker {
	if window > 0 {
		w.staleWindow = window
	}
	return w
}

// Start blocks and processes due transactions until the context is canceled
// or Stop is called. It runs one pass immediately so transactions that came
// due while the process was down settle right after startup.
func (w *SettlementWorker) Start(ctx context.Context) {
	zap.L().Info("settlement worker starting",
		zap.Duration("interval", w.pollInterval),
		zap.Int32("batch", w.batchSize),
	)

	ticker := time.NewTicker(w.pollInterval)
	defer ticker.Stop()

	w.runOnce(ctx)

	for {
		select {
		case <-ctx.Done():
			zap.L().Info("settlement worker context canceled")
			return
		case <-w.stopCh:
			zap.L().Info("settlement worker stop signal received")
			return
		case <-ticker.C:
			w.runOnce(ctx)
		}
	}
}

// Stop signals the worker to stop.
func (w *SettlementWorker) Stop() {
	w.stopOnce.Do(func() {
		close(w.stopCh)
	})
}

// Run starts the worker in a goroutine and returns a stop function.
func (w *SettlementWorker) Run(ctx context.Context) func() {
	go w.Start(ctx)
	return w.Stop
}

// ProcessOnce settles a single batch immediately. Useful for tests and for
// the cron-driven batch boundary.
func (w *SettlementWorker) ProcessOnce(ctx context.Context) (int, error) {
	return w.svc.SettleDue(ctx, w.batchSize, w.staleWindow)
}

func (w *SettlementWorker) runOnce(ctx context.Context) {
	settled, err := w.ProcessOnce(ctx)
	if err != nil {
		observability.IncrementWorkerRun("settlement", "failed")
		zap.L().Error("settlement pass failed", zap.Error(err))
		return
	}
	observability.IncrementWorkerRun("settlement", "success")
	observability.SetDueBatchSize(settled)
	if settled > 0 {
		zap.L().Info("settlement pass complete", zap.Int("settled", settled))
	}
}
