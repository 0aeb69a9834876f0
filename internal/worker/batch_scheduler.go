package worker

import (
	"context"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/rahulj/bank-settlement/internal/observability"
)

// BatchSchedule fires at every half-hour boundary, matching NEFT batch
// alignment: a transfer scheduled for 10:30 settles when this job runs at
// 10:30, not up to a poll interval later.
const BatchSchedule = "0,30 * * * *"

// BatchScheduler drives punctual batch settlement via cron. The interval
// poller in SettlementWorker remains the catch-up path for anything a cron
// tick missed (downtime across a boundary, overdue LATER transfers).
type BatchScheduler struct {
	cron   *cron.Cron
	worker *SettlementWorker
}

func NewBatchScheduler(worker *SettlementWorker) *BatchScheduler {
	return &BatchScheduler{
		cron:   cron.New(),
		worker: worker,
	}
}

// Start registers the half-hour job and starts the cron loop.
func (s *BatchScheduler) Start(ctx context.Context) error {
	_, err := s.cron.AddFunc(BatchSchedule, func() {
		settled, err := s.worker.ProcessOnce(ctx)
		if err != nil {
			observability.IncrementWorkerRun("batch", "failed")
			zap.L().Error("batch settlement run failed", zap.Error(err))
			return
		}
		observability.IncrementWorkerRun("batch", "success")
		zap.L().Info("batch settlement run complete", zap.Int("settled", settled))
	})
	if err != nil {
		return err
	}
	s.cron.Start()
	zap.L().Info("batch scheduler started", zap.String("schedule", BatchSchedule))
	return nil
}

// Stop halts the cron loop, waiting for a running job to finish.
func (s *BatchScheduler) Stop() {
	<-s.cron.Stop().Done()
}
