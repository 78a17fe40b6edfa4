package service

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"
)

// UpdateScheduler drives the periodic batch refresh. One tick runs at
// startup, then every interval until Stop.
type UpdateScheduler struct {
	batch    *BatchService
	interval time.Duration
	logger   *zap.Logger

	mu      sync.Mutex
	cancel  context.CancelFunc
	done    chan struct{}
	running bool
}

func NewUpdateScheduler(batch *BatchService, interval time.Duration, logger *zap.Logger) *UpdateScheduler {
	return &UpdateScheduler{
		batch:    batch,
		interval: interval,
		logger:   logger,
	}
}

func (us *UpdateScheduler) Start(ctx context.Context) {
	us.mu.Lock()
	defer us.mu.Unlock()
	if us.running {
		return
	}

	runCtx, cancel := context.WithCancel(ctx)
	us.cancel = cancel
	us.done = make(chan struct{})
	us.running = true

	us.logger.Info("Update scheduler started", zap.Duration("interval", us.interval))
	go us.loop(runCtx)
}

func (us *UpdateScheduler) loop(ctx context.Context) {
	defer close(us.done)

	us.runOnce(ctx)

	ticker := time.NewTicker(us.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			us.logger.Info("Update scheduler stopped")
			return
		case <-ticker.C:
			us.runOnce(ctx)
		}
	}
}

func (us *UpdateScheduler) runOnce(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}

	result, err := us.batch.RefreshAll(ctx)
	if err != nil {
		us.logger.Error("Scheduled batch refresh failed", zap.Error(err))
		return
	}

	us.logger.Info("Scheduled batch refresh done",
		zap.Int("total", result.TotalProcessed),
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailureCount))
}

func (us *UpdateScheduler) Stop() {
	us.mu.Lock()
	defer us.mu.Unlock()
	if !us.running {
		return
	}

	us.cancel()
	<-us.done
	us.running = false
}
