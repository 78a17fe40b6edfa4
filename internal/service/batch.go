package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
)

// ChannelRefresher updates one channel end to end (snapshot, videos,
// metrics). Implemented by MetricsAggregator.
type ChannelRefresher interface {
	RefreshChannel(ctx context.Context, channelID string) error
}

// BatchService refreshes every tracked channel with bounded concurrency.
// A failing channel never aborts the run; failures are collected in the
// result instead.
type BatchService struct {
	channels    domain.ChannelStore
	refresher   ChannelRefresher
	concurrency int
	logger      *zap.Logger
}

func NewBatchService(channels domain.ChannelStore, refresher ChannelRefresher, concurrency int, logger *zap.Logger) *BatchService {
	if concurrency < 1 {
		concurrency = constants.BatchConfig.DefaultConcurrency
	}
	return &BatchService{
		channels:    channels,
		refresher:   refresher,
		concurrency: concurrency,
		logger:      logger,
	}
}

// RefreshAll refreshes every tracked channel. It returns an error only
// when the channel list itself cannot be loaded; per-channel failures
// land in the result.
func (bs *BatchService) RefreshAll(ctx context.Context) (*domain.BatchProcessingResult, error) {
	channels, err := bs.channels.ListChannels(ctx)
	if err != nil {
		return nil, err
	}

	result := &domain.BatchProcessingResult{
		TotalProcessed:   len(channels),
		FailedChannelIDs: make([]string, 0),
	}
	if len(channels) == 0 {
		return result, nil
	}

	start := time.Now()
	bs.logger.Info("Batch refresh started",
		zap.Int("channels", len(channels)),
		zap.Int("concurrency", bs.concurrency))

	var mu sync.Mutex
	p := pool.New().WithMaxGoroutines(bs.concurrency)

	for _, channel := range channels {
		channelID := channel.ChannelID
		p.Go(func() {
			if ctx.Err() != nil {
				mu.Lock()
				result.FailureCount++
				result.FailedChannelIDs = append(result.FailedChannelIDs, channelID)
				mu.Unlock()
				return
			}

			err := bs.refreshOne(ctx, channelID)

			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				result.FailureCount++
				result.FailedChannelIDs = append(result.FailedChannelIDs, channelID)
				bs.logger.Warn("Channel refresh failed",
					zap.String("channel", channelID),
					zap.Error(err))
				return
			}
			result.SuccessCount++
		})
	}
	p.Wait()

	bs.logger.Info("Batch refresh finished",
		zap.Int("success", result.SuccessCount),
		zap.Int("failed", result.FailureCount),
		zap.Duration("elapsed", time.Since(start)))

	return result, nil
}

// refreshOne runs a single channel refresh under a timeout and converts
// panics into errors so one bad channel cannot take down the batch.
func (bs *BatchService) refreshOne(ctx context.Context, channelID string) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("refresh panicked: %v", r)
		}
	}()

	refreshCtx, cancel := context.WithTimeout(ctx, constants.BatchConfig.ChannelTimeout)
	defer cancel()

	return bs.refresher.RefreshChannel(refreshCtx, channelID)
}
