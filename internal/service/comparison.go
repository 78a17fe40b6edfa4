package service

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// ComparisonEngine builds multi-channel comparisons on top of the stored
// snapshot history and freshly computed metrics. Results are transient.
type ComparisonEngine struct {
	store      domain.SnapshotStore
	channels   domain.ChannelStore
	metrics    *MetricsAggregator
	engagement *EngagementAnalyzer
	logger     *zap.Logger
	now        func() time.Time
}

func NewComparisonEngine(
	store domain.SnapshotStore,
	channels domain.ChannelStore,
	metrics *MetricsAggregator,
	engagement *EngagementAnalyzer,
	logger *zap.Logger,
) *ComparisonEngine {
	return &ComparisonEngine{
		store:      store,
		channels:   channels,
		metrics:    metrics,
		engagement: engagement,
		logger:     logger,
		now:        time.Now,
	}
}

// Compare builds the base comparison over the given channels for a period.
// Any unknown channel id fails the whole call with a not-found error.
func (ce *ComparisonEngine) Compare(ctx context.Context, channelIDs []string, period domain.ComparisonPeriod) (*domain.ComparisonResult, error) {
	window := period.Duration()
	if window == 0 {
		return nil, errors.NewValidationError("unsupported comparison period", "period", string(period))
	}
	if len(channelIDs) == 0 {
		return nil, errors.NewValidationError("at least one channel is required", "channelIds", channelIDs)
	}

	since := ce.now().Add(-window)
	entries := make([]domain.ChannelComparison, 0, len(channelIDs))

	for _, channelID := range channelIDs {
		channel, err := ce.channels.FindChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			return nil, errors.NewNotFoundError("channel", channelID)
		}

		metrics, err := ce.metrics.ComputeMetrics(ctx, channelID)
		if err != nil {
			return nil, err
		}

		snapshots, err := ce.store.FindSnapshotsSince(ctx, channelID, since)
		if err != nil {
			return nil, err
		}

		entries = append(entries, domain.ChannelComparison{
			ChannelID:        channelID,
			Title:            channel.Title,
			SubscriberCount:  channel.SubscriberCount,
			ViewCount:        channel.ViewCount,
			SubscriberGrowth: GrowthRateOf(snapshots, domain.MetricSubscribers),
			ViewGrowth:       GrowthRateOf(snapshots, domain.MetricViews),
			VideosPerMonth:   metrics.VideosPerMonth,
			EngagementScore:  engagementScore(channel, metrics),
		})
	}

	ce.logger.Info("Comparison built",
		zap.Int("channels", len(entries)),
		zap.String("period", string(period)))

	return &domain.ComparisonResult{
		Period:      period,
		Channels:    entries,
		GeneratedAt: ce.now(),
	}, nil
}

// engagementScore is viewsPerSubscriber * videosPerMonth, clamped [0,100].
func engagementScore(channel *domain.Channel, metrics *domain.ChannelMetrics) float64 {
	viewsPerSub := util.SafeRatio(float64(channel.ViewCount), float64(channel.SubscriberCount))
	score := viewsPerSub * float64(metrics.VideosPerMonth)
	return util.Round2(util.Clamp(score, 0, 100))
}
