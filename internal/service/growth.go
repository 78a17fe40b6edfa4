package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
)

// GrowthCalculator computes percentage growth of a channel counter over a
// time window. Pure read; store failures propagate.
type GrowthCalculator struct {
	store  domain.SnapshotStore
	logger *zap.Logger
}

func NewGrowthCalculator(store domain.SnapshotStore, logger *zap.Logger) *GrowthCalculator {
	return &GrowthCalculator{
		store:  store,
		logger: logger,
	}
}

// Rate returns the percentage change of the metric between the oldest and
// newest snapshot collected since the given time, rounded to 2 decimals.
// Fewer than 2 snapshots or a zero baseline yield 0.0, never an error.
func (gc *GrowthCalculator) Rate(ctx context.Context, channelID string, metric domain.GrowthMetric, since time.Time) (float64, error) {
	snapshots, err := gc.store.FindSnapshotsSince(ctx, channelID, since)
	if err != nil {
		return 0, err
	}

	rate := GrowthRateOf(snapshots, metric)
	if rate == 0 {
		gc.logger.Debug("Degenerate growth window",
			zap.String("channel", channelID),
			zap.String("metric", string(metric)),
			zap.Int("snapshots", len(snapshots)))
	}

	return rate, nil
}

// GrowthRateOf computes the growth rate over an in-memory snapshot slice.
// Snapshots are sorted by collectedAt; storage order is not trusted.
func GrowthRateOf(snapshots []*domain.ChannelSnapshot, metric domain.GrowthMetric) float64 {
	if len(snapshots) < 2 {
		return 0.0
	}

	sorted := make([]*domain.ChannelSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CollectedAt.Before(sorted[j].CollectedAt)
	})

	oldest := metricValue(sorted[0], metric)
	newest := metricValue(sorted[len(sorted)-1], metric)

	if oldest == 0 {
		return 0.0
	}

	// Deltas are signed; counts can shrink between snapshots.
	delta := float64(int64(newest) - int64(oldest))
	return util.Round2(delta / float64(oldest) * 100)
}

func metricValue(s *domain.ChannelSnapshot, metric domain.GrowthMetric) uint64 {
	switch metric {
	case domain.MetricViews:
		return s.ViewCount
	default:
		return s.SubscriberCount
	}
}

// PairwiseGrowthRates returns the percentage change between each adjacent
// snapshot pair, oldest first. Zero baselines contribute 0.
func PairwiseGrowthRates(snapshots []*domain.ChannelSnapshot, metric domain.GrowthMetric) []float64 {
	if len(snapshots) < 2 {
		return nil
	}

	sorted := make([]*domain.ChannelSnapshot, len(snapshots))
	copy(sorted, snapshots)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].CollectedAt.Before(sorted[j].CollectedAt)
	})

	rates := make([]float64, 0, len(sorted)-1)
	for i := 1; i < len(sorted); i++ {
		prev := metricValue(sorted[i-1], metric)
		curr := metricValue(sorted[i], metric)
		if prev == 0 {
			rates = append(rates, 0.0)
			continue
		}
		delta := float64(int64(curr) - int64(prev))
		rates = append(rates, delta/float64(prev)*100)
	}

	return rates
}
