package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// Competitive index weights.
const (
	weightMarketShare = 0.4
	weightEfficiency  = 0.3
	weightConsistency = 0.3
)

type advancedChannelData struct {
	channel   *domain.Channel
	metrics   *domain.ChannelMetrics
	snapshots []*domain.ChannelSnapshot
	videos    []*domain.VideoRecord
}

// AdvancedCompare layers efficiency, consistency, market share, velocity,
// trend, and prediction on top of the base metrics, plus a pairwise
// similarity matrix with collaboration suggestions.
func (ce *ComparisonEngine) AdvancedCompare(ctx context.Context, channelIDs []string) (*domain.AdvancedComparisonResult, error) {
	if len(channelIDs) < 2 {
		return nil, errors.NewValidationError("advanced comparison needs at least two channels", "channelIds", channelIDs)
	}

	data := make([]*advancedChannelData, 0, len(channelIDs))
	var totalSubscribers uint64

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

		snapshots, err := ce.store.FindLatestPerDay(ctx, channelID)
		if err != nil {
			return nil, err
		}

		videos, err := ce.store.FindVideosByChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}

		data = append(data, &advancedChannelData{
			channel:   channel,
			metrics:   metrics,
			snapshots: snapshots,
			videos:    videos,
		})
		totalSubscribers += channel.SubscriberCount
	}

	groupGrowths := make([]float64, 0, len(data))
	for _, d := range data {
		groupGrowths = append(groupGrowths, d.metrics.MonthlySubscriberGrowth)
	}
	averageGrowth := util.Mean(groupGrowths)

	channels := make([]domain.AdvancedChannelStats, 0, len(data))
	positions := make([]domain.CompetitivePosition, 0, len(data))

	for _, d := range data {
		efficiency := efficiencyScore(d.metrics)
		consistency := consistencyIndex(d)
		share := marketShare(d.channel.SubscriberCount, totalSubscribers)

		subRates := PairwiseGrowthRates(d.snapshots, domain.MetricSubscribers)
		viewRates := PairwiseGrowthRates(d.snapshots, domain.MetricViews)

		channels = append(channels, domain.AdvancedChannelStats{
			ChannelID:        d.channel.ChannelID,
			Title:            d.channel.Title,
			SubscriberCount:  d.channel.SubscriberCount,
			EfficiencyScore:  efficiency,
			ConsistencyIndex: consistency,
			MarketShare:      share,
			GrowthVelocity:   growthVelocity(d.metrics.MonthlySubscriberGrowth, averageGrowth),
			PredictedGrowth:  predictGrowth(subRates),
			Trends: map[domain.GrowthMetric]domain.TrendDirection{
				domain.MetricSubscribers: trendOfSeries(subRates),
				domain.MetricViews:       trendOfSeries(viewRates),
			},
		})

		index := weightMarketShare*share + weightEfficiency*efficiency + weightConsistency*consistency
		positions = append(positions, domain.CompetitivePosition{
			ChannelID:        d.channel.ChannelID,
			CompetitiveIndex: util.Round2(index),
			Strength:         strengthOf(share),
		})
	}

	scores, suggestions := ce.similarityMatrix(data)

	ce.logger.Info("Advanced comparison built",
		zap.Int("channels", len(channels)),
		zap.Int("suggestions", len(suggestions)))

	return &domain.AdvancedComparisonResult{
		Channels: channels,
		Market: domain.MarketAnalysis{
			TotalSubscribers: totalSubscribers,
			AverageGrowth:    util.Round2(averageGrowth),
			Positions:        positions,
		},
		SimilarityScores: scores,
		Suggestions:      suggestions,
		GeneratedAt:      ce.now(),
	}, nil
}

func (ce *ComparisonEngine) similarityMatrix(data []*advancedChannelData) (map[domain.ChannelPair]float64, []domain.CollaborationSuggestion) {
	scores := make(map[domain.ChannelPair]float64)
	suggestions := make([]domain.CollaborationSuggestion, 0)

	for i := 0; i < len(data); i++ {
		for j := i + 1; j < len(data); j++ {
			pair := domain.NewChannelPair(data[i].channel.ChannelID, data[j].channel.ChannelID)
			score := ce.engagement.Similarity(data[i].videos, data[j].videos)
			scores[pair] = score

			if score > constants.AnalysisConfig.SimilarityThreshold {
				suggestions = append(suggestions, domain.CollaborationSuggestion{
					Pair:       pair,
					Similarity: score,
				})
			}
		}
	}

	return scores, suggestions
}

// efficiencyScore is monthly growth per upload, clamped [0,100]; no
// uploads yield 0.
func efficiencyScore(metrics *domain.ChannelMetrics) float64 {
	if metrics.VideosPerMonth == 0 {
		return 0.0
	}
	score := metrics.MonthlySubscriberGrowth / float64(metrics.VideosPerMonth)
	return util.Round2(util.Clamp(score, 0, 100))
}

// consistencyIndex averages upload consistency (inter-upload gap spread)
// and growth consistency (pairwise growth-rate spread), each scored as
// 100*(1-variance) of the max-normalized series and clamped [0,100].
func consistencyIndex(d *advancedChannelData) float64 {
	upload := consistencyScore(uploadIntervals(d.videos))
	growth := consistencyScore(PairwiseGrowthRates(d.snapshots, domain.MetricSubscribers))
	return util.Round2((upload + growth) / 2)
}

func consistencyScore(series []float64) float64 {
	if len(series) < 2 {
		return 0.0
	}

	maxAbs := 0.0
	for _, v := range series {
		if abs := absFloat(v); abs > maxAbs {
			maxAbs = abs
		}
	}
	if maxAbs == 0 {
		// A flat series is perfectly consistent.
		return 100.0
	}

	normalized := make([]float64, len(series))
	for i, v := range series {
		normalized[i] = v / maxAbs
	}

	return util.Clamp(100*(1-util.Variance(normalized)), 0, 100)
}

func absFloat(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// uploadIntervals returns the gaps between consecutive uploads in hours.
func uploadIntervals(videos []*domain.VideoRecord) []float64 {
	if len(videos) < 2 {
		return nil
	}

	intervals := make([]float64, 0, len(videos)-1)
	for i := 1; i < len(videos); i++ {
		gap := videos[i].PublishedAt.Sub(videos[i-1].PublishedAt).Hours()
		intervals = append(intervals, gap)
	}
	return intervals
}

func marketShare(subscribers, total uint64) float64 {
	if total == 0 {
		return 0.0
	}
	return util.Round2(float64(subscribers) / float64(total) * 100)
}

// growthVelocity relates a channel's growth to the group average, clamped
// [0,200].
func growthVelocity(channelGrowth, averageGrowth float64) float64 {
	if averageGrowth == 0 {
		return 0.0
	}
	return util.Round2(util.Clamp(channelGrowth/averageGrowth*100, 0, 200))
}

// trendOfSeries half-splits a growth-rate series and compares the half
// averages with the same thresholds as the engagement trend.
func trendOfSeries(rates []float64) domain.TrendDirection {
	if len(rates) < 2 {
		return domain.TrendStable
	}

	mid := len(rates) / 2
	first := util.Mean(rates[:mid])
	second := util.Mean(rates[mid:])

	if first == 0 {
		switch {
		case second > 0:
			return domain.TrendIncreasing
		case second < 0:
			return domain.TrendDecreasing
		default:
			return domain.TrendStable
		}
	}

	changePct := (second - first) / absFloat(first) * 100
	switch {
	case changePct > constants.AnalysisConfig.TrendThresholdPct:
		return domain.TrendIncreasing
	case changePct < -constants.AnalysisConfig.TrendThresholdPct:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// predictGrowth is a recency-weighted moving average of pairwise growth
// rates (weight = position, most recent highest), clamped [-100,100].
func predictGrowth(rates []float64) float64 {
	if len(rates) == 0 {
		return 0.0
	}

	weightedSum := 0.0
	weightTotal := 0.0
	for i, rate := range rates {
		weight := float64(i + 1)
		weightedSum += rate * weight
		weightTotal += weight
	}

	return util.Round2(util.Clamp(weightedSum/weightTotal, -100, 100))
}

func strengthOf(share float64) domain.CompetitiveStrength {
	switch {
	case share > constants.MarketConfig.LeaderSharePct:
		return domain.StrengthLeader
	case share > constants.MarketConfig.ChallengerSharePct:
		return domain.StrengthChallenger
	default:
		return domain.StrengthFollower
	}
}
