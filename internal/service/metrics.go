package service

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/cache"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
)

// MetricsAggregator derives per-channel analytics from snapshot and video
// history and runs the single-channel refresh pipeline.
type MetricsAggregator struct {
	store    domain.SnapshotStore
	channels domain.ChannelStore
	platform domain.VideoPlatform
	growth   *GrowthCalculator
	cache    *cache.CacheService
	logger   *zap.Logger
	now      func() time.Time
}

func NewMetricsAggregator(
	store domain.SnapshotStore,
	channels domain.ChannelStore,
	platform domain.VideoPlatform,
	growth *GrowthCalculator,
	cacheSvc *cache.CacheService,
	logger *zap.Logger,
) *MetricsAggregator {
	return &MetricsAggregator{
		store:    store,
		channels: channels,
		platform: platform,
		growth:   growth,
		cache:    cacheSvc,
		logger:   logger,
		now:      time.Now,
	}
}

// ComputeMetrics derives a fresh ChannelMetrics record and appends it to
// the metrics history. Store failures propagate.
func (ma *MetricsAggregator) ComputeMetrics(ctx context.Context, channelID string) (*domain.ChannelMetrics, error) {
	now := ma.now()

	dailyGrowth, err := ma.growth.Rate(ctx, channelID, domain.MetricSubscribers, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}
	weeklyGrowth, err := ma.growth.Rate(ctx, channelID, domain.MetricSubscribers, now.Add(-7*24*time.Hour))
	if err != nil {
		return nil, err
	}
	monthlyGrowth, err := ma.growth.Rate(ctx, channelID, domain.MetricSubscribers, now.Add(-30*24*time.Hour))
	if err != nil {
		return nil, err
	}
	dailyViewGrowth, err := ma.growth.Rate(ctx, channelID, domain.MetricViews, now.Add(-24*time.Hour))
	if err != nil {
		return nil, err
	}

	videos, err := ma.store.FindVideosByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	monthVideos := filterSince(videos, now.Add(-constants.AnalysisConfig.TrailingWindow))
	weekVideos := filterSince(monthVideos, now.Add(-7*24*time.Hour))

	topCategory, topPercentage := topCategoryOf(monthVideos)

	metrics := &domain.ChannelMetrics{
		ChannelID:               channelID,
		DailySubscriberGrowth:   dailyGrowth,
		WeeklySubscriberGrowth:  weeklyGrowth,
		MonthlySubscriberGrowth: monthlyGrowth,
		DailyViewGrowth:         dailyViewGrowth,
		VideosPerWeek:           len(weekVideos),
		VideosPerMonth:          len(monthVideos),
		AvgVideoDuration:        averageDuration(monthVideos),
		MostCommonUploadHour:    mostCommonUploadHour(monthVideos),
		MostCommonUploadDay:     mostCommonUploadDay(monthVideos),
		TopCategoryID:           topCategory,
		TopCategoryPercentage:   topPercentage,
		UploadHourHistogram:     uploadHourHistogram(monthVideos),
		CollectedAt:             now,
	}

	if err := ma.store.AppendMetrics(ctx, metrics); err != nil {
		return nil, err
	}

	if ma.cache != nil {
		ma.cache.SetLatestMetrics(ctx, metrics)
	}

	ma.logger.Debug("Metrics computed",
		zap.String("channel", channelID),
		zap.Float64("daily_growth", metrics.DailySubscriberGrowth),
		zap.Int("videos_per_month", metrics.VideosPerMonth))

	return metrics, nil
}

// RefreshChannel runs the full single-channel pipeline: fetch fresh stats,
// append a snapshot, update the video catalog, recompute metrics. Any step
// failing fails the whole refresh for this channel.
func (ma *MetricsAggregator) RefreshChannel(ctx context.Context, channelID string) error {
	stats, err := ma.platform.FetchChannelStatistics(ctx, channelID)
	if err != nil {
		return err
	}

	if err := ma.store.AppendSnapshot(ctx, &domain.ChannelSnapshot{
		ChannelID:       channelID,
		SubscriberCount: stats.SubscriberCount,
		VideoCount:      stats.VideoCount,
		ViewCount:       stats.ViewCount,
		CollectedAt:     stats.FetchedAt,
	}); err != nil {
		return err
	}

	if ma.channels != nil {
		if err := ma.channels.SaveChannel(ctx, &domain.Channel{
			ChannelID:       channelID,
			Title:           stats.Title,
			Description:     stats.Description,
			SubscriberCount: stats.SubscriberCount,
			VideoCount:      stats.VideoCount,
			ViewCount:       stats.ViewCount,
		}); err != nil {
			return err
		}
	}

	if err := ma.UpdateChannelVideos(ctx, channelID); err != nil {
		return err
	}

	if _, err := ma.ComputeMetrics(ctx, channelID); err != nil {
		return err
	}

	if ma.cache != nil {
		ma.cache.InvalidateChannel(ctx, channelID)
	}

	return nil
}

// UpdateChannelVideos fetches the channel's recent uploads and upserts
// them into the catalog.
func (ma *MetricsAggregator) UpdateChannelVideos(ctx context.Context, channelID string) error {
	videos, err := ma.platform.FetchRecentVideos(ctx, channelID, constants.BatchConfig.RecentVideosFetch)
	if err != nil {
		return err
	}

	for _, video := range videos {
		if err := ma.store.UpsertVideo(ctx, video); err != nil {
			return err
		}
	}

	ma.logger.Debug("Video catalog updated",
		zap.String("channel", channelID),
		zap.Int("videos", len(videos)))

	return nil
}

// LatestMetrics returns the most recent metrics record, via cache when
// possible.
func (ma *MetricsAggregator) LatestMetrics(ctx context.Context, channelID string) (*domain.ChannelMetrics, error) {
	if ma.cache != nil {
		if metrics, hit := ma.cache.GetLatestMetrics(ctx, channelID); hit {
			return metrics, nil
		}
	}

	metrics, err := ma.store.LatestMetrics(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if ma.cache != nil {
		ma.cache.SetLatestMetrics(ctx, metrics)
	}

	return metrics, nil
}

func filterSince(videos []*domain.VideoRecord, since time.Time) []*domain.VideoRecord {
	result := make([]*domain.VideoRecord, 0, len(videos))
	for _, v := range videos {
		if !v.PublishedAt.Before(since) {
			result = append(result, v)
		}
	}
	return result
}

// averageDuration is the mean duration in seconds rounded to the nearest
// integer, 0 with no videos.
func averageDuration(videos []*domain.VideoRecord) int {
	if len(videos) == 0 {
		return 0
	}
	sum := 0
	for _, v := range videos {
		sum += v.Duration
	}
	return int(math.Round(float64(sum) / float64(len(videos))))
}

// mostCommonUploadHour is the mode of publish hours; ties break to the
// lowest hour, empty input defaults to 0.
func mostCommonUploadHour(videos []*domain.VideoRecord) int {
	counts := make(map[int]int)
	for _, v := range videos {
		counts[v.PublishedAt.UTC().Hour()]++
	}
	return modeLowestKey(counts, 0)
}

// mostCommonUploadDay is the mode of ISO weekdays (Monday=1); ties break
// to the lowest day, empty input defaults to 1.
func mostCommonUploadDay(videos []*domain.VideoRecord) int {
	counts := make(map[int]int)
	for _, v := range videos {
		counts[util.ISOWeekday(v.PublishedAt.UTC())]++
	}
	return modeLowestKey(counts, 1)
}

func modeLowestKey(counts map[int]int, defaultKey int) int {
	if len(counts) == 0 {
		return defaultKey
	}
	best, bestCount := 0, -1
	for key, count := range counts {
		if count > bestCount || (count == bestCount && key < best) {
			best, bestCount = key, count
		}
	}
	return best
}

// uploadHourHistogram always carries all 24 buckets.
func uploadHourHistogram(videos []*domain.VideoRecord) map[int]int {
	histogram := make(map[int]int, 24)
	for h := 0; h < 24; h++ {
		histogram[h] = 0
	}
	for _, v := range videos {
		histogram[v.PublishedAt.UTC().Hour()]++
	}
	return histogram
}

// topCategoryOf returns the most frequent category id and its share of the
// video set. Ties break to the lexicographically smallest id.
func topCategoryOf(videos []*domain.VideoRecord) (string, float64) {
	if len(videos) == 0 {
		return "", 0.0
	}

	counts := make(map[string]int)
	for _, v := range videos {
		counts[v.CategoryID]++
	}

	best, bestCount := "", -1
	for category, count := range counts {
		if count > bestCount || (count == bestCount && category < best) {
			best, bestCount = category, count
		}
	}

	return best, util.Round2(float64(bestCount) / float64(len(videos)) * 100)
}
