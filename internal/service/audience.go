package service

import (
	"context"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// AudienceAnalyzer derives audience-facing reports (overlap, viewing and
// engagement patterns) from stored video catalogs.
type AudienceAnalyzer struct {
	store      domain.SnapshotStore
	channels   domain.ChannelStore
	engagement *EngagementAnalyzer
	logger     *zap.Logger
	now        func() time.Time
}

func NewAudienceAnalyzer(
	store domain.SnapshotStore,
	channels domain.ChannelStore,
	engagement *EngagementAnalyzer,
	logger *zap.Logger,
) *AudienceAnalyzer {
	return &AudienceAnalyzer{
		store:      store,
		channels:   channels,
		engagement: engagement,
		logger:     logger,
		now:        time.Now,
	}
}

// Overlap builds the pairwise similarity matrix over a channel set and
// emits collaboration suggestions above the threshold. Unknown channels
// fail the whole call.
func (aa *AudienceAnalyzer) Overlap(ctx context.Context, channelIDs []string) (*domain.AudienceOverlap, error) {
	if len(channelIDs) < 2 {
		return nil, errors.NewValidationError("overlap needs at least two channels", "channelIds", channelIDs)
	}

	catalogs := make(map[string][]*domain.VideoRecord, len(channelIDs))
	for _, channelID := range channelIDs {
		channel, err := aa.channels.FindChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if channel == nil {
			return nil, errors.NewNotFoundError("channel", channelID)
		}

		videos, err := aa.store.FindVideosByChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		catalogs[channelID] = videos
	}

	scores := make(map[domain.ChannelPair]float64)
	suggestions := make([]domain.CollaborationSuggestion, 0)

	for i := 0; i < len(channelIDs); i++ {
		for j := i + 1; j < len(channelIDs); j++ {
			pair := domain.NewChannelPair(channelIDs[i], channelIDs[j])
			score := aa.engagement.Similarity(catalogs[channelIDs[i]], catalogs[channelIDs[j]])
			scores[pair] = score

			if score > constants.AnalysisConfig.SimilarityThreshold {
				suggestions = append(suggestions, domain.CollaborationSuggestion{
					Pair:       pair,
					Similarity: score,
				})
			}
		}
	}

	aa.logger.Info("Audience overlap computed",
		zap.Int("channels", len(channelIDs)),
		zap.Int("suggestions", len(suggestions)))

	return &domain.AudienceOverlap{
		Scores:      scores,
		Suggestions: suggestions,
		GeneratedAt: aa.now(),
	}, nil
}

// ViewingPatterns distributes the channel's total views over publish hour
// and weekday buckets.
func (aa *AudienceAnalyzer) ViewingPatterns(ctx context.Context, channelID string) (*domain.ViewingPatterns, error) {
	videos, err := aa.requireVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}

	byHour := make(map[int]float64, 24)
	byWeekday := make(map[int]float64, 7)
	for h := 0; h < 24; h++ {
		byHour[h] = 0
	}
	for d := 1; d <= 7; d++ {
		byWeekday[d] = 0
	}

	var totalViews float64
	for _, v := range videos {
		totalViews += float64(v.ViewCount)
	}

	if totalViews > 0 {
		for _, v := range videos {
			share := float64(v.ViewCount) / totalViews * 100
			byHour[v.PublishedAt.UTC().Hour()] += share
			byWeekday[util.ISOWeekday(v.PublishedAt.UTC())] += share
		}
		for h := range byHour {
			byHour[h] = util.Round2(byHour[h])
		}
		for d := range byWeekday {
			byWeekday[d] = util.Round2(byWeekday[d])
		}
	}

	return &domain.ViewingPatterns{
		ChannelID:      channelID,
		ViewsByHour:    byHour,
		ViewsByWeekday: byWeekday,
		PeakHour:       peakIntKey(byHour, 0),
		PeakWeekday:    peakIntKey(byWeekday, 1),
	}, nil
}

// EngagementPatterns breaks engagement down by weekday, hour and content
// type, and classifies the overall trend. Sentiment stays a fixed neutral
// placeholder.
func (aa *AudienceAnalyzer) EngagementPatterns(ctx context.Context, channelID string) (*domain.EngagementPatterns, error) {
	videos, err := aa.requireVideos(ctx, channelID)
	if err != nil {
		return nil, err
	}

	byWeekday := groupEngagement(videos, func(v *domain.VideoRecord) int {
		return util.ISOWeekday(v.PublishedAt.UTC())
	}, aa.engagement)
	byHour := groupEngagement(videos, func(v *domain.VideoRecord) int {
		return v.PublishedAt.UTC().Hour()
	}, aa.engagement)

	byType := make(map[domain.ContentType][]*domain.VideoRecord)
	for _, v := range videos {
		contentType := aa.engagement.Categorize(v)
		byType[contentType] = append(byType[contentType], v)
	}
	typeRates := make(map[domain.ContentType]float64, len(byType))
	for contentType, group := range byType {
		typeRates[contentType] = aa.engagement.EngagementRate(group)
	}

	sorted := make([]*domain.VideoRecord, len(videos))
	copy(sorted, videos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
	})

	return &domain.EngagementPatterns{
		ChannelID:      channelID,
		Overall:        aa.engagement.EngagementRate(videos),
		ByWeekday:      byWeekday,
		ByHour:         byHour,
		ByContentType:  typeRates,
		Trend:          aa.engagement.Trend(sorted),
		SentimentScore: constants.AnalysisConfig.PlaceholderSentiment,
	}, nil
}

func (aa *AudienceAnalyzer) requireVideos(ctx context.Context, channelID string) ([]*domain.VideoRecord, error) {
	channel, err := aa.channels.FindChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, errors.NewNotFoundError("channel", channelID)
	}
	return aa.store.FindVideosByChannel(ctx, channelID)
}

func groupEngagement(videos []*domain.VideoRecord, keyFn func(*domain.VideoRecord) int, ea *EngagementAnalyzer) map[int]float64 {
	groups := make(map[int][]*domain.VideoRecord)
	for _, v := range videos {
		key := keyFn(v)
		groups[key] = append(groups[key], v)
	}

	rates := make(map[int]float64, len(groups))
	for key, group := range groups {
		rates[key] = ea.EngagementRate(group)
	}
	return rates
}

// peakIntKey returns the key with the highest value; ties break to the
// lowest key.
func peakIntKey(values map[int]float64, defaultKey int) int {
	if len(values) == 0 {
		return defaultKey
	}
	best, bestValue := 0, -1.0
	for key, value := range values {
		if value > bestValue || (value == bestValue && key < best) {
			best, bestValue = key, value
		}
	}
	if bestValue == 0 {
		return defaultKey
	}
	return best
}
