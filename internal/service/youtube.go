package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/youtube/v3"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/cache"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// YouTubeClient talks to the YouTube Data API v3 with daily quota
// bookkeeping. Calls are gated by a circuit breaker so a failing upstream
// trips fast instead of burning the batch window.
type YouTubeClient struct {
	service    *youtube.Service
	cache      *cache.CacheService
	breaker    *util.CircuitBreaker
	logger     *zap.Logger
	quotaUsed  int
	quotaMu    sync.Mutex
	quotaReset time.Time
}

func NewYouTubeClient(apiKey string, cacheSvc *cache.CacheService, logger *zap.Logger) (*YouTubeClient, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("YouTube API key is required")
	}

	ctx := context.Background()
	service, err := youtube.NewService(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create YouTube service: %w", err)
	}

	yc := &YouTubeClient{
		service:    service,
		cache:      cacheSvc,
		logger:     logger,
		quotaUsed:  0,
		quotaReset: getNextQuotaReset(),
	}
	yc.breaker = util.NewCircuitBreaker(
		constants.CircuitBreakerConfig.FailureThreshold,
		constants.CircuitBreakerConfig.ResetTimeout,
		constants.CircuitBreakerConfig.HealthCheckInterval,
		nil,
		logger,
	)

	logger.Info("YouTube client initialized",
		zap.Time("quotaReset", yc.quotaReset))

	return yc, nil
}

// getNextQuotaReset calculates next quota reset time (midnight Pacific Time)
func getNextQuotaReset() time.Time {
	pt, _ := time.LoadLocation("America/Los_Angeles")
	now := time.Now().In(pt)
	return time.Date(now.Year(), now.Month(), now.Day()+1, 0, 0, 0, 0, pt)
}

// checkQuota verifies if we have enough quota for the operation
func (yc *YouTubeClient) checkQuota(cost int) error {
	yc.quotaMu.Lock()
	defer yc.quotaMu.Unlock()

	now := time.Now()
	if now.After(yc.quotaReset) {
		yc.quotaUsed = 0
		yc.quotaReset = getNextQuotaReset()
		yc.logger.Info("YouTube API quota auto-reset",
			zap.Time("nextReset", yc.quotaReset))
	}

	if yc.quotaUsed+cost > (constants.QuotaConfig.DailyLimit - constants.QuotaConfig.SafetyMargin) {
		return &QuotaExceededError{
			Used:      yc.quotaUsed,
			Limit:     constants.QuotaConfig.DailyLimit,
			Requested: cost,
			ResetTime: yc.quotaReset,
		}
	}

	return nil
}

// consumeQuota marks quota as used after a successful API call
func (yc *YouTubeClient) consumeQuota(cost int) {
	yc.quotaMu.Lock()
	defer yc.quotaMu.Unlock()

	yc.quotaUsed += cost
	remaining := constants.QuotaConfig.DailyLimit - yc.quotaUsed

	yc.logger.Debug("YouTube API quota consumed",
		zap.Int("cost", cost),
		zap.Int("used", yc.quotaUsed),
		zap.Int("remaining", remaining))

	if remaining < constants.QuotaConfig.SafetyMargin {
		yc.logger.Warn("YouTube API quota running low",
			zap.Int("remaining", remaining),
			zap.Time("resetTime", yc.quotaReset))
	}
}

// GetQuotaStatus returns current quota usage information
func (yc *YouTubeClient) GetQuotaStatus() (used int, remaining int, resetTime time.Time) {
	yc.quotaMu.Lock()
	defer yc.quotaMu.Unlock()

	if time.Now().After(yc.quotaReset) {
		return 0, constants.QuotaConfig.DailyLimit, getNextQuotaReset()
	}

	return yc.quotaUsed, constants.QuotaConfig.DailyLimit - yc.quotaUsed, yc.quotaReset
}

func (yc *YouTubeClient) guard(operation string, cost int) error {
	if !yc.breaker.CanExecute() {
		return errors.NewUpstreamError("YouTube API circuit open", operation, nil)
	}
	return yc.checkQuota(cost)
}

func (yc *YouTubeClient) recordOutcome(err error) {
	if err == nil {
		yc.breaker.RecordSuccess()
		return
	}
	if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 429 {
		yc.breaker.RecordFailure(constants.CircuitBreakerConfig.RateLimitTimeout)
		return
	}
	yc.breaker.RecordFailure(0)
}

// FetchChannelStatistics fetches a single channel's counters (1 unit).
func (yc *YouTubeClient) FetchChannelStatistics(ctx context.Context, channelID string) (*domain.ChannelStats, error) {
	if err := yc.guard("channels.list", constants.QuotaConfig.ChannelsCost); err != nil {
		return nil, err
	}

	call := yc.service.Channels.List([]string{"statistics", "snippet"}).Id(channelID)
	response, err := call.Context(ctx).Do()
	yc.recordOutcome(err)
	if err != nil {
		if apiErr, ok := err.(*googleapi.Error); ok && apiErr.Code == 403 {
			return nil, &QuotaExceededError{
				Used:      yc.quotaUsed,
				Limit:     constants.QuotaConfig.DailyLimit,
				Requested: constants.QuotaConfig.ChannelsCost,
				ResetTime: yc.quotaReset,
			}
		}
		return nil, errors.NewUpstreamError("channel statistics fetch failed", "channels.list", err)
	}

	yc.consumeQuota(constants.QuotaConfig.ChannelsCost)

	if len(response.Items) == 0 {
		return nil, errors.NewNotFoundError("channel", channelID)
	}

	item := response.Items[0]
	stats := &domain.ChannelStats{
		ChannelID:       item.Id,
		Title:           item.Snippet.Title,
		Description:     item.Snippet.Description,
		SubscriberCount: item.Statistics.SubscriberCount,
		VideoCount:      item.Statistics.VideoCount,
		ViewCount:       item.Statistics.ViewCount,
		FetchedAt:       time.Now(),
	}

	yc.logger.Debug("Channel statistics fetched",
		zap.String("channel", channelID),
		zap.Uint64("subscribers", stats.SubscriberCount))

	return stats, nil
}

// FetchRecentVideos lists a channel's recent uploads and joins the video
// detail (duration, counters, category). Costs 100 units for the search
// plus 1 per 50 ids for the detail call.
func (yc *YouTubeClient) FetchRecentVideos(ctx context.Context, channelID string, maxResults int64) ([]*domain.VideoRecord, error) {
	if err := yc.guard("search.list", constants.QuotaConfig.SearchCost); err != nil {
		return nil, err
	}

	searchCall := yc.service.Search.List([]string{"id"}).
		ChannelId(channelID).
		Type("video").
		Order("date").
		MaxResults(maxResults)

	searchResp, err := searchCall.Context(ctx).Do()
	yc.recordOutcome(err)
	if err != nil {
		return nil, errors.NewUpstreamError("video search failed", "search.list", err)
	}
	yc.consumeQuota(constants.QuotaConfig.SearchCost)

	videoIDs := make([]string, 0, len(searchResp.Items))
	for _, item := range searchResp.Items {
		if item.Id != nil && item.Id.VideoId != "" {
			videoIDs = append(videoIDs, item.Id.VideoId)
		}
	}

	if len(videoIDs) == 0 {
		return []*domain.VideoRecord{}, nil
	}

	videos := make([]*domain.VideoRecord, 0, len(videoIDs))

	// videos.list accepts up to 50 ids per request
	const batchSize = 50
	for i := 0; i < len(videoIDs); i += batchSize {
		end := util.MinInt(i+batchSize, len(videoIDs))
		batch := videoIDs[i:end]

		if err := yc.guard("videos.list", constants.QuotaConfig.VideosCost); err != nil {
			return nil, err
		}

		detailCall := yc.service.Videos.List([]string{"snippet", "contentDetails", "statistics"}).
			Id(batch...)

		detailResp, err := detailCall.Context(ctx).Do()
		yc.recordOutcome(err)
		if err != nil {
			return nil, errors.NewUpstreamError("video detail fetch failed", "videos.list", err)
		}
		yc.consumeQuota(constants.QuotaConfig.VideosCost)

		for _, item := range detailResp.Items {
			record := yc.buildVideoRecord(channelID, item)
			if record != nil {
				videos = append(videos, record)
			}
		}
	}

	yc.logger.Debug("Recent videos fetched",
		zap.String("channel", channelID),
		zap.Int("count", len(videos)))

	return videos, nil
}

func (yc *YouTubeClient) buildVideoRecord(channelID string, item *youtube.Video) *domain.VideoRecord {
	if item.Snippet == nil {
		return nil
	}

	publishedAt, err := time.Parse(time.RFC3339, item.Snippet.PublishedAt)
	if err != nil {
		yc.logger.Warn("Failed to parse video publish time",
			zap.String("video", item.Id),
			zap.String("value", item.Snippet.PublishedAt))
		return nil
	}

	duration := 0
	if item.ContentDetails != nil {
		duration = parseISODuration(item.ContentDetails.Duration)
	}

	record := &domain.VideoRecord{
		VideoID:     item.Id,
		ChannelID:   channelID,
		Title:       item.Snippet.Title,
		Description: item.Snippet.Description,
		PublishedAt: publishedAt,
		Duration:    duration,
		CategoryID:  item.Snippet.CategoryId,
	}

	if item.Statistics != nil {
		record.ViewCount = item.Statistics.ViewCount
		record.LikeCount = item.Statistics.LikeCount
		record.CommentCount = item.Statistics.CommentCount
	}

	if item.Snippet.Thumbnails != nil {
		if url := extractThumbnail(item.Snippet.Thumbnails); url != "" {
			record.ThumbnailURL = url
		}
	}

	return record
}

// ResolveHandle resolves an @handle or channel name to a channel id via
// the search API (100 units). Results are cached for a day.
func (yc *YouTubeClient) ResolveHandle(ctx context.Context, handle string) (string, error) {
	normalized := strings.TrimPrefix(util.Normalize(handle), "@")

	if yc.cache != nil {
		if channelID, hit := yc.cache.GetResolvedHandle(ctx, normalized); hit {
			return channelID, nil
		}
	}

	if err := yc.guard("search.list", constants.QuotaConfig.SearchCost); err != nil {
		return "", err
	}

	call := yc.service.Search.List([]string{"snippet"}).
		Q(normalized).
		Type("channel").
		MaxResults(1)

	response, err := call.Context(ctx).Do()
	yc.recordOutcome(err)
	if err != nil {
		return "", errors.NewUpstreamError("handle resolution failed", "search.list", err)
	}
	yc.consumeQuota(constants.QuotaConfig.SearchCost)

	if len(response.Items) == 0 || response.Items[0].Snippet == nil || response.Items[0].Snippet.ChannelId == "" {
		return "", errors.NewNotFoundError("channel handle", handle)
	}

	channelID := response.Items[0].Snippet.ChannelId
	if yc.cache != nil {
		yc.cache.SetResolvedHandle(ctx, normalized, channelID)
	}

	yc.logger.Info("Handle resolved",
		zap.String("handle", handle),
		zap.String("channel", channelID))

	return channelID, nil
}

// extractThumbnail gets the best quality thumbnail URL
func extractThumbnail(thumbnails *youtube.ThumbnailDetails) string {
	if thumbnails == nil {
		return ""
	}

	if thumbnails.Maxres != nil && thumbnails.Maxres.Url != "" {
		return thumbnails.Maxres.Url
	}
	if thumbnails.High != nil && thumbnails.High.Url != "" {
		return thumbnails.High.Url
	}
	if thumbnails.Medium != nil && thumbnails.Medium.Url != "" {
		return thumbnails.Medium.Url
	}
	if thumbnails.Default != nil && thumbnails.Default.Url != "" {
		return thumbnails.Default.Url
	}

	return ""
}

// parseISODuration parses the API's ISO-8601 duration (PT#H#M#S) into
// seconds. Malformed input yields 0.
func parseISODuration(value string) int {
	value = strings.TrimPrefix(value, "P")
	if value == "" {
		return 0
	}

	days := 0
	if idx := strings.Index(value, "T"); idx >= 0 {
		dayPart := value[:idx]
		value = value[idx+1:]
		if strings.HasSuffix(dayPart, "D") {
			if d, err := strconv.Atoi(strings.TrimSuffix(dayPart, "D")); err == nil {
				days = d
			}
		}
	}

	seconds := days * 86400
	num := ""
	for _, r := range value {
		switch {
		case r >= '0' && r <= '9':
			num += string(r)
		case r == 'H':
			if v, err := strconv.Atoi(num); err == nil {
				seconds += v * 3600
			}
			num = ""
		case r == 'M':
			if v, err := strconv.Atoi(num); err == nil {
				seconds += v * 60
			}
			num = ""
		case r == 'S':
			if v, err := strconv.Atoi(num); err == nil {
				seconds += v
			}
			num = ""
		default:
			num = ""
		}
	}

	return seconds
}

// QuotaExceededError represents a quota limit error
type QuotaExceededError struct {
	Used      int
	Limit     int
	Requested int
	ResetTime time.Time
}

func (e *QuotaExceededError) Error() string {
	return fmt.Sprintf("YouTube API quota exceeded: used %d/%d (requested %d more), resets at %s",
		e.Used, e.Limit, e.Requested, e.ResetTime.Format(time.RFC3339))
}

func IsQuotaExceeded(err error) bool {
	_, ok := err.(*QuotaExceededError)
	return ok
}

var _ domain.VideoPlatform = (*YouTubeClient)(nil)
