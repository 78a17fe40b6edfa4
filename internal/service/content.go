package service

import (
	"context"
	"regexp"
	"sort"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// ContentAnalyzer builds per-channel content reports: retention by slot,
// format performance, collaboration impact, series detection, view trend.
type ContentAnalyzer struct {
	store      domain.SnapshotStore
	channels   domain.ChannelStore
	engagement *EngagementAnalyzer
	logger     *zap.Logger
	now        func() time.Time

	collabPattern  *regexp.Regexp
	seriesPatterns []*regexp.Regexp
}

func NewContentAnalyzer(
	store domain.SnapshotStore,
	channels domain.ChannelStore,
	engagement *EngagementAnalyzer,
	logger *zap.Logger,
) *ContentAnalyzer {
	return &ContentAnalyzer{
		store:      store,
		channels:   channels,
		engagement: engagement,
		logger:     logger,
		now:        time.Now,

		collabPattern: regexp.MustCompile(`(?i)\b(feat\.?|ft\.?|collab|convidado|special guest|com participação)\b`),
		seriesPatterns: []*regexp.Regexp{
			regexp.MustCompile(`(?i)#\s*\d+`),
			regexp.MustCompile(`(?i)\bep\.?\s*\d+`),
			regexp.MustCompile(`(?i)\bepisode\s*\d+`),
			regexp.MustCompile(`(?i)\bpart(e)?\s*\d+`),
		},
	}
}

// Analyze builds the full content report for a channel.
func (ca *ContentAnalyzer) Analyze(ctx context.Context, channelID string) (*domain.ContentAnalysis, error) {
	channel, err := ca.channels.FindChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, errors.NewNotFoundError("channel", channelID)
	}

	videos, err := ca.store.FindVideosByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	sorted := make([]*domain.VideoRecord, len(videos))
	copy(sorted, videos)
	sort.Slice(sorted, func(i, j int) bool {
		return sorted[i].PublishedAt.Before(sorted[j].PublishedAt)
	})

	analysis := &domain.ContentAnalysis{
		ChannelID:      channelID,
		Retention:      ca.retentionAnalysis(channelID, sorted),
		Formats:        ca.formatPerformance(sorted),
		Collaboration:  ca.collaborationImpact(channelID, sorted),
		Series:         ca.detectSeries(sorted),
		ViewTrendRatio: viewTrendRatio(sorted),
		GeneratedAt:    ca.now(),
	}

	ca.logger.Info("Content analysis built",
		zap.String("channel", channelID),
		zap.Int("videos", len(sorted)),
		zap.Int("series", len(analysis.Series)))

	return analysis, nil
}

func durationBand(seconds int) domain.RetentionBand {
	switch {
	case seconds <= 60:
		return domain.BandShorts
	case seconds <= 300:
		return domain.BandShort
	case seconds <= 1200:
		return domain.BandMedium
	case seconds <= 3600:
		return domain.BandLong
	default:
		return domain.BandExtraLong
	}
}

func (ca *ContentAnalyzer) retentionAnalysis(channelID string, videos []*domain.VideoRecord) domain.RetentionAnalysis {
	byBand := make(map[domain.RetentionBand][]float64)
	byHour := make(map[int][]float64)
	byWeekday := make(map[int][]float64)
	all := make([]float64, 0, len(videos))

	for _, v := range videos {
		retention := ca.engagement.RetentionProxy(v)
		all = append(all, retention)
		byBand[durationBand(v.Duration)] = append(byBand[durationBand(v.Duration)], retention)
		byHour[v.PublishedAt.UTC().Hour()] = append(byHour[v.PublishedAt.UTC().Hour()], retention)
		byWeekday[util.ISOWeekday(v.PublishedAt.UTC())] = append(byWeekday[util.ISOWeekday(v.PublishedAt.UTC())], retention)
	}

	bandAvgs := make(map[domain.RetentionBand]float64, len(byBand))
	for band, values := range byBand {
		bandAvgs[band] = util.Round2(util.Mean(values))
	}
	hourAvgs := make(map[int]float64, len(byHour))
	for hour, values := range byHour {
		hourAvgs[hour] = util.Round2(util.Mean(values))
	}
	weekdayAvgs := make(map[int]float64, len(byWeekday))
	for day, values := range byWeekday {
		weekdayAvgs[day] = util.Round2(util.Mean(values))
	}

	return domain.RetentionAnalysis{
		ChannelID:          channelID,
		AvgRetentionPct:    util.Round2(util.Mean(all)),
		ByDurationBand:     bandAvgs,
		ByPublishHour:      hourAvgs,
		ByPublishWeekday:   weekdayAvgs,
		RecommendedBand:    bestBand(bandAvgs),
		RecommendedHour:    peakIntKey(hourAvgs, 0),
		RecommendedWeekday: peakIntKey(weekdayAvgs, 1),
	}
}

func bestBand(avgs map[domain.RetentionBand]float64) domain.RetentionBand {
	best := domain.BandShorts
	bestValue := -1.0
	// Fixed evaluation order keeps ties deterministic.
	order := []domain.RetentionBand{
		domain.BandShorts, domain.BandShort, domain.BandMedium, domain.BandLong, domain.BandExtraLong,
	}
	for _, band := range order {
		if value, ok := avgs[band]; ok && value > bestValue {
			best, bestValue = band, value
		}
	}
	return best
}

func (ca *ContentAnalyzer) formatPerformance(videos []*domain.VideoRecord) []domain.FormatPerformance {
	groups := make(map[domain.RetentionBand][]*domain.VideoRecord)
	for _, v := range videos {
		band := durationBand(v.Duration)
		groups[band] = append(groups[band], v)
	}

	order := []domain.RetentionBand{
		domain.BandShorts, domain.BandShort, domain.BandMedium, domain.BandLong, domain.BandExtraLong,
	}

	formats := make([]domain.FormatPerformance, 0, len(groups))
	for _, band := range order {
		group, ok := groups[band]
		if !ok {
			continue
		}

		var viewSum float64
		for _, v := range group {
			viewSum += float64(v.ViewCount)
		}
		avgViews := viewSum / float64(len(group))
		avgEngagement := ca.engagement.EngagementRate(group)

		formats = append(formats, domain.FormatPerformance{
			Band:             band,
			VideoCount:       len(group),
			AvgViews:         util.Round2(avgViews),
			AvgEngagement:    avgEngagement,
			PerformanceScore: util.Round2(avgViews * avgEngagement / 100),
		})
	}

	return formats
}

func (ca *ContentAnalyzer) collaborationImpact(channelID string, videos []*domain.VideoRecord) domain.CollaborationImpact {
	var collab, regular []*domain.VideoRecord
	for _, v := range videos {
		if ca.collabPattern.MatchString(v.Title) {
			collab = append(collab, v)
		} else {
			regular = append(regular, v)
		}
	}

	avgViews := func(group []*domain.VideoRecord) float64 {
		if len(group) == 0 {
			return 0.0
		}
		var sum float64
		for _, v := range group {
			sum += float64(v.ViewCount)
		}
		return sum / float64(len(group))
	}

	avgCollab := avgViews(collab)
	avgRegular := avgViews(regular)

	lift := 0.0
	if avgRegular > 0 && len(collab) > 0 {
		lift = util.Round2((avgCollab - avgRegular) / avgRegular * 100)
	}

	return domain.CollaborationImpact{
		ChannelID:       channelID,
		CollabVideos:    len(collab),
		RegularVideos:   len(regular),
		AvgCollabViews:  util.Round2(avgCollab),
		AvgRegularViews: util.Round2(avgRegular),
		ViewLiftPct:     lift,
	}
}

// detectSeries groups videos whose titles share a numbered pattern
// (episode/part markers); a series needs at least two episodes.
func (ca *ContentAnalyzer) detectSeries(videos []*domain.VideoRecord) []domain.VideoSeries {
	groups := make(map[string][]*domain.VideoRecord)

	for _, v := range videos {
		key := ca.seriesKey(v.Title)
		if key == "" {
			continue
		}
		groups[key] = append(groups[key], v)
	}

	names := make([]string, 0, len(groups))
	for name, group := range groups {
		if len(group) >= 2 {
			names = append(names, name)
		}
	}
	sort.Strings(names)

	series := make([]domain.VideoSeries, 0, len(names))
	for _, name := range names {
		group := groups[name]

		ids := make([]string, 0, len(group))
		var viewSum float64
		for _, v := range group {
			ids = append(ids, v.VideoID)
			viewSum += float64(v.ViewCount)
		}

		series = append(series, domain.VideoSeries{
			Name:     name,
			Episodes: len(group),
			VideoIDs: ids,
			AvgViews: util.Round2(viewSum / float64(len(group))),
		})
	}

	return series
}

// seriesKey strips the episode marker from the title; the remainder names
// the series. Titles without a marker return "".
func (ca *ContentAnalyzer) seriesKey(title string) string {
	for _, pattern := range ca.seriesPatterns {
		if pattern.MatchString(title) {
			stripped := pattern.ReplaceAllString(title, "")
			stripped = strings.Trim(stripped, " -|:")
			return util.Normalize(stripped)
		}
	}
	return ""
}

// viewTrendRatio compares average views of the newer half against the
// older half, clamped to [0.5, 2.0]. Fewer than 2 videos yields 1.0.
func viewTrendRatio(videosSortedByDate []*domain.VideoRecord) float64 {
	if len(videosSortedByDate) < 2 {
		return 1.0
	}

	mid := len(videosSortedByDate) / 2
	older := videosSortedByDate[:mid]
	newer := videosSortedByDate[mid:]

	avgViews := func(group []*domain.VideoRecord) float64 {
		var sum float64
		for _, v := range group {
			sum += float64(v.ViewCount)
		}
		return sum / float64(len(group))
	}

	olderAvg := avgViews(older)
	newerAvg := avgViews(newer)
	if olderAvg == 0 {
		return 1.0
	}

	return util.Round2(util.Clamp(newerAvg/olderAvg, 0.5, 2.0))
}
