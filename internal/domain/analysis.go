package domain

import "time"

// ViewingPatterns aggregates when a channel's audience watches, weighted
// by per-video view counts.
type ViewingPatterns struct {
	ChannelID       string          `json:"channelId"`
	ViewsByHour     map[int]float64 `json:"viewsByHour"`    // 0-23, share of total views
	ViewsByWeekday  map[int]float64 `json:"viewsByWeekday"` // 1=Monday .. 7=Sunday
	PeakHour        int             `json:"peakHour"`
	PeakWeekday     int             `json:"peakWeekday"`
}

// EngagementPatterns breaks a channel's engagement rate down by publish
// slot and content type.
type EngagementPatterns struct {
	ChannelID     string                  `json:"channelId"`
	Overall       float64                 `json:"overall"`
	ByWeekday     map[int]float64         `json:"byWeekday"`
	ByHour        map[int]float64         `json:"byHour"`
	ByContentType map[ContentType]float64 `json:"byContentType"`
	Trend         TrendDirection          `json:"trend"`
	// Sentiment telemetry is unavailable; this stays a fixed neutral value.
	SentimentScore float64 `json:"sentimentScore"`
}

// RetentionBand groups videos by duration for retention analysis.
type RetentionBand string

const (
	BandShorts    RetentionBand = "shorts"     // <= 60s
	BandShort     RetentionBand = "short"      // <= 5m
	BandMedium    RetentionBand = "medium"     // <= 20m
	BandLong      RetentionBand = "long"       // <= 60m
	BandExtraLong RetentionBand = "extra_long" // > 60m
)

// RetentionAnalysis estimates audience retention from the documented
// assumed-watch-fraction proxy, grouped by duration band and publish slot.
type RetentionAnalysis struct {
	ChannelID          string                    `json:"channelId"`
	AvgRetentionPct    float64                   `json:"avgRetentionPct"`
	ByDurationBand     map[RetentionBand]float64 `json:"byDurationBand"`
	ByPublishHour      map[int]float64           `json:"byPublishHour"`
	ByPublishWeekday   map[int]float64           `json:"byPublishWeekday"`
	RecommendedBand    RetentionBand             `json:"recommendedBand"`
	RecommendedHour    int                       `json:"recommendedHour"`
	RecommendedWeekday int                       `json:"recommendedWeekday"`
}

// FormatPerformance scores a duration band by views and engagement.
type FormatPerformance struct {
	Band           RetentionBand `json:"band"`
	VideoCount     int           `json:"videoCount"`
	AvgViews       float64       `json:"avgViews"`
	AvgEngagement  float64       `json:"avgEngagement"`
	PerformanceScore float64     `json:"performanceScore"`
}

// CollaborationImpact compares collab-titled videos against the rest of
// the catalog.
type CollaborationImpact struct {
	ChannelID       string  `json:"channelId"`
	CollabVideos    int     `json:"collabVideos"`
	RegularVideos   int     `json:"regularVideos"`
	AvgCollabViews  float64 `json:"avgCollabViews"`
	AvgRegularViews float64 `json:"avgRegularViews"`
	ViewLiftPct     float64 `json:"viewLiftPct"`
}

// VideoSeries is a recurring title pattern with at least two episodes.
type VideoSeries struct {
	Name     string   `json:"name"`
	Episodes int      `json:"episodes"`
	VideoIDs []string `json:"videoIds"`
	AvgViews float64  `json:"avgViews"`
}

// ContentAnalysis is the full on-demand content report for a channel.
type ContentAnalysis struct {
	ChannelID     string              `json:"channelId"`
	Retention     RetentionAnalysis   `json:"retention"`
	Formats       []FormatPerformance `json:"formats"`
	Collaboration CollaborationImpact `json:"collaboration"`
	Series        []VideoSeries       `json:"series"`
	ViewTrendRatio float64            `json:"viewTrendRatio"` // [0.5,2.0], newer half vs older half
	GeneratedAt   time.Time           `json:"generatedAt"`
}

// AudienceOverlap is a pairwise similarity report over a channel set.
type AudienceOverlap struct {
	Scores      map[ChannelPair]float64   `json:"-"`
	Suggestions []CollaborationSuggestion `json:"suggestions"`
	GeneratedAt time.Time                 `json:"generatedAt"`
}
