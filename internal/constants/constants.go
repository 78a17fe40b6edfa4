package constants

import "time"

var CacheTTL = struct {
	LatestMetrics    time.Duration
	RecentVideos     time.Duration
	StatsHistory     time.Duration
	HandleResolution time.Duration
}{
	LatestMetrics:    15 * time.Minute,
	RecentVideos:     30 * time.Minute,
	StatsHistory:     30 * time.Minute,
	HandleResolution: 24 * time.Hour,
}

var RedisConfig = struct {
	ReadyTimeout time.Duration
}{
	ReadyTimeout: 5 * time.Second,
}

// YouTube Data API v3 quota costs (units per call).
var QuotaConfig = struct {
	DailyLimit   int
	SafetyMargin int
	SearchCost   int
	ChannelsCost int
	VideosCost   int
}{
	DailyLimit:   10000,
	SafetyMargin: 1000,
	SearchCost:   100,
	ChannelsCost: 1,
	VideosCost:   1,
}

var BatchConfig = struct {
	DefaultConcurrency int
	ChannelTimeout     time.Duration
	RecentVideosFetch  int64
}{
	DefaultConcurrency: 8,
	ChannelTimeout:     60 * time.Second,
	RecentVideosFetch:  50,
}

var AnalysisConfig = struct {
	TrailingWindow      time.Duration
	TrendThresholdPct   float64
	SimilarityThreshold float64
	// AssumedRetention is the documented watch-fraction proxy used in place
	// of unavailable per-second retention telemetry.
	AssumedRetention float64
	// Fixed neutral sentiment; real sentiment analysis is not performed.
	PlaceholderSentiment float64
}{
	TrailingWindow:       30 * 24 * time.Hour,
	TrendThresholdPct:    10.0,
	SimilarityThreshold:  0.7,
	AssumedRetention:     0.6,
	PlaceholderSentiment: 0.5,
}

var MarketConfig = struct {
	LeaderSharePct     float64
	ChallengerSharePct float64
}{
	LeaderSharePct:     40.0,
	ChallengerSharePct: 20.0,
}

var CircuitBreakerConfig = struct {
	FailureThreshold    int
	ResetTimeout        time.Duration
	RateLimitTimeout    time.Duration
	HealthCheckInterval time.Duration
}{
	FailureThreshold:    3,
	ResetTimeout:        30 * time.Second,
	RateLimitTimeout:    1 * time.Hour,
	HealthCheckInterval: 10 * time.Minute,
}

var ScraperConfig = struct {
	Timeout   time.Duration
	UserAgent string
}{
	Timeout:   15 * time.Second,
	UserAgent: "Mozilla/5.0 (compatible; ChannelAnalytics/1.0)",
}
