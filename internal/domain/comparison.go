package domain

import "time"

// ComparisonPeriod is the lookback window for a base comparison.
type ComparisonPeriod string

const (
	Period7d  ComparisonPeriod = "7d"
	Period30d ComparisonPeriod = "30d"
	Period90d ComparisonPeriod = "90d"
)

// Duration returns the wall-clock span of the period, or 0 if unknown.
func (p ComparisonPeriod) Duration() time.Duration {
	switch p {
	case Period7d:
		return 7 * 24 * time.Hour
	case Period30d:
		return 30 * 24 * time.Hour
	case Period90d:
		return 90 * 24 * time.Hour
	}
	return 0
}

// TrendDirection classifies a metric's movement between the older and the
// newer half of a series.
type TrendDirection string

const (
	TrendIncreasing TrendDirection = "increasing"
	TrendStable     TrendDirection = "stable"
	TrendDecreasing TrendDirection = "decreasing"
)

// ChannelComparison is one channel's entry in a base comparison.
type ChannelComparison struct {
	ChannelID        string  `json:"channelId"`
	Title            string  `json:"title"`
	SubscriberCount  uint64  `json:"subscriberCount"`
	ViewCount        uint64  `json:"viewCount"`
	SubscriberGrowth float64 `json:"subscriberGrowth"`
	ViewGrowth       float64 `json:"viewGrowth"`
	VideosPerMonth   int     `json:"videosPerMonth"`
	EngagementScore  float64 `json:"engagementScore"` // clamped [0,100]
}

// ComparisonResult is the transient outcome of a base comparison. Never
// persisted.
type ComparisonResult struct {
	Period      ComparisonPeriod    `json:"period"`
	Channels    []ChannelComparison `json:"channels"`
	GeneratedAt time.Time           `json:"generatedAt"`
}

// ChannelPair is an unordered channel-id pair; Normalize keeps the smaller
// id in A so the pair can key a symmetric matrix.
type ChannelPair struct {
	A string `json:"a"`
	B string `json:"b"`
}

func NewChannelPair(a, b string) ChannelPair {
	if b < a {
		a, b = b, a
	}
	return ChannelPair{A: a, B: b}
}

// CompetitiveStrength labels a channel's market position.
type CompetitiveStrength string

const (
	StrengthLeader     CompetitiveStrength = "leader"
	StrengthChallenger CompetitiveStrength = "challenger"
	StrengthFollower   CompetitiveStrength = "follower"
)

// AdvancedChannelStats is one channel's entry in an advanced comparison.
type AdvancedChannelStats struct {
	ChannelID       string                          `json:"channelId"`
	Title           string                          `json:"title"`
	SubscriberCount uint64                          `json:"subscriberCount"`
	EfficiencyScore float64                         `json:"efficiencyScore"` // [0,100]
	ConsistencyIndex float64                        `json:"consistencyIndex"` // [0,100]
	MarketShare     float64                         `json:"marketShare"` // percent of set total
	GrowthVelocity  float64                         `json:"growthVelocity"` // [0,200]
	PredictedGrowth float64                         `json:"predictedGrowth"` // [-100,100]
	Trends          map[GrowthMetric]TrendDirection `json:"trends"`
}

// CompetitivePosition ranks a channel inside the compared set.
type CompetitivePosition struct {
	ChannelID        string              `json:"channelId"`
	CompetitiveIndex float64             `json:"competitiveIndex"`
	Strength         CompetitiveStrength `json:"strength"`
}

// MarketAnalysis summarizes the compared set as a market.
type MarketAnalysis struct {
	TotalSubscribers uint64                `json:"totalSubscribers"`
	AverageGrowth    float64               `json:"averageGrowth"`
	Positions        []CompetitivePosition `json:"positions"`
}

// CollaborationSuggestion is emitted for channel pairs whose similarity
// clears the suggestion threshold.
type CollaborationSuggestion struct {
	Pair       ChannelPair `json:"pair"`
	Similarity float64     `json:"similarity"`
}

// AdvancedComparisonResult is the transient outcome of an advanced
// comparison. Never persisted.
type AdvancedComparisonResult struct {
	Channels         []AdvancedChannelStats    `json:"channels"`
	Market           MarketAnalysis            `json:"market"`
	SimilarityScores map[ChannelPair]float64   `json:"-"`
	Suggestions      []CollaborationSuggestion `json:"suggestions"`
	GeneratedAt      time.Time                 `json:"generatedAt"`
}
