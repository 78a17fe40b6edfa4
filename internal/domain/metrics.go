package domain

import "time"

// GrowthMetric selects which counter a growth-rate computation reads.
type GrowthMetric string

const (
	MetricSubscribers GrowthMetric = "subscribers"
	MetricViews       GrowthMetric = "views"
)

// ChannelMetrics is a derived analytics record, appended on every
// aggregation run (history of computations, never updated in place).
//
// VideosPerWeek and VideosPerMonth are trailing 7-day / 30-day upload
// counts, not normalized rates.
type ChannelMetrics struct {
	ChannelID               string      `json:"channelId"`
	DailySubscriberGrowth   float64     `json:"dailySubscriberGrowth"`
	WeeklySubscriberGrowth  float64     `json:"weeklySubscriberGrowth"`
	MonthlySubscriberGrowth float64     `json:"monthlySubscriberGrowth"`
	DailyViewGrowth         float64     `json:"dailyViewGrowth"`
	VideosPerWeek           int         `json:"videosPerWeek"`
	VideosPerMonth          int         `json:"videosPerMonth"`
	AvgVideoDuration        int         `json:"avgVideoDuration"` // seconds
	MostCommonUploadHour    int         `json:"mostCommonUploadHour"` // 0-23
	MostCommonUploadDay     int         `json:"mostCommonUploadDay"`  // 1=Monday .. 7=Sunday
	TopCategoryID           string      `json:"topCategoryId"`
	TopCategoryPercentage   float64     `json:"topCategoryPercentage"`
	UploadHourHistogram     map[int]int `json:"uploadHourHistogram"` // all 24 buckets present
	CollectedAt             time.Time   `json:"collectedAt"`
}
