package service

import (
	"math"
	"regexp"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/util"
)

// Similarity component weights.
const (
	weightCategoryOverlap      = 0.4
	weightPublishingPattern    = 0.3
	weightEngagementSimilarity = 0.3
)

const shortsMaxDuration = 60 // seconds

// EngagementAnalyzer holds pure video-set computations: engagement rates,
// content classification, trends, and pairwise similarity. No persistence.
type EngagementAnalyzer struct {
	reviewPattern   *regexp.Regexp
	tutorialPattern *regexp.Regexp
	vlogPattern     *regexp.Regexp
}

func NewEngagementAnalyzer() *EngagementAnalyzer {
	return &EngagementAnalyzer{
		reviewPattern:   regexp.MustCompile(`(?i)\b(review|unboxing|analise|análise)\b`),
		tutorialPattern: regexp.MustCompile(`(?i)\b(tutorial|how to|guide|como fazer|passo a passo)\b`),
		vlogPattern:     regexp.MustCompile(`(?i)\b(vlog|daily|rotina|day in)\b`),
	}
}

// EngagementRate is the mean of per-video (likes+comments)/views*100.
// Videos with zero views contribute 0; an empty list yields 0.
func (ea *EngagementAnalyzer) EngagementRate(videos []*domain.VideoRecord) float64 {
	if len(videos) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, v := range videos {
		sum += videoEngagement(v)
	}
	return util.Round2(sum / float64(len(videos)))
}

func videoEngagement(v *domain.VideoRecord) float64 {
	if v.ViewCount == 0 {
		return 0.0
	}
	interactions := float64(v.LikeCount + v.CommentCount)
	return interactions / float64(v.ViewCount) * 100
}

// Categorize classifies a video; duration wins over title, first matching
// rule wins.
func (ea *EngagementAnalyzer) Categorize(video *domain.VideoRecord) domain.ContentType {
	if video.Duration > 0 && video.Duration <= shortsMaxDuration {
		return domain.ContentTypeShorts
	}
	if ea.reviewPattern.MatchString(video.Title) {
		return domain.ContentTypeReview
	}
	if ea.tutorialPattern.MatchString(video.Title) {
		return domain.ContentTypeTutorial
	}
	if ea.vlogPattern.MatchString(video.Title) {
		return domain.ContentTypeVlog
	}
	return domain.ContentTypeOther
}

// Trend splits the date-sorted list in half and compares engagement rates.
// A change above +10% is increasing, below -10% decreasing. Fewer than 2
// videos is stable.
func (ea *EngagementAnalyzer) Trend(videosSortedByDate []*domain.VideoRecord) domain.TrendDirection {
	if len(videosSortedByDate) < 2 {
		return domain.TrendStable
	}

	mid := len(videosSortedByDate) / 2
	first := ea.EngagementRate(videosSortedByDate[:mid])
	second := ea.EngagementRate(videosSortedByDate[mid:])

	return classifyChange(first, second)
}

func classifyChange(first, second float64) domain.TrendDirection {
	if first == 0 {
		if second > 0 {
			return domain.TrendIncreasing
		}
		return domain.TrendStable
	}

	changePct := (second - first) / first * 100
	switch {
	case changePct > constants.AnalysisConfig.TrendThresholdPct:
		return domain.TrendIncreasing
	case changePct < -constants.AnalysisConfig.TrendThresholdPct:
		return domain.TrendDecreasing
	default:
		return domain.TrendStable
	}
}

// Similarity scores two channels' catalogs in [0,1]: 0.4 category overlap
// (Jaccard), 0.3 publishing-pattern overlap over 24 hour buckets, 0.3
// engagement ratio.
func (ea *EngagementAnalyzer) Similarity(videosA, videosB []*domain.VideoRecord) float64 {
	category := categoryOverlap(videosA, videosB)
	pattern := publishingPatternSimilarity(videosA, videosB)
	engagement := engagementSimilarity(ea.EngagementRate(videosA), ea.EngagementRate(videosB))

	score := weightCategoryOverlap*category +
		weightPublishingPattern*pattern +
		weightEngagementSimilarity*engagement

	return util.Clamp(score, 0, 1)
}

// categoryOverlap is the Jaccard index of the category-id sets. Two empty
// sets are identical (1.0).
func categoryOverlap(videosA, videosB []*domain.VideoRecord) float64 {
	setA := categorySet(videosA)
	setB := categorySet(videosB)

	if len(setA) == 0 && len(setB) == 0 {
		return 1.0
	}

	intersection := 0
	for category := range setA {
		if _, ok := setB[category]; ok {
			intersection++
		}
	}

	union := len(setA) + len(setB) - intersection
	if union == 0 {
		return 1.0
	}
	return float64(intersection) / float64(union)
}

func categorySet(videos []*domain.VideoRecord) map[string]struct{} {
	set := make(map[string]struct{})
	for _, v := range videos {
		if v.CategoryID != "" {
			set[v.CategoryID] = struct{}{}
		}
	}
	return set
}

// publishingPatternSimilarity compares upload-hour frequency distributions
// bucket by bucket, averaged over all 24 hours. Identical distributions
// score 1.0.
func publishingPatternSimilarity(videosA, videosB []*domain.VideoRecord) float64 {
	freqA := hourFrequencies(videosA)
	freqB := hourFrequencies(videosB)

	sum := 0.0
	for h := 0; h < 24; h++ {
		sum += 1.0 - math.Abs(freqA[h]-freqB[h])
	}
	return sum / 24.0
}

func hourFrequencies(videos []*domain.VideoRecord) [24]float64 {
	var freq [24]float64
	if len(videos) == 0 {
		return freq
	}
	for _, v := range videos {
		freq[v.PublishedAt.UTC().Hour()]++
	}
	for h := range freq {
		freq[h] /= float64(len(videos))
	}
	return freq
}

// engagementSimilarity is min/max of the two rates; both zero counts as
// identical.
func engagementSimilarity(rateA, rateB float64) float64 {
	if rateA == 0 && rateB == 0 {
		return 1.0
	}
	hi := math.Max(rateA, rateB)
	lo := math.Min(rateA, rateB)
	if hi == 0 {
		return 0.0
	}
	return lo / hi
}

// RetentionProxy estimates the watched fraction of a video as a percentage.
// Real watch-time telemetry is unavailable; the assumed watch fraction
// (AnalysisConfig.AssumedRetention) stands in for the average view
// duration.
func (ea *EngagementAnalyzer) RetentionProxy(video *domain.VideoRecord) float64 {
	if video.Duration <= 0 {
		return 0.0
	}
	assumedWatch := float64(video.Duration) * constants.AnalysisConfig.AssumedRetention
	watched := math.Min(assumedWatch, float64(video.Duration))
	return util.Round2(watched / float64(video.Duration) * 100)
}

// DropoffCheckpoints estimates the audience fraction remaining at fixed
// offsets, interpolated linearly from the retention proxy.
func (ea *EngagementAnalyzer) DropoffCheckpoints(video *domain.VideoRecord) map[int]float64 {
	checkpoints := []int{30, 60, 120, 300}
	result := make(map[int]float64, len(checkpoints))

	if video.Duration <= 0 {
		for _, cp := range checkpoints {
			result[cp] = 0.0
		}
		return result
	}

	retention := ea.RetentionProxy(video) / 100
	for _, cp := range checkpoints {
		if cp >= video.Duration {
			result[cp] = util.Round2(retention * 100)
			continue
		}
		progress := float64(cp) / float64(video.Duration)
		remaining := 100 - (100-retention*100)*progress
		result[cp] = util.Round2(remaining)
	}

	return result
}
