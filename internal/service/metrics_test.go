package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
)

func newTestAggregator(store *fakeStore, platform *fakePlatform, now time.Time) *MetricsAggregator {
	logger := zap.NewNop()
	growth := NewGrowthCalculator(store, logger)
	ma := NewMetricsAggregator(store, store, platform, growth, nil, logger)
	ma.now = func() time.Time { return now }
	return ma
}

func TestComputeMetricsGrowthAndCadence(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.AppendSnapshot(ctx, snapshot("UC1", 1000, 50000, now.Add(-23*time.Hour)))
	store.AppendSnapshot(ctx, snapshot("UC1", 1050, 51000, now.Add(-time.Hour)))

	// 4 uploads in the trailing week, 6 more earlier in the trailing month.
	for i := 0; i < 4; i++ {
		store.UpsertVideo(ctx, video("UC1", "week"+string(rune('a'+i)), now.Add(-time.Duration(i+1)*24*time.Hour), 300, 1000, 50, 10))
	}
	for i := 0; i < 6; i++ {
		store.UpsertVideo(ctx, video("UC1", "month"+string(rune('a'+i)), now.Add(-time.Duration(i+10)*24*time.Hour), 300, 1000, 50, 10))
	}
	// Outside the trailing month, must not count.
	store.UpsertVideo(ctx, video("UC1", "ancient", now.Add(-45*24*time.Hour), 300, 1000, 50, 10))

	ma := newTestAggregator(store, newFakePlatform(), now)

	metrics, err := ma.ComputeMetrics(ctx, "UC1")
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}

	if metrics.DailySubscriberGrowth != 5.0 {
		t.Errorf("DailySubscriberGrowth = %v, want 5.0", metrics.DailySubscriberGrowth)
	}
	if metrics.DailyViewGrowth != 2.0 {
		t.Errorf("DailyViewGrowth = %v, want 2.0", metrics.DailyViewGrowth)
	}
	if metrics.VideosPerWeek != 4 {
		t.Errorf("VideosPerWeek = %d, want 4", metrics.VideosPerWeek)
	}
	if metrics.VideosPerMonth != 10 {
		t.Errorf("VideosPerMonth = %d, want 10", metrics.VideosPerMonth)
	}
	if metrics.AvgVideoDuration != 300 {
		t.Errorf("AvgVideoDuration = %d, want 300", metrics.AvgVideoDuration)
	}
	if len(metrics.UploadHourHistogram) != 24 {
		t.Errorf("UploadHourHistogram has %d buckets, want 24", len(metrics.UploadHourHistogram))
	}

	// The record is appended to the metrics history.
	latest, err := store.LatestMetrics(ctx, "UC1")
	if err != nil {
		t.Fatalf("LatestMetrics() error = %v", err)
	}
	if latest.VideosPerMonth != 10 {
		t.Errorf("stored VideosPerMonth = %d, want 10", latest.VideosPerMonth)
	}
}

func TestComputeMetricsEmptyChannelDefaults(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ma := newTestAggregator(newFakeStore(), newFakePlatform(), now)

	metrics, err := ma.ComputeMetrics(ctx, "UC1")
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}

	if metrics.DailySubscriberGrowth != 0.0 || metrics.MonthlySubscriberGrowth != 0.0 {
		t.Errorf("growth on empty history = %v / %v, want 0 / 0",
			metrics.DailySubscriberGrowth, metrics.MonthlySubscriberGrowth)
	}
	if metrics.MostCommonUploadHour != 0 {
		t.Errorf("MostCommonUploadHour = %d, want 0", metrics.MostCommonUploadHour)
	}
	if metrics.MostCommonUploadDay != 1 {
		t.Errorf("MostCommonUploadDay = %d, want 1", metrics.MostCommonUploadDay)
	}
	if metrics.TopCategoryID != "" || metrics.TopCategoryPercentage != 0.0 {
		t.Errorf("top category on empty catalog = %q / %v, want \"\" / 0",
			metrics.TopCategoryID, metrics.TopCategoryPercentage)
	}
}

func TestComputeMetricsUploadHourTieBreak(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 23, 0, 0, 0, time.UTC)
	store := newFakeStore()

	// Two uploads at 15:00 and two at 9:00; the lower hour wins.
	store.UpsertVideo(ctx, video("UC1", "v1", time.Date(2026, 8, 20, 15, 0, 0, 0, time.UTC), 300, 100, 5, 1))
	store.UpsertVideo(ctx, video("UC1", "v2", time.Date(2026, 8, 21, 15, 0, 0, 0, time.UTC), 300, 100, 5, 1))
	store.UpsertVideo(ctx, video("UC1", "v3", time.Date(2026, 8, 22, 9, 0, 0, 0, time.UTC), 300, 100, 5, 1))
	store.UpsertVideo(ctx, video("UC1", "v4", time.Date(2026, 8, 23, 9, 0, 0, 0, time.UTC), 300, 100, 5, 1))

	ma := newTestAggregator(store, newFakePlatform(), now)
	metrics, err := ma.ComputeMetrics(ctx, "UC1")
	if err != nil {
		t.Fatalf("ComputeMetrics() error = %v", err)
	}
	if metrics.MostCommonUploadHour != 9 {
		t.Errorf("MostCommonUploadHour = %d, want 9", metrics.MostCommonUploadHour)
	}
}

func TestComputeMetricsIdempotentOnSameData(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	store.AppendSnapshot(ctx, snapshot("UC1", 1000, 50000, now.Add(-23*time.Hour)))
	store.AppendSnapshot(ctx, snapshot("UC1", 1100, 51000, now.Add(-time.Hour)))
	store.UpsertVideo(ctx, video("UC1", "v1", now.Add(-48*time.Hour), 600, 5000, 200, 40))

	ma := newTestAggregator(store, newFakePlatform(), now)

	first, err := ma.ComputeMetrics(ctx, "UC1")
	if err != nil {
		t.Fatalf("first ComputeMetrics() error = %v", err)
	}
	second, err := ma.ComputeMetrics(ctx, "UC1")
	if err != nil {
		t.Fatalf("second ComputeMetrics() error = %v", err)
	}

	if first.DailySubscriberGrowth != second.DailySubscriberGrowth ||
		first.VideosPerWeek != second.VideosPerWeek ||
		first.AvgVideoDuration != second.AvgVideoDuration ||
		first.MostCommonUploadHour != second.MostCommonUploadHour {
		t.Errorf("recompute on identical inputs differs: %+v vs %+v", first, second)
	}
}

func TestRefreshChannelPipeline(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	platform := newFakePlatform()
	platform.stats["UC1"] = &domain.ChannelStats{
		ChannelID:       "UC1",
		Title:           "Test Channel",
		SubscriberCount: 5000,
		VideoCount:      42,
		ViewCount:       900000,
		FetchedAt:       now,
	}
	platform.videos["UC1"] = []*domain.VideoRecord{
		video("UC1", "v1", now.Add(-24*time.Hour), 300, 1000, 50, 10),
		video("UC1", "v2", now.Add(-48*time.Hour), 600, 2000, 80, 20),
	}

	ma := newTestAggregator(store, platform, now)

	if err := ma.RefreshChannel(ctx, "UC1"); err != nil {
		t.Fatalf("RefreshChannel() error = %v", err)
	}

	channel, err := store.FindChannel(ctx, "UC1")
	if err != nil {
		t.Fatalf("FindChannel() error = %v", err)
	}
	if channel == nil || channel.Title != "Test Channel" || channel.SubscriberCount != 5000 {
		t.Errorf("stored channel = %+v, want Test Channel with 5000 subscribers", channel)
	}

	snapshots, err := store.FindSnapshotsSince(ctx, "UC1", now.Add(-time.Hour))
	if err != nil {
		t.Fatalf("FindSnapshotsSince() error = %v", err)
	}
	if len(snapshots) != 1 {
		t.Fatalf("snapshot count = %d, want 1", len(snapshots))
	}

	videos, err := store.FindVideosByChannel(ctx, "UC1")
	if err != nil {
		t.Fatalf("FindVideosByChannel() error = %v", err)
	}
	if len(videos) != 2 {
		t.Errorf("video count = %d, want 2", len(videos))
	}

	if _, err := store.LatestMetrics(ctx, "UC1"); err != nil {
		t.Errorf("LatestMetrics() after refresh error = %v", err)
	}
}

func TestRefreshChannelUnknownChannel(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ma := newTestAggregator(newFakeStore(), newFakePlatform(), now)

	err := ma.RefreshChannel(context.Background(), "UC_missing")
	if err == nil {
		t.Fatal("RefreshChannel() expected error for unknown channel")
	}
}
