package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

func newTestComparison(store *fakeStore, now time.Time) *ComparisonEngine {
	logger := zap.NewNop()
	ma := newTestAggregator(store, newFakePlatform(), now)
	ce := NewComparisonEngine(store, store, ma, NewEngagementAnalyzer(), logger)
	ce.now = func() time.Time { return now }
	return ce
}

func seedChannel(ctx context.Context, store *fakeStore, channelID string, subs, views uint64, now time.Time) {
	store.SaveChannel(ctx, &domain.Channel{
		ChannelID:       channelID,
		Title:           "Channel " + channelID,
		SubscriberCount: subs,
		ViewCount:       views,
	})
	store.AppendSnapshot(ctx, snapshot(channelID, subs-subs/20, views-views/50, now.Add(-29*24*time.Hour)))
	store.AppendSnapshot(ctx, snapshot(channelID, subs-subs/40, views-views/100, now.Add(-15*24*time.Hour)))
	store.AppendSnapshot(ctx, snapshot(channelID, subs, views, now.Add(-time.Hour)))
	for i := 0; i < 4; i++ {
		v := video(channelID, channelID+"-v"+string(rune('a'+i)), now.Add(-time.Duration(i*5+1)*24*time.Hour), 600, 1000, 50, 10)
		v.CategoryID = "20"
		store.UpsertVideo(ctx, v)
	}
}

func TestCompare(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedChannel(ctx, store, "UCa", 10000, 2000000, now)
	seedChannel(ctx, store, "UCb", 5000, 800000, now)

	ce := newTestComparison(store, now)

	result, err := ce.Compare(ctx, []string{"UCa", "UCb"}, domain.Period30d)
	if err != nil {
		t.Fatalf("Compare() error = %v", err)
	}
	if len(result.Channels) != 2 {
		t.Fatalf("channel count = %d, want 2", len(result.Channels))
	}
	if result.Period != domain.Period30d {
		t.Errorf("Period = %v, want %v", result.Period, domain.Period30d)
	}

	for _, entry := range result.Channels {
		if entry.SubscriberGrowth <= 0 {
			t.Errorf("%s SubscriberGrowth = %v, want > 0", entry.ChannelID, entry.SubscriberGrowth)
		}
		if entry.EngagementScore < 0 || entry.EngagementScore > 100 {
			t.Errorf("%s EngagementScore out of range: %v", entry.ChannelID, entry.EngagementScore)
		}
	}
}

func TestCompareValidation(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ce := newTestComparison(newFakeStore(), now)
	ctx := context.Background()

	if _, err := ce.Compare(ctx, []string{"UCa"}, domain.ComparisonPeriod("14d")); err == nil {
		t.Error("Compare() with unsupported period expected error")
	}
	if _, err := ce.Compare(ctx, nil, domain.Period7d); err == nil {
		t.Error("Compare() with no channels expected error")
	}

	_, err := ce.Compare(ctx, []string{"UC_missing"}, domain.Period7d)
	if !errors.IsNotFound(err) {
		t.Errorf("Compare() with unknown channel = %v, want not-found", err)
	}
}

func TestAdvancedCompare(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	store := newFakeStore()
	seedChannel(ctx, store, "UCa", 60000, 9000000, now)
	seedChannel(ctx, store, "UCb", 30000, 4000000, now)
	seedChannel(ctx, store, "UCc", 10000, 1000000, now)

	ce := newTestComparison(store, now)

	result, err := ce.AdvancedCompare(ctx, []string{"UCa", "UCb", "UCc"})
	if err != nil {
		t.Fatalf("AdvancedCompare() error = %v", err)
	}

	if result.Market.TotalSubscribers != 100000 {
		t.Errorf("TotalSubscribers = %d, want 100000", result.Market.TotalSubscribers)
	}

	var shareSum float64
	strengths := make(map[string]domain.CompetitiveStrength)
	for _, ch := range result.Channels {
		shareSum += ch.MarketShare
		if ch.GrowthVelocity < 0 || ch.GrowthVelocity > 200 {
			t.Errorf("%s GrowthVelocity out of range: %v", ch.ChannelID, ch.GrowthVelocity)
		}
		if ch.ConsistencyIndex < 0 || ch.ConsistencyIndex > 100 {
			t.Errorf("%s ConsistencyIndex out of range: %v", ch.ChannelID, ch.ConsistencyIndex)
		}
		if ch.PredictedGrowth < -100 || ch.PredictedGrowth > 100 {
			t.Errorf("%s PredictedGrowth out of range: %v", ch.ChannelID, ch.PredictedGrowth)
		}
	}
	if shareSum < 99.9 || shareSum > 100.1 {
		t.Errorf("market shares sum to %v, want ~100", shareSum)
	}

	for _, pos := range result.Market.Positions {
		strengths[pos.ChannelID] = pos.Strength
	}
	if strengths["UCa"] != domain.StrengthLeader {
		t.Errorf("UCa strength = %v, want leader (60%% share)", strengths["UCa"])
	}
	if strengths["UCb"] != domain.StrengthChallenger {
		t.Errorf("UCb strength = %v, want challenger (30%% share)", strengths["UCb"])
	}
	if strengths["UCc"] != domain.StrengthFollower {
		t.Errorf("UCc strength = %v, want follower (10%% share)", strengths["UCc"])
	}

	// Seeded catalogs share category, hours and engagement, so every pair
	// should be suggested for collaboration.
	if len(result.Suggestions) != 3 {
		t.Errorf("suggestion count = %d, want 3", len(result.Suggestions))
	}
	for pair, score := range result.SimilarityScores {
		if score < 0.9 {
			t.Errorf("similarity %v = %v, want ~1.0 for near-identical catalogs", pair, score)
		}
	}
}

func TestAdvancedCompareValidation(t *testing.T) {
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ce := newTestComparison(newFakeStore(), now)

	if _, err := ce.AdvancedCompare(context.Background(), []string{"UCa"}); err == nil {
		t.Error("AdvancedCompare() with one channel expected error")
	}
}
