package service

import (
	"context"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

type fakeResolver struct {
	handles map[string]string
	calls   int
}

func (fr *fakeResolver) ResolveHandle(_ context.Context, handle string) (string, error) {
	fr.calls++
	channelID, ok := fr.handles[handle]
	if !ok {
		return "", errors.NewNotFoundError("handle", handle)
	}
	return channelID, nil
}

func newTestChannelService(store *fakeStore, platform *fakePlatform, fallback domain.HandleResolver) *ChannelService {
	logger := zap.NewNop()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)
	ma := newTestAggregator(store, platform, now)
	return NewChannelService(store, store, platform, fallback, ma, nil, logger)
}

func TestResolveIdentifier(t *testing.T) {
	platform := newFakePlatform()
	platform.handles["somehandle"] = "UCresolved"
	cs := newTestChannelService(newFakeStore(), platform, nil)
	ctx := context.Background()

	// Raw channel ids pass through untouched.
	id, err := cs.ResolveIdentifier(ctx, "UCdirect123")
	if err != nil {
		t.Fatalf("ResolveIdentifier() error = %v", err)
	}
	if id != "UCdirect123" {
		t.Errorf("ResolveIdentifier() = %q, want UCdirect123", id)
	}

	id, err = cs.ResolveIdentifier(ctx, "somehandle")
	if err != nil {
		t.Fatalf("ResolveIdentifier() error = %v", err)
	}
	if id != "UCresolved" {
		t.Errorf("ResolveIdentifier() = %q, want UCresolved", id)
	}

	if _, err := cs.ResolveIdentifier(ctx, "  "); err == nil {
		t.Error("ResolveIdentifier() with blank input expected error")
	}

	_, err = cs.ResolveIdentifier(ctx, "unknownhandle")
	if !errors.IsNotFound(err) {
		t.Errorf("ResolveIdentifier() unknown handle = %v, want not-found", err)
	}
}

func TestResolveIdentifierScraperFallback(t *testing.T) {
	platform := newFakePlatform()
	platform.resolveErr = errors.NewUpstreamError("quota exceeded", "search.list", nil)

	fallback := &fakeResolver{handles: map[string]string{"somehandle": "UCviascraper"}}
	cs := newTestChannelService(newFakeStore(), platform, fallback)

	id, err := cs.ResolveIdentifier(context.Background(), "somehandle")
	if err != nil {
		t.Fatalf("ResolveIdentifier() error = %v", err)
	}
	if id != "UCviascraper" {
		t.Errorf("ResolveIdentifier() = %q, want UCviascraper", id)
	}
	if fallback.calls != 1 {
		t.Errorf("fallback calls = %d, want 1", fallback.calls)
	}
}

func TestTrackNewChannel(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	platform := newFakePlatform()
	platform.stats["UC1"] = &domain.ChannelStats{
		ChannelID:       "UC1",
		Title:           "Tracked Channel",
		SubscriberCount: 1234,
		FetchedAt:       now,
	}

	cs := newTestChannelService(store, platform, nil)

	channel, err := cs.Track(ctx, "user-1", "UC1")
	if err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if channel.Title != "Tracked Channel" {
		t.Errorf("Title = %q, want Tracked Channel", channel.Title)
	}

	// Initial refresh stored a snapshot and a metrics record.
	snapshots, err := store.FindSnapshotsSince(ctx, "UC1", now.Add(-time.Hour))
	if err != nil || len(snapshots) != 1 {
		t.Errorf("snapshots after track = %d (%v), want 1", len(snapshots), err)
	}
	if _, err := store.LatestMetrics(ctx, "UC1"); err != nil {
		t.Errorf("LatestMetrics() after track error = %v", err)
	}

	tracked, err := cs.ListForUser(ctx, "user-1")
	if err != nil || len(tracked) != 1 {
		t.Errorf("ListForUser() = %d channels (%v), want 1", len(tracked), err)
	}
}

func TestTrackExistingChannelSkipsRefresh(t *testing.T) {
	ctx := context.Background()
	store := newFakeStore()
	store.SaveChannel(ctx, &domain.Channel{ChannelID: "UC1", Title: "Existing"})

	platform := newFakePlatform()
	cs := newTestChannelService(store, platform, nil)

	if _, err := cs.Track(ctx, "user-2", "UC1"); err != nil {
		t.Fatalf("Track() error = %v", err)
	}
	if platform.fetchCalls != 0 {
		t.Errorf("fetchCalls = %d, want 0 for already-tracked channel", platform.fetchCalls)
	}
}

func TestUntrackCascadesOnLastUser(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.SaveChannel(ctx, &domain.Channel{ChannelID: "UC1", Title: "Shared"})
	store.AppendSnapshot(ctx, snapshot("UC1", 1000, 50000, now))
	store.UpsertVideo(ctx, video("UC1", "v1", now, 300, 100, 5, 1))
	store.LinkUserChannel(ctx, "user-1", "UC1")
	store.LinkUserChannel(ctx, "user-2", "UC1")

	cs := newTestChannelService(store, newFakePlatform(), nil)

	// First untrack leaves the channel in place.
	if err := cs.Untrack(ctx, "user-1", "UC1"); err != nil {
		t.Fatalf("Untrack() error = %v", err)
	}
	if channel, _ := store.FindChannel(ctx, "UC1"); channel == nil {
		t.Fatal("channel deleted while still tracked by another user")
	}

	// Last untrack cascades.
	if err := cs.Untrack(ctx, "user-2", "UC1"); err != nil {
		t.Fatalf("Untrack() error = %v", err)
	}
	if channel, _ := store.FindChannel(ctx, "UC1"); channel != nil {
		t.Error("channel still present after last user untracked")
	}
	videos, _ := store.FindVideosByChannel(ctx, "UC1")
	if len(videos) != 0 {
		t.Errorf("videos after cascade = %d, want 0", len(videos))
	}
}

func TestUntrackUnknownChannel(t *testing.T) {
	cs := newTestChannelService(newFakeStore(), newFakePlatform(), nil)

	err := cs.Untrack(context.Background(), "user-1", "UC_missing")
	if !errors.IsNotFound(err) {
		t.Errorf("Untrack() unknown channel = %v, want not-found", err)
	}
}

func TestStatsHistoryLatestPerDay(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.SaveChannel(ctx, &domain.Channel{ChannelID: "UC1"})
	// Two readings the same day; only the later one counts.
	store.AppendSnapshot(ctx, snapshot("UC1", 1000, 50000, now.Add(-26*time.Hour)))
	store.AppendSnapshot(ctx, snapshot("UC1", 1010, 50500, now.Add(-25*time.Hour)))
	store.AppendSnapshot(ctx, snapshot("UC1", 1050, 51000, now))

	cs := newTestChannelService(store, newFakePlatform(), nil)

	history, err := cs.StatsHistory(ctx, "UC1")
	if err != nil {
		t.Fatalf("StatsHistory() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("history length = %d, want 2", len(history))
	}
	if history[0].SubscriberCount != 1010 {
		t.Errorf("first day subscriber count = %d, want 1010", history[0].SubscriberCount)
	}
	if !history[0].CollectedAt.Before(history[1].CollectedAt) {
		t.Error("history not ordered oldest first")
	}
}

func TestRecentVideosLimit(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 8, 28, 12, 0, 0, 0, time.UTC)

	store := newFakeStore()
	store.SaveChannel(ctx, &domain.Channel{ChannelID: "UC1"})
	for i := 0; i < 5; i++ {
		store.UpsertVideo(ctx, video("UC1", "v"+string(rune('a'+i)), now.Add(-time.Duration(5-i)*24*time.Hour), 300, 100, 5, 1))
	}

	cs := newTestChannelService(store, newFakePlatform(), nil)

	videos, err := cs.RecentVideos(ctx, "UC1", 2)
	if err != nil {
		t.Fatalf("RecentVideos() error = %v", err)
	}
	if len(videos) != 2 {
		t.Fatalf("video count = %d, want 2", len(videos))
	}
	// The newest videos are kept.
	if videos[1].VideoID != "ve" {
		t.Errorf("last video = %s, want ve", videos[1].VideoID)
	}
}
