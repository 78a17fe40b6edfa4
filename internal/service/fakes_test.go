package service

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// fakeStore is an in-memory SnapshotStore + ChannelStore for tests.
type fakeStore struct {
	mu        sync.Mutex
	channels  map[string]*domain.Channel
	users     map[string]bool
	links     map[string]map[string]bool
	snapshots map[string][]*domain.ChannelSnapshot
	videos    map[string]map[string]*domain.VideoRecord
	metrics   map[string][]*domain.ChannelMetrics

	snapshotsErr error
	listErr      error
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		channels:  make(map[string]*domain.Channel),
		users:     make(map[string]bool),
		links:     make(map[string]map[string]bool),
		snapshots: make(map[string][]*domain.ChannelSnapshot),
		videos:    make(map[string]map[string]*domain.VideoRecord),
		metrics:   make(map[string][]*domain.ChannelMetrics),
	}
}

func (fs *fakeStore) AppendSnapshot(_ context.Context, snapshot *domain.ChannelSnapshot) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	copied := *snapshot
	fs.snapshots[snapshot.ChannelID] = append(fs.snapshots[snapshot.ChannelID], &copied)
	return nil
}

func (fs *fakeStore) FindSnapshotsSince(_ context.Context, channelID string, since time.Time) ([]*domain.ChannelSnapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.snapshotsErr != nil {
		return nil, fs.snapshotsErr
	}

	result := make([]*domain.ChannelSnapshot, 0)
	for _, s := range fs.snapshots[channelID] {
		if !s.CollectedAt.Before(since) {
			result = append(result, s)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CollectedAt.Before(result[j].CollectedAt)
	})
	return result, nil
}

func (fs *fakeStore) FindLatestPerDay(_ context.Context, channelID string) ([]*domain.ChannelSnapshot, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.snapshotsErr != nil {
		return nil, fs.snapshotsErr
	}

	latest := make(map[string]*domain.ChannelSnapshot)
	for _, s := range fs.snapshots[channelID] {
		day := s.CollectedAt.UTC().Format("2006-01-02")
		if current, ok := latest[day]; !ok || s.CollectedAt.After(current.CollectedAt) {
			latest[day] = s
		}
	}

	result := make([]*domain.ChannelSnapshot, 0, len(latest))
	for _, s := range latest {
		result = append(result, s)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CollectedAt.Before(result[j].CollectedAt)
	})
	return result, nil
}

func (fs *fakeStore) UpsertVideo(_ context.Context, video *domain.VideoRecord) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.videos[video.ChannelID] == nil {
		fs.videos[video.ChannelID] = make(map[string]*domain.VideoRecord)
	}
	copied := *video
	fs.videos[video.ChannelID][video.VideoID] = &copied
	return nil
}

func (fs *fakeStore) FindVideosByChannel(_ context.Context, channelID string) ([]*domain.VideoRecord, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	result := make([]*domain.VideoRecord, 0, len(fs.videos[channelID]))
	for _, v := range fs.videos[channelID] {
		result = append(result, v)
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].PublishedAt.Before(result[j].PublishedAt)
	})
	return result, nil
}

func (fs *fakeStore) FindVideosSince(ctx context.Context, channelID string, since time.Time) ([]*domain.VideoRecord, error) {
	all, err := fs.FindVideosByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	result := make([]*domain.VideoRecord, 0, len(all))
	for _, v := range all {
		if !v.PublishedAt.Before(since) {
			result = append(result, v)
		}
	}
	return result, nil
}

func (fs *fakeStore) AppendMetrics(_ context.Context, metrics *domain.ChannelMetrics) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	copied := *metrics
	fs.metrics[metrics.ChannelID] = append(fs.metrics[metrics.ChannelID], &copied)
	return nil
}

func (fs *fakeStore) LatestMetrics(_ context.Context, channelID string) (*domain.ChannelMetrics, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	history := fs.metrics[channelID]
	if len(history) == 0 {
		return nil, errors.NewNotFoundError("metrics", channelID)
	}
	return history[len(history)-1], nil
}

func (fs *fakeStore) SaveChannel(_ context.Context, channel *domain.Channel) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	copied := *channel
	fs.channels[channel.ChannelID] = &copied
	return nil
}

func (fs *fakeStore) FindChannel(_ context.Context, channelID string) (*domain.Channel, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return fs.channels[channelID], nil
}

func (fs *fakeStore) ListChannels(_ context.Context) ([]*domain.Channel, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.listErr != nil {
		return nil, fs.listErr
	}

	ids := make([]string, 0, len(fs.channels))
	for id := range fs.channels {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]*domain.Channel, 0, len(ids))
	for _, id := range ids {
		result = append(result, fs.channels[id])
	}
	return result, nil
}

func (fs *fakeStore) DeleteChannel(_ context.Context, channelID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.channels, channelID)
	delete(fs.snapshots, channelID)
	delete(fs.videos, channelID)
	delete(fs.metrics, channelID)
	for _, channels := range fs.links {
		delete(channels, channelID)
	}
	return nil
}

func (fs *fakeStore) EnsureUser(_ context.Context, userID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	fs.users[userID] = true
	return nil
}

func (fs *fakeStore) LinkUserChannel(_ context.Context, userID, channelID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.links[userID] == nil {
		fs.links[userID] = make(map[string]bool)
	}
	fs.links[userID][channelID] = true
	return nil
}

func (fs *fakeStore) UnlinkUserChannel(_ context.Context, userID, channelID string) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	delete(fs.links[userID], channelID)
	return nil
}

func (fs *fakeStore) ListChannelsForUser(_ context.Context, userID string) ([]*domain.Channel, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	ids := make([]string, 0, len(fs.links[userID]))
	for id := range fs.links[userID] {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	result := make([]*domain.Channel, 0, len(ids))
	for _, id := range ids {
		if channel, ok := fs.channels[id]; ok {
			result = append(result, channel)
		}
	}
	return result, nil
}

func (fs *fakeStore) CountUsersForChannel(_ context.Context, channelID string) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	count := 0
	for _, channels := range fs.links {
		if channels[channelID] {
			count++
		}
	}
	return count, nil
}

var (
	_ domain.SnapshotStore = (*fakeStore)(nil)
	_ domain.ChannelStore  = (*fakeStore)(nil)
)

// fakePlatform is a canned VideoPlatform.
type fakePlatform struct {
	mu      sync.Mutex
	stats   map[string]*domain.ChannelStats
	videos  map[string][]*domain.VideoRecord
	handles map[string]string

	fetchErr   map[string]error
	resolveErr error
	fetchCalls int
}

func newFakePlatform() *fakePlatform {
	return &fakePlatform{
		stats:    make(map[string]*domain.ChannelStats),
		videos:   make(map[string][]*domain.VideoRecord),
		handles:  make(map[string]string),
		fetchErr: make(map[string]error),
	}
}

func (fp *fakePlatform) FetchChannelStatistics(_ context.Context, channelID string) (*domain.ChannelStats, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	fp.fetchCalls++

	if err := fp.fetchErr[channelID]; err != nil {
		return nil, err
	}
	stats, ok := fp.stats[channelID]
	if !ok {
		return nil, errors.NewNotFoundError("channel", channelID)
	}
	return stats, nil
}

func (fp *fakePlatform) FetchRecentVideos(_ context.Context, channelID string, _ int64) ([]*domain.VideoRecord, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	return fp.videos[channelID], nil
}

func (fp *fakePlatform) ResolveHandle(_ context.Context, handle string) (string, error) {
	fp.mu.Lock()
	defer fp.mu.Unlock()
	if fp.resolveErr != nil {
		return "", fp.resolveErr
	}
	channelID, ok := fp.handles[handle]
	if !ok {
		return "", errors.NewNotFoundError("handle", handle)
	}
	return channelID, nil
}

var _ domain.VideoPlatform = (*fakePlatform)(nil)

// fakeRefresher records refresh calls and fails or panics on demand.
type fakeRefresher struct {
	mu       sync.Mutex
	calls    []string
	failIDs  map[string]bool
	panicIDs map[string]bool
	delay    time.Duration
}

func newFakeRefresher() *fakeRefresher {
	return &fakeRefresher{
		failIDs:  make(map[string]bool),
		panicIDs: make(map[string]bool),
	}
}

func (fr *fakeRefresher) RefreshChannel(ctx context.Context, channelID string) error {
	if fr.delay > 0 {
		select {
		case <-time.After(fr.delay):
		case <-ctx.Done():
			return ctx.Err()
		}
	}

	fr.mu.Lock()
	fr.calls = append(fr.calls, channelID)
	fail := fr.failIDs[channelID]
	shouldPanic := fr.panicIDs[channelID]
	fr.mu.Unlock()

	if shouldPanic {
		panic("refresher exploded on " + channelID)
	}
	if fail {
		return fmt.Errorf("refresh failed for %s", channelID)
	}
	return nil
}

func video(channelID, videoID string, published time.Time, duration int, views, likes, comments uint64) *domain.VideoRecord {
	return &domain.VideoRecord{
		VideoID:      videoID,
		ChannelID:    channelID,
		Title:        videoID,
		PublishedAt:  published,
		Duration:     duration,
		ViewCount:    views,
		LikeCount:    likes,
		CommentCount: comments,
	}
}

func snapshot(channelID string, subs, views uint64, at time.Time) *domain.ChannelSnapshot {
	return &domain.ChannelSnapshot{
		ChannelID:       channelID,
		SubscriberCount: subs,
		VideoCount:      10,
		ViewCount:       views,
		CollectedAt:     at,
	}
}
