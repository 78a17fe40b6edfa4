package service

import (
	"context"
	"strings"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/cache"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// ChannelService owns the tracking lifecycle: resolving identifiers,
// registering channels per user, and the cascade when the last user stops
// tracking a channel.
type ChannelService struct {
	store    domain.SnapshotStore
	channels domain.ChannelStore
	platform domain.VideoPlatform
	fallback domain.HandleResolver
	metrics  *MetricsAggregator
	cache    *cache.CacheService
	logger   *zap.Logger
}

func NewChannelService(
	store domain.SnapshotStore,
	channels domain.ChannelStore,
	platform domain.VideoPlatform,
	fallback domain.HandleResolver,
	metrics *MetricsAggregator,
	cacheSvc *cache.CacheService,
	logger *zap.Logger,
) *ChannelService {
	return &ChannelService{
		store:    store,
		channels: channels,
		platform: platform,
		fallback: fallback,
		metrics:  metrics,
		cache:    cacheSvc,
		logger:   logger,
	}
}

// ResolveIdentifier accepts a raw channel id ("UC...") or a handle. Handle
// resolution goes through the API first and falls back to the page scraper
// when quota is exhausted.
func (cs *ChannelService) ResolveIdentifier(ctx context.Context, identifier string) (string, error) {
	identifier = strings.TrimSpace(identifier)
	if identifier == "" {
		return "", errors.NewValidationError("channel identifier must not be empty", "identifier", identifier)
	}

	if strings.HasPrefix(identifier, "UC") {
		return identifier, nil
	}

	channelID, err := cs.platform.ResolveHandle(ctx, identifier)
	if err == nil {
		return channelID, nil
	}
	if errors.IsNotFound(err) {
		return "", err
	}

	if cs.fallback != nil {
		cs.logger.Warn("API handle resolution failed, trying scraper fallback",
			zap.String("identifier", identifier),
			zap.Error(err))
		return cs.fallback.ResolveHandle(ctx, identifier)
	}

	return "", err
}

// Track registers the channel for the user, loading the initial snapshot,
// video catalog, and first metrics record if the channel is new.
func (cs *ChannelService) Track(ctx context.Context, userID, identifier string) (*domain.Channel, error) {
	channelID, err := cs.ResolveIdentifier(ctx, identifier)
	if err != nil {
		return nil, err
	}

	if err := cs.channels.EnsureUser(ctx, userID); err != nil {
		return nil, err
	}

	existing, err := cs.channels.FindChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if existing == nil {
		if err := cs.metrics.RefreshChannel(ctx, channelID); err != nil {
			return nil, err
		}
		existing, err = cs.channels.FindChannel(ctx, channelID)
		if err != nil {
			return nil, err
		}
		if existing == nil {
			return nil, errors.NewNotFoundError("channel", channelID)
		}
	}

	if err := cs.channels.LinkUserChannel(ctx, userID, channelID); err != nil {
		return nil, err
	}

	cs.logger.Info("Channel tracked",
		zap.String("user", userID),
		zap.String("channel", channelID))

	return existing, nil
}

// Untrack removes the user's link; when no user tracks the channel
// anymore, the channel and everything it owns is deleted.
func (cs *ChannelService) Untrack(ctx context.Context, userID, channelID string) error {
	channel, err := cs.channels.FindChannel(ctx, channelID)
	if err != nil {
		return err
	}
	if channel == nil {
		return errors.NewNotFoundError("channel", channelID)
	}

	if err := cs.channels.UnlinkUserChannel(ctx, userID, channelID); err != nil {
		return err
	}

	remaining, err := cs.channels.CountUsersForChannel(ctx, channelID)
	if err != nil {
		return err
	}

	if remaining == 0 {
		if err := cs.Delete(ctx, channelID); err != nil {
			return err
		}
	}

	cs.logger.Info("Channel untracked",
		zap.String("user", userID),
		zap.String("channel", channelID),
		zap.Int("remaining_users", remaining))

	return nil
}

// Delete removes the channel, its videos, snapshots, metrics history and
// user links, and drops cached read models.
func (cs *ChannelService) Delete(ctx context.Context, channelID string) error {
	if err := cs.channels.DeleteChannel(ctx, channelID); err != nil {
		return err
	}
	if cs.cache != nil {
		cs.cache.InvalidateChannel(ctx, channelID)
	}
	return nil
}

func (cs *ChannelService) List(ctx context.Context) ([]*domain.Channel, error) {
	return cs.channels.ListChannels(ctx)
}

func (cs *ChannelService) ListForUser(ctx context.Context, userID string) ([]*domain.Channel, error) {
	return cs.channels.ListChannelsForUser(ctx, userID)
}

// StatsHistory returns one snapshot per day, oldest first.
func (cs *ChannelService) StatsHistory(ctx context.Context, channelID string) ([]*domain.ChannelSnapshot, error) {
	channel, err := cs.channels.FindChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}
	if channel == nil {
		return nil, errors.NewNotFoundError("channel", channelID)
	}
	return cs.store.FindLatestPerDay(ctx, channelID)
}

// RecentVideos returns the channel's newest stored videos, via cache when
// possible.
func (cs *ChannelService) RecentVideos(ctx context.Context, channelID string, limit int) ([]*domain.VideoRecord, error) {
	if cs.cache != nil {
		if videos, hit := cs.cache.GetRecentVideos(ctx, channelID); hit {
			return tail(videos, limit), nil
		}
	}

	videos, err := cs.store.FindVideosByChannel(ctx, channelID)
	if err != nil {
		return nil, err
	}

	if cs.cache != nil {
		cs.cache.SetRecentVideos(ctx, channelID, videos)
	}

	return tail(videos, limit), nil
}

// tail returns the last n elements (videos are stored oldest first).
func tail(videos []*domain.VideoRecord, n int) []*domain.VideoRecord {
	if n <= 0 || n >= len(videos) {
		return videos
	}
	return videos[len(videos)-n:]
}
