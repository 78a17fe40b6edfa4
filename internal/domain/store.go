package domain

import (
	"context"
	"time"
)

// SnapshotStore is the persistence contract for time-series data. Writes
// from concurrent per-channel tasks must not affect other channels; no
// cross-channel transactions are required.
type SnapshotStore interface {
	AppendSnapshot(ctx context.Context, snapshot *ChannelSnapshot) error
	FindSnapshotsSince(ctx context.Context, channelID string, since time.Time) ([]*ChannelSnapshot, error)
	FindLatestPerDay(ctx context.Context, channelID string) ([]*ChannelSnapshot, error)

	UpsertVideo(ctx context.Context, video *VideoRecord) error
	FindVideosByChannel(ctx context.Context, channelID string) ([]*VideoRecord, error)
	FindVideosSince(ctx context.Context, channelID string, since time.Time) ([]*VideoRecord, error)

	AppendMetrics(ctx context.Context, metrics *ChannelMetrics) error
	LatestMetrics(ctx context.Context, channelID string) (*ChannelMetrics, error)
}

// ChannelStore is the persistence contract for tracked channels and their
// users. DeleteChannel cascades to the channel's videos, snapshots, metrics
// and user links.
type ChannelStore interface {
	SaveChannel(ctx context.Context, channel *Channel) error
	FindChannel(ctx context.Context, channelID string) (*Channel, error)
	ListChannels(ctx context.Context) ([]*Channel, error)
	DeleteChannel(ctx context.Context, channelID string) error

	EnsureUser(ctx context.Context, userID string) error
	LinkUserChannel(ctx context.Context, userID, channelID string) error
	UnlinkUserChannel(ctx context.Context, userID, channelID string) error
	ListChannelsForUser(ctx context.Context, userID string) ([]*Channel, error)
	CountUsersForChannel(ctx context.Context, channelID string) (int, error)
}
