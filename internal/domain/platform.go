package domain

import (
	"context"
	"time"
)

// ChannelStats is a fresh statistics reading from the video platform.
type ChannelStats struct {
	ChannelID       string
	Title           string
	Description     string
	SubscriberCount uint64
	VideoCount      uint64
	ViewCount       uint64
	FetchedAt       time.Time
}

// VideoPlatform is the external API capability the tracker consumes.
// Implementations return a NotFoundError for unknown channels/handles and
// an UpstreamError for transport, quota, or response failures.
type VideoPlatform interface {
	FetchChannelStatistics(ctx context.Context, channelID string) (*ChannelStats, error)
	FetchRecentVideos(ctx context.Context, channelID string, maxResults int64) ([]*VideoRecord, error)
	ResolveHandle(ctx context.Context, handle string) (string, error)
}

// HandleResolver resolves a @handle to a channel id. The scraper fallback
// implements this alongside the API client.
type HandleResolver interface {
	ResolveHandle(ctx context.Context, handle string) (string, error)
}
