package domain

import "time"

// Channel is a tracked YouTube channel with its most recently observed
// aggregate counters.
type Channel struct {
	ChannelID       string    `json:"channelId"`
	Title           string    `json:"title"`
	Description     string    `json:"description,omitempty"`
	SubscriberCount uint64    `json:"subscriberCount"`
	VideoCount      uint64    `json:"videoCount"`
	ViewCount       uint64    `json:"viewCount"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// ChannelSnapshot is an immutable point-in-time measurement of a channel's
// counters. Counts may legitimately decrease between snapshots
// (unsubscribes, deleted videos); deltas are signed.
type ChannelSnapshot struct {
	ChannelID       string    `json:"channelId"`
	SubscriberCount uint64    `json:"subscriberCount"`
	VideoCount      uint64    `json:"videoCount"`
	ViewCount       uint64    `json:"viewCount"`
	CollectedAt     time.Time `json:"collectedAt"`
}

// User is a registered user that tracks channels.
type User struct {
	UserID    string    `json:"userId"`
	CreatedAt time.Time `json:"createdAt"`
}
