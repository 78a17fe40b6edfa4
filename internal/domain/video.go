package domain

import "time"

// VideoRecord is a channel's video with its latest observed statistics.
// VideoID and PublishedAt are immutable once stored; counters and title are
// overwritten on each refresh.
type VideoRecord struct {
	VideoID      string    `json:"videoId"`
	ChannelID    string    `json:"channelId"`
	Title        string    `json:"title"`
	Description  string    `json:"description,omitempty"`
	PublishedAt  time.Time `json:"publishedAt"`
	Duration     int       `json:"duration"` // seconds
	ViewCount    uint64    `json:"viewCount"`
	LikeCount    uint64    `json:"likeCount"`
	CommentCount uint64    `json:"commentCount"`
	ShareCount   uint64    `json:"shareCount"`
	CategoryID   string    `json:"categoryId"`
	ThumbnailURL string    `json:"thumbnailUrl,omitempty"`
}

// ContentType is the coarse classification of a video derived from its
// duration and title.
type ContentType string

const (
	ContentTypeShorts   ContentType = "shorts"
	ContentTypeTutorial ContentType = "tutorial"
	ContentTypeReview   ContentType = "review"
	ContentTypeVlog     ContentType = "vlog"
	ContentTypeOther    ContentType = "other"
)
