package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/database"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

// TrackerRepository is the PostgreSQL implementation of the snapshot and
// channel stores. Snapshots and metrics are append-only; videos are
// upserted by id.
type TrackerRepository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewTrackerRepository(postgres *database.PostgresService, logger *zap.Logger) *TrackerRepository {
	return &TrackerRepository{
		db:     postgres.GetDB(),
		logger: logger,
	}
}

// EnsureSchema creates the tables if they do not exist yet.
func (r *TrackerRepository) EnsureSchema(ctx context.Context) error {
	statements := []string{
		`CREATE TABLE IF NOT EXISTS channels (
			channel_id       TEXT PRIMARY KEY,
			title            TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			subscriber_count BIGINT NOT NULL DEFAULT 0,
			video_count      BIGINT NOT NULL DEFAULT 0,
			view_count       BIGINT NOT NULL DEFAULT 0,
			created_at       TIMESTAMPTZ NOT NULL DEFAULT now(),
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS users (
			user_id    TEXT PRIMARY KEY,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE TABLE IF NOT EXISTS user_channels (
			user_id    TEXT NOT NULL REFERENCES users(user_id) ON DELETE CASCADE,
			channel_id TEXT NOT NULL REFERENCES channels(channel_id) ON DELETE CASCADE,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now(),
			PRIMARY KEY (user_id, channel_id)
		)`,
		`CREATE TABLE IF NOT EXISTS channel_snapshots (
			id               BIGSERIAL PRIMARY KEY,
			channel_id       TEXT NOT NULL,
			subscriber_count BIGINT NOT NULL,
			video_count      BIGINT NOT NULL,
			view_count       BIGINT NOT NULL,
			collected_at     TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_snapshots_channel_time
			ON channel_snapshots (channel_id, collected_at)`,
		`CREATE TABLE IF NOT EXISTS videos (
			video_id         TEXT PRIMARY KEY,
			channel_id       TEXT NOT NULL,
			title            TEXT NOT NULL DEFAULT '',
			description      TEXT NOT NULL DEFAULT '',
			published_at     TIMESTAMPTZ NOT NULL,
			duration_seconds INT NOT NULL DEFAULT 0,
			view_count       BIGINT NOT NULL DEFAULT 0,
			like_count       BIGINT NOT NULL DEFAULT 0,
			comment_count    BIGINT NOT NULL DEFAULT 0,
			share_count      BIGINT NOT NULL DEFAULT 0,
			category_id      TEXT NOT NULL DEFAULT '',
			thumbnail_url    TEXT NOT NULL DEFAULT '',
			updated_at       TIMESTAMPTZ NOT NULL DEFAULT now()
		)`,
		`CREATE INDEX IF NOT EXISTS idx_videos_channel_published
			ON videos (channel_id, published_at)`,
		`CREATE TABLE IF NOT EXISTS channel_metrics (
			id                        BIGSERIAL PRIMARY KEY,
			channel_id                TEXT NOT NULL,
			daily_subscriber_growth   DOUBLE PRECISION NOT NULL,
			weekly_subscriber_growth  DOUBLE PRECISION NOT NULL,
			monthly_subscriber_growth DOUBLE PRECISION NOT NULL,
			daily_view_growth         DOUBLE PRECISION NOT NULL,
			videos_per_week           INT NOT NULL,
			videos_per_month          INT NOT NULL,
			avg_video_duration        INT NOT NULL,
			most_common_upload_hour   INT NOT NULL,
			most_common_upload_day    INT NOT NULL,
			top_category_id           TEXT NOT NULL DEFAULT '',
			top_category_percentage   DOUBLE PRECISION NOT NULL,
			upload_hour_histogram     JSONB NOT NULL,
			collected_at              TIMESTAMPTZ NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_metrics_channel_time
			ON channel_metrics (channel_id, collected_at)`,
	}

	for _, stmt := range statements {
		if _, err := r.db.ExecContext(ctx, stmt); err != nil {
			return errors.NewStoreError("failed to ensure schema", "ensure_schema", err)
		}
	}

	r.logger.Info("Database schema ensured")
	return nil
}

func (r *TrackerRepository) SaveChannel(ctx context.Context, channel *domain.Channel) error {
	query := `
		INSERT INTO channels (channel_id, title, description, subscriber_count, video_count, view_count, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, now(), now())
		ON CONFLICT (channel_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			subscriber_count = EXCLUDED.subscriber_count,
			video_count = EXCLUDED.video_count,
			view_count = EXCLUDED.view_count,
			updated_at = now()
	`

	_, err := r.db.ExecContext(ctx, query,
		channel.ChannelID, channel.Title, channel.Description,
		int64(channel.SubscriberCount), int64(channel.VideoCount), int64(channel.ViewCount),
	)
	if err != nil {
		return errors.NewStoreError("failed to save channel", "save_channel", err)
	}
	return nil
}

// FindChannel returns (nil, nil) when the channel is not tracked.
func (r *TrackerRepository) FindChannel(ctx context.Context, channelID string) (*domain.Channel, error) {
	query := `
		SELECT channel_id, title, description, subscriber_count, video_count, view_count, created_at, updated_at
		FROM channels
		WHERE channel_id = $1
	`

	var (
		ch                           domain.Channel
		subscribers, videos, viewCnt int64
	)

	err := r.db.QueryRowContext(ctx, query, channelID).Scan(
		&ch.ChannelID, &ch.Title, &ch.Description,
		&subscribers, &videos, &viewCnt,
		&ch.CreatedAt, &ch.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, errors.NewStoreError("failed to query channel", "find_channel", err)
	}

	ch.SubscriberCount = uint64(subscribers)
	ch.VideoCount = uint64(videos)
	ch.ViewCount = uint64(viewCnt)
	return &ch, nil
}

func (r *TrackerRepository) ListChannels(ctx context.Context) ([]*domain.Channel, error) {
	query := `
		SELECT channel_id, title, description, subscriber_count, video_count, view_count, created_at, updated_at
		FROM channels
		ORDER BY created_at
	`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, errors.NewStoreError("failed to list channels", "list_channels", err)
	}
	defer rows.Close()

	return r.scanChannels(rows)
}

// DeleteChannel removes the channel and everything it owns: videos,
// snapshots, metrics history, and user links.
func (r *TrackerRepository) DeleteChannel(ctx context.Context, channelID string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.NewStoreError("failed to begin delete", "delete_channel", err)
	}
	defer tx.Rollback()

	cascades := []string{
		`DELETE FROM videos WHERE channel_id = $1`,
		`DELETE FROM channel_snapshots WHERE channel_id = $1`,
		`DELETE FROM channel_metrics WHERE channel_id = $1`,
		`DELETE FROM user_channels WHERE channel_id = $1`,
		`DELETE FROM channels WHERE channel_id = $1`,
	}

	for _, stmt := range cascades {
		if _, err := tx.ExecContext(ctx, stmt, channelID); err != nil {
			return errors.NewStoreError("failed to cascade delete channel", "delete_channel", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.NewStoreError("failed to commit delete", "delete_channel", err)
	}

	r.logger.Info("Channel deleted", zap.String("channel", channelID))
	return nil
}

func (r *TrackerRepository) EnsureUser(ctx context.Context, userID string) error {
	query := `INSERT INTO users (user_id) VALUES ($1) ON CONFLICT (user_id) DO NOTHING`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return errors.NewStoreError("failed to ensure user", "ensure_user", err)
	}
	return nil
}

func (r *TrackerRepository) LinkUserChannel(ctx context.Context, userID, channelID string) error {
	query := `
		INSERT INTO user_channels (user_id, channel_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, channel_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, userID, channelID); err != nil {
		return errors.NewStoreError("failed to link user channel", "link_user_channel", err)
	}
	return nil
}

func (r *TrackerRepository) UnlinkUserChannel(ctx context.Context, userID, channelID string) error {
	query := `DELETE FROM user_channels WHERE user_id = $1 AND channel_id = $2`
	if _, err := r.db.ExecContext(ctx, query, userID, channelID); err != nil {
		return errors.NewStoreError("failed to unlink user channel", "unlink_user_channel", err)
	}
	return nil
}

func (r *TrackerRepository) ListChannelsForUser(ctx context.Context, userID string) ([]*domain.Channel, error) {
	query := `
		SELECT c.channel_id, c.title, c.description, c.subscriber_count, c.video_count, c.view_count, c.created_at, c.updated_at
		FROM channels c
		JOIN user_channels uc ON uc.channel_id = c.channel_id
		WHERE uc.user_id = $1
		ORDER BY uc.created_at
	`

	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, errors.NewStoreError("failed to list user channels", "list_user_channels", err)
	}
	defer rows.Close()

	return r.scanChannels(rows)
}

func (r *TrackerRepository) CountUsersForChannel(ctx context.Context, channelID string) (int, error) {
	var count int
	query := `SELECT COUNT(*) FROM user_channels WHERE channel_id = $1`
	if err := r.db.QueryRowContext(ctx, query, channelID).Scan(&count); err != nil {
		return 0, errors.NewStoreError("failed to count channel users", "count_channel_users", err)
	}
	return count, nil
}

func (r *TrackerRepository) AppendSnapshot(ctx context.Context, snapshot *domain.ChannelSnapshot) error {
	query := `
		INSERT INTO channel_snapshots (channel_id, subscriber_count, video_count, view_count, collected_at)
		VALUES ($1, $2, $3, $4, $5)
	`

	_, err := r.db.ExecContext(ctx, query,
		snapshot.ChannelID,
		int64(snapshot.SubscriberCount), int64(snapshot.VideoCount), int64(snapshot.ViewCount),
		snapshot.CollectedAt,
	)
	if err != nil {
		return errors.NewStoreError("failed to append snapshot", "append_snapshot", err)
	}
	return nil
}

func (r *TrackerRepository) FindSnapshotsSince(ctx context.Context, channelID string, since time.Time) ([]*domain.ChannelSnapshot, error) {
	query := `
		SELECT channel_id, subscriber_count, video_count, view_count, collected_at
		FROM channel_snapshots
		WHERE channel_id = $1 AND collected_at >= $2
		ORDER BY collected_at
	`

	rows, err := r.db.QueryContext(ctx, query, channelID, since)
	if err != nil {
		return nil, errors.NewStoreError("failed to query snapshots", "find_snapshots", err)
	}
	defer rows.Close()

	return r.scanSnapshots(rows)
}

func (r *TrackerRepository) FindLatestPerDay(ctx context.Context, channelID string) ([]*domain.ChannelSnapshot, error) {
	query := `
		SELECT channel_id, subscriber_count, video_count, view_count, collected_at
		FROM (
			SELECT DISTINCT ON (date_trunc('day', collected_at))
				channel_id, subscriber_count, video_count, view_count, collected_at
			FROM channel_snapshots
			WHERE channel_id = $1
			ORDER BY date_trunc('day', collected_at), collected_at DESC
		) daily
		ORDER BY collected_at
	`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, errors.NewStoreError("failed to query daily snapshots", "find_latest_per_day", err)
	}
	defer rows.Close()

	return r.scanSnapshots(rows)
}

// UpsertVideo overwrites mutable fields; video_id and published_at stay as
// first stored.
func (r *TrackerRepository) UpsertVideo(ctx context.Context, video *domain.VideoRecord) error {
	query := `
		INSERT INTO videos (video_id, channel_id, title, description, published_at, duration_seconds,
			view_count, like_count, comment_count, share_count, category_id, thumbnail_url, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, now())
		ON CONFLICT (video_id) DO UPDATE SET
			title = EXCLUDED.title,
			description = EXCLUDED.description,
			duration_seconds = EXCLUDED.duration_seconds,
			view_count = EXCLUDED.view_count,
			like_count = EXCLUDED.like_count,
			comment_count = EXCLUDED.comment_count,
			share_count = EXCLUDED.share_count,
			category_id = EXCLUDED.category_id,
			thumbnail_url = EXCLUDED.thumbnail_url,
			updated_at = now()
	`

	_, err := r.db.ExecContext(ctx, query,
		video.VideoID, video.ChannelID, video.Title, video.Description,
		video.PublishedAt, video.Duration,
		int64(video.ViewCount), int64(video.LikeCount), int64(video.CommentCount), int64(video.ShareCount),
		video.CategoryID, video.ThumbnailURL,
	)
	if err != nil {
		return errors.NewStoreError("failed to upsert video", "upsert_video", err)
	}
	return nil
}

func (r *TrackerRepository) FindVideosByChannel(ctx context.Context, channelID string) ([]*domain.VideoRecord, error) {
	query := `
		SELECT video_id, channel_id, title, description, published_at, duration_seconds,
			view_count, like_count, comment_count, share_count, category_id, thumbnail_url
		FROM videos
		WHERE channel_id = $1
		ORDER BY published_at
	`

	rows, err := r.db.QueryContext(ctx, query, channelID)
	if err != nil {
		return nil, errors.NewStoreError("failed to query videos", "find_videos", err)
	}
	defer rows.Close()

	return r.scanVideos(rows)
}

func (r *TrackerRepository) FindVideosSince(ctx context.Context, channelID string, since time.Time) ([]*domain.VideoRecord, error) {
	query := `
		SELECT video_id, channel_id, title, description, published_at, duration_seconds,
			view_count, like_count, comment_count, share_count, category_id, thumbnail_url
		FROM videos
		WHERE channel_id = $1 AND published_at >= $2
		ORDER BY published_at
	`

	rows, err := r.db.QueryContext(ctx, query, channelID, since)
	if err != nil {
		return nil, errors.NewStoreError("failed to query videos since", "find_videos_since", err)
	}
	defer rows.Close()

	return r.scanVideos(rows)
}

func (r *TrackerRepository) AppendMetrics(ctx context.Context, metrics *domain.ChannelMetrics) error {
	histogram, err := json.Marshal(metrics.UploadHourHistogram)
	if err != nil {
		return errors.NewStoreError("failed to marshal histogram", "append_metrics", err)
	}

	query := `
		INSERT INTO channel_metrics (channel_id, daily_subscriber_growth, weekly_subscriber_growth,
			monthly_subscriber_growth, daily_view_growth, videos_per_week, videos_per_month,
			avg_video_duration, most_common_upload_hour, most_common_upload_day,
			top_category_id, top_category_percentage, upload_hour_histogram, collected_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, err = r.db.ExecContext(ctx, query,
		metrics.ChannelID,
		metrics.DailySubscriberGrowth, metrics.WeeklySubscriberGrowth,
		metrics.MonthlySubscriberGrowth, metrics.DailyViewGrowth,
		metrics.VideosPerWeek, metrics.VideosPerMonth,
		metrics.AvgVideoDuration, metrics.MostCommonUploadHour, metrics.MostCommonUploadDay,
		metrics.TopCategoryID, metrics.TopCategoryPercentage,
		histogram, metrics.CollectedAt,
	)
	if err != nil {
		return errors.NewStoreError("failed to append metrics", "append_metrics", err)
	}
	return nil
}

func (r *TrackerRepository) LatestMetrics(ctx context.Context, channelID string) (*domain.ChannelMetrics, error) {
	query := `
		SELECT channel_id, daily_subscriber_growth, weekly_subscriber_growth,
			monthly_subscriber_growth, daily_view_growth, videos_per_week, videos_per_month,
			avg_video_duration, most_common_upload_hour, most_common_upload_day,
			top_category_id, top_category_percentage, upload_hour_histogram, collected_at
		FROM channel_metrics
		WHERE channel_id = $1
		ORDER BY collected_at DESC
		LIMIT 1
	`

	var (
		m         domain.ChannelMetrics
		histogram []byte
	)

	err := r.db.QueryRowContext(ctx, query, channelID).Scan(
		&m.ChannelID,
		&m.DailySubscriberGrowth, &m.WeeklySubscriberGrowth,
		&m.MonthlySubscriberGrowth, &m.DailyViewGrowth,
		&m.VideosPerWeek, &m.VideosPerMonth,
		&m.AvgVideoDuration, &m.MostCommonUploadHour, &m.MostCommonUploadDay,
		&m.TopCategoryID, &m.TopCategoryPercentage,
		&histogram, &m.CollectedAt,
	)
	if err == sql.ErrNoRows {
		return nil, errors.NewNotFoundError("metrics", channelID)
	}
	if err != nil {
		return nil, errors.NewStoreError("failed to query latest metrics", "latest_metrics", err)
	}

	if err := json.Unmarshal(histogram, &m.UploadHourHistogram); err != nil {
		return nil, errors.NewStoreError("failed to unmarshal histogram", "latest_metrics", err)
	}

	return &m, nil
}

func (r *TrackerRepository) scanChannels(rows *sql.Rows) ([]*domain.Channel, error) {
	channels := make([]*domain.Channel, 0)
	for rows.Next() {
		var (
			ch                           domain.Channel
			subscribers, videos, viewCnt int64
		)
		if err := rows.Scan(
			&ch.ChannelID, &ch.Title, &ch.Description,
			&subscribers, &videos, &viewCnt,
			&ch.CreatedAt, &ch.UpdatedAt,
		); err != nil {
			r.logger.Warn("Failed to scan channel row", zap.Error(err))
			continue
		}
		ch.SubscriberCount = uint64(subscribers)
		ch.VideoCount = uint64(videos)
		ch.ViewCount = uint64(viewCnt)
		channels = append(channels, &ch)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("channel row iteration failed", "scan_channels", err)
	}
	return channels, nil
}

func (r *TrackerRepository) scanSnapshots(rows *sql.Rows) ([]*domain.ChannelSnapshot, error) {
	snapshots := make([]*domain.ChannelSnapshot, 0)
	for rows.Next() {
		var (
			s                            domain.ChannelSnapshot
			subscribers, videos, viewCnt int64
		)
		if err := rows.Scan(&s.ChannelID, &subscribers, &videos, &viewCnt, &s.CollectedAt); err != nil {
			r.logger.Warn("Failed to scan snapshot row", zap.Error(err))
			continue
		}
		s.SubscriberCount = uint64(subscribers)
		s.VideoCount = uint64(videos)
		s.ViewCount = uint64(viewCnt)
		snapshots = append(snapshots, &s)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("snapshot row iteration failed", "scan_snapshots", err)
	}
	return snapshots, nil
}

func (r *TrackerRepository) scanVideos(rows *sql.Rows) ([]*domain.VideoRecord, error) {
	videos := make([]*domain.VideoRecord, 0)
	for rows.Next() {
		var (
			v                          domain.VideoRecord
			views, likes, comments, sh int64
		)
		if err := rows.Scan(
			&v.VideoID, &v.ChannelID, &v.Title, &v.Description,
			&v.PublishedAt, &v.Duration,
			&views, &likes, &comments, &sh,
			&v.CategoryID, &v.ThumbnailURL,
		); err != nil {
			r.logger.Warn("Failed to scan video row", zap.Error(err))
			continue
		}
		v.ViewCount = uint64(views)
		v.LikeCount = uint64(likes)
		v.CommentCount = uint64(comments)
		v.ShareCount = uint64(sh)
		videos = append(videos, &v)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStoreError("video row iteration failed", "scan_videos", err)
	}
	return videos, nil
}

var _ domain.SnapshotStore = (*TrackerRepository)(nil)
var _ domain.ChannelStore = (*TrackerRepository)(nil)
