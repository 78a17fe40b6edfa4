package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/constants"
	"github.com/rodrigueslp/ca-youtube-go/internal/domain"
	"github.com/rodrigueslp/ca-youtube-go/pkg/errors"
)

type CacheService struct {
	client *redis.Client
	logger *zap.Logger
}

type CacheConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

func NewCacheService(cfg CacheConfig, logger *zap.Logger) (*CacheService, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.NewCacheError("failed to connect to Redis", "ping", "", err)
	}

	logger.Info("Redis connected",
		zap.String("addr", fmt.Sprintf("%s:%d", cfg.Host, cfg.Port)),
		zap.Int("db", cfg.DB),
	)

	return &CacheService{
		client: client,
		logger: logger,
	}, nil
}

func (c *CacheService) Get(ctx context.Context, key string, dest any) (bool, error) {
	value, err := c.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return false, nil // Key doesn't exist - not an error
	}
	if err != nil {
		c.logger.Error("Cache get failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("get failed", "get", key, err)
	}

	if dest != nil {
		if err := json.Unmarshal([]byte(value), dest); err != nil {
			c.logger.Error("Cache unmarshal failed", zap.String("key", key), zap.Error(err))
			return false, errors.NewCacheError("unmarshal failed", "get", key, err)
		}
	}

	return true, nil
}

func (c *CacheService) Set(ctx context.Context, key string, value any, ttl time.Duration) error {
	jsonData, err := json.Marshal(value)
	if err != nil {
		return errors.NewCacheError("marshal failed", "set", key, err)
	}

	if err := c.client.Set(ctx, key, jsonData, ttl).Err(); err != nil {
		c.logger.Error("Cache set failed", zap.String("key", key), zap.Error(err))
		return errors.NewCacheError("set failed", "set", key, err)
	}

	return nil
}

func (c *CacheService) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := c.client.Del(ctx, keys...).Err(); err != nil {
		c.logger.Error("Cache delete failed", zap.Int("keys", len(keys)), zap.Error(err))
		return errors.NewCacheError("delete failed", "del", fmt.Sprintf("%d keys", len(keys)), err)
	}
	return nil
}

func (c *CacheService) Exists(ctx context.Context, key string) (bool, error) {
	count, err := c.client.Exists(ctx, key).Result()
	if err != nil {
		c.logger.Error("Cache exists failed", zap.String("key", key), zap.Error(err))
		return false, errors.NewCacheError("exists failed", "exists", key, err)
	}
	return count > 0, nil
}

func (c *CacheService) Close() error {
	if err := c.client.Close(); err != nil {
		c.logger.Error("Failed to close Redis connection", zap.Error(err))
		return err
	}
	c.logger.Info("Redis disconnected")
	return nil
}

func (c *CacheService) IsConnected(ctx context.Context) bool {
	return c.client.Ping(ctx).Err() == nil
}

func (c *CacheService) WaitUntilReady(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return fmt.Errorf("timeout waiting for Redis to be ready")
		case <-ticker.C:
			if c.IsConnected(ctx) {
				return nil
			}
		}
	}
}

func metricsKey(channelID string) string {
	return fmt.Sprintf("metrics:latest:%s", channelID)
}

func videosKey(channelID string) string {
	return fmt.Sprintf("videos:recent:%s", channelID)
}

func handleKey(handle string) string {
	return fmt.Sprintf("handle:%s", handle)
}

// GetLatestMetrics returns the cached metrics record, or (nil, false) on a
// miss. Cache errors degrade to a miss.
func (c *CacheService) GetLatestMetrics(ctx context.Context, channelID string) (*domain.ChannelMetrics, bool) {
	var metrics domain.ChannelMetrics
	hit, err := c.Get(ctx, metricsKey(channelID), &metrics)
	if err != nil || !hit {
		return nil, false
	}
	return &metrics, true
}

func (c *CacheService) SetLatestMetrics(ctx context.Context, metrics *domain.ChannelMetrics) {
	if err := c.Set(ctx, metricsKey(metrics.ChannelID), metrics, constants.CacheTTL.LatestMetrics); err != nil {
		c.logger.Warn("Failed to cache metrics", zap.String("channel", metrics.ChannelID), zap.Error(err))
	}
}

func (c *CacheService) GetRecentVideos(ctx context.Context, channelID string) ([]*domain.VideoRecord, bool) {
	var videos []*domain.VideoRecord
	hit, err := c.Get(ctx, videosKey(channelID), &videos)
	if err != nil || !hit || videos == nil {
		return nil, false
	}
	return videos, true
}

func (c *CacheService) SetRecentVideos(ctx context.Context, channelID string, videos []*domain.VideoRecord) {
	if err := c.Set(ctx, videosKey(channelID), videos, constants.CacheTTL.RecentVideos); err != nil {
		c.logger.Warn("Failed to cache videos", zap.String("channel", channelID), zap.Error(err))
	}
}

func (c *CacheService) GetResolvedHandle(ctx context.Context, handle string) (string, bool) {
	var channelID string
	hit, err := c.Get(ctx, handleKey(handle), &channelID)
	if err != nil || !hit || channelID == "" {
		return "", false
	}
	return channelID, true
}

func (c *CacheService) SetResolvedHandle(ctx context.Context, handle, channelID string) {
	if err := c.Set(ctx, handleKey(handle), channelID, constants.CacheTTL.HandleResolution); err != nil {
		c.logger.Warn("Failed to cache handle resolution", zap.String("handle", handle), zap.Error(err))
	}
}

// InvalidateChannel drops the channel's cached read models after a refresh
// or delete.
func (c *CacheService) InvalidateChannel(ctx context.Context, channelID string) {
	if err := c.Del(ctx, metricsKey(channelID), videosKey(channelID)); err != nil {
		c.logger.Warn("Failed to invalidate channel cache", zap.String("channel", channelID), zap.Error(err))
	}
}

func (c *CacheService) GetRedisClient() *redis.Client {
	return c.client
}
