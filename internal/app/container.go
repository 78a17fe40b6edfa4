package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/rodrigueslp/ca-youtube-go/internal/config"
	"github.com/rodrigueslp/ca-youtube-go/internal/service"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/cache"
	"github.com/rodrigueslp/ca-youtube-go/internal/service/database"
)

// Container bundles the assembled services for the tracker daemon.
type Container struct {
	Config *config.Config
	Logger *zap.Logger

	Cache      *cache.CacheService
	Postgres   *database.PostgresService
	Repository *service.TrackerRepository

	YouTube    *service.YouTubeClient
	OAuth      *service.YouTubeOAuthClient
	Scraper    *service.ScraperResolver
	Engagement *service.EngagementAnalyzer
	Metrics    *service.MetricsAggregator
	Comparison *service.ComparisonEngine
	Audience   *service.AudienceAnalyzer
	Content    *service.ContentAnalyzer
	Channels   *service.ChannelService
	Batch      *service.BatchService
	Scheduler  *service.UpdateScheduler

	closers []func()
}

// Close releases held resources in reverse construction order.
func (c *Container) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
	c.closers = nil
}

// Build assembles all infrastructure and domain services. Heavy-weight
// initialization (DB/cache/schema/API clients) happens here so that main
// stays focused on lifecycle.
func Build(ctx context.Context, cfg *config.Config, logger *zap.Logger) (container *Container, err error) {
	if cfg == nil {
		return nil, fmt.Errorf("config must not be nil")
	}
	if logger == nil {
		return nil, fmt.Errorf("logger must not be nil")
	}
	if ctx == nil {
		ctx = context.Background()
	}

	var closers []func()
	defer func() {
		if err != nil {
			for i := len(closers) - 1; i >= 0; i-- {
				closers[i]()
			}
		}
	}()

	// Cache and database
	cacheSvc, err := cache.NewCacheService(cache.CacheConfig{
		Host:     cfg.Redis.Host,
		Port:     cfg.Redis.Port,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create cache service: %w", err)
	}
	closers = append(closers, func() {
		_ = cacheSvc.Close()
	})

	postgresSvc, err := database.NewPostgresService(database.PostgresConfig{
		Host:     cfg.Postgres.Host,
		Port:     cfg.Postgres.Port,
		User:     cfg.Postgres.User,
		Password: cfg.Postgres.Password,
		Database: cfg.Postgres.Database,
		SSLMode:  cfg.Postgres.SSLMode,
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create postgres service: %w", err)
	}
	closers = append(closers, func() {
		_ = postgresSvc.Close()
	})

	repo := service.NewTrackerRepository(postgresSvc, logger)
	if err := repo.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure database schema: %w", err)
	}

	// Platform clients
	youtubeClient, err := service.NewYouTubeClient(cfg.YouTube.APIKey, cacheSvc, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to create youtube client: %w", err)
	}

	var oauthClient *service.YouTubeOAuthClient
	if cfg.YouTube.EnableOAuth {
		oauthClient, err = service.NewYouTubeOAuthClient(cfg.YouTube.CredentialsFile, cfg.YouTube.TokenFile, logger)
		if err != nil {
			logger.Warn("Failed to initialize OAuth client (optional feature)", zap.Error(err))
			oauthClient = nil
		}
	}

	scraper := service.NewScraperResolver(cacheSvc, logger)

	// Analytics services
	engagement := service.NewEngagementAnalyzer()
	growth := service.NewGrowthCalculator(repo, logger)
	metrics := service.NewMetricsAggregator(repo, repo, youtubeClient, growth, cacheSvc, logger)
	comparison := service.NewComparisonEngine(repo, repo, metrics, engagement, logger)
	audience := service.NewAudienceAnalyzer(repo, repo, engagement, logger)
	content := service.NewContentAnalyzer(repo, repo, engagement, logger)
	channels := service.NewChannelService(repo, repo, youtubeClient, scraper, metrics, cacheSvc, logger)

	batch := service.NewBatchService(repo, metrics, cfg.Batch.Concurrency, logger)
	scheduler := service.NewUpdateScheduler(batch, cfg.Scheduler.Interval, logger)

	return &Container{
		Config: cfg,
		Logger: logger,

		Cache:      cacheSvc,
		Postgres:   postgresSvc,
		Repository: repo,

		YouTube:    youtubeClient,
		OAuth:      oauthClient,
		Scraper:    scraper,
		Engagement: engagement,
		Metrics:    metrics,
		Comparison: comparison,
		Audience:   audience,
		Content:    content,
		Channels:   channels,
		Batch:      batch,
		Scheduler:  scheduler,

		closers: closers,
	}, nil
}
