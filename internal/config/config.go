package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	YouTube   YouTubeConfig
	Postgres  PostgresConfig
	Redis     RedisConfig
	Batch     BatchConfig
	Scheduler SchedulerConfig
	Logging   LoggingConfig
}

type YouTubeConfig struct {
	APIKey          string
	EnableOAuth     bool
	CredentialsFile string
	TokenFile       string
}

type PostgresConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	Database string
	SSLMode  string
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type BatchConfig struct {
	Concurrency int
}

type SchedulerConfig struct {
	Enabled  bool
	Interval time.Duration
}

type LoggingConfig struct {
	Level string
	File  string
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	cfg := &Config{
		YouTube: YouTubeConfig{
			APIKey:          getEnv("YOUTUBE_API_KEY", ""),
			EnableOAuth:     getEnvBool("YOUTUBE_ENABLE_OAUTH", false),
			CredentialsFile: getEnv("YOUTUBE_OAUTH_CREDENTIALS_FILE", "credentials.json"),
			TokenFile:       getEnv("YOUTUBE_OAUTH_TOKEN_FILE", "token.json"),
		},
		Postgres: PostgresConfig{
			Host:     getEnv("POSTGRES_HOST", "localhost"),
			Port:     getEnvInt("POSTGRES_PORT", 5432),
			User:     getEnv("POSTGRES_USER", "postgres"),
			Password: getEnv("POSTGRES_PASSWORD", ""),
			Database: getEnv("POSTGRES_DB", "ca_youtube"),
			SSLMode:  getEnv("POSTGRES_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Host:     getEnv("REDIS_HOST", "localhost"),
			Port:     getEnvInt("REDIS_PORT", 6379),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvInt("REDIS_DB", 0),
		},
		Batch: BatchConfig{
			Concurrency: getEnvInt("BATCH_CONCURRENCY", 8),
		},
		Scheduler: SchedulerConfig{
			Enabled:  getEnvBool("SCHEDULER_ENABLED", true),
			Interval: time.Duration(getEnvInt("SCHEDULER_INTERVAL_MINUTES", 24*60)) * time.Minute,
		},
		Logging: LoggingConfig{
			Level: getEnv("LOG_LEVEL", "info"),
			File:  getEnv("LOG_FILE", ""),
		},
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

func (c *Config) Validate() error {
	if c.YouTube.APIKey == "" && !c.YouTube.EnableOAuth {
		return fmt.Errorf("YOUTUBE_API_KEY is required (or enable YOUTUBE_ENABLE_OAUTH)")
	}
	if c.Postgres.Host == "" {
		return fmt.Errorf("POSTGRES_HOST is required")
	}
	if c.Postgres.Database == "" {
		return fmt.Errorf("POSTGRES_DB is required")
	}
	if c.Batch.Concurrency < 1 {
		return fmt.Errorf("BATCH_CONCURRENCY must be at least 1")
	}
	if c.Scheduler.Interval < time.Minute {
		return fmt.Errorf("SCHEDULER_INTERVAL_MINUTES must be at least 1")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intVal, err := strconv.Atoi(value); err == nil {
			return intVal
		}
	}
	return defaultValue
}

func getEnvBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolVal, err := strconv.ParseBool(value); err == nil {
			return boolVal
		}
	}
	return defaultValue
}
