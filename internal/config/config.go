package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	// Server
	Port int
	Env  string

	// CORS
	AllowedOrigins []string

	// Database URLs
	PostgresURL   string
	ClickHouseURL string
	RedisURL      string

	// osu! API
	OsuAPIURL     string
	OsuAPIKey     string
	OsuAPITimeout time.Duration

	// Refresh
	FreshnessWindow   time.Duration
	RefreshLockTTL    time.Duration
	RefreshTimeout    time.Duration
	BestScoresLimit   int
	RecentScoresLimit int
	FetchConcurrency  int

	// History worker pool
	WorkerCount   int
	QueueSize     int
	BatchSize     int
	FlushInterval time.Duration

	// Auth
	JWTSecret  string
	SessionTTL time.Duration

	LeaderboardCacheTTL time.Duration

	// Scheduler
	SchedulerEnabled    bool
	SchedulerInterval   time.Duration
	SchedulerBatch      int
	DisableMissingUsers bool
}

// Load loads configuration from environment variables, reading a local .env
// file first when one exists.
// It returns an error if critical configuration is missing.
func Load() (*Config, error) {
	// Missing .env is normal outside development
	_ = godotenv.Load()

	cfg := &Config{
		Port: getEnvInt("PORT", 8080),
		Env:  getEnv("ENV", "development"),

		OsuAPIURL:     getEnv("OSU_API_URL", "https://osu.ppy.sh/api"),
		OsuAPITimeout: getEnvDuration("OSU_API_TIMEOUT", 10*time.Second),

		FreshnessWindow:   getEnvDuration("FRESHNESS_WINDOW", 5*time.Minute),
		RefreshLockTTL:    getEnvDuration("REFRESH_LOCK_TTL", 60*time.Second),
		RefreshTimeout:    getEnvDuration("REFRESH_TIMEOUT", 2*time.Minute),
		BestScoresLimit:   getEnvInt("BEST_SCORES_LIMIT", 100),
		RecentScoresLimit: getEnvInt("RECENT_SCORES_LIMIT", 50),
		FetchConcurrency:  getEnvInt("FETCH_CONCURRENCY", 4),

		WorkerCount:   getEnvInt("WORKER_COUNT", 2),
		QueueSize:     getEnvInt("QUEUE_SIZE", 10000),
		BatchSize:     getEnvInt("BATCH_SIZE", 500),
		FlushInterval: getEnvDuration("FLUSH_INTERVAL", 1*time.Second),

		SessionTTL: getEnvDuration("SESSION_TTL", 720*time.Hour),

		LeaderboardCacheTTL: getEnvDuration("LEADERBOARD_CACHE_TTL", 30*time.Second),

		SchedulerEnabled:    getEnvBool("SCHEDULER_ENABLED", true),
		SchedulerInterval:   getEnvDuration("SCHEDULER_INTERVAL", 15*time.Minute),
		SchedulerBatch:      getEnvInt("SCHEDULER_BATCH", 50),
		DisableMissingUsers: getEnvBool("DISABLE_MISSING_USERS", false),
	}

	// CORS
	origins := getEnv("ALLOWED_ORIGINS", "http://localhost:3000")
	for _, o := range strings.Split(origins, ",") {
		if trimmed := strings.TrimSpace(o); trimmed != "" {
			cfg.AllowedOrigins = append(cfg.AllowedOrigins, trimmed)
		}
	}

	// Critical configuration - fail if missing
	var err error
	if cfg.PostgresURL, err = getEnvRequired("POSTGRES_URL"); err != nil {
		return nil, err
	}
	if cfg.ClickHouseURL, err = getEnvRequired("CLICKHOUSE_URL"); err != nil {
		return nil, err
	}
	if cfg.RedisURL, err = getEnvRequired("REDIS_URL"); err != nil {
		return nil, err
	}
	if cfg.OsuAPIKey, err = getEnvRequired("OSU_API_KEY"); err != nil {
		return nil, err
	}
	if cfg.JWTSecret, err = getEnvRequired("JWT_SECRET"); err != nil {
		return nil, err
	}

	return cfg, nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

func getEnv(key, fallback string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return fallback
}

func getEnvRequired(key string) (string, error) {
	if value := os.Getenv(key); value != "" {
		return value, nil
	}
	return "", fmt.Errorf("missing required environment variable: %s", key)
}

func getEnvInt(key string, fallback int) int {
	if value := os.Getenv(key); value != "" {
		if i, err := strconv.Atoi(value); err == nil {
			return i
		}
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	if value := os.Getenv(key); value != "" {
		if b, err := strconv.ParseBool(value); err == nil {
			return b
		}
	}
	return fallback
}

func getEnvDuration(key string, fallback time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if d, err := time.ParseDuration(value); err == nil {
			return d
		}
	}
	return fallback
}
