package handlers

import (
	"context"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/go-playground/validator/v10"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/logic"
)

// MaxBodySize limits the size of request bodies to 1MB
const MaxBodySize = 1048576

// HistoryQueue reports the backlog of the stats history worker pool
type HistoryQueue interface {
	QueueDepth() int
}

// Database is the subset of *pgxpool.Pool the handlers use directly.
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Ping(ctx context.Context) error
}

// RedisPinger is the subset of *redis.Client used by the readiness check.
type RedisPinger interface {
	Ping(ctx context.Context) *redis.StatusCmd
}

// SessionParser resolves a bearer token to an osu! user id.
type SessionParser interface {
	Parse(token string) (int64, error)
}

type Config struct {
	History    HistoryQueue
	Postgres   Database
	ClickHouse driver.Conn
	Redis      RedisPinger
	Sessions   SessionParser
	Logger     *zap.Logger
	// Directory holding postgres/ and clickhouse/ schema files
	MigrationsDir string
	// Services
	Refresh      logic.RefreshService
	Leaderboards logic.LeaderboardService
	StatsHistory logic.HistoryService
}

type Handler struct {
	history       HistoryQueue
	pg            Database
	ch            driver.Conn
	redis         RedisPinger
	sessions      SessionParser
	logger        *zap.SugaredLogger
	validator     *validator.Validate
	migrationsDir string
	refresh       logic.RefreshService
	leaderboards  logic.LeaderboardService
	statsHistory  logic.HistoryService
}

func New(cfg Config) *Handler {
	if cfg.MigrationsDir == "" {
		cfg.MigrationsDir = "migrations"
	}
	return &Handler{
		history:       cfg.History,
		pg:            cfg.Postgres,
		ch:            cfg.ClickHouse,
		redis:         cfg.Redis,
		sessions:      cfg.Sessions,
		logger:        cfg.Logger.Sugar(),
		validator:     validator.New(),
		migrationsDir: cfg.MigrationsDir,
		refresh:       cfg.Refresh,
		leaderboards:  cfg.Leaderboards,
		statsHistory:  cfg.StatsHistory,
	}
}
