package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/config"
	"github.com/osuchan/stats-api/internal/handlers"
	"github.com/osuchan/stats-api/internal/logic"
	"github.com/osuchan/stats-api/internal/osuapi"
	"github.com/osuchan/stats-api/internal/session"
	"github.com/osuchan/stats-api/internal/store"
	"github.com/osuchan/stats-api/internal/worker"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	logger, err := newLogger(cfg)
	if err != nil {
		return fmt.Errorf("failed to create logger: %w", err)
	}
	defer logger.Sync()
	sugar := logger.Sugar()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := store.Connect(ctx, cfg.PostgresURL)
	if err != nil {
		return err
	}
	defer pool.Close()

	ch, err := connectClickHouse(ctx, cfg.ClickHouseURL)
	if err != nil {
		return err
	}
	defer ch.Close()

	redisOpts, err := redis.ParseURL(cfg.RedisURL)
	if err != nil {
		return fmt.Errorf("invalid redis url: %w", err)
	}
	rdb := redis.NewClient(redisOpts)
	defer rdb.Close()
	if err := rdb.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping: %w", err)
	}

	// Snapshot pool
	history := worker.NewPool(worker.PoolConfig{
		WorkerCount:   cfg.WorkerCount,
		QueueSize:     cfg.QueueSize,
		BatchSize:     cfg.BatchSize,
		FlushInterval: cfg.FlushInterval,
		ClickHouse:    ch,
		Logger:        logger,
	})
	history.Start(ctx)
	defer history.Stop()

	st := store.New(pool)
	source := osuapi.NewClient(cfg.OsuAPIURL, cfg.OsuAPIKey, cfg.OsuAPITimeout, logger)
	membership := logic.NewMembershipService(logger)
	memberCache := logic.NewRedisMemberCache(rdb, cfg.LeaderboardCacheTTL, logger)

	// No pp calculator is bundled; records the API returns without pp are dropped.
	ingestion := logic.NewIngestionService(source, nil, logger)

	refresh := logic.NewRefreshService(logic.RefreshConfig{
		Store:            st,
		Source:           source,
		Ingestion:        ingestion,
		Membership:       membership,
		Locker:           logic.NewRedisLocker(rdb, cfg.RefreshLockTTL),
		Snapshots:        history,
		Cache:            memberCache,
		Logger:           logger,
		FreshnessWindow:  cfg.FreshnessWindow,
		BestLimit:        cfg.BestScoresLimit,
		RecentLimit:      cfg.RecentScoresLimit,
		FetchConcurrency: cfg.FetchConcurrency,
		Timeout:          cfg.RefreshTimeout,
	})
	leaderboards := logic.NewLeaderboardService(st, membership, memberCache, logger)

	if cfg.SchedulerEnabled {
		scheduler, err := worker.NewScheduler(worker.SchedulerConfig{
			Store:           st,
			Refresh:         refresh,
			Logger:          logger,
			Interval:        cfg.SchedulerInterval,
			BatchSize:       cfg.SchedulerBatch,
			FreshnessWindow: cfg.FreshnessWindow,
			DisableMissing:  cfg.DisableMissingUsers,
		})
		if err != nil {
			return err
		}
		if err := scheduler.Start(ctx); err != nil {
			return err
		}
		defer func() {
			if err := scheduler.Stop(); err != nil {
				sugar.Warnw("scheduler shutdown failed", "error", err)
			}
		}()
	}

	h := handlers.New(handlers.Config{
		History:      history,
		Postgres:     pool,
		ClickHouse:   ch,
		Redis:        rdb,
		Sessions:     session.NewManager(cfg.JWTSecret, cfg.SessionTTL),
		Logger:       logger,
		Refresh:      refresh,
		Leaderboards: leaderboards,
		StatsHistory: logic.NewHistoryService(ch),
	})

	srv := &http.Server{
		Addr: fmt.Sprintf(":%d", cfg.Port),
		Handler: h.Router(handlers.RouterOptions{
			AllowedOrigins: cfg.AllowedOrigins,
			EnableInstall:  !cfg.IsProduction(),
		}),
		ReadHeaderTimeout: 10 * time.Second,
		ReadTimeout:       30 * time.Second,
		WriteTimeout:      90 * time.Second,
		IdleTimeout:       120 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		sugar.Infow("server listening", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return fmt.Errorf("server failed: %w", err)
		}
	case <-ctx.Done():
	}

	sugar.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		sugar.Errorw("graceful shutdown failed", "error", err)
	}
	return nil
}

func newLogger(cfg *config.Config) (*zap.Logger, error) {
	if cfg.IsProduction() {
		return zap.NewProduction()
	}
	return zap.NewDevelopment()
}

func connectClickHouse(ctx context.Context, url string) (driver.Conn, error) {
	opts, err := clickhouse.ParseDSN(url)
	if err != nil {
		return nil, fmt.Errorf("invalid clickhouse url: %w", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("clickhouse open: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.Ping(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("clickhouse ping: %w", err)
	}
	return conn, nil
}
