package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/logic"
	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

var scheduledRefreshes = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "osuchan_scheduled_refreshes_total",
	Help: "Users refreshed by the scheduler, by outcome",
}, []string{"outcome"})

// StaleUserLister is the query the scheduler needs from the store.
type StaleUserLister interface {
	ListStaleUsers(ctx context.Context, mode osu.Gamemode, before time.Time, limit int) ([]int64, error)
}

// SchedulerConfig configures the stale-user refresh job.
type SchedulerConfig struct {
	Store   StaleUserLister
	Refresh logic.RefreshService
	Logger  *zap.Logger

	Interval        time.Duration
	BatchSize       int
	FreshnessWindow time.Duration
	// DisableMissing disables users the osu! API no longer returns.
	DisableMissing bool

	Now func() time.Time
}

// Scheduler periodically refreshes the standard stats of the users that were
// refreshed least recently.
type Scheduler struct {
	config SchedulerConfig
	sched  gocron.Scheduler
	logger *zap.SugaredLogger
	ctx    context.Context
	cancel context.CancelFunc
}

func NewScheduler(cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Interval <= 0 {
		cfg.Interval = 15 * time.Minute
	}
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = 50
	}
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 5 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	sched, err := gocron.NewScheduler()
	if err != nil {
		return nil, fmt.Errorf("failed to create scheduler: %w", err)
	}
	return &Scheduler{config: cfg, sched: sched, logger: cfg.Logger.Sugar()}, nil
}

// Start registers the refresh job and starts the scheduler.
func (s *Scheduler) Start(ctx context.Context) error {
	s.ctx, s.cancel = context.WithCancel(ctx)

	_, err := s.sched.NewJob(
		gocron.DurationJob(s.config.Interval),
		gocron.NewTask(func() {
			s.RunOnce(s.ctx)
		}),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	)
	if err != nil {
		return fmt.Errorf("failed to schedule refresh job: %w", err)
	}

	s.sched.Start()
	s.logger.Infow("Scheduler started", "interval", s.config.Interval, "batch", s.config.BatchSize)
	return nil
}

func (s *Scheduler) Stop() error {
	if s.cancel != nil {
		s.cancel()
	}
	return s.sched.Shutdown()
}

// RunOnce refreshes one batch of stale users and returns how many were refreshed.
func (s *Scheduler) RunOnce(ctx context.Context) int {
	before := s.config.Now().Add(-s.config.FreshnessWindow)
	ids, err := s.config.Store.ListStaleUsers(ctx, osu.GamemodeStandard, before, s.config.BatchSize)
	if err != nil {
		s.logger.Errorw("Failed to list stale users", "error", err)
		return 0
	}

	refreshed := 0
	for _, id := range ids {
		if ctx.Err() != nil {
			break
		}

		_, err := s.config.Refresh.FetchUser(ctx, models.UserLookup{UserID: id}, osu.GamemodeStandard)
		switch {
		case err == nil:
			refreshed++
			scheduledRefreshes.WithLabelValues("refreshed").Inc()
		case errors.Is(err, logic.ErrNotFoundUpstream):
			scheduledRefreshes.WithLabelValues("not_found").Inc()
			if !s.config.DisableMissing {
				continue
			}
			if err := s.config.Refresh.DisableUser(ctx, id); err != nil {
				s.logger.Warnw("Failed to disable user", "user", id, "error", err)
			}
		default:
			scheduledRefreshes.WithLabelValues("error").Inc()
			s.logger.Warnw("Scheduled refresh failed", "user", id, "error", err)
		}
	}

	if len(ids) > 0 {
		s.logger.Infow("Scheduled refresh finished", "stale", len(ids), "refreshed", refreshed)
	}
	return refreshed
}
