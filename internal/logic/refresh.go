package logic

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// RefreshConfig wires the user refresh orchestrator.
type RefreshConfig struct {
	Store      Store
	Source     DataSource
	Ingestion  IngestionService
	Membership MembershipService
	Locker     Locker
	Snapshots  SnapshotQueue
	Cache      MemberCache
	Logger     *zap.Logger

	FreshnessWindow time.Duration
	BestLimit       int
	RecentLimit     int
	// Concurrent per-beatmap fetches in FetchScores
	FetchConcurrency int
	// Upper bound on one shared refresh, which outlives the callers waiting on it
	Timeout time.Duration

	Now func() time.Time
}

type refreshService struct {
	store      Store
	source     DataSource
	ingestion  IngestionService
	membership MembershipService
	locker     Locker
	snapshots  SnapshotQueue
	cache      MemberCache
	logger     *zap.SugaredLogger

	window      time.Duration
	bestLimit   int
	recentLimit int
	concurrency int
	timeout     time.Duration
	now         func() time.Time

	group singleflight.Group
}

func NewRefreshService(cfg RefreshConfig) RefreshService {
	if cfg.FreshnessWindow <= 0 {
		cfg.FreshnessWindow = 5 * time.Minute
	}
	if cfg.BestLimit <= 0 {
		cfg.BestLimit = 100
	}
	if cfg.RecentLimit <= 0 {
		cfg.RecentLimit = 50
	}
	if cfg.FetchConcurrency <= 0 {
		cfg.FetchConcurrency = 4
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 2 * time.Minute
	}
	if cfg.Now == nil {
		cfg.Now = func() time.Time { return time.Now().UTC() }
	}

	return &refreshService{
		store:       cfg.Store,
		source:      cfg.Source,
		ingestion:   cfg.Ingestion,
		membership:  cfg.Membership,
		locker:      cfg.Locker,
		snapshots:   cfg.Snapshots,
		cache:       cfg.Cache,
		logger:      cfg.Logger.Sugar(),
		window:      cfg.FreshnessWindow,
		bestLimit:   cfg.BestLimit,
		recentLimit: cfg.RecentLimit,
		concurrency: cfg.FetchConcurrency,
		timeout:     cfg.Timeout,
		now:         cfg.Now,
	}
}

// FetchUser returns the stats of a user, refreshing them from the osu! API when
// they are older than the freshness window. Concurrent calls for the same user
// and gamemode share one upstream fetch.
func (s *refreshService) FetchUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	if !lookup.Valid() {
		return nil, fmt.Errorf("%w: user id or username required", ErrInvalidInput)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: gamemode %d", ErrInvalidInput, mode)
	}

	stats, err := s.store.GetUserStats(ctx, lookup, mode)
	switch {
	case err == nil:
		if stats.IsFresh(s.now(), s.window) {
			refreshTotal.WithLabelValues("fresh").Inc()
			return stats, nil
		}
		// Known users are keyed by id so lookups by id and by name share a refresh
		lookup = models.UserLookup{UserID: stats.UserID}
	case !errors.Is(err, ErrNotFoundLocal):
		return nil, err
	}

	key := refreshKey(lookup, mode)
	ch := s.group.DoChan(key, func() (interface{}, error) {
		// Detached from the first caller so its cancellation does not fail the others
		rctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.timeout)
		defer cancel()
		return s.refresh(rctx, lookup, mode)
	})

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		out := *res.Val.(*models.UserStats)
		return &out, nil
	}
}

// refreshKey names the singleflight group and lock of a user refresh.
func refreshKey(lookup models.UserLookup, mode osu.Gamemode) string {
	return lookup.Key() + ":" + strconv.Itoa(int(mode))
}

func (s *refreshService) refresh(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	release, err := s.locker.Acquire(ctx, "refresh:"+refreshKey(lookup, mode))
	if err != nil {
		return nil, err
	}
	defer release()

	// A username is resolved to an id first so that every refresh of a user,
	// however it was looked up, serialises on the same id lock.
	var data *models.UserData
	if lookup.UserID == 0 {
		data, err = s.source.GetUser(ctx, lookup, mode)
		if err != nil {
			err = upstreamErr(err)
			s.recordFailure(lookup, mode, err)
			return nil, err
		}
		lookup = models.UserLookup{UserID: data.UserID}
		releaseID, err := s.locker.Acquire(ctx, "refresh:"+refreshKey(lookup, mode))
		if err != nil {
			return nil, err
		}
		defer releaseID()
	}

	start := time.Now()
	var (
		result      *models.UserStats
		memberships []*models.Membership
		skipped     bool
	)

	err = s.store.InTx(ctx, func(q Queries) error {
		stats, err := q.LockUserStats(ctx, lookup, mode)
		switch {
		case err == nil:
			// Another instance may have refreshed while we waited for the lock
			if stats.IsFresh(s.now(), s.window) {
				result = stats
				skipped = true
				return nil
			}
		case errors.Is(err, ErrNotFoundLocal):
			stats = &models.UserStats{Gamemode: mode}
		default:
			return err
		}

		if data == nil {
			data, err = s.source.GetUser(ctx, lookup, mode)
			if err != nil {
				return upstreamErr(err)
			}
		}

		user := &models.OsuUser{}
		if err := data.ApplyTo(user, stats); err != nil {
			return fmt.Errorf("%w: %v", ErrUpstream, err)
		}
		stats.Gamemode = mode

		created, err := q.UpsertUser(ctx, user)
		if err != nil {
			return fmt.Errorf("failed to save user: %w", err)
		}
		if created {
			if err := s.joinGlobalLeaderboards(ctx, q, user.ID); err != nil {
				return err
			}
		}

		records, err := s.fetchUserScores(ctx, user.ID, mode)
		if err != nil {
			return err
		}

		if now := s.now(); now.After(stats.LastUpdated) {
			stats.LastUpdated = now
		}
		if _, err := s.ingestion.AddScoresFromData(ctx, q, stats, records); err != nil {
			return err
		}

		memberships, err = s.recomputeMemberships(ctx, q, user.ID, mode)
		if err != nil {
			return err
		}

		result = stats
		return nil
	})
	if err != nil {
		s.recordFailure(lookup, mode, err)
		return nil, err
	}
	if skipped {
		refreshTotal.WithLabelValues("fresh").Inc()
		return result, nil
	}

	refreshTotal.WithLabelValues("refreshed").Inc()
	refreshDuration.Observe(time.Since(start).Seconds())
	s.afterCommit(ctx, result, memberships)

	s.logger.Infow("User refreshed",
		"user", result.UserID,
		"gamemode", mode,
		"pp", result.PP,
		"duration", time.Since(start),
	)
	return result, nil
}

// FetchScores ingests the user's scores on specific beatmaps. The user must
// already have stats in mode.
func (s *refreshService) FetchScores(ctx context.Context, userID int64, beatmapIDs []int64, mode osu.Gamemode) ([]*models.Score, error) {
	if userID <= 0 || len(beatmapIDs) == 0 {
		return nil, fmt.Errorf("%w: user id and beatmap ids required", ErrInvalidInput)
	}
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: gamemode %d", ErrInvalidInput, mode)
	}

	lookup := models.UserLookup{UserID: userID}
	release, err := s.locker.Acquire(ctx, "refresh:"+refreshKey(lookup, mode))
	if err != nil {
		return nil, err
	}
	defer release()

	var (
		changed     []*models.Score
		memberships []*models.Membership
	)
	err = s.store.InTx(ctx, func(q Queries) error {
		stats, err := q.LockUserStats(ctx, lookup, mode)
		if err != nil {
			return err
		}

		records, err := s.fetchBeatmapScores(ctx, userID, beatmapIDs, mode)
		if err != nil {
			return err
		}

		changed, err = s.ingestion.AddScoresFromData(ctx, q, stats, records)
		if err != nil {
			return err
		}

		memberships, err = s.recomputeMemberships(ctx, q, userID, mode)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(ctx, memberships)
	return changed, nil
}

// DisableUser marks a user as gone upstream. It is never called implicitly by a refresh.
func (s *refreshService) DisableUser(ctx context.Context, userID int64) error {
	if err := s.store.SetUserDisabled(ctx, userID, true); err != nil {
		return err
	}
	s.logger.Infow("User disabled", "user", userID)
	return nil
}

func (s *refreshService) GetUserProfile(ctx context.Context, userID int64, mode osu.Gamemode) (*models.UserStatsView, error) {
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	stats, err := s.store.GetUserStats(ctx, models.UserLookup{UserID: userID}, mode)
	if err != nil {
		return nil, err
	}
	return &models.UserStatsView{User: *user, Stats: *stats}, nil
}

// ListScores returns the stored best scores of a user, highest pp first.
func (s *refreshService) ListScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error) {
	if _, err := s.store.GetUserStats(ctx, models.UserLookup{UserID: userID}, mode); err != nil {
		return nil, err
	}
	scores, err := s.store.ListUserScores(ctx, userID, mode)
	if err != nil {
		return nil, err
	}
	sort.Slice(scores, func(i, j int) bool {
		if scores[i].PP != scores[j].PP {
			return scores[i].PP > scores[j].PP
		}
		if scores[i].BeatmapID != scores[j].BeatmapID {
			return scores[i].BeatmapID < scores[j].BeatmapID
		}
		return scores[i].ID < scores[j].ID
	})
	return scores, nil
}

func (s *refreshService) joinGlobalLeaderboards(ctx context.Context, q Queries, userID int64) error {
	leaderboards, err := q.ListGlobalLeaderboards(ctx)
	if err != nil {
		return fmt.Errorf("failed to list global leaderboards: %w", err)
	}
	if len(leaderboards) == 0 {
		return nil
	}

	now := s.now()
	memberships := make([]*models.Membership, len(leaderboards))
	for i, lb := range leaderboards {
		memberships[i] = &models.Membership{LeaderboardID: lb.ID, UserID: userID, JoinDate: now}
	}
	if err := q.CreateMemberships(ctx, memberships); err != nil {
		return fmt.Errorf("failed to join global leaderboards: %w", err)
	}
	return nil
}

// fetchUserScores fetches best scores and, in modes where pp can be computed
// for them, passed recent plays. The API reports recent plays without pp.
func (s *refreshService) fetchUserScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]models.ScoreData, error) {
	var best, recent []models.ScoreData

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		best, err = s.source.GetUserBest(gctx, userID, mode, s.bestLimit)
		return err
	})
	if s.ingestion.CanComputePP(mode) {
		g.Go(func() error {
			var err error
			recent, err = s.source.GetUserRecent(gctx, userID, mode, s.recentLimit)
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstreamErr(err)
	}

	records := make([]models.ScoreData, 0, len(best)+len(recent))
	records = append(records, best...)
	for _, r := range recent {
		if !r.Failed() {
			records = append(records, r)
		}
	}
	return records, nil
}

func (s *refreshService) fetchBeatmapScores(ctx context.Context, userID int64, beatmapIDs []int64, mode osu.Gamemode) ([]models.ScoreData, error) {
	results := make([][]models.ScoreData, len(beatmapIDs))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(s.concurrency)
	for i, id := range beatmapIDs {
		g.Go(func() error {
			scores, err := s.source.GetScores(gctx, id, userID, mode)
			if err != nil {
				return err
			}
			for j := range scores {
				scores[j].BeatmapID = id
			}
			results[i] = scores
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, upstreamErr(err)
	}

	var records []models.ScoreData
	for _, r := range results {
		records = append(records, r...)
	}
	return records, nil
}

func (s *refreshService) recomputeMemberships(ctx context.Context, q Queries, userID int64, mode osu.Gamemode) ([]*models.Membership, error) {
	scores, err := q.ListUserScores(ctx, userID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to load scores: %w", err)
	}
	return s.membership.RecomputeUserMemberships(ctx, q, userID, mode, scores)
}

func (s *refreshService) afterCommit(ctx context.Context, stats *models.UserStats, memberships []*models.Membership) {
	if s.snapshots != nil && !s.snapshots.Enqueue(stats.Snapshot(s.now())) {
		s.logger.Warnw("Stats snapshot dropped", "user", stats.UserID, "gamemode", stats.Gamemode)
	}
	s.invalidate(ctx, memberships)
}

func (s *refreshService) invalidate(ctx context.Context, memberships []*models.Membership) {
	if s.cache == nil || len(memberships) == 0 {
		return
	}
	ids := make([]int64, len(memberships))
	for i, m := range memberships {
		ids[i] = m.LeaderboardID
	}
	s.cache.Invalidate(ctx, ids...)
}

func (s *refreshService) recordFailure(lookup models.UserLookup, mode osu.Gamemode, err error) {
	switch {
	case errors.Is(err, ErrNotFoundUpstream):
		refreshTotal.WithLabelValues("not_found").Inc()
		s.logger.Infow("User not found upstream", "lookup", lookup.Key(), "gamemode", mode)
	default:
		refreshTotal.WithLabelValues("error").Inc()
		s.logger.Errorw("User refresh failed", "lookup", lookup.Key(), "gamemode", mode, "error", err)
	}
}
