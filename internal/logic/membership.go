package logic

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

type membershipService struct {
	logger *zap.SugaredLogger
	now    func() time.Time
}

func NewMembershipService(logger *zap.Logger) MembershipService {
	return &membershipService{
		logger: logger.Sugar(),
		now:    func() time.Time { return time.Now().UTC() },
	}
}

// RecomputeMembership rebuilds the qualifying score set and pp of userID on lb
// from candidates, which must be the user's full stored score set for lb's
// gamemode. The membership row is created when missing.
func (s *membershipService) RecomputeMembership(ctx context.Context, q Queries, lb *models.Leaderboard, userID int64, candidates []*models.Score) (*models.Membership, error) {
	m, err := q.LockMembership(ctx, lb.ID, userID)
	if errors.Is(err, ErrNotFoundLocal) {
		created := &models.Membership{LeaderboardID: lb.ID, UserID: userID, JoinDate: s.now()}
		if err := q.CreateMemberships(ctx, []*models.Membership{created}); err != nil {
			return nil, fmt.Errorf("failed to create membership: %w", err)
		}
		m, err = q.LockMembership(ctx, lb.ID, userID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to lock membership: %w", err)
	}

	qualifying := QualifyingScores(lb, m.JoinDate, candidates)

	pps := make([]float64, len(qualifying))
	ids := make([]int64, len(qualifying))
	for i, sc := range qualifying {
		pps[i] = sc.PP
		ids[i] = sc.ID
	}
	m.PP = osu.WeightedSum(pps)
	m.ScoreIDs = ids

	if err := q.SaveMembership(ctx, m); err != nil {
		return nil, fmt.Errorf("failed to save membership: %w", err)
	}
	membershipRecomputes.Inc()
	return m, nil
}

// RecomputeUserMemberships recomputes every membership of userID on leaderboards of mode.
func (s *membershipService) RecomputeUserMemberships(ctx context.Context, q Queries, userID int64, mode osu.Gamemode, candidates []*models.Score) ([]*models.Membership, error) {
	leaderboards, err := q.ListMemberLeaderboards(ctx, userID, mode)
	if err != nil {
		return nil, fmt.Errorf("failed to list leaderboards: %w", err)
	}

	memberships := make([]*models.Membership, 0, len(leaderboards))
	for _, lb := range leaderboards {
		m, err := s.RecomputeMembership(ctx, q, lb, userID, candidates)
		if err != nil {
			return nil, fmt.Errorf("leaderboard %d: %w", lb.ID, err)
		}
		memberships = append(memberships, m)
	}

	s.logger.Infow("Memberships recomputed", "user", userID, "gamemode", mode, "leaderboards", len(memberships))
	return memberships, nil
}

// QualifyingScores returns the best score per beatmap among candidates that
// count on lb for a member who joined at joinDate, ordered by pp descending.
func QualifyingScores(lb *models.Leaderboard, joinDate time.Time, candidates []*models.Score) []*models.Score {
	passed := make([]*models.Score, 0, len(candidates))
	for _, sc := range candidates {
		if sc.Gamemode != lb.Gamemode {
			continue
		}
		if !lb.AllowPastScores && sc.Date.Before(joinDate) {
			continue
		}
		if !EvaluateScoreFilter(lb.ScoreFilter, sc, sc.Beatmap) {
			continue
		}
		passed = append(passed, sc)
	}
	return bestPerBeatmap(passed)
}
