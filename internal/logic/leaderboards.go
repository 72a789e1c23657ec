package logic

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

const (
	DefaultMembersLimit = 50
	MaxMembersLimit     = 200
)

type leaderboardService struct {
	store      Store
	membership MembershipService
	cache      *RedisMemberCache
	logger     *zap.SugaredLogger
	now        func() time.Time
}

func NewLeaderboardService(store Store, membership MembershipService, cache *RedisMemberCache, logger *zap.Logger) LeaderboardService {
	return &leaderboardService{
		store:      store,
		membership: membership,
		cache:      cache,
		logger:     logger.Sugar(),
		now:        func() time.Time { return time.Now().UTC() },
	}
}

// List returns global and public leaderboards plus private ones viewerID belongs to.
func (s *leaderboardService) List(ctx context.Context, mode *osu.Gamemode, viewerID int64) ([]models.LeaderboardView, error) {
	if mode != nil && !mode.Valid() {
		return nil, fmt.Errorf("%w: gamemode %d", ErrInvalidInput, *mode)
	}
	return s.store.ListVisibleLeaderboards(ctx, mode, viewerID)
}

func (s *leaderboardService) Get(ctx context.Context, id, viewerID int64) (*models.LeaderboardDetailView, error) {
	lb, err := s.visible(ctx, s.store, id, viewerID)
	if err != nil {
		return nil, err
	}
	return s.detailView(ctx, s.store, lb)
}

// Create stores a community leaderboard, joins the owner and evaluates their scores.
func (s *leaderboardService) Create(ctx context.Context, ownerID int64, req models.CreateLeaderboardRequest) (*models.LeaderboardDetailView, error) {
	mode := osu.Gamemode(req.Gamemode)
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: gamemode %d", ErrInvalidInput, req.Gamemode)
	}
	if req.AccessType != models.AccessPublic && req.AccessType != models.AccessPrivate {
		return nil, fmt.Errorf("%w: access type %d", ErrInvalidInput, req.AccessType)
	}
	if strings.TrimSpace(req.Name) == "" {
		return nil, fmt.Errorf("%w: name required", ErrInvalidInput)
	}
	if err := ValidateScoreFilter(req.ScoreFilter); err != nil {
		return nil, err
	}

	var view *models.LeaderboardDetailView
	err := s.store.InTx(ctx, func(q Queries) error {
		if _, err := q.GetUser(ctx, ownerID); err != nil {
			return err
		}

		owner := ownerID
		lb := &models.Leaderboard{
			Gamemode:        mode,
			AccessType:      req.AccessType,
			Name:            strings.TrimSpace(req.Name),
			Description:     req.Description,
			AllowPastScores: req.AllowPastScores,
			OwnerID:         &owner,
			CreationTime:    s.now(),
			ScoreFilter:     req.ScoreFilter,
		}
		if lb.ScoreFilter.IsDefault() {
			lb.ScoreFilter = nil
		}
		if err := q.CreateLeaderboard(ctx, lb); err != nil {
			return fmt.Errorf("failed to create leaderboard: %w", err)
		}

		if err := s.join(ctx, q, lb, ownerID); err != nil {
			return err
		}

		var err error
		view, err = s.detailView(ctx, q, lb)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.logger.Infow("Leaderboard created", "leaderboard", view.ID, "owner", ownerID, "gamemode", mode)
	return view, nil
}

func (s *leaderboardService) Delete(ctx context.Context, id, userID int64) error {
	lb, err := s.store.GetLeaderboard(ctx, id)
	if err != nil {
		return err
	}
	if !isOwner(lb, userID) {
		return fmt.Errorf("%w: only the owner can delete a leaderboard", ErrForbidden)
	}
	if err := s.store.DeleteLeaderboard(ctx, id); err != nil {
		return err
	}
	s.cache.Invalidate(ctx, id)
	s.logger.Infow("Leaderboard deleted", "leaderboard", id, "owner", userID)
	return nil
}

// Members returns a ranking page, served from the cache when possible.
func (s *leaderboardService) Members(ctx context.Context, id, viewerID int64, limit, offset int) ([]models.MembershipView, error) {
	if _, err := s.visible(ctx, s.store, id, viewerID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = DefaultMembersLimit
	}
	if limit > MaxMembersLimit {
		limit = MaxMembersLimit
	}
	if offset < 0 {
		offset = 0
	}

	if page, ok := s.cache.Get(ctx, id, limit, offset); ok {
		return page, nil
	}

	page, err := s.store.ListMembers(ctx, id, limit, offset)
	if err != nil {
		return nil, err
	}
	for i := range page {
		page[i].Rank = offset + i + 1
	}
	s.cache.Set(ctx, id, limit, offset, page)
	return page, nil
}

func (s *leaderboardService) Member(ctx context.Context, id, userID, viewerID int64) (*models.MembershipDetailView, error) {
	if _, err := s.visible(ctx, s.store, id, viewerID); err != nil {
		return nil, err
	}
	m, err := s.store.GetMembership(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	user, err := s.store.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	scores, err := s.store.ListMembershipScores(ctx, m.ID)
	if err != nil {
		return nil, err
	}

	return &models.MembershipDetailView{
		MembershipView: models.MembershipView{
			User:       summary(user),
			PP:         m.PP,
			ScoreCount: len(scores),
			JoinDate:   m.JoinDate,
		},
		Scores: scores,
	}, nil
}

// Join adds userID to a public leaderboard. Private leaderboards are joined
// through invites and every user is already on the global ones.
func (s *leaderboardService) Join(ctx context.Context, id, userID int64) (*models.Membership, error) {
	var membership *models.Membership
	err := s.store.InTx(ctx, func(q Queries) error {
		lb, err := s.visible(ctx, q, id, userID)
		if err != nil {
			return err
		}
		switch lb.AccessType {
		case models.AccessGlobal:
			return fmt.Errorf("%w: global leaderboards cannot be joined", ErrConflict)
		case models.AccessPrivate:
			return fmt.Errorf("%w: private leaderboards require an invite", ErrForbidden)
		}

		if _, err := q.GetMembership(ctx, id, userID); err == nil {
			return fmt.Errorf("%w: already a member", ErrConflict)
		} else if !errors.Is(err, ErrNotFoundLocal) {
			return err
		}
		if _, err := q.GetUser(ctx, userID); err != nil {
			return err
		}

		if err := s.join(ctx, q, lb, userID); err != nil {
			return err
		}
		membership, err = q.GetMembership(ctx, id, userID)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, id)
	return membership, nil
}

// Invite creates invites for users that are known locally and not yet members.
func (s *leaderboardService) Invite(ctx context.Context, id, ownerID int64, req models.CreateInvitesRequest) ([]models.Invite, error) {
	lb, err := s.store.GetLeaderboard(ctx, id)
	if err != nil {
		return nil, err
	}
	if !isOwner(lb, ownerID) {
		return nil, fmt.Errorf("%w: only the owner can invite", ErrForbidden)
	}

	var invites []models.Invite
	err = s.store.InTx(ctx, func(q Queries) error {
		for _, userID := range req.UserIDs {
			if _, err := q.GetUser(ctx, userID); errors.Is(err, ErrNotFoundLocal) {
				continue
			} else if err != nil {
				return err
			}
			if _, err := q.GetMembership(ctx, id, userID); err == nil {
				continue
			} else if !errors.Is(err, ErrNotFoundLocal) {
				return err
			}

			invite := models.Invite{LeaderboardID: id, UserID: userID, Message: req.Message, InviteDate: s.now()}
			if err := q.CreateInvite(ctx, &invite); err != nil {
				return fmt.Errorf("failed to create invite: %w", err)
			}
			invites = append(invites, invite)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return invites, nil
}

func (s *leaderboardService) ListInvites(ctx context.Context, userID int64) ([]models.InviteView, error) {
	return s.store.ListUserInvites(ctx, userID)
}

// AcceptInvite joins the leaderboard and evaluates the user's stored scores on it.
func (s *leaderboardService) AcceptInvite(ctx context.Context, inviteID, userID int64) (*models.Membership, error) {
	invite, err := s.ownInvite(ctx, inviteID, userID)
	if err != nil {
		return nil, err
	}

	var membership *models.Membership
	err = s.store.InTx(ctx, func(q Queries) error {
		lb, err := q.GetLeaderboard(ctx, invite.LeaderboardID)
		if err != nil {
			return err
		}
		if err := s.join(ctx, q, lb, userID); err != nil {
			return err
		}
		if membership, err = q.GetMembership(ctx, lb.ID, userID); err != nil {
			return err
		}
		return q.DeleteInvite(ctx, invite.ID)
	})
	if err != nil {
		return nil, err
	}

	s.cache.Invalidate(ctx, invite.LeaderboardID)
	return membership, nil
}

func (s *leaderboardService) DeclineInvite(ctx context.Context, inviteID, userID int64) error {
	invite, err := s.ownInvite(ctx, inviteID, userID)
	if err != nil {
		return err
	}
	return s.store.DeleteInvite(ctx, invite.ID)
}

func (s *leaderboardService) ownInvite(ctx context.Context, inviteID, userID int64) (*models.Invite, error) {
	invite, err := s.store.GetInvite(ctx, inviteID)
	if err != nil {
		return nil, err
	}
	// Other users' invites are reported as missing
	if invite.UserID != userID {
		return nil, ErrNotFoundLocal
	}
	return invite, nil
}

func (s *leaderboardService) join(ctx context.Context, q Queries, lb *models.Leaderboard, userID int64) error {
	m := &models.Membership{LeaderboardID: lb.ID, UserID: userID, JoinDate: s.now()}
	if err := q.CreateMemberships(ctx, []*models.Membership{m}); err != nil {
		return fmt.Errorf("failed to join leaderboard: %w", err)
	}
	scores, err := q.ListUserScores(ctx, userID, lb.Gamemode)
	if err != nil {
		return fmt.Errorf("failed to load scores: %w", err)
	}
	_, err = s.membership.RecomputeMembership(ctx, q, lb, userID, scores)
	return err
}

// visible loads a leaderboard, hiding private ones from non-members.
func (s *leaderboardService) visible(ctx context.Context, q Queries, id, viewerID int64) (*models.Leaderboard, error) {
	lb, err := q.GetLeaderboard(ctx, id)
	if err != nil {
		return nil, err
	}
	if lb.AccessType != models.AccessPrivate || isOwner(lb, viewerID) {
		return lb, nil
	}
	if viewerID == 0 {
		return nil, ErrNotFoundLocal
	}
	if _, err := q.GetMembership(ctx, id, viewerID); err != nil {
		return nil, err
	}
	return lb, nil
}

func (s *leaderboardService) detailView(ctx context.Context, q Queries, lb *models.Leaderboard) (*models.LeaderboardDetailView, error) {
	count, err := q.CountMembers(ctx, lb.ID)
	if err != nil {
		return nil, err
	}

	view := &models.LeaderboardDetailView{
		LeaderboardView: models.LeaderboardView{
			ID:              lb.ID,
			Gamemode:        lb.Gamemode,
			AccessType:      lb.AccessType,
			Name:            lb.Name,
			Description:     lb.Description,
			AllowPastScores: lb.AllowPastScores,
			CreationTime:    lb.CreationTime,
			MemberCount:     count,
		},
		ScoreFilter: lb.ScoreFilter,
	}
	if view.ScoreFilter == nil {
		view.ScoreFilter = &models.ScoreFilter{}
	}
	if lb.OwnerID != nil {
		owner, err := q.GetUser(ctx, *lb.OwnerID)
		if err != nil {
			return nil, err
		}
		sum := summary(owner)
		view.Owner = &sum
	}
	return view, nil
}

func isOwner(lb *models.Leaderboard, userID int64) bool {
	return lb.AccessType != models.AccessGlobal && lb.OwnerID != nil && userID != 0 && *lb.OwnerID == userID
}

func summary(u *models.OsuUser) models.UserSummary {
	return models.UserSummary{ID: u.ID, Username: u.Username, Country: u.Country}
}
