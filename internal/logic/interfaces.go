package logic

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// PgPool defines the interface for PostgreSQL connection pool
type PgPool interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// RedisClient defines the interface for Redis client
type RedisClient interface {
	HGet(ctx context.Context, key string, field string) *redis.StringCmd
	HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd
	SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd
	Del(ctx context.Context, keys ...string) *redis.IntCmd
	Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd
}

// Queries is the persistence boundary. Lookups of missing rows return ErrNotFoundLocal.
type Queries interface {
	GetUser(ctx context.Context, userID int64) (*models.OsuUser, error)
	// UpsertUser saves the profile and reports whether the row was created.
	UpsertUser(ctx context.Context, user *models.OsuUser) (bool, error)
	SetUserDisabled(ctx context.Context, userID int64, disabled bool) error

	GetUserStats(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error)
	// LockUserStats reads the stats row with SELECT ... FOR UPDATE.
	LockUserStats(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error)
	SaveUserStats(ctx context.Context, stats *models.UserStats) error
	ListStaleUsers(ctx context.Context, mode osu.Gamemode, before time.Time, limit int) ([]int64, error)

	GetBeatmaps(ctx context.Context, ids []int64) (map[int64]*models.Beatmap, error)
	SaveBeatmap(ctx context.Context, beatmap *models.Beatmap) error

	// ListUserScores returns every stored score of the user in mode, beatmaps attached.
	ListUserScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error)
	InsertScore(ctx context.Context, score *models.Score) error
	UpdateScore(ctx context.Context, score *models.Score) error

	GetLeaderboard(ctx context.Context, id int64) (*models.Leaderboard, error)
	ListGlobalLeaderboards(ctx context.Context) ([]*models.Leaderboard, error)
	// ListMemberLeaderboards returns the leaderboards of mode that userID belongs to.
	ListMemberLeaderboards(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Leaderboard, error)
	ListVisibleLeaderboards(ctx context.Context, mode *osu.Gamemode, viewerID int64) ([]models.LeaderboardView, error)
	CreateLeaderboard(ctx context.Context, lb *models.Leaderboard) error
	DeleteLeaderboard(ctx context.Context, id int64) error
	CountMembers(ctx context.Context, leaderboardID int64) (int, error)

	// CreateMemberships bulk inserts, skipping pairs that already exist.
	CreateMemberships(ctx context.Context, memberships []*models.Membership) error
	GetMembership(ctx context.Context, leaderboardID, userID int64) (*models.Membership, error)
	// LockMembership reads the membership row with SELECT ... FOR UPDATE.
	LockMembership(ctx context.Context, leaderboardID, userID int64) (*models.Membership, error)
	// SaveMembership updates pp and replaces the qualifying score set.
	SaveMembership(ctx context.Context, membership *models.Membership) error
	ListMembers(ctx context.Context, leaderboardID int64, limit, offset int) ([]models.MembershipView, error)
	ListMembershipScores(ctx context.Context, membershipID int64) ([]models.Score, error)

	CreateInvite(ctx context.Context, invite *models.Invite) error
	GetInvite(ctx context.Context, id int64) (*models.Invite, error)
	ListUserInvites(ctx context.Context, userID int64) ([]models.InviteView, error)
	DeleteInvite(ctx context.Context, id int64) error
}

// Store runs Queries inside a transaction. fn's error rolls the transaction back.
type Store interface {
	Queries
	InTx(ctx context.Context, fn func(q Queries) error) error
}

// DataSource is the osu! API. Missing accounts and beatmaps are reported with
// osuapi.ErrNotFound.
type DataSource interface {
	GetUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserData, error)
	GetUserBest(ctx context.Context, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error)
	GetUserRecent(ctx context.Context, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error)
	GetScores(ctx context.Context, beatmapID, userID int64, mode osu.Gamemode) ([]models.ScoreData, error)
	GetBeatmap(ctx context.Context, beatmapID int64) (*models.BeatmapData, error)
}

// PPCalculator computes performance points for plays the API reports without them.
type PPCalculator interface {
	Calculate(score *models.Score, beatmap *models.Beatmap) (float64, error)
}

// SnapshotQueue receives stats snapshots after every committed refresh.
type SnapshotQueue interface {
	Enqueue(snapshot models.StatsSnapshot) bool
}

// Locker provides a lock shared between API instances.
type Locker interface {
	// Acquire blocks until the lock is held or ctx is done. The returned func releases it.
	Acquire(ctx context.Context, key string) (func(), error)
}

type IngestionService interface {
	AddScoresFromData(ctx context.Context, q Queries, stats *models.UserStats, records []models.ScoreData) ([]*models.Score, error)
	// CanComputePP reports whether records without pp can be kept in mode.
	CanComputePP(mode osu.Gamemode) bool
}

type MembershipService interface {
	RecomputeMembership(ctx context.Context, q Queries, lb *models.Leaderboard, userID int64, candidates []*models.Score) (*models.Membership, error)
	RecomputeUserMemberships(ctx context.Context, q Queries, userID int64, mode osu.Gamemode, candidates []*models.Score) ([]*models.Membership, error)
}

type RefreshService interface {
	FetchUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error)
	FetchScores(ctx context.Context, userID int64, beatmapIDs []int64, mode osu.Gamemode) ([]*models.Score, error)
	DisableUser(ctx context.Context, userID int64) error
	GetUserProfile(ctx context.Context, userID int64, mode osu.Gamemode) (*models.UserStatsView, error)
	ListScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error)
}

type LeaderboardService interface {
	List(ctx context.Context, mode *osu.Gamemode, viewerID int64) ([]models.LeaderboardView, error)
	Get(ctx context.Context, id, viewerID int64) (*models.LeaderboardDetailView, error)
	Create(ctx context.Context, ownerID int64, req models.CreateLeaderboardRequest) (*models.LeaderboardDetailView, error)
	Delete(ctx context.Context, id, userID int64) error
	Members(ctx context.Context, id, viewerID int64, limit, offset int) ([]models.MembershipView, error)
	Member(ctx context.Context, id, userID, viewerID int64) (*models.MembershipDetailView, error)
	Join(ctx context.Context, id, userID int64) (*models.Membership, error)
	Invite(ctx context.Context, id, ownerID int64, req models.CreateInvitesRequest) ([]models.Invite, error)
	ListInvites(ctx context.Context, userID int64) ([]models.InviteView, error)
	AcceptInvite(ctx context.Context, inviteID, userID int64) (*models.Membership, error)
	DeclineInvite(ctx context.Context, inviteID, userID int64) error
}

// MemberCache drops cached rankings after memberships change.
type MemberCache interface {
	Invalidate(ctx context.Context, leaderboardIDs ...int64)
}

type HistoryService interface {
	GetHistory(ctx context.Context, userID int64, mode osu.Gamemode, since time.Time) ([]models.StatsSnapshot, error)
}
