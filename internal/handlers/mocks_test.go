package handlers

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/logic"
	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

type MockHistoryQueue struct{ depth int }

func (m *MockHistoryQueue) QueueDepth() int { return m.depth }

type MockDatabase struct {
	PingErr error
	ExecErr error
	execs   []string
}

func (m *MockDatabase) Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error) {
	m.execs = append(m.execs, sql)
	return pgconn.CommandTag{}, m.ExecErr
}

func (m *MockDatabase) Ping(ctx context.Context) error { return m.PingErr }

type MockClickHouseConn struct {
	driver.Conn
	PingErr error
	execs   []string
}

func (m *MockClickHouseConn) Ping(ctx context.Context) error { return m.PingErr }

func (m *MockClickHouseConn) Exec(ctx context.Context, query string, args ...interface{}) error {
	m.execs = append(m.execs, query)
	return nil
}

type MockRedis struct{ PingErr error }

func (m *MockRedis) Ping(ctx context.Context) *redis.StatusCmd {
	if m.PingErr != nil {
		return redis.NewStatusResult("", m.PingErr)
	}
	return redis.NewStatusResult("PONG", nil)
}

// MockSessions accepts tokens of the form "user-<id>".
type MockSessions struct{}

func (MockSessions) Parse(token string) (int64, error) {
	switch token {
	case "user-1":
		return 1, nil
	case "user-2":
		return 2, nil
	}
	return 0, errors.New("bad token")
}

type MockRefresh struct {
	mu sync.Mutex

	FetchUserErr   error
	FetchScoresErr error
	lookups        []models.UserLookup
	modes          []osu.Gamemode
	beatmapIDs     []int64
}

func (m *MockRefresh) FetchUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lookups = append(m.lookups, lookup)
	m.modes = append(m.modes, mode)
	if m.FetchUserErr != nil {
		return nil, m.FetchUserErr
	}
	id := lookup.UserID
	if id == 0 {
		id = 124493
	}
	return &models.UserStats{UserID: id, Gamemode: mode, PP: 1000}, nil
}

func (m *MockRefresh) FetchScores(ctx context.Context, userID int64, beatmapIDs []int64, mode osu.Gamemode) ([]*models.Score, error) {
	m.beatmapIDs = beatmapIDs
	if m.FetchScoresErr != nil {
		return nil, m.FetchScoresErr
	}
	return []*models.Score{{ID: 1, UserID: userID, BeatmapID: beatmapIDs[0], Gamemode: mode}}, nil
}

func (m *MockRefresh) DisableUser(ctx context.Context, userID int64) error { return nil }

func (m *MockRefresh) GetUserProfile(ctx context.Context, userID int64, mode osu.Gamemode) (*models.UserStatsView, error) {
	return &models.UserStatsView{
		User:  models.OsuUser{ID: userID, Username: "cookiezi"},
		Stats: models.UserStats{UserID: userID, Gamemode: mode, PP: 1000},
	}, nil
}

func (m *MockRefresh) ListScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error) {
	return nil, nil
}

type MockLeaderboards struct {
	Err error

	viewerID      int64
	mode          *osu.Gamemode
	limit, offset int
	created       *models.CreateLeaderboardRequest
}

func (m *MockLeaderboards) List(ctx context.Context, mode *osu.Gamemode, viewerID int64) ([]models.LeaderboardView, error) {
	m.mode, m.viewerID = mode, viewerID
	return []models.LeaderboardView{{ID: 1, Name: "global osu"}}, m.Err
}

func (m *MockLeaderboards) Get(ctx context.Context, id, viewerID int64) (*models.LeaderboardDetailView, error) {
	m.viewerID = viewerID
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.LeaderboardDetailView{LeaderboardView: models.LeaderboardView{ID: id}}, nil
}

func (m *MockLeaderboards) Create(ctx context.Context, ownerID int64, req models.CreateLeaderboardRequest) (*models.LeaderboardDetailView, error) {
	m.viewerID = ownerID
	m.created = &req
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.LeaderboardDetailView{LeaderboardView: models.LeaderboardView{ID: 9, Name: req.Name}}, nil
}

func (m *MockLeaderboards) Delete(ctx context.Context, id, userID int64) error {
	m.viewerID = userID
	return m.Err
}

func (m *MockLeaderboards) Members(ctx context.Context, id, viewerID int64, limit, offset int) ([]models.MembershipView, error) {
	m.viewerID, m.limit, m.offset = viewerID, limit, offset
	return nil, m.Err
}

func (m *MockLeaderboards) Member(ctx context.Context, id, userID, viewerID int64) (*models.MembershipDetailView, error) {
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.MembershipDetailView{MembershipView: models.MembershipView{User: models.UserSummary{ID: userID}}}, nil
}

func (m *MockLeaderboards) Join(ctx context.Context, id, userID int64) (*models.Membership, error) {
	m.viewerID = userID
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Membership{ID: 4, LeaderboardID: id, UserID: userID}, nil
}

func (m *MockLeaderboards) Invite(ctx context.Context, id, ownerID int64, req models.CreateInvitesRequest) ([]models.Invite, error) {
	m.viewerID = ownerID
	return nil, m.Err
}

func (m *MockLeaderboards) ListInvites(ctx context.Context, userID int64) ([]models.InviteView, error) {
	m.viewerID = userID
	return nil, m.Err
}

func (m *MockLeaderboards) AcceptInvite(ctx context.Context, inviteID, userID int64) (*models.Membership, error) {
	m.viewerID = userID
	if m.Err != nil {
		return nil, m.Err
	}
	return &models.Membership{ID: 3, UserID: userID, PP: 250}, nil
}

func (m *MockLeaderboards) DeclineInvite(ctx context.Context, inviteID, userID int64) error {
	m.viewerID = userID
	return m.Err
}

type MockStatsHistory struct {
	since time.Time
}

func (m *MockStatsHistory) GetHistory(ctx context.Context, userID int64, mode osu.Gamemode, since time.Time) ([]models.StatsSnapshot, error) {
	m.since = since
	return []models.StatsSnapshot{{UserID: userID, Gamemode: mode, PP: 1000}}, nil
}

var (
	_ logic.RefreshService     = (*MockRefresh)(nil)
	_ logic.LeaderboardService = (*MockLeaderboards)(nil)
	_ logic.HistoryService     = (*MockStatsHistory)(nil)
)

type testEnv struct {
	refresh      *MockRefresh
	leaderboards *MockLeaderboards
	history      *MockStatsHistory
	pg           *MockDatabase
	ch           *MockClickHouseConn
	redis        *MockRedis
	handler      *Handler
	router       http.Handler
}

func newTestEnv() *testEnv {
	env := &testEnv{
		refresh:      &MockRefresh{},
		leaderboards: &MockLeaderboards{},
		history:      &MockStatsHistory{},
		pg:           &MockDatabase{},
		ch:           &MockClickHouseConn{},
		redis:        &MockRedis{},
	}
	env.handler = New(Config{
		History:      &MockHistoryQueue{depth: 3},
		Postgres:     env.pg,
		ClickHouse:   env.ch,
		Redis:        env.redis,
		Sessions:     MockSessions{},
		Logger:       zap.NewNop(),
		Refresh:      env.refresh,
		Leaderboards: env.leaderboards,
		StatsHistory: env.history,
	})
	env.router = env.handler.Router(RouterOptions{AllowedOrigins: []string{"http://localhost:3000"}})
	return env
}

// do sends a request through the router, with a session when token is set.
func (e *testEnv) do(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}
