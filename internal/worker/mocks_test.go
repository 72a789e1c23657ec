package worker

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// MockClickHouseConn implements driver.Conn for testing and records sent rows.
type MockClickHouseConn struct {
	driver.Conn

	mu       sync.Mutex
	sent     [][]interface{}
	batches  int
	SendErr  error
	SendTime time.Duration
}

func (m *MockClickHouseConn) PrepareBatch(ctx context.Context, query string, opts ...driver.PrepareBatchOption) (driver.Batch, error) {
	return &MockBatch{conn: m}, nil
}

func (m *MockClickHouseConn) rows() [][]interface{} {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]interface{}(nil), m.sent...)
}

func (m *MockClickHouseConn) batchCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.batches
}

type MockBatch struct {
	driver.Batch
	conn    *MockClickHouseConn
	pending [][]interface{}
	sent    bool
}

func (m *MockBatch) IsSent() bool {
	return m.sent
}

func (m *MockBatch) Rows() int {
	return len(m.pending)
}

func (m *MockBatch) Append(v ...interface{}) error {
	if len(v) != 9 {
		return errors.New("unexpected column count")
	}
	m.pending = append(m.pending, v)
	return nil
}

func (m *MockBatch) Send() error {
	if m.conn.SendTime > 0 {
		time.Sleep(m.conn.SendTime)
	}
	if m.conn.SendErr != nil {
		return m.conn.SendErr
	}
	m.conn.mu.Lock()
	defer m.conn.mu.Unlock()
	m.conn.sent = append(m.conn.sent, m.pending...)
	m.conn.batches++
	m.sent = true
	return nil
}

func (m *MockBatch) Abort() error {
	m.pending = nil
	return nil
}

// MockRefresher implements logic.RefreshService for scheduler tests.
type MockRefresher struct {
	mu       sync.Mutex
	errs     map[int64]error
	fetched  []int64
	disabled []int64
}

func (m *MockRefresher) FetchUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fetched = append(m.fetched, lookup.UserID)
	if err := m.errs[lookup.UserID]; err != nil {
		return nil, err
	}
	return &models.UserStats{UserID: lookup.UserID, Gamemode: mode}, nil
}

func (m *MockRefresher) FetchScores(ctx context.Context, userID int64, beatmapIDs []int64, mode osu.Gamemode) ([]*models.Score, error) {
	return nil, nil
}

func (m *MockRefresher) DisableUser(ctx context.Context, userID int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.disabled = append(m.disabled, userID)
	return nil
}

func (m *MockRefresher) GetUserProfile(ctx context.Context, userID int64, mode osu.Gamemode) (*models.UserStatsView, error) {
	return nil, nil
}

func (m *MockRefresher) ListScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error) {
	return nil, nil
}

// MockStaleUsers implements StaleUserLister.
type MockStaleUsers struct {
	ids    []int64
	err    error
	before time.Time
	limit  int
}

func (m *MockStaleUsers) ListStaleUsers(ctx context.Context, mode osu.Gamemode, before time.Time, limit int) ([]int64, error) {
	m.before = before
	m.limit = limit
	if m.err != nil {
		return nil, m.err
	}
	if len(m.ids) > limit {
		return m.ids[:limit], nil
	}
	return m.ids, nil
}
