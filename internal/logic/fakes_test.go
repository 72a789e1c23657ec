package logic

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
	"github.com/osuchan/stats-api/internal/osuapi"
)

// =============================================================================
// IN-MEMORY STORE
// =============================================================================

type statsKey struct {
	userID int64
	mode   osu.Gamemode
}

type memberKey struct {
	leaderboardID int64
	userID        int64
}

type memState struct {
	users        map[int64]models.OsuUser
	stats        map[statsKey]models.UserStats
	beatmaps     map[int64]models.Beatmap
	scores       map[int64]models.Score
	leaderboards map[int64]models.Leaderboard
	memberships  map[memberKey]models.Membership
	invites      map[int64]models.Invite
	nextID       int64
}

func newMemState() *memState {
	return &memState{
		users:        map[int64]models.OsuUser{},
		stats:        map[statsKey]models.UserStats{},
		beatmaps:     map[int64]models.Beatmap{},
		scores:       map[int64]models.Score{},
		leaderboards: map[int64]models.Leaderboard{},
		memberships:  map[memberKey]models.Membership{},
		invites:      map[int64]models.Invite{},
	}
}

func (st *memState) clone() *memState {
	c := newMemState()
	for k, v := range st.users {
		c.users[k] = v
	}
	for k, v := range st.stats {
		c.stats[k] = v
	}
	for k, v := range st.beatmaps {
		c.beatmaps[k] = v
	}
	for k, v := range st.scores {
		c.scores[k] = v
	}
	for k, v := range st.leaderboards {
		c.leaderboards[k] = v
	}
	for k, v := range st.memberships {
		v.ScoreIDs = append([]int64(nil), v.ScoreIDs...)
		c.memberships[k] = v
	}
	for k, v := range st.invites {
		c.invites[k] = v
	}
	c.nextID = st.nextID
	return c
}

// memStore is a Store whose transactions are serialised and rolled back on error.
type memStore struct {
	txMu sync.Mutex
	mu   sync.Mutex
	st   *memState

	scoreWrites int
}

func newMemStore() *memStore {
	return &memStore{st: newMemState()}
}

func (m *memStore) InTx(ctx context.Context, fn func(q Queries) error) error {
	m.txMu.Lock()
	defer m.txMu.Unlock()

	m.mu.Lock()
	snapshot := m.st.clone()
	m.mu.Unlock()

	if err := fn(m); err != nil {
		m.mu.Lock()
		m.st = snapshot
		m.mu.Unlock()
		return err
	}
	return nil
}

func (m *memStore) id() int64 {
	m.st.nextID++
	return m.st.nextID
}

func (m *memStore) GetUser(ctx context.Context, userID int64) (*models.OsuUser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[userID]
	if !ok {
		return nil, ErrNotFoundLocal
	}
	return &u, nil
}

func (m *memStore) UpsertUser(ctx context.Context, user *models.OsuUser) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, exists := m.st.users[user.ID]
	u := *user
	u.Disabled = false
	m.st.users[user.ID] = u
	return !exists, nil
}

func (m *memStore) SetUserDisabled(ctx context.Context, userID int64, disabled bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.st.users[userID]
	if !ok {
		return ErrNotFoundLocal
	}
	u.Disabled = disabled
	m.st.users[userID] = u
	return nil
}

func (m *memStore) resolveUserID(lookup models.UserLookup) (int64, bool) {
	if lookup.UserID > 0 {
		return lookup.UserID, true
	}
	for id, u := range m.st.users {
		if strings.EqualFold(u.Username, lookup.Username) {
			return id, true
		}
	}
	return 0, false
}

func (m *memStore) GetUserStats(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.resolveUserID(lookup)
	if !ok {
		return nil, ErrNotFoundLocal
	}
	s, ok := m.st.stats[statsKey{id, mode}]
	if !ok {
		return nil, ErrNotFoundLocal
	}
	return &s, nil
}

func (m *memStore) LockUserStats(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	return m.GetUserStats(ctx, lookup, mode)
}

func (m *memStore) SaveUserStats(ctx context.Context, stats *models.UserStats) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.users[stats.UserID]; !ok {
		return fmt.Errorf("stats for unknown user %d", stats.UserID)
	}
	m.st.stats[statsKey{stats.UserID, stats.Gamemode}] = *stats
	return nil
}

func (m *memStore) ListStaleUsers(ctx context.Context, mode osu.Gamemode, before time.Time, limit int) ([]int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var stale []models.UserStats
	for k, s := range m.st.stats {
		if k.mode == mode && s.LastUpdated.Before(before) && !m.st.users[k.userID].Disabled {
			stale = append(stale, s)
		}
	}
	sort.Slice(stale, func(i, j int) bool { return stale[i].LastUpdated.Before(stale[j].LastUpdated) })
	var ids []int64
	for i, s := range stale {
		if i == limit {
			break
		}
		ids = append(ids, s.UserID)
	}
	return ids, nil
}

func (m *memStore) GetBeatmaps(ctx context.Context, ids []int64) (map[int64]*models.Beatmap, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make(map[int64]*models.Beatmap)
	for _, id := range ids {
		if b, ok := m.st.beatmaps[id]; ok {
			out[id] = &b
		}
	}
	return out, nil
}

func (m *memStore) SaveBeatmap(ctx context.Context, beatmap *models.Beatmap) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.st.beatmaps[beatmap.ID] = *beatmap
	return nil
}

func (m *memStore) ListUserScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Score
	for _, s := range m.st.scores {
		if s.UserID != userID || s.Gamemode != mode {
			continue
		}
		s := s
		if b, ok := m.st.beatmaps[s.BeatmapID]; ok {
			s.Beatmap = &b
		}
		out = append(out, &s)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) InsertScore(ctx context.Context, score *models.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, s := range m.st.scores {
		if s.UserID == score.UserID && s.Gamemode == score.Gamemode && s.Key() == score.Key() {
			return fmt.Errorf("duplicate score for %+v", score.Key())
		}
	}
	score.ID = m.id()
	stored := *score
	stored.Beatmap = nil
	m.st.scores[score.ID] = stored
	m.scoreWrites++
	return nil
}

func (m *memStore) UpdateScore(ctx context.Context, score *models.Score) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.scores[score.ID]; !ok {
		return ErrNotFoundLocal
	}
	stored := *score
	stored.Beatmap = nil
	m.st.scores[score.ID] = stored
	m.scoreWrites++
	return nil
}

func (m *memStore) GetLeaderboard(ctx context.Context, id int64) (*models.Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb, ok := m.st.leaderboards[id]
	if !ok {
		return nil, ErrNotFoundLocal
	}
	return &lb, nil
}

func (m *memStore) sortedLeaderboards() []models.Leaderboard {
	out := make([]models.Leaderboard, 0, len(m.st.leaderboards))
	for _, lb := range m.st.leaderboards {
		out = append(out, lb)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (m *memStore) ListGlobalLeaderboards(ctx context.Context) ([]*models.Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Leaderboard
	for _, lb := range m.sortedLeaderboards() {
		if lb.AccessType == models.AccessGlobal {
			lb := lb
			out = append(out, &lb)
		}
	}
	return out, nil
}

func (m *memStore) ListMemberLeaderboards(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Leaderboard, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []*models.Leaderboard
	for _, lb := range m.sortedLeaderboards() {
		if _, ok := m.st.memberships[memberKey{lb.ID, userID}]; ok && lb.Gamemode == mode {
			lb := lb
			out = append(out, &lb)
		}
	}
	return out, nil
}

func (m *memStore) countMembers(id int64) int {
	n := 0
	for k := range m.st.memberships {
		if k.leaderboardID == id {
			n++
		}
	}
	return n
}

func (m *memStore) ListVisibleLeaderboards(ctx context.Context, mode *osu.Gamemode, viewerID int64) ([]models.LeaderboardView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.LeaderboardView
	for _, lb := range m.sortedLeaderboards() {
		if mode != nil && lb.Gamemode != *mode {
			continue
		}
		if lb.AccessType == models.AccessPrivate {
			_, member := m.st.memberships[memberKey{lb.ID, viewerID}]
			if !member && (lb.OwnerID == nil || *lb.OwnerID != viewerID) {
				continue
			}
		}
		view := models.LeaderboardView{
			ID:           lb.ID,
			Gamemode:     lb.Gamemode,
			AccessType:   lb.AccessType,
			Name:         lb.Name,
			CreationTime: lb.CreationTime,
			MemberCount:  m.countMembers(lb.ID),
		}
		if lb.OwnerID != nil {
			u := m.st.users[*lb.OwnerID]
			view.Owner = &models.UserSummary{ID: u.ID, Username: u.Username, Country: u.Country}
		}
		out = append(out, view)
	}
	return out, nil
}

func (m *memStore) CreateLeaderboard(ctx context.Context, lb *models.Leaderboard) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	lb.ID = m.id()
	m.st.leaderboards[lb.ID] = *lb
	return nil
}

func (m *memStore) DeleteLeaderboard(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.leaderboards[id]; !ok {
		return ErrNotFoundLocal
	}
	delete(m.st.leaderboards, id)
	for k := range m.st.memberships {
		if k.leaderboardID == id {
			delete(m.st.memberships, k)
		}
	}
	return nil
}

func (m *memStore) CountMembers(ctx context.Context, leaderboardID int64) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.countMembers(leaderboardID), nil
}

func (m *memStore) CreateMemberships(ctx context.Context, memberships []*models.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range memberships {
		k := memberKey{ms.LeaderboardID, ms.UserID}
		if _, ok := m.st.memberships[k]; ok {
			continue
		}
		ms.ID = m.id()
		m.st.memberships[k] = *ms
	}
	return nil
}

func (m *memStore) GetMembership(ctx context.Context, leaderboardID, userID int64) (*models.Membership, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ms, ok := m.st.memberships[memberKey{leaderboardID, userID}]
	if !ok {
		return nil, ErrNotFoundLocal
	}
	ms.ScoreIDs = append([]int64(nil), ms.ScoreIDs...)
	return &ms, nil
}

func (m *memStore) LockMembership(ctx context.Context, leaderboardID, userID int64) (*models.Membership, error) {
	return m.GetMembership(ctx, leaderboardID, userID)
}

func (m *memStore) SaveMembership(ctx context.Context, membership *models.Membership) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	k := memberKey{membership.LeaderboardID, membership.UserID}
	if _, ok := m.st.memberships[k]; !ok {
		return ErrNotFoundLocal
	}
	ms := *membership
	ms.ScoreIDs = append([]int64(nil), membership.ScoreIDs...)
	m.st.memberships[k] = ms
	return nil
}

func (m *memStore) ListMembers(ctx context.Context, leaderboardID int64, limit, offset int) ([]models.MembershipView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var members []models.Membership
	for k, ms := range m.st.memberships {
		if k.leaderboardID == leaderboardID {
			members = append(members, ms)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].PP != members[j].PP {
			return members[i].PP > members[j].PP
		}
		return members[i].UserID < members[j].UserID
	})

	var out []models.MembershipView
	for i := offset; i < len(members) && i < offset+limit; i++ {
		ms := members[i]
		u := m.st.users[ms.UserID]
		out = append(out, models.MembershipView{
			User:       models.UserSummary{ID: u.ID, Username: u.Username, Country: u.Country},
			PP:         ms.PP,
			ScoreCount: len(ms.ScoreIDs),
			JoinDate:   ms.JoinDate,
		})
	}
	return out, nil
}

func (m *memStore) ListMembershipScores(ctx context.Context, membershipID int64) ([]models.Score, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, ms := range m.st.memberships {
		if ms.ID != membershipID {
			continue
		}
		out := make([]models.Score, 0, len(ms.ScoreIDs))
		for _, id := range ms.ScoreIDs {
			out = append(out, m.st.scores[id])
		}
		return out, nil
	}
	return nil, ErrNotFoundLocal
}

func (m *memStore) CreateInvite(ctx context.Context, invite *models.Invite) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, inv := range m.st.invites {
		if inv.LeaderboardID == invite.LeaderboardID && inv.UserID == invite.UserID {
			invite.ID = id
			m.st.invites[id] = *invite
			return nil
		}
	}
	invite.ID = m.id()
	m.st.invites[invite.ID] = *invite
	return nil
}

func (m *memStore) GetInvite(ctx context.Context, id int64) (*models.Invite, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	inv, ok := m.st.invites[id]
	if !ok {
		return nil, ErrNotFoundLocal
	}
	return &inv, nil
}

func (m *memStore) ListUserInvites(ctx context.Context, userID int64) ([]models.InviteView, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []models.InviteView
	for _, inv := range m.st.invites {
		if inv.UserID != userID {
			continue
		}
		lb := m.st.leaderboards[inv.LeaderboardID]
		out = append(out, models.InviteView{
			ID:          inv.ID,
			Leaderboard: models.LeaderboardRef{ID: lb.ID, Name: lb.Name, Gamemode: lb.Gamemode},
			Message:     inv.Message,
			InviteDate:  inv.InviteDate,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (m *memStore) DeleteInvite(ctx context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.st.invites[id]; !ok {
		return ErrNotFoundLocal
	}
	delete(m.st.invites, id)
	return nil
}

// =============================================================================
// FAKE DATA SOURCE
// =============================================================================

type fakeSource struct {
	mu sync.Mutex

	users    map[int64]models.UserData
	best     map[int64][]models.ScoreData
	recent   map[int64][]models.ScoreData
	scores   map[int64][]models.ScoreData // by beatmap id
	beatmaps map[int64]models.BeatmapData

	userErr      error
	bestErr      error
	delay        time.Duration
	beatmapDelay time.Duration
	// Blocks GetUser until closed when set
	userGate chan struct{}

	beatmapsInFlight    int
	maxBeatmapsInFlight int

	getUser    int
	getBest    int
	getRecent  int
	getScores  int
	getBeatmap int
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		users:    map[int64]models.UserData{},
		best:     map[int64][]models.ScoreData{},
		recent:   map[int64][]models.ScoreData{},
		scores:   map[int64][]models.ScoreData{},
		beatmaps: map[int64]models.BeatmapData{},
	}
}

func (f *fakeSource) calls() (user, best, recent int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.getUser, f.getBest, f.getRecent
}

func (f *fakeSource) GetUser(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserData, error) {
	f.mu.Lock()
	f.getUser++
	delay, err, gate := f.delay, f.userErr, f.userGate
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if err != nil {
		return nil, err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	for id, u := range f.users {
		if id == lookup.UserID || (lookup.UserID == 0 && strings.EqualFold(u.Username, lookup.Username)) {
			return &u, nil
		}
	}
	return nil, fmt.Errorf("user %s: %w", lookup.Key(), osuapi.ErrNotFound)
}

func (f *fakeSource) GetUserBest(ctx context.Context, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getBest++
	if f.bestErr != nil {
		return nil, f.bestErr
	}
	return append([]models.ScoreData(nil), f.best[userID]...), nil
}

func (f *fakeSource) GetUserRecent(ctx context.Context, userID int64, mode osu.Gamemode, limit int) ([]models.ScoreData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getRecent++
	return append([]models.ScoreData(nil), f.recent[userID]...), nil
}

func (f *fakeSource) GetScores(ctx context.Context, beatmapID, userID int64, mode osu.Gamemode) ([]models.ScoreData, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getScores++
	return append([]models.ScoreData(nil), f.scores[beatmapID]...), nil
}

func (f *fakeSource) GetBeatmap(ctx context.Context, beatmapID int64) (*models.BeatmapData, error) {
	f.mu.Lock()
	f.getBeatmap++
	f.beatmapsInFlight++
	f.maxBeatmapsInFlight = max(f.maxBeatmapsInFlight, f.beatmapsInFlight)
	delay := f.beatmapDelay
	f.mu.Unlock()

	if delay > 0 {
		time.Sleep(delay)
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.beatmapsInFlight--
	b, ok := f.beatmaps[beatmapID]
	if !ok {
		return nil, fmt.Errorf("beatmap %d: %w", beatmapID, osuapi.ErrNotFound)
	}
	return &b, nil
}

// =============================================================================
// FAKE LOCKER / QUEUE / REDIS
// =============================================================================

type fakeLocker struct {
	mu    sync.Mutex
	locks map[string]*sync.Mutex
}

func (l *fakeLocker) Acquire(ctx context.Context, key string) (func(), error) {
	l.mu.Lock()
	if l.locks == nil {
		l.locks = map[string]*sync.Mutex{}
	}
	m, ok := l.locks[key]
	if !ok {
		m = &sync.Mutex{}
		l.locks[key] = m
	}
	l.mu.Unlock()

	m.Lock()
	return m.Unlock, nil
}

type fakeQueue struct {
	mu        sync.Mutex
	snapshots []models.StatsSnapshot
}

func (q *fakeQueue) Enqueue(s models.StatsSnapshot) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.snapshots = append(q.snapshots, s)
	return true
}

// fakeRedis implements RedisClient over maps. Plain keys honour their TTL.
type fakeRedis struct {
	mu         sync.Mutex
	hashes     map[string]map[string]string
	keys       map[string]string
	expires    map[string]time.Time
	evals      int
	renewals   int
	setNXFails int
}

func newFakeRedis() *fakeRedis {
	return &fakeRedis{
		hashes:  map[string]map[string]string{},
		keys:    map[string]string{},
		expires: map[string]time.Time{},
	}
}

// expire drops key when its TTL has passed. Callers hold r.mu.
func (r *fakeRedis) expire(key string) {
	if at, ok := r.expires[key]; ok && !time.Now().Before(at) {
		delete(r.keys, key)
		delete(r.expires, key)
	}
}

func (r *fakeRedis) held(key string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.expire(key)
	v, ok := r.keys[key]
	return v, ok
}

func (r *fakeRedis) HGet(ctx context.Context, key string, field string) *redis.StringCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if v, ok := r.hashes[key][field]; ok {
		return redis.NewStringResult(v, nil)
	}
	return redis.NewStringResult("", redis.Nil)
}

func (r *fakeRedis) HSet(ctx context.Context, key string, values ...interface{}) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.hashes[key] == nil {
		r.hashes[key] = map[string]string{}
	}
	for i := 0; i+1 < len(values); i += 2 {
		var v string
		switch val := values[i+1].(type) {
		case []byte:
			v = string(val)
		default:
			v = fmt.Sprint(val)
		}
		r.hashes[key][fmt.Sprint(values[i])] = v
	}
	return redis.NewIntResult(int64(len(values)/2), nil)
}

func (r *fakeRedis) Expire(ctx context.Context, key string, expiration time.Duration) *redis.BoolCmd {
	return redis.NewBoolResult(true, nil)
}

func (r *fakeRedis) SetNX(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.BoolCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.setNXFails > 0 {
		r.setNXFails--
		return redis.NewBoolResult(false, nil)
	}
	r.expire(key)
	if _, ok := r.keys[key]; ok {
		return redis.NewBoolResult(false, nil)
	}
	r.keys[key] = fmt.Sprint(value)
	if expiration > 0 {
		r.expires[key] = time.Now().Add(expiration)
	}
	return redis.NewBoolResult(true, nil)
}

func (r *fakeRedis) Del(ctx context.Context, keys ...string) *redis.IntCmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	var n int64
	for _, k := range keys {
		if _, ok := r.hashes[k]; ok {
			delete(r.hashes, k)
			n++
		}
		if _, ok := r.keys[k]; ok {
			delete(r.keys, k)
			n++
		}
	}
	return redis.NewIntResult(n, nil)
}

// Eval only understands the lock renew and release scripts.
func (r *fakeRedis) Eval(ctx context.Context, script string, keys []string, args ...interface{}) *redis.Cmd {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(keys) != 1 || len(args) == 0 {
		return redis.NewCmdResult(int64(0), nil)
	}
	k := keys[0]
	r.expire(k)
	owned := r.keys[k] == fmt.Sprint(args[0])

	if script == renewScript {
		r.renewals++
		if !owned {
			return redis.NewCmdResult(int64(0), nil)
		}
		r.expires[k] = time.Now().Add(time.Duration(args[1].(int64)) * time.Millisecond)
		return redis.NewCmdResult(int64(1), nil)
	}

	r.evals++
	if owned {
		delete(r.keys, k)
		delete(r.expires, k)
		return redis.NewCmdResult(int64(1), nil)
	}
	return redis.NewCmdResult(int64(0), nil)
}

// =============================================================================
// FIXTURES
// =============================================================================

func ptr[T any](v T) *T {
	return &v
}

var baseTime = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func rankedBeatmap(id int64) models.Beatmap {
	approved := baseTime.AddDate(-1, 0, 0)
	return models.Beatmap{
		ID:             id,
		SetID:          id * 10,
		Gamemode:       osu.GamemodeStandard,
		Status:         osu.BeatmapRanked,
		SubmissionDate: baseTime.AddDate(-2, 0, 0),
		ApprovalDate:   &approved,
		BPM:            180,
		DrainTime:      120,
		TotalLength:    150,
		CS:             4,
		AR:             9,
		OD:             8,
		HP:             6,
	}
}

func beatmapData(id int64) models.BeatmapData {
	return models.BeatmapData{
		BeatmapID:    id,
		BeatmapsetID: id * 10,
		Approved:     osu.BeatmapRanked,
		TotalLength:  150,
		HitLength:    120,
		DiffSize:     4,
		DiffOverall:  8,
		DiffApproach: 9,
		DiffDrain:    6,
		SubmitDate:   "2022-06-01 12:00:00",
		ApprovedDate: "2023-06-01 12:00:00",
		LastUpdate:   "2023-06-01 12:00:00",
		BPM:          180,
	}
}

func scoreRecord(beatmapID int64, mods osu.Mod, pp float64, score int64, date string) models.ScoreData {
	return models.ScoreData{
		BeatmapID:   beatmapID,
		Score:       score,
		MaxCombo:    500,
		Count300:    480,
		Count100:    15,
		Count50:     5,
		EnabledMods: mods,
		Date:        date,
		Rank:        "A",
		PP:          &pp,
	}
}

func userRecord(id int64, name string, pp float64) models.UserData {
	return models.UserData{
		UserID:    id,
		Username:  name,
		JoinDate:  "2015-01-01 00:00:00",
		Playcount: 1000,
		PPRank:    5000,
		PPRaw:     pp,
		Accuracy:  98.5,
		Country:   "NZ",
	}
}
