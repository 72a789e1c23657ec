package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// CreateMemberships inserts every membership in one statement. Pairs that
// already exist are left untouched and keep a zero ID in the input.
func (q *queries) CreateMemberships(ctx context.Context, memberships []*models.Membership) error {
	if len(memberships) == 0 {
		return nil
	}

	var (
		leaderboardIDs = make([]int64, len(memberships))
		userIDs        = make([]int64, len(memberships))
		pps            = make([]float64, len(memberships))
		joinDates      = make([]time.Time, len(memberships))
	)
	for i, m := range memberships {
		leaderboardIDs[i] = m.LeaderboardID
		userIDs[i] = m.UserID
		pps[i] = m.PP
		joinDates[i] = m.JoinDate
	}

	rows, err := q.db.Query(ctx, `
		INSERT INTO memberships (leaderboard_id, user_id, pp, join_date)
		SELECT * FROM unnest($1::bigint[], $2::bigint[], $3::float8[], $4::timestamptz[])
		ON CONFLICT (leaderboard_id, user_id) DO NOTHING
		RETURNING id, leaderboard_id, user_id
	`, leaderboardIDs, userIDs, pps, joinDates)
	if err != nil {
		return fmt.Errorf("failed to create memberships: %w", err)
	}
	defer rows.Close()

	type pair struct{ leaderboardID, userID int64 }
	created := make(map[pair]int64, len(memberships))
	for rows.Next() {
		var (
			id int64
			p  pair
		)
		if err := rows.Scan(&id, &p.leaderboardID, &p.userID); err != nil {
			return fmt.Errorf("failed to scan membership: %w", err)
		}
		created[p] = id
	}
	if err := rows.Err(); err != nil {
		return fmt.Errorf("failed to create memberships: %w", err)
	}

	for _, m := range memberships {
		if id, ok := created[pair{m.LeaderboardID, m.UserID}]; ok {
			m.ID = id
		}
	}
	return nil
}

const membershipQuery = `
	SELECT m.id, m.leaderboard_id, m.user_id, m.pp, m.join_date,
	       COALESCE((SELECT array_agg(ms.score_id ORDER BY ms.position)
	                 FROM membership_scores ms WHERE ms.membership_id = m.id), '{}')
	FROM memberships m
	WHERE m.leaderboard_id = $1 AND m.user_id = $2`

func scanMembership(row pgx.Row) (*models.Membership, error) {
	var m models.Membership
	if err := row.Scan(&m.ID, &m.LeaderboardID, &m.UserID, &m.PP, &m.JoinDate, &m.ScoreIDs); err != nil {
		return nil, err
	}
	return &m, nil
}

func (q *queries) GetMembership(ctx context.Context, leaderboardID, userID int64) (*models.Membership, error) {
	m, err := scanMembership(q.db.QueryRow(ctx, membershipQuery, leaderboardID, userID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("membership of user %d on %d", userID, leaderboardID))
	}
	return m, nil
}

func (q *queries) LockMembership(ctx context.Context, leaderboardID, userID int64) (*models.Membership, error) {
	m, err := scanMembership(q.db.QueryRow(ctx, membershipQuery+` FOR UPDATE OF m`, leaderboardID, userID))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("membership of user %d on %d", userID, leaderboardID))
	}
	return m, nil
}

// SaveMembership writes pp and replaces the qualifying score set, keeping
// the order of ScoreIDs.
func (q *queries) SaveMembership(ctx context.Context, m *models.Membership) error {
	err := q.db.QueryRow(ctx, `
		UPDATE memberships SET pp = $3
		WHERE leaderboard_id = $1 AND user_id = $2
		RETURNING id
	`, m.LeaderboardID, m.UserID, m.PP).Scan(&m.ID)
	if err != nil {
		return notFound(err, fmt.Sprintf("membership of user %d on %d", m.UserID, m.LeaderboardID))
	}

	if _, err := q.db.Exec(ctx, `DELETE FROM membership_scores WHERE membership_id = $1`, m.ID); err != nil {
		return fmt.Errorf("failed to clear membership scores: %w", err)
	}
	if len(m.ScoreIDs) == 0 {
		return nil
	}
	_, err = q.db.Exec(ctx, `
		INSERT INTO membership_scores (membership_id, score_id, position)
		SELECT $1::bigint, s.score_id, s.position
		FROM unnest($2::bigint[]) WITH ORDINALITY AS s(score_id, position)
	`, m.ID, m.ScoreIDs)
	if err != nil {
		return fmt.Errorf("failed to save membership scores: %w", err)
	}
	return nil
}

// ListMembers returns a ranking page ordered by pp, ties broken by user id.
func (q *queries) ListMembers(ctx context.Context, leaderboardID int64, limit, offset int) ([]models.MembershipView, error) {
	rows, err := q.db.Query(ctx, `
		SELECT u.id, u.username, u.country, m.pp, m.join_date,
		       (SELECT COUNT(*) FROM membership_scores ms WHERE ms.membership_id = m.id)
		FROM memberships m
		JOIN osu_users u ON u.id = m.user_id
		WHERE m.leaderboard_id = $1
		ORDER BY m.pp DESC, m.user_id
		LIMIT $2 OFFSET $3
	`, leaderboardID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()

	var out []models.MembershipView
	for rows.Next() {
		var v models.MembershipView
		if err := rows.Scan(&v.User.ID, &v.User.Username, &v.User.Country, &v.PP, &v.JoinDate, &v.ScoreCount); err != nil {
			return nil, fmt.Errorf("failed to scan member: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// ListMembershipScores returns the qualifying scores in weighting order.
func (q *queries) ListMembershipScores(ctx context.Context, membershipID int64) ([]models.Score, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+scoreColumns+`, `+beatmapColumns+`
		FROM membership_scores ms
		JOIN scores sc ON sc.id = ms.score_id
		JOIN beatmaps b ON b.id = sc.beatmap_id
		WHERE ms.membership_id = $1
		ORDER BY ms.position
	`, membershipID)
	if err != nil {
		return nil, fmt.Errorf("failed to query membership scores: %w", err)
	}
	defer rows.Close()

	out := []models.Score{}
	for rows.Next() {
		s, err := scanScoreWithBeatmap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		out = append(out, *s)
	}
	return out, rows.Err()
}

// CreateInvite stores the invite, refreshing the message and date of an
// existing invite for the same pair.
func (q *queries) CreateInvite(ctx context.Context, inv *models.Invite) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO invites (leaderboard_id, user_id, message, invite_date)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (leaderboard_id, user_id) DO UPDATE SET
			message = EXCLUDED.message,
			invite_date = EXCLUDED.invite_date
		RETURNING id
	`, inv.LeaderboardID, inv.UserID, inv.Message, inv.InviteDate).Scan(&inv.ID)
	if err != nil {
		return fmt.Errorf("failed to create invite: %w", err)
	}
	return nil
}

func (q *queries) GetInvite(ctx context.Context, id int64) (*models.Invite, error) {
	var inv models.Invite
	err := q.db.QueryRow(ctx, `
		SELECT id, leaderboard_id, user_id, message, invite_date
		FROM invites WHERE id = $1
	`, id).Scan(&inv.ID, &inv.LeaderboardID, &inv.UserID, &inv.Message, &inv.InviteDate)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("invite %d", id))
	}
	return &inv, nil
}

func (q *queries) ListUserInvites(ctx context.Context, userID int64) ([]models.InviteView, error) {
	rows, err := q.db.Query(ctx, `
		SELECT i.id, l.id, l.name, l.gamemode, i.message, i.invite_date
		FROM invites i
		JOIN leaderboards l ON l.id = i.leaderboard_id
		WHERE i.user_id = $1
		ORDER BY i.id
	`, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to query invites: %w", err)
	}
	defer rows.Close()

	var out []models.InviteView
	for rows.Next() {
		var (
			v    models.InviteView
			mode int16
		)
		if err := rows.Scan(&v.ID, &v.Leaderboard.ID, &v.Leaderboard.Name, &mode, &v.Message, &v.InviteDate); err != nil {
			return nil, fmt.Errorf("failed to scan invite: %w", err)
		}
		v.Leaderboard.Gamemode = osu.Gamemode(mode)
		out = append(out, v)
	}
	return out, rows.Err()
}

func (q *queries) DeleteInvite(ctx context.Context, id int64) error {
	tag, err := q.db.Exec(ctx, `DELETE FROM invites WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("failed to delete invite %d: %w", id, err)
	}
	return ensureAffected(tag.RowsAffected(), fmt.Sprintf("invite %d", id))
}
