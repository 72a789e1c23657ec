package store

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

func (q *queries) GetUser(ctx context.Context, userID int64) (*models.OsuUser, error) {
	var (
		u        models.OsuUser
		joinDate *time.Time
	)
	err := q.db.QueryRow(ctx, `
		SELECT id, username, country, join_date, disabled
		FROM osu_users WHERE id = $1
	`, userID).Scan(&u.ID, &u.Username, &u.Country, &joinDate, &u.Disabled)
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("user %d", userID))
	}
	if joinDate != nil {
		u.JoinDate = *joinDate
	}
	return &u, nil
}

// UpsertUser re-enables the user on every save. xmax is 0 only for freshly
// inserted rows.
func (q *queries) UpsertUser(ctx context.Context, user *models.OsuUser) (bool, error) {
	var joinDate *time.Time
	if !user.JoinDate.IsZero() {
		joinDate = &user.JoinDate
	}

	var created bool
	err := q.db.QueryRow(ctx, `
		INSERT INTO osu_users (id, username, country, join_date, disabled)
		VALUES ($1, $2, $3, $4, FALSE)
		ON CONFLICT (id) DO UPDATE SET
			username = EXCLUDED.username,
			country = EXCLUDED.country,
			join_date = COALESCE(EXCLUDED.join_date, osu_users.join_date),
			disabled = FALSE
		RETURNING (xmax = 0)
	`, user.ID, user.Username, user.Country, joinDate).Scan(&created)
	if err != nil {
		return false, fmt.Errorf("failed to save user %d: %w", user.ID, err)
	}
	user.Disabled = false
	return created, nil
}

func (q *queries) SetUserDisabled(ctx context.Context, userID int64, disabled bool) error {
	tag, err := q.db.Exec(ctx, `UPDATE osu_users SET disabled = $2 WHERE id = $1`, userID, disabled)
	if err != nil {
		return fmt.Errorf("failed to update user %d: %w", userID, err)
	}
	return ensureAffected(tag.RowsAffected(), fmt.Sprintf("user %d", userID))
}

const statsColumns = `
	s.user_id, s.gamemode, s.playcount, s.playtime, s.level, s.ranked_score, s.total_score,
	s.rank, s.country_rank, s.pp, s.accuracy, s.count_300, s.count_100, s.count_50,
	s.count_rank_ss, s.count_rank_ssh, s.count_rank_s, s.count_rank_sh, s.count_rank_a,
	s.extra_pp, s.score_style_accuracy, s.score_style_bpm, s.score_style_length,
	s.score_style_cs, s.score_style_ar, s.score_style_od, s.last_updated`

func scanStats(row pgx.Row) (*models.UserStats, error) {
	var (
		s    models.UserStats
		mode int16
	)
	err := row.Scan(
		&s.UserID, &mode, &s.Playcount, &s.Playtime, &s.Level, &s.RankedScore, &s.TotalScore,
		&s.Rank, &s.CountryRank, &s.PP, &s.Accuracy, &s.Count300, &s.Count100, &s.Count50,
		&s.CountRankSS, &s.CountRankSSH, &s.CountRankS, &s.CountRankSH, &s.CountRankA,
		&s.ExtraPP, &s.ScoreStyleAccuracy, &s.ScoreStyleBPM, &s.ScoreStyleLength,
		&s.ScoreStyleCS, &s.ScoreStyleAR, &s.ScoreStyleOD, &s.LastUpdated,
	)
	if err != nil {
		return nil, err
	}
	s.Gamemode = osu.Gamemode(mode)
	return &s, nil
}

// statsQuery selects a stats row by user id, or by username when the id is unset.
func statsQuery(lookup models.UserLookup, forUpdate bool) (string, any) {
	sql := `SELECT ` + statsColumns + `
		FROM user_stats s
		JOIN osu_users u ON u.id = s.user_id
		WHERE s.gamemode = $1 AND `
	var arg any
	if lookup.UserID > 0 {
		sql += `s.user_id = $2`
		arg = lookup.UserID
	} else {
		sql += `LOWER(u.username) = LOWER($2)`
		arg = lookup.Username
	}
	if forUpdate {
		sql += ` FOR UPDATE OF s`
	}
	return sql, arg
}

func (q *queries) GetUserStats(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	sql, arg := statsQuery(lookup, false)
	s, err := scanStats(q.db.QueryRow(ctx, sql, int16(mode), arg))
	if err != nil {
		return nil, notFound(err, "user stats "+lookup.Key())
	}
	return s, nil
}

func (q *queries) LockUserStats(ctx context.Context, lookup models.UserLookup, mode osu.Gamemode) (*models.UserStats, error) {
	sql, arg := statsQuery(lookup, true)
	s, err := scanStats(q.db.QueryRow(ctx, sql, int16(mode), arg))
	if err != nil {
		return nil, notFound(err, "user stats "+lookup.Key())
	}
	return s, nil
}

func (q *queries) SaveUserStats(ctx context.Context, s *models.UserStats) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO user_stats (
			user_id, gamemode, playcount, playtime, level, ranked_score, total_score,
			rank, country_rank, pp, accuracy, count_300, count_100, count_50,
			count_rank_ss, count_rank_ssh, count_rank_s, count_rank_sh, count_rank_a,
			extra_pp, score_style_accuracy, score_style_bpm, score_style_length,
			score_style_cs, score_style_ar, score_style_od, last_updated
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14,
			$15, $16, $17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)
		ON CONFLICT (user_id, gamemode) DO UPDATE SET
			playcount = EXCLUDED.playcount,
			playtime = EXCLUDED.playtime,
			level = EXCLUDED.level,
			ranked_score = EXCLUDED.ranked_score,
			total_score = EXCLUDED.total_score,
			rank = EXCLUDED.rank,
			country_rank = EXCLUDED.country_rank,
			pp = EXCLUDED.pp,
			accuracy = EXCLUDED.accuracy,
			count_300 = EXCLUDED.count_300,
			count_100 = EXCLUDED.count_100,
			count_50 = EXCLUDED.count_50,
			count_rank_ss = EXCLUDED.count_rank_ss,
			count_rank_ssh = EXCLUDED.count_rank_ssh,
			count_rank_s = EXCLUDED.count_rank_s,
			count_rank_sh = EXCLUDED.count_rank_sh,
			count_rank_a = EXCLUDED.count_rank_a,
			extra_pp = EXCLUDED.extra_pp,
			score_style_accuracy = EXCLUDED.score_style_accuracy,
			score_style_bpm = EXCLUDED.score_style_bpm,
			score_style_length = EXCLUDED.score_style_length,
			score_style_cs = EXCLUDED.score_style_cs,
			score_style_ar = EXCLUDED.score_style_ar,
			score_style_od = EXCLUDED.score_style_od,
			last_updated = EXCLUDED.last_updated
	`,
		s.UserID, int16(s.Gamemode), s.Playcount, s.Playtime, s.Level, s.RankedScore, s.TotalScore,
		s.Rank, s.CountryRank, s.PP, s.Accuracy, s.Count300, s.Count100, s.Count50,
		s.CountRankSS, s.CountRankSSH, s.CountRankS, s.CountRankSH, s.CountRankA,
		s.ExtraPP, s.ScoreStyleAccuracy, s.ScoreStyleBPM, s.ScoreStyleLength,
		s.ScoreStyleCS, s.ScoreStyleAR, s.ScoreStyleOD, s.LastUpdated,
	)
	if err != nil {
		return fmt.Errorf("failed to save stats of user %d: %w", s.UserID, err)
	}
	return nil
}

// ListStaleUsers returns enabled users whose stats in mode were last updated
// before the cutoff, stalest first.
func (q *queries) ListStaleUsers(ctx context.Context, mode osu.Gamemode, before time.Time, limit int) ([]int64, error) {
	rows, err := q.db.Query(ctx, `
		SELECT s.user_id
		FROM user_stats s
		JOIN osu_users u ON u.id = s.user_id
		WHERE s.gamemode = $1 AND s.last_updated < $2 AND NOT u.disabled
		ORDER BY s.last_updated
		LIMIT $3
	`, int16(mode), before, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to list stale users: %w", err)
	}
	ids, err := pgx.CollectRows(rows, pgx.RowTo[int64])
	if err != nil {
		return nil, fmt.Errorf("failed to scan stale users: %w", err)
	}
	return ids, nil
}
