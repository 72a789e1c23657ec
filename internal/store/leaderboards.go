package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/osuchan/stats-api/internal/logic"
	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

const leaderboardColumns = `
	l.id, l.gamemode, l.access_type, l.name, l.description, l.allow_past_scores,
	l.owner_id, l.creation_time,
	f.id, f.allowed_beatmap_status, f.oldest_beatmap_date, f.newest_beatmap_date,
	f.oldest_score_date, f.newest_score_date, f.lowest_ar, f.highest_ar,
	f.lowest_od, f.highest_od, f.lowest_cs, f.highest_cs,
	f.required_mods, f.disqualified_mods, f.lowest_accuracy, f.highest_accuracy`

const leaderboardFrom = `
	FROM leaderboards l
	LEFT JOIN score_filters f ON f.id = l.score_filter_id`

func scanLeaderboard(row pgx.Row) (*models.Leaderboard, error) {
	var (
		lb                       models.Leaderboard
		mode, access             int16
		filterID                 *int64
		statuses                 []int16
		requiredMods, disqualMod *int32
		f                        models.ScoreFilter
	)
	err := row.Scan(
		&lb.ID, &mode, &access, &lb.Name, &lb.Description, &lb.AllowPastScores,
		&lb.OwnerID, &lb.CreationTime,
		&filterID, &statuses, &f.OldestBeatmapDate, &f.NewestBeatmapDate,
		&f.OldestScoreDate, &f.NewestScoreDate, &f.LowestAR, &f.HighestAR,
		&f.LowestOD, &f.HighestOD, &f.LowestCS, &f.HighestCS,
		&requiredMods, &disqualMod, &f.LowestAccuracy, &f.HighestAccuracy,
	)
	if err != nil {
		return nil, err
	}
	lb.Gamemode = osu.Gamemode(mode)
	lb.AccessType = models.AccessType(access)

	if filterID != nil {
		f.ID = *filterID
		for _, st := range statuses {
			f.AllowedBeatmapStatus = append(f.AllowedBeatmapStatus, osu.BeatmapStatus(st))
		}
		if requiredMods != nil {
			f.RequiredMods = osu.Mod(*requiredMods)
		}
		if disqualMod != nil {
			f.DisqualifiedMods = osu.Mod(*disqualMod)
		}
		lb.ScoreFilter = &f
	}
	return &lb, nil
}

func collectLeaderboards(rows pgx.Rows) ([]*models.Leaderboard, error) {
	defer rows.Close()

	var out []*models.Leaderboard
	for rows.Next() {
		lb, err := scanLeaderboard(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
		}
		out = append(out, lb)
	}
	return out, rows.Err()
}

func (q *queries) GetLeaderboard(ctx context.Context, id int64) (*models.Leaderboard, error) {
	lb, err := scanLeaderboard(q.db.QueryRow(ctx, `SELECT `+leaderboardColumns+leaderboardFrom+` WHERE l.id = $1`, id))
	if err != nil {
		return nil, notFound(err, fmt.Sprintf("leaderboard %d", id))
	}
	return lb, nil
}

func (q *queries) ListGlobalLeaderboards(ctx context.Context) ([]*models.Leaderboard, error) {
	rows, err := q.db.Query(ctx, `SELECT `+leaderboardColumns+leaderboardFrom+`
		WHERE l.access_type = $1
		ORDER BY l.id
	`, int16(models.AccessGlobal))
	if err != nil {
		return nil, fmt.Errorf("failed to query global leaderboards: %w", err)
	}
	return collectLeaderboards(rows)
}

func (q *queries) ListMemberLeaderboards(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Leaderboard, error) {
	rows, err := q.db.Query(ctx, `SELECT `+leaderboardColumns+leaderboardFrom+`
		JOIN memberships m ON m.leaderboard_id = l.id
		WHERE m.user_id = $1 AND l.gamemode = $2
		ORDER BY l.id
	`, userID, int16(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboards of user %d: %w", userID, err)
	}
	return collectLeaderboards(rows)
}

// ListVisibleLeaderboards hides private leaderboards from viewers that neither
// own nor belong to them.
func (q *queries) ListVisibleLeaderboards(ctx context.Context, mode *osu.Gamemode, viewerID int64) ([]models.LeaderboardView, error) {
	var modeArg *int16
	if mode != nil {
		m := int16(*mode)
		modeArg = &m
	}

	rows, err := q.db.Query(ctx, `
		SELECT l.id, l.gamemode, l.access_type, l.name, l.description, l.allow_past_scores,
		       l.creation_time, o.id, o.username, o.country,
		       (SELECT COUNT(*) FROM memberships c WHERE c.leaderboard_id = l.id)
		FROM leaderboards l
		LEFT JOIN osu_users o ON o.id = l.owner_id
		WHERE ($1::smallint IS NULL OR l.gamemode = $1)
		  AND (l.access_type <> $2 OR l.owner_id = $3 OR EXISTS (
		        SELECT 1 FROM memberships v WHERE v.leaderboard_id = l.id AND v.user_id = $3))
		ORDER BY l.id
	`, modeArg, int16(models.AccessPrivate), viewerID)
	if err != nil {
		return nil, fmt.Errorf("failed to query leaderboards: %w", err)
	}
	defer rows.Close()

	var out []models.LeaderboardView
	for rows.Next() {
		var (
			v                       models.LeaderboardView
			lbMode, access          int16
			ownerID                 *int64
			ownerName, ownerCountry *string
		)
		err := rows.Scan(&v.ID, &lbMode, &access, &v.Name, &v.Description, &v.AllowPastScores,
			&v.CreationTime, &ownerID, &ownerName, &ownerCountry, &v.MemberCount)
		if err != nil {
			return nil, fmt.Errorf("failed to scan leaderboard: %w", err)
		}
		v.Gamemode = osu.Gamemode(lbMode)
		v.AccessType = models.AccessType(access)
		if ownerID != nil {
			v.Owner = &models.UserSummary{ID: *ownerID, Username: *ownerName, Country: *ownerCountry}
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

// CreateLeaderboard stores the leaderboard and its score filter, if any.
func (q *queries) CreateLeaderboard(ctx context.Context, lb *models.Leaderboard) error {
	var filterID *int64
	if f := lb.ScoreFilter; f != nil {
		statuses := make([]int16, 0, len(f.AllowedStatuses()))
		for _, st := range f.AllowedStatuses() {
			statuses = append(statuses, int16(st))
		}
		err := q.db.QueryRow(ctx, `
			INSERT INTO score_filters (
				allowed_beatmap_status, oldest_beatmap_date, newest_beatmap_date,
				oldest_score_date, newest_score_date, lowest_ar, highest_ar,
				lowest_od, highest_od, lowest_cs, highest_cs,
				required_mods, disqualified_mods, lowest_accuracy, highest_accuracy
			) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
			RETURNING id
		`,
			statuses, f.OldestBeatmapDate, f.NewestBeatmapDate,
			f.OldestScoreDate, f.NewestScoreDate, f.LowestAR, f.HighestAR,
			f.LowestOD, f.HighestOD, f.LowestCS, f.HighestCS,
			int32(f.RequiredMods), int32(f.DisqualifiedMods), f.LowestAccuracy, f.HighestAccuracy,
		).Scan(&f.ID)
		if err != nil {
			return fmt.Errorf("failed to save score filter: %w", err)
		}
		filterID = &f.ID
	}

	err := q.db.QueryRow(ctx, `
		INSERT INTO leaderboards (
			gamemode, access_type, name, description, allow_past_scores,
			owner_id, creation_time, score_filter_id
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING id
	`,
		int16(lb.Gamemode), int16(lb.AccessType), lb.Name, lb.Description, lb.AllowPastScores,
		lb.OwnerID, lb.CreationTime, filterID,
	).Scan(&lb.ID)
	if err != nil {
		return fmt.Errorf("failed to create leaderboard: %w", err)
	}
	return nil
}

// DeleteLeaderboard removes the leaderboard with its filter. Memberships,
// their score sets and invites go with it by cascade.
func (q *queries) DeleteLeaderboard(ctx context.Context, id int64) error {
	var filterID *int64
	err := q.db.QueryRow(ctx, `DELETE FROM leaderboards WHERE id = $1 RETURNING score_filter_id`, id).Scan(&filterID)
	if errors.Is(err, pgx.ErrNoRows) {
		return fmt.Errorf("leaderboard %d: %w", id, logic.ErrNotFoundLocal)
	}
	if err != nil {
		return fmt.Errorf("failed to delete leaderboard %d: %w", id, err)
	}

	if filterID != nil {
		if _, err := q.db.Exec(ctx, `DELETE FROM score_filters WHERE id = $1`, *filterID); err != nil {
			return fmt.Errorf("failed to delete score filter %d: %w", *filterID, err)
		}
	}
	return nil
}

func (q *queries) CountMembers(ctx context.Context, leaderboardID int64) (int, error) {
	var n int
	err := q.db.QueryRow(ctx, `SELECT COUNT(*) FROM memberships WHERE leaderboard_id = $1`, leaderboardID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("failed to count members of %d: %w", leaderboardID, err)
	}
	return n, nil
}
