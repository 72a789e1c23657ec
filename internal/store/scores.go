package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

const beatmapColumns = `
	b.id, b.set_id, b.gamemode, b.artist, b.title, b.difficulty_name, b.creator, b.status,
	b.submission_date, b.approval_date, b.last_updated, b.bpm, b.drain_time, b.total_length,
	b.cs, b.od, b.ar, b.hp, b.difficulty_rating, b.max_combo`

func beatmapDest(b *models.Beatmap, mode, status *int16) []any {
	return []any{
		&b.ID, &b.SetID, mode, &b.Artist, &b.Title, &b.DifficultyName, &b.Creator, status,
		&b.SubmissionDate, &b.ApprovalDate, &b.LastUpdated, &b.BPM, &b.DrainTime, &b.TotalLength,
		&b.CS, &b.OD, &b.AR, &b.HP, &b.DifficultyRating, &b.MaxCombo,
	}
}

func (q *queries) GetBeatmaps(ctx context.Context, ids []int64) (map[int64]*models.Beatmap, error) {
	out := make(map[int64]*models.Beatmap, len(ids))
	if len(ids) == 0 {
		return out, nil
	}

	rows, err := q.db.Query(ctx, `SELECT `+beatmapColumns+` FROM beatmaps b WHERE b.id = ANY($1)`, ids)
	if err != nil {
		return nil, fmt.Errorf("failed to query beatmaps: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			b            models.Beatmap
			mode, status int16
		)
		if err := rows.Scan(beatmapDest(&b, &mode, &status)...); err != nil {
			return nil, fmt.Errorf("failed to scan beatmap: %w", err)
		}
		b.Gamemode = osu.Gamemode(mode)
		b.Status = osu.BeatmapStatus(status)
		out[b.ID] = &b
	}
	return out, rows.Err()
}

func (q *queries) SaveBeatmap(ctx context.Context, b *models.Beatmap) error {
	_, err := q.db.Exec(ctx, `
		INSERT INTO beatmaps (
			id, set_id, gamemode, artist, title, difficulty_name, creator, status,
			submission_date, approval_date, last_updated, bpm, drain_time, total_length,
			cs, od, ar, hp, difficulty_rating, max_combo
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, $20)
		ON CONFLICT (id) DO UPDATE SET
			set_id = EXCLUDED.set_id,
			gamemode = EXCLUDED.gamemode,
			artist = EXCLUDED.artist,
			title = EXCLUDED.title,
			difficulty_name = EXCLUDED.difficulty_name,
			creator = EXCLUDED.creator,
			status = EXCLUDED.status,
			submission_date = EXCLUDED.submission_date,
			approval_date = EXCLUDED.approval_date,
			last_updated = EXCLUDED.last_updated,
			bpm = EXCLUDED.bpm,
			drain_time = EXCLUDED.drain_time,
			total_length = EXCLUDED.total_length,
			cs = EXCLUDED.cs,
			od = EXCLUDED.od,
			ar = EXCLUDED.ar,
			hp = EXCLUDED.hp,
			difficulty_rating = EXCLUDED.difficulty_rating,
			max_combo = EXCLUDED.max_combo
	`,
		b.ID, b.SetID, int16(b.Gamemode), b.Artist, b.Title, b.DifficultyName, b.Creator, int16(b.Status),
		b.SubmissionDate, b.ApprovalDate, b.LastUpdated, b.BPM, b.DrainTime, b.TotalLength,
		b.CS, b.OD, b.AR, b.HP, b.DifficultyRating, b.MaxCombo,
	)
	if err != nil {
		return fmt.Errorf("failed to save beatmap %d: %w", b.ID, err)
	}
	return nil
}

const scoreColumns = `
	sc.id, sc.user_id, sc.beatmap_id, sc.gamemode, sc.mods, sc.score, sc.best_combo, sc.perfect,
	sc.count_300, sc.count_100, sc.count_50, sc.count_miss, sc.count_geki, sc.count_katu,
	sc.accuracy, sc.rank, sc.pp, sc.date`

// scanScoreWithBeatmap scans scoreColumns followed by beatmapColumns.
func scanScoreWithBeatmap(rows pgx.Rows) (*models.Score, error) {
	var (
		s                             models.Score
		b                             models.Beatmap
		mods                          int32
		mode, beatmapMode, beatmapSts int16
	)
	dest := []any{
		&s.ID, &s.UserID, &s.BeatmapID, &mode, &mods, &s.Score, &s.BestCombo, &s.Perfect,
		&s.Count300, &s.Count100, &s.Count50, &s.CountMiss, &s.CountGeki, &s.CountKatu,
		&s.Accuracy, &s.Rank, &s.PP, &s.Date,
	}
	dest = append(dest, beatmapDest(&b, &beatmapMode, &beatmapSts)...)
	if err := rows.Scan(dest...); err != nil {
		return nil, err
	}
	s.Gamemode = osu.Gamemode(mode)
	s.Mods = osu.Mod(mods)
	b.Gamemode = osu.Gamemode(beatmapMode)
	b.Status = osu.BeatmapStatus(beatmapSts)
	s.Beatmap = &b
	return &s, nil
}

func (q *queries) ListUserScores(ctx context.Context, userID int64, mode osu.Gamemode) ([]*models.Score, error) {
	rows, err := q.db.Query(ctx, `
		SELECT `+scoreColumns+`, `+beatmapColumns+`
		FROM scores sc
		JOIN beatmaps b ON b.id = sc.beatmap_id
		WHERE sc.user_id = $1 AND sc.gamemode = $2
		ORDER BY sc.id
	`, userID, int16(mode))
	if err != nil {
		return nil, fmt.Errorf("failed to query scores: %w", err)
	}
	defer rows.Close()

	var out []*models.Score
	for rows.Next() {
		s, err := scanScoreWithBeatmap(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan score: %w", err)
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

func (q *queries) InsertScore(ctx context.Context, s *models.Score) error {
	err := q.db.QueryRow(ctx, `
		INSERT INTO scores (
			user_id, beatmap_id, gamemode, mods, mod_bucket, score, best_combo, perfect,
			count_300, count_100, count_50, count_miss, count_geki, count_katu,
			accuracy, rank, pp, date
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
		RETURNING id
	`,
		s.UserID, s.BeatmapID, int16(s.Gamemode), int32(s.Mods), int32(s.Mods.ScoringBucket()),
		s.Score, s.BestCombo, s.Perfect,
		s.Count300, s.Count100, s.Count50, s.CountMiss, s.CountGeki, s.CountKatu,
		s.Accuracy, s.Rank, s.PP, s.Date,
	).Scan(&s.ID)
	if err != nil {
		return fmt.Errorf("failed to insert score on beatmap %d: %w", s.BeatmapID, err)
	}
	return nil
}

// UpdateScore overwrites a stored score in place. The bucket cannot change.
func (q *queries) UpdateScore(ctx context.Context, s *models.Score) error {
	tag, err := q.db.Exec(ctx, `
		UPDATE scores SET
			mods = $2, score = $3, best_combo = $4, perfect = $5,
			count_300 = $6, count_100 = $7, count_50 = $8, count_miss = $9,
			count_geki = $10, count_katu = $11, accuracy = $12, rank = $13, pp = $14, date = $15
		WHERE id = $1
	`,
		s.ID, int32(s.Mods), s.Score, s.BestCombo, s.Perfect,
		s.Count300, s.Count100, s.Count50, s.CountMiss,
		s.CountGeki, s.CountKatu, s.Accuracy, s.Rank, s.PP, s.Date,
	)
	if err != nil {
		return fmt.Errorf("failed to update score %d: %w", s.ID, err)
	}
	return ensureAffected(tag.RowsAffected(), fmt.Sprintf("score %d", s.ID))
}
