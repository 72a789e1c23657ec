package logic

import (
	"context"
	"fmt"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2/lib/driver"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

type historyService struct {
	ch driver.Conn
}

func NewHistoryService(ch driver.Conn) HistoryService {
	return &historyService{ch: ch}
}

// GetHistory returns the stats snapshots of a user since the given time, oldest first.
func (s *historyService) GetHistory(ctx context.Context, userID int64, mode osu.Gamemode, since time.Time) ([]models.StatsSnapshot, error) {
	rows, err := s.ch.Query(ctx, `
		SELECT user_id, gamemode, pp, rank, country_rank, accuracy, playcount, recorded_at
		FROM osuchan.user_stats_history
		WHERE user_id = ? AND gamemode = ? AND recorded_at >= ?
		ORDER BY recorded_at
	`, userID, uint8(mode), since)
	if err != nil {
		return nil, fmt.Errorf("failed to query history: %w", err)
	}
	defer rows.Close()

	var out []models.StatsSnapshot
	for rows.Next() {
		var (
			snap                         models.StatsSnapshot
			gamemode                     uint8
			rank, countryRank, playcount int32
		)
		if err := rows.Scan(&snap.UserID, &gamemode, &snap.PP, &rank, &countryRank, &snap.Accuracy, &playcount, &snap.RecordedAt); err != nil {
			return nil, fmt.Errorf("failed to scan history row: %w", err)
		}
		snap.Gamemode = osu.Gamemode(gamemode)
		snap.Rank = int(rank)
		snap.CountryRank = int(countryRank)
		snap.Playcount = int(playcount)
		out = append(out, snap)
	}
	return out, rows.Err()
}
