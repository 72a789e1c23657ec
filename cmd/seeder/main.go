// Command seeder creates the global leaderboard of every gamemode and, with
// -backfill, joins existing users to them.
package main

import (
	"context"
	"database/sql"
	"errors"
	"flag"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	_ "github.com/lib/pq"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

var globalNames = map[osu.Gamemode]string{
	osu.GamemodeStandard: "osu!",
	osu.GamemodeTaiko:    "osu!taiko",
	osu.GamemodeCatch:    "osu!catch",
	osu.GamemodeMania:    "osu!mania",
}

func main() {
	backfill := flag.Bool("backfill", false, "add existing users to the global leaderboards")
	flag.Parse()

	logger, _ := zap.NewDevelopment()
	defer logger.Sync()
	log := logger.Sugar()

	_ = godotenv.Load()
	dsn := os.Getenv("POSTGRES_URL")
	if dsn == "" {
		log.Fatal("POSTGRES_URL is not set")
	}

	db, err := connect(dsn, 5*time.Second)
	if err != nil {
		log.Fatalw("failed to connect", "error", err)
	}
	defer db.Close()

	ctx := context.Background()
	for _, mode := range osu.Gamemodes {
		id, created, err := ensureGlobal(ctx, db, mode)
		if err != nil {
			log.Fatalw("failed to seed global leaderboard", "gamemode", mode, "error", err)
		}
		log.Infow("global leaderboard", "gamemode", mode, "id", id, "created", created)

		if !*backfill {
			continue
		}
		joined, err := joinExistingUsers(ctx, db, id)
		if err != nil {
			log.Fatalw("failed to backfill memberships", "gamemode", mode, "error", err)
		}
		log.Infow("backfilled memberships", "gamemode", mode, "joined", joined)
	}
}

func connect(dsn string, timeout time.Duration) (*sql.DB, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to create database handle: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database within %v: %w", timeout, err)
	}
	return db, nil
}

// ensureGlobal returns the global leaderboard of mode, creating it when missing.
func ensureGlobal(ctx context.Context, db *sql.DB, mode osu.Gamemode) (int64, bool, error) {
	var id int64
	err := db.QueryRowContext(ctx,
		`SELECT id FROM leaderboards WHERE access_type = $1 AND gamemode = $2 ORDER BY id LIMIT 1`,
		int(models.AccessGlobal), int(mode),
	).Scan(&id)
	if err == nil {
		return id, false, nil
	}
	if !errors.Is(err, sql.ErrNoRows) {
		return 0, false, err
	}

	err = db.QueryRowContext(ctx, `
		INSERT INTO leaderboards (gamemode, access_type, name, description, allow_past_scores)
		VALUES ($1, $2, $3, $4, TRUE)
		RETURNING id`,
		int(mode), int(models.AccessGlobal), globalNames[mode], "Every tracked "+globalNames[mode]+" player",
	).Scan(&id)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// joinExistingUsers adds every enabled user to the leaderboard. Membership pp
// stays at zero until the user's next refresh recalculates it.
func joinExistingUsers(ctx context.Context, db *sql.DB, leaderboardID int64) (int64, error) {
	res, err := db.ExecContext(ctx, `
		INSERT INTO memberships (leaderboard_id, user_id)
		SELECT $1, u.id FROM osu_users u WHERE NOT u.disabled
		ON CONFLICT (leaderboard_id, user_id) DO NOTHING`,
		leaderboardID,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
