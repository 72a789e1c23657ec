// Command debug_user prints what the osu! API returns for a user next to the
// stats history stored in ClickHouse.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/ClickHouse/clickhouse-go/v2"
	"go.uber.org/zap"

	"github.com/osuchan/stats-api/internal/logic"
	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
	"github.com/osuchan/stats-api/internal/osuapi"
)

func main() {
	modeFlag := flag.String("mode", "osu", "gamemode")
	days := flag.Int("days", 30, "days of history to print")
	flag.Parse()
	if flag.NArg() != 1 {
		log.Fatal("usage: debug_user [-mode osu] [-days 30] <user id or username>")
	}

	mode, err := osu.ParseGamemode(*modeFlag)
	if err != nil {
		log.Fatal(err)
	}
	lookup := models.UserLookup{Username: flag.Arg(0)}
	if id, err := strconv.ParseInt(flag.Arg(0), 10, 64); err == nil {
		lookup = models.UserLookup{UserID: id}
	}

	ctx := context.Background()
	client := osuapi.NewClient(getEnv("OSU_API_URL", "https://osu.ppy.sh/api"), os.Getenv("OSU_API_KEY"), 10*time.Second, zap.NewNop())
	user, err := client.GetUser(ctx, lookup, mode)
	if err != nil {
		log.Fatalf("osu! API lookup failed: %v", err)
	}
	fmt.Printf("api: %+v\n", *user)

	opts, err := clickhouse.ParseDSN(getEnv("CLICKHOUSE_URL", "clickhouse://localhost:9000/osuchan"))
	if err != nil {
		log.Fatalf("Failed to parse DSN: %v", err)
	}
	conn, err := clickhouse.Open(opts)
	if err != nil {
		log.Fatalf("Failed to open connection: %v", err)
	}
	defer conn.Close()

	since := time.Now().UTC().AddDate(0, 0, -*days)
	history, err := logic.NewHistoryService(conn).GetHistory(ctx, user.UserID, mode, since)
	if err != nil {
		log.Fatalf("History query failed: %v", err)
	}
	for _, s := range history {
		fmt.Printf("%s pp=%.2f rank=%d country_rank=%d acc=%.2f plays=%d\n",
			s.RecordedAt.Format(time.RFC3339), s.PP, s.Rank, s.CountryRank, s.Accuracy, s.Playcount)
	}
	fmt.Printf("%d snapshots since %s\n", len(history), since.Format(time.DateOnly))
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
