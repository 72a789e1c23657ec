package models

import (
	"strconv"
	"strings"
	"time"

	"github.com/osuchan/stats-api/internal/osu"
)

// OsuUser is a player known to the service, keyed by the external osu! id.
type OsuUser struct {
	ID       int64     `json:"id"`
	Username string    `json:"username"`
	Country  string    `json:"country"`
	JoinDate time.Time `json:"join_date"`
	Disabled bool      `json:"disabled"`
}

// UserStats holds the counters of a user in one gamemode plus values derived
// from their best scores.
type UserStats struct {
	UserID   int64        `json:"user_id"`
	Gamemode osu.Gamemode `json:"gamemode"`

	Playcount   int     `json:"playcount"`
	Playtime    int     `json:"playtime"` // seconds
	Level       float64 `json:"level"`
	RankedScore int64   `json:"ranked_score"`
	TotalScore  int64   `json:"total_score"`
	Rank        int     `json:"rank"`
	CountryRank int     `json:"country_rank"`
	PP          float64 `json:"pp"`
	Accuracy    float64 `json:"accuracy"`

	Count300 int64 `json:"count_300"`
	Count100 int64 `json:"count_100"`
	Count50  int64 `json:"count_50"`

	CountRankSS  int `json:"count_rank_ss"`
	CountRankSSH int `json:"count_rank_ssh"`
	CountRankS   int `json:"count_rank_s"`
	CountRankSH  int `json:"count_rank_sh"`
	CountRankA   int `json:"count_rank_a"`

	// Derived from the best-score set
	ExtraPP            float64 `json:"extra_pp"`
	ScoreStyleAccuracy float64 `json:"score_style_accuracy"`
	ScoreStyleBPM      float64 `json:"score_style_bpm"`
	ScoreStyleLength   float64 `json:"score_style_length"`
	ScoreStyleCS       float64 `json:"score_style_cs"`
	ScoreStyleAR       float64 `json:"score_style_ar"`
	ScoreStyleOD       float64 `json:"score_style_od"`

	LastUpdated time.Time `json:"last_updated"`
}

// IsFresh reports whether the stats were refreshed within window of now.
func (s *UserStats) IsFresh(now time.Time, window time.Duration) bool {
	if s == nil || s.LastUpdated.IsZero() {
		return false
	}
	return now.Sub(s.LastUpdated) < window
}

// Snapshot captures the headline numbers for the history pipeline.
func (s *UserStats) Snapshot(recordedAt time.Time) StatsSnapshot {
	return StatsSnapshot{
		UserID:      s.UserID,
		Gamemode:    s.Gamemode,
		PP:          s.PP,
		Rank:        s.Rank,
		CountryRank: s.CountryRank,
		Accuracy:    s.Accuracy,
		Playcount:   s.Playcount,
		RecordedAt:  recordedAt,
	}
}

// UserLookup identifies a user by external id or, when UserID is 0, by
// username (case-insensitive).
type UserLookup struct {
	UserID   int64
	Username string
}

func (l UserLookup) Valid() bool {
	return l.UserID > 0 || strings.TrimSpace(l.Username) != ""
}

// Key is a stable identifier used for locking and request collapsing.
func (l UserLookup) Key() string {
	if l.UserID > 0 {
		return "id:" + strconv.FormatInt(l.UserID, 10)
	}
	return "name:" + strings.ToLower(strings.TrimSpace(l.Username))
}
