package models

import (
	"fmt"
	"time"

	"github.com/osuchan/stats-api/internal/osu"
)

// UserData is a get_user record from the osu! API.
type UserData struct {
	UserID             int64   `json:"user_id"`
	Username           string  `json:"username"`
	JoinDate           string  `json:"join_date"`
	Count300           int64   `json:"count300"`
	Count100           int64   `json:"count100"`
	Count50            int64   `json:"count50"`
	Playcount          int     `json:"playcount"`
	RankedScore        int64   `json:"ranked_score"`
	TotalScore         int64   `json:"total_score"`
	PPRank             int     `json:"pp_rank"`
	Level              float64 `json:"level"`
	PPRaw              float64 `json:"pp_raw"`
	Accuracy           float64 `json:"accuracy"`
	CountRankSS        int     `json:"count_rank_ss"`
	CountRankSSH       int     `json:"count_rank_ssh"`
	CountRankS         int     `json:"count_rank_s"`
	CountRankSH        int     `json:"count_rank_sh"`
	CountRankA         int     `json:"count_rank_a"`
	Country            string  `json:"country"`
	TotalSecondsPlayed int     `json:"total_seconds_played"`
	PPCountryRank      int     `json:"pp_country_rank"`
}

// ApplyTo copies the profile and counters onto user and stats.
func (d *UserData) ApplyTo(user *OsuUser, stats *UserStats) error {
	joined, err := ParseAPITime(d.JoinDate)
	if err != nil {
		return err
	}

	user.ID = d.UserID
	user.Username = d.Username
	user.Country = d.Country
	user.JoinDate = joined

	stats.UserID = d.UserID
	stats.Playcount = d.Playcount
	stats.Playtime = d.TotalSecondsPlayed
	stats.Level = d.Level
	stats.RankedScore = d.RankedScore
	stats.TotalScore = d.TotalScore
	stats.Rank = d.PPRank
	stats.CountryRank = d.PPCountryRank
	stats.PP = d.PPRaw
	stats.Accuracy = d.Accuracy
	stats.Count300 = d.Count300
	stats.Count100 = d.Count100
	stats.Count50 = d.Count50
	stats.CountRankSS = d.CountRankSS
	stats.CountRankSSH = d.CountRankSSH
	stats.CountRankS = d.CountRankS
	stats.CountRankSH = d.CountRankSH
	stats.CountRankA = d.CountRankA
	return nil
}

// ScoreData is a score record from get_user_best, get_user_recent or get_scores.
// get_scores omits beatmap_id and get_user_recent omits pp.
type ScoreData struct {
	BeatmapID   int64    `json:"beatmap_id"`
	ScoreID     int64    `json:"score_id"`
	Score       int64    `json:"score"`
	MaxCombo    int      `json:"maxcombo"`
	Count50     int      `json:"count50"`
	Count100    int      `json:"count100"`
	Count300    int      `json:"count300"`
	CountMiss   int      `json:"countmiss"`
	CountKatu   int      `json:"countkatu"`
	CountGeki   int      `json:"countgeki"`
	Perfect     bool     `json:"perfect"`
	EnabledMods osu.Mod  `json:"enabled_mods"`
	UserID      int64    `json:"user_id"`
	Date        string   `json:"date"`
	Rank        string   `json:"rank"`
	PP          *float64 `json:"pp"`
}

func (d *ScoreData) Failed() bool {
	return d.Rank == osu.GradeFailed
}

// ToScore builds a Score for userID in mode. The caller resolves pp when the record has none.
func (d *ScoreData) ToScore(userID int64, mode osu.Gamemode) (*Score, error) {
	if d.BeatmapID == 0 {
		return nil, fmt.Errorf("score record has no beatmap id")
	}
	date, err := ParseAPITime(d.Date)
	if err != nil {
		return nil, err
	}

	s := &Score{
		UserID:    userID,
		BeatmapID: d.BeatmapID,
		Gamemode:  mode,
		Mods:      d.EnabledMods,
		Score:     d.Score,
		BestCombo: d.MaxCombo,
		Perfect:   d.Perfect,
		Count300:  d.Count300,
		Count100:  d.Count100,
		Count50:   d.Count50,
		CountMiss: d.CountMiss,
		CountGeki: d.CountGeki,
		CountKatu: d.CountKatu,
		Rank:      d.Rank,
		Date:      date,
	}
	s.Accuracy = osu.Accuracy(mode, s.HitCounts())
	if d.PP != nil {
		s.PP = *d.PP
	}
	return s, nil
}

// BeatmapData is a get_beatmaps record from the osu! API.
type BeatmapData struct {
	BeatmapsetID     int64             `json:"beatmapset_id"`
	BeatmapID        int64             `json:"beatmap_id"`
	Approved         osu.BeatmapStatus `json:"approved"`
	TotalLength      int               `json:"total_length"`
	HitLength        int               `json:"hit_length"`
	Version          string            `json:"version"`
	DiffSize         float64           `json:"diff_size"`
	DiffOverall      float64           `json:"diff_overall"`
	DiffApproach     float64           `json:"diff_approach"`
	DiffDrain        float64           `json:"diff_drain"`
	Mode             osu.Gamemode      `json:"mode"`
	SubmitDate       string            `json:"submit_date"`
	ApprovedDate     string            `json:"approved_date"`
	LastUpdate       string            `json:"last_update"`
	Artist           string            `json:"artist"`
	Title            string            `json:"title"`
	Creator          string            `json:"creator"`
	BPM              float64           `json:"bpm"`
	MaxCombo         int               `json:"max_combo"`
	DifficultyRating float64           `json:"difficultyrating"`
}

func (d *BeatmapData) ToBeatmap() (*Beatmap, error) {
	submitted, err := ParseAPITime(d.SubmitDate)
	if err != nil {
		return nil, err
	}
	updated, err := ParseAPITime(d.LastUpdate)
	if err != nil {
		return nil, err
	}
	approved, err := ParseAPITime(d.ApprovedDate)
	if err != nil {
		return nil, err
	}

	b := &Beatmap{
		ID:               d.BeatmapID,
		SetID:            d.BeatmapsetID,
		Gamemode:         d.Mode,
		Artist:           d.Artist,
		Title:            d.Title,
		DifficultyName:   d.Version,
		Creator:          d.Creator,
		Status:           d.Approved,
		SubmissionDate:   submitted,
		LastUpdated:      updated,
		BPM:              d.BPM,
		DrainTime:        d.HitLength,
		TotalLength:      d.TotalLength,
		CS:               d.DiffSize,
		OD:               d.DiffOverall,
		AR:               d.DiffApproach,
		HP:               d.DiffDrain,
		DifficultyRating: d.DifficultyRating,
		MaxCombo:         d.MaxCombo,
	}
	if !approved.IsZero() {
		b.ApprovalDate = &approved
	}
	return b, nil
}

// StatsSnapshot is one row of the user stats history.
type StatsSnapshot struct {
	UserID      int64        `json:"user_id"`
	Gamemode    osu.Gamemode `json:"gamemode"`
	PP          float64      `json:"pp"`
	Rank        int          `json:"rank"`
	CountryRank int          `json:"country_rank"`
	Accuracy    float64      `json:"accuracy"`
	Playcount   int          `json:"playcount"`
	RecordedAt  time.Time    `json:"recorded_at"`
}
