package models

import (
	"time"

	"github.com/osuchan/stats-api/internal/osu"
)

// Beatmap is a single difficulty cached from the osu! API.
type Beatmap struct {
	ID               int64             `json:"id"`
	SetID            int64             `json:"set_id"`
	Gamemode         osu.Gamemode      `json:"gamemode"`
	Artist           string            `json:"artist"`
	Title            string            `json:"title"`
	DifficultyName   string            `json:"difficulty_name"`
	Creator          string            `json:"creator"`
	Status           osu.BeatmapStatus `json:"status"`
	SubmissionDate   time.Time         `json:"submission_date"`
	ApprovalDate     *time.Time        `json:"approval_date,omitempty"`
	LastUpdated      time.Time         `json:"last_updated"`
	BPM              float64           `json:"bpm"`
	DrainTime        int               `json:"drain_time"`
	TotalLength      int               `json:"total_length"`
	CS               float64           `json:"cs"`
	OD               float64           `json:"od"`
	AR               float64           `json:"ar"`
	HP               float64           `json:"hp"`
	DifficultyRating float64           `json:"difficulty_rating"`
	MaxCombo         int               `json:"max_combo"`
}

// Difficulty returns the nomod difficulty attributes.
func (b *Beatmap) Difficulty() osu.Difficulty {
	return osu.Difficulty{
		CS:          b.CS,
		AR:          b.AR,
		OD:          b.OD,
		HP:          b.HP,
		BPM:         b.BPM,
		DrainTime:   b.DrainTime,
		TotalLength: b.TotalLength,
	}
}

// RankedDate is the approval date, or the submission date for maps that were never approved.
func (b *Beatmap) RankedDate() time.Time {
	if b.ApprovalDate != nil && !b.ApprovalDate.IsZero() {
		return *b.ApprovalDate
	}
	return b.SubmissionDate
}

// Score is the best play of a user on a beatmap within one scoring-mod bucket.
type Score struct {
	ID        int64        `json:"id"`
	UserID    int64        `json:"user_id"`
	BeatmapID int64        `json:"beatmap_id"`
	Gamemode  osu.Gamemode `json:"gamemode"`
	Mods      osu.Mod      `json:"mods"`
	Score     int64        `json:"score"`
	BestCombo int          `json:"best_combo"`
	Perfect   bool         `json:"perfect"`
	Count300  int          `json:"count_300"`
	Count100  int          `json:"count_100"`
	Count50   int          `json:"count_50"`
	CountMiss int          `json:"count_miss"`
	CountGeki int          `json:"count_geki"`
	CountKatu int          `json:"count_katu"`
	Accuracy  float64      `json:"accuracy"`
	Rank      string       `json:"rank"`
	PP        float64      `json:"pp"`
	Date      time.Time    `json:"date"`

	Beatmap *Beatmap `json:"beatmap,omitempty"`
}

// ScoreKey identifies the slot a score competes for.
type ScoreKey struct {
	BeatmapID int64
	Bucket    osu.Mod
}

func (s *Score) Key() ScoreKey {
	return ScoreKey{BeatmapID: s.BeatmapID, Bucket: s.Mods.ScoringBucket()}
}

func (s *Score) HitCounts() osu.HitCounts {
	return osu.HitCounts{
		Count300:  s.Count300,
		Count100:  s.Count100,
		Count50:   s.Count50,
		CountMiss: s.CountMiss,
		CountGeki: s.CountGeki,
		CountKatu: s.CountKatu,
	}
}

// SameResult reports whether two scores describe the same play.
func (s *Score) SameResult(o *Score) bool {
	return s.BeatmapID == o.BeatmapID &&
		s.Mods == o.Mods &&
		s.Score == o.Score &&
		s.PP == o.PP &&
		s.Date.Equal(o.Date)
}
