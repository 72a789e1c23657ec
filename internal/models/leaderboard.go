package models

import (
	"time"

	"github.com/osuchan/stats-api/internal/osu"
)

// AccessType controls who can see and join a leaderboard.
type AccessType int

const (
	AccessGlobal  AccessType = 0
	AccessPublic  AccessType = 1
	AccessPrivate AccessType = 2
)

func (a AccessType) String() string {
	switch a {
	case AccessGlobal:
		return "global"
	case AccessPublic:
		return "public"
	case AccessPrivate:
		return "private"
	}
	return "unknown"
}

// Leaderboard is a named ranking context over a subset of players.
type Leaderboard struct {
	ID              int64        `json:"id"`
	Gamemode        osu.Gamemode `json:"gamemode"`
	AccessType      AccessType   `json:"access_type"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	AllowPastScores bool         `json:"allow_past_scores"`
	OwnerID         *int64       `json:"owner_id,omitempty"`
	CreationTime    time.Time    `json:"creation_time"`

	// nil evaluates as the default filter
	ScoreFilter *ScoreFilter `json:"score_filter,omitempty"`
}

// ScoreFilter is the set of optional bounds a score must satisfy to count on a
// leaderboard. Nil bounds are unconstrained; mod masks of 0 are unconstrained.
type ScoreFilter struct {
	ID int64 `json:"-"`

	// Empty means ranked only
	AllowedBeatmapStatus []osu.BeatmapStatus `json:"allowed_beatmap_status,omitempty"`

	OldestBeatmapDate *time.Time `json:"oldest_beatmap_date,omitempty"`
	NewestBeatmapDate *time.Time `json:"newest_beatmap_date,omitempty"`
	OldestScoreDate   *time.Time `json:"oldest_score_date,omitempty"`
	NewestScoreDate   *time.Time `json:"newest_score_date,omitempty"`

	LowestAR  *float64 `json:"lowest_ar,omitempty"`
	HighestAR *float64 `json:"highest_ar,omitempty"`
	LowestOD  *float64 `json:"lowest_od,omitempty"`
	HighestOD *float64 `json:"highest_od,omitempty"`
	LowestCS  *float64 `json:"lowest_cs,omitempty"`
	HighestCS *float64 `json:"highest_cs,omitempty"`

	RequiredMods     osu.Mod `json:"required_mods"`
	DisqualifiedMods osu.Mod `json:"disqualified_mods"`

	LowestAccuracy  *float64 `json:"lowest_accuracy,omitempty"`
	HighestAccuracy *float64 `json:"highest_accuracy,omitempty"`
}

// AllowedStatuses returns the status whitelist with the ranked-only default applied.
func (f *ScoreFilter) AllowedStatuses() []osu.BeatmapStatus {
	if f == nil || len(f.AllowedBeatmapStatus) == 0 {
		return []osu.BeatmapStatus{osu.BeatmapRanked}
	}
	return f.AllowedBeatmapStatus
}

// IsDefault reports whether the filter constrains nothing beyond the ranked-only default.
func (f *ScoreFilter) IsDefault() bool {
	if f == nil {
		return true
	}
	statuses := f.AllowedStatuses()
	if len(statuses) != 1 || statuses[0] != osu.BeatmapRanked {
		return false
	}
	return f.OldestBeatmapDate == nil && f.NewestBeatmapDate == nil &&
		f.OldestScoreDate == nil && f.NewestScoreDate == nil &&
		f.LowestAR == nil && f.HighestAR == nil &&
		f.LowestOD == nil && f.HighestOD == nil &&
		f.LowestCS == nil && f.HighestCS == nil &&
		f.RequiredMods == osu.ModNone && f.DisqualifiedMods == osu.ModNone &&
		f.LowestAccuracy == nil && f.HighestAccuracy == nil
}

// Membership is a user's standing within one leaderboard.
type Membership struct {
	ID            int64     `json:"id"`
	LeaderboardID int64     `json:"leaderboard_id"`
	UserID        int64     `json:"user_id"`
	PP            float64   `json:"pp"`
	JoinDate      time.Time `json:"join_date"`
	ScoreIDs      []int64   `json:"-"`
}

func (m *Membership) ScoreCount() int {
	return len(m.ScoreIDs)
}

// Invite is a pending request for a user to join a leaderboard.
type Invite struct {
	ID            int64     `json:"id"`
	LeaderboardID int64     `json:"leaderboard_id"`
	UserID        int64     `json:"user_id"`
	Message       string    `json:"message"`
	InviteDate    time.Time `json:"invite_date"`
}
