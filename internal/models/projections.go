package models

import (
	"time"

	"github.com/osuchan/stats-api/internal/osu"
)

// Response shapes. Each endpoint serialises exactly one of these.

// UserStatsView is a user profile with their stats in one gamemode.
type UserStatsView struct {
	User  OsuUser   `json:"user"`
	Stats UserStats `json:"stats"`
}

// UserSummary is the compact user shape nested in other views.
type UserSummary struct {
	ID       int64  `json:"id"`
	Username string `json:"username"`
	Country  string `json:"country"`
}

type LeaderboardView struct {
	ID              int64        `json:"id"`
	Gamemode        osu.Gamemode `json:"gamemode"`
	AccessType      AccessType   `json:"access_type"`
	Name            string       `json:"name"`
	Description     string       `json:"description"`
	AllowPastScores bool         `json:"allow_past_scores"`
	CreationTime    time.Time    `json:"creation_time"`
	Owner           *UserSummary `json:"owner,omitempty"`
	MemberCount     int          `json:"member_count"`
}

// LeaderboardDetailView adds the score filter to LeaderboardView.
type LeaderboardDetailView struct {
	LeaderboardView
	ScoreFilter *ScoreFilter `json:"score_filter"`
}

// MembershipView is one row of a leaderboard ranking.
type MembershipView struct {
	Rank       int         `json:"rank,omitempty"`
	User       UserSummary `json:"user"`
	PP         float64     `json:"pp"`
	ScoreCount int         `json:"score_count"`
	JoinDate   time.Time   `json:"join_date"`
}

// MembershipDetailView is a single member with their qualifying scores.
type MembershipDetailView struct {
	MembershipView
	Scores []Score `json:"scores"`
}

// LeaderboardRef is the compact leaderboard shape nested in other views.
type LeaderboardRef struct {
	ID       int64        `json:"id"`
	Name     string       `json:"name"`
	Gamemode osu.Gamemode `json:"gamemode"`
}

type InviteView struct {
	ID          int64          `json:"id"`
	Leaderboard LeaderboardRef `json:"leaderboard"`
	Message     string         `json:"message"`
	InviteDate  time.Time      `json:"invite_date"`
}
