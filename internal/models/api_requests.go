package models

type CreateLeaderboardRequest struct {
	Gamemode        int          `json:"gamemode" validate:"min=0,max=3"`
	AccessType      AccessType   `json:"access_type" validate:"oneof=1 2"`
	Name            string       `json:"name" validate:"required,max=30"`
	Description     string       `json:"description" validate:"max=255"`
	AllowPastScores bool         `json:"allow_past_scores"`
	ScoreFilter     *ScoreFilter `json:"score_filter"`
}

type FetchScoresRequest struct {
	BeatmapIDs []int64 `json:"beatmap_ids" validate:"required,min=1,max=50,dive,gt=0"`
}

type CreateInvitesRequest struct {
	UserIDs []int64 `json:"user_ids" validate:"required,min=1,max=50,dive,gt=0"`
	Message string  `json:"message" validate:"max=255"`
}

// InstallResponse reports the outcome of each applied schema file.
type InstallResponse struct {
	Success bool              `json:"success"`
	Results map[string]string `json:"results"`
}
