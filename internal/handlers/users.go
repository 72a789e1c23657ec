package handlers

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// GetUser returns a user with their stats, refreshing them from osu! when stale
// @Summary Get User Stats
// @Tags Users
// @Produce json
// @Param user path string true "osu! user id or username"
// @Param gamemode path string true "Gamemode (0-3 or osu, taiko, fruits, mania)"
// @Success 200 {object} models.UserStatsView
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Failure 502 {object} map[string]string
// @Router /users/{user}/{gamemode} [get]
func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	mode, ok := gamemodeParam(r)
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid gamemode")
		return
	}

	h.respondWithProfile(w, r, parseLookup(chi.URLParam(r, "user")), mode)
}

// GetMe refreshes and returns the session user in standard
// @Summary Get Current User
// @Tags Users
// @Produce json
// @Security BearerAuth
// @Success 200 {object} models.UserStatsView
// @Failure 401 {object} map[string]string
// @Router /me [get]
func (h *Handler) GetMe(w http.ResponseWriter, r *http.Request) {
	h.respondWithProfile(w, r, models.UserLookup{UserID: userIDFromContext(r.Context())}, osu.GamemodeStandard)
}

func (h *Handler) respondWithProfile(w http.ResponseWriter, r *http.Request, lookup models.UserLookup, mode osu.Gamemode) {
	ctx := r.Context()

	stats, err := h.refresh.FetchUser(ctx, lookup, mode)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}

	profile, err := h.refresh.GetUserProfile(ctx, stats.UserID, mode)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, profile)
}

// parseLookup treats numeric path values as user ids and anything else as a username.
func parseLookup(raw string) models.UserLookup {
	raw = strings.TrimSpace(raw)
	if id, err := strconv.ParseInt(raw, 10, 64); err == nil && id > 0 {
		return models.UserLookup{UserID: id}
	}
	return models.UserLookup{Username: raw}
}

// FetchScores ingests a user's scores on specific beatmaps
// @Summary Fetch Beatmap Scores
// @Tags Users
// @Accept json
// @Produce json
// @Param user path int true "osu! user id"
// @Param gamemode path string true "Gamemode"
// @Param body body models.FetchScoresRequest true "Beatmap ids"
// @Success 200 {array} models.Score
// @Failure 400 {object} map[string]string
// @Failure 404 {object} map[string]string
// @Router /users/{user}/{gamemode}/scores [post]
func (h *Handler) FetchScores(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	mode, ok := gamemodeParam(r)
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid gamemode")
		return
	}

	var req models.FetchScoresRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	scores, err := h.refresh.FetchScores(r.Context(), userID, req.BeatmapIDs, mode)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if scores == nil {
		scores = []*models.Score{}
	}
	h.jsonResponse(w, http.StatusOK, scores)
}

// ListScores returns the stored best scores of a user
// @Summary List User Scores
// @Tags Users
// @Produce json
// @Param user path int true "osu! user id"
// @Param gamemode path string true "Gamemode"
// @Success 200 {array} models.Score
// @Router /users/{user}/{gamemode}/scores [get]
func (h *Handler) ListScores(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	mode, ok := gamemodeParam(r)
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid gamemode")
		return
	}

	scores, err := h.refresh.ListScores(r.Context(), userID, mode)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if scores == nil {
		scores = []*models.Score{}
	}
	h.jsonResponse(w, http.StatusOK, scores)
}

// GetHistory returns stats snapshots of a user
// @Summary User Stats History
// @Tags Users
// @Produce json
// @Param user path int true "osu! user id"
// @Param gamemode path string true "Gamemode"
// @Param days query int false "Days of history" default(30)
// @Success 200 {array} models.StatsSnapshot
// @Router /users/{user}/{gamemode}/history [get]
func (h *Handler) GetHistory(w http.ResponseWriter, r *http.Request) {
	userID, ok := idParam(r, "user")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}
	mode, ok := gamemodeParam(r)
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid gamemode")
		return
	}

	days := 30
	if d := r.URL.Query().Get("days"); d != "" {
		if parsed, err := strconv.Atoi(d); err == nil && parsed > 0 && parsed <= 365 {
			days = parsed
		}
	}
	since := time.Now().UTC().AddDate(0, 0, -days)

	snapshots, err := h.statsHistory.GetHistory(r.Context(), userID, mode, since)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if snapshots == nil {
		snapshots = []models.StatsSnapshot{}
	}
	h.jsonResponse(w, http.StatusOK, snapshots)
}
