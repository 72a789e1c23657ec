package handlers

import (
	"net/http"

	"github.com/osuchan/stats-api/internal/models"
	"github.com/osuchan/stats-api/internal/osu"
)

// ListLeaderboards returns the leaderboards visible to the caller
// @Summary List Leaderboards
// @Tags Leaderboards
// @Produce json
// @Param gamemode query string false "Only this gamemode"
// @Success 200 {array} models.LeaderboardView
// @Router /leaderboards [get]
func (h *Handler) ListLeaderboards(w http.ResponseWriter, r *http.Request) {
	var mode *osu.Gamemode
	if raw := r.URL.Query().Get("gamemode"); raw != "" {
		parsed, err := osu.ParseGamemode(raw)
		if err != nil {
			h.errorResponse(w, http.StatusBadRequest, "Invalid gamemode")
			return
		}
		mode = &parsed
	}

	views, err := h.leaderboards.List(r.Context(), mode, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if views == nil {
		views = []models.LeaderboardView{}
	}
	h.jsonResponse(w, http.StatusOK, views)
}

// GetLeaderboard returns one leaderboard with its score filter
// @Summary Get Leaderboard
// @Tags Leaderboards
// @Produce json
// @Param id path int true "Leaderboard id"
// @Success 200 {object} models.LeaderboardDetailView
// @Failure 404 {object} map[string]string
// @Router /leaderboards/{id} [get]
func (h *Handler) GetLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid leaderboard id")
		return
	}

	view, err := h.leaderboards.Get(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, view)
}

// CreateLeaderboard creates a community leaderboard owned by the caller
// @Summary Create Leaderboard
// @Tags Leaderboards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param body body models.CreateLeaderboardRequest true "Leaderboard"
// @Success 201 {object} models.LeaderboardDetailView
// @Failure 400 {object} map[string]string
// @Router /leaderboards [post]
func (h *Handler) CreateLeaderboard(w http.ResponseWriter, r *http.Request) {
	var req models.CreateLeaderboardRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	view, err := h.leaderboards.Create(r.Context(), userIDFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.logger.Infow("Leaderboard created", "leaderboard", view.ID, "owner", userIDFromContext(r.Context()))
	h.jsonResponse(w, http.StatusCreated, view)
}

// DeleteLeaderboard deletes a leaderboard owned by the caller
// @Summary Delete Leaderboard
// @Tags Leaderboards
// @Security BearerAuth
// @Param id path int true "Leaderboard id"
// @Success 204
// @Failure 403 {object} map[string]string
// @Router /leaderboards/{id} [delete]
func (h *Handler) DeleteLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid leaderboard id")
		return
	}

	if err := h.leaderboards.Delete(r.Context(), id, userIDFromContext(r.Context())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// ListMembers returns a page of the leaderboard ranking
// @Summary Leaderboard Ranking
// @Tags Leaderboards
// @Produce json
// @Param id path int true "Leaderboard id"
// @Param limit query int false "Limit" default(50)
// @Param page query int false "Page" default(1)
// @Success 200 {array} models.MembershipView
// @Router /leaderboards/{id}/members [get]
func (h *Handler) ListMembers(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid leaderboard id")
		return
	}
	limit, offset := pagination(r, 50, 100)

	members, err := h.leaderboards.Members(r.Context(), id, userIDFromContext(r.Context()), limit, offset)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if members == nil {
		members = []models.MembershipView{}
	}
	h.jsonResponse(w, http.StatusOK, members)
}

// GetMember returns one member with their qualifying scores
// @Summary Leaderboard Member
// @Tags Leaderboards
// @Produce json
// @Param id path int true "Leaderboard id"
// @Param userID path int true "osu! user id"
// @Success 200 {object} models.MembershipDetailView
// @Router /leaderboards/{id}/members/{userID} [get]
func (h *Handler) GetMember(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid leaderboard id")
		return
	}
	userID, ok := idParam(r, "userID")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid user id")
		return
	}

	member, err := h.leaderboards.Member(r.Context(), id, userID, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, member)
}

// JoinLeaderboard adds the caller to a public leaderboard
// @Summary Join Leaderboard
// @Tags Leaderboards
// @Produce json
// @Security BearerAuth
// @Param id path int true "Leaderboard id"
// @Success 201 {object} models.Membership
// @Failure 403 {object} map[string]string
// @Failure 409 {object} map[string]string
// @Router /leaderboards/{id}/members [post]
func (h *Handler) JoinLeaderboard(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid leaderboard id")
		return
	}

	membership, err := h.leaderboards.Join(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusCreated, membership)
}

// CreateInvites invites users to a leaderboard owned by the caller
// @Summary Invite Users
// @Tags Leaderboards
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param id path int true "Leaderboard id"
// @Param body body models.CreateInvitesRequest true "Invitees"
// @Success 201 {array} models.Invite
// @Router /leaderboards/{id}/invites [post]
func (h *Handler) CreateInvites(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid leaderboard id")
		return
	}

	var req models.CreateInvitesRequest
	if !h.decodeJSON(w, r, &req) {
		return
	}

	invites, err := h.leaderboards.Invite(r.Context(), id, userIDFromContext(r.Context()), req)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if invites == nil {
		invites = []models.Invite{}
	}
	h.jsonResponse(w, http.StatusCreated, invites)
}
