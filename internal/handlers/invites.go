package handlers

import (
	"net/http"

	"github.com/osuchan/stats-api/internal/models"
)

// ListInvites returns the caller's pending invites
// @Summary My Invites
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.InviteView
// @Router /me/invites [get]
func (h *Handler) ListInvites(w http.ResponseWriter, r *http.Request) {
	invites, err := h.leaderboards.ListInvites(r.Context(), userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	if invites == nil {
		invites = []models.InviteView{}
	}
	h.jsonResponse(w, http.StatusOK, invites)
}

// AcceptInvite joins the invited leaderboard
// @Summary Accept Invite
// @Tags Invites
// @Produce json
// @Security BearerAuth
// @Param id path int true "Invite id"
// @Success 200 {object} models.Membership
// @Failure 404 {object} map[string]string
// @Router /me/invites/{id}/accept [post]
func (h *Handler) AcceptInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid invite id")
		return
	}

	membership, err := h.leaderboards.AcceptInvite(r.Context(), id, userIDFromContext(r.Context()))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	h.jsonResponse(w, http.StatusOK, membership)
}

// DeclineInvite drops a pending invite
// @Summary Decline Invite
// @Tags Invites
// @Security BearerAuth
// @Param id path int true "Invite id"
// @Success 204
// @Router /me/invites/{id}/decline [post]
func (h *Handler) DeclineInvite(w http.ResponseWriter, r *http.Request) {
	id, ok := idParam(r, "id")
	if !ok {
		h.errorResponse(w, http.StatusBadRequest, "Invalid invite id")
		return
	}

	if err := h.leaderboards.DeclineInvite(r.Context(), id, userIDFromContext(r.Context())); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
