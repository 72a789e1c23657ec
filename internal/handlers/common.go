package handlers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/osuchan/stats-api/internal/logic"
	"github.com/osuchan/stats-api/internal/osu"
)

type contextKey string

const (
	userIDKey    contextKey = "user_id"
	requestIDKey contextKey = "request_id"
)

// Health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	h.jsonResponse(w, http.StatusOK, map[string]interface{}{
		"status":    "ok",
		"timestamp": time.Now().UTC(),
	})
}

// Ready check endpoint
func (h *Handler) Ready(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	checks := map[string]bool{
		"postgres":   h.pg.Ping(ctx) == nil,
		"clickhouse": h.ch.Ping(ctx) == nil,
		"redis":      h.redis.Ping(ctx).Err() == nil,
	}

	allHealthy := true
	for _, ok := range checks {
		if !ok {
			allHealthy = false
			break
		}
	}

	status := http.StatusOK
	if !allHealthy {
		status = http.StatusServiceUnavailable
	}
	h.jsonResponse(w, status, map[string]interface{}{
		"ready":      allHealthy,
		"checks":     checks,
		"queueDepth": h.history.QueueDepth(),
	})
}

// RequestID tags every request with an id, reusing the caller's X-Request-ID.
func (h *Handler) RequestID(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id := r.Header.Get("X-Request-ID")
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		w.Header().Set("X-Request-ID", id)
		next.ServeHTTP(w, r.WithContext(context.WithValue(r.Context(), requestIDKey, id)))
	})
}

// SessionMiddleware resolves an optional bearer token. A present but invalid
// token is rejected; a missing one leaves the request anonymous.
func (h *Handler) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			next.ServeHTTP(w, r)
			return
		}

		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := h.sessions.Parse(token)
		if err != nil {
			h.logger.Infow("Rejected session token", "error", err, "request", requestID(r.Context()))
			h.errorResponse(w, http.StatusUnauthorized, "Invalid session token")
			return
		}

		ctx := context.WithValue(r.Context(), userIDKey, userID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireSession rejects anonymous requests.
func (h *Handler) RequireSession(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if userIDFromContext(r.Context()) == 0 {
			h.errorResponse(w, http.StatusUnauthorized, "Authentication required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// userIDFromContext returns the session user, or 0 for anonymous requests.
func userIDFromContext(ctx context.Context) int64 {
	id, _ := ctx.Value(userIDKey).(int64)
	return id
}

func requestID(ctx context.Context) string {
	id, _ := ctx.Value(requestIDKey).(string)
	return id
}

func (h *Handler) jsonResponse(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func (h *Handler) errorResponse(w http.ResponseWriter, status int, message string) {
	h.jsonResponse(w, status, map[string]string{"error": message})
}

// writeServiceError maps service sentinels to HTTP statuses. Anything
// unclassified is logged and reported as a 500.
func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, context.Canceled):
		// Client went away
		return
	case errors.Is(err, logic.ErrInvalidInput):
		h.errorResponse(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, logic.ErrNotFoundUpstream):
		h.errorResponse(w, http.StatusNotFound, "User not found on osu!")
	case errors.Is(err, logic.ErrNotFoundLocal):
		h.errorResponse(w, http.StatusNotFound, "Not found")
	case errors.Is(err, logic.ErrUpstream):
		h.logger.Warnw("Upstream failure", "path", r.URL.Path, "error", err, "request", requestID(r.Context()))
		h.errorResponse(w, http.StatusBadGateway, "osu! API unavailable")
	case errors.Is(err, logic.ErrForbidden):
		h.errorResponse(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, logic.ErrConflict):
		h.errorResponse(w, http.StatusConflict, err.Error())
	default:
		h.logger.Errorw("Request failed", "path", r.URL.Path, "error", err, "request", requestID(r.Context()))
		h.errorResponse(w, http.StatusInternalServerError, "Internal server error")
	}
}

// decodeJSON reads a size-limited body into dst and validates it.
func (h *Handler) decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) bool {
	r.Body = http.MaxBytesReader(w, r.Body, MaxBodySize)
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, "Invalid JSON body")
		return false
	}
	if err := h.validator.Struct(dst); err != nil {
		h.errorResponse(w, http.StatusBadRequest, validationMessage(err))
		return false
	}
	return true
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	fe := verrs[0]
	return fmt.Sprintf("Field %s failed on %s", fe.Namespace(), fe.Tag())
}

// idParam parses a positive int64 path parameter.
func idParam(r *http.Request, name string) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, name), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func gamemodeParam(r *http.Request) (osu.Gamemode, bool) {
	mode, err := osu.ParseGamemode(chi.URLParam(r, "gamemode"))
	return mode, err == nil
}

// pagination reads limit and page query parameters.
func pagination(r *http.Request, defaultLimit, maxLimit int) (limit, offset int) {
	limit = defaultLimit
	page := 1
	if l := r.URL.Query().Get("limit"); l != "" {
		if parsed, err := strconv.Atoi(l); err == nil && parsed > 0 && parsed <= maxLimit {
			limit = parsed
		}
	}
	if p := r.URL.Query().Get("page"); p != "" {
		if parsed, err := strconv.Atoi(p); err == nil && parsed > 0 {
			page = parsed
		}
	}
	return limit, (page - 1) * limit
}
