package handlers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var httpRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "osuchan_http_request_duration_seconds",
	Help:    "Duration of HTTP requests by route and status",
	Buckets: prometheus.DefBuckets,
}, []string{"method", "route", "status"})

type RouterOptions struct {
	AllowedOrigins []string
	// Mounts POST /api/v1/system/install
	EnableInstall bool
}

// Router builds the HTTP API.
func (h *Handler) Router(opts RouterOptions) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RealIP)
	r.Use(h.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.metrics)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   opts.AllowedOrigins,
		AllowedMethods:   []string{"GET", "POST", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	r.Get("/health", h.Health)
	r.Get("/ready", h.Ready)
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(60 * time.Second))
		r.Use(h.SessionMiddleware)

		if opts.EnableInstall {
			r.Post("/system/install", h.InstallDatabase)
		}

		r.Route("/users", func(r chi.Router) {
			r.Get("/{user}/{gamemode}", h.GetUser)
			r.Get("/{user}/{gamemode}/scores", h.ListScores)
			r.Post("/{user}/{gamemode}/scores", h.FetchScores)
			r.Get("/{user}/{gamemode}/history", h.GetHistory)
		})

		r.Route("/leaderboards", func(r chi.Router) {
			r.Get("/", h.ListLeaderboards)
			r.Get("/{id}", h.GetLeaderboard)
			r.Get("/{id}/members", h.ListMembers)
			r.Get("/{id}/members/{userID}", h.GetMember)

			r.Group(func(r chi.Router) {
				r.Use(h.RequireSession)
				r.Post("/", h.CreateLeaderboard)
				r.Delete("/{id}", h.DeleteLeaderboard)
				r.Post("/{id}/members", h.JoinLeaderboard)
				r.Post("/{id}/invites", h.CreateInvites)
			})
		})

		r.Route("/me", func(r chi.Router) {
			r.Use(h.RequireSession)
			r.Get("/", h.GetMe)
			r.Get("/invites", h.ListInvites)
			r.Post("/invites/{id}/accept", h.AcceptInvite)
			r.Post("/invites/{id}/decline", h.DeclineInvite)
		})
	})

	return r
}

// metrics records request durations labelled with the matched route pattern.
func (h *Handler) metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		httpRequestDuration.WithLabelValues(r.Method, route, strconv.Itoa(status)).Observe(time.Since(start).Seconds())
	})
}
