package logic

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	refreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osuchan_refresh_total",
		Help: "User refreshes by outcome",
	}, []string{"outcome"})

	refreshDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "osuchan_refresh_duration_seconds",
		Help:    "Duration of user refreshes that reached the upstream API",
		Buckets: prometheus.DefBuckets,
	})

	scoresIngested = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osuchan_scores_ingested_total",
		Help: "Score records reconciled against stored scores, by result",
	}, []string{"result"})

	scoresDiscarded = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "osuchan_scores_discarded_total",
		Help: "Score records dropped before reconciliation, by reason",
	}, []string{"reason"})

	membershipRecomputes = promauto.NewCounter(prometheus.CounterOpts{
		Name: "osuchan_membership_recompute_total",
		Help: "Total number of membership recomputations",
	})
)
