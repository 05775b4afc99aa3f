// Package metrics exposes Prometheus instrumentation for the ledger core.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// ContributionsTotal counts successfully committed contributions.
	ContributionsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cakefund_contributions_total",
		Help: "Number of contributions committed to the ledger.",
	})

	// WriteConflictsTotal counts balance writes retried after losing a race.
	WriteConflictsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cakefund_write_conflicts_total",
		Help: "Number of contribution writes that hit a concurrent-update conflict.",
	})

	// RoundsClosedTotal counts emitted compensation records.
	RoundsClosedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cakefund_rounds_closed_total",
		Help: "Number of rounds closed by the round-closure detector.",
	})

	// RecomputeDuration observes full-history balance recomputation runs.
	RecomputeDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "cakefund_recompute_duration_seconds",
		Help:    "Duration of full balance recomputation runs.",
		Buckets: prometheus.DefBuckets,
	})

	// DivergencesTotal counts balances the recomputation engine had to heal.
	DivergencesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "cakefund_balance_divergences_total",
		Help: "Number of live balances found diverging from replay beyond tolerance.",
	})
)
