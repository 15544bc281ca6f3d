// Package metrics exposes the pipeline's Prometheus collectors. Registered
// once via promauto; scraped from the operator server's /metrics endpoint.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// BetsProposed counts bet proposals surviving the filter cascade,
	// labelled by bet type.
	BetsProposed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autobet_bets_proposed_total",
		Help: "Bet proposals produced by the generator cascade.",
	}, []string{"bet_type"})

	// OrdersTotal counts purchase orders by final status.
	OrdersTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "autobet_orders_total",
		Help: "Purchase orders by final status.",
	}, []string{"status"})

	// OddsFetchRetries counts odds-feed retry attempts.
	OddsFetchRetries = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autobet_odds_fetch_retries_total",
		Help: "Odds feed fetch retries after timeout or 5xx.",
	})

	// ExecutorDuration observes wall-clock time of executor invocations.
	ExecutorDuration = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "autobet_executor_duration_seconds",
		Help:    "Duration of bet executor invocations.",
		Buckets: prometheus.DefBuckets,
	})

	// SchedulesCreated counts one-shot schedules created by the orchestrator.
	SchedulesCreated = promauto.NewCounter(prometheus.CounterOpts{
		Name: "autobet_schedules_created_total",
		Help: "One-shot race schedules created.",
	})
)
