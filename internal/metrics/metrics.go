// Package metrics provides Prometheus metrics for list refreshes and job batches.
// Label values are drawn from small fixed sets; never label by session or course id.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// List refresh outcomes.
const (
	OutcomeOK       = "ok"
	OutcomeEmpty    = "empty"
	OutcomeError    = "error"
	OutcomeRejected = "rejected"
	OutcomeStale    = "stale"
)

var (
	// ListRefreshTotal counts source/target list refreshes by outcome.
	ListRefreshTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_list_refresh_total",
		Help: "Total number of list refreshes, by list (source/target), operation and outcome.",
	}, []string{"list", "operation", "outcome"})

	// ListSize tracks the number of rows currently held by each list.
	ListSize = promauto.NewGaugeVec(prometheus.GaugeOpts{
		Name: "classroom_list_size",
		Help: "Current number of rows in the source and target lists.",
	}, []string{"list"})

	// JobsSubmittedTotal counts jobs handed to the task queue by kind.
	JobsSubmittedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_jobs_submitted_total",
		Help: "Total number of download jobs handed to the task queue, by kind.",
	}, []string{"kind"})

	// SubtitleBatchesTotal counts subtitle batches by outcome (completed/partial/failed).
	SubtitleBatchesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_subtitle_batches_total",
		Help: "Total number of subtitle batch requests, by outcome.",
	}, []string{"outcome"})

	// SubtitleSessionsTotal counts per-session subtitle results.
	SubtitleSessionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_subtitle_sessions_total",
		Help: "Total number of sessions processed by subtitle batches, by result.",
	}, []string{"result"})

	// AutoSyncTotal counts auto-download runs by outcome.
	AutoSyncTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "classroom_auto_sync_total",
		Help: "Total number of auto-download runs, by outcome.",
	}, []string{"outcome"})
)

// Handler serves the default registry.
func Handler() http.Handler {
	return promhttp.Handler()
}
