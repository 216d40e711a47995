// Package metrics exposes the integration core's Prometheus
// instrumentation: blocks integrated, conflicts resolved, pending-queue
// depth, and transaction commit latency (SPEC_FULL.md §11's domain-stack
// wiring for the integration core's observability).
//
// Grounded verbatim on cuemby-warren/pkg/metrics/metrics.go's shape
// (package-level collector vars, an init() registering them, a Timer
// helper for histogram observations), repurposed from warren's
// cluster/scheduler label set to this engine's integration concerns.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	// BlocksIntegratedTotal counts every block successfully committed by
	// the integration core, labeled by whether it required the Case A/B
	// conflict scan or landed with no concurrent competition.
	BlocksIntegratedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crdtstore_blocks_integrated_total",
			Help: "Total number of blocks committed by the integration core",
		},
		[]string{"conflict"},
	)

	// ConflictsResolvedTotal counts conflict-scan resolutions, labeled by
	// which tiebreak case fired.
	ConflictsResolvedTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "crdtstore_conflicts_resolved_total",
			Help: "Total number of concurrent-insert conflicts resolved",
		},
		[]string{"case"},
	)

	// PendingQueueDepth reports how many carriers are currently buffered
	// on a missing causal dependency, sampled per transaction.
	PendingQueueDepth = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "crdtstore_pending_queue_depth",
			Help: "Carriers currently buffered awaiting a missing dependency",
		},
	)

	// DeleteSetBlocksTombstoned counts blocks converted to ContentDeleted
	// by ApplyDeleteSet, including ones immediately merged into a
	// neighboring tombstone.
	DeleteSetBlocksTombstoned = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crdtstore_delete_set_blocks_tombstoned_total",
			Help: "Total number of blocks tombstoned by delete-set application",
		},
	)

	// TransactionCommitDuration measures wall time from Begin to a
	// successful Commit.
	TransactionCommitDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "crdtstore_transaction_commit_duration_seconds",
			Help:    "Time from transaction begin to commit in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)

	// TransactionsIncompleteTotal counts commits that failed with
	// errs.ErrUpdateIncomplete because carriers were still pending.
	TransactionsIncompleteTotal = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "crdtstore_transactions_incomplete_total",
			Help: "Total number of transactions that failed to commit due to unresolved dependencies",
		},
	)
)

func init() {
	prometheus.MustRegister(
		BlocksIntegratedTotal,
		ConflictsResolvedTotal,
		PendingQueueDepth,
		DeleteSetBlocksTombstoned,
		TransactionCommitDuration,
		TransactionsIncompleteTotal,
	)
}

// Timer measures elapsed time for a single transaction commit.
type Timer struct {
	start time.Time
}

// NewTimer starts a timer.
func NewTimer() *Timer {
	return &Timer{start: time.Now()}
}

// ObserveDuration records the elapsed time to histogram.
func (t *Timer) ObserveDuration(histogram prometheus.Histogram) {
	histogram.Observe(time.Since(t.start).Seconds())
}
