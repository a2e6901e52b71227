// Package metrics provides Prometheus metrics for the forensic worker:
// counters, gauges, and histograms for tasks, detectors, the queue, and
// artifact uploads.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Tasks ──────────────────────────────────────────────────────────────────

// TasksCompleted tracks completed analysis tasks by type.
var TasksCompleted = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forensic",
	Name:      "tasks_completed_total",
	Help:      "Total completed analysis tasks.",
}, []string{"type"})

// TasksFailed tracks failed analysis tasks by type and reason.
var TasksFailed = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forensic",
	Name:      "tasks_failed_total",
	Help:      "Total failed analysis tasks.",
}, []string{"type", "reason"})

// TasksSkipped tracks tasks dropped as already-processed duplicates.
var TasksSkipped = promauto.NewCounter(prometheus.CounterOpts{
	Namespace: "forensic",
	Name:      "tasks_skipped_total",
	Help:      "Total tasks skipped as duplicates.",
})

// TasksActive tracks currently executing analysis tasks.
var TasksActive = promauto.NewGauge(prometheus.GaugeOpts{
	Namespace: "forensic",
	Name:      "tasks_active",
	Help:      "Number of currently executing analysis tasks.",
})

// ─── Detectors ──────────────────────────────────────────────────────────────

// AnalysisDuration tracks detector run time in seconds by method.
var AnalysisDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "forensic",
	Name:      "analysis_duration_seconds",
	Help:      "Detector run duration in seconds.",
	Buckets:   []float64{1, 5, 10, 30, 60, 120, 300, 600},
}, []string{"method"})

// AnomalyScore tracks the anomaly score distribution by method.
var AnomalyScore = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Namespace: "forensic",
	Name:      "anomaly_score",
	Help:      "Anomaly scores produced per detector method.",
	Buckets:   []float64{0.1, 0.2, 0.3, 0.4, 0.5, 0.6, 0.7, 0.8, 0.9},
}, []string{"method"})

// ManipulationsFlagged tracks clips flagged as manipulated by method.
var ManipulationsFlagged = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forensic",
	Name:      "manipulations_flagged_total",
	Help:      "Total clips flagged as manipulated.",
}, []string{"method"})

// ─── Queue ──────────────────────────────────────────────────────────────────

// QueuePending tracks unacked messages per topic.
var QueuePending = promauto.NewGaugeVec(prometheus.GaugeOpts{
	Namespace: "forensic",
	Name:      "queue_pending_messages",
	Help:      "Unacked messages per topic.",
}, []string{"topic"})

// QueueRedeliveries tracks messages delivered more than once.
var QueueRedeliveries = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forensic",
	Name:      "queue_redeliveries_total",
	Help:      "Messages redelivered after a lapsed visibility window.",
}, []string{"topic"})

// ─── Artifacts ──────────────────────────────────────────────────────────────

// ArtifactUploads tracks artifact upload outcomes.
var ArtifactUploads = promauto.NewCounterVec(prometheus.CounterOpts{
	Namespace: "forensic",
	Name:      "artifact_uploads_total",
	Help:      "Artifact upload attempts by outcome.",
}, []string{"outcome"})

// ─── Video ──────────────────────────────────────────────────────────────────

// VideoDownloadDuration tracks input video fetch time in seconds.
var VideoDownloadDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Namespace: "forensic",
	Name:      "video_download_duration_seconds",
	Help:      "Input video download duration in seconds.",
	Buckets:   []float64{0.5, 1, 2.5, 5, 10, 30, 60, 120},
})
