package census

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	statusOK            = "ok"
	statusAborted       = "aborted"
	statusPublishFailed = "publish_failed"
)

var (
	runsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "flaircensus_runs_total",
			Help: "Census runs by outcome",
		},
		[]string{"status"},
	)

	runDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "flaircensus_run_duration_seconds",
			Help:    "Wall time of a completed census collection",
			Buckets: prometheus.ExponentialBuckets(1, 4, 8),
		},
	)
)
