package ratelimit

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	quotaRemaining = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reddit_ratelimit_remaining",
		Help: "Requests remaining in the current Reddit quota window",
	})

	quotaUsed = promauto.NewGauge(prometheus.GaugeOpts{
		Name: "reddit_ratelimit_used",
		Help: "Requests used in the current Reddit quota window",
	})

	quotaBlocksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reddit_ratelimit_blocks_total",
		Help: "Requests held back until the quota window reset",
	})

	quotaThrottlesTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "reddit_ratelimit_throttles_total",
		Help: "Requests sent while the quota was in the warning band",
	})

	pacingSeconds = promauto.NewCounter(prometheus.CounterOpts{
		Name: "flaircensus_pacing_seconds_total",
		Help: "Total time spent in inter-page pacing delays",
	})
)
