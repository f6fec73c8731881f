package collector

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	pagesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flaircensus_pages_total",
		Help: "Listing pages received by ordering",
	}, []string{"ordering"})

	itemsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flaircensus_items_total",
		Help: "Unique posts collected by ordering",
	}, []string{"ordering"})

	duplicatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flaircensus_duplicates_total",
		Help: "Posts dropped because they were already collected",
	}, []string{"ordering"})

	exhaustedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "flaircensus_exhausted_total",
		Help: "Collections that ended before reaching their target",
	}, []string{"ordering"})
)
