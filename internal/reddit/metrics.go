package reddit

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/qepting91/flair-census/internal/domain"
)

const (
	modeAPI    = "api"
	modePublic = "public"
)

var (
	listingRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "reddit_listing_requests_total",
		Help: "Listing requests by client mode, ordering and outcome",
	}, []string{"mode", "ordering", "status"})

	listingRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "reddit_listing_request_duration_seconds",
		Help:    "Listing request duration by client mode",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10},
	}, []string{"mode"})
)

func observeRequest(mode string, o domain.Ordering, err error, d time.Duration) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	listingRequestsTotal.WithLabelValues(mode, string(o), status).Inc()
	listingRequestDuration.WithLabelValues(mode).Observe(d.Seconds())
}
