// Package metrics holds the Prometheus collectors exposed on the metrics
// port.
package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/MikeSquared-Agency/Credia/internal/scoring"
)

// Score sources.
const (
	SourcePreScore   = "prescore"
	SourceSubmission = "submission"
	SourceNATS       = "nats"
	SourceSeed       = "seed"
)

var (
	InvoicesScored = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credia_invoices_scored_total",
		Help: "Invoices scored, by entry point and decision.",
	}, []string{"source", "decision"})

	InvoiceScore = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "credia_invoice_score",
		Help:    "Distribution of composite invoice scores.",
		Buckets: prometheus.LinearBuckets(10, 10, 10),
	})

	FeePercent = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "credia_fee_percent",
		Help:    "Distribution of suggested financing fees.",
		Buckets: prometheus.LinearBuckets(1.5, 0.5, 10),
	})

	DocCompleteness = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "credia_doc_completeness",
		Help:    "Document completeness derived from simulated extraction.",
		Buckets: []float64{40, 55, 70, 85, 100},
	})

	DealTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "credia_deal_transitions_total",
		Help: "Deal status transitions performed by admin actions.",
	}, []string{"from", "to"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "credia_http_request_duration_seconds",
		Help:    "HTTP request latency.",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route", "status"})
)

// ObserveScore records one scoring result.
func ObserveScore(source string, r scoring.Result) {
	InvoicesScored.WithLabelValues(source, string(r.Decision)).Inc()
	InvoiceScore.Observe(float64(r.Score))
	FeePercent.Observe(r.Pricing.FeePercent)
}

func ObserveDocCompleteness(pct int) {
	DocCompleteness.Observe(float64(pct))
}

func ObserveTransition(from, to string) {
	DealTransitions.WithLabelValues(from, to).Inc()
}

func ObserveHTTPRequest(method, route string, status int, d time.Duration) {
	HTTPRequestDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
