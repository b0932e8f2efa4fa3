package metrics

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Settlement wraps the collectors for the cancellation and payout workflows.
type Settlement struct {
	cancellations  *prometheus.CounterVec
	reviews        *prometheus.CounterVec
	refunds        *prometheus.CounterVec
	payouts        *prometheus.CounterVec
	payoutDuration prometheus.Histogram
}

var (
	once     sync.Once
	registry *Settlement
)

// Default returns the process-wide collectors, registering them on first use.
func Default() *Settlement {
	once.Do(func() {
		registry = &Settlement{
			cancellations: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "settlement",
				Name:      "cancellations_total",
				Help:      "Booking cancellations by initiator and whether review was required.",
			}, []string{"initiator", "review_required"}),
			reviews: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "settlement",
				Name:      "reviews_total",
				Help:      "Resolved cancellation reviews by decision.",
			}, []string{"decision"}),
			refunds: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "settlement",
				Name:      "refunds_total",
				Help:      "Refund executions by result.",
			}, []string{"result"}),
			payouts: prometheus.NewCounterVec(prometheus.CounterOpts{
				Namespace: "settlement",
				Name:      "payouts_total",
				Help:      "Payout executions by result.",
			}, []string{"result"}),
			payoutDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
				Namespace: "settlement",
				Name:      "payout_duration_seconds",
				Help:      "Time spent executing payout transfers.",
				Buckets:   prometheus.DefBuckets,
			}),
		}
		prometheus.MustRegister(
			registry.cancellations,
			registry.reviews,
			registry.refunds,
			registry.payouts,
			registry.payoutDuration,
		)
	})
	return registry
}

func (m *Settlement) RecordCancellation(initiator string, reviewRequired bool) {
	if m == nil {
		return
	}
	review := "false"
	if reviewRequired {
		review = "true"
	}
	m.cancellations.WithLabelValues(initiator, review).Inc()
}

func (m *Settlement) RecordReview(decision string) {
	if m == nil {
		return
	}
	m.reviews.WithLabelValues(decision).Inc()
}

func (m *Settlement) RecordRefund(result string) {
	if m == nil {
		return
	}
	m.refunds.WithLabelValues(result).Inc()
}

func (m *Settlement) RecordPayout(result string, d time.Duration) {
	if m == nil {
		return
	}
	m.payouts.WithLabelValues(result).Inc()
	if d > 0 {
		m.payoutDuration.Observe(d.Seconds())
	}
}
