package responder

import (
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics are the responder's Prometheus collectors.
type Metrics struct {
	Replies          *prometheus.CounterVec
	Advances         *prometheus.CounterVec
	ProviderErrors   prometheus.Counter
	RateLimited      prometheus.Counter
	SessionsSwept    prometheus.Counter
	GenerateDuration prometheus.Histogram
}

// NewMetrics creates the collectors and registers them. activeSessions, when
// set, is exported as a gauge.
func NewMetrics(reg prometheus.Registerer, activeSessions func() int) *Metrics {
	m := &Metrics{
		Replies: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smart_response",
			Name:      "replies_total",
			Help:      "Replies sent, by kind.",
		}, []string{"kind"}),
		Advances: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "smart_response",
			Name:      "step_advances_total",
			Help:      "Next-step requests, by outcome.",
		}, []string{"outcome"}),
		ProviderErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smart_response",
			Name:      "provider_errors_total",
			Help:      "Failed generation calls.",
		}),
		RateLimited: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smart_response",
			Name:      "rate_limited_total",
			Help:      "Generation requests refused by the rate limiter.",
		}),
		SessionsSwept: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "smart_response",
			Name:      "sessions_swept_total",
			Help:      "Walkthroughs removed by the idle sweep.",
		}),
		GenerateDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "smart_response",
			Name:      "generate_duration_seconds",
			Help:      "Latency of generation calls.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 8),
		}),
	}
	if reg == nil {
		return m
	}
	reg.MustRegister(m.Replies, m.Advances, m.ProviderErrors, m.RateLimited, m.SessionsSwept, m.GenerateDuration)
	if activeSessions != nil {
		reg.MustRegister(prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "smart_response",
			Name:      "active_sessions",
			Help:      "Walkthroughs currently held in memory.",
		}, func() float64 { return float64(activeSessions()) }))
	}
	return m
}
