package observability

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Auth outcome labels
const (
	OutcomeAuthenticated = "authenticated"
	OutcomeAnonymous     = "anonymous"
	OutcomeMissingToken  = "missing_token"
	OutcomeRejected      = "rejected"
	OutcomeUnavailable   = "unavailable"
	OutcomeInternalError = "internal_error"
)

// AuthMetrics records outcomes of the authentication path.
type AuthMetrics interface {
	RecordAuthOutcome(mode, outcome string)
	RecordKeyFetch(success bool, duration time.Duration)
	RecordKeyFetchThrottled()
}

// Collector is the Prometheus implementation of AuthMetrics.
type Collector struct {
	authRequests     *prometheus.CounterVec
	keyFetches       *prometheus.CounterVec
	keyFetchLatency  prometheus.Histogram
	keyFetchThrottle prometheus.Counter
}

// NewCollector creates a Collector and registers it with reg.
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		authRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspace_auth_requests_total",
			Help: "Requests seen by the authentication gate by mode and outcome.",
		}, []string{"mode", "outcome"}),
		keyFetches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "workspace_jwks_fetches_total",
			Help: "Outbound JWKS fetches by result.",
		}, []string{"result"}),
		keyFetchLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "workspace_jwks_fetch_duration_seconds",
			Help:    "Latency of outbound JWKS fetches.",
			Buckets: prometheus.DefBuckets,
		}),
		keyFetchThrottle: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "workspace_jwks_fetch_throttled_total",
			Help: "JWKS fetches refused by the outbound rate limit.",
		}),
	}

	reg.MustRegister(
		c.authRequests,
		c.keyFetches,
		c.keyFetchLatency,
		c.keyFetchThrottle,
	)
	return c
}

// RecordAuthOutcome counts one gate decision.
func (c *Collector) RecordAuthOutcome(mode, outcome string) {
	c.authRequests.WithLabelValues(mode, outcome).Inc()
}

// RecordKeyFetch counts one JWKS fetch and observes its latency.
func (c *Collector) RecordKeyFetch(success bool, duration time.Duration) {
	result := "success"
	if !success {
		result = "failure"
	}
	c.keyFetches.WithLabelValues(result).Inc()
	c.keyFetchLatency.Observe(duration.Seconds())
}

// RecordKeyFetchThrottled counts a fetch refused by the rate limiter.
func (c *Collector) RecordKeyFetchThrottled() {
	c.keyFetchThrottle.Inc()
}

// Handler returns the /metrics handler for the given gatherer.
func Handler(g prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(g, promhttp.HandlerOpts{})
}

// NopMetrics discards everything.
type NopMetrics struct{}

func (NopMetrics) RecordAuthOutcome(string, string)   {}
func (NopMetrics) RecordKeyFetch(bool, time.Duration) {}
func (NopMetrics) RecordKeyFetchThrottled()           {}
