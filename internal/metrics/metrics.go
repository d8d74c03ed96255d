// Package metrics provides Prometheus-based metrics recording for AI agent
// calls, mirroring the counters the surrounding dashboards expect.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Recorder collects counters and timers for the AI agent client.
type Recorder struct {
	callsTotal    *prometheus.CounterVec
	callDuration  *prometheus.HistogramVec
	modelRequests *prometheus.CounterVec
	rateLimits    prometheus.Counter
}

// NewRecorder registers the agent metrics on the default registry.
func NewRecorder() *Recorder {
	return &Recorder{
		callsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_calls_total",
				Help: "Total AI agent calls by operation and outcome",
			},
			[]string{"operation", "outcome"},
		),
		callDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "agent_call_duration_seconds",
				Help:    "Duration of AI agent calls in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"operation"},
		),
		modelRequests: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "agent_model_requests_total",
				Help: "Chat-completion requests by model tier (primary or fallback)",
			},
			[]string{"tier"},
		),
		rateLimits: promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "agent_rate_limits_total",
				Help: "Rate-limit responses received from the chat provider",
			},
		),
	}
}

// ObserveCall records one completed agent operation.
func (r *Recorder) ObserveCall(operation string, err error, duration time.Duration) {
	if r == nil {
		return
	}
	outcome := "success"
	if err != nil {
		outcome = "error"
	}
	r.callsTotal.WithLabelValues(operation, outcome).Inc()
	r.callDuration.WithLabelValues(operation).Observe(duration.Seconds())
}

// ObserveModelRequest records which model tier served a chat completion.
func (r *Recorder) ObserveModelRequest(tier string) {
	if r == nil {
		return
	}
	r.modelRequests.WithLabelValues(tier).Inc()
}

// ObserveRateLimit records a 429 from the chat provider.
func (r *Recorder) ObserveRateLimit() {
	if r == nil {
		return
	}
	r.rateLimits.Inc()
}
