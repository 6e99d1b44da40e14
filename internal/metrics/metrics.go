package metrics

import (
	"net/http"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const (
	ReasonUnavailable = "unavailable"
	ReasonCall        = "call"
	ReasonEmpty       = "empty"
	ReasonMalformed   = "malformed"
	ReasonPanic       = "panic"
)

// LabelOther replaces any sentiment outside the known set.
const LabelOther = "OTHER"

var knownSentiments = map[string]bool{
	"POSITIVE": true,
	"NEGATIVE": true,
	"NEUTRAL":  true,
	"ERROR":    true,
}

// Metrics is safe to use through a nil pointer; every recorder is then a no-op.
type Metrics struct {
	registry         *prometheus.Registry
	chatRequests     *prometheus.CounterVec
	modelFailures    *prometheus.CounterVec
	validationErrors prometheus.Counter
	modelLatency     prometheus.Histogram
}

// New creates the collectors on a private registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		chatRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_requests_total",
			Help: "Chat messages answered, by sentiment label.",
		}, []string{"sentiment"}),
		modelFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "chat_model_failures_total",
			Help: "Model calls that degraded to the fallback result, by reason.",
		}, []string{"reason"}),
		validationErrors: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "chat_validation_errors_total",
			Help: "Chat requests rejected before reaching the model.",
		}),
		modelLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "chat_model_latency_seconds",
			Help:    "Latency of outbound model calls.",
			Buckets: prometheus.DefBuckets,
		}),
	}

	m.registry.MustRegister(m.chatRequests, m.modelFailures, m.validationErrors, m.modelLatency)
	return m
}

// RecordChat counts one answered message. The label comes from the model, so
// it is folded into a fixed set to keep the series count bounded.
func (m *Metrics) RecordChat(sentiment string) {
	if m == nil {
		return
	}
	m.chatRequests.WithLabelValues(SentimentLabel(sentiment)).Inc()
}

// SentimentLabel maps a free-form sentiment to POSITIVE, NEGATIVE, NEUTRAL,
// ERROR or OTHER.
func SentimentLabel(sentiment string) string {
	label := strings.ToUpper(strings.TrimSpace(sentiment))
	if knownSentiments[label] {
		return label
	}
	return LabelOther
}

// RecordModelFailure counts a fallback by one of the Reason* constants.
func (m *Metrics) RecordModelFailure(reason string) {
	if m == nil {
		return
	}
	m.modelFailures.WithLabelValues(reason).Inc()
}

// RecordValidationError counts a chat request rejected with 400.
func (m *Metrics) RecordValidationError() {
	if m == nil {
		return
	}
	m.validationErrors.Inc()
}

func (m *Metrics) ObserveModelLatency(d time.Duration) {
	if m == nil {
		return
	}
	m.modelLatency.Observe(d.Seconds())
}

// Registry is the gatherer behind Handler.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
