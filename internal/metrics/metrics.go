package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

// Registry holds all Prometheus metrics.
type Registry struct {
	*prometheus.Registry

	// HTTP metrics
	httpRequestsTotal    *prometheus.CounterVec
	httpRequestDuration  *prometheus.HistogramVec
	httpRequestsInFlight prometheus.Gauge

	// Chat metrics
	chatRequestsTotal   *prometheus.CounterVec
	chatRequestDuration prometheus.Histogram
	tokensConsumed      *prometheus.CounterVec
	tokenRefreshes      prometheus.Counter
	transcriptsArchived *prometheus.CounterVec
}

// NewRegistry creates a new metrics registry with all metrics registered.
func NewRegistry() *Registry {
	reg := prometheus.NewRegistry()

	// Register Go runtime metrics
	reg.MustRegister(collectors.NewGoCollector())
	reg.MustRegister(collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	r := &Registry{
		Registry: reg,

		httpRequestsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "http_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),

		httpRequestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "http_request_duration_seconds",
				Help:    "HTTP request duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"method", "path"},
		),

		httpRequestsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "http_requests_in_flight",
				Help: "Number of HTTP requests currently in flight",
			},
		),
	}

	reg.MustRegister(r.httpRequestsTotal)
	reg.MustRegister(r.httpRequestDuration)
	reg.MustRegister(r.httpRequestsInFlight)

	// Chat metrics
	r.chatRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azchat_requests_total",
			Help: "Total number of chat completion requests",
		},
		[]string{"outcome"},
	)
	r.chatRequestDuration = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "azchat_request_duration_seconds",
			Help:    "Chat completion round-trip duration in seconds",
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
		},
	)
	r.tokensConsumed = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azchat_tokens_consumed_total",
			Help: "Model tokens consumed, by direction",
		},
		[]string{"direction"},
	)
	r.tokenRefreshes = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "azchat_token_refreshes_total",
			Help: "Total number of Azure AD token refreshes",
		},
	)
	r.transcriptsArchived = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "azchat_transcripts_archived_total",
			Help: "Total number of transcripts written to archive storage",
		},
		[]string{"status"},
	)

	reg.MustRegister(r.chatRequestsTotal)
	reg.MustRegister(r.chatRequestDuration)
	reg.MustRegister(r.tokensConsumed)
	reg.MustRegister(r.tokenRefreshes)
	reg.MustRegister(r.transcriptsArchived)

	return r
}

// RecordRequest records metrics for an HTTP request.
func (r *Registry) RecordRequest(method, path string, status int, duration float64) {
	statusStr := statusToString(status)
	r.httpRequestsTotal.WithLabelValues(method, path, statusStr).Inc()
	r.httpRequestDuration.WithLabelValues(method, path).Observe(duration)
}

// InFlightInc increments in-flight requests.
func (r *Registry) InFlightInc() {
	r.httpRequestsInFlight.Inc()
}

// InFlightDec decrements in-flight requests.
func (r *Registry) InFlightDec() {
	r.httpRequestsInFlight.Dec()
}

// RecordChat records a completed chat call. Outcome is "ok" or the error
// code that aborted the call.
func (r *Registry) RecordChat(outcome string, duration float64) {
	if r == nil {
		return
	}
	r.chatRequestsTotal.WithLabelValues(outcome).Inc()
	r.chatRequestDuration.Observe(duration)
}

// RecordUsage records model token consumption for one exchange.
func (r *Registry) RecordUsage(inputTokens, outputTokens int) {
	if r == nil {
		return
	}
	r.tokensConsumed.WithLabelValues("input").Add(float64(inputTokens))
	r.tokensConsumed.WithLabelValues("output").Add(float64(outputTokens))
}

// RecordTokenRefresh records an Azure AD token refresh.
func (r *Registry) RecordTokenRefresh() {
	if r == nil {
		return
	}
	r.tokenRefreshes.Inc()
}

// RecordTranscript records a transcript archive attempt.
func (r *Registry) RecordTranscript(status string) {
	if r == nil {
		return
	}
	r.transcriptsArchived.WithLabelValues(status).Inc()
}

func statusToString(status int) string {
	switch {
	case status >= 500:
		return "5xx"
	case status >= 400:
		return "4xx"
	case status >= 300:
		return "3xx"
	case status >= 200:
		return "2xx"
	default:
		return "1xx"
	}
}
