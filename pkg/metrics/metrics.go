package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// TokenUsage captures LLM token counts used to satisfy a request.
type TokenUsage struct {
	PromptTokens     int `json:"promptTokens"`
	CompletionTokens int `json:"completionTokens,omitempty"`
	TotalTokens      int `json:"totalTokens"`
}

// IsZero reports whether usage data is absent.
func (u TokenUsage) IsZero() bool {
	return u.PromptTokens == 0 && u.CompletionTokens == 0 && u.TotalTokens == 0
}

// Collector provides application metrics collection
type Collector struct {
	registry *prometheus.Registry

	// API Metrics
	APIRequestsTotal   *prometheus.CounterVec
	APIRequestDuration *prometheus.HistogramVec
	APIErrorsTotal     *prometheus.CounterVec

	// Upstream Metrics
	ProviderRequestDuration *prometheus.HistogramVec
	GeocodeCacheTotal       *prometheus.CounterVec

	// Recommendation Metrics
	RecommendationsTotal *prometheus.CounterVec
	LLMTokensTotal       *prometheus.CounterVec
}

// NewCollector creates a collector backed by its own registry so that
// several collectors can coexist in tests.
func NewCollector(namespace string) *Collector {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Collector{
		registry: reg,

		APIRequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_requests_total",
				Help:      "Total number of API requests by endpoint, method, and status",
			},
			[]string{"endpoint", "method", "status"},
		),

		APIRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "api_request_duration_seconds",
				Help:      "API request duration in seconds",
				Buckets:   []float64{0.005, 0.01, 0.02, 0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"endpoint"},
		),

		APIErrorsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "api_errors_total",
				Help:      "Total number of API errors by code",
			},
			[]string{"error_code", "endpoint"},
		),

		ProviderRequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "provider_request_duration_seconds",
				Help:      "Weather provider call duration in seconds by operation",
				Buckets:   []float64{0.05, 0.1, 0.2, 0.5, 1.0, 2.0, 5.0, 10.0},
			},
			[]string{"operation"},
		),

		GeocodeCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "geocode_cache_lookups_total",
				Help:      "Geocode cache lookups by result",
			},
			[]string{"result"}, // "hit", "miss", "error"
		),

		RecommendationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "recommendations_total",
				Help:      "Recommendations served by source",
			},
			[]string{"source"},
		),

		LLMTokensTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "llm_tokens_total",
				Help:      "LLM tokens consumed by model and kind",
			},
			[]string{"model", "kind"},
		),
	}
}

// Handler exposes the collector registry in the Prometheus text format.
func (c *Collector) Handler() http.Handler {
	return promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})
}

// RecordAPIRequest increments API request counter
func (c *Collector) RecordAPIRequest(endpoint, method, status string) {
	c.APIRequestsTotal.WithLabelValues(endpoint, method, status).Inc()
}

// RecordAPIError increments API error counter
func (c *Collector) RecordAPIError(code, endpoint string) {
	c.APIErrorsTotal.WithLabelValues(code, endpoint).Inc()
}

// ObserveProvider records how long a provider operation took.
func (c *Collector) ObserveProvider(operation string, seconds float64) {
	c.ProviderRequestDuration.WithLabelValues(operation).Observe(seconds)
}

// RecordGeocodeCache counts a cache lookup outcome.
func (c *Collector) RecordGeocodeCache(result string) {
	c.GeocodeCacheTotal.WithLabelValues(result).Inc()
}

// RecordRecommendation counts a served recommendation.
func (c *Collector) RecordRecommendation(source string) {
	c.RecommendationsTotal.WithLabelValues(source).Inc()
}

// ObserveTokens adds LLM token usage.
func (c *Collector) ObserveTokens(model string, usage TokenUsage) {
	c.LLMTokensTotal.WithLabelValues(model, "prompt").Add(float64(usage.PromptTokens))
	c.LLMTokensTotal.WithLabelValues(model, "completion").Add(float64(usage.CompletionTokens))
}
