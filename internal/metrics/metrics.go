// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Generation outcomes
const (
	OutcomeSuccess     = "success"
	OutcomeUpstream    = "upstream_error"
	OutcomeMalformed   = "malformed_response"
	OutcomePersistence = "persistence_error"
	OutcomeError       = "error"
)

type Metrics struct {
	HTTPRequests       *prometheus.CounterVec
	HTTPDuration       *prometheus.HistogramVec
	Generations        *prometheus.CounterVec
	GenerationDuration prometheus.Histogram
	UpstreamDuration   *prometheus.HistogramVec
	RecipesPersisted   prometheus.Counter
	RateLimited        *prometheus.CounterVec

	gatherer prometheus.Gatherer
}

// New registers the collectors on reg. Passing nil uses a private registry,
// which keeps tests independent of each other.
func New(reg *prometheus.Registry) *Metrics {
	if reg == nil {
		reg = prometheus.NewRegistry()
	}
	factory := promauto.With(reg)

	return &Metrics{
		HTTPRequests: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fusion",
			Name:      "http_requests_total",
			Help:      "HTTP requests by route, method and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fusion",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		Generations: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fusion",
			Name:      "recipe_generations_total",
			Help:      "Recipe generation attempts by outcome.",
		}, []string{"outcome"}),
		GenerationDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "fusion",
			Name:      "recipe_generation_duration_seconds",
			Help:      "End-to-end latency of a generation request.",
			Buckets:   []float64{1, 2.5, 5, 10, 20, 30, 60, 120},
		}),
		UpstreamDuration: factory.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "fusion",
			Name:      "llm_request_duration_seconds",
			Help:      "Latency of chat-completion calls by HTTP status.",
			Buckets:   []float64{0.5, 1, 2.5, 5, 10, 20, 30, 60},
		}, []string{"status"}),
		RecipesPersisted: factory.NewCounter(prometheus.CounterOpts{
			Namespace: "fusion",
			Name:      "recipes_persisted_total",
			Help:      "Recipes written to the database.",
		}),
		RateLimited: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "fusion",
			Name:      "rate_limited_requests_total",
			Help:      "Requests rejected by the rate limiter.",
		}, []string{"limiter"}),
		gatherer: reg,
	}
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.gatherer, promhttp.HandlerOpts{})
}
