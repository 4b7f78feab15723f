// Package metrics provides Prometheus metrics for Blogster.
package metrics

import (
	"errors"
	"strconv"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"impractical.co/blogster/internal/content"
)

const namespace = "blogster"

// Metrics holds every collector the site exports. A nil *Metrics is valid
// and records nothing.
type Metrics struct {
	// FetchesTotal counts content API calls by resource kind and outcome.
	FetchesTotal *prometheus.CounterVec

	// PageCacheTotal counts page cache lookups by route and outcome
	// (hit, stale, miss, bypass, error).
	PageCacheTotal *prometheus.CounterVec

	// RegenerationsTotal counts background regenerations of stale pages
	// by outcome.
	RegenerationsTotal *prometheus.CounterVec

	// RenderDuration measures how long producing a page body took.
	RenderDuration *prometheus.HistogramVec
}

// New registers the collectors on reg and returns them.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)
	return &Metrics{
		FetchesTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "content_fetches_total",
				Help:      "Total number of content API requests",
			},
			[]string{"resource", "status"},
		),
		PageCacheTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_cache_total",
				Help:      "Total number of page cache lookups",
			},
			[]string{"route", "outcome"},
		),
		RegenerationsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "page_regenerations_total",
				Help:      "Total number of background page regenerations",
			},
			[]string{"outcome"},
		),
		RenderDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "page_render_duration_seconds",
				Help:      "Duration of page data loading and rendering in seconds",
				Buckets:   prometheus.DefBuckets,
			},
			[]string{"route"},
		),
	}
}

// ObserveFetch implements content.Recorder. Resources are reduced to their
// collection ("/posts/3" becomes "posts") to keep label cardinality fixed.
func (m *Metrics) ObserveFetch(resource string, statusCode int, err error) {
	if m == nil {
		return
	}
	status := strconv.Itoa(statusCode)
	var failure *content.FetchFailure
	if errors.As(err, &failure) && failure.StatusCode == 0 {
		status = "transport_error"
	}
	m.FetchesTotal.WithLabelValues(collection(resource), status).Inc()
}

// ObservePage records a page cache outcome for route.
func (m *Metrics) ObservePage(route, outcome string) {
	if m == nil {
		return
	}
	m.PageCacheTotal.WithLabelValues(route, outcome).Inc()
}

// ObserveRegeneration records the outcome of a background regeneration.
func (m *Metrics) ObserveRegeneration(err error) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.RegenerationsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRender records how long rendering route took.
func (m *Metrics) ObserveRender(route string, seconds float64) {
	if m == nil {
		return
	}
	m.RenderDuration.WithLabelValues(route).Observe(seconds)
}

func collection(resource string) string {
	for i := 1; i < len(resource); i++ {
		if resource[i] == '/' {
			return resource[1:i]
		}
	}
	if len(resource) > 0 && resource[0] == '/' {
		return resource[1:]
	}
	return resource
}
