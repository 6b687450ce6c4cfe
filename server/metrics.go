package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// render outcomes
const (
	outcomeOK     = "ok"
	outcomeEmpty  = "empty"
	outcomeError  = "error"
	outcomeCached = "cached"
)

// Metrics are the server's prometheus collectors, kept on a private registry
// so several servers can coexist in one process.
type Metrics struct {
	registry *prometheus.Registry

	RendersTotal    *prometheus.CounterVec
	RenderDuration  *prometheus.HistogramVec
	SkippedFeatures *prometheus.CounterVec
	CacheHits       prometheus.Counter
	CacheMisses     prometheus.Counter
}

// NewMetrics registers the collectors on a fresh registry
func NewMetrics() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		RendersTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_map_renders_total",
			Help: "Map renders by metric and outcome",
		}, []string{"metric", "outcome"}),
		RenderDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "scout_map_render_duration_seconds",
			Help:    "Map build duration in seconds",
			Buckets: []float64{.001, .005, .01, .02, .05, .1, .2, .5, 1},
		}, []string{"format"}),
		SkippedFeatures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "scout_map_skipped_features_total",
			Help: "Features dropped from a render because of malformed geometry",
		}, []string{"metric"}),
		CacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scout_map_cache_hits_total",
			Help: "Rendered map cache hits",
		}),
		CacheMisses: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "scout_map_cache_misses_total",
			Help: "Rendered map cache misses",
		}),
	}
	m.registry.MustRegister(
		m.RendersTotal,
		m.RenderDuration,
		m.SkippedFeatures,
		m.CacheHits,
		m.CacheMisses,
	)
	return m
}

// Handler exposes the registry
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}
