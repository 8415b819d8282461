// Package metrics exposes Prometheus metrics for served resolutions.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/mark3labs/promptr/internal/resolver"
)

// Outcome labels of promptr_resolutions_total.
const (
	OutcomeOK         = "ok"
	OutcomeNotFound   = "not_found"
	OutcomeBadRequest = "bad_request"
	OutcomeError      = "error"
)

// Recorder owns a registry and the metrics registered in it.
type Recorder struct {
	registry *prometheus.Registry

	resolutions *prometheus.CounterVec
	duration    prometheus.Histogram
	unresolved  *prometheus.CounterVec
	reloads     *prometheus.CounterVec
	catalogSize prometheus.Gauge
}

// New creates a Recorder with its own registry, including Go runtime and
// process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	f := promauto.With(reg)

	return &Recorder{
		registry: reg,
		resolutions: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptr_resolutions_total",
			Help: "Prompt resolutions, partitioned by outcome.",
		}, []string{"outcome"}),
		duration: f.NewHistogram(prometheus.HistogramOpts{
			Name:    "promptr_resolution_duration_seconds",
			Help:    "Wall-clock time of successful and failed resolutions.",
			Buckets: prometheus.ExponentialBuckets(0.0005, 4, 8),
		}),
		unresolved: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptr_unresolved_placeholders_total",
			Help: "Placeholders left in resolved text, partitioned by kind.",
		}, []string{"kind"}),
		reloads: f.NewCounterVec(prometheus.CounterOpts{
			Name: "promptr_catalog_reloads_total",
			Help: "Catalog file reloads, partitioned by result.",
		}, []string{"result"}),
		catalogSize: f.NewGauge(prometheus.GaugeOpts{
			Name: "promptr_catalog_prompts",
			Help: "Number of prompts in the served catalog.",
		}),
	}
}

// Outcome classifies a resolution error for the outcome label.
func Outcome(err error) string {
	switch resolver.StatusCode(err) {
	case http.StatusOK:
		return OutcomeOK
	case http.StatusNotFound:
		return OutcomeNotFound
	case http.StatusBadRequest:
		return OutcomeBadRequest
	default:
		return OutcomeError
	}
}

// ObserveResolution records one call to resolver.Engine.Execute.
func (r *Recorder) ObserveResolution(res *resolver.Result, err error, elapsed time.Duration) {
	r.resolutions.WithLabelValues(Outcome(err)).Inc()
	r.duration.Observe(elapsed.Seconds())
	if err != nil || res == nil || res.Metadata == nil {
		return
	}
	assets, variables, prompts := res.Metadata.Unresolved()
	r.unresolved.WithLabelValues("asset").Add(float64(assets))
	r.unresolved.WithLabelValues("variable").Add(float64(variables))
	r.unresolved.WithLabelValues("prompt").Add(float64(prompts))
}

// ObserveReload records a catalog reload attempt.
func (r *Recorder) ObserveReload(err error) {
	result := "ok"
	if err != nil {
		result = "error"
	}
	r.reloads.WithLabelValues(result).Inc()
}

// SetCatalogSize records the number of prompts currently served.
func (r *Recorder) SetCatalogSize(n int) {
	r.catalogSize.Set(float64(n))
}

// Registry returns the underlying registry.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
