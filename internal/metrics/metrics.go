// Package metrics exposes Prometheus collectors for the question pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "advisor"

// Ask outcomes.
const (
	OutcomeHit      = "hit"
	OutcomeMiss     = "miss"
	OutcomeFallback = "fallback"
)

// Recorder holds the collectors. A nil *Recorder records nothing.
type Recorder struct {
	registry *prometheus.Registry

	askTotal           *prometheus.CounterVec
	askDuration        prometheus.Histogram
	cacheInvalidations prometheus.Counter
	generationTotal    *prometheus.CounterVec
	reloadTotal        *prometheus.CounterVec
	snapshotEntries    prometheus.Gauge
}

// New registers every collector on a fresh registry, together with the Go
// runtime and process collectors.
func New() *Recorder {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	factory := promauto.With(reg)

	return &Recorder{
		registry: reg,
		askTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ask_total",
			Help:      "Questions answered, by outcome (hit, miss, fallback).",
		}, []string{"outcome"}),
		askDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ask_duration_seconds",
			Help:      "Time spent answering a question.",
			Buckets:   []float64{.0005, .001, .0025, .005, .01, .025, .05, .1, .25, .5, 1, 2.5},
		}),
		cacheInvalidations: factory.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cache_invalidations_total",
			Help:      "Wholesale result cache invalidations.",
		}),
		generationTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "generation_total",
			Help:      "Advice requests, by whether the text was generated or came from the template.",
		}, []string{"result"}),
		reloadTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reload_total",
			Help:      "Knowledge snapshot reloads, by result.",
		}, []string{"result"}),
		snapshotEntries: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "snapshot_entries",
			Help:      "Entries in the active knowledge snapshot.",
		}),
	}
}

// ObserveAsk records one answered question.
func (r *Recorder) ObserveAsk(outcome string, elapsed time.Duration) {
	if r == nil {
		return
	}
	r.askTotal.WithLabelValues(outcome).Inc()
	r.askDuration.Observe(elapsed.Seconds())
}

// CacheInvalidated records a wholesale cache invalidation.
func (r *Recorder) CacheInvalidated() {
	if r == nil {
		return
	}
	r.cacheInvalidations.Inc()
}

// Generation records where an advice text came from.
func (r *Recorder) Generation(result string) {
	if r == nil {
		return
	}
	r.generationTotal.WithLabelValues(result).Inc()
}

// Reload records a reload attempt.
func (r *Recorder) Reload(ok bool) {
	if r == nil {
		return
	}
	result := "ok"
	if !ok {
		result = "error"
	}
	r.reloadTotal.WithLabelValues(result).Inc()
}

// SetSnapshotEntries records the size of the active snapshot.
func (r *Recorder) SetSnapshotEntries(n int) {
	if r == nil {
		return
	}
	r.snapshotEntries.Set(float64(n))
}

// Registry returns the registry the collectors live on.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{Registry: r.registry})
}
