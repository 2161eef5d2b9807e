// Package metrics exposes Prometheus collectors for the presales write path.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "presales"

// Metrics holds the collectors. A nil *Metrics is valid and records nothing.
type Metrics struct {
	registry *prometheus.Registry

	Submissions    *prometheus.CounterVec
	LinesCreated   prometheus.Counter
	Edits          *prometheus.CounterVec
	RowsIDConflict prometheus.Counter
	WriteDuration  *prometheus.HistogramVec
}

// New registers the collectors on a fresh registry together with the Go and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		Submissions: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "submissions_total",
			Help:      "Opportunity submissions by result.",
		}, []string{"result"}),
		LinesCreated: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "lines_created_total",
			Help:      "Opportunity lines written by successful submissions.",
		}),
		Edits: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "edits_total",
			Help:      "Opportunity edits by operation and identity transition.",
		}, []string{"operation", "transition"}),
		RowsIDConflict: f.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "write_conflicts_total",
			Help:      "Write transactions re-run after a unique constraint conflict.",
		}),
		WriteDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "write_duration_seconds",
			Help:      "Duration of write operations including retries.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"operation"}),
	}
}

func (m *Metrics) Submission(result string) {
	if m == nil {
		return
	}
	m.Submissions.WithLabelValues(result).Inc()
}

func (m *Metrics) Lines(n int) {
	if m == nil {
		return
	}
	m.LinesCreated.Add(float64(n))
}

func (m *Metrics) Edit(operation, transition string) {
	if m == nil {
		return
	}
	m.Edits.WithLabelValues(operation, transition).Inc()
}

func (m *Metrics) Conflict() {
	if m == nil {
		return
	}
	m.RowsIDConflict.Inc()
}

func (m *Metrics) ObserveWrite(operation string, start time.Time) {
	if m == nil {
		return
	}
	m.WriteDuration.WithLabelValues(operation).Observe(time.Since(start).Seconds())
}

// Registry returns the registry the collectors live on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}
