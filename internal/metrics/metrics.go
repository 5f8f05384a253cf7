// Package metrics exposes store activity and HTTP latency on a private
// Prometheus registry.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "maintenance"

// Metrics implements store.Recorder.
type Metrics struct {
	registry *prometheus.Registry

	ingested      *prometheus.CounterVec
	deleted       prometheus.Counter
	recategorized prometheus.Counter
	current       prometheus.Gauge
	faults        prometheus.Gauge
	materials     prometheus.Gauge
	summaries     *prometheus.HistogramVec
	requests      *prometheus.HistogramVec
}

// New registers every metric on a fresh registry. Go runtime and process
// collectors are added when runtime is true.
func New(runtime bool) *Metrics {
	reg := prometheus.NewRegistry()
	if runtime {
		reg.MustRegister(
			collectors.NewGoCollector(),
			collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		)
	}

	m := &Metrics{
		registry: reg,
		ingested: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_ingested_total",
			Help:      "Uploaded rows, by validity.",
		}, []string{"validity"}),
		deleted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_deleted_total",
			Help:      "Records removed by single or bulk delete.",
		}),
		recategorized: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recategorize_runs_total",
			Help:      "Completed recategorization passes.",
		}),
		current: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "records_current",
			Help:      "Records currently held.",
		}),
		faults: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uncategorized_faults",
			Help:      "Distinct uncovered fault descriptions at the last bucket computation.",
		}),
		materials: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "uncategorized_materials",
			Help:      "Distinct unmatched material strings at the last bucket computation.",
		}),
		summaries: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "summary_request_duration_seconds",
			Help:      "Narrative summary generation latency.",
			Buckets:   []float64{.1, .25, .5, 1, 2.5, 5, 10, 30, 60},
		}, []string{"provider", "status"}),
		requests: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   []float64{.005, .01, .025, .05, .1, .25, .5, 1, 2.5, 5, 10},
		}, []string{"method", "route", "status"}),
	}
	reg.MustRegister(m.ingested, m.deleted, m.recategorized, m.current, m.faults, m.materials, m.summaries, m.requests)
	return m
}

func (m *Metrics) RecordsIngested(valid, invalid int) {
	m.ingested.WithLabelValues("valid").Add(float64(valid))
	m.ingested.WithLabelValues("invalid").Add(float64(invalid))
}

func (m *Metrics) RecordsDeleted(n int) { m.deleted.Add(float64(n)) }

func (m *Metrics) Recategorized() { m.recategorized.Inc() }

func (m *Metrics) RecordsCurrent(n int) { m.current.Set(float64(n)) }

func (m *Metrics) BucketSizes(faults, materials int) {
	m.faults.Set(float64(faults))
	m.materials.Set(float64(materials))
}

// ObserveSummary records one narrative summary call. status is "ok" or "error".
func (m *Metrics) ObserveSummary(provider, status string, elapsed time.Duration) {
	m.summaries.WithLabelValues(provider, status).Observe(elapsed.Seconds())
}

// ObserveRequest records one served HTTP request.
func (m *Metrics) ObserveRequest(method, route string, status int, elapsed time.Duration) {
	m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Observe(elapsed.Seconds())
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests and additional collectors.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }
