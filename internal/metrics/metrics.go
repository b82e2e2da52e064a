// Package metrics exposes Prometheus collectors for the ledger service and
// the HTTP API.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics groups every collector. Each instance owns its registry so tests
// can build as many as they need. The endpoint is served without login, so
// no collector carries ledger figures.
type Metrics struct {
	registry *prometheus.Registry

	Mutations     *prometheus.CounterVec
	SaveFailures  *prometheus.CounterVec
	LoadFallbacks *prometheus.CounterVec
	HTTPDuration  *prometheus.HistogramVec
	LoginFailures prometheus.Counter
	MirrorRuns    *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		Mutations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rumclub",
			Name:      "ledger_mutations_total",
			Help:      "Ledger mutations saved, by operation.",
		}, []string{"operation"}),
		SaveFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rumclub",
			Name:      "ledger_save_failures_total",
			Help:      "Ledger saves that failed, by operation.",
		}, []string{"operation"}),
		LoadFallbacks: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rumclub",
			Name:      "ledger_load_fallbacks_total",
			Help:      "Loads that fell back to the default document, by reason.",
		}, []string{"reason"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rumclub",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route", "status"}),
		LoginFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "rumclub",
			Name:      "login_failures_total",
			Help:      "Rejected login attempts.",
		}),
		MirrorRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "rumclub",
			Name:      "sheet_mirror_runs_total",
			Help:      "Sheet mirror runs by result.",
		}, []string{"result"}),
	}
	m.registry.MustRegister(
		m.Mutations, m.SaveFailures, m.LoadFallbacks,
		m.HTTPDuration, m.LoginFailures, m.MirrorRuns,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the registry the collectors are registered with.
func (m *Metrics) Registry() *prometheus.Registry { return m.registry }

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// ObserveHTTP records one request.
func (m *Metrics) ObserveHTTP(method, route string, status int, d time.Duration) {
	m.HTTPDuration.WithLabelValues(method, route, strconv.Itoa(status)).Observe(d.Seconds())
}
