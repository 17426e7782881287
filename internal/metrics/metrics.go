// Package metrics exposes Prometheus collectors for sync runs, stats queries and HTTP traffic.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "product_dashboard"

// Sync outcomes used as the "result" label
const (
	SyncSuccess      = "success"
	SyncFetchError   = "fetch_error"
	SyncPersistError = "persist_error"
)

type Metrics struct {
	registry *prometheus.Registry

	syncRuns         *prometheus.CounterVec
	syncDuration     prometheus.Histogram
	productsUpserted prometheus.Counter
	productsSkipped  prometheus.Counter
	statsDuration    *prometheus.HistogramVec
	httpRequests     *prometheus.CounterVec
}

// New registers all collectors on a private registry
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		syncRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sync_runs_total",
			Help:      "Catalog synchronization runs by result.",
		}, []string{"result"}),
		syncDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "sync_duration_seconds",
			Help:      "Duration of catalog synchronization runs.",
			Buckets:   prometheus.DefBuckets,
		}),
		productsUpserted: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_upserted_total",
			Help:      "Products written to the store by synchronization.",
		}),
		productsSkipped: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "products_skipped_total",
			Help:      "Malformed upstream products ignored by synchronization.",
		}),
		statsDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "stats_query_duration_seconds",
			Help:      "Duration of the stats aggregation query.",
			Buckets:   []float64{.001, .005, .01, .025, .05, .1, .25, .5, 1},
		}, []string{"status"}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route and status code.",
		}, []string{"method", "route", "status"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.syncRuns,
		m.syncDuration,
		m.productsUpserted,
		m.productsSkipped,
		m.statsDuration,
		m.httpRequests,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Registry is exposed for tests
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) ObserveSync(result string, saved, skipped int, duration time.Duration) {
	if m == nil {
		return
	}
	m.syncRuns.WithLabelValues(result).Inc()
	m.syncDuration.Observe(duration.Seconds())
	m.productsUpserted.Add(float64(saved))
	m.productsSkipped.Add(float64(skipped))
}

func (m *Metrics) ObserveStats(err error, duration time.Duration) {
	if m == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	m.statsDuration.WithLabelValues(status).Observe(duration.Seconds())
}

func (m *Metrics) ObserveRequest(method, route string, status int) {
	if m == nil {
		return
	}
	m.httpRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
}
