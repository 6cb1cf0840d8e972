// Package metrics exposes coachgate's Prometheus metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/daap14/coachgate/internal/catalog"
	"github.com/daap14/coachgate/internal/entitlement"
)

const namespace = "coachgate"

// Recorder owns a registry and the counters the engine and tracker report
// into. It implements entitlement.Observer and progress.Observer.
type Recorder struct {
	registry *prometheus.Registry

	decisions       *prometheus.CounterVec
	usageRecorded   *prometheus.CounterVec
	completions     *prometheus.CounterVec
	storageFailures *prometheus.CounterVec
	catalogTools    prometheus.Gauge
	catalogVersion  prometheus.Gauge
	httpRequests    *prometheus.CounterVec
	httpDuration    *prometheus.HistogramVec
}

// New creates a Recorder with its own registry, including the Go runtime
// and process collectors.
func New() *Recorder {
	r := &Recorder{
		registry: prometheus.NewRegistry(),
		decisions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "access_decisions_total",
			Help:      "Access decisions by tool and level.",
		}, []string{"tool", "level"}),
		usageRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "usage_increments_total",
			Help:      "Metered tool executions counted.",
		}, []string{"tool"}),
		completions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "completions_total",
			Help:      "Milestone completion calls by tool and whether they wrote an event.",
		}, []string{"tool", "result"}),
		storageFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "storage_failures_total",
			Help:      "Storage operations that failed and were answered fail-closed.",
		}, []string{"op"}),
		catalogTools: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_tools",
			Help:      "Number of tools in the loaded catalog.",
		}),
		catalogVersion: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "catalog_version",
			Help:      "Version of the loaded catalog.",
		}),
		httpRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "HTTP requests by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		httpDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route pattern.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	r.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		r.decisions,
		r.usageRecorded,
		r.completions,
		r.storageFailures,
		r.catalogTools,
		r.catalogVersion,
		r.httpRequests,
		r.httpDuration,
	)
	return r
}

// Registry returns the registry the metrics live in.
func (r *Recorder) Registry() *prometheus.Registry {
	return r.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (r *Recorder) Handler() http.Handler {
	return promhttp.HandlerFor(r.registry, promhttp.HandlerOpts{})
}

// CatalogLoaded records the shape of the catalog in use.
func (r *Recorder) CatalogLoaded(c *catalog.Catalog) {
	r.catalogTools.Set(float64(len(c.Tools())))
	r.catalogVersion.Set(float64(c.Version()))
}

func (r *Recorder) DecisionMade(toolID catalog.ToolID, level entitlement.Level) {
	r.decisions.WithLabelValues(string(toolID), string(level)).Inc()
}

func (r *Recorder) UsageRecorded(toolID catalog.ToolID) {
	r.usageRecorded.WithLabelValues(string(toolID)).Inc()
}

func (r *Recorder) StorageFailed(op string) {
	r.storageFailures.WithLabelValues(op).Inc()
}

func (r *Recorder) CompletionMarked(toolID catalog.ToolID, newlyRecorded bool) {
	result := "duplicate"
	if newlyRecorded {
		result = "recorded"
	}
	r.completions.WithLabelValues(string(toolID), result).Inc()
}

// Middleware counts requests and their latency by chi route pattern, so
// user and tool ids never become label values.
func (r *Recorder) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, req.ProtoMajor)
		next.ServeHTTP(ww, req)

		route := "unmatched"
		if rctx := chi.RouteContext(req.Context()); rctx != nil {
			if p := rctx.RoutePattern(); p != "" {
				route = p
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}

		r.httpRequests.WithLabelValues(route, req.Method, strconv.Itoa(status)).Inc()
		r.httpDuration.WithLabelValues(route, req.Method).Observe(time.Since(start).Seconds())
	})
}
